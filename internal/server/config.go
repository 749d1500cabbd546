package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
)

// Config represents the complete server configuration
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Match  *MatchSettings  `hcl:"match,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address     string `hcl:"address,optional"`
	Port        int    `hcl:"port,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	JoinTimeout string `hcl:"join_timeout,optional"`
	MaxMatches  int    `hcl:"max_matches,optional"` // 0 means unlimited
	ResultsDir  string `hcl:"results_dir,optional"` // empty disables the archive
}

// MatchSettings holds the rules every match is played with. Durations use Go
// syntax, e.g. "60s"; "0s" disables the turn clock.
type MatchSettings struct {
	Rounds        int    `hcl:"rounds,optional"`
	StartingStack int    `hcl:"starting_stack,optional"`
	TurnTimeout   string `hcl:"turn_timeout,optional"`
	RoundDelay    string `hcl:"round_delay,optional"`
	Elimination   string `hcl:"elimination,optional"`
}

const (
	defaultAddress     = "localhost"
	defaultPort        = 5555
	defaultLogLevel    = "info"
	defaultJoinTimeout = 120 * time.Second
)

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from an HCL file. A missing file yields the
// defaults.
func LoadConfig(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(src, filename)
}

// ParseConfig decodes HCL source, applies defaults and validates the result
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Match == nil {
		c.Match = &MatchSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaultLogLevel
	}
	if c.Server.JoinTimeout == "" {
		c.Server.JoinTimeout = defaultJoinTimeout.String()
	}

	defaults := game.DefaultMatchConfig()
	if c.Match.Rounds == 0 {
		c.Match.Rounds = defaults.Rounds
	}
	if c.Match.StartingStack == 0 {
		c.Match.StartingStack = defaults.StartingStack
	}
	if c.Match.TurnTimeout == "" {
		c.Match.TurnTimeout = defaults.TurnTimeout.String()
	}
	if c.Match.RoundDelay == "" {
		c.Match.RoundDelay = defaults.RoundDelay.String()
	}
	if c.Match.Elimination == "" {
		c.Match.Elimination = string(defaults.Elimination)
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Server.Port))
	}
	if c.Server.MaxMatches < 0 {
		errs = append(errs, fmt.Errorf("max_matches must not be negative, got %d", c.Server.MaxMatches))
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if d, err := time.ParseDuration(c.Server.JoinTimeout); err != nil {
		errs = append(errs, fmt.Errorf("join_timeout: %w", err))
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("join_timeout must not be negative, got %s", d))
	}
	if _, err := c.MatchConfig(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Address returns the full listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// JoinTimeout is how long a lone player waits for an opponent. Zero waits forever.
func (c *Config) JoinTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.JoinTimeout)
	return d
}

// MatchConfig converts the match block into engine rules. Rounds always
// advance on their own on a server.
func (c *Config) MatchConfig() (game.MatchConfig, error) {
	turnTimeout, err := time.ParseDuration(c.Match.TurnTimeout)
	if err != nil {
		return game.MatchConfig{}, fmt.Errorf("turn_timeout: %w", err)
	}
	roundDelay, err := time.ParseDuration(c.Match.RoundDelay)
	if err != nil {
		return game.MatchConfig{}, fmt.Errorf("round_delay: %w", err)
	}
	elimination, err := game.ParseEliminationPolicy(c.Match.Elimination)
	if err != nil {
		return game.MatchConfig{}, err
	}

	cfg := game.MatchConfig{
		Rounds:        c.Match.Rounds,
		StartingStack: c.Match.StartingStack,
		TurnTimeout:   turnTimeout,
		RoundDelay:    roundDelay,
		AutoAdvance:   true,
		Elimination:   elimination,
	}
	if err := cfg.Validate(); err != nil {
		return game.MatchConfig{}, err
	}
	return cfg, nil
}
