package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/monitor"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/server"
)

var CLI struct {
	Config      string        `short:"c" default:"holdem-server.hcl" help:"Path to HCL configuration file"`
	Addr        string        `short:"a" help:"Address to bind to (overrides config)"`
	Port        int           `short:"p" help:"Port to listen on (overrides config)"`
	LogLevel    string        `short:"l" help:"Log level: debug, info, warn, error (overrides config)"`
	Rounds      int           `short:"r" help:"Rounds per match (overrides config)"`
	Stack       int           `help:"Starting chips per player (overrides config)"`
	TurnTimeout time.Duration `help:"Time a player has to act, 0 to wait forever (overrides config)"`
	MaxMatches  int           `help:"Maximum concurrent matches, 0 for unlimited (overrides config)"`
	ResultsDir  string        `help:"Directory to archive finished matches as JSON (overrides config)"`
	Monitor     bool          `short:"m" help:"Print every match to stdout as it is played"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("holdem-server"),
		kong.Description("Heads-up Texas Hold'em match server"),
	)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		log.Error("Error loading config", "error", err)
		ctx.Exit(1)
	}
	applyOverrides(cfg, ctx)
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "error", err)
		ctx.Exit(1)
	}

	level, _ := log.ParseLevel(cfg.Server.LogLevel)
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	var opts []server.Option
	if CLI.Monitor {
		opts = append(opts, server.WithObserver(monitor.New(os.Stdout)))
	}
	srv, err := server.NewServer(cfg, logger, opts...)
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		ctx.Exit(1)
	}

	matchCfg, _ := cfg.MatchConfig()
	logger.Info("Starting Holdem Server",
		"addr", cfg.Address(),
		"rounds", matchCfg.Rounds,
		"stack", matchCfg.StartingStack,
		"turnTimeout", matchCfg.TurnTimeout,
		"elimination", matchCfg.Elimination)

	if err := run(srv, logger); err != nil {
		logger.Error("Server error", "error", err)
		ctx.Exit(1)
	}
}

func applyOverrides(cfg *server.Config, ctx *kong.Context) {
	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.Port != 0 {
		cfg.Server.Port = CLI.Port
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Rounds != 0 {
		cfg.Match.Rounds = CLI.Rounds
	}
	if CLI.Stack != 0 {
		cfg.Match.StartingStack = CLI.Stack
	}
	if flagSet(ctx, "turn-timeout") {
		cfg.Match.TurnTimeout = CLI.TurnTimeout.String()
	}
	if CLI.MaxMatches != 0 {
		cfg.Server.MaxMatches = CLI.MaxMatches
	}
	if CLI.ResultsDir != "" {
		cfg.Server.ResultsDir = CLI.ResultsDir
	}
}

// flagSet reports whether a flag was given on the command line, so an
// explicit zero can override the config file
func flagSet(ctx *kong.Context, name string) bool {
	for _, f := range ctx.Flags() {
		if f.Name == name {
			return f.Set
		}
	}
	return false
}

func run(srv *server.Server, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	})
	return g.Wait()
}
