package game

import (
	"errors"
	"fmt"
	"time"
)

// EliminationPolicy decides what happens once a player has no chips left
type EliminationPolicy string

const (
	// EliminationEndMatch ends the match right after the round that busted a player
	EliminationEndMatch EliminationPolicy = "end_match"
	// EliminationPlayOut keeps the fixed round count; remaining rounds are forfeited
	EliminationPlayOut EliminationPolicy = "play_out"
)

// ParseEliminationPolicy accepts the policy names used in config files
func ParseEliminationPolicy(s string) (EliminationPolicy, error) {
	switch p := EliminationPolicy(s); p {
	case EliminationEndMatch, EliminationPlayOut:
		return p, nil
	case "":
		return EliminationEndMatch, nil
	}
	return "", fmt.Errorf("unknown elimination policy %q", s)
}

// MatchConfig holds the rules of one match
type MatchConfig struct {
	Rounds        int
	StartingStack int
	TurnTimeout   time.Duration // zero disables the turn clock
	RoundDelay    time.Duration
	AutoAdvance   bool // start the next round RoundDelay after the previous one ends
	Elimination   EliminationPolicy
}

// DefaultMatchConfig returns three rounds of 1000 chips with a 60 second turn clock
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Rounds:        3,
		StartingStack: 1000,
		TurnTimeout:   60 * time.Second,
		RoundDelay:    2 * time.Second,
		Elimination:   EliminationEndMatch,
	}
}

// Validate checks the configuration for errors
func (c MatchConfig) Validate() error {
	var errs []error
	if c.Rounds < 1 {
		errs = append(errs, fmt.Errorf("rounds must be at least 1, got %d", c.Rounds))
	}
	if c.StartingStack < 1 {
		errs = append(errs, fmt.Errorf("starting stack must be positive, got %d", c.StartingStack))
	}
	if c.TurnTimeout < 0 {
		errs = append(errs, fmt.Errorf("turn timeout must not be negative, got %s", c.TurnTimeout))
	}
	if c.RoundDelay < 0 {
		errs = append(errs, fmt.Errorf("round delay must not be negative, got %s", c.RoundDelay))
	}
	if _, err := ParseEliminationPolicy(string(c.Elimination)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
