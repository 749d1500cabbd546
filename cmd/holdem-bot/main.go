package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/bot"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/randutil"
)

var CLI struct {
	Server   string `short:"s" default:"ws://localhost:5555/ws" help:"WebSocket URL of the match server"`
	Count    int    `short:"n" default:"1" help:"Number of bots to run"`
	Strategy string `default:"call" help:"Strategy: ${strategies}"`
	Claims   string `default:"honest" enum:"none,honest,bluff" help:"Hand category reported with each action"`
	Name     string `default:"bot" help:"Name prefix; bots are numbered when more than one runs"`
	Seed     int64  `help:"Random seed for randomized strategies (0 picks one)"`
	Debug    bool   `help:"Enable debug logging"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("holdem-bot"),
		kong.Description("Automated players for the heads-up Hold'em server"),
		kong.Vars{"strategies": strings.Join(bot.Strategies, ", ")},
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if CLI.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	claims, err := bot.ParseClaimMode(CLI.Claims)
	ctx.FatalIfErrorf(err)

	seed := CLI.Seed
	if seed == 0 {
		seed = randutil.Seed()
	}

	bots := make([]*bot.Bot, CLI.Count)
	for i := range bots {
		strategy, err := bot.ParseStrategy(CLI.Strategy, randutil.New(seed+int64(i)))
		ctx.FatalIfErrorf(err)
		name := CLI.Name
		if CLI.Count > 1 {
			name = fmt.Sprintf("%s-%d", CLI.Name, i+1)
		}
		bots[i] = bot.New(name, strategy, bot.WithClaims(claims), bot.WithLogger(logger))
	}

	if err := run(bots, logger); err != nil {
		logger.Error("Bot failed", "error", err)
		ctx.Exit(1)
	}
}

func run(bots []*bot.Bot, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for _, b := range bots {
		g.Go(func() error {
			if err := b.Connect(ctx, CLI.Server); err != nil {
				return err
			}
			res, err := b.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", b.Name(), err)
			}
			for _, s := range res.Standings {
				logger.Info("Final standing", "bot", b.Name(), "rank", s.Rank, "player", s.Player, "chips", s.Chips, "status", s.Status)
			}
			return nil
		})
	}
	return g.Wait()
}
