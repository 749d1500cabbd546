package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/evaluator"
)

type CLI struct {
	Hands []string `arg:"" help:"One or two sets of hole cards, e.g. 'AcKd' 'QhJs'"`
	Board string   `short:"b" help:"Community cards, e.g. 'Td7s8h'"`
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("hand-eval"),
		kong.Description("Show the best five-card hand and the claimed_score a client would report"),
	)
	if err := run(cli, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		ctx.Exit(1)
	}
}

type evaluated struct {
	hole []deck.Card
	best evaluator.HandValue
}

func run(cli CLI, w io.Writer) error {
	if len(cli.Hands) == 0 || len(cli.Hands) > 2 {
		return errors.New("give one or two hands")
	}
	board, err := deck.ParseCards(cli.Board)
	if err != nil {
		return fmt.Errorf("board: %w", err)
	}
	if len(board) > 5 {
		return fmt.Errorf("board has %d cards, at most 5 allowed", len(board))
	}

	hands := make([]evaluated, len(cli.Hands))
	seen := slices.Clone(board)
	for i, s := range cli.Hands {
		hole, err := deck.ParseCards(s)
		if err != nil {
			return fmt.Errorf("hand %d: %w", i+1, err)
		}
		if len(hole) != 2 {
			return fmt.Errorf("hand %d has %d cards, want 2", i+1, len(hole))
		}
		for _, c := range hole {
			if slices.Contains(seen, c) {
				return fmt.Errorf("card %s appears twice", c.Code())
			}
			seen = append(seen, c)
		}
		best, err := evaluator.BestHand(slices.Concat(hole, board))
		if err != nil {
			return fmt.Errorf("hand %d: %w", i+1, err)
		}
		hands[i] = evaluated{hole: hole, best: best}
	}

	_, _ = fmt.Fprintln(w, headerStyle.Render("Board: "+cardCodes(board)))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "HAND\tBEST FIVE\tCATEGORY\tCLAIMED_SCORE")
	for _, h := range hands {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			handStyle.Render(cardCodes(h.hole)),
			cardCodes(h.best.Cards),
			categoryStyle.Render(h.best.Category.String()),
			int(h.best.Category))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(hands) == 2 {
		var verdict string
		switch cmp := hands[0].best.Compare(hands[1].best); {
		case cmp > 0:
			verdict = cardCodes(hands[0].hole) + " wins"
		case cmp < 0:
			verdict = cardCodes(hands[1].hole) + " wins"
		default:
			verdict = "Split pot"
		}
		_, _ = fmt.Fprintln(w, winStyle.Render(verdict))
	}
	return nil
}

func cardCodes(cards []deck.Card) string {
	out := ""
	for i, c := range cards {
		if i > 0 {
			out += " "
		}
		out += c.Code()
	}
	return out
}
