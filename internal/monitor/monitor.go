// Package monitor prints a live spectator view of every match to a console.
package monitor

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
)

// Monitor writes match events as styled lines. One Monitor serves any number
// of matches; lines from different matches never interleave mid-line.
type Monitor struct {
	mu     sync.Mutex
	w      io.Writer
	styles *Styles
}

type config struct {
	profile *termenv.Profile
}

// Option configures a Monitor
type Option func(*config)

// WithProfile forces a color profile instead of detecting one from the writer
func WithProfile(p termenv.Profile) Option {
	return func(c *config) { c.profile = &p }
}

// New creates a monitor writing to w
func New(w io.Writer, opts ...Option) *Monitor {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	var termOpts []termenv.OutputOption
	if cfg.profile != nil {
		termOpts = append(termOpts, termenv.WithProfile(*cfg.profile))
	}
	return &Monitor{
		w:      w,
		styles: NewStyles(lipgloss.NewRenderer(w, termOpts...)),
	}
}

// Watch returns the subscriber rendering one match
func (m *Monitor) Watch(matchID string, seats [2]game.Seat) game.EventSubscriber {
	names := make(map[string]string, len(seats))
	for _, s := range seats {
		names[s.ID] = s.Name
	}
	prefix := matchID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return &view{monitor: m, prefix: prefix, names: names}
}

func (m *Monitor) print(prefix string, lines ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tag := m.styles.Dim.Render("[" + prefix + "]")
	for _, line := range lines {
		_, _ = fmt.Fprintf(m.w, "%s %s\n", tag, line)
	}
}

// FormatCards renders cards with suit colors
func (m *Monitor) FormatCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		style := m.styles.CardBlack
		if c.Suit == deck.Hearts || c.Suit == deck.Diamonds {
			style = m.styles.CardRed
		}
		parts[i] = style.Render(c.String())
	}
	return strings.Join(parts, " ")
}

type view struct {
	monitor *Monitor
	prefix  string
	names   map[string]string
}

func (v *view) name(id string) string {
	if n, ok := v.names[id]; ok && n != "" {
		return n
	}
	return id
}

func (v *view) OnEvent(event game.GameEvent) {
	if lines := v.render(event); len(lines) > 0 {
		v.monitor.print(v.prefix, lines...)
	}
}

func (v *view) render(event game.GameEvent) []string {
	s := v.monitor.styles
	cards := v.monitor.FormatCards

	switch e := event.(type) {
	case game.RoundStartedEvent:
		lines := []string{s.Header.Render(fmt.Sprintf("ROUND %d OF %d", e.Round, e.TotalRounds))}
		for _, p := range e.Players {
			lines = append(lines, fmt.Sprintf("%s: %d chips", v.name(p.PlayerID), p.Stack))
		}
		return lines

	case game.HoleCardsDealtEvent:
		return []string{fmt.Sprintf("%s is dealt [%s]", v.name(e.PlayerID), cards(e.Cards))}

	case game.CommunityDealtEvent:
		return []string{
			s.Stage.Render(fmt.Sprintf("*** %s ***", strings.ToUpper(e.Stage.String()))),
			fmt.Sprintf("Board: %s", cards(e.Board)),
		}

	case game.ActionAppliedEvent:
		return []string{s.Action.Render(v.describeAction(e)) + " " + s.Pot.Render(fmt.Sprintf("(pot %d)", e.Pot))}

	case game.PlayerTimedOutEvent:
		return []string{s.Warning.Render(fmt.Sprintf("%s timed out", v.name(e.PlayerID)))}

	case game.PlayerLeftEvent:
		return []string{s.Warning.Render(fmt.Sprintf("%s left the game (%s)", v.name(e.PlayerID), e.Reason))}

	case game.PlayerEjectedEvent:
		return []string{s.Warning.Render(fmt.Sprintf("%s KICKED for cheating: claimed %s, holds %s",
			v.name(e.PlayerID), e.Claimed, e.Actual))}

	case game.RoundOverEvent:
		return v.renderOutcome(e.Outcome)

	case game.MatchOverEvent:
		lines := []string{s.Header.Render("MATCH OVER")}
		for _, st := range e.Standings {
			line := fmt.Sprintf("%d. %s %d", st.Rank, v.name(st.PlayerID), st.Stack)
			if st.Status.Departed() {
				line += s.Dim.Render(" (" + st.Status.String() + ")")
			}
			lines = append(lines, line)
		}
		return lines
	}
	return nil
}

func (v *view) describeAction(e game.ActionAppliedEvent) string {
	name := v.name(e.PlayerID)
	switch e.Action.Kind {
	case game.Bet:
		if e.AllIn {
			return fmt.Sprintf("%s bets %d and is all-in", name, e.Action.Amount)
		}
		return fmt.Sprintf("%s bets %d", name, e.Action.Amount)
	case game.Check:
		return name + " checks"
	case game.Fold:
		return name + " folds"
	case game.Quit:
		return name + " quits"
	}
	return name + " " + e.Action.String()
}

func (v *view) renderOutcome(o game.RoundOutcome) []string {
	s := v.monitor.styles
	var lines []string
	if len(o.Hands) > 0 {
		lines = append(lines, s.Stage.Render("*** SHOWDOWN ***"))
		for _, st := range o.Stacks {
			hand, ok := o.Hands[st.PlayerID]
			if !ok {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s shows [%s] %s",
				v.name(st.PlayerID), v.monitor.FormatCards(o.Holes[st.PlayerID]), hand.Category))
		}
	}

	switch {
	case o.Mechanism == game.Aborted:
		lines = append(lines, s.Warning.Render(fmt.Sprintf("Round %d aborted, stakes returned: %v", o.Round, o.Err)))
	case o.Split():
		lines = append(lines, s.Winner.Render(fmt.Sprintf("%s and %s split %d",
			v.name(o.Winners[0]), v.name(o.Winners[1]), o.Pot)))
	case len(o.Winners) == 0:
		lines = append(lines, s.Warning.Render(fmt.Sprintf("Round %d has no winner", o.Round)))
	case o.Mechanism == game.ByShowdown:
		lines = append(lines, s.Winner.Render(fmt.Sprintf("%s wins %d with %s",
			v.name(o.Winners[0]), o.Pot, o.Hands[o.Winners[0]].Category)))
	default:
		lines = append(lines, s.Winner.Render(fmt.Sprintf("%s wins %d by %s",
			v.name(o.Winners[0]), o.Pot, o.Mechanism)))
	}
	return lines
}
