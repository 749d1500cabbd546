package game

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/randutil"
)

// recorder captures events for testing
type recorder struct {
	mu     sync.Mutex
	events []GameEvent
}

func (r *recorder) OnEvent(e GameEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []GameEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]GameEvent(nil), r.events...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func eventsOf[T GameEvent](events []GameEvent) []T {
	var out []T
	for _, e := range events {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func (r *recorder) outcomes() []RoundOutcome {
	var out []RoundOutcome
	for _, e := range eventsOf[RoundOverEvent](r.all()) {
		out = append(out, e.Outcome)
	}
	return out
}

func (r *recorder) lastOutcome(t *testing.T) RoundOutcome {
	t.Helper()
	outcomes := r.outcomes()
	require.NotEmpty(t, outcomes, "no round has finished")
	return outcomes[len(outcomes)-1]
}

// stacked builds a deck dealt in order: first seat's hole cards, second
// seat's hole cards, then the board.
func stacked(t *testing.T, cards string) *deck.Deck {
	t.Helper()
	d, err := deck.NewStacked(deck.MustParseCards(cards)...)
	require.NoError(t, err)
	return d
}

type testMatch struct {
	*Match
	events *recorder
	clock  *quartz.Mock
}

func testConfig() MatchConfig {
	cfg := DefaultMatchConfig()
	cfg.RoundDelay = 2 * time.Second
	return cfg
}

// newTestMatch seats p1 and p2. Rounds use the given decks in order and fall
// back to seeded shuffles.
func newTestMatch(t *testing.T, cfg MatchConfig, decks ...*deck.Deck) *testMatch {
	t.Helper()
	clock := quartz.NewMock(t)
	events := &recorder{}
	m, err := NewMatch(cfg, [2]Seat{{ID: "p1", Name: "Alice"}, {ID: "p2", Name: "Bob"}},
		WithClock(clock),
		WithID("test-match"),
		WithLogger(log.New(io.Discard)),
		WithEventSubscriber(events),
		WithDecks(func(round int) *deck.Deck {
			if round <= len(decks) {
				return decks[round-1]
			}
			return deck.NewShuffled(randutil.New(int64(round)))
		}),
	)
	require.NoError(t, err)
	return &testMatch{Match: m, events: events, clock: clock}
}

func (tm *testMatch) mustApply(t *testing.T, playerID string, a Action) {
	t.Helper()
	require.NoError(t, tm.Apply(playerID, a), "%s %s", playerID, a)
}

// playPassive calls or checks until the current round ends
func (tm *testMatch) playPassive(t *testing.T) {
	t.Helper()
	for range 20 {
		snap := tm.Snapshot()
		if snap.Round == nil || snap.Round.Actor == "" {
			return
		}
		if snap.Round.ToCall > 0 {
			tm.mustApply(t, snap.Round.Actor, BetAction(snap.Round.ToCall))
		} else {
			tm.mustApply(t, snap.Round.Actor, CheckAction())
		}
	}
	t.Fatal("round did not finish")
}

func stackSum(snap MatchSnapshot) int {
	sum := 0
	for _, p := range snap.Players {
		sum += p.Stack
	}
	if snap.Round != nil {
		sum += snap.Round.Pot
	}
	return sum
}
