package monitor

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/evaluator"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
)

var seats = [2]game.Seat{{ID: "p1", Name: "alice"}, {ID: "p2", Name: "bob"}}

func newTestMonitor() (*Monitor, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&buf, WithProfile(termenv.Ascii)), &buf
}

func TestMonitorRendersEvents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		event game.GameEvent
		want  []string
	}{
		{
			name: "round start",
			event: game.RoundStartedEvent{Round: 2, TotalRounds: 3, Players: []game.PlayerStack{
				{PlayerID: "p1", Name: "alice", Stack: 900},
				{PlayerID: "p2", Name: "bob", Stack: 1100},
			}},
			want: []string{"ROUND 2 OF 3", "alice: 900 chips", "bob: 1100 chips"},
		},
		{
			name:  "hole cards",
			event: game.HoleCardsDealtEvent{PlayerID: "p2", Cards: deck.MustParseCards("AsKh")},
			want:  []string{"bob is dealt [A♠ K♥]"},
		},
		{
			name:  "flop",
			event: game.CommunityDealtEvent{Stage: game.Flop, Cards: deck.MustParseCards("2c7d9h"), Board: deck.MustParseCards("2c7d9h")},
			want:  []string{"*** FLOP ***", "Board: 2♣ 7♦ 9♥"},
		},
		{
			name:  "all-in bet",
			event: game.ActionAppliedEvent{PlayerID: "p1", Action: game.BetAction(900), Pot: 1000, AllIn: true},
			want:  []string{"alice bets 900 and is all-in", "(pot 1000)"},
		},
		{
			name:  "check",
			event: game.ActionAppliedEvent{PlayerID: "p2", Action: game.CheckAction(), Pot: 40},
			want:  []string{"bob checks"},
		},
		{
			name:  "timeout",
			event: game.PlayerTimedOutEvent{PlayerID: "p1", Stage: game.Turn},
			want:  []string{"alice timed out"},
		},
		{
			name:  "left",
			event: game.PlayerLeftEvent{PlayerID: "p2", Reason: game.LeaveDisconnect},
			want:  []string{"bob left the game (disconnect)"},
		},
		{
			name:  "ejected",
			event: game.PlayerEjectedEvent{PlayerID: "p1", Claimed: evaluator.RoyalFlush, Actual: evaluator.HighCard},
			want:  []string{"alice KICKED for cheating: claimed Royal Flush, holds High Card"},
		},
		{
			name: "split",
			event: game.RoundOverEvent{Outcome: game.RoundOutcome{
				Round: 1, Mechanism: game.ByShowdown, Winners: []string{"p1", "p2"}, Pot: 200,
			}},
			want: []string{"alice and bob split 200"},
		},
		{
			name: "fold",
			event: game.RoundOverEvent{Outcome: game.RoundOutcome{
				Round: 1, Mechanism: game.ByFold, Winners: []string{"p2"}, Pot: 60,
			}},
			want: []string{"bob wins 60 by fold"},
		},
		{
			name: "aborted",
			event: game.RoundOverEvent{Outcome: game.RoundOutcome{
				Round: 3, Mechanism: game.Aborted, Err: errors.New("deck exhausted"),
			}},
			want: []string{"Round 3 aborted, stakes returned: deck exhausted"},
		},
		{
			name: "match over",
			event: game.MatchOverEvent{MatchID: "m", RoundsPlayed: 3, Standings: []game.Standing{
				{Rank: 1, PlayerID: "p2", Name: "bob", Stack: 2000, Status: game.Active},
				{Rank: 2, PlayerID: "p1", Name: "alice", Stack: 0, Status: game.Disconnected},
			}},
			want: []string{"MATCH OVER", "1. bob 2000", "2. alice 0 (disconnected)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mon, buf := newTestMonitor()
			mon.Watch("0123456789abcdef", seats).OnEvent(tt.event)

			out := buf.String()
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
				assert.True(t, strings.HasPrefix(line, "[01234567] "), "line %q lacks match prefix", line)
			}
		})
	}
}

func TestMonitorWatchesMatch(t *testing.T) {
	t.Parallel()
	mon, buf := newTestMonitor()

	d, err := deck.NewStacked(deck.MustParseCards("AsAh KsKh 2c7d9hJc3s")...)
	require.NoError(t, err)

	cfg := game.DefaultMatchConfig()
	cfg.Rounds = 1
	cfg.TurnTimeout = 0
	m, err := game.NewMatch(cfg, seats,
		game.WithID("watched"),
		game.WithDecks(func(int) *deck.Deck { return d }),
		game.WithEventSubscriber(mon.Watch("watched", seats)),
	)
	require.NoError(t, err)

	require.NoError(t, m.StartRound())
	for !m.IsOver() {
		snap := m.Snapshot()
		require.NoError(t, m.Apply(snap.Round.Actor, game.CheckAction()))
	}

	out := buf.String()
	assert.Contains(t, out, "*** SHOWDOWN ***")
	assert.Contains(t, out, "alice shows [A♠ A♥] One Pair")
	assert.Contains(t, out, "alice wins 0 with One Pair")
	assert.Contains(t, out, "MATCH OVER")
	assert.NotContains(t, out, "\x1b[", "ascii profile must not emit escape codes")
}
