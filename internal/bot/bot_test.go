package bot

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/randutil"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/server"
)

func startServer(t *testing.T, opts ...server.Option) string {
	t.Helper()
	cfg, err := server.ParseConfig([]byte(`
match {
  turn_timeout = "0s"
  round_delay  = "0s"
}
`), "bot-test.hcl")
	require.NoError(t, err)

	srv, err := server.NewServer(cfg, log.New(io.Discard), opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// playMatch runs bots against each other until their match is over
func playMatch(t *testing.T, url string, bots ...*Bot) []*Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := make([]*Result, len(bots))
	g, ctx := errgroup.WithContext(ctx)
	for i, b := range bots {
		require.NoError(t, b.Connect(ctx, url))
		g.Go(func() error {
			res, err := b.Run(ctx)
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())
	return results
}

func TestBotsPlayFullMatch(t *testing.T) {
	t.Parallel()
	url := startServer(t)

	aggressive, err := ParseStrategy("aggressive", randutil.New(3))
	require.NoError(t, err)
	random, err := ParseStrategy("random", randutil.New(4))
	require.NoError(t, err)

	results := playMatch(t, url,
		New("agro", aggressive, WithClaims(ClaimHonest)),
		New("dice", random, WithClaims(ClaimHonest)),
	)

	for _, res := range results {
		require.NotNil(t, res)
		assert.False(t, res.Kicked, "honest claims are never above the real hand")
		require.Len(t, res.Standings, 2)
		assert.Equal(t, 2000, res.Standings[0].Chips+res.Standings[1].Chips)
		assert.GreaterOrEqual(t, res.Standings[0].Chips, res.Standings[1].Chips)
		assert.LessOrEqual(t, res.Rounds, 3)
	}
	assert.Equal(t, results[0].MatchID, results[1].MatchID)
	assert.Equal(t, results[0].Standings, results[1].Standings)
}

func TestBluffingBotIsEjected(t *testing.T) {
	t.Parallel()
	// the stacked deck gives nobody better than a pair
	d := func(int) *deck.Deck {
		stacked, err := deck.NewStacked(deck.MustParseCards("2c7d 3h8s KdQc5s4h9c")...)
		if err != nil {
			panic(err)
		}
		return stacked
	}
	url := startServer(t, server.WithMatchOptions(game.WithDecks(d)))

	liar := New("liar", CallingStation{}, WithClaims(ClaimBluff))
	honest := New("honest", CallingStation{}, WithClaims(ClaimHonest))
	results := playMatch(t, url, liar, honest)

	byName := map[string]*Result{}
	for i, b := range []*Bot{liar, honest} {
		byName[b.Name()] = results[i]
	}
	assert.True(t, byName["liar"].Kicked)
	assert.False(t, byName["honest"].Kicked)

	standings := byName["honest"].Standings
	require.Len(t, standings, 2)
	assert.Equal(t, "honest", standings[0].Player)
	assert.Equal(t, "liar", standings[1].Player)
	assert.Equal(t, "ejected", standings[1].Status)
	assert.Equal(t, 1, byName["honest"].Rounds)
}
