package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/randutil"
)

const readTimeout = 5 * time.Second

type testServer struct {
	*Server
	httpURL string
	wsURL   string
}

// fastConfig plays without a turn clock or pause between rounds
func fastConfig(t *testing.T, extra string) *Config {
	t.Helper()
	src := `
match {
  turn_timeout = "0s"
  round_delay  = "0s"
}
` + extra
	cfg, err := ParseConfig([]byte(src), "test.hcl")
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, cfg *Config, opts ...Option) *testServer {
	t.Helper()

	opts = append([]Option{WithMatchOptions(game.WithRand(randutil.New(7)))}, opts...)
	srv, err := NewServer(cfg, log.New(io.Discard), opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return &testServer{
		Server:  srv,
		httpURL: ts.URL,
		wsURL:   "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

type testClient struct {
	conn *websocket.Conn
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{conn: conn}
}

func (c *testClient) send(msgType protocol.MessageType, data any) error {
	msg, err := protocol.NewMessage(msgType, data, time.Time{})
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

func (c *testClient) next() (*protocol.Message, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	_, frame, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return protocol.Parse(frame)
}

// nextOf skips messages until one of type want arrives
func (c *testClient) nextOf(want protocol.MessageType) (*protocol.Message, error) {
	for {
		msg, err := c.next()
		if err != nil {
			return nil, err
		}
		if msg.Type == want {
			return msg, nil
		}
	}
}

func (c *testClient) mustSend(t *testing.T, msgType protocol.MessageType, data any) {
	t.Helper()
	require.NoError(t, c.send(msgType, data))
}

func (c *testClient) mustNextOf(t *testing.T, want protocol.MessageType, v any) *protocol.Message {
	t.Helper()
	msg, err := c.nextOf(want)
	require.NoError(t, err, "waiting for %s", want)
	if v != nil {
		require.NoError(t, msg.Decode(v))
	}
	return msg
}

func (c *testClient) mustError(t *testing.T, code string) {
	t.Helper()
	var data protocol.ErrorData
	c.mustNextOf(t, protocol.TypeError, &data)
	assert.Equal(t, code, data.Code, data.Message)
}

// pair joins two clients and waits until both know the match started
func pair(t *testing.T, ts *testServer) (*testClient, *testClient, protocol.MatchStartData) {
	t.Helper()
	alice := dial(t, ts.wsURL)
	alice.mustSend(t, protocol.TypeJoin, protocol.JoinData{Name: "alice"})
	alice.mustNextOf(t, protocol.TypeWaiting, nil)

	bob := dial(t, ts.wsURL)
	bob.mustSend(t, protocol.TypeJoin, protocol.JoinData{Name: "bob"})

	var start protocol.MatchStartData
	alice.mustNextOf(t, protocol.TypeMatchStart, &start)
	bob.mustNextOf(t, protocol.TypeMatchStart, nil)
	return alice, bob, start
}

type playResult struct {
	gameOver protocol.GameOverData
	hands    map[int][]deck.Card
	err      error
}

// play opens every pot with a small bet and calls anything it faces
func play(c *testClient) playResult {
	res := playResult{hands: make(map[int][]deck.Card)}
	for {
		msg, err := c.next()
		if err != nil {
			res.err = err
			return res
		}
		switch msg.Type {
		case protocol.TypeHand:
			var hand protocol.HandData
			if res.err = msg.Decode(&hand); res.err != nil {
				return res
			}
			res.hands[hand.Round] = hand.Cards

		case protocol.TypeYourTurn:
			var turn protocol.YourTurnData
			if res.err = msg.Decode(&turn); res.err != nil {
				return res
			}
			action := protocol.ActionData{Action: "CHECK"}
			switch {
			case turn.ToCall > 0:
				action = protocol.ActionData{Action: "BET", Amount: min(turn.ToCall, turn.Chips)}
			case turn.Stage == "Pre-Flop" && turn.Chips >= 10:
				action = protocol.ActionData{Action: "BET", Amount: 10}
			}
			if res.err = c.send(protocol.TypeAction, action); res.err != nil {
				return res
			}

		case protocol.TypeError:
			var data protocol.ErrorData
			_ = msg.Decode(&data)
			res.err = fmt.Errorf("server error %s: %s", data.Code, data.Message)
			return res

		case protocol.TypeGameOver:
			res.err = msg.Decode(&res.gameOver)
			return res
		}
	}
}

func TestServerHealth(t *testing.T) {
	t.Parallel()
	srv, err := NewServer(DefaultConfig(), log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestWaitForHealthy(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fastConfig(t, ""))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, WaitForHealthy(ctx, ts.httpURL))
}

func TestFullMatchOverWebSocket(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fastConfig(t, ""))
	alice, bob, start := pair(t, ts)

	assert.Len(t, start.Players, 2)
	assert.Equal(t, 3, start.Rounds)
	assert.NotEmpty(t, start.MatchID)

	results := make(chan playResult, 1)
	go func() { results <- play(bob) }()
	aliceRes := play(alice)
	bobRes := <-results

	require.NoError(t, aliceRes.err)
	require.NoError(t, bobRes.err)

	over := aliceRes.gameOver
	assert.Equal(t, start.MatchID, over.MatchID)
	assert.Equal(t, 3, over.Rounds)
	require.Len(t, over.Standings, 2)
	assert.Equal(t, 2000, over.Standings[0].Chips+over.Standings[1].Chips, "chips are conserved")
	assert.Equal(t, 1, over.Standings[0].Rank)
	assert.GreaterOrEqual(t, over.Standings[0].Chips, over.Standings[1].Chips)
	assert.Equal(t, over, bobRes.gameOver)

	// each player saw exactly its own hole cards every round
	require.Len(t, aliceRes.hands, 3)
	require.Len(t, bobRes.hands, 3)
	for round, cards := range aliceRes.hands {
		require.Len(t, cards, 2)
		for _, c := range bobRes.hands[round] {
			assert.NotContains(t, cards, c, "round %d", round)
		}
	}
}

func TestActionValidationOverWebSocket(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fastConfig(t, ""))
	alice, bob, _ := pair(t, ts)

	var turn protocol.YourTurnData
	alice.mustNextOf(t, protocol.TypeYourTurn, &turn)
	assert.Equal(t, "Pre-Flop", turn.Stage)
	assert.Equal(t, 1000, turn.Chips)

	bob.mustSend(t, protocol.TypeAction, protocol.ActionData{Action: "CHECK"})
	bob.mustError(t, string(game.CodeNotYourTurn))

	alice.mustSend(t, protocol.TypeAction, protocol.ActionData{Action: "BET", Amount: -5})
	alice.mustError(t, string(game.CodeInvalidAmount))

	alice.mustSend(t, protocol.TypeAction, protocol.ActionData{Action: "BET", Amount: 5000})
	alice.mustError(t, string(game.CodeInsufficientChips))

	alice.mustSend(t, protocol.TypeAction, protocol.ActionData{Action: "RAISE", Amount: 5})
	alice.mustError(t, string(game.CodeUnknownAction))

	// the rejected attempts left the turn with alice
	alice.mustSend(t, protocol.TypeAction, protocol.ActionData{Action: "BET", Amount: 50})
	var action protocol.PlayerActionData
	bob.mustNextOf(t, protocol.TypeAction, &action)
	assert.Equal(t, "alice", action.Player)
	assert.Equal(t, "BET", action.Action)
	assert.Equal(t, 50, action.Amount)
	assert.Equal(t, 50, action.Pot)
	assert.Equal(t, 950, action.Chips)

	bob.mustNextOf(t, protocol.TypeYourTurn, &turn)
	assert.Equal(t, 50, turn.ToCall)
	bob.mustSend(t, protocol.TypeAction, protocol.ActionData{Action: "CHECK"})
	bob.mustError(t, string(game.CodeCannotCheck))
}

func TestProtocolErrors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fastConfig(t, ""))
	c := dial(t, ts.wsURL)

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	c.mustError(t, protocol.CodeBadMessage)

	c.mustSend(t, "shuffle", nil)
	c.mustError(t, protocol.CodeUnknownType)

	c.mustSend(t, protocol.TypeAction, protocol.ActionData{Action: "CHECK"})
	c.mustError(t, protocol.CodeNotJoined)

	c.mustSend(t, protocol.TypeJoin, protocol.JoinData{Name: "carol"})
	c.mustNextOf(t, protocol.TypeWaiting, nil)
	c.mustSend(t, protocol.TypeJoin, protocol.JoinData{Name: "carol"})
	c.mustError(t, protocol.CodeAlreadyJoined)
}

func TestQuitEndsMatch(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fastConfig(t, ""))
	alice, bob, _ := pair(t, ts)

	alice.mustNextOf(t, protocol.TypeYourTurn, nil)
	alice.mustSend(t, protocol.TypeAction, protocol.ActionData{Action: "QUIT"})

	var info protocol.InfoData
	bob.mustNextOf(t, protocol.TypeInfo, &info)
	for !strings.Contains(info.Message, "left the game") {
		bob.mustNextOf(t, protocol.TypeInfo, &info)
	}
	assert.Equal(t, "alice has left the game.", info.Message)

	var winner protocol.WinnerData
	bob.mustNextOf(t, protocol.TypeWinner, &winner)
	assert.Equal(t, []string{"bob"}, winner.Winners)
	assert.Equal(t, "Last player standing", winner.Reason)

	var over protocol.GameOverData
	bob.mustNextOf(t, protocol.TypeGameOver, &over)
	require.Len(t, over.Standings, 2)
	assert.Equal(t, "bob", over.Standings[0].Player)
	assert.Equal(t, "alice", over.Standings[1].Player)
	assert.Equal(t, "disconnected", over.Standings[1].Status)

	// the quitter's connection is closed by the server
	_, err := alice.nextOf(protocol.TypeGameOver)
	require.Error(t, err)
}

func TestDisconnectEndsMatch(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fastConfig(t, ""))
	alice, bob, _ := pair(t, ts)

	bob.mustNextOf(t, protocol.TypeHand, nil)
	require.NoError(t, alice.conn.Close())

	var over protocol.GameOverData
	bob.mustNextOf(t, protocol.TypeGameOver, &over)
	require.Len(t, over.Standings, 2)
	assert.Equal(t, "bob", over.Standings[0].Player)
	assert.Equal(t, "disconnected", over.Standings[1].Status)
	assert.Equal(t, 2000, over.Standings[0].Chips+over.Standings[1].Chips)
}

func TestJoinTimeout(t *testing.T) {
	t.Parallel()
	mClock := quartz.NewMock(t)
	ts := newTestServer(t, fastConfig(t, `server { join_timeout = "90s" }`), WithClock(mClock))
	c := dial(t, ts.wsURL)
	c.mustSend(t, protocol.TypeJoin, protocol.JoinData{Name: "dave"})

	// the timer is armed before the waiting message goes out
	c.mustNextOf(t, protocol.TypeWaiting, nil)

	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	mClock.Advance(90 * time.Second).MustWait(ctx)
	c.mustError(t, protocol.CodeJoinTimeout)
	_, err := c.next()
	require.Error(t, err, "connection should be closed")
	assert.False(t, ts.Lobby().Waiting())
}

func TestServerFull(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fastConfig(t, `server { max_matches = 1 }`))
	pair(t, ts)

	c := dial(t, ts.wsURL)
	c.mustSend(t, protocol.TypeJoin, protocol.JoinData{Name: "erin"})
	c.mustError(t, protocol.CodeServerFull)
}

func TestMatchesEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fastConfig(t, ""))
	alice, _, start := pair(t, ts)
	alice.mustNextOf(t, protocol.TypeYourTurn, nil)

	resp, err := http.Get(ts.httpURL + "/matches")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var matches []protocol.MatchSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&matches))
	require.Len(t, matches, 1)
	assert.Equal(t, start.MatchID, matches[0].MatchID)
	assert.Len(t, matches[0].Players, 2)
	assert.Equal(t, 1, matches[0].Round)
	assert.Equal(t, "Pre-Flop", matches[0].Stage)
	assert.Equal(t, start.Players[0].ID, matches[0].Acting)
}

func TestFinishedMatchIsArchived(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ts := newTestServer(t, fastConfig(t, fmt.Sprintf("server {\n  results_dir = %q\n}\n", dir)))
	alice, bob, start := pair(t, ts)

	results := make(chan playResult, 1)
	go func() { results <- play(bob) }()
	require.NoError(t, play(alice).err)
	require.NoError(t, (<-results).err)

	archive, err := NewArchive(dir)
	require.NoError(t, err)
	// the record is written right after game over goes out
	require.Eventually(t, func() bool {
		_, err := archive.Load(start.MatchID)
		return err == nil
	}, readTimeout, 10*time.Millisecond)

	rec, err := archive.Load(start.MatchID)
	require.NoError(t, err)
	assert.Equal(t, start.MatchID, rec.MatchID)
	assert.Len(t, rec.Players, 2)
	assert.Len(t, rec.Rounds, 3)
	require.Len(t, rec.Standings, 2)
	assert.Equal(t, 2000, rec.Standings[0].Chips+rec.Standings[1].Chips)
	assert.False(t, rec.EndedAt.Before(rec.StartedAt))
}
