// Package bot plays matches over the WebSocket protocol without a human,
// for smoke testing a server or filling the other seat.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/evaluator"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

// ErrDisconnected is returned when the server hangs up before the match ends
var ErrDisconnected = errors.New("disconnected before game over")

// ClaimMode decides what hand category the bot reports with its actions
type ClaimMode int

const (
	ClaimNone ClaimMode = iota
	// ClaimHonest reports the category of the best hand held so far
	ClaimHonest
	// ClaimBluff always reports a royal flush and gets caught at showdown
	ClaimBluff
)

// ParseClaimMode accepts none, honest or bluff
func ParseClaimMode(s string) (ClaimMode, error) {
	switch s {
	case "", "none":
		return ClaimNone, nil
	case "honest":
		return ClaimHonest, nil
	case "bluff":
		return ClaimBluff, nil
	}
	return ClaimNone, fmt.Errorf("unknown claim mode %q", s)
}

// State is what the bot knows about its current match
type State struct {
	MatchID  string
	PlayerID string
	Round    int
	Stage    string
	Hole     []deck.Card
	Board    []deck.Card
	Chips    int
	Pot      int
}

// Result summarizes a finished match from the bot's side
type Result struct {
	MatchID   string
	Rounds    int
	Standings []protocol.StandingData
	Kicked    bool
}

// Bot provides a simple framework for automated players
type Bot struct {
	name     string
	strategy Strategy
	claims   ClaimMode
	conn     *websocket.Conn
	logger   *log.Logger
	state    State
	result   Result
}

// Option configures a Bot
type Option func(*Bot)

// WithClaims sets what hand category the bot reports
func WithClaims(mode ClaimMode) Option {
	return func(b *Bot) { b.claims = mode }
}

// WithLogger sets the bot logger
func WithLogger(logger *log.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// New creates a new bot with the given strategy
func New(name string, strategy Strategy, opts ...Option) *Bot {
	b := &Bot{
		name:     name,
		strategy: strategy,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithPrefix("bot").With("name", name)
	return b
}

// Name returns the name the bot joins with
func (b *Bot) Name() string { return b.name }

// State returns the current match state
func (b *Bot) State() State { return b.state }

// Connect dials the server and asks to join a match
func (b *Bot) Connect(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	b.conn = conn
	return b.send(protocol.TypeJoin, protocol.JoinData{Name: b.name})
}

// Run plays until the match is over, the server hangs up or ctx is done
func (b *Bot) Run(ctx context.Context) (*Result, error) {
	if b.conn == nil {
		return nil, errors.New("not connected")
	}
	defer b.conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = b.conn.Close() })
	defer stop()

	for {
		_, frame, err := b.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %w", ErrDisconnected, err)
		}
		msg, err := protocol.Parse(frame)
		if err != nil {
			b.logger.Warn("Ignoring malformed message", "error", err)
			continue
		}

		done, err := b.handle(msg)
		if done {
			if err != nil {
				return nil, err
			}
			return &b.result, nil
		}
		if err != nil {
			b.logger.Error("Failed to handle message", "type", msg.Type, "error", err)
		}
	}
}

func (b *Bot) send(msgType protocol.MessageType, data any) error {
	msg, err := protocol.NewMessage(msgType, data, time.Now())
	if err != nil {
		return err
	}
	_ = b.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return b.conn.WriteJSON(msg)
}

// handle updates the state from one message. done is true once the match is
// over for this bot.
func (b *Bot) handle(msg *protocol.Message) (done bool, err error) {
	switch msg.Type {
	case protocol.TypeMatchStart:
		var start protocol.MatchStartData
		if err := msg.Decode(&start); err != nil {
			return false, err
		}
		b.state = State{MatchID: start.MatchID, PlayerID: start.You}
		b.result.MatchID = start.MatchID
		b.logger.Info("Match started", "match", start.MatchID, "rounds", start.Rounds)

	case protocol.TypeHand:
		var hand protocol.HandData
		if err := msg.Decode(&hand); err != nil {
			return false, err
		}
		b.state.Round = hand.Round
		b.state.Hole = hand.Cards
		b.state.Board = nil
		b.state.Chips = hand.Chips
		b.state.Pot = 0

	case protocol.TypeCommunity:
		var community protocol.CommunityData
		if err := msg.Decode(&community); err != nil {
			return false, err
		}
		b.state.Stage = community.Stage
		b.state.Board = community.Cards

	case protocol.TypeAction:
		var action protocol.PlayerActionData
		if err := msg.Decode(&action); err != nil {
			return false, err
		}
		b.state.Pot = action.Pot
		if action.PlayerID == b.state.PlayerID {
			b.state.Chips = action.Chips
		}

	case protocol.TypeYourTurn:
		var turn protocol.YourTurnData
		if err := msg.Decode(&turn); err != nil {
			return false, err
		}
		b.state.Stage = turn.Stage
		b.state.Pot = turn.Pot
		b.state.Chips = turn.Chips
		b.state.Board = turn.Community
		return false, b.act(turn)

	case protocol.TypeKicked:
		var kicked protocol.KickedData
		if err := msg.Decode(&kicked); err != nil {
			return false, err
		}
		b.result.Kicked = true
		b.logger.Warn("Kicked", "reason", kicked.Message)

	case protocol.TypeError:
		var data protocol.ErrorData
		if err := msg.Decode(&data); err != nil {
			return false, err
		}
		b.logger.Warn("Server rejected message", "code", data.Code, "msg", data.Message)
		if data.Code == protocol.CodeJoinTimeout || data.Code == protocol.CodeServerFull {
			return true, fmt.Errorf("join failed: %s", data.Message)
		}

	case protocol.TypeGameOver:
		var over protocol.GameOverData
		if err := msg.Decode(&over); err != nil {
			return true, err
		}
		b.result.Rounds = over.Rounds
		b.result.Standings = over.Standings
		b.logger.Info("Match over", "rounds", over.Rounds)
		return true, nil
	}
	return false, nil
}

func (b *Bot) act(turn protocol.YourTurnData) error {
	action := b.strategy.Decide(b.state, turn)
	if score, ok := b.claim(); ok {
		action.ClaimedScore = &score
	}
	b.logger.Debug("Acting", "stage", turn.Stage, "action", action.Action, "amount", action.Amount)
	return b.send(protocol.TypeAction, action)
}

func (b *Bot) claim() (int, bool) {
	switch b.claims {
	case ClaimBluff:
		return int(evaluator.RoyalFlush), true
	case ClaimHonest:
		cards := slices.Concat(b.state.Hole, b.state.Board)
		if len(cards) < 5 {
			return 0, false
		}
		hand, err := evaluator.BestHand(cards)
		if err != nil {
			return 0, false
		}
		return int(hand.Category), true
	}
	return 0, false
}
