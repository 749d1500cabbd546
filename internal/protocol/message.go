// Package protocol defines the JSON messages exchanged with players over a
// WebSocket, one message per frame, and converts them to and from engine types.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitzero"`
}

// NewMessage creates a new message with the given timestamp
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", messageType, err)
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: now,
	}, nil
}

// Parse decodes a frame into a message envelope
func Parse(frame []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if msg.Type == "" {
		return nil, errors.New("decode message: missing type")
	}
	return &msg, nil
}

// Decode unmarshals the message payload into v
func (m *Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("decode %s: missing data", m.Type)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", m.Type, err)
	}
	return nil
}

// Client → Server Messages

type JoinData struct {
	Name string `json:"name"`
}

type ActionData struct {
	Action string `json:"action"` // BET, CHECK, FOLD or QUIT
	Amount int    `json:"amount,omitempty"`
	// ClaimedScore is the hand category (0 high card .. 9 royal flush) the
	// client asserts it holds. Negative or absent means no claim.
	ClaimedScore *int `json:"claimed_score,omitempty"`
}

// Server → Client Messages

type WaitingData struct {
	Message string `json:"msg"`
}

type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Seat  int    `json:"seat"`
	Chips int    `json:"chips"`
}

type MatchStartData struct {
	MatchID        string       `json:"match_id"`
	You            string       `json:"you"`
	Players        []PlayerInfo `json:"players"`
	Rounds         int          `json:"rounds"`
	TimeoutSeconds int          `json:"timeout_seconds"`
}

type HandData struct {
	Round   int         `json:"round"`
	Cards   []deck.Card `json:"cards"`
	Display []string    `json:"display"`
	Chips   int         `json:"chips"`
}

type CommunityData struct {
	Stage   string      `json:"stage"`
	Cards   []deck.Card `json:"cards"` // the whole board
	New     []deck.Card `json:"new"`
	Display []string    `json:"display"`
}

type TurnData struct {
	PlayerID string `json:"player_id"`
	Player   string `json:"player"`
	Stage    string `json:"stage"`
	Pot      int    `json:"pot"`
}

type YourTurnData struct {
	Stage          string      `json:"stage"`
	Pot            int         `json:"pot"`
	Chips          int         `json:"chips"`
	ToCall         int         `json:"to_call"`
	Community      []deck.Card `json:"community"`
	TimeoutSeconds int         `json:"timeout_seconds"`
}

type PlayerActionData struct {
	PlayerID string `json:"player_id"`
	Player   string `json:"player"`
	Stage    string `json:"stage"`
	Action   string `json:"action"`
	Amount   int    `json:"amount,omitempty"`
	AllIn    bool   `json:"all_in,omitempty"`
	Pot      int    `json:"pot"`
	Chips    int    `json:"chips"`
}

type TimeoutData struct {
	PlayerID string `json:"player_id"`
	Player   string `json:"player"`
	Stage    string `json:"stage"`
}

type KickedData struct {
	Message string `json:"msg"`
	Claimed string `json:"claimed"`
	Actual  string `json:"actual"`
}

type InfoData struct {
	Message string `json:"msg"`
}

type ShowdownHand struct {
	PlayerID string      `json:"player_id"`
	Player   string      `json:"player"`
	Cards    []deck.Card `json:"hand"`
	Best     []deck.Card `json:"best"`
	Category string      `json:"category"`
	Score    int         `json:"score"`
}

type ShowdownData struct {
	Hands     []ShowdownHand `json:"hands"`
	Community []deck.Card    `json:"community"`
}

type WinnerData struct {
	Round     int            `json:"round"`
	Winners   []string       `json:"winners"`
	WinnerIDs []string       `json:"winner_ids"`
	Reason    string         `json:"reason"`
	Hand      string         `json:"hand,omitempty"`
	Pot       int            `json:"pot"`
	Split     bool           `json:"split"`
	Chips     map[string]int `json:"chips"`
}

type StandingData struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Player   string `json:"player"`
	Chips    int    `json:"chips"`
	Status   string `json:"status"`
}

type GameOverData struct {
	MatchID   string         `json:"match_id"`
	Rounds    int            `json:"rounds"`
	Standings []StandingData `json:"standings"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"msg"`
}

// HTTP status

type MatchSummary struct {
	MatchID      string       `json:"match_id"`
	Rounds       int          `json:"rounds"`
	RoundsPlayed int          `json:"rounds_played"`
	Over         bool         `json:"over"`
	Round        int          `json:"round,omitempty"`
	Stage        string       `json:"stage,omitempty"`
	Pot          int          `json:"pot"`
	Acting       string       `json:"acting,omitempty"`
	Community    []deck.Card  `json:"community"`
	Players      []PlayerInfo `json:"players"`
}
