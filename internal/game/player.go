package game

import (
	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
)

// Status is a player's standing within the current round. Disconnected and
// Ejected are terminal for the match.
type Status int

const (
	Active Status = iota
	Folded
	Disconnected
	Ejected
)

func (s Status) String() string {
	return [...]string{"active", "folded", "disconnected", "ejected"}[s]
}

// Departed reports whether the player has left the match for good
func (s Status) Departed() bool {
	return s == Disconnected || s == Ejected
}

// Player is one of the two seats in a match. Stack persists across rounds;
// everything else is reset when a round starts.
type Player struct {
	ID     string
	Name   string
	Seat   int
	Stack  int
	Status Status
	Hole   []deck.Card
	Bet    int // committed in the current stage
}

// InHand returns true if the player can still win the current round
func (p *Player) InHand() bool {
	return p.Status == Active
}

// CanBet returns true if the player is in the hand with chips behind
func (p *Player) CanBet() bool {
	return p.Status == Active && p.Stack > 0
}

func (p *Player) resetForRound() {
	if p.Status == Folded {
		p.Status = Active
	}
	p.Hole = nil
	p.Bet = 0
}

// PlayerStack is a (player, stack) pair carried by events
type PlayerStack struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Stack    int    `json:"stack"`
}

func stacksOf(players [2]*Player) []PlayerStack {
	out := make([]PlayerStack, len(players))
	for i, p := range players {
		out[i] = PlayerStack{PlayerID: p.ID, Name: p.Name, Stack: p.Stack}
	}
	return out
}
