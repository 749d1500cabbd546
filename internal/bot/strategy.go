package bot

import (
	"fmt"
	"math/rand/v2"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

// Strategy picks the bot's action when it is asked to act
type Strategy interface {
	Name() string
	Decide(state State, turn protocol.YourTurnData) protocol.ActionData
}

// Strategies lists the names ParseStrategy accepts
var Strategies = []string{"call", "aggressive", "random", "fold"}

// ParseStrategy returns the named strategy. rng drives the randomized ones.
func ParseStrategy(name string, rng *rand.Rand) (Strategy, error) {
	switch name {
	case "call":
		return CallingStation{}, nil
	case "aggressive":
		return &Aggressive{rng: rng}, nil
	case "random":
		return &Random{rng: rng}, nil
	case "fold":
		return Folder{}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

func check() protocol.ActionData { return protocol.ActionData{Action: "CHECK"} }
func fold() protocol.ActionData  { return protocol.ActionData{Action: "FOLD"} }

func bet(amount int) protocol.ActionData {
	return protocol.ActionData{Action: "BET", Amount: amount}
}

// call matches the outstanding bet, all-in when short
func call(turn protocol.YourTurnData) protocol.ActionData {
	return bet(min(turn.ToCall, turn.Chips))
}

// CallingStation checks when it can and calls everything else
type CallingStation struct{}

func (CallingStation) Name() string { return "call" }

func (CallingStation) Decide(_ State, turn protocol.YourTurnData) protocol.ActionData {
	if turn.ToCall == 0 {
		return check()
	}
	return call(turn)
}

// Folder gives up every pot it is asked to put chips into
type Folder struct{}

func (Folder) Name() string { return "fold" }

func (Folder) Decide(_ State, turn protocol.YourTurnData) protocol.ActionData {
	if turn.ToCall == 0 {
		return check()
	}
	return fold()
}

// Aggressive bets the pot most of the time and calls the rest
type Aggressive struct {
	rng *rand.Rand
}

func (s *Aggressive) Name() string { return "aggressive" }

func (s *Aggressive) Decide(_ State, turn protocol.YourTurnData) protocol.ActionData {
	if turn.Chips <= turn.ToCall {
		return call(turn)
	}
	if s.rng.Float64() < 0.7 {
		raise := max(turn.Pot, 10)
		return bet(min(turn.ToCall+raise, turn.Chips))
	}
	if turn.ToCall == 0 {
		return check()
	}
	return call(turn)
}

// Random picks uniformly among the legal actions
type Random struct {
	rng *rand.Rand
}

func (s *Random) Name() string { return "random" }

func (s *Random) Decide(_ State, turn protocol.YourTurnData) protocol.ActionData {
	switch s.rng.IntN(3) {
	case 0:
		if turn.ToCall == 0 {
			return check()
		}
		return fold()
	case 1:
		if turn.ToCall == 0 {
			return check()
		}
		return call(turn)
	}
	if turn.Chips <= turn.ToCall {
		return call(turn)
	}
	raise := 1 + s.rng.IntN(turn.Chips-turn.ToCall)
	return bet(turn.ToCall + raise)
}
