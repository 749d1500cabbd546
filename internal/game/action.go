package game

import (
	"fmt"
	"strings"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/evaluator"
)

// Stage is the phase of a round
type Stage int

const (
	PreFlop Stage = iota
	Flop
	Turn
	River
	Showdown
	RoundOver
)

func (s Stage) String() string {
	if s < PreFlop || s > RoundOver {
		return "unknown"
	}
	return [...]string{"pre-flop", "flop", "turn", "river", "showdown", "round-over"}[s]
}

// Betting reports whether players act during this stage
func (s Stage) Betting() bool {
	return s >= PreFlop && s <= River
}

// ActionKind is one of the four player actions
type ActionKind int

const (
	Bet ActionKind = iota + 1
	Check
	Fold
	Quit
)

func (k ActionKind) String() string {
	switch k {
	case Bet:
		return "BET"
	case Check:
		return "CHECK"
	case Fold:
		return "FOLD"
	case Quit:
		return "QUIT"
	default:
		return "UNKNOWN"
	}
}

// ParseActionKind parses BET, CHECK, FOLD or QUIT in any case
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BET":
		return Bet, nil
	case "CHECK":
		return Check, nil
	case "FOLD":
		return Fold, nil
	case "QUIT":
		return Quit, nil
	}
	return 0, invalid(CodeUnknownAction, "unknown action %q", s)
}

// Action is a player's move. Amount is only meaningful for Bet. Claim carries a
// hand category the client asserts it holds; it is checked at showdown and
// never used for payout.
type Action struct {
	Kind   ActionKind
	Amount int
	Claim  *evaluator.Category
}

func BetAction(amount int) Action { return Action{Kind: Bet, Amount: amount} }
func CheckAction() Action         { return Action{Kind: Check} }
func FoldAction() Action          { return Action{Kind: Fold} }
func QuitAction() Action          { return Action{Kind: Quit} }

// WithClaim returns a copy of a carrying an asserted hand category
func (a Action) WithClaim(c evaluator.Category) Action {
	a.Claim = &c
	return a
}

func (a Action) String() string {
	if a.Kind == Bet {
		return fmt.Sprintf("%s %d", a.Kind, a.Amount)
	}
	return a.Kind.String()
}
