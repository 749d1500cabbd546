package protocol

import (
	"errors"
	"fmt"
	"slices"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/evaluator"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
)

// Helper functions to convert between engine types and message types

// Names resolves a player ID to its display name
type Names func(playerID string) string

// ToAction converts a client action into an engine action
func ToAction(d ActionData) (game.Action, error) {
	kind, err := game.ParseActionKind(d.Action)
	if err != nil {
		return game.Action{}, err
	}
	a := game.Action{Kind: kind}
	if kind == game.Bet {
		a.Amount = d.Amount
	}
	if d.ClaimedScore != nil && *d.ClaimedScore >= 0 {
		claim := evaluator.Category(*d.ClaimedScore)
		if !claim.Valid() {
			return game.Action{}, &game.ValidationError{
				Code: game.CodeUnknownAction,
				Msg:  fmt.Sprintf("claimed_score %d is not a hand category", *d.ClaimedScore),
			}
		}
		a = a.WithClaim(claim)
	}
	return a, nil
}

// StageName returns the display name of a stage
func StageName(s game.Stage) string {
	switch s {
	case game.PreFlop:
		return "Pre-Flop"
	case game.Flop:
		return "Flop"
	case game.Turn:
		return "Turn"
	case game.River:
		return "River"
	case game.Showdown:
		return "Showdown"
	}
	return "Round Over"
}

// CardNames spells cards out, e.g. "Ace of Spades"
func CardNames(cards []deck.Card) []string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.Name()
	}
	return names
}

func PlayersFromSnapshot(snap game.MatchSnapshot) []PlayerInfo {
	players := make([]PlayerInfo, len(snap.Players))
	for i, p := range snap.Players {
		players[i] = PlayerInfo{ID: p.ID, Name: p.Name, Seat: p.Seat, Chips: p.Stack}
	}
	return players
}

func StandingsFromGame(standings []game.Standing) []StandingData {
	out := make([]StandingData, len(standings))
	for i, s := range standings {
		out[i] = StandingData{
			Rank:     s.Rank,
			PlayerID: s.PlayerID,
			Player:   s.Name,
			Chips:    s.Stack,
			Status:   s.Status.String(),
		}
	}
	return out
}

// WinnerFromOutcome builds the round result broadcast
func WinnerFromOutcome(o game.RoundOutcome, names Names) WinnerData {
	data := WinnerData{
		Round:     o.Round,
		WinnerIDs: slices.Clone(o.Winners),
		Reason:    reason(o.Mechanism),
		Pot:       o.Pot,
		Split:     o.Split(),
		Chips:     make(map[string]int, len(o.Stacks)),
	}
	if data.WinnerIDs == nil {
		data.WinnerIDs = []string{}
	}
	data.Winners = make([]string, len(o.Winners))
	for i, id := range o.Winners {
		data.Winners[i] = names(id)
	}
	if o.Mechanism == game.ByShowdown && len(o.Winners) > 0 {
		data.Hand = o.Hands[o.Winners[0]].Category.String()
	}
	for _, s := range o.Stacks {
		data.Chips[s.Name] = s.Stack
	}
	return data
}

func reason(m game.Mechanism) string {
	switch m {
	case game.ByFold:
		return "Last player standing"
	case game.ByShowdown:
		return "Best hand at showdown"
	case game.ByEjection:
		return "Opponent ejected for cheating"
	case game.Forfeit:
		return "Opponent has no chips left"
	case game.Aborted:
		return "Round aborted, stakes returned"
	}
	return string(m)
}

// ShowdownFromOutcome reveals both hands. ok is false when the round did not
// reach a showdown.
func ShowdownFromOutcome(o game.RoundOutcome, order []string, names Names) (ShowdownData, bool) {
	if len(o.Hands) == 0 {
		return ShowdownData{}, false
	}
	data := ShowdownData{Community: slices.Clone(o.Board)}
	for _, id := range order {
		hand, ok := o.Hands[id]
		if !ok {
			continue
		}
		data.Hands = append(data.Hands, ShowdownHand{
			PlayerID: id,
			Player:   names(id),
			Cards:    slices.Clone(o.Holes[id]),
			Best:     slices.Clone(hand.Cards),
			Category: hand.Category.String(),
			Score:    int(hand.Category),
		})
	}
	return data, true
}

// ErrorFromErr maps an engine error onto an error message
func ErrorFromErr(err error) ErrorData {
	if code := game.ValidationCodeOf(err); code != "" {
		return ErrorData{Code: string(code), Message: err.Error()}
	}
	switch {
	case errors.Is(err, game.ErrMatchOver):
		return ErrorData{Code: CodeMatchOver, Message: err.Error()}
	case errors.Is(err, game.ErrUnknownPlayer):
		return ErrorData{Code: CodeNotJoined, Message: err.Error()}
	}
	return ErrorData{Code: CodeBadMessage, Message: err.Error()}
}

// SummaryFromSnapshot builds the public status line of a match
func SummaryFromSnapshot(snap game.MatchSnapshot) MatchSummary {
	summary := MatchSummary{
		MatchID:      snap.ID,
		Rounds:       snap.Rounds,
		RoundsPlayed: snap.RoundsPlayed,
		Over:         snap.Over,
		Community:    []deck.Card{},
		Players:      PlayersFromSnapshot(snap),
	}
	if r := snap.Round; r != nil {
		summary.Round = r.Number
		summary.Stage = StageName(r.Stage)
		summary.Pot = r.Pot
		summary.Acting = r.Actor
		if len(r.Board) > 0 {
			summary.Community = slices.Clone(r.Board)
		}
	}
	return summary
}
