package game

import (
	"fmt"
	"slices"
	"time"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/evaluator"
)

// Round is the betting state machine for one deal. Its methods are plain state
// transitions returning the events they produced; Match serializes access.
type Round struct {
	number  int
	total   int
	first   int // acts first in every stage
	stage   Stage
	actor   int
	turn    uint64
	acted   [2]bool
	players [2]*Player
	board   []deck.Card
	pot     Pot
	deck    *deck.Deck
	claims  [2]*evaluator.Category
	timeout time.Duration
	outcome *RoundOutcome
	now     func() time.Time
}

type roundSetup struct {
	number  int
	total   int
	first   int
	timeout time.Duration
	now     func() time.Time
}

func newRound(setup roundSetup, players [2]*Player, d *deck.Deck) *Round {
	return &Round{
		number:  setup.number,
		total:   setup.total,
		first:   setup.first,
		players: players,
		deck:    d,
		timeout: setup.timeout,
		now:     setup.now,
	}
}

// Number is the 1-based position of the round in its match
func (r *Round) Number() int { return r.number }

// Stage returns the current stage
func (r *Round) Stage() Stage { return r.stage }

// Pot returns the chips at stake
func (r *Round) Pot() int { return r.pot.Total() }

// Board returns a copy of the community cards
func (r *Round) Board() []deck.Card { return slices.Clone(r.board) }

// Outcome is nil until the round is over
func (r *Round) Outcome() *RoundOutcome { return r.outcome }

// Live reports whether players still act in this round
func (r *Round) Live() bool { return r.stage.Betting() && r.outcome == nil }

func (r *Round) other(seat int) int { return 1 - seat }

// ToCall is what the seat must add to match the opponent this stage
func (r *Round) ToCall(seat int) int {
	diff := r.players[r.other(seat)].Bet - r.players[seat].Bet
	if diff < 0 {
		return 0
	}
	return diff
}

// start deals the hole cards and hands the first turn out
func (r *Round) start() []GameEvent {
	for _, p := range r.players {
		p.resetForRound()
	}
	r.stage = PreFlop
	r.board = nil

	first := r.players[r.first]
	events := []GameEvent{RoundStartedEvent{
		Round:       r.number,
		TotalRounds: r.total,
		FirstPlayer: first.ID,
		Players:     stacksOf(r.players),
		timestamp:   r.now(),
	}}

	for i := range r.players {
		p := r.players[(r.first+i)%2]
		cards, err := r.deck.Draw(2)
		if err != nil {
			return append(events, r.abort(fmt.Errorf("deal hole cards: %w", err))...)
		}
		p.Hole = cards
		events = append(events, HoleCardsDealtEvent{
			PlayerID:  p.ID,
			Cards:     slices.Clone(cards),
			timestamp: r.now(),
		})
	}

	r.actor = r.first
	return append(events, r.turnChanged())
}

// apply validates and applies a player's action. A rejected action leaves the
// round untouched.
func (r *Round) apply(seat int, a Action) ([]GameEvent, error) {
	if err := r.validate(seat, a); err != nil {
		return nil, err
	}
	p := r.players[seat]
	if a.Claim != nil {
		claim := *a.Claim
		r.claims[seat] = &claim
	}

	switch a.Kind {
	case Bet:
		return r.bet(p, a), nil
	case Check:
		r.acted[seat] = true
		events := []GameEvent{r.applied(p, a)}
		return append(events, r.advance()...), nil
	case Fold:
		return r.fold(p, a, Folded), nil
	case Quit:
		return r.fold(p, a, Disconnected), nil
	}
	return nil, invalid(CodeUnknownAction, "unknown action %d", a.Kind)
}

func (r *Round) validate(seat int, a Action) error {
	if !r.Live() {
		return invalid(CodeRoundClosed, "round %d is in stage %s", r.number, r.stage)
	}
	p := r.players[seat]
	if !p.InHand() {
		return invalid(CodeNotActive, "player %s is %s", p.ID, p.Status)
	}
	if seat != r.actor {
		return invalid(CodeNotYourTurn, "waiting on %s", r.players[r.actor].ID)
	}
	if a.Claim != nil && !a.Claim.Valid() {
		return invalid(CodeUnknownAction, "unknown hand category %d", int(*a.Claim))
	}

	toCall := r.ToCall(seat)
	switch a.Kind {
	case Bet:
		switch {
		case a.Amount <= 0:
			return invalid(CodeInvalidAmount, "bet must be positive, got %d", a.Amount)
		case a.Amount > p.Stack:
			return invalid(CodeInsufficientChips, "bet %d exceeds stack %d", a.Amount, p.Stack)
		case a.Amount < toCall && a.Amount != p.Stack:
			return invalid(CodeBelowCall, "bet %d is below the %d needed to call", a.Amount, toCall)
		}
	case Check:
		if toCall > 0 {
			return invalid(CodeCannotCheck, "%d to call", toCall)
		}
	case Fold, Quit:
	default:
		return invalid(CodeUnknownAction, "unknown action %d", a.Kind)
	}
	return nil
}

func (r *Round) bet(p *Player, a Action) []GameEvent {
	toCall := r.ToCall(p.Seat)
	// validate has checked the stack
	_ = r.pot.Commit(p, a.Amount)
	p.Bet += a.Amount
	r.acted[p.Seat] = true
	if a.Amount > toCall {
		r.acted[r.other(p.Seat)] = false
	}
	events := []GameEvent{r.applied(p, a)}
	return append(events, r.advance()...)
}

func (r *Round) fold(p *Player, a Action, status Status) []GameEvent {
	p.Status = status
	events := []GameEvent{r.applied(p, a)}
	if status == Disconnected {
		events = append(events, PlayerLeftEvent{PlayerID: p.ID, Reason: LeaveQuit, timestamp: r.now()})
	}
	return append(events, r.winByFold(r.other(p.Seat))...)
}

// expireTurn forces a fold on the acting player through the normal action path
func (r *Round) expireTurn(seat int) []GameEvent {
	p := r.players[seat]
	events := []GameEvent{PlayerTimedOutEvent{PlayerID: p.ID, Stage: r.stage, timestamp: r.now()}}
	more, err := r.apply(seat, FoldAction())
	if err != nil {
		return nil
	}
	return append(events, more...)
}

// leave removes a player from a live round. The acting player folds through
// the action path; a player disconnecting out of turn loses the round the same way.
func (r *Round) leave(seat int) []GameEvent {
	p := r.players[seat]
	if !r.Live() || !p.InHand() {
		p.Status = Disconnected
		return []GameEvent{PlayerLeftEvent{PlayerID: p.ID, Reason: LeaveDisconnect, timestamp: r.now()}}
	}
	p.Status = Disconnected
	events := []GameEvent{
		r.applied(p, FoldAction()),
		PlayerLeftEvent{PlayerID: p.ID, Reason: LeaveDisconnect, timestamp: r.now()},
	}
	return append(events, r.winByFold(r.other(seat))...)
}

func (r *Round) applied(p *Player, a Action) ActionAppliedEvent {
	return ActionAppliedEvent{
		PlayerID:  p.ID,
		Stage:     r.stage,
		Action:    a,
		Pot:       r.pot.Total(),
		Stack:     p.Stack,
		AllIn:     a.Kind == Bet && p.Stack == 0,
		timestamp: r.now(),
	}
}

func (r *Round) turnChanged() GameEvent {
	r.turn++
	p := r.players[r.actor]
	return TurnChangedEvent{
		PlayerID:  p.ID,
		Stage:     r.stage,
		Turn:      r.turn,
		Pot:       r.pot.Total(),
		ToCall:    r.ToCall(r.actor),
		Stack:     p.Stack,
		Board:     slices.Clone(r.board),
		Timeout:   r.timeout,
		timestamp: r.now(),
	}
}

// done reports whether a seat has nothing left to do this stage
func (r *Round) done(seat int) bool {
	p := r.players[seat]
	if !p.InHand() || p.Stack == 0 {
		return true
	}
	return r.acted[seat] && r.ToCall(seat) == 0
}

// advance passes the turn, or closes the stage once both seats are done
func (r *Round) advance() []GameEvent {
	if !r.done(0) || !r.done(1) {
		r.actor = r.other(r.actor)
		return []GameEvent{r.turnChanged()}
	}

	for i, p := range r.players {
		p.Bet = 0
		r.acted[i] = false
	}

	// Nobody left to bet against: run the board out.
	if !r.players[0].CanBet() || !r.players[1].CanBet() {
		var events []GameEvent
		for r.stage != River {
			more, ok := r.nextStage()
			events = append(events, more...)
			if !ok {
				return events
			}
		}
		return append(events, r.showdown()...)
	}

	if r.stage == River {
		return r.showdown()
	}
	events, ok := r.nextStage()
	if !ok {
		return events
	}
	r.actor = r.first
	return append(events, r.turnChanged())
}

// nextStage deals the community cards of the following stage
func (r *Round) nextStage() ([]GameEvent, bool) {
	n := 1
	if r.stage == PreFlop {
		n = 3
	}
	cards, err := r.deck.Draw(n)
	if err != nil {
		return r.abort(fmt.Errorf("deal %s: %w", r.stage+1, err)), false
	}
	r.stage++
	r.board = append(r.board, cards...)
	return []GameEvent{CommunityDealtEvent{
		Stage:     r.stage,
		Cards:     cards,
		Board:     slices.Clone(r.board),
		timestamp: r.now(),
	}}, true
}

func (r *Round) showdown() []GameEvent {
	r.stage = Showdown
	potBefore := r.pot.Total()

	hands := make(map[string]evaluator.HandValue, 2)
	holes := make(map[string][]deck.Card, 2)
	var values [2]evaluator.HandValue
	for i, p := range r.players {
		v, err := evaluator.BestHand(append(slices.Clone(p.Hole), r.board...))
		if err != nil {
			return r.abort(fmt.Errorf("evaluate %s: %w", p.ID, err))
		}
		values[i] = v
		hands[p.ID] = v
		holes[p.ID] = slices.Clone(p.Hole)
	}

	var events []GameEvent
	var cheaters []int
	for i, p := range r.players {
		claim := r.claims[i]
		if claim == nil || *claim <= values[i].Category {
			continue
		}
		p.Status = Ejected
		cheaters = append(cheaters, i)
		events = append(events, PlayerEjectedEvent{
			PlayerID:  p.ID,
			Claimed:   *claim,
			Actual:    values[i].Category,
			timestamp: r.now(),
		})
	}

	var (
		mechanism = ByShowdown
		winners   []string
		payout    Payout
	)
	switch len(cheaters) {
	case 2:
		mechanism = ByEjection
		payout = r.pot.Refund(r.players)
	case 1:
		mechanism = ByEjection
		winner := r.players[r.other(cheaters[0])]
		winners = []string{winner.ID}
		payout = r.pot.Settle(winner, r.players)
	default:
		switch values[0].Compare(values[1]) {
		case 1:
			winners = []string{r.players[0].ID}
			payout = r.pot.Settle(r.players[0], r.players)
		case -1:
			winners = []string{r.players[1].ID}
			payout = r.pot.Settle(r.players[1], r.players)
		default:
			winners = []string{r.players[r.first].ID, r.players[r.other(r.first)].ID}
			payout = r.pot.SettleSplit(r.players, r.first)
		}
	}

	return append(events, r.finish(RoundOutcome{
		Mechanism: mechanism,
		Winners:   winners,
		Pot:       potBefore,
		Payout:    payout,
		Hands:     hands,
		Holes:     holes,
	}))
}

func (r *Round) winByFold(seat int) []GameEvent {
	winner := r.players[seat]
	potBefore := r.pot.Total()
	payout := r.pot.Settle(winner, r.players)
	return []GameEvent{r.finish(RoundOutcome{
		Mechanism: ByFold,
		Winners:   []string{winner.ID},
		Pot:       potBefore,
		Payout:    payout,
	})}
}

// abort ends the round without a winner and returns every stake
func (r *Round) abort(err error) []GameEvent {
	potBefore := r.pot.Total()
	payout := r.pot.Refund(r.players)
	return []GameEvent{r.finish(RoundOutcome{
		Mechanism: Aborted,
		Pot:       potBefore,
		Payout:    payout,
		Err:       err,
	})}
}

func (r *Round) finish(o RoundOutcome) GameEvent {
	r.stage = RoundOver
	for _, p := range r.players {
		p.Bet = 0
	}
	o.Round = r.number
	o.Stacks = stacksOf(r.players)
	o.Board = slices.Clone(r.board)
	r.outcome = &o
	return RoundOverEvent{Outcome: o, timestamp: r.now()}
}
