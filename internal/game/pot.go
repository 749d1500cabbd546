package game

import "fmt"

// Payout records how many chips each seat received from a settlement
type Payout [2]int

// Pot holds every chip committed during one round. There are never side pots:
// with two players, chips one player cannot match are simply returned to their
// owner when the pot is settled.
type Pot struct {
	total         int
	contributions [2]int
}

// Total returns the chips in the pot
func (pot *Pot) Total() int {
	return pot.total
}

// Contribution returns the chips a seat has put in this round
func (pot *Pot) Contribution(seat int) int {
	return pot.contributions[seat]
}

// Commit moves amount chips from the player's stack into the pot. Call and
// raise minimums are the round's concern; Commit only guards the stack.
func (pot *Pot) Commit(p *Player, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("commit %d: amount must be positive", amount)
	}
	if amount > p.Stack {
		return fmt.Errorf("commit %d with stack %d: %w", amount, p.Stack, ErrInsufficientChips)
	}
	p.Stack -= amount
	pot.total += amount
	pot.contributions[p.Seat] += amount
	return nil
}

// returnUncalled gives back the part of the larger contribution the other
// seat never matched.
func (pot *Pot) returnUncalled(players [2]*Player, payout *Payout) {
	a, b := pot.contributions[0], pot.contributions[1]
	if a == b {
		return
	}
	seat, excess := 0, a-b
	if b > a {
		seat, excess = 1, b-a
	}
	players[seat].Stack += excess
	payout[seat] += excess
	pot.total -= excess
	pot.contributions[seat] -= excess
}

func (pot *Pot) clear() {
	pot.total = 0
	pot.contributions = [2]int{}
}

// Settle awards the pot to winner and empties it
func (pot *Pot) Settle(winner *Player, players [2]*Player) Payout {
	var payout Payout
	pot.returnUncalled(players, &payout)
	winner.Stack += pot.total
	payout[winner.Seat] += pot.total
	pot.clear()
	return payout
}

// SettleSplit divides the pot evenly. An odd chip goes to the first-position
// seat.
func (pot *Pot) SettleSplit(players [2]*Player, first int) Payout {
	var payout Payout
	pot.returnUncalled(players, &payout)
	half := pot.total / 2
	odd := pot.total - 2*half
	for _, p := range players {
		share := half
		if p.Seat == first {
			share += odd
		}
		p.Stack += share
		payout[p.Seat] += share
	}
	pot.clear()
	return payout
}

// Refund hands every seat back exactly what it contributed
func (pot *Pot) Refund(players [2]*Player) Payout {
	var payout Payout
	for _, p := range players {
		c := pot.contributions[p.Seat]
		p.Stack += c
		payout[p.Seat] = c
	}
	pot.clear()
	return payout
}
