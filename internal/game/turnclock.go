package game

import (
	"time"

	"github.com/coder/quartz"
)

// TurnClock keeps at most one turn deadline alive. Starting a new deadline
// cancels the previous one. It is not safe for concurrent use; Match guards it.
type TurnClock struct {
	clock    quartz.Clock
	timeout  time.Duration
	timer    *quartz.Timer
	playerID string
	turn     uint64
	deadline time.Time
}

// NewTurnClock returns a clock arming deadlines of length timeout. A zero
// timeout disables deadlines.
func NewTurnClock(clock quartz.Clock, timeout time.Duration) *TurnClock {
	return &TurnClock{clock: clock, timeout: timeout}
}

// Timeout returns the deadline length
func (tc *TurnClock) Timeout() time.Duration {
	return tc.timeout
}

// Start arms a deadline for the given turn. expire runs on the clock's
// goroutine and must check the turn is still current.
func (tc *TurnClock) Start(playerID string, turn uint64, expire func(playerID string, turn uint64)) {
	tc.Stop()
	if tc.timeout <= 0 {
		return
	}
	tc.playerID = playerID
	tc.turn = turn
	tc.deadline = tc.clock.Now().Add(tc.timeout)
	tc.timer = tc.clock.AfterFunc(tc.timeout, func() {
		expire(playerID, turn)
	}, "turn")
}

// Stop cancels the live deadline, if any
func (tc *TurnClock) Stop() {
	if tc.timer != nil {
		tc.timer.Stop()
		tc.timer = nil
	}
	tc.playerID = ""
	tc.turn = 0
	tc.deadline = time.Time{}
}

// Deadline returns when the live deadline fires, or the zero time
func (tc *TurnClock) Deadline() time.Time {
	return tc.deadline
}

// Armed returns the turn the live deadline belongs to
func (tc *TurnClock) Armed() (playerID string, turn uint64, ok bool) {
	if tc.timer == nil {
		return "", 0, false
	}
	return tc.playerID, tc.turn, true
}
