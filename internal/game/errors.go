package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAction matches every *ValidationError via errors.Is
	ErrInvalidAction = errors.New("invalid action")

	ErrInsufficientChips = errors.New("insufficient chips")
	ErrMatchOver         = errors.New("match is over")
	ErrRoundInProgress   = errors.New("round already in progress")
	ErrNotEnoughPlayers  = errors.New("not enough players to start a round")
	ErrUnknownPlayer     = errors.New("unknown player")
)

// ValidationCode classifies why an action was rejected
type ValidationCode string

const (
	CodeNotYourTurn       ValidationCode = "not_your_turn"
	CodeNotActive         ValidationCode = "not_active"
	CodeRoundClosed       ValidationCode = "round_closed"
	CodeInvalidAmount     ValidationCode = "invalid_amount"
	CodeInsufficientChips ValidationCode = "insufficient_chips"
	CodeBelowCall         ValidationCode = "below_call"
	CodeCannotCheck       ValidationCode = "cannot_check"
	CodeUnknownAction     ValidationCode = "unknown_action"
)

// ValidationError is returned for a rejected action. The state is unchanged
// and the match can continue.
type ValidationError struct {
	Code ValidationCode
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is makes errors.Is(err, ErrInvalidAction) true for every validation failure
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidAction
}

func invalid(code ValidationCode, format string, args ...any) error {
	return &ValidationError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// ValidationCodeOf returns the code of a validation error, or "" if err is not one
func ValidationCodeOf(err error) ValidationCode {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
