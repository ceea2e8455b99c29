package clock

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the sentinel wrapped by every *TransitionError
var ErrInvalidTransition = errors.New("invalid clock transition")

// TransitionError reports a command issued in a state that forbids it
type TransitionError struct {
	Op     string
	Side   Side
	State  State
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Side != SideNone {
		return fmt.Sprintf("%s %s rejected in state %s: %s", e.Op, e.Side, e.State, e.Reason)
	}
	return fmt.Sprintf("%s rejected in state %s: %s", e.Op, e.State, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
