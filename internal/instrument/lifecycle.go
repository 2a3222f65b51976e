package instrument

import (
	"fmt"
)

// State is an instrument lifecycle state.
type State string

const (
	StateDraft     State = "DRAFT"
	StatePublished State = "PUBLISHED"
	StateRedeemed  State = "REDEEMED"
)

var allowedTransitions = map[State][]State{
	StateDraft:     {StatePublished},
	StatePublished: {StateRedeemed},
	StateRedeemed:  {},
}

// TransitionError reports a move the lifecycle does not allow.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move instrument from %s to %s", e.From, e.To)
}

// CanTransition checks if a state transition is allowed.
func CanTransition(from, to State) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the states reachable from from.
func AllowedTransitions(from State) []State {
	return append([]State(nil), allowedTransitions[from]...)
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	next, ok := allowedTransitions[s]
	return ok && len(next) == 0
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Transition validates the move to and returns a *TransitionError if the
// lifecycle forbids it.
func Transition(from, to State) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
