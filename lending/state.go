package lending

import "fmt"

// State is the lifecycle stage of an order.
type State string

const (
	StateNormal      State = "normal"
	StateOverdue     State = "overdue"
	StateBreach      State = "breach"
	StateEnded       State = "ended"
	StateBreachEnded State = "breach_ended"
)

// Terminal reports whether the state frees the owning slot.
func (s State) Terminal() bool {
	return s == StateEnded || s == StateBreachEnded
}

// Operation names a command applied to an order.
type Operation string

const (
	OpCreate             Operation = "create"
	OpMarkOverdue        Operation = "mark_overdue"
	OpMarkNormal         Operation = "mark_normal"
	OpMarkEnded          Operation = "mark_ended"
	OpMarkBreach         Operation = "mark_breach"
	OpMarkBreachEnded    Operation = "mark_breach_ended"
	OpPrincipalReduction Operation = "principal_reduction"
	OpInterest           Operation = "interest"
	OpBreachPayment      Operation = "breach_payment"
)

type transition struct {
	from []State
	// to is empty for operations that keep the current state.
	to State
}

var transitions = map[Operation]transition{
	OpMarkOverdue:        {from: []State{StateNormal}, to: StateOverdue},
	OpMarkNormal:         {from: []State{StateOverdue}, to: StateNormal},
	OpPrincipalReduction: {from: []State{StateNormal, StateOverdue}},
	OpInterest:           {from: []State{StateNormal, StateOverdue}},
	OpMarkEnded:          {from: []State{StateNormal, StateOverdue}, to: StateEnded},
	OpMarkBreach:         {from: []State{StateOverdue}, to: StateBreach},
	OpBreachPayment:      {from: []State{StateBreach}},
	OpMarkBreachEnded:    {from: []State{StateBreach}, to: StateBreachEnded},
}

// nextState validates op against the current state and returns the resulting state.
func nextState(op Operation, current State) (State, error) {
	t, ok := transitions[op]
	if !ok {
		return current, fmt.Errorf("%w: unknown operation %q", ErrInvalidStateTransition, op)
	}
	for _, s := range t.from {
		if s == current {
			if t.to == "" {
				return current, nil
			}
			return t.to, nil
		}
	}
	return current, fmt.Errorf("%w: %s is not allowed from %s", ErrInvalidStateTransition, op, current)
}
