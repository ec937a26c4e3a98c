package statemachine

import "context"

// State is a node of the machine.
type State interface {
	Name() string
}

// Event triggers transitions.
type Event interface {
	Name() string
}

// Guard decides whether a transition may be taken for the given event data.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Action runs while a transition is taken. Returning an error aborts it.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Transition is one edge of the machine.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

// StateMachine is the machine's public behavior.
type StateMachine interface {
	Current() State
	AddTransition(t Transition) error
	Fire(ctx context.Context, event Event, data any) error
	CanFire(ctx context.Context, event Event, data any) bool
	Reset()
}

// StringState is a State backed by a string.
type StringState string

func (s StringState) Name() string { return string(s) }

// StringEvent is an Event backed by a string.
type StringEvent string

func (e StringEvent) Name() string { return string(e) }
