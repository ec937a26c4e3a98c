package statemachine

import (
	"errors"
	"fmt"
)

// Option configures a machine at construction.
type Option func(*SimpleStateMachine) error

// TransitionOption configures one transition.
type TransitionOption func(*Transition)

// New creates a machine at initial with the given transitions.
func New(initial State, opts ...Option) (*SimpleStateMachine, error) {
	if initial == nil {
		return nil, errors.New("statemachine: initial state is nil")
	}
	sm := NewSimple(initial)
	for _, opt := range opts {
		if err := opt(sm); err != nil {
			return nil, err
		}
	}
	return sm, nil
}

// MustNew is New that panics on error. Transition tables are static, so a
// failure is a programming error.
func MustNew(initial State, opts ...Option) *SimpleStateMachine {
	sm, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return sm
}

// WithTransition adds a transition from -> to on event.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(sm *SimpleStateMachine) error {
		t := Transition{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&t)
		}
		return sm.AddTransition(t)
	}
}

// FromAny adds a transition on event from each of the given states to to.
func FromAny(states []State, to State, event Event, opts ...TransitionOption) Option {
	return func(sm *SimpleStateMachine) error {
		for _, from := range states {
			if err := WithTransition(from, to, event, opts...)(sm); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithGuard adds a guard. Nil guards are ignored.
func WithGuard(g Guard) TransitionOption {
	return func(t *Transition) {
		if g != nil {
			t.Guards = append(t.Guards, g)
		}
	}
}

// WithAction adds an action. Nil actions are ignored.
func WithAction(a Action) TransitionOption {
	return func(t *Transition) {
		if a != nil {
			t.Actions = append(t.Actions, a)
		}
	}
}
