package statemachine

import (
	"context"
	"fmt"
	"sync"
)

var _ StateMachine = (*SimpleStateMachine)(nil)

type edgeKey struct {
	from  string
	event string
}

// SimpleStateMachine is an in-memory StateMachine.
type SimpleStateMachine struct {
	mu      sync.Mutex
	initial State
	current State
	edges   map[edgeKey][]Transition
}

// NewSimple creates a machine positioned at initial.
func NewSimple(initial State) *SimpleStateMachine {
	return &SimpleStateMachine{
		initial: initial,
		current: initial,
		edges:   make(map[edgeKey][]Transition),
	}
}

// Current returns the current state.
func (sm *SimpleStateMachine) Current() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current
}

// AddTransition registers t after any transition already sharing its key.
func (sm *SimpleStateMachine) AddTransition(t Transition) error {
	if t.From == nil || t.To == nil || t.Event == nil {
		return ErrInvalidTransition
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	k := edgeKey{t.From.Name(), t.Event.Name()}
	sm.edges[k] = append(sm.edges[k], t)
	return nil
}

// Fire takes the first eligible transition for event from the current state.
func (sm *SimpleStateMachine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	t, err := sm.pick(ctx, event, data)
	if err != nil {
		return err
	}
	for _, action := range t.Actions {
		if err := action(ctx, sm.current, t.To, event, data); err != nil {
			return fmt.Errorf("%s -> %s: action failed: %w", sm.current.Name(), t.To.Name(), err)
		}
	}
	sm.current = t.To
	return nil
}

// CanFire reports whether Fire would find an eligible transition.
func (sm *SimpleStateMachine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	_, err := sm.pick(ctx, event, data)
	return err == nil
}

// Reset moves the machine back to its initial state.
func (sm *SimpleStateMachine) Reset() {
	sm.mu.Lock()
	sm.current = sm.initial
	sm.mu.Unlock()
}

// pick must be called with the lock held.
func (sm *SimpleStateMachine) pick(ctx context.Context, event Event, data any) (Transition, error) {
	candidates := sm.edges[edgeKey{sm.current.Name(), event.Name()}]
	if len(candidates) == 0 {
		return Transition{}, &NoTransitionError{State: sm.current.Name(), Event: event.Name()}
	}
	for _, t := range candidates {
		if guardsPass(ctx, t, sm.current, event, data) {
			return t, nil
		}
	}
	return Transition{}, &RejectedError{State: sm.current.Name(), Event: event.Name()}
}

func guardsPass(ctx context.Context, t Transition, from State, event Event, data any) bool {
	for _, g := range t.Guards {
		if !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}
