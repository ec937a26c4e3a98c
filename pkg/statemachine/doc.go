// Package statemachine implements a small thread-safe finite state machine.
//
// Transitions are keyed by (from state, event). Several transitions may share
// a key: they are tried in registration order and the first one whose guards
// all pass is taken, which is how data-dependent branching is expressed.
// Actions of the chosen transition run before the state changes, and an
// action error aborts the transition.
//
//	sm := statemachine.MustNew(SignIn,
//	    statemachine.WithTransition(SignIn, Migration, SignedIn, statemachine.WithGuard(hasLegacyData)),
//	    statemachine.WithTransition(SignIn, Verify, SignedIn, statemachine.WithGuard(hasSecret)),
//	    statemachine.WithTransition(SignIn, Setup, SignedIn),
//	)
//	err := sm.Fire(ctx, SignedIn, lookupResult)
package statemachine
