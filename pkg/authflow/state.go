package authflow

import (
	"context"

	"github.com/dmitrymomot/noteauth/pkg/statemachine"
)

// State is a step of the login flow.
type State string

const (
	StateIdentitySignIn     State = "IDENTITY_SIGNIN"
	StateTOTPSetup          State = "TOTP_SETUP"
	StateTOTPVerify         State = "TOTP_VERIFY"
	StateDeviceRegistration State = "DEVICE_REGISTRATION"
	StateMigration          State = "MIGRATION"
	StateAuthenticated      State = "AUTHENTICATED"
)

func (s State) Name() string { return string(s) }

type event string

func (e event) Name() string { return string(e) }

const (
	evSignedIn           event = "signed_in"
	evSetupConfirmed     event = "setup_confirmed"
	evCodeVerified       event = "code_verified"
	evDeviceConfirmed    event = "device_confirmed"
	evDeviceCancelled    event = "device_cancelled"
	evMigrateNew         event = "migrate_new"
	evMigrateExisting    event = "migrate_existing"
	evRegenerate         event = "regenerate"
	evRegenerateCanceled event = "regenerate_cancelled"
	evLogout             event = "logout"
	evCancel             event = "cancel"
)

// signInOutcome is the data of evSignedIn.
type signInOutcome struct {
	legacy       bool
	hasSecret    bool
	sessionValid bool
}

// verifyOutcome is the data of evCodeVerified.
type verifyOutcome struct {
	deviceValid bool
}

func whenSignIn(pred func(signInOutcome) bool) statemachine.Guard {
	return func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
		o, ok := data.(signInOutcome)
		return ok && pred(o)
	}
}

func whenDeviceValid(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	o, ok := data.(verifyOutcome)
	return ok && o.deviceValid
}

// newMachine wires the transition table to the side effects of f.
func newMachine(f *Flow) *statemachine.SimpleStateMachine {
	with := statemachine.WithTransition
	guard := statemachine.WithGuard
	action := statemachine.WithAction

	return statemachine.MustNew(StateIdentitySignIn,
		with(StateIdentitySignIn, StateMigration, evSignedIn,
			guard(whenSignIn(func(o signInOutcome) bool { return o.legacy }))),
		with(StateIdentitySignIn, StateAuthenticated, evSignedIn,
			guard(whenSignIn(func(o signInOutcome) bool { return o.hasSecret && o.sessionValid })),
			action(f.touchDevice)),
		with(StateIdentitySignIn, StateTOTPVerify, evSignedIn,
			guard(whenSignIn(func(o signInOutcome) bool { return o.hasSecret }))),
		with(StateIdentitySignIn, StateTOTPSetup, evSignedIn),

		with(StateTOTPSetup, StateAuthenticated, evSetupConfirmed,
			action(f.registerDevice), action(f.persistSecret), action(f.startSession)),
		with(StateTOTPSetup, StateAuthenticated, evRegenerateCanceled),

		with(StateTOTPVerify, StateAuthenticated, evCodeVerified,
			guard(whenDeviceValid), action(f.persistSecret), action(f.startSession)),
		with(StateTOTPVerify, StateDeviceRegistration, evCodeVerified),

		with(StateDeviceRegistration, StateAuthenticated, evDeviceConfirmed,
			action(f.registerDevice), action(f.persistSecret), action(f.startSession)),
		with(StateDeviceRegistration, StateTOTPVerify, evDeviceCancelled),

		with(StateMigration, StateTOTPSetup, evMigrateNew, action(f.discardLegacy)),
		with(StateMigration, StateTOTPVerify, evMigrateExisting, action(f.discardLegacy)),

		with(StateAuthenticated, StateTOTPSetup, evRegenerate),
		with(StateAuthenticated, StateIdentitySignIn, evLogout, action(f.endSession)),

		statemachine.FromAny([]statemachine.State{
			StateIdentitySignIn, StateTOTPSetup, StateTOTPVerify, StateDeviceRegistration, StateMigration,
		}, StateIdentitySignIn, evCancel),
	)
}
