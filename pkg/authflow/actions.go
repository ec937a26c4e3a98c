package authflow

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrymomot/noteauth/pkg/keystore"
	"github.com/dmitrymomot/noteauth/pkg/logger"
	"github.com/dmitrymomot/noteauth/pkg/statemachine"
	"github.com/dmitrymomot/noteauth/pkg/totp"
)

// Transition actions. They run while the state machine holds its lock and
// the caller holds f.mu, so they touch fields directly and never call
// f.State.
//
// Transitions into AUTHENTICATED register the device first, then write the
// secret, then start the session. Registration is idempotent and a failed
// session start takes the secret write back, so an aborted transition leaves
// no secret behind.

func (f *Flow) touchDevice(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, _ any) error {
	if err := f.o.devices.UpdateLastUsed(ctx, f.userKey().String()); err != nil {
		f.o.logger.WarnContext(ctx, "device last-used not updated", logger.Error(err))
	}
	return nil
}

func (f *Flow) persistSecret(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, _ any) error {
	f.persisted = false
	if !f.dirty {
		return nil
	}
	if err := f.storeSecret(ctx, f.secret); err != nil {
		return err
	}
	f.dirty = false
	f.persisted = true
	f.o.logger.InfoContext(ctx, "secret stored", logger.Event("auth.secret_stored"), logger.UserID(f.userKey().String()))
	return nil
}

func (f *Flow) storeSecret(ctx context.Context, s totp.Secret) error {
	payload, err := json.Marshal(storedSecret{Secret: s.Base32, UserID: f.userID})
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	if err := f.o.secrets.EncryptAndStore(ctx, f.o.secretKey(f.id), string(payload), f.id); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// restoreSecret undoes persistSecret after a later action failed. A pending
// replacement puts the active secret back; otherwise the record is removed.
func (f *Flow) restoreSecret(ctx context.Context) {
	if !f.persisted {
		return
	}
	f.persisted = false
	f.dirty = true

	var err error
	if f.regenerate && !f.previous.IsZero() {
		err = f.storeSecret(ctx, f.previous)
	} else {
		err = f.o.secrets.Remove(ctx, f.o.secretKey(f.id))
	}
	if err != nil {
		f.o.logger.ErrorContext(ctx, "secret write not rolled back", logger.Event("auth.rollback_failed"), logger.Error(err))
		return
	}
	f.o.logger.InfoContext(ctx, "secret write rolled back", logger.Event("auth.secret_rolled_back"))
}

func (f *Flow) registerDevice(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, _ any) error {
	if err := f.o.registerDevice(ctx, f.userKey().String()); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	f.deviceName = ""
	return nil
}

func (f *Flow) startSession(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, _ any) error {
	if err := f.o.sessions.SaveSession(ctx, f.userKey().String(), f.id); err != nil {
		f.restoreSecret(ctx)
		return errors.Join(ErrUnavailable, err)
	}
	if err := f.o.limiter.Reset(ctx, f.id.SubjectID); err != nil {
		f.o.logger.WarnContext(ctx, "attempt counter not reset", logger.Error(err))
	}
	return nil
}

// discardLegacy removes basic-flow data and any identity record that cannot
// be kept. It is the one durable write allowed before AUTHENTICATED.
func (f *Flow) discardLegacy(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, _ any) error {
	for _, key := range append(append([]string(nil), f.o.config.LegacyKeys...), f.o.secretKey(f.id)) {
		action, err := f.o.secrets.ApplyMigration(ctx, key)
		if err != nil {
			return errors.Join(ErrUnavailable, err)
		}
		if action == keystore.ActionDeleteAndReenroll {
			f.o.logger.InfoContext(ctx, "legacy data discarded", logger.Event("auth.legacy_discarded"))
		}
	}
	return nil
}

func (f *Flow) endSession(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, _ any) error {
	if err := f.o.sessions.ClearSession(ctx); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}
