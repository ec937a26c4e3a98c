package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/noteauth/pkg/identity"
	"github.com/dmitrymomot/noteauth/pkg/keystore"
	"github.com/dmitrymomot/noteauth/pkg/logger"
	"github.com/dmitrymomot/noteauth/pkg/statemachine"
	"github.com/dmitrymomot/noteauth/pkg/totp"
)

// storedSecret is the plaintext kept encrypted in the secret store.
type storedSecret struct {
	Secret string `json:"secret"`
	UserID string `json:"user_id"`
}

// Flow is the explicit state of one login attempt. Its methods are safe for
// concurrent use; calls are serialized, so a duplicated click runs after the
// first one and finds the flow already moved on.
type Flow struct {
	o  *Orchestrator
	mu sync.Mutex
	sm *statemachine.SimpleStateMachine

	id         keystore.Identity
	secret     totp.Secret // the secret codes are checked against
	previous   totp.Secret // active secret while a replacement is pending
	userID     string      // TOTP-derived user id, kept across regeneration
	dirty      bool        // secret must be written when authentication completes
	persisted  bool        // the current transition wrote the secret
	regenerate bool
	deviceName string
	notice     error
}

// State returns the current step.
func (f *Flow) State() State {
	return f.sm.Current().(State)
}

// Identity returns the signed-in identity, zero before sign-in.
func (f *Flow) Identity() keystore.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

// DeviceName returns the detected device name while in DEVICE_REGISTRATION.
func (f *Flow) DeviceName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deviceName
}

// Notice returns a non-fatal condition the user should be told about, such
// as ErrReRegistrationRequired.
func (f *Flow) Notice() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notice
}

// Provisioning returns the pending secret while in TOTP_SETUP, so its URI or
// barcode can be shown.
func (f *Flow) Provisioning() (totp.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.State() != StateTOTPSetup {
		return totp.Secret{}, ErrInvalidState
	}
	return f.secret, nil
}

// ProvisioningImage renders the pending secret as a PNG barcode.
func (f *Flow) ProvisioningImage() ([]byte, error) {
	s, err := f.Provisioning()
	if err != nil {
		return nil, err
	}
	png, err := totp.ProvisioningImage(s, f.o.totp.ImageSize)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return png, nil
}

// UserKey returns the composite user key once the secret is known.
func (f *Flow) UserKey() UserKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userKey()
}

// PartitionID returns the stable pseudonymous id downstream data access
// partitions by. It is only available once AUTHENTICATED.
func (f *Flow) PartitionID() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.State() != StateAuthenticated {
		return "", ErrNotAuthenticated
	}
	return f.userKey().String(), nil
}

// SignIn starts the flow with a verified external identity.
func (f *Flow) SignIn(ctx context.Context, id keystore.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.State() != StateIdentitySignIn {
		return ErrInvalidState
	}
	if !id.Valid() {
		return ErrIdentityFailed
	}
	f.reset()
	f.id = id

	outcome, err := f.lookup(ctx)
	if err != nil {
		f.reset()
		return err
	}
	if !outcome.hasSecret && !outcome.legacy {
		if err := f.newPendingSecret(); err != nil {
			f.reset()
			return err
		}
	}
	return f.fire(ctx, evSignedIn, outcome)
}

// SignInWithProvider resolves code with p and signs in with the result.
// Provider failures, including a cancelled consent, yield ErrIdentityFailed.
func (f *Flow) SignInWithProvider(ctx context.Context, p identity.Provider, code string) error {
	profile, err := p.Resolve(ctx, code)
	if err != nil {
		f.o.logger.WarnContext(ctx, "identity assertion failed", logger.Event("auth.identity_failed"), logger.Error(err))
		return errors.Join(ErrIdentityFailed, err)
	}
	return f.SignIn(ctx, profile.Identity())
}

// ConfirmSetup checks code against the pending secret. On success the secret
// is stored, the device registered and the session started.
func (f *Flow) ConfirmSetup(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.State() != StateTOTPSetup {
		return ErrInvalidState
	}
	if err := f.checkCode(ctx, code); err != nil {
		return err
	}
	f.dirty = true
	if err := f.fire(ctx, evSetupConfirmed, nil); err != nil {
		return err
	}
	f.previous = totp.Secret{}
	f.regenerate = false
	return nil
}

// Verify checks code against the stored (or manually entered) secret and
// runs the device check. An unknown device moves the flow to
// DEVICE_REGISTRATION, where DeviceName tells which device asks for access.
func (f *Flow) Verify(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.State() != StateTOTPVerify {
		return ErrInvalidState
	}
	if err := f.checkCode(ctx, code); err != nil {
		return err
	}

	v, err := f.o.devices.Verify(ctx, f.userKey().String())
	if err != nil {
		return f.unavailable(ctx, err)
	}
	f.deviceName = v.DeviceName
	return f.fire(ctx, evCodeVerified, verifyOutcome{deviceValid: v.IsValid})
}

// ConfirmDevice registers the current device after explicit user consent.
// Calling it again once AUTHENTICATED is a no-op.
func (f *Flow) ConfirmDevice(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.State() {
	case StateAuthenticated:
		return nil
	case StateDeviceRegistration:
		return f.fire(ctx, evDeviceConfirmed, nil)
	}
	return ErrInvalidState
}

// CancelDevice declines registration and returns to TOTP_VERIFY.
func (f *Flow) CancelDevice(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.State() != StateDeviceRegistration {
		return ErrInvalidState
	}
	f.deviceName = ""
	return f.fire(ctx, evDeviceCancelled, nil)
}

// StartNewSecret leaves MIGRATION by discarding old data and enrolling a new secret.
func (f *Flow) StartNewSecret(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.State() != StateMigration {
		return ErrInvalidState
	}
	if err := f.newPendingSecret(); err != nil {
		return err
	}
	return f.fire(ctx, evMigrateNew, nil)
}

// UseExistingSecret leaves MIGRATION with a secret typed in by the user. Old
// data is discarded and the secret is verified like a stored one.
func (f *Flow) UseExistingSecret(ctx context.Context, encoded string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.State() != StateMigration {
		return ErrInvalidState
	}
	s, err := totp.ParseSecret(encoded)
	if err != nil {
		return errors.Join(ErrInvalidSecret, err)
	}
	if err := f.fire(ctx, evMigrateExisting, nil); err != nil {
		return err
	}
	f.secret = s
	f.userID = totp.UserIDFromSecret(s)
	f.dirty = true
	return nil
}

// RegenerateSecret enrolls a replacement secret for an authenticated user.
// The old secret stays valid until the new one is confirmed.
func (f *Flow) RegenerateSecret(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.State() != StateAuthenticated {
		return ErrInvalidState
	}
	previous := f.secret
	if err := f.newPendingSecret(); err != nil {
		return err
	}
	if err := f.fire(ctx, evRegenerate, nil); err != nil {
		f.secret = previous
		return err
	}
	f.previous = previous
	f.regenerate = true
	return nil
}

// Logout clears the session and returns to IDENTITY_SIGNIN.
func (f *Flow) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.State() != StateAuthenticated {
		return ErrInvalidState
	}
	if err := f.fire(ctx, evLogout, nil); err != nil {
		return err
	}
	f.reset()
	return nil
}

// Cancel abandons the attempt. Before AUTHENTICATED it returns to
// IDENTITY_SIGNIN without touching durable storage; cancelling a secret
// regeneration returns to AUTHENTICATED with the old secret.
func (f *Flow) Cancel(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.State() == StateAuthenticated:
		return ErrInvalidState
	case f.regenerate && f.State() == StateTOTPSetup:
		return f.cancelRegeneration(ctx)
	}
	if err := f.fire(ctx, evCancel, nil); err != nil {
		return err
	}
	f.reset()
	return nil
}

func (f *Flow) cancelRegeneration(ctx context.Context) error {
	if err := f.fire(ctx, evRegenerateCanceled, nil); err != nil {
		return err
	}
	f.secret = f.previous
	f.previous = totp.Secret{}
	f.regenerate = false
	return nil
}

// lookup inspects storage for the signed-in identity.
func (f *Flow) lookup(ctx context.Context) (signInOutcome, error) {
	var out signInOutcome

	for _, key := range f.o.config.LegacyKeys {
		_, found, err := f.o.secrets.Inspect(ctx, key)
		if err != nil {
			return out, f.unavailable(ctx, err)
		}
		if found {
			out.legacy = true
			return out, nil
		}
	}

	rec, found, err := f.o.secrets.Inspect(ctx, f.o.secretKey(f.id))
	if err != nil {
		return out, f.unavailable(ctx, err)
	}
	// A damaged record is not migrated; loadSecret discards it and asks
	// for a fresh enrollment.
	if found && !rec.Malformed() && keystore.Migrate(rec) != keystore.ActionKeep {
		out.legacy = true
		return out, nil
	}

	s, ok, err := f.loadSecret(ctx)
	if err != nil {
		return out, err
	}
	if !ok {
		return out, nil
	}
	f.secret = s
	out.hasSecret = true

	subject, ok, err := f.o.sessions.GetSession(ctx, f.id)
	if err != nil {
		return out, f.unavailable(ctx, err)
	}
	out.sessionValid = ok && subject == f.userKey().String()
	return out, nil
}

// loadSecret decrypts the stored secret and sets f.userID. A record that
// cannot be decrypted has been discarded by the store; the user is told to
// enroll again.
func (f *Flow) loadSecret(ctx context.Context) (totp.Secret, bool, error) {
	plain, ok, err := f.o.secrets.DecryptAndGet(ctx, f.o.secretKey(f.id), f.id)
	switch {
	case errors.Is(err, keystore.ErrDecryptionFailed):
		f.notice = ErrReRegistrationRequired
		f.o.logger.WarnContext(ctx, "stored secret discarded", logger.Event("auth.secret_discarded"))
		return totp.Secret{}, false, nil
	case err != nil:
		return totp.Secret{}, false, f.unavailable(ctx, err)
	case !ok:
		return totp.Secret{}, false, nil
	}

	var stored storedSecret
	if err := json.Unmarshal([]byte(plain), &stored); err != nil || stored.UserID == "" {
		f.notice = ErrReRegistrationRequired
		return totp.Secret{}, false, nil
	}
	s, err := totp.ParseSecret(stored.Secret)
	if err != nil {
		f.notice = ErrReRegistrationRequired
		return totp.Secret{}, false, nil
	}
	f.userID = stored.UserID
	return s, true, nil
}

func (f *Flow) newPendingSecret() error {
	s, err := totp.GenerateSecret(f.o.totp.Issuer, f.id.Email)
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	f.secret = s
	if f.userID == "" {
		f.userID = totp.UserIDFromSecret(s)
	}
	return nil
}

// checkCode validates the format, applies throttling and verifies the code.
func (f *Flow) checkCode(ctx context.Context, code string) error {
	if !totp.ValidCodeFormat(code) {
		return ErrInvalidCode
	}
	res, err := f.o.limiter.Allow(ctx, f.id.SubjectID)
	if err != nil {
		return f.unavailable(ctx, err)
	}
	if !res.Allowed {
		f.o.logger.WarnContext(ctx, "code attempts throttled", logger.Event("auth.throttled"), logger.UserID(f.userKey().String()))
		return fmt.Errorf("%w: retry after %s", ErrTooManyAttempts, res.RetryAt.Sub(f.o.now()).Round(time.Second))
	}
	if !totp.VerifyCodeAt(code, f.secret, f.o.now()) {
		return ErrInvalidCode
	}
	return nil
}

func (f *Flow) fire(ctx context.Context, ev event, data any) error {
	from := f.State()
	if err := f.sm.Fire(ctx, ev, data); err != nil {
		if statemachine.IsNoTransition(err) || statemachine.IsRejected(err) {
			return ErrInvalidState
		}
		return f.unavailable(ctx, err)
	}
	f.o.logger.InfoContext(ctx, "auth state changed",
		logger.Event(ev.Name()),
		logger.State(f.State().Name()),
		slog.String("from", from.Name()),
		logger.UserID(f.userKey().String()),
	)
	return nil
}

func (f *Flow) unavailable(ctx context.Context, cause error) error {
	if errors.Is(cause, ErrUnavailable) {
		return cause
	}
	f.o.logger.ErrorContext(ctx, "authentication unavailable", logger.Event("auth.unavailable"), logger.Error(cause))
	return errors.Join(ErrUnavailable, cause)
}

func (f *Flow) userKey() UserKey {
	return UserKey{TOTPUserID: f.userID, SubjectID: f.id.SubjectID}
}

func (f *Flow) reset() {
	f.id = keystore.Identity{}
	f.secret = totp.Secret{}
	f.previous = totp.Secret{}
	f.userID = ""
	f.dirty = false
	f.persisted = false
	f.regenerate = false
	f.deviceName = ""
	f.notice = nil
}
