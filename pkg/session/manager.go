package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/noteauth/pkg/keystore"
	"github.com/dmitrymomot/noteauth/pkg/kv"
	"github.com/dmitrymomot/noteauth/pkg/logger"
)

// sealedPrefix marks encrypted records in storage.
const sealedPrefix = "sealed:"

// Manager owns session validity.
type Manager struct {
	store  kv.Store
	config Config
	sealer Sealer
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Manager over volatile storage.
func New(store kv.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		config: DefaultConfig(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("session"))
	return m
}

// SaveSession stores a new session for subjectID. A non-zero binding makes it
// an enhanced session readable only with the same identity; a zero binding
// makes it a basic session.
func (m *Manager) SaveSession(ctx context.Context, subjectID string, binding keystore.Identity) error {
	if subjectID == "" {
		return ErrEmptySubject
	}

	rec := Record{
		SubjectID: subjectID,
		IssuedAt:  m.now(),
		Scope:     ScopeBasic,
	}
	if binding.SubjectID != "" {
		rec.IdentityBindingID = binding.SubjectID
		rec.Scope = ScopeEnhanced
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	value := string(raw)
	if m.sealer != nil && rec.Scope == ScopeEnhanced {
		sealed, err := m.sealer.Seal(ctx, value, binding)
		if err != nil {
			return err
		}
		value = sealedPrefix + sealed
	}

	if err := m.store.Set(ctx, m.config.StorageKey, value); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// Current returns the valid session record. A zero binding skips the identity
// check, except for sealed records which need the identity to be read.
// Expired and unreadable records are cleared.
func (m *Manager) Current(ctx context.Context, binding keystore.Identity) (Record, error) {
	raw, err := m.store.Get(ctx, m.config.StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return Record{}, ErrSessionNotFound
	}
	if err != nil {
		return Record{}, errors.Join(ErrStorage, err)
	}

	if sealed, ok := strings.CutPrefix(raw, sealedPrefix); ok {
		if m.sealer == nil || binding.SubjectID == "" {
			return Record{}, ErrBindingMismatch
		}
		opened, err := m.sealer.Open(ctx, sealed, binding)
		if err != nil {
			// Another account cannot open it. The owner may still come back,
			// so the record is left alone unless it is corrupt for everyone.
			if errors.Is(err, keystore.ErrMalformedRecord) {
				return Record{}, m.invalidate(ctx, ErrInvalidSession, err)
			}
			if errors.Is(err, keystore.ErrDecryptionFailed) || errors.Is(err, keystore.ErrIdentityRequired) {
				return Record{}, ErrBindingMismatch
			}
			return Record{}, m.invalidate(ctx, ErrInvalidSession, err)
		}
		raw = opened
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.SubjectID == "" {
		return Record{}, m.invalidate(ctx, ErrInvalidSession, err)
	}

	if m.now().Sub(rec.IssuedAt) > m.config.TTL {
		return Record{}, m.invalidate(ctx, ErrSessionExpired, nil)
	}
	if binding.SubjectID != "" && rec.IdentityBindingID != binding.SubjectID {
		return Record{}, ErrBindingMismatch
	}
	return rec, nil
}

// GetSession returns the subject id of the valid session, or ok=false when
// there is none, it expired or it is bound to another identity.
func (m *Manager) GetSession(ctx context.Context, binding keystore.Identity) (string, bool, error) {
	rec, err := m.Current(ctx, binding)
	switch {
	case err == nil:
		return rec.SubjectID, true, nil
	case errors.Is(err, ErrStorage):
		return "", false, err
	default:
		return "", false, nil
	}
}

// IsAuthenticated reports whether GetSession finds a session.
func (m *Manager) IsAuthenticated(ctx context.Context, binding keystore.Identity) (bool, error) {
	_, ok, err := m.GetSession(ctx, binding)
	return ok, err
}

// ClearSession removes the session. It is idempotent.
func (m *Manager) ClearSession(ctx context.Context) error {
	if err := m.store.Remove(ctx, m.config.StorageKey); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (m *Manager) invalidate(ctx context.Context, reason, cause error) error {
	m.logger.DebugContext(ctx, "session cleared", logger.Event(reason.Error()), logger.Error(cause))
	if err := m.ClearSession(ctx); err != nil {
		return errors.Join(reason, err)
	}
	return reason
}
