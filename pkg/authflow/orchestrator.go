package authflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/noteauth/pkg/device"
	"github.com/dmitrymomot/noteauth/pkg/keystore"
	"github.com/dmitrymomot/noteauth/pkg/logger"
	"github.com/dmitrymomot/noteauth/pkg/ratelimiter"
	"github.com/dmitrymomot/noteauth/pkg/totp"
)

// SecretStore keeps the encrypted TOTP secret. keystore.Store implements it.
type SecretStore interface {
	Inspect(ctx context.Context, key string) (keystore.Record, bool, error)
	EncryptAndStore(ctx context.Context, key, plaintext string, id keystore.Identity) error
	DecryptAndGet(ctx context.Context, key string, id keystore.Identity) (string, bool, error)
	ApplyMigration(ctx context.Context, key string) (keystore.Action, error)
	Remove(ctx context.Context, keys ...string) error
}

// DeviceRegistry authorizes devices per user. device.Registry implements it.
type DeviceRegistry interface {
	Verify(ctx context.Context, userID string) (device.Verification, error)
	RegisterCurrentDevice(ctx context.Context, userID string) error
	UpdateLastUsed(ctx context.Context, userID string) error
}

// SessionStore tracks the authenticated session. session.Manager implements it.
type SessionStore interface {
	SaveSession(ctx context.Context, subjectID string, binding keystore.Identity) error
	GetSession(ctx context.Context, binding keystore.Identity) (string, bool, error)
	ClearSession(ctx context.Context) error
}

// Orchestrator owns the services shared by all login attempts.
type Orchestrator struct {
	secrets  SecretStore
	devices  DeviceRegistry
	sessions SessionStore

	config   Config
	totp     totp.Config
	attempts ratelimiter.Store
	limiter  *ratelimiter.Bucket
	inflight singleflight.Group
	now      func() time.Time
	logger   *slog.Logger
}

// New creates an Orchestrator.
func New(secrets SecretStore, devices DeviceRegistry, sessions SessionStore, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		secrets:  secrets,
		devices:  devices,
		sessions: sessions,
		config:   DefaultConfig(),
		totp:     totp.DefaultConfig(),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.attempts == nil {
		o.attempts = ratelimiter.NewMemoryStore(ratelimiter.WithClock(o.now))
	}

	limiter, err := ratelimiter.NewBucket(o.attempts, ratelimiter.Config{
		Capacity:       o.config.MaxCodeAttempts,
		RefillRate:     1,
		RefillInterval: o.config.AttemptRefillInterval,
	})
	if err != nil {
		return nil, err
	}
	o.limiter = limiter
	o.logger = o.logger.With(logger.Component("authflow"))
	return o, nil
}

// Begin starts a new login attempt.
func (o *Orchestrator) Begin() *Flow {
	f := &Flow{o: o}
	f.sm = newMachine(f)
	return f
}

// secretKey is the durable key of the identity's secret. The subject is
// hashed so that storage keys do not reveal who uses the device.
func (o *Orchestrator) secretKey(id keystore.Identity) string {
	sum := sha256.Sum256([]byte(id.SubjectID))
	return o.config.SecretKeyPrefix + hex.EncodeToString(sum[:16])
}

// registerDevice collapses concurrent registrations for the same user into
// one call to the registry.
func (o *Orchestrator) registerDevice(ctx context.Context, userID string) error {
	_, err, _ := o.inflight.Do("register:"+userID, func() (any, error) {
		return nil, o.devices.RegisterCurrentDevice(ctx, userID)
	})
	return err
}
