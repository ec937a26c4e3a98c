package authflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/noteauth/pkg/authflow"
	"github.com/dmitrymomot/noteauth/pkg/device"
	"github.com/dmitrymomot/noteauth/pkg/fingerprint"
	"github.com/dmitrymomot/noteauth/pkg/keystore"
	"github.com/dmitrymomot/noteauth/pkg/kv"
	"github.com/dmitrymomot/noteauth/pkg/logger"
	"github.com/dmitrymomot/noteauth/pkg/session"
	"github.com/dmitrymomot/noteauth/pkg/totp"
)

var (
	alice = keystore.Identity{SubjectID: "google:1001", Email: "alice@example.com", DisplayName: "Alice"}
	bob   = keystore.Identity{SubjectID: "google:2002", Email: "bob@example.com"}

	laptop = fingerprint.StaticSource{
		UserAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Timezone:    "Europe/Berlin",
		Language:    "en-US",
		ScreenWidth: 1440,
	}
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// world is one physical device: durable storage and fingerprint are shared
// by every browser opened on it.
type world struct {
	clock   *clock
	durable *kv.MemoryStore
	keys    *keystore.Store
}

func newWorld() *world {
	durable := kv.NewMemoryStore()
	return &world{
		clock:   newClock(),
		durable: durable,
		keys:    keystore.New(durable, laptop, keystore.WithLogger(logger.Discard())),
	}
}

// browser has its own device id and volatile session storage.
type browser struct {
	orch     *authflow.Orchestrator
	registry *device.Registry
	sessions *session.Manager
	volatile *kv.MemoryStore
}

func (w *world) browser(t *testing.T) *browser {
	t.Helper()
	ids := fingerprint.NewDeviceIDs(kv.NewMemoryStore(), laptop)
	registry := device.NewRegistry(w.durable, ids, laptop,
		device.WithClock(w.clock.Now),
		device.WithLogger(logger.Discard()),
	)
	volatile := kv.NewMemoryStore()
	sessions := session.New(volatile,
		session.WithClock(w.clock.Now),
		session.WithLogger(logger.Discard()),
	)
	orch, err := authflow.New(w.keys, registry, sessions,
		authflow.WithClock(w.clock.Now),
		authflow.WithLogger(logger.Discard()),
	)
	require.NoError(t, err)
	return &browser{orch: orch, registry: registry, sessions: sessions, volatile: volatile}
}

// enroll runs a first login to AUTHENTICATED and returns the enrolled secret.
func (w *world) enroll(t *testing.T, b *browser, id keystore.Identity) (*authflow.Flow, totp.Secret) {
	t.Helper()
	ctx := context.Background()

	f := b.orch.Begin()
	require.NoError(t, f.SignIn(ctx, id))
	require.Equal(t, authflow.StateTOTPSetup, f.State())

	secret, err := f.Provisioning()
	require.NoError(t, err)
	require.NoError(t, f.ConfirmSetup(ctx, totp.GenerateCode(secret, w.clock.Now())))
	require.Equal(t, authflow.StateAuthenticated, f.State())
	return f, secret
}

func (w *world) code(s totp.Secret) string {
	return totp.GenerateCode(s, w.clock.Now())
}

// wrongCode returns a well-formed code that s does not accept now.
func (w *world) wrongCode(t *testing.T, s totp.Secret) string {
	t.Helper()
	for _, c := range []string{"000000", "111111", "222222", "333333", "444444"} {
		if !totp.VerifyCodeAt(c, s, w.clock.Now()) {
			return c
		}
	}
	t.Fatal("no wrong code found")
	return ""
}

func (w *world) keysWithPrefix(prefix string) []string {
	var keys []string
	for k := range w.durable.Snapshot() {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys
}

type mockSecretStore struct {
	mock.Mock
}

func (m *mockSecretStore) Inspect(ctx context.Context, key string) (keystore.Record, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(keystore.Record), args.Bool(1), args.Error(2)
}

func (m *mockSecretStore) EncryptAndStore(ctx context.Context, key, plaintext string, id keystore.Identity) error {
	args := m.Called(ctx, key, plaintext, id)
	return args.Error(0)
}

func (m *mockSecretStore) DecryptAndGet(ctx context.Context, key string, id keystore.Identity) (string, bool, error) {
	args := m.Called(ctx, key, id)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockSecretStore) ApplyMigration(ctx context.Context, key string) (keystore.Action, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(keystore.Action), args.Error(1)
}

func (m *mockSecretStore) Remove(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

type mockDeviceRegistry struct {
	mock.Mock
}

func (m *mockDeviceRegistry) Verify(ctx context.Context, userID string) (device.Verification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(device.Verification), args.Error(1)
}

func (m *mockDeviceRegistry) RegisterCurrentDevice(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockDeviceRegistry) UpdateLastUsed(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) SaveSession(ctx context.Context, subjectID string, binding keystore.Identity) error {
	args := m.Called(ctx, subjectID, binding)
	return args.Error(0)
}

func (m *mockSessionStore) GetSession(ctx context.Context, binding keystore.Identity) (string, bool, error) {
	args := m.Called(ctx, binding)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockSessionStore) ClearSession(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
