package device_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/noteauth/pkg/device"
	"github.com/dmitrymomot/noteauth/pkg/fingerprint"
	"github.com/dmitrymomot/noteauth/pkg/kv"
	"github.com/dmitrymomot/noteauth/pkg/logger"
)

const userID = "user-1"

// switchableID plays the role of several devices sharing one store.
type switchableID struct {
	mu  sync.Mutex
	id  string
	err error
}

func (s *switchableID) Current(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.err
}

func (s *switchableID) set(id string) {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store *kv.MemoryStore
	ids   *switchableID
	clock *clock
	reg   *device.Registry
}

func newFixture(t *testing.T, opts ...device.Option) *fixture {
	t.Helper()
	f := &fixture{
		store: kv.NewMemoryStore(),
		ids:   &switchableID{id: "device-a"},
		clock: &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	src := fingerprint.StaticSource{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
	opts = append([]device.Option{device.WithClock(f.clock.Now), device.WithLogger(logger.Discard())}, opts...)
	f.reg = device.NewRegistry(f.store, f.ids, src, opts...)
	return f
}

func ids(devices []device.Info) []string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = d.ID
	}
	return out
}

func TestRegistry_RegisterAndVerify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	ok, err := f.reg.IsRegistered(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := f.reg.Verify(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, device.Verification{IsNewDevice: true, DeviceName: "Chrome on macOS"}, v)

	// Verify never registers on its own.
	ok, err = f.reg.IsRegistered(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.reg.RegisterCurrentDevice(ctx, userID))

	v, err = f.reg.Verify(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, device.Verification{IsValid: true}, v)

	list, err := f.reg.ListDevices(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "device-a", list[0].ID)
	assert.Equal(t, "Chrome on macOS", list[0].DisplayName)
	assert.NotEmpty(t, list[0].Fingerprint)
	assert.True(t, list[0].IsCurrent)
}

func TestRegistry_IdempotentRegistration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.reg.RegisterCurrentDevice(ctx, userID))
	registeredAt := f.clock.Now()
	f.clock.Advance(time.Hour)
	require.NoError(t, f.reg.RegisterCurrentDevice(ctx, userID))

	list, err := f.reg.ListDevices(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, registeredAt, list[0].RegisteredAt)
	assert.Equal(t, registeredAt.Add(time.Hour), list[0].LastUsedAt)
}

func TestRegistry_ConcurrentRegistration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.reg.RegisterCurrentDevice(ctx, userID))
		}()
	}
	wg.Wait()

	list, err := f.reg.ListDevices(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRegistry_CapEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	for i := range 10 {
		f.ids.set(fmt.Sprintf("device-%02d", i))
		require.NoError(t, f.reg.RegisterCurrentDevice(ctx, userID))
		f.clock.Advance(time.Minute)
	}

	// Use device-00 again, so device-01 becomes the least recently used.
	f.ids.set("device-00")
	require.NoError(t, f.reg.UpdateLastUsed(ctx, userID))
	f.clock.Advance(time.Minute)

	f.ids.set("device-new")
	require.NoError(t, f.reg.RegisterCurrentDevice(ctx, userID))

	list, err := f.reg.ListDevices(ctx, userID)
	require.NoError(t, err)
	got := ids(list)
	assert.Len(t, got, 10)
	assert.NotContains(t, got, "device-01")
	assert.Contains(t, got, "device-00")
	assert.Contains(t, got, "device-new")
	for i := 2; i < 10; i++ {
		assert.Contains(t, got, fmt.Sprintf("device-%02d", i))
	}
}

func TestRegistry_SmallerCap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, device.WithMaxDevices(2))

	for _, id := range []string{"a", "b", "c"} {
		f.ids.set(id)
		require.NoError(t, f.reg.RegisterCurrentDevice(ctx, userID))
		f.clock.Advance(time.Second)
	}

	list, err := f.reg.ListDevices(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(list))
}

func TestRegistry_UpdateLastUsedUnknownDevice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.reg.UpdateLastUsed(ctx, userID))
	_, err := f.store.Get(ctx, "devices:"+userID)
	assert.ErrorIs(t, err, kv.ErrNotFound, "no-op must not create a list")
}

func TestRegistry_RemoveDevice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.reg.RegisterCurrentDevice(ctx, userID))
	f.ids.set("device-b")
	require.NoError(t, f.reg.RegisterCurrentDevice(ctx, userID))

	removed, err := f.reg.RemoveDevice(ctx, userID, "device-a")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.reg.RemoveDevice(ctx, userID, "device-a")
	require.NoError(t, err)
	assert.False(t, removed)

	list, err := f.reg.ListDevices(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"device-b"}, ids(list))
	assert.True(t, list[0].IsCurrent)
}

func TestRegistry_UsersAreIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.reg.RegisterCurrentDevice(ctx, "alice"))
	ok, err := f.reg.IsRegistered(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty user id", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.reg.Verify(ctx, "")
		assert.ErrorIs(t, err, device.ErrEmptyUserID)
	})

	t.Run("current device unavailable", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.ids.err = errors.New("storage down")
		err := f.reg.RegisterCurrentDevice(ctx, userID)
		assert.ErrorIs(t, err, device.ErrCurrentDevice)
	})

	t.Run("corrupt list", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		require.NoError(t, f.store.Set(ctx, "devices:"+userID, "{not json"))
		_, err := f.reg.ListDevices(ctx, userID)
		assert.ErrorIs(t, err, device.ErrStorage)
	})
}
