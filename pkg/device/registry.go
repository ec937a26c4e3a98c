package device

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/dmitrymomot/noteauth/pkg/fingerprint"
	"github.com/dmitrymomot/noteauth/pkg/keylock"
	"github.com/dmitrymomot/noteauth/pkg/kv"
	"github.com/dmitrymomot/noteauth/pkg/logger"
)

const (
	storageKeyPrefix  = "devices:"
	unknownDeviceName = "Unknown device"
)

// Registry manages per-user device lists.
type Registry struct {
	store      kv.Store
	ids        Identifier
	source     fingerprint.Source
	maxDevices int
	now        func() time.Time
	locks      keylock.Locker
	logger     *slog.Logger
}

// NewRegistry creates a registry persisting to store. ids resolves the current
// device id; source contributes the fingerprint and display name of new entries.
func NewRegistry(store kv.Store, ids Identifier, source fingerprint.Source, opts ...Option) *Registry {
	r := &Registry{
		store:      store,
		ids:        ids,
		source:     source,
		maxDevices: DefaultConfig().MaxDevices,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("device"))
	return r
}

// CurrentDeviceID returns the id of the device the process runs on.
func (r *Registry) CurrentDeviceID(ctx context.Context) (string, error) {
	id, err := r.ids.Current(ctx)
	if err != nil {
		return "", errors.Join(ErrCurrentDevice, err)
	}
	return id, nil
}

// CurrentDeviceName returns a display name for the current device.
func (r *Registry) CurrentDeviceName(ctx context.Context) string {
	if n, ok := r.source.(fingerprint.Namer); ok {
		if name := n.DeviceName(ctx); name != "" {
			return name
		}
	}
	return unknownDeviceName
}

// IsRegistered reports whether the current device is in the user's list.
func (r *Registry) IsRegistered(ctx context.Context, userID string) (bool, error) {
	deviceID, err := r.CurrentDeviceID(ctx)
	if err != nil {
		return false, err
	}
	devices, err := r.load(ctx, userID)
	if err != nil {
		return false, err
	}
	return indexOf(devices, deviceID) >= 0, nil
}

// RegisterCurrentDevice adds the current device to the user's list. Registering
// an already known device only refreshes LastUsedAt. On a full list the least
// recently used entries are evicted to make room for exactly one new entry.
func (r *Registry) RegisterCurrentDevice(ctx context.Context, userID string) error {
	deviceID, err := r.CurrentDeviceID(ctx)
	if err != nil {
		return err
	}

	unlock := r.locks.Lock(userID)
	defer unlock()

	devices, err := r.load(ctx, userID)
	if err != nil {
		return err
	}

	now := r.now()
	if i := indexOf(devices, deviceID); i >= 0 {
		devices[i].LastUsedAt = now
		return r.save(ctx, userID, devices)
	}

	devices, evicted := evictLRU(devices, r.maxDevices-1)
	for _, d := range evicted {
		r.logger.InfoContext(ctx, "device evicted",
			logger.Event("device.evicted"),
			logger.UserID(userID),
			logger.DeviceID(d.ID),
		)
	}

	fp := ""
	if r.source != nil {
		// The fingerprint is informational here, failing to compute it is not fatal.
		fp, _ = r.source.Fingerprint(ctx)
	}
	devices = append(devices, Info{
		ID:           deviceID,
		DisplayName:  r.CurrentDeviceName(ctx),
		RegisteredAt: now,
		LastUsedAt:   now,
		Fingerprint:  fp,
	})
	if err := r.save(ctx, userID, devices); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "device registered",
		logger.Event("device.registered"),
		logger.UserID(userID),
		logger.DeviceID(deviceID),
		logger.Count(len(devices)),
	)
	return nil
}

// UpdateLastUsed refreshes LastUsedAt of the current device. It is a no-op
// when the device is not registered.
func (r *Registry) UpdateLastUsed(ctx context.Context, userID string) error {
	deviceID, err := r.CurrentDeviceID(ctx)
	if err != nil {
		return err
	}
	_, err = r.touch(ctx, userID, deviceID)
	return err
}

// ListDevices returns the user's devices, marking the current one.
func (r *Registry) ListDevices(ctx context.Context, userID string) ([]Info, error) {
	devices, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	current, err := r.CurrentDeviceID(ctx)
	if err != nil {
		return nil, err
	}
	for i := range devices {
		devices[i].IsCurrent = devices[i].ID == current
	}
	return devices, nil
}

// RemoveDevice deletes deviceID from the user's list and reports whether it was found.
func (r *Registry) RemoveDevice(ctx context.Context, userID, deviceID string) (bool, error) {
	unlock := r.locks.Lock(userID)
	defer unlock()

	devices, err := r.load(ctx, userID)
	if err != nil {
		return false, err
	}
	i := indexOf(devices, deviceID)
	if i < 0 {
		return false, nil
	}
	if err := r.save(ctx, userID, slices.Delete(devices, i, i+1)); err != nil {
		return false, err
	}

	r.logger.InfoContext(ctx, "device removed",
		logger.Event("device.removed"),
		logger.UserID(userID),
		logger.DeviceID(deviceID),
	)
	return true, nil
}

// Verify decides whether the current device may access the user's data.
func (r *Registry) Verify(ctx context.Context, userID string) (Verification, error) {
	deviceID, err := r.CurrentDeviceID(ctx)
	if err != nil {
		return Verification{}, err
	}
	found, err := r.touch(ctx, userID, deviceID)
	if err != nil {
		return Verification{}, err
	}
	if found {
		return Verification{IsValid: true}, nil
	}
	return Verification{IsNewDevice: true, DeviceName: r.CurrentDeviceName(ctx)}, nil
}

// touch refreshes LastUsedAt of deviceID and reports whether it exists.
func (r *Registry) touch(ctx context.Context, userID, deviceID string) (bool, error) {
	unlock := r.locks.Lock(userID)
	defer unlock()

	devices, err := r.load(ctx, userID)
	if err != nil {
		return false, err
	}
	i := indexOf(devices, deviceID)
	if i < 0 {
		return false, nil
	}
	devices[i].LastUsedAt = r.now()
	return true, r.save(ctx, userID, devices)
}

func (r *Registry) load(ctx context.Context, userID string) ([]Info, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	raw, err := r.store.Get(ctx, storageKeyPrefix+userID)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	var devices []Info
	if err := json.Unmarshal([]byte(raw), &devices); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return devices, nil
}

func (r *Registry) save(ctx context.Context, userID string, devices []Info) error {
	raw, err := json.Marshal(devices)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	if err := r.store.Set(ctx, storageKeyPrefix+userID, string(raw)); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func indexOf(devices []Info, id string) int {
	return slices.IndexFunc(devices, func(d Info) bool { return d.ID == id })
}

// evictLRU removes the least recently used entries until at most limit remain.
// The relative order of the kept entries is preserved.
func evictLRU(devices []Info, limit int) (kept, evicted []Info) {
	if limit < 0 {
		limit = 0
	}
	excess := len(devices) - limit
	if excess <= 0 {
		return devices, nil
	}

	byAge := slices.Clone(devices)
	slices.SortStableFunc(byAge, func(a, b Info) int {
		return cmp.Compare(a.LastUsedAt.UnixNano(), b.LastUsedAt.UnixNano())
	})
	evicted = byAge[:excess]

	kept = slices.DeleteFunc(devices, func(d Info) bool {
		return slices.ContainsFunc(evicted, func(e Info) bool { return e.ID == d.ID })
	})
	return kept, evicted
}
