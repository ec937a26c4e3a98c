package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/noteauth/pkg/kv"
)

// DeviceIDKey is the durable storage key holding the device id.
const DeviceIDKey = "device.id"

// DeviceIDs hands out the persisted device id, creating it on first use.
type DeviceIDs struct {
	store  kv.Store
	source Source
	mu     sync.Mutex
}

// NewDeviceIDs creates a device id provider backed by durable storage.
// The source contributes fingerprint entropy to a newly generated id.
func NewDeviceIDs(store kv.Store, source Source) *DeviceIDs {
	return &DeviceIDs{store: store, source: source}
}

// Current returns the device id, generating and persisting it if absent.
// Once stored it is reused as is, even if the fingerprint changes later.
func (d *DeviceIDs) Current(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, err := d.store.Get(ctx, DeviceIDKey)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return "", errors.Join(ErrDeviceIDUnavailable, err)
	}

	id = d.generate(ctx)
	if err := d.store.Set(ctx, DeviceIDKey, id); err != nil {
		return "", errors.Join(ErrDeviceIDUnavailable, err)
	}
	return id, nil
}

// generate mixes the fingerprint (if available) with 122 bits of randomness.
func (d *DeviceIDs) generate(ctx context.Context) string {
	h := sha256.New()
	if d.source != nil {
		if fp, err := d.source.Fingerprint(ctx); err == nil {
			h.Write([]byte(fp))
		}
	}
	h.Write([]byte(uuid.NewString()))
	return hex.EncodeToString(h.Sum(nil)[:16])
}
