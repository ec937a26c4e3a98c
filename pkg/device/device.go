package device

import (
	"context"
	"time"
)

// Info describes one authorized device.
type Info struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	RegisteredAt time.Time `json:"registered_at"`
	LastUsedAt   time.Time `json:"last_used_at"`
	Fingerprint  string    `json:"fingerprint,omitempty"`

	// IsCurrent is set by ListDevices and never stored.
	IsCurrent bool `json:"-"`
}

// Verification is the result of an access decision for the current device.
type Verification struct {
	IsValid     bool
	IsNewDevice bool
	// DeviceName is set for unknown devices, to be shown when asking the
	// user to confirm registration.
	DeviceName string
}

// Identifier resolves the persisted id of the device the process runs on.
// fingerprint.DeviceIDs implements it.
type Identifier interface {
	Current(ctx context.Context) (string, error)
}
