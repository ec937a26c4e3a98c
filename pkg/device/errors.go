package device

import "errors"

var (
	// ErrDeviceNotFound is returned when a device id is not in the user's list.
	ErrDeviceNotFound = errors.New("device.not_found")

	// ErrEmptyUserID is returned for operations without a user id.
	ErrEmptyUserID = errors.New("device.empty_user_id")

	// ErrStorage wraps failures of the underlying store or corrupt lists.
	ErrStorage = errors.New("device.storage_failed")

	// ErrCurrentDevice is returned when the current device id cannot be resolved.
	ErrCurrentDevice = errors.New("device.current_unavailable")
)
