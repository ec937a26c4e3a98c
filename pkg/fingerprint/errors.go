package fingerprint

import "errors"

var (
	// ErrNoSignals is returned when a source could not collect any signal.
	ErrNoSignals = errors.New("fingerprint: no environment signals available")

	// ErrDeviceIDUnavailable is returned when the device id cannot be loaded or persisted.
	ErrDeviceIDUnavailable = errors.New("fingerprint: device id unavailable")
)
