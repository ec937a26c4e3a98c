// Package fingerprint derives a best-effort identity for the current device.
//
// Two different values are produced and they serve different purposes:
//
//   - A fingerprint is an irreversible digest of environment signals (user agent,
//     rendering capabilities, display geometry, locale, timezone, input
//     capabilities). It characterises the device class and is used only as
//     extra entropy for key derivation. It may change after a browser or OS
//     update and must never be used as an authorization key on its own.
//   - A device id is a random identifier generated on first use and persisted
//     in durable storage. It is the key of the device registry and does not
//     drift when environment signals do.
//
// Signal collection is abstracted behind Source so that browsers, servers and
// native clients can plug in their own detectors:
//
//	var src fingerprint.Source = fingerprint.NewHostSource()
//	fp, err := src.Fingerprint(ctx)
//
//	ids := fingerprint.NewDeviceIDs(durableStore, src)
//	deviceID, err := ids.Current(ctx)
package fingerprint
