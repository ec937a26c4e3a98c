// Package device keeps the list of devices authorized for each user.
//
// Every user has at most Config.MaxDevices entries (10 by default). When a new
// device is registered on a full list, the entries with the oldest LastUsedAt
// are evicted first, so the new device is always retained.
//
// Registry.Verify is the access decision entry point. A registered device is
// allowed and its LastUsedAt refreshed. An unknown device is denied, and its
// display name is returned so the caller can ask the user for explicit
// consent before calling RegisterCurrentDevice. Unknown devices are never
// registered implicitly.
//
// Lists are stored as JSON in a kv.Store under "devices:<userID>". Updates to
// one user's list are serialized with a per-user lock.
package device
