// Package session tracks whether the current browsing session is authenticated.
//
// A session record lives in volatile storage, typically kv.MemoryStore or a
// Redis store with a TTL, and is lost when the browsing session ends. It stays
// valid for Config.TTL (24h by default) counted from IssuedAt. It is bound to
// the external identity that was signed in when it was saved: reading it with
// a different identity yields no session, which prevents reuse after
// switching accounts in the same browser.
//
// When a Sealer is configured, records are stored encrypted under the same
// identity-bound key scheme as the TOTP secret, and only the bound identity
// can read them back.
package session
