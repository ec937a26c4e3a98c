// Package authflow drives one login attempt from external sign-in to an
// authenticated session.
//
// An Orchestrator holds the long-lived services (secret store, device
// registry, session manager, attempt limiter). Every login attempt gets its
// own Flow from Orchestrator.Begin. The Flow carries all per-attempt state
// explicitly and moves through a state machine:
//
//	IDENTITY_SIGNIN -> MIGRATION | TOTP_SETUP | TOTP_VERIFY | AUTHENTICATED
//	MIGRATION       -> TOTP_SETUP (new secret) | TOTP_VERIFY (existing secret)
//	TOTP_SETUP      -> AUTHENTICATED
//	TOTP_VERIFY     -> AUTHENTICATED | DEVICE_REGISTRATION
//	DEVICE_REGISTRATION -> AUTHENTICATED (confirm) | TOTP_VERIFY (cancel)
//	AUTHENTICATED   -> TOTP_SETUP (regenerate) | IDENTITY_SIGNIN (logout)
//
// Wrong codes and malformed input never change state; they return retryable
// errors. Nothing is written to durable storage before AUTHENTICATED is
// reached, except when the user explicitly discards old data in MIGRATION,
// so a cancelled attempt leaves no partial secret or device entry behind.
//
// Every error returned by a Flow method matches one of the sentinels of this
// package under errors.Is. UserMessage turns them into text for the end user.
package authflow
