// Package keystore derives identity-bound keys and keeps encrypted values in
// durable storage.
//
// # Key derivation
//
// The key for the identity-bound scheme is
//
//	passphrase = SHA-512(identity || device fingerprint || session element)
//	key        = PBKDF2(passphrase, salt, 100000 iterations, SHA-512, 64 bytes)
//
// The identity is the subject id and verified email of an external identity
// assertion. The session element is a random value generated once per device
// and persisted in durable storage, so the key can be re-derived after a
// restart. The salt is random per record and stored with it; the iteration
// count and digest are constants, and changing them invalidates every stored
// record.
//
// The first half of the key encrypts with AES-256-CBC and PKCS#7 padding. The
// second half authenticates salt, IV and ciphertext with HMAC-SHA256, so any
// modified record is rejected before decryption.
//
// # Records and schemes
//
// Each value is stored as a JSON Record tagged with its Scheme:
//
//   - SchemeIdentityBound: the scheme above.
//   - SchemeDeviceBound: weaker basic-mode scheme keyed by fingerprint and
//     session element only (HKDF-SHA256, AES-256-GCM).
//   - SchemeLegacy: anything written by older versions, including bare
//     plaintext values. It is never decrypted or trusted.
//   - SchemeMalformed: a value shaped like a record that does not decode to
//     exactly what Encode writes. Reads handle it like a failed decryption.
//
// Migrate maps a record to the action required before the identity-bound
// flow can proceed. Old records are only ever deleted, never re-encrypted.
//
// # Failure policy
//
// Decrypting a record that fails authentication deletes it and reports
// ErrDecryptionFailed. Later reads then see no record at all. An undecryptable
// record can never become readable again, so keeping it would only force the
// same failure on every start.
package keystore
