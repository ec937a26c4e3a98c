// Package totp implements the time-based one-time password second factor:
// secret generation, provisioning URIs and barcodes, code generation and
// constant-time verification (RFC 4226 / RFC 6238, HMAC-SHA1, 6 digits, 30s).
//
// # Usage
//
//	secret, err := totp.GenerateSecret("Notes", "alice@example.com")
//	if err != nil {
//	    // handle error
//	}
//
//	png, _ := totp.ProvisioningImage(secret, 256) // show to the user
//
//	if totp.VerifyCode(input, secret) {
//	    // enrolment confirmed, persist the secret
//	}
//
//	partition := totp.UserIDFromSecret(secret)
//
// Verification accepts the current step and one step on each side. Malformed
// input never panics: VerifyCode returns false and GenerateCode returns
// InvalidCode, a value that can never verify.
//
// Secrets typed by hand are normalised with ParseSecret.
package totp
