// Package identity resolves external identity assertions.
//
// A Provider runs the out-of-band consent flow of an external identity
// provider and returns a verified Profile. The core trusts the provider's
// answer and does not validate signatures itself.
//
// Two providers ship with the package: Google (OAuth2 authorization code flow
// on golang.org/x/oauth2) and Static, a fixed profile for development and
// command line use.
package identity
