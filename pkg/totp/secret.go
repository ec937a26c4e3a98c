package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrymomot/noteauth/pkg/qrcode"
)

const (
	Digits    = 6      // Standard 6-digit TOTP codes
	Period    = 30     // 30-second time step (RFC 6238)
	Algorithm = "SHA1" // HMAC-SHA1 (RFC 6238)

	// SecretSize is 160 bits, the RFC 4226 recommendation.
	SecretSize = 20
	// minSecretSize enforces at least 128 bits of entropy for manually entered secrets.
	minSecretSize = 16

	userIDDomain = "noteauth/user-id/v1"
)

var (
	// secretRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	secretRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	encoding = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// Secret is a TOTP shared secret together with its canonical text encoding
// and, when known, the provisioning URI.
type Secret struct {
	Raw    []byte
	Base32 string
	URI    string
}

// IsZero reports whether the secret carries no key material.
func (s Secret) IsZero() bool {
	return len(s.Raw) == 0
}

// URIParams contains the parameters for provisioning URI generation.
type URIParams struct {
	Secret      string // Base32-encoded secret (required)
	AccountName string // label, usually an email (required)
	Issuer      string // service name (required)
}

// Validate ensures all required URI parameters are present and valid.
func (p URIParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !secretRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// ProvisioningURI builds an otpauth:// URI following the Key Uri Format:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func ProvisioningURI(p URIParams) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(p.Issuer),
		url.PathEscape(p.AccountName),
	)

	query := url.Values{}
	query.Set("secret", p.Secret)
	query.Set("issuer", p.Issuer)
	query.Set("algorithm", Algorithm)
	query.Set("digits", strconv.Itoa(Digits))
	query.Set("period", strconv.Itoa(Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

// GenerateSecret creates a new random secret and its provisioning URI.
// Nothing is persisted; storing the secret is the caller's job.
func GenerateSecret(issuer, label string) (Secret, error) {
	raw := make([]byte, SecretSize)
	if _, err := rand.Read(raw); err != nil {
		return Secret{}, errors.Join(ErrFailedToGenerateSecret, err)
	}
	return NewSecret(raw, issuer, label)
}

// NewSecret wraps raw key material and builds its provisioning URI.
func NewSecret(raw []byte, issuer, label string) (Secret, error) {
	if len(raw) < minSecretSize {
		return Secret{}, ErrSecretTooShort
	}
	s := Secret{Raw: raw, Base32: encoding.EncodeToString(raw)}
	uri, err := ProvisioningURI(URIParams{Secret: s.Base32, AccountName: label, Issuer: issuer})
	if err != nil {
		return Secret{}, err
	}
	s.URI = uri
	return s, nil
}

// ParseSecret decodes a base32 secret as typed by a user or read from storage.
// Whitespace, dashes and lowercase letters are tolerated. The result has no URI.
func ParseSecret(encoded string) (Secret, error) {
	normalized := strings.ToUpper(strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '-':
			return -1
		}
		return r
	}, encoded))
	normalized = strings.TrimRight(normalized, "=")

	if normalized == "" {
		return Secret{}, ErrMissingSecret
	}
	if !secretRegex.MatchString(normalized) {
		return Secret{}, ErrInvalidSecret
	}

	raw, err := encoding.DecodeString(normalized)
	if err != nil {
		return Secret{}, errors.Join(ErrInvalidSecret, err)
	}
	if len(raw) < minSecretSize {
		return Secret{}, ErrSecretTooShort
	}

	return Secret{Raw: raw, Base32: encoding.EncodeToString(raw)}, nil
}

// ProvisioningImage renders the secret's URI as a PNG barcode.
func ProvisioningImage(s Secret, size int) ([]byte, error) {
	if s.URI == "" {
		return nil, ErrMissingURI
	}
	png, err := qrcode.Generate(s.URI, size)
	if err != nil {
		return nil, errors.Join(ErrEncodingFailed, err)
	}
	return png, nil
}

// UserIDFromSecret returns a stable pseudonymous identifier derived from the
// secret so that the secret itself is never used as a lookup key.
func UserIDFromSecret(s Secret) string {
	h := sha256.New()
	h.Write([]byte(userIDDomain))
	h.Write(s.Raw)
	return hex.EncodeToString(h.Sum(nil))
}
