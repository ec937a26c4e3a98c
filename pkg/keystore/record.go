package keystore

import (
	"encoding/json"
	"strings"
)

// Scheme identifies how a record was encrypted.
type Scheme string

const (
	SchemeLegacy        Scheme = "legacy"
	SchemeDeviceBound   Scheme = "device_bound"
	SchemeIdentityBound Scheme = "identity_bound"

	// SchemeMalformed marks a stored value shaped like a record that does
	// not decode to one byte for byte. It is treated as a failed decryption.
	SchemeMalformed Scheme = "malformed"
)

// Record is the stored form of an encrypted value.
type Record struct {
	Scheme     Scheme `json:"scheme"`
	Salt       []byte `json:"salt,omitempty"`
	Ciphertext []byte `json:"ciphertext"`
}

// Encode serializes the record.
func (r Record) Encode() (string, error) {
	b, err := json.Marshal(r)
	return string(b), err
}

// Malformed reports whether the record came from a damaged stored value.
func (r Record) Malformed() bool {
	return r.Scheme == SchemeMalformed
}

// ParseRecord decodes a stored value.
//
// Values that do not look like a record at all, such as bare plaintext from
// older versions, are reported as SchemeLegacy carrying the raw bytes. A value
// that looks like a record but is not exactly what Encode produces for a known
// scheme is reported as SchemeMalformed: it was damaged in storage.
func ParseRecord(raw string) Record {
	if !looksLikeRecord(raw) {
		return Record{Scheme: SchemeLegacy, Ciphertext: []byte(raw)}
	}

	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Record{Scheme: SchemeMalformed, Ciphertext: []byte(raw)}
	}
	switch r.Scheme {
	case SchemeDeviceBound, SchemeIdentityBound, SchemeLegacy:
	default:
		return Record{Scheme: SchemeMalformed, Ciphertext: []byte(raw)}
	}
	// Base64 ignores unused trailing bits and JSON field names match case
	// insensitively, so distinct stored bytes can decode to the same record.
	if canonical, err := r.Encode(); err != nil || canonical != raw {
		return Record{Scheme: SchemeMalformed, Ciphertext: []byte(raw)}
	}
	return r
}

// looksLikeRecord holds for anything a single damaged byte could have turned
// out of an encoded record.
func looksLikeRecord(raw string) bool {
	s := strings.TrimSpace(raw)
	return strings.HasPrefix(s, "{") ||
		strings.HasSuffix(s, "}") ||
		strings.Contains(s, `"scheme"`) ||
		strings.Contains(s, `"ciphertext"`)
}
