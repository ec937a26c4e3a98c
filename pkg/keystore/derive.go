package keystore

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 iteration count.
	Iterations = 100000
	// KeySize is the derived key length in bytes (512 bits).
	KeySize = 64
	// SaltSize is the per-record salt length in bytes.
	SaltSize = 16
)

// passphrase computes SHA-512 over length-prefixed parts.
func passphrase(parts ...[]byte) []byte {
	h := sha512.New()
	var n [4]byte
	for _, p := range parts {
		binary.BigEndian.PutUint32(n[:], uint32(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return h.Sum(nil)
}

// deriveKey runs PBKDF2-SHA512 with the fixed parameters.
func deriveKey(pass, salt []byte) []byte {
	return pbkdf2.Key(pass, salt, Iterations, KeySize, sha512.New)
}

// cacheKey names a derived key without revealing the passphrase.
func cacheKey(pass, salt []byte) string {
	h := sha256.New()
	h.Write(pass)
	h.Write(salt)
	return hex.EncodeToString(h.Sum(nil))
}
