package authflow

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// UserKey scopes authorization to the pair of the TOTP-derived user id and the
// external identity subject. Neither part alone identifies a user.
type UserKey struct {
	TOTPUserID string
	SubjectID  string
}

// IsZero reports whether either part is missing.
func (k UserKey) IsZero() bool {
	return k.TOTPUserID == "" || k.SubjectID == ""
}

// String returns the canonical opaque form used as device registry user id,
// session subject and downstream partition key.
func (k UserKey) String() string {
	if k.IsZero() {
		return ""
	}
	h := sha256.New()
	var n [4]byte
	for _, part := range []string{k.TOTPUserID, k.SubjectID} {
		binary.BigEndian.PutUint32(n[:], uint32(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
