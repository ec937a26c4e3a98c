package keystore

// Identity is an external, provider-verified identity assertion.
type Identity struct {
	SubjectID   string `json:"subject_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// Valid reports whether the identity carries the fields keys are bound to.
func (i Identity) Valid() bool {
	return i.SubjectID != "" && i.Email != ""
}

// secrets returns the identity fields that feed key derivation.
// DisplayName is deliberately excluded: users can change it.
func (i Identity) secrets() [][]byte {
	return [][]byte{[]byte(i.SubjectID), []byte(i.Email)}
}
