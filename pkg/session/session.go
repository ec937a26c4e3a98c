package session

import (
	"context"
	"time"

	"github.com/dmitrymomot/noteauth/pkg/keystore"
)

// Scope tells which flow created the session.
type Scope string

const (
	// ScopeBasic sessions are not bound to an external identity.
	ScopeBasic Scope = "basic"
	// ScopeEnhanced sessions are bound to an external identity.
	ScopeEnhanced Scope = "enhanced"
)

// Record is the stored session.
type Record struct {
	SubjectID         string    `json:"subject_id"`
	IdentityBindingID string    `json:"identity_binding_id,omitempty"`
	IssuedAt          time.Time `json:"issued_at"`
	Scope             Scope     `json:"scope"`
}

// ExpiresAt returns when the record stops being valid.
func (r Record) ExpiresAt(ttl time.Duration) time.Time {
	return r.IssuedAt.Add(ttl)
}

// Sealer encrypts session records. keystore.Store implements it.
type Sealer interface {
	Seal(ctx context.Context, plaintext string, id keystore.Identity) (string, error)
	Open(ctx context.Context, sealed string, id keystore.Identity) (string, error)
}
