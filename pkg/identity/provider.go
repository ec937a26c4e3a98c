package identity

import (
	"context"

	"github.com/dmitrymomot/noteauth/pkg/keystore"
)

// Provider identifiers.
const (
	ProviderGoogle = "google"
	ProviderStatic = "static"
)

// Provider performs the external sign-in flow.
type Provider interface {
	// ProviderID returns a short provider name.
	ProviderID() string
	// AuthURL returns the consent page URL carrying state.
	AuthURL(state string) (string, error)
	// Resolve turns an authorization code into a verified profile.
	Resolve(ctx context.Context, code string) (Profile, error)
}

// Profile is what a provider asserts about the user.
type Profile struct {
	Provider      string
	SubjectID     string
	Email         string
	EmailVerified bool
	DisplayName   string
}

// Identity converts the profile into the identity keys are bound to. The
// subject id is namespaced by provider so two providers can never collide.
func (p Profile) Identity() keystore.Identity {
	subject := p.SubjectID
	if p.Provider != "" && subject != "" {
		subject = p.Provider + ":" + subject
	}
	return keystore.Identity{
		SubjectID:   subject,
		Email:       p.Email,
		DisplayName: p.DisplayName,
	}
}
