package identity

import "context"

// StaticConfig configures the static provider.
type StaticConfig struct {
	SubjectID   string `env:"NOTEAUTH_IDENTITY_SUBJECT"`
	Email       string `env:"NOTEAUTH_IDENTITY_EMAIL"`
	DisplayName string `env:"NOTEAUTH_IDENTITY_NAME"`
}

// Configured reports whether a static identity is set.
func (c StaticConfig) Configured() bool {
	return c.SubjectID != "" && c.Email != ""
}

// Static always resolves to the same profile and ignores the code.
type Static struct {
	profile Profile
}

// NewStatic creates a static provider.
func NewStatic(cfg StaticConfig) *Static {
	return &Static{profile: Profile{
		Provider:      ProviderStatic,
		SubjectID:     cfg.SubjectID,
		Email:         cfg.Email,
		EmailVerified: true,
		DisplayName:   cfg.DisplayName,
	}}
}

func (s *Static) ProviderID() string { return ProviderStatic }

func (s *Static) AuthURL(string) (string, error) { return "", nil }

func (s *Static) Resolve(context.Context, string) (Profile, error) {
	if s.profile.Email == "" {
		return Profile{}, ErrNoEmail
	}
	return s.profile, nil
}

var _ Provider = (*Static)(nil)
