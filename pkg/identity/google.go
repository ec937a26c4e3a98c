package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleConfig holds Google OAuth settings.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL" envDefault:"urn:ietf:wg:oauth:2.0:oob"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
	VerifiedOnly bool     `env:"GOOGLE_OAUTH_VERIFIED_ONLY" envDefault:"true"`

	// Endpoint overrides, empty means Google's production endpoints.
	AuthURL     string `env:"GOOGLE_OAUTH_AUTH_URL"`
	TokenURL    string `env:"GOOGLE_OAUTH_TOKEN_URL"`
	UserInfoURL string `env:"GOOGLE_OAUTH_USERINFO_URL"`
}

// Configured reports whether client credentials are set.
func (c GoogleConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Google resolves identities through Google sign-in.
type Google struct {
	conf         *oauth2.Config
	userInfoURL  string
	verifiedOnly bool
	httpClient   *http.Client
}

// NewGoogle creates a Google provider.
func NewGoogle(cfg GoogleConfig) *Google {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	userInfo := cfg.UserInfoURL
	if userInfo == "" {
		userInfo = googleUserInfoURL
	}

	return &Google{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		userInfoURL:  userInfo,
		verifiedOnly: cfg.VerifiedOnly,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *Google) ProviderID() string { return ProviderGoogle }

// AuthURL builds the consent URL.
func (g *Google) AuthURL(state string) (string, error) {
	return g.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account")), nil
}

// Resolve exchanges code and fetches the user profile.
func (g *Google) Resolve(ctx context.Context, code string) (Profile, error) {
	if code == "" {
		return Profile{}, ErrCancelled
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return Profile{}, errors.Join(ErrInvalidCode, err)
		}
		return Profile{}, errors.Join(ErrProviderUnavailable, err)
	}

	u, err := g.fetchUser(ctx, tok.AccessToken)
	if err != nil {
		return Profile{}, errors.Join(ErrProviderUnavailable, err)
	}
	if u.Email == "" {
		return Profile{}, ErrNoEmail
	}
	if g.verifiedOnly && !u.VerifiedEmail {
		return Profile{}, ErrUnverifiedEmail
	}

	return Profile{
		Provider:      ProviderGoogle,
		SubjectID:     u.ID,
		Email:         u.Email,
		EmailVerified: u.VerifiedEmail,
		DisplayName:   u.Name,
	}, nil
}

func (g *Google) fetchUser(ctx context.Context, accessToken string) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var u googleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

var _ Provider = (*Google)(nil)
