package totp_test

import (
	"bytes"
	"image/png"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/noteauth/pkg/totp"
)

func TestGenerateSecret(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecret("Notes", "alice@example.com")
	require.NoError(t, err)

	assert.Len(t, secret.Raw, totp.SecretSize)
	assert.Regexp(t, "^[A-Z2-7]+$", secret.Base32)

	u, err := url.Parse(secret.URI)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)
	q := u.Query()
	assert.Equal(t, secret.Base32, q.Get("secret"))
	assert.Equal(t, "Notes", q.Get("issuer"))
	assert.Equal(t, "SHA1", q.Get("algorithm"))
	assert.Equal(t, "6", q.Get("digits"))
	assert.Equal(t, "30", q.Get("period"))
}

func TestProvisioningURI(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		params  totp.URIParams
		want    string
		wantErr error
	}{
		{
			name:   "basic",
			params: totp.URIParams{Secret: "ABCDEFGHIJKLMNOP", AccountName: "test@example.com", Issuer: "Notes"},
			want:   "otpauth://totp/Notes:test@example.com?algorithm=SHA1&digits=6&issuer=Notes&period=30&secret=ABCDEFGHIJKLMNOP",
		},
		{
			name:   "special characters",
			params: totp.URIParams{Secret: "ABCDEFGHIJKLMNOP", AccountName: "test+user@example.com", Issuer: "My Notes"},
			want:   "otpauth://totp/My%20Notes:test+user@example.com?algorithm=SHA1&digits=6&issuer=My+Notes&period=30&secret=ABCDEFGHIJKLMNOP",
		},
		{name: "missing secret", params: totp.URIParams{AccountName: "a", Issuer: "b"}, wantErr: totp.ErrMissingSecret},
		{name: "invalid secret", params: totp.URIParams{Secret: "abc!", AccountName: "a", Issuer: "b"}, wantErr: totp.ErrInvalidSecret},
		{name: "missing account", params: totp.URIParams{Secret: "ABCD", Issuer: "b"}, wantErr: totp.ErrMissingAccountName},
		{name: "missing issuer", params: totp.URIParams{Secret: "ABCD", AccountName: "a"}, wantErr: totp.ErrMissingIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := totp.ProvisioningURI(tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSecret(t *testing.T) {
	t.Parallel()
	original, err := totp.GenerateSecret("Notes", "alice@example.com")
	require.NoError(t, err)

	t.Run("canonical form", func(t *testing.T) {
		t.Parallel()
		parsed, err := totp.ParseSecret(original.Base32)
		require.NoError(t, err)
		assert.Equal(t, original.Raw, parsed.Raw)
		assert.Equal(t, original.Base32, parsed.Base32)
		assert.Empty(t, parsed.URI)
	})

	t.Run("typed by hand", func(t *testing.T) {
		t.Parallel()
		var grouped strings.Builder
		for i, r := range strings.ToLower(original.Base32) {
			if i > 0 && i%4 == 0 {
				grouped.WriteByte(' ')
			}
			grouped.WriteRune(r)
		}
		parsed, err := totp.ParseSecret(grouped.String())
		require.NoError(t, err)
		assert.Equal(t, original.Raw, parsed.Raw)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		t.Parallel()
		_, err := totp.ParseSecret("not a secret!")
		assert.ErrorIs(t, err, totp.ErrInvalidSecret)
		_, err = totp.ParseSecret("   ")
		assert.ErrorIs(t, err, totp.ErrMissingSecret)
		_, err = totp.ParseSecret("JBSWY3DP")
		assert.ErrorIs(t, err, totp.ErrSecretTooShort)
	})
}

func TestProvisioningImage(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecret("Notes", "alice@example.com")
	require.NoError(t, err)

	img, err := totp.ProvisioningImage(secret, 128)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(img))
	require.NoError(t, err)

	parsed, err := totp.ParseSecret(secret.Base32)
	require.NoError(t, err)
	_, err = totp.ProvisioningImage(parsed, 128)
	assert.ErrorIs(t, err, totp.ErrMissingURI)
}

func TestUserIDFromSecret(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecret("Notes", "alice@example.com")
	require.NoError(t, err)

	id := totp.UserIDFromSecret(secret)
	assert.Equal(t, id, totp.UserIDFromSecret(secret), "deterministic")
	assert.Regexp(t, "^[a-f0-9]{64}$", id)
	assert.NotContains(t, id, secret.Base32)

	seen := make(map[string]struct{}, 10_000)
	for range 10_000 {
		s, err := totp.GenerateSecret("Notes", "x@example.com")
		require.NoError(t, err)
		uid := totp.UserIDFromSecret(s)
		_, dup := seen[uid]
		require.False(t, dup, "collision")
		seen[uid] = struct{}{}
	}
}
