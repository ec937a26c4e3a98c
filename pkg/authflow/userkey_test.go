package authflow_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/noteauth/pkg/authflow"
)

func TestUserKey(t *testing.T) {
	t.Parallel()

	k := authflow.UserKey{TOTPUserID: "u1", SubjectID: "google:1"}
	assert.False(t, k.IsZero())
	assert.Len(t, k.String(), 64)
	assert.Equal(t, k.String(), authflow.UserKey{TOTPUserID: "u1", SubjectID: "google:1"}.String())

	assert.NotEqual(t, k.String(), authflow.UserKey{TOTPUserID: "u1", SubjectID: "google:2"}.String())
	assert.NotEqual(t, k.String(), authflow.UserKey{TOTPUserID: "u2", SubjectID: "google:1"}.String())
	// Parts are length-prefixed, so shifting bytes between them changes the key.
	assert.NotEqual(t,
		authflow.UserKey{TOTPUserID: "ab", SubjectID: "c"}.String(),
		authflow.UserKey{TOTPUserID: "a", SubjectID: "bc"}.String(),
	)

	for _, zero := range []authflow.UserKey{{}, {TOTPUserID: "u1"}, {SubjectID: "google:1"}} {
		assert.True(t, zero.IsZero())
		assert.Empty(t, zero.String())
	}
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	assert.Empty(t, authflow.UserMessage(nil))

	for _, err := range []error{
		authflow.ErrInvalidCode,
		authflow.ErrInvalidSecret,
		authflow.ErrTooManyAttempts,
		authflow.ErrIdentityFailed,
		authflow.ErrReRegistrationRequired,
		authflow.ErrInvalidState,
		authflow.ErrUnavailable,
	} {
		msg := authflow.UserMessage(fmt.Errorf("wrapped: %w", err))
		assert.NotEmpty(t, msg)
		assert.NotContains(t, msg, "authflow.")
	}

	leak := errors.Join(authflow.ErrUnavailable, errors.New("open /var/lib/noteauth/data.db: permission denied"))
	assert.NotContains(t, authflow.UserMessage(leak), "/var/lib")
	assert.Equal(t, authflow.UserMessage(authflow.ErrUnavailable), authflow.UserMessage(errors.New("anything")))
}
