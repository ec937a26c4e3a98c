package authflow

import "errors"

// UserMessage returns the text to show the end user for err. Low-level
// details are never exposed. A nil error yields an empty string.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCode):
		return "The code is incorrect. Check your authenticator app and try again."
	case errors.Is(err, ErrInvalidSecret):
		return "That secret key is not valid. Check it and try again."
	case errors.Is(err, ErrTooManyAttempts):
		return "Too many incorrect codes. Wait a moment and try again."
	case errors.Is(err, ErrIdentityFailed):
		return "Sign-in did not complete. Please try again."
	case errors.Is(err, ErrReRegistrationRequired):
		return "Your saved authenticator data could not be read. Please set up two-factor authentication again."
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrNotAuthenticated):
		return "This step is no longer available. Please start over."
	}
	return "Authentication is currently unavailable. Please try again later."
}
