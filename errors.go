package userauth

import (
	"github.com/goliatone/go-errors"
)

// Text codes attached to rich errors so boundaries and clients can branch
// without string matching.
const (
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodeAccountInactive    = "ACCOUNT_INACTIVE"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeInvalidRoles       = "INVALID_ROLES"
	TextCodeTokenInvalid       = "TOKEN_INVALID"
	TextCodeTokenStale         = "TOKEN_STALE"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeNotifierFailed     = "NOTIFIER_FAILED"
)

// ErrUserNotFound is returned when no user matches the given id or email.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrDuplicateEmail is returned when a signup collides with an existing email.
var ErrDuplicateEmail = errors.New("email address already registered", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode(TextCodeDuplicateEmail)

// ErrAccountInactive blocks login until the account has been activated.
var ErrAccountInactive = errors.New("account has not been activated", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeAccountInactive)

// ErrInvalidCredentials is returned on a password mismatch during login.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCredentials)

// ErrInvalidRoles is returned when a requested role set contains values
// outside the allow-list. Metadata carries the offending values under
// "invalid_roles".
var ErrInvalidRoles = errors.New("requested roles are not allowed", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeInvalidRoles)

// ErrTokenInvalid covers parse failures and bad signatures.
var ErrTokenInvalid = errors.New("token is invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenInvalid)

// ErrTokenStale marks a syntactically valid token whose embedded password
// epoch no longer matches the user's current epoch.
var ErrTokenStale = errors.New("token password epoch is stale", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenStale)

// ErrTokenExpired marks a session token past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrSigningKeyMissing is returned when the codec is asked to mint or
// verify without a signing key.
var ErrSigningKeyMissing = errors.New("signing key is required", errors.CategoryInternal).
	WithTextCode("SIGNING_KEY_MISSING")

// ErrNotifier wraps delivery failures from the Notifier. It is surfaced as
// a warning, never as the primary operation outcome.
var ErrNotifier = errors.New("notifier delivery failed", errors.CategoryOperation).
	WithTextCode(TextCodeNotifierFailed)

// ErrMismatchedHashAndPassword is the hasher-level mismatch error.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty required string inputs.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsNotFoundError reports whether err represents a missing user.
func IsNotFoundError(err error) bool {
	return errors.IsNotFound(err)
}

// IsDuplicateEmailError reports whether err is the duplicate-email conflict.
func IsDuplicateEmailError(err error) bool {
	return hasTextCode(err, TextCodeDuplicateEmail)
}

// IsStaleTokenError reports whether err marks an epoch mismatch.
func IsStaleTokenError(err error) bool {
	return hasTextCode(err, TextCodeTokenStale)
}

// IsExpiredTokenError reports whether err marks a token past expiry.
func IsExpiredTokenError(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsInvalidTokenError reports whether err marks a malformed or badly
// signed token.
func IsInvalidTokenError(err error) bool {
	return hasTextCode(err, TextCodeTokenInvalid)
}

// IsInvalidRolesError reports whether err rejects a role set.
func IsInvalidRolesError(err error) bool {
	return hasTextCode(err, TextCodeInvalidRoles)
}

// InvalidRolesFrom extracts the rejected role names carried by an
// ErrInvalidRoles instance, or nil for any other error.
func InvalidRolesFrom(err error) []string {
	var richErr *errors.Error
	if !errors.As(err, &richErr) || richErr.TextCode != TextCodeInvalidRoles {
		return nil
	}
	raw, ok := richErr.Metadata["invalid_roles"]
	if !ok {
		return nil
	}
	switch vals := raw.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
