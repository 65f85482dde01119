package userauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MainClaims is the payload of a main token: the longer-lived credential
// minted on login and consumed to derive session tokens. It binds the
// user id, the role set, and the password epoch current at login time.
type MainClaims struct {
	jwt.RegisteredClaims
	UID           string         `json:"uid,omitempty"`
	Roles         []string       `json:"roles,omitempty"`
	PasswordEpoch int64          `json:"pwe"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// UserID returns the user id, falling back to the subject claim.
func (c *MainClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// HasRole reports whether the token carries the given role.
func (c *MainClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IssuedAt returns the issuance time.
func (c *MainClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// SessionClaims is the payload of a session token: the short-lived
// credential presented on each authenticated request. It carries the
// password epoch copied from the main token it was derived from; exact
// equality with the live epoch is the sole invalidation check.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID           string `json:"uid,omitempty"`
	PasswordEpoch int64  `json:"pwe"`
}

// UserID returns the user id, falling back to the subject claim.
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Epoch returns the password epoch the token was minted against.
func (c *SessionClaims) Epoch() int64 {
	return c.PasswordEpoch
}

// Expires returns the expiration time.
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issuance time.
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
