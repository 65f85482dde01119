package userauth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// RoleUser is the default role assigned on signup.
	RoleUser = "USER"
	// RoleAdmin grants administrative access.
	RoleAdmin = "ADMIN"
)

// DefaultAllowedRoles returns the built-in role allow-list. Role names are
// case-sensitive.
func DefaultAllowedRoles() []string {
	return []string{RoleUser, RoleAdmin}
}

// User is the account record. LastPasswordChange is the password epoch:
// it is bumped on every password set and every issued token embeds it, so
// a stale epoch is the sole token-invalidation mechanism.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email              string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FirstName          string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName           string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	PasswordHash       string     `bun:"password_hash,notnull" json:"-"`
	Roles              []string   `bun:"roles,notnull" json:"roles,omitempty"`
	IsActive           bool       `bun:"is_active,notnull" json:"is_active"`
	FirstLogin         bool       `bun:"first_login,notnull" json:"first_login"`
	LastPasswordChange time.Time  `bun:"last_password_change,notnull" json:"last_password_change"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt          *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// PasswordEpoch returns the epoch value tokens embed. Millisecond
// precision matches what the storage layer round-trips; comparisons are
// exact equality, never ordering.
func (u *User) PasswordEpoch() int64 {
	return EpochFromTime(u.LastPasswordChange)
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// FullName joins the name fields for display purposes.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail applies the canonical email form used for lookups and
// storage: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EpochFromTime converts a password-change timestamp into the epoch value
// embedded in tokens.
func EpochFromTime(t time.Time) int64 {
	return t.UTC().UnixMilli()
}
