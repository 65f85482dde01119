package userauth

import (
	"context"

	"github.com/google/uuid"
)

// UserStore is the persistence boundary the account manager talks to.
// Implementations must return ErrUserNotFound (or an error satisfying
// errors.IsNotFound) when a lookup misses.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
}
