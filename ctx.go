package userauth

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithUserContext sets the User in the given context
func WithUserContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// UserFromContext finds the user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithSessionContext sets the SessionClaims in the given context
func WithSessionContext(r context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(r, sessionCtxKey, claims)
}

// SessionFromContext extracts the SessionClaims from the standard context
func SessionFromContext(ctx context.Context) (*SessionClaims, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(*SessionClaims)
	return raw, ok
}

// RouterSession extracts the SessionClaims stored by the session
// middleware in the router locals.
func RouterSession(ctx router.Context, key string) (*SessionClaims, bool) {
	if key == "" {
		key = "session"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(*SessionClaims)
	return claims, ok
}

// HasRole checks whether the session stored in the context carries the
// given role, looking at the user first and falling back to nothing.
func HasRole(ctx context.Context, role string) bool {
	if user, ok := UserFromContext(ctx); ok {
		return user.HasRole(role)
	}
	return false
}
