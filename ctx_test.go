package userauth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContext(t *testing.T) {
	user := &User{Email: "pepe@example.com", Roles: []string{RoleUser}}

	ctx := WithUserContext(context.Background(), user)

	got, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "pepe@example.com", got.Email)

	_, ok = UserFromContext(context.Background())
	assert.False(t, ok)
}

func TestSessionContext(t *testing.T) {
	claims := &SessionClaims{UID: "user-1", PasswordEpoch: 1700000000000}

	ctx := WithSessionContext(context.Background(), claims)

	got, ok := SessionFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", got.UserID())
	assert.Equal(t, int64(1700000000000), got.Epoch())

	_, ok = SessionFromContext(context.Background())
	assert.False(t, ok)
}

func TestRouterSession(t *testing.T) {
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		PasswordEpoch:    1700000000000,
	}

	t.Run("default key", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["session"] = claims

		got, ok := RouterSession(ctx, "")
		require.True(t, ok)
		assert.Equal(t, "user-1", got.UserID())
	})

	t.Run("custom key", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["custom"] = claims

		_, ok := RouterSession(ctx, "custom")
		assert.True(t, ok)
	})

	t.Run("missing", func(t *testing.T) {
		ctx := router.NewMockContext()

		_, ok := RouterSession(ctx, "")
		assert.False(t, ok)
	})

	t.Run("wrong type", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["session"] = "not-claims"

		_, ok := RouterSession(ctx, "")
		assert.False(t, ok)
	})
}

func TestHasRoleFromContext(t *testing.T) {
	user := &User{Roles: []string{RoleAdmin}}
	ctx := WithUserContext(context.Background(), user)

	assert.True(t, HasRole(ctx, RoleAdmin))
	assert.False(t, HasRole(ctx, RoleUser))
	assert.False(t, HasRole(context.Background(), RoleAdmin))
}
