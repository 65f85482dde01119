package userauth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/lokk3d/go-userauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func loginTestUser(t *testing.T) (*userauth.Accounts, *memoryUserStore, *userauth.LoginResult) {
	t.Helper()

	store := newMemoryUserStore()
	accounts := userauth.NewAccounts(store, nil, testConfig())

	result, err := accounts.Signup(context.Background(), userauth.SignupMessage{
		Email:    "pepe@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	_, err = accounts.Activate(context.Background(), result.User.ID)
	require.NoError(t, err)

	login, err := accounts.Login(context.Background(), "pepe@example.com", "secret-password")
	require.NoError(t, err)

	return accounts, store, login
}

func TestProtectedRoute(t *testing.T) {
	passthrough := func(ctx router.Context, err error) error { return err }

	t.Run("fresh session token passes", func(t *testing.T) {
		accounts, store, login := loginTestUser(t)

		mw := userauth.ProtectedRoute(accounts, store, passthrough)

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer " + login.SessionToken)
		ctx.On("Context").Return(context.Background())
		ctx.On("Locals", "session", mock.Anything).Return(nil)

		handler := mw(func(c router.Context) error { return c.Next() })
		require.NoError(t, handler(ctx))
		assert.True(t, ctx.NextCalled)
	})

	t.Run("password change rejects live sessions", func(t *testing.T) {
		accounts, store, login := loginTestUser(t)

		_, err := accounts.ChangePassword(context.Background(), login.User.ID, "brand-new-password")
		require.NoError(t, err)

		mw := userauth.ProtectedRoute(accounts, store, passthrough)

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer " + login.SessionToken)
		ctx.On("Context").Return(context.Background())

		handler := mw(func(c router.Context) error { return c.Next() })
		err = handler(ctx)
		require.Error(t, err)
		assert.False(t, ctx.NextCalled)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		accounts, store, _ := loginTestUser(t)

		mw := userauth.ProtectedRoute(accounts, store, passthrough)

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer garbage")

		handler := mw(func(c router.Context) error { return c.Next() })
		err := handler(ctx)
		require.Error(t, err)
		assert.False(t, ctx.NextCalled)
	})
}

func TestEpochResolver(t *testing.T) {
	_, store, login := loginTestUser(t)

	resolver := userauth.EpochResolver(store)

	epoch, err := resolver(context.Background(), login.User.ID.String())
	require.NoError(t, err)
	assert.Equal(t, login.User.PasswordEpoch(), epoch)

	t.Run("bad user id", func(t *testing.T) {
		_, err := resolver(context.Background(), "not-a-uuid")
		require.Error(t, err)
		assert.True(t, userauth.IsInvalidTokenError(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := resolver(context.Background(), "0c7b0edd-19f5-48b1-9e74-5c52e4bba273")
		require.Error(t, err)
		assert.True(t, userauth.IsNotFoundError(err))
	})
}

func TestSessionValidator(t *testing.T) {
	accounts, _, login := loginTestUser(t)

	validator := userauth.SessionValidator(accounts.Codec())

	claims, err := validator.ParseSessionToken(login.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID.String(), claims.UserID())
	assert.Equal(t, login.User.PasswordEpoch(), claims.Epoch())

	_, err = validator.ParseSessionToken("garbage")
	require.Error(t, err)
}
