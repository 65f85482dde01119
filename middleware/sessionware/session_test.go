package sessionware_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lokk3d/go-userauth/middleware/sessionware"
)

type stubClaims struct {
	uid   string
	epoch int64
}

func (c stubClaims) UserID() string { return c.uid }
func (c stubClaims) Epoch() int64   { return c.epoch }

func stubValidator(claims sessionware.SessionClaims, err error) sessionware.TokenValidator {
	return sessionware.TokenValidatorFunc(func(raw string) (sessionware.SessionClaims, error) {
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}

func passthroughError(ctx router.Context, err error) error {
	return err
}

func runMiddleware(cfg sessionware.Config, ctx router.Context) error {
	handler := sessionware.New(cfg)(func(c router.Context) error {
		return c.Next()
	})
	return handler(ctx)
}

func TestSessionWareAcceptsValidToken(t *testing.T) {
	claims := stubClaims{uid: "user-1", epoch: 1700000000000}

	cfg := sessionware.Config{
		TokenValidator: stubValidator(claims, nil),
		ErrorHandler:   passthroughError,
	}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer token-value")
	ctx.On("Locals", "session", mock.Anything).Return(nil)

	require.NoError(t, runMiddleware(cfg, ctx))
	assert.True(t, ctx.NextCalled)
}

func TestSessionWareMissingToken(t *testing.T) {
	cfg := sessionware.Config{
		TokenValidator: stubValidator(stubClaims{}, nil),
		ErrorHandler:   passthroughError,
	}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")

	err := runMiddleware(cfg, ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), sessionware.ErrSessionMissingOrMalformed.Error())
	assert.False(t, ctx.NextCalled)
}

func TestSessionWareRejectsInvalidToken(t *testing.T) {
	cfg := sessionware.Config{
		TokenValidator: stubValidator(nil, errors.New("token is invalid")),
		ErrorHandler:   passthroughError,
	}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer bad-token")

	err := runMiddleware(cfg, ctx)
	require.Error(t, err)
	assert.False(t, ctx.NextCalled)
}

func TestSessionWareEpochResolver(t *testing.T) {
	claims := stubClaims{uid: "user-1", epoch: 1700000000000}

	t.Run("matching epoch passes", func(t *testing.T) {
		cfg := sessionware.Config{
			TokenValidator: stubValidator(claims, nil),
			ErrorHandler:   passthroughError,
			EpochResolver: func(ctx context.Context, userID string) (int64, error) {
				assert.Equal(t, "user-1", userID)
				return 1700000000000, nil
			},
		}

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer token-value")
		ctx.On("Context").Return(context.Background())
		ctx.On("Locals", "session", mock.Anything).Return(nil)

		require.NoError(t, runMiddleware(cfg, ctx))
		assert.True(t, ctx.NextCalled)
	})

	t.Run("moved epoch rejects the session", func(t *testing.T) {
		cfg := sessionware.Config{
			TokenValidator: stubValidator(claims, nil),
			ErrorHandler:   passthroughError,
			EpochResolver: func(ctx context.Context, userID string) (int64, error) {
				return 1700000000001, nil
			},
		}

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer token-value")
		ctx.On("Context").Return(context.Background())

		err := runMiddleware(cfg, ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stale")
		assert.False(t, ctx.NextCalled)
	})

	t.Run("resolver failure rejects the session", func(t *testing.T) {
		cfg := sessionware.Config{
			TokenValidator: stubValidator(claims, nil),
			ErrorHandler:   passthroughError,
			EpochResolver: func(ctx context.Context, userID string) (int64, error) {
				return 0, errors.New("store unavailable")
			},
		}

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer token-value")
		ctx.On("Context").Return(context.Background())

		err := runMiddleware(cfg, ctx)
		require.Error(t, err)
		assert.False(t, ctx.NextCalled)
	})
}

func TestSessionWareRoleChecker(t *testing.T) {
	claims := stubClaims{uid: "user-1", epoch: 1700000000000}

	cfg := sessionware.Config{
		TokenValidator: stubValidator(claims, nil),
		ErrorHandler:   passthroughError,
		RequiredRole:   "ADMIN",
		RoleChecker: func(ctx context.Context, userID, role string) (bool, error) {
			return false, nil
		},
	}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer token-value")
	ctx.On("Context").Return(context.Background())

	err := runMiddleware(cfg, ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN")
	assert.False(t, ctx.NextCalled)
}

func TestSessionWareValidationListeners(t *testing.T) {
	claims := stubClaims{uid: "user-1", epoch: 1700000000000}

	var seen []string
	cfg := sessionware.Config{
		TokenValidator: stubValidator(claims, nil),
		ErrorHandler:   passthroughError,
		ValidationListeners: []sessionware.ValidationListener{
			func(ctx router.Context, c sessionware.SessionClaims) error {
				seen = append(seen, c.UserID())
				return nil
			},
		},
	}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer token-value")
	ctx.On("Locals", "session", mock.Anything).Return(nil)

	require.NoError(t, runMiddleware(cfg, ctx))
	assert.Equal(t, []string{"user-1"}, seen)
}

func TestGetExtractors(t *testing.T) {
	extractors := sessionware.GetExtractors("header:Authorization,cookie:session,query:session_token", "Bearer")
	require.Len(t, extractors, 3)

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer abc")

	raw, err := sessionware.ExtractRawTokenFromContext(ctx, extractors[:1])
	require.NoError(t, err)
	assert.Equal(t, "abc", raw)
}

func TestExtractorRejectsWrongScheme(t *testing.T) {
	extractors := sessionware.GetExtractors("header:Authorization", "Bearer")

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Basic dXNlcjpwYXNz")

	_, err := sessionware.ExtractRawTokenFromContext(ctx, extractors)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "malformed"))
}
