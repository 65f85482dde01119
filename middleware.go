package userauth

import (
	"context"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/lokk3d/go-userauth/middleware/sessionware"
)

type codecValidator struct {
	codec TokenCodec
}

func (v codecValidator) ParseSessionToken(raw string) (sessionware.SessionClaims, error) {
	claims, err := v.codec.ParseSessionToken(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// SessionValidator adapts a TokenCodec to the middleware validator
// contract.
func SessionValidator(codec TokenCodec) sessionware.TokenValidator {
	return codecValidator{codec: codec}
}

// EpochResolver builds the middleware hook that fetches a user's live
// password epoch from the store. With it in place, a password change
// rejects every session token minted before the change.
func EpochResolver(store UserStore) sessionware.EpochResolver {
	return func(ctx context.Context, userID string) (int64, error) {
		id, err := uuid.Parse(userID)
		if err != nil {
			return 0, ErrTokenInvalid.Clone().WithMetadata(map[string]any{
				"reason": "subject is not a valid user id",
			})
		}

		user, err := store.FindByID(ctx, id)
		if err != nil {
			return 0, err
		}

		return user.PasswordEpoch(), nil
	}
}

// ProtectedRoute returns a middleware that accepts only fresh session
// tokens. Defaults come from the manager: its codec validates tokens
// and its store resolves epochs.
func ProtectedRoute(accounts *Accounts, store UserStore, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return sessionware.New(sessionware.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: SessionValidator(accounts.Codec()),
		EpochResolver:  EpochResolver(store),
	})
}
