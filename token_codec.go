package userauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DefaultSessionTokenTTL is the lifetime of a derived session token when
// none is configured.
const DefaultSessionTokenTTL = 15 * time.Minute

// TokenCodec mints and verifies the two-tier credentials. The codec is
// pure: it never reads storage, callers supply the epoch to compare
// against.
type TokenCodec interface {
	MintMainToken(userID string, roles []string, extra map[string]any, passwordEpoch time.Time) (string, error)
	VerifyMainToken(raw string) (*MainClaims, error)
	DeriveSessionToken(mainToken string, expectedEpoch time.Time) (string, error)
	ParseSessionToken(raw string) (*SessionClaims, error)
	VerifySessionToken(raw string, currentEpoch time.Time) (*SessionClaims, error)
}

// TokenCodecImpl implements the TokenCodec interface over HS256.
type TokenCodecImpl struct {
	signingKey []byte
	sessionTTL time.Duration
	issuer     string
	logger     Logger
	now        func() time.Time
}

// CodecOption customizes codec construction.
type CodecOption func(*TokenCodecImpl)

// WithCodecClock injects a custom clock (useful for tests).
func WithCodecClock(clock func() time.Time) CodecOption {
	return func(tc *TokenCodecImpl) {
		if clock != nil {
			tc.now = clock
		}
	}
}

// NewTokenCodec creates a new TokenCodec instance. A zero sessionTTL
// falls back to DefaultSessionTokenTTL.
func NewTokenCodec(signingKey []byte, sessionTTL time.Duration, issuer string, logger Logger, opts ...CodecOption) TokenCodec {
	if logger == nil {
		logger = defaultLogger()
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTokenTTL
	}

	tc := &TokenCodecImpl{
		signingKey: signingKey,
		sessionTTL: sessionTTL,
		issuer:     issuer,
		logger:     logger,
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(tc)
		}
	}

	return tc
}

// MintMainToken signs a main token binding the user id, role set, and
// password epoch. Main tokens carry no expiry; they die when the epoch
// moves.
func (tc *TokenCodecImpl) MintMainToken(userID string, roles []string, extra map[string]any, passwordEpoch time.Time) (string, error) {
	if len(tc.signingKey) == 0 {
		return "", ErrSigningKeyMissing
	}

	now := tc.now()
	claims := &MainClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   tc.issuer,
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		UID:           userID,
		PasswordEpoch: EpochFromTime(passwordEpoch),
	}

	if len(roles) > 0 {
		claims.Roles = append([]string(nil), roles...)
	}
	if len(extra) > 0 {
		claims.Metadata = make(map[string]any, len(extra))
		for k, v := range extra {
			claims.Metadata[k] = v
		}
	}

	ensureTokenID(&claims.RegisteredClaims)

	return tc.sign(claims)
}

// VerifyMainToken parses and validates a main token signature, returning
// its claims. Epoch freshness is the caller's concern.
func (tc *TokenCodecImpl) VerifyMainToken(raw string) (*MainClaims, error) {
	claims := &MainClaims{}
	if err := tc.parse(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// DeriveSessionToken verifies the main token and exchanges it for a
// short-lived session token. The main token's embedded epoch must equal
// expectedEpoch exactly, otherwise the token is stale.
func (tc *TokenCodecImpl) DeriveSessionToken(mainToken string, expectedEpoch time.Time) (string, error) {
	main, err := tc.VerifyMainToken(mainToken)
	if err != nil {
		return "", err
	}

	expected := EpochFromTime(expectedEpoch)
	if main.PasswordEpoch != expected {
		return "", ErrTokenStale.Clone().WithMetadata(map[string]any{
			"token_epoch":   main.PasswordEpoch,
			"current_epoch": expected,
		})
	}

	now := tc.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tc.issuer,
			Subject:   main.UserID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tc.sessionTTL)),
		},
		UID:           main.UserID(),
		PasswordEpoch: main.PasswordEpoch,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return tc.sign(claims)
}

// ParseSessionToken validates signature and expiry only. Use
// VerifySessionToken when the live epoch is at hand.
func (tc *TokenCodecImpl) ParseSessionToken(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := tc.parse(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifySessionToken fully validates a session token: signature, expiry,
// and exact epoch equality against the user's current epoch.
func (tc *TokenCodecImpl) VerifySessionToken(raw string, currentEpoch time.Time) (*SessionClaims, error) {
	claims, err := tc.ParseSessionToken(raw)
	if err != nil {
		return nil, err
	}

	current := EpochFromTime(currentEpoch)
	if claims.PasswordEpoch != current {
		return nil, ErrTokenStale.Clone().WithMetadata(map[string]any{
			"token_epoch":   claims.PasswordEpoch,
			"current_epoch": current,
		})
	}

	return claims, nil
}

func (tc *TokenCodecImpl) sign(claims jwt.Claims) (string, error) {
	if len(tc.signingKey) == 0 {
		return "", ErrSigningKeyMissing
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

func (tc *TokenCodecImpl) parse(raw string, claims jwt.Claims) error {
	if len(tc.signingKey) == 0 {
		return ErrSigningKeyMissing
	}

	parserOptions := make([]jwt.ParserOption, 0, 1)
	if tc.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(tc.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			tc.logger.Error("token codec encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tc.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Wrap(err, ErrTokenInvalid.Category, ErrTokenInvalid.Message).WithTextCode(ErrTokenInvalid.TextCode)
	}

	if !token.Valid {
		return ErrTokenInvalid
	}

	return nil
}
