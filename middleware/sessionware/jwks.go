package sessionware

import (
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

type jwksClaims struct {
	jwt.RegisteredClaims
	UID           string `json:"uid,omitempty"`
	PasswordEpoch int64  `json:"pwe"`
}

func (c *jwksClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

func (c *jwksClaims) Epoch() int64 {
	return c.PasswordEpoch
}

// NewJWKSValidator builds a TokenValidator that verifies session tokens
// against one or more remote JWK sets. Use it when sessions are signed
// by an external issuer instead of the local codec.
func NewJWKSValidator(jwkSetURLs []string) (TokenValidator, error) {
	if len(jwkSetURLs) == 0 {
		return nil, fmt.Errorf("at least one JWK set URL is required")
	}

	keyFunc, err := multiKeyfunc(jwkSetURLs)
	if err != nil {
		return nil, err
	}

	return TokenValidatorFunc(func(raw string) (SessionClaims, error) {
		claims := &jwksClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, keyFunc)
		if err != nil {
			return nil, err
		}
		if !token.Valid {
			return nil, ErrSessionMissingOrMalformed
		}
		return claims, nil
	}), nil
}

func multiKeyfunc(jwkSetURLs []string) (jwt.Keyfunc, error) {
	opts := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}

	m := make(map[string]keyfunc.Options, len(jwkSetURLs))
	for _, url := range jwkSetURLs {
		m[url] = opts
	}

	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get JWK set URLs: %w", err)
	}

	return multi.Keyfunc, nil
}
