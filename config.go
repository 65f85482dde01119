package userauth

import (
	"time"

	"github.com/goliatone/go-errors"
)

// Config holds the account manager options.
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetSessionTokenTTL() time.Duration
	GetAllowedRoles() []string
	GetActivationURL() string
	GetRecoveryURL() string
}

// SimpleConfig is a plain struct implementation of Config, handy for
// wiring from external configuration loaders.
type SimpleConfig struct {
	SigningKey      string
	Issuer          string
	SessionTokenTTL time.Duration
	AllowedRoles    []string
	// ActivationURL is the server endpoint the activation email points
	// at, the user id is appended as a query parameter.
	ActivationURL string
	// RecoveryURL is the client page the recovery email points at, the
	// session token is appended as a query parameter.
	RecoveryURL string
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }
func (c *SimpleConfig) GetIssuer() string     { return c.Issuer }

func (c *SimpleConfig) GetSessionTokenTTL() time.Duration {
	if c.SessionTokenTTL <= 0 {
		return DefaultSessionTokenTTL
	}
	return c.SessionTokenTTL
}

func (c *SimpleConfig) GetAllowedRoles() []string {
	if len(c.AllowedRoles) == 0 {
		return DefaultAllowedRoles()
	}
	return c.AllowedRoles
}

func (c *SimpleConfig) GetActivationURL() string { return c.ActivationURL }
func (c *SimpleConfig) GetRecoveryURL() string   { return c.RecoveryURL }

// Validate checks the config is usable before anything gets minted.
func (c *SimpleConfig) Validate() error {
	if c.SigningKey == "" {
		return errors.New("config requires a signing key", errors.CategoryValidation).
			WithTextCode("CONFIG_MISSING_SIGNING_KEY")
	}
	return nil
}
