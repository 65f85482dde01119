package userauth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// SignupMessage carries the fields required to register an account.
type SignupMessage struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// UseHashid derives a deterministic user id from the email instead
	// of a random one.
	UseHashid bool `json:"-"`
}

// AccountResult is what account operations hand back. Warning carries a
// non-fatal delivery failure, the operation itself succeeded.
type AccountResult struct {
	User          *User
	Notifications []Notification
	Warning       error
}

// LoginResult bundles the authenticated user with the freshly minted
// credentials.
type LoginResult struct {
	User         *User  `json:"user"`
	MainToken    string `json:"main_token"`
	SessionToken string `json:"session_token"`
}

// Accounts implements the account lifecycle: signup, activation, login,
// session refresh, and the password flows. All token invalidation goes
// through the password epoch, there is no revocation list.
type Accounts struct {
	store    UserStore
	notifier Notifier
	codec    TokenCodec
	cfg      Config
	logger   Logger
	provider LoggerProvider
	activity ActivitySink
	now      func() time.Time
}

// NewAccounts wires an account manager from its collaborators. The
// notifier may be nil, a no-op one is substituted.
func NewAccounts(store UserStore, notifier Notifier, cfg Config) *Accounts {
	provider, logger := ResolveLogger("userauth.accounts", nil, nil)

	a := &Accounts{
		store:    store,
		notifier: normalizeNotifier(notifier),
		cfg:      cfg,
		provider: provider,
		logger:   logger,
		activity: noopActivitySink{},
		now:      time.Now,
	}

	a.codec = NewTokenCodec(
		[]byte(cfg.GetSigningKey()),
		cfg.GetSessionTokenTTL(),
		cfg.GetIssuer(),
		logger,
	)

	return a
}

func (a *Accounts) WithLogger(logger Logger) *Accounts {
	a.provider, a.logger = ResolveLogger("userauth.accounts", a.provider, logger)
	return a
}

// WithLoggerProvider overrides the logger provider used by the manager.
func (a *Accounts) WithLoggerProvider(provider LoggerProvider) *Accounts {
	a.provider, a.logger = ResolveLogger("userauth.accounts", provider, a.logger)
	return a
}

// WithActivitySink configures an ActivitySink for emitting account events.
func (a *Accounts) WithActivitySink(sink ActivitySink) *Accounts {
	a.activity = normalizeActivitySink(sink)
	return a
}

// WithClock overrides the clock, tests use this to pin the epoch.
func (a *Accounts) WithClock(clock func() time.Time) *Accounts {
	if clock != nil {
		a.now = clock
	}
	return a
}

// WithTokenCodec swaps the token codec, e.g. to share one instance with
// the middleware.
func (a *Accounts) WithTokenCodec(codec TokenCodec) *Accounts {
	if codec != nil {
		a.codec = codec
	}
	return a
}

// Codec exposes the token codec used by this manager.
func (a *Accounts) Codec() TokenCodec {
	return a.codec
}

// Signup registers a new account. The user starts inactive with the
// default role set and a password epoch pinned to now. An activation
// email failure does not undo the registration, it comes back as
// Warning.
func (a *Accounts) Signup(ctx context.Context, msg SignupMessage) (*AccountResult, error) {
	email := NormalizeEmail(msg.Email)
	if email == "" {
		return nil, errors.New("signup requires an email", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	if existing, err := a.store.FindByEmail(ctx, email); err != nil {
		if !errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.CategoryInternal, "signup email lookup failed")
		}
	} else if existing != nil {
		a.logger.Info("signup rejected, email taken", "email", email)
		return nil, ErrDuplicateEmail.Clone().WithMetadata(map[string]any{
			"email": email,
		})
	}

	hash, err := HashPassword(strings.TrimSpace(msg.Password))
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, errors.Wrap(richErr, errors.CategoryValidation, "invalid password provided")
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	now := a.now()
	user := &User{
		Email:              email,
		FirstName:          strings.TrimSpace(msg.FirstName),
		LastName:           strings.TrimSpace(msg.LastName),
		PasswordHash:       hash,
		Roles:              []string{RoleUser},
		IsActive:           false,
		FirstLogin:         true,
		LastPasswordChange: now.UTC(),
	}

	if msg.UseHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			user.ID = id
		}
	}

	created, err := a.store.Create(ctx, user)
	if err != nil {
		if IsDuplicateEmailError(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not create user")
	}

	a.emitEvent(ctx, ActivityEventSignup, ActorRef{ID: created.ID.String(), Type: "user"}, created.ID.String(), map[string]any{
		"email": created.Email,
	})

	result := &AccountResult{User: created}

	link := activationLink(a.cfg.GetActivationURL(), created.ID.String())
	if err := a.notifier.SendActivationEmail(ctx, created.Email, link); err != nil {
		a.logger.Warn("activation email delivery failed", "error", err, "email", created.Email)
		result.Warning = notifierWarning(err, NotificationActivation)
	} else {
		result.Notifications = append(result.Notifications, Notification{
			Kind: NotificationActivation,
			To:   created.Email,
			URL:  link,
		})
	}

	return result, nil
}

// Activate flips a pending account to active and sends the welcome
// email. Activating an already active account succeeds without side
// effects.
func (a *Accounts) Activate(ctx context.Context, userID uuid.UUID) (*AccountResult, error) {
	user, err := a.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !transitionToActive(user) {
		a.logger.Debug("activation skipped, account already active", "user_id", user.ID)
		return &AccountResult{User: user}, nil
	}

	updated, err := a.store.Update(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not activate user")
	}

	a.emitEvent(ctx, ActivityEventActivated, ActorRef{ID: updated.ID.String(), Type: "user"}, updated.ID.String(), nil)

	result := &AccountResult{User: updated}

	if err := a.notifier.SendWelcomeEmail(ctx, updated.Email); err != nil {
		a.logger.Warn("welcome email delivery failed", "error", err, "email", updated.Email)
		result.Warning = notifierWarning(err, NotificationWelcome)
	} else {
		result.Notifications = append(result.Notifications, Notification{
			Kind: NotificationWelcome,
			To:   updated.Email,
		})
	}

	return result, nil
}

// Login authenticates credentials and mints the token pair. The main
// token is bound to the user's current password epoch, the session
// token is derived from it immediately.
func (a *Accounts) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)

	user, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			a.emitEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"email": email,
				"error": "user not found",
			})
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "login lookup failed")
	}

	if !user.IsActive {
		a.emitEvent(ctx, ActivityEventLoginFailure, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"error": "account inactive",
		})
		return nil, ErrAccountInactive
	}

	if err := ComparePasswordAndHash(strings.TrimSpace(password), user.PasswordHash); err != nil {
		a.logger.Info("login rejected, bad credentials", "user_id", user.ID)
		a.emitEvent(ctx, ActivityEventLoginFailure, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"error": "invalid credentials",
		})
		return nil, ErrInvalidCredentials
	}

	mainToken, err := a.codec.MintMainToken(user.ID.String(), user.Roles, nil, user.LastPasswordChange)
	if err != nil {
		return nil, err
	}

	sessionToken, err := a.codec.DeriveSessionToken(mainToken, user.LastPasswordChange)
	if err != nil {
		return nil, err
	}

	if user.FirstLogin {
		user.FirstLogin = false
		if updated, err := a.store.Update(ctx, user); err != nil {
			// not fatal, the flag gets cleared on the next login
			a.logger.Warn("could not clear first login flag", "error", err, "user_id", user.ID)
		} else {
			user = updated
		}
	}

	a.emitEvent(ctx, ActivityEventLoginSuccess, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), nil)

	return &LoginResult{
		User:         user,
		MainToken:    mainToken,
		SessionToken: sessionToken,
	}, nil
}

// RefreshSession exchanges a valid main token for a fresh session
// token. A password change since the main token was minted makes it
// stale and refresh fails.
func (a *Accounts) RefreshSession(ctx context.Context, mainToken string) (string, error) {
	claims, err := a.codec.VerifyMainToken(mainToken)
	if err != nil {
		return "", err
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return "", ErrTokenInvalid.Clone().WithMetadata(map[string]any{
			"reason": "subject is not a valid user id",
		})
	}

	user, err := a.findByID(ctx, userID)
	if err != nil {
		return "", err
	}

	sessionToken, err := a.codec.DeriveSessionToken(mainToken, user.LastPasswordChange)
	if err != nil {
		return "", err
	}

	a.emitEvent(ctx, ActivityEventSessionRefreshed, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), nil)

	return sessionToken, nil
}

// ChangePassword stores the new hash and moves the password epoch
// forward. Every token minted before the change becomes stale at once.
// Callers that hold a plaintext credential should check it first with
// VerifyPassword.
func (a *Accounts) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) (*User, error) {
	user, err := a.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return a.setPassword(ctx, user, newPassword)
}

// VerifyPassword checks a plaintext password against the stored hash.
func (a *Accounts) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := a.findByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := ComparePasswordAndHash(strings.TrimSpace(password), user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	return nil
}

// RequestPasswordReset mints a recovery session token at the user's
// current epoch and mails the recovery link. The token shares the
// session TTL, and a later password change invalidates it like any
// other token.
func (a *Accounts) RequestPasswordReset(ctx context.Context, email string) (*AccountResult, error) {
	email = NormalizeEmail(email)

	user, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "password reset lookup failed")
	}

	mainToken, err := a.codec.MintMainToken(user.ID.String(), user.Roles, nil, user.LastPasswordChange)
	if err != nil {
		return nil, err
	}

	sessionToken, err := a.codec.DeriveSessionToken(mainToken, user.LastPasswordChange)
	if err != nil {
		return nil, err
	}

	a.emitEvent(ctx, ActivityEventRecoveryRequested, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), nil)

	result := &AccountResult{User: user}

	link := recoveryLink(a.cfg.GetRecoveryURL(), sessionToken)
	if err := a.notifier.SendRecoveryEmail(ctx, user.Email, link); err != nil {
		a.logger.Warn("recovery email delivery failed", "error", err, "email", user.Email)
		result.Warning = notifierWarning(err, NotificationRecovery)
	} else {
		result.Notifications = append(result.Notifications, Notification{
			Kind: NotificationRecovery,
			To:   user.Email,
			URL:  link,
		})
	}

	return result, nil
}

// CompletePasswordReset redeems a recovery session token for a new
// password. The token must still match the user's live epoch, so a
// reset token can be used at most once.
func (a *Accounts) CompletePasswordReset(ctx context.Context, sessionToken, newPassword string) (*User, error) {
	claims, err := a.codec.ParseSessionToken(sessionToken)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrTokenInvalid.Clone().WithMetadata(map[string]any{
			"reason": "subject is not a valid user id",
		})
	}

	user, err := a.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if claims.PasswordEpoch != user.PasswordEpoch() {
		return nil, ErrTokenStale.Clone().WithMetadata(map[string]any{
			"token_epoch":   claims.PasswordEpoch,
			"current_epoch": user.PasswordEpoch(),
		})
	}

	return a.setPassword(ctx, user, newPassword)
}

func (a *Accounts) setPassword(ctx context.Context, user *User, newPassword string) (*User, error) {
	hash, err := HashPassword(strings.TrimSpace(newPassword))
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, errors.Wrap(richErr, errors.CategoryValidation, "invalid password provided")
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	// The epoch must strictly advance even when the wall clock has the
	// same millisecond as the previous change.
	epoch := a.now().UTC()
	if !epoch.After(user.LastPasswordChange) {
		epoch = user.LastPasswordChange.Add(time.Millisecond)
	}

	user.PasswordHash = hash
	user.LastPasswordChange = epoch

	updated, err := a.store.Update(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not persist password change")
	}

	a.emitEvent(ctx, ActivityEventPasswordChanged, ActorRef{ID: updated.ID.String(), Type: "user"}, updated.ID.String(), nil)

	return updated, nil
}

func (a *Accounts) findByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := a.store.FindByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound.Clone().WithMetadata(map[string]any{
				"user_id": userID.String(),
			})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "user lookup failed")
	}
	return user, nil
}

func (a *Accounts) emitEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: a.now(),
	}
	if err := a.activity.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink rejected event", "error", err, "event_type", eventType)
	}
}

func notifierWarning(err error, kind NotificationKind) error {
	return errors.Wrap(err, ErrNotifier.Category, ErrNotifier.Message).
		WithTextCode(ErrNotifier.TextCode).
		WithMetadata(map[string]any{
			"notification": string(kind),
		})
}
