package userauth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RoleManager replaces a user's role set against a fixed allow-list.
type RoleManager struct {
	store    UserStore
	allowed  []string
	logger   Logger
	provider LoggerProvider
	activity ActivitySink
}

// NewRoleManager builds a role manager. An empty allow-list falls back
// to the default roles.
func NewRoleManager(store UserStore, allowed []string) *RoleManager {
	if len(allowed) == 0 {
		allowed = DefaultAllowedRoles()
	}

	provider, logger := ResolveLogger("userauth.roles", nil, nil)

	return &RoleManager{
		store:    store,
		allowed:  allowed,
		provider: provider,
		logger:   logger,
		activity: noopActivitySink{},
	}
}

func (r *RoleManager) WithLogger(logger Logger) *RoleManager {
	r.provider, r.logger = ResolveLogger("userauth.roles", r.provider, logger)
	return r
}

// WithLoggerProvider overrides the logger provider used by the role manager.
func (r *RoleManager) WithLoggerProvider(provider LoggerProvider) *RoleManager {
	r.provider, r.logger = ResolveLogger("userauth.roles", provider, r.logger)
	return r
}

// WithActivitySink configures an ActivitySink for role change events.
func (r *RoleManager) WithActivitySink(sink ActivitySink) *RoleManager {
	r.activity = normalizeActivitySink(sink)
	return r
}

// AllowedRoles returns a copy of the allow-list.
func (r *RoleManager) AllowedRoles() []string {
	return append([]string(nil), r.allowed...)
}

// SetRoles replaces the user's role set atomically. Duplicates are
// dropped first, then every remaining role must appear in the
// allow-list or the whole request is rejected with the full list of
// offenders.
func (r *RoleManager) SetRoles(ctx context.Context, userID uuid.UUID, roles []string) (*User, error) {
	deduped := dedupeRoles(roles)
	if len(deduped) == 0 {
		return nil, ErrInvalidRoles.Clone().WithMetadata(map[string]any{
			"reason": "role set is empty",
		})
	}

	invalid := r.invalidRoles(deduped)
	if len(invalid) > 0 {
		r.logger.Info("role update rejected", "user_id", userID, "invalid_roles", invalid)
		return nil, ErrInvalidRoles.Clone().WithMetadata(map[string]any{
			"invalid_roles": invalid,
		})
	}

	user, err := r.store.FindByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound.Clone().WithMetadata(map[string]any{
				"user_id": userID.String(),
			})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "role update lookup failed")
	}

	previous := user.Roles
	user.Roles = deduped

	updated, err := r.store.Update(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not persist role update")
	}

	event := ActivityEvent{
		EventType: ActivityEventRolesChanged,
		Actor:     ActorRef{Type: "system"},
		UserID:    updated.ID.String(),
		Metadata: map[string]any{
			"previous_roles": previous,
			"roles":          updated.Roles,
		},
	}
	if err := r.activity.Record(ctx, event); err != nil {
		r.logger.Warn("activity sink rejected event", "error", err, "event_type", event.EventType)
	}

	return updated, nil
}

// dedupeRoles removes duplicates keeping first-seen order.
func dedupeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}

func (r *RoleManager) invalidRoles(roles []string) []string {
	allowed := make(map[string]struct{}, len(r.allowed))
	for _, role := range r.allowed {
		allowed[role] = struct{}{}
	}

	var invalid []string
	for _, role := range roles {
		if _, ok := allowed[role]; !ok {
			invalid = append(invalid, role)
		}
	}
	return invalid
}
