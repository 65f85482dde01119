package userauth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunUserStore persists users through bun. It satisfies UserStore and
// keeps the full repository surface available for callers that need
// transactions or criteria queries.
type BunUserStore struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ UserStore = (*BunUserStore)(nil)

// NewBunUserStore builds the bun-backed user store.
func NewBunUserStore(db *bun.DB) *BunUserStore {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string { return "email" },
	})

	return &BunUserStore{
		Repository: repo,
		db:         db,
	}
}

// FindByEmail looks a user up by normalized email.
func (s *BunUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}

	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound.Clone().WithMetadata(map[string]any{
				"email": email,
			})
		}
		return nil, err
	}

	return record, nil
}

// FindByID looks a user up by id.
func (s *BunUserStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record, err := s.Repository.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound.Clone().WithMetadata(map[string]any{
				"user_id": id.String(),
			})
		}
		return nil, err
	}
	return record, nil
}

// Create inserts a new user after filling defaults.
func (s *BunUserStore) Create(ctx context.Context, user *User) (*User, error) {
	prepareUserDefaults(user)
	return s.Repository.Create(ctx, user)
}

// Update persists the full user record by id. It writes an explicit
// column list because ORM updates silently skip zero-valued fields,
// and flags like is_active and first_login must be able to reach
// false.
func (s *BunUserStore) Update(ctx context.Context, user *User) (*User, error) {
	if user == nil || user.ID == uuid.Nil {
		return nil, ErrUserNotFound.Clone().WithMetadata(map[string]any{
			"reason": "update requires a persisted user id",
		})
	}

	now := time.Now()
	user.UpdatedAt = &now

	res, err := s.db.NewUpdate().
		Model(user).
		Column(
			"email",
			"first_name",
			"last_name",
			"password_hash",
			"roles",
			"is_active",
			"first_login",
			"last_password_change",
			"updated_at",
		).
		Where("?TableAlias.id = ?", user.ID).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrUserNotFound.Clone().WithMetadata(map[string]any{
			"user_id": user.ID.String(),
		})
	}

	return s.FindByID(ctx, user.ID)
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if len(record.Roles) == 0 {
		record.Roles = []string{RoleUser}
	}

	if record.LastPasswordChange.IsZero() {
		record.LastPasswordChange = time.Now().UTC()
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
