package userauth_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/lokk3d/go-userauth"
	"github.com/stretchr/testify/mock"
)

// MockUserStore implements userauth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*userauth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*userauth.User)
	return user, args.Error(1)
}

func (m *MockUserStore) FindByID(ctx context.Context, id uuid.UUID) (*userauth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*userauth.User)
	return user, args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, user *userauth.User) (*userauth.User, error) {
	args := m.Called(ctx, user)
	created, _ := args.Get(0).(*userauth.User)
	return created, args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, user *userauth.User) (*userauth.User, error) {
	args := m.Called(ctx, user)
	updated, _ := args.Get(0).(*userauth.User)
	return updated, args.Error(1)
}

// MockNotifier implements userauth.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendActivationEmail(ctx context.Context, to, activationURL string) error {
	args := m.Called(ctx, to, activationURL)
	return args.Error(0)
}

func (m *MockNotifier) SendWelcomeEmail(ctx context.Context, to string) error {
	args := m.Called(ctx, to)
	return args.Error(0)
}

func (m *MockNotifier) SendRecoveryEmail(ctx context.Context, to, recoveryURL string) error {
	args := m.Called(ctx, to, recoveryURL)
	return args.Error(0)
}

// memoryUserStore is an in-memory UserStore used by flow tests where a
// real persistence round-trip matters more than call assertions.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userauth.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[uuid.UUID]*userauth.User{}}
}

func (s *memoryUserStore) FindByEmail(_ context.Context, email string) (*userauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == userauth.NormalizeEmail(email) {
			return cloneUser(user), nil
		}
	}
	return nil, userauth.ErrUserNotFound
}

func (s *memoryUserStore) FindByID(_ context.Context, id uuid.UUID) (*userauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[id]; ok {
		return cloneUser(user), nil
	}
	return nil, userauth.ErrUserNotFound
}

func (s *memoryUserStore) Create(_ context.Context, user *userauth.User) (*userauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (s *memoryUserStore) Update(_ context.Context, user *userauth.User) (*userauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return nil, userauth.ErrUserNotFound
	}
	s.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func cloneUser(u *userauth.User) *userauth.User {
	copied := *u
	copied.Roles = append([]string(nil), u.Roles...)
	return &copied
}

// capturingSink records activity events for assertions.
type capturingSink struct {
	mu     sync.Mutex
	events []userauth.ActivityEvent
}

func (s *capturingSink) Record(_ context.Context, event userauth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *capturingSink) Events() []userauth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]userauth.ActivityEvent(nil), s.events...)
}

func (s *capturingSink) Has(eventType userauth.ActivityEventType) bool {
	for _, event := range s.Events() {
		if event.EventType == eventType {
			return true
		}
	}
	return false
}

// capturingNotifier records every email so flow tests can pull tokens
// and links out of them.
type capturingNotifier struct {
	mu         sync.Mutex
	Activation []string
	Welcome    []string
	Recovery   []string
}

func (n *capturingNotifier) SendActivationEmail(_ context.Context, _, activationURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Activation = append(n.Activation, activationURL)
	return nil
}

func (n *capturingNotifier) SendWelcomeEmail(_ context.Context, to string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Welcome = append(n.Welcome, to)
	return nil
}

func (n *capturingNotifier) SendRecoveryEmail(_ context.Context, _, recoveryURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Recovery = append(n.Recovery, recoveryURL)
	return nil
}

func testConfig() *userauth.SimpleConfig {
	return &userauth.SimpleConfig{
		SigningKey:    "test-signing-key",
		Issuer:        "userauth.test",
		ActivationURL: "https://api.example.com/user/activate",
		RecoveryURL:   "https://app.example.com/forgot",
	}
}
