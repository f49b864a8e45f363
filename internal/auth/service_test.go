package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkpad-app/inkpad/internal/shared"
)

type mockRepository struct {
	users  map[string]*User
	nextID int64

	createError error
	findError   error
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[string]*User), nextID: 1}
}

func (m *mockRepository) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	if m.createError != nil {
		return nil, m.createError
	}
	if _, exists := m.users[email]; exists {
		return nil, shared.ErrEmailTaken
	}
	user := &User{
		ID:           m.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.nextID++
	m.users[email] = user
	return user, nil
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findError != nil {
		return nil, m.findError
	}
	user, ok := m.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (m *mockRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) DeleteByEmail(ctx context.Context, email string) error {
	if _, ok := m.users[email]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, email)
	return nil
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	user, err := svc.Register(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)

	assert.NotEqual(t, "kodylovesyou", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("kodylovesyou")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "kody@example.com", "another-pass")
	require.ErrorIs(t, err, shared.ErrEmailTaken)
}

func TestVerifyLoginSucceeds(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	registered, err := svc.Register(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)

	user, err := svc.VerifyLogin(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestVerifyLoginDoesNotDistinguishFailures(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)

	// Unknown email and wrong password must be indistinguishable.
	_, unknownErr := svc.VerifyLogin(context.Background(), "nobody@example.com", "kodylovesyou")
	_, wrongPassErr := svc.VerifyLogin(context.Background(), "kody@example.com", "wrong-password")

	require.ErrorIs(t, unknownErr, shared.ErrInvalidCredentials)
	require.ErrorIs(t, wrongPassErr, shared.ErrInvalidCredentials)
	assert.Equal(t, unknownErr, wrongPassErr)
}

func TestAuthenticatorDispatchesFormStrategy(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	_, err := svc.Register(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)

	authenticator := NewAuthenticator(StrategyForm, svc)
	user, err := authenticator.Authenticate(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)
	assert.Equal(t, "kody@example.com", user.Email)
}

func TestAuthenticatorUnknownStrategy(t *testing.T) {
	authenticator := NewAuthenticator(StrategyKind(99), NewService(newMockRepository()))

	_, err := authenticator.Authenticate(context.Background(), "a@b.c", "pass")
	require.Error(t, err)
}
