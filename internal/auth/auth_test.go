package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finwise/internal/core"
	"finwise/internal/storage"
)

type fakeStore struct {
	users     map[string]core.User
	nextID    int64
	sessionID int64
	token     string
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]core.User), nextID: 1}
}

func (f *fakeStore) CreateUser(_ context.Context, email, hash string) (core.User, error) {
	u := core.User{ID: f.nextID, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	f.nextID++
	f.users[email] = u
	return u, nil
}

func (f *fakeStore) UserByEmail(_ context.Context, email string) (core.User, error) {
	u, ok := f.users[email]
	if !ok {
		return core.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) UserByID(_ context.Context, id int64) (core.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, storage.ErrUserNotFound
}

func (f *fakeStore) UserExists(_ context.Context, email string) (bool, error) {
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, userID int64, hash string) error {
	for email, u := range f.users {
		if u.ID == userID {
			u.PasswordHash = hash
			f.users[email] = u
			return nil
		}
	}
	return storage.ErrUserNotFound
}

func (f *fakeStore) SaveSession(_ context.Context, userID int64, token string) error {
	f.sessionID = userID
	f.token = token
	return nil
}

func (f *fakeStore) CurrentUserID(_ context.Context) (int64, error) { return f.sessionID, nil }

func (f *fakeStore) ClearSession(_ context.Context) error {
	f.sessionID = 0
	f.token = ""
	return nil
}

// Low cost keeps the tests fast; production uses DefaultBcryptCost.
const testCost = bcrypt.MinCost

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, testCost)

	user, err := svc.Register(ctx, "me@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.PasswordHash, "password must be stored hashed")

	got, token, err := svc.Login(ctx, "me@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, store.sessionID, "login must persist the session")
}

func TestRegisterRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeStore(), testCost)

	_, err := svc.Register(ctx, "not-an-email", "secret123")
	assert.ErrorIs(t, err, core.ErrInvalidEmail)

	_, err = svc.Register(ctx, "me@example.com", "short")
	assert.ErrorIs(t, err, core.ErrShortPassword)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeStore(), testCost)

	_, err := svc.Register(ctx, "me@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "me@example.com", "another456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeStore(), testCost)

	_, err := svc.Register(ctx, "me@example.com", "secret123")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "me@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email must look like a bad password")
}

func TestLogoutClearsSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, testCost)

	_, err := svc.Register(ctx, "me@example.com", "secret123")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "me@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))
	id, err := svc.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, testCost)

	user, err := svc.Register(ctx, "me@example.com", "secret123")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong", "newsecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, user.ID, "secret123", "tiny")
	assert.ErrorIs(t, err, core.ErrShortPassword)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "secret123", "newsecret"))

	_, _, err = svc.Login(ctx, "me@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "me@example.com", "newsecret")
	assert.NoError(t, err)
}
