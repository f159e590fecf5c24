// Package auth implements the local email/password check and the single
// persisted device session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"finwise/internal/core"
	"finwise/internal/storage"
)

// DefaultBcryptCost is used when the configured cost is unset or invalid.
const DefaultBcryptCost = 12

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Store is the slice of the ledger store auth needs.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash string) (core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, error)
	UserByID(ctx context.Context, id int64) (core.User, error)
	UserExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	SaveSession(ctx context.Context, userID int64, token string) error
	CurrentUserID(ctx context.Context) (int64, error)
	ClearSession(ctx context.Context) error
}

type Service struct {
	store Store
	cost  int
}

func NewService(store Store, cost int) *Service {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	return &Service{store: store, cost: cost}
}

func (s *Service) Register(ctx context.Context, email, password string) (core.User, error) {
	if err := core.ValidateCredentials(email, password); err != nil {
		return core.User{}, err
	}

	exists, err := s.store.UserExists(ctx, email)
	if err != nil {
		return core.User{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return core.User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, string(hash))
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and, on success, replaces the persisted
// session with a fresh token for this user.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, string, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return core.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return core.User{}, "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.store.SaveSession(ctx, user.ID, token); err != nil {
		return core.User{}, "", fmt.Errorf("save session: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return user, token, nil
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	slog.InfoContext(ctx, "Session cleared")
	return nil
}

// CurrentUserID returns the logged-in user's id, 0 when nobody is logged in.
func (s *Service) CurrentUserID(ctx context.Context) (int64, error) {
	return s.store.CurrentUserID(ctx)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, newPassword string) error {
	if len(newPassword) < 6 {
		return core.ErrShortPassword
	}

	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	slog.InfoContext(ctx, "Password changed", "user_id", userID)
	return nil
}
