package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/replydesk/internal/metrics"
	"github.com/isdelr/replydesk/internal/models"
	"github.com/isdelr/replydesk/internal/store"
	"github.com/rs/zerolog/log"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hashed string) bool
}

// TokenIssuer mints bearer tokens for a user ID.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Signup(ctx context.Context, name, email, password string) (models.User, string, error)
	Login(ctx context.Context, email, password string) (models.User, string, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// UserService provides signup, login and account lookup.
type UserService struct {
	store  store.Store
	hasher PasswordHasher
	tokens TokenIssuer
}

// NewUserService creates a new UserService.
func NewUserService(st store.Store, hasher PasswordHasher, tokens TokenIssuer) *UserService {
	return &UserService{store: st, hasher: hasher, tokens: tokens}
}

// Signup registers a new account and returns it with a fresh token. An email
// that is already registered, in any letter case, yields ErrEmailTaken and
// leaves the store untouched.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (models.User, string, error) {
	name = strings.TrimSpace(name)
	email = store.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return models.User{}, "", fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}

	_, err := s.store.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		metrics.ObserveAuth("signup", "duplicate")
		return models.User{}, "", ErrEmailTaken
	case !errors.Is(err, store.ErrNotFound):
		return models.User{}, "", fmt.Errorf("failed to look up email: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user := models.User{Name: name, Email: email, PasswordHash: hashed}
	if err := s.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			// Lost a race with a concurrent signup for the same email.
			metrics.ObserveAuth("signup", "duplicate")
			return models.User{}, "", ErrEmailTaken
		}
		return models.User{}, "", err
	}

	// Re-read to pick up the generated ID and timestamps.
	created, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to load created user: %w", err)
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return models.User{}, "", err
	}

	metrics.ObserveAuth("signup", "ok")
	log.Info().Str("user_id", created.ID).Msg("User signed up")

	created.PasswordHash = ""
	return created, token, nil
}

// Login verifies credentials and returns the user with a fresh token. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.ObserveAuth("login", "rejected")
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		metrics.ObserveAuth("login", "rejected")
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return models.User{}, "", err
	}

	metrics.ObserveAuth("login", "ok")
	user.PasswordHash = ""
	return user, token, nil
}

// GetUserByID retrieves a single user by their ID, without the password hash.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}
