package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/eventease/server/internal/auth"
	"github.com/rs/zerolog"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)

// User is an account row. Role is either auth.RoleAdmin or auth.RoleUser;
// the single admin is seeded by the bootstrap step, never by signup.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type CreateParams struct {
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdateProfile(ctx context.Context, id int64, username, email string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

// Signup creates a regular user account. Duplicate emails are rejected
// before the insert; the unique index on users.email backs this up.
func (s *Service) Signup(ctx context.Context, username, email, password string) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return User{}, fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return User{}, ErrEmailTaken
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("check existing email: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	user, err := s.repo.Create(ctx, CreateParams{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleUser,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("username", user.Username).Int64("user_id", user.ID).Msg("user signed up")
	return user, nil
}

// Authenticate verifies the password for the account with the given email.
// Lookup misses and hash mismatches both map to ErrInvalidCredentials so the
// response does not reveal which one failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes username/email, and the password only when a new
// one was submitted; a blank password keeps the stored hash.
func (s *Service) UpdateProfile(ctx context.Context, id int64, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return fmt.Errorf("%w: username and email are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if email != current.Email {
		other, err := s.repo.GetByEmail(ctx, email)
		if err == nil && other.ID != id {
			return ErrEmailTaken
		}
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("check existing email: %w", err)
		}
	}

	if err := s.repo.UpdateProfile(ctx, id, username, email); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
	}

	s.logger.Info().Int64("user_id", id).Msg("profile updated")
	return nil
}
