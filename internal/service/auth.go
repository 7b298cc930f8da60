package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"channelapi/internal/auth"
	"channelapi/internal/model"
	"channelapi/internal/repository"
)

const minPasswordLen = 8

// RegisterInput is the payload accepted when creating an account.
type RegisterInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AuthResult is returned after a successful register or login.
type AuthResult struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// AuthService handles accounts and token issuance.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context, userID string) (*model.User, error)
}

type authService struct {
	users      repository.UserRepository
	issuer     *auth.Issuer
	bcryptCost int
	now        func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UserRepository, issuer *auth.Issuer, bcryptCost int) AuthService {
	return &authService{users: users, issuer: issuer, bcryptCost: bcryptCost, now: time.Now}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: lookup user: %v", ErrStorageFailure, err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: save user: %v", ErrStorageFailure, err)
	}
	return s.result(u)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: lookup user: %v", ErrStorageFailure, err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.result(u)
}

func (s *authService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrIDRequired
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("%w: load user: %v", ErrStorageFailure, err)
	}
	return u, nil
}

func (s *authService) result(u *model.User) (*AuthResult, error) {
	token, exp, err := s.issuer.Issue(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(s string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(s))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return email, nil
}
