package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/models/dto"
	"github.com/hongminglow/storefront-api/internal/storage"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

// Signer issues signed bearer tokens. *TokenManager satisfies it.
type Signer interface {
	Generate(userID int64, role models.Role) (string, error)
}

// IssuedToken is what a successful login hands back to the caller.
type IssuedToken struct {
	Token  string
	UserID int64
}

// Service implements registration, login and token rotation.
type Service struct {
	users  storage.UserStore
	tokens storage.TokenStore
	signer Signer
	ttl    time.Duration
	now    func() time.Time
}

// NewService wires the service. ttl is the sliding lifetime written to the token record
// on every login.
func NewService(users storage.UserStore, tokens storage.TokenStore, signer Signer, ttl time.Duration) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		signer: signer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Register creates a USER account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (models.User, error) {
	if req.Password != req.ConfirmPassword {
		return models.User{}, ErrPasswordMismatch
	}
	email := strings.TrimSpace(req.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.users.CreateUser(ctx, models.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Login verifies the credentials and issues or rotates the user's bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (IssuedToken, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Burn the same bcrypt time as a real comparison.
			ValidateCredentials(placeholderHash(), password)
			return IssuedToken{}, ErrInvalidCredentials
		}
		return IssuedToken{}, fmt.Errorf("lookup user: %w", err)
	}
	if !ValidateCredentials(user.PasswordHash, password) {
		return IssuedToken{}, ErrInvalidCredentials
	}
	return s.IssueOrRotate(ctx, user.ID, user.Role, models.TokenBearer)
}

// IssueOrRotate signs a fresh token for the user and records it with a sliding expiry.
// Repeated calls for the same user and type keep a single token row.
func (s *Service) IssueOrRotate(ctx context.Context, userID int64, role models.Role, typ models.TokenType) (IssuedToken, error) {
	signed, err := s.signer.Generate(userID, role)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	now := s.now()
	_, err = s.tokens.UpsertToken(ctx, models.Token{
		UserID:     userID,
		Type:       typ,
		Value:      signed,
		LastUsedAt: now,
		ExpiresAt:  now.Add(s.ttl),
	})
	if err != nil {
		return IssuedToken{}, fmt.Errorf("persist token: %w", err)
	}
	return IssuedToken{Token: signed, UserID: userID}, nil
}

var (
	placeholderOnce sync.Once
	placeholder     string
)

func placeholderHash() string {
	placeholderOnce.Do(func() {
		placeholder, _ = HashPassword("placeholder-password")
	})
	return placeholder
}
