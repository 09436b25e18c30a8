package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

// dummyPassword is hashed once per service so that logins against an unknown
// email spend the same bcrypt time as a wrong password.
const dummyPassword = "academy-timing-equaliser"

// AuthService implements registration and login.
type AuthService struct {
	repo       ports.AuthRepository
	tokens     ports.TokenService
	bcryptCost int
	dummyHash  []byte
	log        zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, tokens ports.TokenService, bcryptCost int, log zerolog.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	// Cannot fail: the cost is in range and the input is shorter than 72 bytes.
	dummy, _ := bcrypt.GenerateFromPassword([]byte(dummyPassword), bcryptCost)
	return &AuthService{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		log:        log,
	}
}

// Register creates a new identity and returns a token bound to its email.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return "", nil, err
	}

	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" || in.Password == "" {
		return "", nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", nil, fmt.Errorf("%w: password longer than 72 bytes", domain.ErrInvalidInput)
	}
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(created.Email, nil)
	if err != nil {
		return "", nil, err
	}

	s.log.Info().Int64("user_id", created.ID).Str("role", string(role)).Msg("user registered")
	return token, created.Public(), nil
}

// Login verifies the credential pair. An unknown email and a wrong password
// both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email, nil)
	if err != nil {
		return "", nil, err
	}
	return token, user.Public(), nil
}

// normalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
