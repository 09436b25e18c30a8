package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// MinSigningKeyLength is the shortest HS256 key accepted, in bytes.
const MinSigningKeyLength = 32

var ErrWeakSigningKey = fmt.Errorf("signing key must be at least %d bytes", MinSigningKeyLength)

// reservedClaims cannot be set through the extra claims of Issue.
var reservedClaims = map[string]struct{}{
	"sub": {}, "iat": {}, "exp": {}, "nbf": {}, "iss": {}, "aud": {}, "jti": {},
}

// TokenConfig configures a TokenService. Now defaults to time.Now.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Now    func() time.Time
}

// TokenService issues and verifies HS256 bearer tokens. Timestamps are epoch
// seconds. It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < MinSigningKeyLength {
		return nil, ErrWeakSigningKey
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token ttl must be greater than zero")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	key := make([]byte, len(cfg.Secret))
	copy(key, cfg.Secret)

	return &TokenService{
		key:    key,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    now,
		parser: jwt.NewParser(opts...),
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for subject. Extra claims are copied into the payload
// but can never replace a registered claim.
func (s *TokenService) Issue(subject string, extra map[string]any) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject is required")
	}

	now := s.now()
	claims := jwt.MapClaims{}
	for k, v := range extra {
		if _, reserved := reservedClaims[k]; reserved {
			continue
		}
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(s.ttl))
	claims["jti"] = uuid.NewString()
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ExtractSubject verifies token and returns its subject. It fails with
// domain.ErrTokenExpired for an expired token and domain.ErrInvalidToken for
// anything else.
func (s *TokenService) ExtractSubject(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}
		return "", domain.ErrInvalidToken
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}

// Validate reports whether token is authentic, unexpired and issued to
// expectedSubject. It never returns an error.
func (s *TokenService) Validate(token, expectedSubject string) bool {
	if expectedSubject == "" {
		return false
	}
	subject, err := s.ExtractSubject(token)
	return err == nil && subject == expectedSubject
}
