// Package auth issues and verifies bearer tokens and guards mutating operations with them.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the validity window applied when none is configured.
const DefaultTokenTTL = time.Hour

var (
	// ErrUnauthenticated indicates that no token was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidToken indicates a malformed, forged or expired token.
	ErrInvalidToken = errors.New("invalid token")
)

// Subject identifies the account a token is issued for.
type Subject struct {
	UserID   int64
	Username string
}

// Claims is the payload carried by every issued token.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens with a process-wide key.
// Tokens cannot be revoked before they expire.
type TokenService struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// WithIssuer sets the iss claim written on issue and required on verify.
func WithIssuer(issuer string) Option {
	return func(s *TokenService) {
		s.issuer = issuer
	}
}

func NewTokenService(secret string, ttl time.Duration, opts ...Option) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenService{
		key: []byte(secret),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL reports the validity window of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a fresh token for subject, valid for the configured TTL from now.
func (s *TokenService) Issue(subject Subject) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   subject.UserID,
		Username: subject.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(subject.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its claims.
// An empty token yields ErrUnauthenticated, every other failure ErrInvalidToken.
func (s *TokenService) Verify(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, opts...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}
