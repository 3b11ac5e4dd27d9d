package auth

import (
	"context"
	"strings"
)

type contextKey string

const (
	tokenKey  contextKey = "authToken"
	claimsKey contextKey = "authClaims"
)

// Verifier validates a raw token.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// WithToken stores the raw authorization metadata of a request in ctx.
func WithToken(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, tokenKey, raw)
}

// TokenFromContext returns the raw authorization metadata stored by WithToken.
func TokenFromContext(ctx context.Context) string {
	if raw, ok := ctx.Value(tokenKey).(string); ok {
		return raw
	}
	return ""
}

// ClaimsFromContext returns the claims attached by Gate.Authorize, if any.
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsKey).(*Claims); ok {
		return claims
	}
	return nil
}

// ExtractToken turns an Authorization value into a token. The whole value is the
// token; a leading "Bearer " (any case) is tolerated and removed.
func ExtractToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > len("bearer ") && strings.EqualFold(raw[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(raw[len("bearer "):])
	}
	return raw
}

// Gate authorizes mutating operations from the token carried in the request context.
type Gate struct {
	tokens Verifier
}

func NewGate(tokens Verifier) *Gate {
	return &Gate{tokens: tokens}
}

// Authorize verifies the request token. On success the returned context carries
// the claims for ClaimsFromContext.
func (g *Gate) Authorize(ctx context.Context) (context.Context, error) {
	claims, err := g.tokens.Verify(ExtractToken(TokenFromContext(ctx)))
	if err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, claimsKey, claims), nil
}
