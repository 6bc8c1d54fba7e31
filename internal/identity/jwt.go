package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the parts of a Supabase access token the dashboard reads.
type Claims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

// JWTProvider verifies Supabase access tokens locally with the project's
// HS256 secret instead of calling the auth service.
type JWTProvider struct {
	secret []byte
	now    func() time.Time
}

// NewJWTProvider creates a provider for the given signing secret.
func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), now: time.Now}
}

// GetUser returns the token's user, nil when no token was sent.
func (p *JWTProvider) GetUser(ctx context.Context) (*domain.SessionUser, error) {
	s, err := p.GetSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	return &s.User, nil
}

// GetSession validates the bearer token and builds a session from its claims.
func (p *JWTProvider) GetSession(ctx context.Context) (*domain.Session, error) {
	raw := AccessToken(ctx)
	if raw == "" {
		return nil, nil
	}

	claims, err := p.parse(raw)
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: err.Error()}
	}
	if claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "token has no subject"}
	}

	s := &domain.Session{
		AccessToken: raw,
		User: domain.SessionUser{
			ID:       claims.Subject,
			Email:    claims.Email,
			Metadata: claims.UserMetadata,
		},
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

func (p *JWTProvider) parse(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
