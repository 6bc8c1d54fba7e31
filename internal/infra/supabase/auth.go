package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/identity"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/resilience"

	"github.com/golang-jwt/jwt/v5"
)

// ============================================================
// Supabase Auth (implements port.SessionProvider)
// ============================================================

// GetUser asks Supabase Auth who owns the caller's access token.
// No token means no user; a rejected token is ErrUnauthorized.
func (c *Client) GetUser(ctx context.Context) (*domain.SessionUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()

	token := identity.AccessToken(ctx)
	if token == "" {
		return nil, nil
	}

	var user *domain.SessionUser
	err := c.guard.Do(ctx, "supabase/auth", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+token)

		body, err := c.do(req)
		if err != nil {
			return err
		}
		var u domain.SessionUser
		if err := json.Unmarshal(body, &u); err != nil {
			return resilience.Permanent(fmt.Errorf("decode auth user: %w", err))
		}
		user = &u
		return nil
	})
	if err != nil {
		if resilience.IsPermanent(err) {
			return nil, &domain.ErrUnauthorized{Message: err.Error()}
		}
		return nil, err
	}
	return user, nil
}

// GetSession returns the caller's session: the token, its expiry and its user.
func (c *Client) GetSession(ctx context.Context) (*domain.Session, error) {
	user, err := c.GetUser(ctx)
	if err != nil || user == nil {
		return nil, err
	}

	s := &domain.Session{AccessToken: identity.AccessToken(ctx), User: *user}
	// Auth already vouched for the token; only the expiry is read here.
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, &claims); err == nil && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
