package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/identity"

	"go.uber.org/zap"
)

type fakeSessions struct {
	user  *domain.SessionUser
	err   error
	delay time.Duration
}

func (f *fakeSessions) GetUser(ctx context.Context) (*domain.SessionUser, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.user, f.err
}

func (f *fakeSessions) GetSession(ctx context.Context) (*domain.Session, error) {
	u, err := f.GetUser(ctx)
	if err != nil || u == nil {
		return nil, err
	}
	return &domain.Session{AccessToken: "tok", User: *u}, nil
}

func TestResolve_User(t *testing.T) {
	r := identity.NewResolver(&fakeSessions{user: &domain.SessionUser{ID: "user-1", Email: "a@b.co"}}, time.Second, zap.NewNop())

	id := r.Resolve(context.Background())
	if !id.Authenticated() {
		t.Fatal("expected authenticated identity")
	}
	if id.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", id.UserID)
	}
}

func TestResolve_FailSoft(t *testing.T) {
	tests := []struct {
		name     string
		sessions *fakeSessions
	}{
		{"error", &fakeSessions{err: errors.New("auth down")}},
		{"no user", &fakeSessions{}},
		{"user without id", &fakeSessions{user: &domain.SessionUser{Email: "x@y.z"}}},
		{"slow provider", &fakeSessions{user: &domain.SessionUser{ID: "u"}, delay: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := identity.NewResolver(tt.sessions, 20*time.Millisecond, zap.NewNop())
			if id := r.Resolve(context.Background()); id.Authenticated() {
				t.Errorf("expected unauthenticated, got %+v", id)
			}
		})
	}
}

func TestResolve_NilResolver(t *testing.T) {
	var r *identity.Resolver
	if r.Resolve(context.Background()).Authenticated() {
		t.Fatal("expected unauthenticated")
	}
	if r.ResolveSession(context.Background()) != nil {
		t.Fatal("expected no session")
	}
}

func TestResolveSession(t *testing.T) {
	r := identity.NewResolver(&fakeSessions{user: &domain.SessionUser{ID: "user-9"}}, time.Second, zap.NewNop())

	s := r.ResolveSession(context.Background())
	if s == nil || s.User.ID != "user-9" {
		t.Fatalf("expected session for user-9, got %+v", s)
	}
}

func TestAccessTokenContext(t *testing.T) {
	ctx := identity.WithAccessToken(context.Background(), "abc")
	if identity.AccessToken(ctx) != "abc" {
		t.Error("expected token round trip")
	}
	if identity.AccessToken(context.Background()) != "" {
		t.Error("expected empty token")
	}
}
