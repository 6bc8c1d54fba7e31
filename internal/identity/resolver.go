// Package identity resolves the current user for the aggregation layer.
package identity

import (
	"context"
	"time"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("identity")

// Resolver turns the request's session into an Identity. It never fails:
// anything short of a user with an id resolves to domain.Unauthenticated.
type Resolver struct {
	sessions port.SessionProvider
	timeout  time.Duration
	logger   *zap.Logger
}

// NewResolver creates a resolver. timeout bounds every session lookup.
func NewResolver(sessions port.SessionProvider, timeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{sessions: sessions, timeout: timeout, logger: logger}
}

// Resolve returns the current identity, or domain.Unauthenticated.
func (r *Resolver) Resolve(ctx context.Context) domain.Identity {
	if r == nil || r.sessions == nil {
		return domain.Unauthenticated
	}
	ctx, span := tracer.Start(ctx, "Resolver.Resolve")
	defer span.End()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	user, err := r.sessions.GetUser(ctx)
	if err != nil {
		r.logger.Debug("identity: session lookup failed", zap.Error(err))
		return domain.Unauthenticated
	}
	if user == nil || user.ID == "" {
		return domain.Unauthenticated
	}
	return domain.Identity{UserID: user.ID, User: user}
}

// ResolveSession returns the current session, or nil when there is none.
func (r *Resolver) ResolveSession(ctx context.Context) *domain.Session {
	if r == nil || r.sessions == nil {
		return nil
	}
	ctx, span := tracer.Start(ctx, "Resolver.ResolveSession")
	defer span.End()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	s, err := r.sessions.GetSession(ctx)
	if err != nil {
		r.logger.Debug("identity: session lookup failed", zap.Error(err))
		return nil
	}
	if s == nil || s.User.ID == "" {
		return nil
	}
	return s
}
