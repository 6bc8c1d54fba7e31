package handler

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/boddenberg/mint-dashboard-bfa/internal/identity"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BearerTokenMiddleware moves the Authorization bearer token into the
// request context. A missing header is allowed: the request proceeds
// unauthenticated. A malformed header is rejected.
func BearerTokenMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			ctx := identity.WithAccessToken(r.Context(), strings.TrimSpace(parts[1]))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit configures the per-client limiter. A zero RPS disables it.
type RateLimit struct {
	RPS   float64
	Burst int
}

const visitorIdle = 3 * time.Minute

// RateLimitMiddleware limits each client address to RPS requests per
// second with the given burst. Idle clients are forgotten after a few
// minutes.
func RateLimitMiddleware(cfg RateLimit, logger *zap.Logger) func(http.Handler) http.Handler {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	visitors := gocache.New(visitorIdle, time.Minute)

	limiterFor := func(addr string) *rate.Limiter {
		if v, ok := visitors.Get(addr); ok {
			visitors.SetDefault(addr, v)
			return v.(*rate.Limiter)
		}
		l := rate.NewLimiter(rate.Limit(cfg.RPS), burst)
		if err := visitors.Add(addr, l, gocache.DefaultExpiration); err != nil {
			// lost a race with another request from the same client
			if v, ok := visitors.Get(addr); ok {
				return v.(*rate.Limiter)
			}
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)
			if !limiterFor(addr).Allow() {
				logger.Warn("rate limit exceeded",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", addr),
				)
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr strips the port from RemoteAddr, which RealIP has already
// rewritten from X-Forwarded-For / X-Real-IP.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
