package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/observability"
	"github.com/boddenberg/mint-dashboard-bfa/internal/port"
	"github.com/boddenberg/mint-dashboard-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// SessionResolver reports the caller's session, nil when there is none.
type SessionResolver interface {
	ResolveSession(ctx context.Context) *domain.Session
}

// Services bundles what the HTTP surface serves. Nil members leave their
// routes answering 503.
type Services struct {
	Engine      *service.Engine
	Drafts      *service.DraftService
	Preferences *service.PreferenceService
	Sessions    SessionResolver
	// Store is pinged by /healthz.
	Store port.BalanceFetcher
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, limits RateLimit, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Store))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(limits, logger))
		r.Use(BearerTokenMiddleware(logger))

		// =============================================
		// 1. Views
		// GET  /v1/views/{view}[?refresh=true][&limit=N]
		// POST /v1/views/{view}/refresh
		// =============================================
		r.Get("/views/{view}", viewHandler(svc.Engine, false, logger))
		r.Post("/views/{view}/refresh", viewHandler(svc.Engine, true, logger))

		r.Get("/session", sessionHandler(svc.Sessions))

		// =============================================
		// 2. Preferences
		// =============================================
		r.Get("/preferences", getPreferencesHandler(svc.Preferences, logger))
		r.Put("/preferences", putPreferencesHandler(svc.Preferences, logger))

		// =============================================
		// 3. Draft loan application
		// =============================================
		r.Post("/drafts/loan", initDraftHandler(svc.Drafts, logger))
		r.Get("/drafts/loan/{id}", getDraftHandler(svc.Drafts, logger))
		r.Patch("/drafts/loan/{id}", updateDraftHandler(svc.Drafts, logger))

		// =============================================
		// 4. Metrics
		// =============================================
		r.Get("/metrics/views", viewMetricsHandler(metrics))
	})

	return r
}

func unavailable(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, "service not configured")
}

// ============================================================
// 1. Views
// ============================================================

type viewQuery struct {
	Limit int `json:"limit" validate:"min=1,max=100"`
}

func viewHandler(engine *service.Engine, forceRefresh bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" /v1/views/{view}")
		defer span.End()

		if engine == nil {
			unavailable(w)
			return
		}

		view := domain.View(chi.URLParam(r, "view"))
		span.SetAttributes(attribute.String("view", string(view)))

		refresh, err := queryBool(r, "refresh")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		opts := service.ViewOptions{Refresh: refresh || forceRefresh}

		if view == domain.ViewTransactions {
			q := viewQuery{}
			if q.Limit, err = queryInt(r, "limit", service.DefaultTransactionLimit); err != nil {
				handleServiceError(w, err, logger)
				return
			}
			if err := service.Validate(q); err != nil {
				handleServiceError(w, err, logger)
				return
			}
			opts.Limit = q.Limit
		}

		vm, err := engine.View(ctx, view, opts)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, vm)
	}
}

func sessionHandler(sessions SessionResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/session")
		defer span.End()

		if sessions == nil {
			unavailable(w)
			return
		}

		status := domain.SessionStatus{}
		if s := sessions.ResolveSession(ctx); s != nil {
			status.Authenticated = true
			status.UserID = s.User.ID
			status.Email = s.User.Email
			if !s.ExpiresAt.IsZero() {
				exp := s.ExpiresAt
				status.ExpiresAt = &exp
			}
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// ============================================================
// 2. Preferences
// ============================================================

type preferencesRequest struct {
	BalanceVisible *bool `json:"balanceVisible" validate:"required"`
}

func getPreferencesHandler(prefs *service.PreferenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/preferences")
		defer span.End()

		if prefs == nil {
			unavailable(w)
			return
		}
		p, err := prefs.Get(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func putPreferencesHandler(prefs *service.PreferenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/preferences")
		defer span.End()

		if prefs == nil {
			unavailable(w)
			return
		}

		var req preferencesRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := service.Validate(req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		p, err := prefs.SetBalanceVisible(ctx, *req.BalanceVisible)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// ============================================================
// 3. Draft loan application
// ============================================================

func initDraftHandler(drafts *service.DraftService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/drafts/loan")
		defer span.End()

		if drafts == nil {
			unavailable(w)
			return
		}

		var req service.DraftStartRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		d, err := drafts.InitLoanStep(ctx, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func getDraftHandler(drafts *service.DraftService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/drafts/loan/{id}")
		defer span.End()

		if drafts == nil {
			unavailable(w)
			return
		}

		d, err := drafts.GetDraft(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func updateDraftHandler(drafts *service.DraftService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/drafts/loan/{id}")
		defer span.End()

		if drafts == nil {
			unavailable(w)
			return
		}

		var upd domain.LoanDraftUpdate
		if err := decodeJSON(r, &upd); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		d, err := drafts.UpdateDraft(ctx, chi.URLParam(r, "id"), upd)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// ============================================================
// 4. Metrics & Health
// ============================================================

func viewMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}

const healthCheckUser = "health-check"

func healthzHandler(store port.BalanceFetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "dashboard-bfa", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			start := time.Now()
			_, err := store.GetBalance(ctx, healthCheckUser)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
