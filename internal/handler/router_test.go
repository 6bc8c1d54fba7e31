package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/format"
	"github.com/boddenberg/mint-dashboard-bfa/internal/handler"
	"github.com/boddenberg/mint-dashboard-bfa/internal/identity"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/cache"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/observability"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/preferences"
	"github.com/boddenberg/mint-dashboard-bfa/internal/service"

	"go.uber.org/zap"
)

// tokenIdentity authenticates the request whose bearer token is "good".
type tokenIdentity struct{}

func (tokenIdentity) Resolve(ctx context.Context) domain.Identity {
	if identity.AccessToken(ctx) != "good" {
		return domain.Unauthenticated
	}
	return domain.Identity{UserID: "u1", User: &domain.SessionUser{ID: "u1", Email: "u1@example.com"}}
}

// tokenSessions is a session provider for the same "good" token.
type tokenSessions struct{}

var sessionExpiry = time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)

func (tokenSessions) GetSession(ctx context.Context) (*domain.Session, error) {
	if identity.AccessToken(ctx) != "good" {
		return nil, nil
	}
	return &domain.Session{
		AccessToken: "good",
		ExpiresAt:   sessionExpiry,
		User:        domain.SessionUser{ID: "u1", Email: "u1@example.com"},
	}, nil
}

func (s tokenSessions) GetUser(ctx context.Context) (*domain.SessionUser, error) {
	sess, err := s.GetSession(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	return &sess.User, nil
}

type stubStore struct{}

func (stubStore) GetBalance(context.Context, string) (*domain.BalanceRecord, error) {
	return &domain.BalanceRecord{TotalBalance: domain.Ptr(1234.5)}, nil
}

func (stubStore) ListTransactions(_ context.Context, _ string, limit int) ([]domain.TransactionRecord, error) {
	txs := []domain.TransactionRecord{
		{ID: "t1", Amount: domain.Ptr(10.0), Type: "deposit", CreatedAt: time.Now()},
		{ID: "t2", Amount: domain.Ptr(-5.0), Type: "purchase", CreatedAt: time.Now()},
	}
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (stubStore) ListHoldings(context.Context, string) ([]domain.HoldingRecord, error) {
	return []domain.HoldingRecord{}, nil
}

func (stubStore) GetCreditAccount(context.Context, string) (*domain.CreditAccountRecord, error) {
	return nil, nil
}

func (stubStore) ListCreditScoreEvents(context.Context, string, int) ([]domain.CreditScoreEventRecord, error) {
	return []domain.CreditScoreEventRecord{}, nil
}

func (stubStore) ListGoals(context.Context, string) ([]domain.GoalRecord, error) {
	return []domain.GoalRecord{}, nil
}

func (stubStore) GetProfile(context.Context, string) (*domain.ProfileRecord, error) {
	return &domain.ProfileRecord{FullName: "Lerato K"}, nil
}

func newTestRouter(t *testing.T, limits handler.RateLimit) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	viewCache := cache.New[any](time.Minute)
	t.Cleanup(viewCache.Close)
	prefStore := preferences.NewStore()

	engine := service.NewEngine(tokenIdentity{}, stubStore{}, prefStore, viewCache, format.New(), metrics, logger)
	svc := handler.Services{
		Engine:      engine,
		Drafts:      service.NewDraftService(tokenIdentity{}, nil, logger),
		Preferences: service.NewPreferenceService(tokenIdentity{}, prefStore, engine),
		Sessions:    identity.NewResolver(tokenSessions{}, time.Second, logger),
		Store:       stubStore{},
	}
	return handler.NewRouter(svc, metrics, limits, logger)
}

func do(t *testing.T, router http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{})

	rec := do(t, router, http.MethodGet, "/healthz", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body domain.HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || len(body.Services) != 2 {
		t.Errorf("unexpected health %+v", body)
	}
}

func TestProbesWithoutServices(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, observability.NewMetrics(), handler.RateLimit{}, zap.NewNop())

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ping"} {
		rec := do(t, router, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	rec := do(t, router, http.MethodGet, "/v1/views/credit", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without an engine, got %d", rec.Code)
	}
}

func TestView_UnauthenticatedDefaults(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{})

	rec := do(t, router, http.MethodGet, "/v1/views/financial-summary", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["balance"] != 0.0 || body["loading"] != false || body["error"] != nil {
		t.Errorf("unexpected defaults %v", body)
	}
	if txs, ok := body["transactions"].([]any); !ok || len(txs) != 0 {
		t.Errorf("expected empty transactions array, got %v", body["transactions"])
	}
}

func TestView_Authenticated(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{})

	rec := do(t, router, http.MethodGet, "/v1/views/financial-summary", "good", "")

	var body domain.FinancialSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Balance != 1234.5 {
		t.Errorf("expected snapshot balance, got %v", body.Balance)
	}
	if len(body.Transactions) != 2 {
		t.Errorf("expected 2 transactions, got %d", len(body.Transactions))
	}
}

func TestView_TransactionsLimit(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{})

	rec := do(t, router, http.MethodGet, "/v1/views/transactions?limit=1", "good", "")
	var body domain.TransactionListView
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Limit != 1 || len(body.Transactions) != 1 {
		t.Errorf("expected one row, got %+v", body)
	}

	for _, q := range []string{"limit=0", "limit=101", "limit=abc", "refresh=maybe"} {
		rec := do(t, router, http.MethodGet, "/v1/views/transactions?"+q, "good", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestView_RefreshAndUnknown(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{})

	rec := do(t, router, http.MethodPost, "/v1/views/profile/refresh", "good", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body domain.ProfileView
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Profile.FullName != "Lerato K" || body.Profile.Email != "u1@example.com" {
		t.Errorf("unexpected profile %+v", body.Profile)
	}

	rec = do(t, router, http.MethodGet, "/v1/views/nope", "good", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestBearerToken_Malformed(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{})

	req := httptest.NewRequest(http.MethodGet, "/v1/views/credit", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestPreferences_HideBalance(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{})

	rec := do(t, router, http.MethodPut, "/v1/preferences", "good", `{"balanceVisible": false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/v1/views/mint-balance", "good", "")
	var body domain.MintBalanceSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Visible || body.DisplayBalance != format.Masked {
		t.Errorf("expected hidden balance, got %+v", body)
	}

	for _, tc := range []struct{ token, body string }{
		{"good", `{}`},
		{"good", `{"balanceVisible": "no"}`},
		{"", `{"balanceVisible": true}`},
	} {
		rec := do(t, router, http.MethodPut, "/v1/preferences", tc.token, tc.body)
		if rec.Code != http.StatusBadRequest && rec.Code != http.StatusUnauthorized {
			t.Errorf("%q: expected 400/401, got %d", tc.body, rec.Code)
		}
	}
}

func TestDrafts_RequireSession(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{})

	rec := do(t, router, http.MethodPost, "/v1/drafts/loan", "", `{"step": 1}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/v1/drafts/loan", "good", `{"step": 0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{RPS: 0.001, Burst: 1})

	first := do(t, router, http.MethodGet, "/v1/views/credit", "", "")
	second := do(t, router, http.MethodGet, "/v1/views/credit", "", "")

	if first.Code != http.StatusOK {
		t.Errorf("expected first request to pass, got %d", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", second.Code)
	}

	// probes are not limited
	if rec := do(t, router, http.MethodGet, "/readyz", "", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestViewMetrics(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{})

	do(t, router, http.MethodGet, "/v1/views/credit", "", "")
	do(t, router, http.MethodGet, "/v1/views/credit", "good", "")

	rec := do(t, router, http.MethodGet, "/v1/metrics/views", "", "")
	var body domain.ViewMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ViewsServed != 2 || body.Unauthenticated != 1 {
		t.Errorf("unexpected metrics %+v", body)
	}
}

func TestSession(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{})

	rec := do(t, router, http.MethodGet, "/v1/session", "good", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "good") {
		t.Error("the access token must not be echoed")
	}
	var body domain.SessionStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Authenticated || body.UserID != "u1" || body.ExpiresAt == nil || !body.ExpiresAt.Equal(sessionExpiry) {
		t.Errorf("unexpected session %+v", body)
	}

	rec = do(t, router, http.MethodGet, "/v1/session", "", "")
	body = domain.SessionStatus{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Authenticated || body.UserID != "" || body.ExpiresAt != nil {
		t.Errorf("expected no session, got %+v", body)
	}
}

func TestView_MonthlyChangeLabel(t *testing.T) {
	router := newTestRouter(t, handler.RateLimit{})

	rec := do(t, router, http.MethodGet, "/v1/views/investments", "good", "")
	var body domain.InvestmentSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.MonthlyChangeLabel != "0.00%" {
		t.Errorf("expected 0.00%%, got %q", body.MonthlyChangeLabel)
	}
}
