// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the aggregation
// layer from the store, the auth service and the caches behind them.
package port

import (
	"context"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
)

// ============================================================
// Record fetchers
// ============================================================
//
// Single-row fetchers return (nil, nil) when the row does not exist.
// List fetchers return an empty slice, never nil, on success.

// BalanceFetcher reads the user_balances snapshot.
type BalanceFetcher interface {
	GetBalance(ctx context.Context, userID string) (*domain.BalanceRecord, error)
}

// TransactionFetcher reads transactions newest first.
type TransactionFetcher interface {
	ListTransactions(ctx context.Context, userID string, limit int) ([]domain.TransactionRecord, error)
}

// HoldingFetcher reads holdings joined with their security metadata.
type HoldingFetcher interface {
	ListHoldings(ctx context.Context, userID string) ([]domain.HoldingRecord, error)
}

// CreditFetcher reads the credit account and its score history.
type CreditFetcher interface {
	GetCreditAccount(ctx context.Context, userID string) (*domain.CreditAccountRecord, error)
	ListCreditScoreEvents(ctx context.Context, userID string, limit int) ([]domain.CreditScoreEventRecord, error)
}

// GoalFetcher reads investment goals.
type GoalFetcher interface {
	ListGoals(ctx context.Context, userID string) ([]domain.GoalRecord, error)
}

// ProfileFetcher reads the profiles row.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, userID string) (*domain.ProfileRecord, error)
}

// RecordStore is every fetcher the aggregation engine consumes.
// Implemented by the Supabase adapter.
type RecordStore interface {
	BalanceFetcher
	TransactionFetcher
	HoldingFetcher
	CreditFetcher
	GoalFetcher
	ProfileFetcher
}

// DraftStore persists draft loan applications.
type DraftStore interface {
	FindLatestDraft(ctx context.Context, userID string) (*domain.LoanDraft, error)
	CreateDraft(ctx context.Context, userID string, step int) (*domain.LoanDraft, error)
	UpdateDraft(ctx context.Context, draftID string, cols map[string]any) (*domain.LoanDraft, error)
	GetDraft(ctx context.Context, draftID string) (*domain.LoanDraft, error)
}

// ============================================================
// Session
// ============================================================

// SessionProvider reports the current session and user. Implementations
// read the caller's access token from ctx. A nil result with a nil error
// means "no user".
type SessionProvider interface {
	GetSession(ctx context.Context) (*domain.Session, error)
	GetUser(ctx context.Context) (*domain.SessionUser, error)
}

// IdentityResolver yields the current identity, domain.Unauthenticated
// when there is no usable session. It never fails.
type IdentityResolver interface {
	Resolve(ctx context.Context) domain.Identity
}

// ============================================================
// Caches and preferences
// ============================================================

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// PreferenceStore holds per-user display preferences.
type PreferenceStore interface {
	// Init stores the defaults for userID unless preferences already exist,
	// and returns what is stored.
	Init(ctx context.Context, userID string) (domain.Preferences, error)
	Get(ctx context.Context, userID string) (domain.Preferences, error)
	Set(ctx context.Context, userID string, prefs domain.Preferences) error
}
