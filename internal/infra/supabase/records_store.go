package supabase

import (
	"context"
	"fmt"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
)

// ============================================================
// Record fetchers (implements port.RecordStore)
// ============================================================

// GetBalance reads the user_balances snapshot; nil when not seeded yet.
func (c *Client) GetBalance(ctx context.Context, userID string) (*domain.BalanceRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBalance")
	defer span.End()

	path := fmt.Sprintf("user_balances?user_id=%s&limit=1", eq(userID))
	return selectOne[domain.BalanceRecord](ctx, c, "supabase/user_balances", path)
}

// ListTransactions returns up to limit transactions, newest first.
// Equal timestamps fall back to id order so pages are stable.
func (c *Client) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=%s&order=created_at.desc,id.desc&limit=%d", eq(userID), limit)
	return selectRows[domain.TransactionRecord](ctx, c, "supabase/transactions", path)
}

// ListHoldings returns every holding joined with its security.
func (c *Client) ListHoldings(ctx context.Context, userID string) ([]domain.HoldingRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListHoldings")
	defer span.End()

	path := fmt.Sprintf("user_holdings?select=*,securities(symbol,name,logo_url,asset_class)&user_id=%s", eq(userID))
	return selectRows[domain.HoldingRecord](ctx, c, "supabase/user_holdings", path)
}

// GetCreditAccount reads the credit account; nil when the user has none.
func (c *Client) GetCreditAccount(ctx context.Context, userID string) (*domain.CreditAccountRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCreditAccount")
	defer span.End()

	path := fmt.Sprintf("credit_accounts?user_id=%s&limit=1", eq(userID))
	return selectOne[domain.CreditAccountRecord](ctx, c, "supabase/credit_accounts", path)
}

// ListCreditScoreEvents returns up to limit score events, newest first.
func (c *Client) ListCreditScoreEvents(ctx context.Context, userID string, limit int) ([]domain.CreditScoreEventRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCreditScoreEvents")
	defer span.End()

	path := fmt.Sprintf("credit_score_history?user_id=%s&order=created_at.desc&limit=%d", eq(userID), limit)
	return selectRows[domain.CreditScoreEventRecord](ctx, c, "supabase/credit_score_history", path)
}

// ListGoals returns the user's investment goals.
func (c *Client) ListGoals(ctx context.Context, userID string) ([]domain.GoalRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListGoals")
	defer span.End()

	path := fmt.Sprintf("investment_goals?user_id=%s", eq(userID))
	return selectRows[domain.GoalRecord](ctx, c, "supabase/investment_goals", path)
}

// GetProfile reads the profiles row keyed by the auth user id.
func (c *Client) GetProfile(ctx context.Context, userID string) (*domain.ProfileRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfile")
	defer span.End()

	path := fmt.Sprintf("profiles?select=id,full_name,username,email,phone,gender,birthday,avatar_url&id=%s&limit=1", eq(userID))
	return selectOne[domain.ProfileRecord](ctx, c, "supabase/profiles", path)
}
