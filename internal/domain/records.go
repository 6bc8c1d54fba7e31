package domain

import "time"

// ============================================================
// Store records (read-only projections of the PostgREST tables)
// ============================================================
//
// Numeric columns that may be NULL decode into pointers so that a stored
// zero is never confused with a missing value.

// BalanceRecord is the one-per-user row in user_balances.
type BalanceRecord struct {
	UserID          string   `json:"user_id"`
	TotalBalance    *float64 `json:"total_balance"`
	Investments     *float64 `json:"investments"`
	AvailableCredit *float64 `json:"available_credit"`
}

// Security is the joined securities row of a holding.
type Security struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	LogoURL    string `json:"logo_url"`
	AssetClass string `json:"asset_class"`
}

// HoldingRecord is a row in user_holdings with its joined security.
type HoldingRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	AssetClass    string    `json:"asset_class"`
	CurrentValue  *float64  `json:"current_value"`
	CostBasis     *float64  `json:"cost_basis"`
	DailyChange   *float64  `json:"daily_change"`
	MonthlyChange *float64  `json:"monthly_change"`
	ChangePercent *float64  `json:"change_percent"`
	Security      *Security `json:"securities"`
}

// Value returns the current value, 0 when NULL.
func (h HoldingRecord) Value() float64 { return Float(h.CurrentValue) }

// Cost returns the cost basis, 0 when NULL.
func (h HoldingRecord) Cost() float64 { return Float(h.CostBasis) }

// Gain is the unrealized gain (current value minus cost basis).
func (h HoldingRecord) Gain() float64 { return h.Value() - h.Cost() }

// TransactionRecord is a row in transactions.
type TransactionRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      *float64  `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreditAccountRecord is the zero-or-one-per-user row in credit_accounts.
type CreditAccountRecord struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"user_id"`
	AvailableCredit    *float64 `json:"available_credit"`
	CreditScore        *int     `json:"credit_score"`
	LoanBalance        *float64 `json:"loan_balance"`
	NextPaymentDate    string   `json:"next_payment_date"` // date column, "2006-01-02"
	MinimumDue         *float64 `json:"minimum_due"`
	UtilisationPercent *float64 `json:"utilisation_percent"`
}

// CreditScoreEventRecord is a row in credit_score_history.
type CreditScoreEventRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	Change    int       `json:"change"`
	CreatedAt time.Time `json:"created_at"`
}

// GoalRecord is a row in investment_goals.
type GoalRecord struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	Name          string   `json:"name"`
	TargetAmount  *float64 `json:"target_amount"`
	CurrentAmount *float64 `json:"current_amount"`
}

// ProfileRecord is the zero-or-one-per-user row in profiles.
type ProfileRecord struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	Birthday  string `json:"birthday"`
	AvatarURL string `json:"avatar_url"`
}

// Float dereferences a nullable numeric column.
func Float(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Int dereferences a nullable integer column.
func Int(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Ptr returns a pointer to v. Handy for fixtures and optional fields.
func Ptr[T any](v T) *T { return &v }
