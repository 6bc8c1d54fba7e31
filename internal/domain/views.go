package domain

// ============================================================
// View-models (derived, never persisted)
// ============================================================

// View names the five dashboard views plus the profile view.
type View string

const (
	ViewFinancialSummary View = "financial-summary"
	ViewMintBalance      View = "mint-balance"
	ViewTransactions     View = "transactions"
	ViewCredit           View = "credit"
	ViewInvestments      View = "investments"
	ViewProfile          View = "profile"
)

// ViewStatus carries the loading/error contract every view-model exposes.
// Loading is always false on a returned view-model; the field exists for
// consumers that render placeholders before the first response.
type ViewStatus struct {
	Loading bool    `json:"loading"`
	Error   *string `json:"error"`
}

// SetError marks the view as settled with an aggregation error.
func (s *ViewStatus) SetError(msg string) {
	s.Loading = false
	s.Error = &msg
}

// Holding is a normalized holding row.
type Holding struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	AssetClass    string  `json:"assetClass"`
	CurrentValue  float64 `json:"currentValue"`
	CostBasis     float64 `json:"costBasis"`
	Gain          float64 `json:"gain"`
	DailyChange   float64 `json:"dailyChange"`
	MonthlyChange float64 `json:"monthlyChange"`
	ChangePercent float64 `json:"changePercent"`
}

// AssetPerformance is one entry of a best-performing assets list.
type AssetPerformance struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
	Logo   *string `json:"logo"`
}

// TransactionRow is a presentation-ready transaction.
type TransactionRow struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Subtitle        string  `json:"subtitle"`
	Amount          float64 `json:"amount"`
	FormattedAmount string  `json:"formattedAmount"`
	Type            string  `json:"type"`
	IsGain          bool    `json:"isGain"`
}

// CreditInfo is the credit account as embedded in the financial summary.
type CreditInfo struct {
	AvailableCredit    float64 `json:"availableCredit"`
	Score              int     `json:"score"`
	LoanBalance        float64 `json:"loanBalance"`
	MinimumDue         float64 `json:"minimumDue"`
	UtilisationPercent float64 `json:"utilisationPercent"`
	NextPaymentDate    *string `json:"nextPaymentDate"`
}

// FinancialSummary is the home screen aggregate.
type FinancialSummary struct {
	Balance         float64            `json:"balance"`
	Investments     float64            `json:"investments"`
	AvailableCredit float64            `json:"availableCredit"`
	Transactions    []TransactionRow   `json:"transactions"`
	Holdings        []Holding          `json:"holdings"`
	CreditInfo      *CreditInfo        `json:"creditInfo"`
	BestAssets      []AssetPerformance `json:"bestAssets"`
	ViewStatus
}

// BalanceChange is one formatted line of recent balance activity.
type BalanceChange struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

// MintBalanceSummary backs the swipeable balance card.
type MintBalanceSummary struct {
	TotalBalance            float64            `json:"totalBalance"`
	Investments             float64            `json:"investments"`
	AvailableCredit         float64            `json:"availableCredit"`
	DailyChange             float64            `json:"dailyChange"`
	RecentChanges           []BalanceChange    `json:"recentChanges"`
	TopAssets               []AssetPerformance `json:"topAssets"`
	AveragePerformance      float64            `json:"averagePerformance"`
	AveragePerformanceLabel string             `json:"averagePerformanceLabel"`
	Visible                 bool               `json:"visible"`
	DisplayBalance          string             `json:"displayBalance"`
	ViewStatus
}

// TransactionListView is the newest-first transaction list.
type TransactionListView struct {
	Transactions []TransactionRow `json:"transactions"`
	Limit        int              `json:"limit"`
	ViewStatus
}

// ScoreChange is one formatted credit score event.
type ScoreChange struct {
	Label string `json:"label"`
	Date  string `json:"date"`
	Value string `json:"value"`
}

// CreditSummary backs the credit screen.
type CreditSummary struct {
	AvailableCredit    float64       `json:"availableCredit"`
	Score              int           `json:"score"`
	LoanBalance        float64       `json:"loanBalance"`
	NextPaymentDate    *string       `json:"nextPaymentDate"`
	MinDue             float64       `json:"minDue"`
	UtilisationPercent float64       `json:"utilisationPercent"`
	ScoreChanges       []ScoreChange `json:"scoreChanges"`
	HasCredit          bool          `json:"hasCredit"`
	ViewStatus
}

// AllocationSlice is one asset class of the portfolio mix.
type AllocationSlice struct {
	Label   string `json:"label"`
	Percent int    `json:"percent"`
	Value   string `json:"value"`
}

// GoalProgress is a formatted investment goal.
type GoalProgress struct {
	Label           string  `json:"label"`
	Value           string  `json:"value"`
	Progress        string  `json:"progress"`
	ProgressPercent int     `json:"progressPercent"`
	CurrentAmount   float64 `json:"currentAmount"`
	TargetAmount    float64 `json:"targetAmount"`
}

// InvestmentSummary backs the investments screen.
type InvestmentSummary struct {
	TotalInvestments     float64           `json:"totalInvestments"`
	MonthlyChange        float64           `json:"monthlyChange"`
	MonthlyChangePercent float64           `json:"monthlyChangePercent"`
	MonthlyChangeLabel   string            `json:"monthlyChangeLabel"`
	PortfolioMix         []AllocationSlice `json:"portfolioMix"`
	Goals                []GoalProgress    `json:"goals"`
	Holdings             []Holding         `json:"holdings"`
	HasInvestments       bool              `json:"hasInvestments"`
	ViewStatus
}

// Profile is the merged profile shown on the settings screens.
type Profile struct {
	FullName  string `json:"fullName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	Birthday  string `json:"birthday"`
	AvatarURL string `json:"avatarUrl"`
}

// ProfileView wraps the merged profile with the view status.
type ProfileView struct {
	Profile Profile `json:"profile"`
	ViewStatus
}

// NewFinancialSummary returns the fully-defaulted financial summary.
func NewFinancialSummary() FinancialSummary {
	return FinancialSummary{
		Transactions: []TransactionRow{},
		Holdings:     []Holding{},
		BestAssets:   []AssetPerformance{},
	}
}

// NewMintBalanceSummary returns the fully-defaulted balance card.
func NewMintBalanceSummary() MintBalanceSummary {
	return MintBalanceSummary{
		RecentChanges: []BalanceChange{},
		TopAssets:     []AssetPerformance{},
		Visible:       true,
	}
}

// NewTransactionListView returns an empty list bounded by limit.
func NewTransactionListView(limit int) TransactionListView {
	return TransactionListView{Transactions: []TransactionRow{}, Limit: limit}
}

// NewCreditSummary returns the fully-defaulted credit summary.
func NewCreditSummary() CreditSummary {
	return CreditSummary{ScoreChanges: []ScoreChange{}}
}

// NewInvestmentSummary returns the fully-defaulted investment summary.
func NewInvestmentSummary() InvestmentSummary {
	return InvestmentSummary{
		PortfolioMix: []AllocationSlice{},
		Goals:        []GoalProgress{},
		Holdings:     []Holding{},
	}
}
