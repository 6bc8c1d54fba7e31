package service

import (
	"context"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/format"
)

// Fetch bounds per view.
const (
	SummaryTransactionLimit = 20
	RecentChangesLimit      = 10
	ScoreHistoryLimit       = 10
	DefaultTransactionLimit = 20
	MaxTransactionLimit     = 100
)

// FinancialSummary builds the home screen: balances, the 20 newest
// transactions, holdings, the credit account and the best 5 assets.
func (e *Engine) FinancialSummary(ctx context.Context, opts ViewOptions) domain.FinancialSummary {
	return serve(ctx, e, domain.ViewFinancialSummary, string(domain.ViewFinancialSummary), opts,
		domain.NewFinancialSummary,
		func(ctx context.Context, id domain.Identity) (domain.FinancialSummary, []string) {
			var (
				snap     *domain.BalanceRecord
				txs      []domain.TransactionRecord
				holdings []domain.HoldingRecord
				acct     *domain.CreditAccountRecord
			)

			f := e.fanout(ctx, id.UserID)
			fetch(f, "balances", &snap, func(ctx context.Context) (*domain.BalanceRecord, error) {
				return e.store.GetBalance(ctx, id.UserID)
			})
			fetch(f, "transactions", &txs, func(ctx context.Context) ([]domain.TransactionRecord, error) {
				return e.store.ListTransactions(ctx, id.UserID, SummaryTransactionLimit)
			})
			fetch(f, "holdings", &holdings, func(ctx context.Context) ([]domain.HoldingRecord, error) {
				return e.store.ListHoldings(ctx, id.UserID)
			})
			fetch(f, "credit_account", &acct, func(ctx context.Context) (*domain.CreditAccountRecord, error) {
				return e.store.GetCreditAccount(ctx, id.UserID)
			})
			failed := f.wait()

			fig := resolveBalances(snap, holdings, acct)

			out := domain.NewFinancialSummary()
			out.Balance = fig.total
			out.Investments = fig.investments
			out.AvailableCredit = fig.credit
			out.Transactions = TransactionRows(e.format, txs)
			out.Holdings = NormalizeHoldings(holdings)
			out.CreditInfo = CreditInfo(e.format, acct)
			out.BestAssets = BestPerformingAssets(holdings, BestAssetsLimit)
			return out, failed
		})
}

// MintBalance builds the swipeable balance card.
func (e *Engine) MintBalance(ctx context.Context, opts ViewOptions) domain.MintBalanceSummary {
	return serve(ctx, e, domain.ViewMintBalance, string(domain.ViewMintBalance), opts,
		domain.NewMintBalanceSummary,
		func(ctx context.Context, id domain.Identity) (domain.MintBalanceSummary, []string) {
			var (
				snap     *domain.BalanceRecord
				holdings []domain.HoldingRecord
				acct     *domain.CreditAccountRecord
				txs      []domain.TransactionRecord
				prefs    = domain.DefaultPreferences()
			)

			f := e.fanout(ctx, id.UserID)
			fetch(f, "balances", &snap, func(ctx context.Context) (*domain.BalanceRecord, error) {
				return e.store.GetBalance(ctx, id.UserID)
			})
			fetch(f, "holdings", &holdings, func(ctx context.Context) ([]domain.HoldingRecord, error) {
				return e.store.ListHoldings(ctx, id.UserID)
			})
			fetch(f, "credit_account", &acct, func(ctx context.Context) (*domain.CreditAccountRecord, error) {
				return e.store.GetCreditAccount(ctx, id.UserID)
			})
			fetch(f, "transactions", &txs, func(ctx context.Context) ([]domain.TransactionRecord, error) {
				return e.store.ListTransactions(ctx, id.UserID, RecentChangesLimit)
			})
			fetch(f, "preferences", &prefs, func(ctx context.Context) (domain.Preferences, error) {
				return e.prefs.Init(ctx, id.UserID)
			})
			failed := f.wait()

			fig := resolveBalances(snap, holdings, acct)
			top := BestPerformingAssets(holdings, TopAssetsLimit)

			out := domain.NewMintBalanceSummary()
			out.TotalBalance = fig.total
			out.Investments = fig.investments
			out.AvailableCredit = fig.credit
			out.DailyChange = sumHoldings(holdings).daily
			out.RecentChanges = BalanceChanges(e.format, txs)
			out.TopAssets = top
			out.AveragePerformance = AveragePerformance(top)
			out.AveragePerformanceLabel = format.SignedPercent(out.AveragePerformance)
			out.Visible = prefs.BalanceVisible
			out.DisplayBalance = format.Masked
			if prefs.BalanceVisible {
				out.DisplayBalance = e.format.Currency(fig.total)
			}
			return out, failed
		})
}

// Transactions builds the newest-first transaction list. opts.Limit is
// clamped to [1, MaxTransactionLimit]; 0 selects the default.
func (e *Engine) Transactions(ctx context.Context, opts ViewOptions) domain.TransactionListView {
	limit := opts.Limit
	switch {
	case limit <= 0:
		limit = DefaultTransactionLimit
	case limit > MaxTransactionLimit:
		limit = MaxTransactionLimit
	}

	return serve(ctx, e, domain.ViewTransactions, transactionSlot(limit), opts,
		func() domain.TransactionListView { return domain.NewTransactionListView(limit) },
		func(ctx context.Context, id domain.Identity) (domain.TransactionListView, []string) {
			var txs []domain.TransactionRecord

			f := e.fanout(ctx, id.UserID)
			fetch(f, "transactions", &txs, func(ctx context.Context) ([]domain.TransactionRecord, error) {
				return e.store.ListTransactions(ctx, id.UserID, limit)
			})
			failed := f.wait()

			out := domain.NewTransactionListView(limit)
			out.Transactions = TransactionRows(e.format, txs)
			return out, failed
		})
}

// CreditSummary builds the credit screen. Without a credit account every
// field stays at its default and HasCredit is false.
func (e *Engine) CreditSummary(ctx context.Context, opts ViewOptions) domain.CreditSummary {
	return serve(ctx, e, domain.ViewCredit, string(domain.ViewCredit), opts,
		domain.NewCreditSummary,
		func(ctx context.Context, id domain.Identity) (domain.CreditSummary, []string) {
			var (
				acct   *domain.CreditAccountRecord
				events []domain.CreditScoreEventRecord
			)

			f := e.fanout(ctx, id.UserID)
			fetch(f, "credit_account", &acct, func(ctx context.Context) (*domain.CreditAccountRecord, error) {
				return e.store.GetCreditAccount(ctx, id.UserID)
			})
			fetch(f, "credit_score_history", &events, func(ctx context.Context) ([]domain.CreditScoreEventRecord, error) {
				return e.store.ListCreditScoreEvents(ctx, id.UserID, ScoreHistoryLimit)
			})
			failed := f.wait()

			out := domain.NewCreditSummary()
			if acct == nil {
				return out, failed
			}
			out.HasCredit = true
			out.AvailableCredit = domain.Float(acct.AvailableCredit)
			out.Score = domain.Int(acct.CreditScore)
			out.LoanBalance = domain.Float(acct.LoanBalance)
			out.NextPaymentDate = e.format.LongDate(acct.NextPaymentDate)
			out.MinDue = domain.Float(acct.MinimumDue)
			out.UtilisationPercent = domain.Float(acct.UtilisationPercent)
			out.ScoreChanges = ScoreChanges(e.format, events)
			return out, failed
		})
}

// InvestmentSummary builds the investments screen.
func (e *Engine) InvestmentSummary(ctx context.Context, opts ViewOptions) domain.InvestmentSummary {
	return serve(ctx, e, domain.ViewInvestments, string(domain.ViewInvestments), opts,
		domain.NewInvestmentSummary,
		func(ctx context.Context, id domain.Identity) (domain.InvestmentSummary, []string) {
			var (
				holdings []domain.HoldingRecord
				goals    []domain.GoalRecord
			)

			f := e.fanout(ctx, id.UserID)
			fetch(f, "holdings", &holdings, func(ctx context.Context) ([]domain.HoldingRecord, error) {
				return e.store.ListHoldings(ctx, id.UserID)
			})
			fetch(f, "goals", &goals, func(ctx context.Context) ([]domain.GoalRecord, error) {
				return e.store.ListGoals(ctx, id.UserID)
			})
			failed := f.wait()

			totals := sumHoldings(holdings)

			out := domain.NewInvestmentSummary()
			out.TotalInvestments = totals.value
			out.MonthlyChange = totals.monthly
			out.MonthlyChangePercent = MonthlyChangePercent(totals.monthly, totals.cost)
			out.MonthlyChangeLabel = format.SignedPercent(out.MonthlyChangePercent)
			out.PortfolioMix = PortfolioMix(holdings, totals.value)
			out.Goals = Goals(e.format, goals)
			out.Holdings = NormalizeHoldings(holdings)
			out.HasInvestments = len(holdings) > 0
			return out, failed
		})
}

// Profile merges the profiles row over the session user.
func (e *Engine) Profile(ctx context.Context, opts ViewOptions) domain.ProfileView {
	return serve(ctx, e, domain.ViewProfile, string(domain.ViewProfile), opts,
		func() domain.ProfileView { return domain.ProfileView{} },
		func(ctx context.Context, id domain.Identity) (domain.ProfileView, []string) {
			var row *domain.ProfileRecord

			f := e.fanout(ctx, id.UserID)
			fetch(f, "profile", &row, func(ctx context.Context) (*domain.ProfileRecord, error) {
				return e.store.GetProfile(ctx, id.UserID)
			})
			failed := f.wait()

			return domain.ProfileView{Profile: BuildProfile(id.User, row)}, failed
		})
}
