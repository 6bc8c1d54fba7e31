package service

import (
	"math"
	"sort"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/format"
)

// Asset list sizes.
const (
	BestAssetsLimit = 5
	TopAssetsLimit  = 3
)

const otherAssetClass = "Other"

// roundHalfUp rounds to the nearest integer, halves toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// NormalizeHolding flattens a holding and its joined security. The joined
// security wins over the holding's own columns.
func NormalizeHolding(h domain.HoldingRecord) domain.Holding {
	var sec domain.Security
	if h.Security != nil {
		sec = *h.Security
	}
	return domain.Holding{
		ID:            h.ID,
		Symbol:        format.FirstNonEmpty(sec.Symbol, h.Symbol, format.UnknownSymbol),
		Name:          format.FirstNonEmpty(sec.Name, h.Name, format.UnknownName),
		AssetClass:    AssetClass(h),
		CurrentValue:  h.Value(),
		CostBasis:     h.Cost(),
		Gain:          h.Gain(),
		DailyChange:   domain.Float(h.DailyChange),
		MonthlyChange: domain.Float(h.MonthlyChange),
		ChangePercent: domain.Float(h.ChangePercent),
	}
}

// NormalizeHoldings maps NormalizeHolding over holdings, never returning nil.
func NormalizeHoldings(holdings []domain.HoldingRecord) []domain.Holding {
	out := make([]domain.Holding, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, NormalizeHolding(h))
	}
	return out
}

// AssetClass picks the security's class, then the holding's, then "Other".
func AssetClass(h domain.HoldingRecord) string {
	var fromSecurity string
	if h.Security != nil {
		fromSecurity = h.Security.AssetClass
	}
	return format.FirstNonEmpty(fromSecurity, h.AssetClass, otherAssetClass)
}

// BestPerformingAssets orders holdings by unrealized gain, highest first,
// and keeps the first n. Equal gains keep their fetch order.
func BestPerformingAssets(holdings []domain.HoldingRecord, n int) []domain.AssetPerformance {
	sorted := make([]domain.HoldingRecord, len(holdings))
	copy(sorted, holdings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Gain() > sorted[j].Gain()
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]domain.AssetPerformance, 0, len(sorted))
	for _, h := range sorted {
		nh := NormalizeHolding(h)
		a := domain.AssetPerformance{
			Symbol: nh.Symbol,
			Name:   nh.Name,
			Value:  nh.CurrentValue,
			Change: nh.ChangePercent,
		}
		if h.Security != nil && h.Security.LogoURL != "" {
			logo := h.Security.LogoURL
			a.Logo = &logo
		}
		out = append(out, a)
	}
	return out
}

// AveragePerformance is the mean percentage change of assets, 0 when empty.
func AveragePerformance(assets []domain.AssetPerformance) float64 {
	if len(assets) == 0 {
		return 0
	}
	var sum float64
	for _, a := range assets {
		sum += a.Change
	}
	return sum / float64(len(assets))
}

// holdingTotals sums the numeric columns of a holding set.
type holdingTotals struct {
	value   float64
	cost    float64
	daily   float64
	monthly float64
}

func sumHoldings(holdings []domain.HoldingRecord) holdingTotals {
	var t holdingTotals
	for _, h := range holdings {
		t.value += h.Value()
		t.cost += h.Cost()
		t.daily += domain.Float(h.DailyChange)
		t.monthly += domain.Float(h.MonthlyChange)
	}
	return t
}

// TotalInvestments sums current values, 0 for no holdings.
func TotalInvestments(holdings []domain.HoldingRecord) float64 {
	return sumHoldings(holdings).value
}

// MonthlyChangePercent is monthlyChange relative to totalCost, 0 when the
// cost basis is not positive.
func MonthlyChangePercent(monthlyChange, totalCost float64) float64 {
	if totalCost <= 0 {
		return 0
	}
	return monthlyChange / totalCost * 100
}

// PortfolioMix groups holdings by asset class and weights each class by
// its share of total, as a rounded integer percentage. Classes appear in
// the order first seen. With nothing invested the mix is empty.
func PortfolioMix(holdings []domain.HoldingRecord, total float64) []domain.AllocationSlice {
	mix := []domain.AllocationSlice{}
	if total <= 0 {
		return mix
	}

	var order []string
	values := map[string]float64{}
	for _, h := range holdings {
		class := AssetClass(h)
		if _, seen := values[class]; !seen {
			order = append(order, class)
		}
		values[class] += h.Value()
	}

	for _, class := range order {
		pct := roundHalfUp(values[class] / total * 100)
		mix = append(mix, domain.AllocationSlice{
			Label:   class,
			Percent: pct,
			Value:   format.Percent(pct),
		})
	}
	return mix
}

// Goals formats investment goals with their progress.
func Goals(f *format.Formatter, goals []domain.GoalRecord) []domain.GoalProgress {
	out := make([]domain.GoalProgress, 0, len(goals))
	for _, g := range goals {
		target := domain.Float(g.TargetAmount)
		current := domain.Float(g.CurrentAmount)

		pct := 0
		if target > 0 {
			pct = roundHalfUp(current / target * 100)
		}
		out = append(out, domain.GoalProgress{
			Label:           format.FirstNonEmpty(g.Name, format.DefaultGoalLabel),
			Value:           f.Amount(target),
			Progress:        format.Percent(pct),
			ProgressPercent: pct,
			CurrentAmount:   current,
			TargetAmount:    target,
		})
	}
	return out
}

// TransactionRows formats transactions in the order given.
func TransactionRows(f *format.Formatter, txs []domain.TransactionRecord) []domain.TransactionRow {
	out := make([]domain.TransactionRow, 0, len(txs))
	for _, t := range txs {
		out = append(out, domain.TransactionRow{
			ID:              t.ID,
			Title:           format.FirstNonEmpty(t.Description, t.Type, format.DefaultTxTitle),
			Subtitle:        f.RelativeDate(t.CreatedAt),
			Amount:          domain.Float(t.Amount),
			FormattedAmount: f.TransactionAmount(t.Amount, t.Type),
			Type:            t.Type,
			IsGain:          format.IsGain(t.Amount, t.Type),
		})
	}
	return out
}

// BalanceChanges formats transactions as the balance card's recent activity.
func BalanceChanges(f *format.Formatter, txs []domain.TransactionRecord) []domain.BalanceChange {
	out := make([]domain.BalanceChange, 0, len(txs))
	for _, t := range txs {
		out = append(out, domain.BalanceChange{
			Title:  format.FirstNonEmpty(t.Description, t.Type, format.DefaultTxTitle),
			Date:   f.RelativeDate(t.CreatedAt),
			Amount: f.TransactionAmount(t.Amount, t.Type),
		})
	}
	return out
}

// ScoreChanges formats credit score events in the order given.
func ScoreChanges(f *format.Formatter, events []domain.CreditScoreEventRecord) []domain.ScoreChange {
	out := make([]domain.ScoreChange, 0, len(events))
	for _, e := range events {
		out = append(out, domain.ScoreChange{
			Label: format.FirstNonEmpty(e.Reason, format.DefaultScoreLabel),
			Date:  f.RelativeDate(e.CreatedAt),
			Value: format.ScoreDelta(e.Change),
		})
	}
	return out
}

// CreditInfo projects a credit account for the financial summary; nil in, nil out.
func CreditInfo(f *format.Formatter, acct *domain.CreditAccountRecord) *domain.CreditInfo {
	if acct == nil {
		return nil
	}
	return &domain.CreditInfo{
		AvailableCredit:    domain.Float(acct.AvailableCredit),
		Score:              domain.Int(acct.CreditScore),
		LoanBalance:        domain.Float(acct.LoanBalance),
		MinimumDue:         domain.Float(acct.MinimumDue),
		UtilisationPercent: domain.Float(acct.UtilisationPercent),
		NextPaymentDate:    f.LongDate(acct.NextPaymentDate),
	}
}

// balanceFigures are the three headline numbers shared by the summary and
// the balance card.
type balanceFigures struct {
	total       float64
	investments float64
	credit      float64
}

// resolveBalances applies snapshot precedence field by field: a snapshot
// field that is present wins, zero included; otherwise the value is derived
// from holdings and the credit account.
func resolveBalances(snap *domain.BalanceRecord, holdings []domain.HoldingRecord, acct *domain.CreditAccountRecord) balanceFigures {
	invested := TotalInvestments(holdings)
	var accountCredit float64
	if acct != nil {
		accountCredit = domain.Float(acct.AvailableCredit)
	}

	fig := balanceFigures{
		total:       invested + accountCredit,
		investments: invested,
		credit:      accountCredit,
	}
	if snap == nil {
		return fig
	}
	if snap.TotalBalance != nil {
		fig.total = *snap.TotalBalance
	}
	if snap.Investments != nil {
		fig.investments = *snap.Investments
	}
	if snap.AvailableCredit != nil {
		fig.credit = *snap.AvailableCredit
	}
	return fig
}

// BuildProfile merges a profiles row over the session user. Each field
// takes the first non-empty of: the row, the session metadata, "".
// username also tries preferred_username; email falls back to the
// session user's email.
func BuildProfile(user *domain.SessionUser, row *domain.ProfileRecord) domain.Profile {
	var r domain.ProfileRecord
	if row != nil {
		r = *row
	}
	var email string
	if user != nil {
		email = user.Email
	}
	meta := user.MetadataString

	return domain.Profile{
		FullName:  format.FirstNonEmpty(r.FullName, meta("full_name")),
		Username:  format.FirstNonEmpty(r.Username, meta("username"), meta("preferred_username")),
		Email:     format.FirstNonEmpty(r.Email, email),
		Phone:     format.FirstNonEmpty(r.Phone, meta("phone")),
		Gender:    format.FirstNonEmpty(r.Gender, meta("gender")),
		Birthday:  format.FirstNonEmpty(r.Birthday, meta("birthday")),
		AvatarURL: format.FirstNonEmpty(r.AvatarURL, meta("avatar_url")),
	}
}
