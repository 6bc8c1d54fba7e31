// Package format turns raw numbers and timestamps into display strings.
// It is the only place the dashboard produces user-facing text.
package format

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Masked replaces an amount the user chose to hide.
const Masked = "••••••••"

// Display fallbacks for missing labels.
const (
	UnknownSymbol     = "N/A"
	UnknownName       = "Unknown"
	DefaultTxTitle    = "Transaction"
	DefaultScoreLabel = "Score update"
	DefaultGoalLabel  = "Goal"
)

// Formatter renders values for one locale, currency and clock.
type Formatter struct {
	now     func() time.Time
	loc     *time.Location
	symbol  string
	printer *message.Printer
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithClock injects the clock used by relative dates.
func WithClock(now func() time.Time) Option {
	return func(f *Formatter) { f.now = now }
}

// WithLocation sets the time zone dates are displayed in.
func WithLocation(loc *time.Location) Option {
	return func(f *Formatter) {
		if loc != nil {
			f.loc = loc
		}
	}
}

// WithCurrencySymbol sets the currency prefix.
func WithCurrencySymbol(symbol string) Option {
	return func(f *Formatter) { f.symbol = symbol }
}

// New creates a Formatter. Defaults: wall clock, UTC, "R".
func New(opts ...Option) *Formatter {
	f := &Formatter{
		now:     time.Now,
		loc:     time.UTC,
		symbol:  "R",
		printer: message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ============================================================
// Dates
// ============================================================

// RelativeDate renders event relative to now: "Today", "Yesterday",
// "N days ago" up to six days, then "2 Jan". Events in the future
// render as "Today". A zero event renders as "".
func RelativeDate(now, event time.Time) string {
	if event.IsZero() {
		return ""
	}
	days := int(now.Sub(event).Hours() / 24)
	if now.Before(event) {
		days = 0
	}
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return strconv.Itoa(days) + " days ago"
	}
	return event.Format("2 Jan")
}

// RelativeDate renders event against the injected clock in the display zone.
func (f *Formatter) RelativeDate(event time.Time) string {
	if event.IsZero() {
		return ""
	}
	return RelativeDate(f.now().In(f.loc), event.In(f.loc))
}

// LongDate renders a date column ("2006-01-02" or RFC 3339) as
// "15 March 2025". It returns nil for empty or unparsable input.
func (f *Formatter) LongDate(raw string) *string {
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, f.loc)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil
		}
		t = t.In(f.loc)
	}
	s := t.Format("2 January 2006")
	return &s
}

// ============================================================
// Money and numbers
// ============================================================

// Currency renders a balance with two decimals: "R1,234.50", "-R12.00".
func (f *Formatter) Currency(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	x, _ := d.Float64()
	return sign + f.symbol + f.printer.Sprint(number.Decimal(x, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Amount renders a magnitude with grouping and at most two decimals: "R1,500".
func (f *Formatter) Amount(v float64) string {
	return f.symbol + f.group(decimal.NewFromFloat(v).Abs())
}

// TransactionAmount renders a signed transaction amount ("+R1,500",
// "-R20"). A missing amount renders as "R0".
func (f *Formatter) TransactionAmount(amount *float64, txType string) string {
	if amount == nil {
		return f.symbol + "0"
	}
	sign := "-"
	if IsGain(amount, txType) {
		sign = "+"
	}
	return sign + f.Amount(*amount)
}

func (f *Formatter) group(d decimal.Decimal) string {
	x, _ := d.Round(2).Float64()
	return f.printer.Sprint(number.Decimal(x, number.MaxFractionDigits(2)))
}

// IsGain reports whether a transaction presents as money in. The three
// positive types always do; anything else follows the sign of the amount.
func IsGain(amount *float64, txType string) bool {
	switch txType {
	case "deposit", "credit", "gain":
		return true
	}
	return amount != nil && *amount > 0
}

// SignedPercent renders "+1.25%", "-0.50%" or "0.00%".
func SignedPercent(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	s := d.StringFixed(2) + "%"
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// Percent renders an integer percentage: "42%".
func Percent(p int) string {
	return strconv.Itoa(p) + "%"
}

// ScoreDelta renders a credit score change: "+12", "-5", "0".
func ScoreDelta(change int) string {
	if change > 0 {
		return "+" + strconv.Itoa(change)
	}
	return strconv.Itoa(change)
}

// FirstNonEmpty returns the first non-empty value, or "" when all are empty.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
