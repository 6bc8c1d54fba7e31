package format_test

import (
	"testing"
	"time"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/format"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.March, 20, 15, 0, 0, 0, time.UTC)

func TestRelativeDate(t *testing.T) {
	tests := []struct {
		name  string
		event time.Time
		want  string
	}{
		{"same instant", fixedNow, "Today"},
		{"earlier today", fixedNow.Add(-5 * time.Hour), "Today"},
		{"one day", fixedNow.Add(-24 * time.Hour), "Yesterday"},
		{"three days", fixedNow.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"six days", fixedNow.Add(-6 * 24 * time.Hour), "6 days ago"},
		{"seven days", fixedNow.Add(-7 * 24 * time.Hour), "13 Mar"},
		{"ten days", fixedNow.Add(-10 * 24 * time.Hour), "10 Mar"},
		{"future", fixedNow.Add(48 * time.Hour), "Today"},
		{"zero", time.Time{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, format.RelativeDate(fixedNow, tt.event))
		})
	}
}

func TestFormatter_RelativeDateUsesInjectedClock(t *testing.T) {
	f := format.New(format.WithClock(func() time.Time { return fixedNow }))

	assert.Equal(t, "Yesterday", f.RelativeDate(fixedNow.Add(-30*time.Hour)))
	assert.Equal(t, "Today", f.RelativeDate(fixedNow))
}

func TestFormatter_LongDate(t *testing.T) {
	f := format.New()

	got := f.LongDate("2025-03-15")
	require.NotNil(t, got)
	assert.Equal(t, "15 March 2025", *got)

	got = f.LongDate("2025-04-01T10:00:00Z")
	require.NotNil(t, got)
	assert.Equal(t, "1 April 2025", *got)

	assert.Nil(t, f.LongDate(""))
	assert.Nil(t, f.LongDate("not a date"))
}

func TestFormatter_TransactionAmount(t *testing.T) {
	f := format.New()

	tests := []struct {
		name   string
		amount *float64
		txType string
		want   string
	}{
		{"deposit", domain.Ptr(1500.0), "deposit", "+R1,500"},
		{"positive type wins over sign", domain.Ptr(-200.0), "credit", "+R200"},
		{"positive fee reversal", domain.Ptr(50.0), "fee", "+R50"},
		{"withdrawal", domain.Ptr(-20.0), "withdrawal", "-R20"},
		{"zero fee", domain.Ptr(0.0), "fee", "-R0"},
		{"missing amount", nil, "deposit", "R0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.TransactionAmount(tt.amount, tt.txType))
		})
	}
}

func TestIsGain(t *testing.T) {
	assert.True(t, format.IsGain(domain.Ptr(-1.0), "gain"))
	assert.True(t, format.IsGain(domain.Ptr(1.0), "purchase"))
	assert.False(t, format.IsGain(domain.Ptr(-1.0), "purchase"))
	assert.False(t, format.IsGain(nil, "purchase"))
}

func TestFormatter_Currency(t *testing.T) {
	f := format.New()

	assert.Equal(t, "R1,234.50", f.Currency(1234.5))
	assert.Equal(t, "R0.00", f.Currency(0))
	assert.Equal(t, "-R12.00", f.Currency(-12))

	usd := format.New(format.WithCurrencySymbol("$"))
	assert.Equal(t, "$1,000,000.00", usd.Currency(1_000_000))
}

func TestSignedPercent(t *testing.T) {
	assert.Equal(t, "+1.25%", format.SignedPercent(1.25))
	assert.Equal(t, "-0.50%", format.SignedPercent(-0.5))
	assert.Equal(t, "0.00%", format.SignedPercent(0))
}

func TestScoreDelta(t *testing.T) {
	assert.Equal(t, "+12", format.ScoreDelta(12))
	assert.Equal(t, "-5", format.ScoreDelta(-5))
	assert.Equal(t, "0", format.ScoreDelta(0))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", format.FirstNonEmpty("", "b", "c"))
	assert.Equal(t, "", format.FirstNonEmpty("", ""))
	assert.Equal(t, "", format.FirstNonEmpty())
}
