// Package loans holds the flat-rate loan arithmetic, the repayment schedule
// and the application review rules. Everything here is pure: no store
// access, no clock reads, safe to call from any goroutine.
package loans

import (
	"fmt"
	"time"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/shopspring/decimal"
)

// Currency every amount in the portfolio is denominated in.
const Currency = "UGX"

// monthBucket is the fixed month length used for elapsed time. It is not
// calendar aware; GenerateSchedule uses calendar months instead.
const monthBucket = 30 * 24 * time.Hour

var (
	// FlatRate is charged once on the principal for the whole term.
	FlatRate = decimal.NewFromFloat(0.30)

	hundred = decimal.NewFromInt(100)
)

// Metrics are the derived figures of a loan. They are never persisted.
type Metrics struct {
	Principal          decimal.Decimal `json:"principal"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	Interest           decimal.Decimal `json:"interest"`
	TotalPayable       decimal.Decimal `json:"total_payable"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	DurationMonths     int             `json:"duration_months"`
	MonthsElapsed      int             `json:"months_elapsed"`
	MonthsRemaining    int             `json:"months_remaining"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	RemainingBalance   decimal.Decimal `json:"remaining_balance"`
	GrowthRate         decimal.Decimal `json:"growth_rate"`
}

// Progress is the share of the term already elapsed, in percent.
func (m Metrics) Progress() decimal.Decimal {
	if m.DurationMonths == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(m.MonthsElapsed)).Mul(hundred).Div(decimal.NewFromInt(int64(m.DurationMonths)))
}

// ComputeMetrics derives the flat-rate figures of a loan of principal over
// durationMonths that started at start (approval time, or creation time when
// the loan was never approved), as seen at now.
func ComputeMetrics(principal decimal.Decimal, durationMonths int, start, now time.Time) (Metrics, error) {
	if durationMonths <= 0 {
		return Metrics{}, fmt.Errorf("duration must be positive, got %d months: %w", durationMonths, apperr.ErrInvalidArgument)
	}
	if !principal.IsPositive() {
		return Metrics{}, fmt.Errorf("principal must be positive, got %s: %w", principal, apperr.ErrInvalidArgument)
	}

	duration := decimal.NewFromInt(int64(durationMonths))
	interest := principal.Mul(FlatRate)
	total := principal.Add(interest)

	elapsed := MonthsElapsed(start, now)
	remaining := durationMonths - elapsed
	if remaining < 0 {
		remaining = 0
	}

	// installment * elapsed, multiplied first so whole months stay exact.
	paid := total.Mul(decimal.NewFromInt(int64(elapsed))).Div(duration)

	balance := total.Sub(paid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	return Metrics{
		Principal:          principal,
		InterestRate:       FlatRate.Mul(hundred),
		Interest:           interest,
		TotalPayable:       total,
		MonthlyInstallment: total.Div(duration),
		DurationMonths:     durationMonths,
		MonthsElapsed:      elapsed,
		MonthsRemaining:    remaining,
		AmountPaid:         paid,
		RemainingBalance:   balance,
		GrowthRate:         interest.Div(principal).Mul(hundred),
	}, nil
}

// MonthsElapsed counts whole 30-day buckets between start and now. A start
// in the future counts as zero.
func MonthsElapsed(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start) / monthBucket)
}

// Quote is the preview shown before an application exists: the loan as it
// would look on its first day.
func Quote(principal decimal.Decimal, durationMonths int) (Metrics, error) {
	var t0 time.Time
	return ComputeMetrics(principal, durationMonths, t0, t0)
}
