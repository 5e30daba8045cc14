package loans

import (
	"fmt"
	"time"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/shopspring/decimal"
)

type InstallmentStatus string

const (
	InstallmentPaid     InstallmentStatus = "paid"
	InstallmentDue      InstallmentStatus = "due"
	InstallmentUpcoming InstallmentStatus = "upcoming"
)

// Installment is one monthly repayment of a loan.
type Installment struct {
	Number  int               `json:"installment"`
	DueDate time.Time         `json:"due_date"`
	Amount  decimal.Decimal   `json:"amount"`
	Status  InstallmentStatus `json:"status"`
}

// GenerateSchedule lists the durationMonths installments of a loan that
// started at start. Installment i falls i calendar months after start
// (time.AddDate rules, so Jan 31 + 1 month is Mar 3 or Mar 2).
func GenerateSchedule(start time.Time, durationMonths int, installment decimal.Decimal, now time.Time) ([]Installment, error) {
	if durationMonths <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d months: %w", durationMonths, apperr.ErrInvalidArgument)
	}

	schedule := make([]Installment, 0, durationMonths)
	for i := 1; i <= durationMonths; i++ {
		due := start.AddDate(0, i, 0)
		schedule = append(schedule, Installment{
			Number:  i,
			DueDate: due,
			Amount:  installment,
			Status:  installmentStatus(due, now),
		})
	}
	return schedule, nil
}

func installmentStatus(due, now time.Time) InstallmentStatus {
	if due.Before(now) {
		return InstallmentPaid
	}
	local := due.In(now.Location())
	if local.Year() == now.Year() && local.Month() == now.Month() {
		return InstallmentDue
	}
	return InstallmentUpcoming
}

// ScheduleFor builds the schedule of a loan straight from its terms.
func ScheduleFor(principal decimal.Decimal, durationMonths int, start, now time.Time) ([]Installment, error) {
	m, err := ComputeMetrics(principal, durationMonths, start, now)
	if err != nil {
		return nil, err
	}
	return GenerateSchedule(start, durationMonths, m.MonthlyInstallment, now)
}
