package loans

import (
	"errors"
	"testing"
	"time"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/shopspring/decimal"
)

func TestGenerateSchedule_Statuses(t *testing.T) {
	start := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	schedule, err := GenerateSchedule(start, 3, decimal.NewFromInt(100), now)
	if err != nil {
		t.Fatalf("GenerateSchedule failed: %v", err)
	}
	if len(schedule) != 3 {
		t.Fatalf("Expected 3 installments, got %d", len(schedule))
	}

	want := []struct {
		due    time.Time
		status InstallmentStatus
	}{
		{time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC), InstallmentPaid},
		{time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC), InstallmentDue},
		{time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC), InstallmentUpcoming},
	}
	for i, w := range want {
		got := schedule[i]
		if got.Number != i+1 {
			t.Errorf("Installment %d: expected number %d, got %d", i, i+1, got.Number)
		}
		if !got.DueDate.Equal(w.due) {
			t.Errorf("Installment %d: expected due %s, got %s", i+1, w.due, got.DueDate)
		}
		if got.Status != w.status {
			t.Errorf("Installment %d: expected status %s, got %s", i+1, w.status, got.Status)
		}
		if !got.Amount.Equal(decimal.NewFromInt(100)) {
			t.Errorf("Installment %d: expected amount 100, got %s", i+1, got.Amount)
		}
	}
}

func TestGenerateSchedule_MonthEndRollsOver(t *testing.T) {
	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	schedule, err := GenerateSchedule(start, 2, decimal.NewFromInt(1), start)
	if err != nil {
		t.Fatalf("GenerateSchedule failed: %v", err)
	}
	if want := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC); !schedule[0].DueDate.Equal(want) {
		t.Errorf("Expected first due date %s, got %s", want, schedule[0].DueDate)
	}
	if want := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC); !schedule[1].DueDate.Equal(want) {
		t.Errorf("Expected second due date %s, got %s", want, schedule[1].DueDate)
	}
}

func TestGenerateSchedule_SumsToTotal(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	principal := decimal.NewFromInt(1_000_000)

	schedule, err := ScheduleFor(principal, 12, start, start)
	if err != nil {
		t.Fatalf("ScheduleFor failed: %v", err)
	}
	sum := decimal.Zero
	for _, inst := range schedule {
		sum = sum.Add(inst.Amount)
		if inst.Status != InstallmentUpcoming {
			t.Errorf("Installment %d: expected upcoming on day one, got %s", inst.Number, inst.Status)
		}
	}
	if got := sum.StringFixed(0); got != "1300000" {
		t.Errorf("Expected installments to add up to 1300000, got %s", got)
	}
}

func TestGenerateSchedule_InvalidDuration(t *testing.T) {
	_, err := GenerateSchedule(time.Now(), 0, decimal.NewFromInt(1), time.Now())
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}
