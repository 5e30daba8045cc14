package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/Visionatedigital/M-and-T/database"
	"github.com/Visionatedigital/M-and-T/loans"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Initialize("sqlite", "file:"+name+"?mode=memory&cache=shared", false)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedApplication(t *testing.T, tbl *Table[models.LoanApplication], name string, status loans.Status, amount int64, created time.Time) *models.LoanApplication {
	t.Helper()
	app := &models.LoanApplication{
		FullName:           name,
		Email:              strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		PhoneNumber:        "0700000000",
		IDNumber:           "CM000",
		DateOfBirth:        time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Address:            "Plot 1, Kampala",
		EmploymentStatus:   "self_employed",
		LoanProduct:        "business",
		LoanAmount:         decimal.NewFromInt(amount),
		LoanDurationMonths: 12,
		LoanPurpose:        "stock",
		Status:             status,
		CreatedAt:          created,
		UpdatedAt:          created,
	}
	if err := tbl.Insert(context.Background(), app); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return app
}

func TestTableSelectFilterOrderLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	apps := NewTable[models.LoanApplication](db)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seedApplication(t, apps, "Amina Nakato", loans.StatusApproved, 100, base)
	seedApplication(t, apps, "Brian Okello", loans.StatusPending, 200, base.Add(time.Hour))
	seedApplication(t, apps, "Carol Atim", loans.StatusApproved, 300, base.Add(2*time.Hour))
	seedApplication(t, apps, "David Mugisha", loans.StatusDisbursed, 400, base.Add(3*time.Hour))

	rows, err := apps.Select(ctx, Where(Eq("status", loans.StatusApproved)).Newest("created_at"))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rows) != 2 || rows[0].FullName != "Carol Atim" || rows[1].FullName != "Amina Nakato" {
		t.Errorf("Expected Carol then Amina, got %+v", names(rows))
	}

	rows, err = apps.Select(ctx, Where(In("status", loans.ActiveStatuses()...)).Oldest("created_at").Take(2))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got := names(rows); len(got) != 2 || got[0] != "Amina Nakato" || got[1] != "Carol Atim" {
		t.Errorf("Expected first two active loans, got %v", got)
	}

	rows, err = apps.Select(ctx, Where(Search("OKEL", "full_name", "email")))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got := names(rows); len(got) != 1 || got[0] != "Brian Okello" {
		t.Errorf("Expected case-insensitive search to find Brian, got %v", got)
	}
}

func TestTableAggregates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	apps := NewTable[models.LoanApplication](db)
	now := time.Now().UTC()

	seedApplication(t, apps, "A", loans.StatusApproved, 1_000_000, now)
	seedApplication(t, apps, "B", loans.StatusApproved, 500_000, now)
	seedApplication(t, apps, "C", loans.StatusRejected, 250_000, now)

	n, err := apps.Count(ctx, Where(Eq("status", loans.StatusApproved)))
	if err != nil || n != 2 {
		t.Errorf("Expected 2 approved, got %d (%v)", n, err)
	}

	sum, err := apps.Sum(ctx, Where(Eq("status", loans.StatusApproved)), "loan_amount")
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(1_500_000)) {
		t.Errorf("Expected sum 1500000, got %s", sum)
	}

	sum, err = apps.Sum(ctx, Where(Eq("status", loans.StatusDisbursed)), "loan_amount")
	if err != nil || !sum.IsZero() {
		t.Errorf("Expected empty sum to be zero, got %s (%v)", sum, err)
	}
}

func TestTableFirstAndNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	apps := NewTable[models.LoanApplication](db)
	app := seedApplication(t, apps, "Esther Namuli", loans.StatusPending, 100, time.Now().UTC())

	got, err := apps.Get(ctx, app.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.FullName != "Esther Namuli" || got.Status != loans.StatusPending {
		t.Errorf("Unexpected row %+v", got)
	}

	if _, err := apps.Get(ctx, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTableUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	apps := NewTable[models.LoanApplication](db)
	app := seedApplication(t, apps, "Faith Akello", loans.StatusPending, 100, time.Now().UTC())

	n, err := apps.Update(ctx, ByID(app.ID).And(Eq("status", loans.StatusPending)), map[string]interface{}{
		"status": string(loans.StatusUnderReview),
	})
	if err != nil || n != 1 {
		t.Fatalf("Expected one row updated, got %d (%v)", n, err)
	}

	n, err = apps.Update(ctx, ByID(app.ID).And(Eq("status", loans.StatusPending)), map[string]interface{}{
		"status": string(loans.StatusApproved),
	})
	if err != nil || n != 0 {
		t.Errorf("Expected stale update to touch nothing, got %d (%v)", n, err)
	}

	if _, err := apps.Update(ctx, Filter{}, map[string]interface{}{"status": "x"}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("Expected unfiltered update to be refused, got %v", err)
	}
	if _, err := apps.Delete(ctx, Filter{}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("Expected unfiltered delete to be refused, got %v", err)
	}

	n, err = apps.Delete(ctx, ByID(app.ID))
	if err != nil || n != 1 {
		t.Errorf("Expected one row deleted, got %d (%v)", n, err)
	}
	if _, err := apps.Get(ctx, app.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected deleted row to be gone, got %v", err)
	}
}

func TestTransactRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := Transact(ctx, db, func(tx *gorm.DB) error {
		if err := NewTable[models.Territory](tx).Insert(ctx, &models.Territory{Name: "Central"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	n, err := NewTable[models.Territory](db).Count(ctx, Filter{})
	if err != nil || n != 0 {
		t.Errorf("Expected rollback to leave no territories, got %d (%v)", n, err)
	}
}

func names(rows []models.LoanApplication) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.FullName
	}
	return out
}
