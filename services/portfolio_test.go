package services

import (
	"context"
	"testing"
	"time"

	"github.com/Visionatedigital/M-and-T/loans"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestActiveLoans(t *testing.T) {
	svc, db := newTestServices(t, Options{})
	sixMonthsAgo := testNow.Add(-6 * 30 * 24 * time.Hour)

	seedApp(t, db, appSeed{name: "Amina Nakato", status: loans.StatusApproved, amount: 1_000_000, approved: &sixMonthsAgo})
	seedApp(t, db, appSeed{name: "Brian Okello", status: loans.StatusDisbursed, amount: 600_000, months: 6, approved: &testNow})
	seedApp(t, db, appSeed{name: "Carol Atim", status: loans.StatusPending, amount: 900_000})

	views, totals, err := svc.Portfolio.ActiveLoans(context.Background())
	if err != nil {
		t.Fatalf("ActiveLoans failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("Expected 2 running loans, got %d", len(views))
	}
	if views[0].FullName != "Brian Okello" {
		t.Errorf("Expected most recently approved first, got %s", views[0].FullName)
	}

	amina := views[1].Metrics
	if !amina.TotalPayable.Equal(decimal.NewFromInt(1_300_000)) ||
		amina.MonthlyInstallment.StringFixed(2) != "108333.33" ||
		amina.MonthsElapsed != 6 ||
		!amina.AmountPaid.Equal(decimal.NewFromInt(650_000)) ||
		!amina.RemainingBalance.Equal(decimal.NewFromInt(650_000)) ||
		!amina.GrowthRate.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Unexpected metrics %+v", amina)
	}

	if totals.Loans != 2 ||
		!totals.TotalPrincipal.Equal(decimal.NewFromInt(1_600_000)) ||
		!totals.TotalPayable.Equal(decimal.NewFromInt(2_080_000)) ||
		!totals.TotalCollected.Equal(decimal.NewFromInt(650_000)) ||
		!totals.TotalOutstanding.Equal(decimal.NewFromInt(1_430_000)) {
		t.Errorf("Unexpected totals %+v", totals)
	}
	if totals.Currency != "UGX" {
		t.Errorf("Expected UGX, got %s", totals.Currency)
	}
}

func TestRepayments(t *testing.T) {
	svc, db := newTestServices(t, Options{})
	approved := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
	seedApp(t, db, appSeed{name: "Dora Apio", status: loans.StatusApproved, amount: 300_000, months: 3, approved: &approved})
	seedApp(t, db, appSeed{name: "Eddie Kato", status: loans.StatusRejected, amount: 300_000, months: 3})

	entries, totals, err := svc.Portfolio.Repayments(context.Background())
	if err != nil {
		t.Fatalf("Repayments failed: %v", err)
	}
	if len(entries) != 3 || totals.Installments != 3 {
		t.Fatalf("Expected 3 installments, got %d", len(entries))
	}
	// Due May 10, Jun 10 (both before Jul 1) and Jul 10 (this month).
	want := []loans.InstallmentStatus{loans.InstallmentPaid, loans.InstallmentPaid, loans.InstallmentDue}
	for i, e := range entries {
		if e.FullName != "Dora Apio" || e.Status != want[i] {
			t.Errorf("Entry %d: expected Dora %s, got %s %s", i, want[i], e.FullName, e.Status)
		}
	}
	if !totals.Paid.Equal(decimal.NewFromInt(260_000)) || !totals.Due.Equal(decimal.NewFromInt(130_000)) || !totals.Upcoming.IsZero() {
		t.Errorf("Unexpected totals %+v", totals)
	}
}

func TestClients(t *testing.T) {
	svc, db := newTestServices(t, Options{})
	ctx := context.Background()
	profiles := store.NewTable[models.Profile](db)

	fatuma := &models.Profile{ID: uuid.New(), FullName: "Fatuma Nansubuga", PhoneNumber: "0772111222", CreatedAt: testNow.Add(-time.Hour)}
	george := &models.Profile{ID: uuid.New(), FullName: "George Byaruhanga", CreatedAt: testNow.Add(-48 * time.Hour)}
	for _, p := range []*models.Profile{fatuma, george} {
		if err := profiles.Insert(ctx, p); err != nil {
			t.Fatalf("Failed to seed profile: %v", err)
		}
	}

	threeMonthsAgo := testNow.Add(-3 * 30 * 24 * time.Hour)
	seedApp(t, db, appSeed{name: "Fatuma Nansubuga", userID: &fatuma.ID, status: loans.StatusApproved, amount: 1_200_000, approved: &threeMonthsAgo})
	seedApp(t, db, appSeed{name: "Fatuma Nansubuga", userID: &fatuma.ID, status: loans.StatusRejected, amount: 100_000})

	summaries, err := svc.Portfolio.Clients(ctx, "")
	if err != nil {
		t.Fatalf("Clients failed: %v", err)
	}
	if len(summaries) != 2 || summaries[0].FullName != "Fatuma Nansubuga" {
		t.Fatalf("Expected two clients newest first, got %+v", summaries)
	}

	f := summaries[0]
	if f.TotalLoans != 2 || f.ActiveLoans != 1 {
		t.Errorf("Expected 2 loans, 1 active, got %d and %d", f.TotalLoans, f.ActiveLoans)
	}
	// 1,560,000 + 130,000
	if !f.TotalBorrowed.Equal(decimal.NewFromInt(1_690_000)) {
		t.Errorf("Expected total borrowed 1690000, got %s", f.TotalBorrowed)
	}
	// 1,560,000 / 12 * 3
	if !f.TotalRepaid.Equal(decimal.NewFromInt(390_000)) {
		t.Errorf("Expected total repaid 390000, got %s", f.TotalRepaid)
	}
	if g := summaries[1]; g.TotalLoans != 0 || !g.TotalBorrowed.IsZero() {
		t.Errorf("Expected George to have no loans, got %+v", g)
	}

	found, _ := svc.Portfolio.Clients(ctx, "BYARU")
	if len(found) != 1 || found[0].ID != george.ID {
		t.Errorf("Expected search to find George, got %+v", found)
	}
}

func TestStats(t *testing.T) {
	svc, db := newTestServices(t, Options{})
	seedApp(t, db, appSeed{name: "A", status: loans.StatusApproved, amount: 1_000_000})
	seedApp(t, db, appSeed{name: "B", status: loans.StatusApproved, amount: 250_000})
	seedApp(t, db, appSeed{name: "C", status: loans.StatusDisbursed, amount: 400_000})
	seedApp(t, db, appSeed{name: "D", status: loans.StatusRejected, amount: 50_000})
	seedApp(t, db, appSeed{name: "E", status: loans.StatusPending, amount: 75_000})

	stats, err := svc.Portfolio.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalApplications != 5 || stats.ApprovedCount != 2 || stats.RejectedCount != 1 || stats.PendingCount != 1 {
		t.Errorf("Unexpected counts %+v", stats)
	}
	if !stats.TotalAmountApproved.Equal(decimal.NewFromInt(1_250_000)) {
		t.Errorf("Expected 1250000 across approved loans, got %s", stats.TotalAmountApproved)
	}
	if stats.Currency != "UGX" {
		t.Errorf("Expected UGX, got %s", stats.Currency)
	}
}
