package services

import (
	"context"
	"log"
	"time"

	"github.com/Visionatedigital/M-and-T/loans"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PortfolioService struct {
	apps     *store.Table[models.LoanApplication]
	profiles *store.Table[models.Profile]
	now      func() time.Time
}

func NewPortfolioService(db *gorm.DB, now func() time.Time) *PortfolioService {
	return &PortfolioService{
		apps:     store.NewTable[models.LoanApplication](db),
		profiles: store.NewTable[models.Profile](db),
		now:      now,
	}
}

type LoanView struct {
	models.LoanApplication
	Metrics loans.Metrics `json:"metrics"`
}

type PortfolioTotals struct {
	Loans            int             `json:"loans"`
	TotalPrincipal   decimal.Decimal `json:"total_principal"`
	TotalPayable     decimal.Decimal `json:"total_payable"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	Currency         string          `json:"currency"`
}

// ActiveLoans lists approved and disbursed loans, most recently approved
// first, with their figures as of now.
func (s *PortfolioService) ActiveLoans(ctx context.Context) ([]LoanView, PortfolioTotals, error) {
	totals := PortfolioTotals{Currency: loans.Currency}

	rows, err := s.apps.Select(ctx, store.Where(store.In("status", loans.ActiveStatuses()...)).
		Newest("approved_at").Newest("created_at"))
	if err != nil {
		return nil, totals, err
	}

	now := s.now()
	views := make([]LoanView, 0, len(rows))
	for _, app := range rows {
		m, err := app.Metrics(now)
		if err != nil {
			log.Printf("Skipping loan %s with unusable terms: %v", app.ID, err)
			continue
		}
		views = append(views, LoanView{LoanApplication: app, Metrics: m})
		totals.Loans++
		totals.TotalPrincipal = totals.TotalPrincipal.Add(m.Principal)
		totals.TotalPayable = totals.TotalPayable.Add(m.TotalPayable)
		totals.TotalCollected = totals.TotalCollected.Add(m.AmountPaid)
		totals.TotalOutstanding = totals.TotalOutstanding.Add(m.RemainingBalance)
	}
	return views, totals, nil
}

type RepaymentEntry struct {
	ApplicationID uuid.UUID `json:"application_id"`
	FullName      string    `json:"full_name"`
	PhoneNumber   string    `json:"phone_number"`
	loans.Installment
}

type RepaymentTotals struct {
	Installments int             `json:"installments"`
	Paid         decimal.Decimal `json:"paid"`
	Due          decimal.Decimal `json:"due"`
	Upcoming     decimal.Decimal `json:"upcoming"`
	Currency     string          `json:"currency"`
}

// Repayments flattens the schedules of every running loan into one board.
func (s *PortfolioService) Repayments(ctx context.Context) ([]RepaymentEntry, RepaymentTotals, error) {
	totals := RepaymentTotals{Currency: loans.Currency}

	views, _, err := s.ActiveLoans(ctx)
	if err != nil {
		return nil, totals, err
	}

	now := s.now()
	var entries []RepaymentEntry
	for _, v := range views {
		schedule, err := loans.GenerateSchedule(v.LoanStart(), v.LoanDurationMonths, v.Metrics.MonthlyInstallment, now)
		if err != nil {
			log.Printf("Skipping schedule of loan %s: %v", v.ID, err)
			continue
		}
		for _, inst := range schedule {
			entries = append(entries, RepaymentEntry{
				ApplicationID: v.ID,
				FullName:      v.FullName,
				PhoneNumber:   v.PhoneNumber,
				Installment:   inst,
			})
			totals.Installments++
			switch inst.Status {
			case loans.InstallmentPaid:
				totals.Paid = totals.Paid.Add(inst.Amount)
			case loans.InstallmentDue:
				totals.Due = totals.Due.Add(inst.Amount)
			default:
				totals.Upcoming = totals.Upcoming.Add(inst.Amount)
			}
		}
	}
	return entries, totals, nil
}

// Clients rolls every profile's loans up into a summary, newest profile
// first. Borrowed counts principal plus interest over all applications;
// repaid counts only running loans.
func (s *PortfolioService) Clients(ctx context.Context, search string) ([]models.ClientSummary, error) {
	f := store.Filter{}.Newest("created_at")
	if search != "" {
		f = f.And(store.Search(search, "full_name", "phone_number"))
	}
	profiles, err := s.profiles.Select(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return []models.ClientSummary{}, nil
	}

	ids := make([]uuid.UUID, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	apps, err := s.apps.Select(ctx, store.Where(store.In("user_id", ids...)))
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID][]models.LoanApplication)
	for _, app := range apps {
		if app.UserID != nil {
			byUser[*app.UserID] = append(byUser[*app.UserID], app)
		}
	}

	now := s.now()
	summaries := make([]models.ClientSummary, 0, len(profiles))
	for _, p := range profiles {
		sum := models.ClientSummary{Profile: p}
		for _, app := range byUser[p.ID] {
			sum.TotalLoans++
			m, err := app.Metrics(now)
			if err != nil {
				continue
			}
			sum.TotalBorrowed = sum.TotalBorrowed.Add(m.TotalPayable)
			if app.Status.Active() {
				sum.ActiveLoans++
				sum.TotalRepaid = sum.TotalRepaid.Add(m.AmountPaid)
			}
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// Stats is the portfolio headline. Approved counts and amounts match the
// approved status exactly.
func (s *PortfolioService) Stats(ctx context.Context) (models.LoanStatistics, error) {
	stats := models.LoanStatistics{Currency: loans.Currency}
	var err error

	if stats.TotalApplications, err = s.apps.Count(ctx, store.Filter{}); err != nil {
		return stats, err
	}
	approved := store.Where(store.Eq("status", loans.StatusApproved))
	if stats.ApprovedCount, err = s.apps.Count(ctx, approved); err != nil {
		return stats, err
	}
	if stats.RejectedCount, err = s.apps.Count(ctx, store.Where(store.Eq("status", loans.StatusRejected))); err != nil {
		return stats, err
	}
	if stats.PendingCount, err = s.apps.Count(ctx, store.Where(store.Eq("status", loans.StatusPending))); err != nil {
		return stats, err
	}
	if stats.TotalAmountApproved, err = s.apps.Sum(ctx, approved, "loan_amount"); err != nil {
		return stats, err
	}
	return stats, nil
}
