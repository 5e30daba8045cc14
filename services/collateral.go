package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/store"
	"github.com/Visionatedigital/M-and-T/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CollateralService struct {
	collateral *store.Table[models.Collateral]
	insurance  *store.Table[models.CollateralInsurance]
	apps       *store.Table[models.LoanApplication]
	now        func() time.Time
}

func NewCollateralService(db *gorm.DB, now func() time.Time) *CollateralService {
	return &CollateralService{
		collateral: store.NewTable[models.Collateral](db),
		insurance:  store.NewTable[models.CollateralInsurance](db),
		apps:       store.NewTable[models.LoanApplication](db),
		now:        now,
	}
}

func (s *CollateralService) List(ctx context.Context) ([]models.CollateralView, error) {
	rows, err := s.collateral.Select(ctx, store.Filter{}.Newest("created_at").With("Insurance"))
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, rows)
}

func (s *CollateralService) Get(ctx context.Context, id uuid.UUID) (*models.CollateralView, error) {
	row, err := s.collateral.First(ctx, store.ByID(id).With("Insurance"))
	if err != nil {
		return nil, err
	}
	views, err := s.enrich(ctx, []models.Collateral{*row})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CollateralService) Create(ctx context.Context, req models.CollateralRequest) (*models.Collateral, error) {
	if !req.EstimatedValue.IsPositive() {
		return nil, fmt.Errorf("estimated value must be positive: %w", apperr.ErrInvalidArgument)
	}
	if req.LoanApplicationID != nil {
		if _, err := s.apps.Get(ctx, *req.LoanApplicationID); err != nil {
			return nil, fmt.Errorf("loan application %s: %w", req.LoanApplicationID, err)
		}
	}

	c := &models.Collateral{
		Type:               utils.SanitizeString(req.Type),
		Description:        utils.SanitizeString(req.Description),
		EstimatedValue:     req.EstimatedValue,
		Location:           optional(req.Location),
		RegistrationNumber: optional(req.RegistrationNumber),
		Notes:              optional(req.Notes),
		LoanApplicationID:  req.LoanApplicationID,
	}
	if req.CurrentValue != nil {
		c.CurrentValue = decimal.NewNullDecimal(*req.CurrentValue)
	}
	if err := s.collateral.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CollateralService) AddInsurance(ctx context.Context, collateralID uuid.UUID, req models.InsuranceRequest) (*models.CollateralInsurance, error) {
	if _, err := s.collateral.Get(ctx, collateralID); err != nil {
		return nil, err
	}
	if !req.CoverageAmount.IsPositive() || req.PremiumAmount.IsNegative() {
		return nil, fmt.Errorf("coverage must be positive and premium not negative: %w", apperr.ErrInvalidArgument)
	}

	ins := &models.CollateralInsurance{
		CollateralID:     collateralID,
		PolicyNumber:     utils.SanitizeString(req.PolicyNumber),
		InsuranceCompany: utils.SanitizeString(req.InsuranceCompany),
		CoverageAmount:   req.CoverageAmount,
		PremiumAmount:    req.PremiumAmount,
		StartDate:        req.StartDate,
		ExpiryDate:       req.ExpiryDate,
		Notes:            optional(req.Notes),
	}
	if err := s.insurance.Insert(ctx, ins); err != nil {
		return nil, err
	}
	return ins, nil
}

// enrich attaches the applicant name of the linked loan and whether an
// active, unexpired policy covers the item.
func (s *CollateralService) enrich(ctx context.Context, rows []models.Collateral) ([]models.CollateralView, error) {
	var appIDs []uuid.UUID
	for _, c := range rows {
		if c.LoanApplicationID != nil {
			appIDs = append(appIDs, *c.LoanApplicationID)
		}
	}

	names := make(map[uuid.UUID]string)
	if len(appIDs) > 0 {
		apps, err := s.apps.Select(ctx, store.Where(store.In("id", appIDs...)))
		if err != nil {
			return nil, err
		}
		for _, a := range apps {
			names[a.ID] = a.FullName
		}
	}

	now := s.now()
	views := make([]models.CollateralView, len(rows))
	for i, c := range rows {
		views[i].Collateral = c
		if c.LoanApplicationID != nil {
			if name, ok := names[*c.LoanApplicationID]; ok {
				views[i].ClientName = &name
			}
		}
		for _, ins := range c.Insurance {
			if ins.Status == "active" && ins.ExpiryDate.After(now) {
				views[i].HasActiveInsurance = true
				break
			}
		}
	}
	return views, nil
}
