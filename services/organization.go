package services

import (
	"context"
	"fmt"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/store"
	"github.com/Visionatedigital/M-and-T/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationService manages territories, branches and loan products.
type OrganizationService struct {
	territories *store.Table[models.Territory]
	branches    *store.Table[models.Branch]
	products    *store.Table[models.LoanProduct]
}

func NewOrganizationService(db *gorm.DB) *OrganizationService {
	return &OrganizationService{
		territories: store.NewTable[models.Territory](db),
		branches:    store.NewTable[models.Branch](db),
		products:    store.NewTable[models.LoanProduct](db),
	}
}

func (s *OrganizationService) Territories(ctx context.Context) ([]models.Territory, error) {
	return s.territories.Select(ctx, store.Filter{}.Oldest("name"))
}

func (s *OrganizationService) CreateTerritory(ctx context.Context, req models.TerritoryRequest) (*models.Territory, error) {
	t := &models.Territory{Name: utils.SanitizeString(req.Name)}
	if d := utils.SanitizeString(req.Description); d != "" {
		t.Description = &d
	}
	if err := s.territories.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *OrganizationService) Branches(ctx context.Context) ([]models.Branch, error) {
	return s.branches.Select(ctx, store.Filter{}.Oldest("name").With("Territory"))
}

func (s *OrganizationService) CreateBranch(ctx context.Context, req models.BranchRequest) (*models.Branch, error) {
	if err := s.checkTerritory(ctx, req.TerritoryID); err != nil {
		return nil, err
	}
	b := &models.Branch{
		Name:        utils.SanitizeString(req.Name),
		Code:        utils.SanitizeString(req.Code),
		Address:     utils.SanitizeString(req.Address),
		Status:      req.Status,
		ManagerID:   req.ManagerID,
		TerritoryID: req.TerritoryID,
	}
	if req.Phone != "" {
		b.Phone = &req.Phone
	}
	if req.Email != "" {
		b.Email = &req.Email
	}
	if err := s.branches.Insert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *OrganizationService) UpdateBranch(ctx context.Context, id uuid.UUID, req models.BranchRequest) (*models.Branch, error) {
	if err := s.checkTerritory(ctx, req.TerritoryID); err != nil {
		return nil, err
	}
	patch := map[string]interface{}{
		"name":         utils.SanitizeString(req.Name),
		"code":         utils.SanitizeString(req.Code),
		"address":      utils.SanitizeString(req.Address),
		"phone":        optional(req.Phone),
		"email":        optional(req.Email),
		"manager_id":   req.ManagerID,
		"territory_id": req.TerritoryID,
	}
	if req.Status != "" {
		patch["status"] = req.Status
	}

	n, err := s.branches.Update(ctx, store.ByID(id), patch)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("branch %s: %w", id, apperr.ErrNotFound)
	}
	return s.branches.First(ctx, store.ByID(id).With("Territory"))
}

func (s *OrganizationService) DeleteBranch(ctx context.Context, id uuid.UUID) error {
	n, err := s.branches.Delete(ctx, store.ByID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("branch %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *OrganizationService) Products(ctx context.Context) ([]models.LoanProduct, error) {
	return s.products.Select(ctx, store.Filter{}.Oldest("name"))
}

func (s *OrganizationService) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.LoanProduct, error) {
	if !req.MinAmount.IsPositive() || req.MaxAmount.LessThan(req.MinAmount) {
		return nil, fmt.Errorf("amount range %s..%s: %w", req.MinAmount, req.MaxAmount, apperr.ErrInvalidArgument)
	}
	if req.BaseInterestRate.IsNegative() || req.ProcessingFeePercentage.IsNegative() {
		return nil, fmt.Errorf("rates must not be negative: %w", apperr.ErrInvalidArgument)
	}

	p := &models.LoanProduct{
		Name:                    utils.SanitizeString(req.Name),
		Code:                    utils.SanitizeString(req.Code),
		BaseInterestRate:        req.BaseInterestRate,
		MinAmount:               req.MinAmount,
		MaxAmount:               req.MaxAmount,
		MinDurationMonths:       req.MinDurationMonths,
		MaxDurationMonths:       req.MaxDurationMonths,
		ProcessingFeePercentage: req.ProcessingFeePercentage,
	}
	if d := utils.SanitizeString(req.Description); d != "" {
		p.Description = &d
	}
	if req.LatePaymentPenaltyRate != nil {
		p.LatePaymentPenaltyRate.Decimal = *req.LatePaymentPenaltyRate
		p.LatePaymentPenaltyRate.Valid = true
	}
	if err := s.products.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *OrganizationService) checkTerritory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.territories.Get(ctx, *id); err != nil {
		return fmt.Errorf("territory %s: %w", id, err)
	}
	return nil
}

func optional(s string) *string {
	if s = utils.SanitizeString(s); s == "" {
		return nil
	}
	return &s
}
