package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Collateral struct {
	ID                 uuid.UUID             `json:"id" gorm:"type:uuid;primaryKey"`
	Type               string                `json:"type" gorm:"not null"`
	Description        string                `json:"description" gorm:"not null"`
	EstimatedValue     decimal.Decimal       `json:"estimated_value" gorm:"type:decimal(20,2);not null"`
	CurrentValue       decimal.NullDecimal   `json:"current_value" gorm:"type:decimal(20,2)"`
	Status             string                `json:"status" gorm:"default:pending_verification"`
	Location           *string               `json:"location"`
	RegistrationNumber *string               `json:"registration_number"`
	Notes              *string               `json:"notes"`
	LoanApplicationID  *uuid.UUID            `json:"loan_application_id" gorm:"type:uuid;index"`
	Insurance          []CollateralInsurance `json:"insurance,omitempty" gorm:"foreignKey:CollateralID"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

func (Collateral) TableName() string { return "collateral" }

func (c *Collateral) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	if c.Status == "" {
		c.Status = "pending_verification"
	}
	return nil
}

type CollateralInsurance struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	CollateralID     uuid.UUID       `json:"collateral_id" gorm:"type:uuid;not null;index"`
	PolicyNumber     string          `json:"policy_number" gorm:"not null"`
	InsuranceCompany string          `json:"insurance_company" gorm:"not null"`
	CoverageAmount   decimal.Decimal `json:"coverage_amount" gorm:"type:decimal(20,2);not null"`
	PremiumAmount    decimal.Decimal `json:"premium_amount" gorm:"type:decimal(20,2);not null"`
	StartDate        time.Time       `json:"start_date" gorm:"not null"`
	ExpiryDate       time.Time       `json:"expiry_date" gorm:"not null"`
	Status           string          `json:"status" gorm:"default:active"` // active, expired, cancelled
	Notes            *string         `json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (CollateralInsurance) TableName() string { return "collateral_insurance" }

func (i *CollateralInsurance) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	if i.Status == "" {
		i.Status = "active"
	}
	return nil
}

// CollateralView is a collateral row as listed to staff: the linked
// applicant's name and whether any policy currently covers it.
type CollateralView struct {
	Collateral
	ClientName         *string `json:"client_name"`
	HasActiveInsurance bool    `json:"has_active_insurance"`
}

type CollateralRequest struct {
	Type               string           `json:"type" validate:"required"`
	Description        string           `json:"description" validate:"required,min=3"`
	EstimatedValue     decimal.Decimal  `json:"estimated_value"`
	CurrentValue       *decimal.Decimal `json:"current_value"`
	Location           string           `json:"location"`
	RegistrationNumber string           `json:"registration_number"`
	Notes              string           `json:"notes"`
	LoanApplicationID  *uuid.UUID       `json:"loan_application_id"`
}

type InsuranceRequest struct {
	PolicyNumber     string          `json:"policy_number" validate:"required"`
	InsuranceCompany string          `json:"insurance_company" validate:"required"`
	CoverageAmount   decimal.Decimal `json:"coverage_amount"`
	PremiumAmount    decimal.Decimal `json:"premium_amount"`
	StartDate        time.Time       `json:"start_date" validate:"required"`
	ExpiryDate       time.Time       `json:"expiry_date" validate:"required,gtfield=StartDate"`
	Notes            string          `json:"notes"`
}
