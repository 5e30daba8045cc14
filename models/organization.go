package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Territory struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *Territory) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

type Branch struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string     `json:"name" gorm:"not null"`
	Code        string     `json:"code" gorm:"uniqueIndex;not null"`
	Address     string     `json:"address" gorm:"not null"`
	Phone       *string    `json:"phone"`
	Email       *string    `json:"email"`
	Status      string     `json:"status" gorm:"default:active"` // active, inactive
	ManagerID   *uuid.UUID `json:"manager_id" gorm:"type:uuid"`
	TerritoryID *uuid.UUID `json:"territory_id" gorm:"type:uuid;index"`
	Territory   *Territory `json:"territory,omitempty" gorm:"foreignKey:TerritoryID"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	if b.Status == "" {
		b.Status = "active"
	}
	return nil
}

type LoanProduct struct {
	ID                      uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	Name                    string              `json:"name" gorm:"not null"`
	Code                    string              `json:"code" gorm:"uniqueIndex;not null"`
	Description             *string             `json:"description"`
	BaseInterestRate        decimal.Decimal     `json:"base_interest_rate" gorm:"type:decimal(10,4);not null"`
	MinAmount               decimal.Decimal     `json:"min_amount" gorm:"type:decimal(20,2);not null"`
	MaxAmount               decimal.Decimal     `json:"max_amount" gorm:"type:decimal(20,2);not null"`
	MinDurationMonths       int                 `json:"min_duration_months" gorm:"not null"`
	MaxDurationMonths       int                 `json:"max_duration_months" gorm:"not null"`
	ProcessingFeePercentage decimal.Decimal     `json:"processing_fee_percentage" gorm:"type:decimal(10,4)"`
	LatePaymentPenaltyRate  decimal.NullDecimal `json:"late_payment_penalty_rate" gorm:"type:decimal(10,4)"`
	Status                  string              `json:"status" gorm:"default:active"`
	CreatedAt               time.Time           `json:"created_at"`
	UpdatedAt               time.Time           `json:"updated_at"`
}

func (p *LoanProduct) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = "active"
	}
	return nil
}

type TerritoryRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
}

type BranchRequest struct {
	Name        string     `json:"name" validate:"required,min=2"`
	Code        string     `json:"code" validate:"required,min=2,max=20"`
	Address     string     `json:"address" validate:"required"`
	Phone       string     `json:"phone" validate:"omitempty,min=10,max=15"`
	Email       string     `json:"email" validate:"omitempty,email"`
	Status      string     `json:"status" validate:"omitempty,oneof=active inactive"`
	ManagerID   *uuid.UUID `json:"manager_id"`
	TerritoryID *uuid.UUID `json:"territory_id"`
}

type ProductRequest struct {
	Name                    string           `json:"name" validate:"required,min=2"`
	Code                    string           `json:"code" validate:"required,min=2,max=20"`
	Description             string           `json:"description"`
	BaseInterestRate        decimal.Decimal  `json:"base_interest_rate"`
	MinAmount               decimal.Decimal  `json:"min_amount"`
	MaxAmount               decimal.Decimal  `json:"max_amount"`
	MinDurationMonths       int              `json:"min_duration_months" validate:"required,min=1"`
	MaxDurationMonths       int              `json:"max_duration_months" validate:"required,gtefield=MinDurationMonths"`
	ProcessingFeePercentage decimal.Decimal  `json:"processing_fee_percentage"`
	LatePaymentPenaltyRate  *decimal.Decimal `json:"late_payment_penalty_rate"`
}
