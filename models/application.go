package models

import (
	"time"

	"github.com/Visionatedigital/M-and-T/loans"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LoanApplication struct {
	ID                 uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	UserID             *uuid.UUID          `json:"user_id" gorm:"type:uuid;index"`
	FullName           string              `json:"full_name" gorm:"not null"`
	Email              string              `json:"email" gorm:"not null"`
	PhoneNumber        string              `json:"phone_number" gorm:"not null"`
	IDNumber           string              `json:"-" gorm:"not null"` // AES encrypted
	DateOfBirth        time.Time           `json:"date_of_birth" gorm:"not null"`
	Address            string              `json:"address" gorm:"not null"`
	EmploymentStatus   string              `json:"employment_status" gorm:"not null"`
	EmployerName       *string             `json:"employer_name"`
	MonthlyIncome      decimal.NullDecimal `json:"monthly_income" gorm:"type:decimal(20,2)"`
	LoanProduct        string              `json:"loan_product" gorm:"not null"`
	LoanAmount         decimal.Decimal     `json:"loan_amount" gorm:"type:decimal(20,2);not null"`
	LoanDurationMonths int                 `json:"loan_duration_months" gorm:"not null"`
	LoanPurpose        string              `json:"loan_purpose" gorm:"not null"`
	Status             loans.Status        `json:"status" gorm:"default:pending;index"`
	AssignedOfficerID  *uuid.UUID          `json:"assigned_officer_id" gorm:"type:uuid"`
	RejectionReason    *string             `json:"rejection_reason"`
	CreatedAt          time.Time           `json:"created_at" gorm:"index"`
	UpdatedAt          time.Time           `json:"updated_at"`
	ReviewedAt         *time.Time          `json:"reviewed_at"`
	ApprovedAt         *time.Time          `json:"approved_at"`
}

func (a *LoanApplication) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = loans.StatusPending
	}
	return nil
}

// LoanStart is the instant repayments are counted from: approval, or
// submission for loans approved before approved_at was recorded.
func (a *LoanApplication) LoanStart() time.Time {
	if a.ApprovedAt != nil {
		return *a.ApprovedAt
	}
	return a.CreatedAt
}

// Metrics derives the loan figures as seen at now.
func (a *LoanApplication) Metrics(now time.Time) (loans.Metrics, error) {
	return loans.ComputeMetrics(a.LoanAmount, a.LoanDurationMonths, a.LoanStart(), now)
}

type ApplicationRequest struct {
	UserID             *uuid.UUID       `json:"user_id"`
	FullName           string           `json:"full_name" validate:"required,min=2"`
	Email              string           `json:"email" validate:"required,email"`
	PhoneNumber        string           `json:"phone_number" validate:"required,min=10,max=15"`
	IDNumber           string           `json:"id_number" validate:"required,min=5"`
	DateOfBirth        time.Time        `json:"date_of_birth" validate:"required"`
	Address            string           `json:"address" validate:"required,min=5"`
	EmploymentStatus   string           `json:"employment_status" validate:"required"`
	EmployerName       string           `json:"employer_name"`
	MonthlyIncome      *decimal.Decimal `json:"monthly_income"`
	LoanProduct        string           `json:"loan_product" validate:"required"`
	LoanAmount         decimal.Decimal  `json:"loan_amount"`
	LoanDurationMonths int              `json:"loan_duration_months" validate:"required,min=1,max=120"`
	LoanPurpose        string           `json:"loan_purpose" validate:"required,min=3"`
}

type TransitionRequest struct {
	Status          string `json:"status" validate:"required"`
	RejectionReason string `json:"rejection_reason"`
}

type QuoteRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	DurationMonths int             `json:"duration_months" validate:"required,min=1,max=120"`
}

// LoanStatistics is the portfolio headline shown on reports and handed to
// the assistant.
type LoanStatistics struct {
	TotalApplications   int64           `json:"total_applications"`
	ApprovedCount       int64           `json:"approved_count"`
	RejectedCount       int64           `json:"rejected_count"`
	PendingCount        int64           `json:"pending_count"`
	TotalAmountApproved decimal.Decimal `json:"total_amount_approved"`
	Currency            string          `json:"currency"`
}
