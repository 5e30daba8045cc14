package loans

import (
	"fmt"
	"time"

	"github.com/Visionatedigital/M-and-T/apperr"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusDisbursed   Status = "disbursed"
)

// DefaultRejectionReason is stored when a reviewer rejects without a reason.
const DefaultRejectionReason = "Application rejected"

var transitions = map[Status][]Status{
	StatusPending:     {StatusUnderReview, StatusApproved, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusDisbursed},
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusDisbursed:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q: %w", s, apperr.ErrInvalidArgument)
}

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusDisbursed
}

// Active reports whether the loan is part of the running portfolio.
// Disbursed loans are counted alongside approved ones everywhere.
func (s Status) Active() bool {
	return s == StatusApproved || s == StatusDisbursed
}

// ActiveStatuses is the portfolio filter used by list queries.
func ActiveStatuses() []Status {
	return []Status{StatusApproved, StatusDisbursed}
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Patch is the set of columns a transition writes. Nil fields are left as
// they are in the store.
type Patch struct {
	Status          Status
	UpdatedAt       time.Time
	ReviewedAt      *time.Time
	ApprovedAt      *time.Time
	RejectionReason *string
}

// Columns renders the patch for a gorm Updates call.
func (p Patch) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"status":     string(p.Status),
		"updated_at": p.UpdatedAt,
	}
	if p.ReviewedAt != nil {
		cols["reviewed_at"] = *p.ReviewedAt
	}
	if p.ApprovedAt != nil {
		cols["approved_at"] = *p.ApprovedAt
	}
	if p.RejectionReason != nil {
		cols["rejection_reason"] = *p.RejectionReason
	}
	return cols
}

// PlanTransition decides whether an application in status from may move to
// target and returns the columns to write. With enforce off any known status
// may follow any other, which matches the legacy back-office.
func PlanTransition(from, target Status, reason string, now time.Time, enforce bool) (Patch, error) {
	if _, err := ParseStatus(string(target)); err != nil {
		return Patch{}, err
	}
	if enforce {
		if from.Terminal() {
			return Patch{}, fmt.Errorf("application is %s: %w", from, apperr.ErrInvalidTransition)
		}
		if !CanTransition(from, target) {
			return Patch{}, fmt.Errorf("%s -> %s: %w", from, target, apperr.ErrInvalidTransition)
		}
	}

	p := Patch{Status: target, UpdatedAt: now}
	switch target {
	case StatusApproved:
		p.ApprovedAt = &now
		p.ReviewedAt = &now
	case StatusRejected:
		if reason == "" {
			reason = DefaultRejectionReason
		}
		p.RejectionReason = &reason
		p.ReviewedAt = &now
	case StatusUnderReview:
		p.ReviewedAt = &now
	}
	return p, nil
}
