// Package services implements the back-office operations on top of the
// store. Handlers and the assistant call into it; it never speaks HTTP.
package services

import (
	"time"

	"gorm.io/gorm"
)

type Options struct {
	// LegacyTransitions lets any known application status follow any other.
	LegacyTransitions bool
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

type Services struct {
	Accounts      *AccountService
	Applications  *ApplicationService
	Portfolio     *PortfolioService
	Organization  *OrganizationService
	Collateral    *CollateralService
	Conversations *ConversationService
	Audit         *AuditService
}

func New(db *gorm.DB, opts Options) *Services {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Services{
		Accounts:      NewAccountService(db),
		Applications:  NewApplicationService(db, opts.LegacyTransitions, now),
		Portfolio:     NewPortfolioService(db, now),
		Organization:  NewOrganizationService(db),
		Collateral:    NewCollateralService(db, now),
		Conversations: NewConversationService(db, now),
		Audit:         NewAuditService(db),
	}
}
