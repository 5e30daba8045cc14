package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/Visionatedigital/M-and-T/loans"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/store"
	"github.com/Visionatedigital/M-and-T/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ApplicationService struct {
	db       *gorm.DB
	apps     *store.Table[models.LoanApplication]
	profiles *store.Table[models.Profile]
	legacy   bool
	now      func() time.Time
}

func NewApplicationService(db *gorm.DB, legacyTransitions bool, now func() time.Time) *ApplicationService {
	return &ApplicationService{
		db:       db,
		apps:     store.NewTable[models.LoanApplication](db),
		profiles: store.NewTable[models.Profile](db),
		legacy:   legacyTransitions,
		now:      now,
	}
}

// Submit records a new application in the pending state. A user_id must
// name an existing profile.
func (s *ApplicationService) Submit(ctx context.Context, req models.ApplicationRequest) (*models.LoanApplication, error) {
	app, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	if req.UserID != nil {
		if _, err := s.profiles.Get(ctx, *req.UserID); errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("no client %s: %w", *req.UserID, apperr.ErrInvalidArgument)
		} else if err != nil {
			return nil, err
		}
		app.UserID = req.UserID
	}

	if err := s.apps.Insert(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Open records an application taken by staff on behalf of an applicant.
// The applicant is matched to a client account by email, which is created
// with its profile on first contact. The caller becomes the assigned officer.
func (s *ApplicationService) Open(ctx context.Context, caller *authz.Caller, req models.ApplicationRequest) (*models.LoanApplication, error) {
	if err := authz.RequireStaff(caller); err != nil {
		return nil, err
	}
	app, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	err = store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		clientID, err := ensureClient(ctx, tx, app.Email, app.FullName, app.PhoneNumber)
		if err != nil {
			return err
		}
		app.UserID = &clientID
		app.AssignedOfficerID = &caller.UserID
		return store.NewTable[models.LoanApplication](tx).Insert(ctx, app)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Application %s opened by %s for client %s", app.ID, caller.UserID, *app.UserID)
	return app, nil
}

// prepare validates req and builds the pending application it describes.
func (s *ApplicationService) prepare(req models.ApplicationRequest) (*models.LoanApplication, error) {
	if !req.LoanAmount.IsPositive() {
		return nil, fmt.Errorf("loan amount must be positive: %w", apperr.ErrInvalidArgument)
	}
	if !utils.IsValidAge(req.DateOfBirth, s.now()) {
		return nil, fmt.Errorf("applicant must be at least 18 years old: %w", apperr.ErrInvalidArgument)
	}
	if !utils.ValidatePhone(req.PhoneNumber) {
		return nil, fmt.Errorf("invalid phone number: %w", apperr.ErrInvalidArgument)
	}

	idNumber, err := utils.EncryptSensitiveData(utils.SanitizeString(req.IDNumber))
	if err != nil {
		return nil, fmt.Errorf("encrypt id number: %w", err)
	}

	app := &models.LoanApplication{
		FullName:           utils.SanitizeString(req.FullName),
		Email:              strings.ToLower(utils.SanitizeString(req.Email)),
		PhoneNumber:        req.PhoneNumber,
		IDNumber:           idNumber,
		DateOfBirth:        req.DateOfBirth,
		Address:            utils.SanitizeString(req.Address),
		EmploymentStatus:   req.EmploymentStatus,
		LoanProduct:        req.LoanProduct,
		LoanAmount:         req.LoanAmount,
		LoanDurationMonths: req.LoanDurationMonths,
		LoanPurpose:        utils.SanitizeString(req.LoanPurpose),
		Status:             loans.StatusPending,
	}
	if name := utils.SanitizeString(req.EmployerName); name != "" {
		app.EmployerName = &name
	}
	if req.MonthlyIncome != nil {
		app.MonthlyIncome = decimal.NewNullDecimal(*req.MonthlyIncome)
	}
	return app, nil
}

type ApplicationQuery struct {
	// Status is an application status or "all". "approved" also matches
	// disbursed loans.
	Status string
	Search string
}

func (s *ApplicationService) List(ctx context.Context, q ApplicationQuery) ([]models.LoanApplication, error) {
	f := store.Filter{}.Newest("created_at")

	switch q.Status {
	case "", "all":
	case string(loans.StatusApproved):
		f = f.And(store.In("status", loans.ActiveStatuses()...))
	default:
		status, err := loans.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		f = f.And(store.Eq("status", status))
	}

	if term := utils.SanitizeString(q.Search); term != "" {
		f = f.And(store.Search(term, "full_name", "email", "phone_number"))
	}
	return s.apps.Select(ctx, f)
}

type ApplicationDetails struct {
	Application *models.LoanApplication `json:"application"`
	IDNumber    string                  `json:"id_number"`
	Metrics     loans.Metrics           `json:"metrics"`
	Schedule    []loans.Installment     `json:"schedule,omitempty"`
}

// Details returns an application with its loan figures. Loans that are not
// running yet are shown as on their first day and carry no schedule.
func (s *ApplicationService) Details(ctx context.Context, id uuid.UUID) (*ApplicationDetails, error) {
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &ApplicationDetails{Application: app}
	if plain, err := utils.DecryptSensitiveData(app.IDNumber); err != nil {
		log.Printf("Failed to decrypt id number of application %s: %v", app.ID, err)
	} else {
		d.IDNumber = utils.MaskIdentifier(plain)
	}

	if !app.Status.Active() {
		d.Metrics, err = loans.Quote(app.LoanAmount, app.LoanDurationMonths)
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	now := s.now()
	if d.Metrics, err = app.Metrics(now); err != nil {
		return nil, err
	}
	d.Schedule, err = loans.GenerateSchedule(app.LoanStart(), app.LoanDurationMonths, d.Metrics.MonthlyInstallment, now)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Transition moves an application to target. The write only lands if the
// status is still the one the decision was made on.
func (s *ApplicationService) Transition(ctx context.Context, caller *authz.Caller, id uuid.UUID, target, reason string) (*models.LoanApplication, error) {
	if err := authz.RequireStaff(caller); err != nil {
		return nil, err
	}
	to, err := loans.ParseStatus(target)
	if err != nil {
		return nil, err
	}

	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch, err := loans.PlanTransition(app.Status, to, utils.SanitizeString(reason), s.now(), !s.legacy)
	if err != nil {
		return nil, err
	}

	f := store.ByID(id).And(store.Eq("status", app.Status))
	n, err := s.apps.Update(ctx, f, patch.Columns())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("application %s is no longer %s: %w", id, app.Status, apperr.ErrInvalidTransition)
	}

	log.Printf("Application %s moved %s -> %s by %s", id, app.Status, to, caller.UserID)
	return s.apps.Get(ctx, id)
}
