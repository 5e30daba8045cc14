package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/store"
	"github.com/Visionatedigital/M-and-T/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountService owns staff logins and the roles read by the authorization
// middleware.
type AccountService struct {
	db    *gorm.DB
	users *store.Table[models.User]
	roles *store.Table[models.UserRole]
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{
		db:    db,
		users: store.NewTable[models.User](db),
		roles: store.NewTable[models.UserRole](db),
	}
}

// Register creates an account with its profile and role. A matching admin
// code grants admin. Anyone else starts as a client and only becomes staff
// when an admin grants loan_officer.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest, adminCode string) (*models.User, []authz.Role, error) {
	role := authz.RoleClient
	if req.AdminCode != "" {
		if req.AdminCode != adminCode {
			return nil, nil, fmt.Errorf("invalid admin code: %w", apperr.ErrInvalidArgument)
		}
		role = authz.RoleAdmin
	}

	email := strings.ToLower(utils.SanitizeString(req.Email))
	if _, err := s.users.First(ctx, store.Where(store.Eq("email", email))); err == nil {
		return nil, nil, fmt.Errorf("user %s already exists: %w", email, apperr.ErrConflict)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, err
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:     email,
		Password:  hashed,
		FirstName: utils.SanitizeString(req.FirstName),
		LastName:  utils.SanitizeString(req.LastName),
		IsActive:  true,
	}
	err = store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := store.NewTable[models.User](tx).Insert(ctx, user); err != nil {
			return err
		}
		profile := &models.Profile{
			ID:          user.ID,
			FullName:    user.FirstName + " " + user.LastName,
			FirstName:   user.FirstName,
			LastName:    user.LastName,
			PhoneNumber: req.PhoneNumber,
		}
		if err := store.NewTable[models.Profile](tx).Insert(ctx, profile); err != nil {
			return err
		}
		return store.NewTable[models.UserRole](tx).Insert(ctx, &models.UserRole{UserID: user.ID, Role: string(role)})
	})
	if err != nil {
		return nil, nil, err
	}
	return user, []authz.Role{role}, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords look
// the same to the caller.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, []authz.Role, error) {
	email = strings.ToLower(utils.SanitizeString(email))
	user, err := s.users.First(ctx, store.Where(store.Eq("email", email)))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthenticated)
	}
	if err != nil {
		return nil, nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthenticated)
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("account %s is deactivated: %w", email, apperr.ErrUnauthorized)
	}

	roles, err := s.RolesOf(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, roles, nil
}

func (s *AccountService) RolesOf(ctx context.Context, userID uuid.UUID) ([]authz.Role, error) {
	rows, err := s.roles.Select(ctx, store.Where(store.Eq("user_id", userID)))
	if err != nil {
		return nil, err
	}
	roles := make([]authz.Role, len(rows))
	for i, r := range rows {
		roles[i] = authz.Role(r.Role)
	}
	return roles, nil
}

// GrantRole gives userID role unless it already has it.
func (s *AccountService) GrantRole(ctx context.Context, userID uuid.UUID, role authz.Role) error {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}
	n, err := s.roles.Count(ctx, store.Where(store.Eq("user_id", userID), store.Eq("role", string(role))))
	if err != nil || n > 0 {
		return err
	}
	return s.roles.Insert(ctx, &models.UserRole{UserID: userID, Role: string(role)})
}

// ensureClient returns the account registered under email, creating a client
// login with its profile on first contact. Every account it returns holds the
// client role. New client logins get a random password.
func ensureClient(ctx context.Context, tx *gorm.DB, email, fullName, phone string) (uuid.UUID, error) {
	users := store.NewTable[models.User](tx)
	first, last := splitName(fullName)

	user, err := users.First(ctx, store.Where(store.Eq("email", email)))
	if errors.Is(err, apperr.ErrNotFound) {
		hashed, err := utils.HashPassword(uuid.NewString())
		if err != nil {
			return uuid.Nil, fmt.Errorf("hash password: %w", err)
		}
		user = &models.User{Email: email, Password: hashed, FirstName: first, LastName: last, IsActive: true}
		if err := users.Insert(ctx, user); err != nil {
			return uuid.Nil, err
		}
	} else if err != nil {
		return uuid.Nil, err
	}

	profiles := store.NewTable[models.Profile](tx)
	if _, err := profiles.Get(ctx, user.ID); errors.Is(err, apperr.ErrNotFound) {
		profile := &models.Profile{ID: user.ID, FullName: fullName, FirstName: first, LastName: last, PhoneNumber: phone}
		if err := profiles.Insert(ctx, profile); err != nil {
			return uuid.Nil, err
		}
	} else if err != nil {
		return uuid.Nil, err
	}

	roles := store.NewTable[models.UserRole](tx)
	n, err := roles.Count(ctx, store.Where(store.Eq("user_id", user.ID), store.Eq("role", string(authz.RoleClient))))
	if err != nil {
		return uuid.Nil, err
	}
	if n == 0 {
		if err := roles.Insert(ctx, &models.UserRole{UserID: user.ID, Role: string(authz.RoleClient)}); err != nil {
			return uuid.Nil, err
		}
	}
	return user.ID, nil
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func (s *AccountService) Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return store.NewTable[models.Profile](s.db).Get(ctx, userID)
}

// UpdateProfile renames a staff member on both the login and the profile.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.ProfileRequest) (*models.Profile, error) {
	first := utils.SanitizeString(req.FirstName)
	last := utils.SanitizeString(req.LastName)

	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		n, err := store.NewTable[models.User](tx).Update(ctx, store.ByID(userID), map[string]interface{}{
			"first_name": first,
			"last_name":  last,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
		}
		_, err = store.NewTable[models.Profile](tx).Update(ctx, store.ByID(userID), map[string]interface{}{
			"first_name":   first,
			"last_name":    last,
			"full_name":    first + " " + last,
			"phone_number": req.PhoneNumber,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Profile(ctx, userID)
}
