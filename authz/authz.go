// Package authz decides which staff members may use back-office operations.
package authz

import (
	"context"
	"fmt"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleLoanOfficer Role = "loan_officer"
	RoleClient      Role = "client"
)

// StaffRoles may use every back-office operation.
var StaffRoles = []Role{RoleAdmin, RoleLoanOfficer}

// Caller is the authenticated user behind a request.
type Caller struct {
	UserID uuid.UUID
	Email  string
	Roles  []Role
}

func (c *Caller) HasRole(roles ...Role) bool {
	if c == nil {
		return false
	}
	for _, have := range c.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Require fails with apperr.ErrUnauthorized unless c holds one of roles.
func Require(c *Caller, roles ...Role) error {
	if c.HasRole(roles...) {
		return nil
	}
	if c == nil {
		return fmt.Errorf("no authenticated caller: %w", apperr.ErrUnauthorized)
	}
	return fmt.Errorf("user %s lacks any of %v: %w", c.UserID, roles, apperr.ErrUnauthorized)
}

func RequireStaff(c *Caller) error {
	return Require(c, StaffRoles...)
}

type contextKey struct{}

func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

func FromContext(ctx context.Context) *Caller {
	c, _ := ctx.Value(contextKey{}).(*Caller)
	return c
}
