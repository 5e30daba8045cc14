package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/Visionatedigital/M-and-T/utils"
	"github.com/google/uuid"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

// RoleLoader resolves the roles of an authenticated user. Roles are read on
// every request so that a revoked role takes effect before the token expires.
type RoleLoader interface {
	RolesOf(ctx context.Context, userID uuid.UUID) ([]authz.Role, error)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"error":     msg,
		"timestamp": time.Now(),
	})
}

// JWTAuth accepts requests carrying a valid bearer token and attaches the
// token claims and the caller, with its roles, to the request context.
func JWTAuth(roles RoleLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Printf("No Authorization header found for %s", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			bearerToken := strings.Split(authHeader, " ")
			if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
				log.Printf("Invalid Authorization header format for %s", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := utils.ValidateToken(bearerToken[1])
			if err != nil {
				log.Printf("Token validation failed for %s: %v", r.URL.Path, err)
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			granted, err := roles.RolesOf(r.Context(), claims.UserID)
			if err != nil {
				log.Printf("Failed to load roles of %s: %v", claims.UserID, err)
				writeError(w, http.StatusInternalServerError, "Failed to load user roles")
				return
			}

			caller := &authz.Caller{UserID: claims.UserID, Email: claims.Email, Roles: granted}
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			ctx = authz.WithCaller(ctx, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles lets a request through only when the caller JWTAuth attached
// holds one of roles.
func RequireRoles(roles ...authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := authz.FromContext(r.Context())
			if caller == nil {
				log.Printf("No caller found in context for %s", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "Unauthorized - No user context")
				return
			}
			if err := authz.Require(caller, roles...); err != nil {
				log.Printf("User %s denied access to %s: %v", caller.UserID, r.URL.Path, err)
				writeError(w, http.StatusForbidden, "Insufficient privileges")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireStaff(next http.Handler) http.Handler {
	return RequireRoles(authz.StaffRoles...)(next)
}

func GetClaimsFromContext(r *http.Request) *utils.Claims {
	if claims, ok := r.Context().Value(ClaimsContextKey).(*utils.Claims); ok {
		return claims
	}
	return nil
}
