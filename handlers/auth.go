package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/utils"
)

const tokenTTL = 24 * time.Hour

func roleNames(roles []authz.Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if req.PhoneNumber != "" && !utils.ValidatePhone(req.PhoneNumber) {
		sendError(w, http.StatusBadRequest, "Validation failed", map[string]string{"phone_number": "phone_number is not a valid phone number"})
		return
	}

	user, roles, err := h.svc.Accounts.Register(r.Context(), req, h.config.AdminCode)
	if err != nil {
		log.Printf("Registration of %s failed: %v", req.Email, err)
		sendServiceError(w, r, "Registration failed", err)
		return
	}

	log.Printf("User created successfully: ID=%s, Email=%s, Roles=%v", user.ID, user.Email, roles)

	auditDetails := "Staff member registered"
	if len(roles) == 1 && roles[0] == authz.RoleAdmin {
		auditDetails = "Admin registered with admin code"
	}
	h.logAudit(r, &user.ID, "CREATE", "USER", user.ID.String(), auditDetails)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    user,
		"roles":   roleNames(roles),
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, roles, err := h.svc.Accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("Login failed for %s: %v", req.Email, err)
		sendServiceError(w, r, "Login failed", err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, tokenTTL)
	if err != nil {
		log.Printf("Failed to generate token for user %s: %v", req.Email, err)
		sendError(w, http.StatusInternalServerError, "Failed to generate token", nil)
		return
	}

	h.logAudit(r, &user.ID, "LOGIN", "AUTH", user.ID.String(), "User logged in")
	log.Printf("Login successful for %s, roles: %v", user.Email, roles)

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token: token,
		User:  *user,
		Roles: roleNames(roles),
	})
}
