package handlers

import (
	"net/http"

	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/utils"
)

// GetProfile returns the caller's profile together with the roles the
// request was authorized with.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller := authz.FromContext(r.Context())
	if caller == nil {
		sendError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	profile, err := h.svc.Accounts.Profile(r.Context(), caller.UserID)
	if err != nil {
		sendServiceError(w, r, "Failed to fetch profile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile": profile,
		"email":   caller.Email,
		"roles":   roleNames(caller.Roles),
	})
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller := authz.FromContext(r.Context())
	if caller == nil {
		sendError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	var req models.ProfileRequest
	if !decode(w, r, &req) {
		return
	}
	if req.PhoneNumber != "" && !utils.ValidatePhone(req.PhoneNumber) {
		sendError(w, http.StatusBadRequest, "Validation failed", map[string]string{"phone_number": "phone_number is not a valid phone number"})
		return
	}

	profile, err := h.svc.Accounts.UpdateProfile(r.Context(), caller.UserID, req)
	if err != nil {
		sendServiceError(w, r, "Failed to update profile", err)
		return
	}
	h.auditCaller(r, "UPDATE", "USER", caller.UserID.String(), "Profile updated")
	writeJSON(w, http.StatusOK, profile)
}
