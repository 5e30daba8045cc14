package handlers

import (
	"net/http"

	"github.com/Visionatedigital/M-and-T/authz"
)

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin loan_officer client"`
}

func (h *Handlers) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)

	logs, err := h.svc.Audit.Recent(r.Context(), limit, offset)
	if err != nil {
		sendServiceError(w, r, "Failed to fetch audit logs", err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// GrantRole gives a staff account another role. Granting a role the user
// already holds is a no-op.
func (h *Handlers) GrantRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.svc.Accounts.GrantRole(r.Context(), id, authz.Role(req.Role)); err != nil {
		sendServiceError(w, r, "Failed to grant role", err)
		return
	}
	h.auditCaller(r, "UPDATE", "USER_ROLE", id.String(), "Granted "+req.Role)

	roles, err := h.svc.Accounts.RolesOf(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, "Failed to fetch roles", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": id,
		"roles":   roleNames(roles),
	})
}
