package handlers

import (
	"net/http"

	"github.com/Visionatedigital/M-and-T/models"
)

func (h *Handlers) ListCollateral(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Collateral.List(r.Context())
	if err != nil {
		sendServiceError(w, r, "Failed to fetch collateral", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) GetCollateral(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.svc.Collateral.Get(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, "Failed to fetch collateral", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handlers) CreateCollateral(w http.ResponseWriter, r *http.Request) {
	var req models.CollateralRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.Collateral.Create(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, "Failed to register collateral", err)
		return
	}
	h.auditCaller(r, "CREATE", "COLLATERAL", c.ID.String(), c.Type+": "+c.Description)
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handlers) AddInsurance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.InsuranceRequest
	if !decode(w, r, &req) {
		return
	}
	policy, err := h.svc.Collateral.AddInsurance(r.Context(), id, req)
	if err != nil {
		sendServiceError(w, r, "Failed to add insurance", err)
		return
	}
	h.auditCaller(r, "CREATE", "COLLATERAL_INSURANCE", policy.ID.String(), "Policy "+policy.PolicyNumber+" on collateral "+id.String())
	writeJSON(w, http.StatusCreated, policy)
}
