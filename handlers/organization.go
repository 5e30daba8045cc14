package handlers

import (
	"net/http"

	"github.com/Visionatedigital/M-and-T/models"
)

func (h *Handlers) ListTerritories(w http.ResponseWriter, r *http.Request) {
	territories, err := h.svc.Organization.Territories(r.Context())
	if err != nil {
		sendServiceError(w, r, "Failed to fetch territories", err)
		return
	}
	writeJSON(w, http.StatusOK, territories)
}

func (h *Handlers) CreateTerritory(w http.ResponseWriter, r *http.Request) {
	var req models.TerritoryRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Organization.CreateTerritory(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, "Failed to create territory", err)
		return
	}
	h.auditCaller(r, "CREATE", "TERRITORY", t.ID.String(), t.Name)
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.svc.Organization.Branches(r.Context())
	if err != nil {
		sendServiceError(w, r, "Failed to fetch branches", err)
		return
	}
	writeJSON(w, http.StatusOK, branches)
}

func (h *Handlers) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req models.BranchRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.svc.Organization.CreateBranch(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, "Failed to create branch", err)
		return
	}
	h.auditCaller(r, "CREATE", "BRANCH", b.ID.String(), b.Code+" "+b.Name)
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.BranchRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.svc.Organization.UpdateBranch(r.Context(), id, req)
	if err != nil {
		sendServiceError(w, r, "Failed to update branch", err)
		return
	}
	h.auditCaller(r, "UPDATE", "BRANCH", b.ID.String(), b.Code+" "+b.Name)
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Organization.DeleteBranch(r.Context(), id); err != nil {
		sendServiceError(w, r, "Failed to delete branch", err)
		return
	}
	h.auditCaller(r, "DELETE", "BRANCH", id.String(), "Branch deleted")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Branch deleted successfully"})
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Organization.Products(r.Context())
	if err != nil {
		sendServiceError(w, r, "Failed to fetch loan products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.Organization.CreateProduct(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, "Failed to create loan product", err)
		return
	}
	h.auditCaller(r, "CREATE", "LOAN_PRODUCT", p.ID.String(), p.Code+" "+p.Name)
	writeJSON(w, http.StatusCreated, p)
}
