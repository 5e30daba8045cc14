package handlers

import (
	"net/http"
)

func (h *Handlers) ActiveLoans(w http.ResponseWriter, r *http.Request) {
	views, totals, err := h.svc.Portfolio.ActiveLoans(r.Context())
	if err != nil {
		sendServiceError(w, r, "Failed to fetch active loans", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"loans":  views,
		"totals": totals,
	})
}

func (h *Handlers) Repayments(w http.ResponseWriter, r *http.Request) {
	entries, totals, err := h.svc.Portfolio.Repayments(r.Context())
	if err != nil {
		sendServiceError(w, r, "Failed to fetch repayments", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"repayments": entries,
		"totals":     totals,
	})
}

func (h *Handlers) Clients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.Portfolio.Clients(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		sendServiceError(w, r, "Failed to fetch clients", err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *Handlers) ReportSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Portfolio.Stats(r.Context())
	if err != nil {
		sendServiceError(w, r, "Failed to compute statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
