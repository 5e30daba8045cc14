package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/Visionatedigital/M-and-T/loans"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/services"
)

// SubmitApplication is the public loan application form.
func (h *Handlers) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req models.ApplicationRequest
	if !decode(w, r, &req) {
		return
	}

	app, err := h.svc.Applications.Submit(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, "Failed to submit application", err)
		return
	}

	log.Printf("Application %s submitted for %s %s", app.ID, app.LoanAmount.StringFixed(2), loans.Currency)
	h.logAudit(r, app.UserID, "CREATE", "LOAN_APPLICATION", app.ID.String(),
		fmt.Sprintf("Applied for %s %s over %d months", app.LoanAmount.StringFixed(2), loans.Currency, app.LoanDurationMonths))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Application submitted successfully",
		"application": app,
	})
}

// OpenApplication is the staff intake form. The applicant gets a client
// account the application is linked to.
func (h *Handlers) OpenApplication(w http.ResponseWriter, r *http.Request) {
	var req models.ApplicationRequest
	if !decode(w, r, &req) {
		return
	}

	app, err := h.svc.Applications.Open(r.Context(), authz.FromContext(r.Context()), req)
	if err != nil {
		sendServiceError(w, r, "Failed to open application", err)
		return
	}

	h.auditCaller(r, "CREATE", "LOAN_APPLICATION", app.ID.String(),
		fmt.Sprintf("Opened for client %s: %s %s over %d months", app.UserID, app.LoanAmount.StringFixed(2), loans.Currency, app.LoanDurationMonths))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Application opened successfully",
		"application": app,
		"client_id":   app.UserID,
	})
}

// QuoteLoan previews the figures of a loan before it is applied for.
func (h *Handlers) QuoteLoan(w http.ResponseWriter, r *http.Request) {
	var req models.QuoteRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := loans.Quote(req.Amount, req.DurationMonths)
	if err != nil {
		sendServiceError(w, r, "Failed to compute quote", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	apps, err := h.svc.Applications.List(r.Context(), services.ApplicationQuery{
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		sendServiceError(w, r, "Failed to fetch applications", err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handlers) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	details, err := h.svc.Applications.Details(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, "Failed to fetch application", err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// TransitionApplication applies a review decision.
func (h *Handlers) TransitionApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.TransitionRequest
	if !decode(w, r, &req) {
		return
	}

	app, err := h.svc.Applications.Transition(r.Context(), authz.FromContext(r.Context()), id, req.Status, req.RejectionReason)
	if err != nil {
		sendServiceError(w, r, "Failed to update application status", err)
		return
	}

	details := "Status changed to " + string(app.Status)
	if app.RejectionReason != nil && app.Status == loans.StatusRejected {
		details += ": " + *app.RejectionReason
	}
	h.auditCaller(r, "UPDATE", "LOAN_APPLICATION", app.ID.String(), details)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Application status updated successfully",
		"application": app,
	})
}
