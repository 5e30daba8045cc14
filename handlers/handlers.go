package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/Visionatedigital/M-and-T/assistant"
	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/Visionatedigital/M-and-T/config"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/services"
	"github.com/Visionatedigital/M-and-T/utils"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ErrorResponse represents a standardized error response
// Status: HTTP status code
// Error: Error message
// Details: Additional details about the error
// Timestamp: When the error occurred
type ErrorResponse struct {
	Status    int         `json:"status"`
	Error     string      `json:"error"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// sendError sends a standardized error response
func sendError(w http.ResponseWriter, status int, err string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Status:    status,
		Error:     err,
		Details:   details,
		Timestamp: time.Now(),
	})
}

// sendServiceError answers with the status the error kind maps to. Server
// side failures are logged and not echoed to the client.
func sendServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apperr.Status(err)
	switch {
	case status == http.StatusBadGateway:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		sendError(w, status, msg, "upstream service unavailable")
	case status >= http.StatusInternalServerError:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		sendError(w, status, msg, nil)
	default:
		sendError(w, status, msg, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v and validates it, answering 400 itself
// when either fails.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", utils.FormatValidationError(err))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid id", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}
	return limit, (page - 1) * limit
}

type Handlers struct {
	svc       *services.Services
	assistant *assistant.Assistant
	config    *config.Config
}

func NewHandlers(svc *services.Services, asst *assistant.Assistant, cfg *config.Config) *Handlers {
	return &Handlers{
		svc:       svc,
		assistant: asst,
		config:    cfg,
	}
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "M&T Back Office",
		"version":   "1.0.0",
		"assistant": h.config.AssistantEnabled(),
	})
}

func (h *Handlers) logAudit(r *http.Request, userID *uuid.UUID, action, resource, resourceID, details string) {
	h.svc.Audit.Record(r.Context(), &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	})
}

// auditCaller records an action of the authenticated caller.
func (h *Handlers) auditCaller(r *http.Request, action, resource, resourceID, details string) {
	var userID *uuid.UUID
	if c := authz.FromContext(r.Context()); c != nil {
		id := c.UserID
		userID = &id
	}
	h.logAudit(r, userID, action, resource, resourceID, details)
}
