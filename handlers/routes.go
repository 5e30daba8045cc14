package handlers

import (
	"net/http"

	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/Visionatedigital/M-and-T/middleware"
	"github.com/gorilla/mux"
)

// NewRouter wires every endpoint. Staff routes sit behind JWT auth and the
// staff role check, admin routes additionally require the admin role.
func NewRouter(h *Handlers, limiter *middleware.RateLimiter) http.Handler {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.RequestLogger)
	r.Use(limiter.Limit)

	// Public routes
	r.HandleFunc("/api/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/api/register", h.Register).Methods("POST")
	r.HandleFunc("/api/login", h.Login).Methods("POST")
	r.HandleFunc("/api/applications", h.SubmitApplication).Methods("POST")
	r.HandleFunc("/api/loans/quote", h.QuoteLoan).Methods("POST")

	// Staff routes
	staff := r.PathPrefix("/api/staff").Subrouter()
	staff.Use(middleware.JWTAuth(h.svc.Accounts))
	staff.Use(middleware.RequireStaff)

	staff.HandleFunc("/profile", h.GetProfile).Methods("GET")
	staff.HandleFunc("/profile", h.UpdateProfile).Methods("PUT")

	staff.HandleFunc("/applications", h.ListApplications).Methods("GET")
	staff.HandleFunc("/applications", h.OpenApplication).Methods("POST")
	staff.HandleFunc("/applications/{id}", h.GetApplication).Methods("GET")
	staff.HandleFunc("/applications/{id}/transition", h.TransitionApplication).Methods("POST")

	staff.HandleFunc("/loans/active", h.ActiveLoans).Methods("GET")
	staff.HandleFunc("/repayments", h.Repayments).Methods("GET")
	staff.HandleFunc("/clients", h.Clients).Methods("GET")
	staff.HandleFunc("/reports/summary", h.ReportSummary).Methods("GET")

	staff.HandleFunc("/territories", h.ListTerritories).Methods("GET")
	staff.HandleFunc("/territories", h.CreateTerritory).Methods("POST")
	staff.HandleFunc("/branches", h.ListBranches).Methods("GET")
	staff.HandleFunc("/branches", h.CreateBranch).Methods("POST")
	staff.HandleFunc("/branches/{id}", h.UpdateBranch).Methods("PUT")
	staff.HandleFunc("/branches/{id}", h.DeleteBranch).Methods("DELETE")
	staff.HandleFunc("/products", h.ListProducts).Methods("GET")
	staff.HandleFunc("/products", h.CreateProduct).Methods("POST")

	staff.HandleFunc("/collateral", h.ListCollateral).Methods("GET")
	staff.HandleFunc("/collateral", h.CreateCollateral).Methods("POST")
	staff.HandleFunc("/collateral/{id}", h.GetCollateral).Methods("GET")
	staff.HandleFunc("/collateral/{id}/insurance", h.AddInsurance).Methods("POST")

	staff.HandleFunc("/assistant", h.Assist).Methods("POST")
	staff.HandleFunc("/conversations", h.ListConversations).Methods("GET")
	staff.HandleFunc("/conversations", h.CreateConversation).Methods("POST")
	staff.HandleFunc("/conversations/{id}", h.GetConversation).Methods("GET")
	staff.HandleFunc("/conversations/{id}", h.DeleteConversation).Methods("DELETE")
	staff.HandleFunc("/conversations/{id}/messages", h.PostMessage).Methods("POST")

	// Admin routes
	admin := staff.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRoles(authz.RoleAdmin))
	admin.HandleFunc("/audit-logs", h.GetAuditLogs).Methods("GET")
	admin.HandleFunc("/users/{id}/roles", h.GrantRole).Methods("POST")

	// CORS wraps the router so preflight requests never reach route matching.
	return middleware.CORS(r)
}
