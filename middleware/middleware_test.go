package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/Visionatedigital/M-and-T/utils"
	"github.com/google/uuid"
)

func TestMain(m *testing.M) {
	if err := utils.InitializeJWT("middleware-test-secret-0123456789abcdef"); err != nil {
		log.Fatalf("Failed to initialize JWT: %v", err)
	}
	os.Exit(m.Run())
}

type fakeRoles struct {
	roles []authz.Role
	err   error
}

func (f fakeRoles) RolesOf(ctx context.Context, userID uuid.UUID) ([]authz.Role, error) {
	return f.roles, f.err
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, "officer@mandt.ug", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	return "Bearer " + token
}

func TestJWTAuth(t *testing.T) {
	userID := uuid.New()
	var seen *authz.Caller
	h := JWTAuth(fakeRoles{roles: []authz.Role{authz.RoleLoanOfficer}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = authz.FromContext(r.Context())
		if GetClaimsFromContext(r) == nil {
			t.Error("Expected claims in context")
		}
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid token", bearer(t, userID), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/staff/applications", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rr.Code)
			}
		})
	}

	if seen == nil || seen.UserID != userID || !seen.HasRole(authz.RoleLoanOfficer) {
		t.Errorf("Expected caller with loan officer role, got %+v", seen)
	}
}

func TestJWTAuthRoleLoadFailure(t *testing.T) {
	h := JWTAuth(fakeRoles{err: errors.New("db down")})(ok)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New()))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name   string
		caller *authz.Caller
		guard  func(http.Handler) http.Handler
		want   int
	}{
		{"no caller", nil, RequireStaff, http.StatusUnauthorized},
		{"client", &authz.Caller{Roles: []authz.Role{authz.RoleClient}}, RequireStaff, http.StatusForbidden},
		{"officer", &authz.Caller{Roles: []authz.Role{authz.RoleLoanOfficer}}, RequireStaff, http.StatusOK},
		{"officer on admin route", &authz.Caller{Roles: []authz.Role{authz.RoleLoanOfficer}}, RequireRoles(authz.RoleAdmin), http.StatusForbidden},
		{"admin", &authz.Caller{Roles: []authz.Role{authz.RoleAdmin}}, RequireRoles(authz.RoleAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.caller != nil {
				req = req.WithContext(authz.WithCaller(req.Context(), tt.caller))
			}
			rr := httptest.NewRecorder()
			tt.guard(ok).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Limit(ok)

	codes := make([]int, 0, 4)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected burst of two then 429, got %v", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected another client to have its own budget, got %d", rr.Code)
	}

	rl.evict(0)
	if len(rl.visitors) != 0 {
		t.Errorf("Expected idle visitors to be evicted, %d left", len(rl.visitors))
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/login", nil))
	if rr.Code != http.StatusNoContent || called {
		t.Errorf("Expected preflight to stop at 204, got %d (called=%v)", rr.Code, called)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected allow-origin header")
	}

	rr = httptest.NewRecorder()
	RequestLogger(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if !called {
		t.Error("Expected GET to reach the handler")
	}
}
