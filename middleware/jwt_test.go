package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()

	token, err := GenerateToken(userID.String(), orgID.String(), "manager", "Dana")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var got *AuthContext
	handler := JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetAuthContext(r)
	}))

	req := httptest.NewRequest("GET", "/api/v1/suppliers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got == nil {
		t.Fatal("expected AuthContext in request")
	}
	if got.UserID != userID {
		t.Errorf("UserID = %s, want %s", got.UserID, userID)
	}
	if got.OrganizationID != orgID {
		t.Errorf("OrganizationID = %s, want %s", got.OrganizationID, orgID)
	}
	if got.Role != "manager" {
		t.Errorf("Role = %q, want manager", got.Role)
	}
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	handler := JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a token")
	}))

	req := httptest.NewRequest("GET", "/api/v1/suppliers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsGarbageToken(t *testing.T) {
	handler := JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with a bad token")
	}))

	req := httptest.NewRequest("GET", "/api/v1/suppliers", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role     string
		allowed  []string
		wantCode int
	}{
		{"admin", []string{"admin", "manager"}, http.StatusOK},
		{"manager", []string{"admin", "manager"}, http.StatusOK},
		{"member", []string{"admin", "manager"}, http.StatusForbidden},
		{"", []string{"admin"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.allowed[0], func(t *testing.T) {
			token, err := GenerateToken(uuid.New().String(), uuid.New().String(), tt.role, "test")
			if err != nil {
				t.Fatalf("GenerateToken: %v", err)
			}

			handler := JWTMiddleware(RequireRole(tt.allowed,
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

			req := httptest.NewRequest("DELETE", "/api/v1/suppliers/x", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("role %q with allowed %v: got %d, want %d", tt.role, tt.allowed, rec.Code, tt.wantCode)
			}
		})
	}
}
