package workflow

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestClient(secret string) *Client {
	return &Client{
		secret:     []byte(secret),
		httpClient: &http.Client{Timeout: 2 * time.Second},
		slowClient: &http.Client{Timeout: 2 * time.Second},
	}
}

func TestCallMissingURLIsError(t *testing.T) {
	os.Unsetenv("PARTS_SEARCH_WEBHOOK_URL")

	c := newTestClient("s3cret")
	_, err := c.Call(EndpointPartsSearch, map[string]string{"q": "filter"})
	if err == nil {
		t.Fatal("expected error for unconfigured webhook URL")
	}
	if !strings.Contains(err.Error(), "PARTS_SEARCH_WEBHOOK_URL") {
		t.Errorf("error should name the missing env var, got %v", err)
	}
}

func TestCallUnknownEndpointIsError(t *testing.T) {
	c := newTestClient("s3cret")
	if _, err := c.Call("no-such-endpoint", nil); err == nil {
		t.Fatal("expected error for unknown endpoint name")
	}
}

func TestCallSignsRequest(t *testing.T) {
	secret := "s3cret"
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	}))
	defer srv.Close()

	os.Setenv("PARTS_SEARCH_WEBHOOK_URL", srv.URL)
	defer os.Unsetenv("PARTS_SEARCH_WEBHOOK_URL")

	c := newTestClient(secret)
	if _, err := c.Call(EndpointPartsSearch, map[string]string{"q": "filter"}); err != nil {
		t.Fatalf("call failed: %v", err)
	}

	if !strings.HasPrefix(gotAuth, "Bearer ") {
		t.Fatalf("expected Bearer token, got %q", gotAuth)
	}
	tokenStr := strings.TrimPrefix(gotAuth, "Bearer ")
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token did not verify: %v", err)
	}
	if claims.Issuer != tokenIssuer {
		t.Errorf("expected issuer %q, got %q", tokenIssuer, claims.Issuer)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > tokenTTL {
		t.Errorf("token expiry should be at most %v out", tokenTTL)
	}
}

func TestCallNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	os.Setenv("PRICE_UPDATE_WEBHOOK_URL", srv.URL)
	defer os.Unsetenv("PRICE_UPDATE_WEBHOOK_URL")

	c := newTestClient("s")
	if _, err := c.Call(EndpointPriceUpdate, nil); err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestCallTimeoutPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	os.Setenv("FOLLOW_UP_WEBHOOK_URL", srv.URL)
	defer os.Unsetenv("FOLLOW_UP_WEBHOOK_URL")

	c := newTestClient("s")
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	if _, err := c.Call(EndpointFollowUp, nil); err == nil {
		t.Fatal("expected timeout error to propagate")
	}
}

func TestRefreshPricesTextOnlyIsPartialSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"output": "Supplier reply contained no parsable prices.",
		})
	}))
	defer srv.Close()

	os.Setenv("PRICE_UPDATE_WEBHOOK_URL", srv.URL)
	defer os.Unsetenv("PRICE_UPDATE_WEBHOOK_URL")

	c := newTestClient("s")
	result, err := c.RefreshPrices(PriceUpdateRequest{QuoteRequestID: "qr-1"})
	if err != nil {
		t.Fatalf("text-only response must not be an error: %v", err)
	}
	if !result.Success {
		t.Error("text-only response should report success")
	}
	if result.TextOutput == "" {
		t.Error("expected textOutput carried through")
	}
	if result.Note == "" {
		t.Error("expected manual-review note")
	}
	if len(result.AllUpdates()) != 0 {
		t.Errorf("expected no updates, got %v", result.AllUpdates())
	}
}

func TestRefreshPricesOperationsUpdateShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"operations": map[string]interface{}{
				"update": []map[string]interface{}{
					{"partNumber": "HYD-100", "unitPrice": 42.5},
				},
			},
		})
	}))
	defer srv.Close()

	os.Setenv("PRICE_UPDATE_WEBHOOK_URL", srv.URL)
	defer os.Unsetenv("PRICE_UPDATE_WEBHOOK_URL")

	c := newTestClient("s")
	result, err := c.RefreshPrices(PriceUpdateRequest{QuoteRequestID: "qr-1"})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	updates := result.AllUpdates()
	if len(updates) != 1 || updates[0].PartNumber != "HYD-100" {
		t.Fatalf("expected one update from operations.update, got %v", updates)
	}
	if updates[0].UnitPrice == nil || *updates[0].UnitPrice != 42.5 {
		t.Errorf("expected unit price 42.5, got %v", updates[0].UnitPrice)
	}
}

func TestGenerateQuoteEmailFlatShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"email": map[string]interface{}{"subject": "RFQ", "body": "quote please"}, "messageId": "ext-1"},
		})
	}))
	defer srv.Close()

	os.Setenv("QUOTE_REQUEST_WEBHOOK_URL", srv.URL)
	defer os.Unsetenv("QUOTE_REQUEST_WEBHOOK_URL")

	c := newTestClient("s")
	result, err := c.GenerateQuoteEmail(QuoteEmailRequest{QuoteRequestID: "qr-1", SupplierEmail: "parts@acme.test"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if result.EmailContent == nil || result.EmailContent.Subject != "RFQ" {
		t.Errorf("expected normalized email content, got %+v", result)
	}
	if result.MessageID != "ext-1" {
		t.Errorf("expected external message id, got %q", result.MessageID)
	}
}
