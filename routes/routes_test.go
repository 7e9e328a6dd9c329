package routes

import (
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

// routeSet walks the router and collects "METHOD path" entries.
func routeSet(t *testing.T) map[string]bool {
	t.Helper()

	router, ok := RegisterRoutes().(*mux.Router)
	if !ok {
		t.Fatal("RegisterRoutes did not return a mux router")
	}

	set := map[string]bool{}
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		for _, m := range methods {
			set[m+" "+path] = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	return set
}

func TestAuxiliaryEmailRoutes(t *testing.T) {
	routes := routeSet(t)

	want := []string{
		"GET /api/v1/suppliers/{id}/emails",
		"POST /api/v1/suppliers/{id}/emails",
		"PATCH /api/v1/suppliers/{id}/emails/{emailId}",
		"DELETE /api/v1/suppliers/{id}/emails/{emailId}",
	}
	for _, w := range want {
		if !routes[w] {
			t.Errorf("missing route %s", w)
		}
	}
}

func TestCoreResourceRoutes(t *testing.T) {
	routes := routeSet(t)

	want := []string{
		"POST /register",
		"POST /login",
		"GET /api/v1/me",
		"POST /api/v1/quote-requests/{id}/send",
		"POST /api/v1/quote-requests/{id}/prices",
		"POST /api/v1/quote-requests/{id}/convert",
		"POST /api/v1/orders/{id}/sync",
		"GET /api/v1/emails/orphaned",
		"POST /api/v1/emails/merge",
		"GET /api/v1/export/orders.{format}",
	}
	for _, w := range want {
		if !routes[w] {
			t.Errorf("missing route %s", w)
		}
	}

	for _, resource := range []string{"suppliers", "vehicles", "parts", "maintenance", "quote-requests"} {
		for _, method := range []string{"GET", "POST"} {
			key := method + " /api/v1/" + resource
			if !routes[key] {
				t.Errorf("missing collection route %s", key)
			}
		}
		if !routes["DELETE /api/v1/"+resource+"/{id}"] {
			t.Errorf("missing delete route for %s", resource)
		}
	}

	for key := range routes {
		if strings.Contains(key, "//") {
			t.Errorf("malformed path in %s", key)
		}
	}
}
