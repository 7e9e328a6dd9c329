package handlers

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"p9e.in/fleetparts/models"
	"p9e.in/fleetparts/workflow"
)

func TestMapAvailability(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.ItemAvailability
	}{
		{"in stock spaced", "IN STOCK", models.AvailabilityInStock},
		{"in stock lower", "in stock", models.AvailabilityInStock},
		{"in stock underscore", "IN_STOCK", models.AvailabilityInStock},
		{"in stock embedded", "item is IN_STOCK today", models.AvailabilityInStock},
		{"available", "Available", models.AvailabilityInStock},
		{"backordered", "Backordered", models.AvailabilityBackordered},
		{"backorder embedded", "on backorder until June", models.AvailabilityBackordered},
		{"special order", "Special Order", models.AvailabilitySpecialOrder},
		{"special underscore", "SPECIAL_ORDER", models.AvailabilitySpecialOrder},
		{"special embedded", "special factory order", models.AvailabilitySpecialOrder},
		{"limited counts as in stock", "Limited", models.AvailabilityInStock},
		{"partial counts as in stock", "partial stock available now", models.AvailabilityInStock},
		{"empty", "", models.AvailabilityUnknown},
		{"whitespace", "   ", models.AvailabilityUnknown},
		{"garbage", "call us", models.AvailabilityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mapAvailability(tt.input)
			if result != tt.expected {
				t.Errorf("mapAvailability(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseLeadTime(t *testing.T) {
	t.Run("numeric days stored as-is", func(t *testing.T) {
		days, note := parseLeadTime(float64(5))
		if days == nil || *days != 5 {
			t.Fatalf("expected 5 days, got %v", days)
		}
		if note != "" {
			t.Errorf("numeric lead time should carry no note, got %q", note)
		}
	})

	t.Run("string with digits parses first run and notes original", func(t *testing.T) {
		days, note := parseLeadTime("ships in 10 days")
		if days == nil || *days != 10 {
			t.Fatalf("expected 10 days, got %v", days)
		}
		if note != "Lead time: ships in 10 days" {
			t.Errorf("expected original string in note, got %q", note)
		}
	})

	t.Run("string without digits yields nil", func(t *testing.T) {
		days, note := parseLeadTime("unknown")
		if days != nil {
			t.Errorf("expected nil days, got %v", *days)
		}
		if note != "" {
			t.Errorf("expected no note, got %q", note)
		}
	})

	t.Run("nil yields nil", func(t *testing.T) {
		days, _ := parseLeadTime(nil)
		if days != nil {
			t.Errorf("expected nil days for absent lead time, got %v", *days)
		}
	})

	t.Run("first digit run wins", func(t *testing.T) {
		days, _ := parseLeadTime("3 to 5 business days")
		if days == nil || *days != 3 {
			t.Fatalf("expected 3, got %v", days)
		}
	})
}

func TestApplyItemUpdate(t *testing.T) {
	price := 12.5
	superseded := true

	item := models.QuoteRequestItem{
		PartNumber: "HYD-100",
		Quantity:   2,
	}
	applyItemUpdate(&item, workflow.UpdatedItem{
		UnitPrice:          &price,
		Availability:       "Backordered",
		LeadTime:           "about 14 days",
		IsSuperseded:       &superseded,
		OriginalPartNumber: "HYD-099",
		SupplierNotes:      "min order 2",
	})

	if item.UnitPrice != 12.5 {
		t.Errorf("unit price not applied: %v", item.UnitPrice)
	}
	if item.TotalPrice != 25.0 {
		t.Errorf("total should derive from unit price x qty, got %v", item.TotalPrice)
	}
	if item.Availability != models.AvailabilityBackordered {
		t.Errorf("availability not mapped: %v", item.Availability)
	}
	if item.LeadTimeDays == nil || *item.LeadTimeDays != 14 {
		t.Errorf("lead time not parsed: %v", item.LeadTimeDays)
	}
	if !containsLine(item.SupplierNotes, "Lead time: about 14 days") {
		t.Errorf("lead time note missing from supplier notes: %q", item.SupplierNotes)
	}
	if !containsLine(item.SupplierNotes, "min order 2") {
		t.Errorf("supplier notes not appended: %q", item.SupplierNotes)
	}
	if !item.IsSuperseded || item.OriginalPartNumber != "HYD-099" {
		t.Errorf("supersession fields not applied: %v %q", item.IsSuperseded, item.OriginalPartNumber)
	}
	if item.IsAlternative {
		t.Error("absent boolean must default to false")
	}
}

func TestApplyItemUpdateOmittedBooleansReset(t *testing.T) {
	item := models.QuoteRequestItem{IsSuperseded: true, IsAlternative: true, Quantity: 1}
	applyItemUpdate(&item, workflow.UpdatedItem{})
	if item.IsSuperseded || item.IsAlternative {
		t.Error("booleans absent from the update must map to false")
	}
}

func TestSumItemTotals(t *testing.T) {
	items := []models.QuoteRequestItem{
		{TotalPrice: 10.5},
		{TotalPrice: 0}, // unpriced item counts as zero
		{TotalPrice: 4.5},
	}
	if got := sumItemTotals(items); got != 15.0 {
		t.Errorf("sumItemTotals = %v, expected 15.0", got)
	}
	if got := sumItemTotals(nil); got != 0 {
		t.Errorf("empty set should total 0, got %v", got)
	}
}

func containsLine(notes, line string) bool {
	for _, l := range strings.Split(notes, "\n") {
		if l == line {
			return true
		}
	}
	return false
}

func TestRouteUpdatesScopedPartNumberFallback(t *testing.T) {
	supplierID := uuid.New()
	items := []models.QuoteRequestItem{
		{ID: uuid.New(), SupplierID: &supplierID, PartNumber: "HYD-4412"},
		{ID: uuid.New(), SupplierID: &supplierID, PartNumber: "FLT-0098"},
	}
	price := 19.95
	updates := []workflow.UpdatedItem{{PartNumber: "FLT-0098", UnitPrice: &price}}

	routed := routeUpdates(items, updates, true)

	if len(routed) != 1 {
		t.Fatalf("routed %d updates, want 1", len(routed))
	}
	if routed[0].item.PartNumber != "FLT-0098" {
		t.Errorf("update landed on %s", routed[0].item.PartNumber)
	}
}

func TestRouteUpdatesUnscopedRequiresItemID(t *testing.T) {
	supplierA := uuid.New()
	supplierB := uuid.New()
	// Two suppliers' copies of the same part on one request
	items := []models.QuoteRequestItem{
		{ID: uuid.New(), SupplierID: &supplierA, PartNumber: "HYD-4412", UnitPrice: 40},
		{ID: uuid.New(), SupplierID: &supplierB, PartNumber: "HYD-4412", UnitPrice: 55},
	}
	price := 19.95

	// Part number alone is ambiguous across suppliers, so it routes nowhere
	routed := routeUpdates(items, []workflow.UpdatedItem{{PartNumber: "HYD-4412", UnitPrice: &price}}, false)
	if len(routed) != 0 {
		t.Fatalf("ambiguous update routed to supplier %s's copy", routed[0].item.SupplierID)
	}

	// An item ID pins the exact copy
	routed = routeUpdates(items, []workflow.UpdatedItem{{ItemID: items[1].ID.String(), UnitPrice: &price}}, false)
	if len(routed) != 1 || routed[0].item.ID != items[1].ID {
		t.Fatalf("item-ID update routed to %v", routed)
	}
}

func TestRouteUpdatesLeavesOtherSuppliersItemsUntouched(t *testing.T) {
	supplierA := uuid.New()
	supplierB := uuid.New()
	itemA := models.QuoteRequestItem{ID: uuid.New(), SupplierID: &supplierA, PartNumber: "HYD-4412", UnitPrice: 40, TotalPrice: 40, Quantity: 1}
	itemB := models.QuoteRequestItem{ID: uuid.New(), SupplierID: &supplierB, PartNumber: "HYD-4412", UnitPrice: 55, TotalPrice: 55, Quantity: 1}

	// A refresh scoped to supplier A only ever sees A's items
	price := 19.95
	scoped := []models.QuoteRequestItem{itemA}
	for _, r := range routeUpdates(scoped, []workflow.UpdatedItem{{PartNumber: "HYD-4412", UnitPrice: &price}}, true) {
		applyItemUpdate(r.item, r.upd)
	}

	if scoped[0].UnitPrice != 19.95 {
		t.Errorf("supplier A's price = %v, want 19.95", scoped[0].UnitPrice)
	}
	if itemB.UnitPrice != 55 {
		t.Errorf("supplier B's price = %v, must stay 55", itemB.UnitPrice)
	}
}

func TestRouteUpdatesSkipsUnknownTargets(t *testing.T) {
	items := []models.QuoteRequestItem{{ID: uuid.New(), PartNumber: "HYD-4412"}}
	updates := []workflow.UpdatedItem{
		{ItemID: uuid.New().String()},
		{PartNumber: "NOPE-123"},
		{},
	}
	if routed := routeUpdates(items, updates, true); len(routed) != 0 {
		t.Errorf("unknown targets routed: %v", routed)
	}
}
