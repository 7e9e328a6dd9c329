package handlers

import (
	"fmt"
	"strings"
	"unicode"

	"p9e.in/fleetparts/models"
	"p9e.in/fleetparts/workflow"
)

// mapAvailability normalizes a supplier-reported availability string to
// the enum. Precedence follows the order of the checks; "limited" and
// "partial" stock deliberately count as available.
func mapAvailability(raw string) models.ItemAvailability {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return models.AvailabilityUnknown
	}

	switch {
	case strings.Contains(s, "IN_STOCK"), s == "IN STOCK", s == "AVAILABLE":
		return models.AvailabilityInStock
	case strings.Contains(s, "BACKORDER"), s == "BACKORDERED":
		return models.AvailabilityBackordered
	case strings.Contains(s, "SPECIAL"), s == "SPECIAL ORDER", s == "SPECIAL_ORDER":
		return models.AvailabilitySpecialOrder
	case s == "LIMITED", strings.Contains(s, "PARTIAL"):
		return models.AvailabilityInStock
	default:
		return models.AvailabilityUnknown
	}
}

// parseLeadTime interprets the lead-time field from a price update, which
// is either a number of days or a free-text string. For text containing
// digits the first digit run is the day count, and the original string is
// returned as a note to append to supplier notes. Text without digits
// yields nil.
func parseLeadTime(v interface{}) (days *int, note string) {
	switch val := v.(type) {
	case float64:
		d := int(val)
		return &d, ""
	case int:
		d := val
		return &d, ""
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, ""
		}
		start := -1
		for i, r := range s {
			if unicode.IsDigit(r) {
				start = i
				break
			}
		}
		if start < 0 {
			return nil, ""
		}
		end := start
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		var d int
		fmt.Sscanf(s[start:end], "%d", &d)
		return &d, "Lead time: " + s
	default:
		return nil, ""
	}
}

// applyItemUpdate rewrites one quote request item from a price update.
// Boolean fields default to false when the update omits them; pricing
// fields are only touched when present so a partial update never zeroes
// a price.
func applyItemUpdate(item *models.QuoteRequestItem, upd workflow.UpdatedItem) {
	if upd.UnitPrice != nil {
		item.UnitPrice = *upd.UnitPrice
		if upd.TotalPrice == nil {
			item.TotalPrice = item.UnitPrice * float64(item.Quantity)
		}
	}
	if upd.TotalPrice != nil {
		item.TotalPrice = *upd.TotalPrice
	}
	if upd.SupplierPartNumber != "" {
		item.SupplierPartNumber = upd.SupplierPartNumber
	}

	item.Availability = mapAvailability(upd.Availability)

	if days, note := parseLeadTime(upd.LeadTime); days != nil {
		item.LeadTimeDays = days
		if note != "" {
			item.SupplierNotes = appendNote(item.SupplierNotes, note)
		}
	} else if upd.LeadTime != nil {
		item.LeadTimeDays = nil
	}

	item.IsSuperseded = upd.IsSuperseded != nil && *upd.IsSuperseded
	if upd.OriginalPartNumber != "" {
		item.OriginalPartNumber = upd.OriginalPartNumber
	}
	if upd.SupersessionNotes != "" {
		item.SupersessionNotes = upd.SupersessionNotes
	}
	item.IsAlternative = upd.IsAlternative != nil && *upd.IsAlternative
	if upd.AlternativeReason != "" {
		item.AlternativeReason = upd.AlternativeReason
	}
	if upd.SupplierNotes != "" {
		item.SupplierNotes = appendNote(item.SupplierNotes, upd.SupplierNotes)
	}
}

// routedUpdate pairs a price update with the quote item it addresses.
type routedUpdate struct {
	item *models.QuoteRequestItem
	upd  workflow.UpdatedItem
}

// routeUpdates matches price updates to the items in scope, by item ID
// first and then by part number. The part-number fallback is only valid
// inside a single supplier's scope: an unscoped refresh spans several
// suppliers' copies of the same part, so there an update must carry an
// item ID or it is dropped. Updates matching nothing are skipped.
func routeUpdates(items []models.QuoteRequestItem, updates []workflow.UpdatedItem, supplierScoped bool) []routedUpdate {
	byID := make(map[string]*models.QuoteRequestItem, len(items))
	byPart := make(map[string]*models.QuoteRequestItem, len(items))
	for i := range items {
		byID[items[i].ID.String()] = &items[i]
		if supplierScoped {
			byPart[items[i].PartNumber] = &items[i]
		}
	}

	var routed []routedUpdate
	for _, upd := range updates {
		item := byID[upd.ItemID]
		if item == nil && upd.PartNumber != "" {
			item = byPart[upd.PartNumber]
		}
		if item == nil {
			continue
		}
		routed = append(routed, routedUpdate{item: item, upd: upd})
	}
	return routed
}

// appendNote joins notes with a newline, skipping duplicates of the exact
// same line.
func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	for _, line := range strings.Split(existing, "\n") {
		if line == note {
			return existing
		}
	}
	return existing + "\n" + note
}

// sumItemTotals computes the aggregate total from item totals, treating
// missing prices as zero. Every price mutation must be followed by a
// recompute so the quote total always equals the sum of its item totals.
func sumItemTotals(items []models.QuoteRequestItem) float64 {
	var total float64
	for _, item := range items {
		total += item.TotalPrice
	}
	return total
}
