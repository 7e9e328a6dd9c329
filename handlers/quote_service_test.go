package handlers

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"p9e.in/fleetparts/models"
)

func TestTargetSuppliersPrimaryFirst(t *testing.T) {
	primary := uuid.New()
	extra1 := uuid.New()
	extra2 := uuid.New()

	additional := `["` + extra1.String() + `","` + extra2.String() + `"]`
	ids := targetSuppliers(&primary, additional)

	if len(ids) != 3 {
		t.Fatalf("expected 3 suppliers, got %d", len(ids))
	}
	if ids[0] != primary {
		t.Errorf("expected primary supplier first, got %s", ids[0])
	}
	if ids[1] != extra1 || ids[2] != extra2 {
		t.Errorf("additional suppliers out of order: %v", ids[1:])
	}
}

func TestTargetSuppliersDeduplicates(t *testing.T) {
	primary := uuid.New()
	extra := uuid.New()

	// Primary repeated in the additional list, plus a duplicate extra
	additional := primary.String() + "," + extra.String() + "," + extra.String()
	ids := targetSuppliers(&primary, additional)

	if len(ids) != 2 {
		t.Fatalf("expected 2 unique suppliers, got %d: %v", len(ids), ids)
	}
	if ids[0] != primary || ids[1] != extra {
		t.Errorf("unexpected order: %v", ids)
	}
}

func TestTargetSuppliersNoPrimary(t *testing.T) {
	extra := uuid.New()
	ids := targetSuppliers(nil, extra.String())
	if len(ids) != 1 || ids[0] != extra {
		t.Errorf("expected just the additional supplier, got %v", ids)
	}
}

func TestTargetSuppliersSkipsMalformedIDs(t *testing.T) {
	extra := uuid.New()
	ids := targetSuppliers(nil, "not-a-uuid,"+extra.String())
	if len(ids) != 1 || ids[0] != extra {
		t.Errorf("expected malformed token dropped, got %v", ids)
	}
}

func TestTargetSuppliersEmpty(t *testing.T) {
	if ids := targetSuppliers(nil, ""); len(ids) != 0 {
		t.Errorf("expected no suppliers, got %v", ids)
	}
}

func TestCloneTemplateItem(t *testing.T) {
	requestID := uuid.New()
	supplierID := uuid.New()
	template := models.QuoteRequestItem{
		ID:             uuid.New(),
		QuoteRequestID: requestID,
		PartNumber:     "HYD-4412",
		Description:    "Hydraulic pump seal kit",
		Quantity:       3,
		UnitPrice:      45.50,
		TotalPrice:     136.50,
	}

	clone := cloneTemplateItem(template, supplierID)

	if clone.ID != uuid.Nil {
		t.Error("clone must not inherit the template's row id")
	}
	if clone.SupplierID == nil || *clone.SupplierID != supplierID {
		t.Error("clone must be scoped to the supplier")
	}
	if clone.QuoteRequestID != requestID {
		t.Error("clone must stay on the same quote request")
	}
	if clone.PartNumber != template.PartNumber || clone.Quantity != template.Quantity {
		t.Error("identity fields must carry over")
	}
	if clone.UnitPrice != template.UnitPrice || clone.TotalPrice != template.TotalPrice {
		t.Error("current pricing must carry over")
	}
	if clone.IsTemplate() {
		t.Error("clone must not report as a template")
	}
}

func TestSendAccumulatorAccounting(t *testing.T) {
	acc := newSendAccumulator()

	primary := &SupplierSendResult{SupplierID: uuid.New().String(), SupplierName: "Acme Dealer"}
	extra := &SupplierSendResult{SupplierID: uuid.New().String(), SupplierName: "Valley Salvage"}

	acc.success(primary, true)
	acc.success(extra, false)
	acc.failure(uuid.New().String(), "Downtown Jobber", "webhook returned status 500")

	result := acc.result
	if result.TotalSent != 2 || result.TotalFailed != 1 {
		t.Errorf("counts = sent %d / failed %d, want 2 / 1", result.TotalSent, result.TotalFailed)
	}
	if result.Primary != primary {
		t.Error("primary result not recorded in the primary slot")
	}
	if len(result.Additional) != 1 || result.Additional[0].SupplierName != "Valley Salvage" {
		t.Errorf("additional = %v, want just Valley Salvage", result.Additional)
	}
	if len(result.Errors) != 1 || result.Errors[0].Message != "webhook returned status 500" {
		t.Errorf("errors = %v", result.Errors)
	}
}

func TestSendAccumulatorEmptySlicesNotNil(t *testing.T) {
	result := newSendAccumulator().result
	if result.Additional == nil || result.Errors == nil {
		t.Error("aggregate slices must be non-nil so responses carry arrays")
	}
}

func TestConvertRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     ConvertRequest
		wantKey string
	}{
		{
			name:    "pickup missing location",
			req:     ConvertRequest{FulfillmentMethod: models.FulfillmentPickup},
			wantKey: "pickup_location",
		},
		{
			name:    "delivery missing address",
			req:     ConvertRequest{FulfillmentMethod: models.FulfillmentDelivery},
			wantKey: "shipping_address",
		},
		{
			name:    "split missing item assignments",
			req:     ConvertRequest{FulfillmentMethod: models.FulfillmentSplit},
			wantKey: "item_fulfillment",
		},
		{
			name:    "missing method",
			req:     ConvertRequest{},
			wantKey: "fulfillment_method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := tt.req.Validate()
			if problems == nil {
				t.Fatal("expected validation problems")
			}
			if _, ok := problems[tt.wantKey]; !ok {
				t.Errorf("expected problem for %q, got %v", tt.wantKey, problems)
			}
		})
	}
}

func TestFanOutAccountsEveryTarget(t *testing.T) {
	primary := uuid.New()
	extra := uuid.New()
	missing := uuid.New()
	broken := uuid.New()

	suppliers := map[uuid.UUID]models.Supplier{
		primary: {ID: primary, Name: "Acme Dealer"},
		extra:   {ID: extra, Name: "Valley Salvage"},
		broken:  {ID: broken, Name: "Downtown Jobber"},
	}
	threadByName := map[string]uuid.UUID{
		"Acme Dealer":    uuid.New(),
		"Valley Salvage": uuid.New(),
	}

	var calls []string
	result, threads := fanOut([]uuid.UUID{primary, extra, missing, broken}, &primary, suppliers,
		func(s models.Supplier) (*SupplierSendResult, error) {
			calls = append(calls, s.Name)
			if s.ID == broken {
				return nil, errors.New("webhook returned status 500")
			}
			return &SupplierSendResult{
				SupplierID:   s.ID.String(),
				SupplierName: s.Name,
				ThreadID:     threadByName[s.Name].String(),
			}, nil
		})

	if result.TotalSent != 2 || result.TotalFailed != 2 {
		t.Errorf("counts = sent %d / failed %d, want 2 / 2", result.TotalSent, result.TotalFailed)
	}
	if result.Primary == nil || result.Primary.SupplierName != "Acme Dealer" {
		t.Errorf("primary slot = %+v, want Acme Dealer", result.Primary)
	}
	if len(result.Additional) != 1 || result.Additional[0].SupplierName != "Valley Salvage" {
		t.Errorf("additional = %v, want just Valley Salvage", result.Additional)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %v, want 2", result.Errors)
	}
	if result.Errors[0].SupplierID != missing.String() || result.Errors[0].Message != "supplier not found" {
		t.Errorf("unknown target not reported: %+v", result.Errors[0])
	}
	if result.Errors[1].SupplierName != "Downtown Jobber" {
		t.Errorf("send failure not reported: %+v", result.Errors[1])
	}

	// A failure mid-batch must not stop later sends
	if len(calls) != 3 {
		t.Errorf("sender called for %v, want all 3 known suppliers", calls)
	}
	if len(threads) != 2 {
		t.Errorf("threads = %v, want one per successful send", threads)
	}
}

func TestFanOutNoPrimaryTarget(t *testing.T) {
	a := uuid.New()
	suppliers := map[uuid.UUID]models.Supplier{a: {ID: a, Name: "Acme Dealer"}}

	result, _ := fanOut([]uuid.UUID{a}, nil, suppliers,
		func(s models.Supplier) (*SupplierSendResult, error) {
			return &SupplierSendResult{SupplierID: s.ID.String(), ThreadID: uuid.New().String()}, nil
		})

	if result.Primary != nil {
		t.Error("no primary supplier, so the primary slot must stay empty")
	}
	if len(result.Additional) != 1 {
		t.Errorf("additional = %v, want the lone supplier", result.Additional)
	}
}

func TestSupplierForAddress(t *testing.T) {
	suppliers := []models.Supplier{
		{ID: uuid.New(), Name: "Acme Dealer", Email: "parts@acme.example"},
		{ID: uuid.New(), Name: "Valley Salvage", Email: "sales@valley.example",
			AuxiliaryEmails: []models.AuxiliaryEmail{{Email: "quotes@valley.example"}}},
	}

	if got := supplierForAddress("parts@acme.example", suppliers); got == nil || got.Name != "Acme Dealer" {
		t.Errorf("primary address lookup = %v", got)
	}
	if got := supplierForAddress("quotes@valley.example", suppliers); got == nil || got.Name != "Valley Salvage" {
		t.Errorf("auxiliary address lookup = %v", got)
	}
	if got := supplierForAddress("stranger@example.com", suppliers); got != nil {
		t.Errorf("unknown address matched %v", got)
	}
}

func TestLinkForThreadSecondSendCreatesNoSecondRow(t *testing.T) {
	supplierID := uuid.New()
	qr := &models.QuoteRequest{ID: uuid.New(), SupplierID: &supplierID}
	supplier := &models.Supplier{ID: supplierID, Name: "Acme Dealer"}
	linked := map[uuid.UUID]bool{}

	first := linkForThread(qr, uuid.New(), supplier, linked)
	if first == nil {
		t.Fatal("first send must create a junction row")
	}
	if !first.IsPrimary {
		t.Error("primary supplier's link must be marked primary")
	}
	if first.Status != models.ThreadLinkStatusSent {
		t.Errorf("new link status = %s, want SENT", first.Status)
	}

	// Resending spawns a fresh thread for the same supplier
	if second := linkForThread(qr, uuid.New(), supplier, linked); second != nil {
		t.Errorf("resend created a second row: %+v", second)
	}
}

func TestLinkForThreadSkipsPreexistingLink(t *testing.T) {
	supplierID := uuid.New()
	qr := &models.QuoteRequest{ID: uuid.New()}
	supplier := &models.Supplier{ID: supplierID, Name: "Acme Dealer"}

	// Link already persisted by an earlier send
	linked := map[uuid.UUID]bool{supplierID: true}
	if link := linkForThread(qr, uuid.New(), supplier, linked); link != nil {
		t.Errorf("existing link duplicated: %+v", link)
	}
	if link := linkForThread(qr, uuid.New(), nil, linked); link != nil {
		t.Errorf("unmatched thread produced a link: %+v", link)
	}
}
