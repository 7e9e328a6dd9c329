package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
)

// QuoteRequestHandler handles quote request CRUD and orchestration
// endpoints
type QuoteRequestHandler struct {
	db      *gorm.DB
	service *QuoteService
}

// NewQuoteRequestHandler creates a new quote request handler
func NewQuoteRequestHandler() *QuoteRequestHandler {
	return &QuoteRequestHandler{
		db:      config.DB,
		service: NewQuoteService(),
	}
}

// QuoteItemInput is one item line in a create/update request
type QuoteItemInput struct {
	PartNumber  string  `json:"part_number"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// CreateQuoteRequestInput is the request to create a quote request
type CreateQuoteRequestInput struct {
	Title                 string           `json:"title"`
	VehicleID             *uuid.UUID       `json:"vehicle_id,omitempty"`
	SupplierID            *uuid.UUID       `json:"supplier_id,omitempty"`
	AdditionalSupplierIDs []string         `json:"additional_supplier_ids,omitempty"`
	ExpiryDate            *time.Time       `json:"expiry_date,omitempty"`
	Notes                 string           `json:"notes,omitempty"`
	Items                 []QuoteItemInput `json:"items"`
}

func (in *CreateQuoteRequestInput) validate() map[string]string {
	problems := map[string]string{}
	if in.Title == "" {
		problems["title"] = "required"
	}
	if len(in.Items) == 0 {
		problems["items"] = "at least one item is required"
	}
	for i, item := range in.Items {
		if item.PartNumber == "" {
			problems[fmt.Sprintf("items[%d].part_number", i)] = "required"
		}
		if item.Quantity <= 0 {
			problems[fmt.Sprintf("items[%d].quantity", i)] = "must be positive"
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// List returns the organization's quote requests, newest first.
func (h *QuoteRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	page := 1
	limit := 50
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}
	offset := (page - 1) * limit

	query := h.db.Where("organization_id = ?", auth.OrganizationID)
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Model(&models.QuoteRequest{}).Count(&total)

	var requests []models.QuoteRequest
	if err := query.Preload("Supplier").Preload("Vehicle").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&requests).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch quote requests", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total": total,
		"page":  page,
		"limit": limit,
		"data":  requests,
	})
}

// Get returns one quote request with items and thread links.
func (h *QuoteRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	qr, ok := h.load(w, r, auth)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, qr)
}

// Create creates a quote request in DRAFT with template items.
func (h *QuoteRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var in CreateQuoteRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	if problems := in.validate(); problems != nil {
		respondError(w, http.StatusBadRequest, "validation failed", problems)
		return
	}

	additional := ""
	if len(in.AdditionalSupplierIDs) > 0 {
		raw, _ := json.Marshal(in.AdditionalSupplierIDs)
		additional = string(raw)
	}

	qr := models.QuoteRequest{
		OrganizationID:        auth.OrganizationID,
		Title:                 in.Title,
		Status:                models.QuoteStatusDraft,
		VehicleID:             in.VehicleID,
		SupplierID:            in.SupplierID,
		AdditionalSupplierIDs: additional,
		ExpiryDate:            in.ExpiryDate,
		Notes:                 in.Notes,
		CreatedBy:             auth.UserID.String(),
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		number, err := generateQuoteNumber(tx, auth.OrganizationID)
		if err != nil {
			return err
		}
		qr.QuoteNumber = number

		if err := tx.Create(&qr).Error; err != nil {
			return err
		}
		for _, item := range in.Items {
			// Template items: no supplier until the send fan-out clones them
			record := models.QuoteRequestItem{
				QuoteRequestID: qr.ID,
				PartNumber:     item.PartNumber,
				Description:    item.Description,
				Quantity:       item.Quantity,
				UnitPrice:      item.UnitPrice,
				TotalPrice:     item.UnitPrice * float64(item.Quantity),
				Availability:   models.AvailabilityUnknown,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}

		var items []models.QuoteRequestItem
		if err := tx.Where("quote_request_id = ?", qr.ID).Find(&items).Error; err != nil {
			return err
		}
		qr.TotalAmount = sumItemTotals(items)
		if err := tx.Save(&qr).Error; err != nil {
			return err
		}

		return logActivity(tx, auth, "quote_request", qr.ID, "created",
			fmt.Sprintf("Quote request %s created", qr.QuoteNumber), nil)
	})
	if err != nil {
		log.Printf("❌ Failed to create quote request: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create quote request", nil)
		return
	}

	log.Printf("✅ Created quote request %s", qr.QuoteNumber)
	respondData(w, http.StatusCreated, qr)
}

// UpdateQuoteRequestInput is the request to update quote request fields
type UpdateQuoteRequestInput struct {
	Title      *string             `json:"title,omitempty"`
	Status     *models.QuoteStatus `json:"status,omitempty"`
	ExpiryDate *time.Time          `json:"expiry_date,omitempty"`
	Notes      *string             `json:"notes,omitempty"`
}

// Update patches mutable quote request fields. Converted and rejected
// requests are immutable.
func (h *QuoteRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	qr, ok := h.load(w, r, auth)
	if !ok {
		return
	}
	if !qr.IsEditable() {
		respondError(w, http.StatusForbidden, "quote request is not editable", nil)
		return
	}

	var in UpdateQuoteRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		if *in.Title == "" {
			respondError(w, http.StatusBadRequest, "validation failed", map[string]string{"title": "cannot be empty"})
			return
		}
		updates["title"] = *in.Title
	}
	if in.Status != nil {
		if !qr.CanTransitionTo(*in.Status) {
			respondError(w, http.StatusBadRequest, "validation failed",
				map[string]string{"status": fmt.Sprintf("cannot transition from %s to %s", qr.Status, *in.Status)})
			return
		}
		updates["status"] = *in.Status
	}
	if in.ExpiryDate != nil {
		updates["expiry_date"] = in.ExpiryDate
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if len(updates) == 0 {
		respondData(w, http.StatusOK, qr)
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(qr).Updates(updates).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "quote_request", qr.ID, "updated",
			fmt.Sprintf("Quote request %s updated", qr.QuoteNumber), nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update quote request", nil)
		return
	}
	respondData(w, http.StatusOK, qr)
}

// Delete removes a quote request. Only DRAFT, REJECTED and EXPIRED
// requests are deletable.
func (h *QuoteRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	qr, ok := h.load(w, r, auth)
	if !ok {
		return
	}
	if !qr.IsDeletable() {
		respondError(w, http.StatusForbidden, "quote request cannot be deleted in its current status", nil)
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_request_id = ?", qr.ID).Delete(&models.QuoteRequestItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(qr).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "quote_request", qr.ID, "deleted",
			fmt.Sprintf("Quote request %s deleted", qr.QuoteNumber), nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete quote request", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "quote request deleted"})
}

// Send fans the quote request out to its suppliers.
func (h *QuoteRequestHandler) Send(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid quote request id", nil)
		return
	}

	result, err := h.service.SendToSuppliers(auth, id)
	if err != nil {
		h.respondServiceError(w, err, "failed to send quote request")
		return
	}
	respondData(w, http.StatusOK, result)
}

// RefreshPrices runs the price-update workflow for the quote request.
func (h *QuoteRequestHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid quote request id", nil)
		return
	}

	var body struct {
		SupplierID *uuid.UUID `json:"supplier_id,omitempty"`
	}
	if r.Body != nil {
		// Body is optional; absence means refresh everything
		json.NewDecoder(r.Body).Decode(&body)
	}

	result, err := h.service.RefreshPrices(auth, id, body.SupplierID)
	if err != nil {
		h.respondServiceError(w, err, "failed to refresh prices")
		return
	}
	respondData(w, http.StatusOK, result)
}

// FollowUp sends a follow-up email to one supplier on the request.
func (h *QuoteRequestHandler) FollowUp(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid quote request id", nil)
		return
	}

	var body struct {
		SupplierID uuid.UUID `json:"supplier_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SupplierID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "validation failed", map[string]string{"supplier_id": "required"})
		return
	}

	result, err := h.service.FollowUp(auth, id, body.SupplierID)
	if err != nil {
		h.respondServiceError(w, err, "failed to send follow-up")
		return
	}
	respondData(w, http.StatusOK, result)
}

// Convert turns an approved quote request into an order.
func (h *QuoteRequestHandler) Convert(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid quote request id", nil)
		return
	}

	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	if problems := req.Validate(); problems != nil {
		respondError(w, http.StatusBadRequest, "validation failed", problems)
		return
	}

	result, err := h.service.ConvertToOrder(auth, id, req)
	if err != nil {
		h.respondServiceError(w, err, "failed to convert quote request")
		return
	}
	respondData(w, http.StatusCreated, result)
}

// load fetches the request's quote request scoped to the caller's
// organization, writing the error response itself on failure.
func (h *QuoteRequestHandler) load(w http.ResponseWriter, r *http.Request, auth *middleware.AuthContext) (*models.QuoteRequest, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid quote request id", nil)
		return nil, false
	}

	var qr models.QuoteRequest
	err = h.db.Preload("Items").Preload("Supplier").Preload("Vehicle").
		Preload("ThreadLinks").
		Where("id = ? AND organization_id = ?", id, auth.OrganizationID).
		First(&qr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "quote request not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch quote request", nil)
		}
		return nil, false
	}
	return &qr, true
}

// respondServiceError maps service sentinel errors to HTTP statuses.
// Unexpected failures log the cause server-side and return a generic
// message.
func (h *QuoteRequestHandler) respondServiceError(w http.ResponseWriter, err error, generic string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(w, http.StatusNotFound, "quote request not found", nil)
	case errors.Is(err, ErrNotEditable):
		respondError(w, http.StatusForbidden, ErrNotEditable.Error(), nil)
	case errors.Is(err, ErrNotApproved):
		respondError(w, http.StatusForbidden, ErrNotApproved.Error(), nil)
	case errors.Is(err, ErrNoEmailAddress):
		respondError(w, http.StatusBadRequest, ErrNoEmailAddress.Error(), nil)
	default:
		log.Printf("❌ %s: %v", generic, err)
		respondError(w, http.StatusInternalServerError, generic, nil)
	}
}
