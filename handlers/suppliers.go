package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
)

// SupplierHandler handles supplier and auxiliary-email CRUD
type SupplierHandler struct {
	db *gorm.DB
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler() *SupplierHandler {
	return &SupplierHandler{db: config.DB}
}

// List returns the organization's suppliers with optional status/type
// filters and a case-insensitive name/code search.
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
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

	query := h.db.Where("organization_id = ?", auth.OrganizationID)
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if sType := r.URL.Query().Get("type"); sType != "" {
		query = query.Where("type = ?", sType)
	}
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}

	var total int64
	query.Model(&models.Supplier{}).Count(&total)

	var suppliers []models.Supplier
	if err := query.Preload("AuxiliaryEmails").Order("name ASC").
		Limit(limit).Offset((page - 1) * limit).Find(&suppliers).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch suppliers", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total": total,
		"page":  page,
		"limit": limit,
		"data":  suppliers,
	})
}

// Get returns one supplier with its auxiliary emails.
func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	supplier, ok := h.load(w, r, auth)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, supplier)
}

// SupplierInput is the create/update payload for a supplier
type SupplierInput struct {
	Code        string                `json:"code"`
	Name        string                `json:"name"`
	Type        models.SupplierType   `json:"type,omitempty"`
	Status      models.SupplierStatus `json:"status,omitempty"`
	ContactName string                `json:"contact_name,omitempty"`
	Email       string                `json:"email,omitempty"`
	Phone       string                `json:"phone,omitempty"`
	Address     string                `json:"address,omitempty"`
	City        string                `json:"city,omitempty"`
	State       string                `json:"state,omitempty"`
	PostalCode  string                `json:"postal_code,omitempty"`
	Notes       string                `json:"notes,omitempty"`
}

func (in *SupplierInput) validate() map[string]string {
	problems := map[string]string{}
	if in.Code == "" {
		problems["code"] = "required"
	}
	if in.Name == "" {
		problems["name"] = "required"
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		problems["email"] = "must be a valid email address"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// Create adds a supplier to the organization.
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var in SupplierInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	if problems := in.validate(); problems != nil {
		respondError(w, http.StatusBadRequest, "validation failed", problems)
		return
	}

	supplier := models.Supplier{
		OrganizationID: auth.OrganizationID,
		Code:           in.Code,
		Name:           in.Name,
		Type:           in.Type,
		Status:         in.Status,
		ContactName:    in.ContactName,
		Email:          in.Email,
		Phone:          in.Phone,
		Address:        in.Address,
		City:           in.City,
		State:          in.State,
		PostalCode:     in.PostalCode,
		Notes:          in.Notes,
	}
	if supplier.Type == "" {
		supplier.Type = models.SupplierTypeOther
	}
	if supplier.Status == "" {
		supplier.Status = models.SupplierStatusActive
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&supplier).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "supplier", supplier.ID, "created",
			"Supplier "+supplier.Name+" created", nil)
	})
	if err != nil {
		log.Printf("❌ Failed to create supplier: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create supplier", nil)
		return
	}
	respondData(w, http.StatusCreated, supplier)
}

// Update patches supplier fields.
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	supplier, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	var in map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}

	allowed := map[string]string{
		"code": "code", "name": "name", "type": "type", "status": "status",
		"contact_name": "contact_name", "email": "email", "phone": "phone",
		"address": "address", "city": "city", "state": "state",
		"postal_code": "postal_code", "notes": "notes",
	}
	updates := map[string]interface{}{}
	for key, col := range allowed {
		if v, ok := in[key]; ok {
			updates[col] = v
		}
	}
	if len(updates) == 0 {
		respondData(w, http.StatusOK, supplier)
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(supplier).Updates(updates).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "supplier", supplier.ID, "updated",
			"Supplier "+supplier.Name+" updated", nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update supplier", nil)
		return
	}
	respondData(w, http.StatusOK, supplier)
}

// Delete soft-deletes a supplier.
func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	supplier, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(supplier).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "supplier", supplier.ID, "deleted",
			"Supplier "+supplier.Name+" deleted", nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete supplier", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "supplier deleted"})
}

// AuxiliaryEmailInput is the payload to add an auxiliary inbox
type AuxiliaryEmailInput struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ListAuxiliaryEmails returns the supplier's auxiliary inboxes.
func (h *SupplierHandler) ListAuxiliaryEmails(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	supplier, ok := h.load(w, r, auth)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, supplier.AuxiliaryEmails)
}

// AddAuxiliaryEmail attaches an extra inbox to the supplier.
func (h *SupplierHandler) AddAuxiliaryEmail(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	supplier, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	var in AuxiliaryEmailInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		respondError(w, http.StatusBadRequest, "validation failed", map[string]string{"email": "must be a valid email address"})
		return
	}

	aux := models.AuxiliaryEmail{
		SupplierID: supplier.ID,
		Email:      in.Email,
		Name:       in.Name,
		Phone:      in.Phone,
	}
	if err := h.db.Create(&aux).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to add auxiliary email", nil)
		return
	}
	respondData(w, http.StatusCreated, aux)
}

// UpdateAuxiliaryEmail patches an auxiliary inbox's contact fields.
func (h *SupplierHandler) UpdateAuxiliaryEmail(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	supplier, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	emailID, err := uuid.Parse(mux.Vars(r)["emailId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid email id", nil)
		return
	}

	var aux models.AuxiliaryEmail
	err = h.db.Where("id = ? AND supplier_id = ?", emailID, supplier.ID).
		First(&aux).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "auxiliary email not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch auxiliary email", nil)
		}
		return
	}

	var in map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}

	updates := map[string]interface{}{}
	for _, key := range []string{"email", "name", "phone"} {
		if v, ok := in[key]; ok {
			updates[key] = v
		}
	}
	if email, ok := updates["email"].(string); ok && !strings.Contains(email, "@") {
		respondError(w, http.StatusBadRequest, "validation failed", map[string]string{"email": "must be a valid email address"})
		return
	}
	if len(updates) == 0 {
		respondData(w, http.StatusOK, aux)
		return
	}

	if err := h.db.Model(&aux).Updates(updates).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update auxiliary email", nil)
		return
	}
	respondData(w, http.StatusOK, aux)
}

// RemoveAuxiliaryEmail detaches an auxiliary inbox.
func (h *SupplierHandler) RemoveAuxiliaryEmail(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	supplier, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	emailID, err := uuid.Parse(mux.Vars(r)["emailId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid email id", nil)
		return
	}

	result := h.db.Where("id = ? AND supplier_id = ?", emailID, supplier.ID).
		Delete(&models.AuxiliaryEmail{})
	if result.Error != nil {
		respondError(w, http.StatusInternalServerError, "failed to remove auxiliary email", nil)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "auxiliary email not found", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "auxiliary email removed"})
}

func (h *SupplierHandler) load(w http.ResponseWriter, r *http.Request, auth *middleware.AuthContext) (*models.Supplier, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid supplier id", nil)
		return nil, false
	}

	var supplier models.Supplier
	err = h.db.Preload("AuxiliaryEmails").
		Where("id = ? AND organization_id = ?", id, auth.OrganizationID).
		First(&supplier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "supplier not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch supplier", nil)
		}
		return nil, false
	}
	return &supplier, true
}
