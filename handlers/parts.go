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
	"github.com/lib/pq"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
	"p9e.in/fleetparts/workflow"
)

// partsSearcher runs the external parts-search workflow
type partsSearcher interface {
	PartsSearch(payload interface{}) (*workflow.PartsSearchResult, error)
}

// PartHandler handles the parts catalog plus external parts search
type PartHandler struct {
	db       *gorm.DB
	searcher partsSearcher
}

// NewPartHandler creates a new part handler
func NewPartHandler() *PartHandler {
	return &PartHandler{db: config.DB, searcher: workflow.NewClient()}
}

// List returns the organization's parts catalog.
func (h *PartHandler) List(w http.ResponseWriter, r *http.Request) {
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
	if category := r.URL.Query().Get("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(part_number) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if r.URL.Query().Get("low_stock") == "true" {
		query = query.Where("quantity_on_hand <= reorder_point")
	}

	var total int64
	query.Model(&models.Part{}).Count(&total)

	var parts []models.Part
	if err := query.Order("part_number ASC").
		Limit(limit).Offset((page - 1) * limit).Find(&parts).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch parts", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total": total,
		"page":  page,
		"limit": limit,
		"data":  parts,
	})
}

// Get returns one catalog part.
func (h *PartHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	part, ok := h.load(w, r, auth)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, part)
}

// PartInput is the create/update payload for a catalog part
type PartInput struct {
	PartNumber     string   `json:"part_number"`
	Description    string   `json:"description"`
	Category       string   `json:"category,omitempty"`
	Manufacturer   string   `json:"manufacturer,omitempty"`
	UnitPrice      float64  `json:"unit_price,omitempty"`
	QuantityOnHand int      `json:"quantity_on_hand,omitempty"`
	ReorderPoint   int      `json:"reorder_point,omitempty"`
	ImageURLs      []string `json:"image_urls,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// Create adds a part to the catalog.
func (h *PartHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var in PartInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	problems := map[string]string{}
	if in.PartNumber == "" {
		problems["part_number"] = "required"
	}
	if in.Description == "" {
		problems["description"] = "required"
	}
	if len(problems) > 0 {
		respondError(w, http.StatusBadRequest, "validation failed", problems)
		return
	}

	part := models.Part{
		OrganizationID: auth.OrganizationID,
		PartNumber:     in.PartNumber,
		Description:    in.Description,
		Category:       in.Category,
		Manufacturer:   in.Manufacturer,
		UnitPrice:      in.UnitPrice,
		QuantityOnHand: in.QuantityOnHand,
		ReorderPoint:   in.ReorderPoint,
		ImageURLs:      pq.StringArray(in.ImageURLs),
		Notes:          in.Notes,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&part).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "part", part.ID, "created",
			"Part "+part.PartNumber+" added to catalog", nil)
	})
	if err != nil {
		log.Printf("❌ Failed to create part: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create part", nil)
		return
	}
	respondData(w, http.StatusCreated, part)
}

// Update patches catalog part fields.
func (h *PartHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	part, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	var in map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}

	allowed := map[string]string{
		"part_number": "part_number", "description": "description",
		"category": "category", "manufacturer": "manufacturer",
		"unit_price": "unit_price", "quantity_on_hand": "quantity_on_hand",
		"reorder_point": "reorder_point", "notes": "notes",
	}
	updates := map[string]interface{}{}
	for key, col := range allowed {
		if v, ok := in[key]; ok {
			updates[col] = v
		}
	}
	// text[] columns need the pq wrapper, not a raw []interface{}
	if v, ok := in["image_urls"]; ok {
		if raw, ok := v.([]interface{}); ok {
			urls := make(pq.StringArray, 0, len(raw))
			for _, u := range raw {
				if s, ok := u.(string); ok {
					urls = append(urls, s)
				}
			}
			updates["image_urls"] = urls
		}
	}
	if len(updates) == 0 {
		respondData(w, http.StatusOK, part)
		return
	}

	if err := h.db.Model(part).Updates(updates).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update part", nil)
		return
	}
	respondData(w, http.StatusOK, part)
}

// Delete soft-deletes a catalog part.
func (h *PartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	part, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	if err := h.db.Delete(part).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete part", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "part deleted"})
}

// Search runs the external parts-search workflow for parts not in the
// local catalog.
func (h *PartHandler) Search(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "validation failed", map[string]string{"q": "required"})
		return
	}

	result, err := h.searcher.PartsSearch(map[string]interface{}{
		"query":          query,
		"organizationId": auth.OrganizationID,
	})
	if err != nil {
		log.Printf("❌ Parts search failed: %v", err)
		respondError(w, http.StatusBadGateway, "parts search is unavailable", nil)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (h *PartHandler) load(w http.ResponseWriter, r *http.Request, auth *middleware.AuthContext) (*models.Part, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid part id", nil)
		return nil, false
	}

	var part models.Part
	err = h.db.Where("id = ? AND organization_id = ?", id, auth.OrganizationID).
		First(&part).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "part not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch part", nil)
		}
		return nil, false
	}
	return &part, true
}
