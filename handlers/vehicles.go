package handlers

import (
	"encoding/json"
	"errors"
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

// VehicleHandler handles fleet vehicle CRUD
type VehicleHandler struct {
	db *gorm.DB
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler() *VehicleHandler {
	return &VehicleHandler{db: config.DB}
}

// List returns the organization's vehicles.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
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
	if vType := r.URL.Query().Get("type"); vType != "" {
		query = query.Where("type = ?", vType)
	}
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(unit_number) LIKE ? OR LOWER(make) LIKE ? OR LOWER(model) LIKE ? OR LOWER(vin) LIKE ?",
			pattern, pattern, pattern, pattern)
	}

	var total int64
	query.Model(&models.Vehicle{}).Count(&total)

	var vehicles []models.Vehicle
	if err := query.Order("unit_number ASC").
		Limit(limit).Offset((page - 1) * limit).Find(&vehicles).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch vehicles", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total": total,
		"page":  page,
		"limit": limit,
		"data":  vehicles,
	})
}

// Get returns one vehicle with its maintenance history.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid vehicle id", nil)
		return
	}

	var vehicle models.Vehicle
	err = h.db.Preload("MaintenanceRecords", func(db *gorm.DB) *gorm.DB {
		return db.Order("scheduled_date DESC")
	}).Where("id = ? AND organization_id = ?", id, auth.OrganizationID).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "vehicle not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch vehicle", nil)
		}
		return
	}
	respondData(w, http.StatusOK, vehicle)
}

// VehicleInput is the create/update payload for a vehicle
type VehicleInput struct {
	UnitNumber   string               `json:"unit_number"`
	Make         string               `json:"make,omitempty"`
	Model        string               `json:"model,omitempty"`
	Year         int                  `json:"year,omitempty"`
	VIN          string               `json:"vin,omitempty"`
	Type         string               `json:"type,omitempty"`
	Status       models.VehicleStatus `json:"status,omitempty"`
	MeterReading float64              `json:"meter_reading,omitempty"`
	MeterUnit    string               `json:"meter_unit,omitempty"`
	Notes        string               `json:"notes,omitempty"`
}

// Create adds a vehicle to the fleet.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var in VehicleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	if in.UnitNumber == "" {
		respondError(w, http.StatusBadRequest, "validation failed", map[string]string{"unit_number": "required"})
		return
	}

	vehicle := models.Vehicle{
		OrganizationID: auth.OrganizationID,
		UnitNumber:     in.UnitNumber,
		Make:           in.Make,
		Model:          in.Model,
		Year:           in.Year,
		VIN:            in.VIN,
		Type:           in.Type,
		Status:         in.Status,
		MeterReading:   in.MeterReading,
		MeterUnit:      in.MeterUnit,
		Notes:          in.Notes,
	}
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleStatusActive
	}
	if vehicle.MeterUnit == "" {
		vehicle.MeterUnit = "hours"
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&vehicle).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "vehicle", vehicle.ID, "created",
			"Vehicle "+vehicle.UnitNumber+" added", nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create vehicle", nil)
		return
	}
	respondData(w, http.StatusCreated, vehicle)
}

// Update patches vehicle fields.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid vehicle id", nil)
		return
	}

	var vehicle models.Vehicle
	if err := h.db.Where("id = ? AND organization_id = ?", id, auth.OrganizationID).
		First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "vehicle not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch vehicle", nil)
		}
		return
	}

	var in map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}

	allowed := map[string]string{
		"unit_number": "unit_number", "make": "make", "model": "model",
		"year": "year", "vin": "vin", "type": "type", "status": "status",
		"meter_reading": "meter_reading", "meter_unit": "meter_unit",
		"notes": "notes",
	}
	updates := map[string]interface{}{}
	for key, col := range allowed {
		if v, ok := in[key]; ok {
			updates[col] = v
		}
	}
	if len(updates) == 0 {
		respondData(w, http.StatusOK, vehicle)
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&vehicle).Updates(updates).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "vehicle", vehicle.ID, "updated",
			"Vehicle "+vehicle.UnitNumber+" updated", nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update vehicle", nil)
		return
	}
	respondData(w, http.StatusOK, vehicle)
}

// Delete soft-deletes a vehicle.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid vehicle id", nil)
		return
	}

	var vehicle models.Vehicle
	if err := h.db.Where("id = ? AND organization_id = ?", id, auth.OrganizationID).
		First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "vehicle not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch vehicle", nil)
		}
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&vehicle).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "vehicle", vehicle.ID, "deleted",
			"Vehicle "+vehicle.UnitNumber+" removed", nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete vehicle", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "vehicle deleted"})
}
