package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
)

// MaintenanceHandler handles vehicle maintenance records
type MaintenanceHandler struct {
	db *gorm.DB
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler() *MaintenanceHandler {
	return &MaintenanceHandler{db: config.DB}
}

// List returns the organization's maintenance records, optionally
// filtered by vehicle and status.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
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
	if vehicleID := r.URL.Query().Get("vehicle_id"); vehicleID != "" {
		id, err := uuid.Parse(vehicleID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid vehicle_id", nil)
			return
		}
		query = query.Where("vehicle_id = ?", id)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Model(&models.MaintenanceRecord{}).Count(&total)

	var records []models.MaintenanceRecord
	if err := query.Preload("Vehicle").Preload("Parts").
		Order("scheduled_date DESC NULLS LAST, created_at DESC").
		Limit(limit).Offset((page - 1) * limit).Find(&records).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch maintenance records", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total": total,
		"page":  page,
		"limit": limit,
		"data":  records,
	})
}

// Get returns one maintenance record with its part lines.
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	record, ok := h.load(w, r, auth)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, record)
}

// MaintenancePartInput is one part line consumed by a job
type MaintenancePartInput struct {
	PartNumber  string  `json:"part_number"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitCost    float64 `json:"unit_cost,omitempty"`
}

// MaintenanceInput is the create payload for a maintenance record
type MaintenanceInput struct {
	VehicleID     uuid.UUID                `json:"vehicle_id"`
	Type          models.MaintenanceType   `json:"type,omitempty"`
	Status        models.MaintenanceStatus `json:"status,omitempty"`
	Description   string                   `json:"description"`
	ScheduledDate *time.Time               `json:"scheduled_date,omitempty"`
	CompletedDate *time.Time               `json:"completed_date,omitempty"`
	MeterReading  float64                  `json:"meter_reading,omitempty"`
	LaborCost     float64                  `json:"labor_cost,omitempty"`
	Photos        []string                 `json:"photos,omitempty"`
	PerformedBy   string                   `json:"performed_by,omitempty"`
	Parts         []MaintenancePartInput   `json:"parts,omitempty"`
}

// Create records a maintenance job against a vehicle. Parts cost is
// derived from the part lines.
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var in MaintenanceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	problems := map[string]string{}
	if in.VehicleID == uuid.Nil {
		problems["vehicle_id"] = "required"
	}
	if in.Description == "" {
		problems["description"] = "required"
	}
	for i, part := range in.Parts {
		if part.PartNumber == "" {
			problems["parts["+strconv.Itoa(i)+"].part_number"] = "required"
		}
		if part.Quantity <= 0 {
			problems["parts["+strconv.Itoa(i)+"].quantity"] = "must be positive"
		}
	}
	if len(problems) > 0 {
		respondError(w, http.StatusBadRequest, "validation failed", problems)
		return
	}

	// Vehicle must belong to the caller's organization
	var vehicle models.Vehicle
	if err := h.db.Where("id = ? AND organization_id = ?", in.VehicleID, auth.OrganizationID).
		First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "vehicle not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch vehicle", nil)
		}
		return
	}

	record := models.MaintenanceRecord{
		OrganizationID: auth.OrganizationID,
		VehicleID:      vehicle.ID,
		Type:           in.Type,
		Status:         in.Status,
		Description:    in.Description,
		ScheduledDate:  in.ScheduledDate,
		CompletedDate:  in.CompletedDate,
		MeterReading:   in.MeterReading,
		LaborCost:      in.LaborCost,
		Photos:         pq.StringArray(in.Photos),
		PerformedBy:    in.PerformedBy,
		CreatedBy:      auth.UserID.String(),
	}
	if record.Type == "" {
		record.Type = models.MaintenanceTypeScheduled
	}
	if record.Status == "" {
		record.Status = models.MaintenanceStatusScheduled
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		partsCost := 0.0
		for _, part := range in.Parts {
			line := models.MaintenancePart{
				MaintenanceRecordID: record.ID,
				PartNumber:          part.PartNumber,
				Description:         part.Description,
				Quantity:            part.Quantity,
				UnitCost:            part.UnitCost,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			partsCost += part.UnitCost * float64(part.Quantity)
		}
		record.PartsCost = partsCost
		if err := tx.Save(&record).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "maintenance", record.ID, "created",
			"Maintenance recorded for unit "+vehicle.UnitNumber, nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create maintenance record", nil)
		return
	}
	respondData(w, http.StatusCreated, record)
}

// Update patches record status and fields. Marking a job COMPLETED
// without a completed date stamps it now and rolls the vehicle's meter
// forward.
func (h *MaintenanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	record, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	var in map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}

	allowed := map[string]string{
		"type": "type", "status": "status", "description": "description",
		"scheduled_date": "scheduled_date", "completed_date": "completed_date",
		"meter_reading": "meter_reading", "labor_cost": "labor_cost",
		"performed_by": "performed_by",
	}
	updates := map[string]interface{}{}
	for key, col := range allowed {
		if v, ok := in[key]; ok {
			updates[col] = v
		}
	}

	completing := false
	if status, ok := in["status"].(string); ok &&
		models.MaintenanceStatus(status) == models.MaintenanceStatusCompleted &&
		record.Status != models.MaintenanceStatusCompleted {
		completing = true
		if _, hasDate := in["completed_date"]; !hasDate {
			updates["completed_date"] = time.Now()
		}
	}

	if len(updates) == 0 {
		respondData(w, http.StatusOK, record)
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(record).Updates(updates).Error; err != nil {
			return err
		}
		if completing && record.MeterReading > 0 {
			if err := tx.Model(&models.Vehicle{}).
				Where("id = ? AND meter_reading < ?", record.VehicleID, record.MeterReading).
				Update("meter_reading", record.MeterReading).Error; err != nil {
				return err
			}
		}
		return logActivity(tx, auth, "maintenance", record.ID, "updated",
			"Maintenance record updated", nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update maintenance record", nil)
		return
	}
	respondData(w, http.StatusOK, record)
}

// Delete soft-deletes a maintenance record and its part lines.
func (h *MaintenanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	record, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("maintenance_record_id = ?", record.ID).
			Delete(&models.MaintenancePart{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(record).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "maintenance", record.ID, "deleted",
			"Maintenance record deleted", nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete maintenance record", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "maintenance record deleted"})
}

func (h *MaintenanceHandler) load(w http.ResponseWriter, r *http.Request, auth *middleware.AuthContext) (*models.MaintenanceRecord, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid maintenance record id", nil)
		return nil, false
	}

	var record models.MaintenanceRecord
	err = h.db.Preload("Vehicle").Preload("Parts").
		Where("id = ? AND organization_id = ?", id, auth.OrganizationID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "maintenance record not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch maintenance record", nil)
		}
		return nil, false
	}
	return &record, true
}
