package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
)

// logActivity appends an audit row. Call it with the transaction the
// mutation runs in so the log and the change commit together.
func logActivity(tx *gorm.DB, auth *middleware.AuthContext, entityType string, entityID uuid.UUID, action, description string, details map[string]interface{}) error {
	entry := models.ActivityLog{
		OrganizationID: auth.OrganizationID,
		UserID:         auth.UserID.String(),
		EntityType:     entityType,
		EntityID:       entityID,
		Action:         action,
		Description:    description,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}
	return tx.Create(&entry).Error
}

// GetActivityFeed returns the organization's audit trail, newest first.
func GetActivityFeed(w http.ResponseWriter, r *http.Request) {
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

	query := config.DB.Where("organization_id = ?", auth.OrganizationID)
	if entityType := r.URL.Query().Get("entity_type"); entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}

	var total int64
	query.Model(&models.ActivityLog{}).Count(&total)

	var entries []models.ActivityLog
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch activity", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total": total,
		"page":  page,
		"limit": limit,
		"data":  entries,
	})
}
