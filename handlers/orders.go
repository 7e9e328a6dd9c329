package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
	"p9e.in/fleetparts/workflow"
)

// orderWorkflow covers the webhook operations the order handler calls
type orderWorkflow interface {
	PostOrderSync(payload interface{}) (*workflow.TrackingResult, error)
	OrderFollowUp(payload interface{}) (*workflow.EmailResult, error)
}

// OrderHandler handles purchase orders
type OrderHandler struct {
	db *gorm.DB
	wf orderWorkflow
}

// NewOrderHandler creates a new order handler
func NewOrderHandler() *OrderHandler {
	return &OrderHandler{db: config.DB, wf: workflow.NewClient()}
}

// List returns the organization's orders, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
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
	if supplierID := r.URL.Query().Get("supplier_id"); supplierID != "" {
		id, err := uuid.Parse(supplierID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid supplier_id", nil)
			return
		}
		query = query.Where("supplier_id = ?", id)
	}

	var total int64
	query.Model(&models.Order{}).Count(&total)

	var orders []models.Order
	if err := query.Preload("Supplier").Preload("Items").
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).Find(&orders).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch orders", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total": total,
		"page":  page,
		"limit": limit,
		"data":  orders,
	})
}

// Get returns one order with its items.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	order, ok := h.load(w, r, auth)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, order)
}

// Update patches order status, tracking and fulfillment details.
// Cancelled and received orders are immutable.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	order, ok := h.load(w, r, auth)
	if !ok {
		return
	}
	if order.Status == models.OrderStatusCancelled || order.Status == models.OrderStatusReceived {
		respondError(w, http.StatusForbidden, "order is not editable in its current status", nil)
		return
	}

	var in map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}

	allowed := map[string]string{
		"status": "status", "tracking_number": "tracking_number",
		"pickup_location": "pickup_location", "pickup_date": "pickup_date",
		"shipping_address": "shipping_address", "notes": "notes",
	}
	updates := map[string]interface{}{}
	for key, col := range allowed {
		if v, ok := in[key]; ok {
			updates[col] = v
		}
	}
	if len(updates) == 0 {
		respondData(w, http.StatusOK, order)
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "order", order.ID, "updated",
			"Order "+order.OrderNumber+" updated", nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update order", nil)
		return
	}
	respondData(w, http.StatusOK, order)
}

// Cancel marks a pending or confirmed order cancelled.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	order, ok := h.load(w, r, auth)
	if !ok {
		return
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusConfirmed {
		respondError(w, http.StatusForbidden, "only pending or confirmed orders can be cancelled", nil)
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Update("status", models.OrderStatusCancelled).Error; err != nil {
			return err
		}
		return logActivity(tx, auth, "order", order.ID, "cancelled",
			"Order "+order.OrderNumber+" cancelled", nil)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to cancel order", nil)
		return
	}
	respondData(w, http.StatusOK, order)
}

// Sync pulls tracking status from the post-order workflow and stores
// what came back.
func (h *OrderHandler) Sync(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	order, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	result, err := h.wf.PostOrderSync(map[string]interface{}{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"status":      order.Status,
	})
	if err != nil {
		log.Printf("❌ Order sync failed for %s: %v", order.OrderNumber, err)
		respondError(w, http.StatusBadGateway, "order tracking sync is unavailable", nil)
		return
	}

	updates := map[string]interface{}{}
	if result.TrackingNumber != "" {
		updates["tracking_number"] = result.TrackingNumber
	}
	if result.Status != "" {
		if mapped, ok := mapTrackingStatus(result.Status); ok {
			updates["status"] = mapped
		}
	}
	if len(updates) > 0 {
		err := h.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(order).Updates(updates).Error; err != nil {
				return err
			}
			return logActivity(tx, auth, "order", order.ID, "synced",
				"Order "+order.OrderNumber+" tracking synced", nil)
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to store tracking update", nil)
			return
		}
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"order":    order,
		"tracking": result,
	})
}

// FollowUp generates a follow-up email for an order that went quiet.
func (h *OrderHandler) FollowUp(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	order, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	supplierName := ""
	supplierEmail := ""
	if order.Supplier != nil {
		supplierName = order.Supplier.Name
		supplierEmail = order.Supplier.Email
	}

	result, err := h.wf.OrderFollowUp(map[string]interface{}{
		"orderId":       order.ID,
		"orderNumber":   order.OrderNumber,
		"status":        order.Status,
		"supplierName":  supplierName,
		"supplierEmail": supplierEmail,
	})
	if err != nil {
		log.Printf("❌ Order follow-up failed for %s: %v", order.OrderNumber, err)
		respondError(w, http.StatusBadGateway, "order follow-up is unavailable", nil)
		return
	}
	respondData(w, http.StatusOK, result)
}

// mapTrackingStatus translates carrier-side states into the order
// lifecycle. Unknown states are ignored rather than guessed.
func mapTrackingStatus(s string) (models.OrderStatus, bool) {
	switch s {
	case "CONFIRMED", "confirmed":
		return models.OrderStatusConfirmed, true
	case "SHIPPED", "shipped", "IN_TRANSIT", "in_transit":
		return models.OrderStatusShipped, true
	case "DELIVERED", "delivered", "RECEIVED", "received":
		return models.OrderStatusReceived, true
	}
	return "", false
}

func (h *OrderHandler) load(w http.ResponseWriter, r *http.Request, auth *middleware.AuthContext) (*models.Order, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id", nil)
		return nil, false
	}

	var order models.Order
	err = h.db.Preload("Supplier").Preload("Items").
		Where("id = ? AND organization_id = ?", id, auth.OrganizationID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "order not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch order", nil)
		}
		return nil, false
	}
	return &order, true
}
