package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
)

// ConvertRequest is the fulfillment selection for a quote-to-order
// conversion. ItemFulfillment maps item IDs to methods and is only read
// for SPLIT.
type ConvertRequest struct {
	FulfillmentMethod models.FulfillmentMethod            `json:"fulfillment_method"`
	SupplierID        *uuid.UUID                          `json:"supplier_id,omitempty"`
	PickupLocation    string                              `json:"pickup_location,omitempty"`
	PickupDate        *time.Time                          `json:"pickup_date,omitempty"`
	ShippingAddress   string                              `json:"shipping_address,omitempty"`
	ItemFulfillment   map[string]models.FulfillmentMethod `json:"item_fulfillment,omitempty"`
	Notes             string                              `json:"notes,omitempty"`
}

// Validate checks the fulfillment selection. Returns field-level detail
// for the 400 response.
func (req *ConvertRequest) Validate() map[string]string {
	problems := map[string]string{}

	switch req.FulfillmentMethod {
	case models.FulfillmentPickup, models.FulfillmentDelivery, models.FulfillmentSplit:
	default:
		problems["fulfillment_method"] = "must be PICKUP, DELIVERY or SPLIT"
		return problems
	}

	needsPickup := req.FulfillmentMethod == models.FulfillmentPickup || req.FulfillmentMethod == models.FulfillmentSplit
	needsDelivery := req.FulfillmentMethod == models.FulfillmentDelivery || req.FulfillmentMethod == models.FulfillmentSplit

	if needsPickup {
		if req.PickupLocation == "" {
			problems["pickup_location"] = "required for PICKUP and SPLIT"
		}
		if req.PickupDate == nil {
			problems["pickup_date"] = "required for PICKUP and SPLIT"
		}
	}
	if needsDelivery && req.ShippingAddress == "" {
		problems["shipping_address"] = "required for DELIVERY and SPLIT"
	}
	if req.FulfillmentMethod == models.FulfillmentSplit && len(req.ItemFulfillment) == 0 {
		problems["item_fulfillment"] = "per-item methods required for SPLIT"
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

// ConversionResult is the order plus any non-fatal warning from the
// order-confirmation webhook.
type ConversionResult struct {
	Order   *models.Order `json:"order"`
	Warning string        `json:"warning,omitempty"`
}

// ConvertToOrder creates an order from an approved quote request and
// marks the request converted. The order-confirmation webhook runs after
// commit; its failure is a warning, never a rollback — the order exists
// either way.
func (s *QuoteService) ConvertToOrder(auth *middleware.AuthContext, quoteRequestID uuid.UUID, req ConvertRequest) (*ConversionResult, error) {
	var qr models.QuoteRequest
	if err := s.db.Preload("Items").Preload("Supplier").
		Where("id = ? AND organization_id = ?", quoteRequestID, auth.OrganizationID).
		First(&qr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if qr.Status != models.QuoteStatusApproved {
		return nil, ErrNotApproved
	}

	// Items to order: the chosen supplier's clones when a supplier is
	// named (or the request has a primary), otherwise every item.
	supplierID := req.SupplierID
	if supplierID == nil {
		supplierID = qr.SupplierID
	}
	var items []models.QuoteRequestItem
	for _, item := range qr.Items {
		if supplierID != nil {
			if item.SupplierID == nil || *item.SupplierID != *supplierID {
				continue
			}
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		// Legacy single-supplier requests carry only template items
		for _, item := range qr.Items {
			if item.SupplierID == nil {
				items = append(items, item)
			}
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("quote request has no items to order")
	}

	order := models.Order{
		OrganizationID:    auth.OrganizationID,
		QuoteRequestID:    &qr.ID,
		SupplierID:        supplierID,
		Status:            models.OrderStatusPending,
		FulfillmentMethod: req.FulfillmentMethod,
		PickupLocation:    req.PickupLocation,
		PickupDate:        req.PickupDate,
		ShippingAddress:   req.ShippingAddress,
		Notes:             req.Notes,
		CreatedBy:         auth.UserID.String(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := generateOrderNumber(tx, auth.OrganizationID)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		var total float64
		for _, item := range items {
			total += item.TotalPrice
		}
		order.TotalAmount = total

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, item := range items {
			orderItem := models.OrderItem{
				OrderID:     order.ID,
				PartNumber:  item.PartNumber,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalPrice:  item.TotalPrice,
			}
			if req.FulfillmentMethod == models.FulfillmentSplit {
				if method, ok := req.ItemFulfillment[item.ID.String()]; ok {
					orderItem.FulfillmentMethod = method
				}
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return fmt.Errorf("failed to create order item %s: %w", item.PartNumber, err)
			}
		}

		if err := tx.Model(&qr).Update("status", models.QuoteStatusConvertedToOrder).Error; err != nil {
			return fmt.Errorf("failed to mark quote request converted: %w", err)
		}

		return logActivity(tx, auth, "order", order.ID, "created",
			fmt.Sprintf("Order %s created from quote request %s", order.OrderNumber, qr.QuoteNumber),
			map[string]interface{}{"quoteRequestId": qr.ID.String(), "totalAmount": order.TotalAmount})
	})
	if err != nil {
		return nil, err
	}

	result := &ConversionResult{Order: &order}

	confirmPayload := map[string]interface{}{
		"orderId":           order.ID.String(),
		"orderNumber":       order.OrderNumber,
		"quoteRequestId":    qr.ID.String(),
		"fulfillmentMethod": order.FulfillmentMethod,
		"totalAmount":       order.TotalAmount,
	}
	if qr.Supplier != nil {
		confirmPayload["supplierName"] = qr.Supplier.Name
		confirmPayload["supplierEmail"] = qr.Supplier.Email
	}
	if _, err := s.wf.ConfirmOrder(confirmPayload); err != nil {
		log.Printf("⚠️ Order %s created but confirmation email failed: %v", order.OrderNumber, err)
		result.Warning = "order created; confirmation email failed"
	}

	log.Printf("✅ Converted quote request %s to order %s", qr.QuoteNumber, order.OrderNumber)
	return result, nil
}

// generateOrderNumber allocates the next PO-YYYY-NNNNN number for the
// organization.
func generateOrderNumber(tx *gorm.DB, orgID uuid.UUID) (string, error) {
	var count int64
	if err := tx.Model(&models.Order{}).Where("organization_id = ?", orgID).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%d-%05d", time.Now().Year(), count+1), nil
}

// generateQuoteNumber allocates the next QR-YYYY-NNNNN number for the
// organization.
func generateQuoteNumber(tx *gorm.DB, orgID uuid.UUID) (string, error) {
	var count int64
	if err := tx.Model(&models.QuoteRequest{}).Where("organization_id = ?", orgID).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("QR-%d-%05d", time.Now().Year(), count+1), nil
}
