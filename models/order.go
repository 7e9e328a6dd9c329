package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus tracks a purchase order from placement to receipt
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusReceived  OrderStatus = "RECEIVED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order is a purchase order, usually created by converting an approved
// quote request. Once created it is decoupled from the quote request:
// totals and items are copied, not referenced.
type Order struct {
	ID                uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrganizationID    uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_order_org_number" json:"organization_id"`
	OrderNumber       string            `gorm:"size:50;not null;uniqueIndex:idx_order_org_number" json:"order_number"`
	QuoteRequestID    *uuid.UUID        `gorm:"type:uuid;index" json:"quote_request_id,omitempty"`
	SupplierID        *uuid.UUID        `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier          *Supplier         `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Status            OrderStatus       `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	FulfillmentMethod FulfillmentMethod `gorm:"size:20;not null" json:"fulfillment_method"`
	PickupLocation    string            `gorm:"size:500" json:"pickup_location,omitempty"`
	PickupDate        *time.Time        `json:"pickup_date,omitempty"`
	ShippingAddress   string            `gorm:"type:text" json:"shipping_address,omitempty"`
	TrackingNumber    string            `gorm:"size:100" json:"tracking_number,omitempty"`
	TotalAmount       float64           `gorm:"type:decimal(14,2);default:0" json:"total_amount"`
	Notes             string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy         string            `gorm:"size:255;not null" json:"created_by"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one part line on an order. FulfillmentMethod is only set
// for SPLIT orders, where each line carries its own method.
type OrderItem struct {
	ID                uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderID           uuid.UUID         `gorm:"type:uuid;not null;index" json:"order_id"`
	PartNumber        string            `gorm:"size:100;not null" json:"part_number"`
	Description       string            `gorm:"size:500" json:"description,omitempty"`
	Quantity          int               `gorm:"not null;default:1" json:"quantity"`
	UnitPrice         float64           `gorm:"type:decimal(12,2);default:0" json:"unit_price"`
	TotalPrice        float64           `gorm:"type:decimal(14,2);default:0" json:"total_price"`
	FulfillmentMethod FulfillmentMethod `gorm:"size:20" json:"fulfillment_method,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}
