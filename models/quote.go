package models

import (
	"time"

	"github.com/google/uuid"
)

// QuoteStatus is the quote request lifecycle. Requests move forward only:
// DRAFT -> SENT -> RECEIVED/UNDER_REVIEW -> APPROVED|REJECTED|EXPIRED ->
// CONVERTED_TO_ORDER (from APPROVED).
type QuoteStatus string

const (
	QuoteStatusDraft            QuoteStatus = "DRAFT"
	QuoteStatusSent             QuoteStatus = "SENT"
	QuoteStatusReceived         QuoteStatus = "RECEIVED"
	QuoteStatusUnderReview      QuoteStatus = "UNDER_REVIEW"
	QuoteStatusApproved         QuoteStatus = "APPROVED"
	QuoteStatusRejected         QuoteStatus = "REJECTED"
	QuoteStatusExpired          QuoteStatus = "EXPIRED"
	QuoteStatusConvertedToOrder QuoteStatus = "CONVERTED_TO_ORDER"
)

// ItemAvailability is the supplier-reported stock state of a quoted item
type ItemAvailability string

const (
	AvailabilityInStock      ItemAvailability = "IN_STOCK"
	AvailabilityBackordered  ItemAvailability = "BACKORDERED"
	AvailabilitySpecialOrder ItemAvailability = "SPECIAL_ORDER"
	AvailabilityUnknown      ItemAvailability = "UNKNOWN"
)

// FulfillmentMethod is how an order (or a suggested fulfillment) gets to
// the yard
type FulfillmentMethod string

const (
	FulfillmentPickup   FulfillmentMethod = "PICKUP"
	FulfillmentDelivery FulfillmentMethod = "DELIVERY"
	FulfillmentSplit    FulfillmentMethod = "SPLIT"
)

// QuoteRequest is a solicitation for pricing sent to one or more suppliers
// for a set of parts. SupplierID is the primary supplier;
// AdditionalSupplierIDs holds extra supplier IDs either as a JSON array
// string or comma-separated (legacy rows) — parse with
// utils.ParseIDList, never directly.
type QuoteRequest struct {
	ID                    uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrganizationID        uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_quote_org_number" json:"organization_id"`
	QuoteNumber           string            `gorm:"size:50;not null;uniqueIndex:idx_quote_org_number" json:"quote_number"`
	Title                 string            `gorm:"size:255;not null" json:"title"`
	Status                QuoteStatus       `gorm:"size:30;not null;default:'DRAFT';index" json:"status"`
	RequestedDate         *time.Time        `json:"requested_date,omitempty"`
	ExpiryDate            *time.Time        `json:"expiry_date,omitempty"`
	TotalAmount           float64           `gorm:"type:decimal(14,2);default:0" json:"total_amount"`
	SuggestedFulfillment  FulfillmentMethod `gorm:"size:20" json:"suggested_fulfillment,omitempty"`
	VehicleID             *uuid.UUID        `gorm:"type:uuid;index" json:"vehicle_id,omitempty"`
	Vehicle               *Vehicle          `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	SupplierID            *uuid.UUID        `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier              *Supplier         `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	AdditionalSupplierIDs string            `gorm:"type:text" json:"additional_supplier_ids,omitempty"`
	Notes                 string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy             string            `gorm:"size:255;not null" json:"created_by"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	Items       []QuoteRequestItem        `gorm:"foreignKey:QuoteRequestID" json:"items,omitempty"`
	ThreadLinks []QuoteRequestEmailThread `gorm:"foreignKey:QuoteRequestID" json:"thread_links,omitempty"`
}

// TableName specifies the table name for QuoteRequest
func (QuoteRequest) TableName() string {
	return "quote_requests"
}

// IsDeletable reports whether the request can be removed from the UI.
// Only DRAFT, REJECTED and EXPIRED requests may be deleted.
func (q *QuoteRequest) IsDeletable() bool {
	switch q.Status {
	case QuoteStatusDraft, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// IsEditable reports whether item/field mutations are allowed.
// Converted and rejected requests are immutable.
func (q *QuoteRequest) IsEditable() bool {
	return q.Status != QuoteStatusConvertedToOrder && q.Status != QuoteStatusRejected
}

// statusRank orders the lifecycle. RECEIVED and UNDER_REVIEW share a
// rank, as do the three terminal review outcomes.
var statusRank = map[QuoteStatus]int{
	QuoteStatusDraft:            0,
	QuoteStatusSent:             1,
	QuoteStatusReceived:         2,
	QuoteStatusUnderReview:      2,
	QuoteStatusApproved:         3,
	QuoteStatusRejected:         3,
	QuoteStatusExpired:          3,
	QuoteStatusConvertedToOrder: 4,
}

// CanTransitionTo reports whether a status update may move the request
// to next. The lifecycle only moves forward: a SENT request can never
// return to DRAFT. CONVERTED_TO_ORDER is reserved for the conversion
// flow and unknown statuses are rejected outright.
func (q *QuoteRequest) CanTransitionTo(next QuoteStatus) bool {
	if next == QuoteStatusConvertedToOrder {
		return false
	}
	nextRank, ok := statusRank[next]
	if !ok {
		return false
	}
	return nextRank >= statusRank[q.Status]
}

// QuoteRequestItem is one part line on a quote request. SupplierID nil
// means the line is a template shared before per-supplier cloning; when
// the request is sent each supplier gets its own clone so one supplier's
// price update never mutates another's.
type QuoteRequestItem struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	QuoteRequestID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"quote_request_id"`
	SupplierID           *uuid.UUID        `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	PartNumber           string            `gorm:"size:100;not null" json:"part_number"`
	Description          string            `gorm:"size:500" json:"description,omitempty"`
	Quantity             int               `gorm:"not null;default:1" json:"quantity"`
	UnitPrice            float64           `gorm:"type:decimal(12,2);default:0" json:"unit_price"`
	TotalPrice           float64           `gorm:"type:decimal(14,2);default:0" json:"total_price"`
	SupplierPartNumber   string            `gorm:"size:100" json:"supplier_part_number,omitempty"`
	LeadTimeDays         *int              `json:"lead_time_days,omitempty"`
	Availability         ItemAvailability  `gorm:"size:20;not null;default:'UNKNOWN'" json:"availability"`
	IsSuperseded         bool              `gorm:"default:false" json:"is_superseded"`
	OriginalPartNumber   string            `gorm:"size:100" json:"original_part_number,omitempty"`
	SupersessionNotes    string            `gorm:"type:text" json:"supersession_notes,omitempty"`
	IsAlternative        bool              `gorm:"default:false" json:"is_alternative"`
	AlternativeReason    string            `gorm:"type:text" json:"alternative_reason,omitempty"`
	SupplierNotes        string            `gorm:"type:text" json:"supplier_notes,omitempty"`
	SuggestedFulfillment FulfillmentMethod `gorm:"size:20" json:"suggested_fulfillment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for QuoteRequestItem
func (QuoteRequestItem) TableName() string {
	return "quote_request_items"
}

// IsTemplate reports whether the item is a shared template line
// (no supplier assigned yet).
func (i *QuoteRequestItem) IsTemplate() bool {
	return i.SupplierID == nil
}
