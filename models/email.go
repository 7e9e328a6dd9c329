package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EmailDirection marks which way a message travelled
type EmailDirection string

const (
	EmailDirectionInbound  EmailDirection = "INBOUND"
	EmailDirectionOutbound EmailDirection = "OUTBOUND"
)

// EmailThread groups the messages exchanged with one supplier mailbox.
// A thread whose SupplierID is set but which has no QuoteRequestEmailThread
// row is "orphaned": we know the vendor, not the quote it belongs to.
type EmailThread struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	Subject        string     `gorm:"size:500" json:"subject,omitempty"`
	SupplierID     *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier       *Supplier  `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []EmailMessage `gorm:"foreignKey:ThreadID" json:"messages,omitempty"`
}

// TableName specifies the table name for EmailThread
func (EmailThread) TableName() string {
	return "email_threads"
}

// EmailMessage is one email within a thread. Position orders messages
// within the thread and survives thread merges.
type EmailMessage struct {
	ID                uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ThreadID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"thread_id"`
	Direction         EmailDirection `gorm:"size:10;not null" json:"direction"`
	FromAddress       string         `gorm:"size:255" json:"from_address,omitempty"`
	ToAddress         string         `gorm:"size:255" json:"to_address,omitempty"`
	Subject           string         `gorm:"size:500" json:"subject,omitempty"`
	Body              string         `gorm:"type:text" json:"body,omitempty"`
	BodyHTML          string         `gorm:"type:text" json:"body_html,omitempty"`
	SentAt            *time.Time     `json:"sent_at,omitempty"`
	ReceivedAt        *time.Time     `json:"received_at,omitempty"`
	ExternalMessageID string         `gorm:"size:255;index" json:"external_message_id,omitempty"`
	Position          int            `gorm:"not null;default:0;index" json:"position"`
	Metadata          datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Attachments []Attachment `gorm:"foreignKey:EmailMessageID" json:"attachments,omitempty"`
}

// TableName specifies the table name for EmailMessage
func (EmailMessage) TableName() string {
	return "email_messages"
}

// Attachment is a file on an email message. ExtractedText holds text
// pulled out of the file by the external parser, so price refreshes can
// feed attachment contents back to the workflow service.
type Attachment struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	EmailMessageID uuid.UUID `gorm:"type:uuid;not null;index" json:"email_message_id"`
	Filename       string    `gorm:"size:255;not null" json:"filename"`
	ContentType    string    `gorm:"size:100" json:"content_type,omitempty"`
	SizeBytes      int64     `gorm:"default:0" json:"size_bytes"`
	StoragePath    string    `gorm:"size:500" json:"storage_path,omitempty"`
	ExtractedText  string    `gorm:"type:text" json:"extracted_text,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Attachment
func (Attachment) TableName() string {
	return "attachments"
}

// ThreadLinkStatus is the per-link state of a quote request email thread
type ThreadLinkStatus string

const (
	ThreadLinkStatusSent    ThreadLinkStatus = "SENT"
	ThreadLinkStatusReplied ThreadLinkStatus = "REPLIED"
	ThreadLinkStatusClosed  ThreadLinkStatus = "CLOSED"
)

// QuoteRequestEmailThread links one email thread to one quote request for
// one supplier. The unique index on (quote_request_id, supplier_id) is
// what makes multi-supplier quoting work without duplicating QuoteRequest
// rows: each supplier gets exactly one thread per request.
type QuoteRequestEmailThread struct {
	ID             uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	QuoteRequestID uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_qret_request_supplier" json:"quote_request_id"`
	SupplierID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_qret_request_supplier" json:"supplier_id"`
	ThreadID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"thread_id"`
	Thread         *EmailThread     `gorm:"foreignKey:ThreadID" json:"thread,omitempty"`
	IsPrimary      bool             `gorm:"default:false" json:"is_primary"`
	Status         ThreadLinkStatus `gorm:"size:20;not null;default:'SENT'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for QuoteRequestEmailThread
func (QuoteRequestEmailThread) TableName() string {
	return "quote_request_email_threads"
}
