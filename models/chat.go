package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRole identifies who authored a chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// Conversation is a customer-support chat session. Assistant replies come
// from the customer-support webhook.
type Conversation struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Title          string    `gorm:"size:255" json:"title,omitempty"`
	CreatedBy      string    `gorm:"size:255;not null" json:"created_by"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	Messages []ChatMessage `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// TableName specifies the table name
func (Conversation) TableName() string {
	return "conversations"
}

// ChatMessage is one turn in a support conversation.
type ChatMessage struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Role           ChatRole  `gorm:"size:20;not null" json:"role"`
	Body           string    `gorm:"type:text;not null" json:"body"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (ChatMessage) TableName() string {
	return "chat_messages"
}
