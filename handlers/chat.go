package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
	"p9e.in/fleetparts/workflow"
)

// supportAgent answers support questions via the external workflow
type supportAgent interface {
	CustomerSupport(payload interface{}) (*workflow.SupportReply, error)
}

// ChatHandler handles customer-support conversations
type ChatHandler struct {
	db    *gorm.DB
	agent supportAgent
}

// NewChatHandler creates a new chat handler
func NewChatHandler() *ChatHandler {
	return &ChatHandler{db: config.DB, agent: workflow.NewClient()}
}

// ListConversations returns the caller's support conversations.
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var conversations []models.Conversation
	err := h.db.Where("organization_id = ? AND created_by = ?", auth.OrganizationID, auth.UserID.String()).
		Order("updated_at DESC").Find(&conversations).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch conversations", nil)
		return
	}
	respondData(w, http.StatusOK, conversations)
}

// GetConversation returns one conversation with its messages.
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	conversation, ok := h.load(w, r, auth)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, conversation)
}

// SendMessage appends a user message to a conversation (creating one
// when no id is given) and returns the assistant reply from the support
// workflow.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var body struct {
		ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
		Message        string     `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	if raw, ok := mux.Vars(r)["id"]; ok {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid conversation id", nil)
			return
		}
		body.ConversationID = &id
	}
	body.Message = strings.TrimSpace(body.Message)
	if body.Message == "" {
		respondError(w, http.StatusBadRequest, "validation failed", map[string]string{"message": "required"})
		return
	}

	var conversation models.Conversation
	if body.ConversationID != nil {
		err := h.db.Where("id = ? AND organization_id = ? AND created_by = ?",
			*body.ConversationID, auth.OrganizationID, auth.UserID.String()).
			First(&conversation).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(w, http.StatusNotFound, "conversation not found", nil)
			} else {
				respondError(w, http.StatusInternalServerError, "failed to fetch conversation", nil)
			}
			return
		}
	} else {
		conversation = models.Conversation{
			OrganizationID: auth.OrganizationID,
			Title:          truncateTitle(body.Message, 80),
			CreatedBy:      auth.UserID.String(),
		}
		if err := h.db.Create(&conversation).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "failed to create conversation", nil)
			return
		}
	}

	userMsg := models.ChatMessage{
		ConversationID: conversation.ID,
		Role:           models.ChatRoleUser,
		Body:           body.Message,
	}
	if err := h.db.Create(&userMsg).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to store message", nil)
		return
	}

	reply, err := h.agent.CustomerSupport(map[string]interface{}{
		"conversationId": conversation.ID,
		"message":        body.Message,
	})
	if err != nil {
		log.Printf("❌ Support workflow failed: %v", err)
		respondError(w, http.StatusBadGateway, "support assistant is unavailable", nil)
		return
	}

	replyText := reply.Reply
	if replyText == "" {
		replyText = reply.TextOutput
	}
	assistantMsg := models.ChatMessage{
		ConversationID: conversation.ID,
		Role:           models.ChatRoleAssistant,
		Body:           replyText,
	}
	if replyText != "" {
		if err := h.db.Create(&assistantMsg).Error; err != nil {
			log.Printf("⚠️ Failed to store assistant reply: %v", err)
		}
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"conversation_id": conversation.ID,
		"reply":           replyText,
	})
}

// DeleteConversation soft-deletes a conversation.
func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	conversation, ok := h.load(w, r, auth)
	if !ok {
		return
	}

	if err := h.db.Delete(conversation).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete conversation", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "conversation deleted"})
}

func (h *ChatHandler) load(w http.ResponseWriter, r *http.Request, auth *middleware.AuthContext) (*models.Conversation, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid conversation id", nil)
		return nil, false
	}

	var conversation models.Conversation
	err = h.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("id = ? AND organization_id = ? AND created_by = ?",
		id, auth.OrganizationID, auth.UserID.String()).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "conversation not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch conversation", nil)
		}
		return nil, false
	}
	return &conversation, true
}

// truncateTitle cuts a title to at most max characters, counting runes
// so a multi-byte character is never split mid-sequence.
func truncateTitle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
