package handlers

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
	"p9e.in/fleetparts/workflow"
)

// emailParser is the slice of the workflow client the email service
// needs.
type emailParser interface {
	ParseEmail(payload interface{}) (*workflow.ParsedEmail, error)
}

// EmailService handles inbound email ingestion and orphaned-thread
// reconciliation. A thread is orphaned when its supplier is known but no
// quote request link exists yet.
type EmailService struct {
	db     *gorm.DB
	parser emailParser
}

// NewEmailService creates a new EmailService instance
func NewEmailService() *EmailService {
	return &EmailService{
		db:     config.DB,
		parser: workflow.NewClient(),
	}
}

// OrphanedThread is one orphaned thread with enough context for the
// matching screen.
type OrphanedThread struct {
	Thread       models.EmailThread `json:"thread"`
	SupplierName string             `json:"supplier_name"`
	LastMessage  string             `json:"last_message,omitempty"`
	MessageCount int                `json:"message_count"`
}

// OrphanedThreads lists the organization's orphaned email threads.
func (s *EmailService) OrphanedThreads(auth *middleware.AuthContext) ([]OrphanedThread, error) {
	var threads []models.EmailThread
	err := s.db.Preload("Supplier").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("organization_id = ? AND supplier_id IS NOT NULL", auth.OrganizationID).
		Where("NOT EXISTS (SELECT 1 FROM quote_request_email_threads l WHERE l.thread_id = email_threads.id)").
		Order("updated_at DESC").
		Find(&threads).Error
	if err != nil {
		return nil, err
	}

	result := make([]OrphanedThread, 0, len(threads))
	for _, thread := range threads {
		entry := OrphanedThread{
			Thread:       thread,
			MessageCount: len(thread.Messages),
		}
		if thread.Supplier != nil {
			entry.SupplierName = thread.Supplier.Name
		}
		if n := len(thread.Messages); n > 0 {
			entry.LastMessage = thread.Messages[n-1].Body
		}
		result = append(result, entry)
	}
	return result, nil
}

// CandidateQuoteRequests returns the quote requests an orphaned thread
// may be assigned to: same supplier only, filtered by quote number or
// title substring (case-insensitive).
func (s *EmailService) CandidateQuoteRequests(auth *middleware.AuthContext, threadID uuid.UUID, search string) ([]models.QuoteRequest, error) {
	thread, err := s.loadOrphanedThread(auth, threadID)
	if err != nil {
		return nil, err
	}

	query := s.db.Where("organization_id = ? AND supplier_id = ?", auth.OrganizationID, thread.SupplierID)
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(quote_number) LIKE ? OR LOWER(title) LIKE ?", pattern, pattern)
	}

	var candidates []models.QuoteRequest
	if err := query.Order("created_at DESC").Find(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

// AssignConflict carries the detail of a ConflictRequiresMerge outcome
// so the caller can offer a merge.
type AssignConflict struct {
	ExistingThreadID uuid.UUID `json:"existing_thread_id"`
	SourceThreadID   uuid.UUID `json:"source_thread_id"`
}

// AssignThread links an orphaned thread to a quote request. When the
// request already has a thread for the thread's supplier the assignment
// stops with ErrConflictRequiresMerge and a conflict payload; merging is
// the only resolution and must be an explicit caller decision.
func (s *EmailService) AssignThread(auth *middleware.AuthContext, threadID, quoteRequestID uuid.UUID) (*AssignConflict, error) {
	thread, err := s.loadOrphanedThread(auth, threadID)
	if err != nil {
		return nil, err
	}

	var qr models.QuoteRequest
	if err := s.db.Where("id = ? AND organization_id = ?", quoteRequestID, auth.OrganizationID).
		First(&qr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var existing models.QuoteRequestEmailThread
	err = s.db.Where("quote_request_id = ? AND supplier_id = ?", qr.ID, *thread.SupplierID).
		First(&existing).Error
	if err == nil {
		// Do not silently overwrite: the caller must decide to merge
		return &AssignConflict{
			ExistingThreadID: existing.ThreadID,
			SourceThreadID:   thread.ID,
		}, ErrConflictRequiresMerge
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	link := models.QuoteRequestEmailThread{
		QuoteRequestID: qr.ID,
		SupplierID:     *thread.SupplierID,
		ThreadID:       thread.ID,
		Status:         models.ThreadLinkStatusReplied,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("failed to link thread: %w", err)
		}
		return logActivity(tx, auth, "email_thread", thread.ID, "assigned",
			fmt.Sprintf("Email thread assigned to quote request %s", qr.QuoteNumber), nil)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Assigned thread %s to quote request %s", thread.ID, qr.QuoteNumber)
	return nil, nil
}

// resequenceForMerge assigns merged-in messages their new positions:
// relative order is kept (stable on position) and numbering continues
// after the target's current maximum, so gaps in the source collapse.
func resequenceForMerge(targetMax int, messages []models.EmailMessage) []models.EmailMessage {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Position < messages[j].Position
	})
	for i := range messages {
		messages[i].Position = targetMax + 1 + i
	}
	return messages
}

// MergeThreads moves every message from the source thread into the
// target thread, preserving relative order after the target's existing
// messages, then deletes the source thread. Irreversible.
func (s *EmailService) MergeThreads(auth *middleware.AuthContext, sourceID, targetID uuid.UUID) error {
	if sourceID == targetID {
		return fmt.Errorf("cannot merge a thread into itself")
	}

	var source, target models.EmailThread
	if err := s.db.Where("id = ? AND organization_id = ?", sourceID, auth.OrganizationID).
		First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.db.Where("id = ? AND organization_id = ?", targetID, auth.OrganizationID).
		First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var maxPos int
		tx.Model(&models.EmailMessage{}).Where("thread_id = ?", target.ID).
			Select("COALESCE(MAX(position), -1)").Scan(&maxPos)

		var messages []models.EmailMessage
		if err := tx.Where("thread_id = ?", source.ID).Order("position ASC").
			Find(&messages).Error; err != nil {
			return err
		}
		for _, msg := range resequenceForMerge(maxPos, messages) {
			updates := map[string]interface{}{
				"thread_id": target.ID,
				"position":  msg.Position,
			}
			if err := tx.Model(&models.EmailMessage{}).Where("id = ?", msg.ID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to move message %s: %w", msg.ID, err)
			}
		}

		if err := tx.Delete(&source).Error; err != nil {
			return fmt.Errorf("failed to delete source thread: %w", err)
		}

		return logActivity(tx, auth, "email_thread", target.ID, "merged",
			fmt.Sprintf("Merged %d message(s) from thread %s", len(messages), source.ID),
			map[string]interface{}{"sourceThreadId": source.ID.String()})
	})
}

// IngestInbound runs a raw inbound email through the parser webhook,
// stores it as a message on a new or existing thread, and links the
// sender to a supplier by address (primary or auxiliary).
func (s *EmailService) IngestInbound(auth *middleware.AuthContext, raw map[string]interface{}) (*models.EmailThread, error) {
	parsed, err := s.parser.ParseEmail(raw)
	if err != nil {
		return nil, err
	}

	fromAddress := parsed.FromAddress
	if fromAddress == "" {
		fromAddress = parsed.SupplierEmail
	}

	supplierID := s.matchSupplierByEmail(auth.OrganizationID, fromAddress)

	// Reuse a thread when the external message threads onto one we know
	var thread models.EmailThread
	found := false
	if parsed.MessageID != "" {
		var prior models.EmailMessage
		if err := s.db.Joins("JOIN email_threads t ON t.id = email_messages.thread_id").
			Where("t.organization_id = ? AND email_messages.external_message_id = ?", auth.OrganizationID, parsed.MessageID).
			First(&prior).Error; err == nil {
			if err := s.db.First(&thread, "id = ?", prior.ThreadID).Error; err == nil {
				found = true
			}
		}
	}
	if !found {
		thread = models.EmailThread{
			OrganizationID: auth.OrganizationID,
			Subject:        parsed.Subject,
			SupplierID:     supplierID,
		}
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if !found {
			if err := tx.Create(&thread).Error; err != nil {
				return fmt.Errorf("failed to create thread: %w", err)
			}
		}
		var maxPos int
		tx.Model(&models.EmailMessage{}).Where("thread_id = ?", thread.ID).
			Select("COALESCE(MAX(position), -1)").Scan(&maxPos)

		message := models.EmailMessage{
			ThreadID:          thread.ID,
			Direction:         models.EmailDirectionInbound,
			FromAddress:       fromAddress,
			ToAddress:         parsed.ToAddress,
			Subject:           parsed.Subject,
			Body:              parsed.Body,
			ReceivedAt:        &now,
			ExternalMessageID: parsed.MessageID,
			Position:          maxPos + 1,
		}
		return tx.Create(&message).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Ingested inbound email from %q into thread %s", fromAddress, thread.ID)
	return &thread, nil
}

// matchSupplierByEmail finds the supplier owning an address, checking
// primary and auxiliary inboxes. Nil when nothing matches.
func (s *EmailService) matchSupplierByEmail(orgID uuid.UUID, address string) *uuid.UUID {
	if address == "" {
		return nil
	}
	address = strings.ToLower(strings.TrimSpace(address))

	var supplier models.Supplier
	if err := s.db.Where("organization_id = ? AND LOWER(email) = ?", orgID, address).
		First(&supplier).Error; err == nil {
		return &supplier.ID
	}

	var aux models.AuxiliaryEmail
	if err := s.db.Joins("JOIN suppliers ON suppliers.id = auxiliary_emails.supplier_id").
		Where("suppliers.organization_id = ? AND LOWER(auxiliary_emails.email) = ?", orgID, address).
		First(&aux).Error; err == nil {
		return &aux.SupplierID
	}
	return nil
}

// loadOrphanedThread loads a thread and verifies it is orphaned: known
// supplier, no quote request link.
func (s *EmailService) loadOrphanedThread(auth *middleware.AuthContext, threadID uuid.UUID) (*models.EmailThread, error) {
	var thread models.EmailThread
	if err := s.db.Where("id = ? AND organization_id = ?", threadID, auth.OrganizationID).
		First(&thread).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if thread.SupplierID == nil {
		return nil, ErrNotOrphaned
	}

	var linkCount int64
	if err := s.db.Model(&models.QuoteRequestEmailThread{}).
		Where("thread_id = ?", thread.ID).Count(&linkCount).Error; err != nil {
		return nil, err
	}
	if linkCount > 0 {
		return nil, ErrNotOrphaned
	}
	return &thread, nil
}
