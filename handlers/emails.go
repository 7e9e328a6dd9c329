package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
)

// EmailHandler is the HTTP layer over the email reconciliation service
type EmailHandler struct {
	db      *gorm.DB
	service *EmailService
}

// NewEmailHandler creates a new email handler
func NewEmailHandler() *EmailHandler {
	return &EmailHandler{db: config.DB, service: NewEmailService()}
}

// ListThreads returns the organization's email threads, optionally
// scoped to one quote request via its junction links.
func (h *EmailHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	query := h.db.Preload("Supplier").Where("organization_id = ?", auth.OrganizationID)
	if qrID := r.URL.Query().Get("quote_request_id"); qrID != "" {
		id, err := uuid.Parse(qrID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid quote_request_id", nil)
			return
		}
		query = query.Where("id IN (?)", h.db.Model(&models.QuoteRequestEmailThread{}).
			Select("thread_id").Where("quote_request_id = ?", id))
	}

	var threads []models.EmailThread
	if err := query.Order("updated_at DESC").Find(&threads).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch email threads", nil)
		return
	}
	respondData(w, http.StatusOK, threads)
}

// GetThread returns one thread with its messages in position order.
func (h *EmailHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid thread id", nil)
		return
	}

	var thread models.EmailThread
	err = h.db.Preload("Supplier").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Messages.Attachments").
		Where("id = ? AND organization_id = ?", id, auth.OrganizationID).
		First(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "email thread not found", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to fetch email thread", nil)
		}
		return
	}
	respondData(w, http.StatusOK, thread)
}

// Orphaned lists supplier threads not linked to any quote request.
func (h *EmailHandler) Orphaned(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	orphans, err := h.service.OrphanedThreads(auth)
	if err != nil {
		log.Printf("❌ Failed to list orphaned threads: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list orphaned threads", nil)
		return
	}
	respondData(w, http.StatusOK, orphans)
}

// Candidates suggests quote requests an orphaned thread could belong to.
func (h *EmailHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	threadID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid thread id", nil)
		return
	}

	candidates, err := h.service.CandidateQuoteRequests(auth, threadID, r.URL.Query().Get("search"))
	if err != nil {
		h.respondServiceError(w, err, "failed to find candidate quote requests")
		return
	}
	respondData(w, http.StatusOK, candidates)
}

// Assign links an orphaned thread to a quote request. A pre-existing
// link for the same supplier is a conflict the caller must resolve by
// merging.
func (h *EmailHandler) Assign(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var body struct {
		ThreadID       uuid.UUID `json:"thread_id"`
		QuoteRequestID uuid.UUID `json:"quote_request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	problems := map[string]string{}
	if body.ThreadID == uuid.Nil {
		problems["thread_id"] = "required"
	}
	if body.QuoteRequestID == uuid.Nil {
		problems["quote_request_id"] = "required"
	}
	if len(problems) > 0 {
		respondError(w, http.StatusBadRequest, "validation failed", problems)
		return
	}

	conflict, err := h.service.AssignThread(auth, body.ThreadID, body.QuoteRequestID)
	if err != nil {
		if errors.Is(err, ErrConflictRequiresMerge) {
			respondError(w, http.StatusConflict, ErrConflictRequiresMerge.Error(), conflict)
			return
		}
		h.respondServiceError(w, err, "failed to assign thread")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "thread assigned"})
}

// Merge folds a source thread's messages into a target thread and
// deletes the source.
func (h *EmailHandler) Merge(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var body struct {
		SourceThreadID uuid.UUID `json:"source_thread_id"`
		TargetThreadID uuid.UUID `json:"target_thread_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	problems := map[string]string{}
	if body.SourceThreadID == uuid.Nil {
		problems["source_thread_id"] = "required"
	}
	if body.TargetThreadID == uuid.Nil {
		problems["target_thread_id"] = "required"
	}
	if body.SourceThreadID != uuid.Nil && body.SourceThreadID == body.TargetThreadID {
		problems["target_thread_id"] = "cannot merge a thread into itself"
	}
	if len(problems) > 0 {
		respondError(w, http.StatusBadRequest, "validation failed", problems)
		return
	}

	if err := h.service.MergeThreads(auth, body.SourceThreadID, body.TargetThreadID); err != nil {
		h.respondServiceError(w, err, "failed to merge threads")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "threads merged"})
}

// Inbound ingests a raw inbound email: the parser workflow extracts
// structure, then the thread is matched to a supplier.
func (h *EmailHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}

	thread, err := h.service.IngestInbound(auth, raw)
	if err != nil {
		log.Printf("❌ Inbound email ingest failed: %v", err)
		respondError(w, http.StatusBadGateway, "failed to ingest inbound email", nil)
		return
	}
	respondData(w, http.StatusCreated, thread)
}

func (h *EmailHandler) respondServiceError(w http.ResponseWriter, err error, generic string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(w, http.StatusNotFound, "not found", nil)
	case errors.Is(err, ErrNotOrphaned):
		respondError(w, http.StatusBadRequest, ErrNotOrphaned.Error(), nil)
	default:
		log.Printf("❌ %s: %v", generic, err)
		respondError(w, http.StatusInternalServerError, generic, nil)
	}
}
