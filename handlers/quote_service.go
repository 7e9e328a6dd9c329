package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
	"p9e.in/fleetparts/utils"
	"p9e.in/fleetparts/workflow"
)

// workflowService is the slice of the workflow client the quote service
// uses. Narrowed to an interface so the fan-out can be exercised with a
// stub.
type workflowService interface {
	GenerateQuoteEmail(req workflow.QuoteEmailRequest) (*workflow.EmailResult, error)
	RefreshPrices(req workflow.PriceUpdateRequest) (*workflow.PriceUpdateResult, error)
	GenerateFollowUp(payload interface{}) (*workflow.EmailResult, error)
	ConfirmOrder(payload interface{}) (*workflow.EmailResult, error)
}

// QuoteService handles quote request orchestration: multi-supplier
// send fan-out, price refresh, follow-ups and conversion to order.
type QuoteService struct {
	db *gorm.DB
	wf workflowService
}

// NewQuoteService creates a new QuoteService instance
func NewQuoteService() *QuoteService {
	return &QuoteService{
		db: config.DB,
		wf: workflow.NewClient(),
	}
}

// SupplierSendResult records one successful supplier email.
type SupplierSendResult struct {
	SupplierID   string `json:"supplierId"`
	SupplierName string `json:"supplierName"`
	Subject      string `json:"subject,omitempty"`
	MessageID    string `json:"messageId,omitempty"`
	ThreadID     string `json:"threadId,omitempty"`
}

// SupplierSendError records one per-supplier failure. One supplier's
// failure never aborts the batch.
type SupplierSendError struct {
	SupplierID   string `json:"supplierId"`
	SupplierName string `json:"supplierName,omitempty"`
	Message      string `json:"message"`
}

// SendResult is the aggregate outcome of a multi-supplier send.
type SendResult struct {
	TotalSent   int                  `json:"totalSent"`
	TotalFailed int                  `json:"totalFailed"`
	Primary     *SupplierSendResult  `json:"primary,omitempty"`
	Additional  []SupplierSendResult `json:"additional"`
	Errors      []SupplierSendError  `json:"errors"`
}

// sendAccumulator builds the fan-out aggregate. Every target lands in
// exactly one bucket, and the slices stay non-nil so the JSON response
// always carries arrays.
type sendAccumulator struct {
	result SendResult
}

func newSendAccumulator() *sendAccumulator {
	return &sendAccumulator{result: SendResult{
		Additional: []SupplierSendResult{},
		Errors:     []SupplierSendError{},
	}}
}

func (a *sendAccumulator) failure(supplierID, supplierName, message string) {
	a.result.TotalFailed++
	a.result.Errors = append(a.result.Errors, SupplierSendError{
		SupplierID:   supplierID,
		SupplierName: supplierName,
		Message:      message,
	})
}

func (a *sendAccumulator) success(sent *SupplierSendResult, isPrimary bool) {
	a.result.TotalSent++
	if isPrimary {
		a.result.Primary = sent
	} else {
		a.result.Additional = append(a.result.Additional, *sent)
	}
}

// fanOut emails every target supplier through send, accumulating the
// aggregate and collecting created thread IDs. A per-supplier failure
// never aborts the batch; every target lands in exactly one bucket.
func fanOut(targetIDs []uuid.UUID, primaryID *uuid.UUID, suppliersByID map[uuid.UUID]models.Supplier, send func(models.Supplier) (*SupplierSendResult, error)) (*SendResult, []uuid.UUID) {
	acc := newSendAccumulator()
	var createdThreads []uuid.UUID

	for _, supplierID := range targetIDs {
		isPrimary := primaryID != nil && supplierID == *primaryID

		supplier, ok := suppliersByID[supplierID]
		if !ok {
			acc.failure(supplierID.String(), "", "supplier not found")
			continue
		}

		sent, err := send(supplier)
		if err != nil {
			acc.failure(supplier.ID.String(), supplier.Name, err.Error())
			continue
		}

		if threadID, parseErr := uuid.Parse(sent.ThreadID); parseErr == nil {
			createdThreads = append(createdThreads, threadID)
		}
		acc.success(sent, isPrimary)
	}

	return &acc.result, createdThreads
}

// targetSuppliers resolves the primary + additional supplier IDs of a
// quote request into a deduplicated, order-preserving ID list with the
// primary first.
func targetSuppliers(primary *uuid.UUID, additionalRaw string) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID

	if primary != nil && *primary != uuid.Nil {
		ids = append(ids, *primary)
		seen[*primary] = true
	}
	for _, tok := range utils.ParseIDList(additionalRaw) {
		id, err := uuid.Parse(tok)
		if err != nil || seen[id] {
			continue
		}
		ids = append(ids, id)
		seen[id] = true
	}
	return ids
}

// cloneTemplateItem builds a supplier-scoped copy of a template item.
// Identity fields and current pricing carry over; the clone gets its own
// row so price updates for one supplier never touch another's.
func cloneTemplateItem(template models.QuoteRequestItem, supplierID uuid.UUID) models.QuoteRequestItem {
	sid := supplierID
	return models.QuoteRequestItem{
		QuoteRequestID: template.QuoteRequestID,
		SupplierID:     &sid,
		PartNumber:     template.PartNumber,
		Description:    template.Description,
		Quantity:       template.Quantity,
		UnitPrice:      template.UnitPrice,
		TotalPrice:     template.TotalPrice,
	}
}

// ensureSupplierItems guarantees a supplier-scoped clone exists for every
// template item of the quote request, creating missing ones, and returns
// the supplier's full item set.
func (s *QuoteService) ensureSupplierItems(quoteRequestID, supplierID uuid.UUID) ([]models.QuoteRequestItem, error) {
	var templates []models.QuoteRequestItem
	if err := s.db.Where("quote_request_id = ? AND supplier_id IS NULL", quoteRequestID).
		Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to load template items: %w", err)
	}

	for _, template := range templates {
		var existing models.QuoteRequestItem
		err := s.db.Where("quote_request_id = ? AND supplier_id = ? AND part_number = ?",
			quoteRequestID, supplierID, template.PartNumber).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check for existing item: %w", err)
		}
		clone := cloneTemplateItem(template, supplierID)
		if err := s.db.Create(&clone).Error; err != nil {
			return nil, fmt.Errorf("failed to clone item %s: %w", template.PartNumber, err)
		}
	}

	var items []models.QuoteRequestItem
	if err := s.db.Where("quote_request_id = ? AND supplier_id = ?", quoteRequestID, supplierID).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load supplier items: %w", err)
	}
	return items, nil
}

// SendToSuppliers fans the quote request out as one email per target
// supplier. Per-supplier failures are recorded and the batch continues;
// the returned aggregate always covers every target.
func (s *QuoteService) SendToSuppliers(auth *middleware.AuthContext, quoteRequestID uuid.UUID) (*SendResult, error) {
	var qr models.QuoteRequest
	if err := s.db.Preload("Supplier").
		Where("id = ? AND organization_id = ?", quoteRequestID, auth.OrganizationID).
		First(&qr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !qr.IsEditable() {
		return nil, ErrNotEditable
	}

	targetIDs := targetSuppliers(qr.SupplierID, qr.AdditionalSupplierIDs)
	if len(targetIDs) == 0 {
		return nil, fmt.Errorf("quote request has no suppliers assigned")
	}

	var suppliers []models.Supplier
	if err := s.db.Preload("AuxiliaryEmails").
		Where("id IN ? AND organization_id = ?", targetIDs, auth.OrganizationID).
		Find(&suppliers).Error; err != nil {
		return nil, err
	}
	suppliersByID := make(map[uuid.UUID]models.Supplier, len(suppliers))
	for _, sup := range suppliers {
		suppliersByID[sup.ID] = sup
	}

	result, createdThreads := fanOut(targetIDs, qr.SupplierID, suppliersByID, func(supplier models.Supplier) (*SupplierSendResult, error) {
		return s.sendToSupplier(&qr, supplier)
	})

	// Best-effort junction linking. Failing the send after emails went
	// out would be worse than a missed link, so nothing below returns an
	// error.
	s.linkThreadsToSuppliers(&qr, createdThreads, suppliers)

	if result.TotalSent > 0 && qr.Status == models.QuoteStatusDraft {
		now := time.Now()
		updates := map[string]interface{}{"status": models.QuoteStatusSent, "requested_date": &now}
		if err := s.db.Model(&qr).Updates(updates).Error; err != nil {
			log.Printf("❌ Failed to mark quote request %s as sent: %v", qr.QuoteNumber, err)
		}
	}

	if err := logActivity(s.db, auth, "quote_request", qr.ID, "sent",
		fmt.Sprintf("Quote request %s sent to %d supplier(s)", qr.QuoteNumber, result.TotalSent),
		map[string]interface{}{"totalSent": result.TotalSent, "totalFailed": result.TotalFailed}); err != nil {
		log.Printf("❌ Failed to log send activity: %v", err)
	}

	log.Printf("✅ Quote request %s fan-out: sent=%d failed=%d", qr.QuoteNumber, result.TotalSent, result.TotalFailed)
	return result, nil
}

// sendToSupplier clones items for one supplier, generates the email and
// records the outbound thread.
func (s *QuoteService) sendToSupplier(qr *models.QuoteRequest, supplier models.Supplier) (*SupplierSendResult, error) {
	items, err := s.ensureSupplierItems(qr.ID, supplier.ID)
	if err != nil {
		return nil, err
	}

	if supplier.Email == "" {
		return nil, ErrNoEmailAddress
	}

	// Item identities only — prices must be supplier-authored
	payload := workflow.QuoteEmailRequest{
		QuoteRequestID: qr.ID.String(),
		QuoteNumber:    qr.QuoteNumber,
		Title:          qr.Title,
		SupplierID:     supplier.ID.String(),
		SupplierName:   supplier.Name,
		SupplierEmail:  supplier.Email,
		Notes:          qr.Notes,
	}
	for _, item := range items {
		payload.Items = append(payload.Items, workflow.ItemPayload{
			ID:          item.ID.String(),
			PartNumber:  item.PartNumber,
			Description: item.Description,
			Quantity:    item.Quantity,
		})
	}

	emailResult, err := s.wf.GenerateQuoteEmail(payload)
	if err != nil {
		return nil, err
	}

	thread := models.EmailThread{
		OrganizationID: qr.OrganizationID,
		Subject:        emailResult.EmailContent.Subject,
		SupplierID:     &supplier.ID,
	}
	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&thread).Error; err != nil {
			return fmt.Errorf("failed to create email thread: %w", err)
		}
		message := models.EmailMessage{
			ThreadID:          thread.ID,
			Direction:         models.EmailDirectionOutbound,
			ToAddress:         supplier.Email,
			Subject:           emailResult.EmailContent.Subject,
			Body:              emailResult.EmailContent.Body,
			SentAt:            &now,
			ExternalMessageID: emailResult.MessageID,
			Position:          0,
		}
		return tx.Create(&message).Error
	})
	if err != nil {
		return nil, err
	}

	return &SupplierSendResult{
		SupplierID:   supplier.ID.String(),
		SupplierName: supplier.Name,
		Subject:      emailResult.EmailContent.Subject,
		MessageID:    emailResult.MessageID,
		ThreadID:     thread.ID.String(),
	}, nil
}

// linkThreadsToSuppliers links each new thread to its supplier through
// the junction table by matching the thread's first outbound message's
// `to` address against the target suppliers' known addresses. Existing
// (quoteRequest, supplier) links are skipped; every failure is logged and
// swallowed.
// supplierForAddress finds the supplier owning an email address,
// checking the primary address and every auxiliary one.
func supplierForAddress(address string, suppliers []models.Supplier) *models.Supplier {
	for i := range suppliers {
		for _, email := range suppliers[i].AllEmails() {
			if email == address {
				return &suppliers[i]
			}
		}
	}
	return nil
}

// linkForThread decides whether a junction row should be created for a
// freshly sent thread. linked holds the supplier IDs already joined to
// the request, so repeating a send never produces a second row for the
// same supplier; a returned plan marks its supplier as linked.
func linkForThread(qr *models.QuoteRequest, threadID uuid.UUID, supplier *models.Supplier, linked map[uuid.UUID]bool) *models.QuoteRequestEmailThread {
	if supplier == nil || linked[supplier.ID] {
		return nil
	}
	linked[supplier.ID] = true
	return &models.QuoteRequestEmailThread{
		QuoteRequestID: qr.ID,
		SupplierID:     supplier.ID,
		ThreadID:       threadID,
		IsPrimary:      qr.SupplierID != nil && supplier.ID == *qr.SupplierID,
		Status:         models.ThreadLinkStatusSent,
	}
}

func (s *QuoteService) linkThreadsToSuppliers(qr *models.QuoteRequest, threadIDs []uuid.UUID, suppliers []models.Supplier) {
	linked := make(map[uuid.UUID]bool)
	var existing []models.QuoteRequestEmailThread
	if err := s.db.Where("quote_request_id = ?", qr.ID).Find(&existing).Error; err != nil {
		log.Printf("⚠️ Failed to load existing thread links for %s: %v", qr.QuoteNumber, err)
		return
	}
	for _, l := range existing {
		linked[l.SupplierID] = true
	}

	for _, threadID := range threadIDs {
		var firstOutbound models.EmailMessage
		err := s.db.Where("thread_id = ? AND direction = ?", threadID, models.EmailDirectionOutbound).
			Order("position ASC").First(&firstOutbound).Error
		if err != nil {
			log.Printf("⚠️ Thread %s has no outbound message, skipping link: %v", threadID, err)
			continue
		}

		matched := supplierForAddress(firstOutbound.ToAddress, suppliers)
		if matched == nil {
			log.Printf("⚠️ No supplier matches %q for thread %s, skipping link", firstOutbound.ToAddress, threadID)
			continue
		}

		link := linkForThread(qr, threadID, matched, linked)
		if link == nil {
			continue
		}
		if err := s.db.Create(link).Error; err != nil {
			log.Printf("⚠️ Failed to link thread %s to supplier %s: %v", threadID, matched.Name, err)
		}
	}
}

// RefreshResult is the outcome of a price refresh.
type RefreshResult struct {
	Success      bool    `json:"success"`
	ItemsUpdated int     `json:"itemsUpdated"`
	TotalAmount  float64 `json:"totalAmount"`
	TextOutput   string  `json:"textOutput,omitempty"`
	Note         string  `json:"note,omitempty"`
}

// RefreshPrices sends the supplier's email thread through the
// price-update webhook and rewrites item pricing from the response.
// Current prices are never included in the outbound payload: echoing
// them back compounds discounts on repeat refreshes.
func (s *QuoteService) RefreshPrices(auth *middleware.AuthContext, quoteRequestID uuid.UUID, supplierID *uuid.UUID) (*RefreshResult, error) {
	var qr models.QuoteRequest
	if err := s.db.Where("id = ? AND organization_id = ?", quoteRequestID, auth.OrganizationID).
		First(&qr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !qr.IsEditable() {
		return nil, ErrNotEditable
	}

	var items []models.QuoteRequestItem
	if supplierID != nil {
		// Lazy per-supplier materialization, same pattern as the send
		// fan-out. Legacy requests may only have null-supplier items.
		materialized, err := s.ensureSupplierItems(qr.ID, *supplierID)
		if err != nil {
			return nil, err
		}
		items = materialized
		if len(items) == 0 {
			if err := s.db.Where("quote_request_id = ? AND supplier_id IS NULL", qr.ID).
				Find(&items).Error; err != nil {
				return nil, err
			}
		}
	} else {
		if err := s.db.Where("quote_request_id = ?", qr.ID).Find(&items).Error; err != nil {
			return nil, err
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("quote request has no items to refresh")
	}

	payload := workflow.PriceUpdateRequest{
		QuoteRequestID: qr.ID.String(),
	}
	if supplierID != nil {
		payload.SupplierID = supplierID.String()
	}
	for _, item := range items {
		payload.Items = append(payload.Items, workflow.ItemPayload{
			ID:          item.ID.String(),
			PartNumber:  item.PartNumber,
			Description: item.Description,
			Quantity:    item.Quantity,
		})
	}
	payload.EmailThread = s.gatherThreadPayload(qr.ID, supplierID)

	wfResult, err := s.wf.RefreshPrices(payload)
	if err != nil {
		return nil, err
	}

	updates := wfResult.AllUpdates()
	if len(updates) == 0 {
		// The service produced only unstructured text; surface it for
		// manual review instead of erroring.
		return &RefreshResult{
			Success:     true,
			TotalAmount: qr.TotalAmount,
			TextOutput:  wfResult.TextOutput,
			Note:        wfResult.Note,
		}, nil
	}

	result := &RefreshResult{Success: true}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, r := range routeUpdates(items, updates, supplierID != nil) {
			applyItemUpdate(r.item, r.upd)
			if err := tx.Save(r.item).Error; err != nil {
				return fmt.Errorf("failed to save item %s: %w", r.item.PartNumber, err)
			}
			result.ItemsUpdated++
		}

		// Recompute the aggregate from every item on the request, not
		// just the refreshed scope: total always equals the sum of
		// current item totals.
		var allItems []models.QuoteRequestItem
		if err := tx.Where("quote_request_id = ?", qr.ID).Find(&allItems).Error; err != nil {
			return err
		}
		qr.TotalAmount = sumItemTotals(allItems)
		if rec := mapFulfillment(wfResult.OverallRecommendation); rec != "" {
			qr.SuggestedFulfillment = rec
		}
		if qr.Status == models.QuoteStatusSent {
			qr.Status = models.QuoteStatusReceived
		}
		if err := tx.Save(&qr).Error; err != nil {
			return fmt.Errorf("failed to save quote request: %w", err)
		}

		return logActivity(tx, auth, "quote_request", qr.ID, "prices_refreshed",
			fmt.Sprintf("Prices refreshed on %s (%d item(s) updated)", qr.QuoteNumber, result.ItemsUpdated),
			map[string]interface{}{"itemsUpdated": result.ItemsUpdated, "totalAmount": qr.TotalAmount})
	})
	if err != nil {
		return nil, err
	}

	result.TotalAmount = qr.TotalAmount
	log.Printf("✅ Refreshed prices on %s: %d item(s), total %.2f", qr.QuoteNumber, result.ItemsUpdated, qr.TotalAmount)
	return result, nil
}

// gatherThreadPayload collects every message (with attachment text) from
// the threads linked to the quote request, optionally scoped to one
// supplier. Returns nil when no thread exists yet.
func (s *QuoteService) gatherThreadPayload(quoteRequestID uuid.UUID, supplierID *uuid.UUID) *workflow.ThreadPayload {
	query := s.db.Where("quote_request_id = ?", quoteRequestID)
	if supplierID != nil {
		query = query.Where("supplier_id = ?", *supplierID)
	}
	var links []models.QuoteRequestEmailThread
	if err := query.Find(&links).Error; err != nil || len(links) == 0 {
		return nil
	}

	payload := &workflow.ThreadPayload{ThreadID: links[0].ThreadID.String()}
	for _, link := range links {
		var thread models.EmailThread
		if err := s.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).Preload("Messages.Attachments").First(&thread, "id = ?", link.ThreadID).Error; err != nil {
			continue
		}
		if payload.Subject == "" {
			payload.Subject = thread.Subject
		}
		for _, msg := range thread.Messages {
			mp := workflow.MessagePayload{
				Direction: string(msg.Direction),
				From:      msg.FromAddress,
				To:        msg.ToAddress,
				Subject:   msg.Subject,
				Body:      msg.Body,
			}
			if msg.SentAt != nil {
				mp.SentAt = msg.SentAt.Format(time.RFC3339)
			}
			for _, att := range msg.Attachments {
				mp.Attachments = append(mp.Attachments, workflow.AttachmentPayload{
					Filename:      att.Filename,
					ContentType:   att.ContentType,
					ExtractedText: att.ExtractedText,
				})
			}
			payload.Messages = append(payload.Messages, mp)
		}
	}
	return payload
}

// mapFulfillment converts the workflow service's recommendation string
// to the enum, empty when unrecognized.
func mapFulfillment(raw string) models.FulfillmentMethod {
	switch models.FulfillmentMethod(raw) {
	case models.FulfillmentPickup, models.FulfillmentDelivery, models.FulfillmentSplit:
		return models.FulfillmentMethod(raw)
	}
	return ""
}

// FollowUp generates and records a follow-up email on the supplier's
// quote thread.
func (s *QuoteService) FollowUp(auth *middleware.AuthContext, quoteRequestID, supplierID uuid.UUID) (*workflow.EmailResult, error) {
	var qr models.QuoteRequest
	if err := s.db.Where("id = ? AND organization_id = ?", quoteRequestID, auth.OrganizationID).
		First(&qr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var supplier models.Supplier
	if err := s.db.Where("id = ? AND organization_id = ?", supplierID, auth.OrganizationID).
		First(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if supplier.Email == "" {
		return nil, ErrNoEmailAddress
	}

	payload := map[string]interface{}{
		"quoteRequestId": qr.ID.String(),
		"quoteNumber":    qr.QuoteNumber,
		"supplierId":     supplier.ID.String(),
		"supplierName":   supplier.Name,
		"supplierEmail":  supplier.Email,
		"emailThread":    s.gatherThreadPayload(qr.ID, &supplierID),
	}
	result, err := s.wf.GenerateFollowUp(payload)
	if err != nil {
		return nil, err
	}

	if result.EmailContent != nil {
		s.appendOutboundMessage(qr.ID, supplier, result)
	}
	return result, nil
}

// appendOutboundMessage records a generated follow-up on the supplier's
// existing thread. Best effort: a recording failure is logged, the email
// already went out.
func (s *QuoteService) appendOutboundMessage(quoteRequestID uuid.UUID, supplier models.Supplier, result *workflow.EmailResult) {
	var link models.QuoteRequestEmailThread
	if err := s.db.Where("quote_request_id = ? AND supplier_id = ?", quoteRequestID, supplier.ID).
		First(&link).Error; err != nil {
		log.Printf("⚠️ No thread link for follow-up on quote request %s: %v", quoteRequestID, err)
		return
	}

	var maxPos int
	s.db.Model(&models.EmailMessage{}).Where("thread_id = ?", link.ThreadID).
		Select("COALESCE(MAX(position), -1)").Scan(&maxPos)

	now := time.Now()
	message := models.EmailMessage{
		ThreadID:          link.ThreadID,
		Direction:         models.EmailDirectionOutbound,
		ToAddress:         supplier.Email,
		Subject:           result.EmailContent.Subject,
		Body:              result.EmailContent.Body,
		SentAt:            &now,
		ExternalMessageID: result.MessageID,
		Position:          maxPos + 1,
	}
	if err := s.db.Create(&message).Error; err != nil {
		log.Printf("⚠️ Failed to record follow-up message: %v", err)
	}
}
