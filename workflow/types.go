package workflow

// EmailContent is a generated email ready to send.
type EmailContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailResult is the canonical result of the email-generating endpoints
// (quote request, follow-up, order confirmation).
type EmailResult struct {
	EmailContent          *EmailContent `json:"emailContent,omitempty"`
	MessageID             string        `json:"messageId,omitempty"`
	ThreadID              string        `json:"threadId,omitempty"`
	SuggestedNextFollowUp string        `json:"suggestedNextFollowUp,omitempty"`
}

// ItemPayload is the slimmed-down item representation sent to the
// workflow service. Prices are deliberately absent: quoted prices must be
// supplier-authored, and echoing current prices back into a refresh
// compounds discounts on repeat calls.
type ItemPayload struct {
	ID          string `json:"id"`
	PartNumber  string `json:"partNumber"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
}

// ThreadPayload carries an email thread to the price-update endpoint.
type ThreadPayload struct {
	ThreadID string           `json:"threadId"`
	Subject  string           `json:"subject,omitempty"`
	Messages []MessagePayload `json:"messages"`
}

// MessagePayload is one email message in a ThreadPayload.
type MessagePayload struct {
	Direction   string              `json:"direction"`
	From        string              `json:"from,omitempty"`
	To          string              `json:"to,omitempty"`
	Subject     string              `json:"subject,omitempty"`
	Body        string              `json:"body,omitempty"`
	SentAt      string              `json:"sentAt,omitempty"`
	Attachments []AttachmentPayload `json:"attachments,omitempty"`
}

// AttachmentPayload carries attachment metadata plus any text previously
// extracted from the file.
type AttachmentPayload struct {
	Filename      string `json:"filename"`
	ContentType   string `json:"contentType,omitempty"`
	ExtractedText string `json:"extractedText,omitempty"`
}

// QuoteEmailRequest is the payload for the quote-request email endpoint.
type QuoteEmailRequest struct {
	QuoteRequestID string        `json:"quoteRequestId"`
	QuoteNumber    string        `json:"quoteNumber"`
	Title          string        `json:"title,omitempty"`
	SupplierID     string        `json:"supplierId"`
	SupplierName   string        `json:"supplierName"`
	SupplierEmail  string        `json:"supplierEmail"`
	Items          []ItemPayload `json:"items"`
	Notes          string        `json:"notes,omitempty"`
}

// PriceUpdateRequest is the payload for the price-update endpoint.
type PriceUpdateRequest struct {
	QuoteRequestID string         `json:"quoteRequestId"`
	SupplierID     string         `json:"supplierId,omitempty"`
	Items          []ItemPayload  `json:"items"`
	EmailThread    *ThreadPayload `json:"emailThread,omitempty"`
}

// UpdatedItem is one item pricing update returned by the price-update
// endpoint. LeadTime is either a number of days or a free-text string,
// so it decodes as interface{} and is interpreted downstream.
type UpdatedItem struct {
	ItemID             string      `json:"itemId,omitempty"`
	PartNumber         string      `json:"partNumber,omitempty"`
	UnitPrice          *float64    `json:"unitPrice,omitempty"`
	TotalPrice         *float64    `json:"totalPrice,omitempty"`
	SupplierPartNumber string      `json:"supplierPartNumber,omitempty"`
	Availability       string      `json:"availability,omitempty"`
	LeadTime           interface{} `json:"leadTime,omitempty"`
	IsSuperseded       *bool       `json:"isSuperseded,omitempty"`
	OriginalPartNumber string      `json:"originalPartNumber,omitempty"`
	SupersessionNotes  string      `json:"supersessionNotes,omitempty"`
	IsAlternative      *bool       `json:"isAlternative,omitempty"`
	AlternativeReason  string      `json:"alternativeReason,omitempty"`
	SupplierNotes      string      `json:"supplierNotes,omitempty"`
}

// PriceOperations is the nested shape some workflow revisions return
// instead of a top-level updatedItems array.
type PriceOperations struct {
	Update []UpdatedItem `json:"update,omitempty"`
}

// PriceUpdateResult is the canonical price-update response. When the
// service produced only unstructured text, Success is still true and
// TextOutput carries the raw text for manual review.
type PriceUpdateResult struct {
	Success               bool             `json:"success"`
	UpdatedItems          []UpdatedItem    `json:"updatedItems,omitempty"`
	Operations            *PriceOperations `json:"operations,omitempty"`
	OverallRecommendation string           `json:"overallRecommendation,omitempty"`
	TextOutput            string           `json:"textOutput,omitempty"`
	Note                  string           `json:"note,omitempty"`
}

// AllUpdates returns the item updates regardless of which of the two
// response shapes carried them.
func (r *PriceUpdateResult) AllUpdates() []UpdatedItem {
	if len(r.UpdatedItems) > 0 {
		return r.UpdatedItems
	}
	if r.Operations != nil {
		return r.Operations.Update
	}
	return nil
}

// ParsedEmail is the canonical result of the email-parser endpoint.
type ParsedEmail struct {
	Subject       string `json:"subject,omitempty"`
	Body          string `json:"body,omitempty"`
	FromAddress   string `json:"fromAddress,omitempty"`
	ToAddress     string `json:"toAddress,omitempty"`
	SupplierEmail string `json:"supplierEmail,omitempty"`
	MessageID     string `json:"messageId,omitempty"`
	TextOutput    string `json:"textOutput,omitempty"`
}

// PartsSearchHit is one result from the parts-search endpoint.
type PartsSearchHit struct {
	PartNumber   string   `json:"partNumber"`
	Description  string   `json:"description,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Source       string   `json:"source,omitempty"`
}

// PartsSearchResult is the canonical parts-search response.
type PartsSearchResult struct {
	Results    []PartsSearchHit `json:"results,omitempty"`
	TextOutput string           `json:"textOutput,omitempty"`
}

// SupportReply is the canonical customer-support response.
type SupportReply struct {
	Reply      string `json:"reply,omitempty"`
	TextOutput string `json:"textOutput,omitempty"`
}

// TrackingResult is the canonical post-order tracking sync response.
type TrackingResult struct {
	TrackingNumber string `json:"trackingNumber,omitempty"`
	Status         string `json:"status,omitempty"`
	TextOutput     string `json:"textOutput,omitempty"`
}
