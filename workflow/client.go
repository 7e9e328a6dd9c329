package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Endpoint names. Each resolves to a URL through its environment
// variable; a missing variable is an error for that call, never a silent
// no-op.
const (
	EndpointQuoteRequest      = "quote-request"
	EndpointPriceUpdate       = "price-update"
	EndpointFollowUp          = "follow-up"
	EndpointOrderConfirmation = "order-confirmation"
	EndpointPostOrder         = "post-order"
	EndpointOrderFollowUp     = "order-follow-up"
	EndpointCustomerSupport   = "customer-support"
	EndpointPartsSearch       = "parts-search"
	EndpointEmailParser       = "email-parser"
)

var endpointEnvVars = map[string]string{
	EndpointQuoteRequest:      "QUOTE_REQUEST_WEBHOOK_URL",
	EndpointPriceUpdate:       "PRICE_UPDATE_WEBHOOK_URL",
	EndpointFollowUp:          "FOLLOW_UP_WEBHOOK_URL",
	EndpointOrderConfirmation: "ORDER_CONFIRMATION_WEBHOOK_URL",
	EndpointPostOrder:         "POST_ORDER_WEBHOOK_URL",
	EndpointOrderFollowUp:     "ORDER_FOLLOW_UP_WEBHOOK_URL",
	EndpointCustomerSupport:   "CUSTOMER_SUPPORT_WEBHOOK_URL",
	EndpointPartsSearch:       "PARTS_SEARCH_WEBHOOK_URL",
	EndpointEmailParser:       "EMAIL_PARSER_WEBHOOK_URL",
}

// Client invokes the external workflow service's webhooks. The service
// does email generation, parsing and price extraction; this client only
// signs requests and normalizes the heterogeneous responses.
type Client struct {
	secret     []byte
	httpClient *http.Client
	// The order-confirmation webhook routinely takes 1-2 minutes while
	// the service drafts and sends the confirmation email, so it gets a
	// dedicated client with headroom above that.
	slowClient *http.Client
}

// NewClient creates a workflow client using WEBHOOK_SECRET for request
// signing.
func NewClient() *Client {
	return &Client{
		secret:     []byte(os.Getenv("WEBHOOK_SECRET")),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		slowClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

// ResolveURL returns the configured URL for an endpoint name.
func ResolveURL(endpoint string) (string, error) {
	envVar, ok := endpointEnvVars[endpoint]
	if !ok {
		return "", fmt.Errorf("unknown workflow endpoint %q", endpoint)
	}
	url := os.Getenv(envVar)
	if url == "" {
		return "", fmt.Errorf("webhook URL not configured: %s is empty", envVar)
	}
	return url, nil
}

// Call POSTs payload to the named endpoint and returns the normalized
// response object.
func (c *Client) Call(endpoint string, payload interface{}) (map[string]interface{}, error) {
	return c.call(c.clientFor(endpoint), endpoint, payload)
}

func (c *Client) clientFor(endpoint string) *http.Client {
	if endpoint == EndpointOrderConfirmation {
		return c.slowClient
	}
	return c.httpClient
}

func (c *Client) call(hc *http.Client, endpoint string, payload interface{}) (map[string]interface{}, error) {
	url, err := ResolveURL(endpoint)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", endpoint, err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := signToken(c.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s webhook call failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s webhook returned status %d", endpoint, resp.StatusCode)
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Some workflow revisions answer with plain text
		return map[string]interface{}{"success": true, "textOutput": string(raw)}, nil
	}

	return Normalize(decoded), nil
}

// decodeInto re-marshals a normalized map into a typed result.
func decodeInto(normalized map[string]interface{}, target interface{}) error {
	raw, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("failed to marshal normalized response: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode normalized response: %w", err)
	}
	return nil
}

// GenerateQuoteEmail asks the workflow service to draft and send a quote
// request email to one supplier.
func (c *Client) GenerateQuoteEmail(req QuoteEmailRequest) (*EmailResult, error) {
	normalized, err := c.Call(EndpointQuoteRequest, req)
	if err != nil {
		return nil, err
	}
	var result EmailResult
	if err := decodeInto(normalized, &result); err != nil {
		return nil, err
	}
	if result.EmailContent == nil {
		return nil, fmt.Errorf("quote-request webhook returned no email content")
	}
	return &result, nil
}

// RefreshPrices asks the workflow service to extract current pricing for
// the given items from the supplier's email thread.
func (c *Client) RefreshPrices(req PriceUpdateRequest) (*PriceUpdateResult, error) {
	normalized, err := c.Call(EndpointPriceUpdate, req)
	if err != nil {
		return nil, err
	}
	var result PriceUpdateResult
	if err := decodeInto(normalized, &result); err != nil {
		return nil, err
	}
	result.Success = true
	if len(result.AllUpdates()) == 0 && result.TextOutput != "" {
		result.Note = "No structured updates returned; manual review needed"
	}
	return &result, nil
}

// GenerateFollowUp drafts a follow-up email on an existing quote thread.
func (c *Client) GenerateFollowUp(payload interface{}) (*EmailResult, error) {
	normalized, err := c.Call(EndpointFollowUp, payload)
	if err != nil {
		return nil, err
	}
	var result EmailResult
	if err := decodeInto(normalized, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ConfirmOrder sends the order-confirmation email through the slow
// client; the service takes minutes on this endpoint.
func (c *Client) ConfirmOrder(payload interface{}) (*EmailResult, error) {
	normalized, err := c.Call(EndpointOrderConfirmation, payload)
	if err != nil {
		return nil, err
	}
	var result EmailResult
	if err := decodeInto(normalized, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OrderFollowUp drafts a follow-up email on an order thread.
func (c *Client) OrderFollowUp(payload interface{}) (*EmailResult, error) {
	normalized, err := c.Call(EndpointOrderFollowUp, payload)
	if err != nil {
		return nil, err
	}
	var result EmailResult
	if err := decodeInto(normalized, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PostOrderSync pulls tracking/status updates for a placed order.
func (c *Client) PostOrderSync(payload interface{}) (*TrackingResult, error) {
	normalized, err := c.Call(EndpointPostOrder, payload)
	if err != nil {
		return nil, err
	}
	var result TrackingResult
	if err := decodeInto(normalized, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CustomerSupport forwards a support question and returns the reply.
func (c *Client) CustomerSupport(payload interface{}) (*SupportReply, error) {
	normalized, err := c.Call(EndpointCustomerSupport, payload)
	if err != nil {
		return nil, err
	}
	var result SupportReply
	if err := decodeInto(normalized, &result); err != nil {
		return nil, err
	}
	if result.Reply == "" {
		result.Reply = result.TextOutput
	}
	return &result, nil
}

// PartsSearch searches external catalogs for a part.
func (c *Client) PartsSearch(payload interface{}) (*PartsSearchResult, error) {
	normalized, err := c.Call(EndpointPartsSearch, payload)
	if err != nil {
		return nil, err
	}
	var result PartsSearchResult
	if err := decodeInto(normalized, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ParseEmail runs a raw inbound email through the parser endpoint.
func (c *Client) ParseEmail(payload interface{}) (*ParsedEmail, error) {
	normalized, err := c.Call(EndpointEmailParser, payload)
	if err != nil {
		return nil, err
	}
	var result ParsedEmail
	if err := decodeInto(normalized, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
