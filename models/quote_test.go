package models

import "testing"

func TestCanTransitionToForwardOnly(t *testing.T) {
	tests := []struct {
		name    string
		from    QuoteStatus
		to      QuoteStatus
		allowed bool
	}{
		{"draft to sent", QuoteStatusDraft, QuoteStatusSent, true},
		{"sent back to draft", QuoteStatusSent, QuoteStatusDraft, false},
		{"sent to received", QuoteStatusSent, QuoteStatusReceived, true},
		{"received to under review", QuoteStatusReceived, QuoteStatusUnderReview, true},
		{"under review to received", QuoteStatusUnderReview, QuoteStatusReceived, true},
		{"under review to approved", QuoteStatusUnderReview, QuoteStatusApproved, true},
		{"under review to rejected", QuoteStatusUnderReview, QuoteStatusRejected, true},
		{"sent to expired", QuoteStatusSent, QuoteStatusExpired, true},
		{"approved back to sent", QuoteStatusApproved, QuoteStatusSent, false},
		{"approved to rejected", QuoteStatusApproved, QuoteStatusRejected, true},
		{"expired back to draft", QuoteStatusExpired, QuoteStatusDraft, false},
		{"same status", QuoteStatusSent, QuoteStatusSent, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qr := QuoteRequest{Status: tt.from}
			if got := qr.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestCanTransitionToReservedAndUnknown(t *testing.T) {
	qr := QuoteRequest{Status: QuoteStatusApproved}

	// Conversion goes through the convert flow, never a status patch
	if qr.CanTransitionTo(QuoteStatusConvertedToOrder) {
		t.Error("CONVERTED_TO_ORDER must not be reachable via a status update")
	}
	if qr.CanTransitionTo(QuoteStatus("SHIPPED")) {
		t.Error("unknown status must be rejected")
	}
}
