package workflow

import (
	"encoding/json"
	"strings"
	"testing"
)

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad test fixture: %v", err)
	}
	return v
}

func TestNormalizeArrayResponseBody(t *testing.T) {
	v := decode(t, `[{"response": {"body": {"updatedItems": [{"partNumber": "HYD-100"}]}}}]`)
	result := Normalize(v)

	items, ok := result["updatedItems"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected updatedItems from response.body, got %v", result)
	}
}

func TestNormalizeArrayResponseBodyString(t *testing.T) {
	v := decode(t, `[{"response": {"body": "{\"success\": true, \"overallRecommendation\": \"PICKUP\"}"}}]`)
	result := Normalize(v)

	if result["overallRecommendation"] != "PICKUP" {
		t.Errorf("expected JSON string body to be parsed, got %v", result)
	}
}

func TestNormalizeArrayOutputFencedJSON(t *testing.T) {
	v := decode(t, `[{"output": "Here are the results:\n`+"```json"+`\n{\"updatedItems\": [{\"partNumber\": \"FLT-20\"}]}\n`+"```"+`\nDone."}]`)
	result := Normalize(v)

	items, ok := result["updatedItems"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected updatedItems from fenced json, got %v", result)
	}
}

func TestNormalizeArrayOutputBareJSON(t *testing.T) {
	v := decode(t, `[{"output": "{\"emailContent\": {\"subject\": \"RFQ\", \"body\": \"hello\"}}"}]`)
	result := Normalize(v)

	if _, ok := result["emailContent"]; !ok {
		t.Fatalf("expected emailContent from bare json output, got %v", result)
	}
}

func TestNormalizeArrayOutputPlainText(t *testing.T) {
	v := decode(t, `[{"output": "The supplier did not quote any prices."}]`)
	result := Normalize(v)

	if result["textOutput"] != "The supplier did not quote any prices." {
		t.Errorf("expected textOutput passthrough, got %v", result)
	}
	if result["success"] != true {
		t.Errorf("plain text output should still be a success, got %v", result["success"])
	}
}

func TestNormalizeArrayFlatEmail(t *testing.T) {
	v := decode(t, `[{"email": {"subject": "RFQ QR-2026-00012", "body": "Please quote"}, "messageId": "msg-1", "suggestedNextFollowUp": "2026-04-01"}]`)
	result := Normalize(v)

	content, ok := result["emailContent"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected synthesized emailContent, got %v", result)
	}
	if content["subject"] != "RFQ QR-2026-00012" || content["body"] != "Please quote" {
		t.Errorf("unexpected email content: %v", content)
	}
	if result["messageId"] != "msg-1" {
		t.Errorf("expected messageId msg-1, got %v", result["messageId"])
	}
	if result["suggestedNextFollowUp"] != "2026-04-01" {
		t.Errorf("expected suggestedNextFollowUp passthrough, got %v", result["suggestedNextFollowUp"])
	}
}

func TestNormalizeDirectEmailContent(t *testing.T) {
	v := decode(t, `{"emailContent": {"subject": "s", "body": "b"}, "messageId": "m-9"}`)
	result := Normalize(v)

	if result["messageId"] != "m-9" {
		t.Errorf("direct emailContent object must pass through unchanged, got %v", result)
	}
}

func TestNormalizeTopLevelEmail(t *testing.T) {
	v := decode(t, `{"email": {"subject": "s2", "body": "b2"}}`)
	result := Normalize(v)

	content, ok := result["emailContent"].(map[string]interface{})
	if !ok || content["subject"] != "s2" {
		t.Fatalf("expected synthesized emailContent from top-level email, got %v", result)
	}
}

func TestNormalizeFullResponseDataEmail(t *testing.T) {
	v := decode(t, `{"id": "outer-id", "fullResponse": {"data": {"email": {"subject": "s3", "body": "b3"}}}}`)
	result := Normalize(v)

	content, ok := result["emailContent"].(map[string]interface{})
	if !ok || content["body"] != "b3" {
		t.Fatalf("expected emailContent from fullResponse.data.email, got %v", result)
	}
	if result["messageId"] != "outer-id" {
		t.Errorf("expected messageId from outer object, got %v", result["messageId"])
	}
}

func TestNormalizeMinimalShape(t *testing.T) {
	v := decode(t, `{"id": "m-1", "threadId": "t-1", "subject": "RFQ sent"}`)
	result := Normalize(v)

	content, ok := result["emailContent"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected placeholder emailContent, got %v", result)
	}
	if content["subject"] != "RFQ sent" {
		t.Errorf("expected subject carried over, got %v", content["subject"])
	}
	body, _ := content["body"].(string)
	if body == "" || !containsStr(body, "t-1") {
		t.Errorf("placeholder body must reference the thread id, got %q", body)
	}
}

func TestNormalizePlainTextOutputObject(t *testing.T) {
	v := decode(t, `{"output": "No prices found in the thread."}`)
	result := Normalize(v)

	if result["textOutput"] != "No prices found in the thread." {
		t.Errorf("expected textOutput synthesis, got %v", result)
	}
	items, ok := result["updatedItems"].([]interface{})
	if !ok || len(items) != 0 {
		t.Errorf("expected empty updatedItems, got %v", result["updatedItems"])
	}
}

func TestNormalizeUnknownObjectUnchanged(t *testing.T) {
	v := decode(t, `{"updatedItems": [{"partNumber": "BRK-7"}], "overallRecommendation": "DELIVERY"}`)
	result := Normalize(v)

	if result["overallRecommendation"] != "DELIVERY" {
		t.Errorf("unknown-but-valid object must pass through unchanged, got %v", result)
	}
}

// Precedence: an array element carrying both response.body and output must
// be handled by the response.body rule.
func TestNormalizePrecedenceResponseBodyBeforeOutput(t *testing.T) {
	v := decode(t, `[{"response": {"body": {"winner": "body"}}, "output": "{\"winner\": \"output\"}"}]`)
	result := Normalize(v)

	if result["winner"] != "body" {
		t.Errorf("response.body must win over output, got %v", result)
	}
}

// Precedence: emailContent beats top-level email on the same object.
func TestNormalizePrecedenceEmailContentBeforeEmail(t *testing.T) {
	v := decode(t, `{"emailContent": {"subject": "canonical"}, "email": {"subject": "legacy", "body": "x"}}`)
	result := Normalize(v)

	content := result["emailContent"].(map[string]interface{})
	if content["subject"] != "canonical" {
		t.Errorf("emailContent rule must win over email rule, got %v", content)
	}
}

func containsStr(s, sub string) bool {
	return strings.Contains(s, sub)
}
