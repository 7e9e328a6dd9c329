package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The workflow service's response format is not contractually fixed: the
// same endpoint has returned arrays, wrapped bodies, fenced JSON in text,
// and bare objects across revisions. Normalize runs an ordered chain of
// shape rules and returns the first match's extraction. The order is the
// contract; new shapes go at the end, never in the middle.

type shapeRule struct {
	name    string
	match   func(v interface{}) bool
	extract func(v interface{}) map[string]interface{}
}

var shapeRules = []shapeRule{
	{
		name: "array response.body",
		match: func(v interface{}) bool {
			first, ok := firstElement(v)
			if !ok {
				return false
			}
			resp, ok := first["response"].(map[string]interface{})
			if !ok {
				return false
			}
			_, hasBody := resp["body"]
			return hasBody
		},
		extract: func(v interface{}) map[string]interface{} {
			first, _ := firstElement(v)
			resp := first["response"].(map[string]interface{})
			switch body := resp["body"].(type) {
			case map[string]interface{}:
				return body
			case string:
				if parsed := parseLooseJSON(body); parsed != nil {
					return parsed
				}
				return map[string]interface{}{"success": true, "textOutput": body}
			default:
				return first
			}
		},
	},
	{
		name: "array string output",
		match: func(v interface{}) bool {
			first, ok := firstElement(v)
			if !ok {
				return false
			}
			_, ok = first["output"].(string)
			return ok
		},
		extract: func(v interface{}) map[string]interface{} {
			first, _ := firstElement(v)
			out := first["output"].(string)
			if parsed := parseLooseJSON(out); parsed != nil {
				return parsed
			}
			return map[string]interface{}{
				"success":      true,
				"textOutput":   out,
				"updatedItems": []interface{}{},
			}
		},
	},
	{
		name: "array flat email",
		match: func(v interface{}) bool {
			first, ok := firstElement(v)
			if !ok {
				return false
			}
			return hasEmailObject(first)
		},
		extract: func(v interface{}) map[string]interface{} {
			first, _ := firstElement(v)
			return synthesizeEmail(first)
		},
	},
	{
		name: "direct emailContent",
		match: func(v interface{}) bool {
			obj, ok := v.(map[string]interface{})
			if !ok {
				return false
			}
			_, ok = obj["emailContent"]
			return ok
		},
		extract: func(v interface{}) map[string]interface{} {
			return v.(map[string]interface{})
		},
	},
	{
		name: "top-level email",
		match: func(v interface{}) bool {
			obj, ok := v.(map[string]interface{})
			return ok && hasEmailObject(obj)
		},
		extract: func(v interface{}) map[string]interface{} {
			return synthesizeEmail(v.(map[string]interface{}))
		},
	},
	{
		name: "fullResponse.data.email",
		match: func(v interface{}) bool {
			obj, ok := v.(map[string]interface{})
			if !ok {
				return false
			}
			full, ok := obj["fullResponse"].(map[string]interface{})
			if !ok {
				return false
			}
			data, ok := full["data"].(map[string]interface{})
			return ok && hasEmailObject(data)
		},
		extract: func(v interface{}) map[string]interface{} {
			obj := v.(map[string]interface{})
			full := obj["fullResponse"].(map[string]interface{})
			data := full["data"].(map[string]interface{})
			synth := synthesizeEmail(data)
			// Message id may live on the outer object rather than the email
			if synth["messageId"] == "" || synth["messageId"] == nil {
				if id, ok := obj["id"].(string); ok {
					synth["messageId"] = id
				}
			}
			return synth
		},
	},
	{
		name: "minimal id/threadId/subject",
		match: func(v interface{}) bool {
			obj, ok := v.(map[string]interface{})
			if !ok {
				return false
			}
			_, hasID := obj["id"]
			_, hasThread := obj["threadId"]
			_, hasSubject := obj["subject"]
			return hasID && hasThread && hasSubject
		},
		extract: func(v interface{}) map[string]interface{} {
			obj := v.(map[string]interface{})
			subject, _ := obj["subject"].(string)
			threadID := fmt.Sprintf("%v", obj["threadId"])
			return map[string]interface{}{
				"emailContent": map[string]interface{}{
					"subject": subject,
					"body":    fmt.Sprintf("Email sent (thread %s). Content not returned by the workflow service.", threadID),
				},
				"messageId": fmt.Sprintf("%v", obj["id"]),
				"threadId":  threadID,
			}
		},
	},
	{
		name: "plain-text output",
		match: func(v interface{}) bool {
			obj, ok := v.(map[string]interface{})
			if !ok {
				return false
			}
			out, ok := obj["output"].(string)
			if !ok {
				return false
			}
			// Only when nothing structured accompanies the text
			_, hasItems := obj["updatedItems"]
			_, hasEmail := obj["emailContent"]
			return out != "" && !hasItems && !hasEmail
		},
		extract: func(v interface{}) map[string]interface{} {
			obj := v.(map[string]interface{})
			out := obj["output"].(string)
			if parsed := parseLooseJSON(out); parsed != nil {
				return parsed
			}
			return map[string]interface{}{
				"success":      true,
				"textOutput":   out,
				"updatedItems": []interface{}{},
			}
		},
	},
}

// Normalize reduces any of the known workflow response shapes to a single
// flat object. Unrecognized objects pass through unchanged.
func Normalize(v interface{}) map[string]interface{} {
	for _, rule := range shapeRules {
		if rule.match(v) {
			return rule.extract(v)
		}
	}
	if obj, ok := v.(map[string]interface{}); ok {
		return obj
	}
	if first, ok := firstElement(v); ok {
		return first
	}
	return map[string]interface{}{}
}

// firstElement returns the first element of a non-empty JSON array when
// that element is an object.
func firstElement(v interface{}) (map[string]interface{}, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) == 0 {
		return nil, false
	}
	first, ok := arr[0].(map[string]interface{})
	return first, ok
}

// hasEmailObject reports whether obj carries an "email" object with a
// subject or body.
func hasEmailObject(obj map[string]interface{}) bool {
	email, ok := obj["email"].(map[string]interface{})
	if !ok {
		return false
	}
	_, hasSubject := email["subject"]
	_, hasBody := email["body"]
	return hasSubject || hasBody
}

// synthesizeEmail converts a flat {email: {subject, body}} shape into the
// canonical emailContent result.
func synthesizeEmail(obj map[string]interface{}) map[string]interface{} {
	email := obj["email"].(map[string]interface{})
	subject, _ := email["subject"].(string)
	body, _ := email["body"].(string)

	messageID := ""
	if id, ok := obj["messageId"].(string); ok {
		messageID = id
	} else if id, ok := email["messageId"].(string); ok {
		messageID = id
	} else if id, ok := obj["id"].(string); ok {
		messageID = id
	}

	result := map[string]interface{}{
		"emailContent": map[string]interface{}{
			"subject": subject,
			"body":    body,
		},
		"messageId": messageID,
	}
	if next, ok := obj["suggestedNextFollowUp"].(string); ok {
		result["suggestedNextFollowUp"] = next
	}
	return result
}

// parseLooseJSON extracts an object from a string that is either bare
// JSON or contains a fenced ```json block. Returns nil when no object can
// be extracted.
func parseLooseJSON(s string) map[string]interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if idx := strings.Index(s, "```json"); idx >= 0 {
		rest := s[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		} else {
			s = strings.TrimSpace(rest)
		}
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		}
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}
