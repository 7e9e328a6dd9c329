package utils

import (
	"encoding/json"
	"strings"
)

// ParseIDList decodes a stored supplier-ID list that may be either a JSON
// array string ('["a","b"]') or a comma-separated string ("a, b").
// JSON is tried first; on failure the value is split on commas. Tokens
// are trimmed and empty tokens dropped. Returns an empty slice for blank
// input.
func ParseIDList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	var fromJSON []string
	if err := json.Unmarshal([]byte(raw), &fromJSON); err == nil {
		result := make([]string, 0, len(fromJSON))
		for _, tok := range fromJSON {
			tok = strings.TrimSpace(tok)
			if tok != "" {
				result = append(result, tok)
			}
		}
		return result
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, tok := range parts {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			result = append(result, tok)
		}
	}
	return result
}
