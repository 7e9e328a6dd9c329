package handlers

import (
	"encoding/json"
	"net/http"
)

// respondData writes a {data: ...} JSON body.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

// respondError writes an {error, details?} JSON body. details is omitted
// when nil.
func respondError(w http.ResponseWriter, status int, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{"error": message}
	if details != nil {
		body["details"] = details
	}
	json.NewEncoder(w).Encode(body)
}
