// Package shared centralizes JSON response helpers so every handler returns
// the same envelopes.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "asset-registry/pkg/domain-errors"
)

// WriteJSON encodes v with the right content type.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into an HTTP response. The envelope
// carries the code for machine handling and the message for operators.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": err.Error(),
	})
}
