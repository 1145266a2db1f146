// Package httputil centralizes JSON response writing and sentinel error
// translation for the HTTP layer.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"broker/pkg/sentinel"
)

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps sentinel errors onto HTTP statuses and writes a JSON error
// envelope. Unmapped errors become 500 without leaking the message.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, sentinel.ErrBusy):
		status, message = http.StatusConflict, "submission is being validated"
	case errors.Is(err, sentinel.ErrConflict):
		status, message = http.StatusConflict, "conflict"
	case errors.Is(err, sentinel.ErrCatalogInvalid):
		status, message = http.StatusUnprocessableEntity, "rule catalog invalid"
	}
	WriteJSON(w, status, map[string]string{"error": message})
}
