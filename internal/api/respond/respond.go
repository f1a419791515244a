// Package respond holds the JSON and error helpers shared by the HTTP handlers.
package respond

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Vasu1712/scenyx-chat/internal/auth"
	"github.com/Vasu1712/scenyx-chat/internal/storage"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] failed to encode response: %v", err)
	}
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// StoreError maps storage errors onto HTTP status codes.
func StoreError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrNotMember):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrNotGroup):
		status = http.StatusBadRequest
	}
	log.Printf("[HTTP] %s failed: %v", op, err)
	http.Error(w, http.StatusText(status), status)
}

// Actor returns the user a request acts for. With a verified identity on
// the context the claimed id must match it (or be empty); without one the
// claimed id is trusted. ok is false when the request must be refused.
func Actor(w http.ResponseWriter, r *http.Request, claimed string) (string, bool) {
	if id, found := auth.FromContext(r.Context()); found {
		if claimed != "" && claimed != id.UserID {
			http.Error(w, "Forbidden: user id does not match token", http.StatusForbidden)
			return "", false
		}
		return id.UserID, true
	}
	if claimed == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return "", false
	}
	return claimed, true
}
