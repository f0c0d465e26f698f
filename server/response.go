package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chat-hub/errors"
)

type envelope struct {
	Success bool `json:"success"`
	Message any  `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondMessage(w http.ResponseWriter, status int, message any) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

// respondError maps the error to its HTTP status once, at the boundary.
// Internal errors keep their details out of the response body.
func respondError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := errors.MapToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
		message = "internal error"
	}
	writeJSON(w, status, envelope{Success: false, Message: message})
}
