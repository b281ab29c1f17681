package transport

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationResponse carries every violation at once; callers are
// expected to fix them in a single pass.
type ValidationResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string, details map[string]string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

func WriteValidationMessages(w http.ResponseWriter, messages []string) {
	WriteJSON(w, http.StatusUnprocessableEntity, ValidationResponse{
		Error:    "validation error",
		Messages: messages,
	})
}
