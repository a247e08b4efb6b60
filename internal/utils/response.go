package utils

import (
	"encoding/json"
	"net/http"
)

type errorPayload struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the standard {detail, code} error payload.
func WriteError(w http.ResponseWriter, status int, detail, code string) {
	WriteJSON(w, status, errorPayload{Detail: detail, Code: code})
}
