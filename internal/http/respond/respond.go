package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the standard API response wrapper. Resource-specific fields are
// flattened next to it by embedding it in a larger struct.
type Envelope struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// OK is the envelope of a successful response.
func OK() Envelope {
	return Envelope{Success: true, Errors: []string{}}
}

// Failed is the envelope of a rejected request.
func Failed(messages ...string) Envelope {
	if messages == nil {
		messages = []string{}
	}
	return Envelope{Success: false, Errors: messages}
}

// Fetch carries the documents of a read.
type Fetch[T any] struct {
	Envelope
	Docs []T `json:"docs"`
}

// Created carries the id of an inserted row.
type Created struct {
	Envelope
	LastInsertedID int64 `json:"lastInsertedId"`
}

// Affected carries the number of rows an update or delete touched.
type Affected struct {
	Envelope
	Affected int64 `json:"affected"`
}

// Docs wraps docs in a successful fetch response, never encoding a null list.
func Docs[T any](docs []T) Fetch[T] {
	if docs == nil {
		docs = []T{}
	}
	return Fetch[T]{Envelope: OK(), Docs: docs}
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", slog.Any("error", err))
	}
}

// Error writes a failed envelope with the given messages.
func Error(w http.ResponseWriter, status int, messages ...string) {
	JSON(w, status, Failed(messages...))
}
