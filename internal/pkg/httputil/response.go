package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ignite/outreach-monitor/internal/pkg/logger"
)

// MaxBodyBytes caps request bodies. Queries and task notes are short text.
const MaxBodyBytes = 64 << 10

// ErrBodyTooLarge is returned by DecodeBody when the body exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("request body too large")

// ErrorResponse is the error envelope returned by every /api endpoint.
// Code is the lower-snake status text, e.g. "not_found" or "conflict".
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON encodes data with the given status. Encoding failures happen after
// the header is written, so they are only logged.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("encoding JSON response", "status", status, "error", err)
	}
}

// Error writes an ErrorResponse. message must already be safe to show.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message, Code: StatusCode(status)})
}

// StatusCode turns an HTTP status into its machine-readable code.
func StatusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}

// Decode reads a required JSON body into dst, writing a 400 (or 413) and
// returning false when it cannot.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := DecodeBody(r, dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrBodyTooLarge):
		Error(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, io.EOF):
		Error(w, http.StatusBadRequest, "request body is required")
	default:
		Error(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
	}
	return false
}

// DecodeBody decodes at most MaxBodyBytes of the body into dst. An empty
// body yields io.EOF so callers can treat it as optional.
func DecodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return io.EOF
	}
	body := io.LimitReader(r.Body, MaxBodyBytes+1)
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if len(data) > MaxBodyBytes {
		return ErrBodyTooLarge
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return io.EOF
	}
	return json.Unmarshal(data, dst)
}
