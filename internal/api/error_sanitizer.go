package api

import (
	"net/http"
	"strings"

	"github.com/ignite/outreach-monitor/internal/pkg/logger"
)

// respondSafeError logs the internal error and sends a public-safe message.
// 5xx responses never carry err.Error().
func respondSafeError(w http.ResponseWriter, code int, internalErr error, publicMsg string) {
	if internalErr != nil {
		logger.Error(publicMsg, "status", code, "error", internalErr)
	}
	if publicMsg == "" {
		publicMsg = safeErrorMessage(code, internalErr)
	}
	respondError(w, code, publicMsg)
}

// safeErrorMessage maps common internal error patterns to public-safe
// messages. 4xx errors are about user input and are returned as is.
func safeErrorMessage(code int, internalErr error) string {
	if code < 500 {
		if internalErr != nil {
			return internalErr.Error()
		}
		return "Bad request"
	}

	if internalErr == nil {
		return "An internal error occurred"
	}

	errStr := strings.ToLower(internalErr.Error())

	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "Service temporarily unavailable"

	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context canceled"):
		return "Request timed out"

	case strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "permission") ||
		strings.Contains(errStr, "access denied"):
		return "Upstream access denied"

	case strings.Contains(errStr, "redis") ||
		strings.Contains(errStr, "dynamodb") ||
		strings.Contains(errStr, "pq:"):
		return "A storage error occurred"

	default:
		return "An internal error occurred"
	}
}
