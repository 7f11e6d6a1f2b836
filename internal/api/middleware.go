package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
)

// requestLogger logs one line per request through the structured logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []interface{}{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		}
		switch {
		case status >= 500:
			logger.Error("http request", fields...)
		case r.URL.Path == "/health" || r.URL.Path == "/health/live":
			logger.Debug("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
	})
}
