package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"chatscript-bridge/internal/metrics"
)

// AccessLog emits one line per completed request with the client address,
// the request line and the status line. When m is non-nil the request is
// also counted.
func AccessLog(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			logger.Info("request",
				"client", r.RemoteAddr,
				"request", fmt.Sprintf("%s %s %s", r.Method, r.URL.RequestURI(), r.Proto),
				"status", fmt.Sprintf("%d %s", status, http.StatusText(status)),
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
				"request_id", GetRequestID(r),
			)

			if m != nil {
				m.ObserveRequest(status, elapsed)
			}
		})
	}
}
