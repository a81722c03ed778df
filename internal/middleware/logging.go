package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"pass-eligibility-api/pkg/logger"
)

// LoggingMiddleware writes one access log line per request and stores a
// request-scoped logger in the context. Bodies are never logged: they carry
// passwords and personal data.
func LoggingMiddleware(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := chimw.GetReqID(r.Context())

			base := l
			if base == nil {
				base = logger.LoggerWrapper()
			}
			ctx := logger.WithLogger(r.Context(), base.With("request_id", reqID))

			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			statusCode := rw.status()
			level := slog.LevelInfo
			if statusCode >= 400 && statusCode < 500 {
				level = slog.LevelWarn
			} else if statusCode >= 500 {
				level = slog.LevelError
			}

			logger.From(ctx).Log(ctx, level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rw.bytes,
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}
