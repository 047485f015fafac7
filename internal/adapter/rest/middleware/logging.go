package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"github.com/jrybusiness/stylerental-backend/internal/platform/metrics"
)

type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logger logs every request and records latency and error counts per chi route pattern.
// m may be nil.
func Logger(log *logger.Logger, m *metrics.MetricsManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrapResponseWriter(w)

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			route := routePattern(r)
			if m != nil {
				m.APILatency.WithLabelValues(r.Method, route).Observe(duration.Seconds())
				if rw.status >= http.StatusBadRequest {
					m.APIErrorsTotal.WithLabelValues(route, strconv.Itoa(rw.status)).Inc()
				}
			}

			kv := []interface{}{
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", rw.status,
				"bytes", rw.bytes,
				"duration_ms", duration.Milliseconds(),
				"remote_addr", r.RemoteAddr,
			}
			switch {
			case rw.status >= http.StatusInternalServerError:
				log.Error("request completed", kv...)
			case rw.status >= http.StatusBadRequest:
				log.Warn("request completed", kv...)
			default:
				log.Info("request completed", kv...)
			}
		})
	}
}

// routePattern keeps metric label cardinality bounded by using the matched pattern.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
