// internal/middleware/accesslog.go
//
// Structured access log and request counter.
//
// Context
// -------
// AccessLog writes one zap entry per request and bumps
// `http_requests_total{method,status}`.  When requestinfo.Enrich ran
// earlier in the chain, the client IP, country, browser, device, and bot
// flag are added to the entry.
//
// Notes
// -----
//   - 5xx responses log at WARN, everything else at INFO.
//   - Oxford commas, two spaces after periods.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/animecatalog/internal/metrics"
	"github.com/yanizio/animecatalog/internal/requestinfo"
)

// statusRecorder captures the status code and body size.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// AccessLog returns a wrapper that logs every request to log.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.L()
	}
	log = log.Named("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("elapsed", time.Since(start)),
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields,
					zap.Stringer("ip", info.IP),
					zap.String("country", info.Country),
					zap.String("browser", info.UA.Browser),
					zap.String("device", info.UA.Device),
					zap.Bool("bot", info.UA.IsBot),
				)
			}

			if rec.status >= http.StatusInternalServerError {
				log.Warn("request", fields...)
				return
			}
			log.Info("request", fields...)
		})
	}
}
