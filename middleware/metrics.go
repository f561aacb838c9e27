package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/open-mmpa/functions/metrics"
)

// Instrument records request count and latency for function.
func Instrument(m *metrics.Metrics, function string) func(http.Handler) http.Handler {
	if m == nil {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			m.ObserveRequest(function, strconv.Itoa(sw.statusCode), time.Since(start))
		})
	}
}
