package middleware

import (
	"net/http"
	"sync/atomic"
)

// MetricsCollector counts requests and their outcomes by status class.
type MetricsCollector struct {
	requestCount *atomic.Int64
	errorCount   *atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	throttled    atomic.Int64
}

// NewMetricsCollector counts into the given totals so the owner can report
// them without holding the collector.
func NewMetricsCollector(requestCount, errorCount *atomic.Int64) *MetricsCollector {
	return &MetricsCollector{
		requestCount: requestCount,
		errorCount:   errorCount,
	}
}

func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requestCount.Add(1)
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		switch {
		case rw.statusCode == http.StatusTooManyRequests:
			mc.throttled.Add(1)
			mc.clientErrors.Add(1)
		case rw.statusCode >= http.StatusInternalServerError:
			mc.serverErrors.Add(1)
		case rw.statusCode >= http.StatusBadRequest:
			mc.clientErrors.Add(1)
		default:
			return
		}
		mc.errorCount.Add(1)
	})
}

func (mc *MetricsCollector) ServerErrors() int64 {
	return mc.serverErrors.Load()
}

// Snapshot returns the outcome counters keyed for the /metrics payload.
func (mc *MetricsCollector) Snapshot() map[string]int64 {
	return map[string]int64{
		"client_errors": mc.clientErrors.Load(),
		"server_errors": mc.serverErrors.Load(),
		"throttled":     mc.throttled.Load(),
	}
}
