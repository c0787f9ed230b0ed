package metrics

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Counter is a lock-free monotonic counter.
type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// HTTPStats aggregates request outcomes across the whole process.
type HTTPStats struct {
	requests     Counter
	clientErrors Counter
	serverErrors Counter
	totalNanos   int64
}

func (s *HTTPStats) Observe(status int, d time.Duration) {
	s.requests.Inc()
	switch {
	case status >= 500:
		s.serverErrors.Inc()
	case status >= 400:
		s.clientErrors.Inc()
	}
	atomic.AddInt64(&s.totalNanos, int64(d))
}

// Snapshot returns the current totals. avg_duration_ms is the mean
// over all observed requests, zero when nothing has been observed.
func (s *HTTPStats) Snapshot() map[string]uint64 {
	requests := s.requests.Load()
	snap := map[string]uint64{
		"requests":        requests,
		"client_errors":   s.clientErrors.Load(),
		"server_errors":   s.serverErrors.Load(),
		"avg_duration_ms": 0,
	}
	if requests > 0 {
		total := time.Duration(atomic.LoadInt64(&s.totalNanos))
		snap["avg_duration_ms"] = uint64(total.Milliseconds()) / requests
	}
	return snap
}

// statusRecorder captures the response status code for observation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware observes every request flowing through the wrapped handler.
func (s *HTTPStats) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := StartTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.Observe(rec.status, timer.Duration())
	})
}
