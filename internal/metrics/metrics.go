// Package metrics keeps the counters the api exposes on /metrics in the
// Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"
)

// Histogram is a lock-free fixed-bucket histogram.
type Histogram struct {
	sumNs   uint64
	count   uint64
	buckets []float64 // upper bounds in seconds; +Inf is implicit
	counts  []uint64  // len(buckets)+1, last slot is +Inf
}

// NewHistogram builds a histogram with the given upper bounds (seconds).
func NewHistogram(buckets ...float64) *Histogram {
	return &Histogram{buckets: buckets, counts: make([]uint64, len(buckets)+1)}
}

// Observe records one duration. Non-positive durations are ignored.
func (h *Histogram) Observe(d time.Duration) {
	if d <= 0 {
		return
	}
	seconds := d.Seconds()
	idx := len(h.buckets)
	for i, bound := range h.buckets {
		if seconds <= bound {
			idx = i
			break
		}
	}
	atomic.AddUint64(&h.counts[idx], 1)
	atomic.AddUint64(&h.sumNs, uint64(d.Nanoseconds()))
	atomic.AddUint64(&h.count, 1)
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	return atomic.LoadUint64(&h.count)
}

func (h *Histogram) write(sb *strings.Builder, name, help, leFmt string) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s histogram\n", name, help, name)
	var cumulative uint64
	for i, bound := range h.buckets {
		cumulative += atomic.LoadUint64(&h.counts[i])
		fmt.Fprintf(sb, "%s_bucket{le=\"%s\"} %d\n", name, fmt.Sprintf(leFmt, bound), cumulative)
	}
	cumulative += atomic.LoadUint64(&h.counts[len(h.buckets)])
	fmt.Fprintf(sb, "%s_bucket{le=\"+Inf\"} %d\n", name, cumulative)
	fmt.Fprintf(sb, "%s_sum %.6f\n", name, float64(atomic.LoadUint64(&h.sumNs))/float64(time.Second))
	fmt.Fprintf(sb, "%s_count %d\n", name, atomic.LoadUint64(&h.count))
}

// Registry groups the process counters. The 64-bit fields come first so
// atomic access stays aligned on 32-bit platforms.
type Registry struct {
	FetchErrors    uint64
	RateLimitHits  uint64
	CacheHits      uint64
	CacheMisses    uint64
	Notifications  uint64
	ActiveSessions int64
	FetchLatency   *Histogram
}

// NewRegistry returns a registry with the default fetch latency buckets.
func NewRegistry() *Registry {
	return &Registry{FetchLatency: NewHistogram(0.05, 0.1, 0.25, 0.5, 1, 2, 5)}
}

// Inc atomically increments a counter field of r.
func Inc(counter *uint64) {
	atomic.AddUint64(counter, 1)
}

// AddSessions adjusts the active session gauge.
func (r *Registry) AddSessions(delta int64) {
	atomic.AddInt64(&r.ActiveSessions, delta)
}

// WriteTo writes all metrics in the Prometheus text format.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	sb.WriteString("mybooks_up 1\n")
	fmt.Fprintf(&sb,
		"mybooks_catalog_fetch_errors_total %d\n"+
			"mybooks_catalog_rate_limit_hits_total %d\n"+
			"mybooks_page_cache_hits_total %d\n"+
			"mybooks_page_cache_misses_total %d\n"+
			"mybooks_notifications_total %d\n"+
			"mybooks_active_sessions %d\n",
		atomic.LoadUint64(&r.FetchErrors),
		atomic.LoadUint64(&r.RateLimitHits),
		atomic.LoadUint64(&r.CacheHits),
		atomic.LoadUint64(&r.CacheMisses),
		atomic.LoadUint64(&r.Notifications),
		atomic.LoadInt64(&r.ActiveSessions),
	)
	r.FetchLatency.write(&sb, "mybooks_catalog_fetch_latency_seconds", "Catalog page fetch latency.", "%.2f")
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}
