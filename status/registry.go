package status

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Registry is the central metrics facade shared by the render pipeline
// Components resolve counter pointers once at construction; hot paths only touch atomics
type Registry struct {
	Ints   *MetricMap[atomic.Int64]
	Floats *MetricMap[AtomicFloat]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Ints:   NewMetricMap[atomic.Int64](),
		Floats: NewMetricMap[AtomicFloat](),
	}
}

// Counter returns the int metric for key, creating it if absent
// Nil-safe: a nil registry hands out a detached counter so callers never branch
func (r *Registry) Counter(key string) *atomic.Int64 {
	if r == nil {
		return new(atomic.Int64)
	}
	return r.Ints.Get(key)
}

// Gauge returns the float metric for key, creating it if absent
func (r *Registry) Gauge(key string) *AtomicFloat {
	if r == nil {
		return new(AtomicFloat)
	}
	return r.Floats.Get(key)
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Ints.Count() + r.Floats.Count()
}

// Snapshot copies every metric into a flat map keyed by metric name
func (r *Registry) Snapshot() map[string]float64 {
	out := make(map[string]float64, r.TotalCount())
	r.Ints.Range(func(key string, v *atomic.Int64) {
		out[key] = float64(v.Load())
	})
	r.Floats.Range(func(key string, v *AtomicFloat) {
		out[key] = v.Get()
	})
	return out
}

// Format renders metrics as "key=value" pairs in sorted key order, for status lines
// With scopes only keys in those components are included, see MetricMap.Entries
func (r *Registry) Format(scopes ...string) string {
	var b strings.Builder
	for _, e := range r.Ints.Entries(scopes...) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%d", e.Key, e.Value.Load())
	}
	for _, e := range r.Floats.Entries(scopes...) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%.1f", e.Key, e.Value.Get())
	}
	return b.String()
}
