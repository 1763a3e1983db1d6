package status

import (
	"slices"
	"strings"
	"sync"
)

// MetricMap holds metrics of type T under dotted keys such as "overlay.frames"
// A key's pointer never changes, so components resolve it once and write atomically after
type MetricMap[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
}

// Entry is one metric and its key
type Entry[T any] struct {
	Key   string
	Value *T
}

// NewMetricMap creates an empty MetricMap
func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{items: make(map[string]*T)}
}

// Get resolves key, allocating the metric on first use
func (m *MetricMap[T]) Get(key string) *T {
	m.mu.RLock()
	ptr := m.items[key]
	m.mu.RUnlock()
	if ptr != nil {
		return ptr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ptr = m.items[key]; ptr == nil {
		ptr = new(T)
		m.items[key] = ptr
	}
	return ptr
}

// Entries returns the metrics whose key lies in one of scopes, sorted by key
// A scope "overlay" matches "overlay" and "overlay.*"; no scopes matches everything
func (m *MetricMap[T]) Entries(scopes ...string) []Entry[T] {
	m.mu.RLock()
	out := make([]Entry[T], 0, len(m.items))
	for k, v := range m.items {
		if inScope(k, scopes) {
			out = append(out, Entry[T]{Key: k, Value: v})
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Entry[T]) int { return strings.Compare(a.Key, b.Key) })
	return out
}

// Range calls fn for every metric in key order
func (m *MetricMap[T]) Range(fn func(key string, ptr *T)) {
	for _, e := range m.Entries() {
		fn(e.Key, e.Value)
	}
}

// Count returns the number of resolved keys
func (m *MetricMap[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func inScope(key string, scopes []string) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		if key == s || strings.HasPrefix(key, s+".") {
			return true
		}
	}
	return false
}
