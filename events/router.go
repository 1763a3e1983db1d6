package events

import "sync"

// Handler receives an event payload
type Handler[E any] func(event E)

type entry[E any] struct {
	id uint64
	fn Handler[E]
}

// Router dispatches events to handlers registered per event type
//
// Architecture:
//   - Handlers are invoked synchronously in registration order
//   - Registration and removal are safe from any goroutine
//   - Handlers may unregister themselves or others during dispatch
type Router[K comparable, E any] struct {
	mu       sync.Mutex
	handlers map[K][]entry[E]
	nextID   uint64
}

// NewRouter creates an empty router
func NewRouter[K comparable, E any]() *Router[K, E] {
	return &Router[K, E]{
		handlers: make(map[K][]entry[E]),
	}
}

// On registers fn for type t and returns a func that removes it
// The returned func is idempotent
func (r *Router[K, E]) On(t K, fn Handler[E]) (off func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.handlers[t] = append(r.handlers[t], entry[E]{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(t, id) })
	}
}

func (r *Router[K, E]) remove(t K, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.handlers[t]
	for i, e := range list {
		if e.id == id {
			// Copy so in-flight dispatch snapshots stay intact
			next := make([]entry[E], 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(r.handlers, t)
			} else {
				r.handlers[t] = next
			}
			return
		}
	}
}

// Emit dispatches event to every handler registered for t at call time
func (r *Router[K, E]) Emit(t K, event E) {
	r.mu.Lock()
	list := r.handlers[t]
	r.mu.Unlock()

	for _, e := range list {
		if r.registered(t, e.id) {
			e.fn(event)
		}
	}
}

func (r *Router[K, E]) registered(t K, id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.handlers[t] {
		if e.id == id {
			return true
		}
	}
	return false
}

// HasHandlers returns true if any handlers are registered for t
func (r *Router[K, E]) HasHandlers(t K) bool {
	return r.HandlerCount(t) > 0
}

// HandlerCount returns the number of handlers registered for t
func (r *Router[K, E]) HandlerCount(t K) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers[t])
}

// Reset removes every handler
func (r *Router[K, E]) Reset() {
	r.mu.Lock()
	clear(r.handlers)
	r.mu.Unlock()
}
