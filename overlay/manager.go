package overlay

import (
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/ascii-overlay/scheduler"
)

// Manager is the registry mapping sources to their instances
// The registry is safe for concurrent use; instances themselves are not, see package doc
type Manager struct {
	env Env

	mu        sync.Mutex
	instances map[Source]*Instance
	closed    bool

	ready     chan struct{}
	readyOnce sync.Once

	statInstances *atomic.Int64
}

// NewManager creates a manager using env's collaborators
func NewManager(env Env) (*Manager, error) {
	if env.Scheduler == nil {
		return nil, ErrNoScheduler
	}
	env = env.withDefaults()
	return &Manager{
		env:           env,
		instances:     make(map[Source]*Instance),
		ready:         make(chan struct{}),
		statInstances: env.Metrics.Counter(MetricInstances),
	}, nil
}

// Attach returns src's instance, merging opts, or creates one
func (m *Manager) Attach(src Source, opts ...Options) (*Instance, error) {
	if !validSource(src) {
		return nil, ErrInvalidSource
	}
	var merged Options
	for _, o := range opts {
		merged = merged.Merge(o)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if in, ok := m.instances[src]; ok {
		m.mu.Unlock()
		if !merged.Empty() {
			in.SetOptions(merged)
		}
		return in, nil
	}
	m.mu.Unlock()

	// Built outside the lock: construction registers listeners that may call back
	in := newInstance(m, src, DefaultConfig().Apply(merged))

	m.mu.Lock()
	if existing, ok := m.instances[src]; ok || m.closed {
		m.mu.Unlock()
		in.Destroy()
		if ok {
			return existing, nil
		}
		return nil, ErrClosed
	}
	m.instances[src] = in
	m.statInstances.Store(int64(len(m.instances)))
	m.mu.Unlock()

	in.log.Info("overlay: attached",
		"layer", in.surf.LayerID(),
		"density", in.cfg.Density,
		"font_size", in.cfg.FontSize,
		"show_video", in.cfg.ShowVideo,
	)
	return in, nil
}

// Lookup returns src's instance if attached
func (m *Manager) Lookup(src Source) (*Instance, bool) {
	if !validSource(src) {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.instances[src]
	return in, ok
}

// Len returns the number of live instances
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}

// Instances returns a snapshot of live instances
func (m *Manager) Instances() []*Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Instance, 0, len(m.instances))
	for _, in := range m.instances {
		out = append(out, in)
	}
	return out
}

func (m *Manager) forget(in *Instance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.instances[in.src]; ok && cur == in {
		delete(m.instances, in.src)
		m.statInstances.Store(int64(len(m.instances)))
	}
}

// Install announces the manager as ready; only the first call has effect
func (m *Manager) Install() {
	m.readyOnce.Do(func() { close(m.ready) })
}

// Ready is closed once Install ran
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// OnReady runs fn on its own goroutine once the manager is ready
func (m *Manager) OnReady(fn func(*Manager)) {
	scheduler.Go(func() {
		<-m.ready
		fn(m)
	})
}

// Close destroys every instance and rejects further attaches
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	list := make([]*Instance, 0, len(m.instances))
	for _, in := range m.instances {
		list = append(list, in)
	}
	m.mu.Unlock()

	for _, in := range list {
		in.Destroy()
	}
}
