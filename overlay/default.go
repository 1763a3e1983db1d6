package overlay

import (
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/ascii-overlay/scheduler"
)

var (
	defaultManager atomic.Pointer[Manager]
	defaultReady   = make(chan struct{})
	defaultOnce    sync.Once
)

// Install creates the process-wide manager and broadcasts readiness
// Later calls replace the default manager; readiness is broadcast once
func Install(env Env) (*Manager, error) {
	m, err := NewManager(env)
	if err != nil {
		return nil, err
	}
	defaultManager.Store(m)
	m.Install()
	defaultOnce.Do(func() { close(defaultReady) })
	return m, nil
}

// Default returns the installed manager, nil before Install
func Default() *Manager {
	return defaultManager.Load()
}

// Attach attaches src through the installed manager
func Attach(src Source, opts ...Options) (*Instance, error) {
	m := Default()
	if m == nil {
		return nil, ErrNotInstalled
	}
	return m.Attach(src, opts...)
}

// Ready is closed once a manager was installed
func Ready() <-chan struct{} {
	return defaultReady
}

// OnReady runs fn with the installed manager once one exists
func OnReady(fn func(*Manager)) {
	scheduler.Go(func() {
		<-defaultReady
		fn(Default())
	})
}
