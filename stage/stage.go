// Package stage is the host layer stack overlays are inserted into
package stage

import (
	"errors"
	"sync"

	"github.com/lixenwraith/ascii-overlay/events"
)

var ErrNotFound = errors.New("stage: reference layer not found")

// Layer is anything the host composites, bottom to top
type Layer interface {
	LayerID() string
}

// Size is the host display area in host units (pixels or cells)
type Size struct {
	Width, Height int
}

type resizeKey struct{}

// Stage is an ordered layer stack with resize broadcast
// Safe for concurrent use; listeners run on the goroutine calling Resize
type Stage struct {
	mu     sync.RWMutex
	layers []Layer
	size   Size

	router *events.Router[resizeKey, Size]
}

// New creates an empty stage of the given size
func New(w, h int) *Stage {
	return &Stage{
		size:   Size{w, h},
		router: events.NewRouter[resizeKey, Size](),
	}
}

// Append pushes l on top of the stack; an already present layer is moved
func (s *Stage) Append(l Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(l)
	s.layers = append(s.layers, l)
}

// InsertAfter places l directly above ref
// With ref absent, l is appended and ErrNotFound is returned
func (s *Stage) InsertAfter(ref, l Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(l)

	idx := s.indexLocked(ref)
	if idx < 0 {
		s.layers = append(s.layers, l)
		return ErrNotFound
	}
	s.layers = append(s.layers, nil)
	copy(s.layers[idx+2:], s.layers[idx+1:])
	s.layers[idx+1] = l
	return nil
}

// Remove deletes l; reports whether it was present
func (s *Stage) Remove(l Layer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(l)
}

func (s *Stage) removeLocked(l Layer) bool {
	idx := s.indexLocked(l)
	if idx < 0 {
		return false
	}
	s.layers = append(s.layers[:idx], s.layers[idx+1:]...)
	return true
}

func (s *Stage) indexLocked(l Layer) int {
	for i, cur := range s.layers {
		if cur == l {
			return i
		}
	}
	return -1
}

// Contains reports whether l is on the stage
func (s *Stage) Contains(l Layer) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(l) >= 0
}

// Layers returns a bottom-to-top snapshot
func (s *Stage) Layers() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Len returns the layer count
func (s *Stage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

// Size returns the current display size
func (s *Stage) Size() Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Resize stores the new size and notifies listeners, even when unchanged
func (s *Stage) Resize(w, h int) {
	s.mu.Lock()
	s.size = Size{w, h}
	s.mu.Unlock()
	s.router.Emit(resizeKey{}, Size{w, h})
}

// OnResize registers fn for resize notifications and returns its removal func
func (s *Stage) OnResize(fn func(Size)) (off func()) {
	return s.router.On(resizeKey{}, fn)
}
