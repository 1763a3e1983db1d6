package stage

import (
	"errors"
	"testing"
)

type named string

func (n named) LayerID() string { return string(n) }

func ids(s *Stage) []string {
	var out []string
	for _, l := range s.Layers() {
		out = append(out, l.LayerID())
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInsertAfter(t *testing.T) {
	s := New(100, 100)
	s.Append(named("video-a"))
	s.Append(named("video-b"))

	if err := s.InsertAfter(named("video-a"), named("video-a-ascii-overlay")); err != nil {
		t.Fatalf("InsertAfter: %v", err)
	}
	want := []string{"video-a", "video-a-ascii-overlay", "video-b"}
	if got := ids(s); !equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	// Re-inserting moves rather than duplicates
	s.InsertAfter(named("video-b"), named("video-a-ascii-overlay"))
	want = []string{"video-a", "video-b", "video-a-ascii-overlay"}
	if got := ids(s); !equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestInsertAfterMissingRef(t *testing.T) {
	s := New(10, 10)
	s.Append(named("a"))
	err := s.InsertAfter(named("ghost"), named("b"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if !s.Contains(named("b")) {
		t.Error("Layer should be appended when reference is missing")
	}
}

func TestRemove(t *testing.T) {
	s := New(10, 10)
	s.Append(named("a"))
	if !s.Remove(named("a")) {
		t.Fatal("Remove reported absent layer")
	}
	if s.Remove(named("a")) {
		t.Error("Second remove reported present")
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty stage, got %d", s.Len())
	}
}

func TestResizeBroadcast(t *testing.T) {
	s := New(10, 10)
	var got []Size
	off := s.OnResize(func(sz Size) { got = append(got, sz) })

	s.Resize(20, 30)
	s.Resize(20, 30)
	off()
	s.Resize(1, 1)

	if len(got) != 2 || got[0] != (Size{20, 30}) {
		t.Errorf("Unexpected resize notifications %v", got)
	}
	if s.Size() != (Size{1, 1}) {
		t.Errorf("Expected size 1x1, got %v", s.Size())
	}
}
