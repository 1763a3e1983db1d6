package surface

import "image/color"

// Multi fans every call out to several surfaces under one layer id
// The first part is primary: it answers Size and Measure
type Multi struct {
	id    string
	parts []Surface
}

var _ Surface = (*Multi)(nil)

// NewMulti combines parts; it panics without at least one part
func NewMulti(id string, parts ...Surface) *Multi {
	if len(parts) == 0 {
		panic("surface: NewMulti requires at least one part")
	}
	return &Multi{id: id, parts: parts}
}

func (m *Multi) LayerID() string { return m.id }

// Parts returns the combined surfaces in call order
func (m *Multi) Parts() []Surface {
	out := make([]Surface, len(m.parts))
	copy(out, m.parts)
	return out
}

func (m *Multi) Resize(w, h int) {
	for _, p := range m.parts {
		p.Resize(w, h)
	}
}

func (m *Multi) Size() (int, int) { return m.parts[0].Size() }

// Measure selects fontSize on every part and returns the primary's metrics
func (m *Multi) Measure(fontSize float64) FontMetrics {
	fm := m.parts[0].Measure(fontSize)
	for _, p := range m.parts[1:] {
		p.Measure(fontSize)
	}
	return fm
}

func (m *Multi) Clear() {
	for _, p := range m.parts {
		p.Clear()
	}
}

func (m *Multi) Fill(c color.RGBA) {
	for _, p := range m.parts {
		p.Fill(c)
	}
}

func (m *Multi) DrawGlyph(g Glyph) {
	for _, p := range m.parts {
		p.DrawGlyph(g)
	}
}

func (m *Multi) Release() {
	for _, p := range m.parts {
		p.Release()
	}
}
