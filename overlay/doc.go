// Package overlay renders a live video source as ASCII art onto an overlay surface
//
// Attach binds a source to an Instance: a surface inserted on the stage right above the
// source, a sampler and a render subscription on the scheduler. Each refresh the instance
// samples the current frame into a luminance grid, maps every cell to a glyph and paints
// the glyphs so the grid exactly covers the source.
//
// Instances are owned by the scheduler goroutine. Attach, SetOptions and Destroy must run
// there (or before the scheduler starts); other goroutines use Scheduler.Post.
package overlay
