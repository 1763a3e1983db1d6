//go:build gstreamer

// Package gstcam captures camera frames through a GStreamer appsink
//
// Pipeline structure:
//
//	v4l2src|autovideosrc → videoconvert → videoscale → capsfilter(RGBA) → appsink
package gstcam

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/lixenwraith/ascii-overlay/media"
	"github.com/lixenwraith/ascii-overlay/scheduler"
	"github.com/lixenwraith/ascii-overlay/status"
)

// Defaults when neither the camera nor the request sets a size
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Camera opens a local capture device
type Camera struct {
	Device        string // v4l2 device path; empty selects autovideosrc
	Width, Height int
	Logger        *slog.Logger
	Metrics       *status.Registry
}

var _ media.Camera = (*Camera)(nil)

// Acquire builds and starts a capture pipeline
// The returned stream's single video track tears the pipeline down when stopped
func (c *Camera) Acquire(ctx context.Context, cons media.Constraints) (media.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	if cons.Audio {
		log.Debug("gstcam: audio requested, capturing video only")
	}

	w, h := c.Width, c.Height
	if cons.Width > 0 && cons.Height > 0 {
		w, h = cons.Width, cons.Height
	}
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth, DefaultHeight
	}

	pipeline, sink, err := c.createPipeline(w, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrUnsupported, err)
	}

	cs := &capture{
		pipeline: pipeline,
		width:    w,
		height:   h,
		log:      log,
		frames:   c.Metrics.Counter("gstcam.frames"),
		dropped:  c.Metrics.Counter("gstcam.dropped"),
		stopChan: make(chan struct{}),
	}
	cs.stream = media.NewFrameStream(cs.stop)

	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: cs.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("%w: start pipeline: %v", media.ErrUnsupported, err)
	}

	cs.wg.Add(1)
	scheduler.Go(cs.monitor)

	log.Info("gstcam: capture started",
		"stream_id", cs.stream.ID(),
		"device", c.Device,
		"facing", string(cons.Facing),
		"width", w,
		"height", h,
	)
	return cs.stream, nil
}

func (c *Camera) createPipeline(w, h int) (*gst.Pipeline, *app.Sink, error) {
	// Safe to call multiple times
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, nil, fmt.Errorf("create pipeline: %w", err)
	}

	var src *gst.Element
	if c.Device != "" {
		src, err = gst.NewElement("v4l2src")
		if err == nil {
			src.SetProperty("device", c.Device)
		}
	} else {
		src, err = gst.NewElement("autovideosrc")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create source: %w", err)
	}

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, nil, fmt.Errorf("create videoconvert: %w", err)
	}
	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, nil, fmt.Errorf("create videoscale: %w", err)
	}
	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, nil, fmt.Errorf("create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString(
		fmt.Sprintf("video/x-raw,format=RGBA,width=%d,height=%d", w, h),
	))

	sink, err := app.NewAppSink()
	if err != nil {
		return nil, nil, fmt.Errorf("create appsink: %w", err)
	}
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", 1)
	sink.SetProperty("drop", true)

	pipeline.AddMany(src, converter, scaler, capsfilter, sink.Element)
	if err := gst.ElementLinkMany(src, converter, scaler, capsfilter, sink.Element); err != nil {
		return nil, nil, fmt.Errorf("link pipeline: %w", err)
	}
	return pipeline, sink, nil
}

// capture is the live state of one acquired stream
type capture struct {
	pipeline *gst.Pipeline
	stream   *media.FrameStream
	width    int
	height   int
	log      *slog.Logger

	frames  *atomic.Int64
	dropped *atomic.Int64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// onNewSample copies the RGBA buffer out of GStreamer, which reuses it
func (c *capture) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		c.dropped.Add(1)
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		c.dropped.Add(1)
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	need := c.width * c.height * 4
	if len(data) < need {
		buffer.Unmap()
		c.dropped.Add(1)
		c.log.Debug("gstcam: short buffer", "got", len(data), "need", need)
		return gst.FlowOK
	}

	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	copy(img.Pix, data[:need])
	buffer.Unmap()

	c.stream.Push(img)
	c.frames.Add(1)
	return gst.FlowOK
}

// monitor ends the stream when the pipeline errors or reaches EOS
func (c *capture) monitor() {
	defer c.wg.Done()
	bus := c.pipeline.GetPipelineBus()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			c.log.Info("gstcam: end of stream", "stream_id", c.stream.ID())
			scheduler.Go(func() { media.StopAll(c.stream) })
			return
		case gst.MessageError:
			gerr := msg.ParseError()
			c.log.Error("gstcam: pipeline error",
				"stream_id", c.stream.ID(),
				"error", gerr.Error(),
				"debug", gerr.DebugString(),
			)
			scheduler.Go(func() { media.StopAll(c.stream) })
			return
		}
	}
}

// stop runs once from the video track's Stop
func (c *capture) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
		if err := c.pipeline.SetState(gst.StateNull); err != nil {
			c.log.Warn("gstcam: failed to stop pipeline", "error", err)
		}
		c.log.Info("gstcam: capture stopped",
			"stream_id", c.stream.ID(),
			"frames", c.frames.Load(),
			"dropped", c.dropped.Load(),
		)
	})
}
