// Package metrics exposes a live, browser-viewable runtime dashboard
// (goroutines, memory, GC) via go-echarts/statsview, plus a
// frames-per-second sampler fed from the video controller's frame
// counter, sampled on a ticker so the emulator goroutine is never
// blocked waiting on the dashboard's HTTP server.
package metrics

import (
	"time"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/pixeldrift/goba/logger"
)

// FrameCounter is implemented by video.Controller.
type FrameCounter interface {
	FrameCount() uint64
}

// Dashboard owns the statsview HTTP server and the frame-rate sampler.
type Dashboard struct {
	viewer *statsview.Viewer
	stop   chan struct{}
}

// Start launches the dashboard's HTTP server at addr (e.g. ":18066")
// in a background goroutine and begins sampling frames.FrameCount once
// per second. It never blocks the caller.
func Start(addr string, frames FrameCounter) *Dashboard {
	v := statsview.New(viewer.WithAddr(addr))
	d := &Dashboard{viewer: v, stop: make(chan struct{})}

	go v.Start()
	go d.sample(frames)

	return d
}

func (d *Dashboard) sample(frames FrameCounter) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-ticker.C:
			cur := frames.FrameCount()
			logger.Log("metrics", "fps=%d", cur-last)
			last = cur
		case <-d.stop:
			return
		}
	}
}

// Stop ends the sampling goroutine. The statsview HTTP server itself
// has no exported shutdown hook and is left running for the process's
// remaining lifetime, matching the teacher's own fire-and-forget use
// of the dependency.
func (d *Dashboard) Stop() {
	close(d.stop)
}
