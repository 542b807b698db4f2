package video

import "sync"

// frameBuffers is the rotating triple of pixel buffers described for
// the video controller: draw (written lock-free by the rasterizer),
// ready (the most recently completed frame) and present (held by the
// host between AcquirePresent calls). Only the draw/ready and
// ready/present swaps take the mutex; the rasterizer's per-pixel
// writes and the host's per-pixel reads do not.
type frameBuffers struct {
	mu      sync.Mutex
	draw    *Frame
	ready   *Frame
	present *Frame
	fresh   bool // ready holds a frame not yet handed to the host
}

func newFrameBuffers() *frameBuffers {
	return &frameBuffers{
		draw:    &Frame{},
		ready:   &Frame{},
		present: &Frame{},
	}
}

// acquireDraw returns the buffer the rasterizer should write the next
// frame into.
func (f *frameBuffers) acquireDraw() *Frame {
	return f.draw
}

// publish swaps draw and ready under the mutex, making the
// just-finished frame available to the presenter.
func (f *frameBuffers) publish() {
	f.mu.Lock()
	f.draw, f.ready = f.ready, f.draw
	f.fresh = true
	f.mu.Unlock()
}

// acquirePresent swaps ready and present under the mutex and returns
// the buffer now held by the caller. Safe to call at any cadence; if
// no new frame has been published since the last call, the same
// pixels are returned again.
func (f *frameBuffers) acquirePresent() *Frame {
	f.mu.Lock()
	if f.fresh {
		f.ready, f.present = f.present, f.ready
		f.fresh = false
	}
	f.mu.Unlock()
	return f.present
}
