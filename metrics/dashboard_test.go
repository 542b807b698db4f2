package metrics_test

import (
	"testing"

	"github.com/pixeldrift/goba/metrics"
)

type fakeFrameCounter struct{ n uint64 }

func (f *fakeFrameCounter) FrameCount() uint64 { return f.n }

func TestStartAndStopDoNotPanic(t *testing.T) {
	d := metrics.Start(":0", &fakeFrameCounter{})
	d.Stop()
}
