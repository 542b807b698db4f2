// Package video implements the scanline video controller: the pixel
// and line counters, the blank and VCOUNT-match status flags and their
// interrupt edges, the single-shot-per-frame rasterizer, and the
// triple-buffered hand-off to a presentation host.
package video

import (
	"github.com/pixeldrift/goba/dma"
)

const (
	totalWidth  = 308
	totalHeight = 228
)

const (
	dispstatVBlankIRQ = 1 << 3
	dispstatHBlankIRQ = 1 << 4
	dispstatVCountIRQ = 1 << 5
)

// StatusTarget is implemented by the I/O aperture: the controller
// reports its counters and blank conditions through it rather than
// owning DISPSTAT/VCOUNT storage itself.
type StatusTarget interface {
	SetHBlank(active bool)
	SetVBlank(active bool)
	SetVCOUNT(y uint8)
	DISPCNT() uint16
	DISPSTAT() uint16
	BGCNT(n int) uint16
	LoadHalf(offset uint32) (uint16, error)
}

// InterruptRaiser is implemented by the I/O aperture.
type InterruptRaiser interface {
	RequestInterrupt(bit uint16)
}

// DMATrigger is implemented by the DMA controller.
type DMATrigger interface {
	Trigger(timing dma.Timing) error
}

// Memory gives the rasterizer bulk, lock-free access to a backing
// region's bytes (VRAM, palette RAM, OAM).
type Memory interface {
	Bytes() []byte
}

const (
	irqVBlank = 0
	irqHBlank = 1
	irqVCount = 2
)

// Controller owns the pixel/line counters and the rasterizer.
type Controller struct {
	x, y int

	status StatusTarget
	irq    InterruptRaiser
	dma    DMATrigger

	vram    Memory
	palette Memory
	oam     Memory

	buffers *frameBuffers
	frames  uint64
}

// New returns a controller wired to the given collaborators. vram,
// palette and oam back the rasterizer's direct reads; status, irq and
// dma are the I/O aperture and DMA controller respectively.
func New(status StatusTarget, irq InterruptRaiser, dmaCtrl DMATrigger, vram, palette, oam Memory) *Controller {
	return &Controller{
		status:  status,
		irq:     irq,
		dma:     dmaCtrl,
		vram:    vram,
		palette: palette,
		oam:     oam,
		buffers: newFrameBuffers(),
	}
}

// FrameCount returns the number of frames rendered so far, for the
// metrics dashboard to sample.
func (c *Controller) FrameCount() uint64 { return c.frames }

// AcquirePresent swaps the ready and present buffers and returns the
// frame the host now holds.
func (c *Controller) AcquirePresent() *Frame {
	return c.buffers.acquirePresent()
}

// Cycle advances the pixel cursor by one pixel clock. Called three
// times per CPU step. A DMA transfer triggered by a blank condition
// can fault against the bus; that error propagates to the caller
// rather than being dropped, per the same halt-on-bus-error policy
// CPU.Step follows.
func (c *Controller) Cycle() error {
	c.x++
	if c.x == totalWidth {
		c.x = 0
		c.y++
		if c.y == totalHeight {
			c.y = 0
		}
	}

	c.status.SetHBlank(c.x >= 240)
	c.status.SetVBlank(c.y >= 160)
	c.status.SetVCOUNT(uint8(c.y))

	dispstat := c.status.DISPSTAT()
	compare := uint8(dispstat >> 8)

	switch {
	case c.x == 240:
		if dispstat&dispstatHBlankIRQ != 0 {
			c.irq.RequestInterrupt(irqHBlank)
		}
		if err := c.dma.Trigger(dma.TimingHBlank); err != nil {
			return err
		}
		if c.y == 159 {
			c.render()
		}

	case c.x == 0:
		if c.y == 160 {
			if dispstat&dispstatVBlankIRQ != 0 {
				c.irq.RequestInterrupt(irqVBlank)
			}
			if err := c.dma.Trigger(dma.TimingVBlank); err != nil {
				return err
			}
		}
		if uint8(c.y) == compare && dispstat&dispstatVCountIRQ != 0 {
			c.irq.RequestInterrupt(irqVCount)
		}
	}
	return nil
}
