// Package dma implements the four GBA DMA channels: register storage,
// arming on a control write, and the transfer itself once a trigger
// condition (immediate, V-blank, H-blank) is met.
package dma

import (
	"github.com/pixeldrift/goba/bus"
	"github.com/pixeldrift/goba/gbaerr"
	"github.com/pixeldrift/goba/logger"
)

// Timing selects when an armed channel actually performs its transfer.
type Timing uint8

const (
	TimingImmediate Timing = 0
	TimingVBlank    Timing = 1
	TimingHBlank    Timing = 2
	TimingSpecial   Timing = 3
)

// control register bit layout, matching the documented hardware fields
// named in the DMA engine design.
const (
	bitRepeat      = 1 << 9
	bitWordSize    = 1 << 10
	bitIRQ         = 1 << 14
	bitEnable      = 1 << 15
	destControlShift = 5
	srcControlShift  = 7
	timingShift      = 12
)

const (
	addrIncrement = 0
	addrDecrement = 1
	addrFixed     = 2
	addrReload    = 3 // increment-with-reload, destination only
)

// defaultCount is the word count substituted when the programmed count
// field is zero.
func defaultCount(channel int) uint32 {
	if channel == 3 {
		return 0x10000
	}
	return 0x4000
}

// InterruptRaiser is implemented by the I/O aperture.
type InterruptRaiser interface {
	RequestInterrupt(bit uint16)
}

// interrupt bits for DMA-complete, one per channel.
var dmaIRQBit = [4]uint16{8, 9, 10, 11}

// Bus is the subset of bus.Bus the DMA engine needs to move words
// between memory regions.
type Bus interface {
	LoadByte(address uint32) (uint8, error)
	LoadHalf(address uint32) (uint16, error)
	LoadWord(address uint32) (uint32, error)
	StoreByte(address uint32, v uint8) error
	StoreHalf(address uint32, v uint16) error
	StoreWord(address uint32, v uint32) error
}

var _ Bus = (*bus.Bus)(nil)

type channel struct {
	// shadow registers, as programmed by the game
	srcShadow   uint32
	dstShadow   uint32
	countShadow uint16
	control     uint16

	// live transfer state, latched from the shadows when armed
	srcCur    uint32
	dstCur    uint32
	remaining uint32
	armed     bool
}

func (c *channel) timing() Timing  { return Timing((c.control >> timingShift) & 0x3) }
func (c *channel) enabled() bool   { return c.control&bitEnable != 0 }
func (c *channel) repeat() bool    { return c.control&bitRepeat != 0 }
func (c *channel) wordSize32() bool { return c.control&bitWordSize != 0 }
func (c *channel) irqOnComplete() bool { return c.control&bitIRQ != 0 }
func (c *channel) destControl() uint8 { return uint8((c.control >> destControlShift) & 0x3) }
func (c *channel) srcControl() uint8  { return uint8((c.control >> srcControlShift) & 0x3) }

// Controller owns the four DMA channels.
type Controller struct {
	channels [4]channel
	bus      Bus
	irq      InterruptRaiser
}

// New returns a controller with all channels disarmed. bus is used to
// perform the actual transfers; irq is notified on IRQ-on-complete.
func New(bus Bus, irq InterruptRaiser) *Controller {
	return &Controller{bus: bus, irq: irq}
}

// ReadByte implements the raw register read-back for the DMA block of
// the I/O aperture (addresses 0x0B0-0x0DF, passed here already
// relativised to 0).
func (c *Controller) ReadByte(offset uint32) uint8 {
	ch := &c.channels[offset/12]
	local := offset % 12
	switch {
	case local < 4:
		return byteOf(ch.srcShadow, local)
	case local < 8:
		return byteOf(ch.dstShadow, local-4)
	case local < 10:
		return byteOf(uint32(ch.countShadow), local-8)
	default:
		return byteOf(uint32(ch.control), local-10)
	}
}

// WriteByte implements the side-effecting register write for the DMA
// block. Writing the high byte of the control word (which carries the
// enable bit) latches the shadow registers and may immediately arm
// and fire the channel. An error is returned for the unimplemented
// special/FIFO timing mode, or for a bus fault hit while an
// immediate-timing channel transfers.
func (c *Controller) WriteByte(offset uint32, v uint8) error {
	index := int(offset / 12)
	ch := &c.channels[index]
	local := offset % 12

	switch {
	case local < 4:
		ch.srcShadow = setByte(ch.srcShadow, local, v)
		return nil
	case local < 8:
		ch.dstShadow = setByte(ch.dstShadow, local-4, v)
		return nil
	case local < 10:
		ch.countShadow = uint16(setByte(uint32(ch.countShadow), local-8, v))
		return nil
	default:
		ch.control = uint16(setByte(uint32(ch.control), local-10, v))
		if local == 11 && ch.enabled() {
			return c.arm(index)
		}
		return nil
	}
}

// arm latches the shadow registers into the live transfer state and,
// for immediate timing, performs the transfer right away so it
// completes within the same I/O store's time.
func (c *Controller) arm(index int) error {
	ch := &c.channels[index]
	ch.srcCur = ch.srcShadow
	ch.dstCur = ch.dstShadow
	ch.remaining = uint32(ch.countShadow)
	if ch.remaining == 0 {
		ch.remaining = defaultCount(index)
	}
	ch.armed = true

	switch ch.timing() {
	case TimingImmediate:
		return c.run(index)
	case TimingSpecial:
		logger.Log("dma", "channel %d armed with unimplemented special/FIFO timing", index)
		return gbaerr.Errorf(gbaerr.UnimplementedFeature, "DMA special/FIFO timing on channel %d", index)
	}
	return nil
}

// Trigger is called by the video controller when it reports the given
// blank condition, firing every armed channel programmed for it. It
// returns the first bus error encountered; remaining channels still
// armed for this condition are left untouched so the caller can halt
// rather than run the transfer forward on a broken bus.
func (c *Controller) Trigger(timing Timing) error {
	for i := range c.channels {
		ch := &c.channels[i]
		if ch.armed && ch.timing() == timing {
			if err := c.run(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// run performs the channel's transfer. A load or store error aborts
// the transfer immediately and propagates to the caller; the channel
// is left armed mid-transfer rather than silently treated as complete.
func (c *Controller) run(index int) error {
	ch := &c.channels[index]

	step := int32(2)
	if ch.wordSize32() {
		step = 4
	}

	for ch.remaining > 0 {
		if ch.wordSize32() {
			v, err := c.bus.LoadWord(ch.srcCur)
			if err != nil {
				return gbaerr.Errorf(gbaerr.IOError, "DMA channel %d load from %#08x: %v", index, ch.srcCur, err)
			}
			if err := c.bus.StoreWord(ch.dstCur, v); err != nil {
				return gbaerr.Errorf(gbaerr.IOError, "DMA channel %d store to %#08x: %v", index, ch.dstCur, err)
			}
		} else {
			v, err := c.bus.LoadHalf(ch.srcCur)
			if err != nil {
				return gbaerr.Errorf(gbaerr.IOError, "DMA channel %d load from %#08x: %v", index, ch.srcCur, err)
			}
			if err := c.bus.StoreHalf(ch.dstCur, v); err != nil {
				return gbaerr.Errorf(gbaerr.IOError, "DMA channel %d store to %#08x: %v", index, ch.dstCur, err)
			}
		}

		ch.srcCur = adjust(ch.srcCur, ch.srcControl(), step)
		ch.dstCur = adjust(ch.dstCur, ch.destControl(), step)
		ch.remaining--
	}

	if ch.repeat() {
		ch.remaining = uint32(ch.countShadow)
		if ch.remaining == 0 {
			ch.remaining = defaultCount(index)
		}
		if ch.destControl() == addrReload {
			ch.dstCur = ch.dstShadow
		}
	} else {
		ch.armed = false
		ch.control &^= bitEnable
	}

	if ch.irqOnComplete() && c.irq != nil {
		c.irq.RequestInterrupt(dmaIRQBit[index])
	}
	return nil
}

func adjust(addr uint32, control uint8, step int32) uint32 {
	switch control {
	case addrIncrement, addrReload:
		return addr + uint32(step)
	case addrDecrement:
		return addr - uint32(step)
	default: // fixed
		return addr
	}
}

func byteOf(v uint32, index uint32) uint8 {
	return uint8(v >> (8 * index))
}

func setByte(v uint32, index uint32, b uint8) uint32 {
	shift := 8 * index
	mask := uint32(0xFF) << shift
	return (v &^ mask) | (uint32(b) << shift)
}
