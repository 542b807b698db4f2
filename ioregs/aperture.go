// Package ioregs implements the memory-mapped I/O aperture: the window
// at 0x04000000 that mediates video control/status, background
// control, DMA register access, interrupt enable/request/acknowledge
// and HALTCNT, each with its own read/write side effects.
package ioregs

import (
	"github.com/pixeldrift/goba/gbaerr"
)

// register offsets within the aperture, relative to 0x04000000.
const (
	regDISPCNT  = 0x000
	regDISPSTAT = 0x004
	regVCOUNT   = 0x006
	regBG0CNT   = 0x008
	regBG3CNT   = 0x00E
	regDMAStart = 0x0B0
	regDMAEnd   = 0x0E0 // exclusive
	regIE       = 0x200
	regIF       = 0x202
	regHALTCNT  = 0x301
)

// window is the size of the bus interval this aperture backs. Real
// hardware mirrors the first 0x400 bytes repeatedly; this core does
// not: the handled registers answer only at their exact offsets, and
// every other offset falls through to a raw 2 KiB scratch array,
// indexed modulo 2048.
const window = 0x10000

// Interrupt bit numbers within IE/IF.
const (
	IRQVBlank  = 0
	IRQHBlank  = 1
	IRQVCount  = 2
	IRQTimer0  = 3
	IRQTimer1  = 4
	IRQTimer2  = 5
	IRQTimer3  = 6
	IRQSerial  = 7
	IRQDMA0    = 8
	IRQDMA1    = 9
	IRQDMA2    = 10
	IRQDMA3    = 11
	IRQKeypad  = 12
	IRQGamePak = 13
)

// InterruptTarget is implemented by the CPU: the aperture calls into it
// whenever IE&IF goes from zero to non-zero. The CPU takes the
// interrupt at its next step boundary once CPSR.I is clear.
type InterruptTarget interface {
	EnterIRQ()
}

// DMARegisters is implemented by dma.Controller.
type DMARegisters interface {
	ReadByte(offset uint32) uint8
	WriteByte(offset uint32, v uint8) error
}

// Aperture is the I/O register window.
type Aperture struct {
	dispcnt  uint16
	dispstat uint16
	vcount   uint8
	bgcnt    [4]uint16
	ie       uint16
	iff      uint16 // IF; named iff to avoid shadowing the keyword
	haltcnt  uint8
	halted   bool

	raw [2048]byte

	cpu InterruptTarget
	dma DMARegisters
}

// New returns an aperture with all registers zeroed.
func New() *Aperture {
	return &Aperture{}
}

// AttachCPU wires the interrupt target. Done as a setter rather than a
// constructor argument because the CPU and the aperture are
// constructed in either order depending on the host's wiring.
func (a *Aperture) AttachCPU(cpu InterruptTarget) { a.cpu = cpu }

// AttachDMA wires the DMA register backend.
func (a *Aperture) AttachDMA(dma DMARegisters) { a.dma = dma }

// DISPCNT returns the current display control register.
func (a *Aperture) DISPCNT() uint16 { return a.dispcnt }

// DISPSTAT returns the current display status register, including the
// IRQ-enable bits and VCOUNT compare value the video controller needs
// to decide whether to raise an interrupt on a given edge.
func (a *Aperture) DISPSTAT() uint16 { return a.dispstat }

// BGCNT returns the control register for background n (0-3).
func (a *Aperture) BGCNT(n int) uint16 { return a.bgcnt[n] }

// SetVCOUNT is called by the video controller on every pixel clock
// with the current scanline.
func (a *Aperture) SetVCOUNT(y uint8) {
	a.vcount = y
	match := y == uint8(a.dispstat>>8)
	a.setStatusBit(2, match)
}

// SetHBlank is called by the video controller as x crosses into/out of
// the horizontal blank region.
func (a *Aperture) SetHBlank(active bool) { a.setStatusBit(1, active) }

// SetVBlank is called by the video controller as y crosses into/out of
// the vertical blank region.
func (a *Aperture) SetVBlank(active bool) { a.setStatusBit(0, active) }

func (a *Aperture) setStatusBit(bit uint, set bool) {
	if set {
		a.dispstat |= 1 << bit
	} else {
		a.dispstat &^= 1 << bit
	}
}

// Halted reports whether the CPU should be skipped by the tick loop.
func (a *Aperture) Halted() bool { return a.halted }

// RequestInterrupt sets the IF bit (masked by IE, per the design). If
// any enabled interrupt is pending afterwards it clears HALT, and if
// none was pending before it calls the CPU's EnterIRQ, whatever the
// state of CPSR.I; the CPU itself decides when to enter the vector.
func (a *Aperture) RequestInterrupt(bit uint16) {
	before := a.ie & a.iff
	a.iff |= (1 << bit) & a.ie
	after := a.ie & a.iff

	if after != 0 {
		a.halted = false
	}
	if before == 0 && after != 0 && a.cpu != nil {
		a.cpu.EnterIRQ()
	}
}

func (a *Aperture) bounds(offset uint32) error {
	if offset >= window {
		return gbaerr.Errorf(gbaerr.AccessViolation, "io offset %#x out of range", offset)
	}
	return nil
}
