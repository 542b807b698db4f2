package cpu

import (
	"github.com/pixeldrift/goba/gbaerr"
	"github.com/pixeldrift/goba/logger"
)

// Bus is the subset of bus.Bus the CPU needs to fetch instructions and
// perform data transfers.
type Bus interface {
	LoadByte(address uint32) (uint8, error)
	LoadHalf(address uint32) (uint16, error)
	LoadWord(address uint32) (uint32, error)
	StoreByte(address uint32, v uint8) error
	StoreHalf(address uint32, v uint16) error
	StoreWord(address uint32, v uint32) error
}

type pipelineSlot struct {
	valid  bool
	opcode uint32
	thumb  bool
}

// CPU is the ARM7TDMI interpreter: register file, pipeline and bus
// access. It halts (returns an error from Step) on an unknown
// instruction or a propagating bus error; guest-visible exceptions
// (SWI, IRQ, undefined instruction trap) are handled internally and
// never surface as a Go error.
type CPU struct {
	reg registerFile
	bus Bus

	execute pipelineSlot
	decode  pipelineSlot
	flush   bool

	halted      bool
	irqRequested bool
}

// New returns a CPU wired to bus. Call Reset before stepping.
func New(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// Reset zeroes every register, enters Supervisor mode with interrupts
// disabled, sets PC to the reset vector, and invalidates the
// pipeline so the first two Step calls only refill it.
func (c *CPU) Reset() {
	c.reg.reset()
	c.reg.switchMode(ModeSupervisor)
	c.reg.setFlag(flagI, true)
	c.reg.setFlag(flagF, true)
	c.reg.setFlag(flagT, false)
	c.reg.set(RPC, 0)
	c.execute = pipelineSlot{}
	c.decode = pipelineSlot{}
	c.flush = false
	c.halted = false
}

// GPR returns the current value of logical register r (R0-R12, or the
// RSP/RLR/RPC/RCPSR/RSPSR pseudo-names), for debugging and tests.
func (c *CPU) GPR(r int) uint32 { return c.reg.get(r) }

// SetGPR writes a logical register, for test setup and the debugger.
func (c *CPU) SetGPR(r int, v uint32) { c.reg.set(r, v) }

// Mode returns the current processor mode.
func (c *CPU) Mode() Mode { return c.reg.mode() }

// Thumb reports whether the processor is in Thumb state.
func (c *CPU) Thumb() bool { return c.reg.thumb() }

// Halted reports whether the CPU is in the HALT-stopped state (set by
// the I/O aperture's HALTCNT handling, cleared on an unmasked
// interrupt becoming pending).
func (c *CPU) Halted() bool { return c.halted }

// SetHalted is called by the machine wiring when HALTCNT requests a
// halt or an interrupt clears one.
func (c *CPU) SetHalted(h bool) { c.halted = h }

// Step retires the currently-executing pipeline slot (if any), shifts
// the pipeline, and fetches the next instruction, per the two-stage
// model: at any steady state PC reads as the executing instruction's
// address plus two instruction widths.
func (c *CPU) Step() error {
	if c.execute.valid {
		if err := c.retire(c.execute); err != nil {
			return err
		}
	}

	if c.irqRequested && !c.reg.irqDisabled() {
		c.irqRequested = false
		c.enterIRQ()
	}

	if c.flush {
		c.flush = false
		c.execute = pipelineSlot{}
		c.decode = pipelineSlot{}
	} else {
		c.execute = c.decode
	}

	opcode, thumb, err := c.fetch()
	if err != nil {
		logger.Log("cpu", "fetch error at pc=%#x: %v", c.reg.get(RPC), err)
		return err
	}
	c.decode = pipelineSlot{valid: true, opcode: opcode, thumb: thumb}

	if thumb {
		c.reg.set(RPC, c.reg.get(RPC)+2)
	} else {
		c.reg.set(RPC, c.reg.get(RPC)+4)
	}
	return nil
}

func (c *CPU) fetch() (uint32, bool, error) {
	pc := c.reg.get(RPC)
	if c.reg.thumb() {
		pc &^= 1
		h, err := c.bus.LoadHalf(pc)
		return uint32(h), true, err
	}
	pc &^= 3
	w, err := c.bus.LoadWord(pc)
	return w, false, err
}

// retire decodes and executes one fetched instruction, unless its
// condition (ARM) evaluates false, in which case it is a no-op that
// still advanced the pipeline.
func (c *CPU) retire(slot pipelineSlot) error {
	if slot.thumb {
		return c.executeThumb(uint16(slot.opcode))
	}

	cond := slot.opcode >> 28
	if cond == 0xF && (slot.opcode>>25)&0x7 == 0x5 {
		return c.armBLXImmediate(slot.opcode)
	}
	if !c.condition(cond) {
		return nil
	}
	return c.executeARM(slot.opcode)
}

// branch sets PC to target and flushes the pipeline so the next two
// Step calls only refill it without retiring stale fetches.
func (c *CPU) branch(target uint32) {
	c.reg.set(RPC, target)
	c.flush = true
}

// switchToThumb sets or clears the Thumb state bit; callers that also
// change PC should do so before or after as appropriate for the
// target address's alignment.
func (c *CPU) switchToThumb(thumb bool) {
	c.reg.setFlag(flagT, thumb)
}

func unknownInstruction(opcode uint32) error {
	return gbaerr.Errorf(gbaerr.UnknownInstruction, "opcode %#08x", opcode)
}
