// Package gba wires the CPU, memory bus, I/O aperture, DMA engine and
// video controller into a runnable machine, and owns cartridge backing
// construction (ROM mirroring, SRAM-or-EEPROM save memory) that has no
// component of its own in the core's design.
package gba

import (
	"github.com/pixeldrift/goba/bus"
	"github.com/pixeldrift/goba/cpu"
	"github.com/pixeldrift/goba/dma"
	"github.com/pixeldrift/goba/eeprom"
	"github.com/pixeldrift/goba/ioregs"
	"github.com/pixeldrift/goba/logger"
	"github.com/pixeldrift/goba/video"
)

// memory region sizes and base addresses, per the external memory map.
const (
	baseBIOS   = 0x00000000
	sizeBIOS   = 0x4000
	baseEWRAM  = 0x02000000
	sizeEWRAM  = 0x40000
	baseIWRAM  = 0x03000000
	sizeIWRAM  = 0x8000
	baseIOWRAM = 0x03FFFF00
	sizeIOWRAM = 0x100
	baseIO     = 0x04000000
	sizeIO     = 0x10000
	basePalette = 0x05000000
	sizePalette = 0x400
	baseVRAM   = 0x06000000
	sizeVRAM   = 0x18000
	baseOAM    = 0x07000000
	sizeOAM    = 0x400
	baseROM0   = 0x08000000
	baseROM1   = 0x0A000000
	baseROM2   = 0x0C000000
	sizeROMWindow = 0x2000000
	baseSave   = 0x0E000000
	sizeSave   = 0x10000
)

// SaveType selects the backing used for the cartridge's save memory
// window. Real cartridges fix this in hardware; a host picks it from
// ROM header heuristics or user override before constructing a Machine.
type SaveType int

const (
	// SaveSRAM backs 0x0E000000 with flat, byte-addressable SRAM.
	SaveSRAM SaveType = iota
	// SaveEEPROM512 backs it with a 512 byte serial EEPROM.
	SaveEEPROM512
	// SaveEEPROM8K backs it with an 8 KiB serial EEPROM.
	SaveEEPROM8K
)

// Machine owns every component of one emulated console and the glue
// between them.
type Machine struct {
	CPU   *cpu.CPU
	Bus   *bus.Bus
	IO    *ioregs.Aperture
	DMA   *dma.Controller
	Video *video.Controller

	ewram   *bus.Region
	iwram   *bus.Region
	vram    *bus.Region
	palette *bus.Region
	oam     *bus.Region
	save    *bus.Region   // only set when saveType == SaveSRAM
	eeprom  *eeprom.Device // only set for EEPROM save types

	haltLatch bool
}

// New constructs a machine around the given BIOS and cartridge ROM
// images. saveType selects the backing at the cartridge save window.
func New(biosData, romData []byte, saveType SaveType) *Machine {
	m := &Machine{}

	bios := bus.NewRegion("bios", sizeBIOS, true)
	copy(bios.Bytes(), biosData)

	m.ewram = bus.NewRegion("ewram", sizeEWRAM, false)
	m.iwram = bus.NewRegion("iwram", sizeIWRAM, false)
	m.vram = bus.NewRegion("vram", sizeVRAM, false)
	m.palette = bus.NewRegion("palette", sizePalette, false)
	m.oam = bus.NewRegion("oam", sizeOAM, false)

	rom := bus.NewRegionFromBytes("cartridge rom", romData, true)

	m.IO = ioregs.New()
	m.Bus = bus.New()
	m.CPU = cpu.New(m.Bus)
	m.DMA = dma.New(m.Bus, m.IO)
	m.IO.AttachCPU(m.CPU)
	m.IO.AttachDMA(m.DMA)
	m.Video = video.New(m.IO, m.IO, m.DMA, m.vram, m.palette, m.oam)

	m.Bus.Attach(baseBIOS, bios, 0, sizeBIOS)
	m.Bus.Attach(baseEWRAM, m.ewram, 0, sizeEWRAM)
	m.Bus.Attach(baseIWRAM, m.iwram, 0, sizeIWRAM)
	m.Bus.Attach(baseIOWRAM, m.iwram, sizeIWRAM-sizeIOWRAM, sizeIOWRAM)
	m.Bus.Attach(baseIO, m.IO, 0, sizeIO)
	m.Bus.Attach(basePalette, m.palette, 0, sizePalette)
	m.Bus.Attach(baseVRAM, m.vram, 0, sizeVRAM)
	m.Bus.Attach(baseOAM, m.oam, 0, sizeOAM)
	m.Bus.Attach(baseROM0, rom, 0, minU32(uint32(len(romData)), sizeROMWindow))
	m.Bus.Attach(baseROM1, rom, 0, minU32(uint32(len(romData)), sizeROMWindow))
	m.Bus.Attach(baseROM2, rom, 0, minU32(uint32(len(romData)), sizeROMWindow))

	switch saveType {
	case SaveEEPROM512:
		m.eeprom = eeprom.New(eeprom.Size512)
		m.Bus.Attach(baseSave, eeprom.NewBacking(m.eeprom), 0, sizeSave)
	case SaveEEPROM8K:
		m.eeprom = eeprom.New(eeprom.Size8KiB)
		m.Bus.Attach(baseSave, eeprom.NewBacking(m.eeprom), 0, sizeSave)
	default:
		m.save = bus.NewRegion("save", sizeSave, false)
		m.Bus.Attach(baseSave, m.save, 0, sizeSave)
	}

	m.Reset()
	return m
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// Reset re-zeros the CPU registers and raises it into Supervisor mode
// at PC 0, per the machine lifecycle. EEPROM and SRAM contents are
// left untouched: save memory persists across resets within one run.
func (m *Machine) Reset() {
	m.CPU.Reset()
}

// SaveData returns the raw bytes of the cartridge save memory, for the
// host to persist to disk. It is SRAM bytes or the EEPROM's backing
// store depending on how the machine was constructed.
func (m *Machine) SaveData() []byte {
	if m.eeprom != nil {
		return m.eeprom.Bytes()
	}
	return m.save.Bytes()
}

// LoadSaveData restores previously-saved cartridge save memory.
func (m *Machine) LoadSaveData(data []byte) {
	if m.eeprom != nil {
		m.eeprom.LoadSaveData(data)
		return
	}
	copy(m.save.Bytes(), data)
}

// Step advances the machine by one CPU instruction slot's worth of
// pixel clocks: the video controller is cycled three times for every
// CPU step, per the 1:3 CPU:pixel-clock ratio. When the CPU is halted
// (through HALTCNT), only the video controller advances, so
// blank interrupts and DMA triggers keep firing until an interrupt
// wakes the CPU back up.
//
// An UnknownInstruction or a propagating bus/IO error is returned to
// the caller, which per the error handling design halts the emulator
// goroutine; guest-visible exceptions (SWI, IRQ, undefined instruction
// trap) are handled inside Step and never surface here.
func (m *Machine) Step() error {
	m.CPU.SetHalted(m.IO.Halted())

	if !m.CPU.Halted() {
		if err := m.CPU.Step(); err != nil {
			logger.Log("gba", "halting: %v", err)
			return err
		}
	}

	for i := 0; i < 3; i++ {
		if err := m.Video.Cycle(); err != nil {
			logger.Log("gba", "halting: %v", err)
			return err
		}
	}
	return nil
}

// RunFrame steps the machine until the rasterizer next publishes a
// frame, wherever in the frame the pixel cursor starts, and returns
// the frame presented to the caller. It
// exists for hosts and tests that want frame granularity rather than
// driving Step in their own loop.
func (m *Machine) RunFrame() (*video.Frame, error) {
	start := m.Video.FrameCount()
	for m.Video.FrameCount() == start {
		if err := m.Step(); err != nil {
			return nil, err
		}
	}
	return m.Video.AcquirePresent(), nil
}
