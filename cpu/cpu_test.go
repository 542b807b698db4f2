package cpu

import "testing"

// flatBus is a minimal linear-memory Bus for instruction-level tests:
// 1 MiB of memory repeated across the whole address space, so test
// programs can sit at their real GBA addresses. It has none of the bus
// package's region or access-violation behaviour.
type flatBus struct {
	mem [1 << 20]byte
}

const flatMask = 1<<20 - 1

func (b *flatBus) LoadByte(addr uint32) (uint8, error) {
	addr &= flatMask
	return b.mem[addr], nil
}

func (b *flatBus) LoadHalf(addr uint32) (uint16, error) {
	addr &= flatMask
	return uint16(b.mem[addr]) | uint16(b.mem[addr+1])<<8, nil
}

func (b *flatBus) LoadWord(addr uint32) (uint32, error) {
	addr &= flatMask
	return uint32(b.mem[addr]) | uint32(b.mem[addr+1])<<8 |
		uint32(b.mem[addr+2])<<16 | uint32(b.mem[addr+3])<<24, nil
}

func (b *flatBus) StoreByte(addr uint32, v uint8) error {
	addr &= flatMask
	b.mem[addr] = v
	return nil
}

func (b *flatBus) StoreHalf(addr uint32, v uint16) error {
	addr &= flatMask
	b.mem[addr] = uint8(v)
	b.mem[addr+1] = uint8(v >> 8)
	return nil
}

func (b *flatBus) StoreWord(addr uint32, v uint32) error {
	addr &= flatMask
	b.mem[addr] = uint8(v)
	b.mem[addr+1] = uint8(v >> 8)
	b.mem[addr+2] = uint8(v >> 16)
	b.mem[addr+3] = uint8(v >> 24)
	return nil
}

func (b *flatBus) putARM(addr uint32, opcode uint32) { _ = b.StoreWord(addr, opcode) }
func (b *flatBus) putThumb(addr uint32, opcode uint16) { _ = b.StoreHalf(addr, opcode) }

func newTestCPU() (*CPU, *flatBus) {
	bus := &flatBus{}
	c := New(bus)
	c.Reset()
	return c, bus
}

// run steps the pipeline n times past its initial two-instruction fill.
func run(c *CPU, n int) {
	for i := 0; i < n+2; i++ {
		c.Step()
	}
}

func TestResetState(t *testing.T) {
	c, _ := newTestCPU()

	if c.Mode() != ModeSupervisor {
		t.Fatalf("mode = %v, want Supervisor", c.Mode())
	}
	if c.GPR(RPC) != 0 {
		t.Fatalf("PC = %#x, want 0", c.GPR(RPC))
	}
	if c.Thumb() {
		t.Fatalf("reset should enter ARM state")
	}
	if !c.reg.irqDisabled() || !c.reg.flag(flagF) {
		t.Fatalf("reset should disable both IRQ and FIQ")
	}
}

func TestADDRegister(t *testing.T) {
	c, bus := newTestCPU()
	c.SetGPR(R1, 5)
	c.SetGPR(R2, 7)

	bus.putARM(0, 0xE0810002) // ADD R0, R1, R2
	run(c, 1)

	if got := c.GPR(R0); got != 12 {
		t.Fatalf("R0 = %d, want 12", got)
	}
}

func TestSUBSFlags(t *testing.T) {
	c, bus := newTestCPU()
	c.SetGPR(R1, 0)
	c.SetGPR(R2, 1)

	bus.putARM(0, 0xE0510002) // SUBS R0, R1, R2
	run(c, 1)

	if got := c.GPR(R0); got != 0xFFFFFFFF {
		t.Fatalf("R0 = %#x, want 0xFFFFFFFF", got)
	}
	if !c.reg.n() || c.reg.z() || c.reg.c() || c.reg.v() {
		t.Fatalf("flags N=%v Z=%v C=%v V=%v, want N=1 Z=0 C=0 V=0",
			c.reg.n(), c.reg.z(), c.reg.c(), c.reg.v())
	}
}

func TestThumbLongBranchLink(t *testing.T) {
	c, bus := newTestCPU()
	c.switchToThumb(true)
	c.reg.set(RPC, 0x02000200)

	bus.putThumb(0x02000200, 0xF000) // BL hi=0
	bus.putThumb(0x02000202, 0xF804) // BL lo=4 (offset +8)

	run(c, 2)

	if got, want := c.GPR(RLR), uint32(0x02000205); got != want {
		t.Fatalf("LR = %#x, want %#x", got, want)
	}
	if got, want := c.GPR(RPC), uint32(0x0200020C+2); got != want {
		t.Fatalf("PC = %#x, want %#x (target, mid pipeline-refill after the branch flush)", got, want)
	}
}

func TestBlockTransferRoundTrip(t *testing.T) {
	c, bus := newTestCPU()
	for r := 0; r <= 3; r++ {
		c.SetGPR(r, uint32(0x1000+r))
	}
	c.SetGPR(RSP, 0x03007F00)

	bus.putARM(0, 0xE92D000F) // STMFD R13!, {R0-R3}
	bus.putARM(4, 0xE8BD000F) // LDMFD R13!, {R0-R3}

	for i := 0; i < 3; i++ { // fills the pipeline and retires the STM
		c.Step()
	}

	for r := 0; r <= 3; r++ {
		c.SetGPR(r, 0)
	}

	c.Step() // retires the already-fetched LDM

	for r := 0; r <= 3; r++ {
		if got, want := c.GPR(r), uint32(0x1000+r); got != want {
			t.Fatalf("R%d = %#x, want %#x", r, got, want)
		}
	}
	if got, want := c.GPR(RSP), uint32(0x03007F00); got != want {
		t.Fatalf("SP = %#x, want %#x (restored after matched push/pop)", got, want)
	}
}

func TestInterruptAcknowledgement(t *testing.T) {
	c, bus := newTestCPU()
	c.reg.setFlag(flagI, false)
	c.SetGPR(RPC, 0x08000100)
	bus.putARM(0x08000100, 0xE1A00000) // MOV R0, R0 (NOP)

	c.EnterIRQ()
	run(c, 1)

	if c.Mode() != ModeIRQ {
		t.Fatalf("mode = %v, want IRQ", c.Mode())
	}
	if got := c.GPR(RPC); got != vectorIRQ+12 {
		t.Fatalf("PC = %#x, want %#x (vector + pipeline fill + one retired slot)", got, vectorIRQ+12)
	}
	if !c.reg.irqDisabled() {
		t.Fatalf("IRQ entry should set CPSR.I")
	}
}

// TestInterruptReturnAddress drives a real instruction stream into a
// steady-state pipeline, raises an interrupt, and confirms LR_irq
// resumes on the instruction that had not yet retired when the
// interrupt was taken, round-tripping through an actual
// "SUBS PC, LR, #4" handler return rather than asserting the LR value
// in isolation.
func TestInterruptReturnAddress(t *testing.T) {
	c, bus := newTestCPU()
	c.reg.setFlag(flagI, false)

	bus.putARM(0, 0xE1A00000)         // MOV R0, R0 (NOP)
	bus.putARM(4, 0xE1A00000)         // MOV R0, R0 (NOP)
	bus.putARM(8, 0xE3A05007)         // MOV R5, #7   -- must resume here
	bus.putARM(12, 0xE3A05063)        // MOV R5, #0x63 -- must not run first
	bus.putARM(vectorIRQ, 0xE25EF004) // SUBS PC, LR, #4

	run(c, 1) // retires the NOP at 0; the NOP at 4 and the MOV at 8 are still pending

	c.EnterIRQ()
	c.Step() // retires the pending NOP, then takes the interrupt

	if c.Mode() != ModeIRQ {
		t.Fatalf("mode = %v, want IRQ", c.Mode())
	}
	if got, want := c.GPR(RLR), uint32(12); got != want {
		t.Fatalf("LR_irq = %#x, want %#x (SUBS PC,LR,#4 must land back on the MOV at 0x8)", got, want)
	}

	for i := 0; i < 4; i++ { // fetch and retire the handler, then the resumed MOV
		c.Step()
	}

	if c.Mode() != ModeSupervisor {
		t.Fatalf("mode = %v, want Supervisor restored by SUBS PC,LR,#4", c.Mode())
	}
	if got := c.GPR(R5); got != 7 {
		t.Fatalf("R5 = %d, want 7 (resumed at 0x8, not the instruction at 0xc)", got)
	}
}
