package cpu

const (
	vectorSWI = 0x00000008
	vectorIRQ = 0x00000018
)

// EnterIRQ implements ioregs.InterruptTarget. It only records that an
// interrupt is pending; actual entry happens at the next instruction
// boundary in Step, so that a request arriving while CPSR.I is set is
// serviced as soon as the guest clears it rather than being lost.
func (c *CPU) EnterIRQ() {
	c.irqRequested = true
}

// enterIRQ performs the actual mode switch and vector jump described
// in the interrupt entry sequence: save CPSR to SPSR_irq, switch to
// IRQ mode, save the return address to LR_irq, disable further IRQs,
// select ARM state, and branch to the IRQ vector.
func (c *CPU) enterIRQ() {
	// IRQ returns via "SUBS PC, LR, #4", unlike SWI's "MOVS PC, LR", so
	// LR_irq must sit 4 bytes further on than the SWI return address:
	// PC unchanged for ARM, PC+2 for Thumb.
	returnAddress := c.reg.get(RPC)
	if c.reg.thumb() {
		returnAddress = c.reg.get(RPC) + 2
	}

	savedCPSR := c.reg.cpsr()
	c.reg.switchMode(ModeIRQ)
	c.reg.set(RSPSR, savedCPSR)
	c.reg.set(RLR, returnAddress)
	c.reg.setFlag(flagI, true)
	c.switchToThumb(false)
	c.branch(vectorIRQ)
}

// softwareInterrupt implements SWI entry, used by both the ARM SWI
// instruction and the Thumb SWI escape (condition 0xF branch).
func (c *CPU) softwareInterrupt() {
	returnAddress := c.reg.get(RPC) - 4
	if c.reg.thumb() {
		returnAddress = c.reg.get(RPC) - 2
	}

	savedCPSR := c.reg.cpsr()
	c.reg.switchMode(ModeSupervisor)
	c.reg.set(RSPSR, savedCPSR)
	c.reg.set(RLR, returnAddress)
	c.reg.setFlag(flagI, true)
	c.switchToThumb(false)
	c.branch(vectorSWI)
}
