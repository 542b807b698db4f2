package cpu

import "math/bits"

// executeARM decodes and executes a single ARM-state opcode whose
// condition has already been evaluated true.
func (c *CPU) executeARM(opcode uint32) error {
	switch {
	case (opcode>>24)&0xF == 0xF:
		c.softwareInterrupt()
		return nil

	case (opcode&0x0FFFFFF0) == 0x012FFF10:
		return c.armBX(opcode, false)

	case (opcode&0x0FFFFFF0) == 0x012FFF30:
		return c.armBX(opcode, true)

	case (opcode>>25)&0x7 == 0x5:
		return c.armBranch(opcode)

	case (opcode&0x0FC000F0) == 0x00000090, (opcode&0x0F8000F0) == 0x00800090:
		return c.armMultiply(opcode)

	case (opcode&0x0E000090) == 0x00000090 && (opcode&0x60) != 0:
		return c.armHalfwordTransfer(opcode)

	case (opcode&0x0FBF0FFF) == 0x010F0000:
		return c.armMRS(opcode)

	case (opcode&0x0DB0F000) == 0x0120F000:
		return c.armMSR(opcode)

	case (opcode>>26)&0x3 == 0x0:
		return c.armDataProcessing(opcode)

	case (opcode>>26)&0x3 == 0x1:
		return c.armSingleTransfer(opcode)

	case (opcode>>25)&0x7 == 0x4:
		return c.armBlockTransfer(opcode)
	}

	return unknownInstruction(opcode)
}

// armBLXImmediate handles the cond==0xF, bits27-25==101 encoding that
// hijacks the condition field to select BLX(immediate) unconditionally.
func (c *CPU) armBLXImmediate(opcode uint32) error {
	offset := signExtend(opcode&0xFFFFFF, 24) << 2
	if opcode&0x01000000 != 0 {
		offset += 2
	}
	target := c.reg.get(RPC) + offset
	c.reg.set(RLR, c.reg.get(RPC)-4)
	c.switchToThumb(true)
	c.branch(target)
	return nil
}

func (c *CPU) armBranch(opcode uint32) error {
	offset := signExtend(opcode&0xFFFFFF, 24) << 2
	target := c.reg.get(RPC) + offset
	if opcode&0x01000000 != 0 { // L bit
		c.reg.set(RLR, c.reg.get(RPC)-4)
	}
	c.branch(target)
	return nil
}

func (c *CPU) armBX(opcode uint32, link bool) error {
	rm := opcode & 0xF
	target := c.reg.get(int(rm))
	if link {
		c.reg.set(RLR, c.reg.get(RPC)-4)
	}
	thumb := target&1 != 0
	c.switchToThumb(thumb)
	if thumb {
		target &^= 1
	} else {
		target &^= 3
	}
	c.branch(target)
	return nil
}

func (c *CPU) armMRS(opcode uint32) error {
	rd := int((opcode >> 12) & 0xF)
	usePSR := opcode&0x00400000 != 0
	if usePSR {
		c.reg.set(rd, c.reg.get(RSPSR))
	} else {
		c.reg.set(rd, c.reg.cpsr())
	}
	return nil
}

func (c *CPU) armMSR(opcode uint32) error {
	usePSR := opcode&0x00400000 != 0

	var value uint32
	if opcode&0x02000000 != 0 {
		imm := opcode & 0xFF
		rotate := ((opcode >> 8) & 0xF) * 2
		if rotate == 0 {
			value = imm
		} else {
			value = shiftByAmount(ShiftROR, imm, rotate, false).value
		}
	} else {
		value = c.reg.get(int(opcode & 0xF))
	}

	var mask uint32
	if opcode&0x00080000 != 0 {
		mask |= 0xFF000000 // flags
	}
	if opcode&0x00040000 != 0 {
		mask |= 0x00FF0000 // status (unused on ARM7TDMI, kept for field-mask fidelity)
	}
	if opcode&0x00020000 != 0 {
		mask |= 0x0000FF00 // extension
	}
	if opcode&0x00010000 != 0 {
		mask |= 0x000000FF // control
	}

	if usePSR {
		cur := c.reg.get(RSPSR)
		c.reg.set(RSPSR, (cur&^mask)|(value&mask))
		return nil
	}

	cur := c.reg.cpsr()
	c.reg.setCPSR((cur &^ mask) | (value & mask))
	return nil
}

// operand2 decodes a data-processing instruction's second operand,
// returning its value and the shifter carry for instructions that
// fold it into the flags.
func (c *CPU) operand2(opcode uint32) (uint32, bool) {
	if opcode&0x02000000 != 0 {
		imm := opcode & 0xFF
		rotate := ((opcode >> 8) & 0xF) * 2
		if rotate == 0 {
			return imm, c.reg.c()
		}
		res := shiftByAmount(ShiftROR, imm, rotate, c.reg.c())
		return res.value, res.carry
	}

	rm := int(opcode & 0xF)
	kind := ShiftKind((opcode >> 5) & 0x3)
	value := c.reg.get(rm)

	if opcode&0x00000010 != 0 {
		rs := int((opcode >> 8) & 0xF)
		amount := c.reg.get(rs) & 0xFF
		// Rm read as PC is +12 ahead when the shift amount comes from a
		// register, per the ARM7TDMI's extra internal cycle.
		if rm == RPC {
			value += 4
		}
		res := shiftNormal(kind, value, amount, c.reg.c())
		return res.value, res.carry
	}

	amount := (opcode >> 7) & 0x1F
	res := shiftImmediate(kind, value, amount, c.reg.c())
	return res.value, res.carry
}

func (c *CPU) armDataProcessing(opcode uint32) error {
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)
	opField := (opcode >> 21) & 0xF
	setFlags := opcode&0x00100000 != 0

	op2, shifterCarry := c.operand2(opcode)
	a := c.reg.get(rn)

	var result aluResult
	writesRd := true

	switch opField {
	case 0x0: // AND
		result = logical(a&op2, shifterCarry)
	case 0x1: // EOR
		result = logical(a^op2, shifterCarry)
	case 0x2: // SUB
		result = sub(a, op2)
	case 0x3: // RSB
		result = sub(op2, a)
	case 0x4: // ADD
		result = add(a, op2)
	case 0x5: // ADC
		result = adc(a, op2, c.reg.c())
	case 0x6: // SBC
		result = sbc(a, op2, c.reg.c())
	case 0x7: // RSC
		result = sbc(op2, a, c.reg.c())
	case 0x8: // TST
		result = logical(a&op2, shifterCarry)
		writesRd = false
	case 0x9: // TEQ
		result = logical(a^op2, shifterCarry)
		writesRd = false
	case 0xA: // CMP
		result = sub(a, op2)
		writesRd = false
	case 0xB: // CMN
		result = add(a, op2)
		writesRd = false
	case 0xC: // ORR
		result = logical(a|op2, shifterCarry)
	case 0xD: // MOV
		result = logical(op2, shifterCarry)
	case 0xE: // BIC
		result = logical(a&^op2, shifterCarry)
	default: // MVN
		result = logical(^op2, shifterCarry)
	}

	if writesRd {
		c.reg.set(rd, result.value)
		if rd == RPC {
			c.branch(result.value &^ 3)
		}
	}

	if setFlags {
		if rd == RPC && writesRd {
			c.reg.setCPSR(c.reg.get(RSPSR))
		} else {
			c.reg.setFlag(flagN, result.n)
			c.reg.setFlag(flagZ, result.z)
			c.reg.setFlag(flagC, result.c)
			if result.carryValid {
				c.reg.setFlag(flagV, result.v)
			}
		}
	}
	return nil
}

func (c *CPU) armMultiply(opcode uint32) error {
	long := opcode&0x00800000 != 0
	accumulate := opcode&0x00200000 != 0
	setFlags := opcode&0x00100000 != 0

	rm := int(opcode & 0xF)
	rs := int((opcode >> 8) & 0xF)

	if !long {
		rd := int((opcode >> 16) & 0xF)
		rn := int((opcode >> 12) & 0xF)
		product := c.reg.get(rm) * c.reg.get(rs)
		if accumulate {
			product += c.reg.get(rn)
		}
		c.reg.set(rd, product)
		if setFlags {
			c.reg.setFlag(flagN, product&0x80000000 != 0)
			c.reg.setFlag(flagZ, product == 0)
		}
		return nil
	}

	rdLo := int((opcode >> 12) & 0xF)
	rdHi := int((opcode >> 16) & 0xF)
	signed := opcode&0x00400000 != 0

	var result uint64
	if signed {
		result = uint64(int64(int32(c.reg.get(rm))) * int64(int32(c.reg.get(rs))))
	} else {
		result = uint64(c.reg.get(rm)) * uint64(c.reg.get(rs))
	}
	if accumulate {
		result += uint64(c.reg.get(rdHi))<<32 | uint64(c.reg.get(rdLo))
	}
	c.reg.set(rdLo, uint32(result))
	c.reg.set(rdHi, uint32(result>>32))
	if setFlags {
		c.reg.setFlag(flagN, result&0x8000000000000000 != 0)
		c.reg.setFlag(flagZ, result == 0)
	}
	return nil
}

func (c *CPU) armSingleTransfer(opcode uint32) error {
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)

	immediate := opcode&0x02000000 == 0
	pre := opcode&0x01000000 != 0
	up := opcode&0x00800000 != 0
	byteAccess := opcode&0x00400000 != 0
	writeback := opcode&0x00200000 != 0
	load := opcode&0x00100000 != 0

	var offset uint32
	if immediate {
		offset = opcode & 0xFFF
	} else {
		rm := int(opcode & 0xF)
		kind := ShiftKind((opcode >> 5) & 0x3)
		amount := (opcode >> 7) & 0x1F
		offset = shiftImmediate(kind, c.reg.get(rm), amount, c.reg.c()).value
	}

	base := c.reg.get(rn)
	addr := base
	if pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	var err error
	if load {
		if byteAccess {
			var v uint8
			v, err = c.bus.LoadByte(addr)
			if err == nil {
				c.reg.set(rd, uint32(v))
			}
		} else {
			var v uint32
			v, err = c.bus.LoadWord(addr)
			if err == nil {
				c.reg.set(rd, v)
				if rd == RPC {
					c.branch(v &^ 3)
				}
			}
		}
	} else {
		if byteAccess {
			err = c.bus.StoreByte(addr, uint8(c.reg.get(rd)))
		} else {
			err = c.bus.StoreWord(addr, c.reg.get(rd))
		}
	}
	if err != nil {
		return err
	}

	if !pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.reg.set(rn, addr)
	} else if writeback {
		c.reg.set(rn, addr)
	}
	return nil
}

func (c *CPU) armHalfwordTransfer(opcode uint32) error {
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)

	pre := opcode&0x01000000 != 0
	up := opcode&0x00800000 != 0
	immediate := opcode&0x00400000 != 0
	writeback := opcode&0x00200000 != 0
	load := opcode&0x00100000 != 0
	sh := (opcode >> 5) & 0x3

	var offset uint32
	if immediate {
		offset = ((opcode >> 4) & 0xF0) | (opcode & 0xF)
	} else {
		offset = c.reg.get(int(opcode & 0xF))
	}

	base := c.reg.get(rn)
	addr := base
	if pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	var err error
	if load {
		switch sh {
		case 0x1: // unsigned halfword
			var v uint16
			v, err = c.bus.LoadHalf(addr)
			if err == nil {
				c.reg.set(rd, uint32(v))
			}
		case 0x2: // signed byte
			var v uint8
			v, err = c.bus.LoadByte(addr)
			if err == nil {
				c.reg.set(rd, signExtend(uint32(v), 8))
			}
		case 0x3: // signed halfword
			var v uint16
			v, err = c.bus.LoadHalf(addr)
			if err == nil {
				c.reg.set(rd, signExtend(uint32(v), 16))
			}
		}
	} else if sh == 0x1 {
		err = c.bus.StoreHalf(addr, uint16(c.reg.get(rd)))
	}
	if err != nil {
		return err
	}

	if !pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.reg.set(rn, addr)
	} else if writeback {
		c.reg.set(rn, addr)
	}
	return nil
}

func (c *CPU) armBlockTransfer(opcode uint32) error {
	rn := int((opcode >> 16) & 0xF)
	load := opcode&0x00100000 != 0
	writeback := opcode&0x00200000 != 0
	forceUser := opcode&0x00400000 != 0
	up := opcode&0x00800000 != 0
	pre := opcode&0x01000000 != 0
	list := uint16(opcode & 0xFFFF)

	count := bits.OnesCount16(list)
	base := c.reg.get(rn)

	var start uint32
	if up {
		start = base
	} else {
		start = base - uint32(count)*4
	}
	addr := start
	if up && pre {
		addr += 4
	} else if !up && !pre {
		addr += 4
	}

	userBanking := forceUser && !(load && list&(1<<RPC) != 0)

	for r := 0; r < 16; r++ {
		if list&(1<<uint(r)) == 0 {
			continue
		}
		if load {
			v, err := c.bus.LoadWord(addr)
			if err != nil {
				return err
			}
			if userBanking {
				c.reg.setInMode(ModeUser, r, v)
			} else {
				c.reg.set(r, v)
				if r == RPC {
					if forceUser {
						c.reg.setCPSR(c.reg.get(RSPSR))
					}
					c.branch(v &^ 3)
				}
			}
		} else {
			var v uint32
			if userBanking {
				v = c.reg.getInMode(ModeUser, r)
			} else {
				v = c.reg.get(r)
			}
			if err := c.bus.StoreWord(addr, v); err != nil {
				return err
			}
		}
		addr += 4
	}

	if writeback {
		if up {
			c.reg.set(rn, base+uint32(count)*4)
		} else {
			c.reg.set(rn, base-uint32(count)*4)
		}
	}
	return nil
}

func signExtend(v uint32, bitsWide uint) uint32 {
	shift := 32 - bitsWide
	return uint32(int32(v<<shift) >> shift)
}
