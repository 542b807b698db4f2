package cpu

import "math/bits"

// executeThumb decodes and executes a single Thumb-state halfword.
func (c *CPU) executeThumb(opcode uint16) error {
	switch {
	case opcode&0xFE00 == 0xB400:
		return c.thumbPush(opcode)
	case opcode&0xFE00 == 0xBC00:
		return c.thumbPop(opcode)
	case opcode&0xFF00 == 0xB000:
		return c.thumbAddSubSP(opcode)
	case opcode&0xF800 == 0x4800:
		return c.thumbLoadPCRelative(opcode)
	case opcode&0xF000 == 0xA000:
		return c.thumbAddToPCOrSP(opcode)
	case opcode&0xFC00 == 0x4400:
		return c.thumbHighRegister(opcode)
	case opcode&0xF800 == 0x1800:
		return c.thumbAddSubRegisterOrImm(opcode)
	case opcode&0xE000 == 0x0000:
		return c.thumbShiftedRegister(opcode)
	case opcode&0xE000 == 0x2000:
		return c.thumbImmediateALU(opcode)
	case opcode&0xFC00 == 0x4000:
		return c.thumbALU(opcode)
	case opcode&0xF000 == 0x5000:
		return c.thumbLoadStoreRegisterOffset(opcode)
	case opcode&0xF000 == 0x8000:
		return c.thumbLoadStoreHalfword(opcode)
	case opcode&0xE000 == 0x6000:
		return c.thumbLoadStoreImmediateOffset(opcode)
	case opcode&0xF000 == 0x9000:
		return c.thumbLoadStoreSPRelative(opcode)
	case opcode&0xF000 == 0xC000:
		return c.thumbLoadStoreMultiple(opcode)
	case opcode&0xF000 == 0xD000:
		return c.thumbConditionalBranch(opcode)
	case opcode&0xF800 == 0xE000:
		return c.thumbUnconditionalBranch(opcode)
	case opcode&0xF800 == 0xF000, opcode&0xF800 == 0xF800, opcode&0xF800 == 0xE800:
		return c.thumbLongBranch(opcode)
	}
	return unknownInstruction(uint32(opcode))
}

func (c *CPU) thumbPush(opcode uint16) error {
	rlist := opcode & 0xFF
	count := bits.OnesCount16(rlist)
	if opcode&0x0100 != 0 {
		count++
	}
	sp := c.reg.get(RSP) - uint32(count)*4
	addr := sp
	for r := 0; r < 8; r++ {
		if rlist&(1<<uint(r)) == 0 {
			continue
		}
		if err := c.bus.StoreWord(addr, c.reg.get(r)); err != nil {
			return err
		}
		addr += 4
	}
	if opcode&0x0100 != 0 {
		if err := c.bus.StoreWord(addr, c.reg.get(RLR)); err != nil {
			return err
		}
	}
	c.reg.set(RSP, sp)
	return nil
}

func (c *CPU) thumbPop(opcode uint16) error {
	rlist := opcode & 0xFF
	addr := c.reg.get(RSP)
	for r := 0; r < 8; r++ {
		if rlist&(1<<uint(r)) == 0 {
			continue
		}
		v, err := c.bus.LoadWord(addr)
		if err != nil {
			return err
		}
		c.reg.set(r, v)
		addr += 4
	}
	if opcode&0x0100 != 0 {
		v, err := c.bus.LoadWord(addr)
		if err != nil {
			return err
		}
		addr += 4
		c.branch(v &^ 1)
	}
	c.reg.set(RSP, addr)
	return nil
}

func (c *CPU) thumbAddSubSP(opcode uint16) error {
	imm := uint32(opcode&0x7F) * 4
	if opcode&0x80 != 0 {
		c.reg.set(RSP, c.reg.get(RSP)-imm)
	} else {
		c.reg.set(RSP, c.reg.get(RSP)+imm)
	}
	return nil
}

func (c *CPU) thumbLoadPCRelative(opcode uint16) error {
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) * 4
	base := c.reg.get(RPC) &^ 3
	v, err := c.bus.LoadWord(base + imm)
	if err != nil {
		return err
	}
	c.reg.set(rd, v)
	return nil
}

func (c *CPU) thumbAddToPCOrSP(opcode uint16) error {
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) * 4
	if opcode&0x0800 != 0 {
		c.reg.set(rd, c.reg.get(RSP)+imm)
	} else {
		c.reg.set(rd, (c.reg.get(RPC)&^3)+imm)
	}
	return nil
}

func (c *CPU) thumbHighRegister(opcode uint16) error {
	op := (opcode >> 8) & 0x3
	h1 := opcode&0x80 != 0
	h2 := opcode&0x40 != 0
	rs := int(opcode>>3) & 0x7
	rd := int(opcode) & 0x7
	if h2 {
		rs += 8
	}
	if h1 {
		rd += 8
	}

	switch op {
	case 0x0: // ADD
		c.reg.set(rd, c.reg.get(rd)+c.reg.get(rs))
		if rd == RPC {
			c.branch(c.reg.get(RPC) &^ 1)
		}
	case 0x1: // CMP
		result := sub(c.reg.get(rd), c.reg.get(rs))
		c.reg.setFlag(flagN, result.n)
		c.reg.setFlag(flagZ, result.z)
		c.reg.setFlag(flagC, result.c)
		c.reg.setFlag(flagV, result.v)
	case 0x2: // MOV
		c.reg.set(rd, c.reg.get(rs))
		if rd == RPC {
			c.branch(c.reg.get(RPC) &^ 1)
		}
	default: // BX/BLX
		target := c.reg.get(rs)
		if opcode&0x80 != 0 { // BLX
			c.reg.set(RLR, (c.reg.get(RPC)-2)|1)
		}
		thumb := target&1 != 0
		c.switchToThumb(thumb)
		if thumb {
			target &^= 1
		} else {
			target &^= 3
		}
		c.branch(target)
	}
	return nil
}

func (c *CPU) thumbShiftedRegister(opcode uint16) error {
	kind := ShiftKind((opcode >> 11) & 0x3)
	amount := uint32((opcode >> 6) & 0x1F)
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	res := shiftImmediate(kind, c.reg.get(rs), amount, c.reg.c())
	c.reg.set(rd, res.value)
	c.reg.setNZ(res.value)
	c.reg.setFlag(flagC, res.carry)
	return nil
}

func (c *CPU) thumbAddSubRegisterOrImm(opcode uint16) error {
	immediate := opcode&0x0400 != 0
	subtract := opcode&0x0200 != 0
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	field := uint32((opcode >> 6) & 0x7)

	var b uint32
	if immediate {
		b = field
	} else {
		b = c.reg.get(int(field))
	}

	a := c.reg.get(rs)
	var result aluResult
	if subtract {
		result = sub(a, b)
	} else {
		result = add(a, b)
	}
	c.reg.set(rd, result.value)
	c.reg.setFlag(flagN, result.n)
	c.reg.setFlag(flagZ, result.z)
	c.reg.setFlag(flagC, result.c)
	c.reg.setFlag(flagV, result.v)
	return nil
}

func (c *CPU) thumbImmediateALU(opcode uint16) error {
	op := (opcode >> 11) & 0x3
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode & 0xFF)

	a := c.reg.get(rd)
	var result aluResult
	writesRd := true
	switch op {
	case 0x0: // MOV
		result = logical(imm, c.reg.c())
	case 0x1: // CMP
		result = sub(a, imm)
		writesRd = false
	case 0x2: // ADD
		result = add(a, imm)
	default: // SUB
		result = sub(a, imm)
	}
	if writesRd {
		c.reg.set(rd, result.value)
	}
	c.reg.setFlag(flagN, result.n)
	c.reg.setFlag(flagZ, result.z)
	if result.carryValid || op == 0x0 {
		c.reg.setFlag(flagC, result.c)
	}
	if result.carryValid {
		c.reg.setFlag(flagV, result.v)
	}
	return nil
}

func (c *CPU) thumbALU(opcode uint16) error {
	op := (opcode >> 6) & 0xF
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	a := c.reg.get(rd)
	b := c.reg.get(rs)
	var result aluResult
	writesRd := true

	switch op {
	case 0x0: // AND
		result = logical(a&b, c.reg.c())
	case 0x1: // EOR
		result = logical(a^b, c.reg.c())
	case 0x2: // LSL
		res := shiftNormal(ShiftLSL, a, b, c.reg.c())
		result = logical(res.value, res.carry)
	case 0x3: // LSR
		res := shiftNormal(ShiftLSR, a, b, c.reg.c())
		result = logical(res.value, res.carry)
	case 0x4: // ASR
		res := shiftNormal(ShiftASR, a, b, c.reg.c())
		result = logical(res.value, res.carry)
	case 0x5: // ADC
		result = adc(a, b, c.reg.c())
	case 0x6: // SBC
		result = sbc(a, b, c.reg.c())
	case 0x7: // ROR
		res := shiftNormal(ShiftROR, a, b, c.reg.c())
		result = logical(res.value, res.carry)
	case 0x8: // TST
		result = logical(a&b, c.reg.c())
		writesRd = false
	case 0x9: // NEG
		result = sub(0, b)
	case 0xA: // CMP
		result = sub(a, b)
		writesRd = false
	case 0xB: // CMN
		result = add(a, b)
		writesRd = false
	case 0xC: // ORR
		result = logical(a|b, c.reg.c())
	case 0xD: // MUL
		result = mul(a, b)
	case 0xE: // BIC
		result = logical(a&^b, c.reg.c())
	default: // MVN
		result = logical(^b, c.reg.c())
	}

	if writesRd {
		c.reg.set(rd, result.value)
	}
	c.reg.setFlag(flagN, result.n)
	c.reg.setFlag(flagZ, result.z)
	c.reg.setFlag(flagC, result.c)
	if result.carryValid {
		c.reg.setFlag(flagV, result.v)
	}
	return nil
}

func (c *CPU) thumbLoadStoreRegisterOffset(opcode uint16) error {
	op := (opcode >> 10) & 0x3
	signExtended := opcode&0x0200 != 0
	ro := int((opcode >> 6) & 0x7)
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	addr := c.reg.get(rb) + c.reg.get(ro)

	var err error
	if !signExtended {
		switch op {
		case 0x0: // STR
			err = c.bus.StoreWord(addr, c.reg.get(rd))
		case 0x1: // STRB
			err = c.bus.StoreByte(addr, uint8(c.reg.get(rd)))
		case 0x2: // LDR
			var v uint32
			v, err = c.bus.LoadWord(addr)
			if err == nil {
				c.reg.set(rd, v)
			}
		default: // LDRB
			var v uint8
			v, err = c.bus.LoadByte(addr)
			if err == nil {
				c.reg.set(rd, uint32(v))
			}
		}
	} else {
		switch op {
		case 0x0: // STRH
			err = c.bus.StoreHalf(addr, uint16(c.reg.get(rd)))
		case 0x1: // LDSB
			var v uint8
			v, err = c.bus.LoadByte(addr)
			if err == nil {
				c.reg.set(rd, signExtend(uint32(v), 8))
			}
		case 0x2: // LDRH
			var v uint16
			v, err = c.bus.LoadHalf(addr)
			if err == nil {
				c.reg.set(rd, uint32(v))
			}
		default: // LDSH
			var v uint16
			v, err = c.bus.LoadHalf(addr)
			if err == nil {
				c.reg.set(rd, signExtend(uint32(v), 16))
			}
		}
	}
	return err
}

func (c *CPU) thumbLoadStoreHalfword(opcode uint16) error {
	load := opcode&0x0800 != 0
	imm := uint32((opcode>>6)&0x1F) * 2
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	addr := c.reg.get(rb) + imm

	if load {
		v, err := c.bus.LoadHalf(addr)
		if err != nil {
			return err
		}
		c.reg.set(rd, uint32(v))
		return nil
	}
	return c.bus.StoreHalf(addr, uint16(c.reg.get(rd)))
}

func (c *CPU) thumbLoadStoreImmediateOffset(opcode uint16) error {
	byteAccess := opcode&0x1000 != 0
	load := opcode&0x0800 != 0
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	var imm uint32
	if byteAccess {
		imm = uint32((opcode >> 6) & 0x1F)
	} else {
		imm = uint32((opcode>>6)&0x1F) * 4
	}
	addr := c.reg.get(rb) + imm

	if load {
		if byteAccess {
			v, err := c.bus.LoadByte(addr)
			if err != nil {
				return err
			}
			c.reg.set(rd, uint32(v))
			return nil
		}
		v, err := c.bus.LoadWord(addr)
		if err != nil {
			return err
		}
		c.reg.set(rd, v)
		return nil
	}
	if byteAccess {
		return c.bus.StoreByte(addr, uint8(c.reg.get(rd)))
	}
	return c.bus.StoreWord(addr, c.reg.get(rd))
}

func (c *CPU) thumbLoadStoreSPRelative(opcode uint16) error {
	load := opcode&0x0800 != 0
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) * 4
	addr := c.reg.get(RSP) + imm

	if load {
		v, err := c.bus.LoadWord(addr)
		if err != nil {
			return err
		}
		c.reg.set(rd, v)
		return nil
	}
	return c.bus.StoreWord(addr, c.reg.get(rd))
}

func (c *CPU) thumbLoadStoreMultiple(opcode uint16) error {
	load := opcode&0x0800 != 0
	rb := int((opcode >> 8) & 0x7)
	rlist := opcode & 0xFF
	addr := c.reg.get(rb)

	for r := 0; r < 8; r++ {
		if rlist&(1<<uint(r)) == 0 {
			continue
		}
		if load {
			v, err := c.bus.LoadWord(addr)
			if err != nil {
				return err
			}
			c.reg.set(r, v)
		} else {
			if err := c.bus.StoreWord(addr, c.reg.get(r)); err != nil {
				return err
			}
		}
		addr += 4
	}
	c.reg.set(rb, addr)
	return nil
}

func (c *CPU) thumbConditionalBranch(opcode uint16) error {
	cond := uint32(opcode>>8) & 0xF
	if cond == 0xF {
		c.softwareInterrupt()
		return nil
	}
	if !c.condition(cond) {
		return nil
	}
	offset := signExtend(uint32(opcode&0xFF), 8) << 1
	c.branch(c.reg.get(RPC) + offset)
	return nil
}

func (c *CPU) thumbUnconditionalBranch(opcode uint16) error {
	offset := signExtend(uint32(opcode&0x7FF), 11) << 1
	c.branch(c.reg.get(RPC) + offset)
	return nil
}

func (c *CPU) thumbLongBranch(opcode uint16) error {
	switch {
	case opcode&0xF800 == 0xF000:
		hi := signExtend(uint32(opcode&0x7FF), 11) << 12
		c.reg.set(RLR, c.reg.get(RPC)+hi)
		return nil
	default:
		lo := uint32(opcode&0x7FF) << 1
		target := c.reg.get(RLR) + lo
		newLR := (c.reg.get(RPC) - 2) | 1
		if opcode&0xF800 == 0xE800 {
			c.switchToThumb(false)
			target &^= 3
		}
		c.reg.set(RLR, newLR)
		c.branch(target)
		return nil
	}
}
