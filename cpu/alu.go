package cpu

// aluResult is the value an ALU operation produced plus the flags it
// would set, so the caller can choose whether to commit them (the S
// bit, or TST/TEQ/CMP/CMN which always update flags).
type aluResult struct {
	value       uint32
	n, z, c, v  bool
	carryValid  bool // false for logical ops when the caller should keep the shifter's carry
}

func logical(result uint32, shifterCarry bool) aluResult {
	return aluResult{
		value: result,
		n:     result&0x80000000 != 0,
		z:     result == 0,
		c:     shifterCarry,
	}
}

func add(a, b uint32) aluResult {
	sum := uint64(a) + uint64(b)
	result := uint32(sum)
	return aluResult{
		value:      result,
		n:          result&0x80000000 != 0,
		z:          result == 0,
		c:          sum > 0xFFFFFFFF,
		v:          (a^b)&0x80000000 == 0 && (a^result)&0x80000000 != 0,
		carryValid: true,
	}
}

func adc(a, b uint32, carryIn bool) aluResult {
	var cin uint64
	if carryIn {
		cin = 1
	}
	sum := uint64(a) + uint64(b) + cin
	result := uint32(sum)
	return aluResult{
		value:      result,
		n:          result&0x80000000 != 0,
		z:          result == 0,
		c:          sum > 0xFFFFFFFF,
		v:          (a^b)&0x80000000 == 0 && (a^result)&0x80000000 != 0,
		carryValid: true,
	}
}

// sub computes a - b. Carry is the inverse of borrow: set when a >= b.
func sub(a, b uint32) aluResult {
	result := a - b
	return aluResult{
		value:      result,
		n:          result&0x80000000 != 0,
		z:          result == 0,
		c:          a >= b,
		v:          (a^b)&0x80000000 != 0 && (a^result)&0x80000000 != 0,
		carryValid: true,
	}
}

// sbc computes a - b - (1 - carryIn), the ARM-ARM borrow convention.
func sbc(a, b uint32, carryIn bool) aluResult {
	var borrow uint64
	if !carryIn {
		borrow = 1
	}
	full := int64(a) - int64(b) - int64(borrow)
	result := uint32(full)
	return aluResult{
		value:      result,
		n:          result&0x80000000 != 0,
		z:          result == 0,
		c:          full >= 0,
		v:          (a^b)&0x80000000 != 0 && (a^result)&0x80000000 != 0,
		carryValid: true,
	}
}

func mul(a, b uint32) aluResult {
	result := a * b
	return aluResult{
		value: result,
		n:     result&0x80000000 != 0,
		z:     result == 0,
	}
}
