package cpu

// ShiftKind is one of the four barrel shifter operations.
type ShiftKind uint8

const (
	ShiftLSL ShiftKind = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// shiftResult carries the shifted value and the carry the shifter
// produced, which the caller folds into CPSR.C only when the
// instruction updates flags.
type shiftResult struct {
	value uint32
	carry bool
}

// shiftNormal implements the register-supplied-amount variant: the
// amount is taken modulo 256, and an amount of zero passes the value
// through unchanged with the incoming carry preserved.
func shiftNormal(kind ShiftKind, value uint32, amount uint32, carryIn bool) shiftResult {
	amount &= 0xFF
	if amount == 0 {
		return shiftResult{value: value, carry: carryIn}
	}
	return shiftByAmount(kind, value, amount, carryIn)
}

// shiftImmediate implements the immediate-amount variant, where a
// literal amount of zero carries ARM's special-cased meaning for each
// shift kind rather than passing the value through.
func shiftImmediate(kind ShiftKind, value uint32, amount uint32, carryIn bool) shiftResult {
	if amount != 0 {
		return shiftByAmount(kind, value, amount, carryIn)
	}

	switch kind {
	case ShiftLSL:
		return shiftResult{value: value, carry: carryIn}
	case ShiftLSR:
		return shiftResult{value: 0, carry: value&0x80000000 != 0}
	case ShiftASR:
		if value&0x80000000 != 0 {
			return shiftResult{value: 0xFFFFFFFF, carry: true}
		}
		return shiftResult{value: 0, carry: false}
	default: // ShiftROR #0 => RRX
		carryOut := value&1 != 0
		result := value >> 1
		if carryIn {
			result |= 0x80000000
		}
		return shiftResult{value: result, carry: carryOut}
	}
}

func shiftByAmount(kind ShiftKind, value uint32, amount uint32, carryIn bool) shiftResult {
	switch kind {
	case ShiftLSL:
		switch {
		case amount < 32:
			carry := value&(1<<(32-amount)) != 0
			return shiftResult{value: value << amount, carry: carry}
		case amount == 32:
			return shiftResult{value: 0, carry: value&1 != 0}
		default:
			return shiftResult{value: 0, carry: false}
		}

	case ShiftLSR:
		switch {
		case amount < 32:
			carry := value&(1<<(amount-1)) != 0
			return shiftResult{value: value >> amount, carry: carry}
		case amount == 32:
			return shiftResult{value: 0, carry: value&0x80000000 != 0}
		default:
			return shiftResult{value: 0, carry: false}
		}

	case ShiftASR:
		signed := int32(value)
		switch {
		case amount < 32:
			carry := value&(1<<(amount-1)) != 0
			return shiftResult{value: uint32(signed >> amount), carry: carry}
		default:
			if value&0x80000000 != 0 {
				return shiftResult{value: 0xFFFFFFFF, carry: true}
			}
			return shiftResult{value: 0, carry: false}
		}

	default: // ShiftROR
		effective := amount & 0x1F
		if effective == 0 {
			// a multiple of 32: value is unchanged, carry takes bit 31.
			return shiftResult{value: value, carry: value&0x80000000 != 0}
		}
		result := value>>effective | value<<(32-effective)
		carry := result&0x80000000 != 0
		return shiftResult{value: result, carry: carry}
	}
}
