// Package cpu implements the ARM7TDMI instruction set interpreter: the
// banked register file, the two-stage pipeline, the ARM and Thumb
// decoders, the barrel shifter and ALU, and exception entry.
package cpu

// Mode is one of the seven ARM7TDMI processor modes, encoded exactly
// as it appears in CPSR bits 4:0.
type Mode uint32

const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1B
	ModeSystem     Mode = 0x1F
)

func (m Mode) valid() bool {
	switch m {
	case ModeUser, ModeFIQ, ModeIRQ, ModeSupervisor, ModeAbort, ModeUndefined, ModeSystem:
		return true
	}
	return false
}

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "usr"
	case ModeFIQ:
		return "fiq"
	case ModeIRQ:
		return "irq"
	case ModeSupervisor:
		return "svc"
	case ModeAbort:
		return "abt"
	case ModeUndefined:
		return "und"
	case ModeSystem:
		return "sys"
	default:
		return "???"
	}
}

// modeIndex maps a Mode value to a 0..6 slot used to index the banking
// table; it panics on an invalid mode, which can only happen from a
// corrupted CPSR that well-formed guest code never produces.
func modeIndex(m Mode) int {
	switch m {
	case ModeUser:
		return 0
	case ModeFIQ:
		return 1
	case ModeIRQ:
		return 2
	case ModeSupervisor:
		return 3
	case ModeAbort:
		return 4
	case ModeUndefined:
		return 5
	case ModeSystem:
		return 6
	default:
		panic("cpu: invalid processor mode")
	}
}
