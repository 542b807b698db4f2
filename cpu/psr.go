package cpu

const (
	flagN = 1 << 31
	flagZ = 1 << 30
	flagC = 1 << 29
	flagV = 1 << 28
	flagI = 1 << 7
	flagF = 1 << 6
	flagT = 1 << 5
)

func (r *registerFile) cpsr() uint32    { return r.slots[pCPSR] }
func (r *registerFile) setCPSR(v uint32) { r.slots[pCPSR] = v }

func (r *registerFile) flag(bit uint32) bool { return r.cpsr()&bit != 0 }

func (r *registerFile) setFlag(bit uint32, set bool) {
	if set {
		r.slots[pCPSR] |= bit
	} else {
		r.slots[pCPSR] &^= bit
	}
}

func (r *registerFile) n() bool    { return r.flag(flagN) }
func (r *registerFile) z() bool    { return r.flag(flagZ) }
func (r *registerFile) c() bool    { return r.flag(flagC) }
func (r *registerFile) v() bool    { return r.flag(flagV) }
func (r *registerFile) thumb() bool { return r.flag(flagT) }
func (r *registerFile) irqDisabled() bool { return r.flag(flagI) }
func (r *registerFile) fiqDisabled() bool { return r.flag(flagF) }

func (r *registerFile) setNZ(result uint32) {
	r.setFlag(flagN, result&0x80000000 != 0)
	r.setFlag(flagZ, result == 0)
}

// switchMode changes the active processor mode. Because every mode's
// registers live in their own permanent physical slot, switching modes
// never copies data; the logical-to-physical table just resolves
// differently afterward.
func (r *registerFile) switchMode(m Mode) {
	r.slots[pCPSR] = (r.slots[pCPSR] &^ 0x1F) | uint32(m)
}
