package cpu

// condition evaluates a 4-bit ARM/Thumb condition field against the
// current N/Z/C/V flags.
func (c *CPU) condition(cond uint32) bool {
	n, z, ca, v := c.reg.n(), c.reg.z(), c.reg.c(), c.reg.v()
	switch cond {
	case 0x0: // EQ
		return z
	case 0x1: // NE
		return !z
	case 0x2: // CS/HS
		return ca
	case 0x3: // CC/LO
		return !ca
	case 0x4: // MI
		return n
	case 0x5: // PL
		return !n
	case 0x6: // VS
		return v
	case 0x7: // VC
		return !v
	case 0x8: // HI
		return ca && !z
	case 0x9: // LS
		return !ca || z
	case 0xA: // GE
		return n == v
	case 0xB: // LT
		return n != v
	case 0xC: // GT
		return !z && n == v
	case 0xD: // LE
		return z || n != v
	case 0xE: // AL
		return true
	default: // NV
		return false
	}
}
