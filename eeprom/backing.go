package eeprom

import "github.com/pixeldrift/goba/gbaerr"

// Backing adapts a Device to the bus.Backing interface. Only halfword
// access is meaningful for the serial protocol; byte and word accesses
// are rejected as malformed, matching real cartridge hardware which
// only decodes halfword strobes at this address range.
type Backing struct {
	dev *Device
}

// NewBacking wraps dev for attachment to the memory bus.
func NewBacking(dev *Device) *Backing { return &Backing{dev: dev} }

func (b *Backing) LoadByte(offset uint32) (uint8, error) {
	return 0, gbaerr.Errorf(gbaerr.IOError, "byte access to eeprom at offset %#x", offset)
}

func (b *Backing) StoreByte(offset uint32, v uint8) error {
	return gbaerr.Errorf(gbaerr.IOError, "byte access to eeprom at offset %#x", offset)
}

func (b *Backing) LoadHalf(offset uint32) (uint16, error) {
	return b.dev.ReadBit(), nil
}

func (b *Backing) StoreHalf(offset uint32, v uint16) error {
	b.dev.WriteBit(v & 1)
	return nil
}

func (b *Backing) LoadWord(offset uint32) (uint32, error) {
	return 0, gbaerr.Errorf(gbaerr.IOError, "word access to eeprom at offset %#x", offset)
}

func (b *Backing) StoreWord(offset uint32, v uint32) error {
	return gbaerr.Errorf(gbaerr.IOError, "word access to eeprom at offset %#x", offset)
}
