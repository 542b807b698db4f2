// Package eeprom implements the serial-bit-stream save device used by
// cartridges that back SRAM-sized save games onto a 512 byte or 8 KiB
// EEPROM instead of flat SRAM. The protocol runs over 16-bit bus
// accesses: each store/load carries exactly one bit, in the DS[0] bit
// position, and the device advances its internal state machine one
// bit at a time.
package eeprom

import "github.com/pixeldrift/goba/logger"

// Size selects the address width of the underlying chip.
type Size int

const (
	Size512  Size = 512  // 6-bit address, 64 byte-addressable 8-byte blocks
	Size8KiB Size = 8192 // 14-bit address
)

func (s Size) addressBits() int {
	if s == Size512 {
		return 6
	}
	return 14
}

type state int

const (
	stateIdle state = iota
	stateRequest
	stateAddress
	stateWriteData
	stateWriteTerminator
	stateReadDummy
	stateReadData
)

// Device is a single EEPROM chip plus the state machine that drives
// the serial protocol over it.
type Device struct {
	size Size
	data []byte

	st           state
	isWrite      bool
	addrBits     []byte // accumulated address bits, MSB first
	address      int    // decoded byte address, once known
	dataBits     []byte // accumulated write data bits, MSB first
	readBitIndex int     // which bit of the 64-bit read payload is next
	readBuf      [8]byte // snapshot of the 8 bytes at the decoded address
}

// New returns a device of the given size with zeroed, persistent
// storage. Storage survives machine resets for the lifetime of the
// Device value; only a fresh New starts blank.
func New(size Size) *Device {
	return &Device{size: size, data: make([]byte, int(size))}
}

// Bytes exposes the backing store directly, for save-file persistence
// by the host.
func (d *Device) Bytes() []byte { return d.data }

// LoadSaveData overwrites the backing store, e.g. when loading a save
// file from disk. len(b) must not exceed the device's size; shorter
// slices leave the remainder untouched.
func (d *Device) LoadSaveData(b []byte) {
	copy(d.data, b)
}

// ReadBit returns the next bit of a read in progress, or 1 if no read
// has been requested yet (matching real hardware's idle-high line).
func (d *Device) ReadBit() uint16 {
	if d.st != stateReadDummy && d.st != stateReadData {
		return 1
	}
	if d.st == stateReadDummy {
		// one dummy bit precedes the 64 data bits on real hardware
		d.st = stateReadData
		return 0
	}

	byteIndex := d.readBitIndex / 8
	bitIndex := 7 - d.readBitIndex%8
	bit := (d.readBuf[byteIndex] >> uint(bitIndex)) & 1
	d.readBitIndex++
	if d.readBitIndex >= 64 {
		d.st = stateIdle
	}
	return uint16(bit)
}

// WriteBit feeds the next bit of a command, address, or write payload
// into the state machine.
func (d *Device) WriteBit(bit uint16) {
	b := byte(bit & 1)

	switch d.st {
	case stateIdle:
		if b == 1 {
			d.st = stateRequest
		}

	case stateRequest:
		d.isWrite = b == 0
		d.addrBits = d.addrBits[:0]
		d.st = stateAddress

	case stateAddress:
		d.addrBits = append(d.addrBits, b)
		if len(d.addrBits) == d.size.addressBits() {
			d.address = decodeAddress(d.addrBits) * 8
			if d.isWrite {
				d.dataBits = d.dataBits[:0]
				d.st = stateWriteData
			} else {
				d.beginRead()
			}
		}

	case stateWriteData:
		d.dataBits = append(d.dataBits, b)
		if len(d.dataBits) == 64 {
			d.commitWrite()
			d.st = stateWriteTerminator
		}

	case stateWriteTerminator:
		// terminator bit value is not checked; any bit here ends the
		// write transaction.
		d.st = stateIdle

	default:
		logger.Log("eeprom", "write bit %d received in read state %d, ignoring", b, d.st)
	}
}

func (d *Device) beginRead() {
	if d.address+8 > len(d.data) {
		logger.Log("eeprom", "read address %#x out of range for %d byte device", d.address, len(d.data))
		d.st = stateIdle
		return
	}
	copy(d.readBuf[:], d.data[d.address:d.address+8])
	d.readBitIndex = 0
	d.st = stateReadDummy
}

func (d *Device) commitWrite() {
	if d.address+8 > len(d.data) {
		logger.Log("eeprom", "write address %#x out of range for %d byte device", d.address, len(d.data))
		return
	}
	for i := 0; i < 8; i++ {
		var v byte
		for b := 0; b < 8; b++ {
			v = v<<1 | d.dataBits[i*8+b]
		}
		d.data[d.address+i] = v
	}
}

func decodeAddress(bits []byte) int {
	v := 0
	for _, b := range bits {
		v = v<<1 | int(b)
	}
	return v
}
