package bus

import (
	"encoding/binary"

	"github.com/pixeldrift/goba/gbaerr"
)

// Region is a contiguous, zero-initialised byte array with a fixed
// length and an access mode. It backs RAM, BIOS, cartridge ROM and
// save memory.
type Region struct {
	name     string
	data     []byte
	readOnly bool
}

// NewRegion allocates a zeroed region of the given length.
func NewRegion(name string, length int, readOnly bool) *Region {
	return &Region{name: name, data: make([]byte, length), readOnly: readOnly}
}

// NewRegionFromBytes wraps existing data (e.g. a loaded ROM image) as a
// region. The slice is used directly, not copied.
func NewRegionFromBytes(name string, data []byte, readOnly bool) *Region {
	return &Region{name: name, data: data, readOnly: readOnly}
}

// Bytes exposes the backing slice directly, for components (such as the
// rasterizer reading VRAM) that need bulk access without per-pixel
// bus dispatch overhead.
func (r *Region) Bytes() []byte {
	return r.data
}

func (r *Region) bounds(offset uint32, size int) error {
	if int(offset)+size > len(r.data) {
		return gbaerr.Errorf(gbaerr.AccessViolation, "%s: offset %#x, size %d exceeds length %d", r.name, offset, size, len(r.data))
	}
	return nil
}

// LoadByte implements Backing.
func (r *Region) LoadByte(offset uint32) (uint8, error) {
	if err := r.bounds(offset, 1); err != nil {
		return 0, err
	}
	return r.data[offset], nil
}

// LoadHalf implements Backing.
func (r *Region) LoadHalf(offset uint32) (uint16, error) {
	if err := r.bounds(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.data[offset:]), nil
}

// LoadWord implements Backing.
func (r *Region) LoadWord(offset uint32) (uint32, error) {
	if err := r.bounds(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.data[offset:]), nil
}

// StoreByte implements Backing. Writes to a read-only region are
// reported as ReadOnlyViolation; the bus is responsible for logging
// and dropping these rather than propagating them.
func (r *Region) StoreByte(offset uint32, v uint8) error {
	if r.readOnly {
		return gbaerr.Errorf(gbaerr.ReadOnlyViolation, "%s: store to offset %#x", r.name, offset)
	}
	if err := r.bounds(offset, 1); err != nil {
		return err
	}
	r.data[offset] = v
	return nil
}

// StoreHalf implements Backing.
func (r *Region) StoreHalf(offset uint32, v uint16) error {
	if r.readOnly {
		return gbaerr.Errorf(gbaerr.ReadOnlyViolation, "%s: store to offset %#x", r.name, offset)
	}
	if err := r.bounds(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(r.data[offset:], v)
	return nil
}

// StoreWord implements Backing.
func (r *Region) StoreWord(offset uint32, v uint32) error {
	if r.readOnly {
		return gbaerr.Errorf(gbaerr.ReadOnlyViolation, "%s: store to offset %#x", r.name, offset)
	}
	if err := r.bounds(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(r.data[offset:], v)
	return nil
}
