package bus

import (
	"sort"

	"github.com/pixeldrift/goba/gbaerr"
	"github.com/pixeldrift/goba/logger"
)

// interval describes one entry of the bus's address map: a base
// address mapping to a backing store, an offset within that backing,
// and the length of the mapped window.
type interval struct {
	base    uint32
	offset  uint32
	length  uint32
	backing Backing
}

// Bus is the sparse interval map described in the memory bus design: an
// ordered mapping from base address to (backing, offset, length),
// built once at construction and never mutated at run time.
type Bus struct {
	intervals []interval
}

// New returns an empty bus. Call Attach to register backings before use.
func New() *Bus {
	return &Bus{}
}

// Attach registers an interval of the address space starting at base,
// length bytes long, backed by backing starting at backingOffset
// within it. Attach is only valid before the bus is used for access;
// the map is rebuilt (kept sorted by base) on every call, which is
// acceptable since attachment only happens during machine construction.
func (b *Bus) Attach(base uint32, backing Backing, backingOffset, length uint32) {
	b.intervals = append(b.intervals, interval{base: base, offset: backingOffset, length: length, backing: backing})
	sort.Slice(b.intervals, func(i, j int) bool { return b.intervals[i].base < b.intervals[j].base })
}

// resolve finds the interval that should service address, per the
// "locate the greatest base <= address" rule, and checks the access
// fits within the interval's length.
func (b *Bus) resolve(address uint32, size uint32) (Backing, uint32, error) {
	// binary search for the rightmost interval with base <= address
	i := sort.Search(len(b.intervals), func(i int) bool { return b.intervals[i].base > address }) - 1
	if i < 0 {
		return nil, 0, gbaerr.Errorf(gbaerr.AccessViolation, "unmapped address %#08x", address)
	}

	iv := b.intervals[i]
	delta := address - iv.base
	if delta+size > iv.length {
		return nil, 0, gbaerr.Errorf(gbaerr.AccessViolation, "unmapped address %#08x", address)
	}
	return iv.backing, iv.offset + delta, nil
}

// LoadByte reads one byte from address.
func (b *Bus) LoadByte(address uint32) (uint8, error) {
	backing, offset, err := b.resolve(address, 1)
	if err != nil {
		return 0, err
	}
	return backing.LoadByte(offset)
}

// LoadHalf reads a little-endian halfword from address. The CPU is
// responsible for aligning address to a 2-byte boundary before calling.
func (b *Bus) LoadHalf(address uint32) (uint16, error) {
	backing, offset, err := b.resolve(address, 2)
	if err != nil {
		return 0, err
	}
	return backing.LoadHalf(offset)
}

// LoadWord reads a little-endian word from address. The CPU is
// responsible for aligning address to a 4-byte boundary before calling.
func (b *Bus) LoadWord(address uint32) (uint32, error) {
	backing, offset, err := b.resolve(address, 4)
	if err != nil {
		return 0, err
	}
	return backing.LoadWord(offset)
}

// StoreByte writes one byte to address. A write to a read-only backing
// is logged and dropped, matching observed hardware, rather than
// reported to the caller.
func (b *Bus) StoreByte(address uint32, v uint8) error {
	backing, offset, err := b.resolve(address, 1)
	if err != nil {
		return err
	}
	return dropReadOnly(backing.StoreByte(offset, v))
}

// StoreHalf writes a little-endian halfword to address.
func (b *Bus) StoreHalf(address uint32, v uint16) error {
	backing, offset, err := b.resolve(address, 2)
	if err != nil {
		return err
	}
	return dropReadOnly(backing.StoreHalf(offset, v))
}

// StoreWord writes a little-endian word to address.
func (b *Bus) StoreWord(address uint32, v uint32) error {
	backing, offset, err := b.resolve(address, 4)
	if err != nil {
		return err
	}
	return dropReadOnly(backing.StoreWord(offset, v))
}

// dropReadOnly implements the error policy for read-only writes: log
// and swallow rather than propagate.
func dropReadOnly(err error) error {
	if err == nil {
		return nil
	}
	if gbaerr.Is(err, gbaerr.ReadOnlyViolation) {
		logger.Log("bus", "%s", err.Error())
		return nil
	}
	return err
}
