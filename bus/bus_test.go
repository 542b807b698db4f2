package bus_test

import (
	"testing"

	"github.com/pixeldrift/goba/bus"
	"github.com/pixeldrift/goba/gbaerr"
)

func TestLoadStoreRoundTrip(t *testing.T) {
	b := bus.New()
	ram := bus.NewRegion("ram", 0x1000, false)
	b.Attach(0x02000000, ram, 0, 0x1000)

	if err := b.StoreWord(0x02000010, 0xDEADBEEF); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	got, err := b.LoadWord(0x02000010)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Errorf("got %#x, want 0xDEADBEEF", got)
	}

	if err := b.StoreByte(0x02000020, 0x42); err != nil {
		t.Fatalf("store byte failed: %v", err)
	}
	b8, err := b.LoadByte(0x02000020)
	if err != nil || b8 != 0x42 {
		t.Errorf("got %#x, %v; want 0x42, nil", b8, err)
	}
}

func TestUnmappedAddressIsAccessViolation(t *testing.T) {
	b := bus.New()
	_, err := b.LoadByte(0x12345678)
	if !gbaerr.Is(err, gbaerr.AccessViolation) {
		t.Fatalf("expected AccessViolation, got %v", err)
	}
}

func TestOutOfRangeWithinIntervalIsAccessViolation(t *testing.T) {
	b := bus.New()
	ram := bus.NewRegion("ram", 0x10, false)
	b.Attach(0x02000000, ram, 0, 0x10)

	_, err := b.LoadWord(0x0200000E)
	if !gbaerr.Is(err, gbaerr.AccessViolation) {
		t.Fatalf("expected AccessViolation, got %v", err)
	}
}

func TestReadOnlyWriteIsDroppedNotPropagated(t *testing.T) {
	b := bus.New()
	rom := bus.NewRegion("rom", 0x10, true)
	b.Attach(0x08000000, rom, 0, 0x10)

	if err := b.StoreByte(0x08000000, 0xFF); err != nil {
		t.Fatalf("expected read-only write to be dropped silently, got error: %v", err)
	}
	got, _ := b.LoadByte(0x08000000)
	if got != 0 {
		t.Errorf("read-only region should not have been modified, got %#x", got)
	}
}

func TestMirroredBackingSharesStorage(t *testing.T) {
	b := bus.New()
	rom := bus.NewRegion("rom", 0x1000, true)
	rom.Bytes()[4] = 0xAB
	b.Attach(0x08000000, rom, 0, 0x1000)
	b.Attach(0x0A000000, rom, 0, 0x1000)
	b.Attach(0x0C000000, rom, 0, 0x1000)

	for _, base := range []uint32{0x08000000, 0x0A000000, 0x0C000000} {
		v, err := b.LoadByte(base + 4)
		if err != nil || v != 0xAB {
			t.Errorf("mirror at %#08x: got %#x, %v; want 0xAB, nil", base, v, err)
		}
	}
}

func TestOffsetIntoSharedBacking(t *testing.T) {
	b := bus.New()
	iwram := bus.NewRegion("iwram", 0x8000, false)
	b.Attach(0x03000000, iwram, 0, 0x8000)
	// mirror of the tail of on-chip RAM
	b.Attach(0x03FFFF00, iwram, 0x7F00, 0x100)

	if err := b.StoreWord(0x03007F00, 0x11223344); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	got, err := b.LoadWord(0x03FFFF00)
	if err != nil || got != 0x11223344 {
		t.Errorf("mirror read got %#x, %v; want 0x11223344, nil", got, err)
	}
}
