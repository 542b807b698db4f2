package main

import (
	"testing"

	"github.com/pixeldrift/goba/gba"
)

func TestDetectSaveTypeDefaultsToSRAM(t *testing.T) {
	rom := make([]byte, 0x1000)
	if got := detectSaveType(rom); got != gba.SaveSRAM {
		t.Fatalf("expected SaveSRAM, got %v", got)
	}
}

func TestDetectSaveTypeFindsSmallEEPROMMarker(t *testing.T) {
	rom := make([]byte, 0x1000)
	copy(rom[0x800:], []byte("EEPROM_V120"))
	if got := detectSaveType(rom); got != gba.SaveEEPROM512 {
		t.Fatalf("expected SaveEEPROM512, got %v", got)
	}
}

func TestDetectSaveTypeFindsLargeEEPROMMarker(t *testing.T) {
	rom := make([]byte, 0x1000100)
	copy(rom[0x800:], []byte("EEPROM_V120"))
	if got := detectSaveType(rom); got != gba.SaveEEPROM8K {
		t.Fatalf("expected SaveEEPROM8K, got %v", got)
	}
}
