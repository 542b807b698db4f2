package config_test

import (
	"path/filepath"
	"testing"

	"github.com/pixeldrift/goba/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	p, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.WindowScale != 3 || p.LogLevel != "info" {
		t.Fatalf("got %+v, want defaults", p)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	p := &config.Preferences{
		SkipBIOSIntro: true,
		SaveDirectory: "/tmp/saves",
		WindowScale:   5,
		LogLevel:      "debug",
	}
	if err := p.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *p {
		t.Fatalf("got %+v, want %+v", got, p)
	}
}
