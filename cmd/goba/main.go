// Command goba runs the Game Boy Advance core against a BIOS and ROM
// image, either under an SDL2 presentation window or a line-mode
// debug console.
package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/pixeldrift/goba/config"
	"github.com/pixeldrift/goba/debugger"
	"github.com/pixeldrift/goba/gba"
	"github.com/pixeldrift/goba/logger"
	"github.com/pixeldrift/goba/metrics"
	"github.com/pixeldrift/goba/modalflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	md := modalflag.Modes{Output: os.Stdout}
	md.NewArgs(args)
	md.AddSubModes("run", "debug")

	prefs, err := config.Load("goba.json")
	if err != nil {
		return fmt.Errorf("loading preferences: %w", err)
	}

	scale := md.AddInt("scale", prefs.WindowScale, "window scale factor")
	dashboard := md.AddString("dashboard", "", "start the metrics dashboard at this address, e.g. :18066")

	result, err := md.Parse()
	if err != nil {
		return err
	}
	if result == modalflag.ParseHelp {
		return nil
	}

	positional := md.RemainingArgs()
	if len(positional) < 2 {
		return fmt.Errorf("usage: goba [run|debug] [-scale N] [-dashboard addr] <bios-path> <rom-path>")
	}

	bios, err := os.ReadFile(positional[0])
	if err != nil {
		return fmt.Errorf("reading bios: %w", err)
	}
	rom, err := os.ReadFile(positional[1])
	if err != nil {
		return fmt.Errorf("reading rom: %w", err)
	}

	m := gba.New(bios, rom, detectSaveType(rom))

	if *dashboard != "" {
		d := metrics.Start(*dashboard, m.Video)
		defer d.Stop()
	}

	switch md.Mode() {
	case "debug":
		return debugger.NewConsole(m, os.Stdout).Run(os.Stdin)
	default:
		return runPresentation(m, *scale)
	}
}

// detectSaveType scans the whole rom for the ASCII backup-type marker
// "EEPROM_V", the same heuristic emulators have used since the format
// was reverse engineered: no field in the header declares the save
// type directly. Other markers are not searched; a rom without this
// one is treated as SRAM.
func detectSaveType(rom []byte) gba.SaveType {
	switch {
	case bytes.Contains(rom, []byte("EEPROM_V")):
		if len(rom) > 0x1000000 {
			return gba.SaveEEPROM8K
		}
		return gba.SaveEEPROM512
	default:
		return gba.SaveSRAM
	}
}

// runPresentation drives the emulator on its own goroutine while the
// SDL2 window and event pump run on the calling goroutine, since SDL
// requires its window and renderer to be used from the thread that
// created them.
func runPresentation(m *gba.Machine, scale int) error {
	pres, err := newPresentation("goba", scale)
	if err != nil {
		return err
	}
	defer pres.destroy()

	errc := make(chan error, 1)
	go func() {
		for {
			if err := m.Step(); err != nil {
				logger.Log("goba", "emulation stopped: %v", err)
				errc <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for {
		if pollQuit() {
			return nil
		}

		select {
		case err := <-errc:
			return err
		case <-ticker.C:
			if err := pres.present(m.Video.AcquirePresent()); err != nil {
				return err
			}
		}
	}
}
