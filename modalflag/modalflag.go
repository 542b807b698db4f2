// Package modalflag is a small command line parser for programs with
// one optional layer of sub-modes (a leading positional word that
// selects a command) sitting in front of a regular flag set. It is a
// single-level simplification of a richer recursive sub-mode parser:
// this program never nests a sub-mode inside a sub-mode, so there is
// no mode path to track, only a single selected mode name.
package modalflag

import (
	"flag"
	"fmt"
	"io"
)

// ParseResult tells the caller what Parse decided.
type ParseResult int

const (
	// ParseContinue means flags were parsed successfully and the
	// caller should proceed using them.
	ParseContinue ParseResult = iota

	// ParseHelp means usage text was written to Output and the
	// caller should exit without error.
	ParseHelp
)

// Modes parses a flag set optionally preceded by one of a fixed list
// of sub-mode names.
type Modes struct {
	Output io.Writer

	args []string
	fs   *flag.FlagSet

	subModes    []string
	defaultMode string
	mode        string
}

// NewArgs resets the parser with a new argument list (typically
// os.Args[1:]).
func (m *Modes) NewArgs(args []string) {
	m.args = args
	m.fs = flag.NewFlagSet("", flag.ContinueOnError)
	m.fs.SetOutput(io.Discard)
}

// AddSubModes declares the valid sub-mode names. The first name is
// the default used when the caller supplies none.
func (m *Modes) AddSubModes(modes ...string) {
	m.subModes = modes
	if len(modes) > 0 {
		m.defaultMode = modes[0]
	}
}

// AddBool declares a boolean flag and returns a pointer to its value,
// following the standard library flag package's own convention.
func (m *Modes) AddBool(name string, value bool, usage string) *bool {
	return m.fs.Bool(name, value, usage)
}

// AddString declares a string flag and returns a pointer to its value.
func (m *Modes) AddString(name string, value string, usage string) *string {
	return m.fs.String(name, value, usage)
}

// AddInt declares an integer flag and returns a pointer to its value.
func (m *Modes) AddInt(name string, value int, usage string) *int {
	return m.fs.Int(name, value, usage)
}

// Mode returns the selected sub-mode name, or the empty string if no
// sub-modes were declared.
func (m *Modes) Mode() string {
	return m.mode
}

// RemainingArgs returns the positional arguments left over after flag
// parsing.
func (m *Modes) RemainingArgs() []string {
	return m.fs.Args()
}

// Parse consumes a leading sub-mode name if one was declared and one
// is present, then parses the rest of the argument list as flags.
func (m *Modes) Parse() (ParseResult, error) {
	args := m.args

	if len(m.subModes) > 0 {
		m.mode = m.defaultMode
		if len(args) > 0 && !isFlag(args[0]) {
			if !m.validMode(args[0]) {
				return ParseContinue, fmt.Errorf("unknown mode %q", args[0])
			}
			m.mode = args[0]
			args = args[1:]
		}
	}

	for _, a := range args {
		if a == "-help" || a == "--help" || a == "-h" {
			m.printHelp()
			return ParseHelp, nil
		}
	}

	if err := m.fs.Parse(args); err != nil {
		return ParseContinue, err
	}

	return ParseContinue, nil
}

func (m *Modes) validMode(s string) bool {
	for _, mode := range m.subModes {
		if mode == s {
			return true
		}
	}
	return false
}

func isFlag(s string) bool {
	return len(s) > 0 && s[0] == '-'
}

func (m *Modes) printHelp() {
	fmt.Fprintln(m.Output, "Usage:")
	m.fs.SetOutput(m.Output)
	m.fs.PrintDefaults()
	m.fs.SetOutput(io.Discard)

	if len(m.subModes) > 0 {
		fmt.Fprintln(m.Output)
		fmt.Fprintf(m.Output, "  available sub-modes:")
		for i, mode := range m.subModes {
			if i > 0 {
				fmt.Fprint(m.Output, ",")
			}
			fmt.Fprintf(m.Output, " %s", mode)
		}
		fmt.Fprintln(m.Output)
		fmt.Fprintf(m.Output, "    default: %s\n", m.defaultMode)
	}
}
