// Package debugger implements a line-mode front end over a gba.Machine:
// step/continue/register/memory/breakpoint commands read from a
// bufio.Scanner, plus a raw single-keystroke step mode for fast
// instruction-by-instruction walking.
package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/bradleyjkemp/memviz"
	"github.com/pkg/term/termios"

	"github.com/pixeldrift/goba/cpu"
	"github.com/pixeldrift/goba/gba"
	"github.com/pixeldrift/goba/logger"
)

// Console wraps a machine with an interactive command loop.
type Console struct {
	m   *gba.Machine
	out io.Writer

	breakpoints map[uint32]bool
}

// NewConsole returns a console wired to m, writing prompts and command
// output to out.
func NewConsole(m *gba.Machine, out io.Writer) *Console {
	return &Console{m: m, out: out, breakpoints: map[uint32]bool{}}
}

// Run reads commands from in until "quit" or EOF.
func (c *Console) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "(goba) ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if c.dispatch(scanner.Text()) {
			return nil
		}
	}
}

// dispatch executes one command line and reports whether the console
// should exit.
func (c *Console) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "quit", "q":
		return true

	case "step", "s":
		n := 1
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				n = v
			}
		}
		c.step(n)

	case "continue", "c":
		c.continueToBreakpoint()

	case "regs", "r":
		c.printRegisters()

	case "mem", "m":
		if len(fields) < 3 {
			fmt.Fprintln(c.out, "usage: mem <addr> <len>")
			break
		}
		c.dumpMemory(fields[1], fields[2])

	case "break", "b":
		if len(fields) < 2 {
			fmt.Fprintln(c.out, "usage: break <addr>")
			break
		}
		addr, err := parseAddr(fields[1])
		if err != nil {
			fmt.Fprintln(c.out, err)
			break
		}
		c.breakpoints[addr] = true
		fmt.Fprintf(c.out, "breakpoint set at %#08x\n", addr)

	case "log":
		logger.Tail(c.out, 20)

	case "graph":
		path := "goba.dot"
		if len(fields) > 1 {
			path = fields[1]
		}
		if err := c.dumpGraph(path); err != nil {
			fmt.Fprintln(c.out, err)
			break
		}
		fmt.Fprintf(c.out, "wrote %s\n", path)

	default:
		fmt.Fprintf(c.out, "unknown command %q\n", fields[0])
	}
	return false
}

func (c *Console) step(n int) {
	for i := 0; i < n; i++ {
		if err := c.m.Step(); err != nil {
			fmt.Fprintf(c.out, "halted: %v\n", err)
			return
		}
	}
	c.printRegisters()
}

// continueToBreakpoint steps until PC matches a registered breakpoint
// or the machine halts on an error.
func (c *Console) continueToBreakpoint() {
	for {
		if err := c.m.Step(); err != nil {
			fmt.Fprintf(c.out, "halted: %v\n", err)
			return
		}
		if c.breakpoints[c.m.CPU.GPR(cpu.RPC)] {
			fmt.Fprintf(c.out, "breakpoint hit at %#08x\n", c.m.CPU.GPR(cpu.RPC))
			c.printRegisters()
			return
		}
	}
}

func (c *Console) printRegisters() {
	for r := 0; r < 16; r++ {
		fmt.Fprintf(c.out, "r%-2d=%08x ", r, c.m.CPU.GPR(r))
		if r%4 == 3 {
			fmt.Fprintln(c.out)
		}
	}
	fmt.Fprintf(c.out, "mode=%v thumb=%v\n", c.m.CPU.Mode(), c.m.CPU.Thumb())
}

func (c *Console) dumpMemory(addrStr, lenStr string) {
	addr, err := parseAddr(addrStr)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	n, err := strconv.Atoi(lenStr)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	for i := 0; i < n; i++ {
		v, err := c.m.Bus.LoadByte(addr + uint32(i))
		if err != nil {
			fmt.Fprintf(c.out, "%#08x: %v\n", addr+uint32(i), err)
			return
		}
		if i%16 == 0 {
			if i != 0 {
				fmt.Fprintln(c.out)
			}
			fmt.Fprintf(c.out, "%08x: ", addr+uint32(i))
		}
		fmt.Fprintf(c.out, "%02x ", v)
	}
	fmt.Fprintln(c.out)
}

// dumpGraph writes a Graphviz dot representation of the machine's
// state to path, for inspecting the register file and wired
// components outside of the fixed mem/regs commands.
func (c *Console) dumpGraph(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	memviz.Map(f, c.m)
	return nil
}

func parseAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", s, err)
	}
	return uint32(v), nil
}

// rawStepper toggles the controlling terminal into raw mode so a
// single keystroke, rather than a line, advances the machine one
// instruction. Grounded on the teacher's easyterm raw/canonical mode
// toggle around termios attributes rather than a line reader.
type rawStepper struct {
	fd     uintptr
	cooked syscall.Termios
	raw    syscall.Termios
}

// newRawStepper captures fd's current terminal attributes and derives
// the raw-mode attributes to switch into for single-keystroke reads.
func newRawStepper(fd uintptr) (*rawStepper, error) {
	rs := &rawStepper{fd: fd}
	if err := termios.Tcgetattr(fd, &rs.cooked); err != nil {
		return nil, err
	}
	rs.raw = rs.cooked
	termios.Cfmakeraw(&rs.raw)
	return rs, nil
}

// enter switches the terminal into raw mode.
func (rs *rawStepper) enter() error {
	return termios.Tcsetattr(rs.fd, termios.TCIFLUSH, &rs.raw)
}

// restore returns the terminal to its original (cooked) attributes.
func (rs *rawStepper) restore() error {
	return termios.Tcsetattr(rs.fd, termios.TCIFLUSH, &rs.cooked)
}

// RunRawStep drives the machine one step per keystroke read from in
// until a byte other than space is read, or the machine halts. fd must
// be the file descriptor backing in (typically os.Stdin.Fd()).
func (c *Console) RunRawStep(in io.Reader, fd uintptr) error {
	rs, err := newRawStepper(fd)
	if err != nil {
		return err
	}
	if err := rs.enter(); err != nil {
		return err
	}
	defer rs.restore()

	buf := make([]byte, 1)
	for {
		if _, err := in.Read(buf); err != nil {
			return err
		}
		if buf[0] != ' ' {
			return nil
		}
		if err := c.m.Step(); err != nil {
			fmt.Fprintf(c.out, "\r\nhalted: %v\r\n", err)
			return nil
		}
		fmt.Fprintf(c.out, "\r\npc=%#08x ", c.m.CPU.GPR(cpu.RPC))
	}
}
