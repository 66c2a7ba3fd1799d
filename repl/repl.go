// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package repl is a thin, gdb-like terminal front-end over simhost.SimHost.
// It is a demonstration console, not part of the simulator's tested core
// surface: every command here is implemented entirely in terms of
// simhost/cpu/symbols' exported API.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/rv32dbg/rv32dbg/cpu"
	"github.com/rv32dbg/rv32dbg/diag"
	"github.com/rv32dbg/rv32dbg/govern"
	"github.com/rv32dbg/rv32dbg/repl/easyterm"
	"github.com/rv32dbg/rv32dbg/simhost"
)

// Console reads commands from input and writes responses to output, driving
// a single SimHost for its lifetime.
type Console struct {
	host *simhost.SimHost
	in   *bufio.Scanner
	out  io.Writer
	term easyterm.Terminal

	quit bool
}

// NewConsole returns a Console bound to host, reading commands from in and
// writing output to out.
func NewConsole(host *simhost.SimHost, in *os.File, out *os.File) *Console {
	c := &Console{
		host: host,
		in:   bufio.NewScanner(in),
		out:  out,
	}
	_ = c.term.Initialise(in, out)
	return c
}

// Run reads and executes commands until "quit" or EOF. SIGINT is installed
// as SimHost.Pause so Ctrl-C during a long run returns control to the
// console rather than killing the process.
func (c *Console) Run() {
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)
	go func() {
		for range sigint {
			c.host.Pause()
		}
	}()
	defer signal.Stop(sigint)
	defer c.term.CleanUp()

	for !c.quit && c.prompt() {
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}
		c.dispatch(line)
	}
}

func (c *Console) prompt() bool {
	fmt.Fprintf(c.out, "(rv32dbg) ")
	return c.in.Scan()
}

func (c *Console) dispatch(line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "load":
		c.cmdLoad(args)
	case "run":
		c.cmdRun(args)
	case "continue", "c":
		c.cmdRun(nil)
	case "step", "s":
		c.cmdStep(args)
	case "break", "b":
		c.cmdBreak(args)
	case "delete":
		c.cmdDelete(args)
	case "print", "p":
		c.cmdPrint(args)
	case "info", "i":
		c.cmdInfo(args)
	case "verbose":
		c.cmdVerbose(args)
	case "quit", "q":
		c.quit = true
	default:
		fmt.Fprintf(c.out, "unrecognised command: %s\n", cmd)
	}
}

func (c *Console) cmdLoad(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: load <path>")
		return
	}
	if err := c.host.LoadFile(args[0]); err != nil {
		fmt.Fprintf(c.out, "load failed: %s\n", err)
		return
	}
	fmt.Fprintf(c.out, "loaded %s\n", args[0])
}

func (c *Console) cmdRun(args []string) {
	var n uint64
	if len(args) == 1 {
		v, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			fmt.Fprintf(c.out, "bad instruction count: %s\n", err)
			return
		}
		n = v
	}

	if err := c.host.Run(n); err != nil {
		fmt.Fprintf(c.out, "run failed: %s\n", err)
		return
	}
	for c.host.State() == govern.Running {
		time.Sleep(time.Millisecond)
	}
	c.host.Pause() // joins the worker, which has already stopped itself
	c.reportStop()
}

func (c *Console) cmdStep(args []string) {
	if c.host.State() == govern.Running {
		fmt.Fprintln(c.out, "cannot step while running")
		return
	}

	n := uint64(1)
	if len(args) == 1 {
		v, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			fmt.Fprintf(c.out, "bad step count: %s\n", err)
			return
		}
		n = v
	}

	for i := uint64(0); i < n; i++ {
		if err := c.host.Processor().Step(); err != nil {
			fmt.Fprintf(c.out, "step failed: %s\n", err)
			return
		}
	}
	c.reportStop()
}

func (c *Console) reportStop() {
	p := c.host.Processor()
	fmt.Fprintf(c.out, "state=%s pc=%#08x instructions=%d\n", c.host.State(), p.PC(), p.InstructionCount())
}

func (c *Console) cmdBreak(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: break <addr|symbol>")
		return
	}

	addr, err := c.resolveAddr(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "break failed: %s\n", err)
		return
	}

	id, err := c.host.AddBreakpoint(addr)
	if err != nil {
		fmt.Fprintf(c.out, "break failed: %s\n", err)
		return
	}
	fmt.Fprintf(c.out, "breakpoint %d at %#08x\n", id, addr)
}

func (c *Console) resolveAddr(s string) (uint32, error) {
	if v, err := strconv.ParseUint(s, 0, 32); err == nil {
		return uint32(v), nil
	}
	sym, ok := c.host.Symbols().Lookup(s)
	if !ok {
		return 0, fmt.Errorf("unknown symbol %q", s)
	}
	if !sym.BreakpointEligible() {
		return 0, fmt.Errorf("symbol %q (%s) is not a valid breakpoint target", s, sym.Kind)
	}
	return sym.Addr, nil
}

func (c *Console) cmdDelete(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: delete <id>")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "bad breakpoint id: %s\n", err)
		return
	}
	if err := c.host.RemoveBreakpoint(id); err != nil {
		fmt.Fprintf(c.out, "delete failed: %s\n", err)
		return
	}
	fmt.Fprintf(c.out, "deleted breakpoint %d\n", id)
}

func (c *Console) cmdPrint(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: print <reg|csr name|symbol>")
		return
	}
	p := c.host.Processor()

	if n, ok := regNumber(args[0]); ok {
		fmt.Fprintf(c.out, "%s = %#08x\n", args[0], p.Reg(n))
		return
	}
	if num, ok := csrNumber(args[0]); ok {
		fmt.Fprintf(c.out, "%s = %#08x\n", args[0], p.CSR(num))
		return
	}
	if sym, ok := c.host.Symbols().Lookup(args[0]); ok {
		fmt.Fprintf(c.out, "%s = %#08x (%s)\n", args[0], sym.Addr, sym.Kind)
		return
	}
	fmt.Fprintf(c.out, "unknown identifier: %s\n", args[0])
}

func regNumber(name string) (uint32, bool) {
	if !strings.HasPrefix(name, "x") {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 || n > 31 {
		return 0, false
	}
	return uint32(n), true
}

func csrNumber(name string) (uint32, bool) {
	switch name {
	case "mstatus":
		return cpu.CSRMstatus, true
	case "mie":
		return cpu.CSRMie, true
	case "mtvec":
		return cpu.CSRMtvec, true
	case "mscratch":
		return cpu.CSRMscratch, true
	case "mepc":
		return cpu.CSRMepc, true
	case "mcause":
		return cpu.CSRMcause, true
	case "mtval":
		return cpu.CSRMtval, true
	case "mip":
		return cpu.CSRMip, true
	}
	return 0, false
}

func (c *Console) cmdInfo(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "usage: info <registers|breakpoints|dump>")
		return
	}

	switch args[0] {
	case "registers", "reg":
		p := c.host.Processor()
		for i := uint32(0); i < 32; i++ {
			fmt.Fprintf(c.out, "x%-2d = %#08x\n", i, p.Reg(i))
		}
		fmt.Fprintf(c.out, "pc  = %#08x\n", p.PC())
	case "breakpoints", "break":
		fmt.Fprintln(c.out, "see `break` output for individual IDs; use `delete <id>` to remove one")
	case "dump":
		dot := diag.Dump(c.host.Processor())
		fmt.Fprintln(c.out, dot)
	default:
		fmt.Fprintf(c.out, "unknown info topic: %s\n", args[0])
	}
}

func (c *Console) cmdVerbose(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: verbose <on|off>")
		return
	}
	switch args[0] {
	case "on":
		c.host.Processor().SetVerbose(true)
	case "off":
		c.host.Processor().SetVerbose(false)
	default:
		fmt.Fprintln(c.out, "usage: verbose <on|off>")
	}
}
