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

// Package simhost owns the assembled guest machine — memory, processor,
// breakpoints, symbols — and drives its run/pause/reset lifecycle.
package simhost

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rv32dbg/rv32dbg/cpu"
	"github.com/rv32dbg/rv32dbg/curated"
	"github.com/rv32dbg/rv32dbg/elfload"
	"github.com/rv32dbg/rv32dbg/govern"
	"github.com/rv32dbg/rv32dbg/logger"
	"github.com/rv32dbg/rv32dbg/memmap"
	"github.com/rv32dbg/rv32dbg/symbols"
)

// Sentinel error patterns for lifecycle operations.
const (
	ErrAlreadyRunning    = "simhost: already running"
	ErrUnsupportedFormat = "simhost: unsupported file format: %s"
)

// illegalInstructionCode and breakpointCode are the low-4-bit mcause codes
// the worker loop watches for. They are declared here, rather than imported
// from cpu, because they describe SimHost lifecycle policy (which guest
// traps end a run) rather than processor semantics.
const (
	illegalInstructionCode = 2
	breakpointCode         = 3
	mcauseInterruptBit     = 0x80000000
)

// DefaultOrigin and DefaultSize describe the full 32-bit guest address space
// a SimHost maps by default.
const (
	DefaultOrigin = 0x00000000
	DefaultSize   = 0x100000000
)

// SimHost assembles one guest machine and owns its lifecycle. It is safe to
// call State and Pause from any goroutine; every other method is intended to
// be called only from the single console goroutine, and only while
// State() != govern.Running.
type SimHost struct {
	mem  *memmap.MemoryMap
	proc *cpu.Processor
	syms *symbols.Table
	bp   *breakpointTable

	state    int32 // govern.SimState, accessed via sync/atomic
	wg       sync.WaitGroup
	lastPath string
}

// NewSimHost returns an idle SimHost with a fresh memory map sized
// [DefaultOrigin, DefaultOrigin+DefaultSize).
func NewSimHost() *SimHost {
	mem := memmap.NewMemoryMap(DefaultOrigin, DefaultSize)
	return &SimHost{
		mem:  mem,
		proc: cpu.NewProcessor(mem),
		syms: symbols.NewTable(),
		bp:   newBreakpointTable(),
		state: int32(govern.Idle),
	}
}

// State returns the current lifecycle state. Safe to call concurrently with
// a running worker.
func (h *SimHost) State() govern.SimState {
	return govern.SimState(atomic.LoadInt32(&h.state))
}

func (h *SimHost) setState(s govern.SimState) {
	atomic.StoreInt32(&h.state, int32(s))
}

// Memory returns the guest memory map.
func (h *SimHost) Memory() *memmap.MemoryMap { return h.mem }

// Processor returns the guest processor.
func (h *SimHost) Processor() *cpu.Processor { return h.proc }

// Symbols returns the symbol table populated by the most recent LoadFile.
func (h *SimHost) Symbols() *symbols.Table { return h.syms }

// AddBreakpoint watches addr, returning its assigned ID.
func (h *SimHost) AddBreakpoint(addr uint32) (int, error) {
	return h.bp.Add(addr)
}

// RemoveBreakpoint stops watching the breakpoint with this ID.
func (h *SimHost) RemoveBreakpoint(id int) error {
	return h.bp.Remove(id)
}

// ClearBreakpoints removes every breakpoint.
func (h *SimHost) ClearBreakpoints() {
	h.bp.Clear()
}

// LoadFile reads path, validates its header with the matching loader
// (currently only ".elf" is recognised), and on success clears guest memory
// and the symbol table before materializing the new image. A file that cannot
// be read, has another extension or fails the header check never touches the
// previously loaded image; a failure while materializing (a segment outside
// the memory window, more than one symbol table) happens after the clear and
// leaves memory and symbols partially loaded. A file that cannot be read is
// reported under ErrUnsupportedFormat; there is no separate not-found error.
func (h *SimHost) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return curated.Errorf(ErrUnsupportedFormat, err)
	}

	if strings.ToLower(filepath.Ext(path)) != ".elf" {
		return curated.Errorf(ErrUnsupportedFormat, path)
	}

	loader, err := elfload.NewLoader(path, data)
	if err != nil {
		return err
	}

	h.mem.Clear()
	h.syms.Clear()

	if err := loader.LoadInto(h.mem, h.syms); err != nil {
		return err
	}

	h.lastPath = path
	logger.Logf(logger.Allow, "simhost", "loaded %s", path)
	return nil
}

// Run starts the worker goroutine, which steps the processor until it hits
// an instruction budget, a breakpoint, a fatal trap, or is interrupted by
// Pause. maxInstructions == 0 means unbounded. Run returns immediately; use
// State to observe completion. Pause does not wait for the run to finish on
// its own: it stops the worker at its next instruction boundary and joins it.
func (h *SimHost) Run(maxInstructions uint64) error {
	if h.State() == govern.Running {
		return curated.Errorf(ErrAlreadyRunning)
	}

	h.wg.Wait() // in case a previous worker is still unwinding
	h.setState(govern.Running)

	h.wg.Add(1)
	go h.runWorker(maxInstructions)
	return nil
}

func (h *SimHost) runWorker(maxInstructions uint64) {
	defer h.wg.Done()

	var counter uint64
	for h.State() == govern.Running {
		if err := h.proc.Step(); err != nil {
			logger.Logf(logger.Allow, "simhost", "step failed, terminating: %s", err)
			h.setState(govern.Terminated)
			return
		}

		counter++

		if maxInstructions > 0 && counter == maxInstructions {
			h.setState(govern.Paused)
			return
		}

		if cause := h.proc.CSR(cpu.CSRMcause); cause&mcauseInterruptBit == 0 {
			switch cause & 0xF {
			case illegalInstructionCode:
				logger.Logf(logger.Allow, "simhost", "illegal instruction at %#08x, terminating", h.proc.PC())
				h.setState(govern.Terminated)
				return
			case breakpointCode:
				h.setState(govern.Paused)
				return
			}
		}

		if h.bp.Contains(h.proc.PC()) {
			logger.Logf(logger.Allow, "simhost", "breakpoint hit at %#08x", h.proc.PC())
			h.setState(govern.Paused)
			return
		}
	}
}

// Pause requests the worker stop at the next instruction boundary and waits
// for it to do so. Safe to call from any goroutine; idempotent when no
// worker is running.
func (h *SimHost) Pause() {
	if h.State() == govern.Running {
		h.setState(govern.Paused)
	}
	h.wg.Wait()
}

// Reset stops any running worker, clears memory, resets the processor, and
// reloads the last-loaded image (if any). The symbol table is cleared and
// repopulated by the reload; the breakpoint table is left untouched.
func (h *SimHost) Reset() error {
	h.Pause()

	h.mem.Clear()
	h.proc.Reset()
	h.syms.Clear()
	h.setState(govern.Idle)

	if h.lastPath == "" {
		return nil
	}

	path := h.lastPath
	data, err := os.ReadFile(path)
	if err != nil {
		return curated.Errorf(ErrUnsupportedFormat, err)
	}
	loader, err := elfload.NewLoader(path, data)
	if err != nil {
		return err
	}
	if err := loader.LoadInto(h.mem, h.syms); err != nil {
		return err
	}
	return nil
}
