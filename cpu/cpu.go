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

// Package cpu implements an RV32I instruction interpreter: thirty-two
// general-purpose registers, a machine-mode CSR file, and the trap/interrupt
// delivery mechanism that drives them.
package cpu

import (
	"github.com/rv32dbg/rv32dbg/curated"
	"github.com/rv32dbg/rv32dbg/logger"
	"github.com/rv32dbg/rv32dbg/memmap"
)

// Sentinel error patterns raised by the host-facing CSR accessors. Guest
// csrrw/csrrs/csrrc instructions never surface these; they convert the same
// underlying condition into an IllegalInstruction trap instead.
const (
	ErrInvalidCSR  = "cpu: csr number %#03x is not defined"
	ErrReadOnlyCSR = "cpu: csr number %#03x is read-only"
	ErrUserModeCSR = "cpu: csr number %#03x cannot be written from user mode"
)

// Privilege is the processor's current privilege level. Supervisor mode is
// not modeled.
type Privilege uint8

// Recognised privilege levels.
const (
	User    Privilege = 0
	Machine Privilege = 3
)

func (p Privilege) String() string {
	if p == Machine {
		return "machine"
	}
	return "user"
}

// Processor is an RV32I interpreter bound to a single guest memory map.
type Processor struct {
	mem *memmap.MemoryMap

	pc  uint32
	reg [32]uint32

	privilege Privilege
	csr       map[uint32]uint32

	instrCount uint64
	verbose    bool

	decoded decoded
}

// NewProcessor returns a Processor reset and ready to step, bound to mem for
// the lifetime of the instance.
func NewProcessor(mem *memmap.MemoryMap) *Processor {
	p := &Processor{mem: mem}
	p.Reset()
	return p
}

// Reset restores architectural state to its power-on values. Guest memory is
// untouched; the caller is responsible for reloading it if required.
func (p *Processor) Reset() {
	p.pc = 0
	p.reg = [32]uint32{}
	p.privilege = Machine
	p.instrCount = 0
	p.decoded = decoded{}

	p.csr = map[uint32]uint32{
		csrMvendorID: 0,
		csrMarchID:   0,
		csrMimpID:    0x20190200,
		csrMhartID:   0,
		csrMstatus:   0,
		csrMisa:      0x40100100,
		csrMie:       0,
		csrMtvec:     0,
		csrMscratch:  0,
		csrMepc:      0,
		csrMcause:    0,
		csrMtval:     0,
		csrMip:       0,
	}
}

// PC returns the program counter.
func (p *Processor) PC() uint32 { return p.pc }

// SetPC overwrites the program counter.
func (p *Processor) SetPC(v uint32) { p.pc = v }

// Reg returns the value of x-register n. x0 always reads 0.
func (p *Processor) Reg(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return p.reg[n&0x1F]
}

// SetReg writes x-register n. Writes to x0 are discarded.
func (p *Processor) SetReg(n uint32, v uint32) {
	if n == 0 {
		return
	}
	p.reg[n&0x1F] = v
}

// InstructionCount returns the number of instructions retired, including
// those that ended in a trap.
func (p *Processor) InstructionCount() uint64 { return p.instrCount }

// Privilege returns the processor's current privilege level.
func (p *Processor) Privilege() Privilege { return p.privilege }

// SetVerbose toggles per-instruction disassembly logging via the logger
// package.
func (p *Processor) SetVerbose(v bool) { p.verbose = v }

// CSR reads a control/status register's raw stored value. An unrecognised
// number reads as zero; use SetCSR to discover whether a number is defined.
func (p *Processor) CSR(num uint32) uint32 {
	return p.csr[num]
}

// SetCSR writes a control/status register from the host API (as opposed to a
// guest csrrw/csrrs/csrrc instruction, which goes through trySetCSR so it can
// raise an IllegalInstruction trap instead of a Go error).
func (p *Processor) SetCSR(num uint32, v uint32) error {
	status, _ := p.trySetCSR(num, v)
	switch {
	case status.undefinedNum:
		return curated.Errorf(ErrInvalidCSR, num)
	case status.readOnly:
		return curated.Errorf(ErrReadOnlyCSR, num)
	case status.userMode:
		return curated.Errorf(ErrUserModeCSR, num)
	}
	return nil
}

// Step executes exactly one instruction, or delivers exactly one pending
// trap in its place. Every path that returns nil ends with a uniform pc += 4,
// whether the instruction completed normally or trapped; jumps, taken
// branches and traps reach their target by setting pc to (target - 4) before
// that uniform advance, so callers never special-case the trapping path.
//
// Step returns a non-nil error only when the instruction fetch itself falls
// outside the guest memory window — an unrecoverable host-level condition,
// distinct from a guest trap, which always returns nil and is instead
// visible through the mcause/mepc/mtval CSRs.
func (p *Processor) Step() error {
	if p.pc%4 != 0 {
		p.raiseTrap(causeInstructionAddressMisaligned, p.pc)
		p.advance()
		return nil
	}

	if cause, ok := p.pendingInterrupt(); ok {
		p.raiseTrap(cause, 0)
		p.advance()
		return nil
	}

	cmd, err := p.mem.ReadWordLE(uint64(p.pc))
	if err != nil {
		logger.Logf(logger.Allow, "cpu", "fetch at %#08x: %s", p.pc, err)
		return err
	}

	inst, found := lookup(cmd)
	if !found {
		p.raiseTrap(causeIllegalInstruction, cmd)
		p.advance()
		return nil
	}

	if p.verbose {
		logger.Logf(logger.Allow, "cpu", "%#08x: %s", p.pc, inst.name)
	}

	if inst.decode != nil {
		p.decoded = inst.decode(cmd)
	}
	inst.exec(p)

	p.advance()
	return nil
}

func (p *Processor) advance() {
	p.pc += 4
	p.instrCount++
}
