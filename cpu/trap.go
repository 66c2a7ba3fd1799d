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

package cpu

import "github.com/rv32dbg/rv32dbg/logger"

// cause identifies one trap: either an asynchronous interrupt or a
// synchronous exception, per the RISC-V mcause encoding (interrupt in bit
// 31, code in bits 3:0).
type cause struct {
	interrupt bool
	code      uint32
}

// Trap causes this simulator recognises, bit-exact with mcause.
var (
	causeUserSoftwareInterrupt         = cause{true, 0}
	causeMachineSoftwareInterrupt      = cause{true, 3}
	causeUserTimerInterrupt            = cause{true, 4}
	causeMachineTimerInterrupt         = cause{true, 7}
	causeUserExternalInterrupt         = cause{true, 8}
	causeMachineExternalInterrupt      = cause{true, 11}
	causeInstructionAddressMisaligned  = cause{false, 0}
	causeIllegalInstruction            = cause{false, 2}
	causeBreakpoint                    = cause{false, 3}
	causeLoadAddressMisaligned         = cause{false, 4}
	causeStoreAddressMisaligned        = cause{false, 6}
	causeEnvironmentCallFromUMode      = cause{false, 8}
	causeEnvironmentCallFromMMode      = cause{false, 11}
)

func (c cause) mcause() uint32 {
	v := c.code & 0xF
	if c.interrupt {
		v |= 0x80000000
	}
	return v
}

// interruptSource pairs a pending-interrupt cause with the mip/mie bit
// position that gates it. Order is the priority order in which pending
// interrupts are taken.
type interruptSource struct {
	c   cause
	bit uint
}

var interruptPriority = []interruptSource{
	{causeMachineExternalInterrupt, 11},
	{causeMachineSoftwareInterrupt, 3},
	{causeMachineTimerInterrupt, 7},
	{causeUserExternalInterrupt, 8},
	{causeUserSoftwareInterrupt, 0},
	{causeUserTimerInterrupt, 4},
}

// pendingInterrupt returns the highest-priority interrupt that is both
// pending (mip) and enabled (mie), gated by mstatus.MIE and privilege: an
// interrupt is taken only in machine mode with MIE set, or in user mode with
// MIE clear. Any other combination masks every interrupt.
func (p *Processor) pendingInterrupt() (cause, bool) {
	mip := p.csr[csrMip]
	mie := p.csr[csrMie]
	globalEnable := mstatusBit(p.csr[csrMstatus], mstatusMIEBit)

	for _, src := range interruptPriority {
		if (mip>>src.bit)&0x1 == 0 || (mie>>src.bit)&0x1 == 0 {
			continue
		}
		if (globalEnable && p.privilege == Machine) || (!globalEnable && p.privilege == User) {
			return src.c, true
		}
	}
	return cause{}, false
}

// raiseTrap delivers a trap: it records cause/epc/tval, pushes the
// interrupt-enable and privilege stacks in mstatus, and redirects the
// program counter to the configured trap vector. mtval carries the value
// specified for the trapping condition: the offending instruction word for
// IllegalInstruction, the misaligned address for the Misaligned causes, 0
// otherwise.
//
// The caller is responsible for the uniform pc += 4 that Step performs after
// every instruction or trap; raiseTrap sets pc to (vector - 4) so that
// advance lands exactly on the vector.
func (p *Processor) raiseTrap(c cause, mtval uint32) {
	p.csr[csrMcause] = c.mcause()
	p.csr[csrMepc] = p.pc

	switch c {
	case causeIllegalInstruction, causeInstructionAddressMisaligned,
		causeLoadAddressMisaligned, causeStoreAddressMisaligned:
		p.csr[csrMtval] = mtval
	default:
		p.csr[csrMtval] = 0
	}

	mstatus := p.csr[csrMstatus]
	mie := mstatusBit(mstatus, mstatusMIEBit)
	mstatus = setMstatusBit(mstatus, mstatusMIEBit, false)
	mstatus = setMstatusBit(mstatus, mstatusMPIEBit, mie)
	mstatus = setMstatusMPP(mstatus, p.privilege)
	p.csr[csrMstatus] = mstatus

	p.privilege = Machine

	base := p.csr[csrMtvec] &^ 0x3
	mode := p.csr[csrMtvec] & 0x1
	if mode == 1 && c.interrupt {
		base += 4 * p.csr[csrMcause]
	}
	p.pc = base - 4

	logger.Logf(logger.Allow, "cpu", "trap cause=%#x mepc=%#08x", c.mcause(), p.csr[csrMepc])
}
