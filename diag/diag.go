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

// Package diag renders a point-in-time snapshot of processor state as a
// Graphviz dot graph, for the console's "info dump" command and for
// post-mortem inspection of a saved snapshot.
package diag

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/bradleyjkemp/memviz"
	"github.com/rv32dbg/rv32dbg/cpu"
	"github.com/rv32dbg/rv32dbg/instance"
)

// Snapshot is the subset of processor state worth graphing: the register
// file, PC, privilege, and the named CSRs a debugging session cares about.
// It exists separately from cpu.Processor because the processor's internal
// fields (the CSR map, the decode scratch value) are unexported, and
// because a snapshot should be stable even if the processor keeps running
// in another goroutine.
type Snapshot struct {
	PC         uint32
	Registers  [32]uint32
	Privilege  string
	Mstatus    uint32
	Mcause     uint32
	Mepc       uint32
	Mtval      uint32
	Instrs     uint64
	capturedAt string
}

// Capture takes an immediate, self-contained snapshot of p.
func Capture(p *cpu.Processor) Snapshot {
	s := Snapshot{
		PC:        p.PC(),
		Privilege: p.Privilege().String(),
		Mstatus:   p.CSR(cpu.CSRMstatus),
		Mcause:    p.CSR(cpu.CSRMcause),
		Mepc:      p.CSR(cpu.CSRMepc),
		Mtval:     p.CSR(cpu.CSRMtval),
		Instrs:    p.InstructionCount(),
	}
	for i := uint32(0); i < 32; i++ {
		s.Registers[i] = p.Reg(i)
	}
	return s
}

// Dump renders p's current state as a dot graph, suitable for `dot -Tpng`.
func Dump(p *cpu.Processor) string {
	snap := Capture(p)
	var buf bytes.Buffer
	memviz.Map(&buf, &snap)
	return buf.String()
}

// DumpFile is Dump written to a file named after inst and the current
// instruction count, returning the path written.
func DumpFile(dir string, inst instance.Instance, p *cpu.Processor) (string, error) {
	snap := Capture(p)
	snap.capturedAt = time.Now().UTC().Format(time.RFC3339)

	path := fmt.Sprintf("%s/rv32dbg-%s-%d.dot", dir, inst.ID(), p.InstructionCount())
	var buf bytes.Buffer
	memviz.Map(&buf, &snap)

	return path, os.WriteFile(path, buf.Bytes(), 0o644)
}
