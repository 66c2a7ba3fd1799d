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

// Package elfload parses an ELF32 RISC-V executable and materializes it into
// a guest memory map and symbol table.
package elfload

import (
	"bytes"
	"debug/elf"
	"io"

	"github.com/rv32dbg/rv32dbg/curated"
	"github.com/rv32dbg/rv32dbg/logger"
	"github.com/rv32dbg/rv32dbg/memmap"
	"github.com/rv32dbg/rv32dbg/symbols"
)

// Sentinel error patterns.
const (
	ErrInvalidElf     = "elfload: invalid elf file: %s"
	ErrUnsupportedElf = "elfload: unsupported elf file: %s"
)

// Loader parses a single ELF32 RISC-V executable held in memory.
type Loader struct {
	path string
	raw  []byte
	f    *elf.File
}

// NewLoader parses the header of data, which must be the entire contents of
// an ELF file read from path. path is retained only for log messages.
func NewLoader(path string, data []byte) (*Loader, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, curated.Errorf(ErrInvalidElf, err)
	}

	if f.Class == elf.ELFCLASS64 {
		return nil, curated.Errorf(ErrUnsupportedElf, "64-bit ELF class is not executable by this simulator")
	}
	if f.Class != elf.ELFCLASS32 {
		return nil, curated.Errorf(ErrInvalidElf, "unrecognized ELF class")
	}
	if f.Machine != elf.EM_RISCV {
		return nil, curated.Errorf(ErrInvalidElf, "not a RISC-V machine")
	}
	if f.Type != elf.ET_EXEC {
		return nil, curated.Errorf(ErrInvalidElf, "only executable files are supported")
	}

	return &Loader{path: path, raw: data, f: f}, nil
}

// LoadInto copies every PT_LOAD program header into mem and populates tab
// with every named, typed symbol from the (sole) symbol table section.
func (l *Loader) LoadInto(mem *memmap.MemoryMap, tab *symbols.Table) error {
	if err := l.loadProgramHeaders(mem); err != nil {
		return err
	}
	return l.loadSymbols(tab)
}

func (l *Loader) loadProgramHeaders(mem *memmap.MemoryMap) error {
	var loaded uint64

	for _, prog := range l.f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, prog.Filesz)
		if _, err := io.ReadFull(prog.Open(), data); err != nil && err != io.EOF {
			return curated.Errorf(ErrInvalidElf, err)
		}

		if err := mem.PutBytes(uint64(prog.Paddr), data); err != nil {
			return curated.Errorf(ErrInvalidElf, err)
		}

		loaded += prog.Filesz
		logger.Logf(logger.Allow, "elfload", "%s: loaded %d bytes at %#08x", l.path, prog.Filesz, prog.Paddr)
	}

	logger.Logf(logger.Allow, "elfload", "%s: loaded %d bytes total", l.path, loaded)
	return nil
}

func (l *Loader) loadSymbols(tab *symbols.Table) error {
	symtabs := 0
	for _, sec := range l.f.Sections {
		if sec.Type == elf.SHT_SYMTAB {
			symtabs++
		}
	}
	if symtabs > 1 {
		return curated.Errorf(ErrInvalidElf, "more than one SHT_SYMTAB section present")
	}

	syms, err := l.f.Symbols()
	if err != nil {
		if err == elf.ErrNoSymbols {
			return nil
		}
		return curated.Errorf(ErrInvalidElf, err)
	}

	count := 0
	for _, s := range syms {
		if s.Name == "" {
			continue
		}

		tab.Insert(symbols.Symbol{
			Name: s.Name,
			Kind: symbolKind(elf.ST_TYPE(s.Info)),
			Addr: uint32(s.Value),
		})
		count++
	}

	logger.Logf(logger.Allow, "elfload", "%s: loaded %d symbols", l.path, count)
	return nil
}

func symbolKind(t elf.SymType) symbols.Kind {
	switch t {
	case elf.STT_NOTYPE:
		return symbols.NoType
	case elf.STT_OBJECT:
		return symbols.Object
	case elf.STT_FUNC:
		return symbols.Func
	case elf.STT_SECTION:
		return symbols.Section
	case elf.STT_COMMON:
		return symbols.Common
	case elf.STT_TLS:
		return symbols.Tls
	}
	return symbols.Unknown
}
