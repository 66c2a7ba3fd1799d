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

package elfload_test

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/rv32dbg/rv32dbg/elfload"
	"github.com/rv32dbg/rv32dbg/memmap"
	"github.com/rv32dbg/rv32dbg/symbols"
	"github.com/rv32dbg/rv32dbg/test"
)

// buildElf32 assembles a minimal, valid little-endian ELF32 RISC-V
// executable with one PT_LOAD segment, one named symbol, and the section
// plumbing (.text, .symtab, .strtab, .shstrtab) required for elf.NewFile to
// parse it successfully.
func buildElf32(t *testing.T, loadAddr uint32, text []byte, symName string, symAddr uint32, symType elf.SymType) []byte {
	t.Helper()

	const ehsize = 52
	const phentsize = 32
	const shentsize = 40
	const symentsize = 16

	strtab := []byte{0}
	strtab = append(strtab, []byte(symName+"\x00")...)

	shstrtab := []byte{0}
	shstrtabOff := make(map[string]uint32)
	addShstr := func(s string) uint32 {
		off := uint32(len(shstrtab))
		shstrtab = append(shstrtab, []byte(s+"\x00")...)
		shstrtabOff[s] = off
		return off
	}
	addShstr(".text")
	addShstr(".symtab")
	addShstr(".strtab")
	addShstr(".shstrtab")

	textOff := uint32(ehsize + phentsize)
	strtabOff := textOff + uint32(len(text))
	symtabOff := strtabOff + uint32(len(strtab))

	var sym elf.Sym32
	sym.Name = 1
	sym.Value = symAddr
	sym.Info = elf.ST_INFO(elf.STB_GLOBAL, symType)
	sym.Shndx = 1

	var symtab bytes.Buffer
	var nullSym elf.Sym32
	binary.Write(&symtab, binary.LittleEndian, nullSym)
	binary.Write(&symtab, binary.LittleEndian, sym)

	shstrtabOffFile := symtabOff + uint32(symtab.Len())
	shoff := shstrtabOffFile + uint32(len(shstrtab))

	var buf bytes.Buffer

	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_RISCV),
		Version:   1,
		Entry:     loadAddr,
		Phoff:     ehsize,
		Shoff:     shoff,
		Ehsize:    ehsize,
		Phentsize: phentsize,
		Phnum:     1,
		Shentsize: shentsize,
		Shnum:     5,
		Shstrndx:  4,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = 1

	binary.Write(&buf, binary.LittleEndian, hdr)

	prog := elf.Prog32{
		Type:   uint32(elf.PT_LOAD),
		Off:    textOff,
		Vaddr:  loadAddr,
		Paddr:  loadAddr,
		Filesz: uint32(len(text)),
		Memsz:  uint32(len(text)),
		Flags:  uint32(elf.PF_R | elf.PF_X),
		Align:  4,
	}
	binary.Write(&buf, binary.LittleEndian, prog)

	buf.Write(text)
	buf.Write(strtab)
	symtab.WriteTo(&buf)
	buf.Write(shstrtab)

	sections := []elf.Section32{
		{}, // SHN_UNDEF
		{Name: shstrtabOff[".text"], Type: uint32(elf.SHT_PROGBITS), Addr: loadAddr, Off: textOff, Size: uint32(len(text)), Addralign: 4},
		{Name: shstrtabOff[".symtab"], Type: uint32(elf.SHT_SYMTAB), Off: symtabOff, Size: shstrtabOffFile - symtabOff, Link: 3, Entsize: symentsize},
		{Name: shstrtabOff[".strtab"], Type: uint32(elf.SHT_STRTAB), Off: strtabOff, Size: uint32(len(strtab))},
		{Name: shstrtabOff[".shstrtab"], Type: uint32(elf.SHT_STRTAB), Off: shstrtabOffFile, Size: uint32(len(shstrtab))},
	}
	for _, s := range sections {
		binary.Write(&buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}

func TestLoadIntoPlacesTextAndSymbol(t *testing.T) {
	text := []byte{0x13, 0x00, 0x00, 0x00, 0x13, 0x00, 0x00, 0x00} // nop; nop
	data := buildElf32(t, 0x1000, text, "_start", 0x1000, elf.STT_FUNC)

	l, err := elfload.NewLoader("prog.elf", data)
	test.ExpectSuccess(t, err)

	mem := memmap.NewMemoryMap(0, 0x100000)
	tab := symbols.NewTable()

	err = l.LoadInto(mem, tab)
	test.ExpectSuccess(t, err)

	for i, want := range text {
		got, err := mem.Get(0x1000 + uint64(i))
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, got, want)
	}

	sym, ok := tab.Lookup("_start")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, sym.Addr, uint32(0x1000))
	test.ExpectEquality(t, sym.Kind, symbols.Func)
	test.ExpectSuccess(t, sym.BreakpointEligible())
}

// buildElf32DuplicateSymtab is buildElf32 with a second SHT_SYMTAB section
// header appended, aliasing the same symbol table bytes as the first. A
// well-formed ELF never has more than one symbol table; this exists solely
// to exercise LoadInto's rejection of that case.
func buildElf32DuplicateSymtab(t *testing.T, loadAddr uint32, text []byte, symName string, symAddr uint32, symType elf.SymType) []byte {
	t.Helper()

	data := buildElf32(t, loadAddr, text, symName, symAddr, symType)

	var hdr elf.Header32
	binary.Read(bytes.NewReader(data), binary.LittleEndian, &hdr)

	symtabSec := make([]byte, hdr.Shentsize)
	copy(symtabSec, data[int(hdr.Shoff)+2*int(hdr.Shentsize):int(hdr.Shoff)+3*int(hdr.Shentsize)])

	out := make([]byte, 0, len(data)+len(symtabSec))
	out = append(out, data[:hdr.Shoff+uint32(hdr.Shentsize)*uint32(hdr.Shnum)]...)
	out = append(out, symtabSec...)

	binary.LittleEndian.PutUint16(out[48:50], hdr.Shnum+1) // e_shnum

	return out
}

func TestLoadIntoRejectsMultipleSymtabSections(t *testing.T) {
	text := []byte{0x13, 0x00, 0x00, 0x00}
	data := buildElf32DuplicateSymtab(t, 0x1000, text, "_start", 0x1000, elf.STT_FUNC)

	l, err := elfload.NewLoader("dupsymtab.elf", data)
	test.ExpectSuccess(t, err)

	mem := memmap.NewMemoryMap(0, 0x100000)
	tab := symbols.NewTable()

	err = l.LoadInto(mem, tab)
	test.ExpectFailure(t, err)
}

func TestNewLoaderRejectsBadMagic(t *testing.T) {
	_, err := elfload.NewLoader("bad.elf", []byte("not an elf file at all"))
	test.ExpectFailure(t, err)
}

func TestNewLoaderRejects64Bit(t *testing.T) {
	text := []byte{0x13, 0x00, 0x00, 0x00}
	data := buildElf32(t, 0x1000, text, "_start", 0x1000, elf.STT_FUNC)
	data[elf.EI_CLASS] = byte(elf.ELFCLASS64)

	_, err := elfload.NewLoader("bad64.elf", data)
	test.ExpectFailure(t, err)
}
