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

package memmap_test

import (
	"testing"

	"github.com/rv32dbg/rv32dbg/memmap"
	"github.com/rv32dbg/rv32dbg/test"
)

func TestGetPutByte(t *testing.T) {
	m := memmap.NewMemoryMap(0x1000, 0x2000)

	b, err := m.Get(0x1000)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, b, byte(0))

	err = m.PutByte(0x1000, 0xab)
	test.ExpectSuccess(t, err)

	b, err = m.Get(0x1000)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, b, byte(0xab))
}

func TestOutOfRange(t *testing.T) {
	m := memmap.NewMemoryMap(0x1000, 0x100)

	_, err := m.Get(0x0fff)
	test.ExpectFailure(t, err)

	_, err = m.Get(0x1100)
	test.ExpectFailure(t, err)

	err = m.PutByte(0x2000, 1)
	test.ExpectFailure(t, err)
}

func TestPutBytesSpanningBlocks(t *testing.T) {
	m := memmap.NewMemoryMap(0, 0x4000)

	data := make([]byte, memmap.DefaultBlockSize+16)
	for i := range data {
		data[i] = byte(i)
	}

	start := uint64(memmap.DefaultBlockSize - 8)
	err := m.PutBytes(start, data)
	test.ExpectSuccess(t, err)

	for i, want := range data {
		got, err := m.Get(start + uint64(i))
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, got, want)
	}
}

func TestPutBytesOutOfRangeLeavesNoPartialWrite(t *testing.T) {
	m := memmap.NewMemoryMap(0, 0x10)

	err := m.PutBytes(0x8, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	test.ExpectFailure(t, err)

	b, err := m.Get(0x8)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, b, byte(0))
}

func TestReadWordLE(t *testing.T) {
	m := memmap.NewMemoryMap(0, 0x100)

	err := m.PutBytes(0x10, []byte{0x78, 0x56, 0x34, 0x12})
	test.ExpectSuccess(t, err)

	v, err := m.ReadWordLE(0x10)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, uint32(0x12345678))
}

func TestWriteWordMasked(t *testing.T) {
	m := memmap.NewMemoryMap(0, 0x100)

	err := m.PutBytes(0x20, []byte{0xff, 0xff, 0xff, 0xff})
	test.ExpectSuccess(t, err)

	err = m.WriteWordMasked(0x20, 0x000000ab, 0x000000ff)
	test.ExpectSuccess(t, err)

	v, err := m.ReadWordLE(0x20)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, uint32(0xffffffab))
}

func TestClear(t *testing.T) {
	m := memmap.NewMemoryMap(0, 0x100)

	err := m.PutByte(0x10, 0xff)
	test.ExpectSuccess(t, err)

	m.Clear()

	b, err := m.Get(0x10)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, b, byte(0))
}
