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

// Package memmap is a sparse, block-allocated, byte-addressed memory space
// for the guest machine. Blocks are allocated lazily on first write; reads of
// an unallocated block return zero without allocating it.
package memmap

import (
	"github.com/rv32dbg/rv32dbg/curated"
)

// DefaultBlockSize is the size, in bytes, of each lazily-allocated block.
const DefaultBlockSize = 1024

// Sentinel error patterns for use with curated.Is/curated.Has.
const (
	ErrOutOfRange = "memmap: address %#08x is outside of range [%#08x, %#08x)"
)

// MemoryMap is a byte-addressed sparse store over [origin, origin+size).
type MemoryMap struct {
	origin    uint64
	size      uint64
	blockSize uint64
	blocks    map[uint64][]byte
}

// NewMemoryMap creates a MemoryMap over [origin, origin+size).
func NewMemoryMap(origin, size uint64) *MemoryMap {
	return &MemoryMap{
		origin:    origin,
		size:      size,
		blockSize: DefaultBlockSize,
		blocks:    make(map[uint64][]byte),
	}
}

func (m *MemoryMap) inRange(addr uint64) bool {
	return addr >= m.origin && addr < m.origin+m.size
}

func (m *MemoryMap) block(idx uint64, allocate bool) []byte {
	b, ok := m.blocks[idx]
	if !ok {
		if !allocate {
			return nil
		}
		b = make([]byte, m.blockSize)
		m.blocks[idx] = b
	}
	return b
}

// Get returns the byte stored at addr, or OutOfRange if addr is outside the
// window. An unallocated block reads as zero.
func (m *MemoryMap) Get(addr uint64) (byte, error) {
	if !m.inRange(addr) {
		return 0, curated.Errorf(ErrOutOfRange, addr, m.origin, m.origin+m.size)
	}

	idx := addr / m.blockSize
	off := addr % m.blockSize

	b := m.block(idx, false)
	if b == nil {
		return 0, nil
	}
	return b[off], nil
}

// PutByte writes a single byte at addr, allocating its block if necessary.
func (m *MemoryMap) PutByte(addr uint64, data byte) error {
	if !m.inRange(addr) {
		return curated.Errorf(ErrOutOfRange, addr, m.origin, m.origin+m.size)
	}

	idx := addr / m.blockSize
	off := addr % m.blockSize

	b := m.block(idx, true)
	b[off] = data
	return nil
}

// PutBytes writes data starting at addr, spanning block boundaries as
// necessary. It fails with OutOfRange if any byte of the range escapes the
// window; on failure no bytes are written.
func (m *MemoryMap) PutBytes(addr uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	end := addr + uint64(len(data))
	if !m.inRange(addr) || end > m.origin+m.size {
		return curated.Errorf(ErrOutOfRange, addr, m.origin, m.origin+m.size)
	}

	cur := addr
	remaining := data
	for len(remaining) > 0 {
		idx := cur / m.blockSize
		off := cur % m.blockSize
		room := m.blockSize - off
		n := uint64(len(remaining))
		if n > room {
			n = room
		}

		b := m.block(idx, true)
		copy(b[off:off+n], remaining[:n])

		cur += n
		remaining = remaining[n:]
	}

	return nil
}

// ReadWordLE reads four little-endian bytes starting at addr. No alignment
// is enforced here; the processor enforces alignment per instruction.
func (m *MemoryMap) ReadWordLE(addr uint64) (uint32, error) {
	var v uint32
	for i := uint64(0); i < 4; i++ {
		b, err := m.Get(addr + i)
		if err != nil {
			return 0, err
		}
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}

// WriteWordMasked performs a read-modify-write of one little-endian 32-bit
// word: new = (old &^ mask) | (value & mask).
func (m *MemoryMap) WriteWordMasked(addr uint64, value, mask uint32) error {
	old, err := m.ReadWordLE(addr)
	if err != nil {
		return err
	}

	n := (old &^ mask) | (value & mask)

	buf := []byte{
		byte(n),
		byte(n >> 8),
		byte(n >> 16),
		byte(n >> 24),
	}
	return m.PutBytes(addr, buf)
}

// Clear drops every allocated block. Subsequent reads return zero.
func (m *MemoryMap) Clear() {
	m.blocks = make(map[uint64][]byte)
}
