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

package simhost

import (
	"sync"

	"github.com/rv32dbg/rv32dbg/curated"
)

// Sentinel error patterns for breakpoint operations.
const (
	ErrBreakpointDuplicate = "simhost: breakpoint already set at %#08x (id %d)"
	ErrBreakpointNotFound  = "simhost: breakpoint id %d not found"
)

// breakpointTable maps IDs to addresses. The worker goroutine reads it via
// Contains while Running; the console mutates it only while paused. The
// RWMutex makes that contract safe even though the contract itself is
// enforced by the caller, not by this type.
type breakpointTable struct {
	mu     sync.RWMutex
	byID   map[int]uint32
	nextID int
}

func newBreakpointTable() *breakpointTable {
	return &breakpointTable{byID: make(map[int]uint32)}
}

// Add assigns the next ID to addr and returns it, unless addr is already
// watched, in which case it fails with the existing ID reported in the
// error.
func (b *breakpointTable) Add(addr uint32) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, a := range b.byID {
		if a == addr {
			return 0, curated.Errorf(ErrBreakpointDuplicate, addr, id)
		}
	}

	b.nextID++
	id := b.nextID
	b.byID[id] = addr
	return id, nil
}

// Remove erases the breakpoint with this ID.
func (b *breakpointTable) Remove(id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.byID[id]; !ok {
		return curated.Errorf(ErrBreakpointNotFound, id)
	}
	delete(b.byID, id)
	return nil
}

// Clear empties the table. The ID counter is not reset, so a breakpoint
// added afterwards never reuses an old ID.
func (b *breakpointTable) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byID = make(map[int]uint32)
}

// Contains reports whether addr is currently watched by any breakpoint.
func (b *breakpointTable) Contains(addr uint32) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, a := range b.byID {
		if a == addr {
			return true
		}
	}
	return false
}
