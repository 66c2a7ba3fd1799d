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

// Package instance identifies a single run of the simulator, distinguishing
// concurrently running processes in filenames the simulator writes (e.g.
// diagnostic dumps) without requiring a PID or wall-clock timestamp.
package instance

import (
	"fmt"
	"math/rand"
)

// Instance carries a random identifier generated once at startup.
type Instance struct {
	rnd *rand.Rand
	id  string
}

// NewInstance seeds a new Instance from seed. Callers that want
// reproducible filenames across a test run should pass a fixed seed.
func NewInstance(seed int64) Instance {
	rnd := rand.New(rand.NewSource(seed))
	return Instance{
		rnd: rnd,
		id:  fmt.Sprintf("%08x", rnd.Uint32()),
	}
}

// ID returns the instance's identifier, stable for its lifetime.
func (i Instance) ID() string {
	return i.id
}
