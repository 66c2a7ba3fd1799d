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

// Package stats exposes an optional HTTP dashboard over a running SimHost's
// counters, built on statsview. It is entirely optional: cmd/rv32sim only
// starts it when RV32DBG_STATS_ADDR is set, and nothing else in the module
// depends on it.
package stats

import (
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/rv32dbg/rv32dbg/simhost"
)

// Dashboard serves statsview's built-in runtime graphs (goroutines, heap, GC
// pause) next to a bound SimHost. The host's instruction counter is exposed
// through InstructionCount but is not plotted by the dashboard.
type Dashboard struct {
	host *simhost.SimHost
	view *statsview.Viewer
}

// NewDashboard returns a Dashboard bound to host, serving at addr (e.g.
// ":6060"). Call Start to begin serving.
func NewDashboard(host *simhost.SimHost, addr string) *Dashboard {
	return &Dashboard{
		host: host,
		view: statsview.New(viewer.WithAddr(addr)),
	}
}

// Start serves the dashboard. It blocks and should be run in its own
// goroutine; cmd/rv32sim does so only when RV32DBG_STATS_ADDR is set.
func (d *Dashboard) Start() {
	d.view.Start()
}

// InstructionCount reports the bound host's current instruction counter, for
// wiring into a custom statsview graph alongside the built-in runtime ones.
func (d *Dashboard) InstructionCount() uint64 {
	return d.host.Processor().InstructionCount()
}
