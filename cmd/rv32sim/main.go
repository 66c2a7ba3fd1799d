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

// Command rv32sim is a thin reference front-end: it wires simhost.SimHost to
// a terminal console (repl). It exists so the core is runnable end to end;
// it is not part of the simulator's tested surface.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rv32dbg/rv32dbg/repl"
	"github.com/rv32dbg/rv32dbg/simhost"
	"github.com/rv32dbg/rv32dbg/stats"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "rv32sim: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flgs := flag.NewFlagSet("rv32sim", flag.ContinueOnError)
	elfPath := flgs.String("elf", "", "ELF32 RISC-V executable to load at startup")
	breakList := flgs.String("break", "", "comma-separated list of addresses/symbols to break at before running")
	verbose := flgs.Bool("verbose", false, "log every instruction as it executes")

	if err := flgs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	host := simhost.NewSimHost()
	host.Processor().SetVerbose(*verbose)

	if addr := os.Getenv("RV32DBG_STATS_ADDR"); addr != "" {
		dash := stats.NewDashboard(host, addr)
		go dash.Start()
	}

	if *elfPath != "" {
		if err := host.LoadFile(*elfPath); err != nil {
			return fmt.Errorf("loading %s: %w", *elfPath, err)
		}
	}

	if err := addBreakpoints(host, *breakList); err != nil {
		return err
	}

	console := repl.NewConsole(host, os.Stdin, os.Stdout)
	console.Run()
	return nil
}

func addBreakpoints(host *simhost.SimHost, list string) error {
	if list == "" {
		return nil
	}
	for _, tok := range strings.Split(list, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		var addr uint32
		if v, err := strconv.ParseUint(tok, 0, 32); err == nil {
			addr = uint32(v)
		} else if sym, ok := host.Symbols().Lookup(tok); ok {
			addr = sym.Addr
		} else {
			return fmt.Errorf("unresolved breakpoint target: %s", tok)
		}

		if _, err := host.AddBreakpoint(addr); err != nil {
			return err
		}
	}
	return nil
}
