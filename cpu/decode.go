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

// decoded holds the fields extracted from an instruction word by a decode
// function. Step stores the result in the Processor's decoded field, where
// the executor reads it; it stays there until the next decode, and
// instructions with no decode function (fence, mret, ebreak, ecall) leave the
// previous value in place.
type decoded struct {
	rd  uint32
	rs1 uint32
	rs2 uint32
	imm int32
}

func decodeR(cmd uint32) decoded {
	return decoded{
		rd:  (cmd >> 7) & 0x1F,
		rs1: (cmd >> 15) & 0x1F,
		rs2: (cmd >> 20) & 0x1F,
	}
}

func decodeI(cmd uint32) decoded {
	return decoded{
		rd:  (cmd >> 7) & 0x1F,
		rs1: (cmd >> 15) & 0x1F,
		imm: int32(cmd) >> 20,
	}
}

func decodeS(cmd uint32) decoded {
	raw := (((cmd >> 25) & 0x7F) << 5) | ((cmd >> 7) & 0x1F)
	return decoded{
		rs1: (cmd >> 15) & 0x1F,
		rs2: (cmd >> 20) & 0x1F,
		imm: int32(raw<<20) >> 20,
	}
}

func decodeB(cmd uint32) decoded {
	raw := (((cmd >> 31) & 0x1) << 12) |
		(((cmd >> 7) & 0x1) << 11) |
		(((cmd >> 25) & 0x3F) << 5) |
		(((cmd >> 8) & 0xF) << 1)
	return decoded{
		rs1: (cmd >> 15) & 0x1F,
		rs2: (cmd >> 20) & 0x1F,
		imm: int32(raw<<19) >> 19,
	}
}

func decodeU(cmd uint32) decoded {
	return decoded{
		rd:  (cmd >> 7) & 0x1F,
		imm: int32(cmd & 0xFFFFF000),
	}
}

func decodeJ(cmd uint32) decoded {
	raw := (((cmd >> 31) & 0x1) << 20) |
		(((cmd >> 12) & 0xFF) << 12) |
		(((cmd >> 20) & 0x1) << 11) |
		(((cmd >> 21) & 0x3FF) << 1)
	return decoded{
		rd:  (cmd >> 7) & 0x1F,
		imm: int32(raw<<11) >> 11,
	}
}
