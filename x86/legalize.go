// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package x86

// Legalize rewrites instructions whose operand kinds the x86-64 encoding
// forbids, materializing the two caller-save scratch registers R10/R11 —
// picked for no deeper reason than that they are caller-save and not used
// anywhere else in this compiler's templates, so their values never need
// to survive a call — and prepends the frame's stack allocation once its
// size is known.
func Legalize(fn *Function) {
	var out []Instruction
	for _, instr := range fn.Instructions {
		out = append(out, legalizeOne(instr)...)
	}
	if fn.FrameSize > 0 {
		alloc := Instruction{Mnemonic: Sub, Size: 8, Dst: Reg(SP, 8), Src: Imm(int64(fn.FrameSize))}
		out = append([]Instruction{alloc}, out...)
	}
	fn.Instructions = out
}

func scratch(size int) Operand { return Reg(R10, size) }

func legalizeOne(instr Instruction) []Instruction {
	switch instr.Mnemonic {
	case Mov, Add, Sub, And, Or, Xor:
		if instr.Dst.IsMemory() && instr.Src.IsMemory() {
			r := scratch(instr.Size)
			return []Instruction{
				{Mnemonic: Mov, Size: instr.Size, Dst: r, Src: instr.Src},
				{Mnemonic: instr.Mnemonic, Size: instr.Size, Dst: instr.Dst, Src: r},
			}
		}
		return []Instruction{instr}

	case Imul:
		if instr.Dst.IsMemory() {
			r := Reg(R11, instr.Size)
			return []Instruction{
				{Mnemonic: Mov, Size: instr.Size, Dst: r, Src: instr.Dst},
				{Mnemonic: Imul, Size: instr.Size, Dst: r, Src: instr.Src},
				{Mnemonic: Mov, Size: instr.Size, Dst: instr.Dst, Src: r},
			}
		}
		return []Instruction{instr}

	case Idiv:
		if instr.Op.Kind == KindImm {
			r := scratch(instr.Size)
			return []Instruction{
				{Mnemonic: Mov, Size: instr.Size, Dst: r, Src: instr.Op},
				{Mnemonic: Idiv, Size: instr.Size, Op: r},
			}
		}
		return []Instruction{instr}

	case Shl, Sar:
		if instr.Src.IsMemory() {
			cl := Reg(CX, 1)
			count := instr.Src
			count.Size = 1
			return []Instruction{
				{Mnemonic: Mov, Size: 1, Dst: cl, Src: count},
				{Mnemonic: instr.Mnemonic, Size: instr.Size, Dst: instr.Dst, Src: cl},
			}
		}
		return []Instruction{instr}

	case Cmp:
		switch {
		case instr.Dst.Kind == KindImm:
			// First operand can never be an immediate; this also resolves
			// the both-memory case since Dst stops being memory.
			r := scratch(instr.Size)
			return []Instruction{
				{Mnemonic: Mov, Size: instr.Size, Dst: r, Src: instr.Dst},
				{Mnemonic: Cmp, Size: instr.Size, Dst: r, Src: instr.Src},
			}
		case instr.Dst.IsMemory() && instr.Src.IsMemory():
			r := scratch(instr.Size)
			return []Instruction{
				{Mnemonic: Mov, Size: instr.Size, Dst: r, Src: instr.Src},
				{Mnemonic: Cmp, Size: instr.Size, Dst: instr.Dst, Src: r},
			}
		default:
			return []Instruction{instr}
		}

	default:
		return []Instruction{instr}
	}
}
