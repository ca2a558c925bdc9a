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

// align16 rounds n up to the next multiple of 16, the ABI's required
// stack alignment at any call site.
func align16(n int) int {
	return (n + 15) &^ 15
}

// EliminatePseudos walks fn's instruction list twice: first to assign
// every distinct Pseudo name a dword-aligned offset from rbp in
// first-seen order, then to rewrite every Pseudo operand to the
// corresponding Stack operand. fn.FrameSize is set to the 16-byte-aligned
// total.
func EliminatePseudos(fn *Function) {
	offsets := map[string]int{}
	order := 0
	visit := func(o Operand) {
		if o.Kind != KindPseudo {
			return
		}
		if _, ok := offsets[o.Pseudo]; ok {
			return
		}
		order++
		offsets[o.Pseudo] = order * 4
	}
	for _, instr := range fn.Instructions {
		visit(instr.Dst)
		visit(instr.Src)
		visit(instr.Op)
	}

	rewrite := func(o Operand) Operand {
		if o.Kind != KindPseudo {
			return o
		}
		offset := offsets[o.Pseudo]
		return Stack(-offset, 4)
	}
	for i := range fn.Instructions {
		fn.Instructions[i].Dst = rewrite(fn.Instructions[i].Dst)
		fn.Instructions[i].Src = rewrite(fn.Instructions[i].Src)
		fn.Instructions[i].Op = rewrite(fn.Instructions[i].Op)
	}
	fn.FrameSize = align16(order * 4)
}
