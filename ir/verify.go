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
package ir

import (
	"fmt"

	"mcc/utils"
)

// Verify checks the two well-formedness properties the IR is required to
// satisfy: every variable is written before it is read, and every jump
// target names a Label present somewhere in the same function. It never
// needs full dominance analysis the way an SSA block-graph verifier
// would: this generator always emits a loop or branch's body in program
// order exactly once, with every variable's declaration textually
// preceding every use (including uses inside a later iteration of an
// enclosing loop, since the loop body is not duplicated) — so a single
// forward scan that grows the defined-set as it goes is a sound
// def-before-use check for IR this generator can produce. Jump-target
// validity is checked against the full label set, since a forward jump
// to a not-yet-scanned label is legal control flow.
func Verify(fn *Function) error {
	labels := utils.NewSet[string]()
	for _, instr := range fn.Instructions {
		if instr.Op == OpLabel {
			labels.Add(instr.Label)
		}
	}

	defined := utils.NewSet[string]()
	for _, p := range fn.Params {
		defined.Add(p)
	}
	for i, instr := range fn.Instructions {
		for _, v := range operandsOf(instr) {
			if v.Kind == ValVar && !defined.Contains(v.Name) {
				return fmt.Errorf("function %s: instruction %d (%s) uses %q before any definition", fn.Name, i, instr, v.Name)
			}
		}
		if instr.Op == OpJump || instr.Op == OpJumpIfZero || instr.Op == OpJumpIfNotZero {
			if !labels.Contains(instr.Target) {
				return fmt.Errorf("function %s: instruction %d jumps to undefined label %q", fn.Name, i, instr.Target)
			}
		}
		if dst, ok := destOf(instr); ok {
			defined.Add(dst.Name)
		}
	}
	return nil
}

func destOf(i Instruction) (Value, bool) {
	switch i.Op {
	case OpReturn, OpJump, OpJumpIfZero, OpJumpIfNotZero, OpLabel:
		return Value{}, false
	case OpCall:
		return i.CallDst, true
	default:
		return i.Dst, true
	}
}

func operandsOf(i Instruction) []Value {
	switch i.Op {
	case OpReturn:
		return []Value{i.A}
	case OpCopy, OpNeg, OpComplement, OpNot:
		return []Value{i.A}
	case OpJumpIfZero, OpJumpIfNotZero:
		return []Value{i.A}
	case OpJump, OpLabel:
		return nil
	case OpCall:
		return i.Args
	default:
		return []Value{i.A, i.B}
	}
}
