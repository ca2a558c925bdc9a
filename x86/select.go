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

import (
	"mcc/ir"
	"mcc/utils"
)

// Select lowers three-address IR to x86-64 instructions in pseudo-operand
// form: every IR Var becomes a Pseudo operand, every IR Const an Imm.
// Each IR opcode expands to the fixed instruction template the component
// design specifies; this pass never reasons about liveness or register
// pressure, matching the "naive one-IR-instruction to N-x86-instructions"
// contract upstream.
func Select(prog *ir.Program) *Program {
	out := &Program{}
	for _, fn := range prog.Functions {
		out.Functions = append(out.Functions, selectFunc(fn))
	}
	return out
}

func selectFunc(fn *ir.Function) *Function {
	s := &selector{}
	for i, p := range fn.Params {
		if i < len(ArgRegs) {
			s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: Pseudo(p), Src: Reg(ArgRegs[i], 4)})
		}
		// Parameters beyond the sixth are not loaded from the stack, and
		// the Call template below passes only the first six arguments.
	}
	for _, instr := range fn.Instructions {
		s.selectInstr(instr)
	}
	return &Function{Name: fn.Name, Instructions: s.instrs}
}

type selector struct {
	instrs []Instruction
}

func (s *selector) emit(i Instruction) {
	s.instrs = append(s.instrs, i)
}

func operand(v ir.Value) Operand {
	if v.Kind == ir.ValConst {
		return Imm(int64(v.Const))
	}
	return Pseudo(v.Name)
}

var compareCondFor = map[ir.Op]Cond{
	ir.OpEqual: CondE, ir.OpNotEqual: CondNE,
	ir.OpLess: CondL, ir.OpLessEqual: CondLE,
	ir.OpGreater: CondG, ir.OpGreaterEqual: CondGE,
}

var commutativeBinOp = map[ir.Op]Mnemonic{
	ir.OpAdd: Add, ir.OpSub: Sub,
	ir.OpBitAnd: And, ir.OpBitOr: Or, ir.OpBitXor: Xor,
	ir.OpShl: Shl, ir.OpSar: Sar,
}

func (s *selector) selectInstr(instr ir.Instruction) {
	switch instr.Op {
	case ir.OpReturn:
		s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: Reg(AX, 4), Src: operand(instr.A)})
		s.emit(Instruction{Mnemonic: Ret})

	case ir.OpNeg:
		d, src := operand(instr.Dst), operand(instr.A)
		s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: d, Src: src})
		s.emit(Instruction{Mnemonic: Neg, Size: 4, Op: d})
	case ir.OpComplement:
		d, src := operand(instr.Dst), operand(instr.A)
		s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: d, Src: src})
		s.emit(Instruction{Mnemonic: Not, Size: 4, Op: d})
	case ir.OpNot:
		d, src := operand(instr.Dst), operand(instr.A)
		s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: d, Src: Imm(0)})
		s.emit(Instruction{Mnemonic: Cmp, Size: 4, Dst: src, Src: Imm(0)})
		s.emit(Instruction{Mnemonic: SetCC, Cond: CondE, Op: d})

	case ir.OpAdd, ir.OpSub, ir.OpBitAnd, ir.OpBitOr, ir.OpBitXor, ir.OpShl, ir.OpSar:
		d, a, b := operand(instr.Dst), operand(instr.A), operand(instr.B)
		s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: d, Src: a})
		s.emit(Instruction{Mnemonic: commutativeBinOp[instr.Op], Size: 4, Dst: d, Src: b})
	case ir.OpMul:
		d, a, b := operand(instr.Dst), operand(instr.A), operand(instr.B)
		s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: d, Src: a})
		s.emit(Instruction{Mnemonic: Imul, Size: 4, Dst: d, Src: b})
	case ir.OpDiv, ir.OpMod:
		a, b := operand(instr.A), operand(instr.B)
		s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: Reg(AX, 4), Src: a})
		s.emit(Instruction{Mnemonic: Cdq})
		s.emit(Instruction{Mnemonic: Idiv, Size: 4, Op: b})
		result := Reg(AX, 4)
		if instr.Op == ir.OpMod {
			result = Reg(DX, 4)
		}
		s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: operand(instr.Dst), Src: result})

	case ir.OpEqual, ir.OpNotEqual, ir.OpLess, ir.OpLessEqual, ir.OpGreater, ir.OpGreaterEqual:
		d, a, b := operand(instr.Dst), operand(instr.A), operand(instr.B)
		s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: d, Src: Imm(0)})
		s.emit(Instruction{Mnemonic: Cmp, Size: 4, Dst: a, Src: b})
		s.emit(Instruction{Mnemonic: SetCC, Cond: compareCondFor[instr.Op], Op: d})

	case ir.OpCopy:
		s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: operand(instr.Dst), Src: operand(instr.A)})

	case ir.OpJump:
		s.emit(Instruction{Mnemonic: Jmp, Target: instr.Target})
	case ir.OpJumpIfZero:
		s.emit(Instruction{Mnemonic: Cmp, Size: 4, Dst: operand(instr.A), Src: Imm(0)})
		s.emit(Instruction{Mnemonic: JmpCC, Cond: CondE, Target: instr.Target})
	case ir.OpJumpIfNotZero:
		s.emit(Instruction{Mnemonic: Cmp, Size: 4, Dst: operand(instr.A), Src: Imm(0)})
		s.emit(Instruction{Mnemonic: JmpCC, Cond: CondNE, Target: instr.Target})
	case ir.OpLabel:
		s.emit(Instruction{Mnemonic: Label, Name: instr.Label})

	case ir.OpCall:
		for i, arg := range instr.Args {
			if i < len(ArgRegs) {
				s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: Reg(ArgRegs[i], 4), Src: operand(arg)})
			}
		}
		s.emit(Instruction{Mnemonic: Call, Name: instr.Callee})
		s.emit(Instruction{Mnemonic: Mov, Size: 4, Dst: operand(instr.CallDst), Src: Reg(AX, 4)})

	default:
		utils.ShouldNotReachHere()
	}
}
