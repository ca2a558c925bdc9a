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
	"fmt"
	"strings"

	"mcc/utils"
)

// Print renders prog as GNU-assembler-compatible Intel-syntax x86-64,
// one function per `.globl`/label pair, with a frame-pointer prologue and
// epilogue wrapped around each function's legalized instruction list.
// Output is a pure function of prog, so two runs over the same input are
// byte-identical.
func Print(prog *Program) string {
	var b strings.Builder
	b.WriteString(".intel_syntax noprefix\n")
	for _, fn := range prog.Functions {
		printFunc(&b, fn)
	}
	b.WriteString(".section .note.GNU-stack,\"\",@progbits\n")
	return b.String()
}

func printFunc(b *strings.Builder, fn *Function) {
	fmt.Fprintf(b, ".globl %s\n", fn.Name)
	fmt.Fprintf(b, "%s:\n", fn.Name)
	b.WriteString("\tpush rbp\n")
	b.WriteString("\tmov rbp, rsp\n")
	for _, instr := range fn.Instructions {
		printInstr(b, instr)
	}
}

func printInstr(b *strings.Builder, instr Instruction) {
	switch instr.Mnemonic {
	case Ret:
		b.WriteString("\tmov rsp, rbp\n")
		b.WriteString("\tpop rbp\n")
		b.WriteString("\tret\n")
	case Mov:
		fmt.Fprintf(b, "\tmov %s, %s\n", instr.Dst, instr.Src)
	case Add:
		fmt.Fprintf(b, "\tadd %s, %s\n", instr.Dst, instr.Src)
	case Sub:
		fmt.Fprintf(b, "\tsub %s, %s\n", instr.Dst, instr.Src)
	case Imul:
		fmt.Fprintf(b, "\timul %s, %s\n", instr.Dst, instr.Src)
	case And:
		fmt.Fprintf(b, "\tand %s, %s\n", instr.Dst, instr.Src)
	case Or:
		fmt.Fprintf(b, "\tor %s, %s\n", instr.Dst, instr.Src)
	case Xor:
		fmt.Fprintf(b, "\txor %s, %s\n", instr.Dst, instr.Src)
	case Shl:
		fmt.Fprintf(b, "\tshl %s, %s\n", instr.Dst, instr.Src)
	case Sar:
		fmt.Fprintf(b, "\tsar %s, %s\n", instr.Dst, instr.Src)
	case Cmp:
		fmt.Fprintf(b, "\tcmp %s, %s\n", instr.Dst, instr.Src)
	case Neg:
		fmt.Fprintf(b, "\tneg %s\n", instr.Op)
	case Not:
		fmt.Fprintf(b, "\tnot %s\n", instr.Op)
	case Idiv:
		fmt.Fprintf(b, "\tidiv %s\n", instr.Op)
	case Cdq:
		b.WriteString("\tcdq\n")
	case Jmp:
		fmt.Fprintf(b, "\tjmp .L%s\n", instr.Target)
	case JmpCC:
		fmt.Fprintf(b, "\tj%s .L%s\n", instr.Cond, instr.Target)
	case SetCC:
		utils.Assert(instr.Op.Kind != KindImm, "setCC destination cannot be an immediate")
		fmt.Fprintf(b, "\tset%s %s\n", instr.Cond, lowByte(instr.Op))
	case Label:
		fmt.Fprintf(b, ".L%s:\n", instr.Name)
	case Call:
		fmt.Fprintf(b, "\tcall %s\n", instr.Name)
	}
}

// lowByte forces a SetCC destination to its 1-byte form: setCC only ever
// writes the low byte of a register, and pseudo-elimination hands this
// pass 4-byte stack operands.
func lowByte(o Operand) Operand {
	if o.Kind == KindReg || o.Kind == KindStack {
		o.Size = 1
	}
	return o
}
