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

// Package x86 selects, legalizes and prints x86-64 instructions for the
// System V AMD64 calling convention. Instruction selection produces
// pseudo-register operands; a later pass assigns them stack slots, and a
// final pass rewrites any operand combination the encoding disallows.
package x86

import "fmt"

// RegName is the register file this compiler uses: the four legacy
// general-purpose registers plus the two scratch registers legalization
// reserves (R10/R11) and the stack pointer.
type RegName int

const (
	AX RegName = iota
	BX
	CX
	DX
	R10
	R11
	SP
	// DI, SI, R8 and R9 are not general operand registers this compiler's
	// instruction templates address — they exist solely to name the System
	// V integer argument registers in the Call lowering template.
	DI
	SI
	R8
	R9
)

// names maps (register, size-in-bytes) to its assembly mnemonic, covering
// every width instructions in this compiler ever address.
var names = map[RegName]map[int]string{
	AX:  {1: "al", 2: "ax", 4: "eax", 8: "rax"},
	BX:  {1: "bl", 2: "bx", 4: "ebx", 8: "rbx"},
	CX:  {1: "cl", 2: "cx", 4: "ecx", 8: "rcx"},
	DX:  {1: "dl", 2: "dx", 4: "edx", 8: "rdx"},
	R10: {1: "r10b", 2: "r10w", 4: "r10d", 8: "r10"},
	R11: {1: "r11b", 2: "r11w", 4: "r11d", 8: "r11"},
	SP:  {1: "spl", 2: "sp", 4: "esp", 8: "rsp"},
	DI:  {1: "dil", 2: "di", 4: "edi", 8: "rdi"},
	SI:  {1: "sil", 2: "si", 4: "esi", 8: "rsi"},
	R8:  {1: "r8b", 2: "r8w", 4: "r8d", 8: "r8"},
	R9:  {1: "r9b", 2: "r9w", 4: "r9d", 8: "r9"},
}

// ArgRegs lists the System V AMD64 integer argument registers in order;
// only the first six arguments of a call pass in registers.
var ArgRegs = []RegName{DI, SI, DX, CX, R8, R9}

func (r RegName) Sized(size int) string {
	return names[r][size]
}

// OperandKind tags Operand's variant, the discriminant of this tagged
// union.
type OperandKind int

const (
	KindImm OperandKind = iota
	KindReg
	KindPseudo
	KindStack
	KindData
)

// Operand is one x86 operand: Imm(i32) | Reg(register,size) | Pseudo(name)
// | Stack(offset_from_rbp) | Data(global_name). Size is in bytes and is
// meaningful for Reg and Stack.
type Operand struct {
	Kind   OperandKind
	Imm    int64
	Reg    RegName
	Size   int
	Pseudo string
	Offset int // Stack: negative offset from rbp
	Data   string
}

func Imm(v int64) Operand          { return Operand{Kind: KindImm, Imm: v} }
func Reg(r RegName, size int) Operand { return Operand{Kind: KindReg, Reg: r, Size: size} }
func Pseudo(name string) Operand   { return Operand{Kind: KindPseudo, Pseudo: name, Size: 4} }
func Stack(offset, size int) Operand { return Operand{Kind: KindStack, Offset: offset, Size: size} }
func Data(name string) Operand     { return Operand{Kind: KindData, Data: name} }

func (o Operand) IsMemory() bool { return o.Kind == KindStack || o.Kind == KindData }

func (o Operand) String() string {
	switch o.Kind {
	case KindImm:
		return fmt.Sprintf("%d", o.Imm)
	case KindReg:
		return o.Reg.Sized(o.Size)
	case KindPseudo:
		return fmt.Sprintf("%%%s", o.Pseudo)
	case KindStack:
		return fmt.Sprintf("%s ptr [rbp%+d]", sizeKeyword(o.Size), o.Offset)
	case KindData:
		return fmt.Sprintf("%s[rip]", o.Data)
	default:
		return "?"
	}
}

func sizeKeyword(size int) string {
	switch size {
	case 1:
		return "byte"
	case 2:
		return "word"
	case 4:
		return "dword"
	case 8:
		return "qword"
	default:
		return "dword"
	}
}

// Cond is a signed condition code. Every comparison, including !=, treats
// its operands as signed: this subset has only one scalar type, so no
// setCC ever needs an unsigned variant.
type Cond int

const (
	CondE Cond = iota
	CondNE
	CondL
	CondLE
	CondG
	CondGE
)

func (c Cond) String() string {
	switch c {
	case CondE:
		return "e"
	case CondNE:
		return "ne"
	case CondL:
		return "l"
	case CondLE:
		return "le"
	case CondG:
		return "g"
	case CondGE:
		return "ge"
	default:
		return "?"
	}
}
