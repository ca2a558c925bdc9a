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
	"strconv"
	"strings"
	"testing"

	"mcc/arena"
	"mcc/ast"
	"mcc/ir"
	"mcc/sema"
)

func compileToAsm(t *testing.T, source string) string {
	t.Helper()
	a := arena.New(4096)
	prog, diags := ast.Parse(a, "t.c", source)
	if diags.HasErrors() {
		t.Fatalf("parse errors: %s", diags.Render(source))
	}
	if d := sema.Resolve(a, prog, "t.c"); d.HasErrors() {
		t.Fatalf("resolve errors: %s", d.Render(source))
	}
	if d := sema.TypeCheck(prog, "t.c"); d.HasErrors() {
		t.Fatalf("typecheck errors: %s", d.Render(source))
	}
	irProg := ir.Generate(prog)
	for _, fn := range irProg.Functions {
		if err := ir.Verify(fn); err != nil {
			t.Fatalf("ir verify: %v", err)
		}
	}
	x86Prog := Select(irProg)
	for _, fn := range x86Prog.Functions {
		EliminatePseudos(fn)
		Legalize(fn)
	}
	return Print(x86Prog)
}

func TestEndToEndReturnConstant(t *testing.T) {
	asm := compileToAsm(t, "int main(void) { return 42; }")
	if !strings.Contains(asm, "mov eax, 42") {
		t.Fatalf("expected constant return in:\n%s", asm)
	}
	if !strings.Contains(asm, "push rbp") || !strings.Contains(asm, "pop rbp") {
		t.Fatalf("missing frame prologue/epilogue in:\n%s", asm)
	}
	if !strings.Contains(asm, ".intel_syntax noprefix") {
		t.Fatalf("missing intel syntax header in:\n%s", asm)
	}
	if !strings.Contains(asm, ".note.GNU-stack") {
		t.Fatalf("missing GNU-stack note in:\n%s", asm)
	}
}

func TestEndToEndDeterministic(t *testing.T) {
	source := "int main(void) { int x = 1; int y = 2; return x + y * 3; }"
	first := compileToAsm(t, source)
	second := compileToAsm(t, source)
	if first != second {
		t.Fatalf("non-deterministic output:\n%s\n---\n%s", first, second)
	}
}

func TestLegalizeAvoidsMemToMemMov(t *testing.T) {
	asm := compileToAsm(t, "int main(void) { int a = 1; int b = a; return b; }")
	for _, line := range strings.Split(asm, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "mov ") {
			continue
		}
		if strings.Count(line, "ptr [rbp") == 2 {
			t.Fatalf("found memory-to-memory mov: %q", line)
		}
	}
}

func TestLegalizeAvoidsImmediateFirstCmpOperand(t *testing.T) {
	asm := compileToAsm(t, "int main(void) { int a = 1; if (1 == a) return 1; return 0; }")
	for _, line := range strings.Split(asm, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "cmp ") {
			continue
		}
		fields := strings.SplitN(strings.TrimPrefix(line, "cmp "), ",", 2)
		first := strings.TrimSpace(fields[0])
		if _, err := strconv.Atoi(first); err == nil {
			t.Fatalf("cmp has immediate first operand: %q", line)
		}
	}
}

func TestEliminatePseudosProducesSixteenByteAlignedFrame(t *testing.T) {
	asm := compileToAsm(t, "int main(void) { int a = 1; int b = 2; int c = 3; return a + b + c; }")
	if !strings.Contains(asm, "sub rsp, ") {
		t.Fatalf("expected a stack allocation in:\n%s", asm)
	}
	rest := asm[strings.Index(asm, "sub rsp, ")+len("sub rsp, "):]
	size, err := strconv.Atoi(rest[:strings.Index(rest, "\n")])
	if err != nil || size <= 0 || size%16 != 0 {
		t.Fatalf("frame size %q is not a positive multiple of 16", rest[:strings.Index(rest, "\n")])
	}
}
