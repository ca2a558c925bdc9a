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
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcc/arena"
	"mcc/ast"
	"mcc/sema"
)

func lower(t *testing.T, source string) *Program {
	t.Helper()
	a := arena.New(0)
	prog, bag := ast.Parse(a, "t.c", source)
	if bag.HasErrors() {
		t.Fatalf("parse errors: %v", bag.All())
	}
	if bag := sema.Resolve(a, prog, "t.c"); bag.HasErrors() {
		t.Fatalf("resolve errors: %v", bag.All())
	}
	if bag := sema.TypeCheck(prog, "t.c"); bag.HasErrors() {
		t.Fatalf("type errors: %v", bag.All())
	}
	return Generate(prog)
}

func TestGenerateArithmeticEmitsVerifiedReturn(t *testing.T) {
	p := lower(t, "int main(void) { return 1 + 2 * 3; }")
	fn := p.Functions[0]
	var returnsChecked bool
	for _, instr := range fn.Instructions {
		if instr.Op == OpReturn {
			returnsChecked = true
		}
	}
	if !returnsChecked {
		t.Fatalf("expected a Return instruction")
	}
	if err := Verify(fn); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestGenerateShortCircuitEmitsTwoLabelsAndAComparison(t *testing.T) {
	p := lower(t, "int main(void) { return 1 && 2; }")
	fn := p.Functions[0]
	labelCount, jumpIfZeroCount := 0, 0
	for _, instr := range fn.Instructions {
		if instr.Op == OpLabel {
			labelCount++
		}
		if instr.Op == OpJumpIfZero {
			jumpIfZeroCount++
		}
	}
	if labelCount != 2 {
		t.Fatalf("got %d labels, want 2", labelCount)
	}
	if jumpIfZeroCount == 0 {
		t.Fatalf("expected a compare-to-zero jump (JumpIfZero)")
	}
	if err := Verify(fn); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejectsUseBeforeDef(t *testing.T) {
	fn := &Function{
		Name: "bad",
		Instructions: []Instruction{
			{Op: OpReturn, A: Var("$1")},
		},
	}
	if err := Verify(fn); err == nil {
		t.Fatalf("expected a use-before-def error")
	}
}

func TestVerifyRejectsUndefinedJumpTarget(t *testing.T) {
	fn := &Function{
		Name: "bad",
		Instructions: []Instruction{
			{Op: OpJump, Target: "nowhere"},
		},
	}
	if err := Verify(fn); err == nil {
		t.Fatalf("expected an undefined-label error")
	}
}

func TestVerifyAcceptsForwardJump(t *testing.T) {
	fn := &Function{
		Name: "ok",
		Instructions: []Instruction{
			{Op: OpJump, Target: "end"},
			{Op: OpLabel, Label: "end"},
			{Op: OpReturn, A: Const(0)},
		},
	}
	if err := Verify(fn); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	source := "int f(int x) { return x + 1; } int main(void) { return f(41); }"
	first := lower(t, source)
	second := lower(t, source)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("two lowerings of the same source differ (-first +second):\n%s", diff)
	}
}

func TestGenerateShadowedVariablesGetDistinctIRNames(t *testing.T) {
	p := lower(t, "int main(void) { int a = 1; { int a = 2; return a; } }")
	fn := p.Functions[0]
	names := map[string]bool{}
	for _, instr := range fn.Instructions {
		if instr.Op == OpCopy {
			names[instr.Dst.Name] = true
		}
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 distinct assigned IR names for shadowed locals, got %v", names)
	}
}
