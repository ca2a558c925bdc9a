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
package sema

import (
	"testing"

	"mcc/arena"
	"mcc/ast"
)

func parseOK(t *testing.T, source string) *ast.Program {
	t.Helper()
	a := arena.New(0)
	prog, bag := ast.Parse(a, "t.c", source)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", bag.All())
	}
	return prog
}

func TestResolveRenamesShadowedLocals(t *testing.T) {
	prog := parseOK(t, `
		int main(void) {
			int x = 1;
			{
				int x = 2;
				x = x + 1;
			}
			return x;
		}`)
	a := arena.New(0)
	bag := Resolve(a, prog, "t.c")
	if bag.HasErrors() {
		t.Fatalf("unexpected resolve errors: %v", bag.All())
	}
	fn := prog.Decls[0]
	outer := fn.Body.Items[0].(*ast.VarDecl)
	inner := fn.Body.Items[1].(*ast.CompoundStmt).Items[0].(*ast.VarDecl)
	if outer.Resolved == inner.Resolved {
		t.Fatalf("shadowed locals must get distinct resolved names, both got %q", outer.Resolved)
	}
	ret := fn.Body.Items[2].(*ast.ReturnStmt)
	retVar := ret.Value.(*ast.VarExpr)
	if retVar.Resolved != outer.Resolved {
		t.Fatalf("return should bind to outer x (%q), got %q", outer.Resolved, retVar.Resolved)
	}
}

func TestResolveRejectsRedeclaration(t *testing.T) {
	prog := parseOK(t, `int main(void) { int x = 1; int x = 2; return x; }`)
	a := arena.New(0)
	bag := Resolve(a, prog, "t.c")
	if !bag.HasErrors() {
		t.Fatalf("expected a redeclaration error")
	}
}

func TestResolveRejectsUndeclaredUse(t *testing.T) {
	prog := parseOK(t, `int main(void) { return y; }`)
	a := arena.New(0)
	bag := Resolve(a, prog, "t.c")
	if !bag.HasErrors() {
		t.Fatalf("expected an undeclared-identifier error")
	}
}

func TestResolveRejectsBreakOutsideLoop(t *testing.T) {
	prog := parseOK(t, `int main(void) { break; return 0; }`)
	a := arena.New(0)
	bag := Resolve(a, prog, "t.c")
	if !bag.HasErrors() {
		t.Fatalf("expected a break-outside-loop error")
	}
}

func TestResolveAssignsSharedLoopLabel(t *testing.T) {
	prog := parseOK(t, `int main(void) { for (int i = 0; i < 10; i = i + 1) { break; continue; } return 0; }`)
	a := arena.New(0)
	bag := Resolve(a, prog, "t.c")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	forStmt := prog.Decls[0].Body.Items[0].(*ast.ForStmt)
	body := forStmt.Body.(*ast.CompoundStmt)
	brk := body.Items[0].(*ast.BreakStmt)
	cont := body.Items[1].(*ast.ContinueStmt)
	if brk.LoopLabel == "" || brk.LoopLabel != cont.LoopLabel || brk.LoopLabel != forStmt.LoopLabel {
		t.Fatalf("break/continue must share the enclosing for's loop label: %q %q %q", brk.LoopLabel, cont.LoopLabel, forStmt.LoopLabel)
	}
}

func TestTypeCheckRejectsWrongArity(t *testing.T) {
	prog := parseOK(t, `int add(int a, int b) { return a + b; } int main(void) { return add(1); }`)
	a := arena.New(0)
	Resolve(a, prog, "t.c")
	bag := TypeCheck(prog, "t.c")
	if !bag.HasErrors() {
		t.Fatalf("expected an arity error")
	}
}

func TestTypeCheckRejectsMissingReturnValue(t *testing.T) {
	prog := parseOK(t, `int f(void) { return; }`)
	a := arena.New(0)
	Resolve(a, prog, "t.c")
	bag := TypeCheck(prog, "t.c")
	if !bag.HasErrors() {
		t.Fatalf("expected a missing-return-value error")
	}
}

func TestTypeCheckRejectsConflictingRedeclaration(t *testing.T) {
	prog := parseOK(t, `int f(int a); int f(int a, int b) { return a + b; }`)
	a := arena.New(0)
	Resolve(a, prog, "t.c")
	bag := TypeCheck(prog, "t.c")
	if !bag.HasErrors() {
		t.Fatalf("expected a conflicting-declaration error")
	}
}

func TestTypeCheckRejectsMultipleDefinitions(t *testing.T) {
	prog := parseOK(t, `int f(void) { return 1; } int f(void) { return 2; }`)
	a := arena.New(0)
	Resolve(a, prog, "t.c")
	bag := TypeCheck(prog, "t.c")
	if !bag.HasErrors() {
		t.Fatalf("expected a multiple-definitions error")
	}
}
