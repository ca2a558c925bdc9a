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
package ast

import (
	"testing"

	"mcc/arena"
)

func mustParse(t *testing.T, source string) *Program {
	t.Helper()
	a := arena.New(0)
	prog, bag := Parse(a, "test.c", source)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors for %q: %v", source, bag.All())
	}
	return prog
}

func TestParseMinimalFunction(t *testing.T) {
	prog := mustParse(t, "int main(void) { return 0; }")
	if len(prog.Decls) != 1 {
		t.Fatalf("got %d decls, want 1", len(prog.Decls))
	}
	fn := prog.Decls[0]
	if fn.Name != "main" || !fn.HasBody || fn.RetVoid {
		t.Fatalf("unexpected decl: %+v", fn)
	}
	if len(fn.Body.Items) != 1 {
		t.Fatalf("got %d block items, want 1", len(fn.Body.Items))
	}
	ret, ok := fn.Body.Items[0].(*ReturnStmt)
	if !ok {
		t.Fatalf("got %T, want *ReturnStmt", fn.Body.Items[0])
	}
	lit, ok := ret.Value.(*IntLit)
	if !ok || lit.Value != 0 {
		t.Fatalf("got %+v, want IntLit(0)", ret.Value)
	}
}

func TestParseOperatorPrecedence(t *testing.T) {
	prog := mustParse(t, "int main(void) { return 1 + 2 * 3; }")
	ret := prog.Decls[0].Body.Items[0].(*ReturnStmt)
	bin, ok := ret.Value.(*BinaryExpr)
	if !ok || bin.Op != BinAdd {
		t.Fatalf("top-level op: got %+v, want BinAdd", ret.Value)
	}
	rhs, ok := bin.Right.(*BinaryExpr)
	if !ok || rhs.Op != BinMul {
		t.Fatalf("rhs: got %+v, want BinMul", bin.Right)
	}
}

func TestParseTernaryIsRightAssociative(t *testing.T) {
	prog := mustParse(t, "int main(void) { return 1 ? 2 : 3 ? 4 : 5; }")
	ret := prog.Decls[0].Body.Items[0].(*ReturnStmt)
	outer, ok := ret.Value.(*TernaryExpr)
	if !ok {
		t.Fatalf("got %T, want *TernaryExpr", ret.Value)
	}
	if _, ok := outer.Else.(*TernaryExpr); !ok {
		t.Fatalf("expected nested ternary in Else, got %T", outer.Else)
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	prog := mustParse(t, "int main(void) { int a; int b; a = b = 1; return a; }")
	assignStmt := prog.Decls[0].Body.Items[2].(*ExprStmt)
	outer, ok := assignStmt.X.(*AssignExpr)
	if !ok {
		t.Fatalf("got %T, want *AssignExpr", assignStmt.X)
	}
	if _, ok := outer.Value.(*AssignExpr); !ok {
		t.Fatalf("expected nested assignment in Value, got %T", outer.Value)
	}
}

func TestParseUnaryPlusRejected(t *testing.T) {
	a := arena.New(0)
	_, bag := Parse(a, "test.c", "int main(void) { return +1; }")
	if !bag.HasErrors() {
		t.Fatalf("expected a syntax error for unary +, got none")
	}
}

func TestParseRecoversAfterSyntaxError(t *testing.T) {
	a := arena.New(0)
	prog, bag := Parse(a, "test.c", "int broken(void) { return 1 + ; return 0; } int main(void) { return 1; }")
	if !bag.HasErrors() {
		t.Fatalf("expected diagnostics")
	}
	if len(prog.Decls) != 2 {
		t.Fatalf("parser should still recover both functions, got %d", len(prog.Decls))
	}
}

func TestParseCallWithArgs(t *testing.T) {
	prog := mustParse(t, "int add(int a, int b) { return a + b; } int main(void) { return add(1, 2); }")
	ret := prog.Decls[1].Body.Items[0].(*ReturnStmt)
	call, ok := ret.Value.(*CallExpr)
	if !ok || call.Callee != "add" || len(call.Args) != 2 {
		t.Fatalf("got %+v, want call to add with 2 args", ret.Value)
	}
}
