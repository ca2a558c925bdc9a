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
	"mcc/arena"
	"mcc/ast"
	"mcc/diag"
	"mcc/utils"
)

// Resolve renames every local variable and parameter that shadows an
// outer binding to a name distinct from every binding visible at that
// point (so later passes never have to reason about shadowing); two
// declarations in sibling blocks can receive the same name. It rejects
// illegal redeclarations, undeclared-identifier references, and
// break/continue outside a loop. It mutates prog in place, filling in
// every Resolved field, and returns the diagnostics collected.
func Resolve(a *arena.Arena, prog *ast.Program, path string) *diag.Bag {
	bag := diag.NewBag(path)
	r := &resolver{a: a}

	funcNames := utils.NewSet[string]()
	for _, fn := range prog.Decls {
		funcNames.Add(fn.Name)
	}

	for _, fn := range prog.Decls {
		r.resolveFunc(fn, funcNames, bag)
	}
	return bag
}

func (r *resolver) resolveFunc(fn *ast.FuncDecl, funcNames *utils.Set[string], bag *diag.Bag) {
	if !fn.HasBody {
		return
	}
	r.pushScope()
	defer r.popScope()

	for i := range fn.Params {
		p := &fn.Params[i]
		if r.cur.declaredInThisScope(p.Name) {
			bag.Add(diag.Resolution, p.Range, "redeclaration of parameter %q", p.Name)
			continue
		}
		p.Resolved = r.cur.declare(p.Name)
	}

	for _, item := range fn.Body.Items {
		r.resolveBlockItem(item, funcNames, bag)
	}
}

func (r *resolver) resolveBlockItem(item ast.BlockItem, funcNames *utils.Set[string], bag *diag.Bag) {
	switch it := item.(type) {
	case *ast.VarDecl:
		r.resolveVarDecl(it, funcNames, bag)
	case ast.Stmt:
		r.resolveStmt(it, funcNames, bag)
	}
}

func (r *resolver) resolveVarDecl(v *ast.VarDecl, funcNames *utils.Set[string], bag *diag.Bag) {
	if r.cur.declaredInThisScope(v.Name) {
		bag.Add(diag.Resolution, v.Pos(), "redeclaration of %q in the same scope", v.Name)
	}
	if v.Init != nil {
		r.resolveExpr(v.Init, funcNames, bag)
	}
	v.Resolved = r.cur.declare(v.Name)
}

func (r *resolver) resolveStmt(s ast.Stmt, funcNames *utils.Set[string], bag *diag.Bag) {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		if st.Value != nil {
			r.resolveExpr(st.Value, funcNames, bag)
		}
	case *ast.ExprStmt:
		r.resolveExpr(st.X, funcNames, bag)
	case *ast.NullStmt:
	case *ast.IfStmt:
		r.resolveExpr(st.Cond, funcNames, bag)
		r.resolveStmt(st.Then, funcNames, bag)
		if st.Else != nil {
			r.resolveStmt(st.Else, funcNames, bag)
		}
	case *ast.CompoundStmt:
		r.pushScope()
		for _, item := range st.Items {
			r.resolveBlockItem(item, funcNames, bag)
		}
		r.popScope()
	case *ast.ForStmt:
		r.pushScope()
		if st.Init.Decl != nil {
			r.resolveVarDecl(st.Init.Decl, funcNames, bag)
		} else if st.Init.Expr != nil {
			r.resolveExpr(st.Init.Expr, funcNames, bag)
		}
		if st.Cond != nil {
			r.resolveExpr(st.Cond, funcNames, bag)
		}
		if st.Post != nil {
			r.resolveExpr(st.Post, funcNames, bag)
		}
		label := r.pushLoop()
		st.LoopLabel = label
		r.resolveStmt(st.Body, funcNames, bag)
		r.popLoop()
		r.popScope()
	case *ast.WhileStmt:
		r.resolveExpr(st.Cond, funcNames, bag)
		label := r.pushLoop()
		st.LoopLabel = label
		r.resolveStmt(st.Body, funcNames, bag)
		r.popLoop()
	case *ast.DoWhileStmt:
		label := r.pushLoop()
		st.LoopLabel = label
		r.resolveStmt(st.Body, funcNames, bag)
		r.popLoop()
		r.resolveExpr(st.Cond, funcNames, bag)
	case *ast.BreakStmt:
		if label, ok := r.currentLoop(); ok {
			st.LoopLabel = label
		} else {
			bag.Add(diag.Resolution, st.Pos(), "break statement not within a loop")
		}
	case *ast.ContinueStmt:
		if label, ok := r.currentLoop(); ok {
			st.LoopLabel = label
		} else {
			bag.Add(diag.Resolution, st.Pos(), "continue statement not within a loop")
		}
	}
}

func (r *resolver) resolveExpr(e ast.Expr, funcNames *utils.Set[string], bag *diag.Bag) {
	switch x := e.(type) {
	case *ast.IntLit:
	case *ast.VarExpr:
		if unique, ok := r.cur.lookup(x.Name); ok {
			x.Resolved = unique
		} else {
			bag.Add(diag.Resolution, x.Pos(), "use of undeclared identifier %q", x.Name)
		}
	case *ast.UnaryExpr:
		r.resolveExpr(x.Operand, funcNames, bag)
		if isLvalueRequired(x.Op) {
			r.checkLvalue(x.Operand, bag)
		}
	case *ast.BinaryExpr:
		r.resolveExpr(x.Left, funcNames, bag)
		r.resolveExpr(x.Right, funcNames, bag)
	case *ast.AssignExpr:
		r.checkLvalue(x.Target, bag)
		r.resolveExpr(x.Target, funcNames, bag)
		r.resolveExpr(x.Value, funcNames, bag)
	case *ast.TernaryExpr:
		r.resolveExpr(x.Cond, funcNames, bag)
		r.resolveExpr(x.Then, funcNames, bag)
		r.resolveExpr(x.Else, funcNames, bag)
	case *ast.CallExpr:
		if !funcNames.Contains(x.Callee) {
			bag.Add(diag.Resolution, x.Pos(), "call to undeclared function %q", x.Callee)
		}
		for _, arg := range x.Args {
			r.resolveExpr(arg, funcNames, bag)
		}
	}
}

func isLvalueRequired(op ast.UnaryOp) bool {
	switch op {
	case ast.UnaryPreIncr, ast.UnaryPreDecr, ast.UnaryPostIncr, ast.UnaryPostDecr:
		return true
	default:
		return false
	}
}

func (r *resolver) checkLvalue(e ast.Expr, bag *diag.Bag) {
	if _, ok := e.(*ast.VarExpr); !ok {
		bag.Add(diag.Resolution, e.Pos(), "expression is not assignable")
	}
}
