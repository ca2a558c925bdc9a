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
	"mcc/ast"
	"mcc/diag"
)

// funcSig is the checker's view of a function: every declared variable in
// this subset is an int, so the only signature information that matters is
// arity and whether the function returns void.
type funcSig struct {
	paramCount int
	retVoid    bool
}

type checker struct {
	funcs      map[string]funcSig
	curRetVoid bool
	bag        *diag.Bag
}

// TypeCheck annotates every expression's Type field and reports typing
// errors: wrong call arity, a value returned from a void function, void
// used where a value is required, conflicting redeclarations, and
// multiple definitions. It assumes Resolve has already run.
func TypeCheck(prog *ast.Program, path string) *diag.Bag {
	bag := diag.NewBag(path)
	c := &checker{funcs: map[string]funcSig{}, bag: bag}
	definedWithBody := map[string]bool{}
	for _, fn := range prog.Decls {
		sig := funcSig{paramCount: len(fn.Params), retVoid: fn.RetVoid}
		if prior, ok := c.funcs[fn.Name]; ok && prior != sig {
			bag.Add(diag.Typing, fn.Pos(), "conflicting declaration of %q", fn.Name)
		}
		if fn.HasBody {
			if definedWithBody[fn.Name] {
				bag.Add(diag.Typing, fn.Pos(), "multiple definitions of %q", fn.Name)
			}
			definedWithBody[fn.Name] = true
		}
		c.funcs[fn.Name] = sig
	}
	for _, fn := range prog.Decls {
		if !fn.HasBody {
			continue
		}
		c.curRetVoid = fn.RetVoid
		c.checkBlock(fn.Body)
	}
	return bag
}

func (c *checker) checkBlock(b *ast.CompoundStmt) {
	for _, item := range b.Items {
		switch it := item.(type) {
		case *ast.VarDecl:
			if it.Init != nil {
				c.checkExpr(it.Init)
			}
		case ast.Stmt:
			c.checkStmt(it)
		}
	}
}

func (c *checker) checkStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		if st.Value != nil {
			c.checkExpr(st.Value)
			if c.curRetVoid {
				c.bag.Add(diag.Typing, st.Pos(), "returning a value from a void function")
			}
		} else if !c.curRetVoid {
			c.bag.Add(diag.Typing, st.Pos(), "non-void function must return a value")
		}
	case *ast.ExprStmt:
		c.checkExpr(st.X)
	case *ast.IfStmt:
		c.checkExpr(st.Cond)
		c.checkStmt(st.Then)
		if st.Else != nil {
			c.checkStmt(st.Else)
		}
	case *ast.CompoundStmt:
		c.checkBlock(st)
	case *ast.ForStmt:
		if st.Init.Decl != nil && st.Init.Decl.Init != nil {
			c.checkExpr(st.Init.Decl.Init)
		} else if st.Init.Expr != nil {
			c.checkExpr(st.Init.Expr)
		}
		if st.Cond != nil {
			c.checkExpr(st.Cond)
		}
		if st.Post != nil {
			c.checkExpr(st.Post)
		}
		c.checkStmt(st.Body)
	case *ast.WhileStmt:
		c.checkExpr(st.Cond)
		c.checkStmt(st.Body)
	case *ast.DoWhileStmt:
		c.checkStmt(st.Body)
		c.checkExpr(st.Cond)
	case *ast.NullStmt, *ast.BreakStmt, *ast.ContinueStmt:
		// no typed subexpressions
	}
}

func (c *checker) checkExpr(e ast.Expr) {
	switch x := e.(type) {
	case *ast.IntLit:
		x.SetType(ast.TInt)
	case *ast.VarExpr:
		x.SetType(ast.TInt)
	case *ast.UnaryExpr:
		c.checkExpr(x.Operand)
		if !x.Operand.GetType().IsInt() {
			c.bag.Add(diag.Typing, x.Pos(), "invalid operand to unary operator: void used where a value is required")
		}
		x.SetType(ast.TInt)
	case *ast.BinaryExpr:
		c.checkExpr(x.Left)
		c.checkExpr(x.Right)
		if !x.Left.GetType().IsInt() || !x.Right.GetType().IsInt() {
			c.bag.Add(diag.Typing, x.Pos(), "invalid operand to binary operator: void used where a value is required")
		}
		x.SetType(ast.TInt)
	case *ast.AssignExpr:
		c.checkExpr(x.Target)
		c.checkExpr(x.Value)
		if !x.Value.GetType().IsInt() {
			c.bag.Add(diag.Typing, x.Pos(), "assigning void where a value is required")
		}
		x.SetType(ast.TInt)
	case *ast.TernaryExpr:
		c.checkExpr(x.Cond)
		c.checkExpr(x.Then)
		c.checkExpr(x.Else)
		if !x.Cond.GetType().IsInt() {
			c.bag.Add(diag.Typing, x.Pos(), "ternary condition must be int")
		}
		if !x.Then.GetType().IsInt() || !x.Else.GetType().IsInt() {
			c.bag.Add(diag.Typing, x.Pos(), "ternary branches must both be int")
		}
		x.SetType(ast.TInt)
	case *ast.CallExpr:
		sig, ok := c.funcs[x.Callee]
		for _, arg := range x.Args {
			c.checkExpr(arg)
			if !arg.GetType().IsInt() {
				c.bag.Add(diag.Typing, arg.Pos(), "void used where a value is required")
			}
		}
		if ok && len(x.Args) != sig.paramCount {
			c.bag.Add(diag.Typing, x.Pos(), "call to %q expects %d argument(s), got %d", x.Callee, sig.paramCount, len(x.Args))
		}
		if ok && sig.retVoid {
			x.SetType(ast.TVoid)
		} else {
			x.SetType(ast.TInt)
		}
	}
}
