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

	"github.com/samber/lo"

	"mcc/ast"
)

// gen holds the counters and emission buffer threaded through lowering
// one function. Short-circuit and control-flow labels share labelCtr so
// every generated name is unique within the function.
type gen struct {
	instrs  []Instruction
	tmpCtr  int
	labelCtr int
}

// Generate lowers a resolved, type-checked Program to three-address IR.
func Generate(prog *ast.Program) *Program {
	out := &Program{}
	for _, fn := range prog.Decls {
		if !fn.HasBody {
			continue
		}
		out.Functions = append(out.Functions, generateFunc(fn))
	}
	return out
}

func generateFunc(fn *ast.FuncDecl) *Function {
	g := &gen{}
	params := lo.Map(fn.Params, func(p ast.Param, _ int) string { return p.Resolved })
	for _, item := range fn.Body.Items {
		g.genBlockItem(item)
	}
	// A fall-through return keeps every function well-formed even when the
	// source omits a trailing return (legal for a void function, and for
	// the purposes of an unreachable int function's final block).
	g.emit(Instruction{Op: OpReturn, A: Const(0)})
	return &Function{Name: fn.Name, Params: params, Instructions: g.instrs}
}

func (g *gen) emit(i Instruction) {
	g.instrs = append(g.instrs, i)
}

func (g *gen) freshTemp() string {
	g.tmpCtr++
	return fmt.Sprintf("$%d", g.tmpCtr)
}

func (g *gen) freshLabel(tag string) string {
	g.labelCtr++
	return fmt.Sprintf("%s.%d", tag, g.labelCtr)
}

func (g *gen) genBlockItem(item ast.BlockItem) {
	switch it := item.(type) {
	case *ast.VarDecl:
		if it.Init != nil {
			v := g.genExpr(it.Init)
			g.emit(Instruction{Op: OpCopy, Dst: Var(it.Resolved), A: v})
		}
	case ast.Stmt:
		g.genStmt(it)
	}
}

func (g *gen) genStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		if st.Value != nil {
			v := g.genExpr(st.Value)
			g.emit(Instruction{Op: OpReturn, A: v})
		} else {
			g.emit(Instruction{Op: OpReturn, A: Const(0)})
		}
	case *ast.ExprStmt:
		g.genExpr(st.X)
	case *ast.NullStmt:
	case *ast.CompoundStmt:
		for _, item := range st.Items {
			g.genBlockItem(item)
		}
	case *ast.IfStmt:
		g.genIf(st)
	case *ast.WhileStmt:
		g.genWhile(st)
	case *ast.DoWhileStmt:
		g.genDoWhile(st)
	case *ast.ForStmt:
		g.genFor(st)
	case *ast.BreakStmt:
		g.emit(Instruction{Op: OpJump, Target: endLabel(st.LoopLabel)})
	case *ast.ContinueStmt:
		g.emit(Instruction{Op: OpJump, Target: continueLabel(st.LoopLabel)})
	}
}

func endLabel(loop string) string      { return loop + ".end" }
func continueLabel(loop string) string { return loop + ".continue" }
func startLabel(loop string) string    { return loop + ".start" }

func (g *gen) genIf(st *ast.IfStmt) {
	cond := g.genExpr(st.Cond)
	if st.Else == nil {
		end := g.freshLabel("if_end")
		g.emit(Instruction{Op: OpJumpIfZero, A: cond, Target: end})
		g.genStmt(st.Then)
		g.emit(Instruction{Op: OpLabel, Label: end})
		return
	}
	elseLbl := g.freshLabel("if_else")
	end := g.freshLabel("if_end")
	g.emit(Instruction{Op: OpJumpIfZero, A: cond, Target: elseLbl})
	g.genStmt(st.Then)
	g.emit(Instruction{Op: OpJump, Target: end})
	g.emit(Instruction{Op: OpLabel, Label: elseLbl})
	g.genStmt(st.Else)
	g.emit(Instruction{Op: OpLabel, Label: end})
}

func (g *gen) genWhile(st *ast.WhileStmt) {
	start := startLabel(st.LoopLabel)
	cont := continueLabel(st.LoopLabel)
	end := endLabel(st.LoopLabel)
	// `continue` in a while jumps straight back to the condition check, so
	// the continue label and the start label coincide.
	g.emit(Instruction{Op: OpLabel, Label: start})
	g.emit(Instruction{Op: OpLabel, Label: cont})
	cond := g.genExpr(st.Cond)
	g.emit(Instruction{Op: OpJumpIfZero, A: cond, Target: end})
	g.genStmt(st.Body)
	g.emit(Instruction{Op: OpJump, Target: start})
	g.emit(Instruction{Op: OpLabel, Label: end})
}

func (g *gen) genDoWhile(st *ast.DoWhileStmt) {
	start := startLabel(st.LoopLabel)
	cont := continueLabel(st.LoopLabel)
	end := endLabel(st.LoopLabel)
	g.emit(Instruction{Op: OpLabel, Label: start})
	g.genStmt(st.Body)
	g.emit(Instruction{Op: OpLabel, Label: cont})
	cond := g.genExpr(st.Cond)
	g.emit(Instruction{Op: OpJumpIfNotZero, A: cond, Target: start})
	g.emit(Instruction{Op: OpLabel, Label: end})
}

func (g *gen) genFor(st *ast.ForStmt) {
	if st.Init.Decl != nil {
		g.genBlockItem(st.Init.Decl)
	} else if st.Init.Expr != nil {
		g.genExpr(st.Init.Expr)
	}
	start := startLabel(st.LoopLabel)
	cont := continueLabel(st.LoopLabel)
	end := endLabel(st.LoopLabel)
	g.emit(Instruction{Op: OpLabel, Label: start})
	if st.Cond != nil {
		cond := g.genExpr(st.Cond)
		g.emit(Instruction{Op: OpJumpIfZero, A: cond, Target: end})
	}
	g.genStmt(st.Body)
	g.emit(Instruction{Op: OpLabel, Label: cont})
	if st.Post != nil {
		g.genExpr(st.Post)
	}
	g.emit(Instruction{Op: OpJump, Target: start})
	g.emit(Instruction{Op: OpLabel, Label: end})
}

var unaryOpFor = map[ast.UnaryOp]Op{
	ast.UnaryNeg:       OpNeg,
	ast.UnaryBitwiseNot: OpComplement,
	ast.UnaryNot:       OpNot,
}

var binaryOpFor = map[ast.BinaryOp]Op{
	ast.BinAdd: OpAdd, ast.BinSub: OpSub, ast.BinMul: OpMul,
	ast.BinDiv: OpDiv, ast.BinMod: OpMod,
	ast.BinAnd: OpBitAnd, ast.BinOr: OpBitOr, ast.BinXor: OpBitXor,
	ast.BinShl: OpShl, ast.BinShr: OpSar,
	ast.BinEq: OpEqual, ast.BinNe: OpNotEqual,
	ast.BinLt: OpLess, ast.BinLe: OpLessEqual,
	ast.BinGt: OpGreater, ast.BinGe: OpGreaterEqual,
}

func (g *gen) genExpr(e ast.Expr) Value {
	switch x := e.(type) {
	case *ast.IntLit:
		return Const(int32(x.Value))
	case *ast.VarExpr:
		return Var(x.Resolved)
	case *ast.UnaryExpr:
		return g.genUnary(x)
	case *ast.BinaryExpr:
		if x.Op.IsShortCircuit() {
			return g.genShortCircuit(x)
		}
		a := g.genExpr(x.Left)
		b := g.genExpr(x.Right)
		t := g.freshTemp()
		g.emit(Instruction{Op: binaryOpFor[x.Op], Dst: Var(t), A: a, B: b})
		return Var(t)
	case *ast.AssignExpr:
		return g.genAssign(x)
	case *ast.TernaryExpr:
		return g.genTernary(x)
	case *ast.CallExpr:
		var args []Value
		for _, a := range x.Args {
			args = append(args, g.genExpr(a))
		}
		t := g.freshTemp()
		g.emit(Instruction{Op: OpCall, Callee: x.Callee, Args: args, CallDst: Var(t)})
		return Var(t)
	default:
		return Const(0)
	}
}

// genUnary lowers pre/post increment and decrement as sugar over a
// Copy-based read-modify-write, and the three primitive unary ops
// (Neg/Complement/Not) directly, per the template in the component design.
func (g *gen) genUnary(x *ast.UnaryExpr) Value {
	switch x.Op {
	case ast.UnaryPreIncr, ast.UnaryPreDecr:
		v := x.Operand.(*ast.VarExpr)
		op := OpAdd
		if x.Op == ast.UnaryPreDecr {
			op = OpSub
		}
		t := g.freshTemp()
		g.emit(Instruction{Op: op, Dst: Var(t), A: Var(v.Resolved), B: Const(1)})
		g.emit(Instruction{Op: OpCopy, Dst: Var(v.Resolved), A: Var(t)})
		return Var(v.Resolved)
	case ast.UnaryPostIncr, ast.UnaryPostDecr:
		v := x.Operand.(*ast.VarExpr)
		old := g.freshTemp()
		g.emit(Instruction{Op: OpCopy, Dst: Var(old), A: Var(v.Resolved)})
		op := OpAdd
		if x.Op == ast.UnaryPostDecr {
			op = OpSub
		}
		t := g.freshTemp()
		g.emit(Instruction{Op: op, Dst: Var(t), A: Var(v.Resolved), B: Const(1)})
		g.emit(Instruction{Op: OpCopy, Dst: Var(v.Resolved), A: Var(t)})
		return Var(old)
	default:
		s := g.genExpr(x.Operand)
		t := g.freshTemp()
		g.emit(Instruction{Op: unaryOpFor[x.Op], Dst: Var(t), A: s})
		return Var(t)
	}
}

func (g *gen) genAssign(x *ast.AssignExpr) Value {
	target := x.Target.(*ast.VarExpr)
	value := g.genExpr(x.Value)
	if x.CompoundOp != nil {
		t := g.freshTemp()
		g.emit(Instruction{Op: binaryOpFor[*x.CompoundOp], Dst: Var(t), A: Var(target.Resolved), B: value})
		value = Var(t)
	}
	g.emit(Instruction{Op: OpCopy, Dst: Var(target.Resolved), A: value})
	return Var(target.Resolved)
}

// genShortCircuit implements the && / || lowering from the component
// design: && evaluates lhs, short-circuits to 0 on zero, else evaluates
// rhs and short-circuits to 0 on zero, else yields 1. || is the dual:
// short-circuits to 1 on the first nonzero operand, else yields 0.
func (g *gen) genShortCircuit(x *ast.BinaryExpr) Value {
	t := g.freshTemp()
	shortLbl := g.freshLabel("sc_short")
	end := g.freshLabel("sc_end")
	isAnd := x.Op == ast.BinLogAnd

	shortCircuitOn := OpJumpIfZero
	shortValue, longValue := int32(0), int32(1)
	if !isAnd {
		shortCircuitOn = OpJumpIfNotZero
		shortValue, longValue = 1, 0
	}

	lhs := g.genExpr(x.Left)
	g.emit(Instruction{Op: shortCircuitOn, A: lhs, Target: shortLbl})
	rhs := g.genExpr(x.Right)
	g.emit(Instruction{Op: shortCircuitOn, A: rhs, Target: shortLbl})
	g.emit(Instruction{Op: OpCopy, Dst: Var(t), A: Const(longValue)})
	g.emit(Instruction{Op: OpJump, Target: end})
	g.emit(Instruction{Op: OpLabel, Label: shortLbl})
	g.emit(Instruction{Op: OpCopy, Dst: Var(t), A: Const(shortValue)})
	g.emit(Instruction{Op: OpLabel, Label: end})
	return Var(t)
}

func (g *gen) genTernary(x *ast.TernaryExpr) Value {
	cond := g.genExpr(x.Cond)
	t := g.freshTemp()
	elseLbl := g.freshLabel("tern_else")
	end := g.freshLabel("tern_end")
	g.emit(Instruction{Op: OpJumpIfZero, A: cond, Target: elseLbl})
	thenVal := g.genExpr(x.Then)
	g.emit(Instruction{Op: OpCopy, Dst: Var(t), A: thenVal})
	g.emit(Instruction{Op: OpJump, Target: end})
	g.emit(Instruction{Op: OpLabel, Label: elseLbl})
	elseVal := g.genExpr(x.Else)
	g.emit(Instruction{Op: OpCopy, Dst: Var(t), A: elseVal})
	g.emit(Instruction{Op: OpLabel, Label: end})
	return Var(t)
}
