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
	"mcc/arena"
	"mcc/diag"
	"mcc/lexer"
)

// precedence table for binary operators, used by the table-driven
// precedence-climbing expression parser. Higher binds tighter. Operators
// not listed here are not binary infix operators.
var binaryPrec = map[lexer.Kind]int{
	lexer.STAR: 50, lexer.SLASH: 50, lexer.PERCENT: 50,
	lexer.PLUS: 45, lexer.MINUS: 45,
	lexer.SHL: 40, lexer.SHR: 40,
	lexer.LT: 35, lexer.LE: 35, lexer.GT: 35, lexer.GE: 35,
	lexer.EQ: 30, lexer.NE: 30,
	lexer.AMP:     25,
	lexer.CARET:   24,
	lexer.PIPE:    23,
	lexer.AND_AND: 10,
	lexer.OR_OR:   5,
}

var binaryOpFor = map[lexer.Kind]BinaryOp{
	lexer.PLUS: BinAdd, lexer.MINUS: BinSub, lexer.STAR: BinMul,
	lexer.SLASH: BinDiv, lexer.PERCENT: BinMod,
	lexer.AMP: BinAnd, lexer.PIPE: BinOr, lexer.CARET: BinXor,
	lexer.SHL: BinShl, lexer.SHR: BinShr,
	lexer.EQ: BinEq, lexer.NE: BinNe,
	lexer.LT: BinLt, lexer.LE: BinLe, lexer.GT: BinGt, lexer.GE: BinGe,
	lexer.AND_AND: BinLogAnd, lexer.OR_OR: BinLogOr,
}

var compoundAssignOpFor = map[lexer.Kind]BinaryOp{
	lexer.PLUS_ASSIGN: BinAdd, lexer.MINUS_ASSIGN: BinSub, lexer.STAR_ASSIGN: BinMul,
	lexer.SLASH_ASSIGN: BinDiv, lexer.PERCENT_ASSIGN: BinMod,
	lexer.AMP_ASSIGN: BinAnd, lexer.PIPE_ASSIGN: BinOr, lexer.CARET_ASSIGN: BinXor,
	lexer.SHL_ASSIGN: BinShl, lexer.SHR_ASSIGN: BinShr,
}

// Parser turns one token stream into a Program, recovering from syntax
// errors in panic mode (skip to the next `;` or `}`) instead of aborting,
// so a single bad statement doesn't hide every other diagnostic.
type Parser struct {
	toks   *arena.DynArray[lexer.Token]
	pos    int
	a      *arena.Arena
	diags  *diag.Bag
}

// Parse lexes and parses source, returning the Program (possibly partial)
// and every diagnostic collected along the way.
func Parse(a *arena.Arena, path, source string) (*Program, *diag.Bag) {
	toks := lexer.Scan(a, source)
	bag := diag.NewBag(path)
	p := &Parser{toks: toks, a: a, diags: bag}
	return p.parseProgram(), bag
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= p.toks.Len() {
		return p.toks.At(p.toks.Len() - 1) // EOF
	}
	return p.toks.At(p.pos)
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < p.toks.Len()-1 {
		p.pos++
	}
	return t
}

// expect consumes the current token if it matches k, else records a
// syntax error and enters panic-mode recovery.
func (p *Parser) expect(k lexer.Kind) lexer.Token {
	if p.at(k) {
		return p.advance()
	}
	p.errorf("expected %s, found %s", k, p.cur().Kind)
	p.recover()
	return p.cur()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.diags.Add(diag.Syntactic, p.cur().Range, format, args...)
}

// recover skips tokens until a likely statement boundary (`;`, `}`) or EOF,
// a panic-mode strategy so one bad statement does not swallow every later
// diagnostic.
func (p *Parser) recover() {
	for !p.at(lexer.EOF) {
		if p.at(lexer.SEMI) {
			p.advance()
			return
		}
		if p.at(lexer.RBRACE) {
			return
		}
		p.advance()
	}
}

func (p *Parser) rangeFrom(start diag.Pos) diag.Range {
	return diag.Range{Start: start, End: p.cur().Range.Start}
}

// ---- Program / declarations ----

func (p *Parser) parseProgram() *Program {
	start := p.cur().Range.Start
	prog := &Program{base: base{}}
	for !p.at(lexer.EOF) {
		fn := p.parseFuncDecl()
		if fn != nil {
			prog.Decls = append(prog.Decls, fn)
		}
	}
	prog.Range = p.rangeFrom(start)
	return prog
}

func (p *Parser) parseFuncDecl() *FuncDecl {
	start := p.cur().Range.Start
	if !p.at(lexer.KW_INT) {
		p.errorf("expected a type specifier, found %s", p.cur().Kind)
		p.recover()
		return nil
	}
	p.advance()
	nameTok := p.expect(lexer.IDENT)
	fn := &FuncDecl{Name: nameTok.Lexeme}

	p.expect(lexer.LPAREN)
	if p.at(lexer.KW_VOID) {
		p.advance()
	} else if !p.at(lexer.RPAREN) {
		for {
			p.expect(lexer.KW_INT)
			pt := p.expect(lexer.IDENT)
			fn.Params = append(fn.Params, Param{Name: pt.Lexeme, Range: pt.Range})
			if !p.at(lexer.COMMA) {
				break
			}
			p.advance()
		}
	}
	p.expect(lexer.RPAREN)

	if p.at(lexer.SEMI) {
		p.advance()
		fn.HasBody = false
	} else {
		fn.Body = p.parseCompoundStmt()
		fn.HasBody = true
	}
	fn.Range = p.rangeFrom(start)
	return fn
}

func (p *Parser) parseVarDecl() *VarDecl {
	start := p.cur().Range.Start
	p.expect(lexer.KW_INT)
	nameTok := p.expect(lexer.IDENT)
	v := &VarDecl{Name: nameTok.Lexeme}
	if p.at(lexer.ASSIGN) {
		p.advance()
		v.Init = p.parseExpr()
	}
	p.expect(lexer.SEMI)
	v.Range = p.rangeFrom(start)
	return v
}

// ---- Statements ----

func (p *Parser) parseCompoundStmt() *CompoundStmt {
	start := p.cur().Range.Start
	p.expect(lexer.LBRACE)
	block := &CompoundStmt{}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		block.Items = append(block.Items, p.parseBlockItem())
	}
	p.expect(lexer.RBRACE)
	block.Range = p.rangeFrom(start)
	return block
}

func (p *Parser) parseBlockItem() BlockItem {
	if p.at(lexer.KW_INT) {
		return p.parseVarDecl()
	}
	return p.parseStatement()
}

func (p *Parser) parseStatement() Stmt {
	start := p.cur().Range.Start
	switch p.cur().Kind {
	case lexer.KW_RETURN:
		p.advance()
		ret := &ReturnStmt{}
		if !p.at(lexer.SEMI) {
			ret.Value = p.parseExpr()
		}
		p.expect(lexer.SEMI)
		ret.Range = p.rangeFrom(start)
		return ret
	case lexer.LBRACE:
		return p.parseCompoundStmt()
	case lexer.KW_IF:
		return p.parseIfStmt()
	case lexer.KW_FOR:
		return p.parseForStmt()
	case lexer.KW_WHILE:
		return p.parseWhileStmt()
	case lexer.KW_DO:
		return p.parseDoWhileStmt()
	case lexer.KW_BREAK:
		p.advance()
		p.expect(lexer.SEMI)
		return &BreakStmt{stmtBase: stmtBase{base{p.rangeFrom(start)}}}
	case lexer.KW_CONTINUE:
		p.advance()
		p.expect(lexer.SEMI)
		return &ContinueStmt{stmtBase: stmtBase{base{p.rangeFrom(start)}}}
	case lexer.SEMI:
		p.advance()
		return &NullStmt{stmtBase: stmtBase{base{p.rangeFrom(start)}}}
	default:
		x := p.parseExpr()
		p.expect(lexer.SEMI)
		return &ExprStmt{stmtBase: stmtBase{base{p.rangeFrom(start)}}, X: x}
	}
}

func (p *Parser) parseIfStmt() Stmt {
	start := p.cur().Range.Start
	p.expect(lexer.KW_IF)
	p.expect(lexer.LPAREN)
	cond := p.parseExpr()
	p.expect(lexer.RPAREN)
	then := p.parseStatement()
	var elseStmt Stmt
	if p.at(lexer.KW_ELSE) {
		p.advance()
		elseStmt = p.parseStatement()
	}
	return &IfStmt{stmtBase: stmtBase{base{p.rangeFrom(start)}}, Cond: cond, Then: then, Else: elseStmt}
}

func (p *Parser) parseForStmt() Stmt {
	start := p.cur().Range.Start
	p.expect(lexer.KW_FOR)
	p.expect(lexer.LPAREN)
	var init ForInit
	switch {
	case p.at(lexer.SEMI):
		p.advance()
	case p.at(lexer.KW_INT):
		init.Decl = p.parseVarDecl() // consumes the trailing `;`
	default:
		init.Expr = p.parseExpr()
		p.expect(lexer.SEMI)
	}
	var cond Expr
	if !p.at(lexer.SEMI) {
		cond = p.parseExpr()
	}
	p.expect(lexer.SEMI)
	var post Expr
	if !p.at(lexer.RPAREN) {
		post = p.parseExpr()
	}
	p.expect(lexer.RPAREN)
	body := p.parseStatement()
	return &ForStmt{stmtBase: stmtBase{base{p.rangeFrom(start)}}, Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) parseWhileStmt() Stmt {
	start := p.cur().Range.Start
	p.expect(lexer.KW_WHILE)
	p.expect(lexer.LPAREN)
	cond := p.parseExpr()
	p.expect(lexer.RPAREN)
	body := p.parseStatement()
	return &WhileStmt{stmtBase: stmtBase{base{p.rangeFrom(start)}}, Cond: cond, Body: body}
}

func (p *Parser) parseDoWhileStmt() Stmt {
	start := p.cur().Range.Start
	p.expect(lexer.KW_DO)
	body := p.parseStatement()
	p.expect(lexer.KW_WHILE)
	p.expect(lexer.LPAREN)
	cond := p.parseExpr()
	p.expect(lexer.RPAREN)
	p.expect(lexer.SEMI)
	return &DoWhileStmt{stmtBase: stmtBase{base{p.rangeFrom(start)}}, Body: body, Cond: cond}
}

// ---- Expressions ----

// parseExpr parses a full expression, handling assignment (right-associative,
// lowest precedence) and the ternary operator before falling into the
// table-driven binary-operator climb.
func (p *Parser) parseExpr() Expr {
	left := p.parseTernary()
	if p.at(lexer.ASSIGN) {
		start := left.Pos().Start
		p.advance()
		value := p.parseExpr()
		return &AssignExpr{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Target: left, Value: value}
	}
	if op, ok := compoundAssignOpFor[p.cur().Kind]; ok {
		start := left.Pos().Start
		p.advance()
		value := p.parseExpr()
		opCopy := op
		return &AssignExpr{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Target: left, CompoundOp: &opCopy, Value: value}
	}
	return left
}

// parseTernary parses `cond ? then : else`, right-associative in both the
// then- and else-branches, falling back to the binary climb when there is
// no `?`.
func (p *Parser) parseTernary() Expr {
	start := p.cur().Range.Start
	cond := p.parseBinary(0)
	if !p.at(lexer.QUESTION) {
		return cond
	}
	p.advance()
	then := p.parseExpr()
	p.expect(lexer.COLON)
	elseExpr := p.parseTernary()
	return &TernaryExpr{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Cond: cond, Then: then, Else: elseExpr}
}

// parseBinary climbs the precedence table in one loop driven by
// binaryPrec/binaryOpFor, rather than one hand-written function per
// precedence level.
func (p *Parser) parseBinary(minPrec int) Expr {
	left := p.parseUnary()
	for {
		prec, ok := binaryPrec[p.cur().Kind]
		if !ok || prec < minPrec {
			return left
		}
		opTok := p.advance()
		right := p.parseBinary(prec + 1)
		left = &BinaryExpr{
			exprBase: exprBase{base: base{diag.Range{Start: left.Pos().Start, End: right.Pos().End}}},
			Op:       binaryOpFor[opTok.Kind],
			Left:     left,
			Right:    right,
		}
	}
}

// parseUnary handles prefix `-`, `!`, `~`, `++`, `--`. Unary `+` is
// deliberately not accepted: the grammar has no identity operator, the
// same choice the reference lexer/parser pair makes.
func (p *Parser) parseUnary() Expr {
	start := p.cur().Range.Start
	switch p.cur().Kind {
	case lexer.MINUS:
		p.advance()
		return &UnaryExpr{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Op: UnaryNeg, Operand: p.parseUnary()}
	case lexer.BANG:
		p.advance()
		return &UnaryExpr{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Op: UnaryNot, Operand: p.parseUnary()}
	case lexer.TILDE:
		p.advance()
		return &UnaryExpr{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Op: UnaryBitwiseNot, Operand: p.parseUnary()}
	case lexer.INCR:
		p.advance()
		return &UnaryExpr{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Op: UnaryPreIncr, Operand: p.parseUnary()}
	case lexer.DECR:
		p.advance()
		return &UnaryExpr{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Op: UnaryPreDecr, Operand: p.parseUnary()}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() Expr {
	start := p.cur().Range.Start
	x := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case lexer.INCR:
			p.advance()
			x = &UnaryExpr{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Op: UnaryPostIncr, Operand: x}
		case lexer.DECR:
			p.advance()
			x = &UnaryExpr{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Op: UnaryPostDecr, Operand: x}
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() Expr {
	start := p.cur().Range.Start
	switch p.cur().Kind {
	case lexer.INT_LIT:
		t := p.advance()
		return &IntLit{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Value: t.IntVal}
	case lexer.LPAREN:
		p.advance()
		x := p.parseExpr()
		p.expect(lexer.RPAREN)
		return x
	case lexer.IDENT:
		t := p.advance()
		if p.at(lexer.LPAREN) {
			p.advance()
			call := &CallExpr{exprBase: exprBase{base: base{}}, Callee: t.Lexeme}
			if !p.at(lexer.RPAREN) {
				for {
					call.Args = append(call.Args, p.parseExpr())
					if !p.at(lexer.COMMA) {
						break
					}
					p.advance()
				}
			}
			p.expect(lexer.RPAREN)
			call.Range = p.rangeFrom(start)
			return call
		}
		return &VarExpr{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Name: t.Lexeme}
	default:
		p.errorf("expected an expression, found %s", p.cur().Kind)
		p.recover()
		return &IntLit{exprBase: exprBase{base: base{p.rangeFrom(start)}}, Value: 0}
	}
}
