package frontend

import (
	"fmt"

	"sysyc/src/ast"
)

// parser is a hand-written recursive-descent parser over the token slice
// produced by lex, following SysY's standard expression-precedence
// grammar (LOrExpr > LAndExpr > EqExpr > RelExpr > AddExpr > MulExpr >
// UnaryExpr > PrimaryExpr).
type parser struct {
	toks []token
	pos  int
}

// Parse lexes and parses src into a *ast.CompUnit.
func Parse(src string) (*ast.CompUnit, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseCompUnit()
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) at(t tokenType) bool { return p.cur().typ == t }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(t tokenType, what string) (token, error) {
	if !p.at(t) {
		c := p.cur()
		return token{}, fmt.Errorf("line %d: expected %s, got %q", c.line, what, c.val)
	}
	return p.advance(), nil
}

func (p *parser) pos_() ast.Pos {
	c := p.cur()
	return ast.Pos{Line: c.line, Col: c.col}
}

// parseCompUnit parses CompUnit -> (Decl | FuncDef)*.
func (p *parser) parseCompUnit() (*ast.CompUnit, error) {
	cu := &ast.CompUnit{}
	for !p.at(tEOF) {
		item, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		cu.Items = append(cu.Items, item)
	}
	return cu, nil
}

// parseTopLevel disambiguates a const/var Decl from a FuncDef by looking
// past the leading type/ident pair for '(' .
func (p *parser) parseTopLevel() (ast.Node, error) {
	if p.at(tKwConst) {
		return p.parseDecl(ast.DeclConst)
	}
	// 'void' only ever introduces a function.
	if p.at(tKwVoid) {
		return p.parseFuncDef()
	}
	// 'int' introduces either a var Decl or a FuncDef; disambiguate by
	// peeking past "int Ident" for '('.
	if p.at(tKwInt) && p.toks[p.pos+1].typ == tIdent && p.toks[p.pos+2].typ == tLParen {
		return p.parseFuncDef()
	}
	return p.parseDecl(ast.DeclVar)
}

func (p *parser) parseDecl(kind ast.DeclKind) (*ast.Decl, error) {
	pos := p.pos_()
	if kind == ast.DeclConst {
		if _, err := p.expect(tKwConst, "'const'"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tKwInt, "'int'"); err != nil {
		return nil, err
	}
	d := &ast.Decl{Pos: pos, Kind: kind}
	for {
		def, err := p.parseDef(kind)
		if err != nil {
			return nil, err
		}
		d.Defs = append(d.Defs, def)
		if p.at(tComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tSemi, "';'"); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *parser) parseDef(kind ast.DeclKind) (*ast.Def, error) {
	pos := p.pos_()
	name, err := p.expect(tIdent, "identifier")
	if err != nil {
		return nil, err
	}
	def := &ast.Def{Pos: pos, Name: name.val}
	for p.at(tLBracket) {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		def.Shape = append(def.Shape, e)
		if _, err := p.expect(tRBracket, "']'"); err != nil {
			return nil, err
		}
	}
	mustInit := kind == ast.DeclConst
	if p.at(tAssign) {
		p.advance()
		if def.Shape != nil {
			il, err := p.parseInitList()
			if err != nil {
				return nil, err
			}
			def.Init = il
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			def.Init = e
		}
	} else if mustInit {
		return nil, fmt.Errorf("line %d: const %q requires an initialiser", pos.Line, name.val)
	}
	return def, nil
}

// parseInitList parses '{' [InitVal (',' InitVal)*] '}', where InitVal is
// itself an Expr or a nested InitList.
func (p *parser) parseInitList() (*ast.InitList, error) {
	pos := p.pos_()
	if _, err := p.expect(tLBrace, "'{'"); err != nil {
		return nil, err
	}
	il := &ast.InitList{Pos: pos}
	if p.at(tRBrace) {
		p.advance()
		return il, nil
	}
	for {
		var elem ast.Node
		if p.at(tLBrace) {
			nested, err := p.parseInitList()
			if err != nil {
				return nil, err
			}
			elem = nested
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elem = e
		}
		il.Elements = append(il.Elements, elem)
		if p.at(tComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tRBrace, "'}'"); err != nil {
		return nil, err
	}
	return il, nil
}

func (p *parser) parseFuncDef() (*ast.FuncDef, error) {
	pos := p.pos_()
	retVoid := p.at(tKwVoid)
	p.advance() // 'void' or 'int'
	name, err := p.expect(tIdent, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tLParen, "'('"); err != nil {
		return nil, err
	}
	var params []*ast.FuncParam
	if !p.at(tRParen) {
		for {
			param, err := p.parseFuncParam()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if p.at(tComma) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(tRParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDef{Pos: pos, Name: name.val, RetVoid: retVoid, Params: params, Body: body}, nil
}

func (p *parser) parseFuncParam() (*ast.FuncParam, error) {
	pos := p.pos_()
	if _, err := p.expect(tKwInt, "'int'"); err != nil {
		return nil, err
	}
	name, err := p.expect(tIdent, "parameter name")
	if err != nil {
		return nil, err
	}
	param := &ast.FuncParam{Pos: pos, Name: name.val}
	if p.at(tLBracket) {
		param.Array = true
		p.advance()
		if _, err := p.expect(tRBracket, "']'"); err != nil {
			return nil, err
		}
		for p.at(tLBracket) {
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			param.Shape = append(param.Shape, e)
			if _, err := p.expect(tRBracket, "']'"); err != nil {
				return nil, err
			}
		}
	}
	return param, nil
}

func (p *parser) parseBlock() (*ast.Block, error) {
	pos := p.pos_()
	if _, err := p.expect(tLBrace, "'{'"); err != nil {
		return nil, err
	}
	b := &ast.Block{Pos: pos}
	for !p.at(tRBrace) {
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		b.Items = append(b.Items, item)
	}
	p.advance() // '}'
	return b, nil
}

func (p *parser) parseBlockItem() (ast.BlockItem, error) {
	if p.at(tKwConst) {
		return p.parseDecl(ast.DeclConst)
	}
	if p.at(tKwInt) {
		return p.parseDecl(ast.DeclVar)
	}
	s, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return s.(ast.BlockItem), nil
}

func (p *parser) parseStmt() (ast.Stmt, error) {
	switch p.cur().typ {
	case tLBrace:
		return p.parseBlock()
	case tKwIf:
		return p.parseIf()
	case tKwWhile:
		return p.parseWhile()
	case tKwBreak:
		pos := p.pos_()
		p.advance()
		if _, err := p.expect(tSemi, "';'"); err != nil {
			return nil, err
		}
		return &ast.Break{Pos: pos}, nil
	case tKwContinue:
		pos := p.pos_()
		p.advance()
		if _, err := p.expect(tSemi, "';'"); err != nil {
			return nil, err
		}
		return &ast.Continue{Pos: pos}, nil
	case tKwReturn:
		pos := p.pos_()
		p.advance()
		var val ast.Expr
		if !p.at(tSemi) {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			val = e
		}
		if _, err := p.expect(tSemi, "';'"); err != nil {
			return nil, err
		}
		return &ast.Return{Pos: pos, Value: val}, nil
	case tSemi:
		pos := p.pos_()
		p.advance()
		return &ast.Null{Pos: pos}, nil
	default:
		return p.parseAssignOrExprStmt()
	}
}

func (p *parser) parseIf() (*ast.If, error) {
	pos := p.pos_()
	p.advance() // 'if'
	if _, err := p.expect(tLParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tRParen, "')'"); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	n := &ast.If{Pos: pos, Cond: cond, Then: then}
	if p.at(tKwElse) {
		p.advance()
		els, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		n.Else = els
	}
	return n, nil
}

func (p *parser) parseWhile() (*ast.While, error) {
	pos := p.pos_()
	p.advance() // 'while'
	if _, err := p.expect(tLParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tRParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.While{Pos: pos, Cond: cond, Body: body}, nil
}

// parseAssignOrExprStmt disambiguates LVal '=' Expr ';' from a bare
// expression statement by speculatively parsing an expression first: an
// LVal is itself a valid Expr, so on seeing '=' immediately after we
// reinterpret it as an assignment target.
func (p *parser) parseAssignOrExprStmt() (ast.Stmt, error) {
	pos := p.pos_()
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.at(tAssign) {
		lv, ok := e.(ast.LVal)
		if !ok {
			return nil, fmt.Errorf("line %d: left side of assignment is not an lvalue", pos.Line)
		}
		p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tSemi, "';'"); err != nil {
			return nil, err
		}
		return &ast.Assign{Pos: pos, LVal: lv, Value: rhs}, nil
	}
	if _, err := p.expect(tSemi, "';'"); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Pos: pos, Value: e}, nil
}

// ----------------------------
// ----- Expressions -----------
// ----------------------------
//
// Expr -> LOrExpr. The grammar is the standard SysY precedence chain;
// each level parses left-associatively by looping rather than recursing
// on itself, keeping chained operators (a+b-c, a&&b&&c) flat loops rather
// than right-leaning recursive trees.

func (p *parser) parseExpr() (ast.Expr, error) { return p.parseLOr() }

func (p *parser) parseLOr() (ast.Expr, error) {
	l, err := p.parseLAnd()
	if err != nil {
		return nil, err
	}
	for p.at(tOrOr) {
		pos := p.pos_()
		p.advance()
		r, err := p.parseLAnd()
		if err != nil {
			return nil, err
		}
		l = &ast.Binary{Pos: pos, Op: ast.LOr, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseLAnd() (ast.Expr, error) {
	l, err := p.parseEq()
	if err != nil {
		return nil, err
	}
	for p.at(tAndAnd) {
		pos := p.pos_()
		p.advance()
		r, err := p.parseEq()
		if err != nil {
			return nil, err
		}
		l = &ast.Binary{Pos: pos, Op: ast.LAnd, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseEq() (ast.Expr, error) {
	l, err := p.parseRel()
	if err != nil {
		return nil, err
	}
	for p.at(tEqEq) || p.at(tNe) {
		pos := p.pos_()
		op := ast.Eq
		if p.at(tNe) {
			op = ast.Ne
		}
		p.advance()
		r, err := p.parseRel()
		if err != nil {
			return nil, err
		}
		l = &ast.Binary{Pos: pos, Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseRel() (ast.Expr, error) {
	l, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for p.at(tLt) || p.at(tGt) || p.at(tLe) || p.at(tGe) {
		pos := p.pos_()
		var op ast.BinaryOp
		switch p.cur().typ {
		case tLt:
			op = ast.Lt
		case tGt:
			op = ast.Gt
		case tLe:
			op = ast.Le
		case tGe:
			op = ast.Ge
		}
		p.advance()
		r, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		l = &ast.Binary{Pos: pos, Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseAdd() (ast.Expr, error) {
	l, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.at(tPlus) || p.at(tMinus) {
		pos := p.pos_()
		op := ast.Add
		if p.at(tMinus) {
			op = ast.Sub
		}
		p.advance()
		r, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		l = &ast.Binary{Pos: pos, Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseMul() (ast.Expr, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(tStar) || p.at(tSlash) || p.at(tPercent) {
		pos := p.pos_()
		var op ast.BinaryOp
		switch p.cur().typ {
		case tStar:
			op = ast.Mul
		case tSlash:
			op = ast.Div
		case tPercent:
			op = ast.Mod
		}
		p.advance()
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = &ast.Binary{Pos: pos, Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseUnary() (ast.Expr, error) {
	pos := p.pos_()
	switch p.cur().typ {
	case tPlus:
		p.advance()
		c, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Pos: pos, Op: ast.UnaryPlus, Child: c}, nil
	case tMinus:
		p.advance()
		c, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Pos: pos, Op: ast.UnaryMinus, Child: c}, nil
	case tNot:
		p.advance()
		c, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Pos: pos, Op: ast.UnaryNot, Child: c}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	pos := p.pos_()
	switch p.cur().typ {
	case tLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case tNumber:
		tok := p.advance()
		v, err := parseNumberLiteral(tok.val)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", tok.line, err)
		}
		return &ast.NumberLit{Pos: pos, Val: v}, nil
	case tIdent:
		name := p.advance()
		if p.at(tLParen) {
			return p.parseCallArgs(pos, name.val)
		}
		if p.at(tLBracket) {
			var indices []ast.Expr
			for p.at(tLBracket) {
				p.advance()
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				indices = append(indices, e)
				if _, err := p.expect(tRBracket, "']'"); err != nil {
					return nil, err
				}
			}
			return &ast.LValArrayRef{Pos: pos, Name: name.val, Indices: indices}, nil
		}
		return &ast.LValVar{Pos: pos, Name: name.val}, nil
	default:
		c := p.cur()
		return nil, fmt.Errorf("line %d: unexpected token %q in expression", c.line, c.val)
	}
}

func (p *parser) parseCallArgs(pos ast.Pos, callee string) (ast.Expr, error) {
	if _, err := p.expect(tLParen, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if !p.at(tRParen) {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if p.at(tComma) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(tRParen, "')'"); err != nil {
		return nil, err
	}
	return &ast.Call{Pos: pos, Callee: callee, Args: args}, nil
}
