package ast

import "sysyc/src/symtab"

// Eval attempts compile-time evaluation of e under the given scope stack:
// needed wherever the language requires a constant (array dimension
// sizes, const initialisers, global initialisers). It succeeds when every
// evaluated leaf is a literal or a Const-kind symbol (the right operand of
// && or || is not evaluated when the left operand decides the result); a
// division or remainder by zero also fails. When ok is false the caller
// must fall back to runtime evaluation or reject the expression.
func Eval(e Expr, scope *symtab.ScopeStack) (val int, ok bool) {
	switch n := e.(type) {
	case *NumberLit:
		return n.Val, true
	case *LValVar:
		sym, found := scope.Query(n.Name)
		if !found || sym.Kind != symtab.Const {
			return 0, false
		}
		return sym.IntVal, true
	case *Unary:
		v, ok := Eval(n.Child, scope)
		if !ok {
			return 0, false
		}
		switch n.Op {
		case UnaryPlus:
			return v, true
		case UnaryMinus:
			return -v, true
		case UnaryNot:
			if v == 0 {
				return 1, true
			}
			return 0, true
		}
		return 0, false
	case *Binary:
		l, ok := Eval(n.L, scope)
		if !ok {
			return 0, false
		}
		// Short-circuit at fold time too: matches runtime semantics and
		// avoids folding failures in an unevaluated right-hand side.
		switch n.Op {
		case LOr:
			if l != 0 {
				return 1, true
			}
			r, ok := Eval(n.R, scope)
			if !ok {
				return 0, false
			}
			if r != 0 {
				return 1, true
			}
			return 0, true
		case LAnd:
			if l == 0 {
				return 0, true
			}
			r, ok := Eval(n.R, scope)
			if !ok {
				return 0, false
			}
			if r != 0 {
				return 1, true
			}
			return 0, true
		}
		r, ok := Eval(n.R, scope)
		if !ok {
			return 0, false
		}
		return evalBinary(n.Op, l, r)
	default:
		return 0, false
	}
}

func evalBinary(op BinaryOp, l, r int) (int, bool) {
	switch op {
	case Add:
		return l + r, true
	case Sub:
		return l - r, true
	case Mul:
		return l * r, true
	case Div:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case Mod:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case Lt:
		return boolInt(l < r), true
	case Gt:
		return boolInt(l > r), true
	case Le:
		return boolInt(l <= r), true
	case Ge:
		return boolInt(l >= r), true
	case Eq:
		return boolInt(l == r), true
	case Ne:
		return boolInt(l != r), true
	}
	return 0, false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
