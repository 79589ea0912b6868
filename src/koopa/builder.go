package koopa

import (
	"fmt"

	"sysyc/src/ast"
	"sysyc/src/symtab"
	"sysyc/src/types"
	"sysyc/src/util"
)

// EmitCompUnit lowers a whole syntax tree into a raw IR Program: name
// resolution, constant folding, and control-flow/array lowering all
// happen in this one walk over the AST.
func EmitCompUnit(cu *ast.CompUnit) (*Program, error) {
	ctx := NewCtx()
	for _, item := range cu.Items {
		switch n := item.(type) {
		case *ast.Decl:
			if err := ctx.genGlobalDecl(n); err != nil {
				return nil, err
			}
		case *ast.FuncDef:
			if err := ctx.genFuncDef(n); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("koopa: unexpected top-level node %T", item)
		}
	}
	return ctx.prog, nil
}

// ---------------------------------
// ----- Global declarations -------
// ---------------------------------

func (ctx *Ctx) genGlobalDecl(decl *ast.Decl) error {
	for _, def := range decl.Defs {
		if err := ctx.genOneGlobalDef(decl.Kind, def); err != nil {
			return err
		}
	}
	return nil
}

func (ctx *Ctx) genOneGlobalDef(kind ast.DeclKind, def *ast.Def) error {
	symKind := symtab.GlobalVar
	if kind == ast.DeclConst {
		symKind = symtab.Const
	}

	if def.Shape == nil {
		// Scalar.
		if kind == ast.DeclConst {
			v, ok := ast.Eval(def.Init.(ast.Expr), ctx.Scope)
			if !ok {
				return util.Errorf(def.Pos.Line, def.Pos.Col, "const %s: initialiser is not a compile-time constant", def.Name)
			}
			sym := &symtab.Symbol{Kind: symtab.Const, IntVal: v, Type: types.I32}
			ctx.Scope.Insert(def.Name, sym)
			sym.Name, _ = ctx.Scope.Rename(def.Name)
			return nil
		}
		var initVal *Value
		if def.Init != nil {
			v, ok := ast.Eval(def.Init.(ast.Expr), ctx.Scope)
			if !ok {
				return util.Errorf(def.Pos.Line, def.Pos.Col, "var %s: global initialiser is not a compile-time constant", def.Name)
			}
			initVal = ctx.constInt(v)
		} else {
			initVal = &Value{Kind: KZeroInit, Type: types.I32}
		}
		sym := &symtab.Symbol{Kind: symKind, Type: types.I32}
		ctx.Scope.Insert(def.Name, sym)
		renamed, _ := ctx.Scope.Rename(def.Name)
		sym.Name = renamed
		gv := &Value{Kind: KGlobalAlloc, Name: "@" + renamed, Type: types.I32, Init: initVal}
		ctx.prog.Globals = append(ctx.prog.Globals, gv)
		sym.Ref = gv
		return nil
	}

	// Array (const or var: both get memory and both bind a GlobalArray
	// symbol, so an assignment to an element of a const array is not
	// rejected).
	dims, err := evalShape(def.Shape, ctx.Scope)
	if err != nil {
		return util.Errorf(def.Pos.Line, def.Pos.Col, "array %s: %v", def.Name, err)
	}
	arrType := types.NewArray(dims, types.I32)

	var initVal *Value
	if def.Init != nil {
		il, ok := def.Init.(*ast.InitList)
		if !ok {
			return util.Errorf(def.Pos.Line, def.Pos.Col, "array %s: expected brace initialiser", def.Name)
		}
		flat, err := flattenInitList(il, dims)
		if err != nil {
			return util.Errorf(def.Pos.Line, def.Pos.Col, "array %s: %v", def.Name, err)
		}
		ints := make([]int, len(flat))
		for i, e := range flat {
			if e == nil {
				continue
			}
			v, ok := ast.Eval(e, ctx.Scope)
			if !ok {
				return util.Errorf(def.Pos.Line, def.Pos.Col, "array %s: element %d is not a compile-time constant", def.Name, i)
			}
			ints[i] = v
		}
		initVal = buildAggregateValue(ints, dims)
	} else {
		initVal = &Value{Kind: KZeroInit, Type: arrType}
	}

	// Const arrays are still addressed as ordinary global memory.
	sym := &symtab.Symbol{Kind: symtab.GlobalArray, Type: arrType}
	ctx.Scope.Insert(def.Name, sym)
	renamed, _ := ctx.Scope.Rename(def.Name)
	sym.Name = renamed
	gv := &Value{Kind: KGlobalAlloc, Name: "@" + renamed, Type: arrType, Init: initVal}
	ctx.prog.Globals = append(ctx.prog.Globals, gv)
	sym.Ref = gv
	return nil
}

// --------------------------------
// ----- Function definitions -----
// --------------------------------

func (ctx *Ctx) genFuncDef(fd *ast.FuncDef) error {
	retType := types.I32
	if fd.RetVoid {
		retType = types.Unit
	}

	paramTys := make([]*types.Type, len(fd.Params))
	argRefs := make([]*Value, len(fd.Params))
	for i, p := range fd.Params {
		var pt *types.Type
		if p.Array {
			dims, err := evalShape(p.Shape, ctx.Scope)
			if err != nil {
				return util.Errorf(p.Pos.Line, p.Pos.Col, "param %s: %v", p.Name, err)
			}
			pt = types.NewPointer(types.NewArray(dims, types.I32))
		} else {
			pt = types.I32
		}
		paramTys[i] = pt
		argRefs[i] = &Value{Kind: KFuncArgRef, Name: "@" + p.Name, Type: pt, ArgIndex: i}
	}

	fn := &Function{Name: "@" + fd.Name, Params: argRefs, ParamTys: paramTys, RetType: retType}
	ctx.prog.Funcs = append(ctx.prog.Funcs, fn)
	ctx.Scope.Insert(fd.Name, &symtab.Symbol{Name: fd.Name, Kind: symtab.Func, RetType: retType, ParamTys: paramTys, Ref: fn})

	ctx.curFunc = fn
	ctx.slots.Reset()
	entry := ctx.newBB(ctx.Labels.Label("entry_"))
	ctx.switchBB(entry)

	ctx.Scope.Push()
	for i, p := range fd.Params {
		pt := paramTys[i]
		if p.Array {
			allocV := &Value{Kind: KAlloc, Name: ctx.slots.Next(), Type: pt}
			ctx.emit(allocV)
			ctx.emitStore(argRefs[i], allocV)
			sym := &symtab.Symbol{Kind: symtab.FuncParamArrayVar, Type: pt, Ref: allocV}
			ctx.Scope.Insert(p.Name, sym)
			sym.Name, _ = ctx.Scope.Rename(p.Name)
		} else {
			allocV := &Value{Kind: KAlloc, Name: ctx.slots.Next(), Type: types.I32}
			ctx.emit(allocV)
			ctx.emitStore(argRefs[i], allocV)
			sym := &symtab.Symbol{Kind: symtab.FuncParamVar, Type: types.I32, Ref: allocV}
			ctx.Scope.Insert(p.Name, sym)
			sym.Name, _ = ctx.Scope.Rename(p.Name)
		}
	}

	// The body's own Block scope is suppressed: parameters and the body's
	// top-level locals share one lexical level. genBlock's own Push()/defer
	// Pop() pair closes that shared scope (Push() is a one-shot no-op here,
	// but Pop() still fires), so this function must not pop again itself —
	// doing so would additionally discard the enclosing (global) scope.
	ctx.Scope.BanPush()
	if err := ctx.genBlock(fd.Body); err != nil {
		return err
	}

	if !ctx.curBB.Terminated() {
		if fd.RetVoid {
			ctx.emit(&Value{Kind: KReturn})
		} else {
			// A missing final return in a non-void function is undefined
			// behaviour at the source level; emitting a trailing "ret 0"
			// keeps every basic block properly terminated, matching the
			// defensive behaviour of real SysY compilers.
			ctx.emit(&Value{Kind: KReturn, RetVal: ctx.constInt(0)})
		}
	}
	ctx.curFunc = nil
	ctx.curBB = nil
	return nil
}

// -------------------------
// ----- Statements --------
// -------------------------

func (ctx *Ctx) genBlock(b *ast.Block) error {
	ctx.Scope.Push()
	defer ctx.Scope.Pop()
	for _, item := range b.Items {
		switch n := item.(type) {
		case *ast.Decl:
			if err := ctx.genLocalDecl(n); err != nil {
				return err
			}
		case ast.Stmt:
			if err := ctx.genStmt(n); err != nil {
				return err
			}
		default:
			return fmt.Errorf("koopa: unexpected block item %T", item)
		}
	}
	return nil
}

func (ctx *Ctx) genStmt(s ast.Stmt) error {
	if ctx.curBB.Terminated() {
		return nil // Dead code after a terminator: silently dropped.
	}
	switch n := s.(type) {
	case *ast.Block:
		return ctx.genBlock(n)
	case *ast.Assign:
		addr, partial, err := ctx.genLVal(n.LVal)
		if err != nil {
			return err
		}
		if partial {
			return util.Errorf(n.Pos.Line, n.Pos.Col, "cannot assign to an array value")
		}
		val, err := ctx.genExprValue(n.Value)
		if err != nil {
			return err
		}
		ctx.emitStore(val, addr)
		return nil
	case *ast.If:
		return ctx.genIf(n)
	case *ast.While:
		return ctx.genWhile(n)
	case *ast.Break:
		sym, ok := ctx.Scope.Query("while_end")
		if !ok {
			return util.Errorf(n.Pos.Line, n.Pos.Col, "break outside of loop")
		}
		ctx.emit(&Value{Kind: KJump, Target: sym.Ref.(*BasicBlock)})
		return nil
	case *ast.Continue:
		sym, ok := ctx.Scope.Query("while_entry")
		if !ok {
			return util.Errorf(n.Pos.Line, n.Pos.Col, "continue outside of loop")
		}
		ctx.emit(&Value{Kind: KJump, Target: sym.Ref.(*BasicBlock)})
		return nil
	case *ast.Return:
		if n.Value == nil {
			ctx.emit(&Value{Kind: KReturn})
			return nil
		}
		v, err := ctx.genExprValue(n.Value)
		if err != nil {
			return err
		}
		ctx.emit(&Value{Kind: KReturn, RetVal: v})
		return nil
	case *ast.ExprStmt:
		_, err := ctx.genExprValue(n.Value)
		return err
	case *ast.Null:
		return nil
	default:
		return fmt.Errorf("koopa: unexpected statement %T", s)
	}
}

func (ctx *Ctx) genIf(n *ast.If) error {
	cond, err := ctx.genExprValue(n.Cond)
	if err != nil {
		return err
	}
	if n.Else == nil {
		thenBB := ctx.newBB(ctx.Labels.Label("then_"))
		endBB := ctx.newBB(ctx.Labels.Label("end_"))
		ctx.emit(&Value{Kind: KBranch, Cond: cond, TrueBB: thenBB, FalseBB: endBB})
		ctx.switchBB(thenBB)
		if err := ctx.genStmt(n.Then); err != nil {
			return err
		}
		if !ctx.curBB.Terminated() {
			ctx.emit(&Value{Kind: KJump, Target: endBB})
		}
		ctx.switchBB(endBB)
		return nil
	}

	thenBB := ctx.newBB(ctx.Labels.Label("then_"))
	elseBB := ctx.newBB(ctx.Labels.Label("else_"))
	endBB := ctx.newBB(ctx.Labels.Label("end_"))

	ctx.emit(&Value{Kind: KBranch, Cond: cond, TrueBB: thenBB, FalseBB: elseBB})
	ctx.switchBB(thenBB)
	if err := ctx.genStmt(n.Then); err != nil {
		return err
	}
	if !ctx.curBB.Terminated() {
		ctx.emit(&Value{Kind: KJump, Target: endBB})
	}
	ctx.switchBB(elseBB)
	if err := ctx.genStmt(n.Else); err != nil {
		return err
	}
	if !ctx.curBB.Terminated() {
		ctx.emit(&Value{Kind: KJump, Target: endBB})
	}
	ctx.switchBB(endBB)
	return nil
}

func (ctx *Ctx) genWhile(n *ast.While) error {
	entryBB := ctx.newBB(ctx.Labels.Label("while_entry_"))
	bodyBB := ctx.newBB(ctx.Labels.Label("while_body_"))
	endBB := ctx.newBB(ctx.Labels.Label("while_end_"))

	if !ctx.curBB.Terminated() {
		ctx.emit(&Value{Kind: KJump, Target: entryBB})
	}
	ctx.switchBB(entryBB)
	cond, err := ctx.genExprValue(n.Cond)
	if err != nil {
		return err
	}
	ctx.emit(&Value{Kind: KBranch, Cond: cond, TrueBB: bodyBB, FalseBB: endBB})

	ctx.switchBB(bodyBB)
	ctx.Scope.Push()
	ctx.Scope.Insert("while_entry", &symtab.Symbol{Kind: symtab.Label, LabelVal: entryBB.Label, Ref: entryBB})
	ctx.Scope.Insert("while_end", &symtab.Symbol{Kind: symtab.Label, LabelVal: endBB.Label, Ref: endBB})
	if err := ctx.genStmt(n.Body); err != nil {
		ctx.Scope.Pop()
		return err
	}
	ctx.Scope.Pop()
	if !ctx.curBB.Terminated() {
		ctx.emit(&Value{Kind: KJump, Target: entryBB})
	}
	ctx.switchBB(endBB)
	return nil
}

// -------------------------
// ----- Declarations ------
// -------------------------

func (ctx *Ctx) genLocalDecl(decl *ast.Decl) error {
	for _, def := range decl.Defs {
		if err := ctx.genOneLocalDef(decl.Kind, def); err != nil {
			return err
		}
	}
	return nil
}

func (ctx *Ctx) genOneLocalDef(kind ast.DeclKind, def *ast.Def) error {
	if def.Shape == nil {
		if kind == ast.DeclConst {
			v, ok := ast.Eval(def.Init.(ast.Expr), ctx.Scope)
			if !ok {
				return util.Errorf(def.Pos.Line, def.Pos.Col, "const %s: initialiser is not a compile-time constant", def.Name)
			}
			sym := &symtab.Symbol{Kind: symtab.Const, IntVal: v, Type: types.I32}
			ctx.Scope.Insert(def.Name, sym)
			sym.Name, _ = ctx.Scope.Rename(def.Name)
			return nil
		}
		allocV := &Value{Kind: KAlloc, Name: ctx.slots.Next(), Type: types.I32}
		ctx.emit(allocV)
		sym := &symtab.Symbol{Kind: symtab.Var, Type: types.I32, Ref: allocV}
		ctx.Scope.Insert(def.Name, sym)
		sym.Name, _ = ctx.Scope.Rename(def.Name)
		if def.Init != nil {
			val, err := ctx.genExprValue(def.Init.(ast.Expr))
			if err != nil {
				return err
			}
			ctx.emitStore(val, allocV)
		}
		return nil
	}

	dims, err := evalShape(def.Shape, ctx.Scope)
	if err != nil {
		return util.Errorf(def.Pos.Line, def.Pos.Col, "array %s: %v", def.Name, err)
	}
	arrType := types.NewArray(dims, types.I32)
	allocV := &Value{Kind: KAlloc, Name: ctx.slots.Next(), Type: arrType}
	ctx.emit(allocV)
	sym := &symtab.Symbol{Kind: symtab.Array, Type: arrType, Ref: allocV}
	ctx.Scope.Insert(def.Name, sym)
	sym.Name, _ = ctx.Scope.Rename(def.Name)

	if def.Init == nil {
		return nil
	}
	il, ok := def.Init.(*ast.InitList)
	if !ok {
		return util.Errorf(def.Pos.Line, def.Pos.Col, "array %s: expected brace initialiser", def.Name)
	}
	flat, err := flattenInitList(il, dims)
	if err != nil {
		return util.Errorf(def.Pos.Line, def.Pos.Col, "array %s: %v", def.Name, err)
	}

	ctx.emitStore(&Value{Kind: KZeroInit, Type: arrType}, allocV)
	for i, e := range flat {
		if e == nil {
			continue
		}
		if v, ok := ast.Eval(e, ctx.Scope); ok && v == 0 {
			continue // Already covered by the zeroinit store above.
		}
		coords := unflattenIndex(i, dims)
		ptr := allocV
		for _, c := range coords {
			ptr = ctx.emitGetElemPtr(ptr, ctx.constInt(c))
		}
		val, err := ctx.genExprValue(e)
		if err != nil {
			return err
		}
		ctx.emitStore(val, ptr)
	}
	return nil
}

// -------------------------
// ----- Lvalues -----------
// -------------------------

// genLVal resolves an lvalue to either the address of a scalar (partial ==
// false: the caller should Load/Store through it) or a first-class,
// already-decayed pointer value (partial == true: the caller must use it
// as-is, matching the language's array-to-pointer decay rules).
func (ctx *Ctx) genLVal(lv ast.LVal) (val *Value, partial bool, err error) {
	switch n := lv.(type) {
	case *ast.LValVar:
		sym, ok := ctx.Scope.Query(n.Name)
		if !ok {
			return nil, false, util.Errorf(n.Pos.Line, n.Pos.Col, "undefined identifier %q", n.Name)
		}
		switch sym.Kind {
		case symtab.Var, symtab.GlobalVar, symtab.FuncParamVar:
			return sym.Ref.(*Value), false, nil
		case symtab.Array, symtab.GlobalArray:
			base := sym.Ref.(*Value)
			return ctx.emitGetElemPtr(base, ctx.constInt(0)), true, nil
		case symtab.ArrayPtr, symtab.FuncParamArrayVar:
			cell := sym.Ref.(*Value)
			return ctx.emitLoad(cell), true, nil
		default:
			return nil, false, util.Errorf(n.Pos.Line, n.Pos.Col, "%q is not an assignable value", n.Name)
		}

	case *ast.LValArrayRef:
		sym, ok := ctx.Scope.Query(n.Name)
		if !ok {
			return nil, false, util.Errorf(n.Pos.Line, n.Pos.Col, "undefined identifier %q", n.Name)
		}
		switch sym.Kind {
		case symtab.Array, symtab.GlobalArray:
			cur := sym.Ref.(*Value)
			for _, idxExpr := range n.Indices {
				idx, err := ctx.genExprValue(idxExpr)
				if err != nil {
					return nil, false, err
				}
				cur = ctx.emitGetElemPtr(cur, idx)
			}
			if cur.Type.Kind == types.Array {
				cur = ctx.emitGetElemPtr(cur, ctx.constInt(0))
				return cur, true, nil
			}
			return cur, false, nil

		case symtab.ArrayPtr, symtab.FuncParamArrayVar:
			cell := sym.Ref.(*Value)
			ptrVal := ctx.emitLoad(cell)
			if len(n.Indices) == 0 {
				return ptrVal, true, nil
			}
			idx0, err := ctx.genExprValue(n.Indices[0])
			if err != nil {
				return nil, false, err
			}
			cur := ctx.emitGetPtr(ptrVal, idx0)
			for _, idxExpr := range n.Indices[1:] {
				idx, err := ctx.genExprValue(idxExpr)
				if err != nil {
					return nil, false, err
				}
				cur = ctx.emitGetElemPtr(cur, idx)
			}
			if cur.Type.Kind == types.Array {
				cur = ctx.emitGetElemPtr(cur, ctx.constInt(0))
				return cur, true, nil
			}
			return cur, false, nil

		default:
			return nil, false, util.Errorf(n.Pos.Line, n.Pos.Col, "%q is not indexable", n.Name)
		}

	default:
		return nil, false, fmt.Errorf("koopa: unexpected lvalue %T", lv)
	}
}

// -------------------------
// ----- Expressions -------
// -------------------------

func (ctx *Ctx) genExprValue(e ast.Expr) (*Value, error) {
	if v, ok := ast.Eval(e, ctx.Scope); ok {
		return ctx.constInt(v), nil
	}
	switch n := e.(type) {
	case *ast.NumberLit:
		return ctx.constInt(n.Val), nil
	case *ast.LValVar, *ast.LValArrayRef:
		addr, partial, err := ctx.genLVal(e.(ast.LVal))
		if err != nil {
			return nil, err
		}
		if partial {
			return addr, nil
		}
		return ctx.emitLoad(addr), nil
	case *ast.Unary:
		switch n.Op {
		case ast.UnaryPlus:
			return ctx.genExprValue(n.Child)
		case ast.UnaryMinus:
			child, err := ctx.genExprValue(n.Child)
			if err != nil {
				return nil, err
			}
			return ctx.emitBinary(OpSub, ctx.constInt(0), child), nil
		case ast.UnaryNot:
			child, err := ctx.genExprValue(n.Child)
			if err != nil {
				return nil, err
			}
			return ctx.emitBinary(OpEq, child, ctx.constInt(0)), nil
		}
		return nil, util.Errorf(n.Pos.Line, n.Pos.Col, "koopa: unknown unary operator")
	case *ast.Binary:
		if n.Op == ast.LOr || n.Op == ast.LAnd {
			return ctx.genShortCircuit(n)
		}
		l, err := ctx.genExprValue(n.L)
		if err != nil {
			return nil, err
		}
		r, err := ctx.genExprValue(n.R)
		if err != nil {
			return nil, err
		}
		return ctx.emitBinary(mapOp(n.Op), l, r), nil
	case *ast.Call:
		sym, ok := ctx.Scope.Query(n.Callee)
		if !ok {
			return nil, util.Errorf(n.Pos.Line, n.Pos.Col, "call to undefined function %q", n.Callee)
		}
		fn, ok := sym.Ref.(*Function)
		if !ok {
			return nil, util.Errorf(n.Pos.Line, n.Pos.Col, "%q is not callable", n.Callee)
		}
		args := make([]*Value, len(n.Args))
		for i, a := range n.Args {
			v, err := ctx.genExprValue(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		call := &Value{Kind: KCall, Callee: fn, Args: args, Type: fn.RetType}
		if fn.RetType.Kind != types.Void {
			call.Name = ctx.slots.Next()
		}
		ctx.emit(call)
		return call, nil
	default:
		return nil, fmt.Errorf("koopa: unexpected expression %T", e)
	}
}

// genShortCircuit lowers a && or || into a four-block diamond
// (shortcut_entry/then/else/end), writing the boolean result of each
// evaluated operand through a spilled stack cell so that both arms
// converge on one value at the join block without needing phi nodes.
func (ctx *Ctx) genShortCircuit(n *ast.Binary) (*Value, error) {
	cell := &Value{Kind: KAlloc, Name: ctx.slots.Next(), Type: types.I32}
	ctx.emit(cell)

	entryBB := ctx.newBB(ctx.Labels.Label("shortcut_entry_"))
	if !ctx.curBB.Terminated() {
		ctx.emit(&Value{Kind: KJump, Target: entryBB})
	}
	ctx.switchBB(entryBB)

	lv, err := ctx.genExprValue(n.L)
	if err != nil {
		return nil, err
	}
	t1 := ctx.emitBinary(OpNotEq, lv, ctx.constInt(0))
	ctx.emitStore(t1, cell)

	thenBB := ctx.newBB(ctx.Labels.Label("shortcut_then_"))
	elseBB := ctx.newBB(ctx.Labels.Label("shortcut_else_"))
	endBB := ctx.newBB(ctx.Labels.Label("shortcut_end_"))
	ctx.emit(&Value{Kind: KBranch, Cond: t1, TrueBB: thenBB, FalseBB: elseBB})

	evalRHS := func() error {
		rv, err := ctx.genExprValue(n.R)
		if err != nil {
			return err
		}
		t2 := ctx.emitBinary(OpNotEq, rv, ctx.constInt(0))
		ctx.emitStore(t2, cell)
		ctx.emit(&Value{Kind: KJump, Target: endBB})
		return nil
	}

	if n.Op == ast.LOr {
		// a is truthy: result already stored, just join.
		ctx.switchBB(thenBB)
		ctx.emit(&Value{Kind: KJump, Target: endBB})
		// a is falsy: evaluate b.
		ctx.switchBB(elseBB)
		if err := evalRHS(); err != nil {
			return nil, err
		}
	} else { // ast.LAnd
		// a is truthy: evaluate b.
		ctx.switchBB(thenBB)
		if err := evalRHS(); err != nil {
			return nil, err
		}
		// a is falsy: result stays 0, already stored, just join.
		ctx.switchBB(elseBB)
		ctx.emit(&Value{Kind: KJump, Target: endBB})
	}

	ctx.switchBB(endBB)
	return ctx.emitLoad(cell), nil
}

func mapOp(op ast.BinaryOp) BinOp {
	switch op {
	case ast.Add:
		return OpAdd
	case ast.Sub:
		return OpSub
	case ast.Mul:
		return OpMul
	case ast.Div:
		return OpDiv
	case ast.Mod:
		return OpMod
	case ast.Lt:
		return OpLt
	case ast.Gt:
		return OpGt
	case ast.Le:
		return OpLe
	case ast.Ge:
		return OpGe
	case ast.Eq:
		return OpEq
	case ast.Ne:
		return OpNotEq
	}
	panic("koopa: unreachable binary operator")
}

// -------------------------------------
// ----- Shapes and initialisers -------
// -------------------------------------

func evalShape(shape []ast.Expr, scope *symtab.ScopeStack) ([]int, error) {
	dims := make([]int, len(shape))
	for i, e := range shape {
		v, ok := ast.Eval(e, scope)
		pos := ast.ExprPos(e)
		if !ok {
			return nil, util.Errorf(pos.Line, pos.Col, "dimension %d is not a compile-time constant", i)
		}
		if v < 0 {
			return nil, util.Errorf(pos.Line, pos.Col, "dimension %d is negative", i)
		}
		dims[i] = v
	}
	return dims, nil
}

func product(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}

func unflattenIndex(linear int, dims []int) []int {
	coords := make([]int, len(dims))
	for i := len(dims) - 1; i >= 0; i-- {
		coords[i] = linear % dims[i]
		linear /= dims[i]
	}
	return coords
}

// flattenInitList normalises a (possibly nested) brace initialiser into a
// flat length-Π(dims) slice of Expr, nil entries meaning "omitted" (zero).
func flattenInitList(il *ast.InitList, dims []int) ([]ast.Expr, error) {
	out := make([]ast.Expr, product(dims))
	cursor := 0
	if err := fillInit(il.Elements, dims, out, &cursor); err != nil {
		return nil, err
	}
	return out, nil
}

func fillInit(elems []ast.Node, shape []int, out []ast.Expr, cursor *int) error {
	for _, e := range elems {
		if nested, ok := e.(*ast.InitList); ok {
			subshape := longestAlignedSuffix(shape, *cursor)
			sublen := product(subshape)
			if *cursor+sublen > len(out) {
				return util.Errorf(nested.Pos.Line, nested.Pos.Col, "excess elements in initialiser")
			}
			sub, err := flattenInitList(nested, subshape)
			if err != nil {
				return err
			}
			copy(out[*cursor:*cursor+sublen], sub)
			*cursor += sublen
			continue
		}
		expr := e.(ast.Expr)
		if *cursor >= len(out) {
			pos := ast.ExprPos(expr)
			return util.Errorf(pos.Line, pos.Col, "excess elements in initialiser")
		}
		out[*cursor] = expr
		*cursor++
	}
	return nil
}

// longestAlignedSuffix picks the longest dimension suffix of shape whose
// size divides the current cursor position, i.e. the largest sub-array a
// nested brace list at this position may legally fill. Falls back to the
// innermost dimension when shape has only one dimension (a nested list at
// the scalar level, a rare but tolerated construct).
func longestAlignedSuffix(shape []int, cursor int) []int {
	for k := 1; k < len(shape); k++ {
		p := product(shape[k:])
		if p != 0 && cursor%p == 0 {
			return shape[k:]
		}
	}
	return shape[len(shape)-1:]
}

// buildAggregateValue builds a nested KAggregate/KInteger tree from a
// fully resolved flat integer table, so a global array initialiser prints
// as a braced nested literal matching its declared shape.
func buildAggregateValue(values []int, dims []int) *Value {
	if len(dims) == 0 {
		return &Value{Kind: KInteger, Int: values[0], Type: types.I32}
	}
	n := dims[0]
	sub := product(dims[1:])
	elems := make([]*Value, n)
	for i := 0; i < n; i++ {
		elems[i] = buildAggregateValue(values[i*sub:(i+1)*sub], dims[1:])
	}
	return &Value{Kind: KAggregate, Elems: elems, Type: types.NewArray(dims, types.I32)}
}
