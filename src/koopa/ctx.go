package koopa

import (
	"sysyc/src/symtab"
	"sysyc/src/types"
)

// Ctx is the explicit compilation context threaded through emission: the
// scope stack, slot allocator, and label counter all live on one struct
// instead of behind package-level state, so each compilation is isolated
// and the pipeline stays a pure function of its AST input.
type Ctx struct {
	Scope  *symtab.ScopeStack
	Labels *LabelGen

	prog    *Program
	slots   SlotAllocator
	curFunc *Function
	curBB   *BasicBlock
}

// libFuncs is the fixed block of library runtime declarations emitted once
// at the top of every compiled program.
var libFuncs = []struct {
	name    string
	params  []*types.Type
	retType *types.Type
}{
	{"getint", nil, types.I32},
	{"getch", nil, types.I32},
	{"getarray", []*types.Type{types.NewPointer(types.I32)}, types.I32},
	{"putint", []*types.Type{types.I32}, types.Unit},
	{"putch", []*types.Type{types.I32}, types.Unit},
	{"putarray", []*types.Type{types.I32, types.NewPointer(types.I32)}, types.Unit},
	{"starttime", nil, types.Unit},
	{"stoptime", nil, types.Unit},
}

// NewCtx returns a fresh Ctx with the global scope open and the library
// runtime functions registered, so user code can call them before it
// defines anything of its own.
func NewCtx() *Ctx {
	ctx := &Ctx{
		Scope:  symtab.NewScopeStack(),
		Labels: &LabelGen{},
		prog:   &Program{},
	}
	ctx.Scope.Push() // Global scope.

	for _, lf := range libFuncs {
		fn := &Function{Name: "@" + lf.name, ParamTys: lf.params, RetType: lf.retType, IsDecl: true}
		ctx.prog.Funcs = append(ctx.prog.Funcs, fn)
		ctx.Scope.Insert(lf.name, &symtab.Symbol{
			Name: lf.name, Kind: symtab.Func, RetType: lf.retType, ParamTys: lf.params, Ref: fn,
		})
	}
	return ctx
}

// emit appends v to the current basic block unless it is already
// terminated, in which case v represents unreachable code and is silently
// dropped — keeping every basic block ending in exactly one terminator.
func (ctx *Ctx) emit(v *Value) {
	if ctx.curBB == nil || ctx.curBB.Terminated() {
		return
	}
	ctx.curBB.Insts = append(ctx.curBB.Insts, v)
}

// Terminated reports whether b's last instruction is a terminator.
func (b *BasicBlock) Terminated() bool {
	return len(b.Insts) > 0 && b.Insts[len(b.Insts)-1].Terminator()
}

// newBB allocates and registers a new basic block on the current function.
func (ctx *Ctx) newBB(label string) *BasicBlock {
	bb := &BasicBlock{Label: label}
	ctx.curFunc.Blocks = append(ctx.curFunc.Blocks, bb)
	return bb
}

// switchBB makes bb the insertion point for subsequent emit calls.
func (ctx *Ctx) switchBB(bb *BasicBlock) {
	ctx.curBB = bb
}

// constInt returns an inline integer constant value: it has no Name and is
// never appended to a basic block, so a fully constant-folded expression
// produces no IR instructions at all.
func (ctx *Ctx) constInt(v int) *Value {
	return &Value{Kind: KInteger, Int: v, Type: types.I32}
}

// emitBinary emits a binary instruction and returns its result value.
func (ctx *Ctx) emitBinary(op BinOp, l, r *Value) *Value {
	v := &Value{Kind: KBinary, Name: ctx.slots.Next(), Op: op, L: l, R: r, Type: types.I32}
	ctx.emit(v)
	return v
}

// emitLoad emits a load of addr and returns its result value. addr.Type is
// the type of the object at that address (our convention for every
// address-producing kind: Alloc, GlobalAlloc, GetElemPtr, GetPtr).
func (ctx *Ctx) emitLoad(addr *Value) *Value {
	v := &Value{Kind: KLoad, Name: ctx.slots.Next(), Src: addr, Type: addr.Type}
	ctx.emit(v)
	return v
}

// emitStore emits a store of val into addr.
func (ctx *Ctx) emitStore(val, addr *Value) {
	ctx.emit(&Value{Kind: KStore, StoreVal: val, StoreDst: addr})
}

// emitGetElemPtr steps into one fixed array dimension of base (an address
// whose Type is an Array), producing the address of one element (or of a
// sub-array, if more dimensions remain).
func (ctx *Ctx) emitGetElemPtr(base, idx *Value) *Value {
	elemType := base.Type
	if base.Type.Kind == types.Array {
		elemType = base.Type.Elem
	}
	v := &Value{Kind: KGetElemPtr, Name: ctx.slots.Next(), Ptr: base, Idx: idx, Type: elemType}
	ctx.emit(v)
	return v
}

// emitGetPtr steps through the decayed (pointer-typed) first dimension of
// a function-parameter array: ptrVal is a first-class pointer value (the
// result of loading the parameter's local pointer cell), not an address in
// the Alloc/GetElemPtr sense, so the pointee type comes from ptrVal.Type's
// Elem rather than from ptrVal.Type directly.
func (ctx *Ctx) emitGetPtr(ptrVal, idx *Value) *Value {
	elemType := ptrVal.Type
	if ptrVal.Type.Kind == types.Pointer {
		elemType = ptrVal.Type.Elem
	}
	v := &Value{Kind: KGetPtr, Name: ctx.slots.Next(), Ptr: ptrVal, Idx: idx, Type: elemType}
	ctx.emit(v)
	return v
}
