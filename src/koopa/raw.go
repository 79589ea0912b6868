// Package koopa implements the textual Koopa IR emitter — lowering a
// syntax tree into basic blocks of IR instructions — and the in-memory
// raw IR model those instructions live in, consumed downstream by
// src/frame and src/riscv to generate RISC-V assembly.
package koopa

import "sysyc/src/types"

// ValueKind tags the variant of a raw IR Value.
type ValueKind int

const (
	KInteger ValueKind = iota
	KBinary
	KAlloc
	KGlobalAlloc
	KLoad
	KStore
	KBranch
	KJump
	KCall
	KReturn
	KGetElemPtr
	KGetPtr
	KAggregate
	KFuncArgRef
	KZeroInit
)

// BinOp enumerates the Koopa binary operators used in a KBinary value.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpGt
	OpLe
	OpGe
	OpEq
	OpNotEq
	OpAnd
	OpOr
)

var binOpNames = map[BinOp]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
	OpLt: "lt", OpGt: "gt", OpLe: "le", OpGe: "ge", OpEq: "eq", OpNotEq: "ne",
	OpAnd: "and", OpOr: "or",
}

// Value is one instruction or constant in the raw IR: a tagged union
// where Kind determines which of the payload fields below are valid.
type Value struct {
	Kind ValueKind
	Name string      // "%7" for local temporaries, "@x_0" for globals; empty for inline integer constants.
	Type *types.Type

	// KInteger
	Int int

	// KBinary
	Op   BinOp
	L, R *Value

	// KAlloc: Type is the pointer's base type (the allocated object's type).

	// KGlobalAlloc
	Init *Value // KInteger, KAggregate or KZeroInit.

	// KLoad
	Src *Value

	// KStore
	StoreVal *Value
	StoreDst *Value

	// KBranch
	Cond    *Value
	TrueBB  *BasicBlock
	FalseBB *BasicBlock

	// KJump
	Target *BasicBlock

	// KCall
	Callee *Function
	Args   []*Value

	// KReturn
	RetVal *Value // nil for "ret" with no value.

	// KGetElemPtr / KGetPtr
	Ptr *Value
	Idx *Value

	// KAggregate
	Elems []*Value

	// KFuncArgRef
	ArgIndex int
}

// BasicBlock is a named sequence of instructions ending in exactly one
// terminator (br/jump/ret).
type BasicBlock struct {
	Label string
	Insts []*Value
}

// Function is a Koopa function: either a declaration (no blocks) or a
// definition (one or more basic blocks, the first being the entry block).
type Function struct {
	Name     string
	Params   []*Value // KFuncArgRef values, one per parameter, in order.
	ParamTys []*types.Type
	RetType  *types.Type
	Blocks   []*BasicBlock
	IsDecl   bool
}

// Program is the whole compiled unit: global allocations plus functions.
type Program struct {
	Globals []*Value // KGlobalAlloc values.
	Funcs   []*Function
}

// Terminator reports whether v is one of the three legal basic-block
// terminators.
func (v *Value) Terminator() bool {
	switch v.Kind {
	case KBranch, KJump, KReturn:
		return true
	}
	return false
}
