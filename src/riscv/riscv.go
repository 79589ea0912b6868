// Package riscv lowers a raw IR koopa.Program into RISC-V 32-bit
// integer-ISA assembly text. Every IR value gets a dedicated frame slot
// and no register is ever assumed live across instructions: each def
// writes its result back to its slot and each use reloads it, trading
// peak performance for an allocator simple enough to trust by inspection.
package riscv

import (
	"strings"

	"sysyc/src/frame"
	"sysyc/src/koopa"
	"sysyc/src/types"
	"sysyc/src/util"
)

const (
	maxImm = 2047
	minImm = -2048
)

// scratchOrder is the round-robin register pool: t0-t6 then a0-a7, reset
// before lowering each top-level instruction.
var scratchOrder = []string{
	"t0", "t1", "t2", "t3", "t4", "t5", "t6",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
}

type regCounter struct{ i int }

func (c *regCounter) next() string {
	r := scratchOrder[c.i%len(scratchOrder)]
	c.i++
	return r
}

func (c *regCounter) reset() { c.i = 0 }

// Gen lowers prog to assembly text.
func Gen(prog *koopa.Program) string {
	w := &util.Writer{}
	w.WriteString(".text\n")
	for _, fn := range prog.Funcs {
		if !fn.IsDecl {
			genFunc(w, fn)
		}
	}
	if len(prog.Globals) > 0 {
		w.WriteString("\n.data\n")
		for _, g := range prog.Globals {
			genGlobal(w, g)
		}
	}
	return w.String()
}

func stripAt(name string) string {
	return strings.TrimPrefix(name, "@")
}

func inRange(off int) bool {
	return off >= minImm && off <= maxImm
}

func li(w *util.Writer, reg string, imm int) {
	w.Write("\tli\t%s, %d\n", reg, imm)
}

// loadSlot emits a load of the 4-byte slot at offset(base) into dst,
// materialising the offset through t0 when it exceeds the 12-bit signed
// immediate range addi/lw/sw can encode directly.
func loadSlot(w *util.Writer, dst string, off int, base string) {
	if inRange(off) {
		w.LoadStore("lw", dst, off, base)
		return
	}
	li(w, "t0", off)
	w.Ins3("add", "t0", "t0", base)
	w.LoadStore("lw", dst, 0, "t0")
}

func storeSlot(w *util.Writer, src string, off int, base string) {
	if inRange(off) {
		w.LoadStore("sw", src, off, base)
		return
	}
	li(w, "t0", off)
	w.Ins3("add", "t0", "t0", base)
	w.LoadStore("sw", src, 0, "t0")
}

// addrOffset materialises base+off into dst.
func addrOffset(w *util.Writer, dst string, base string, off int) {
	if inRange(off) {
		w.Ins2imm("addi", dst, base, off)
		return
	}
	li(w, "t0", off)
	w.Ins3("add", dst, "t0", base)
}

// loadOperand materialises the already-computed value v into reg: an
// inline constant, a parameter still sitting in an argument register or
// the caller's outgoing-argument area, or any instruction result read
// back from its own frame slot.
func loadOperand(w *util.Writer, plan *frame.Plan, reg string, v *koopa.Value) {
	switch v.Kind {
	case koopa.KInteger:
		li(w, reg, v.Int)
	case koopa.KFuncArgRef:
		if v.ArgIndex < 8 {
			if reg != argReg(v.ArgIndex) {
				w.Ins2("mv", reg, argReg(v.ArgIndex))
			}
			return
		}
		loadSlot(w, reg, (v.ArgIndex-8)*4+plan.F, "sp")
	default:
		off, ok := plan.Offsets[v]
		if !ok {
			off = 0
		}
		loadSlot(w, reg, off, "sp")
	}
}

func argReg(i int) string { return scratchOrder[7+i] }

func storeResult(w *util.Writer, plan *frame.Plan, reg string, v *koopa.Value) {
	off, ok := plan.Offsets[v]
	if !ok {
		return
	}
	storeSlot(w, reg, off, "sp")
}

// materializeAddr computes the address denoted by v (an Alloc, GlobalAlloc,
// or a prior GetElemPtr/GetPtr/Load result holding a pointer value) into
// reg.
func materializeAddr(w *util.Writer, plan *frame.Plan, reg string, v *koopa.Value) {
	switch v.Kind {
	case koopa.KAlloc:
		addrOffset(w, reg, "sp", plan.Offsets[v])
	case koopa.KGlobalAlloc:
		w.Write("\tla\t%s, %s\n", reg, stripAt(v.Name))
	default:
		loadSlot(w, reg, plan.Offsets[v], "sp")
	}
}

func genFunc(w *util.Writer, fn *koopa.Function) {
	plan := frame.Compute(fn)
	label := stripAt(fn.Name)
	w.Write(".globl %s\n", label)
	w.Label(label)

	addrOffset(w, "sp", "sp", -plan.F)
	if plan.HasCall {
		storeSlot(w, "ra", plan.F-4, "sp")
	}

	var rc regCounter
	for _, bb := range fn.Blocks {
		w.Label(bb.Label)
		for _, inst := range bb.Insts {
			rc.reset()
			lowerInst(w, plan, &rc, inst)
		}
	}
}

func lowerInst(w *util.Writer, plan *frame.Plan, rc *regCounter, inst *koopa.Value) {
	switch inst.Kind {
	case koopa.KAlloc:
		// No code: the slot was already reserved by the frame planner.
	case koopa.KLoad:
		addr := rc.next()
		materializeAddr(w, plan, addr, inst.Src)
		w.LoadStore("lw", addr, 0, addr)
		storeResult(w, plan, addr, inst)
	case koopa.KStore:
		if inst.StoreVal.Kind == koopa.KZeroInit {
			// Clear every word of the destination object.
			addr := rc.next()
			materializeAddr(w, plan, addr, inst.StoreDst)
			for i := 0; i < inst.StoreVal.Type.Size(); i += 4 {
				w.LoadStore("sw", "zero", 0, addr)
				w.Ins2imm("addi", addr, addr, 4)
			}
			return
		}
		val := rc.next()
		loadOperand(w, plan, val, inst.StoreVal)
		addr := rc.next()
		materializeAddr(w, plan, addr, inst.StoreDst)
		w.LoadStore("sw", val, 0, addr)
	case koopa.KBinary:
		lowerBinary(w, plan, rc, inst)
	case koopa.KBranch:
		cond := rc.next()
		loadOperand(w, plan, cond, inst.Cond)
		w.Write("\tbnez\t%s, %s\n", cond, inst.TrueBB.Label)
		w.Write("\tj\t%s\n", inst.FalseBB.Label)
	case koopa.KJump:
		w.Write("\tj\t%s\n", inst.Target.Label)
	case koopa.KCall:
		lowerCall(w, plan, inst)
	case koopa.KGetElemPtr, koopa.KGetPtr:
		lowerGetPtrLike(w, plan, rc, inst)
	case koopa.KReturn:
		lowerReturn(w, plan, inst)
	default:
		panic("riscv: unknown instruction kind")
	}
}

func lowerBinary(w *util.Writer, plan *frame.Plan, rc *regCounter, inst *koopa.Value) {
	l := rc.next()
	loadOperand(w, plan, l, inst.L)
	r := rc.next()
	loadOperand(w, plan, r, inst.R)
	dst := rc.next()

	switch inst.Op {
	case koopa.OpAdd:
		w.Ins3("add", dst, l, r)
	case koopa.OpSub:
		w.Ins3("sub", dst, l, r)
	case koopa.OpMul:
		w.Ins3("mul", dst, l, r)
	case koopa.OpDiv:
		w.Ins3("div", dst, l, r)
	case koopa.OpMod:
		w.Ins3("rem", dst, l, r)
	case koopa.OpLt:
		w.Ins3("slt", dst, l, r)
	case koopa.OpGt:
		w.Ins3("slt", dst, r, l)
	case koopa.OpLe:
		w.Ins3("slt", dst, r, l)
		w.Ins2imm("xori", dst, dst, 1)
	case koopa.OpGe:
		w.Ins3("slt", dst, l, r)
		w.Ins2imm("xori", dst, dst, 1)
	case koopa.OpEq:
		w.Ins3("xor", dst, l, r)
		w.Ins2("seqz", dst, dst)
	case koopa.OpNotEq:
		w.Ins3("xor", dst, l, r)
		w.Ins2("snez", dst, dst)
	case koopa.OpAnd:
		w.Ins2("snez", l, l)
		w.Ins2("snez", r, r)
		w.Ins3("and", dst, l, r)
	case koopa.OpOr:
		w.Ins3("or", dst, l, r)
		w.Ins2("snez", dst, dst)
	}
	storeResult(w, plan, dst, inst)
}

func lowerCall(w *util.Writer, plan *frame.Plan, inst *koopa.Value) {
	for i, arg := range inst.Args {
		if i < 8 {
			loadOperand(w, plan, argReg(i), arg)
		} else {
			loadOperand(w, plan, "t0", arg)
			w.LoadStore("sw", "t0", (i-8)*4, "sp")
		}
	}
	w.Write("\tcall\t%s\n", stripAt(inst.Callee.Name))
	if inst.Type.Kind != types.Void {
		storeResult(w, plan, "a0", inst)
	}
}

// lowerGetPtrLike lowers both GetElemPtr (stepping through a fixed array
// dimension) and GetPtr (stepping through a decayed pointer's first
// dimension): identical address arithmetic, differing only in how the base
// address was obtained, which materializeAddr already abstracts over.
func lowerGetPtrLike(w *util.Writer, plan *frame.Plan, rc *regCounter, inst *koopa.Value) {
	base := rc.next()
	materializeAddr(w, plan, base, inst.Ptr)
	elemSize := 4 * inst.Type.Dims()

	if inst.Idx.Kind == koopa.KInteger {
		off := inst.Idx.Int * elemSize
		if off != 0 {
			addrOffset(w, base, base, off)
		}
	} else {
		idx := rc.next()
		loadOperand(w, plan, idx, inst.Idx)
		size := rc.next()
		li(w, size, elemSize)
		w.Ins3("mul", idx, idx, size)
		w.Ins3("add", base, base, idx)
	}
	storeResult(w, plan, base, inst)
}

func lowerReturn(w *util.Writer, plan *frame.Plan, inst *koopa.Value) {
	if inst.RetVal != nil {
		loadOperand(w, plan, "a0", inst.RetVal)
	}
	if plan.HasCall {
		loadSlot(w, "ra", plan.F-4, "sp")
	}
	addrOffset(w, "sp", "sp", plan.F)
	w.WriteString("\tret\n")
}

func genGlobal(w *util.Writer, g *koopa.Value) {
	label := stripAt(g.Name)
	w.Write(".globl %s\n", label)
	w.Label(label)
	emitInit(w, g.Init)
}

func emitInit(w *util.Writer, v *koopa.Value) {
	switch v.Kind {
	case koopa.KZeroInit:
		w.Write("\t.zero\t%d\n", v.Type.Size())
	case koopa.KInteger:
		w.Write("\t.word\t%d\n", v.Int)
	case koopa.KAggregate:
		for _, e := range v.Elems {
			emitInit(w, e)
		}
	}
}
