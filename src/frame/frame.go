// Package frame implements the per-function stack-frame planner: it walks
// a function's raw IR once to size the three frame areas (locals, saved
// return address, outgoing call arguments) and records the slot offset
// assigned to every IR value that needs one, ahead of code generation.
package frame

import (
	"sysyc/src/koopa"
	"sysyc/src/types"
)

const wordSize = 4
const stackAlign = 16
const argRegs = 8 // a0..a7

// Plan is the result of planning one function's stack frame.
type Plan struct {
	F       int // Total frame size in bytes, a positive multiple of 16.
	A       int // Outgoing-argument area size; local slots start at this offset.
	HasCall bool
	Offsets map[*koopa.Value]int // Slot offset (relative to sp) for each IR value that owns one.
}

// Compute plans the stack frame for fn.
func Compute(fn *koopa.Function) *Plan {
	hasCall := false
	maxExtraArgs := 0
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Insts {
			if inst.Kind == koopa.KCall {
				hasCall = true
				extra := len(inst.Args) - argRegs
				if extra > maxExtraArgs {
					maxExtraArgs = extra
				}
			}
		}
	}

	a := 0
	if maxExtraArgs > 0 {
		a = wordSize * maxExtraArgs
	}
	r := 0
	if hasCall {
		r = wordSize
	}

	offsets := make(map[*koopa.Value]int)
	offset := a
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Insts {
			sz := slotSize(inst)
			if sz == 0 {
				continue
			}
			offsets[inst] = offset
			offset += sz
		}
	}
	s := offset - a

	total := s + r + a
	f := ((total + stackAlign - 1) / stackAlign) * stackAlign
	if f == 0 {
		f = stackAlign
	}

	return &Plan{F: f, A: a, HasCall: hasCall, Offsets: offsets}
}

// slotSize returns the number of bytes inst's result occupies in the
// frame: 4 × the flattened element count for an alloc, 4 bytes for any
// other instruction producing a non-unit value, or 0 for void-producing
// instructions (store, branch, jump, return, void call).
func slotSize(inst *koopa.Value) int {
	if inst.Kind == koopa.KAlloc {
		return wordSize * inst.Type.Dims()
	}
	if inst.Type == nil || inst.Type.Kind == types.Void {
		return 0
	}
	return wordSize
}
