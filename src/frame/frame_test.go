package frame

import (
	"testing"

	"sysyc/src/koopa"
	"sysyc/src/types"
)

func alloc(t *types.Type) *koopa.Value {
	return &koopa.Value{Kind: koopa.KAlloc, Type: t}
}

// TestComputeNoLocalsStillAligns checks that a function with no locals and
// no calls still gets a positive 16-byte-aligned frame.
func TestComputeNoLocalsStillAligns(t *testing.T) {
	fn := &koopa.Function{
		Blocks: []*koopa.BasicBlock{
			{Label: "entry", Insts: []*koopa.Value{{Kind: koopa.KReturn}}},
		},
	}
	p := Compute(fn)
	if p.F <= 0 || p.F%16 != 0 {
		t.Fatalf("expected a positive multiple of 16, got %d", p.F)
	}
	if p.HasCall {
		t.Errorf("expected HasCall=false")
	}
}

// TestComputeLocalsAndCallReservesRA checks that a function containing a
// call reserves the return-address slot and that locals receive
// increasing, non-overlapping offsets starting after the outgoing-args
// area.
func TestComputeLocalsAndCallReservesRA(t *testing.T) {
	a1 := alloc(types.I32)
	a2 := alloc(types.I32)
	call := &koopa.Value{Kind: koopa.KCall, Type: types.I32, Args: []*koopa.Value{{Kind: koopa.KInteger, Int: 1}}}
	ret := &koopa.Value{Kind: koopa.KReturn}
	fn := &koopa.Function{
		Blocks: []*koopa.BasicBlock{
			{Label: "entry", Insts: []*koopa.Value{a1, a2, call, ret}},
		},
	}
	p := Compute(fn)
	if !p.HasCall {
		t.Fatalf("expected HasCall=true")
	}
	if p.A != 0 {
		t.Fatalf("expected no outgoing-arg area for a single-arg call, got A=%d", p.A)
	}
	o1, ok1 := p.Offsets[a1]
	o2, ok2 := p.Offsets[a2]
	oc, okc := p.Offsets[call]
	if !ok1 || !ok2 || !okc {
		t.Fatalf("expected offsets for both allocs and the call result, got %+v", p.Offsets)
	}
	if o1 == o2 || o1 == oc || o2 == oc {
		t.Fatalf("expected distinct offsets, got a1=%d a2=%d call=%d", o1, o2, oc)
	}
	// S = 3 words = 12, R = 4, A = 0 -> total 16 -> F = 16.
	if p.F != 16 {
		t.Fatalf("expected F=16, got %d", p.F)
	}
}

// TestComputeManyCallArgsGrowsOutgoingArea checks that a call with more
// than 8 arguments grows the outgoing-argument area A.
func TestComputeManyCallArgsGrowsOutgoingArea(t *testing.T) {
	args := make([]*koopa.Value, 10)
	for i := range args {
		args[i] = &koopa.Value{Kind: koopa.KInteger, Int: i}
	}
	call := &koopa.Value{Kind: koopa.KCall, Type: types.Unit, Args: args}
	fn := &koopa.Function{
		Blocks: []*koopa.BasicBlock{
			{Label: "entry", Insts: []*koopa.Value{call, {Kind: koopa.KReturn}}},
		},
	}
	p := Compute(fn)
	if p.A != 8 { // 2 extra args * 4 bytes
		t.Fatalf("expected A=8 for 2 extra args, got %d", p.A)
	}
}

// TestComputeArrayAllocSizedByDimensionProduct checks that an alloc of an
// array type reserves 4 bytes per flattened element, not 4 bytes flat.
func TestComputeArrayAllocSizedByDimensionProduct(t *testing.T) {
	arrType := types.NewArray([]int{2, 3}, types.I32)
	a := alloc(arrType)
	fn := &koopa.Function{
		Blocks: []*koopa.BasicBlock{
			{Label: "entry", Insts: []*koopa.Value{a, {Kind: koopa.KReturn}}},
		},
	}
	p := Compute(fn)
	// S = 6 words = 24 bytes, R = 0, A = 0 -> total 24 -> F = 32 (next multiple of 16).
	if p.F != 32 {
		t.Fatalf("expected F=32 for a 2x3 array frame, got %d", p.F)
	}
}
