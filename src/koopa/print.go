package koopa

import (
	"strconv"
	"strings"

	"sysyc/src/types"
	"sysyc/src/util"
)

// Print renders p as textual Koopa IR: library decls, then globals, then
// function bodies, in that order. It builds the text through util.Writer,
// the same buffer type the RISC-V backend writes to.
func Print(p *Program) string {
	w := &util.Writer{}

	for _, fn := range p.Funcs {
		if fn.IsDecl {
			printDecl(w, fn)
		}
	}
	if len(p.Funcs) > 0 {
		w.WriteString("\n")
	}

	for _, g := range p.Globals {
		printGlobal(w, g)
	}
	if len(p.Globals) > 0 {
		w.WriteString("\n")
	}

	first := true
	for _, fn := range p.Funcs {
		if fn.IsDecl {
			continue
		}
		if !first {
			w.WriteString("\n")
		}
		first = false
		printFunc(w, fn)
	}
	return w.String()
}

func printDecl(w *util.Writer, fn *Function) {
	w.Write("decl %s(%s)%s\n", fn.Name, joinTypes(fn.ParamTys), retSuffix(fn.RetType))
}

func printGlobal(w *util.Writer, g *Value) {
	w.Write("global %s = alloc %s, %s\n", g.Name, g.Type.String(), printInit(g.Init))
}

func printFunc(w *util.Writer, fn *Function) {
	w.Write("fun %s(%s)%s {\n", fn.Name, joinParams(fn), retSuffix(fn.RetType))
	for _, bb := range fn.Blocks {
		w.Write("%%%s:\n", bb.Label)
		for _, inst := range bb.Insts {
			w.WriteString("  ")
			printInst(w, inst)
		}
	}
	w.WriteString("}\n")
}

func joinTypes(tys []*types.Type) string {
	parts := make([]string, len(tys))
	for i, t := range tys {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func joinParams(fn *Function) string {
	parts := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		parts[i] = p.Name + ": " + fn.ParamTys[i].String()
	}
	return strings.Join(parts, ", ")
}

func retSuffix(t *types.Type) string {
	if t.Kind == types.Void {
		return ""
	}
	return ": " + t.String()
}

func printInit(v *Value) string {
	switch v.Kind {
	case KZeroInit:
		return "zeroinit"
	case KInteger:
		return strconv.Itoa(v.Int)
	case KAggregate:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = printInit(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}

// operand renders v as it appears in an instruction's argument position.
func operand(v *Value) string {
	if v.Kind == KInteger {
		return strconv.Itoa(v.Int)
	}
	if v.Kind == KZeroInit {
		return "zeroinit"
	}
	return v.Name
}

func printInst(w *util.Writer, v *Value) {
	switch v.Kind {
	case KAlloc:
		w.Write("%s = alloc %s\n", v.Name, v.Type.String())
	case KLoad:
		w.Write("%s = load %s\n", v.Name, operand(v.Src))
	case KStore:
		w.Write("store %s, %s\n", operand(v.StoreVal), operand(v.StoreDst))
	case KBinary:
		w.Write("%s = %s %s, %s\n", v.Name, binOpNames[v.Op], operand(v.L), operand(v.R))
	case KBranch:
		w.Write("br %s, %%%s, %%%s\n", operand(v.Cond), v.TrueBB.Label, v.FalseBB.Label)
	case KJump:
		w.Write("jump %%%s\n", v.Target.Label)
	case KCall:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = operand(a)
		}
		call := v.Callee.Name + "(" + strings.Join(args, ", ") + ")"
		if v.Name != "" {
			w.Write("%s = call %s\n", v.Name, call)
		} else {
			w.Write("call %s\n", call)
		}
	case KReturn:
		if v.RetVal != nil {
			w.Write("ret %s\n", operand(v.RetVal))
		} else {
			w.WriteString("ret\n")
		}
	case KGetElemPtr:
		w.Write("%s = getelemptr %s, %s\n", v.Name, operand(v.Ptr), operand(v.Idx))
	case KGetPtr:
		w.Write("%s = getptr %s, %s\n", v.Name, operand(v.Ptr), operand(v.Idx))
	default:
		w.Write("; unknown instruction kind %d\n", int(v.Kind))
	}
}

