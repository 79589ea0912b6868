package koopa

import (
	"fmt"
	"strconv"
	"strings"

	"sysyc/src/types"
)

// Parse reads the textual Koopa IR emitted by Print back into a raw IR
// Program, closing the loop for anything that only has the text (the
// round-trip tests are its only caller). It is intentionally a
// thin reader of exactly the grammar Print produces and is not part of
// the main compile pipeline, which builds the raw IR directly from the
// AST in the same pass that renders the text.
func Parse(text string) (*Program, error) {
	lines := strings.Split(text, "\n")
	prog := &Program{}
	funcsByName := map[string]*Function{}
	globalsByName := map[string]*Value{}

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "":
			i++
		case strings.HasPrefix(line, "decl "):
			fn, err := parseDeclLine(line)
			if err != nil {
				return nil, err
			}
			prog.Funcs = append(prog.Funcs, fn)
			funcsByName[fn.Name] = fn
			i++
		case strings.HasPrefix(line, "global "):
			g, err := parseGlobalLine(line)
			if err != nil {
				return nil, err
			}
			prog.Globals = append(prog.Globals, g)
			globalsByName[g.Name] = g
			i++
		case strings.HasPrefix(line, "fun "):
			fn, consumed, err := parseFunc(lines[i:], funcsByName, globalsByName)
			if err != nil {
				return nil, err
			}
			prog.Funcs = append(prog.Funcs, fn)
			funcsByName[fn.Name] = fn
			i += consumed
		default:
			return nil, fmt.Errorf("koopa: parse: unexpected line %q", line)
		}
	}
	return prog, nil
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// [...] or {...}.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// parseType parses the Koopa type syntax: "i32", "*T", "[T, N]", or "" for
// void.
func parseType(s string) *types.Type {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return types.Unit
	case s == "i32":
		return types.I32
	case strings.HasPrefix(s, "*"):
		return types.NewPointer(parseType(s[1:]))
	case strings.HasPrefix(s, "["):
		inner := s[1 : len(s)-1]
		parts := splitTopLevel(inner, ',')
		elemStr := strings.TrimSpace(parts[0])
		n, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
		return &types.Type{Kind: types.Array, Len: n, Elem: parseType(elemStr)}
	default:
		return types.I32
	}
}

// splitSig splits "@name(params)[: ret]" into its three parts.
func splitSig(s string) (name, params, ret string) {
	parenStart := strings.Index(s, "(")
	name = strings.TrimSpace(s[:parenStart])
	parenEnd := strings.LastIndex(s, ")")
	params = s[parenStart+1 : parenEnd]
	rest := strings.TrimSpace(s[parenEnd+1:])
	if strings.HasPrefix(rest, ":") {
		ret = strings.TrimSpace(rest[1:])
	}
	return
}

func parseTypeList(s string) []*types.Type {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := splitTopLevel(s, ',')
	out := make([]*types.Type, len(parts))
	for i, p := range parts {
		out[i] = parseType(strings.TrimSpace(p))
	}
	return out
}

func parseRetPart(ret string) *types.Type {
	if ret == "" {
		return types.Unit
	}
	return parseType(ret)
}

func parseDeclLine(line string) (*Function, error) {
	line = strings.TrimPrefix(line, "decl ")
	name, paramPart, retPart := splitSig(line)
	return &Function{Name: name, ParamTys: parseTypeList(paramPart), RetType: parseRetPart(retPart), IsDecl: true}, nil
}

func parseGlobalLine(line string) (*Value, error) {
	line = strings.TrimPrefix(line, "global ")
	eq := strings.Index(line, "=")
	if eq < 0 {
		return nil, fmt.Errorf("koopa: parse: malformed global line %q", line)
	}
	name := strings.TrimSpace(line[:eq])
	rhs := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[eq+1:]), "alloc "))
	parts := splitTopLevel(rhs, ',')
	if len(parts) < 2 {
		return nil, fmt.Errorf("koopa: parse: malformed global line %q", line)
	}
	t := parseType(parts[0])
	initStr := strings.TrimSpace(strings.Join(parts[1:], ","))
	return &Value{Kind: KGlobalAlloc, Name: name, Type: t, Init: parseInitLiteral(initStr, t)}, nil
}

func parseInitLiteral(s string, t *types.Type) *Value {
	s = strings.TrimSpace(s)
	if s == "zeroinit" {
		return &Value{Kind: KZeroInit, Type: t}
	}
	if strings.HasPrefix(s, "{") {
		inner := s[1 : len(s)-1]
		parts := splitTopLevel(inner, ',')
		elems := make([]*Value, len(parts))
		for i, p := range parts {
			elems[i] = parseInitLiteral(strings.TrimSpace(p), t.Elem)
		}
		return &Value{Kind: KAggregate, Elems: elems, Type: t}
	}
	v, _ := strconv.Atoi(s)
	return &Value{Kind: KInteger, Int: v, Type: types.I32}
}

func parseFunc(lines []string, funcsByName map[string]*Function, globalsByName map[string]*Value) (*Function, int, error) {
	header := strings.TrimSpace(lines[0])
	header = strings.TrimSuffix(strings.TrimSpace(header), "{")
	header = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "fun "))

	name, paramPart, retPart := splitSig(header)
	retType := parseRetPart(retPart)

	valueMap := map[string]*Value{}
	var paramTys []*types.Type
	var params []*Value
	paramPart = strings.TrimSpace(paramPart)
	if paramPart != "" {
		for i, ps := range splitTopLevel(paramPart, ',') {
			ps = strings.TrimSpace(ps)
			colon := strings.Index(ps, ":")
			pname := strings.TrimSpace(ps[:colon])
			pty := parseType(ps[colon+1:])
			paramTys = append(paramTys, pty)
			argRef := &Value{Kind: KFuncArgRef, Name: pname, Type: pty, ArgIndex: i}
			params = append(params, argRef)
			valueMap[pname] = argRef
		}
	}

	fn := &Function{Name: name, Params: params, ParamTys: paramTys, RetType: retType}

	end := 1
	for end < len(lines) && strings.TrimSpace(lines[end]) != "}" {
		end++
	}
	body := lines[1:end]

	var blocks []*BasicBlock
	blockMap := map[string]*BasicBlock{}
	for _, raw := range body {
		if raw == "" || strings.HasPrefix(raw, "  ") {
			continue
		}
		lbl := strings.TrimPrefix(strings.TrimSuffix(strings.TrimSpace(raw), ":"), "%")
		bb := &BasicBlock{Label: lbl}
		blocks = append(blocks, bb)
		blockMap[lbl] = bb
	}
	fn.Blocks = blocks

	var cur *BasicBlock
	for _, raw := range body {
		if raw == "" {
			continue
		}
		if !strings.HasPrefix(raw, "  ") {
			lbl := strings.TrimPrefix(strings.TrimSuffix(strings.TrimSpace(raw), ":"), "%")
			cur = blockMap[lbl]
			continue
		}
		v, err := parseInst(strings.TrimSpace(raw), valueMap, globalsByName, funcsByName, blockMap)
		if err != nil {
			return nil, 0, err
		}
		if v != nil {
			cur.Insts = append(cur.Insts, v)
			if v.Name != "" {
				valueMap[v.Name] = v
			}
		}
	}
	return fn, end + 1, nil
}

func resolveOperand(tok string, valueMap, globalsByName map[string]*Value) (*Value, error) {
	tok = strings.TrimSpace(tok)
	if v, ok := valueMap[tok]; ok {
		return v, nil
	}
	if v, ok := globalsByName[tok]; ok {
		return v, nil
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return nil, fmt.Errorf("koopa: parse: unknown operand %q", tok)
	}
	return &Value{Kind: KInteger, Int: n, Type: types.I32}, nil
}

func parseInst(line string, valueMap, globalsByName map[string]*Value, funcsByName map[string]*Function, blockMap map[string]*BasicBlock) (*Value, error) {
	switch {
	case strings.HasPrefix(line, "br "):
		parts := splitTopLevel(strings.TrimPrefix(line, "br "), ',')
		cond, err := resolveOperand(parts[0], valueMap, globalsByName)
		if err != nil {
			return nil, err
		}
		tb := blockMap[strings.TrimPrefix(strings.TrimSpace(parts[1]), "%")]
		fb := blockMap[strings.TrimPrefix(strings.TrimSpace(parts[2]), "%")]
		return &Value{Kind: KBranch, Cond: cond, TrueBB: tb, FalseBB: fb}, nil

	case strings.HasPrefix(line, "jump "):
		lbl := strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(line, "jump ")), "%")
		return &Value{Kind: KJump, Target: blockMap[lbl]}, nil

	case strings.HasPrefix(line, "store "):
		parts := splitTopLevel(strings.TrimPrefix(line, "store "), ',')
		if strings.TrimSpace(parts[0]) == "zeroinit" {
			dst, err := resolveOperand(parts[1], valueMap, globalsByName)
			if err != nil {
				return nil, err
			}
			return &Value{Kind: KStore, StoreVal: &Value{Kind: KZeroInit, Type: dst.Type}, StoreDst: dst}, nil
		}
		val, err := resolveOperand(parts[0], valueMap, globalsByName)
		if err != nil {
			return nil, err
		}
		dst, err := resolveOperand(parts[1], valueMap, globalsByName)
		if err != nil {
			return nil, err
		}
		return &Value{Kind: KStore, StoreVal: val, StoreDst: dst}, nil

	case strings.HasPrefix(line, "ret"):
		rest := strings.TrimSpace(strings.TrimPrefix(line, "ret"))
		if rest == "" {
			return &Value{Kind: KReturn}, nil
		}
		v, err := resolveOperand(rest, valueMap, globalsByName)
		if err != nil {
			return nil, err
		}
		return &Value{Kind: KReturn, RetVal: v}, nil

	case strings.HasPrefix(line, "call "):
		return parseCall(line, "", valueMap, globalsByName, funcsByName)
	}

	eq := strings.Index(line, "=")
	if eq < 0 {
		return nil, fmt.Errorf("koopa: parse: unrecognised instruction %q", line)
	}
	name := strings.TrimSpace(line[:eq])
	rhs := strings.TrimSpace(line[eq+1:])
	switch {
	case strings.HasPrefix(rhs, "alloc "):
		return &Value{Kind: KAlloc, Name: name, Type: parseType(strings.TrimPrefix(rhs, "alloc "))}, nil
	case strings.HasPrefix(rhs, "load "):
		src, err := resolveOperand(strings.TrimPrefix(rhs, "load "), valueMap, globalsByName)
		if err != nil {
			return nil, err
		}
		return &Value{Kind: KLoad, Name: name, Src: src, Type: src.Type}, nil
	case strings.HasPrefix(rhs, "call "):
		return parseCall(rhs, name, valueMap, globalsByName, funcsByName)
	case strings.HasPrefix(rhs, "getelemptr "):
		return parseGetPtrLike(KGetElemPtr, name, strings.TrimPrefix(rhs, "getelemptr "), valueMap, globalsByName)
	case strings.HasPrefix(rhs, "getptr "):
		return parseGetPtrLike(KGetPtr, name, strings.TrimPrefix(rhs, "getptr "), valueMap, globalsByName)
	default:
		return parseBinary(name, rhs, valueMap, globalsByName)
	}
}

func parseCall(s, name string, valueMap, globalsByName map[string]*Value, funcsByName map[string]*Function) (*Value, error) {
	s = strings.TrimPrefix(s, "call ")
	paren := strings.Index(s, "(")
	calleeName := strings.TrimSpace(s[:paren])
	argsStr := s[paren+1 : strings.LastIndex(s, ")")]
	fn, ok := funcsByName[calleeName]
	if !ok {
		return nil, fmt.Errorf("koopa: parse: unknown function %q", calleeName)
	}
	var args []*Value
	if strings.TrimSpace(argsStr) != "" {
		for _, a := range splitTopLevel(argsStr, ',') {
			v, err := resolveOperand(a, valueMap, globalsByName)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
	}
	return &Value{Kind: KCall, Name: name, Callee: fn, Args: args, Type: fn.RetType}, nil
}

func parseGetPtrLike(kind ValueKind, name, rest string, valueMap, globalsByName map[string]*Value) (*Value, error) {
	parts := splitTopLevel(rest, ',')
	ptr, err := resolveOperand(parts[0], valueMap, globalsByName)
	if err != nil {
		return nil, err
	}
	idx, err := resolveOperand(parts[1], valueMap, globalsByName)
	if err != nil {
		return nil, err
	}
	elemType := ptr.Type
	switch {
	case ptr.Type.Kind == types.Array:
		elemType = ptr.Type.Elem
	case kind == KGetPtr && ptr.Type.Kind == types.Pointer:
		elemType = ptr.Type.Elem
	}
	return &Value{Kind: kind, Name: name, Ptr: ptr, Idx: idx, Type: elemType}, nil
}

var opByName = func() map[string]BinOp {
	m := make(map[string]BinOp, len(binOpNames))
	for op, s := range binOpNames {
		m[s] = op
	}
	return m
}()

func parseBinary(name, rhs string, valueMap, globalsByName map[string]*Value) (*Value, error) {
	sp := strings.Index(rhs, " ")
	if sp < 0 {
		return nil, fmt.Errorf("koopa: parse: malformed instruction %q", rhs)
	}
	opName := rhs[:sp]
	op, ok := opByName[opName]
	if !ok {
		return nil, fmt.Errorf("koopa: parse: unknown operator %q", opName)
	}
	parts := splitTopLevel(strings.TrimSpace(rhs[sp+1:]), ',')
	l, err := resolveOperand(parts[0], valueMap, globalsByName)
	if err != nil {
		return nil, err
	}
	r, err := resolveOperand(parts[1], valueMap, globalsByName)
	if err != nil {
		return nil, err
	}
	return &Value{Kind: KBinary, Name: name, Op: op, L: l, R: r, Type: types.I32}, nil
}
