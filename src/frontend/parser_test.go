package frontend

import (
	"testing"

	"sysyc/src/ast"
)

func TestParseSimpleFunction(t *testing.T) {
	src := `int add(int a, int b) {
  return a + b;
}`
	cu, err := Parse(src)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	if len(cu.Items) != 1 {
		t.Fatalf("expected 1 top-level item, got %d", len(cu.Items))
	}
	fn, ok := cu.Items[0].(*ast.FuncDef)
	if !ok {
		t.Fatalf("expected *ast.FuncDef, got %T", cu.Items[0])
	}
	if fn.Name != "add" || fn.RetVoid {
		t.Errorf("unexpected function header: name=%q retVoid=%v", fn.Name, fn.RetVoid)
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Name != "b" {
		t.Fatalf("unexpected params: %+v", fn.Params)
	}
	if len(fn.Body.Items) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fn.Body.Items))
	}
	ret, ok := fn.Body.Items[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected *ast.Return, got %T", fn.Body.Items[0])
	}
	bin, ok := ret.Value.(*ast.Binary)
	if !ok || bin.Op != ast.Add {
		t.Fatalf("expected a+b, got %#v", ret.Value)
	}
}

func TestParseArrayParamAndDecl(t *testing.T) {
	src := `int sum(int n, int a[]) {
  int i = 0;
  int total = 0;
  while (i < n) {
    total = total + a[i];
    i = i + 1;
  }
  return total;
}`
	cu, err := Parse(src)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	fn := cu.Items[0].(*ast.FuncDef)
	if !fn.Params[1].Array {
		t.Fatalf("expected a to be an array param")
	}
	if len(fn.Body.Items) != 4 {
		t.Fatalf("expected 4 body items, got %d", len(fn.Body.Items))
	}
	w, ok := fn.Body.Items[2].(*ast.While)
	if !ok {
		t.Fatalf("expected *ast.While, got %T", fn.Body.Items[2])
	}
	block, ok := w.Body.(*ast.Block)
	if !ok || len(block.Items) != 2 {
		t.Fatalf("expected while body block with 2 statements, got %#v", w.Body)
	}
}

func TestParseGlobalArrayInit(t *testing.T) {
	src := `int a[2][3] = {{1, 2, 3}, {4, 5, 6}};`
	cu, err := Parse(src)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	decl := cu.Items[0].(*ast.Decl)
	if decl.Kind != ast.DeclVar || len(decl.Defs) != 1 {
		t.Fatalf("unexpected decl: %+v", decl)
	}
	def := decl.Defs[0]
	if len(def.Shape) != 2 {
		t.Fatalf("expected 2 dimensions, got %d", len(def.Shape))
	}
	il, ok := def.Init.(*ast.InitList)
	if !ok || len(il.Elements) != 2 {
		t.Fatalf("expected outer init list with 2 elements, got %#v", def.Init)
	}
	inner, ok := il.Elements[0].(*ast.InitList)
	if !ok || len(inner.Elements) != 3 {
		t.Fatalf("expected inner init list with 3 elements, got %#v", il.Elements[0])
	}
}

func TestParseIfElseAndShortCircuit(t *testing.T) {
	src := `int f(int a, int b) {
  if (a < b && b < 10) {
    return 1;
  } else {
    return 0;
  }
}`
	cu, err := Parse(src)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	fn := cu.Items[0].(*ast.FuncDef)
	ifStmt, ok := fn.Body.Items[0].(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If, got %T", fn.Body.Items[0])
	}
	if ifStmt.Else == nil {
		t.Fatalf("expected an else branch")
	}
	cond, ok := ifStmt.Cond.(*ast.Binary)
	if !ok || cond.Op != ast.LAnd {
		t.Fatalf("expected top-level && in condition, got %#v", ifStmt.Cond)
	}
}

func TestParseRejectsAssignToNonLVal(t *testing.T) {
	src := `int f() { 1 + 1 = 2; }`
	if _, err := Parse(src); err == nil {
		t.Fatalf("expected a parse error assigning to a non-lvalue")
	}
}
