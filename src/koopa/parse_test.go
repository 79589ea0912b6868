package koopa

import (
	"testing"

	"sysyc/src/frontend"
)

// TestRoundTripStructuralEquivalence checks the round-trip property:
// Print -> Parse -> Print produces byte-identical text, proving parse.go's
// thin text parser recovers exactly what print.go emitted.
func TestRoundTripStructuralEquivalence(t *testing.T) {
	src := `int g[3] = {1, 2, 3};

int add(int a, int b) {
  return a + b;
}

int main() {
  int i = 0;
  int total = 0;
  while (i < 3) {
    total = total + g[i];
    i = i + 1;
  }
  if (total > 5) {
    return add(total, 1);
  } else {
    return total;
  }
}`
	cu, err := frontend.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	prog, err := EmitCompUnit(cu)
	if err != nil {
		t.Fatalf("emit error: %s", err)
	}

	first := Print(prog)
	reparsed, err := Parse(first)
	if err != nil {
		t.Fatalf("koopa text parse error: %s\n--- text ---\n%s", err, first)
	}
	second := Print(reparsed)

	if first != second {
		t.Fatalf("round trip mismatch:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

func TestPrintIncludesLibraryDecls(t *testing.T) {
	prog := emitSource(t, "int main() { return 0; }")
	out := Print(prog)
	for _, name := range []string{"getint", "putint", "getarray", "putarray", "starttime", "stoptime"} {
		if !containsDecl(out, name) {
			t.Errorf("expected a decl for %q in output:\n%s", name, out)
		}
	}
}

func containsDecl(text, name string) bool {
	return indexOf(text, "decl @"+name+"(") >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
