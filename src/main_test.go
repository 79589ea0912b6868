package main

import (
	"os"
	"strings"
	"testing"

	"sysyc/src/util"
)

// TestRunKoopaMode exercises the full pipeline end-to-end through run().
func TestRunKoopaMode(t *testing.T) {
	opt := util.Options{Mode: util.ModeKoopa}
	opt.Src = writeTempSource(t, "int main() { return 1 + 2; }")
	out, err := run(opt)
	if err != nil {
		t.Fatalf("run error: %s", err)
	}
	if !strings.Contains(out, "fun @main") {
		t.Errorf("expected a main function definition in koopa output:\n%s", out)
	}
	if !strings.Contains(out, "ret 3") {
		t.Errorf("expected the constant-folded return in koopa output:\n%s", out)
	}
}

func TestRunRiscvMode(t *testing.T) {
	opt := util.Options{Mode: util.ModeRiscv}
	opt.Src = writeTempSource(t, "int main() { return 1 + 2; }")
	out, err := run(opt)
	if err != nil {
		t.Fatalf("run error: %s", err)
	}
	if !strings.Contains(out, ".globl main") {
		t.Errorf("expected a .globl main directive in riscv output:\n%s", out)
	}
}

func TestRunTokenStreamMode(t *testing.T) {
	opt := util.Options{TokenStream: true}
	opt.Src = writeTempSource(t, "int main() { return 0; }")
	out, err := run(opt)
	if err != nil {
		t.Fatalf("run error: %s", err)
	}
	if !strings.Contains(out, "int") {
		t.Errorf("expected the token stream to include the 'int' keyword:\n%s", out)
	}
}

func TestRunParseErrorIsReported(t *testing.T) {
	opt := util.Options{Mode: util.ModeKoopa}
	opt.Src = writeTempSource(t, "int main() { return 1 +; }")
	if _, err := run(opt); err == nil {
		t.Fatalf("expected a parse error for a dangling '+' with no right-hand operand")
	}
}

func writeTempSource(t *testing.T, src string) string {
	t.Helper()
	f := t.TempDir() + "/input.sy"
	if err := os.WriteFile(f, []byte(src), 0644); err != nil {
		t.Fatalf("could not write temp source: %s", err)
	}
	return f
}
