package frontend

import "testing"

// TestLexer checks token type/value output on a small SysY snippet
// exercising identifiers, keywords, numeric bases and multi-char
// operators against one golden token stream.
func TestLexer(t *testing.T) {
	src := "int main() {\n  const int n = 0x1F;\n  return n <= 10 && n != 0;\n}\n"
	toks, err := lex(src)
	if err != nil {
		t.Fatalf("lex error: %s", err)
	}

	exp := []struct {
		typ tokenType
		val string
	}{
		{tKwInt, "int"}, {tIdent, "main"}, {tLParen, "("}, {tRParen, ")"}, {tLBrace, "{"},
		{tKwConst, "const"}, {tKwInt, "int"}, {tIdent, "n"}, {tAssign, "="}, {tNumber, "0x1F"}, {tSemi, ";"},
		{tKwReturn, "return"}, {tIdent, "n"}, {tLe, "<="}, {tNumber, "10"}, {tAndAnd, "&&"},
		{tIdent, "n"}, {tNe, "!="}, {tNumber, "0"}, {tSemi, ";"},
		{tRBrace, "}"}, {tEOF, ""},
	}

	if len(toks) != len(exp) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(exp), len(toks), toks)
	}
	for i, e := range exp {
		if toks[i].typ != e.typ || toks[i].val != e.val {
			t.Errorf("token %d: expected {%d %q}, got {%d %q}", i, e.typ, e.val, toks[i].typ, toks[i].val)
		}
	}
}

func TestLexerSkipsComments(t *testing.T) {
	src := "int x; // line comment\n/* block\ncomment */ int y;"
	toks, err := lex(src)
	if err != nil {
		t.Fatalf("lex error: %s", err)
	}
	var kept []tokenType
	for _, tok := range toks {
		kept = append(kept, tok.typ)
	}
	want := []tokenType{tKwInt, tIdent, tSemi, tKwInt, tIdent, tSemi, tEOF}
	if len(kept) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(kept))
	}
	for i := range want {
		if kept[i] != want[i] {
			t.Errorf("token %d: expected %d, got %d", i, want[i], kept[i])
		}
	}
}

func TestParseNumberLiteralBases(t *testing.T) {
	cases := map[string]int{"10": 10, "010": 8, "0": 0, "0x10": 16, "0X1F": 31}
	for lit, want := range cases {
		got, err := parseNumberLiteral(lit)
		if err != nil {
			t.Fatalf("parseNumberLiteral(%q): %s", lit, err)
		}
		if got != want {
			t.Errorf("parseNumberLiteral(%q) = %d, want %d", lit, got, want)
		}
	}
}
