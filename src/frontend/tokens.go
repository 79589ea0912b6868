package frontend

import "fmt"

var tokenNames = map[tokenType]string{
	tEOF: "eof", tIdent: "ident", tNumber: "number",
	tKwInt: "int", tKwVoid: "void", tKwConst: "const",
	tKwIf: "if", tKwElse: "else", tKwWhile: "while",
	tKwBreak: "break", tKwContinue: "continue", tKwReturn: "return",
	tLParen: "(", tRParen: ")", tLBrace: "{", tRBrace: "}",
	tLBracket: "[", tRBracket: "]", tSemi: ";", tComma: ",", tAssign: "=",
	tPlus: "+", tMinus: "-", tStar: "*", tSlash: "/", tPercent: "%",
	tLt: "<", tGt: ">", tLe: "<=", tGe: ">=", tEqEq: "==", tNe: "!=",
	tAndAnd: "&&", tOrOr: "||", tNot: "!",
}

// TokenStream lexes src and returns one "line:col type val" line per
// token, satisfying the -ts diagnostic mode described alongside
// util.Options.TokenStream.
func TokenStream(src string) (string, error) {
	toks, err := lex(src)
	if err != nil {
		return "", err
	}
	out := ""
	for _, t := range toks {
		if t.typ == tEOF {
			continue
		}
		out += fmt.Sprintf("%d:%d\t%s\t%s\n", t.line, t.col, tokenNames[t.typ], t.val)
	}
	return out, nil
}
