package util

import "fmt"

// CompileError is a one-line diagnostic referencing the offending source
// construct by line:pos.
type CompileError struct {
	Line int
	Pos  int
	Msg  string
}

func (e *CompileError) Error() string {
	if e.Line == 0 && e.Pos == 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Pos, e.Msg)
}

// Errorf builds a CompileError with a formatted message.
func Errorf(line, pos int, format string, args ...interface{}) error {
	return &CompileError{Line: line, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
