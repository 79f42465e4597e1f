package analyzer

import (
	"fmt"
)

// SyntaxError occurs when the playground text is not a valid module.
// Line and Column are zero-based; Column counts UTF-16 code units.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line+1, e.Column+1, e.Msg)
}
