package pyast

import "fmt"

// SyntaxError reports source text the Python grammar could not parse.
type SyntaxError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: syntax error: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: syntax error: %s", e.Path, e.Line, e.Column, e.Message)
}
