package model

import (
	"errors"
	"fmt"
)

// ErrOutsideModule is returned when a path handed to Module.Add does not
// live under the module's directory.
var ErrOutsideModule = errors.New("path is outside the module directory")

// NotAFileError reports a path that does not name an existing regular file.
type NotAFileError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *NotAFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: not a file: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: not a regular file", e.Path)
}

// Unwrap returns the underlying error.
func (e *NotAFileError) Unwrap() error {
	return e.Err
}

// UnsupportedAnnotationError reports a type hint whose expression kind has
// no Annotation form.
type UnsupportedAnnotationError struct {
	Path   string
	Line   int
	Column int
	Kind   string
	Text   string
}

// Error implements the error interface.
func (e *UnsupportedAnnotationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: unsupported annotation %s: %s", e.Path, e.Line, e.Column, e.Kind, e.Text)
}

// InvariantError reports a definition the model cannot represent
// faithfully, such as a parameter list whose defaults do not line up.
type InvariantError struct {
	Path    string
	Line    int
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}
