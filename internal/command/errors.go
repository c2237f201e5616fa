package command

import (
	"errors"
	"fmt"
)

// ErrInvalidCommand is matched by every *ParseError via errors.Is.
var ErrInvalidCommand = errors.New("invalid command")

// ErrorKind classifies a ParseError.
type ErrorKind string

const (
	KindEmpty       ErrorKind = "empty"
	KindMixedSyntax ErrorKind = "mixed_syntax"
	KindSyntax      ErrorKind = "syntax"
	KindValidation  ErrorKind = "validation"
)

// ParseError describes why a command was rejected. Line is 1-indexed and
// zero when the problem is not tied to a single line.
type ParseError struct {
	Line    int       `json:"line,omitempty"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("Line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidCommand
}

func syntaxErr(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Kind: KindSyntax, Message: fmt.Sprintf(format, args...)}
}

func validationErr(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}
