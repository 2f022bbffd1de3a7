package main

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies compilation failures.
type ErrorKind int

const (
	ErrSyntax             ErrorKind = iota + 1 // expected-token mismatch
	ErrUndeclared                              // variable used or assigned before declaration
	ErrRegistersExhausted                      // no free scratch register
	ErrArity                                   // argument count differs from the callee's parameters
	ErrUnsupported                             // construct the target cannot encode
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "syntax error"
	case ErrUndeclared:
		return "undeclared identifier"
	case ErrRegistersExhausted:
		return "out of registers"
	case ErrArity:
		return "wrong argument count"
	case ErrUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// Error makes a bare kind usable as an errors.Is target.
func (k ErrorKind) Error() string {
	return k.String()
}

// CompileError is a single diagnostic.
type CompileError struct {
	Kind ErrorKind
	Line int // 0 when unknown
	Msg  string
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *CompileError) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.Kind
}

func errorf(kind ErrorKind, line int, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// withLine fills in the line of a CompileError that was raised without one.
func withLine(err error, line int) error {
	var ce *CompileError
	if errors.As(err, &ce) && ce.Line == 0 {
		ce.Line = line
	}
	return err
}

// ErrorCollection gathers diagnostics up to a limit.
type ErrorCollection struct {
	Errors []error
	Limit  int // stop collecting after this many; <= 0 means 1
}

func (c *ErrorCollection) Add(err error) {
	if err != nil {
		c.Errors = append(c.Errors, err)
	}
}

func (c *ErrorCollection) HasErrors() bool {
	return len(c.Errors) > 0
}

// Full reports whether the collection has reached its limit, at which
// point compilation stops.
func (c *ErrorCollection) Full() bool {
	limit := c.Limit
	if limit <= 0 {
		limit = 1
	}
	return len(c.Errors) >= limit
}

func (c *ErrorCollection) String() string {
	var lines []string
	for _, err := range c.Errors {
		lines = append(lines, "error: "+err.Error())
	}
	return strings.Join(lines, "\n")
}

// Err returns nil, the sole error, or all of them joined.
func (c *ErrorCollection) Err() error {
	switch len(c.Errors) {
	case 0:
		return nil
	case 1:
		return c.Errors[0]
	default:
		return errors.Join(c.Errors...)
	}
}
