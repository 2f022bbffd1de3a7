package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestCompileErrorFormat(t *testing.T) {
	be.Equal(t, errorf(ErrSyntax, 3, "expected %q", "}").Error(), `line 3: syntax error: expected "}"`)
	be.Equal(t, errorf(ErrArity, 0, "f takes 1 argument(s), got 2").Error(),
		"wrong argument count: f takes 1 argument(s), got 2")
}

func TestCompileErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", errorf(ErrUndeclared, 1, "x"))
	be.True(t, errors.Is(err, ErrUndeclared))
	be.True(t, !errors.Is(err, ErrSyntax))
}

func TestErrorKindString(t *testing.T) {
	be.Equal(t, ErrRegistersExhausted.String(), "out of registers")
	be.Equal(t, ErrUnsupported.Error(), "unsupported")
	be.Equal(t, ErrorKind(42).String(), "error kind 42")
}

func TestWithLine(t *testing.T) {
	err := withLine(errorf(ErrUndeclared, 0, "x"), 7)
	be.True(t, strings.HasPrefix(err.Error(), "line 7:"))

	err = withLine(errorf(ErrUndeclared, 3, "x"), 7)
	be.True(t, strings.HasPrefix(err.Error(), "line 3:"))

	plain := errors.New("plain")
	be.Equal(t, withLine(plain, 7), plain)
}

func TestErrorCollection(t *testing.T) {
	c := ErrorCollection{Limit: 2}
	be.True(t, !c.HasErrors())
	be.Err(t, c.Err(), nil)

	c.Add(nil)
	be.True(t, !c.HasErrors())

	c.Add(errorf(ErrSyntax, 1, "first"))
	be.True(t, c.HasErrors())
	be.True(t, !c.Full())
	be.Equal(t, c.Err().Error(), "line 1: syntax error: first")

	c.Add(errorf(ErrUndeclared, 2, "second"))
	be.True(t, c.Full())
	be.Equal(t, c.Err().Error(), "line 1: syntax error: first\nline 2: undeclared identifier: second")
	be.Equal(t, c.String(), "error: line 1: syntax error: first\nerror: line 2: undeclared identifier: second")
}

func TestErrorCollectionZeroLimit(t *testing.T) {
	var c ErrorCollection
	c.Add(errors.New("one"))
	be.True(t, c.Full())
}
