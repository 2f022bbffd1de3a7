package sexy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType names the fence holding the W source under test.
type InputType string

const (
	InputTypeExpr    InputType = "w-expr"
	InputTypeProgram InputType = "w-program"
)

// AssertionType names a fence that checks some view of the compiled input.
type AssertionType string

const (
	AssertionTypeTree         AssertionType = "tree"          // condensed parse tree pattern
	AssertionTypeTokens       AssertionType = "tokens"        // list of token strings
	AssertionTypeSymbols      AssertionType = "symbols"       // (fn (name offset)...) per function
	AssertionTypeAsm          AssertionType = "asm"           // lines expected in order, not parsed
	AssertionTypeCompileError AssertionType = "compile-error" // error substring, not parsed
)

type Assertion struct {
	Type       AssertionType
	Content    string // raw content of the fence
	ParsedSexy *Node  // nil for asm and compile-error
}

// TestCase is one "Test: " section of a Markdown suite.
type TestCase struct {
	Name       string    // heading text after "Test: "
	Input      string    // raw W source from the input fence
	InputType  InputType // w-expr or w-program
	Assertions []Assertion
}

// IsParsed reports whether the assertion content is an s-expression.
func (t AssertionType) IsParsed() bool {
	return t != AssertionTypeAsm && t != AssertionTypeCompileError
}

const testPrefix = "Test: "

// extractor accumulates test cases while walking a Markdown AST.
type extractor struct {
	source  []byte
	cases   []TestCase
	current *TestCase
}

// ExtractTestCases returns every test case in a Markdown document. A test
// case starts at a heading beginning with "Test: " and owns the fences up
// to the next such heading.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	x := &extractor{source: []byte(markdownContent)}
	doc := goldmark.New().Parser().Parse(text.NewReader(x.source))

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var err error
		switch n := node.(type) {
		case *ast.Heading:
			err = x.heading(n)
		case *ast.FencedCodeBlock:
			err = x.fence(n)
		}
		if err != nil {
			return ast.WalkStop, err
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}
	if err := x.finish(); err != nil {
		return nil, err
	}
	return x.cases, nil
}

func (x *extractor) heading(n *ast.Heading) error {
	name, ok := strings.CutPrefix(nodeText(n, x.source), testPrefix)
	if !ok {
		return nil
	}
	if err := x.finish(); err != nil {
		return err
	}
	x.current = &TestCase{Name: name, Assertions: []Assertion{}}
	return nil
}

// finish validates the open test case and moves it to the result.
func (x *extractor) finish() error {
	if x.current == nil {
		return nil
	}
	if err := validateTestCase(x.current); err != nil {
		return err
	}
	x.cases = append(x.cases, *x.current)
	x.current = nil
	return nil
}

func (x *extractor) fence(n *ast.FencedCodeBlock) error {
	language := string(n.Language(x.source))
	line := lineNumber(n, x.source)
	known := isInputFence(language) || isAssertionFence(language)

	// Plain fences are prose wherever they appear.
	if language == "" {
		return nil
	}
	if x.current == nil {
		if known {
			return fmt.Errorf("line %d: %s fence found outside of test case", line, language)
		}
		return fmt.Errorf("line %d: unknown fence language '%s' found outside of test case", line, language)
	}
	if !known {
		return fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, language, x.current.Name)
	}

	content := strings.TrimRight(fenceContent(n, x.source), "\n")
	if isInputFence(language) {
		if x.current.Input != "" {
			return fmt.Errorf("line %d: multiple input fences found in test '%s'", line, x.current.Name)
		}
		x.current.Input = content
		x.current.InputType = InputType(language)
		return nil
	}

	assertion := Assertion{Type: AssertionType(language), Content: content}
	if assertion.Type.IsParsed() {
		parsed, err := Parse(content)
		if err != nil {
			return fmt.Errorf("line %d: failed to parse Sexy assertion in test '%s': %w", line, x.current.Name, err)
		}
		assertion.ParsedSexy = parsed
	}
	x.current.Assertions = append(x.current.Assertions, assertion)
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); entering && ok {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func isInputFence(language string) bool {
	switch InputType(language) {
	case InputTypeExpr, InputTypeProgram:
		return true
	}
	return false
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionTypeTree, AssertionTypeTokens, AssertionTypeSymbols, AssertionTypeAsm, AssertionTypeCompileError:
		return true
	}
	return false
}

func validateTestCase(tc *TestCase) error {
	if tc.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", tc.Name)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	return nil
}

// lineNumber is the 1-based source line of a node's first content line.
func lineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	if start > len(source) {
		start = len(source)
	}
	return 1 + bytes.Count(source[:start], []byte("\n"))
}
