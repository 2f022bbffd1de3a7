package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/wlang/w/sexy"
)

func TestSexyAllTests(t *testing.T) {
	testFiles, err := filepath.Glob("test/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	for _, testFile := range testFiles {
		fileName := filepath.Base(testFile)
		testName := strings.TrimSuffix(fileName, ".md")

		t.Run(testName, func(t *testing.T) {
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)

			testCases, err := sexy.ExtractTestCases(string(content))
			be.Err(t, err, nil)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					runSexyTestCase(t, tc)
				})
			}
		})
	}
}

// sexyOutcome is what the compiler produced for one test input. parseErr
// is set only when no tree was built; err is the first error of any stage.
type sexyOutcome struct {
	tree     *Node
	asm      string
	symbols  *SymbolTable
	parseErr error
	err      error
}

func compileSexyInput(tc sexy.TestCase) sexyOutcome {
	switch tc.InputType {
	case sexy.InputTypeProgram:
		res, err := Compile(tc.Input, DefaultConfig())
		out := sexyOutcome{tree: res.Tree, asm: res.Asm, symbols: res.Symbols, err: err}
		if res.Tree == nil {
			out.parseErr = err
		}
		return out
	case sexy.InputTypeExpr:
		expr, err := ParseExpression(tc.Input, nil)
		if err != nil {
			return sexyOutcome{parseErr: err, err: err}
		}
		asm, g, err := generateExpression(expr)
		return sexyOutcome{tree: expr, asm: asm, symbols: g.Symbols(), err: err}
	}
	err := fmt.Errorf("unknown input type %s", tc.InputType)
	return sexyOutcome{parseErr: err, err: err}
}

// generateExpression evaluates expr as if it were the body of an empty
// main function and returns only the evaluation code.
func generateExpression(expr *Node) (string, *Generator, error) {
	g := NewGenerator(nil)
	g.fn = "main"
	g.symbols.EnterFunction(g.fn)
	_, err := g.genExpr(expr)
	return g.out.String(), g, err
}

func runSexyTestCase(t *testing.T, tc sexy.TestCase) {
	out := compileSexyInput(tc)

	for i, assertion := range tc.Assertions {
		t.Run("assertion_"+string(rune('a'+i)), func(t *testing.T) {
			switch assertion.Type {
			case sexy.AssertionTypeCompileError:
				be.True(t, out.err != nil)
				if !strings.Contains(out.err.Error(), assertion.Content) {
					t.Errorf("expected error containing %q, got %q", assertion.Content, out.err.Error())
				}
				return
			case sexy.AssertionTypeTokens:
				assertSexyMatch(t, assertion.ParsedSexy, tokensSexy(tc.Input))
				return
			}

			switch assertion.Type {
			case sexy.AssertionTypeTree:
				// Trees only need the parser; free names are fine here.
				be.Err(t, out.parseErr, nil)
				actual, err := sexy.Parse(ToSExpr(out.tree))
				be.Err(t, err, nil)
				assertSexyMatch(t, assertion.ParsedSexy, actual)
			case sexy.AssertionTypeSymbols:
				be.Err(t, out.err, nil)
				assertSexyMatch(t, assertion.ParsedSexy, symbolsSexy(out.symbols))
			case sexy.AssertionTypeAsm:
				be.Err(t, out.err, nil)
				assertAsmContains(t, out.asm, assertion.Content)
			}
		})
	}
}

func assertSexyMatch(t *testing.T, pattern, actual *sexy.Node) {
	t.Helper()
	if err := sexy.Match(pattern, actual); err != nil {
		t.Errorf("%v\nexpected: %s\nactual:   %s", err, pattern, actual)
	}
}

func tokensSexy(src string) *sexy.Node {
	items := []*sexy.Node{}
	for _, tok := range Tokenize(src) {
		items = append(items, sexy.NewString(tok))
	}
	return sexy.NewList(items)
}

// symbolsSexy renders ((fn (name offset) ...) ...) in function order.
func symbolsSexy(st *SymbolTable) *sexy.Node {
	fns := []*sexy.Node{}
	for _, fn := range st.Functions() {
		items := []*sexy.Node{sexy.NewSymbol(fn)}
		for _, name := range st.Frame(fn).Names() {
			off, _ := st.Lookup(fn, name)
			items = append(items, sexy.NewList([]*sexy.Node{
				sexy.NewSymbol(name),
				sexy.NewInteger(fmt.Sprint(off)),
			}))
		}
		fns = append(fns, sexy.NewList(items))
	}
	return sexy.NewList(fns)
}

func normalizeAsmLine(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// assertAsmContains checks that every non-blank expected line appears in
// asm, in order. Whitespace differences are ignored.
func assertAsmContains(t *testing.T, asm, expected string) {
	t.Helper()
	actual := strings.Split(asm, "\n")
	pos := 0
	for _, want := range strings.Split(expected, "\n") {
		want = normalizeAsmLine(want)
		if want == "" {
			continue
		}
		found := false
		for pos < len(actual) {
			got := normalizeAsmLine(actual[pos])
			pos++
			if got == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected line %q not found in order in:\n%s", want, asm)
			return
		}
	}
}
