package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestExtractTestCases_BasicTest(t *testing.T) {
	markdown := `# Binary expressions

## Test: +
` + "```w-expr" + `
1 + 2
` + "```" + `
` + "```tree" + `
(binary "+" 1 2)
` + "```" + `

## Test: -
` + "```w-expr" + `
1 - 2
` + "```" + `
` + "```tree" + `
(binary "-" 1 2)
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	tc1 := testCases[0]
	be.Equal(t, tc1.Name, "+")
	be.Equal(t, tc1.Input, "1 + 2")
	be.Equal(t, tc1.InputType, InputTypeExpr)
	be.Equal(t, len(tc1.Assertions), 1)
	be.Equal(t, tc1.Assertions[0].Type, AssertionTypeTree)
	be.Equal(t, tc1.Assertions[0].Content, `(binary "+" 1 2)`)
	be.Equal(t, tc1.Assertions[0].ParsedSexy.String(), `(binary "+" 1 2)`)

	tc2 := testCases[1]
	be.Equal(t, tc2.Name, "-")
	be.Equal(t, tc2.Input, "1 - 2")
	be.Equal(t, tc2.InputType, InputTypeExpr)
	be.Equal(t, len(tc2.Assertions), 1)
	be.Equal(t, tc2.Assertions[0].ParsedSexy.String(), `(binary "-" 1 2)`)
}

func TestExtractTestCases_ProgramKeepsIndentation(t *testing.T) {
	markdown := `## Test: if statement
` + "```w-program" + `
int main()
  if 1
    return 2
  else
    return 3
` + "```" + `
` + "```tree" + `
(program (func "int" "main" (params) (block (if 1 ...))))
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	tc := testCases[0]
	be.Equal(t, tc.InputType, InputTypeProgram)
	be.Equal(t, tc.Input, "int main()\n  if 1\n    return 2\n  else\n    return 3")
}

func TestExtractTestCases_AllAssertionTypes(t *testing.T) {
	markdown := `## Test: every assertion
` + "```w-program" + `
int main()
  int x = 1
  return x
` + "```" + `
` + "```tokens" + `
("int" "main" "(" ")" "{" "int" "x" "=" "1" "return" "x" "}")
` + "```" + `
` + "```tree" + `
(program ...)
` + "```" + `
` + "```symbols" + `
((main (x 0)))
` + "```" + `
` + "```asm" + `
main:
ret
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	tc := testCases[0]
	be.Equal(t, len(tc.Assertions), 4)
	be.Equal(t, tc.Assertions[0].Type, AssertionTypeTokens)
	be.Equal(t, tc.Assertions[1].Type, AssertionTypeTree)
	be.Equal(t, tc.Assertions[2].Type, AssertionTypeSymbols)
	be.Equal(t, tc.Assertions[3].Type, AssertionTypeAsm)

	be.Equal(t, len(tc.Assertions[0].ParsedSexy.Items), 12)
	be.True(t, tc.Assertions[3].ParsedSexy == nil)
	be.Equal(t, tc.Assertions[3].Content, "main:\nret")
}

func TestExtractTestCases_CompileErrorIsRaw(t *testing.T) {
	markdown := `## Test: undeclared
` + "```w-program" + `
int main()
  return y
` + "```" + `
` + "```compile-error" + `
undeclared variable "y"
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	assertion := testCases[0].Assertions[0]
	be.Equal(t, assertion.Type, AssertionTypeCompileError)
	be.Equal(t, assertion.Content, `undeclared variable "y"`)
	be.True(t, assertion.ParsedSexy == nil)
}

func TestExtractTestCases_EmptyFile(t *testing.T) {
	testCases, err := ExtractTestCases("")
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_NoTestCases(t *testing.T) {
	markdown := `# Some document

This is just regular markdown content.

## Regular heading

No test cases here.`

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_InvalidSexyAssertion(t *testing.T) {
	markdown := `## Test: invalid sexy
` + "```w-expr" + `
1 + 2
` + "```" + `
` + "```tree" + `
(unclosed list
` + "```"

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "failed to parse Sexy assertion"))
	be.True(t, strings.Contains(err.Error(), "line"))
}

func TestExtractTestCases_FenceOutsideTestCase(t *testing.T) {
	tests := []struct {
		name      string
		markdown  string
		fenceType string
	}{
		{
			"w-expr fence outside test",
			"# Document\n\n```w-expr\n1 + 2\n```\n",
			"w-expr",
		},
		{
			"w-program fence outside test",
			"# Document\n\n```w-program\nint main()\n  pass\n```\n",
			"w-program",
		},
		{
			"tree fence outside test",
			"# Document\n\n```tree\n(binary \"+\" 1 2)\n```\n",
			"tree",
		},
		{
			"asm fence outside test",
			"# Document\n\n```asm\nret\n```\n",
			"asm",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ExtractTestCases(test.markdown)
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), test.fenceType+" fence found outside of test case"))
			be.True(t, strings.Contains(err.Error(), "line"))
		})
	}
}

func TestExtractTestCases_UnknownFenceLanguageInTest(t *testing.T) {
	markdown := `## Test: with unknown fence
` + "```python" + `
print("hello")
` + "```" + `
` + "```w-expr" + `
1 + 2
` + "```" + `
` + "```tree" + `
(binary "+" 1 2)
` + "```"

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "unknown fence language 'python'"))
	be.True(t, strings.Contains(err.Error(), "line"))
}

func TestExtractTestCases_UnknownFenceOutsideTest(t *testing.T) {
	markdown := `# Document with unknown code block

` + "```go" + `
func main() {}
` + "```"

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "unknown fence language 'go' found outside of test case"))
}

func TestExtractTestCases_TestMissingInputFence(t *testing.T) {
	markdown := `## Test: no input
` + "```tree" + `
(binary "+" 1 2)
` + "```"

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'no input' has no input fence"))
}

func TestExtractTestCases_TestMissingAssertionFence(t *testing.T) {
	markdown := `## Test: no assertions
` + "```w-expr" + `
1 + 2
` + "```"

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'no assertions' has no assertion fences"))
}

func TestExtractTestCases_MultipleInputFences(t *testing.T) {
	markdown := `## Test: multiple inputs
` + "```w-expr" + `
1 + 2
` + "```" + `
` + "```w-expr" + `
3 + 4
` + "```" + `
` + "```tree" + `
(binary "+" 1 2)
` + "```"

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "multiple input fences found"))
}

func TestExtractTestCases_AllowFencesWithoutLanguage(t *testing.T) {
	markdown := `# Document with generic code block

` + "```" + `
some code without language
` + "```" + `

## Test: valid test
` + "```w-expr" + `
1 + 2
` + "```" + `
` + "```tree" + `
(binary "+" 1 2)
` + "```" + `

` + "```" + `
more code without language in test
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)
	be.Equal(t, testCases[0].Name, "valid test")
	be.Equal(t, len(testCases[0].Assertions), 1)
}

func TestExtractTestCases_ErrorInSecondTest(t *testing.T) {
	markdown := `## Test: first test
` + "```w-expr" + `
1 + 2
` + "```" + `
` + "```tree" + `
(binary "+" 1 2)
` + "```" + `

## Test: second test missing input
` + "```tree" + `
(binary "-" 1 2)
` + "```"

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'second test missing input' has no input fence"))
}

func TestExtractTestCases_ComplexSexyExpressions(t *testing.T) {
	markdown := `## Test: complex expression
` + "```w-expr" + `
x + yyy * 2
` + "```" + `
` + "```tree" + `
(binary "+"
 (ident "x")
 (binary "*"
  (ident "yyy")
  2))
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	assertion := testCases[0].Assertions[0]
	be.Equal(t, assertion.ParsedSexy.Type, NodeList)
	be.Equal(t, len(assertion.ParsedSexy.Items), 4)
	be.Equal(t, assertion.ParsedSexy.Items[0].Text, "binary")
	be.Equal(t, assertion.ParsedSexy.Items[1].Type, NodeString)
	be.Equal(t, assertion.ParsedSexy.Items[1].Text, "+")
	be.Equal(t, assertion.ParsedSexy.Items[2].Type, NodeList)
	be.Equal(t, assertion.ParsedSexy.Items[3].Type, NodeList)
}
