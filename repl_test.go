package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func newTestSession() (*session, *bytes.Buffer) {
	var out bytes.Buffer
	return &session{cfg: DefaultConfig(), out: &out}, &out
}

func TestSessionCommands(t *testing.T) {
	s, out := newTestSession()

	be.Equal(t, s.command(":help"), false)
	be.True(t, strings.Contains(out.String(), ":tokens"))

	out.Reset()
	be.Equal(t, s.command(":tree"), false)
	be.Equal(t, out.String(), "tree output on\n")
	be.True(t, s.showTree)

	out.Reset()
	s.command(":TREE")
	be.Equal(t, out.String(), "tree output off\n")

	out.Reset()
	s.command(":tokens")
	be.Equal(t, out.String(), "token output on\n")

	out.Reset()
	be.Equal(t, s.command(":nope"), false)
	be.True(t, strings.Contains(out.String(), "unknown command"))

	be.Equal(t, s.command(":quit"), true)
	be.Equal(t, s.command(":exit"), true)
	be.Equal(t, s.command("   "), false)
}

func TestSessionCompile(t *testing.T) {
	s, out := newTestSession()
	s.compile("int main()\n  return 2")
	be.True(t, strings.HasPrefix(out.String(), "\t.text\n"))
	be.True(t, strings.HasSuffix(out.String(), "\tret\n"))
}

func TestSessionCompileError(t *testing.T) {
	s, out := newTestSession()
	s.compile("int main()\n  return x")
	be.Equal(t, out.String(), "line 2: undeclared identifier: undeclared variable \"x\" in main\n")
}

func TestSessionShowsTokensAndTree(t *testing.T) {
	s, out := newTestSession()
	s.showTokens = true
	s.showTree = true
	s.compile("int main()\n  return 2")

	lines := strings.Split(out.String(), "\n")
	be.Equal(t, lines[0], "int main ( ) { return 2 }")
	be.Equal(t, lines[1], "Program")
	be.True(t, strings.Contains(out.String(), "└─ FunctionTail"))
	be.True(t, strings.Contains(out.String(), "\tret\n"))
}

func TestSessionTreeSkippedOnParseError(t *testing.T) {
	s, out := newTestSession()
	s.showTree = true
	s.compile("int main(")
	be.True(t, !strings.Contains(out.String(), "Program"))
	be.True(t, strings.Contains(out.String(), "syntax error"))
}

// scriptedInput replays lines, then reports end of input.
type scriptedInput struct {
	lines   []string
	prompts []string
}

func (in *scriptedInput) Prompt(prompt string) (string, error) {
	in.prompts = append(in.prompts, prompt)
	if len(in.lines) == 0 {
		return "", io.EOF
	}
	line := in.lines[0]
	in.lines = in.lines[1:]
	return line, nil
}

func TestReadProgram(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string // programs returned before end of input
	}{
		{
			name:  "two blank lines end a program",
			lines: []string{"int main()", "  return 2", "", "", "int main()", "  return 3", "", ""},
			want:  []string{"int main()\n  return 2", "int main()\n  return 3"},
		},
		{
			name:  "a single blank line is kept",
			lines: []string{"int f()", "  return 1", "", "int main()", "  return f()", "", ""},
			want:  []string{"int f()\n  return 1\n\nint main()\n  return f()"},
		},
		{
			name:  "run compiles the buffer",
			lines: []string{"int main()", "  return 2", "", ":run"},
			want:  []string{"int main()\n  return 2"},
		},
		{
			name:  "leading blank lines are skipped",
			lines: []string{"", "", "", "int main()", "  return 2"},
			want:  []string{"int main()\n  return 2"},
		},
		{
			name:  "commands on an empty buffer",
			lines: []string{":tree", "int main()", "  :tree", "", ""},
			want:  []string{":tree", "int main()\n  :tree"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			in := &scriptedInput{lines: test.lines}
			var got []string
			for {
				src, ok := readProgram(in)
				if !ok {
					break
				}
				got = append(got, src)
			}
			be.Equal(t, got, test.want)
		})
	}
}

func TestReadProgramPrompts(t *testing.T) {
	in := &scriptedInput{lines: []string{"int main()", "", "  return 2", "", ""}}
	_, ok := readProgram(in)
	be.True(t, ok)
	be.Equal(t, in.prompts, []string{promptMain, promptCont, promptCont, promptCont, promptCont})
}

func TestReadProgramInterrupt(t *testing.T) {
	src, ok := readProgram(interruptedInput{})
	be.True(t, ok)
	be.Equal(t, src, "")
}

type interruptedInput struct{}

func (interruptedInput) Prompt(string) (string, error) {
	return "", errors.New("prompt aborted")
}

func TestReadProgramExampleFile(t *testing.T) {
	data, err := os.ReadFile("examples/sum.w")
	be.Err(t, err, nil)
	text := strings.TrimRight(string(data), "\n")

	in := &scriptedInput{lines: append(strings.Split(text, "\n"), "", "")}
	src, ok := readProgram(in)
	be.True(t, ok)
	be.Equal(t, src, text)

	s, out := newTestSession()
	s.compile(src)
	be.True(t, strings.HasPrefix(out.String(), "\t.text\n"))
}

func TestSessionRunOnEmptyBuffer(t *testing.T) {
	s, out := newTestSession()
	be.Equal(t, s.command(":run"), false)
	be.Equal(t, out.String(), "nothing to compile\n")
}
