package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

const (
	historyFile = ".w_history"
	promptMain  = "w> "
	promptCont  = ".. "
)

const replHelp = `Enter a program, then two blank lines or :run to compile it.
A single blank line stays part of the program.
Indent blocks with two spaces per level.

Commands:
  :help     show this text
  :run      compile the lines typed so far
  :tree     toggle printing the parse tree
  :tokens   toggle printing the token stream
  :quit     leave the REPL
`

// session is the REPL state that outlives a single program.
type session struct {
	cfg        *Config
	out        io.Writer
	showTree   bool
	showTokens bool
}

// command handles a ':' line and reports whether the REPL should exit.
func (s *session) command(line string) (exit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Fprint(s.out, replHelp)
	case ":quit", ":exit":
		return true
	case ":run":
		fmt.Fprintln(s.out, "nothing to compile")
	case ":tree":
		s.showTree = !s.showTree
		fmt.Fprintf(s.out, "tree output %s\n", onOff(s.showTree))
	case ":tokens":
		s.showTokens = !s.showTokens
		fmt.Fprintf(s.out, "token output %s\n", onOff(s.showTokens))
	default:
		fmt.Fprintf(s.out, "unknown command. Type :help for help.\n")
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// compile runs one buffered program through the pipeline and prints the
// requested views followed by the assembly or the diagnostics.
func (s *session) compile(src string) {
	if s.showTokens {
		fmt.Fprintln(s.out, strings.Join(Tokenize(src), " "))
	}
	res, err := Compile(src, s.cfg)
	if s.showTree && res.Tree != nil {
		res.Tree.Print(s.out)
	}
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	fmt.Fprint(s.out, res.Asm)
}

// prompter is the part of *liner.State the line reader needs.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// readProgram collects lines until two blank lines in a row or a ":run"
// line. A ':' command typed on an empty buffer is returned on its own.
func readProgram(p prompter) (string, bool) {
	var lines []string
	flush := func() string {
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
		return strings.Join(lines, "\n")
	}
	for {
		prompt := promptMain
		if len(lines) > 0 {
			prompt = promptCont
		}
		line, err := p.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			if len(lines) > 0 {
				return flush(), true
			}
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the current buffer.
			return "", true
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case len(lines) == 0 && strings.HasPrefix(trimmed, ":"):
			return line, true
		case strings.EqualFold(trimmed, ":run"):
			return flush(), true
		case trimmed == "" && len(lines) == 0:
			continue
		case trimmed == "" && strings.TrimSpace(lines[len(lines)-1]) == "":
			return flush(), true
		}
		lines = append(lines, line)
	}
}

func replCommand(args []string) {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	configPath := fs.String("config", "", "Configuration file (default: "+DefaultConfigFile+" if present)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: w repl [-config file]\n")
		fmt.Fprintf(os.Stderr, "Compile programs interactively\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	s := &session{cfg: loadConfigOrExit(*configPath), out: os.Stdout}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Println("W compiler REPL. Type :help for help.")
	for {
		src, ok := readProgram(ln)
		if !ok {
			fmt.Println()
			break
		}
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			if s.command(src) {
				break
			}
			continue
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		s.compile(src)
		for _, line := range strings.Split(src, "\n") {
			ln.AppendHistory(line)
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
}
