package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `W - A small indentation-based language that compiles to x86-64 assembly

Usage:
    w <command> [arguments]

Commands:
    build <file>    Compile a .w file to assembly (or an executable with -exe)
    check <file>    Parse and generate code without writing output
    tokens <file>   Print the token stream of a .w file
    tree <file>     Print the parse tree of a .w file
    repl            Compile programs interactively
    help            Show this help message

Examples:
    w build examples/sum.w
    w build -exe -o sum examples/sum.w
    w tree -sexpr examples/sum.w
    w check myfile.w

Configuration is read from w.yaml in the current directory when present.
Use "w <command> -h" for more information about a command.
`)
}

// readSource reads filename or exits with a diagnostic.
func readSource(filename string) string {
	sourceBytes, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return string(sourceBytes)
}

func loadConfigOrExit(path string) *Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// oneFileArg parses args into fs and returns the single positional file.
func oneFileArg(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <filename>.s, or <filename> with -exe)")
	exe := fs.Bool("exe", false, "Assemble and link the output with link.cc")
	verbose := fs.Bool("v", false, "Show verbose compilation details and the grammar trace")
	configPath := fs.String("config", "", "Configuration file (default: "+DefaultConfigFile+" if present)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: w build [-o output] [-exe] [-v] [-config file] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile a .w file to x86-64 assembly\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	filename := oneFileArg(fs, args)
	cfg := loadConfigOrExit(*configPath)
	if *verbose {
		cfg.Trace = true
	}

	base := strings.TrimSuffix(filename, ".w")
	asmFile := base + ".s"
	if *output != "" && !*exe {
		asmFile = *output
	}

	if *verbose {
		fmt.Printf("Compiling %s to %s...\n", filename, asmFile)
	}

	res, err := Compile(readSource(filename), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed:\n%v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(asmFile, []byte(res.Asm), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing assembly file %s: %v\n", asmFile, err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s (%d bytes)\n", asmFile, len(res.Asm))

	if !*exe {
		return
	}
	exeFile := *output
	if exeFile == "" {
		exeFile = base
	}
	if err := link(cfg, asmFile, exeFile, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Linking failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s\n", exeFile)
}

// linkArgs builds the compiler driver's argument list: flags, the
// assembly file, helper objects, then the output.
func linkArgs(cfg *Config, asmFile, exeFile string) []string {
	args := append([]string{}, cfg.Link.Flags...)
	args = append(args, asmFile)
	args = append(args, cfg.Link.Objects...)
	return append(args, "-o", exeFile)
}

func link(cfg *Config, asmFile, exeFile string, verbose bool) error {
	args := linkArgs(cfg, asmFile, exeFile)
	if verbose {
		fmt.Printf("Running %s %s\n", cfg.Link.CC, strings.Join(args, " "))
	}
	cmd := exec.Command(cfg.Link.CC, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %v\nOutput: %s", cfg.Link.CC, err, out)
	}
	return nil
}

func tokensCommand(args []string) {
	fs := flag.NewFlagSet("tokens", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: w tokens <file>\n")
		fmt.Fprintf(os.Stderr, "Print one token per line, including synthetic block braces\n")
	}
	filename := oneFileArg(fs, args)

	l := NewLexer(readSource(filename))
	for tok := l.NextToken(); tok != ""; tok = l.NextToken() {
		fmt.Printf("%d\t%s\n", l.Line(), tok)
	}
}

func treeCommand(args []string) {
	fs := flag.NewFlagSet("tree", flag.ExitOnError)
	sexpr := fs.Bool("sexpr", false, "Print the condensed s-expression form")
	verbose := fs.Bool("v", false, "Show the grammar trace")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: w tree [-sexpr] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Print the parse tree of a .w file\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	filename := oneFileArg(fs, args)

	var trace io.Writer
	if *verbose {
		trace = os.Stderr
	}
	tree, err := Parse(readSource(filename), trace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parsing failed: %v\n", err)
		os.Exit(1)
	}

	if *sexpr {
		fmt.Println(ToSExpr(tree))
		return
	}
	tree.Print(os.Stdout)
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose checking details")
	configPath := fs.String("config", "", "Configuration file (default: "+DefaultConfigFile+" if present)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: w check [-v] [-config file] <file>\n")
		fmt.Fprintf(os.Stderr, "Parse and generate code for a .w file without writing output\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	filename := oneFileArg(fs, args)
	cfg := loadConfigOrExit(*configPath)

	if *verbose {
		fmt.Printf("Checking %s...\n", filename)
	}

	res, err := Compile(readSource(filename), cfg)
	if err != nil {
		fmt.Printf("Errors in %s:\n%v\n", filename, err)
		os.Exit(1)
	}

	fmt.Printf("%s: no errors found\n", filename)

	if *verbose {
		fmt.Printf("Tree: %s\n", ToSExpr(res.Tree))
		printSymbols(res.Symbols)
	}
}

func printSymbols(st *SymbolTable) {
	for _, fn := range st.Functions() {
		fmt.Printf("%s:\n", fn)
		for _, name := range st.Frame(fn).Names() {
			off, _ := st.Lookup(fn, name)
			fmt.Printf("    %-12s %s\n", name, slot(off))
		}
	}
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "check":
		checkCommand(args)
	case "tokens":
		tokensCommand(args)
	case "tree":
		treeCommand(args)
	case "repl":
		replCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
