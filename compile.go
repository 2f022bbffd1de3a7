package main

import (
	"io"
	"os"
)

// Result is everything one compilation produced. Tree and Symbols are set
// as soon as the corresponding stage ran, even when a later stage failed.
type Result struct {
	Asm     string
	Tree    *Node
	Symbols *SymbolTable
	Params  *ParamTable
}

// Compile parses src and generates assembly for it. Parse errors abort
// immediately; code generation collects up to cfg.MaxErrors diagnostics.
func Compile(src string, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var trace io.Writer
	if cfg.Trace {
		trace = os.Stderr
	}

	res := &Result{}
	tree, err := Parse(src, trace)
	if err != nil {
		return res, err
	}
	res.Tree = tree

	gen := NewGenerator(cfg)
	asm, err := gen.Generate(tree)
	res.Symbols = gen.Symbols()
	res.Params = gen.Params()
	if err != nil {
		return res, err
	}
	res.Asm = asm
	return res, nil
}
