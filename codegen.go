package main

import (
	"errors"
	"fmt"
	"strings"
)

// Linux x86-64 mmap arguments for the frame region.
const (
	sysMmap       = 9
	protReadWrite = 0x3
	mapPrivAnon   = 0x22
)

// Generator walks a parse tree and emits x86-64 AT&T assembly. It is also
// where the symbol and parameter tables are built; there is no separate
// semantic pass.
//
// Variables live in one shared region addressed from %rbp. A call advances
// %rbp past the caller's variables, stores the arguments at the start of
// the new frame, and moves %rbp back afterwards. Because frames are not
// pushed on the machine stack, generated code is not reentrant.
type Generator struct {
	cfg     *Config
	out     strings.Builder
	regs    *RegisterPool
	symbols *SymbolTable
	params  *ParamTable
	calls   CallStack
	errs    ErrorCollection

	fn        string // function being generated
	nextLabel int
}

func NewGenerator(cfg *Config) *Generator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Generator{
		cfg:     cfg,
		regs:    NewRegisterPool(),
		symbols: NewSymbolTable(),
		params:  NewParamTable(),
		errs:    ErrorCollection{Limit: cfg.MaxErrors},
	}
}

// Symbols exposes the tables built by the last Generate call.
func (g *Generator) Symbols() *SymbolTable {
	return g.symbols
}

func (g *Generator) Params() *ParamTable {
	return g.params
}

// Errors returns every diagnostic recorded so far.
func (g *Generator) Errors() *ErrorCollection {
	return &g.errs
}

func (g *Generator) line(format string, args ...any) {
	fmt.Fprintf(&g.out, "\t"+format+"\n", args...)
}

func (g *Generator) label(name string) {
	fmt.Fprintf(&g.out, "%s:\n", name)
}

func (g *Generator) newLabel() string {
	l := fmt.Sprintf(".L%d", g.nextLabel)
	g.nextLabel++
	return l
}

var errStop = errors.New("too many errors")

// Generate emits the assembly for a Program tree. No text is returned when
// any diagnostic was recorded, including a missing entry function.
func (g *Generator) Generate(program *Node) (string, error) {
	if program == nil || program.Kind != NodeProgram {
		return "", errorf(ErrUnsupported, 0, "generate: expected a Program node")
	}

	g.line(".text")
	g.line(".globl\t%s", g.cfg.Entry)
	for _, fn := range functions(program) {
		if err := g.genFunction(fn); err != nil {
			break
		}
	}
	if _, ok := g.params.Params(g.cfg.Entry); !ok && !g.errs.Full() {
		g.errs.Add(errorf(ErrUndeclared, 0, "entry function %q is not defined", g.cfg.Entry))
	}

	if g.errs.HasErrors() {
		return "", g.errs.Err()
	}
	return g.out.String(), nil
}

// record files a statement-level diagnostic. It returns errStop once the
// collection is full; otherwise it resets per-statement state so the next
// statement starts clean.
func (g *Generator) record(err error, line int) error {
	g.errs.Add(withLine(err, line))
	if g.errs.Full() {
		return errStop
	}
	g.regs.Reset()
	g.calls = CallStack{}
	return nil
}

func (g *Generator) genFunction(fn *Node) error {
	name := fn.Children[1].Text
	g.fn = name

	g.label(name)
	if name == g.cfg.Entry {
		g.mapFrameRegion()
	}
	g.symbols.EnterFunction(name)
	g.params.Define(name)
	g.genParams(fn.Children[2].Children[0])

	stmts := statements(fn.Children[3].Children[0])
	for _, stmt := range stmts {
		if err := g.genStmt(stmt); err != nil {
			if g.record(err, stmt.Line) != nil {
				return errStop
			}
		}
	}
	if len(stmts) == 0 || stmts[len(stmts)-1].Children[0].Kind != NodeReturn {
		g.line("movq\t$0, %%%s", accumulator)
		g.line("ret")
	}
	return nil
}

// mapFrameRegion asks the kernel for an anonymous read-write mapping and
// makes it the frame base. Only the entry function does this.
func (g *Generator) mapFrameRegion() {
	g.line("movq\t$%d, %%rax", sysMmap)
	g.line("xorq\t%%rdi, %%rdi")
	g.line("movq\t$%d, %%rsi", g.cfg.FrameRegionSize)
	g.line("movq\t$%d, %%rdx", protReadWrite)
	g.line("movq\t$%d, %%r10", mapPrivAnon)
	g.line("movq\t$-1, %%r8")
	g.line("xorq\t%%r9, %%r9")
	g.line("syscall")
	g.line("movq\t%%rax, %%%s", frameBase)
}

// genParams walks ParamList/ParamTail, declaring each parameter in order.
func (g *Generator) genParams(list *Node) {
	for ; !list.IsEmpty(); list = list.Children[2] {
		name := list.Children[1].Text
		g.symbols.Declare(g.fn, name)
		g.params.Add(g.fn, name)
	}
}

func (g *Generator) genStmtList(list *Node) error {
	for _, stmt := range statements(list) {
		if err := g.genStmt(stmt); err != nil {
			return withLine(err, stmt.Line)
		}
	}
	return nil
}

func (g *Generator) genStmt(stmt *Node) error {
	node := stmt.Children[0]
	switch node.Kind {
	case NodeIf:
		return g.genIf(node)
	case NodeReturn:
		loc, err := g.genExpr(node.Children[0])
		if err != nil {
			return err
		}
		g.line("movq\t%s, %%%s", operand(loc), accumulator)
		g.regs.Free(loc)
		g.line("ret")
	case NodeVarDecl:
		g.symbols.Declare(g.fn, node.Children[1].Text)
	case NodeVarDef:
		off := g.symbols.Declare(g.fn, node.Children[1].Text)
		loc, err := g.genExpr(node.Children[2])
		if err != nil {
			return err
		}
		return g.store(loc, off)
	case NodeAssign:
		name := node.Children[0].Text
		off, ok := g.symbols.Lookup(g.fn, name)
		if !ok {
			return errorf(ErrUndeclared, stmt.Line, "assignment to undeclared variable %q in %s", name, g.fn)
		}
		loc, err := g.genExpr(node.Children[1])
		if err != nil {
			return err
		}
		return g.store(loc, off)
	case NodePass:
	case NodeExpr:
		loc, err := g.genExpr(node)
		if err != nil {
			return err
		}
		g.regs.Free(loc)
	default:
		return errorf(ErrUnsupported, stmt.Line, "unexpected %s in statement position", node.Kind)
	}
	return nil
}

// genIf tests the condition against zero: nonzero runs the first block.
func (g *Generator) genIf(node *Node) error {
	cond, err := g.genExpr(node.Children[0])
	if err != nil {
		return err
	}
	elseLabel, endLabel := g.newLabel(), g.newLabel()
	g.line("cmpq\t$0, %s", operand(cond))
	g.regs.Free(cond)
	g.line("je\t%s", elseLabel)
	if err := g.genStmtList(node.Children[1]); err != nil {
		return err
	}
	g.line("jmp\t%s", endLabel)
	g.label(elseLabel)
	if err := g.genStmtList(node.Children[2]); err != nil {
		return err
	}
	g.label(endLabel)
	return nil
}

// store moves loc into the frame slot at off and releases loc.
func (g *Generator) store(loc string, off int) error {
	if !isRegister(loc) {
		reg, err := g.regs.Alloc()
		if err != nil {
			return err
		}
		g.line("movq\t%s, %%%s", loc, reg)
		loc = reg
	}
	g.line("movq\t%%%s, %s", loc, slot(off))
	g.regs.Free(loc)
	return nil
}

// genExpr evaluates an Expr subtree and records where its value ended up.
func (g *Generator) genExpr(expr *Node) (string, error) {
	loc, err := g.evaluate(Flatten(expr))
	if err != nil {
		return "", err
	}
	expr.Storage = loc
	return loc, nil
}

// toRegister returns loc if it is a register, otherwise loads it into a
// fresh one so the caller may overwrite it without touching a variable.
func (g *Generator) toRegister(loc string) (string, error) {
	if isRegister(loc) {
		return loc, nil
	}
	reg, err := g.regs.Alloc()
	if err != nil {
		return "", err
	}
	g.line("movq\t%s, %%%s", loc, reg)
	return reg, nil
}
