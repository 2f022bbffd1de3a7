package main

import "strconv"

// Operator priorities for the precedence climber. Grouping and call
// markers never reduce on their own; they only fence off what is inside.
const (
	prioCall       = 2
	prioArgSep     = 3
	prioComparison = 10
	prioAdditive   = 11
	prioMultiply   = 12
	prioGroup      = 22
)

var setcc = map[string]string{
	"==": "sete",
	"!=": "setne",
	"<":  "setl",
	">":  "setg",
	"<=": "setle",
	">=": "setge",
}

func priority(leaf Leaf) int {
	switch leaf.Kind {
	case LeafGroupOpen, LeafGroupClose:
		return prioGroup
	case LeafCallOpen, LeafCallClose, LeafCallee:
		return prioCall
	case LeafArgSep:
		return prioArgSep
	}
	switch leaf.Text {
	case "*", "/":
		return prioMultiply
	case "+", "-":
		return prioAdditive
	}
	if _, ok := setcc[leaf.Text]; ok {
		return prioComparison
	}
	return 0
}

// value is an operand stack entry: a register, a frame slot, or the marker
// that opens a call's argument list.
type value struct {
	loc      string
	argStart bool
}

type evaluator struct {
	g    *Generator
	ops  []Leaf
	vals []value
}

// evaluate runs the precedence climber over leaves, emitting code as
// operators reduce. It returns the location of the result.
func (g *Generator) evaluate(leaves []Leaf) (string, error) {
	ev := &evaluator{g: g}
	for _, leaf := range leaves {
		if err := ev.feed(leaf); err != nil {
			return "", err
		}
	}
	for len(ev.ops) > 0 {
		if err := ev.reduce(); err != nil {
			return "", err
		}
	}
	if len(ev.vals) != 1 || ev.vals[0].argStart {
		return "", errorf(ErrUnsupported, 0, "malformed expression")
	}
	return ev.vals[0].loc, nil
}

func (ev *evaluator) feed(leaf Leaf) error {
	switch leaf.Kind {
	case LeafValue:
		loc, err := ev.load(leaf.Text)
		if err != nil {
			return err
		}
		ev.push(loc)
	case LeafCallee, LeafGroupOpen:
		ev.ops = append(ev.ops, leaf)
	case LeafCallOpen:
		ev.ops = append(ev.ops, leaf)
		ev.vals = append(ev.vals, value{argStart: true})
	case LeafGroupClose:
		if err := ev.reduceUntil(LeafGroupOpen); err != nil {
			return err
		}
		ev.popOp()
	case LeafCallClose:
		if err := ev.reduceUntil(LeafCallOpen); err != nil {
			return err
		}
		ev.popOp()
		return ev.call()
	case LeafArgSep:
		// Finish the argument in progress; the separator itself is never
		// pushed since call() finds the arguments by the start marker.
		return ev.reduceAbove(prioArgSep)
	case LeafOperator:
		if err := ev.reduceAbove(priority(leaf)); err != nil {
			return err
		}
		ev.ops = append(ev.ops, leaf)
	}
	return nil
}

func (ev *evaluator) push(loc string) {
	ev.vals = append(ev.vals, value{loc: loc})
}

func (ev *evaluator) pop() (value, error) {
	if len(ev.vals) == 0 {
		return value{}, errorf(ErrUnsupported, 0, "malformed expression: missing operand")
	}
	v := ev.vals[len(ev.vals)-1]
	ev.vals = ev.vals[:len(ev.vals)-1]
	return v, nil
}

func (ev *evaluator) popOp() Leaf {
	op := ev.ops[len(ev.ops)-1]
	ev.ops = ev.ops[:len(ev.ops)-1]
	return op
}

func (ev *evaluator) top() (Leaf, bool) {
	if len(ev.ops) == 0 {
		return Leaf{}, false
	}
	return ev.ops[len(ev.ops)-1], true
}

// reduceAbove applies pending binary operators whose priority is at least
// prio. Openers stop the scan.
func (ev *evaluator) reduceAbove(prio int) error {
	for {
		op, ok := ev.top()
		if !ok || op.Kind != LeafOperator || priority(op) < prio {
			return nil
		}
		if err := ev.reduce(); err != nil {
			return err
		}
	}
}

// reduceUntil applies operators until an opener of the given kind is on top.
func (ev *evaluator) reduceUntil(opener LeafKind) error {
	for {
		op, ok := ev.top()
		if !ok {
			return errorf(ErrUnsupported, 0, "malformed expression: unbalanced %q", ")")
		}
		if op.Kind == opener {
			return nil
		}
		if err := ev.reduce(); err != nil {
			return err
		}
	}
}

// load turns a value leaf into an operand: variables resolve to their frame
// slot, integer literals are loaded into a fresh scratch register.
func (ev *evaluator) load(text string) (string, error) {
	g := ev.g
	switch {
	case isInteger(text):
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return "", errorf(ErrUnsupported, 0, "integer literal %s out of range", text)
		}
		reg, err := g.regs.Alloc()
		if err != nil {
			return "", err
		}
		// Decimal, so the assembler never reads a leading zero as octal.
		g.line("movq\t$%d, %%%s", v, reg)
		return reg, nil
	case text != "" && isDigit([]rune(text)[0]):
		return "", errorf(ErrUnsupported, 0, "non-integer literal %s", text)
	}
	off, ok := g.symbols.Lookup(g.fn, text)
	if !ok {
		return "", errorf(ErrUndeclared, 0, "undeclared variable %q in %s", text, g.fn)
	}
	return slot(off), nil
}

// reduce pops one operator and its two operands and emits the instruction
// sequence for it.
func (ev *evaluator) reduce() error {
	op := ev.popOp()
	if op.Kind != LeafOperator {
		return errorf(ErrUnsupported, 0, "malformed expression: unclosed %s %q", op.Kind, op.Text)
	}
	right, err := ev.pop()
	if err != nil {
		return err
	}
	left, err := ev.pop()
	if err != nil {
		return err
	}
	if left.argStart || right.argStart {
		return errorf(ErrUnsupported, 0, "malformed expression: missing operand for %q", op.Text)
	}
	loc, err := ev.apply(op.Text, left.loc, right.loc)
	if err != nil {
		return err
	}
	ev.push(loc)
	return nil
}

func (ev *evaluator) apply(op, left, right string) (string, error) {
	g := ev.g
	switch op {
	case "+", "*":
		dst, src := right, left
		if !isRegister(dst) && isRegister(src) {
			dst, src = src, dst
		}
		dst, err := g.toRegister(dst)
		if err != nil {
			return "", err
		}
		mnemonic := "addq"
		if op == "*" {
			mnemonic = "imulq"
		}
		g.line("%s\t%s, %%%s", mnemonic, operand(src), dst)
		g.regs.Free(src)
		return dst, nil

	case "-":
		dst, err := g.toRegister(left)
		if err != nil {
			return "", err
		}
		g.line("subq\t%s, %%%s", operand(right), dst)
		g.regs.Free(right)
		return dst, nil

	case "/":
		g.line("movq\t%s, %%%s", operand(left), accumulator)
		g.line("xorq\t%%%s, %%%s", remainder, remainder)
		g.line("cqto")
		g.line("idivq\t%s", operand(right))
		var dst string
		switch {
		case isRegister(right):
			dst = right
			g.regs.Free(left)
		case isRegister(left):
			dst = left
		default:
			reg, err := g.regs.Alloc()
			if err != nil {
				return "", err
			}
			dst = reg
		}
		g.line("movq\t%%%s, %%%s", accumulator, dst)
		return dst, nil
	}

	if cc, ok := setcc[op]; ok {
		dst, err := g.toRegister(left)
		if err != nil {
			return "", err
		}
		g.line("cmpq\t%s, %%%s", operand(right), dst)
		g.line("%s\t%%al", cc)
		g.line("movzbq\t%%al, %%%s", dst)
		g.regs.Free(right)
		return dst, nil
	}
	return "", errorf(ErrUnsupported, 0, "unknown operator %q", op)
}

// call collects the arguments above the start marker, pops the callee and
// emits the call. The result register is pushed as a new operand.
func (ev *evaluator) call() error {
	var args []string
	for {
		v, err := ev.pop()
		if err != nil {
			return err
		}
		if v.argStart {
			break
		}
		args = append(args, v.loc)
	}
	for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
		args[i], args[j] = args[j], args[i]
	}

	callee, ok := ev.top()
	if !ok || callee.Kind != LeafCallee {
		return errorf(ErrUnsupported, 0, "malformed call: no callee")
	}
	ev.popOp()

	res, err := ev.g.emitCall(callee.Text, args)
	if err != nil {
		return err
	}
	ev.push(res)
	return nil
}

// emitCall advances the frame base past the caller's variables, stores the
// arguments in the first slots of the new frame, calls name and restores
// the frame base. Registers live in the caller are saved on the machine
// stack around the call.
func (g *Generator) emitCall(name string, args []string) (string, error) {
	if want, ok := g.params.Params(name); ok && len(want) != len(args) {
		return "", errorf(ErrArity, 0, "%s takes %d argument(s), got %d", name, len(want), len(args))
	}

	// Frame slots are relative to %rbp, which is about to move.
	for i, arg := range args {
		reg, err := g.toRegister(arg)
		if err != nil {
			return "", err
		}
		args[i] = reg
	}

	isArg := make(map[string]bool, len(args))
	for _, arg := range args {
		isArg[arg] = true
	}
	var saved []string
	for _, reg := range g.regs.Live() {
		if !isArg[reg] {
			saved = append(saved, reg)
			g.line("pushq\t%%%s", reg)
		}
	}

	size := 0
	if frame := g.symbols.Frame(g.fn); frame != nil {
		size = frame.Size()
	}
	g.line("addq\t$%d, %%%s", g.calls.Push(size), frameBase)
	for i, arg := range args {
		g.line("movq\t%%%s, %s", arg, slot(i*slotSize))
		g.regs.Free(arg)
	}
	g.line("call\t%s", name)
	g.line("subq\t$%d, %%%s", g.calls.Pop(), frameBase)

	for i := len(saved) - 1; i >= 0; i-- {
		g.line("popq\t%%%s", saved[i])
	}

	res, err := g.regs.Alloc()
	if err != nil {
		return "", err
	}
	g.line("movq\t%%%s, %%%s", accumulator, res)
	return res, nil
}
