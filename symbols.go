package main

import "fmt"

const slotSize = 8

// Frame maps a function's variables to byte offsets from the frame base.
type Frame struct {
	offsets map[string]int
	names   []string // declaration order
}

// Size is the number of bytes the frame's variables occupy.
func (f *Frame) Size() int {
	return len(f.names) * slotSize
}

// Names returns the variables in declaration order.
func (f *Frame) Names() []string {
	return f.names
}

// SymbolTable holds one Frame per function. Frames are never dropped; the
// whole program's tables live for one compilation.
type SymbolTable struct {
	frames map[string]*Frame
	order  []string
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{frames: make(map[string]*Frame)}
}

// EnterFunction registers an empty frame for fn. Entering a function twice
// keeps the first frame.
func (st *SymbolTable) EnterFunction(fn string) {
	if _, ok := st.frames[fn]; ok {
		return
	}
	st.frames[fn] = &Frame{offsets: make(map[string]int)}
	st.order = append(st.order, fn)
}

// Declare gives name the next free slot in fn's frame and returns its
// offset. Redeclaring a name returns its existing offset.
func (st *SymbolTable) Declare(fn, name string) int {
	st.EnterFunction(fn)
	frame := st.frames[fn]
	if off, ok := frame.offsets[name]; ok {
		return off
	}
	off := frame.Size()
	frame.offsets[name] = off
	frame.names = append(frame.names, name)
	return off
}

func (st *SymbolTable) Lookup(fn, name string) (int, bool) {
	frame, ok := st.frames[fn]
	if !ok {
		return 0, false
	}
	off, ok := frame.offsets[name]
	return off, ok
}

// Frame returns fn's frame, or nil if fn was never entered.
func (st *SymbolTable) Frame(fn string) *Frame {
	return st.frames[fn]
}

// Functions returns function names in the order they were entered.
func (st *SymbolTable) Functions() []string {
	return st.order
}

func slot(offset int) string {
	return fmt.Sprintf("%d(%%%s)", offset, frameBase)
}

// ParamTable records each visited function's parameter names in order.
type ParamTable struct {
	params map[string][]string
}

func NewParamTable() *ParamTable {
	return &ParamTable{params: make(map[string][]string)}
}

func (pt *ParamTable) Add(fn, name string) {
	pt.params[fn] = append(pt.params[fn], name)
}

// Define marks fn as visited even if it takes no parameters.
func (pt *ParamTable) Define(fn string) {
	if _, ok := pt.params[fn]; !ok {
		pt.params[fn] = []string{}
	}
}

// Params returns fn's parameters and whether fn has been visited.
func (pt *ParamTable) Params(fn string) ([]string, bool) {
	names, ok := pt.params[fn]
	return names, ok
}

// CallStack tracks the cumulative frame-base offset of calls in flight.
// The top entry is the sum of every enclosing call's frame size.
type CallStack struct {
	bases []int
}

func (cs *CallStack) Top() int {
	if len(cs.bases) == 0 {
		return 0
	}
	return cs.bases[len(cs.bases)-1]
}

func (cs *CallStack) Depth() int {
	return len(cs.bases)
}

// Push opens a call whose caller frame is size bytes and returns the amount
// by which the frame base must advance.
func (cs *CallStack) Push(size int) int {
	base := cs.Top() + size
	cs.bases = append(cs.bases, base)
	return size
}

// Pop closes the innermost call and returns the amount by which the frame
// base must retreat.
func (cs *CallStack) Pop() int {
	top := cs.Top()
	cs.bases = cs.bases[:len(cs.bases)-1]
	return top - cs.Top()
}
