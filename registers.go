package main

// Scratch registers in allocation order. %rax and %rdx are reserved for
// multiply/divide and the return value; %rbp holds the frame base.
var scratchRegisters = []string{
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
	"rcx", "rbx", "rsi", "rdi",
}

const (
	accumulator = "rax"
	remainder   = "rdx"
	frameBase   = "rbp"
)

// RegisterPool hands out scratch registers first-free-in-order. There is
// no spilling: once all twelve are live, allocation fails.
type RegisterPool struct {
	used map[string]bool
}

func NewRegisterPool() *RegisterPool {
	return &RegisterPool{used: make(map[string]bool)}
}

func (p *RegisterPool) Alloc() (string, error) {
	for _, reg := range scratchRegisters {
		if !p.used[reg] {
			p.used[reg] = true
			return reg, nil
		}
	}
	return "", errorf(ErrRegistersExhausted, 0, "all %d scratch registers are live", len(scratchRegisters))
}

// Free returns loc to the pool. Frame slots and reserved registers are
// ignored, so callers can free any operand location.
func (p *RegisterPool) Free(loc string) {
	delete(p.used, loc)
}

// Live returns the allocated registers in pool order.
func (p *RegisterPool) Live() []string {
	var live []string
	for _, reg := range scratchRegisters {
		if p.used[reg] {
			live = append(live, reg)
		}
	}
	return live
}

func (p *RegisterPool) Reset() {
	clear(p.used)
}

func isRegister(loc string) bool {
	for _, reg := range scratchRegisters {
		if reg == loc {
			return true
		}
	}
	return loc == accumulator || loc == remainder
}

// operand renders a location in AT&T syntax: registers get a '%' prefix,
// frame slots are already "off(%rbp)".
func operand(loc string) string {
	if isRegister(loc) {
		return "%" + loc
	}
	return loc
}
