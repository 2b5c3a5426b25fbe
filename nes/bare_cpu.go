package nes

// CPUBus is the exported counterpart of cpuBus: the interface a memory
// implementation outside package nes — internal/bcd6502's flat 64KB test
// memory — has to satisfy to drive BareCPU. Any CPUBus value already
// satisfies cpuBus, so it can be passed straight through to the interpreter.
type CPUBus interface {
	Read(address uint16) byte
	Write(address uint16, v byte)
}

// BareCPU drives the same 6502 interpreter the NES core runs (cpu.go,
// instructions.go), wired to an arbitrary CPUBus instead of a *sysBus. It
// exists for internal/bcd6502's conformance harness, which needs the real
// interpreter — not a second, independently written one — against a flat,
// unbanked memory image with BCD mode turned on.
type BareCPU struct {
	c *cpu
}

// NewBareCPU builds an interpreter with decimal-mode arithmetic enabled
// (the NES wires the 6502's D flag out; this harness is the one place it
// matters) and no ppu/apu attached, since clock() and dmaTransfer are both
// nil-safe for that case.
func NewBareCPU(pc uint16) *BareCPU {
	return &BareCPU{
		c: &cpu{
			p:             interruptDisable | unused,
			s:             0xFD,
			pc:            pc,
			enableDecimal: true,
		},
	}
}

// Step executes a single instruction against bus and returns the cycle
// count it consumed.
func (b *BareCPU) Step(bus CPUBus) uint64 {
	return b.c.execute(bus)
}

// OnDebugTrap registers fn to run instead of the illegal KIL/JAM handler
// whenever the interpreter fetches opcode $02, letting a harness plant $02
// at addresses it wants to intercept (original_source/c64/c64_harness.c's
// OP_DEBUG_TRAP convention).
func (b *BareCPU) OnDebugTrap(fn func(*BareCPU)) {
	b.c.debugTrap = func(*cpu) { fn(b) }
}

func (b *BareCPU) PC() uint16      { return b.c.pc }
func (b *BareCPU) SetPC(pc uint16) { b.c.pc = pc }
func (b *BareCPU) A() byte         { return b.c.a }
func (b *BareCPU) SetA(v byte)     { b.c.a = v }
func (b *BareCPU) Cycles() uint64  { return b.c.cycles }

// PopCallFrame pops a return address off the stack without the +1 a real
// RTS applies, matching c64_harness.c's POP_PC() macro: callers that want
// RTS semantics add 1 themselves afterward.
func (b *BareCPU) PopCallFrame(bus CPUBus) uint16 {
	addr := b.c.pullAddress(bus)
	b.c.pc = addr
	return addr
}
