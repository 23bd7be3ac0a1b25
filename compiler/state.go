package compiler

import "fmt"

// FrameKind classifies why a CompoundFrame was pushed, so pop-time
// cleanup and break/next/return lookups know what they're looking at.
type FrameKind int

const (
	// FramePlain is a brace scope with no special behaviour of its own
	// (an else body).
	FramePlain FrameKind = iota

	// FrameIf is an if-condition's body.
	FrameIf

	// FrameLoop is a while or repeat body; break/next target it.
	FrameLoop

	// FrameFunc is a function body; return targets it, and popping it
	// emits the function epilogue.
	FrameFunc
)

// CompoundFrame is one entry in the nested-scope stack: every `{ ... }`
// block, and every single-statement body that stands in for one,
// pushes a frame that's popped when the block ends.
type CompoundFrame struct {
	Kind FrameKind

	// Before/After hold extra assembly lines to splice in immediately
	// before/after the End label, e.g. a function's epilogue.
	Before []string
	After  []string

	Start string
	End   string
}

// CallConvention names how a function receives arguments and who
// cleans the stack afterwards.
type CallConvention int

const (
	// CDECL is the default: the caller pops its own arguments.
	CDECL CallConvention = iota

	// STDCALL: the callee pops the arguments, and its symbol name
	// carries the byte-count of the argument list.
	STDCALL
)

// FuncRecord tracks one function's signature across the single pass:
// its calling convention, parameter list, and whether it has been
// given a body yet (a forward declaration stays a prototype until
// its defining occurrence is parsed).
type FuncRecord struct {
	Name      string
	Call      CallConvention
	Prototype bool
	Params    []string
	AsmName   string
}

// Resolution classifies how a bare identifier inside an expression
// is bound: a function parameter, a local `auto` variable, an `extrn`
// global, or nothing at all.
type Resolution int

const (
	ResUnresolved Resolution = iota
	ResParam
	ResLocal
	ResExtern
)

// resolve reports how name is bound in the function currently being
// compiled, and its stack offset when that's meaningful (params and
// locals only).
func (c *Compiler) resolve(name string) (Resolution, int) {
	if off, ok := c.params[name]; ok {
		return ResParam, off
	}
	if off, ok := c.locals[name]; ok {
		return ResLocal, off
	}
	for _, e := range c.externs {
		if e == name {
			return ResExtern, 0
		}
	}
	return ResUnresolved, 0
}

// isBound reports whether name refers to a parameter, local, or extrn
// - i.e. whether it's safe to call locationOf on it.
func (c *Compiler) isBound(name string) bool {
	res, _ := c.resolve(name)
	return res != ResUnresolved
}

// locationOf renders the operand text for a bound name: a frame-
// relative memory reference for params/locals, or a sys_prefix-qualified
// label reference for an extrn.
func (c *Compiler) locationOf(name string) string {
	res, off := c.resolve(name)
	switch res {
	case ResParam:
		return fmt.Sprintf("[%s+%d]", c.tgt.bp(), off)
	case ResLocal:
		return fmt.Sprintf("[%s%d]", c.tgt.bp(), off)
	case ResExtern:
		return fmt.Sprintf("%s [_%s]", c.tgt.sysPrefix(), name)
	default:
		return ""
	}
}
