// Package operand models the values that flow across the parser's
// operand stack while a single function body is walked: a bare name
// awaiting scope resolution, a numeric literal, a packed string
// constant, or a register/memory location that's already been emitted
// into the current expression's assembly.
//
// There is no second pass over these values - each Operand is built,
// consumed by the next operator down the postfix stream, and forgotten,
// the same way the math-compiler's instruction stream fed straight
// from scanning into generation.
package operand

import "github.com/skx/bcc/token"

// Kind identifies which field of an Operand is meaningful.
type Kind int

const (
	// Name is an identifier still awaiting resolution to an auto
	// offset, an extrn symbol, or a function.
	Name Kind = iota

	// Number is a decimal literal, carried as text so it can be
	// dropped straight into an immediate operand.
	Number

	// String is a packed string constant, copied onto the stack where
	// the expression uses it.
	String

	// Register is a value that already lives in a register or a
	// stack/memory slot, ready to be referenced by the next
	// instruction.
	Register
)

// RegSlot names a concrete location: a bare register ("eax"), or a
// memory reference ("[ebp-4]") when IsMemory is set.
type RegSlot struct {
	Text     string
	IsMemory bool
}

// Operand is one value sitting on the parser's operand stack.
type Operand struct {
	Kind   Kind
	Name   string
	Number string
	Str    token.Words
	Reg    RegSlot
}

// NewName builds a Name operand for an as-yet-unresolved identifier.
func NewName(name string) Operand {
	return Operand{Kind: Name, Name: name}
}

// NewNumber builds a Number operand from its decimal text.
func NewNumber(value string) Operand {
	return Operand{Kind: Number, Number: value}
}

// NewString builds a String operand from its packed words.
func NewString(words token.Words) Operand {
	return Operand{Kind: String, Str: words}
}

// NewRegister builds a Register operand naming a register.
func NewRegister(text string) Operand {
	return Operand{Kind: Register, Reg: RegSlot{Text: text}}
}

// NewMemory builds a Register operand naming a memory reference.
func NewMemory(text string) Operand {
	return Operand{Kind: Register, Reg: RegSlot{Text: text, IsMemory: true}}
}

// Text renders the operand the way it should appear inside an emitted
// instruction operand list.
func (o Operand) Text() string {
	switch o.Kind {
	case Name:
		return o.Name
	case Number:
		return o.Number
	case Register:
		return o.Reg.Text
	case String:
		return "<string>"
	default:
		return ""
	}
}

// IsMemory reports whether this operand, if a Register, refers to a
// memory location rather than a bare register.
func (o Operand) IsMemory() bool {
	return o.Kind == Register && o.Reg.IsMemory
}
