package compiler

import (
	"fmt"
	"strings"

	"github.com/skx/bcc/operand"
	"github.com/skx/bcc/rpn"
	"github.com/skx/bcc/stack"
	"github.com/skx/bcc/token"
)

var unaryOps = map[string]bool{
	"++": true, "--": true, "u++": true, "u--": true,
	"u+": true, "u-": true, "u!": true, "u*": true, "u&": true,
}

var binaryOps = map[string]bool{
	"*": true, "/": true, "%": true, "+": true, "-": true,
	"<<": true, ">>": true, "&": true, "^": true, "|": true,
}

var relOps = map[string]bool{
	"<": true, ">": true, "<=": true, ">=": true, "==": true, "!=": true,
}

// evalExpr reorders toks into postfix and walks it, emitting
// instructions and returning the final operand left on the stack (nil
// for an empty expression, e.g. a bare `return;`).
func (c *Compiler) evalExpr(toks []token.Token) (*operand.Operand, error) {
	if len(toks) == 0 {
		return nil, nil
	}

	if c.opts.Debug {
		c.add("; INFIX:" + renderTokens(toks))
	}

	postfix, err := rpn.Reorder(toks, c.lines)
	if err != nil {
		return nil, err
	}

	if c.opts.Debug {
		c.add("; POSTFIX:" + renderTokens(postfix))
	}

	ev := &evaluator{c: c, st: stack.New[operand.Operand](), in: postfix}
	return ev.run()
}

func renderTokens(toks []token.Token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(" ")
		sb.WriteString(t.Value)
	}
	return sb.String()
}

// evaluator walks one expression's postfix token stream, maintaining
// the operand stack described in spec §6.4.
type evaluator struct {
	c    *Compiler
	st   *stack.Stack[operand.Operand]
	in   []token.Token
	args int
}

func (e *evaluator) pop() (operand.Operand, error) {
	v, err := e.st.Pop()
	if err != nil {
		return operand.Operand{}, e.c.errorf(CodeBadOperandType, "expression stack underflow")
	}
	return v, nil
}

func (e *evaluator) run() (*operand.Operand, error) {
	for len(e.in) > 0 {
		tok := e.in[0]

		switch {
		case tok.Kind == rpn.FUNC:
			if err := e.doCall(tok); err != nil {
				return nil, err
			}
			e.in = e.in[1:]

		case tok.Kind == token.NAME:
			e.st.Push(operand.NewName(tok.Value))
			e.in = e.in[1:]

		case tok.Kind == token.NUMBER:
			e.st.Push(operand.NewNumber(tok.Value))
			e.in = e.in[1:]

		case tok.Kind == token.STRING:
			e.st.Push(operand.NewString(tok.Words))
			e.in = e.in[1:]

		case unaryOps[tok.Value]:
			if err := e.doUnary(tok.Value); err != nil {
				return nil, err
			}
			e.in = e.in[1:]

		case binaryOps[tok.Value]:
			if err := e.doBinary(tok.Value); err != nil {
				return nil, err
			}
			e.in = e.in[1:]

		case relOps[tok.Value]:
			if err := e.doRelational(tok.Value); err != nil {
				return nil, err
			}
			e.in = e.in[1:]

		case tok.Kind == token.SB:
			if err := e.doIndexStart(); err != nil {
				return nil, err
			}
			e.in = e.in[1:]

		case tok.Kind == token.EB:
			if err := e.doIndexEnd(); err != nil {
				return nil, err
			}
			e.in = e.in[1:]

		case tok.Value == "=":
			if err := e.doAssign(); err != nil {
				return nil, err
			}
			e.in = e.in[1:]

		case tok.Value == "+=" || tok.Value == "<<=" || tok.Value == ">>=":
			if err := e.doCompoundAssign(tok.Value); err != nil {
				return nil, err
			}
			e.in = e.in[1:]

		case tok.Value == "/=":
			if err := e.doDivideAssign(); err != nil {
				return nil, err
			}
			e.in = e.in[1:]

		case tok.Value == "-=" || tok.Value == "*=" || tok.Value == "%=" ||
			tok.Value == "&=" || tok.Value == "^=" || tok.Value == "|=":
			return nil, e.c.errorfAt(tok, CodeUnsupportedOp, "compound operator %q is not implemented", tok.Value)

		case tok.Value == ":":
			if err := e.doTernary(); err != nil {
				return nil, err
			}
			e.in = e.in[1:]

		case tok.Value == "?":
			// consumed as part of the preceding ':' handler
			e.in = e.in[1:]

		case tok.Kind == token.COMMA:
			if err := e.doArgument(); err != nil {
				return nil, err
			}
			e.in = e.in[1:]

		default:
			return nil, e.c.errorfAt(tok, CodeBadOperandType, "unhandled token in expression: %q", tok.Value)
		}
	}

	if e.st.Empty() {
		return nil, nil
	}
	top, _ := e.st.Peek()
	return &top, nil
}

// isVar reports whether op names a bound variable (param/local/extrn).
func (e *evaluator) isVar(op operand.Operand) bool {
	return op.Kind == operand.Name && e.c.isBound(op.Name)
}

func (e *evaluator) doCall(tok token.Token) error {
	rec, ok := e.c.funcs[tok.Value]
	if !ok {
		return e.c.errorfAt(tok, CodeUnknownCall, "call to undefined function %q", tok.Value)
	}

	e.c.add(fmt.Sprintf("call %s", rec.AsmName))
	if e.args > 0 && rec.Call == CDECL {
		e.c.add(fmt.Sprintf("add %s, %d", e.c.tgt.sp(), e.args*e.c.tgt.word))
	}
	e.args = 0
	e.st.Push(operand.NewRegister(e.c.tgt.a()))
	return nil
}

func (e *evaluator) doArgument() error {
	a, err := e.pop()
	if err != nil {
		return err
	}
	text, err := e.operandText(a, true)
	if err != nil {
		return err
	}
	e.c.add(fmt.Sprintf("push %s", text))
	e.args++
	return nil
}

// operandText renders an operand for direct use as an instruction
// operand, resolving bound names and (when sized is true) qualifying
// an immediate or memory operand pushed bare onto the stack.
func (e *evaluator) operandText(op operand.Operand, sized bool) (string, error) {
	switch {
	case e.isVar(op):
		loc := e.c.locationOf(op.Name)
		if sized {
			return fmt.Sprintf("%s %s", e.c.tgt.sysPrefix(), loc), nil
		}
		return loc, nil
	case op.Kind == operand.Number:
		if sized {
			return fmt.Sprintf("%s %s", e.c.tgt.sysPrefix(), op.Number), nil
		}
		return op.Number, nil
	case op.Kind == operand.Register:
		return op.Reg.Text, nil
	default:
		return "", e.c.errorf(CodeBadOperandType, "value cannot be used here")
	}
}

func (e *evaluator) doUnary(op string) error {
	a, err := e.pop()
	if err != nil {
		return err
	}

	var text string
	switch {
	case e.isVar(a):
		if op == "u&" {
			text = e.c.locationOf(a.Name)
		} else {
			text = fmt.Sprintf("%s %s", e.c.tgt.sysPrefix(), e.c.locationOf(a.Name))
		}
	case a.Kind == operand.Number:
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), a.Number))
		text = e.c.tgt.a()
	case a.Kind == operand.Register:
		if op != "u&" && strings.HasPrefix(a.Reg.Text, "[") {
			text = fmt.Sprintf("%s %s", e.c.tgt.sysPrefix(), a.Reg.Text)
		} else {
			text = a.Reg.Text
		}
	default:
		return e.c.errorf(CodeBadOperandType, "unary operator applied to an invalid operand")
	}

	switch op {
	case "++", "u++":
		e.c.add(fmt.Sprintf("inc %s", text))
	case "--", "u--":
		e.c.add(fmt.Sprintf("dec %s", text))
	case "u-":
		e.c.add(fmt.Sprintf("neg %s", text))
	case "u!":
		e.c.add(fmt.Sprintf("not %s", text))
	case "u&":
		e.c.add(fmt.Sprintf("lea %s, %s", e.c.tgt.a(), text))
		text = e.c.tgt.a()
	case "u+", "u*":
		return e.c.errorf(CodeUnsupportedOp, "unary operator %q is not implemented", op)
	default:
		return e.c.errorf(CodeUnsupportedOp, "unrecognised unary operator %q", op)
	}

	text = strings.TrimSpace(strings.TrimPrefix(text, e.c.tgt.sysPrefix()))
	e.st.Push(operand.NewRegister(text))
	return nil
}

func (e *evaluator) doBinary(op string) error {
	b, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.pop()
	if err != nil {
		return err
	}

	var aText string
	switch {
	case e.isVar(a):
		reg := e.c.tgt.d()
		if e.regOf(b) == e.c.tgt.a() {
			reg = e.c.tgt.d()
		} else {
			reg = e.c.tgt.a()
		}
		e.c.add(fmt.Sprintf("mov %s, %s", reg, e.c.locationOf(a.Name)))
		aText = reg
	case a.Kind == operand.Number:
		reg := e.c.tgt.a()
		if e.regOf(b) == e.c.tgt.a() {
			reg = e.c.tgt.d()
		}
		e.c.add(fmt.Sprintf("mov %s, %s", reg, a.Number))
		aText = reg
	case a.Kind == operand.Register:
		if a.Reg.Text != e.c.tgt.a() {
			e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), a.Reg.Text))
		}
		aText = e.c.tgt.a()
	default:
		return e.c.errorf(CodeBadOperandType, "left-hand operand is invalid")
	}

	var bText string
	shiftable := op == "<<" || op == ">>"
	switch {
	case e.isVar(b):
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.c(), e.c.locationOf(b.Name)))
		bText = e.shiftOperand(shiftable)
	case b.Kind == operand.Number:
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.c(), b.Number))
		bText = e.shiftOperand(shiftable)
	case b.Kind == operand.Register:
		if b.Reg.Text != e.c.tgt.c() {
			e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.c(), b.Reg.Text))
		}
		bText = e.shiftOperand(shiftable)
	default:
		return e.c.errorf(CodeBadOperandType, "right-hand operand is invalid")
	}

	result := e.c.tgt.a()
	switch op {
	case "*":
		e.c.add(fmt.Sprintf("mul %s", bText))
	case "/":
		e.c.add(fmt.Sprintf("xor %s, %s", e.c.tgt.d(), e.c.tgt.d()))
		e.c.add(fmt.Sprintf("div %s", bText))
	case "%":
		e.c.add(fmt.Sprintf("xor %s, %s", e.c.tgt.d(), e.c.tgt.d()))
		e.c.add(fmt.Sprintf("div %s", bText))
		result = e.c.tgt.d()
	case "+":
		e.c.add(fmt.Sprintf("add %s, %s", aText, bText))
		result = aText
	case "-":
		e.c.add(fmt.Sprintf("sub %s, %s", aText, bText))
		result = aText
	case "<<":
		e.c.add(fmt.Sprintf("shl %s, %s", aText, bText))
		result = aText
	case ">>":
		e.c.add(fmt.Sprintf("shr %s, %s", aText, bText))
		result = aText
	case "&":
		e.c.add(fmt.Sprintf("and %s, %s", aText, bText))
		result = aText
	case "^":
		e.c.add(fmt.Sprintf("xor %s, %s", aText, bText))
		result = aText
	case "|":
		e.c.add(fmt.Sprintf("or %s, %s", aText, bText))
		result = aText
	default:
		return e.c.errorf(CodeUnsupportedOp, "unrecognised binary operator %q", op)
	}

	e.st.Push(operand.NewRegister(result))
	return nil
}

// regOf reports the register name an already-materialised operand
// occupies, or "" if it isn't a register operand.
func (e *evaluator) regOf(op operand.Operand) string {
	if op.Kind == operand.Register {
		return op.Reg.Text
	}
	return ""
}

// shiftOperand returns register C, narrowed to its low byte when this
// operator is a shift (shift counts may only use cl).
func (e *evaluator) shiftOperand(shift bool) string {
	if !shift {
		return e.c.tgt.c()
	}
	low, _ := e.c.tgt.lowByte(e.c.tgt.c())
	return low
}

func (e *evaluator) doRelational(op string) error {
	b, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.pop()
	if err != nil {
		return err
	}

	var aText string
	switch {
	case e.isVar(a):
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.d(), e.c.locationOf(a.Name)))
		aText = e.c.tgt.d()
	case a.Kind == operand.Register:
		aText = a.Reg.Text
		if aText == e.c.tgt.a() {
			e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.d(), aText))
			aText = e.c.tgt.d()
		}
	default:
		return e.c.errorf(CodeBadOperandType, "left-hand operand of a comparison is invalid")
	}

	var bText string
	switch {
	case e.isVar(b):
		bText = e.c.locationOf(b.Name)
	case b.Kind == operand.Register || b.Kind == operand.Number:
		bText, _ = e.operandText(b, false)
		if bText == e.c.tgt.a() {
			e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.d(), bText))
			bText = e.c.tgt.d()
		}
	default:
		return e.c.errorf(CodeBadOperandType, "right-hand operand of a comparison is invalid")
	}

	e.c.add(fmt.Sprintf("xor %s, %s", e.c.tgt.a(), e.c.tgt.a()))
	e.c.add(fmt.Sprintf("cmp %s, %s", aText, bText))

	lbl := e.c.label()
	var jmp string
	switch op {
	case "<":
		jmp = "jae"
	case ">":
		jmp = "jbe"
	case "<=":
		jmp = "ja"
	case ">=":
		jmp = "jb"
	case "==":
		jmp = "jne"
	case "!=":
		jmp = "je"
	default:
		return e.c.errorf(CodeUnsupportedOp, "unrecognised comparison %q", op)
	}
	e.c.add(fmt.Sprintf("%s %s", jmp, lbl))
	e.c.add(fmt.Sprintf("inc %s", e.c.tgt.a()))
	e.c.add(lbl + ":")

	e.st.Push(operand.NewRegister(e.c.tgt.a()))
	return nil
}

func (e *evaluator) doIndexStart() error {
	a, err := e.pop()
	if err != nil {
		return err
	}

	var text string
	switch {
	case e.isVar(a):
		text = e.c.locationOf(a.Name)
	case a.Kind == operand.Register:
		text = a.Reg.Text
	default:
		return e.c.errorf(CodeBadOperandType, "cannot index this value")
	}
	e.st.Push(operand.NewRegister(text))
	return nil
}

func (e *evaluator) doIndexEnd() error {
	b, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.pop()
	if err != nil {
		return err
	}

	var aText string
	switch {
	case e.isVar(a):
		aText = fmt.Sprintf("%s %s", e.c.tgt.sysPrefix(), e.c.locationOf(a.Name))
	case a.Kind == operand.Register:
		aText = a.Reg.Text
	default:
		return e.c.errorf(CodeBadOperandType, "invalid vector base")
	}

	var bText string
	switch {
	case e.isVar(b):
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), e.c.locationOf(b.Name)))
		bText = e.c.tgt.a()
	case b.Kind == operand.Register:
		bText = b.Reg.Text
		if strings.HasPrefix(bText, "[") {
			e.c.add(fmt.Sprintf("mov %s, %s %s", e.c.tgt.a(), e.c.tgt.sysPrefix(), bText))
			bText = e.c.tgt.a()
		}
	default:
		return e.c.errorf(CodeBadOperandType, "invalid vector index")
	}

	e.c.add(fmt.Sprintf("shl %s, %d", bText, e.c.tgt.shiftAmount()))
	e.c.add(fmt.Sprintf("add %s, %s", bText, aText))

	bText = strings.TrimSpace(strings.TrimPrefix(bText, e.c.tgt.sysPrefix()))
	e.st.Push(operand.NewRegister(fmt.Sprintf("[%s]", bText)))
	return nil
}

func (e *evaluator) doAssign() error {
	b, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.pop()
	if err != nil {
		return err
	}

	var dest string
	switch {
	case a.Kind == operand.Name && e.isVar(a):
		dest = fmt.Sprintf("%s %s", e.c.tgt.sysPrefix(), e.c.locationOf(a.Name))
		e.st.Push(operand.NewRegister(e.c.locationOf(a.Name)))
	case a.Kind == operand.Register:
		dest = a.Reg.Text
		if strings.HasPrefix(dest, "[") {
			dest = fmt.Sprintf("%s %s", e.c.tgt.sysPrefix(), dest)
		}
		e.st.Push(operand.NewRegister(a.Reg.Text))
	default:
		return e.c.errorf(CodeBadOperandType, "left-hand side of an assignment must be an lvalue")
	}

	var src string
	switch {
	case b.Kind == operand.Name && e.isVar(b):
		src = e.c.locationOf(b.Name)
	case b.Kind == operand.String:
		src = e.materializeString(b.Str)
	case b.Kind == operand.Register || b.Kind == operand.Number:
		src, _ = e.operandText(b, false)
	default:
		return e.c.errorf(CodeBadOperandType, "right-hand side of an assignment is invalid")
	}

	if strings.HasPrefix(dest, e.c.tgt.sysPrefix()) && strings.HasPrefix(src, "[") {
		e.c.add(fmt.Sprintf("mov %s, dword %s", e.c.tgt.c(), src))
		src = e.c.tgt.c()
	}

	e.c.add(fmt.Sprintf("mov %s, %s", dest, src))
	return nil
}

// doCompoundAssign implements +=, <<=, and >>=. Of the other compound
// assignment operators only /= is handled, by doDivideAssign.
func (e *evaluator) doCompoundAssign(op string) error {
	b, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.pop()
	if err != nil {
		return err
	}

	var dest, bare string
	switch {
	case e.isVar(a):
		bare = e.c.locationOf(a.Name)
		dest = fmt.Sprintf("%s %s", e.c.tgt.sysPrefix(), bare)
	case a.Kind == operand.Register:
		bare = a.Reg.Text
		dest = bare
	default:
		return e.c.errorf(CodeBadOperandType, "left-hand side must be an lvalue")
	}

	var src string
	isShift := op == "<<=" || op == ">>="
	switch {
	case e.isVar(b):
		src = e.c.locationOf(b.Name)
	case b.Kind == operand.Number:
		src = b.Number
	case b.Kind == operand.Register:
		src = b.Reg.Text
		if isShift {
			if src == e.c.tgt.c() {
				src = "cl"
			} else if strings.HasPrefix(dest, e.c.tgt.sysPrefix()) {
				e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.c(), src))
				src = "cl"
			}
		}
	default:
		return e.c.errorf(CodeBadOperandType, "right-hand side is invalid")
	}

	if strings.HasPrefix(dest, e.c.tgt.sysPrefix()) && strings.HasPrefix(src, "[") {
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), src))
		src = e.c.tgt.a()
	}

	switch op {
	case "+=":
		e.c.add(fmt.Sprintf("add %s, %s", dest, src))
	case "<<=":
		e.c.add(fmt.Sprintf("shl %s, %s", dest, src))
	case ">>=":
		e.c.add(fmt.Sprintf("shr %s, %s", dest, src))
	}

	e.st.Push(operand.NewRegister(bare))
	return nil
}

func (e *evaluator) doDivideAssign() error {
	b, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.pop()
	if err != nil {
		return err
	}

	switch {
	case e.isVar(a):
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), e.c.locationOf(a.Name)))
	case a.Kind == operand.Number:
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), a.Number))
	case a.Kind == operand.Register:
		if a.Reg.Text != e.c.tgt.a() {
			e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), a.Reg.Text))
		}
	default:
		return e.c.errorf(CodeBadOperandType, "left-hand side is invalid")
	}

	switch {
	case e.isVar(b):
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.c(), e.c.locationOf(b.Name)))
	case b.Kind == operand.Number:
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.c(), b.Number))
	case b.Kind == operand.Register:
		if b.Reg.Text != e.c.tgt.c() {
			e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.c(), b.Reg.Text))
		}
	default:
		return e.c.errorf(CodeBadOperandType, "right-hand side is invalid")
	}

	e.c.add(fmt.Sprintf("xor %s, %s", e.c.tgt.d(), e.c.tgt.d()))
	e.c.add(fmt.Sprintf("div %s", e.c.tgt.c()))
	if e.isVar(a) {
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.locationOf(a.Name), e.c.tgt.a()))
	}
	e.st.Push(operand.NewRegister(e.c.tgt.a()))
	return nil
}

func (e *evaluator) doTernary() error {
	c, err := e.pop()
	if err != nil {
		return err
	}
	b, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.pop()
	if err != nil {
		return err
	}

	aText, err := e.ternaryOperand(a)
	if err != nil {
		return err
	}
	bText, err := e.ternaryOperand(b)
	if err != nil {
		return err
	}
	cText, err := e.ternaryOperand(c)
	if err != nil {
		return err
	}

	mid := e.c.label()
	end := e.c.label()

	e.c.add(fmt.Sprintf("cmp %s, 0", aText))
	e.c.add(fmt.Sprintf("jz %s", mid))
	e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), bText))
	e.c.add(fmt.Sprintf("jmp %s", end))
	e.c.add(mid + ":")
	e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), cText))
	e.c.add(end + ":")

	e.st.Push(operand.NewRegister(e.c.tgt.a()))
	return nil
}

func (e *evaluator) ternaryOperand(op operand.Operand) (string, error) {
	switch {
	case e.isVar(op):
		return e.c.locationOf(op.Name), nil
	case op.Kind == operand.Register || op.Kind == operand.Number:
		return e.operandText(op, false)
	default:
		return "", e.c.errorf(CodeBadOperandType, "ternary operand is invalid")
	}
}

// materializeString allocates stack space for a string constant and
// copies its packed words into it, returning the lea'd pointer.
func (e *evaluator) materializeString(words token.Words) string {
	n := len(words) * e.c.tgt.word
	e.c.localL -= n
	base := e.c.localL
	e.c.add(fmt.Sprintf("; string size %d @ [%s%d]", n, e.c.tgt.bp(), base))
	e.c.add(fmt.Sprintf("sub %s, %d", e.c.tgt.sp(), n))

	for i, w := range words {
		e.c.add(fmt.Sprintf("mov %s [%s%d], %d", e.c.tgt.sysPrefix(), e.c.tgt.bp(), base+i*4, w))
	}
	e.c.add(fmt.Sprintf("lea %s, [%s%d]", e.c.tgt.a(), e.c.tgt.bp(), base))
	return e.c.tgt.a()
}

// materializeTestable ensures val is sitting in a register, suitable
// for a `test reg, reg` / `je` pair, loading a bare immediate or
// memory reference into the result register first if needed.
func (e *evaluator) materializeTestable(val *operand.Operand) (string, error) {
	if val == nil {
		return "", e.c.errorf(CodeBadOperandType, "condition expression produced no value")
	}

	switch {
	case e.isVar(*val):
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), e.c.locationOf(val.Name)))
		return e.c.tgt.a(), nil
	case val.Kind == operand.Number:
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), val.Number))
		return e.c.tgt.a(), nil
	case val.Kind == operand.Register:
		text := val.Reg.Text
		if strings.HasPrefix(text, "[") {
			e.c.add(fmt.Sprintf("mov %s, %s %s", e.c.tgt.a(), e.c.tgt.sysPrefix(), text))
			return e.c.tgt.a(), nil
		}
		return text, nil
	default:
		return "", e.c.errorf(CodeBadOperandType, "condition expression is invalid")
	}
}

// moveToA loads val, whatever kind it is, into the result register,
// used by `return`.
func (e *evaluator) moveToA(val *operand.Operand) error {
	if val == nil {
		e.c.add(fmt.Sprintf("xor %s, %s", e.c.tgt.a(), e.c.tgt.a()))
		return nil
	}
	switch {
	case e.isVar(*val):
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), e.c.locationOf(val.Name)))
	case val.Kind == operand.Number:
		e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), val.Number))
	case val.Kind == operand.Register:
		if val.Reg.Text != e.c.tgt.a() {
			e.c.add(fmt.Sprintf("mov %s, %s", e.c.tgt.a(), val.Reg.Text))
		}
	default:
		return e.c.errorf(CodeBadOperandType, "return value is invalid")
	}
	return nil
}
