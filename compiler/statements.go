package compiler

import (
	"fmt"
	"strconv"

	"github.com/skx/bcc/token"
)

// parse runs the single dispatch loop over the token stream until it's
// exhausted, recognising one statement at a time.
func (c *Compiler) parse() error {
	for len(c.in) > 0 {
		if c.nextSimple {
			c.nextSimple = false
			c.inSimple = true
		}

		cur := c.peek()

		var err error
		switch {
		case cur.Kind == token.NAME && c.peekIsCallSite() && !c.inFunc && !c.names[cur.Value]:
			err = c.doFunc()

		case cur.Kind == token.NAME && c.inFunc:
			err = c.doMathStatement()

		case cur.Kind == token.NAME && !c.inFunc:
			err = c.doExternData()

		case cur.Kind == token.STDCALL || cur.Kind == token.CDECL:
			err = c.doFunc()

		case cur.Kind == token.AUTO:
			err = c.doAuto()

		case cur.Kind == token.EXTRN:
			err = c.doExtrn()

		case cur.Kind == token.ASM:
			err = c.doAsm()

		case cur.Kind == token.GOTO:
			err = c.errorf(CodeGotoUnsupported, "goto is not supported")

		case cur.Kind == token.RETURN:
			err = c.doReturn()

		case cur.Kind == token.BREAK:
			err = c.doBreak()

		case cur.Kind == token.NEXT:
			err = c.doNext()

		case cur.Kind == token.IF:
			err = c.doIf()

		case cur.Kind == token.ELSE:
			err = c.doElse()

		case cur.Kind == token.REPEAT:
			err = c.doRepeat()

		case cur.Kind == token.WHILE:
			err = c.doWhile()

		case cur.Kind == token.EC:
			err = c.doEnd()

		default:
			err = c.errorf(CodeUnknownStatement, "unexpected token %s", cur.Kind)
		}
		if err != nil {
			return err
		}

		c.addBlank()

		if c.inSimple {
			c.inSimple = false
			if err := c.popCompound(); err != nil {
				return err
			}
			c.addBlank()
		}
	}

	if !c.compounds.Empty() {
		return c.errorf(CodeUnmatchedBrace, "unterminated block: missing '}'")
	}

	return nil
}

// peekIsCallSite reports whether the current NAME token is immediately
// followed by '(', i.e. it introduces a function (definition or
// prototype) rather than a global variable.
func (c *Compiler) peekIsCallSite() bool {
	next, ok := c.peekAt(1)
	return ok && next.Kind == token.SP
}

// doAsm splices a verbatim assembly fragment into the output.
func (c *Compiler) doAsm() error {
	c.add(c.peek().Value)
	c.discard(1)

	switch c.peek().Kind {
	case token.EC:
		// left for the caller to consume
	case token.SEMICOLON:
		c.discard(1)
	default:
		return c.errorf(CodeAsmNotTerminated, "inline assembly must end with ';' or '}'")
	}
	return nil
}

// doExternData declares a top-level, statically-initialised global:
// `name number;` or `name[count];`.
func (c *Compiler) doExternData() error {
	name := c.peek().Value
	c.discard(1)

	switch c.peek().Kind {
	case token.NUMBER:
		c.add(fmt.Sprintf("_%s: %s %s", name, c.tgt.sysData(), c.peek().Value), ".data")
		c.discard(1)

	case token.SB:
		c.discard(1)
		if c.peek().Kind != token.NUMBER {
			return c.errorf(CodeBadParam, "expected a vector size")
		}
		c.add(fmt.Sprintf("_%s: times %s %s 0", name, c.peek().Value, c.tgt.sysData()), ".data")
		c.discard(1)
		if c.peek().Kind != token.EB {
			return c.errorf(CodeBadParam, "expected ']'")
		}
		c.discard(1)

	default:
		return c.errorf(CodeBadParam, "expected a number or '[' after a global name")
	}

	if c.peek().Kind != token.SEMICOLON {
		return c.errorf(CodeExpectSC, "expected ';'")
	}
	c.discard(1)
	c.names[name] = true
	return nil
}

// doEnd closes the innermost open block on '}'.
func (c *Compiler) doEnd() error {
	c.discard(1)
	if c.compounds.Empty() {
		return c.errorf(CodeDanglingBrace, "'}' with no matching '{'")
	}
	return c.popCompound()
}

// doExtrn declares one or more names as externally-defined globals,
// resolved at link time.
func (c *Compiler) doExtrn() error {
	c.discard(1)

	for {
		if c.peek().Kind != token.NAME {
			return c.errorf(CodeBadParam, "expected a name after extrn")
		}
		name := c.peek().Value
		if c.names[name] {
			return c.errorf(CodeRedefinedVar, "%q is already declared", name)
		}
		c.names[name] = true
		c.externs = append(c.externs, name)
		c.discard(1)

		switch c.peek().Kind {
		case token.COMMA:
			c.discard(1)
		case token.SEMICOLON:
			c.discard(1)
			return nil
		default:
			return c.errorf(CodeExpectSC, "expected ',' or ';'")
		}
	}
}

// doAuto declares one or more local variables (optionally vectors),
// allocating each on the stack below the current frame pointer.
func (c *Compiler) doAuto() error {
	c.discard(1)

	for {
		if c.peek().Kind != token.NAME {
			return c.errorf(CodeBadParam, "expected a name after auto")
		}
		name := c.peek().Value
		c.discard(1)

		if c.names[name] {
			return c.errorf(CodeRedefinedVar, "%q is already declared", name)
		}

		if c.peek().Kind == token.SB {
			c.discard(1)
			if c.peek().Kind != token.NUMBER {
				return c.errorf(CodeBadParam, "expected a vector size")
			}
			v, _ := strconv.Atoi(c.peek().Value)
			c.discard(1)

			c.localL -= v * c.tgt.word
			if v > 0 {
				c.add(fmt.Sprintf("lea %s, [%s%d]", c.tgt.a(), c.tgt.bp(), c.localL))
			} else {
				c.add(fmt.Sprintf("xor %s, %s", c.tgt.a(), c.tgt.a()))
			}
			c.localL -= c.tgt.word
			c.add(fmt.Sprintf("mov [%s%d], %s", c.tgt.bp(), c.localL, c.tgt.a()))
			c.add(fmt.Sprintf("sub %s, %d", c.tgt.sp(), (v+1)*c.tgt.word))

			if c.peek().Kind != token.EB {
				return c.errorf(CodeBadParam, "expected ']'")
			}
			c.discard(1)
		} else {
			c.localL -= c.tgt.word
			c.add(fmt.Sprintf("sub %s, %d", c.tgt.sp(), c.tgt.word))
		}

		c.names[name] = true
		c.locals[name] = c.localL
		c.add(fmt.Sprintf("; %s @ [%s%d]", name, c.tgt.bp(), c.localL))

		switch c.peek().Kind {
		case token.COMMA:
			c.discard(1)
		case token.SEMICOLON:
			c.discard(1)
			return nil
		default:
			return c.errorf(CodeExpectSC, "expected ',' or ';'")
		}
	}
}

// doFunc parses a function prototype or definition, registering its
// signature and, for a definition, opening its body's CompoundFrame.
func (c *Compiler) doFunc() error {
	rec := &FuncRecord{Call: CDECL}
	rec.Prototype = !c.findInline(token.SC)

	if c.inFunc {
		return c.errorf(CodeNestedFunc, "functions cannot be nested")
	}

	if c.peek().Kind == token.STDCALL {
		rec.Call = STDCALL
		c.discard(1)
	} else if c.peek().Kind == token.CDECL {
		rec.Call = CDECL
		c.discard(1)
	}

	name := c.peek().Value
	if c.names[name] {
		return c.errorf(CodeRedefinedFunc, "%q is already declared", name)
	}
	rec.Name = name
	c.discard(1)

	if existing, ok := c.funcs[name]; ok {
		if !(!rec.Prototype && existing.Prototype) {
			return c.errorf(CodeRedefinedFunc, "function %q is already defined", name)
		}
	}

	c.paramL = c.tgt.word * 2
	c.localL = 0

	if c.peek().Kind != token.SP {
		return c.errorf(CodeExpectSP, "expected '(' after function name")
	}
	c.discard(1)

	for {
		switch c.peek().Kind {
		case token.NAME:
			pname := c.peek().Value
			if c.names[pname] {
				return c.errorf(CodeBadParam, "parameter %q is already declared", pname)
			}
			if !rec.Prototype {
				c.names[pname] = true
				c.params[pname] = c.paramL
				c.paramL += c.tgt.word
			}
			rec.Params = append(rec.Params, pname)
			c.discard(1)

		case token.EP:
			// handled below

		default:
			return c.errorf(CodeExpectParamOrEP, "expected a parameter name or ')'")
		}

		switch c.peek().Kind {
		case token.COMMA:
			c.discard(1)
		case token.EP:
			c.discard(1)
			goto doneParams
		default:
			return c.errorf(CodeExpectCommaOrEP, "expected ',' or ')'")
		}
	}
doneParams:

	if !rec.Prototype && c.peek().Kind == token.SC {
		c.discard(1)
	} else if rec.Prototype && c.peek().Kind == token.SEMICOLON {
		c.discard(1)
	} else {
		return c.errorf(CodeExpectBodyOrSC, "expected '{' or ';'")
	}

	if rec.Call == CDECL {
		rec.AsmName = fmt.Sprintf("_%s", rec.Name)
	} else {
		rec.AsmName = fmt.Sprintf("_%s@%d", rec.Name, len(rec.Params)*c.tgt.word)
	}

	if !rec.Prototype {
		frame := c.pushCompound(FrameFunc,
			[]string{fmt.Sprintf("xor %s, %s", c.tgt.a(), c.tgt.a())},
			[]string{
				fmt.Sprintf("mov %s, %s", c.tgt.sp(), c.tgt.bp()),
				fmt.Sprintf("pop %s", c.tgt.bp()),
				"ret",
			})
		// The function body's own entry label is its mangled name,
		// not a generic .Lnn counter label.
		c.labelCounter--
		frame.End = frame.Start
		frame.Start = rec.AsmName

		c.names[rec.Name] = true
		c.inFunc = true
		c.add(frame.Start + ":")
		c.add(fmt.Sprintf("push %s", c.tgt.bp()))
		c.add(fmt.Sprintf("mov %s, %s", c.tgt.bp(), c.tgt.sp()))
		c.addBlank()
	}

	c.funcs[rec.Name] = rec
	return nil
}

// statementExpr collects the tokens of one expression statement up to its
// terminating ';' or '}'; a ';' is consumed, a '}' is left for the caller.
func (c *Compiler) statementExpr() []token.Token {
	var toks []token.Token
	for c.peek().Kind != token.SEMICOLON && c.peek().Kind != token.EC {
		toks = append(toks, c.peek())
		c.discard(1)
	}
	if c.peek().Kind == token.SEMICOLON {
		c.discard(1)
	}
	return toks
}

// doMathStatement evaluates a bare expression statement for its side
// effects, discarding the result.
func (c *Compiler) doMathStatement() error {
	toks := c.statementExpr()
	_, err := c.evalExpr(toks)
	return err
}

// doReturn evaluates its optional expression into the result register
// and jumps to the enclosing function's epilogue.
func (c *Compiler) doReturn() error {
	c.discard(1)
	toks := c.statementExpr()

	val, err := c.evalExpr(toks)
	if err != nil {
		return err
	}

	if err := c.moveToA(val); err != nil {
		return err
	}

	frame, ok := c.funcCompound()
	if !ok {
		return c.errorf(CodeReturnOutsideFunc, "return used outside a function")
	}
	c.add(fmt.Sprintf("jmp %s", frame.End))
	return nil
}

// doBreak jumps to the enclosing loop's end label.
func (c *Compiler) doBreak() error {
	c.discard(1)
	if c.peek().Kind != token.SEMICOLON {
		return c.errorf(CodeExpectSC, "expected ';'")
	}
	c.discard(1)

	frame, ok := c.loopCompound()
	if !ok {
		return c.errorf(CodeBreakOutsideLoop, "break used outside a loop")
	}
	c.add(fmt.Sprintf("jmp %s", frame.End))
	return nil
}

// doNext jumps back to the enclosing loop's start label.
func (c *Compiler) doNext() error {
	c.discard(1)
	if c.peek().Kind != token.SEMICOLON {
		return c.errorf(CodeExpectSC, "expected ';'")
	}
	c.discard(1)

	frame, ok := c.loopCompound()
	if !ok {
		return c.errorf(CodeNextOutsideLoop, "next used outside a loop")
	}
	c.add(fmt.Sprintf("jmp %s", frame.Start))
	return nil
}

// conditionExpr collects the tokens of a parenthesised condition,
// tracking nested parentheses; the closing ')' is consumed but not
// included in the returned tokens.
func (c *Compiler) conditionExpr() ([]token.Token, error) {
	if c.peek().Kind != token.SP {
		return nil, c.errorf(CodeExpectSP, "expected '('")
	}
	c.discard(1)

	depth := 1
	var toks []token.Token
	for depth > 0 {
		switch c.peek().Kind {
		case token.SP:
			depth++
		case token.EP:
			depth--
		case token.SEMICOLON:
			return nil, c.errorf(CodeExpectSC, "unexpected ';' inside condition")
		}
		if depth > 0 {
			toks = append(toks, c.peek())
		}
		c.discard(1)
	}
	return toks, nil
}

// consumeBodyOrMarkSimple consumes a '{' opening a compound body, or
// otherwise marks the next statement as the implicit single-statement
// body.
func (c *Compiler) consumeBodyOrMarkSimple() {
	if c.peek().Kind == token.SC {
		c.discard(1)
	} else {
		c.nextSimple = true
	}
}

// doRepeat opens a post-condition-free loop: `repeat { ... }`, tested
// only via break/next/if inside the body.
func (c *Compiler) doRepeat() error {
	c.discard(1)

	frame := c.pushCompound(FrameLoop, nil, nil)
	frame.Before = []string{fmt.Sprintf("jmp %s", frame.Start)}
	c.add("; REPEAT loop")
	c.add(frame.Start + ":")

	c.consumeBodyOrMarkSimple()
	return nil
}

// doWhile opens a pre-tested loop.
func (c *Compiler) doWhile() error {
	c.discard(1)
	cond, err := c.conditionExpr()
	if err != nil {
		return err
	}

	frame := c.pushCompound(FrameLoop, nil, nil)
	frame.Before = []string{fmt.Sprintf("jmp %s", frame.Start)}
	c.add("; WHILE loop")
	c.add(frame.Start + ":")

	val, err := c.evalExpr(cond)
	if err != nil {
		return err
	}

	c.consumeBodyOrMarkSimple()

	reg, err := c.materializeTestable(val)
	if err != nil {
		return err
	}
	c.add(fmt.Sprintf("test %s, %s", reg, reg))
	c.add(fmt.Sprintf("je %s", frame.End))
	return nil
}

// doIf opens a conditionally-skipped block.
func (c *Compiler) doIf() error {
	c.discard(1)
	cond, err := c.conditionExpr()
	if err != nil {
		return err
	}

	frame := c.pushCompound(FrameIf, nil, nil)
	c.add("; IF conditional")
	c.add(frame.Start + ":")

	val, err := c.evalExpr(cond)
	if err != nil {
		return err
	}

	c.consumeBodyOrMarkSimple()

	reg, err := c.materializeTestable(val)
	if err != nil {
		return err
	}
	c.add(fmt.Sprintf("test %s, %s", reg, reg))
	c.add(fmt.Sprintf("je %s", frame.End))
	return nil
}

// doElse opens the alternate branch following an if block.
func (c *Compiler) doElse() error {
	c.discard(1)

	frame := c.pushCompound(FramePlain, nil, nil)
	c.add("; ELSE conditional")
	c.add(frame.Start + ":")

	c.consumeBodyOrMarkSimple()
	return nil
}
