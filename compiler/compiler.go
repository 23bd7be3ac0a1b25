// Package compiler walks a B source program's tokens exactly once,
// emitting NASM-syntax x86/x86-64 assembly as it goes. There is no
// intermediate representation: a statement is recognised, its assembly
// is appended to the relevant segment, and the tokens it consumed are
// discarded before the next statement is looked at.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/skx/bcc/lexer"
	"github.com/skx/bcc/stack"
	"github.com/skx/bcc/token"
)

// Options configures one compilation run.
type Options struct {
	// Format selects the target: win32, win64, lin32, or lin64.
	Format string

	// Debug adds an INFIX/POSTFIX comment above every expression
	// statement's generated assembly.
	Debug bool
}

// Compiler holds the single-pass parser/generator's state for one
// compilation of one source file.
type Compiler struct {
	opts Options
	tgt  target

	src   string
	lines []string

	in []token.Token

	segments map[string][]string

	names   map[string]bool
	funcs   map[string]*FuncRecord
	externs []string

	params map[string]int
	paramL int

	locals map[string]int
	localL int

	labelCounter int

	compounds *stack.Stack[*CompoundFrame]

	inFunc     bool
	inSimple   bool
	nextSimple bool
}

// New creates a Compiler for the given source, targeting the named
// format ("win32", "win64", "lin32", or "lin64").
func New(src string, opts Options) (*Compiler, error) {
	tgt, ok := newTarget(opts.Format)
	if !ok {
		return nil, fmt.Errorf("unrecognised output format %q", opts.Format)
	}

	return &Compiler{
		opts: opts,
		tgt:  tgt,
		src:  src,
		segments: map[string][]string{
			".text": nil,
			".data": nil,
			".bss":  nil,
		},
		names:        make(map[string]bool),
		funcs:        make(map[string]*FuncRecord),
		params:       make(map[string]int),
		locals:       make(map[string]int),
		labelCounter: -1,
		compounds:    stack.New[*CompoundFrame](),
	}, nil
}

// Compile lexes and parses the source, and returns the generated
// assembly for the configured target.
func (c *Compiler) Compile() (string, error) {
	toks, lines, err := lexer.Tokenize(c.src)
	if err != nil {
		return "", err
	}
	c.lines = lines

	// Drop the trailing EOF sentinel; the parser loop runs until
	// c.in is empty.
	for _, t := range toks {
		if t.Kind == token.EOF {
			continue
		}
		c.in = append(c.in, t)
	}

	if err := c.parse(); err != nil {
		return "", err
	}

	return c.emit(), nil
}

// --- small helpers shared by statements.go and expr.go ---

func (c *Compiler) peek() token.Token {
	return c.in[0]
}

func (c *Compiler) peekAt(n int) (token.Token, bool) {
	if n >= len(c.in) {
		return token.Token{}, false
	}
	return c.in[n], true
}

func (c *Compiler) discard(n int) {
	c.in = c.in[n:]
}

func (c *Compiler) errorf(code int, format string, args ...any) error {
	var tok token.Token
	if len(c.in) > 0 {
		tok = c.in[0]
	}
	return c.errorfAt(tok, code, format, args...)
}

func (c *Compiler) errorfAt(tok token.Token, code int, format string, args ...any) error {
	line := ""
	if tok.Line-1 >= 0 && tok.Line-1 < len(c.lines) {
		line = strings.ReplaceAll(c.lines[tok.Line-1], "\t", " ")
	}
	return &ParserError{
		Code:    code,
		Line:    tok.Line,
		Col:     tok.Col,
		Message: fmt.Sprintf(format, args...),
		source:  line,
	}
}

// add appends a line of assembly to a segment (".text" by default).
func (c *Compiler) add(line string, segment ...string) {
	seg := ".text"
	if len(segment) > 0 {
		seg = segment[0]
	}
	c.segments[seg] = append(c.segments[seg], line)
}

// addBlank adds a blank line to a segment unless it's already blank
// or empty, matching the reference compiler's "add_pretty" spacing.
func (c *Compiler) addBlank(segment ...string) {
	seg := ".text"
	if len(segment) > 0 {
		seg = segment[0]
	}
	lines := c.segments[seg]
	if len(lines) > 0 && lines[len(lines)-1] != "" {
		c.add("", seg)
	}
}

// label allocates a new, unique local label within the current
// function.
func (c *Compiler) label() string {
	c.labelCounter++
	return fmt.Sprintf(".L%d", c.labelCounter)
}

// pushCompound pushes a new nested-scope frame, pre-allocating its
// start/end labels.
func (c *Compiler) pushCompound(kind FrameKind, before, after []string) *CompoundFrame {
	f := &CompoundFrame{
		Kind:   kind,
		Before: before,
		After:  after,
		Start:  c.label(),
		End:    c.label(),
	}
	c.compounds.Push(f)
	return f
}

// popCompound closes the innermost frame: it splices in any deferred
// "before" lines, emits the end label, then any "after" lines, and -
// for a function frame - resets all per-function state.
func (c *Compiler) popCompound() error {
	f, err := c.compounds.Pop()
	if err != nil {
		return fmt.Errorf("no open block to close")
	}

	for _, l := range f.Before {
		if l != "" {
			c.add(l)
		}
	}

	c.add(f.End + ":")
	c.addBlank()

	for _, l := range f.After {
		if l != "" {
			c.add(l)
		}
	}

	if f.Kind == FrameFunc {
		c.endFunc()
	}
	return nil
}

// topCompound returns the innermost open frame.
func (c *Compiler) topCompound() (*CompoundFrame, bool) {
	return c.compounds.Peek()
}

// loopCompound returns the innermost open loop frame (for break/next).
func (c *Compiler) loopCompound() (*CompoundFrame, bool) {
	return c.innermost(FrameLoop)
}

// funcCompound returns the innermost open function frame (for return).
func (c *Compiler) funcCompound() (*CompoundFrame, bool) {
	return c.innermost(FrameFunc)
}

func (c *Compiler) innermost(kind FrameKind) (*CompoundFrame, bool) {
	// Stack has no iteration API beyond Peek/Pop; compounds are
	// shallow (nesting depth tracks source brace depth) so a pop/
	// restore walk is cheap and keeps stack.Stack minimal.
	var popped []*CompoundFrame
	var found *CompoundFrame
	for !c.compounds.Empty() {
		f, _ := c.compounds.Pop()
		popped = append(popped, f)
		if f.Kind == kind {
			found = f
			break
		}
	}
	for i := len(popped) - 1; i >= 0; i-- {
		c.compounds.Push(popped[i])
	}
	return found, found != nil
}

// endFunc resets every piece of per-function state once a function's
// closing brace is processed, ready for the next function definition.
func (c *Compiler) endFunc() {
	c.names = make(map[string]bool)
	c.labelCounter = -1
	c.params = make(map[string]int)
	c.paramL = 0
	c.locals = make(map[string]int)
	c.localL = 0
	c.externs = nil
	c.inFunc = false
	c.inSimple = false
	c.nextSimple = false
}

// findInline reports whether a token of the given kind occurs before
// the next semicolon, used to distinguish a function prototype from a
// defining occurrence.
func (c *Compiler) findInline(kind token.Kind) bool {
	for _, t := range c.in {
		if t.Kind == kind {
			return true
		}
		if t.Kind == token.SEMICOLON {
			break
		}
	}
	return false
}

// emit assembles the header, extern/global declarations, and the
// three segments into the final assembly text.
func (c *Compiler) emit() string {
	var out []string
	out = append(out, fmt.Sprintf("bits %d", c.tgt.word*8), "")

	protos := lo.Filter(keys(c.funcs), func(name string, _ int) bool {
		return c.funcs[name].Prototype
	})
	sort.Strings(protos)
	for _, name := range protos {
		out = append(out, fmt.Sprintf("extern %s", c.funcs[name].AsmName))
	}
	out = append(out, "")

	defined := lo.Filter(keys(c.funcs), func(name string, _ int) bool {
		return !c.funcs[name].Prototype
	})
	sort.Strings(defined)
	for _, name := range defined {
		out = append(out, fmt.Sprintf("global %s", c.funcs[name].AsmName))
	}
	out = append(out, "")

	for _, seg := range []string{".text", ".data", ".bss"} {
		out = append(out, fmt.Sprintf("segment %s", seg), "")
		out = append(out, c.segments[seg]...)
	}

	return strings.Join(out, "\n") + "\n"
}

func keys(m map[string]*FuncRecord) []string {
	return lo.Keys(m)
}
