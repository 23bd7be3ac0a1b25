package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) string {
	t.Helper()
	c, err := New(src, Options{Format: "win32"})
	require.NoError(t, err)
	out, err := c.Compile()
	require.NoError(t, err)
	return out
}

// S1: a bare return with a literal value produces the standard
// prologue/epilogue around the jump to the function's end label.
func TestCompileReturnLiteral(t *testing.T) {
	out := compile(t, "main() { return(0); }")

	assert.Contains(t, out, "_main:")
	assert.Contains(t, out, "push ebp")
	assert.Contains(t, out, "mov ebp, esp")
	assert.Contains(t, out, "xor eax, eax")
	assert.Contains(t, out, "mov eax, 0")
	assert.Contains(t, out, "mov esp, ebp")
	assert.Contains(t, out, "pop ebp")
	assert.Contains(t, out, "ret")

	// the first label a freshly-reset compiler ever allocates is .L0,
	// never .L1 - labelCounter starts at -1 and label() pre-increments.
	assert.Contains(t, out, ".L0:")
}

// S2: a scalar auto allocates one word below the frame pointer.
func TestCompileAutoScalarAssignment(t *testing.T) {
	out := compile(t, "main() { auto x; x = 5; }")

	assert.Contains(t, out, "sub esp, 4")
	assert.Contains(t, out, "mov dword [ebp-4], 5")
}

// S3: a vector auto allocates its storage plus a pointer slot, and
// leas the pointer into the result register first.
func TestCompileAutoVector(t *testing.T) {
	out := compile(t, "main() { auto v[3]; }")

	assert.Contains(t, out, "lea eax, [ebp-12]")
	assert.Contains(t, out, "mov [ebp-16], eax")
	assert.Contains(t, out, "sub esp, 16")
}

// S4: a pre-tested while loop emits exactly one comparison and one
// unconditional back-edge to its start label.
func TestCompileWhileLoop(t *testing.T) {
	out := compile(t, "main() { auto i; i = 0; while (i < 10) { i = i + 1; } }")

	assert.Contains(t, out, "; WHILE loop")
	assert.Equal(t, 1, countOccurrences(out, "cmp edx, 10"))
	assert.Contains(t, out, "test eax, eax")
	assert.Contains(t, out, "je ")

	backEdges := 0
	for _, line := range splitLines(out) {
		if line == "jmp .L0" || hasPrefixJmpToLabel(line) {
			backEdges++
		}
	}
	assert.Equal(t, 1, backEdges)
}

// S5: a STDCALL-declared external takes its byte-count suffix and the
// caller never adjusts the stack after the call.
func TestCompileStdcallExternCall(t *testing.T) {
	out := compile(t, "stdcall putchar(c); main() { putchar(65); }")

	assert.Contains(t, out, "extern _putchar@4")
	assert.Contains(t, out, "push dword 65")
	assert.Contains(t, out, "call _putchar@4")
	assert.NotContains(t, out, "add esp, 4")
}

// S6: arguments are pushed right-to-left and a CDECL caller calling a
// STDCALL callee performs no post-call stack adjustment.
func TestCompileMixedCallingConventions(t *testing.T) {
	out := compile(t, "stdcall f(a, b); main() { f(1, 2); }")

	pushB := indexOf(out, "push dword 2")
	pushA := indexOf(out, "push dword 1")
	call := indexOf(out, "call _f@8")

	require.NotEqual(t, -1, pushB)
	require.NotEqual(t, -1, pushA)
	require.NotEqual(t, -1, call)
	assert.Less(t, pushB, pushA)
	assert.Less(t, pushA, call)
}

// Vector indexing scales the index by the target's word size: shl 2
// (x4) on the 32-bit formats, shl 3 (x8) on the 64-bit ones.
func TestCompileVectorIndexShiftByWordSize(t *testing.T) {
	c32, err := New("main() { auto v[3]; auto i; auto x; i = 1; x = v[i]; }", Options{Format: "win32"})
	require.NoError(t, err)
	out32, err := c32.Compile()
	require.NoError(t, err)
	assert.Contains(t, out32, "shl eax, 2")
	assert.NotContains(t, out32, "shl eax, 3")

	c64, err := New("main() { auto v[3]; auto i; auto x; i = 1; x = v[i]; }", Options{Format: "win64"})
	require.NoError(t, err)
	out64, err := c64.Compile()
	require.NoError(t, err)
	assert.Contains(t, out64, "shl rax, 3")
	assert.NotContains(t, out64, "shl rax, 2")
}

func TestCompileUnknownFormatRejected(t *testing.T) {
	_, err := New("main() { return(0); }", Options{Format: "bogus"})
	assert.Error(t, err)
}

func TestCompileGotoIsUnsupported(t *testing.T) {
	c, err := New("main() { goto x; }", Options{Format: "win32"})
	require.NoError(t, err)
	_, err = c.Compile()
	require.Error(t, err)
	var perr *ParserError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, CodeGotoUnsupported, perr.Code)
}

func TestCompileUnsupportedCompoundOperatorErrors(t *testing.T) {
	c, err := New("main() { auto x; x -= 1; }", Options{Format: "win32"})
	require.NoError(t, err)
	_, err = c.Compile()
	require.Error(t, err)
	var perr *ParserError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, CodeUnsupportedOp, perr.Code)
}

func TestCompileUnterminatedBlockErrors(t *testing.T) {
	c, err := New("main() { return(0);", Options{Format: "win32"})
	require.NoError(t, err)
	_, err = c.Compile()
	require.Error(t, err)
	var perr *ParserError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, CodeUnmatchedBrace, perr.Code)
}

func TestCompileDanglingBraceErrors(t *testing.T) {
	c, err := New("main() { return(0); } }", Options{Format: "win32"})
	require.NoError(t, err)
	_, err = c.Compile()
	require.Error(t, err)
	var perr *ParserError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, CodeDanglingBrace, perr.Code)
}

// --- small string helpers, deliberately free of regexp/strconv ceremony ---

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func hasPrefixJmpToLabel(line string) bool {
	return len(line) > 4 && line[:4] == "jmp "
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
			i += len(sub) - 1
		}
	}
	return n
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
