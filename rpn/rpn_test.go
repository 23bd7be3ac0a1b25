package rpn

import (
	"testing"

	"github.com/skx/bcc/lexer"
	"github.com/skx/bcc/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exprTokens tokenizes src and strips the trailing EOF marker, leaving
// just the expression's own tokens as Reorder expects.
func exprTokens(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, _, err := lexer.Tokenize(src)
	require.NoError(t, err)
	require.Equal(t, token.EOF, toks[len(toks)-1].Kind)
	return toks[:len(toks)-1]
}

func values(toks []token.Token) []string {
	var out []string
	for _, tok := range toks {
		if tok.Kind == token.NUMBER || tok.Kind == token.NAME || tok.Kind == FUNC {
			out = append(out, tok.Value)
		} else {
			out = append(out, tok.Value)
		}
	}
	return out
}

func TestReorderSimpleAddition(t *testing.T) {
	out, err := Reorder(exprTokens(t, "1 + 2"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "+"}, values(out))
}

func TestReorderPrecedence(t *testing.T) {
	out, err := Reorder(exprTokens(t, "1 + 2 * 3"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "*", "+"}, values(out))
}

func TestReorderParenthesesOverridePrecedence(t *testing.T) {
	out, err := Reorder(exprTokens(t, "(1 + 2) * 3"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "+", "3", "*"}, values(out))
}

func TestReorderUnaryMinusRetagged(t *testing.T) {
	out, err := Reorder(exprTokens(t, "-1 + 2"), nil)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, "1", out[0].Value)
	assert.Equal(t, "u-", out[1].Value)
	assert.Equal(t, "2", out[2].Value)
	assert.Equal(t, "+", out[3].Value)
}

func TestReorderBinaryMinusNotRetagged(t *testing.T) {
	out, err := Reorder(exprTokens(t, "1 - 2"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "-"}, values(out))
}

func TestReorderEmptyCallIsFuncMarker(t *testing.T) {
	out, err := Reorder(exprTokens(t, "f()"), nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, FUNC, out[0].Kind)
	assert.Equal(t, "f", out[0].Value)
}

func TestReorderCallWithSingleArgument(t *testing.T) {
	out, err := Reorder(exprTokens(t, "f(1)"), nil)
	require.NoError(t, err)

	var kinds []token.Kind
	for _, tok := range out {
		kinds = append(kinds, tok.Kind)
	}
	// 1, COMMA(synthetic end-of-args marker), FUNC
	assert.Equal(t, []token.Kind{token.NUMBER, token.COMMA, FUNC}, kinds)
	assert.Equal(t, "f", out[2].Value)
}

func TestReorderCallWithArguments(t *testing.T) {
	out, err := Reorder(exprTokens(t, "f(1, 2)"), nil)
	require.NoError(t, err)

	var kinds []token.Kind
	for _, tok := range out {
		kinds = append(kinds, tok.Kind)
	}
	// 1, 2, COMMA(real separator), COMMA(synthetic end-of-args marker), FUNC
	assert.Equal(t, []token.Kind{token.NUMBER, token.NUMBER, token.COMMA, token.COMMA, FUNC}, kinds)
	assert.Equal(t, "f", out[4].Value)
}

func TestReorderNestedCall(t *testing.T) {
	out, err := Reorder(exprTokens(t, "f(g(1))"), nil)
	require.NoError(t, err)

	var kinds []token.Kind
	for _, tok := range out {
		kinds = append(kinds, tok.Kind)
	}
	// 1, COMMA, FUNC(g), COMMA, FUNC(f) - each call contributes one
	// synthetic end-of-args marker ahead of its own FUNC.
	assert.Equal(t, []token.Kind{token.NUMBER, token.COMMA, FUNC, token.COMMA, FUNC}, kinds)
	assert.Equal(t, "g", out[2].Value)
	assert.Equal(t, "f", out[4].Value)
}

func TestReorderIndexing(t *testing.T) {
	out, err := Reorder(exprTokens(t, "a[1]"), nil)
	require.NoError(t, err)

	var kinds []token.Kind
	for _, tok := range out {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []token.Kind{token.NAME, token.SB, token.NUMBER, token.EB}, kinds)
}

func TestReorderAssignmentIsRightBiased(t *testing.T) {
	out, err := Reorder(exprTokens(t, "a = b = 1"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "1", "=", "="}, values(out))
}

func TestReorderTernary(t *testing.T) {
	out, err := Reorder(exprTokens(t, "a ? 1 : 2"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1", "2", ":", "?"}, values(out))
}

func TestReorderMismatchedParenthesis(t *testing.T) {
	// A closing parenthesis with nothing on the operator stack to match.
	_, err := Reorder(exprTokens(t, "1)"), nil)
	require.Error(t, err)
	var rpnErr *RPNError
	require.ErrorAs(t, err, &rpnErr)
	assert.Equal(t, CodeMismatchedParen, rpnErr.Code)
}

func TestReorderMismatchedBracket(t *testing.T) {
	// A closing bracket with nothing on the operator stack to match.
	_, err := Reorder(exprTokens(t, "1]"), nil)
	require.Error(t, err)
	var rpnErr *RPNError
	require.ErrorAs(t, err, &rpnErr)
	assert.Equal(t, CodeMismatchedBracket, rpnErr.Code)
}

func TestReorderCompoundAssignment(t *testing.T) {
	out, err := Reorder(exprTokens(t, "a += 1"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1", "+="}, values(out))
}
