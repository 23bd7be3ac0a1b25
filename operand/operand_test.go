package operand

import (
	"testing"

	"github.com/skx/bcc/token"
	"github.com/stretchr/testify/assert"
)

func TestNewName(t *testing.T) {
	o := NewName("count")
	assert.Equal(t, Name, o.Kind)
	assert.Equal(t, "count", o.Text())
	assert.False(t, o.IsMemory())
}

func TestNewNumber(t *testing.T) {
	o := NewNumber("42")
	assert.Equal(t, Number, o.Kind)
	assert.Equal(t, "42", o.Text())
}

func TestNewRegister(t *testing.T) {
	o := NewRegister("eax")
	assert.Equal(t, Register, o.Kind)
	assert.Equal(t, "eax", o.Text())
	assert.False(t, o.IsMemory())
}

func TestNewMemory(t *testing.T) {
	o := NewMemory("[ebp-4]")
	assert.Equal(t, Register, o.Kind)
	assert.Equal(t, "[ebp-4]", o.Text())
	assert.True(t, o.IsMemory())
}

func TestNewString(t *testing.T) {
	words := token.Words{1, 0}
	o := NewString(words)
	assert.Equal(t, String, o.Kind)
	assert.Equal(t, words, o.Str)
	assert.NotEmpty(t, o.Text())
}
