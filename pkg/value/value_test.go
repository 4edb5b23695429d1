package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessors(t *testing.T) {
	i, err := NewInt(42).AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(42), i)

	s, err := NewString("hello").AsString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	b, err := NewBool(true).AsBool()
	require.NoError(t, err)
	assert.True(t, b)
}

func TestAccessorMismatch(t *testing.T) {
	tests := []struct {
		name   string
		access func() error
	}{
		{"int as string", func() error { _, err := NewInt(1).AsString(); return err }},
		{"int as bool", func() error { _, err := NewInt(1).AsBool(); return err }},
		{"string as int", func() error { _, err := NewString("x").AsInt(); return err }},
		{"bool as string", func() error { _, err := NewBool(true).AsString(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.access()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTypeMismatch)
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Value
		expected bool
	}{
		{"equal ints", NewInt(7), NewInt(7), true},
		{"unequal ints", NewInt(7), NewInt(8), false},
		{"equal strings", NewString("a"), NewString("a"), true},
		{"unequal strings", NewString("a"), NewString("b"), false},
		{"equal bools", NewBool(false), NewBool(false), true},
		{"unequal bools", NewBool(true), NewBool(false), false},
		{"int vs string is false not error", NewInt(1), NewString("1"), false},
		{"bool vs int", NewBool(true), NewInt(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Equal(tt.b))
			assert.Equal(t, tt.expected, tt.b.Equal(tt.a))
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Value
		expected int
	}{
		{"int less", NewInt(1), NewInt(2), -1},
		{"int greater", NewInt(5), NewInt(2), 1},
		{"int equal", NewInt(3), NewInt(3), 0},
		{"string less", NewString("alpha"), NewString("beta"), -1},
		{"string greater", NewString("zed"), NewString("alpha"), 1},
		{"string equal", NewString("x"), NewString("x"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Compare(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCompareRejectsUnordered(t *testing.T) {
	_, err := NewBool(true).Compare(NewBool(false))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = NewInt(1).Compare(NewString("1"))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input    string
		expected Type
	}{
		{"int", IntType},
		{"INTEGER", IntType},
		{"string", StringType},
		{"text", StringType},
		{"bool", BoolType},
		{"Boolean", BoolType},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := ParseType("float")
	assert.Error(t, err)
}

func TestMarshalJSON(t *testing.T) {
	row := map[string]Value{
		"id":     NewInt(9),
		"name":   NewString("ada"),
		"active": NewBool(true),
	}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":9,"name":"ada","active":true}`, string(data))
}
