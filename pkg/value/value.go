// Package value defines the scalar values flowing through the engine and
// the closed set of types describing them.
package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Type identifies the kind of scalar held by a Value. The set is closed:
// adding a type means extending Value, every expression's return-type logic
// and every expression's eval logic together.
type Type int

const (
	IntType Type = iota
	StringType
	BoolType
)

// String returns the SQL-ish name of the type.
func (t Type) String() string {
	switch t {
	case IntType:
		return "INT"
	case StringType:
		return "STRING"
	case BoolType:
		return "BOOLEAN"
	default:
		return fmt.Sprintf("TYPE(%d)", int(t))
	}
}

// ParseType maps a declaration string (as used in --schema specs) to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return IntType, nil
	case "string", "text":
		return StringType, nil
	case "bool", "boolean":
		return BoolType, nil
	default:
		return 0, fmt.Errorf("unknown type %q", s)
	}
}

// ErrTypeMismatch is returned when a Value is accessed through the wrong
// variant, or when two values of different types are asked to order
// themselves. Producers that respect declared return types never trip it;
// the accessors still guard it rather than returning garbage.
var ErrTypeMismatch = errors.New("type mismatch")

// Value is a tagged union holding exactly one of: a 64-bit signed integer,
// a string, or a boolean. Values are immutable once constructed and are
// compared and copied by content.
type Value struct {
	typ Type
	i   int64
	s   string
	b   bool
}

// NewInt returns an integer Value.
func NewInt(v int64) Value { return Value{typ: IntType, i: v} }

// NewString returns a string Value.
func NewString(v string) Value { return Value{typ: StringType, s: v} }

// NewBool returns a boolean Value.
func NewBool(v bool) Value { return Value{typ: BoolType, b: v} }

// Type returns the tag of the active variant.
func (v Value) Type() Type { return v.typ }

// AsInt returns the integer payload, or ErrTypeMismatch if the active
// variant is not an integer.
func (v Value) AsInt() (int64, error) {
	if v.typ != IntType {
		return 0, fmt.Errorf("%w: have %s, want %s", ErrTypeMismatch, v.typ, IntType)
	}
	return v.i, nil
}

// AsString returns the string payload, or ErrTypeMismatch if the active
// variant is not a string.
func (v Value) AsString() (string, error) {
	if v.typ != StringType {
		return "", fmt.Errorf("%w: have %s, want %s", ErrTypeMismatch, v.typ, StringType)
	}
	return v.s, nil
}

// AsBool returns the boolean payload, or ErrTypeMismatch if the active
// variant is not a boolean.
func (v Value) AsBool() (bool, error) {
	if v.typ != BoolType {
		return false, fmt.Errorf("%w: have %s, want %s", ErrTypeMismatch, v.typ, BoolType)
	}
	return v.b, nil
}

// Equal reports whether two values match in both variant and payload.
// Values of different types are unequal, never an error.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case IntType:
		return v.i == o.i
	case StringType:
		return v.s == o.s
	case BoolType:
		return v.b == o.b
	default:
		return false
	}
}

// Compare orders two values of the same type, returning -1, 0 or +1.
// Integers order numerically and strings lexicographically; booleans have
// no ordering and mixed-type comparisons are ErrTypeMismatch.
func (v Value) Compare(o Value) (int, error) {
	if v.typ != o.typ {
		return 0, fmt.Errorf("%w: cannot order %s against %s", ErrTypeMismatch, v.typ, o.typ)
	}
	switch v.typ {
	case IntType:
		switch {
		case v.i < o.i:
			return -1, nil
		case v.i > o.i:
			return 1, nil
		default:
			return 0, nil
		}
	case StringType:
		return strings.Compare(v.s, o.s), nil
	default:
		return 0, fmt.Errorf("%w: %s values have no ordering", ErrTypeMismatch, v.typ)
	}
}

// String renders the payload without quoting; it is meant for display, not
// for round-tripping.
func (v Value) String() string {
	switch v.typ {
	case IntType:
		return strconv.FormatInt(v.i, 10)
	case StringType:
		return v.s
	case BoolType:
		return strconv.FormatBool(v.b)
	default:
		return "?"
	}
}

// MarshalJSON encodes the underlying scalar, so rows serialize to plain
// JSON objects.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case IntType:
		return json.Marshal(v.i)
	case StringType:
		return json.Marshal(v.s)
	case BoolType:
		return json.Marshal(v.b)
	default:
		return nil, fmt.Errorf("cannot marshal %s value", v.typ)
	}
}
