// Package wire models the values that cross the host boundary.
//
// A host dictionary is heterogeneous: every entry carries one of a small,
// closed set of kinds. Value is that tagged union and Dict is a dictionary
// of them. Values are immutable once built; constructors copy slices and
// byte buffers they are handed.
package wire

import (
	"sort"

	"github.com/solatis/aepbridge/internal/codec"
)

// Kind identifies the runtime type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindBytes
	KindArray
	KindMap
)

var kinds = codec.New("value_kind", KindNull, codec.Options{FoldCase: true},
	codec.Member[Kind]{Value: KindNull, Wire: "null"},
	codec.Member[Kind]{Value: KindBool, Wire: "bool", Aliases: []string{"boolean"}},
	codec.Member[Kind]{Value: KindNumber, Wire: "number", Aliases: []string{"numeric"}},
	codec.Member[Kind]{Value: KindString, Wire: "string", Aliases: []string{"text"}},
	codec.Member[Kind]{Value: KindBytes, Wire: "bytes"},
	codec.Member[Kind]{Value: KindArray, Wire: "array"},
	codec.Member[Kind]{Value: KindMap, Wire: "map", Aliases: []string{"dict", "object"}},
)

func (k Kind) String() string { return kinds.String(k) }

// ParseKind parses a kind name ("string", "number", ...) and reports whether
// it was recognized.
func ParseKind(s string) (Kind, bool) { return kinds.Lookup(s) }

// KindNames returns the canonical kind names.
func KindNames() []string {
	members := kinds.Members()
	out := make([]string, len(members))
	for i, k := range members {
		out[i] = k.String()
	}
	return out
}

// Value is one boundary value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	raw  []byte
	arr  []Value
	m    Dict
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number. All host numbers are float64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes wraps a copy of b.
func Bytes(b []byte) Value {
	c := make([]byte, len(b))
	copy(c, b)
	return Value{kind: KindBytes, raw: c}
}

// Array wraps a copy of vs.
func Array(vs ...Value) Value {
	c := make([]Value, len(vs))
	copy(c, vs)
	return Value{kind: KindArray, arr: c}
}

// Map wraps a shallow copy of d.
func Map(d Dict) Value {
	return Value{kind: KindMap, m: d.Clone()}
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload when v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload when v is a number.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string payload when v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsBytes returns a copy of the byte payload when v is bytes.
func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	c := make([]byte, len(v.raw))
	copy(c, v.raw)
	return c, true
}

// AsArray returns a copy of the elements when v is an array.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	c := make([]Value, len(v.arr))
	copy(c, v.arr)
	return c, true
}

// AsMap returns a shallow copy of the dictionary when v is a map.
func (v Value) AsMap() (Dict, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m.Clone(), true
}

// Len returns the element count of arrays and maps, the byte length of
// strings and bytes, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len(v.s)
	case KindBytes:
		return len(v.raw)
	case KindArray:
		return len(v.arr)
	case KindMap:
		return len(v.m)
	}
	return 0
}

// Any converts v to plain Go values: nil, bool, float64, string, []byte,
// []any and map[string]any.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindBytes:
		c := make([]byte, len(v.raw))
		copy(c, v.raw)
		return c
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Any()
		}
		return out
	case KindMap:
		return v.m.ToMap()
	}
	return nil
}

// Equal reports deep equality. Numbers compare with ==, so NaN != NaN.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindBytes:
		return string(v.raw) == string(o.raw)
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.Equal(o.m)
	}
	return false
}

// Dict is a heterogeneous host dictionary.
type Dict map[string]Value

// Keys returns the keys of d in sorted order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under key.
func (d Dict) Get(key string) (Value, bool) {
	v, ok := d[key]
	return v, ok
}

// Clone returns a shallow copy of d. Nested values are immutable and shared.
// Cloning a nil Dict yields an empty, non-nil Dict.
func (d Dict) Clone() Dict {
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Equal reports deep equality of two dictionaries.
func (d Dict) Equal(o Dict) bool {
	if len(d) != len(o) {
		return false
	}
	for k, v := range d {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// ToMap converts d to a map of plain Go values (see Value.Any).
func (d Dict) ToMap() map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v.Any()
	}
	return out
}

// String returns the string entry under key.
func (d Dict) String(key string) (string, bool) {
	return d[key].AsString()
}

// Number returns the numeric entry under key.
func (d Dict) Number(key string) (float64, bool) {
	return d[key].AsNumber()
}

// Bool returns the boolean entry under key.
func (d Dict) Bool(key string) (bool, bool) {
	return d[key].AsBool()
}

// Map returns the dictionary entry under key.
func (d Dict) Map(key string) (Dict, bool) {
	return d[key].AsMap()
}

// Array returns the array entry under key.
func (d Dict) Array(key string) ([]Value, bool) {
	return d[key].AsArray()
}
