package wire

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/solatis/aepbridge/internal/types"
)

// FromAny converts a plain Go value into a Value.
//
// Integers, unsigned integers and floats become numbers; []byte becomes
// bytes; other slices and arrays become arrays; maps with string keys become
// maps; pointers and interfaces are dereferenced and nil becomes null.
// Channels, functions, structs and maps keyed by non-strings are not
// representable and report false, as does nesting deeper than
// types.MaxNestingDepth.
func FromAny(v any) (Value, bool) {
	return fromAny(v, 0)
}

func fromAny(v any, depth int) (Value, bool) {
	if depth > types.MaxNestingDepth {
		return Value{}, false
	}

	switch x := v.(type) {
	case nil:
		return Null(), true
	case Value:
		return x, true
	case Dict:
		return Map(x), true
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return Value{}, false
		}
		return Number(f), true
	}

	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return Null(), true
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Bool:
		return Bool(val.Bool()), true

	case reflect.String:
		return String(val.String()), true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(val.Int())), true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(val.Uint())), true

	case reflect.Float32, reflect.Float64:
		return Number(val.Float()), true

	case reflect.Slice, reflect.Array:
		if val.Type().Elem().Kind() == reflect.Uint8 {
			if val.Kind() == reflect.Slice {
				if val.IsNil() {
					return Null(), true
				}
				return Bytes(val.Bytes()), true
			}
			b := make([]byte, val.Len())
			reflect.Copy(reflect.ValueOf(b), val)
			return Bytes(b), true
		}
		if val.Kind() == reflect.Slice && val.IsNil() {
			return Null(), true
		}
		items := make([]Value, val.Len())
		for i := 0; i < val.Len(); i++ {
			item, ok := fromAny(val.Index(i).Interface(), depth+1)
			if !ok {
				return Value{}, false
			}
			items[i] = item
		}
		return Value{kind: KindArray, arr: items}, true

	case reflect.Map:
		if val.IsNil() {
			return Null(), true
		}
		entries := make(Dict, val.Len())
		iter := val.MapRange()
		for iter.Next() {
			key, ok := stringKey(iter.Key())
			if !ok {
				return Value{}, false
			}
			item, ok := fromAny(iter.Value().Interface(), depth+1)
			if !ok {
				return Value{}, false
			}
			entries[key] = item
		}
		return Value{kind: KindMap, m: entries}, true
	}

	return Value{}, false
}

// stringKey accepts string keys and interface keys holding a string, the
// shape generic decoders produce for maps.
func stringKey(k reflect.Value) (string, bool) {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "", false
		}
		k = k.Elem()
	}
	if k.Kind() != reflect.String {
		return "", false
	}
	return k.String(), true
}

// MustFromAny is FromAny for values known to be representable, such as
// literals in tests and constant tables. It panics otherwise.
func MustFromAny(v any) Value {
	out, ok := FromAny(v)
	if !ok {
		panic(fmt.Sprintf("wire: value of type %T is not representable", v))
	}
	return out
}

// DictFromMap converts a plain Go map into a Dict.
// Returns ErrConversionFailed naming the first unrepresentable key, in sorted
// key order.
func DictFromMap(m map[string]any) (Dict, error) {
	out := make(Dict, len(m))
	for _, k := range sortedKeys(m) {
		v, ok := fromAny(m[k], 1)
		if !ok {
			return nil, fmt.Errorf("%w: key %q holds unrepresentable %T", types.ErrConversionFailed, k, m[k])
		}
		out[k] = v
	}
	return out, nil
}

// MustDict is DictFromMap for literals. It panics on unrepresentable input.
func MustDict(m map[string]any) Dict {
	d, err := DictFromMap(m)
	if err != nil {
		panic(err)
	}
	return d
}

// Depth returns the nesting depth of v: 0 for scalars, 1 + the deepest
// element for arrays and maps.
func (v Value) Depth() int {
	deepest := 0
	switch v.kind {
	case KindArray:
		for _, e := range v.arr {
			if d := e.Depth(); d > deepest {
				deepest = d
			}
		}
	case KindMap:
		for _, e := range v.m {
			if d := e.Depth(); d > deepest {
				deepest = d
			}
		}
	default:
		return 0
	}
	return deepest + 1
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
