// Package sanitize filters heterogeneous host dictionaries down to a single
// value kind.
//
// Every function returns a new dictionary and leaves its input untouched.
// Nothing here fails: entries that do not fit the target kind are dropped.
package sanitize

import (
	"sort"

	"github.com/solatis/aepbridge/internal/wire"
)

// Options tunes Filter.
type Options struct {
	// Lenient keeps entries that Coerce can convert to the target kind.
	Lenient bool
}

// Result is the outcome of Filter.
type Result struct {
	Dict    wire.Dict
	Dropped []string // sorted
}

// Dict keeps exactly the entries of in whose value kind is target.
// Null values never match. The result is never nil.
func Dict(in wire.Dict, target wire.Kind) wire.Dict {
	return Filter(in, target, Options{}).Dict
}

// Filter is Dict with options and a record of what was dropped.
func Filter(in wire.Dict, target wire.Kind, opts Options) Result {
	res := Result{Dict: make(wire.Dict, len(in))}
	for k, v := range in {
		if keep, ok := admit(v, target, opts); ok {
			res.Dict[k] = keep
			continue
		}
		res.Dropped = append(res.Dropped, k)
	}
	sort.Strings(res.Dropped)
	return res
}

func admit(v wire.Value, target wire.Kind, opts Options) (wire.Value, bool) {
	if v.IsNull() || target == wire.KindNull {
		return wire.Value{}, false
	}
	if v.Kind() == target {
		return v, true
	}
	if !opts.Lenient {
		return wire.Value{}, false
	}
	out, err := Coerce(v, target)
	if err != nil {
		return wire.Value{}, false
	}
	return out, true
}

// Strings returns the string-valued entries of in.
func Strings(in wire.Dict) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if s, ok := v.AsString(); ok {
			out[k] = s
		}
	}
	return out
}

// Numbers returns the number-valued entries of in.
func Numbers(in wire.Dict) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if n, ok := v.AsNumber(); ok {
			out[k] = n
		}
	}
	return out
}

// Bools returns the boolean-valued entries of in.
func Bools(in wire.Dict) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		if b, ok := v.AsBool(); ok {
			out[k] = b
		}
	}
	return out
}

// Dicts returns the map-valued entries of in.
func Dicts(in wire.Dict) map[string]wire.Dict {
	out := make(map[string]wire.Dict, len(in))
	for k, v := range in {
		if m, ok := v.AsMap(); ok {
			out[k] = m
		}
	}
	return out
}

// WithoutNulls returns in minus its null entries.
func WithoutNulls(in wire.Dict) wire.Dict {
	out := make(wire.Dict, len(in))
	for k, v := range in {
		if !v.IsNull() {
			out[k] = v
		}
	}
	return out
}
