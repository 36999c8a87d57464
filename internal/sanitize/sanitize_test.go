package sanitize

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/aepbridge/internal/wire"
)

func TestDict_KeepsOnlyTargetKind(t *testing.T) {
	in := wire.MustDict(map[string]any{"a": "x", "b": 5, "c": "y"})

	got := Dict(in, wire.KindString)
	want := wire.MustDict(map[string]any{"a": "x", "c": "y"})
	if !got.Equal(want) {
		t.Errorf("Dict() = %v, want %v", got.ToMap(), want.ToMap())
	}
	if len(in) != 3 {
		t.Errorf("input mutated: %v", in.ToMap())
	}
}

func TestDict_Empty(t *testing.T) {
	for _, in := range []wire.Dict{nil, {}} {
		got := Dict(in, wire.KindNumber)
		if got == nil || len(got) != 0 {
			t.Errorf("Dict(%v) = %v, want empty non-nil dict", in, got)
		}
	}
}

func TestDict_NullNeverMatches(t *testing.T) {
	in := wire.Dict{"n": wire.Null(), "s": wire.String("x")}
	if got := Dict(in, wire.KindNull); len(got) != 0 {
		t.Errorf("Dict(KindNull) = %v, want empty", got.ToMap())
	}
	if got := Filter(in, wire.KindString, Options{Lenient: true}); len(got.Dict) != 1 {
		t.Errorf("lenient Filter kept null: %v", got.Dict.ToMap())
	}
}

func TestFilter_Lenient(t *testing.T) {
	in := wire.MustDict(map[string]any{
		"count":   3,
		"flag":    true,
		"name":    "checkout",
		"nested":  map[string]any{"a": 1},
		"nothing": nil,
	})

	res := Filter(in, wire.KindString, Options{Lenient: true})
	want := wire.MustDict(map[string]any{"count": "3", "flag": "true", "name": "checkout"})
	if !res.Dict.Equal(want) {
		t.Errorf("Filter() = %v, want %v", res.Dict.ToMap(), want.ToMap())
	}
	if len(res.Dropped) != 2 || res.Dropped[0] != "nested" || res.Dropped[1] != "nothing" {
		t.Errorf("Dropped = %v, want [nested nothing]", res.Dropped)
	}

	strict := Filter(in, wire.KindString, Options{})
	if len(strict.Dict) != 1 || len(strict.Dropped) != 4 {
		t.Errorf("strict Filter() = %v dropped %v", strict.Dict.ToMap(), strict.Dropped)
	}
}

func TestProjections(t *testing.T) {
	in := wire.MustDict(map[string]any{
		"s": "str",
		"n": 1.5,
		"b": true,
		"m": map[string]any{"k": "v"},
		"z": nil,
	})

	if got := Strings(in); len(got) != 1 || got["s"] != "str" {
		t.Errorf("Strings() = %v", got)
	}
	if got := Numbers(in); len(got) != 1 || got["n"] != 1.5 {
		t.Errorf("Numbers() = %v", got)
	}
	if got := Bools(in); len(got) != 1 || !got["b"] {
		t.Errorf("Bools() = %v", got)
	}
	if got := Dicts(in); len(got) != 1 || len(got["m"]) != 1 {
		t.Errorf("Dicts() = %v", got)
	}
	if got := WithoutNulls(in); len(got) != 4 {
		t.Errorf("WithoutNulls() = %v", got.ToMap())
	}
}

// genValue produces values of every kind.
func genValue() gopter.Gen {
	return gen.OneGenOf(
		gen.Const(wire.Null()),
		gen.Bool().Map(func(b bool) wire.Value { return wire.Bool(b) }),
		gen.Float64Range(-1e6, 1e6).Map(func(f float64) wire.Value { return wire.Number(f) }),
		gen.AlphaString().Map(func(s string) wire.Value { return wire.String(s) }),
		gen.SliceOf(gen.UInt8()).Map(func(b []byte) wire.Value { return wire.Bytes(b) }),
		gen.SliceOf(gen.AlphaString()).Map(func(ss []string) wire.Value {
			vs := make([]wire.Value, len(ss))
			for i, s := range ss {
				vs[i] = wire.String(s)
			}
			return wire.Array(vs...)
		}),
		gen.MapOf(gen.AlphaString(), gen.Int()).Map(func(m map[string]int) wire.Value {
			d := make(wire.Dict, len(m))
			for k, n := range m {
				d[k] = wire.Number(float64(n))
			}
			return wire.Map(d)
		}),
	)
}

func genDict() gopter.Gen {
	return gen.MapOf(gen.AlphaString(), genValue()).Map(func(m map[string]wire.Value) wire.Dict {
		return wire.Dict(m)
	})
}

func genKind() gopter.Gen {
	return gen.IntRange(int(wire.KindNull), int(wire.KindMap)).Map(func(k int) wire.Kind { return wire.Kind(k) })
}

// Property-based test: soundness, completeness and immutability
func TestDict_PropertySoundAndComplete(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every kept entry has the target kind", prop.ForAll(
		func(in wire.Dict, target wire.Kind) bool {
			for k, v := range Dict(in, target) {
				if v.Kind() != target || v.IsNull() {
					return false
				}
				if !in[k].Equal(v) {
					return false
				}
			}
			return true
		},
		genDict(), genKind(),
	))

	properties.Property("every non-null entry of the target kind is kept", prop.ForAll(
		func(in wire.Dict, target wire.Kind) bool {
			out := Dict(in, target)
			for k, v := range in {
				if v.Kind() == target && !v.IsNull() {
					if _, ok := out[k]; !ok {
						return false
					}
				}
			}
			return true
		},
		genDict(), genKind(),
	))

	properties.Property("input is never mutated", prop.ForAll(
		func(in wire.Dict, target wire.Kind, lenient bool) bool {
			before := in.Clone()
			res := Filter(in, target, Options{Lenient: lenient})
			res.Dict["injected"] = wire.String("x")
			return in.Equal(before)
		},
		genDict(), genKind(), gen.Bool(),
	))

	properties.Property("kept and dropped partition the input", prop.ForAll(
		func(in wire.Dict, target wire.Kind, lenient bool) bool {
			res := Filter(in, target, Options{Lenient: lenient})
			if len(res.Dict)+len(res.Dropped) != len(in) {
				return false
			}
			for _, k := range res.Dropped {
				if _, kept := res.Dict[k]; kept {
					return false
				}
			}
			return true
		},
		genDict(), genKind(), gen.Bool(),
	))

	properties.TestingRun(t)
}
