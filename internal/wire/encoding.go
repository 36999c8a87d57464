package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"github.com/solatis/aepbridge/internal/types"
)

/*
 * Dictionary encodings.
 *
 * The host hands dictionaries over in several shapes: JSON from tooling,
 * JSON with comments from hand-written fixtures, CBOR from binary channels
 * and protobuf Struct over gRPC. All decoders require a top-level object.
 *
 * Only CBOR carries byte buffers natively. JSON, YAML and protobuf encode
 * bytes as standard base64 strings, so a bytes value read back from those
 * formats arrives as a string.
 *
 * Protobuf strings must be valid UTF-8; invalid sequences are replaced with
 * U+FFFD on the way out. Sanitizing can make two map keys equal. A valid
 * key always keeps its slot; among invalid keys that collide, the first in
 * byte order wins and the rest are dropped. StructCollisions reports how
 * many entries that drops.
 */

var (
	cborDec cbor.DecMode
	cborEnc cbor.EncMode
)

func init() {
	var err error
	cborDec, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		MaxNestedLevels: types.MaxNestingDepth + 1,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	cborEnc, err = cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(err)
	}
}

// DecodeJSON decodes a JSON object into a Dict.
func DecodeJSON(data []byte) (Dict, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConversionFailed, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after top-level object", types.ErrConversionFailed)
	}
	return objectToDict(raw)
}

// DecodeJSONC decodes a JSON object that may contain comments and trailing
// commas.
func DecodeJSONC(data []byte) (Dict, error) {
	return DecodeJSON(jsonc.ToJSON(data))
}

// DecodeCBOR decodes a CBOR map with text keys into a Dict.
func DecodeCBOR(data []byte) (Dict, error) {
	var raw any
	if err := cborDec.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConversionFailed, err)
	}
	return objectToDict(raw)
}

func objectToDict(raw any) (Dict, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is %T, want object", types.ErrConversionFailed, raw)
	}
	return DictFromMap(m)
}

// EncodeJSON encodes d as indented JSON with sorted keys.
func EncodeJSON(d Dict) ([]byte, error) {
	return json.MarshalIndent(d.ToMap(), "", "  ")
}

// EncodeCBOR encodes d as canonical CBOR.
func EncodeCBOR(d Dict) ([]byte, error) {
	return cborEnc.Marshal(d.ToMap())
}

// EncodeYAML encodes d as YAML. Bytes become base64 strings.
func EncodeYAML(d Dict) ([]byte, error) {
	return yaml.Marshal(d.textMap())
}

func (d Dict) textMap() map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v.textAny()
	}
	return out
}

func (v Value) textAny() any {
	switch v.kind {
	case KindBytes:
		return base64.StdEncoding.EncodeToString(v.raw)
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.textAny()
		}
		return out
	case KindMap:
		return v.m.textMap()
	}
	return v.Any()
}

// ToStruct converts d to a protobuf Struct.
func ToStruct(d Dict) *structpb.Struct {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(d))}
	for _, k := range structKeys(d) {
		out.Fields[sanitizeUTF8(k)] = ToProto(d[k])
	}
	return out
}

// StructCollisions counts the entries of d, at any depth, that ToStruct
// drops because their sanitized key is already taken.
func StructCollisions(d Dict) int {
	n := len(d) - len(structKeys(d))
	for _, v := range d {
		n += v.StructCollisions()
	}
	return n
}

// StructCollisions counts the map entries inside v that ToProto drops.
func (v Value) StructCollisions() int {
	switch v.kind {
	case KindMap:
		return StructCollisions(v.m)
	case KindArray:
		n := 0
		for _, e := range v.arr {
			n += e.StructCollisions()
		}
		return n
	}
	return 0
}

// structKeys returns the keys of d that survive sanitizing: every valid
// key, then each invalid key whose sanitized form is still free.
func structKeys(d Dict) []string {
	keys := make([]string, 0, len(d))
	taken := make(map[string]bool, len(d))
	var invalid []string
	for _, k := range d.Keys() {
		if !utf8.ValidString(k) {
			invalid = append(invalid, k)
			continue
		}
		keys = append(keys, k)
		taken[k] = true
	}
	for _, k := range invalid {
		sk := sanitizeUTF8(k)
		if taken[sk] {
			continue
		}
		keys = append(keys, k)
		taken[sk] = true
	}
	return keys
}

// ToProto converts v to a protobuf Value.
func ToProto(v Value) *structpb.Value {
	switch v.kind {
	case KindBool:
		return structpb.NewBoolValue(v.b)
	case KindNumber:
		return structpb.NewNumberValue(v.n)
	case KindString:
		return structpb.NewStringValue(sanitizeUTF8(v.s))
	case KindBytes:
		return structpb.NewStringValue(base64.StdEncoding.EncodeToString(v.raw))
	case KindArray:
		list := &structpb.ListValue{Values: make([]*structpb.Value, len(v.arr))}
		for i, e := range v.arr {
			list.Values[i] = ToProto(e)
		}
		return structpb.NewListValue(list)
	case KindMap:
		return structpb.NewStructValue(ToStruct(v.m))
	}
	return structpb.NewNullValue()
}

// FromStruct converts a protobuf Struct to a Dict. A nil Struct yields an
// empty Dict.
func FromStruct(s *structpb.Struct) Dict {
	out := make(Dict, len(s.GetFields()))
	for k, v := range s.GetFields() {
		out[k] = FromProto(v)
	}
	return out
}

// FromProto converts a protobuf Value. Unset values become null.
func FromProto(v *structpb.Value) Value {
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return Bool(k.BoolValue)
	case *structpb.Value_NumberValue:
		return Number(k.NumberValue)
	case *structpb.Value_StringValue:
		return String(k.StringValue)
	case *structpb.Value_ListValue:
		items := make([]Value, len(k.ListValue.GetValues()))
		for i, e := range k.ListValue.GetValues() {
			items[i] = FromProto(e)
		}
		return Value{kind: KindArray, arr: items}
	case *structpb.Value_StructValue:
		return Value{kind: KindMap, m: FromStruct(k.StructValue)}
	}
	return Null()
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with U+FFFD.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}
