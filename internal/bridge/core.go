// Package bridge converts between host dictionaries and the native SDK
// object model.
//
// Converters are flat field transcriptions: enum fields go through the
// codecs in internal/types and free-form payloads through internal/sanitize.
// A converter that cannot build its object returns (nil, false); none of
// them panic or return errors, and none mutate their input.
package bridge

import (
	"github.com/solatis/aepbridge/internal/sanitize"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

// Event dictionary keys.
const (
	KeyEventName   = "eventName"
	KeyEventType   = "eventType"
	KeyEventSource = "eventSource"
	KeyEventData   = "eventData"
)

// EventFromDict builds an Event. Name, type and source must be strings;
// eventData is optional and ignored unless it is a map.
func EventFromDict(d wire.Dict) (*types.Event, bool) {
	if d == nil {
		return nil, false
	}
	name, ok := d.String(KeyEventName)
	if !ok {
		return nil, false
	}
	typ, ok := d.String(KeyEventType)
	if !ok {
		return nil, false
	}
	source, ok := d.String(KeyEventSource)
	if !ok {
		return nil, false
	}

	e := &types.Event{Name: name, Type: typ, Source: source}
	if data, ok := d.Map(KeyEventData); ok {
		e.Data = data.ToMap()
	}
	return e, true
}

// DictFromEvent is the inverse of EventFromDict. Data entries that have no
// boundary representation are dropped.
func DictFromEvent(e *types.Event) (wire.Dict, bool) {
	if e == nil {
		return nil, false
	}
	return wire.Dict{
		KeyEventName:   wire.String(e.Name),
		KeyEventType:   wire.String(e.Type),
		KeyEventSource: wire.String(e.Source),
		KeyEventData:   wire.Map(DictFromNative(e.Data)),
	}, true
}

// ContextData is the string-valued projection used for trackAction,
// trackState and collectPii payloads.
func ContextData(d wire.Dict) map[string]string {
	return sanitize.Strings(d)
}

// DictFromNative converts a native map, dropping entries that cannot cross
// the boundary (functions, channels, structs, over-deep nesting).
// A nil map yields an empty Dict.
func DictFromNative(m map[string]any) wire.Dict {
	out := make(wire.Dict, len(m))
	for k, v := range m {
		if val, ok := wire.FromAny(v); ok {
			out[k] = val
		}
	}
	return out
}

// DictFromStrings lifts a string map into a Dict.
func DictFromStrings(m map[string]string) wire.Dict {
	out := make(wire.Dict, len(m))
	for k, v := range m {
		out[k] = wire.String(v)
	}
	return out
}
