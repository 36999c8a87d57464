package bridge

import (
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

// Experience event and event handle keys.
const (
	KeyXDMData           = "xdmData"
	KeyData              = "data"
	KeyDatasetIdentifier = "datasetIdentifier"
	KeyType              = "type"
	KeyPayload           = "payload"
)

// ExperienceEventFromDict builds an ExperienceEvent. xdmData must be a map;
// data and datasetIdentifier are optional.
func ExperienceEventFromDict(d wire.Dict) (*types.ExperienceEvent, bool) {
	if d == nil {
		return nil, false
	}
	xdm, ok := d.Map(KeyXDMData)
	if !ok {
		return nil, false
	}

	e := &types.ExperienceEvent{XDM: xdm.ToMap()}
	if data, ok := d.Map(KeyData); ok {
		e.Data = data.ToMap()
	}
	if dataset, ok := d.String(KeyDatasetIdentifier); ok {
		e.DatasetID = dataset
	}
	return e, true
}

// DictFromExperienceEvent is the inverse of ExperienceEventFromDict.
// Absent optional fields are omitted.
func DictFromExperienceEvent(e *types.ExperienceEvent) (wire.Dict, bool) {
	if e == nil {
		return nil, false
	}
	out := wire.Dict{KeyXDMData: wire.Map(DictFromNative(e.XDM))}
	if e.Data != nil {
		out[KeyData] = wire.Map(DictFromNative(e.Data))
	}
	if e.DatasetID != "" {
		out[KeyDatasetIdentifier] = wire.String(e.DatasetID)
	}
	return out, true
}

// DictFromEdgeEventHandle converts a response handle to {type, payload}.
func DictFromEdgeEventHandle(h *types.EdgeEventHandle) (wire.Dict, bool) {
	if h == nil {
		return nil, false
	}
	payload := make([]wire.Value, 0, len(h.Payload))
	for _, p := range h.Payload {
		payload = append(payload, wire.Map(DictFromNative(p)))
	}
	return wire.Dict{
		KeyType:    wire.String(h.Type),
		KeyPayload: wire.Array(payload...),
	}, true
}

// EdgeEventHandleFromDict reads a {type, payload} handle. Payload elements
// that are not maps are skipped.
func EdgeEventHandleFromDict(d wire.Dict) (*types.EdgeEventHandle, bool) {
	if d == nil {
		return nil, false
	}
	typ, _ := d.String(KeyType)
	h := &types.EdgeEventHandle{Type: typ}
	list, _ := d.Array(KeyPayload)
	for _, elem := range list {
		if m, ok := elem.AsMap(); ok {
			h.Payload = append(h.Payload, m.ToMap())
		}
	}
	return h, true
}

// ArrayFromEdgeEventHandles converts the handles returned by sendEvent.
func ArrayFromEdgeEventHandles(handles []*types.EdgeEventHandle) wire.Value {
	out := make([]wire.Value, 0, len(handles))
	for _, h := range handles {
		if d, ok := DictFromEdgeEventHandle(h); ok {
			out = append(out, wire.Map(d))
		}
	}
	return wire.Array(out...)
}
