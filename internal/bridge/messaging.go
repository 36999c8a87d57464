package bridge

import (
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

// Message and proposition keys.
const (
	KeyAutoTrack        = "autoTrack"
	KeyScope            = "scope"
	KeyScopeDetails     = "scopeDetails"
	KeyActivity         = "activity"
	KeySchema           = "schema"
	KeyUUID             = "uuid"
	KeyJSONContentMap   = "jsonContentMap"
	KeyJSONContentArray = "jsonContentArray"
	KeyHTMLContent      = "htmlContent"
	KeyContent          = "content"
)

// SurfaceScheme prefixes every messaging surface URI.
const SurfaceScheme = "mobileapp://"

// SurfaceURI resolves a host surface path against the app package.
func SurfaceURI(appPackage, path string) string {
	return SurfaceScheme + appPackage + "/" + path
}

// SurfacePath is the inverse of SurfaceURI. URIs of another package are
// returned unchanged.
func SurfacePath(appPackage, uri string) string {
	return strings.TrimPrefix(uri, SurfaceScheme+appPackage+"/")
}

// SurfacesFromArray resolves an array of surface paths. Entries that are
// not non-empty strings are skipped and counted.
func SurfacesFromArray(arr []wire.Value, appPackage string) (uris []string, skipped int) {
	uris = make([]string, 0, len(arr))
	for _, v := range arr {
		path, ok := v.AsString()
		if !ok || path == "" {
			skipped++
			continue
		}
		uris = append(uris, SurfaceURI(appPackage, path))
	}
	return uris, skipped
}

// MessageFromDict requires a non-empty id. autoTrack may be a boolean or
// the strings "true" and "false"; anything else reads as false.
func MessageFromDict(d wire.Dict) (*types.Message, bool) {
	id, ok := d.String(KeyID)
	if !ok || id == "" {
		return nil, false
	}
	m := &types.Message{ID: id}
	if v, ok := d.Get(KeyAutoTrack); ok {
		if b, ok := v.AsBool(); ok {
			m.AutoTrack = b
		} else if s, ok := v.AsString(); ok {
			m.AutoTrack, _ = strconv.ParseBool(s)
		}
	}
	return m, true
}

// DictFromMessage converts to {id, autoTrack}.
func DictFromMessage(m *types.Message) (wire.Dict, bool) {
	if m == nil {
		return nil, false
	}
	return wire.Dict{
		KeyID:        wire.String(m.ID),
		KeyAutoTrack: wire.Bool(m.AutoTrack),
	}, true
}

// ArrayFromMessages converts messages, skipping nil entries.
func ArrayFromMessages(msgs []*types.Message) wire.Value {
	out := make([]wire.Value, 0, len(msgs))
	for _, m := range msgs {
		if d, ok := DictFromMessage(m); ok {
			out = append(out, wire.Map(d))
		}
	}
	return wire.Array(out...)
}

// ItemSequence numbers proposition items for uuid derivation. The zero
// value is ready to use and safe for concurrent use.
type ItemSequence struct {
	n atomic.Uint64
}

// Next returns the next sequence number, starting at 1.
func (s *ItemSequence) Next() uint64 {
	return s.n.Add(1)
}

// ItemUUID derives the uuid injected into a proposition item from the
// proposition activity id and the item sequence number.
func ItemUUID(activityID string, seq uint64) string {
	return types.NameUUID(activityID + "#" + strconv.FormatUint(seq, 10)).String()
}

// DictFromPropositionItem converts to {id, schema, data} plus the content
// fields derived from the schema: jsonContentMap or jsonContentArray for
// JSON items, htmlContent for HTML items.
func DictFromPropositionItem(item *types.PropositionItem) (wire.Dict, bool) {
	if item == nil {
		return nil, false
	}
	out := wire.Dict{KeyID: wire.String(item.ID)}
	if item.Schema != "" {
		out[KeySchema] = wire.String(item.Schema)
	}
	if len(item.Data) == 0 {
		return out, true
	}

	data := DictFromNative(item.Data)
	out[KeyData] = wire.Map(data)

	content, _ := data.Get(KeyContent)
	switch item.Schema {
	case types.SchemaJSONContent:
		if m, ok := content.AsMap(); ok {
			out[KeyJSONContentMap] = wire.Map(m)
		} else if arr, ok := content.AsArray(); ok {
			maps := make([]wire.Value, 0, len(arr))
			for _, e := range arr {
				if _, ok := e.AsMap(); ok {
					maps = append(maps, e)
				}
			}
			out[KeyJSONContentArray] = wire.Array(maps...)
		}
	case types.SchemaHTMLContent:
		if s, ok := content.AsString(); ok {
			out[KeyHTMLContent] = wire.String(s)
		}
	}
	return out, true
}

// DictFromMessagingProposition converts to {id, scope, scopeDetails, items}.
// scopeDetails.activity is always present as a map. Every item gets a uuid
// derived from the activity id and the next value of seq.
func DictFromMessagingProposition(p *types.MessagingProposition, seq *ItemSequence) (wire.Dict, bool) {
	if p == nil || seq == nil {
		return nil, false
	}
	details := DictFromNative(p.ScopeDetails)
	activity, ok := details.Map(KeyActivity)
	if !ok {
		activity = wire.Dict{}
	}
	details[KeyActivity] = wire.Map(activity)
	activityID, _ := activity.String(KeyID)

	items := make([]wire.Value, 0, len(p.Items))
	for i := range p.Items {
		d, _ := DictFromPropositionItem(&p.Items[i])
		d[KeyUUID] = wire.String(ItemUUID(activityID, seq.Next()))
		items = append(items, wire.Map(d))
	}

	return wire.Dict{
		KeyID:           wire.String(p.ID),
		KeyScope:        wire.String(p.Scope),
		KeyScopeDetails: wire.Map(details),
		KeyItems:        wire.Array(items...),
	}, true
}

// MessagingPropositionFromDict requires a non-empty id. Items without a
// string id are skipped.
func MessagingPropositionFromDict(d wire.Dict) (*types.MessagingProposition, bool) {
	id, ok := d.String(KeyID)
	if !ok || id == "" {
		return nil, false
	}
	p := &types.MessagingProposition{ID: id}
	p.Scope, _ = d.String(KeyScope)
	if details, ok := d.Map(KeyScopeDetails); ok {
		p.ScopeDetails = details.ToMap()
	}
	list, _ := d.Array(KeyItems)
	for _, v := range list {
		entry, ok := v.AsMap()
		if !ok {
			continue
		}
		itemID, ok := entry.String(KeyID)
		if !ok {
			continue
		}
		item := types.PropositionItem{ID: itemID}
		item.Schema, _ = entry.String(KeySchema)
		if data, ok := entry.Map(KeyData); ok {
			item.Data = data.ToMap()
		}
		p.Items = append(p.Items, item)
	}
	return p, true
}

// DictFromSurfacePropositions keys propositions by surface path. Surfaces
// are visited in sorted order so item uuids are assigned deterministically.
func DictFromSurfacePropositions(props map[string][]*types.MessagingProposition, appPackage string, seq *ItemSequence) wire.Dict {
	uris := make([]string, 0, len(props))
	for uri := range props {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	out := make(wire.Dict, len(props))
	for _, uri := range uris {
		list := make([]wire.Value, 0, len(props[uri]))
		for _, p := range props[uri] {
			if d, ok := DictFromMessagingProposition(p, seq); ok {
				list = append(list, wire.Map(d))
			}
		}
		out[SurfacePath(appPackage, uri)] = wire.Array(list...)
	}
	return out
}
