package bridge

import (
	"encoding/base64"
	"encoding/json"
	"math"

	"github.com/solatis/aepbridge/internal/sanitize"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

// Offer, proposition and decision scope keys.
const (
	KeyEtag            = "etag"
	KeyMeta            = "meta"
	KeyScore           = "score"
	KeyFormat          = "format"
	KeyLanguage        = "language"
	KeyCharacteristics = "characteristics"
	KeyOffers          = "offers"
	KeyActivityID      = "activityId"
	KeyPlacementID     = "placementId"
	KeyItemCount       = "itemCount"
)

// Skipped counts what a lenient converter left out of its result.
type Skipped struct {
	Entries  int // nested entries that did not convert
	Defaults int // enum strings that fell back to the domain default
}

func (s *Skipped) add(o Skipped) {
	s.Entries += o.Entries
	s.Defaults += o.Defaults
}

// DecisionScopesFromArray converts an array of scope names. Entries that
// are not non-empty strings are skipped and counted.
func DecisionScopesFromArray(arr []wire.Value) (scopes []types.DecisionScope, skipped int) {
	scopes = make([]types.DecisionScope, 0, len(arr))
	for _, v := range arr {
		name, ok := v.AsString()
		if !ok || name == "" {
			skipped++
			continue
		}
		scopes = append(scopes, types.DecisionScope{Name: name})
	}
	return scopes, skipped
}

// DecisionScopeFromDict accepts {name} or an activity descriptor
// {activityId, placementId, itemCount}. A descriptor is encoded as base64
// JSON, the name the decisioning service expects.
func DecisionScopeFromDict(d wire.Dict) (*types.DecisionScope, bool) {
	if name, ok := d.String(KeyName); ok && name != "" {
		return &types.DecisionScope{Name: name}, true
	}
	activity, ok := d.String(KeyActivityID)
	if !ok || activity == "" {
		return nil, false
	}
	placement, _ := d.String(KeyPlacementID)

	var count *int
	if n, ok := d.Number(KeyItemCount); ok {
		if n != math.Trunc(n) || n < 0 {
			return nil, false
		}
		c := int(n)
		count = &c
	}
	return &types.DecisionScope{Name: DecisionScopeName(activity, placement, count)}, true
}

// DecisionScopeName encodes an activity descriptor as a scope name.
func DecisionScopeName(activityID, placementID string, itemCount *int) string {
	desc := struct {
		ActivityID  string `json:"activityId,omitempty"`
		PlacementID string `json:"placementId,omitempty"`
		ItemCount   *int   `json:"itemCount,omitempty"`
	}{activityID, placementID, itemCount}
	raw, _ := json.Marshal(desc)
	return base64.StdEncoding.EncodeToString(raw)
}

// OfferFromDict requires a non-empty id. Content fields are read from the
// nested data map, or from the top level when data is absent. format (or
// type) is parsed as an OfferType; map or array content is kept as JSON
// text.
func OfferFromDict(d wire.Dict) (*types.Offer, Skipped, bool) {
	var skipped Skipped
	id, ok := d.String(KeyID)
	if !ok || id == "" {
		return nil, skipped, false
	}

	o := &types.Offer{ID: id}
	o.Etag, _ = d.String(KeyEtag)
	o.Schema, _ = d.String(KeySchema)
	o.Score, _ = d.Number(KeyScore)
	if meta, ok := d.Map(KeyMeta); ok {
		o.Meta = meta.ToMap()
	}

	data, ok := d.Map(KeyData)
	if !ok {
		data = d
	}
	format, ok := data.String(KeyFormat)
	if !ok {
		format, ok = data.String(KeyType)
	}
	if ok {
		var known bool
		o.Type, known = types.LookupOfferType(format)
		if !known {
			skipped.Defaults++
		}
	}

	if v, ok := data.Get(KeyContent); ok {
		switch v.Kind() {
		case wire.KindString:
			o.Content, _ = v.AsString()
		case wire.KindMap, wire.KindArray:
			raw, err := json.Marshal(v.Any())
			if err != nil {
				skipped.Entries++
				break
			}
			o.Content = string(raw)
		}
	}

	if langs, ok := data.Array(KeyLanguage); ok {
		for _, l := range langs {
			if s, ok := l.AsString(); ok {
				o.Language = append(o.Language, s)
				continue
			}
			skipped.Entries++
		}
	}
	if chars, ok := data.Map(KeyCharacteristics); ok {
		o.Characteristics = sanitize.Strings(chars)
		skipped.Entries += len(chars) - len(o.Characteristics)
	}
	return o, skipped, true
}

// DictFromOffer converts to {id, etag, schema, meta, score, data}. The
// score is truncated to an integer; data carries id, format, content,
// language and characteristics.
func DictFromOffer(o *types.Offer) (wire.Dict, bool) {
	if o == nil {
		return nil, false
	}
	data := wire.Dict{
		KeyID:      wire.String(o.ID),
		KeyFormat:  wire.String(o.Type.String()),
		KeyContent: wire.String(o.Content),
	}
	if o.Language != nil {
		langs := make([]wire.Value, len(o.Language))
		for i, l := range o.Language {
			langs[i] = wire.String(l)
		}
		data[KeyLanguage] = wire.Array(langs...)
	}
	if o.Characteristics != nil {
		data[KeyCharacteristics] = wire.Map(DictFromStrings(o.Characteristics))
	}

	out := wire.Dict{
		KeyID:     wire.String(o.ID),
		KeySchema: wire.String(o.Schema),
		KeyScore:  wire.Number(math.Trunc(o.Score)),
		KeyData:   wire.Map(data),
	}
	if o.Etag != "" {
		out[KeyEtag] = wire.String(o.Etag)
	}
	if o.Meta != nil {
		out[KeyMeta] = wire.Map(DictFromNative(o.Meta))
	}
	return out, true
}

// OptimizePropositionFromDict requires a non-empty id. Offers are read
// from items, or from offers when items is absent; offers that do not
// convert are skipped and counted.
func OptimizePropositionFromDict(d wire.Dict) (*types.OptimizeProposition, Skipped, bool) {
	var skipped Skipped
	id, ok := d.String(KeyID)
	if !ok || id == "" {
		return nil, skipped, false
	}

	p := &types.OptimizeProposition{ID: id}
	p.Scope, _ = d.String(KeyScope)
	if details, ok := d.Map(KeyScopeDetails); ok {
		p.ScopeDetails = details.ToMap()
	}

	list, ok := d.Array(KeyItems)
	if !ok {
		list, _ = d.Array(KeyOffers)
	}
	for _, v := range list {
		entry, ok := v.AsMap()
		if !ok {
			skipped.Entries++
			continue
		}
		offer, s, ok := OfferFromDict(entry)
		if !ok {
			skipped.Entries++
			continue
		}
		skipped.add(s)
		p.Offers = append(p.Offers, *offer)
	}
	return p, skipped, true
}

// DictFromOptimizeProposition converts to {id, scope, scopeDetails, items}.
func DictFromOptimizeProposition(p *types.OptimizeProposition) (wire.Dict, bool) {
	if p == nil {
		return nil, false
	}
	items := make([]wire.Value, 0, len(p.Offers))
	for i := range p.Offers {
		d, _ := DictFromOffer(&p.Offers[i])
		items = append(items, wire.Map(d))
	}
	return wire.Dict{
		KeyID:           wire.String(p.ID),
		KeyScope:        wire.String(p.Scope),
		KeyScopeDetails: wire.Map(DictFromNative(p.ScopeDetails)),
		KeyItems:        wire.Array(items...),
	}, true
}

// DictFromScopePropositions keys propositions by decision scope name.
func DictFromScopePropositions(props map[string]*types.OptimizeProposition) wire.Dict {
	out := make(wire.Dict, len(props))
	for scope, p := range props {
		if d, ok := DictFromOptimizeProposition(p); ok {
			out[scope] = wire.Map(d)
		}
	}
	return out
}
