package bridge

import (
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

// Identity item and identity map keys.
const (
	KeyID                 = "id"
	KeyAuthenticatedState = "authenticatedState"
	KeyPrimary            = "primary"
	KeyItems              = "items"
)

// IdentityItemFromDict builds an IdentityItem. The id must be a non-empty
// string. Primary is set only by a boolean true.
func IdentityItemFromDict(d wire.Dict) (*types.IdentityItem, bool) {
	if d == nil {
		return nil, false
	}
	id, ok := d.String(KeyID)
	if !ok || id == "" {
		return nil, false
	}
	state, _ := d.String(KeyAuthenticatedState)
	primary, _ := d.Bool(KeyPrimary)

	return &types.IdentityItem{
		ID:                 id,
		AuthenticatedState: types.ParseAuthenticatedState(state),
		Primary:            primary,
	}, true
}

// DictFromIdentityItem is the inverse of IdentityItemFromDict.
func DictFromIdentityItem(item *types.IdentityItem) (wire.Dict, bool) {
	if item == nil {
		return nil, false
	}
	return wire.Dict{
		KeyID:                 wire.String(item.ID),
		KeyAuthenticatedState: wire.String(item.AuthenticatedState.String()),
		KeyPrimary:            wire.Bool(item.Primary),
	}, true
}

// IdentityMapFromDict builds an IdentityMap from {items: {namespace: [item...]}}.
// Namespaces are read in sorted order. Namespaces that are not arrays and
// items that do not convert are skipped.
func IdentityMapFromDict(d wire.Dict) (*types.IdentityMap, bool) {
	m, _, ok := IdentityMapWithRejects(d)
	return m, ok
}

// IdentityMapWithRejects is IdentityMapFromDict that also reports how many
// array entries were rejected as identity items. Items merged into an
// earlier duplicate are not rejects.
func IdentityMapWithRejects(d wire.Dict) (*types.IdentityMap, int, bool) {
	if d == nil {
		return nil, 0, false
	}
	m := types.NewIdentityMap()
	items, ok := d.Map(KeyItems)
	if !ok {
		return m, 0, true
	}

	rejected := 0
	for _, ns := range items.Keys() {
		list, ok := items.Array(ns)
		if !ok {
			continue
		}
		for _, elem := range list {
			entry, ok := elem.AsMap()
			if !ok {
				rejected++
				continue
			}
			item, ok := IdentityItemFromDict(entry)
			if !ok {
				rejected++
				continue
			}
			m.AddItem(*item, ns)
		}
	}
	return m, rejected, true
}

// DictFromIdentityMap converts to {namespace: [item...]}, omitting empty
// namespaces.
func DictFromIdentityMap(m *types.IdentityMap) (wire.Dict, bool) {
	if m == nil {
		return nil, false
	}
	out := make(wire.Dict)
	for _, ns := range m.Namespaces() {
		items := m.Items(ns)
		if len(items) == 0 {
			continue
		}
		list := make([]wire.Value, 0, len(items))
		for i := range items {
			d, _ := DictFromIdentityItem(&items[i])
			list = append(list, wire.Map(d))
		}
		out[ns] = wire.Array(list...)
	}
	return out, true
}

// IdentityMapInput wraps the output shape of DictFromIdentityMap in the
// {items: ...} envelope IdentityMapFromDict reads.
func IdentityMapInput(d wire.Dict) wire.Dict {
	return wire.Dict{KeyItems: wire.Map(d)}
}
