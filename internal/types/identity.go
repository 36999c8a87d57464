package types

import "strings"

// IdentityItem is one identifier inside an IdentityMap namespace.
type IdentityItem struct {
	ID                 string
	AuthenticatedState AuthenticatedState
	Primary            bool
}

// IdentityMap groups identity items by namespace.
// Namespaces keep insertion order; item ids compare case-insensitively.
// The zero value is an empty map ready for use. Not safe for concurrent
// mutation; callers that share one must synchronize.
type IdentityMap struct {
	namespaces []string
	items      map[string][]IdentityItem
}

// NewIdentityMap returns an empty identity map.
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{}
}

// AddItem adds item under namespace, replacing an existing item with the same id.
// Items with an empty id and empty namespaces are ignored.
func (m *IdentityMap) AddItem(item IdentityItem, namespace string) {
	if namespace == "" || item.ID == "" {
		return
	}
	if m.items == nil {
		m.items = make(map[string][]IdentityItem)
	}

	list, exists := m.items[namespace]
	if !exists {
		m.namespaces = append(m.namespaces, namespace)
	}
	for i := range list {
		if equalIDs(list[i].ID, item.ID) {
			list[i] = item
			return
		}
	}
	m.items[namespace] = append(list, item)
}

// RemoveItem removes the item with item's id from namespace.
// The namespace is dropped once it has no items left.
func (m *IdentityMap) RemoveItem(item IdentityItem, namespace string) {
	if namespace == "" || item.ID == "" || m.items == nil {
		return
	}
	list, exists := m.items[namespace]
	if !exists {
		return
	}

	kept := make([]IdentityItem, 0, len(list))
	for _, existing := range list {
		if !equalIDs(existing.ID, item.ID) {
			kept = append(kept, existing)
		}
	}
	if len(kept) > 0 {
		m.items[namespace] = kept
		return
	}

	delete(m.items, namespace)
	for i, ns := range m.namespaces {
		if ns == namespace {
			m.namespaces = append(m.namespaces[:i:i], m.namespaces[i+1:]...)
			break
		}
	}
}

// Merge adds every item of other into m.
func (m *IdentityMap) Merge(other *IdentityMap) {
	if other == nil {
		return
	}
	for _, ns := range other.Namespaces() {
		for _, item := range other.Items(ns) {
			m.AddItem(item, ns)
		}
	}
}

// Namespaces returns namespaces in insertion order.
func (m *IdentityMap) Namespaces() []string {
	out := make([]string, len(m.namespaces))
	copy(out, m.namespaces)
	return out
}

// Items returns a copy of the items stored under namespace.
func (m *IdentityMap) Items(namespace string) []IdentityItem {
	list := m.items[namespace]
	out := make([]IdentityItem, len(list))
	copy(out, list)
	return out
}

// IsEmpty reports whether the map holds no items.
func (m *IdentityMap) IsEmpty() bool {
	return len(m.namespaces) == 0
}

// Clone returns a deep copy of m.
func (m *IdentityMap) Clone() *IdentityMap {
	c := NewIdentityMap()
	c.Merge(m)
	return c
}

func equalIDs(a, b string) bool {
	return strings.EqualFold(a, b)
}
