package types

import (
	"testing"
	"time"
)

func TestIdentityMap_AddItem(t *testing.T) {
	m := NewIdentityMap()
	m.AddItem(IdentityItem{ID: "user@example.com", AuthenticatedState: AuthStateAuthenticated}, "Email")
	m.AddItem(IdentityItem{ID: "ecid-1"}, "ECID")
	m.AddItem(IdentityItem{ID: "USER@example.com", Primary: true}, "Email")

	if got := m.Namespaces(); len(got) != 2 || got[0] != "Email" || got[1] != "ECID" {
		t.Fatalf("Namespaces() = %v, want [Email ECID]", got)
	}

	items := m.Items("Email")
	if len(items) != 1 {
		t.Fatalf("len(Items(Email)) = %d, want 1 (case-insensitive replace)", len(items))
	}
	if !items[0].Primary || items[0].ID != "USER@example.com" {
		t.Errorf("replacement item = %+v", items[0])
	}
}

func TestIdentityMap_IgnoresInvalid(t *testing.T) {
	var m IdentityMap
	m.AddItem(IdentityItem{ID: ""}, "Email")
	m.AddItem(IdentityItem{ID: "x"}, "")

	if !m.IsEmpty() {
		t.Errorf("IsEmpty() = false after invalid adds, namespaces=%v", m.Namespaces())
	}
}

func TestIdentityMap_RemoveItem(t *testing.T) {
	m := NewIdentityMap()
	m.AddItem(IdentityItem{ID: "a"}, "NS1")
	m.AddItem(IdentityItem{ID: "b"}, "NS1")
	m.AddItem(IdentityItem{ID: "c"}, "NS2")

	m.RemoveItem(IdentityItem{ID: "A"}, "NS1")
	if items := m.Items("NS1"); len(items) != 1 || items[0].ID != "b" {
		t.Errorf("Items(NS1) = %+v, want [b]", items)
	}

	m.RemoveItem(IdentityItem{ID: "c"}, "NS2")
	if ns := m.Namespaces(); len(ns) != 1 || ns[0] != "NS1" {
		t.Errorf("Namespaces() = %v, want [NS1]", ns)
	}

	// Unknown namespace and empty id are no-ops.
	m.RemoveItem(IdentityItem{ID: "b"}, "missing")
	m.RemoveItem(IdentityItem{ID: ""}, "NS1")
	if len(m.Items("NS1")) != 1 {
		t.Error("no-op removals changed the map")
	}
}

func TestIdentityMap_CloneIsIndependent(t *testing.T) {
	m := NewIdentityMap()
	m.AddItem(IdentityItem{ID: "a"}, "NS")

	c := m.Clone()
	c.AddItem(IdentityItem{ID: "b"}, "NS")

	if len(m.Items("NS")) != 1 {
		t.Error("mutating clone changed original")
	}
	if len(c.Items("NS")) != 2 {
		t.Error("clone missing added item")
	}
}

func TestIDs(t *testing.T) {
	id := NewEventID()
	if _, err := ParseEventID(string(id)); err != nil {
		t.Fatalf("ParseEventID(%q) error = %v", id, err)
	}
	if _, err := ParseEventID("not-a-uuid"); err == nil {
		t.Error("ParseEventID accepted garbage")
	}

	ts := EventIDTime(id)
	if ts.IsZero() || time.Since(ts) > time.Minute {
		t.Errorf("EventIDTime() = %v, want ~now", ts)
	}
	if !EventIDTime("garbage").IsZero() {
		t.Error("EventIDTime(garbage) should be zero")
	}

	if NewCallID() == NewCallID() {
		t.Error("NewCallID() returned duplicate ids")
	}
}
