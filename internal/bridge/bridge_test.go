package bridge

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

func TestEventFromDict(t *testing.T) {
	d := wire.MustDict(map[string]any{
		"eventName":   "Purchase",
		"eventType":   "com.adobe.eventType.generic.track",
		"eventSource": "com.adobe.eventSource.requestContent",
		"eventData":   map[string]any{"sku": "123", "qty": 2},
	})

	e, ok := EventFromDict(d)
	require.True(t, ok)
	assert.Equal(t, "Purchase", e.Name)
	assert.Equal(t, "com.adobe.eventType.generic.track", e.Type)
	assert.Equal(t, "com.adobe.eventSource.requestContent", e.Source)
	assert.Equal(t, map[string]any{"sku": "123", "qty": float64(2)}, e.Data)

	back, ok := DictFromEvent(e)
	require.True(t, ok)
	assert.True(t, back.Equal(d), "round trip = %v", back.ToMap())
}

func TestEventFromDict_Failures(t *testing.T) {
	tests := []struct {
		name string
		in   wire.Dict
	}{
		{"nil dict", nil},
		{"missing name", wire.MustDict(map[string]any{"eventType": "t", "eventSource": "s"})},
		{"numeric type", wire.MustDict(map[string]any{"eventName": "n", "eventType": 1, "eventSource": "s"})},
		{"null source", wire.MustDict(map[string]any{"eventName": "n", "eventType": "t", "eventSource": nil})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := EventFromDict(tt.in)
			assert.False(t, ok)
			assert.Nil(t, e)
		})
	}

	_, ok := DictFromEvent(nil)
	assert.False(t, ok)
}

func TestEventFromDict_DataOptional(t *testing.T) {
	e, ok := EventFromDict(wire.MustDict(map[string]any{
		"eventName": "n", "eventType": "t", "eventSource": "s", "eventData": "not a map",
	}))
	require.True(t, ok)
	assert.Nil(t, e.Data)

	out, _ := DictFromEvent(e)
	data, ok := out.Map(KeyEventData)
	require.True(t, ok)
	assert.Empty(t, data)
}

func TestDictFromEvent_DropsUnrepresentable(t *testing.T) {
	out, ok := DictFromEvent(&types.Event{
		Name: "n", Type: "t", Source: "s",
		Data: map[string]any{"ok": "v", "fn": func() {}},
	})
	require.True(t, ok)
	data, _ := out.Map(KeyEventData)
	assert.Equal(t, []string{"ok"}, data.Keys())
}

func TestContextData(t *testing.T) {
	got := ContextData(wire.MustDict(map[string]any{"a": "x", "b": 5, "c": "y"}))
	assert.Equal(t, map[string]string{"a": "x", "c": "y"}, got)
}

func TestVisitorID(t *testing.T) {
	d := wire.MustDict(map[string]any{
		"idOrigin":            "d_cid_ic",
		"idType":              "loginid",
		"identifier":          "user-1",
		"authenticationState": "VISITOR_AUTH_STATE_AUTHENTICATED",
	})
	v, ok := VisitorIDFromDict(d)
	require.True(t, ok)
	assert.Equal(t, types.VisitorAuthAuthenticated, v.AuthState)
	assert.Equal(t, "user-1", v.ID)

	back, ok := DictFromVisitorID(v)
	require.True(t, ok)
	assert.True(t, back.Equal(d))

	v, ok = VisitorIDFromDict(wire.Dict{})
	require.True(t, ok)
	assert.Equal(t, types.VisitorAuthUnknown, v.AuthState)

	_, ok = VisitorIDFromDict(nil)
	assert.False(t, ok)

	arr := ArrayFromVisitorIDs([]*types.VisitorID{v, nil})
	assert.Equal(t, 1, arr.Len())
}

func TestIdentityItemFromDict(t *testing.T) {
	item, ok := IdentityItemFromDict(wire.MustDict(map[string]any{
		"id": "user@example.com", "authenticatedState": "AUTHENTICATED", "primary": true,
	}))
	require.True(t, ok)
	assert.Equal(t, types.AuthStateAuthenticated, item.AuthenticatedState)
	assert.True(t, item.Primary)

	item, ok = IdentityItemFromDict(wire.MustDict(map[string]any{"id": "x", "primary": "true"}))
	require.True(t, ok)
	assert.False(t, item.Primary, "primary must be a boolean true")
	assert.Equal(t, types.AuthStateAmbiguous, item.AuthenticatedState)

	for _, bad := range []wire.Dict{nil, {}, wire.MustDict(map[string]any{"id": ""}), wire.MustDict(map[string]any{"id": 7})} {
		_, ok := IdentityItemFromDict(bad)
		assert.False(t, ok, "IdentityItemFromDict(%v)", bad)
	}
}

func TestIdentityMap_RoundTrip(t *testing.T) {
	in := wire.MustDict(map[string]any{
		"items": map[string]any{
			"Email": []any{
				map[string]any{"id": "a@example.com", "authenticatedState": "authenticated", "primary": true},
				map[string]any{"id": "A@EXAMPLE.COM", "authenticatedState": "loggedOut"},
				map[string]any{"id": ""},
				"garbage",
			},
			"ECID":    []any{map[string]any{"id": "ecid-1"}},
			"Invalid": "not an array",
			"Empty":   []any{},
		},
	})

	m, ok := IdentityMapFromDict(in)
	require.True(t, ok)
	assert.Equal(t, []string{"ECID", "Email"}, m.Namespaces())

	email := m.Items("Email")
	require.Len(t, email, 1)
	assert.Equal(t, "A@EXAMPLE.COM", email[0].ID)
	assert.Equal(t, types.AuthStateLoggedOut, email[0].AuthenticatedState)

	out, ok := DictFromIdentityMap(m)
	require.True(t, ok)
	assert.Equal(t, []string{"ECID", "Email"}, out.Keys())

	again, ok := IdentityMapFromDict(IdentityMapInput(out))
	require.True(t, ok)
	assert.Equal(t, m.Namespaces(), again.Namespaces())
	assert.Equal(t, m.Items("Email"), again.Items("Email"))
}

func TestIdentityMapWithRejects(t *testing.T) {
	tests := []struct {
		name         string
		items        map[string]any
		wantRejected int
		wantEmail    int
	}{
		{
			name: "case-insensitive duplicate merges without rejects",
			items: map[string]any{"Email": []any{
				map[string]any{"id": "a@example.com"},
				map[string]any{"id": "A@EXAMPLE.COM"},
			}},
			wantRejected: 0,
			wantEmail:    1,
		},
		{
			name: "empty id and non-map entries are rejects",
			items: map[string]any{"Email": []any{
				map[string]any{"id": "a@example.com"},
				map[string]any{"id": ""},
				"garbage",
			}},
			wantRejected: 2,
			wantEmail:    1,
		},
		{
			name: "duplicate alongside a reject counts only the reject",
			items: map[string]any{"Email": []any{
				map[string]any{"id": "a@example.com"},
				map[string]any{"id": "a@example.com"},
				map[string]any{"authenticatedState": "ambiguous"},
			}},
			wantRejected: 1,
			wantEmail:    1,
		},
		{
			name:         "non-array namespace is skipped",
			items:        map[string]any{"Email": "not an array"},
			wantRejected: 0,
			wantEmail:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, rejected, ok := IdentityMapWithRejects(wire.MustDict(map[string]any{"items": tt.items}))
			require.True(t, ok)
			assert.Equal(t, tt.wantRejected, rejected)
			assert.Len(t, m.Items("Email"), tt.wantEmail)
		})
	}
}

func TestIdentityMap_EdgeCases(t *testing.T) {
	_, ok := IdentityMapFromDict(nil)
	assert.False(t, ok)

	m, ok := IdentityMapFromDict(wire.Dict{})
	require.True(t, ok)
	assert.True(t, m.IsEmpty())

	out, ok := DictFromIdentityMap(types.NewIdentityMap())
	require.True(t, ok)
	assert.Empty(t, out)

	_, ok = DictFromIdentityMap(nil)
	assert.False(t, ok)
}

func TestExperienceEvent(t *testing.T) {
	d := wire.MustDict(map[string]any{
		"xdmData":           map[string]any{"eventType": "commerce.purchases"},
		"data":              map[string]any{"free": "form"},
		"datasetIdentifier": "ds-1",
	})
	e, ok := ExperienceEventFromDict(d)
	require.True(t, ok)
	assert.Equal(t, "ds-1", e.DatasetID)
	assert.Equal(t, "commerce.purchases", e.XDM["eventType"])

	back, ok := DictFromExperienceEvent(e)
	require.True(t, ok)
	assert.True(t, back.Equal(d))

	minimal, ok := ExperienceEventFromDict(wire.MustDict(map[string]any{"xdmData": map[string]any{}}))
	require.True(t, ok)
	out, _ := DictFromExperienceEvent(minimal)
	assert.Equal(t, []string{"xdmData"}, out.Keys())

	for _, bad := range []wire.Dict{nil, {}, wire.MustDict(map[string]any{"xdmData": "str"})} {
		_, ok := ExperienceEventFromDict(bad)
		assert.False(t, ok)
	}
}

func TestEdgeEventHandle(t *testing.T) {
	h := &types.EdgeEventHandle{
		Type:    "state:store",
		Payload: []map[string]any{{"key": "kndctr", "maxAge": 34128000}},
	}
	d, ok := DictFromEdgeEventHandle(h)
	require.True(t, ok)
	typ, _ := d.String(KeyType)
	assert.Equal(t, "state:store", typ)
	payload, _ := d.Array(KeyPayload)
	require.Len(t, payload, 1)

	back, ok := EdgeEventHandleFromDict(d)
	require.True(t, ok)
	assert.Equal(t, "state:store", back.Type)
	assert.Equal(t, float64(34128000), back.Payload[0]["maxAge"])

	_, ok = DictFromEdgeEventHandle(nil)
	assert.False(t, ok)
	assert.Equal(t, 1, ArrayFromEdgeEventHandles([]*types.EdgeEventHandle{h, nil}).Len())
}

func TestConsents(t *testing.T) {
	d := wire.MustDict(map[string]any{
		"consents": map[string]any{"collect": map[string]any{"val": "y"}},
		"stale":    nil,
	})
	native := ConsentsFromDict(d)
	assert.Equal(t, map[string]any{"consents": map[string]any{"collect": map[string]any{"val": "y"}}}, native)

	back := DictFromConsents(map[string]any{"consents": native["consents"], "gone": nil})
	assert.Equal(t, []string{"consents"}, back.Keys())

	assert.Empty(t, ConsentsFromDict(nil))
}

func TestLocation(t *testing.T) {
	l, ok := LocationFromDict(wire.MustDict(map[string]any{"latitude": 37.33, "longitude": -121.89}))
	require.True(t, ok)
	d, _ := DictFromLocation(l)
	lng, _ := d.Number(KeyLongitude)
	assert.Equal(t, -121.89, lng)

	_, ok = LocationFromDict(wire.MustDict(map[string]any{"latitude": 1}))
	assert.False(t, ok)
	_, ok = LocationFromDict(wire.MustDict(map[string]any{"latitude": "1", "longitude": 2}))
	assert.False(t, ok)
}

func TestPOI(t *testing.T) {
	d := wire.MustDict(map[string]any{
		"identifier":   "poi-1",
		"name":         "HQ",
		"latitude":     37.33,
		"longitude":    -121.89,
		"radius":       100,
		"userIsWithin": true,
		"library":      "lib-1",
		"weight":       1,
		"metadata":     map[string]any{"city": "San Jose", "floor": 3},
	})
	p, ok := POIFromDict(d)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"city": "San Jose"}, p.Metadata)
	assert.True(t, p.UserIsWithin)

	back, ok := DictFromPOI(p)
	require.True(t, ok)
	meta, _ := back.Map(KeyMetadata)
	assert.Equal(t, []string{"city"}, meta.Keys())
	assert.Equal(t, 1, ArrayFromPOIs([]*types.POI{p, nil}).Len())

	_, ok = POIFromDict(wire.MustDict(map[string]any{"latitude": 1, "longitude": 2}))
	assert.False(t, ok, "identifier is required")
}

func TestGeofence(t *testing.T) {
	g, ok := GeofenceFromDict(wire.MustDict(map[string]any{
		"identifier": "fence-1", "latitude": 1, "longitude": 2, "radius": 50,
	}))
	require.True(t, ok)
	assert.Equal(t, types.NeverExpire, g.ExpirationDuration)

	g, ok = GeofenceFromDict(wire.MustDict(map[string]any{
		"identifier": "fence-1", "latitude": 1, "longitude": 2, "radius": 50, "expirationDuration": 3600,
	}))
	require.True(t, ok)
	assert.Equal(t, int64(3600), g.ExpirationDuration)

	_, ok = GeofenceFromDict(wire.MustDict(map[string]any{"identifier": "f", "latitude": 1, "longitude": 2}))
	assert.False(t, ok, "radius is required")
}

func TestSurfaces(t *testing.T) {
	uri := SurfaceURI("com.example.app", "home/banner")
	assert.Equal(t, "mobileapp://com.example.app/home/banner", uri)
	assert.Equal(t, "home/banner", SurfacePath("com.example.app", uri))
	assert.Equal(t, "mobileapp://other/x", SurfacePath("com.example.app", "mobileapp://other/x"))

	uris, skipped := SurfacesFromArray([]wire.Value{wire.String("a"), wire.Number(1), wire.String(""), wire.Null()}, "pkg")
	assert.Equal(t, []string{"mobileapp://pkg/a"}, uris)
	assert.Equal(t, 3, skipped)
}

func TestMessage(t *testing.T) {
	m, ok := MessageFromDict(wire.MustDict(map[string]any{"id": "m1", "autoTrack": "true"}))
	require.True(t, ok)
	assert.Equal(t, types.Message{ID: "m1", AutoTrack: true}, *m)

	m, ok = MessageFromDict(wire.MustDict(map[string]any{"id": "m2", "autoTrack": "sometimes"}))
	require.True(t, ok)
	assert.False(t, m.AutoTrack)

	_, ok = MessageFromDict(wire.MustDict(map[string]any{"autoTrack": true}))
	assert.False(t, ok)

	d, ok := DictFromMessage(&types.Message{ID: "m3", AutoTrack: true})
	require.True(t, ok)
	b, ok := d.Bool("autoTrack")
	require.True(t, ok)
	assert.True(t, b)

	_, ok = DictFromMessage(nil)
	assert.False(t, ok)
	arr, _ := ArrayFromMessages([]*types.Message{nil, {ID: "m4"}}).AsArray()
	assert.Len(t, arr, 1)
}

func TestItemUUID(t *testing.T) {
	a := ItemUUID("act", 1)
	assert.Equal(t, a, ItemUUID("act", 1))
	assert.NotEqual(t, a, ItemUUID("act", 2))
	assert.NotEqual(t, a, ItemUUID("other", 1))
	require.Len(t, a, 36)
	assert.Equal(t, byte('3'), a[14])

	var seq ItemSequence
	assert.Equal(t, uint64(1), seq.Next())
	assert.Equal(t, uint64(2), seq.Next())
}

func TestDictFromMessagingProposition(t *testing.T) {
	var seq ItemSequence
	p := &types.MessagingProposition{
		ID:    "p1",
		Scope: "mobileapp://pkg/home",
		Items: []types.PropositionItem{
			{ID: "html", Schema: types.SchemaHTMLContent, Data: map[string]any{"content": "<p>hi</p>"}},
			{ID: "json", Schema: types.SchemaJSONContent, Data: map[string]any{"content": []any{map[string]any{"k": "v"}, "skip"}}},
			{ID: "bare"},
		},
	}
	d, ok := DictFromMessagingProposition(p, &seq)
	require.True(t, ok)

	details, _ := d.Map("scopeDetails")
	activity, ok := details.Map("activity")
	require.True(t, ok)
	assert.Empty(t, activity)

	items, _ := d.Array("items")
	require.Len(t, items, 3)
	html, _ := items[0].AsMap()
	content, _ := html.String("htmlContent")
	assert.Equal(t, "<p>hi</p>", content)
	u, _ := html.String("uuid")
	assert.Equal(t, ItemUUID("", 1), u)

	js, _ := items[1].AsMap()
	list, ok := js.Array("jsonContentArray")
	require.True(t, ok)
	assert.Len(t, list, 1)

	bare, _ := items[2].AsMap()
	assert.Equal(t, []string{"id", "uuid"}, bare.Keys())

	_, ok = DictFromMessagingProposition(nil, &seq)
	assert.False(t, ok)

	back, ok := MessagingPropositionFromDict(d)
	require.True(t, ok)
	assert.Len(t, back.Items, 3)
	assert.Equal(t, types.SchemaHTMLContent, back.Items[0].Schema)
}

func TestDecisionScopeFromDict(t *testing.T) {
	s, ok := DecisionScopeFromDict(wire.MustDict(map[string]any{"name": "hero"}))
	require.True(t, ok)
	assert.Equal(t, "hero", s.Name)

	s, ok = DecisionScopeFromDict(wire.MustDict(map[string]any{"activityId": "a", "placementId": "p", "itemCount": 2}))
	require.True(t, ok)
	raw, err := base64.StdEncoding.DecodeString(s.Name)
	require.NoError(t, err)
	assert.JSONEq(t, `{"activityId":"a","placementId":"p","itemCount":2}`, string(raw))

	for _, in := range []map[string]any{
		{},
		{"placementId": "p"},
		{"activityId": "a", "itemCount": -1},
		{"activityId": "a", "itemCount": 1.5},
	} {
		_, ok := DecisionScopeFromDict(wire.MustDict(in))
		assert.False(t, ok, "%v", in)
	}

	scopes, skipped := DecisionScopesFromArray([]wire.Value{wire.String("hero"), wire.String(""), wire.Bool(true)})
	assert.Equal(t, []types.DecisionScope{{Name: "hero"}}, scopes)
	assert.Equal(t, 2, skipped)
}

func TestOfferFromDict(t *testing.T) {
	o, skipped, ok := OfferFromDict(wire.MustDict(map[string]any{
		"id":    "o1",
		"score": 2.7,
		"meta":  map[string]any{"activityName": "hero"},
		"data": map[string]any{
			"format":          "video/mp4",
			"content":         map[string]any{"k": "v"},
			"language":        []any{"en-us", 1},
			"characteristics": map[string]any{"tier": "gold", "rank": 1},
		},
	}))
	require.True(t, ok)
	assert.Equal(t, Skipped{Entries: 2, Defaults: 1}, skipped)
	assert.Equal(t, types.OfferTypeUnknown, o.Type)
	assert.JSONEq(t, `{"k":"v"}`, o.Content)
	assert.Equal(t, []string{"en-us"}, o.Language)
	assert.Equal(t, map[string]string{"tier": "gold"}, o.Characteristics)

	d, ok := DictFromOffer(o)
	require.True(t, ok)
	score, _ := d.Number("score")
	assert.Equal(t, 2.0, score)

	o, skipped, ok = OfferFromDict(wire.MustDict(map[string]any{"id": "o2", "type": "HTML", "content": "<b/>"}))
	require.True(t, ok)
	assert.Equal(t, Skipped{}, skipped)
	assert.Equal(t, types.OfferTypeHTML, o.Type)
	assert.Equal(t, "<b/>", o.Content)

	_, _, ok = OfferFromDict(wire.MustDict(map[string]any{"score": 1}))
	assert.False(t, ok)
}

func TestOptimizeProposition(t *testing.T) {
	p, skipped, ok := OptimizePropositionFromDict(wire.MustDict(map[string]any{
		"id":     "p1",
		"scope":  "hero",
		"offers": []any{map[string]any{"id": "o1", "format": "text/plain", "content": "hi"}, "x", map[string]any{}},
	}))
	require.True(t, ok)
	assert.Equal(t, 2, skipped.Entries)
	require.Len(t, p.Offers, 1)
	assert.Equal(t, types.OfferTypeText, p.Offers[0].Type)

	d, ok := DictFromOptimizeProposition(p)
	require.True(t, ok)
	back, skipped, ok := OptimizePropositionFromDict(d)
	require.True(t, ok)
	assert.Equal(t, Skipped{}, skipped)
	assert.Equal(t, p.Offers[0].Content, back.Offers[0].Content)

	scoped := DictFromScopePropositions(map[string]*types.OptimizeProposition{"hero": p, "nil": nil})
	assert.Equal(t, []string{"hero"}, scoped.Keys())

	_, _, ok = OptimizePropositionFromDict(wire.MustDict(map[string]any{"scope": "hero"}))
	assert.False(t, ok)
}
