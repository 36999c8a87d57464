package bridge

import (
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

// Visitor id dictionary keys.
const (
	KeyIDOrigin            = "idOrigin"
	KeyIDType              = "idType"
	KeyIdentifier          = "identifier"
	KeyAuthenticationState = "authenticationState"
)

// VisitorIDFromDict builds a VisitorID. Missing strings stay empty and an
// unrecognized authentication state becomes VisitorAuthUnknown.
func VisitorIDFromDict(d wire.Dict) (*types.VisitorID, bool) {
	if d == nil {
		return nil, false
	}
	origin, _ := d.String(KeyIDOrigin)
	idType, _ := d.String(KeyIDType)
	id, _ := d.String(KeyIdentifier)
	state, _ := d.String(KeyAuthenticationState)

	return &types.VisitorID{
		IDOrigin:  origin,
		IDType:    idType,
		ID:        id,
		AuthState: types.ParseVisitorAuthState(state),
	}, true
}

// DictFromVisitorID is the inverse of VisitorIDFromDict.
func DictFromVisitorID(v *types.VisitorID) (wire.Dict, bool) {
	if v == nil {
		return nil, false
	}
	return wire.Dict{
		KeyIDOrigin:            wire.String(v.IDOrigin),
		KeyIDType:              wire.String(v.IDType),
		KeyIdentifier:          wire.String(v.ID),
		KeyAuthenticationState: wire.String(v.AuthState.String()),
	}, true
}

// ArrayFromVisitorIDs converts a list of visitor ids, skipping nil entries.
func ArrayFromVisitorIDs(ids []*types.VisitorID) wire.Value {
	out := make([]wire.Value, 0, len(ids))
	for _, id := range ids {
		if d, ok := DictFromVisitorID(id); ok {
			out = append(out, wire.Map(d))
		}
	}
	return wire.Array(out...)
}
