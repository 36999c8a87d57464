package bridge

import (
	"math"

	"github.com/solatis/aepbridge/internal/sanitize"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

// Location, point of interest and geofence keys.
const (
	KeyLatitude           = "latitude"
	KeyLongitude          = "longitude"
	KeyName               = "name"
	KeyRadius             = "radius"
	KeyUserIsWithin       = "userIsWithin"
	KeyLibrary            = "library"
	KeyWeight             = "weight"
	KeyMetadata           = "metadata"
	KeyExpirationDuration = "expirationDuration"
)

// LocationFromDict requires numeric latitude and longitude.
func LocationFromDict(d wire.Dict) (*types.Location, bool) {
	lat, lng, ok := coordinates(d)
	if !ok {
		return nil, false
	}
	return &types.Location{Latitude: lat, Longitude: lng}, true
}

// DictFromLocation is the inverse of LocationFromDict.
func DictFromLocation(l *types.Location) (wire.Dict, bool) {
	if l == nil {
		return nil, false
	}
	return wire.Dict{
		KeyLatitude:  wire.Number(l.Latitude),
		KeyLongitude: wire.Number(l.Longitude),
	}, true
}

// POIFromDict requires a string identifier and numeric coordinates. Other
// fields are optional; metadata keeps only string values.
func POIFromDict(d wire.Dict) (*types.POI, bool) {
	id, ok := d.String(KeyIdentifier)
	if !ok {
		return nil, false
	}
	lat, lng, ok := coordinates(d)
	if !ok {
		return nil, false
	}

	poi := &types.POI{Identifier: id, Latitude: lat, Longitude: lng}
	poi.Name, _ = d.String(KeyName)
	poi.Radius, _ = d.Number(KeyRadius)
	poi.UserIsWithin, _ = d.Bool(KeyUserIsWithin)
	poi.Library, _ = d.String(KeyLibrary)
	poi.Weight, _ = d.Number(KeyWeight)
	if meta, ok := d.Map(KeyMetadata); ok {
		poi.Metadata = sanitize.Strings(meta)
	}
	return poi, true
}

// DictFromPOI is the inverse of POIFromDict. Metadata is always present.
func DictFromPOI(p *types.POI) (wire.Dict, bool) {
	if p == nil {
		return nil, false
	}
	return wire.Dict{
		KeyIdentifier:   wire.String(p.Identifier),
		KeyName:         wire.String(p.Name),
		KeyLatitude:     wire.Number(p.Latitude),
		KeyLongitude:    wire.Number(p.Longitude),
		KeyRadius:       wire.Number(p.Radius),
		KeyUserIsWithin: wire.Bool(p.UserIsWithin),
		KeyLibrary:      wire.String(p.Library),
		KeyWeight:       wire.Number(p.Weight),
		KeyMetadata:     wire.Map(DictFromStrings(p.Metadata)),
	}, true
}

// ArrayFromPOIs converts a list of points of interest, skipping nil entries.
func ArrayFromPOIs(pois []*types.POI) wire.Value {
	out := make([]wire.Value, 0, len(pois))
	for _, p := range pois {
		if d, ok := DictFromPOI(p); ok {
			out = append(out, wire.Map(d))
		}
	}
	return wire.Array(out...)
}

// GeofenceFromDict requires identifier, coordinates and radius. A missing
// expirationDuration means the geofence never expires.
func GeofenceFromDict(d wire.Dict) (*types.Geofence, bool) {
	id, ok := d.String(KeyIdentifier)
	if !ok {
		return nil, false
	}
	lat, lng, ok := coordinates(d)
	if !ok {
		return nil, false
	}
	radius, ok := d.Number(KeyRadius)
	if !ok {
		return nil, false
	}

	g := &types.Geofence{
		Identifier:         id,
		Latitude:           lat,
		Longitude:          lng,
		Radius:             radius,
		ExpirationDuration: types.NeverExpire,
	}
	if exp, ok := d.Number(KeyExpirationDuration); ok {
		g.ExpirationDuration = int64(exp)
	}
	return g, true
}

func coordinates(d wire.Dict) (lat, lng float64, ok bool) {
	if d == nil {
		return 0, 0, false
	}
	lat, ok = d.Number(KeyLatitude)
	if !ok || math.IsNaN(lat) {
		return 0, 0, false
	}
	lng, ok = d.Number(KeyLongitude)
	if !ok || math.IsNaN(lng) {
		return 0, 0, false
	}
	return lat, lng, true
}
