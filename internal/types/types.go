// Package types provides the native-side domain models shared across the bridge.
//
// These are the Go shapes of the objects the wrapped SDKs expose: enums with
// fixed wire strings, events, identity maps, experience events and places
// models. Conversion to and from boundary dictionaries lives in
// internal/bridge; this package only defines the shapes and their enum codecs.
package types

import (
	"time"
)

// Event is a core SDK event.
// Name, Type and Source are required; Data is free-form payload.
type Event struct {
	ID        EventID
	Name      string
	Type      string
	Source    string
	Data      map[string]any
	Timestamp time.Time
}

// VisitorID is a legacy identity-service identifier.
type VisitorID struct {
	IDOrigin  string
	IDType    string
	ID        string
	AuthState VisitorAuthState
}

// ExperienceEvent is an XDM event sent through the edge network extension.
// XDM is required.
type ExperienceEvent struct {
	XDM       map[string]any
	Data      map[string]any
	DatasetID string
}

// EdgeEventHandle is one response handle returned for a sent ExperienceEvent.
type EdgeEventHandle struct {
	Type    string
	Payload []map[string]any
}

// Location is a device position.
type Location struct {
	Latitude  float64
	Longitude float64
}

// POI is a places point of interest.
type POI struct {
	Identifier   string
	Name         string
	Latitude     float64
	Longitude    float64
	Radius       float64
	UserIsWithin bool
	Library      string
	Weight       float64
	Metadata     map[string]string
}

// Geofence is a circular region handed to places for enter/exit processing.
// ExpirationDuration is in seconds; NeverExpire disables expiry.
type Geofence struct {
	Identifier         string
	Latitude           float64
	Longitude          float64
	Radius             float64
	ExpirationDuration int64
}

// NeverExpire marks a geofence without expiry.
const NeverExpire int64 = -1

// Geofence transition types.
const (
	GeofenceTransitionEnter = 1
	GeofenceTransitionExit  = 2
)

// Resource limits enforced when crossing the boundary.
const (
	// MaxNestingDepth bounds recursion when converting nested dictionaries.
	// Deeper structures are treated as unrepresentable rather than risking
	// unbounded stack growth on hostile input.
	MaxNestingDepth = 32

	// MaxPathDepth prevents stack overflow during recursive path resolution.
	MaxPathDepth = 16

	// MaxNestedWildcards limits wildcard expansion in path lookups.
	MaxNestedWildcards = 2

	// MaxArgs limits positional arguments of a single bridge call.
	MaxArgs = 16

	// MaxPayloadSize limits the encoded size of a single bridge request.
	MaxPayloadSize = 1024 * 1024
)
