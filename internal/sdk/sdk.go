// Package sdk declares the native SDK surface the bridge drives.
//
// The native SDKs are opaque collaborators: the bridge converts host
// arguments into the shapes declared here and hands them over. Each
// extension gets its own interface; Runtime bundles one implementation of
// each. Loopback is an in-memory implementation for local serving and tests.
package sdk

import (
	"context"
	"time"

	"github.com/solatis/aepbridge/internal/types"
)

// Core is the core telemetry extension.
type Core interface {
	ExtensionVersion(ctx context.Context) (string, error)
	ConfigureWithAppID(ctx context.Context, appID string) error
	UpdateConfiguration(ctx context.Context, config map[string]any) error
	ClearUpdatedConfiguration(ctx context.Context) error
	SetLogLevel(ctx context.Context, level types.LogLevel) error
	LogLevel(ctx context.Context) (types.LogLevel, error)
	SetPrivacyStatus(ctx context.Context, status types.PrivacyStatus) error
	PrivacyStatus(ctx context.Context) (types.PrivacyStatus, error)
	SDKIdentities(ctx context.Context) (string, error)
	DispatchEvent(ctx context.Context, event *types.Event) error
	// DispatchEventWithResponse waits up to timeout for a response event.
	// Returns ErrTimeout when none arrives.
	DispatchEventWithResponse(ctx context.Context, event *types.Event, timeout time.Duration) (*types.Event, error)
	TrackAction(ctx context.Context, action string, contextData map[string]string) error
	TrackState(ctx context.Context, state string, contextData map[string]string) error
	CollectPII(ctx context.Context, data map[string]string) error
	SetAdvertisingIdentifier(ctx context.Context, id string) error
	SetPushIdentifier(ctx context.Context, token string) error
	ResetIdentities(ctx context.Context) error
}

// Identity is the legacy identity-service extension.
type Identity interface {
	ExtensionVersion(ctx context.Context) (string, error)
	SyncIdentifier(ctx context.Context, idType, identifier string, state types.VisitorAuthState) error
	SyncIdentifiers(ctx context.Context, ids map[string]string, state types.VisitorAuthState) error
	Identifiers(ctx context.Context) ([]*types.VisitorID, error)
	ExperienceCloudID(ctx context.Context) (string, error)
	AppendVisitorInfoForURL(ctx context.Context, baseURL string) (string, error)
	URLVariables(ctx context.Context) (string, error)
}

// EdgeIdentity is the edge identity extension.
type EdgeIdentity interface {
	ExtensionVersion(ctx context.Context) (string, error)
	ExperienceCloudID(ctx context.Context) (string, error)
	Identities(ctx context.Context) (*types.IdentityMap, error)
	UpdateIdentities(ctx context.Context, identities *types.IdentityMap) error
	RemoveIdentity(ctx context.Context, item types.IdentityItem, namespace string) error
}

// Edge is the edge network extension.
type Edge interface {
	ExtensionVersion(ctx context.Context) (string, error)
	SendEvent(ctx context.Context, event *types.ExperienceEvent) ([]*types.EdgeEventHandle, error)
}

// Consent is the edge consent extension.
type Consent interface {
	ExtensionVersion(ctx context.Context) (string, error)
	Consents(ctx context.Context) (map[string]any, error)
	UpdateConsents(ctx context.Context, consents map[string]any) error
}

// Places is the places extension.
type Places interface {
	ExtensionVersion(ctx context.Context) (string, error)
	SetAuthorizationStatus(ctx context.Context, status types.PlacesAuthStatus) error
	NearbyPointsOfInterest(ctx context.Context, location types.Location, limit int) ([]*types.POI, error)
	CurrentPointsOfInterest(ctx context.Context) ([]*types.POI, error)
	LastKnownLocation(ctx context.Context) (*types.Location, error)
	ProcessGeofence(ctx context.Context, fence types.Geofence, transition int) error
	Clear(ctx context.Context) error
}

// Messaging is the in-app messaging and code-based experience extension.
// Surfaces are full surface URIs. Message operations on ids the
// extension does not hold are no-ops.
type Messaging interface {
	ExtensionVersion(ctx context.Context) (string, error)
	RefreshInAppMessages(ctx context.Context) error
	CachedMessages(ctx context.Context) ([]*types.Message, error)
	// LatestMessage returns the most recently shown message, or nil.
	LatestMessage(ctx context.Context) (*types.Message, error)
	PropositionsForSurfaces(ctx context.Context, surfaces []string) (map[string][]*types.MessagingProposition, error)
	UpdatePropositionsForSurfaces(ctx context.Context, surfaces []string) error
	ClearMessage(ctx context.Context, id string) error
	DismissMessage(ctx context.Context, id string, suppressAutoTrack bool) error
	SetAutoTrack(ctx context.Context, id string, autoTrack bool) error
	ShowMessage(ctx context.Context, id string) error
	TrackMessage(ctx context.Context, id, interaction string, eventType types.MessagingEdgeEventType) error
}

// Optimize is the offer decisioning extension.
type Optimize interface {
	ExtensionVersion(ctx context.Context) (string, error)
	ClearCachedPropositions(ctx context.Context) error
	UpdatePropositions(ctx context.Context, scopes []types.DecisionScope, xdm, data map[string]any) error
	// Propositions returns the cached propositions of scopes, keyed by
	// scope name. Scopes without a cached proposition are absent.
	Propositions(ctx context.Context, scopes []types.DecisionScope) (map[string]*types.OptimizeProposition, error)
	OffersDisplayed(ctx context.Context, proposition *types.OptimizeProposition, offerIDs ...string) error
	OfferTapped(ctx context.Context, proposition *types.OptimizeProposition, offerID string) error
	// MultipleOffersDisplayed reports offers by id across all cached
	// propositions. Unknown ids are ignored.
	MultipleOffersDisplayed(ctx context.Context, offerIDs []string) error
	DisplayInteractionXDM(ctx context.Context, proposition *types.OptimizeProposition, offerID string) (map[string]any, error)
	TapInteractionXDM(ctx context.Context, proposition *types.OptimizeProposition, offerID string) (map[string]any, error)
	ReferenceXDM(ctx context.Context, proposition *types.OptimizeProposition) (map[string]any, error)
}

// Runtime bundles one implementation of each extension.
// Nil members are reported as unavailable by the bridge service.
type Runtime struct {
	Core         Core
	Identity     Identity
	EdgeIdentity EdgeIdentity
	Edge         Edge
	Consent      Consent
	Places       Places
	Messaging    Messaging
	Optimize     Optimize
}
