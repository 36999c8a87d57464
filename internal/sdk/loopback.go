package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solatis/aepbridge/internal/types"
)

/*
 * In-memory stand-in for the native SDKs.
 *
 * Loopback keeps just enough state to answer every getter consistently with
 * the setters that preceded it: configuration, privacy, identities,
 * consents, places, messages and propositions. Remote content (in-app
 * messages, surface propositions, offer decisions) is seeded through
 * options and becomes visible once the matching refresh or update call
 * fetches it. Dispatched events are echoed through an optional
 * Responder. Nothing is sent anywhere and nothing survives a restart.
 *
 * All methods are safe for concurrent use; a single mutex guards state.
 * Recorded history (events, tracked calls, message interactions) is capped at HistoryLimit
 * entries, oldest dropped first.
 */

// Extension versions reported by Loopback.
const (
	CoreVersion         = "5.3.1"
	IdentityVersion     = "3.0.1"
	EdgeIdentityVersion = "5.0.0"
	EdgeVersion         = "5.0.2"
	ConsentVersion      = "5.0.0"
	PlacesVersion       = "3.0.1"
	MessagingVersion    = "5.2.0"
	OptimizeVersion     = "3.0.2"
)

// HistoryLimit caps recorded events and tracked calls.
const HistoryLimit = 1000

// NamespaceECID is the identity namespace of the Experience Cloud ID.
const NamespaceECID = "ECID"

// Responder produces the response to a dispatched event, or nil for none.
type Responder func(request *types.Event) *types.Event

// EchoResponder answers every event with a copy of its data.
func EchoResponder(request *types.Event) *types.Event {
	data := make(map[string]any, len(request.Data))
	for k, v := range request.Data {
		data[k] = v
	}
	return &types.Event{
		ID:        types.NewEventID(),
		Name:      request.Name + " response",
		Type:      request.Type,
		Source:    "com.adobe.eventSource.responseContent",
		Data:      data,
		Timestamp: time.Now(),
	}
}

// Tracked is one trackAction, trackState or collectPii call.
type Tracked struct {
	Kind string // "action", "state" or "pii"
	Name string
	Data map[string]string
}

// LoopbackOption configures a Loopback.
type LoopbackOption func(*Loopback)

// WithResponder sets the responder for DispatchEventWithResponse.
func WithResponder(r Responder) LoopbackOption {
	return func(l *Loopback) { l.responder = r }
}

// WithPointsOfInterest seeds the places catalogue.
func WithPointsOfInterest(pois ...types.POI) LoopbackOption {
	return func(l *Loopback) { l.pois = append(l.pois, pois...) }
}

// WithInAppMessages seeds the messages RefreshInAppMessages fetches.
func WithInAppMessages(msgs ...types.Message) LoopbackOption {
	return func(l *Loopback) { l.remoteMessages = append(l.remoteMessages, msgs...) }
}

// WithSurfacePropositions seeds the propositions served for surface uri.
func WithSurfacePropositions(uri string, props ...types.MessagingProposition) LoopbackOption {
	return func(l *Loopback) { l.remoteSurfaces[uri] = append(l.remoteSurfaces[uri], props...) }
}

// WithDecisions seeds the offer decisions served per proposition scope.
func WithDecisions(props ...types.OptimizeProposition) LoopbackOption {
	return func(l *Loopback) {
		for _, p := range props {
			l.decisions[p.Scope] = p
		}
	}
}

// Loopback implements every extension in memory.
type Loopback struct {
	mu sync.Mutex

	responder Responder

	appID          string
	config         map[string]any
	logLevel       types.LogLevel
	privacy        types.PrivacyStatus
	advertisingID  string
	pushToken      string
	ecid           string
	visitorIDs     map[string]*types.VisitorID
	identities     *types.IdentityMap
	consents       map[string]any
	placesAuth     types.PlacesAuthStatus
	pois           []types.POI
	lastLocation   *types.Location
	withinFences   map[string]bool
	events         []*types.Event
	tracked        []Tracked
	sentExperience []*types.ExperienceEvent

	remoteMessages []types.Message
	messages       map[string]*types.Message
	latestMessage  *types.Message
	interactions   []MessageInteraction
	remoteSurfaces map[string][]types.MessagingProposition
	surfaceCache   map[string][]types.MessagingProposition
	decisions      map[string]types.OptimizeProposition
	decisionCache  map[string]types.OptimizeProposition
}

// NewLoopback returns a Loopback with default SDK state.
func NewLoopback(opts ...LoopbackOption) *Loopback {
	l := &Loopback{
		responder:    EchoResponder,
		config:       make(map[string]any),
		logLevel:     types.LogLevelError,
		privacy:      types.PrivacyStatusUnknown,
		visitorIDs:   make(map[string]*types.VisitorID),
		consents:     make(map[string]any),
		withinFences: make(map[string]bool),

		messages:       make(map[string]*types.Message),
		remoteSurfaces: make(map[string][]types.MessagingProposition),
		surfaceCache:   make(map[string][]types.MessagingProposition),
		decisions:      make(map[string]types.OptimizeProposition),
		decisionCache:  make(map[string]types.OptimizeProposition),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.resetIdentitiesLocked()
	return l
}

// Runtime exposes l as a full Runtime.
func (l *Loopback) Runtime() Runtime {
	return Runtime{
		Core:         loopbackCore{l},
		Identity:     loopbackIdentity{l},
		EdgeIdentity: loopbackEdgeIdentity{l},
		Edge:         loopbackEdge{l},
		Consent:      loopbackConsent{l},
		Places:       loopbackPlaces{l},
		Messaging:    loopbackMessaging{l},
		Optimize:     loopbackOptimize{l},
	}
}

// Events returns the dispatched events, oldest first.
func (l *Loopback) Events() []*types.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*types.Event, len(l.events))
	copy(out, l.events)
	return out
}

// TrackedCalls returns recorded track and PII calls, oldest first.
func (l *Loopback) TrackedCalls() []Tracked {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Tracked, len(l.tracked))
	copy(out, l.tracked)
	return out
}

// SentExperienceEvents returns the experience events sent through Edge.
func (l *Loopback) SentExperienceEvents() []*types.ExperienceEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*types.ExperienceEvent, len(l.sentExperience))
	copy(out, l.sentExperience)
	return out
}

// Configuration returns a copy of the effective configuration.
func (l *Loopback) Configuration() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]any, len(l.config)+1)
	for k, v := range l.config {
		out[k] = v
	}
	if l.appID != "" {
		out["appId"] = l.appID
	}
	return out
}

func (l *Loopback) resetIdentitiesLocked() {
	l.ecid = newECID()
	l.visitorIDs = make(map[string]*types.VisitorID)
	l.identities = types.NewIdentityMap()
	l.identities.AddItem(types.IdentityItem{ID: l.ecid, AuthenticatedState: types.AuthStateAmbiguous}, NamespaceECID)
	l.advertisingID = ""
	l.pushToken = ""
}

func (l *Loopback) recordEventLocked(e *types.Event) {
	l.events = appendCapped(l.events, e)
}

func appendCapped[T any](list []T, item T) []T {
	list = append(list, item)
	if len(list) > HistoryLimit {
		list = append(list[:0:0], list[len(list)-HistoryLimit:]...)
	}
	return list
}

// newECID derives a 38-digit Experience Cloud ID from a random UUID.
func newECID() string {
	u := uuid.New()
	var b strings.Builder
	for _, c := range u.String() {
		if c == '-' {
			continue
		}
		switch {
		case c >= '0' && c <= '9':
			b.WriteRune(c)
		default:
			b.WriteByte(byte('0' + (c-'a')%10))
		}
	}
	for b.Len() < 38 {
		b.WriteByte('0' + byte(b.Len()%10))
	}
	return b.String()[:38]
}

type loopbackCore struct{ l *Loopback }

func (c loopbackCore) ExtensionVersion(context.Context) (string, error) { return CoreVersion, nil }

func (c loopbackCore) ConfigureWithAppID(_ context.Context, appID string) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	c.l.appID = appID
	return nil
}

func (c loopbackCore) UpdateConfiguration(_ context.Context, config map[string]any) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	for k, v := range config {
		c.l.config[k] = v
	}
	return nil
}

func (c loopbackCore) ClearUpdatedConfiguration(context.Context) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	c.l.config = make(map[string]any)
	return nil
}

func (c loopbackCore) SetLogLevel(_ context.Context, level types.LogLevel) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	c.l.logLevel = level
	return nil
}

func (c loopbackCore) LogLevel(context.Context) (types.LogLevel, error) {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	return c.l.logLevel, nil
}

func (c loopbackCore) SetPrivacyStatus(_ context.Context, status types.PrivacyStatus) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	c.l.privacy = status
	if status == types.PrivacyStatusOptedOut {
		c.l.resetIdentitiesLocked()
	}
	return nil
}

func (c loopbackCore) PrivacyStatus(context.Context) (types.PrivacyStatus, error) {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	return c.l.privacy, nil
}

// SDKIdentities returns the identities known to the SDK as a JSON document,
// the shape the native getSdkIdentities call produces.
func (c loopbackCore) SDKIdentities(context.Context) (string, error) {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()

	type userID struct {
		Namespace string `json:"namespace"`
		Value     string `json:"value"`
		Type      string `json:"type"`
	}
	ids := []userID{{Namespace: "4", Value: c.l.ecid, Type: "namespaceId"}}
	for _, t := range sortedKeys(c.l.visitorIDs) {
		ids = append(ids, userID{Namespace: t, Value: c.l.visitorIDs[t].ID, Type: "integrationCode"})
	}
	if c.l.advertisingID != "" {
		ids = append(ids, userID{Namespace: "DSID_20914", Value: c.l.advertisingID, Type: "integrationCode"})
	}
	if c.l.pushToken != "" {
		ids = append(ids, userID{Namespace: "20919", Value: c.l.pushToken, Type: "integrationCode"})
	}

	doc := map[string]any{
		"companyContexts": []map[string]string{{"namespace": "imsOrgID", "value": c.l.appID}},
		"users":           []map[string]any{{"userIDs": ids}},
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c loopbackCore) DispatchEvent(_ context.Context, event *types.Event) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	c.l.recordEventLocked(stamp(event))
	return nil
}

func (c loopbackCore) DispatchEventWithResponse(ctx context.Context, event *types.Event, timeout time.Duration) (*types.Event, error) {
	c.l.mu.Lock()
	c.l.recordEventLocked(stamp(event))
	responder := c.l.responder
	c.l.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := make(chan *types.Event, 1)
	go func() {
		if responder == nil {
			return
		}
		if resp := responder(event); resp != nil {
			result <- resp
		}
	}()

	select {
	case resp := <-result:
		return resp, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w after %s", types.ErrTimeout, timeout)
	}
}

func (c loopbackCore) TrackAction(_ context.Context, action string, data map[string]string) error {
	return c.track("action", action, data)
}

func (c loopbackCore) TrackState(_ context.Context, state string, data map[string]string) error {
	return c.track("state", state, data)
}

func (c loopbackCore) CollectPII(_ context.Context, data map[string]string) error {
	return c.track("pii", "", data)
}

func (c loopbackCore) track(kind, name string, data map[string]string) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	if kind != "pii" && c.l.privacy == types.PrivacyStatusOptedOut {
		return nil
	}
	c.l.tracked = appendCapped(c.l.tracked, Tracked{Kind: kind, Name: name, Data: data})
	return nil
}

func (c loopbackCore) SetAdvertisingIdentifier(_ context.Context, id string) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	c.l.advertisingID = id
	return nil
}

func (c loopbackCore) SetPushIdentifier(_ context.Context, token string) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	c.l.pushToken = token
	return nil
}

func (c loopbackCore) ResetIdentities(context.Context) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	c.l.resetIdentitiesLocked()
	return nil
}

func stamp(e *types.Event) *types.Event {
	c := *e
	if c.ID == "" {
		c.ID = types.NewEventID()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = types.EventIDTime(c.ID)
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}
	return &c
}

type loopbackIdentity struct{ l *Loopback }

func (i loopbackIdentity) ExtensionVersion(context.Context) (string, error) {
	return IdentityVersion, nil
}

func (i loopbackIdentity) SyncIdentifier(_ context.Context, idType, identifier string, state types.VisitorAuthState) error {
	i.l.mu.Lock()
	defer i.l.mu.Unlock()
	i.syncLocked(idType, identifier, state)
	return nil
}

func (i loopbackIdentity) SyncIdentifiers(_ context.Context, ids map[string]string, state types.VisitorAuthState) error {
	i.l.mu.Lock()
	defer i.l.mu.Unlock()
	for idType, identifier := range ids {
		i.syncLocked(idType, identifier, state)
	}
	return nil
}

func (i loopbackIdentity) syncLocked(idType, identifier string, state types.VisitorAuthState) {
	if idType == "" {
		return
	}
	if identifier == "" {
		delete(i.l.visitorIDs, idType)
		return
	}
	i.l.visitorIDs[idType] = &types.VisitorID{
		IDOrigin:  "d_cid_ic",
		IDType:    idType,
		ID:        identifier,
		AuthState: state,
	}
}

func (i loopbackIdentity) Identifiers(context.Context) ([]*types.VisitorID, error) {
	i.l.mu.Lock()
	defer i.l.mu.Unlock()
	out := make([]*types.VisitorID, 0, len(i.l.visitorIDs))
	for _, t := range sortedKeys(i.l.visitorIDs) {
		v := *i.l.visitorIDs[t]
		out = append(out, &v)
	}
	return out, nil
}

func (i loopbackIdentity) ExperienceCloudID(context.Context) (string, error) {
	i.l.mu.Lock()
	defer i.l.mu.Unlock()
	return i.l.ecid, nil
}

func (i loopbackIdentity) AppendVisitorInfoForURL(ctx context.Context, baseURL string) (string, error) {
	vars, err := i.URLVariables(ctx)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidArgument, err)
	}
	if u.RawQuery == "" {
		u.RawQuery = vars
	} else {
		u.RawQuery += "&" + vars
	}
	return u.String(), nil
}

func (i loopbackIdentity) URLVariables(context.Context) (string, error) {
	i.l.mu.Lock()
	defer i.l.mu.Unlock()
	mc := fmt.Sprintf("TS=%d|MCMID=%s|MCORGID=%s", time.Now().Unix(), i.l.ecid, i.l.appID)
	return url.Values{"adobe_mc": {mc}}.Encode(), nil
}

type loopbackEdgeIdentity struct{ l *Loopback }

func (e loopbackEdgeIdentity) ExtensionVersion(context.Context) (string, error) {
	return EdgeIdentityVersion, nil
}

func (e loopbackEdgeIdentity) ExperienceCloudID(context.Context) (string, error) {
	e.l.mu.Lock()
	defer e.l.mu.Unlock()
	return e.l.ecid, nil
}

func (e loopbackEdgeIdentity) Identities(context.Context) (*types.IdentityMap, error) {
	e.l.mu.Lock()
	defer e.l.mu.Unlock()
	return e.l.identities.Clone(), nil
}

// UpdateIdentities merges identities in. Items in the ECID namespace are
// ignored; the ECID is owned by the SDK.
func (e loopbackEdgeIdentity) UpdateIdentities(_ context.Context, identities *types.IdentityMap) error {
	if identities == nil {
		return nil
	}
	e.l.mu.Lock()
	defer e.l.mu.Unlock()
	for _, ns := range identities.Namespaces() {
		if strings.EqualFold(ns, NamespaceECID) {
			continue
		}
		for _, item := range identities.Items(ns) {
			e.l.identities.AddItem(item, ns)
		}
	}
	return nil
}

func (e loopbackEdgeIdentity) RemoveIdentity(_ context.Context, item types.IdentityItem, namespace string) error {
	if strings.EqualFold(namespace, NamespaceECID) {
		return nil
	}
	e.l.mu.Lock()
	defer e.l.mu.Unlock()
	e.l.identities.RemoveItem(item, namespace)
	return nil
}

type loopbackEdge struct{ l *Loopback }

func (e loopbackEdge) ExtensionVersion(context.Context) (string, error) { return EdgeVersion, nil }

// SendEvent records the event and returns a locationHint handle and a
// state:store handle, the pair a first edge request usually yields.
func (e loopbackEdge) SendEvent(_ context.Context, event *types.ExperienceEvent) ([]*types.EdgeEventHandle, error) {
	e.l.mu.Lock()
	defer e.l.mu.Unlock()

	e.l.sentExperience = appendCapped(e.l.sentExperience, event)
	if e.l.privacy == types.PrivacyStatusOptedOut {
		return []*types.EdgeEventHandle{}, nil
	}
	return []*types.EdgeEventHandle{
		{
			Type:    "locationHint:result",
			Payload: []map[string]any{{"scope": "EdgeNetwork", "hint": "or2", "ttlSeconds": 1800}},
		},
		{
			Type:    "state:store",
			Payload: []map[string]any{{"key": "kndctr_identity", "value": e.l.ecid, "maxAge": 34128000}},
		},
	}, nil
}

type loopbackConsent struct{ l *Loopback }

func (c loopbackConsent) ExtensionVersion(context.Context) (string, error) {
	return ConsentVersion, nil
}

func (c loopbackConsent) Consents(context.Context) (map[string]any, error) {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	return deepCopy(c.l.consents), nil
}

// UpdateConsents merges consents in, one level deep under "consents".
func (c loopbackConsent) UpdateConsents(_ context.Context, consents map[string]any) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	for k, v := range deepCopy(consents) {
		existing, okOld := c.l.consents[k].(map[string]any)
		incoming, okNew := v.(map[string]any)
		if okOld && okNew {
			for ik, iv := range incoming {
				existing[ik] = iv
			}
			continue
		}
		c.l.consents[k] = v
	}
	return nil
}

func deepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepCopy(nested)
			continue
		}
		out[k] = v
	}
	return out
}

type loopbackPlaces struct{ l *Loopback }

func (p loopbackPlaces) ExtensionVersion(context.Context) (string, error) { return PlacesVersion, nil }

func (p loopbackPlaces) SetAuthorizationStatus(_ context.Context, status types.PlacesAuthStatus) error {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()
	p.l.placesAuth = status
	return nil
}

// NearbyPointsOfInterest returns up to limit catalogue entries ordered by
// distance from location and marks which ones contain it.
func (p loopbackPlaces) NearbyPointsOfInterest(_ context.Context, location types.Location, limit int) ([]*types.POI, error) {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()

	loc := location
	p.l.lastLocation = &loc

	type ranked struct {
		poi  types.POI
		dist float64
	}
	all := make([]ranked, 0, len(p.l.pois))
	for _, poi := range p.l.pois {
		d := distanceMeters(location.Latitude, location.Longitude, poi.Latitude, poi.Longitude)
		poi.UserIsWithin = d <= poi.Radius
		all = append(all, ranked{poi: poi, dist: d})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].dist < all[j].dist })

	if limit < 0 {
		limit = 0
	}
	if limit < len(all) {
		all = all[:limit]
	}
	out := make([]*types.POI, len(all))
	for i := range all {
		poi := all[i].poi
		out[i] = &poi
	}
	return out, nil
}

func (p loopbackPlaces) CurrentPointsOfInterest(context.Context) ([]*types.POI, error) {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()
	out := make([]*types.POI, 0)
	for _, poi := range p.l.pois {
		if p.l.withinFences[poi.Identifier] {
			c := poi
			c.UserIsWithin = true
			out = append(out, &c)
		}
	}
	return out, nil
}

func (p loopbackPlaces) LastKnownLocation(context.Context) (*types.Location, error) {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()
	if p.l.lastLocation == nil {
		return nil, nil
	}
	loc := *p.l.lastLocation
	return &loc, nil
}

func (p loopbackPlaces) ProcessGeofence(_ context.Context, fence types.Geofence, transition int) error {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()
	switch transition {
	case types.GeofenceTransitionEnter:
		p.l.withinFences[fence.Identifier] = true
	case types.GeofenceTransitionExit:
		delete(p.l.withinFences, fence.Identifier)
	default:
		return fmt.Errorf("%w: transition type %d", types.ErrInvalidArgument, transition)
	}
	return nil
}

func (p loopbackPlaces) Clear(context.Context) error {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()
	p.l.lastLocation = nil
	p.l.withinFences = make(map[string]bool)
	return nil
}

// distanceMeters is the haversine distance between two coordinates.
func distanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(a))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
