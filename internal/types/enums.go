package types

import (
	"sort"
	"strings"

	"github.com/solatis/aepbridge/internal/codec"
)

/*
 * Enumeration domains and their wire contracts.
 *
 * Each domain pairs a small int type with a codec.Codec table. The table is
 * the wire contract shared with the host runtime and mirrors the constants
 * published by the native SDKs:
 *
 *   domain              case        default     canonical strings
 *   privacy status      insensitive unknown     optedin optedout unknown
 *   log level           insensitive debug       error warning debug trace
 *   auth state          insensitive ambiguous   ambiguous authenticated loggedOut
 *   visitor auth state  exact       unknown     VISITOR_AUTH_STATE_*
 *   places auth status  exact       unknown     PLACES_AUTH_STATUS_*
 *   messaging edge type exact       unknown     decisioning.* pushTracking.*
 *   offer type          insensitive unknown     MIME types (application/json ...)
 *
 * Legacy bridge constants (AEP_PRIVACY_STATUS_*, AEP_LOG_LEVEL_*) and the
 * upper-case offer type names (JSON, HTML ...) are accepted as aliases so older host packages keep working; they are never
 * emitted.
 *
 * UnmarshalText never fails: unknown text becomes the domain default. This
 * keeps JSON/YAML decoding of host payloads fail-soft like Parse.
 */

// PrivacyStatus is the global privacy opt state.
type PrivacyStatus int

const (
	PrivacyStatusUnknown PrivacyStatus = iota
	PrivacyStatusOptedIn
	PrivacyStatusOptedOut
)

var privacyStatuses = codec.New("privacy_status", PrivacyStatusUnknown, codec.Options{FoldCase: true},
	codec.Member[PrivacyStatus]{Value: PrivacyStatusOptedIn, Wire: "optedin", Aliases: []string{"AEP_PRIVACY_STATUS_OPT_IN"}},
	codec.Member[PrivacyStatus]{Value: PrivacyStatusOptedOut, Wire: "optedout", Aliases: []string{"AEP_PRIVACY_STATUS_OPT_OUT"}},
	codec.Member[PrivacyStatus]{Value: PrivacyStatusUnknown, Wire: "unknown", Aliases: []string{"AEP_PRIVACY_STATUS_UNKNOWN"}},
)

// PrivacyStatuses returns the privacy status codec.
func PrivacyStatuses() *codec.Codec[PrivacyStatus] { return privacyStatuses }

// ParsePrivacyStatus parses a wire string, defaulting to PrivacyStatusUnknown.
func ParsePrivacyStatus(s string) PrivacyStatus { return privacyStatuses.Parse(s) }

// LookupPrivacyStatus parses a wire string and reports whether it was recognized.
func LookupPrivacyStatus(s string) (PrivacyStatus, bool) { return privacyStatuses.Lookup(s) }

func (s PrivacyStatus) String() string { return privacyStatuses.String(s) }

// MarshalText implements encoding.TextMarshaler.
func (s PrivacyStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *PrivacyStatus) UnmarshalText(text []byte) error {
	*s = ParsePrivacyStatus(string(text))
	return nil
}

// LogLevel is the SDK logging verbosity, ordered from least to most verbose.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarning
	LogLevelDebug
	LogLevelTrace
)

var logLevels = codec.New("log_level", LogLevelDebug, codec.Options{FoldCase: true},
	codec.Member[LogLevel]{Value: LogLevelError, Wire: "error", Aliases: []string{"AEP_LOG_LEVEL_ERROR"}},
	codec.Member[LogLevel]{Value: LogLevelWarning, Wire: "warning", Aliases: []string{"AEP_LOG_LEVEL_WARNING"}},
	codec.Member[LogLevel]{Value: LogLevelDebug, Wire: "debug", Aliases: []string{"AEP_LOG_LEVEL_DEBUG"}},
	codec.Member[LogLevel]{Value: LogLevelTrace, Wire: "trace", Aliases: []string{"AEP_LOG_LEVEL_VERBOSE", "verbose"}},
)

// LogLevels returns the log level codec.
func LogLevels() *codec.Codec[LogLevel] { return logLevels }

// ParseLogLevel parses a wire string, defaulting to LogLevelDebug.
func ParseLogLevel(s string) LogLevel { return logLevels.Parse(s) }

// LookupLogLevel parses a wire string and reports whether it was recognized.
func LookupLogLevel(s string) (LogLevel, bool) { return logLevels.Lookup(s) }

func (l LogLevel) String() string { return logLevels.String(l) }

// Enabled reports whether a message at level msg passes a threshold of l.
func (l LogLevel) Enabled(msg LogLevel) bool { return msg <= l }

// MarshalText implements encoding.TextMarshaler.
func (l LogLevel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LogLevel) UnmarshalText(text []byte) error {
	*l = ParseLogLevel(string(text))
	return nil
}

// AuthenticatedState is the edge identity authentication state of an identity item.
type AuthenticatedState int

const (
	AuthStateAmbiguous AuthenticatedState = iota
	AuthStateAuthenticated
	AuthStateLoggedOut
)

var authStates = codec.New("auth_state", AuthStateAmbiguous, codec.Options{FoldCase: true},
	codec.Member[AuthenticatedState]{Value: AuthStateAmbiguous, Wire: "ambiguous"},
	codec.Member[AuthenticatedState]{Value: AuthStateAuthenticated, Wire: "authenticated"},
	codec.Member[AuthenticatedState]{Value: AuthStateLoggedOut, Wire: "loggedOut"},
)

// AuthStates returns the authenticated state codec.
func AuthStates() *codec.Codec[AuthenticatedState] { return authStates }

// ParseAuthenticatedState parses a wire string, defaulting to AuthStateAmbiguous.
func ParseAuthenticatedState(s string) AuthenticatedState { return authStates.Parse(s) }

// LookupAuthenticatedState parses a wire string and reports whether it was recognized.
func LookupAuthenticatedState(s string) (AuthenticatedState, bool) { return authStates.Lookup(s) }

func (a AuthenticatedState) String() string { return authStates.String(a) }

// MarshalText implements encoding.TextMarshaler.
func (a AuthenticatedState) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AuthenticatedState) UnmarshalText(text []byte) error {
	*a = ParseAuthenticatedState(string(text))
	return nil
}

// VisitorAuthState is the legacy identity-service authentication state.
type VisitorAuthState int

const (
	VisitorAuthUnknown VisitorAuthState = iota
	VisitorAuthAuthenticated
	VisitorAuthLoggedOut
)

var visitorAuthStates = codec.New("visitor_auth_state", VisitorAuthUnknown, codec.Options{},
	codec.Member[VisitorAuthState]{Value: VisitorAuthUnknown, Wire: "VISITOR_AUTH_STATE_UNKNOWN"},
	codec.Member[VisitorAuthState]{Value: VisitorAuthAuthenticated, Wire: "VISITOR_AUTH_STATE_AUTHENTICATED"},
	codec.Member[VisitorAuthState]{Value: VisitorAuthLoggedOut, Wire: "VISITOR_AUTH_STATE_LOGGED_OUT"},
)

// VisitorAuthStates returns the visitor authentication state codec.
func VisitorAuthStates() *codec.Codec[VisitorAuthState] { return visitorAuthStates }

// ParseVisitorAuthState parses a wire string, defaulting to VisitorAuthUnknown.
func ParseVisitorAuthState(s string) VisitorAuthState { return visitorAuthStates.Parse(s) }

// LookupVisitorAuthState parses a wire string and reports whether it was recognized.
func LookupVisitorAuthState(s string) (VisitorAuthState, bool) { return visitorAuthStates.Lookup(s) }

func (v VisitorAuthState) String() string { return visitorAuthStates.String(v) }

// MarshalText implements encoding.TextMarshaler.
func (v VisitorAuthState) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *VisitorAuthState) UnmarshalText(text []byte) error {
	*v = ParseVisitorAuthState(string(text))
	return nil
}

// PlacesAuthStatus is the location authorization status reported to places.
type PlacesAuthStatus int

const (
	PlacesAuthUnknown PlacesAuthStatus = iota
	PlacesAuthAlways
	PlacesAuthDenied
	PlacesAuthRestricted
	PlacesAuthWhenInUse
)

var placesAuthStatuses = codec.New("places_auth_status", PlacesAuthUnknown, codec.Options{},
	codec.Member[PlacesAuthStatus]{Value: PlacesAuthUnknown, Wire: "PLACES_AUTH_STATUS_UNKNOWN"},
	codec.Member[PlacesAuthStatus]{Value: PlacesAuthAlways, Wire: "PLACES_AUTH_STATUS_ALWAYS"},
	codec.Member[PlacesAuthStatus]{Value: PlacesAuthDenied, Wire: "PLACES_AUTH_STATUS_DENIED"},
	codec.Member[PlacesAuthStatus]{Value: PlacesAuthRestricted, Wire: "PLACES_AUTH_STATUS_RESTRICTED"},
	codec.Member[PlacesAuthStatus]{Value: PlacesAuthWhenInUse, Wire: "PLACES_AUTH_STATUS_WHEN_IN_USE"},
)

// PlacesAuthStatuses returns the places authorization status codec.
func PlacesAuthStatuses() *codec.Codec[PlacesAuthStatus] { return placesAuthStatuses }

// ParsePlacesAuthStatus parses a wire string, defaulting to PlacesAuthUnknown.
func ParsePlacesAuthStatus(s string) PlacesAuthStatus { return placesAuthStatuses.Parse(s) }

// LookupPlacesAuthStatus parses a wire string and reports whether it was recognized.
func LookupPlacesAuthStatus(s string) (PlacesAuthStatus, bool) { return placesAuthStatuses.Lookup(s) }

func (p PlacesAuthStatus) String() string { return placesAuthStatuses.String(p) }

// MarshalText implements encoding.TextMarshaler.
func (p PlacesAuthStatus) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PlacesAuthStatus) UnmarshalText(text []byte) error {
	*p = ParsePlacesAuthStatus(string(text))
	return nil
}

// MessagingEdgeEventType classifies a tracked in-app message or push
// interaction. The numeric values are the host-side integer codes.
type MessagingEdgeEventType int

const (
	MessagingEdgeEventUnknown MessagingEdgeEventType = iota - 1
	MessagingEdgeEventDismiss
	MessagingEdgeEventInteract
	MessagingEdgeEventTrigger
	MessagingEdgeEventDisplay
	MessagingEdgeEventPushApplicationOpened
	MessagingEdgeEventPushCustomAction
)

var messagingEdgeEventTypes = codec.New("messaging_edge_event_type", MessagingEdgeEventUnknown, codec.Options{},
	codec.Member[MessagingEdgeEventType]{Value: MessagingEdgeEventDismiss, Wire: "decisioning.propositionDismiss", Aliases: []string{"inapp.dismiss"}},
	codec.Member[MessagingEdgeEventType]{Value: MessagingEdgeEventInteract, Wire: "decisioning.propositionInteract", Aliases: []string{"inapp.interact"}},
	codec.Member[MessagingEdgeEventType]{Value: MessagingEdgeEventTrigger, Wire: "decisioning.propositionTrigger", Aliases: []string{"inapp.trigger"}},
	codec.Member[MessagingEdgeEventType]{Value: MessagingEdgeEventDisplay, Wire: "decisioning.propositionDisplay", Aliases: []string{"inapp.display"}},
	codec.Member[MessagingEdgeEventType]{Value: MessagingEdgeEventPushApplicationOpened, Wire: "pushTracking.applicationOpened"},
	codec.Member[MessagingEdgeEventType]{Value: MessagingEdgeEventPushCustomAction, Wire: "pushTracking.customAction"},
	codec.Member[MessagingEdgeEventType]{Value: MessagingEdgeEventUnknown, Wire: "unknown"},
)

// MessagingEdgeEventTypes returns the messaging edge event type codec.
func MessagingEdgeEventTypes() *codec.Codec[MessagingEdgeEventType] { return messagingEdgeEventTypes }

// ParseMessagingEdgeEventType parses a wire string, defaulting to MessagingEdgeEventUnknown.
func ParseMessagingEdgeEventType(s string) MessagingEdgeEventType {
	return messagingEdgeEventTypes.Parse(s)
}

// LookupMessagingEdgeEventType parses a wire string and reports whether it was recognized.
func LookupMessagingEdgeEventType(s string) (MessagingEdgeEventType, bool) {
	return messagingEdgeEventTypes.Lookup(s)
}

// MessagingEdgeEventTypeFromCode maps a host integer code (0 dismiss
// through 5 push custom action). Codes outside that range are not
// recognized.
func MessagingEdgeEventTypeFromCode(code int) (MessagingEdgeEventType, bool) {
	if code < int(MessagingEdgeEventDismiss) || code > int(MessagingEdgeEventPushCustomAction) {
		return MessagingEdgeEventUnknown, false
	}
	return MessagingEdgeEventType(code), true
}

func (m MessagingEdgeEventType) String() string { return messagingEdgeEventTypes.String(m) }

// MarshalText implements encoding.TextMarshaler.
func (m MessagingEdgeEventType) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MessagingEdgeEventType) UnmarshalText(text []byte) error {
	*m = ParseMessagingEdgeEventType(string(text))
	return nil
}

// OfferType is the content format of an optimize offer.
type OfferType int

const (
	OfferTypeUnknown OfferType = iota
	OfferTypeJSON
	OfferTypeText
	OfferTypeHTML
	OfferTypeImage
)

var offerTypes = codec.New("offer_type", OfferTypeUnknown, codec.Options{FoldCase: true},
	codec.Member[OfferType]{Value: OfferTypeUnknown, Wire: "unknown"},
	codec.Member[OfferType]{Value: OfferTypeJSON, Wire: "application/json", Aliases: []string{"JSON"}},
	codec.Member[OfferType]{Value: OfferTypeText, Wire: "text/plain", Aliases: []string{"TEXT"}},
	codec.Member[OfferType]{Value: OfferTypeHTML, Wire: "text/html", Aliases: []string{"HTML"}},
	codec.Member[OfferType]{Value: OfferTypeImage, Wire: "image/*", Aliases: []string{"IMAGE"}},
)

// OfferTypes returns the offer type codec.
func OfferTypes() *codec.Codec[OfferType] { return offerTypes }

// ParseOfferType parses a wire string, defaulting to OfferTypeUnknown.
func ParseOfferType(s string) OfferType {
	o, _ := LookupOfferType(s)
	return o
}

// LookupOfferType parses a wire string and reports whether it was
// recognized. Any image/ subtype is an image offer.
func LookupOfferType(s string) (OfferType, bool) {
	if o, ok := offerTypes.Lookup(s); ok {
		return o, true
	}
	if strings.HasPrefix(strings.ToLower(s), "image/") {
		return OfferTypeImage, true
	}
	return OfferTypeUnknown, false
}

func (o OfferType) String() string { return offerTypes.String(o) }

// MarshalText implements encoding.TextMarshaler.
func (o OfferType) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OfferType) UnmarshalText(text []byte) error {
	*o = ParseOfferType(string(text))
	return nil
}

// EnumDomain is the type-erased view of one codec, for tooling that
// handles every domain uniformly (CLI, metrics labels).
type EnumDomain interface {
	Domain() string
	// Normalize parses s and re-encodes it, reporting whether s was recognized.
	Normalize(s string) (canonical string, recognized bool)
	// Wires returns the canonical wire strings in declaration order.
	Wires() []string
}

type domainView[E comparable] struct {
	c *codec.Codec[E]
}

func (d domainView[E]) Domain() string { return d.c.Domain() }

func (d domainView[E]) Normalize(s string) (string, bool) {
	e, ok := d.c.Lookup(s)
	return d.c.String(e), ok
}

func (d domainView[E]) Wires() []string {
	members := d.c.Members()
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = d.c.String(m)
	}
	return out
}

var enumDomains = map[string]EnumDomain{
	privacyStatuses.Domain():         domainView[PrivacyStatus]{privacyStatuses},
	logLevels.Domain():               domainView[LogLevel]{logLevels},
	authStates.Domain():              domainView[AuthenticatedState]{authStates},
	visitorAuthStates.Domain():       domainView[VisitorAuthState]{visitorAuthStates},
	placesAuthStatuses.Domain():      domainView[PlacesAuthStatus]{placesAuthStatuses},
	messagingEdgeEventTypes.Domain(): domainView[MessagingEdgeEventType]{messagingEdgeEventTypes},
	offerTypes.Domain():              domainView[OfferType]{offerTypes},
}

// LookupEnumDomain returns the domain registered under name.
func LookupEnumDomain(name string) (EnumDomain, bool) {
	d, ok := enumDomains[name]
	return d, ok
}

// EnumDomainNames returns all registered domain names, sorted.
func EnumDomainNames() []string {
	names := make([]string, 0, len(enumDomains))
	for name := range enumDomains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
