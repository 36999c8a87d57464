package types

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPrivacyStatus_Wire(t *testing.T) {
	tests := []struct {
		status PrivacyStatus
		want   string
	}{
		{PrivacyStatusOptedIn, "optedin"},
		{PrivacyStatusOptedOut, "optedout"},
		{PrivacyStatusUnknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestParsePrivacyStatus(t *testing.T) {
	tests := []struct {
		input string
		want  PrivacyStatus
	}{
		{"optedin", PrivacyStatusOptedIn},
		{"OPTEDIN", PrivacyStatusOptedIn},
		{"OptedOut", PrivacyStatusOptedOut},
		{"unknown", PrivacyStatusUnknown},
		{"AEP_PRIVACY_STATUS_OPT_IN", PrivacyStatusOptedIn},
		{"AEP_PRIVACY_STATUS_OPT_OUT", PrivacyStatusOptedOut},
		{"bogus", PrivacyStatusUnknown},
		{"", PrivacyStatusUnknown},
	}
	for _, tt := range tests {
		if got := ParsePrivacyStatus(tt.input); got != tt.want {
			t.Errorf("ParsePrivacyStatus(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input  string
		want   LogLevel
		wantOK bool
	}{
		{"trace", LogLevelTrace, true},
		{"DEBUG", LogLevelDebug, true},
		{"Warning", LogLevelWarning, true},
		{"error", LogLevelError, true},
		{"AEP_LOG_LEVEL_VERBOSE", LogLevelTrace, true},
		{"verbose", LogLevelTrace, true},
		{"fatal", LogLevelDebug, false},
	}
	for _, tt := range tests {
		got, ok := LookupLogLevel(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("LookupLogLevel(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}

	if LogLevelTrace.String() != "trace" {
		t.Errorf("LogLevelTrace.String() = %q, want trace", LogLevelTrace.String())
	}
}

func TestLogLevel_Enabled(t *testing.T) {
	if !LogLevelDebug.Enabled(LogLevelError) {
		t.Error("debug threshold should pass error messages")
	}
	if LogLevelWarning.Enabled(LogLevelTrace) {
		t.Error("warning threshold should block trace messages")
	}
}

func TestParseAuthenticatedState(t *testing.T) {
	tests := []struct {
		input string
		want  AuthenticatedState
	}{
		{"authenticated", AuthStateAuthenticated},
		{"loggedOut", AuthStateLoggedOut},
		{"loggedout", AuthStateLoggedOut},
		{"ambiguous", AuthStateAmbiguous},
		{"signedIn", AuthStateAmbiguous},
	}
	for _, tt := range tests {
		if got := ParseAuthenticatedState(tt.input); got != tt.want {
			t.Errorf("ParseAuthenticatedState(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseVisitorAuthState_CaseExact(t *testing.T) {
	if got := ParseVisitorAuthState("VISITOR_AUTH_STATE_AUTHENTICATED"); got != VisitorAuthAuthenticated {
		t.Errorf("exact constant parsed to %v", got)
	}
	if got := ParseVisitorAuthState("visitor_auth_state_authenticated"); got != VisitorAuthUnknown {
		t.Errorf("lower-case constant parsed to %v, want unknown (case-exact domain)", got)
	}
}

func TestParsePlacesAuthStatus(t *testing.T) {
	if got := ParsePlacesAuthStatus("PLACES_AUTH_STATUS_WHEN_IN_USE"); got != PlacesAuthWhenInUse {
		t.Errorf("got %v, want PlacesAuthWhenInUse", got)
	}
	if got := ParsePlacesAuthStatus("always"); got != PlacesAuthUnknown {
		t.Errorf("got %v, want PlacesAuthUnknown", got)
	}
}

func TestEnums_TextMarshaling(t *testing.T) {
	type payload struct {
		Status PrivacyStatus      `json:"status"`
		Level  LogLevel           `json:"level"`
		Auth   AuthenticatedState `json:"auth"`
	}

	in := payload{Status: PrivacyStatusOptedOut, Level: LogLevelTrace, Auth: AuthStateLoggedOut}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"status":"optedout","level":"trace","auth":"loggedOut"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var out payload
	if err := json.Unmarshal([]byte(`{"status":"nope","level":"nope","auth":"nope"}`), &out); err != nil {
		t.Fatalf("Unmarshal() error = %v, want fail-soft", err)
	}
	if out.Status != PrivacyStatusUnknown || out.Level != LogLevelDebug || out.Auth != AuthStateAmbiguous {
		t.Errorf("Unmarshal() = %+v, want domain defaults", out)
	}
}

func TestEnumDomains(t *testing.T) {
	names := EnumDomainNames()
	want := []string{"auth_state", "log_level", "messaging_edge_event_type", "offer_type", "places_auth_status", "privacy_status", "visitor_auth_state"}
	if len(names) != len(want) {
		t.Fatalf("EnumDomainNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("EnumDomainNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	d, ok := LookupEnumDomain("privacy_status")
	if !ok {
		t.Fatal("privacy_status domain not registered")
	}
	canonical, recognized := d.Normalize("AEP_PRIVACY_STATUS_OPT_OUT")
	if canonical != "optedout" || !recognized {
		t.Errorf("Normalize() = (%q, %v), want (optedout, true)", canonical, recognized)
	}
	canonical, recognized = d.Normalize("bogus")
	if canonical != "unknown" || recognized {
		t.Errorf("Normalize(bogus) = (%q, %v), want (unknown, false)", canonical, recognized)
	}
	if wires := d.Wires(); len(wires) != 3 || wires[0] != "optedin" {
		t.Errorf("Wires() = %v", wires)
	}

	if _, ok := LookupEnumDomain("colors"); ok {
		t.Error("LookupEnumDomain(colors) reported a domain")
	}
}

// Property-based test: every domain round-trips its own wire strings and
// resolves anything else to the default.
func TestEnums_PropertyWireContract(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("round trip and default on miss for all domains", prop.ForAll(
		func(s string) bool {
			for _, name := range EnumDomainNames() {
				d, _ := LookupEnumDomain(name)
				for _, w := range d.Wires() {
					if c, ok := d.Normalize(w); !ok || c != w {
						return false
					}
				}
				canonical, recognized := d.Normalize(s)
				if recognized {
					continue
				}
				// Miss must encode to the default member, which is a valid wire string.
				again, ok := d.Normalize(canonical)
				if !ok || again != canonical {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("privacy status default on miss", prop.ForAll(
		func(s string) bool {
			got, ok := LookupPrivacyStatus(s)
			return ok || got == PrivacyStatusUnknown
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestMessagingEdgeEventTypeFromCode(t *testing.T) {
	tests := []struct {
		code   int
		want   MessagingEdgeEventType
		wire   string
		wantOK bool
	}{
		{0, MessagingEdgeEventDismiss, "decisioning.propositionDismiss", true},
		{1, MessagingEdgeEventInteract, "decisioning.propositionInteract", true},
		{2, MessagingEdgeEventTrigger, "decisioning.propositionTrigger", true},
		{3, MessagingEdgeEventDisplay, "decisioning.propositionDisplay", true},
		{4, MessagingEdgeEventPushApplicationOpened, "pushTracking.applicationOpened", true},
		{5, MessagingEdgeEventPushCustomAction, "pushTracking.customAction", true},
		{6, MessagingEdgeEventUnknown, "unknown", false},
		{-1, MessagingEdgeEventUnknown, "unknown", false},
	}
	for _, tt := range tests {
		got, ok := MessagingEdgeEventTypeFromCode(tt.code)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("MessagingEdgeEventTypeFromCode(%d) = %v, %v, want %v, %v", tt.code, got, ok, tt.want, tt.wantOK)
		}
		if got.String() != tt.wire {
			t.Errorf("MessagingEdgeEventTypeFromCode(%d).String() = %q, want %q", tt.code, got.String(), tt.wire)
		}
	}

	if got, ok := LookupMessagingEdgeEventType("inapp.display"); !ok || got != MessagingEdgeEventDisplay {
		t.Errorf("legacy alias inapp.display = %v, %v", got, ok)
	}
	if _, ok := LookupMessagingEdgeEventType("DECISIONING.PROPOSITIONDISPLAY"); ok {
		t.Error("messaging edge event types are case sensitive")
	}
}

func TestLookupOfferType(t *testing.T) {
	tests := []struct {
		input  string
		want   OfferType
		wantOK bool
	}{
		{"application/json", OfferTypeJSON, true},
		{"JSON", OfferTypeJSON, true},
		{"text/html", OfferTypeHTML, true},
		{"Text/Plain", OfferTypeText, true},
		{"IMAGE", OfferTypeImage, true},
		{"image/png", OfferTypeImage, true},
		{"unknown", OfferTypeUnknown, true},
		{"video/mp4", OfferTypeUnknown, false},
		{"", OfferTypeUnknown, false},
	}
	for _, tt := range tests {
		got, ok := LookupOfferType(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("LookupOfferType(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
	if OfferTypeImage.String() != "image/*" {
		t.Errorf("OfferTypeImage.String() = %q", OfferTypeImage.String())
	}
}
