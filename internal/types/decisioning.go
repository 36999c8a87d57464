package types

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// Message is an in-app message the messaging extension has shown or cached.
type Message struct {
	ID        string
	AutoTrack bool
}

// Proposition item schemas with derived content fields.
const (
	SchemaJSONContent = "https://ns.adobe.com/personalization/json-content-item"
	SchemaHTMLContent = "https://ns.adobe.com/personalization/html-content-item"
)

// PropositionItem is one decision item inside a messaging proposition.
type PropositionItem struct {
	ID     string
	Schema string
	Data   map[string]any
}

// MessagingProposition is the set of decision items returned for a surface.
type MessagingProposition struct {
	ID           string
	Scope        string
	ScopeDetails map[string]any
	Items        []PropositionItem
}

// ActivityID returns scopeDetails.activity.id, or "" when absent.
func (p *MessagingProposition) ActivityID() string {
	return activityID(p.ScopeDetails)
}

// DecisionScope names an optimize decision location. Names are either
// plain scope strings or base64-encoded activity/placement descriptors.
type DecisionScope struct {
	Name string
}

// Offer is one optimize decision option.
type Offer struct {
	ID              string
	Etag            string
	Schema          string
	Score           float64
	Meta            map[string]any
	Type            OfferType
	Content         string
	Language        []string
	Characteristics map[string]string
}

// OptimizeProposition is the decision returned for one decision scope.
type OptimizeProposition struct {
	ID           string
	Scope        string
	ScopeDetails map[string]any
	Offers       []Offer
}

// ActivityID returns scopeDetails.activity.id, or "" when absent.
func (p *OptimizeProposition) ActivityID() string {
	return activityID(p.ScopeDetails)
}

// Offer returns the offer with the given id.
func (p *OptimizeProposition) Offer(id string) (*Offer, bool) {
	for i := range p.Offers {
		if p.Offers[i].ID == id {
			return &p.Offers[i], true
		}
	}
	return nil, false
}

func activityID(scopeDetails map[string]any) string {
	activity, ok := scopeDetails["activity"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := activity["id"].(string)
	return id
}

// NameUUID returns the version 3 (MD5) UUID of name, the name-based UUID
// scheme the native SDKs use for stable item identifiers.
func NameUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte(name))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	return uuid.UUID(sum)
}
