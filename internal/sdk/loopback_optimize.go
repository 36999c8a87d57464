package sdk

import (
	"context"
	"fmt"

	"github.com/solatis/aepbridge/internal/types"
)

// Personalization request event type sent by UpdatePropositions.
const eventTypePersonalizationRequest = "personalization.request"

type loopbackOptimize struct{ l *Loopback }

func (o loopbackOptimize) ExtensionVersion(context.Context) (string, error) {
	return OptimizeVersion, nil
}

func (o loopbackOptimize) ClearCachedPropositions(context.Context) error {
	o.l.mu.Lock()
	defer o.l.mu.Unlock()
	o.l.decisionCache = make(map[string]types.OptimizeProposition)
	return nil
}

// UpdatePropositions sends a personalization request through Edge and
// caches the seeded decisions of scopes. xdm and data are merged into the
// request.
func (o loopbackOptimize) UpdatePropositions(_ context.Context, scopes []types.DecisionScope, xdm, data map[string]any) error {
	o.l.mu.Lock()
	defer o.l.mu.Unlock()

	names := make([]any, len(scopes))
	for i, s := range scopes {
		names[i] = s.Name
	}
	request := deepCopy(xdm)
	request["eventType"] = eventTypePersonalizationRequest
	o.l.sentExperience = appendCapped(o.l.sentExperience, &types.ExperienceEvent{
		XDM: request,
		Data: map[string]any{
			"__adobe": map[string]any{"ajo": map[string]any{}},
			"query":   map[string]any{"personalization": map[string]any{"decisionScopes": names}},
			"data":    deepCopy(data),
		},
	})

	if o.l.privacy == types.PrivacyStatusOptedOut {
		return nil
	}
	for _, s := range scopes {
		if p, ok := o.l.decisions[s.Name]; ok {
			o.l.decisionCache[s.Name] = *cloneOptimizeProposition(p)
		}
	}
	return nil
}

func (o loopbackOptimize) Propositions(_ context.Context, scopes []types.DecisionScope) (map[string]*types.OptimizeProposition, error) {
	o.l.mu.Lock()
	defer o.l.mu.Unlock()
	out := make(map[string]*types.OptimizeProposition)
	for _, s := range scopes {
		if p, ok := o.l.decisionCache[s.Name]; ok {
			out[s.Name] = cloneOptimizeProposition(p)
		}
	}
	return out, nil
}

func (o loopbackOptimize) OffersDisplayed(_ context.Context, p *types.OptimizeProposition, offerIDs ...string) error {
	xdm, err := interactionXDM(types.MessagingEdgeEventDisplay, p, offerIDs...)
	if err != nil {
		return err
	}
	o.send(xdm)
	return nil
}

func (o loopbackOptimize) OfferTapped(_ context.Context, p *types.OptimizeProposition, offerID string) error {
	xdm, err := interactionXDM(types.MessagingEdgeEventInteract, p, offerID)
	if err != nil {
		return err
	}
	o.send(xdm)
	return nil
}

// MultipleOffersDisplayed sends one display event naming every cached
// proposition that holds at least one of offerIDs.
func (o loopbackOptimize) MultipleOffersDisplayed(_ context.Context, offerIDs []string) error {
	o.l.mu.Lock()
	var props []map[string]any
	for _, scope := range sortedKeys(o.l.decisionCache) {
		p := o.l.decisionCache[scope]
		var items []any
		for _, id := range offerIDs {
			if _, ok := p.Offer(id); ok {
				items = append(items, map[string]any{"id": id})
			}
		}
		if len(items) > 0 {
			props = append(props, propositionXDM(&p, items))
		}
	}
	o.l.mu.Unlock()

	if len(props) == 0 {
		return nil
	}
	list := make([]any, len(props))
	for i, p := range props {
		list[i] = p
	}
	o.send(map[string]any{
		"eventType": types.MessagingEdgeEventDisplay.String(),
		"_experience": map[string]any{"decisioning": map[string]any{
			"propositions":         list,
			"propositionEventType": map[string]any{"display": 1},
		}},
	})
	return nil
}

func (o loopbackOptimize) DisplayInteractionXDM(_ context.Context, p *types.OptimizeProposition, offerID string) (map[string]any, error) {
	return interactionXDM(types.MessagingEdgeEventDisplay, p, offerID)
}

func (o loopbackOptimize) TapInteractionXDM(_ context.Context, p *types.OptimizeProposition, offerID string) (map[string]any, error) {
	return interactionXDM(types.MessagingEdgeEventInteract, p, offerID)
}

// ReferenceXDM returns {_experience: {decisioning: {propositionID}}}.
func (o loopbackOptimize) ReferenceXDM(_ context.Context, p *types.OptimizeProposition) (map[string]any, error) {
	if p == nil || p.ID == "" {
		return nil, fmt.Errorf("%w: proposition id is required", types.ErrInvalidArgument)
	}
	return map[string]any{
		"_experience": map[string]any{"decisioning": map[string]any{"propositionID": p.ID}},
	}, nil
}

func (o loopbackOptimize) send(xdm map[string]any) {
	o.l.mu.Lock()
	defer o.l.mu.Unlock()
	if o.l.privacy == types.PrivacyStatusOptedOut {
		return
	}
	o.l.sentExperience = appendCapped(o.l.sentExperience, &types.ExperienceEvent{XDM: xdm})
}

// interactionXDM builds the proposition interaction event for offerIDs,
// all of which must belong to p.
func interactionXDM(eventType types.MessagingEdgeEventType, p *types.OptimizeProposition, offerIDs ...string) (map[string]any, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: proposition is required", types.ErrInvalidArgument)
	}
	items := make([]any, 0, len(offerIDs))
	for _, id := range offerIDs {
		if _, ok := p.Offer(id); !ok {
			return nil, fmt.Errorf("%w: offer %q is not part of proposition %q", types.ErrInvalidArgument, id, p.ID)
		}
		items = append(items, map[string]any{"id": id})
	}

	kind := "display"
	if eventType == types.MessagingEdgeEventInteract {
		kind = "interact"
	}
	return map[string]any{
		"eventType": eventType.String(),
		"_experience": map[string]any{"decisioning": map[string]any{
			"propositions":         []any{propositionXDM(p, items)},
			"propositionEventType": map[string]any{kind: 1},
		}},
	}, nil
}

func propositionXDM(p *types.OptimizeProposition, items []any) map[string]any {
	return map[string]any{
		"id":           p.ID,
		"scope":        p.Scope,
		"scopeDetails": deepCopy(p.ScopeDetails),
		"items":        items,
	}
}

func cloneOptimizeProposition(p types.OptimizeProposition) *types.OptimizeProposition {
	c := p
	c.ScopeDetails = deepCopy(p.ScopeDetails)
	c.Offers = make([]types.Offer, len(p.Offers))
	for i, offer := range p.Offers {
		if offer.Meta != nil {
			offer.Meta = deepCopy(offer.Meta)
		}
		if offer.Language != nil {
			offer.Language = append([]string(nil), offer.Language...)
		}
		if offer.Characteristics != nil {
			chars := make(map[string]string, len(offer.Characteristics))
			for k, v := range offer.Characteristics {
				chars[k] = v
			}
			offer.Characteristics = chars
		}
		c.Offers[i] = offer
	}
	return &c
}
