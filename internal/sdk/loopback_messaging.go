package sdk

import (
	"context"

	"github.com/solatis/aepbridge/internal/types"
)

// MessageInteraction is one tracked in-app message interaction.
type MessageInteraction struct {
	MessageID   string
	Interaction string
	EventType   types.MessagingEdgeEventType
}

// MessageInteractions returns tracked message interactions, oldest first.
func (l *Loopback) MessageInteractions() []MessageInteraction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]MessageInteraction, len(l.interactions))
	copy(out, l.interactions)
	return out
}

func (l *Loopback) recordInteractionLocked(i MessageInteraction) {
	if l.privacy == types.PrivacyStatusOptedOut {
		return
	}
	l.interactions = appendCapped(l.interactions, i)
}

type loopbackMessaging struct{ l *Loopback }

func (m loopbackMessaging) ExtensionVersion(context.Context) (string, error) {
	return MessagingVersion, nil
}

// RefreshInAppMessages fetches the seeded messages. Each one is shown and
// kept in the cache; the last becomes the latest message.
func (m loopbackMessaging) RefreshInAppMessages(context.Context) error {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	for _, msg := range m.l.remoteMessages {
		c := msg
		m.l.messages[c.ID] = &c
		latest := c
		m.l.latestMessage = &latest
	}
	return nil
}

// CachedMessages returns the cached messages ordered by id.
func (m loopbackMessaging) CachedMessages(context.Context) ([]*types.Message, error) {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	out := make([]*types.Message, 0, len(m.l.messages))
	for _, id := range sortedKeys(m.l.messages) {
		c := *m.l.messages[id]
		out = append(out, &c)
	}
	return out, nil
}

func (m loopbackMessaging) LatestMessage(context.Context) (*types.Message, error) {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	if m.l.latestMessage == nil {
		return nil, nil
	}
	c := *m.l.latestMessage
	return &c, nil
}

// PropositionsForSurfaces returns the fetched propositions of surfaces.
// Surfaces never updated are absent from the result.
func (m loopbackMessaging) PropositionsForSurfaces(_ context.Context, surfaces []string) (map[string][]*types.MessagingProposition, error) {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	out := make(map[string][]*types.MessagingProposition)
	for _, uri := range surfaces {
		cached, ok := m.l.surfaceCache[uri]
		if !ok {
			continue
		}
		list := make([]*types.MessagingProposition, len(cached))
		for i := range cached {
			list[i] = cloneMessagingProposition(cached[i])
		}
		out[uri] = list
	}
	return out, nil
}

// UpdatePropositionsForSurfaces fetches the seeded propositions of
// surfaces into the cache. A surface without seeded content caches empty.
func (m loopbackMessaging) UpdatePropositionsForSurfaces(_ context.Context, surfaces []string) error {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	for _, uri := range surfaces {
		remote := m.l.remoteSurfaces[uri]
		cached := make([]types.MessagingProposition, len(remote))
		for i := range remote {
			cached[i] = *cloneMessagingProposition(remote[i])
		}
		m.l.surfaceCache[uri] = cached
	}
	return nil
}

func (m loopbackMessaging) ClearMessage(_ context.Context, id string) error {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	delete(m.l.messages, id)
	return nil
}

// DismissMessage tracks a dismiss when the message auto-tracks and
// suppressAutoTrack is false.
func (m loopbackMessaging) DismissMessage(_ context.Context, id string, suppressAutoTrack bool) error {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	msg, ok := m.l.messages[id]
	if !ok {
		return nil
	}
	if msg.AutoTrack && !suppressAutoTrack {
		m.l.recordInteractionLocked(MessageInteraction{MessageID: id, EventType: types.MessagingEdgeEventDismiss})
	}
	return nil
}

func (m loopbackMessaging) SetAutoTrack(_ context.Context, id string, autoTrack bool) error {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	if msg, ok := m.l.messages[id]; ok {
		msg.AutoTrack = autoTrack
	}
	return nil
}

// ShowMessage makes the message the latest one and tracks a display when
// it auto-tracks.
func (m loopbackMessaging) ShowMessage(_ context.Context, id string) error {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	msg, ok := m.l.messages[id]
	if !ok {
		return nil
	}
	latest := *msg
	m.l.latestMessage = &latest
	if msg.AutoTrack {
		m.l.recordInteractionLocked(MessageInteraction{MessageID: id, EventType: types.MessagingEdgeEventDisplay})
	}
	return nil
}

func (m loopbackMessaging) TrackMessage(_ context.Context, id, interaction string, eventType types.MessagingEdgeEventType) error {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	if _, ok := m.l.messages[id]; !ok {
		return nil
	}
	m.l.recordInteractionLocked(MessageInteraction{MessageID: id, Interaction: interaction, EventType: eventType})
	return nil
}

func cloneMessagingProposition(p types.MessagingProposition) *types.MessagingProposition {
	c := p
	c.ScopeDetails = deepCopy(p.ScopeDetails)
	c.Items = make([]types.PropositionItem, len(p.Items))
	for i, item := range p.Items {
		item.Data = deepCopy(item.Data)
		c.Items[i] = item
	}
	return &c
}
