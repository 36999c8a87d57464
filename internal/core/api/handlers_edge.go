package api

import (
	"context"

	"github.com/solatis/aepbridge/internal/bridge"
	"github.com/solatis/aepbridge/internal/wire"
)

func (s *BridgeService) edgeHandlers() map[string]handler {
	edge := s.runtime.Edge
	return requires(edge != nil, ModuleEdge, map[string]handler{
		"extensionVersion": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(edge.ExtensionVersion(ctx))
		},
		"sendEvent": func(ctx context.Context, c *call) (wire.Value, error) {
			d, err := c.dictArg(0)
			if err != nil {
				return wire.Null(), conversionError(msgConvertExperienceEvent)
			}
			ev, ok := bridge.ExperienceEventFromDict(d)
			if !ok {
				return wire.Null(), conversionError(msgConvertExperienceEvent)
			}
			handles, err := edge.SendEvent(ctx, ev)
			if err != nil {
				return wire.Null(), err
			}
			return bridge.ArrayFromEdgeEventHandles(handles), nil
		},
	})
}

func (s *BridgeService) consentHandlers() map[string]handler {
	consent := s.runtime.Consent
	return requires(consent != nil, ModuleEdgeConsent, map[string]handler{
		"extensionVersion": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(consent.ExtensionVersion(ctx))
		},
		"getConsents": func(ctx context.Context, _ *call) (wire.Value, error) {
			m, err := consent.Consents(ctx)
			if err != nil {
				return wire.Null(), err
			}
			return wire.Map(bridge.DictFromConsents(m)), nil
		},
		"update": func(ctx context.Context, c *call) (wire.Value, error) {
			d, err := c.dictArg(0)
			if err != nil {
				return wire.Null(), err
			}
			return none(consent.UpdateConsents(ctx, bridge.ConsentsFromDict(d)))
		},
	})
}
