package api

import (
	"context"
	"math"

	"github.com/solatis/aepbridge/internal/bridge"
	"github.com/solatis/aepbridge/internal/core/metrics"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

func (s *BridgeService) messagingHandlers() map[string]handler {
	messaging := s.runtime.Messaging
	return requires(messaging != nil, ModuleMessaging, map[string]handler{
		"extensionVersion": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(messaging.ExtensionVersion(ctx))
		},
		"refreshInAppMessages": func(ctx context.Context, _ *call) (wire.Value, error) {
			return none(messaging.RefreshInAppMessages(ctx))
		},
		"getCachedMessages": func(ctx context.Context, _ *call) (wire.Value, error) {
			msgs, err := messaging.CachedMessages(ctx)
			if err != nil {
				return wire.Null(), err
			}
			return bridge.ArrayFromMessages(msgs), nil
		},
		"getLatestMessage": func(ctx context.Context, _ *call) (wire.Value, error) {
			m, err := messaging.LatestMessage(ctx)
			if err != nil {
				return wire.Null(), err
			}
			d, ok := bridge.DictFromMessage(m)
			if !ok {
				return wire.Null(), nil
			}
			return wire.Map(d), nil
		},
		"getPropositionsForSurfaces": func(ctx context.Context, c *call) (wire.Value, error) {
			surfaces, err := s.surfacesArg(c, 0)
			if err != nil {
				return wire.Null(), err
			}
			props, err := messaging.PropositionsForSurfaces(ctx, surfaces)
			if err != nil {
				return wire.Null(), err
			}
			return wire.Map(bridge.DictFromSurfacePropositions(props, s.cfg.AppPackage, &s.items)), nil
		},
		"updatePropositionsForSurfaces": func(ctx context.Context, c *call) (wire.Value, error) {
			surfaces, err := s.surfacesArg(c, 0)
			if err != nil {
				return wire.Null(), err
			}
			return none(messaging.UpdatePropositionsForSurfaces(ctx, surfaces))
		},
		"clear": func(ctx context.Context, c *call) (wire.Value, error) {
			id, err := messageArg(c)
			if err != nil || id == "" {
				return none(err)
			}
			return none(messaging.ClearMessage(ctx, id))
		},
		"dismiss": func(ctx context.Context, c *call) (wire.Value, error) {
			id, err := messageArg(c)
			if err != nil || id == "" {
				return none(err)
			}
			suppress, err := c.optionalBoolArg(1)
			if err != nil {
				return wire.Null(), err
			}
			return none(messaging.DismissMessage(ctx, id, suppress))
		},
		"setAutoTrack": func(ctx context.Context, c *call) (wire.Value, error) {
			id, err := messageArg(c)
			if err != nil || id == "" {
				return none(err)
			}
			autoTrack, ok := c.arg(1).AsBool()
			if !ok {
				return wire.Null(), c.invalid(1, "a boolean")
			}
			return none(messaging.SetAutoTrack(ctx, id, autoTrack))
		},
		"show": func(ctx context.Context, c *call) (wire.Value, error) {
			id, err := messageArg(c)
			if err != nil || id == "" {
				return none(err)
			}
			return none(messaging.ShowMessage(ctx, id))
		},
		"track": func(ctx context.Context, c *call) (wire.Value, error) {
			id, err := messageArg(c)
			if err != nil || id == "" {
				return none(err)
			}
			interaction, err := c.optionalStringArg(1)
			if err != nil {
				return wire.Null(), err
			}
			eventType, ok := edgeEventTypeArg(c, 2)
			if !ok {
				return wire.Null(), nil
			}
			return none(messaging.TrackMessage(ctx, id, interaction, eventType))
		},
	})
}

// messageArg reads the message id of argument 0. A null id yields "" and
// the caller treats the call as a no-op.
func messageArg(c *call) (string, error) {
	if c.arg(0).IsNull() {
		return "", nil
	}
	return c.stringArg(0)
}

// surfacesArg resolves argument i, an array of surface paths, against the
// configured app package. Entries that are not paths are dropped.
func (s *BridgeService) surfacesArg(c *call, i int) ([]string, error) {
	arr, err := c.arrayArg(i)
	if err != nil {
		return nil, err
	}
	uris, skipped := bridge.SurfacesFromArray(arr, s.cfg.AppPackage)
	c.degrade(metrics.ReasonEntryDropped, skipped, "argument", i)
	return uris, nil
}

// edgeEventTypeArg accepts a numeric event code or a wire name. Anything
// else, including the unknown type, counts as a degradation and reports
// false so nothing is tracked.
func edgeEventTypeArg(c *call, i int) (types.MessagingEdgeEventType, bool) {
	v := c.arg(i)
	if n, ok := v.AsNumber(); ok {
		if n == math.Trunc(n) && math.Abs(n) <= math.MaxInt32 {
			if e, ok := types.MessagingEdgeEventTypeFromCode(int(n)); ok {
				return e, true
			}
		}
		c.degrade(metrics.ReasonEnumDefault, 1, "argument", i, "code", n)
		return types.MessagingEdgeEventUnknown, false
	}
	if name, ok := v.AsString(); ok {
		if e, ok := types.LookupMessagingEdgeEventType(name); ok && e != types.MessagingEdgeEventUnknown {
			return e, true
		}
		c.degrade(metrics.ReasonEnumDefault, 1, "argument", i, "value", name)
		return types.MessagingEdgeEventUnknown, false
	}
	c.degrade(metrics.ReasonEnumDefault, 1, "argument", i, "kind", v.Kind())
	return types.MessagingEdgeEventUnknown, false
}
