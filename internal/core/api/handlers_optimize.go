package api

import (
	"context"

	"github.com/solatis/aepbridge/internal/bridge"
	"github.com/solatis/aepbridge/internal/core/metrics"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

func (s *BridgeService) optimizeHandlers() map[string]handler {
	optimize := s.runtime.Optimize
	return requires(optimize != nil, ModuleOptimize, map[string]handler{
		"extensionVersion": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(optimize.ExtensionVersion(ctx))
		},
		"clearCachedPropositions": func(ctx context.Context, _ *call) (wire.Value, error) {
			return none(optimize.ClearCachedPropositions(ctx))
		},
		"updatePropositions": func(ctx context.Context, c *call) (wire.Value, error) {
			scopes, err := scopesArg(c, 0)
			if err != nil {
				return wire.Null(), err
			}
			xdm, err := c.optionalDictArg(1)
			if err != nil {
				return wire.Null(), err
			}
			data, err := c.optionalDictArg(2)
			if err != nil {
				return wire.Null(), err
			}
			return none(optimize.UpdatePropositions(ctx, scopes, xdm.ToMap(), data.ToMap()))
		},
		"getPropositions": func(ctx context.Context, c *call) (wire.Value, error) {
			scopes, err := scopesArg(c, 0)
			if err != nil {
				return wire.Null(), err
			}
			props, err := optimize.Propositions(ctx, scopes)
			if err != nil {
				return wire.Null(), err
			}
			return wire.Map(bridge.DictFromScopePropositions(props)), nil
		},
		"offerDisplayed": func(ctx context.Context, c *call) (wire.Value, error) {
			id, p, err := offerArgs(c)
			if err != nil {
				return wire.Null(), err
			}
			return none(optimize.OffersDisplayed(ctx, p, id))
		},
		"offerTapped": func(ctx context.Context, c *call) (wire.Value, error) {
			id, p, err := offerArgs(c)
			if err != nil {
				return wire.Null(), err
			}
			return none(optimize.OfferTapped(ctx, p, id))
		},
		"multipleOffersDisplayed": func(ctx context.Context, c *call) (wire.Value, error) {
			arr, err := c.arrayArg(0)
			if err != nil {
				return wire.Null(), err
			}
			ids := make([]string, 0, len(arr))
			for _, v := range arr {
				if id, ok := v.AsString(); ok && id != "" {
					ids = append(ids, id)
				}
			}
			c.degrade(metrics.ReasonEntryDropped, len(arr)-len(ids), "argument", 0)
			return none(optimize.MultipleOffersDisplayed(ctx, ids))
		},
		"generateDisplayInteractionXdm": func(ctx context.Context, c *call) (wire.Value, error) {
			id, p, err := offerArgs(c)
			if err != nil {
				return wire.Null(), err
			}
			return xdmResult(optimize.DisplayInteractionXDM(ctx, p, id))
		},
		"generateTapInteractionXdm": func(ctx context.Context, c *call) (wire.Value, error) {
			id, p, err := offerArgs(c)
			if err != nil {
				return wire.Null(), err
			}
			return xdmResult(optimize.TapInteractionXDM(ctx, p, id))
		},
		"generateReferenceXdm": func(ctx context.Context, c *call) (wire.Value, error) {
			p, err := propositionArg(c, 0)
			if err != nil {
				return wire.Null(), err
			}
			return xdmResult(optimize.ReferenceXDM(ctx, p))
		},
	})
}

// scopesArg reads argument i, an array of decision scopes. Entries may be
// scope names or scope maps; entries that convert to neither are dropped.
func scopesArg(c *call, i int) ([]types.DecisionScope, error) {
	arr, err := c.arrayArg(i)
	if err != nil {
		return nil, err
	}
	var names, maps []wire.Value
	for _, v := range arr {
		if _, ok := v.AsMap(); ok {
			maps = append(maps, v)
			continue
		}
		names = append(names, v)
	}
	scopes, skipped := bridge.DecisionScopesFromArray(names)
	for _, v := range maps {
		d, _ := v.AsMap()
		scope, ok := bridge.DecisionScopeFromDict(d)
		if !ok {
			skipped++
			continue
		}
		scopes = append(scopes, *scope)
	}
	c.degrade(metrics.ReasonEntryDropped, skipped, "argument", i)
	return scopes, nil
}

// propositionArg converts argument i to a proposition, recording offers
// that did not convert and offer formats that fell back to the default.
func propositionArg(c *call, i int) (*types.OptimizeProposition, error) {
	d, err := c.dictArg(i)
	if err != nil {
		return nil, conversionError(msgConvertProposition)
	}
	p, skipped, ok := bridge.OptimizePropositionFromDict(d)
	if !ok {
		return nil, conversionError(msgConvertProposition)
	}
	c.degrade(metrics.ReasonEntryDropped, skipped.Entries, "argument", i)
	c.degrade(metrics.ReasonEnumDefault, skipped.Defaults, "argument", i)
	return p, nil
}

// offerArgs reads (offerId, proposition).
func offerArgs(c *call) (string, *types.OptimizeProposition, error) {
	id, err := c.stringArg(0)
	if err != nil {
		return "", nil, err
	}
	p, err := propositionArg(c, 1)
	if err != nil {
		return "", nil, err
	}
	return id, p, nil
}

func xdmResult(xdm map[string]any, err error) (wire.Value, error) {
	if err != nil {
		return wire.Null(), err
	}
	return wire.Map(bridge.DictFromNative(xdm)), nil
}
