package api

import (
	"context"

	"github.com/solatis/aepbridge/internal/bridge"
	"github.com/solatis/aepbridge/internal/core/metrics"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

func (s *BridgeService) identityHandlers() map[string]handler {
	identity := s.runtime.Identity
	return requires(identity != nil, ModuleIdentity, map[string]handler{
		"extensionVersion": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(identity.ExtensionVersion(ctx))
		},
		"syncIdentifier": func(ctx context.Context, c *call) (wire.Value, error) {
			idType, err := c.stringArg(0)
			if err != nil {
				return wire.Null(), err
			}
			id, err := c.stringArg(1)
			if err != nil {
				return wire.Null(), err
			}
			state := enumArg(c, 2, types.LookupVisitorAuthState)
			return none(identity.SyncIdentifier(ctx, idType, id, state))
		},
		"syncIdentifiers": func(ctx context.Context, c *call) (wire.Value, error) {
			ids, err := c.stringMapArg(0)
			if err != nil {
				return wire.Null(), err
			}
			return none(identity.SyncIdentifiers(ctx, ids, types.VisitorAuthUnknown))
		},
		"syncIdentifiersWithAuthState": func(ctx context.Context, c *call) (wire.Value, error) {
			ids, err := c.stringMapArg(0)
			if err != nil {
				return wire.Null(), err
			}
			state := enumArg(c, 1, types.LookupVisitorAuthState)
			return none(identity.SyncIdentifiers(ctx, ids, state))
		},
		"getIdentifiers": func(ctx context.Context, _ *call) (wire.Value, error) {
			ids, err := identity.Identifiers(ctx)
			if err != nil {
				return wire.Null(), err
			}
			return bridge.ArrayFromVisitorIDs(ids), nil
		},
		"getExperienceCloudId": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(identity.ExperienceCloudID(ctx))
		},
		"appendVisitorInfoForURL": func(ctx context.Context, c *call) (wire.Value, error) {
			base, err := c.stringArg(0)
			if err != nil {
				return wire.Null(), err
			}
			return text(identity.AppendVisitorInfoForURL(ctx, base))
		},
		"getUrlVariables": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(identity.URLVariables(ctx))
		},
	})
}

func (s *BridgeService) edgeIdentityHandlers() map[string]handler {
	edgeIdentity := s.runtime.EdgeIdentity
	return requires(edgeIdentity != nil, ModuleEdgeIdentity, map[string]handler{
		"extensionVersion": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(edgeIdentity.ExtensionVersion(ctx))
		},
		"getExperienceCloudId": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(edgeIdentity.ExperienceCloudID(ctx))
		},
		"getIdentities": func(ctx context.Context, _ *call) (wire.Value, error) {
			m, err := edgeIdentity.Identities(ctx)
			if err != nil {
				return wire.Null(), err
			}
			d, ok := bridge.DictFromIdentityMap(m)
			if !ok {
				return wire.Null(), nil
			}
			return wire.Map(d), nil
		},
		"updateIdentities": func(ctx context.Context, c *call) (wire.Value, error) {
			d, err := c.dictArg(0)
			if err != nil {
				return wire.Null(), conversionError(msgConvertIdentityMap)
			}
			m, rejected, ok := bridge.IdentityMapWithRejects(d)
			if !ok {
				return wire.Null(), conversionError(msgConvertIdentityMap)
			}
			c.degrade(metrics.ReasonEntryDropped, rejected)
			return none(edgeIdentity.UpdateIdentities(ctx, m))
		},
		"removeIdentity": func(ctx context.Context, c *call) (wire.Value, error) {
			d, err := c.dictArg(0)
			if err != nil {
				return wire.Null(), conversionError(msgConvertIdentityItem)
			}
			item, ok := bridge.IdentityItemFromDict(d)
			if !ok {
				return wire.Null(), conversionError(msgConvertIdentityItem)
			}
			namespace, err := c.stringArg(1)
			if err != nil {
				return wire.Null(), err
			}
			return none(edgeIdentity.RemoveIdentity(ctx, *item, namespace))
		},
	})
}
