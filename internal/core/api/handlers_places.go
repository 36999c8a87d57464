package api

import (
	"context"
	"fmt"

	"github.com/solatis/aepbridge/internal/bridge"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

func (s *BridgeService) placesHandlers() map[string]handler {
	places := s.runtime.Places
	return requires(places != nil, ModulePlaces, map[string]handler{
		"extensionVersion": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(places.ExtensionVersion(ctx))
		},
		"setAuthorizationStatus": func(ctx context.Context, c *call) (wire.Value, error) {
			st := enumArg(c, 0, types.LookupPlacesAuthStatus)
			return none(places.SetAuthorizationStatus(ctx, st))
		},
		"getNearbyPointsOfInterest": func(ctx context.Context, c *call) (wire.Value, error) {
			d, err := c.dictArg(0)
			if err != nil {
				return wire.Null(), conversionError(msgConvertLocation)
			}
			loc, ok := bridge.LocationFromDict(d)
			if !ok {
				return wire.Null(), conversionError(msgConvertLocation)
			}
			limit, err := c.intArg(1)
			if err != nil {
				return wire.Null(), err
			}
			if limit < 0 {
				return wire.Null(), fmt.Errorf("%w: limit must not be negative, got %d", types.ErrInvalidArgument, limit)
			}
			pois, err := places.NearbyPointsOfInterest(ctx, *loc, limit)
			if err != nil {
				return wire.Null(), err
			}
			return bridge.ArrayFromPOIs(pois), nil
		},
		"getCurrentPointsOfInterest": func(ctx context.Context, _ *call) (wire.Value, error) {
			pois, err := places.CurrentPointsOfInterest(ctx)
			if err != nil {
				return wire.Null(), err
			}
			return bridge.ArrayFromPOIs(pois), nil
		},
		"getLastKnownLocation": func(ctx context.Context, _ *call) (wire.Value, error) {
			loc, err := places.LastKnownLocation(ctx)
			if err != nil {
				return wire.Null(), err
			}
			d, ok := bridge.DictFromLocation(loc)
			if !ok {
				return wire.Null(), nil
			}
			return wire.Map(d), nil
		},
		"processGeofence": func(ctx context.Context, c *call) (wire.Value, error) {
			d, err := c.dictArg(0)
			if err != nil {
				return wire.Null(), conversionError(msgConvertGeofence)
			}
			fence, ok := bridge.GeofenceFromDict(d)
			if !ok {
				return wire.Null(), conversionError(msgConvertGeofence)
			}
			transition, err := c.intArg(1)
			if err != nil {
				return wire.Null(), err
			}
			if transition != types.GeofenceTransitionEnter && transition != types.GeofenceTransitionExit {
				return wire.Null(), fmt.Errorf("%w: unknown transition type %d", types.ErrInvalidArgument, transition)
			}
			return none(places.ProcessGeofence(ctx, *fence, transition))
		},
		"clear": func(ctx context.Context, _ *call) (wire.Value, error) {
			return none(places.Clear(ctx))
		},
	})
}
