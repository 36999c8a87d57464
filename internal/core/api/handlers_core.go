package api

import (
	"context"
	"fmt"
	"time"

	"github.com/solatis/aepbridge/internal/bridge"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

// requires wraps hs so that every method reports the module unavailable
// when its extension is missing.
func requires(present bool, module string, hs map[string]handler) map[string]handler {
	if present {
		return hs
	}
	out := make(map[string]handler, len(hs))
	for name := range hs {
		out[name] = func(context.Context, *call) (wire.Value, error) {
			return wire.Null(), fmt.Errorf("%w: %s", ErrExtensionUnavailable, module)
		}
	}
	return out
}

// none adapts an error-only SDK call to a handler result.
func none(err error) (wire.Value, error) {
	return wire.Null(), err
}

func text(s string, err error) (wire.Value, error) {
	if err != nil {
		return wire.Null(), err
	}
	return wire.String(s), nil
}

func (s *BridgeService) coreHandlers() map[string]handler {
	core := s.runtime.Core
	return requires(core != nil, ModuleCore, map[string]handler{
		"extensionVersion": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(core.ExtensionVersion(ctx))
		},
		"configureWithAppId": func(ctx context.Context, c *call) (wire.Value, error) {
			appID, err := c.stringArg(0)
			if err != nil {
				return wire.Null(), err
			}
			return none(core.ConfigureWithAppID(ctx, appID))
		},
		"updateConfiguration": func(ctx context.Context, c *call) (wire.Value, error) {
			d, err := c.dictArg(0)
			if err != nil {
				return wire.Null(), err
			}
			return none(core.UpdateConfiguration(ctx, d.ToMap()))
		},
		"clearUpdatedConfiguration": func(ctx context.Context, _ *call) (wire.Value, error) {
			return none(core.ClearUpdatedConfiguration(ctx))
		},
		"setLogLevel": func(ctx context.Context, c *call) (wire.Value, error) {
			level := enumArg(c, 0, types.LookupLogLevel)
			return none(core.SetLogLevel(ctx, level))
		},
		"getLogLevel": func(ctx context.Context, _ *call) (wire.Value, error) {
			level, err := core.LogLevel(ctx)
			return text(level.String(), err)
		},
		"setPrivacyStatus": func(ctx context.Context, c *call) (wire.Value, error) {
			st := enumArg(c, 0, types.LookupPrivacyStatus)
			return none(core.SetPrivacyStatus(ctx, st))
		},
		"getPrivacyStatus": func(ctx context.Context, _ *call) (wire.Value, error) {
			st, err := core.PrivacyStatus(ctx)
			return text(st.String(), err)
		},
		"getSdkIdentities": func(ctx context.Context, _ *call) (wire.Value, error) {
			return text(core.SDKIdentities(ctx))
		},
		"dispatchEvent": func(ctx context.Context, c *call) (wire.Value, error) {
			ev, err := eventArg(c, 0)
			if err != nil {
				return wire.Null(), err
			}
			return none(core.DispatchEvent(ctx, ev))
		},
		"dispatchEventWithResponseCallback": func(ctx context.Context, c *call) (wire.Value, error) {
			ev, err := eventArg(c, 0)
			if err != nil {
				return wire.Null(), err
			}
			ms, err := c.intArg(1)
			if err != nil {
				return wire.Null(), err
			}
			if ms <= 0 {
				return wire.Null(), fmt.Errorf("%w: timeout must be positive, got %d", types.ErrInvalidArgument, ms)
			}
			resp, err := core.DispatchEventWithResponse(ctx, ev, time.Duration(ms)*time.Millisecond)
			if err != nil {
				return wire.Null(), err
			}
			d, ok := bridge.DictFromEvent(resp)
			if !ok {
				return wire.Null(), fmt.Errorf("runtime returned no response event")
			}
			return wire.Map(d), nil
		},
		"trackAction": func(ctx context.Context, c *call) (wire.Value, error) {
			action, data, err := trackArgs(c)
			if err != nil {
				return wire.Null(), err
			}
			return none(core.TrackAction(ctx, action, data))
		},
		"trackState": func(ctx context.Context, c *call) (wire.Value, error) {
			state, data, err := trackArgs(c)
			if err != nil {
				return wire.Null(), err
			}
			return none(core.TrackState(ctx, state, data))
		},
		"collectPii": func(ctx context.Context, c *call) (wire.Value, error) {
			data, err := c.stringMapArg(0)
			if err != nil {
				return wire.Null(), err
			}
			return none(core.CollectPII(ctx, data))
		},
		"setAdvertisingIdentifier": func(ctx context.Context, c *call) (wire.Value, error) {
			id, err := c.stringArg(0)
			if err != nil {
				return wire.Null(), err
			}
			return none(core.SetAdvertisingIdentifier(ctx, id))
		},
		"setPushIdentifier": func(ctx context.Context, c *call) (wire.Value, error) {
			token, err := c.stringArg(0)
			if err != nil {
				return wire.Null(), err
			}
			return none(core.SetPushIdentifier(ctx, token))
		},
		"resetIdentities": func(ctx context.Context, _ *call) (wire.Value, error) {
			return none(core.ResetIdentities(ctx))
		},
	})
}

// eventArg converts argument i to an Event.
func eventArg(c *call, i int) (*types.Event, error) {
	d, err := c.dictArg(i)
	if err != nil {
		return nil, conversionError(msgConvertEvent)
	}
	ev, ok := bridge.EventFromDict(d)
	if !ok {
		return nil, conversionError(msgConvertEvent)
	}
	return ev, nil
}

// trackArgs reads (name, contextData) for trackAction and trackState.
func trackArgs(c *call) (string, map[string]string, error) {
	name, err := c.stringArg(0)
	if err != nil {
		return "", nil, err
	}
	data, err := c.stringMapArg(1)
	if err != nil {
		return "", nil, err
	}
	return name, data, nil
}
