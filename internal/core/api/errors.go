package api

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/aepbridge/internal/types"
)

// ErrExtensionUnavailable indicates the runtime has no implementation for
// the requested module.
var ErrExtensionUnavailable = errors.New("extension not available")

// Conversion failure messages returned to the host.
const (
	msgConvertEvent           = "Failed to convert map to Event"
	msgConvertExperienceEvent = "Failed to convert map to ExperienceEvent"
	msgConvertIdentityMap     = "Failed to convert map to IdentityMap"
	msgConvertIdentityItem    = "Failed to convert map to IdentityItem"
	msgConvertLocation        = "Failed to convert map to Location"
	msgConvertGeofence        = "Failed to convert map to Geofence"
	msgConvertProposition     = "Failed to convert map to Proposition"
)

// conversionError reports a converter that could not build its object.
func conversionError(msg string) error {
	return fmt.Errorf("%w: %s", types.ErrConversionFailed, msg)
}

// toStatus maps a handler error onto a gRPC status.
// Validation errors map to INVALID_ARGUMENT, missing extensions to
// UNAVAILABLE, timeouts to DEADLINE_EXCEEDED and anything the native
// runtime returns to INTERNAL.
func toStatus(module, method string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, types.ErrUnknownMethod):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, types.ErrConversionFailed),
		errors.Is(err, types.ErrInvalidArgument),
		errors.Is(err, types.ErrTooManyArgs),
		errors.Is(err, types.ErrPayloadTooLarge),
		errors.Is(err, types.ErrNestingTooDeep):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrExtensionUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, types.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Errorf(codes.Internal, "%s.%s returned an unexpected error: %v", module, method, err)
	}
}
