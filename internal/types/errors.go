package types

import "errors"

// Sentinel errors for bridge operations.
// Conversions themselves never fail; these are raised by the outer layers.
var (
	// ErrConversionFailed indicates a converter could not construct its object.
	ErrConversionFailed = errors.New("conversion failed")

	// ErrUnknownMethod indicates a bridge call names no registered module method.
	ErrUnknownMethod = errors.New("unknown bridge method")

	// ErrInvalidArgument indicates a bridge call argument has the wrong shape.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTooManyArgs indicates a bridge call exceeds MaxArgs.
	ErrTooManyArgs = errors.New("too many arguments")

	// ErrPayloadTooLarge indicates a bridge request exceeds MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")

	// ErrNestingTooDeep indicates a value nests deeper than MaxNestingDepth.
	ErrNestingTooDeep = errors.New("value nests too deeply")

	// ErrPathTooDeep indicates a field path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("field path exceeds maximum depth")

	// ErrTooManyWildcards indicates a field path exceeds MaxNestedWildcards.
	ErrTooManyWildcards = errors.New("field path has too many wildcards")

	// ErrInvalidPath indicates a field path expression could not be parsed.
	ErrInvalidPath = errors.New("invalid field path")

	// ErrFieldNotFound indicates a field path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")

	// ErrCoercionFailed indicates type coercion failed.
	ErrCoercionFailed = errors.New("type coercion failed")

	// ErrTimeout indicates the native runtime did not answer in time.
	ErrTimeout = errors.New("timed out waiting for response")
)
