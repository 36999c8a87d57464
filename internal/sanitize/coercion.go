package sanitize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

/*
 * Lenient kind conversion.
 *
 * Used by Filter when Options.Lenient is set, and by callers that accept a
 * loosely typed argument (a timeout sent as "5000", a label sent as 42).
 *
 * Conversion table:
 *   - string: numbers (shortest decimal form) and booleans ("true"/"false")
 *   - number: numeric strings after trimming whitespace; finite values only
 *   - bool, bytes, array, map: exact kind only
 *
 * Booleans never become numbers and text never becomes a boolean, to avoid
 * the "true" vs 1 ambiguity. Null never converts; callers treat it as
 * missing rather than as a failed conversion.
 */

// Coerce converts v to target. Values already of kind target are returned
// unchanged. Returns ErrCoercionFailed when no conversion applies.
func Coerce(v wire.Value, target wire.Kind) (wire.Value, error) {
	if v.IsNull() {
		return wire.Value{}, fmt.Errorf("%w: null value", types.ErrCoercionFailed)
	}
	if v.Kind() == target {
		return v, nil
	}

	switch target {
	case wire.KindString:
		return coerceText(v)
	case wire.KindNumber:
		return coerceNumeric(v)
	}
	return wire.Value{}, fmt.Errorf("%w: %s to %s", types.ErrCoercionFailed, v.Kind(), target)
}

// coerceNumeric accepts numeric strings. Whitespace-only strings, NaN and
// infinities are rejected.
func coerceNumeric(v wire.Value) (wire.Value, error) {
	s, ok := v.AsString()
	if !ok {
		return wire.Value{}, fmt.Errorf("%w: %s to number", types.ErrCoercionFailed, v.Kind())
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return wire.Value{}, fmt.Errorf("%w: empty string to number", types.ErrCoercionFailed)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return wire.Value{}, fmt.Errorf("%w: %q is not a number", types.ErrCoercionFailed, s)
	}
	return wire.Number(f), nil
}

func coerceText(v wire.Value) (wire.Value, error) {
	if n, ok := v.AsNumber(); ok {
		return wire.String(strconv.FormatFloat(n, 'f', -1, 64)), nil
	}
	if b, ok := v.AsBool(); ok {
		return wire.String(strconv.FormatBool(b)), nil
	}
	return wire.Value{}, fmt.Errorf("%w: %s to string", types.ErrCoercionFailed, v.Kind())
}
