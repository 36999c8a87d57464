package api

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/solatis/aepbridge/internal/bridge"
	"github.com/solatis/aepbridge/internal/core/metrics"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

// call carries the positional arguments of one invocation and counts the
// degradations its conversions cause.
type call struct {
	module   string
	method   string
	args     []wire.Value
	logger   *slog.Logger
	degraded map[string]int
}

func newCall(module, method string, args []wire.Value, logger *slog.Logger) *call {
	return &call{module: module, method: method, args: args, logger: logger, degraded: map[string]int{}}
}

// degrade records n degradations for reason.
func (c *call) degrade(reason string, n int, attrs ...any) {
	if n <= 0 {
		return
	}
	c.degraded[reason] += n
	c.logger.Debug("degraded conversion",
		append([]any{"module", c.module, "method", c.method, "reason", reason, "count", n}, attrs...)...)
}

// degradedTotal sums every recorded degradation.
func (c *call) degradedTotal() int {
	total := 0
	for _, n := range c.degraded {
		total += n
	}
	return total
}

// arg returns argument i, or null when absent.
func (c *call) arg(i int) wire.Value {
	if i < len(c.args) {
		return c.args[i]
	}
	return wire.Null()
}

func (c *call) invalid(i int, want string) error {
	return fmt.Errorf("%w: argument %d of %s.%s must be %s, got %s",
		types.ErrInvalidArgument, i, c.module, c.method, want, c.arg(i).Kind())
}

func (c *call) stringArg(i int) (string, error) {
	s, ok := c.arg(i).AsString()
	if !ok {
		return "", c.invalid(i, "a string")
	}
	return s, nil
}

func (c *call) dictArg(i int) (wire.Dict, error) {
	d, ok := c.arg(i).AsMap()
	if !ok {
		return nil, c.invalid(i, "a map")
	}
	return d, nil
}

// optionalDictArg accepts a map, null or a missing argument.
func (c *call) optionalDictArg(i int) (wire.Dict, error) {
	v := c.arg(i)
	if v.IsNull() {
		return nil, nil
	}
	return c.dictArg(i)
}

func (c *call) arrayArg(i int) ([]wire.Value, error) {
	arr, ok := c.arg(i).AsArray()
	if !ok {
		return nil, c.invalid(i, "an array")
	}
	return arr, nil
}

// optionalBoolArg accepts a boolean, null or a missing argument, which
// reads as false.
func (c *call) optionalBoolArg(i int) (bool, error) {
	v := c.arg(i)
	if v.IsNull() {
		return false, nil
	}
	b, ok := v.AsBool()
	if !ok {
		return false, c.invalid(i, "a boolean")
	}
	return b, nil
}

// optionalStringArg accepts a string, null or a missing argument, which
// reads as "".
func (c *call) optionalStringArg(i int) (string, error) {
	if c.arg(i).IsNull() {
		return "", nil
	}
	return c.stringArg(i)
}

// intArg accepts integral numbers only.
func (c *call) intArg(i int) (int, error) {
	n, ok := c.arg(i).AsNumber()
	if !ok || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, c.invalid(i, "an integer")
	}
	return int(n), nil
}

// enumArg parses argument i through lookup. Unrecognized strings, null,
// missing and non-string arguments yield the domain default and count as
// a degradation.
func enumArg[E any](c *call, i int, lookup func(string) (E, bool)) E {
	v := c.arg(i)
	s, isString := v.AsString()
	e, ok := lookup(s)
	if !isString {
		c.degrade(metrics.ReasonEnumDefault, 1, "argument", i, "kind", v.Kind())
		return e
	}
	if !ok {
		c.degrade(metrics.ReasonEnumDefault, 1, "argument", i, "value", s)
	}
	return e
}

// stringMapArg projects argument i onto its string-valued entries.
// Null is accepted and yields nil.
func (c *call) stringMapArg(i int) (map[string]string, error) {
	d, err := c.optionalDictArg(i)
	if err != nil || d == nil {
		return nil, err
	}
	out := bridge.ContextData(d)
	c.degrade(metrics.ReasonEntryDropped, len(d)-len(out), "argument", i)
	return out, nil
}
