package bridge

import (
	"github.com/solatis/aepbridge/internal/sanitize"
	"github.com/solatis/aepbridge/internal/wire"
)

// ConsentsFromDict converts a free-form consent map for the native SDK.
// Null entries are dropped; a nil dict yields an empty map.
func ConsentsFromDict(d wire.Dict) map[string]any {
	return sanitize.WithoutNulls(d).ToMap()
}

// DictFromConsents converts native consents back, dropping nulls and
// entries with no boundary representation.
func DictFromConsents(m map[string]any) wire.Dict {
	return sanitize.WithoutNulls(DictFromNative(m))
}
