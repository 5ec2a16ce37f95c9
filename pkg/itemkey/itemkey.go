/*
Package itemkey derives the per-table identifier string the batch engine
uses to correlate a dispatched request with the response that eventually
satisfies it.

The original implementation this was ported from built each "name=value"
component but never appended it to the result slice, so every identifier
collapsed to the empty string and itemConfigurations held at most one entry
per table. Identifier uses one strings.Builder per call and keeps the
documented intent: a distinct, collision-detectable identifier per
marshalled key.
*/
package itemkey

import (
	"strings"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/cuemby/tablemapper/pkg/mapererr"
)

// Identifier derives the deterministic identifier string for a marshalled
// key, joining "name=value" pairs with ":" in the order of keyProperties.
// Each value is the attribute's scalar payload, preferring Binary, then
// Number, then String (avalue.Scalar's tagged-union precedence).
func Identifier(marshalled marshal.Item, keyProperties []string) (string, error) {
	var b strings.Builder
	for i, name := range keyProperties {
		attr, ok := marshalled[name]
		if !ok {
			return "", mapererr.NewProtocolViolation("item-identifier: missing key attribute %q", name)
		}
		value, ok := avalue.Scalar(attr)
		if !ok {
			return "", mapererr.NewInvalidValue(attr, "key attribute %q has no scalar payload", name)
		}
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
	}
	return b.String(), nil
}

// Registry tracks identifiers seen within one batch operation (per table)
// and reports the schema error the documented contract requires on
// collision: an item-identifier must be unique per table within the
// lifetime of one batch operation.
type Registry struct {
	seen map[string]struct{}
}

// NewRegistry returns an empty per-table identifier registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// Observe records id as seen, returning an error if id was already
// registered.
func (r *Registry) Observe(id string) error {
	if _, dup := r.seen[id]; dup {
		return mapererr.NewInvalidSchema("duplicate item-identifier %q within one batch operation", id)
	}
	r.seen[id] = struct{}{}
	return nil
}
