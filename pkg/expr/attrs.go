/*
Package expr implements the store's expression dialect: a placeholder
allocator (ExpressionAttributes), tagged-variant trees for condition,
projection, update, and math expressions, a schema-driven normalizer, and a
serializer that emits the store's textual form.

Serialization and normalization are deliberately two separate passes over
the same tree, matching the documented design: normalize rewrites property-
name path elements to physical attribute names; serialize walks the
normalized tree allocating tokens and building the textual expression.
*/
package expr

import (
	"strconv"

	"github.com/cuemby/tablemapper/pkg/avalue"
)

// ExpressionAttributes is a placeholder allocator shared by every
// expression serialized for one request. Name and value tokens are drawn
// from a single monotonically increasing counter, so they interleave in
// numbering across calls — an observable part of the wire contract.
type ExpressionAttributes struct {
	counter     int
	names       map[string]string
	values      map[string]avalue.AttributeValue
	nameTokenOf map[string]string
}

// NewExpressionAttributes returns an empty allocator. An
// ExpressionAttributes is single-use: never share one across operations.
func NewExpressionAttributes() *ExpressionAttributes {
	return &ExpressionAttributes{
		names:       make(map[string]string),
		values:      make(map[string]avalue.AttributeValue),
		nameTokenOf: make(map[string]string),
	}
}

// AddName returns the "#attrN" token for path, allocating a fresh one on
// first use and reusing it on every subsequent call for the same path —
// this is what makes serializing the same projection/expression against
// the same ExpressionAttributes idempotent.
func (a *ExpressionAttributes) AddName(path string) string {
	if token, ok := a.nameTokenOf[path]; ok {
		return token
	}
	token := a.nextToken("#attr")
	a.names[token] = path
	a.nameTokenOf[path] = token
	return token
}

// AddValue allocates a fresh ":valN" token and records the attribute value
// it stands for.
func (a *ExpressionAttributes) AddValue(v avalue.AttributeValue) string {
	token := a.nextToken(":val")
	a.values[token] = v
	return token
}

func (a *ExpressionAttributes) nextToken(prefix string) string {
	n := a.counter
	a.counter++
	return prefix + strconv.Itoa(n)
}

// Names returns the accumulated name-token → physical-name mapping, for
// inclusion in a request's ExpressionAttributeNames field.
func (a *ExpressionAttributes) Names() map[string]string {
	return a.names
}

// Values returns the accumulated value-token → attribute-value mapping,
// for inclusion in a request's ExpressionAttributeValues field.
func (a *ExpressionAttributes) Values() map[string]avalue.AttributeValue {
	return a.values
}
