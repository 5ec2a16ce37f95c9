package expr

import "strings"

// Projection is a sequence of attribute paths, the ProjectionExpression
// family.
type Projection []Path

// SerializeProjection renders p as a comma-separated list of paths,
// allocating a name token per path component via attrs.
func SerializeProjection(attrs *ExpressionAttributes, p Projection) string {
	parts := make([]string, len(p))
	for i, path := range p {
		parts[i] = writePath(attrs, path)
	}
	return strings.Join(parts, ", ")
}
