package expr

import (
	"strconv"
	"strings"

	"github.com/cuemby/tablemapper/pkg/avalue"
)

// ConditionKind tags which Condition variant is populated.
type ConditionKind int

const (
	Equals ConditionKind = iota
	NotEquals
	LessThan
	LessThanOrEqualTo
	GreaterThan
	GreaterThanOrEqualTo
	Between
	Membership
	AttributeExists
	AttributeNotExists
	AttributeType
	BeginsWith
	Contains
	Not
	And
	Or
)

var comparisonOperator = map[ConditionKind]string{
	Equals:                "=",
	NotEquals:             "<>",
	LessThan:              "<",
	LessThanOrEqualTo:     "<=",
	GreaterThan:           ">",
	GreaterThanOrEqualTo:  ">=",
}

var functionName = map[ConditionKind]string{
	AttributeExists:    "attribute_exists",
	AttributeNotExists: "attribute_not_exists",
	AttributeType:      "attribute_type",
	BeginsWith:         "begins_with",
	Contains:           "contains",
}

// Condition is a tagged-variant expression tree node. Only the fields
// relevant to Kind are meaningful.
//
//   - comparisons (Equals .. GreaterThanOrEqualTo): Path, Value
//   - Between: Path, Value (low), High (high)
//   - Membership: Path, Values
//   - functions (AttributeExists .. Contains): Path, and Value for
//     AttributeType/BeginsWith/Contains (unused by the zero-arg functions)
//   - Not: Child
//   - And, Or: Children
type Condition struct {
	Kind     ConditionKind
	Path     Path
	Value    avalue.AttributeValue
	High     avalue.AttributeValue
	Values   []avalue.AttributeValue
	Child    *Condition
	Children []Condition
}

// Compare builds a comparison condition (Equals .. GreaterThanOrEqualTo).
func Compare(kind ConditionKind, path Path, value avalue.AttributeValue) Condition {
	return Condition{Kind: kind, Path: path, Value: value}
}

// BetweenCond builds a Between condition over [low, high].
func BetweenCond(path Path, low, high avalue.AttributeValue) Condition {
	return Condition{Kind: Between, Path: path, Value: low, High: high}
}

// In builds a Membership (IN) condition.
func In(path Path, values ...avalue.AttributeValue) Condition {
	return Condition{Kind: Membership, Path: path, Values: values}
}

// Exists builds an attribute_exists(path) condition.
func Exists(path Path) Condition { return Condition{Kind: AttributeExists, Path: path} }

// NotExists builds an attribute_not_exists(path) condition.
func NotExists(path Path) Condition { return Condition{Kind: AttributeNotExists, Path: path} }

// TypeOf builds an attribute_type(path, type) condition.
func TypeOf(path Path, typeCode string) Condition {
	return Condition{Kind: AttributeType, Path: path, Value: avalue.Str(typeCode)}
}

// BeginsWithCond builds a begins_with(path, prefix) condition.
func BeginsWithCond(path Path, prefix string) Condition {
	return Condition{Kind: BeginsWith, Path: path, Value: avalue.Str(prefix)}
}

// ContainsCond builds a contains(path, operand) condition.
func ContainsCond(path Path, operand avalue.AttributeValue) Condition {
	return Condition{Kind: Contains, Path: path, Value: operand}
}

// Negate builds a Not condition.
func Negate(c Condition) Condition { return Condition{Kind: Not, Child: &c} }

// AndOf builds an And combinator over children.
func AndOf(children ...Condition) Condition { return Condition{Kind: And, Children: children} }

// OrOf builds an Or combinator over children.
func OrOf(children ...Condition) Condition { return Condition{Kind: Or, Children: children} }

// SerializeCondition walks c, allocating tokens via attrs, and returns the
// store's textual ConditionExpression form.
func SerializeCondition(attrs *ExpressionAttributes, c Condition) string {
	var b strings.Builder
	writeCondition(&b, attrs, c, false)
	return b.String()
}

// writeCondition renders c into b. parenthesizeLeaf makes a comparison,
// BETWEEN or IN leaf wrap itself in parens; every caller in this file
// passes false, since writeCombinator already wraps each And/Or child and
// Not wraps its child.
func writeCondition(b *strings.Builder, attrs *ExpressionAttributes, c Condition, parenthesizeLeaf bool) {
	switch c.Kind {
	case Equals, NotEquals, LessThan, LessThanOrEqualTo, GreaterThan, GreaterThanOrEqualTo:
		rendered := writePath(attrs, c.Path) + " " + comparisonOperator[c.Kind] + " " + attrs.AddValue(c.Value)
		if parenthesizeLeaf {
			b.WriteByte('(')
			b.WriteString(rendered)
			b.WriteByte(')')
		} else {
			b.WriteString(rendered)
		}
	case Between:
		rendered := writePath(attrs, c.Path) + " BETWEEN " + attrs.AddValue(c.Value) + " AND " + attrs.AddValue(c.High)
		if parenthesizeLeaf {
			b.WriteByte('(')
			b.WriteString(rendered)
			b.WriteByte(')')
		} else {
			b.WriteString(rendered)
		}
	case Membership:
		tokens := make([]string, len(c.Values))
		for i, v := range c.Values {
			tokens[i] = attrs.AddValue(v)
		}
		rendered := writePath(attrs, c.Path) + " IN (" + strings.Join(tokens, ", ") + ")"
		if parenthesizeLeaf {
			b.WriteByte('(')
			b.WriteString(rendered)
			b.WriteByte(')')
		} else {
			b.WriteString(rendered)
		}
	case AttributeExists, AttributeNotExists:
		b.WriteString(functionName[c.Kind])
		b.WriteByte('(')
		b.WriteString(writePath(attrs, c.Path))
		b.WriteByte(')')
	case AttributeType, BeginsWith, Contains:
		b.WriteString(functionName[c.Kind])
		b.WriteByte('(')
		b.WriteString(writePath(attrs, c.Path))
		b.WriteString(", ")
		b.WriteString(attrs.AddValue(c.Value))
		b.WriteByte(')')
	case Not:
		b.WriteString("NOT (")
		writeCondition(b, attrs, *c.Child, false)
		b.WriteByte(')')
	case And:
		writeCombinator(b, attrs, "AND", c.Children)
	case Or:
		writeCombinator(b, attrs, "OR", c.Children)
	}
}

func writeCombinator(b *strings.Builder, attrs *ExpressionAttributes, joiner string, children []Condition) {
	for i, child := range children {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(joiner)
			b.WriteByte(' ')
		}
		// A single child still renders parenthesized to preserve precedence
		// on round-trip, matching every other position under And/Or.
		b.WriteByte('(')
		writeCondition(b, attrs, child, false)
		b.WriteByte(')')
	}
}

func writePath(attrs *ExpressionAttributes, p Path) string {
	var b strings.Builder
	for i, elem := range p {
		if elem.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(elem.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(attrs.AddName(elem.Name))
	}
	return b.String()
}
