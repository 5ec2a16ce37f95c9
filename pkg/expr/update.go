package expr

import (
	"strings"

	"github.com/cuemby/tablemapper/pkg/avalue"
)

// SetClause is "SET path = value" or "SET path = <math>"; exactly one of
// Value/Math is meaningful, selected by whether Math is non-nil.
type SetClause struct {
	Path  Path
	Value avalue.AttributeValue
	Math  *Math
}

// AddClause is "ADD path value" (value must be a Number or a set).
type AddClause struct {
	Path  Path
	Value avalue.AttributeValue
}

// DeleteClause is "DELETE path value" (removing elements from a set
// attribute; value must be a set).
type DeleteClause struct {
	Path  Path
	Value avalue.AttributeValue
}

// Update is the four disjoint per-attribute operation families: set,
// remove, add, delete.
type Update struct {
	Sets    []SetClause
	Removes []Path
	Adds    []AddClause
	Deletes []DeleteClause
}

// SerializeUpdate renders u's clauses as "SET ... REMOVE ... ADD ...
// DELETE ...", verbs in that fixed order, present only when their clause
// list is non-empty, clauses comma-separated within a verb.
func SerializeUpdate(attrs *ExpressionAttributes, u Update) string {
	var verbs []string

	if len(u.Sets) > 0 {
		clauses := make([]string, len(u.Sets))
		for i, c := range u.Sets {
			path := writePath(attrs, c.Path)
			if c.Math != nil {
				clauses[i] = path + " = " + writeMath(attrs, *c.Math)
			} else {
				clauses[i] = path + " = " + attrs.AddValue(c.Value)
			}
		}
		verbs = append(verbs, "SET "+strings.Join(clauses, ", "))
	}

	if len(u.Removes) > 0 {
		clauses := make([]string, len(u.Removes))
		for i, p := range u.Removes {
			clauses[i] = writePath(attrs, p)
		}
		verbs = append(verbs, "REMOVE "+strings.Join(clauses, ", "))
	}

	if len(u.Adds) > 0 {
		clauses := make([]string, len(u.Adds))
		for i, c := range u.Adds {
			clauses[i] = writePath(attrs, c.Path) + " " + attrs.AddValue(c.Value)
		}
		verbs = append(verbs, "ADD "+strings.Join(clauses, ", "))
	}

	if len(u.Deletes) > 0 {
		clauses := make([]string, len(u.Deletes))
		for i, c := range u.Deletes {
			clauses[i] = writePath(attrs, c.Path) + " " + attrs.AddValue(c.Value)
		}
		verbs = append(verbs, "DELETE "+strings.Join(clauses, ", "))
	}

	return strings.Join(verbs, " ")
}
