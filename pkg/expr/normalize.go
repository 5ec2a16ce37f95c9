package expr

import "github.com/cuemby/tablemapper/pkg/schema"

// NormalizeCondition rewrites every Path in c via Normalize, recursing
// through Not/And/Or, leaving operand values untouched.
func NormalizeCondition(s schema.Schema, c Condition) Condition {
	out := c
	if len(c.Path) > 0 {
		out.Path = Normalize(s, c.Path)
	}
	if c.Child != nil {
		child := NormalizeCondition(s, *c.Child)
		out.Child = &child
	}
	if len(c.Children) > 0 {
		out.Children = make([]Condition, len(c.Children))
		for i, child := range c.Children {
			out.Children[i] = NormalizeCondition(s, child)
		}
	}
	return out
}

// NormalizeProjection rewrites every path in a Projection.
func NormalizeProjection(s schema.Schema, p Projection) Projection {
	out := make(Projection, len(p))
	for i, path := range p {
		out[i] = Normalize(s, path)
	}
	return out
}

// NormalizeUpdate rewrites every path operand in an Update's clauses
// (including nested Math operands), leaving non-path operands untouched.
func NormalizeUpdate(s schema.Schema, u Update) Update {
	out := Update{
		Sets:    make([]SetClause, len(u.Sets)),
		Removes: make([]Path, len(u.Removes)),
		Adds:    make([]AddClause, len(u.Adds)),
		Deletes: make([]DeleteClause, len(u.Deletes)),
	}
	for i, c := range u.Sets {
		out.Sets[i] = SetClause{Path: Normalize(s, c.Path)}
		if c.Math != nil {
			m := normalizeMath(s, *c.Math)
			out.Sets[i].Math = &m
		} else {
			out.Sets[i].Value = c.Value
		}
	}
	for i, p := range u.Removes {
		out.Removes[i] = Normalize(s, p)
	}
	for i, c := range u.Adds {
		out.Adds[i] = AddClause{Path: Normalize(s, c.Path), Value: c.Value}
	}
	for i, c := range u.Deletes {
		out.Deletes[i] = DeleteClause{Path: Normalize(s, c.Path), Value: c.Value}
	}
	return out
}

func normalizeMath(s schema.Schema, m Math) Math {
	out := m
	if m.LeftIsPath {
		out.LeftPath = Normalize(s, m.LeftPath)
	}
	if m.RightIsPath {
		out.RightPath = Normalize(s, m.RightPath)
	}
	return out
}
