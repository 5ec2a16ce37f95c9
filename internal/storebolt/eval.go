package storebolt

import (
	"strings"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/expr"
	"github.com/cuemby/tablemapper/pkg/store"
)

// resolvePath navigates item by p, returning the attribute value at that
// path and whether it was present.
func resolvePath(item store.Item, p expr.Path) (avalue.AttributeValue, bool) {
	if len(p) == 0 {
		return avalue.AttributeValue{}, false
	}
	cur, ok := item[p[0].Name]
	if !ok {
		return avalue.AttributeValue{}, false
	}
	for _, elem := range p[1:] {
		if elem.IsIndex {
			if elem.Index < 0 || elem.Index >= len(cur.L) {
				return avalue.AttributeValue{}, false
			}
			cur = cur.L[elem.Index]
			continue
		}
		if cur.M == nil {
			return avalue.AttributeValue{}, false
		}
		next, ok := cur.M[elem.Name]
		if !ok {
			return avalue.AttributeValue{}, false
		}
		cur = next
	}
	return cur, true
}

// setPath writes value at p within item, creating intermediate Document
// maps as needed. Only Name-element paths of depth 1 or nested through
// existing/created M maps are supported; a path with a list-index element
// below the top level is not written and setPath returns false.
func setPath(item store.Item, p expr.Path, value avalue.AttributeValue) bool {
	if len(p) == 0 {
		return false
	}
	if len(p) == 1 {
		item[p[0].Name] = value
		return true
	}
	cur, ok := item[p[0].Name]
	if !ok || cur.M == nil {
		cur = avalue.Map(map[string]avalue.AttributeValue{})
	}
	if !setNested(cur.M, p[1:], value) {
		return false
	}
	item[p[0].Name] = cur
	return true
}

func setNested(m map[string]avalue.AttributeValue, p expr.Path, value avalue.AttributeValue) bool {
	elem := p[0]
	if elem.IsIndex {
		return false // updating into a list element by index isn't needed by any spec scenario
	}
	if len(p) == 1 {
		m[elem.Name] = value
		return true
	}
	next, ok := m[elem.Name]
	if !ok || next.M == nil {
		next = avalue.Map(map[string]avalue.AttributeValue{})
	}
	if !setNested(next.M, p[1:], value) {
		return false
	}
	m[elem.Name] = next
	return true
}

func removePath(item store.Item, p expr.Path) {
	if len(p) == 0 {
		return
	}
	if len(p) == 1 {
		delete(item, p[0].Name)
		return
	}
	cur, ok := item[p[0].Name]
	if !ok || cur.M == nil {
		return
	}
	removeNested(cur.M, p[1:])
	item[p[0].Name] = cur
}

func removeNested(m map[string]avalue.AttributeValue, p expr.Path) {
	if len(p) == 1 && !p[0].IsIndex {
		delete(m, p[0].Name)
		return
	}
	if p[0].IsIndex {
		return
	}
	next, ok := m[p[0].Name]
	if !ok || next.M == nil {
		return
	}
	removeNested(next.M, p[1:])
	m[p[0].Name] = next
}

// EvaluateCondition evaluates c against item, the shared logic behind
// ConditionExpression and FilterExpression.
func EvaluateCondition(item store.Item, c expr.Condition) bool {
	switch c.Kind {
	case expr.Equals:
		v, ok := resolvePath(item, c.Path)
		return ok && avalue.Equal(v, c.Value)
	case expr.NotEquals:
		v, ok := resolvePath(item, c.Path)
		return !ok || !avalue.Equal(v, c.Value)
	case expr.LessThan, expr.LessThanOrEqualTo, expr.GreaterThan, expr.GreaterThanOrEqualTo:
		v, ok := resolvePath(item, c.Path)
		if !ok {
			return false
		}
		return compareOrdered(v, c.Value, c.Kind)
	case expr.Between:
		v, ok := resolvePath(item, c.Path)
		if !ok {
			return false
		}
		return compareOrdered(v, c.Value, expr.GreaterThanOrEqualTo) && compareOrdered(v, c.High, expr.LessThanOrEqualTo)
	case expr.Membership:
		v, ok := resolvePath(item, c.Path)
		if !ok {
			return false
		}
		for _, candidate := range c.Values {
			if avalue.Equal(v, candidate) {
				return true
			}
		}
		return false
	case expr.AttributeExists:
		_, ok := resolvePath(item, c.Path)
		return ok
	case expr.AttributeNotExists:
		_, ok := resolvePath(item, c.Path)
		return !ok
	case expr.AttributeType:
		v, ok := resolvePath(item, c.Path)
		if !ok {
			return false
		}
		return attributeTypeCode(v) == *c.Value.S
	case expr.BeginsWith:
		v, ok := resolvePath(item, c.Path)
		if !ok || v.S == nil || c.Value.S == nil {
			return false
		}
		return strings.HasPrefix(*v.S, *c.Value.S)
	case expr.Contains:
		v, ok := resolvePath(item, c.Path)
		if !ok {
			return false
		}
		return valueContains(v, c.Value)
	case expr.Not:
		return !EvaluateCondition(item, *c.Child)
	case expr.And:
		for _, child := range c.Children {
			if !EvaluateCondition(item, child) {
				return false
			}
		}
		return true
	case expr.Or:
		for _, child := range c.Children {
			if EvaluateCondition(item, child) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func compareOrdered(a, b avalue.AttributeValue, kind expr.ConditionKind) bool {
	as, aok := avalue.Scalar(a)
	bs, bok := avalue.Scalar(b)
	if !aok || !bok {
		return false
	}
	var cmp int
	switch {
	case a.N != nil && b.N != nil:
		cmp = compareNumericStrings(as, bs)
	default:
		cmp = strings.Compare(as, bs)
	}
	switch kind {
	case expr.LessThan:
		return cmp < 0
	case expr.LessThanOrEqualTo:
		return cmp <= 0
	case expr.GreaterThan:
		return cmp > 0
	case expr.GreaterThanOrEqualTo:
		return cmp >= 0
	default:
		return false
	}
}

func attributeTypeCode(v avalue.AttributeValue) string {
	switch {
	case v.S != nil:
		return "S"
	case v.N != nil:
		return "N"
	case v.B != nil:
		return "B"
	case v.BOOL != nil:
		return "BOOL"
	case v.NULL:
		return "NULL"
	case v.L != nil:
		return "L"
	case v.M != nil:
		return "M"
	case v.SS != nil:
		return "SS"
	case v.NS != nil:
		return "NS"
	case v.BS != nil:
		return "BS"
	default:
		return ""
	}
}

func valueContains(container, needle avalue.AttributeValue) bool {
	switch {
	case container.S != nil && needle.S != nil:
		return strings.Contains(*container.S, *needle.S)
	case container.SS != nil && needle.S != nil:
		for _, s := range container.SS {
			if s == *needle.S {
				return true
			}
		}
		return false
	case container.NS != nil && needle.N != nil:
		for _, n := range container.NS {
			if n == *needle.N {
				return true
			}
		}
		return false
	case container.L != nil:
		for _, elem := range container.L {
			if avalue.Equal(elem, needle) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ApplyUpdate applies u's clauses to item in place, in SET, REMOVE, ADD,
// DELETE order.
func ApplyUpdate(item store.Item, u expr.Update) {
	for _, c := range u.Sets {
		if c.Math != nil {
			setMathResult(item, c.Path, *c.Math)
			continue
		}
		setPath(item, c.Path, c.Value)
	}
	for _, p := range u.Removes {
		removePath(item, p)
	}
	for _, c := range u.Adds {
		applyAdd(item, c)
	}
	for _, c := range u.Deletes {
		applyDelete(item, c)
	}
}

func setMathResult(item store.Item, path expr.Path, m expr.Math) {
	left := mathOperandValue(item, m.LeftIsPath, m.LeftPath, m.LeftValue)
	right := mathOperandValue(item, m.RightIsPath, m.RightPath, m.RightValue)
	leftN := numericOrZero(left)
	rightN := numericOrZero(right)
	var result float64
	if m.Op == expr.Subtract {
		result = leftN - rightN
	} else {
		result = leftN + rightN
	}
	setPath(item, path, avalue.Num(formatNumber(result)))
}

func mathOperandValue(item store.Item, isPath bool, p expr.Path, v avalue.AttributeValue) avalue.AttributeValue {
	if isPath {
		resolved, _ := resolvePath(item, p)
		return resolved
	}
	return v
}

func applyAdd(item store.Item, c expr.AddClause) {
	existing, ok := resolvePath(item, c.Path)
	if !ok {
		setPath(item, c.Path, c.Value)
		return
	}
	switch {
	case existing.N != nil && c.Value.N != nil:
		sum := numericOrZero(existing) + numericOrZero(c.Value)
		setPath(item, c.Path, avalue.Num(formatNumber(sum)))
	case existing.SS != nil && c.Value.SS != nil:
		setPath(item, c.Path, avalue.StringSet(unionStrings(existing.SS, c.Value.SS)))
	case existing.NS != nil && c.Value.NS != nil:
		setPath(item, c.Path, avalue.NumberSet(unionStrings(existing.NS, c.Value.NS)))
	default:
		setPath(item, c.Path, c.Value)
	}
}

func applyDelete(item store.Item, c expr.DeleteClause) {
	existing, ok := resolvePath(item, c.Path)
	if !ok {
		return
	}
	switch {
	case existing.SS != nil && c.Value.SS != nil:
		setPath(item, c.Path, avalue.StringSet(subtractStrings(existing.SS, c.Value.SS)))
	case existing.NS != nil && c.Value.NS != nil:
		setPath(item, c.Path, avalue.NumberSet(subtractStrings(existing.NS, c.Value.NS)))
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func subtractStrings(a, b []string) []string {
	remove := make(map[string]bool, len(b))
	for _, s := range b {
		remove[s] = true
	}
	var out []string
	for _, s := range a {
		if !remove[s] {
			out = append(out, s)
		}
	}
	return out
}
