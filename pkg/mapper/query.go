package mapper

import (
	"context"
	"sort"

	"github.com/cuemby/tablemapper/pkg/expr"
	"github.com/cuemby/tablemapper/pkg/mapererr"
	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/cuemby/tablemapper/pkg/paginate"
	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/cuemby/tablemapper/pkg/scan"
	"github.com/cuemby/tablemapper/pkg/store"
)

// KeyCondition is a predicate over one key property, built via the
// KeyXxx constructors below. A caller may instead supply a bare literal
// for a property, which Query treats as KeyEquals(literal) — the
// "permissive object form" from §4.I.
type KeyCondition struct {
	kind  expr.ConditionKind
	value any
	high  any
}

func KeyEquals(v any) KeyCondition               { return KeyCondition{kind: expr.Equals, value: v} }
func KeyLessThan(v any) KeyCondition              { return KeyCondition{kind: expr.LessThan, value: v} }
func KeyLessThanOrEqualTo(v any) KeyCondition     { return KeyCondition{kind: expr.LessThanOrEqualTo, value: v} }
func KeyGreaterThan(v any) KeyCondition           { return KeyCondition{kind: expr.GreaterThan, value: v} }
func KeyGreaterThanOrEqualTo(v any) KeyCondition  { return KeyCondition{kind: expr.GreaterThanOrEqualTo, value: v} }
func KeyBetween(low, high any) KeyCondition       { return KeyCondition{kind: expr.Between, value: low, high: high} }
func KeyBeginsWith(prefix string) KeyCondition    { return KeyCondition{kind: expr.BeginsWith, value: prefix} }

func (k KeyCondition) toCondition(path expr.Path, t schema.SchemaType) (expr.Condition, error) {
	val, err := marshal.MarshalValue(t, k.value)
	if err != nil {
		return expr.Condition{}, err
	}
	switch k.kind {
	case expr.Between:
		high, err := marshal.MarshalValue(t, k.high)
		if err != nil {
			return expr.Condition{}, err
		}
		return expr.BetweenCond(path, *val, *high), nil
	case expr.BeginsWith:
		prefix, _ := k.value.(string)
		return expr.BeginsWithCond(path, prefix), nil
	default:
		return expr.Compare(k.kind, path, *val), nil
	}
}

// normalizeKeyConditionInput lowers the permissive {property: literal |
// KeyCondition} object form to an all-KeyCondition map.
func normalizeKeyConditionInput(m map[string]any) map[string]KeyCondition {
	out := make(map[string]KeyCondition, len(m))
	for prop, v := range m {
		if kc, ok := v.(KeyCondition); ok {
			out[prop] = kc
			continue
		}
		out[prop] = KeyEquals(v)
	}
	return out
}

// keyRank orders HASH before RANGE before anything else, matching the
// canonical hash-then-range key-condition rendering order.
func keyRank(role schema.KeyRole) int {
	switch role {
	case schema.HashKey:
		return 0
	case schema.RangeKey:
		return 1
	default:
		return 2
	}
}

// lowerKeyCondition renders kc as a canonical condition tree (§4.I): a
// single-entry map becomes that condition unwrapped, a multi-entry map
// becomes their And, hash key first then range key for a deterministic
// rendering.
func lowerKeyCondition(s schema.Schema, kc map[string]any) (expr.Condition, error) {
	byProp := normalizeKeyConditionInput(kc)
	props := make([]string, 0, len(byProp))
	for p := range byProp {
		props = append(props, p)
	}
	sort.Slice(props, func(i, j int) bool {
		ri, rj := keyRank(s[props[i]].KeyType), keyRank(s[props[j]].KeyType)
		if ri != rj {
			return ri < rj
		}
		return props[i] < props[j]
	})

	conds := make([]expr.Condition, 0, len(props))
	for _, prop := range props {
		t, ok := s[prop]
		if !ok {
			return expr.Condition{}, mapererr.NewInvalidSchema("key condition references unknown property %q", prop)
		}
		c, err := byProp[prop].toCondition(expr.Prop(prop), t)
		if err != nil {
			return expr.Condition{}, err
		}
		conds = append(conds, c)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return expr.AndOf(conds...), nil
}

// QueryInput describes a Query call (§4.I). Table is the unprefixed table
// name; the Mapper's TableNamePrefix is applied automatically.
type QueryInput struct {
	Table            string
	Schema           schema.Schema
	IndexName        string
	KeyCondition     map[string]any
	Filter           *expr.Condition
	Projection       expr.Projection
	Limit            int // total items across pages; 0 = unbounded
	PageSize         int // store-side Limit per RPC; 0 = store default
	ConsistentRead   *bool
	ScanIndexForward *bool
}

// Query lowers in's key condition and delegates to a pkg/paginate
// Iterator.
func (m *Mapper) Query(in QueryInput) (*paginate.Iterator, error) {
	table := m.cfg.TableNamePrefix + in.Table
	cond, err := lowerKeyCondition(in.Schema, in.KeyCondition)
	if err != nil {
		return nil, err
	}

	attrs := expr.NewExpressionAttributes()
	req := store.QueryInput{
		TableName:              table,
		IndexName:              in.IndexName,
		KeyConditionExpression: expr.SerializeCondition(attrs, expr.NormalizeCondition(in.Schema, cond)),
		ConsistentRead:         m.resolveConsistentRead(in.ConsistentRead),
		Limit:                  in.PageSize,
		ScanIndexForward:       true,
	}
	if in.ScanIndexForward != nil {
		req.ScanIndexForward = *in.ScanIndexForward
	}
	if in.Filter != nil {
		req.FilterExpression = expr.SerializeCondition(attrs, expr.NormalizeCondition(in.Schema, *in.Filter))
	}
	if in.Projection != nil {
		req.ProjectionExpression = expr.SerializeProjection(attrs, expr.NormalizeProjection(in.Schema, in.Projection))
	}
	req.ExpressionAttributeNames = attrs.Names()
	req.ExpressionAttributeValues = attrs.Values()

	return paginate.NewQuery(m.cfg.Client, req, in.Schema, in.Limit, paginate.Options{
		Metrics:   m.cfg.Metrics,
		Table:     table,
		Operation: "query",
	}), nil
}

// ScanInput describes a Scan call (§4.I/§4.H).
type ScanInput struct {
	Table          string
	Schema         schema.Schema
	IndexName      string
	Filter         *expr.Condition
	Projection     expr.Projection
	Limit          int
	PageSize       int
	ConsistentRead *bool
}

func (m *Mapper) buildScanRequest(in ScanInput) (store.ScanInput, error) {
	table := m.cfg.TableNamePrefix + in.Table
	attrs := expr.NewExpressionAttributes()
	req := store.ScanInput{
		TableName:      table,
		IndexName:      in.IndexName,
		ConsistentRead: m.resolveConsistentRead(in.ConsistentRead),
		Limit:          in.PageSize,
	}
	if in.Filter != nil {
		req.FilterExpression = expr.SerializeCondition(attrs, expr.NormalizeCondition(in.Schema, *in.Filter))
	}
	if in.Projection != nil {
		req.ProjectionExpression = expr.SerializeProjection(attrs, expr.NormalizeProjection(in.Schema, in.Projection))
	}
	req.ExpressionAttributeNames = attrs.Names()
	req.ExpressionAttributeValues = attrs.Values()
	return req, nil
}

// Scan delegates to a single-segment pkg/paginate Iterator.
func (m *Mapper) Scan(in ScanInput) (*paginate.Iterator, error) {
	req, err := m.buildScanRequest(in)
	if err != nil {
		return nil, err
	}
	return paginate.NewScan(m.cfg.Client, req, in.Schema, in.Limit, paginate.Options{
		Metrics:   m.cfg.Metrics,
		Table:     req.TableName,
		Operation: "scan",
	}), nil
}

// ParallelScan delegates to pkg/scan's segmented coordinator, resuming
// from resume if non-nil (§4.H, §8 scenario 6).
func (m *Mapper) ParallelScan(ctx context.Context, in ScanInput, segments int, resume []scan.SegmentState) (<-chan scan.Result, <-chan error, *scan.Coordinator, error) {
	req, err := m.buildScanRequest(in)
	if err != nil {
		return nil, nil, nil, err
	}
	out, errc, coord := scan.Run(ctx, m.cfg.Client, req, in.Schema, segments, resume, scan.Options{
		Metrics: m.cfg.Metrics,
		Events:  m.cfg.Events,
	})
	return out, errc, coord, nil
}

func (m *Mapper) resolveConsistentRead(override *bool) bool {
	if override != nil {
		return *override
	}
	return m.cfg.ReadConsistency == Strong
}
