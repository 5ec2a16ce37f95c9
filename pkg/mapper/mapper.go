package mapper

import (
	"context"
	"fmt"

	"github.com/cuemby/tablemapper/pkg/events"
	"github.com/cuemby/tablemapper/pkg/expr"
	"github.com/cuemby/tablemapper/pkg/mapererr"
	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/cuemby/tablemapper/pkg/metrics"
	"github.com/cuemby/tablemapper/pkg/store"
	"github.com/cuemby/tablemapper/pkg/tlog"
)

// Version is appended to the store client's user agent on construction,
// the "custom user-agent" observable wire contract from §6.
const Version = "0.1.0"

// ReadConsistency selects between eventual and strongly consistent reads.
type ReadConsistency string

const (
	Eventual ReadConsistency = "eventual"
	Strong   ReadConsistency = "strong"
)

// Config configures a Mapper (§3, §6). Client is required; every other
// field has a documented default.
type Config struct {
	Client store.Client

	// ReadConsistency is the default for Get/Query/Scan; "" means Eventual.
	ReadConsistency ReadConsistency

	// SkipVersionCheck, when true, suppresses the version-attribute
	// condition and increment on every operation unless overridden
	// per-call (§4.I step 3).
	SkipVersionCheck bool

	// TableNamePrefix is prepended to every item's TableName().
	TableNamePrefix string

	// Metrics defaults to metrics.Default() when nil.
	Metrics *metrics.Set

	// Events, when non-nil, receives lifecycle notifications alongside
	// the batch engine and scan coordinator.
	Events *events.Broker
}

// Mapper is the data-mapper façade.
type Mapper struct {
	cfg Config
}

// New constructs a Mapper and appends the custom user-agent component to
// cfg.Client.
func New(cfg Config) *Mapper {
	if cfg.ReadConsistency == "" {
		cfg.ReadConsistency = Eventual
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Default()
	}
	if cfg.Client != nil {
		cfg.Client.AppendUserAgent(fmt.Sprintf("dynamodb-data-mapper/%s", Version))
	}
	return &Mapper{cfg: cfg}
}

// ItemOptions carries per-call overrides of Config's defaults.
type ItemOptions struct {
	ConsistentRead   *bool
	SkipVersionCheck *bool
	Condition        *expr.Condition
}

func (m *Mapper) consistentRead(opts ItemOptions) bool {
	return m.resolveConsistentRead(opts.ConsistentRead)
}

func (m *Mapper) skipVersionCheck(opts ItemOptions) bool {
	if opts.SkipVersionCheck != nil {
		return *opts.SkipVersionCheck
	}
	return m.cfg.SkipVersionCheck
}

// Get fetches item's current record. It fails with ItemNotFound (carrying
// the request) when the store reports no item for the key.
func (m *Mapper) Get(ctx context.Context, item Described, opts ItemOptions) (map[string]any, error) {
	s, err := getSchema(item)
	if err != nil {
		return nil, err
	}
	table, err := getTableName(item, m.cfg.TableNamePrefix)
	if err != nil {
		return nil, err
	}
	key, err := marshal.MarshalKey(s, item.Source(), "")
	if err != nil {
		return nil, err
	}

	log := tlog.WithOperation("get_item")
	req := &store.GetItemInput{
		TableName:      table,
		Key:            store.Item(key),
		ConsistentRead: m.consistentRead(opts),
	}
	out, err := m.cfg.Client.GetItem(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("get_item failed")
		return nil, mapererr.NewTransport("get_item", err)
	}
	m.cfg.Metrics.BatchRPCsTotal.WithLabelValues("get_item", table).Inc()
	if out.ConsumedCapacity != nil {
		m.cfg.Metrics.ConsumedCapacityTotal.WithLabelValues(table, "get_item").Add(out.ConsumedCapacity.CapacityUnits)
	}

	if len(out.Item) == 0 {
		return nil, &mapererr.ItemNotFound{Table: table, Request: req}
	}

	native, err := marshal.UnmarshalItemToMap(s, marshal.Item(out.Item))
	if err != nil {
		return nil, err
	}
	if err := populate(item, native); err != nil {
		return nil, err
	}
	return native, nil
}

// Put writes item's full record, synthesizing the version-attribute
// condition per §4.I step 3 and combining it with opts.Condition via And.
func (m *Mapper) Put(ctx context.Context, item Described, opts ItemOptions) (map[string]any, error) {
	s, err := getSchema(item)
	if err != nil {
		return nil, err
	}
	table, err := getTableName(item, m.cfg.TableNamePrefix)
	if err != nil {
		return nil, err
	}

	versionCond, override, err := versionPut(s, item.Source(), m.skipVersionCheck(opts))
	if err != nil {
		return nil, err
	}
	src := item.Source()
	if override != nil {
		src = overriding(src, override)
	}

	full, err := marshal.MarshalItem(s, src)
	if err != nil {
		return nil, err
	}

	cond := combineConditions(versionCond, opts.Condition)
	req := &store.PutItemInput{TableName: table, Item: store.Item(full)}
	if cond != nil {
		attrs := expr.NewExpressionAttributes()
		req.ConditionExpression = expr.SerializeCondition(attrs, expr.NormalizeCondition(s, *cond))
		req.ExpressionAttributeNames = attrs.Names()
		req.ExpressionAttributeValues = attrs.Values()
	}

	log := tlog.WithOperation("put_item")
	out, err := m.cfg.Client.PutItem(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("put_item failed")
		return nil, mapererr.NewTransport("put_item", err)
	}
	m.cfg.Metrics.BatchRPCsTotal.WithLabelValues("put_item", table).Inc()
	if out.ConsumedCapacity != nil {
		m.cfg.Metrics.ConsumedCapacityTotal.WithLabelValues(table, "put_item").Add(out.ConsumedCapacity.CapacityUnits)
	}

	native, err := marshal.UnmarshalItemToMap(s, marshal.Item(full))
	if err != nil {
		return nil, err
	}
	if err := populate(item, native); err != nil {
		return nil, err
	}
	return native, nil
}

// Delete removes item's record. It returns the unmarshalled previous item
// when the store reports one (ALL_OLD, the documented default), or nil,
// nil when there was none.
func (m *Mapper) Delete(ctx context.Context, item Described, opts ItemOptions) (map[string]any, error) {
	s, err := getSchema(item)
	if err != nil {
		return nil, err
	}
	table, err := getTableName(item, m.cfg.TableNamePrefix)
	if err != nil {
		return nil, err
	}
	key, err := marshal.MarshalKey(s, item.Source(), "")
	if err != nil {
		return nil, err
	}

	versionCond, err := versionDelete(s, item.Source(), m.skipVersionCheck(opts))
	if err != nil {
		return nil, err
	}
	cond := combineConditions(versionCond, opts.Condition)

	req := &store.DeleteItemInput{TableName: table, Key: store.Item(key), ReturnOldValues: true}
	if cond != nil {
		attrs := expr.NewExpressionAttributes()
		req.ConditionExpression = expr.SerializeCondition(attrs, expr.NormalizeCondition(s, *cond))
		req.ExpressionAttributeNames = attrs.Names()
		req.ExpressionAttributeValues = attrs.Values()
	}

	log := tlog.WithOperation("delete_item")
	out, err := m.cfg.Client.DeleteItem(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("delete_item failed")
		return nil, mapererr.NewTransport("delete_item", err)
	}
	m.cfg.Metrics.BatchRPCsTotal.WithLabelValues("delete_item", table).Inc()
	if out.ConsumedCapacity != nil {
		m.cfg.Metrics.ConsumedCapacityTotal.WithLabelValues(table, "delete_item").Add(out.ConsumedCapacity.CapacityUnits)
	}

	if len(out.Attributes) == 0 {
		return nil, nil
	}
	native, err := marshal.UnmarshalItemToMap(s, marshal.Item(out.Attributes))
	if err != nil {
		return nil, err
	}
	return native, nil
}

// Update applies u to item's record, splicing in the version-attribute
// SET clause and condition per §4.I step 3. It requests ALL_NEW return
// values and fails with NoReturnedAttributes if the store returns none.
func (m *Mapper) Update(ctx context.Context, item Described, u expr.Update, opts ItemOptions) (map[string]any, error) {
	s, err := getSchema(item)
	if err != nil {
		return nil, err
	}
	table, err := getTableName(item, m.cfg.TableNamePrefix)
	if err != nil {
		return nil, err
	}
	key, err := marshal.MarshalKey(s, item.Source(), "")
	if err != nil {
		return nil, err
	}

	versionCond, versionSet, err := versionUpdate(s, item.Source(), m.skipVersionCheck(opts))
	if err != nil {
		return nil, err
	}
	if versionSet != nil {
		u.Sets = append(append([]expr.SetClause{}, u.Sets...), *versionSet)
	}
	cond := combineConditions(versionCond, opts.Condition)

	attrs := expr.NewExpressionAttributes()
	req := &store.UpdateItemInput{
		TableName:        table,
		Key:              store.Item(key),
		UpdateExpression: expr.SerializeUpdate(attrs, expr.NormalizeUpdate(s, u)),
	}
	if cond != nil {
		req.ConditionExpression = expr.SerializeCondition(attrs, expr.NormalizeCondition(s, *cond))
	}
	req.ExpressionAttributeNames = attrs.Names()
	req.ExpressionAttributeValues = attrs.Values()

	log := tlog.WithOperation("update_item")
	out, err := m.cfg.Client.UpdateItem(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("update_item failed")
		return nil, mapererr.NewTransport("update_item", err)
	}
	m.cfg.Metrics.BatchRPCsTotal.WithLabelValues("update_item", table).Inc()
	if out.ConsumedCapacity != nil {
		m.cfg.Metrics.ConsumedCapacityTotal.WithLabelValues(table, "update_item").Add(out.ConsumedCapacity.CapacityUnits)
	}

	if len(out.Attributes) == 0 {
		return nil, &mapererr.NoReturnedAttributes{Table: table}
	}
	native, err := marshal.UnmarshalItemToMap(s, marshal.Item(out.Attributes))
	if err != nil {
		return nil, err
	}
	if err := populate(item, native); err != nil {
		return nil, err
	}
	return native, nil
}

// combineConditions And's versionCond and callerCond, skipping whichever
// is nil; returns nil if both are.
func combineConditions(versionCond, callerCond *expr.Condition) *expr.Condition {
	switch {
	case versionCond == nil && callerCond == nil:
		return nil
	case versionCond == nil:
		return callerCond
	case callerCond == nil:
		return versionCond
	default:
		c := expr.AndOf(*callerCond, *versionCond)
		return &c
	}
}

// overriding wraps src, substituting the values in over for the
// properties they name.
func overriding(src marshal.ValueSource, over map[string]any) marshal.ValueSource {
	return func(property string) any {
		if v, ok := over[property]; ok {
			return v
		}
		return src(property)
	}
}
