package paginate

import (
	"context"

	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/cuemby/tablemapper/pkg/metrics"
	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/cuemby/tablemapper/pkg/store"
)

// page is one raw RPC response, store-agnostic between Query and Scan.
type page struct {
	items            []store.Item
	lastEvaluatedKey store.Item
	count            int
	scannedCount     int
	consumedCapacity *store.ConsumedCapacity
}

// fetchFunc issues one Query or Scan RPC for the next page starting at
// startKey (nil for the first page), clamped to limit items.
type fetchFunc func(ctx context.Context, startKey store.Item, limit int) (*page, error)

// Options carries the ambient telemetry handle and the table/operation
// label used to attribute ConsumedCapacityTotal.
type Options struct {
	Metrics   *metrics.Set
	Table     string
	Operation string // "query" or "scan"
}

func (o Options) metricsOrDefault() *metrics.Set {
	if o.Metrics != nil {
		return o.Metrics
	}
	return metrics.Default()
}

// Iterator wraps one Query or Scan RPC stream (§4.G): a request template
// captured in fetch, and a cursor that advances one unmarshalled item at a
// time. Next and Pages are mutually exclusive: calling Pages disables
// further Next calls.
type Iterator struct {
	schema  schema.Schema
	fetch   fetchFunc
	metrics *metrics.Set
	table   string
	op      string

	pageSize int
	limit    int // 0 means unbounded

	buffer  []store.Item
	nextIdx int

	yielded          int
	scannedCount     int
	consumedCapacity float64

	serverLastKey   store.Item
	lastYieldedKey  store.Item
	initialStartKey store.Item

	exhausted      bool
	fetchedOnce    bool
	pagesRequested bool

	keyProps []string
}

func newIterator(s schema.Schema, pageSize, limit int, fetch fetchFunc, opts Options) *Iterator {
	return &Iterator{
		schema:   s,
		fetch:    fetch,
		metrics:  opts.metricsOrDefault(),
		table:    opts.Table,
		op:       opts.Operation,
		pageSize: pageSize,
		limit:    limit,
		keyProps: schema.GetKeyProperties(s),
	}
}

// NewQuery builds an Iterator over a Query RPC, re-issuing in with an
// advancing ExclusiveStartKey/Limit until the store reports no further
// continuation key.
func NewQuery(client store.Client, in store.QueryInput, s schema.Schema, limit int, opts Options) *Iterator {
	pageSize := in.Limit
	if pageSize <= 0 {
		pageSize = 0
	}
	fetch := func(ctx context.Context, startKey store.Item, pageLimit int) (*page, error) {
		req := in
		req.ExclusiveStartKey = startKey
		req.Limit = pageLimit
		out, err := client.Query(ctx, &req)
		if err != nil {
			return nil, err
		}
		return &page{
			items:            out.Items,
			lastEvaluatedKey: out.LastEvaluatedKey,
			count:            out.Count,
			scannedCount:     out.ScannedCount,
			consumedCapacity: out.ConsumedCapacity,
		}, nil
	}
	return newIterator(s, pageSize, limit, fetch, opts)
}

// NewScan builds an Iterator over one Scan segment analogously to NewQuery.
func NewScan(client store.Client, in store.ScanInput, s schema.Schema, limit int, opts Options) *Iterator {
	return NewScanFrom(client, in, s, limit, nil, opts)
}

// NewScanFrom is NewScan, but seeds the first RPC's ExclusiveStartKey with
// startKey instead of beginning fresh — how pkg/scan resumes one segment
// from a captured scanState entry.
func NewScanFrom(client store.Client, in store.ScanInput, s schema.Schema, limit int, startKey store.Item, opts Options) *Iterator {
	pageSize := in.Limit
	if pageSize <= 0 {
		pageSize = 0
	}
	fetch := func(ctx context.Context, startKey store.Item, pageLimit int) (*page, error) {
		req := in
		req.ExclusiveStartKey = startKey
		req.Limit = pageLimit
		out, err := client.Scan(ctx, &req)
		if err != nil {
			return nil, err
		}
		return &page{
			items:            out.Items,
			lastEvaluatedKey: out.LastEvaluatedKey,
			count:            out.Count,
			scannedCount:     out.ScannedCount,
			consumedCapacity: out.ConsumedCapacity,
		}, nil
	}
	it := newIterator(s, pageSize, limit, fetch, opts)
	it.initialStartKey = startKey
	return it
}

// Next returns the next unmarshalled item, or ok=false once the iterator is
// exhausted or limit has been reached. It panics if Pages has already been
// called on this Iterator, matching the documented "per-item interface
// disabled after pages()" contract.
func (it *Iterator) Next(ctx context.Context) (item map[string]any, ok bool, err error) {
	if it.pagesRequested {
		panic("paginate: Next called after Pages disabled the per-item interface")
	}
	raw, ok, err := it.nextRaw(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	native, err := marshal.UnmarshalItemToMap(it.schema, marshal.Item(raw))
	if err != nil {
		return nil, false, err
	}
	it.yielded++
	it.lastYieldedKey = it.keyOf(raw)
	return native, true, nil
}

func (it *Iterator) nextRaw(ctx context.Context) (store.Item, bool, error) {
	for {
		if it.nextIdx < len(it.buffer) {
			raw := it.buffer[it.nextIdx]
			it.nextIdx++
			return raw, true, nil
		}
		if it.exhausted {
			return nil, false, nil
		}
		if it.limit > 0 && it.yielded >= it.limit {
			it.exhausted = true
			return nil, false, nil
		}
		if err := it.fetchPage(ctx); err != nil {
			return nil, false, err
		}
	}
}

// fetchPage issues one RPC, clamping pageSize to the remaining limit
// budget, and records its accounting onto the iterator and Set.
func (it *Iterator) fetchPage(ctx context.Context) error {
	limit := it.pageSize
	if it.limit > 0 {
		remaining := it.limit - it.yielded
		if limit == 0 || remaining < limit {
			limit = remaining
		}
	}

	startKey := it.initialStartKey
	if it.fetchedOnce {
		startKey = it.serverLastKey
	}

	p, err := it.fetch(ctx, startKey, limit)
	if err != nil {
		return err
	}
	it.fetchedOnce = true
	it.buffer = p.items
	it.nextIdx = 0
	it.serverLastKey = p.lastEvaluatedKey
	it.scannedCount += p.scannedCount
	if p.consumedCapacity != nil {
		it.consumedCapacity += p.consumedCapacity.CapacityUnits
		it.metrics.ConsumedCapacityTotal.WithLabelValues(it.table, it.op).Add(p.consumedCapacity.CapacityUnits)
	}
	it.metrics.BatchRPCsTotal.WithLabelValues(it.op, it.table).Inc()

	if len(p.lastEvaluatedKey) == 0 {
		it.exhausted = true
	}
	return nil
}

func (it *Iterator) keyOf(raw store.Item) store.Item {
	key := make(store.Item, len(it.keyProps))
	for _, name := range it.keyProps {
		if v, ok := raw[name]; ok {
			key[name] = v
		}
	}
	return key
}

// Count is the number of items yielded so far.
func (it *Iterator) Count() int { return it.yielded }

// ScannedCount is the number of items the store scanned server-side to
// produce what was yielded; differs from Count when a filter expression
// drops items.
func (it *Iterator) ScannedCount() int { return it.scannedCount }

// ConsumedCapacity is the sum of ConsumedCapacity across every page fetched
// so far.
func (it *Iterator) ConsumedCapacity() float64 { return it.consumedCapacity }

// LastEvaluatedKey returns the resumable continuation: while a fetched page
// still has unyielded items buffered locally, it is the key of the last
// item actually yielded (resuming from the server's own cursor would skip
// those buffered-but-unconsumed items); once the buffer is drained it is
// the server's own continuation key, or nil once the iterator is
// exhausted.
func (it *Iterator) LastEvaluatedKey() (map[string]any, error) {
	if it.nextIdx < len(it.buffer) {
		if len(it.lastYieldedKey) == 0 {
			return nil, nil
		}
		return marshal.UnmarshalItemToMap(it.schema, marshal.Item(it.lastYieldedKey))
	}
	if it.exhausted {
		return nil, nil
	}
	if len(it.serverLastKey) == 0 {
		return nil, nil
	}
	return marshal.UnmarshalItemToMap(it.schema, marshal.Item(it.serverLastKey))
}

// Pages returns a whole-page view over the same underlying RPC stream and
// disables this Iterator's per-item Next.
func (it *Iterator) Pages() *Pages {
	if it.nextIdx != 0 || it.fetchedOnce {
		panic("paginate: Pages called after Next had already advanced the iterator")
	}
	it.pagesRequested = true
	return &Pages{it: it}
}

// Pages yields whole pages (item arrays) instead of one item at a time.
type Pages struct {
	it *Iterator
}

// Next returns the next whole page of unmarshalled items, or ok=false once
// the underlying iterator is exhausted.
func (p *Pages) Next(ctx context.Context) (items []map[string]any, ok bool, err error) {
	it := p.it
	if it.nextIdx >= len(it.buffer) {
		if it.exhausted {
			return nil, false, nil
		}
		if it.limit > 0 && it.yielded >= it.limit {
			it.exhausted = true
			return nil, false, nil
		}
		if err := it.fetchPage(ctx); err != nil {
			return nil, false, err
		}
		if len(it.buffer) == 0 {
			if it.exhausted {
				return nil, false, nil
			}
			return p.Next(ctx)
		}
	}

	raws := it.buffer[it.nextIdx:]
	it.nextIdx = len(it.buffer)
	out := make([]map[string]any, 0, len(raws))
	for _, raw := range raws {
		native, err := marshal.UnmarshalItemToMap(it.schema, marshal.Item(raw))
		if err != nil {
			return nil, false, err
		}
		out = append(out, native)
		it.yielded++
		it.lastYieldedKey = it.keyOf(raw)
	}
	return out, true, nil
}
