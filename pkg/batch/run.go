package batch

import (
	"context"
	"strconv"
	"time"

	"github.com/cuemby/tablemapper/pkg/events"
	"github.com/cuemby/tablemapper/pkg/expr"
	"github.com/cuemby/tablemapper/pkg/itemkey"
	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/cuemby/tablemapper/pkg/metrics"
	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/cuemby/tablemapper/pkg/store"
	"github.com/cuemby/tablemapper/pkg/tlog"
)

type engine struct {
	client    store.Client
	metrics   *metrics.Set
	events    *events.Broker
	tables    map[string]*tableState
	registry  map[string]*itemkey.Registry // per-table identifier uniqueness
	readyRead []preparedItem
	readyWrt  []preparedItem
	timer     *time.Timer
}

func newEngine(client store.Client, opts Options) *engine {
	return &engine{
		client:   client,
		metrics:  opts.metricsOrDefault(),
		events:   opts.Events,
		tables:   make(map[string]*tableState),
		registry: make(map[string]*itemkey.Registry),
	}
}

// publish is a no-op when no broker was configured.
func (e *engine) publish(typ events.EventType, message string, metadata map[string]string) {
	if e.events == nil {
		return
	}
	e.events.Publish(&events.Event{Type: typ, Message: message, Metadata: metadata})
}

func (e *engine) tableOf(name string) *tableState {
	t, ok := e.tables[name]
	if !ok {
		t = newTableState()
		e.tables[name] = t
	}
	return t
}

func (e *engine) registryOf(name string) *itemkey.Registry {
	r, ok := e.registry[name]
	if !ok {
		r = itemkey.NewRegistry()
		e.registry[name] = r
	}
	return r
}

// enqueue records keyProperties for item's table (once) and routes item to
// the throttled-table's unprocessed queue or the global ready queue.
func (e *engine) enqueue(item preparedItem, ready *[]preparedItem) {
	t := e.tableOf(item.table)
	if t.keyProperties == nil {
		t.keyProperties = schema.GetKeyProperties(item.schema)
	}
	if t.throttled {
		t.unprocessed = append(t.unprocessed, item)
	} else {
		*ready = append(*ready, item)
	}
}

// anyThrottled reports whether any table currently has a pending waiter.
func (e *engine) anyThrottled() bool {
	for _, t := range e.tables {
		if t.throttled {
			return true
		}
	}
	return false
}

// earliestDeadline returns the earliest pending throttling deadline across
// all tables, and whether any exists.
func (e *engine) earliestDeadline() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, t := range e.tables {
		if !t.throttled {
			continue
		}
		if !found || t.deadline.Before(earliest) {
			earliest = t.deadline
			found = true
		}
	}
	return earliest, found
}

// releaseDueTables drains every table whose waiter has fired as of now,
// prepending their unprocessed items back onto the ready queue in
// encounter order.
func (e *engine) releaseDueTables(now time.Time, ready *[]preparedItem) {
	for _, t := range e.tables {
		if t.throttled && !t.deadline.After(now) {
			drained := t.release()
			*ready = append(drained, *ready...)
		}
	}
}

func (e *engine) resetTimer() {
	if e.timer != nil {
		e.timer.Stop()
	}
	deadline, ok := e.earliestDeadline()
	if !ok {
		e.timer = nil
		return
	}
	delay := time.Until(deadline)
	if delay < 0 {
		delay = 0
	}
	e.timer = time.NewTimer(delay)
}

func (e *engine) timerChan() <-chan time.Time {
	if e.timer == nil {
		return nil
	}
	return e.timer.C
}

func (e *engine) runReads(ctx context.Context, in <-chan ReadRequest, out chan<- ReadResult, errc chan<- error) {
	log := tlog.WithOperation("batch_get_item")
	defer close(out)
	defer close(errc)

	inputClosed := false
	type rpcResult struct {
		dispatched []preparedItem
		resp       *store.BatchGetItemOutput
		err        error
	}
	rpcDone := make(chan rpcResult, 1)
	rpcInFlight := false

	for {
		e.resetTimer()
		select {
		case req, ok := <-in:
			if !ok {
				inputClosed = true
				in = nil
				break
			}
			item, err := prepareRead(req)
			if err != nil {
				errc <- err
				return
			}
			if err := e.registryOf(item.table).Observe(item.identifier); err != nil {
				errc <- err
				return
			}
			e.enqueue(item, &e.readyRead)

		case now := <-e.timerChan():
			e.releaseDueTables(now, &e.readyRead)

		case r := <-rpcDone:
			rpcInFlight = false
			if r.err != nil {
				errc <- r.err
				return
			}
			e.handleReadResponse(r.dispatched, r.resp, out)
		}

		if !rpcInFlight && len(e.readyRead) > 0 && (len(e.readyRead) >= MaxReadBatchSize || inputClosed) {
			n := MaxReadBatchSize
			if n > len(e.readyRead) {
				n = len(e.readyRead)
			}
			batchItems := e.readyRead[:n]
			e.readyRead = e.readyRead[n:]
			rpcInFlight = true
			e.countDispatch("batch_get", batchItems)
			log.Debug().Int("items", len(batchItems)).Msg("dispatching batch_get_item")
			go func() {
				req := buildBatchGetRequest(batchItems)
				resp, err := e.client.BatchGetItem(ctx, req)
				rpcDone <- rpcResult{batchItems, resp, err}
			}()
		}

		if inputClosed && len(e.readyRead) == 0 && !rpcInFlight && !e.anyThrottled() {
			return
		}
	}
}

func (e *engine) runWrites(ctx context.Context, in <-chan WriteRequest, out chan<- WriteResult, errc chan<- error) {
	log := tlog.WithOperation("batch_write_item")
	defer close(out)
	defer close(errc)

	inputClosed := false
	type rpcResult struct {
		dispatched []preparedItem
		resp       *store.BatchWriteItemOutput
		err        error
	}
	rpcDone := make(chan rpcResult, 1)
	rpcInFlight := false

	for {
		e.resetTimer()
		select {
		case req, ok := <-in:
			if !ok {
				inputClosed = true
				in = nil
				break
			}
			item, err := prepareWrite(req)
			if err != nil {
				errc <- err
				return
			}
			if err := e.registryOf(item.table).Observe(item.identifier); err != nil {
				errc <- err
				return
			}
			e.enqueue(item, &e.readyWrt)

		case now := <-e.timerChan():
			e.releaseDueTables(now, &e.readyWrt)

		case r := <-rpcDone:
			rpcInFlight = false
			if r.err != nil {
				errc <- r.err
				return
			}
			e.handleWriteResponse(r.dispatched, r.resp, out)
		}

		if !rpcInFlight && len(e.readyWrt) > 0 && (len(e.readyWrt) >= MaxWriteBatchSize || inputClosed) {
			n := MaxWriteBatchSize
			if n > len(e.readyWrt) {
				n = len(e.readyWrt)
			}
			batchItems := e.readyWrt[:n]
			e.readyWrt = e.readyWrt[n:]
			rpcInFlight = true
			e.countDispatch("batch_write", batchItems)
			log.Debug().Int("items", len(batchItems)).Msg("dispatching batch_write_item")
			go func() {
				req := buildBatchWriteRequest(batchItems)
				resp, err := e.client.BatchWriteItem(ctx, req)
				rpcDone <- rpcResult{batchItems, resp, err}
			}()
		}

		if inputClosed && len(e.readyWrt) == 0 && !rpcInFlight && !e.anyThrottled() {
			return
		}
	}
}

func buildBatchGetRequest(items []preparedItem) *store.BatchGetItemInput {
	req := &store.BatchGetItemInput{RequestItems: make(map[string]store.KeysAndAttributes)}
	for _, it := range items {
		entry := req.RequestItems[it.table]
		entry.Keys = append(entry.Keys, store.Item(it.key))
		entry.ConsistentRead = it.consistent
		if len(it.projection) > 0 && entry.ProjectionExpression == "" {
			attrs := expr.NewExpressionAttributes()
			paths := make(expr.Projection, len(it.projection))
			for i, name := range it.projection {
				paths[i] = expr.Prop(name)
			}
			entry.ProjectionExpression = expr.SerializeProjection(attrs, paths)
			entry.ExpressionAttributeNames = attrs.Names()
		}
		req.RequestItems[it.table] = entry
	}
	return req
}

func buildBatchWriteRequest(items []preparedItem) *store.BatchWriteItemInput {
	req := &store.BatchWriteItemInput{RequestItems: make(map[string][]store.WriteRequest)}
	for _, it := range items {
		wr := store.WriteRequest{}
		if it.op == Delete {
			wr.IsDelete = true
			wr.DeleteKey = store.Item(it.key)
		} else {
			wr.PutItem = store.Item(it.full)
		}
		req.RequestItems[it.table] = append(req.RequestItems[it.table], wr)
	}
	return req
}

// countDispatch records one RPC dispatch per table touched by batchItems
// and publishes batch.dispatched.
func (e *engine) countDispatch(operation string, batchItems []preparedItem) {
	perTable := make(map[string]int)
	for _, it := range batchItems {
		perTable[it.table]++
	}
	for table, count := range perTable {
		e.metrics.BatchRPCsTotal.WithLabelValues(operation, table).Inc()
		e.publish(events.EventBatchDispatched, operation+" dispatched for "+table, map[string]string{
			"table":     table,
			"operation": operation,
			"items":     strconv.Itoa(count),
		})
	}
}

// byIdentifier groups dispatched, scoped to one dispatch round, by their
// item-identifier for O(1) lookup against a response.
func byIdentifier(dispatched []preparedItem) map[string]preparedItem {
	m := make(map[string]preparedItem, len(dispatched))
	for _, it := range dispatched {
		m[it.identifier] = it
	}
	return m
}

func (e *engine) handleReadResponse(dispatched []preparedItem, resp *store.BatchGetItemOutput, out chan<- ReadResult) {
	pending := byIdentifier(dispatched)

	for table, items := range resp.Responses {
		t := e.tableOf(table)
		e.recoverTable(table, t)
		for _, attrItem := range items {
			id, err := itemkey.Identifier(marshal.Item(attrItem), t.keyProperties)
			if err != nil {
				e.metrics.MarshalErrorsTotal.WithLabelValues("invalid_value").Inc()
				continue
			}
			prepared, ok := pending[id]
			if !ok {
				continue
			}
			delete(pending, id)
			native, err := marshal.UnmarshalItemToMap(prepared.schema, marshal.Item(attrItem))
			if err != nil {
				e.metrics.MarshalErrorsTotal.WithLabelValues("invalid_value").Inc()
				continue
			}
			e.metrics.BatchItemsTotal.WithLabelValues(table, "processed").Inc()
			out <- ReadResult{Table: table, Item: native}
		}
	}

	byTable := make(map[string][]preparedItem)
	for table, unprocessed := range resp.UnprocessedKeys {
		t := e.tableOf(table)
		for _, key := range unprocessed.Keys {
			id, err := itemkey.Identifier(marshal.Item(key), t.keyProperties)
			if err != nil {
				continue
			}
			if prepared, ok := pending[id]; ok {
				byTable[table] = append(byTable[table], prepared)
				delete(pending, id)
			}
		}
	}
	for table, items := range byTable {
		e.metrics.BatchItemsTotal.WithLabelValues(table, "unprocessed").Add(float64(len(items)))
		e.throttleTable(table, items)
	}
	// Anything still in pending got neither an item back nor listed as
	// unprocessed: the store has no such item. GetItem-style semantics
	// treat that as a valid empty result, not a retry.
}

func (e *engine) handleWriteResponse(dispatched []preparedItem, resp *store.BatchWriteItemOutput, out chan<- WriteResult) {
	pending := byIdentifier(dispatched)

	byTable := make(map[string][]preparedItem)
	for table, unprocessed := range resp.UnprocessedItems {
		t := e.tableOf(table)
		for _, wr := range unprocessed {
			var id string
			var err error
			if wr.IsDelete {
				id, err = itemkey.Identifier(marshal.Item(wr.DeleteKey), t.keyProperties)
			} else {
				id, err = itemkey.Identifier(marshal.Item(wr.PutItem), t.keyProperties)
			}
			if err != nil {
				continue
			}
			if prepared, ok := pending[id]; ok {
				byTable[table] = append(byTable[table], prepared)
				delete(pending, id)
			}
		}
	}
	for table, items := range byTable {
		e.metrics.BatchItemsTotal.WithLabelValues(table, "unprocessed").Add(float64(len(items)))
		e.throttleTable(table, items)
	}

	// Every dispatched item still in pending was durably applied: echo it.
	recovered := make(map[string]bool)
	for _, prepared := range pending {
		if !recovered[prepared.table] {
			e.recoverTable(prepared.table, e.tableOf(prepared.table))
			recovered[prepared.table] = true
		}
		native, err := echoNative(prepared)
		if err != nil {
			e.metrics.MarshalErrorsTotal.WithLabelValues("invalid_value").Inc()
			continue
		}
		e.metrics.BatchItemsTotal.WithLabelValues(prepared.table, "processed").Inc()
		out <- WriteResult{Table: prepared.table, Op: prepared.op, Item: native}
	}
}

// throttleTable installs a waiter on t, evicts any items already sitting in
// the ready queues for table (enqueued before the throttle was observed,
// not yet dispatched) into its unprocessed queue so they aren't sent in the
// next batch RPC, updates the BackoffFactor gauge, and publishes
// table.throttled.
func (e *engine) throttleTable(table string, items []preparedItem) {
	t := e.tableOf(table)
	items = append(items, e.evictReadyForTable(table, &e.readyRead)...)
	items = append(items, e.evictReadyForTable(table, &e.readyWrt)...)
	t.throttle(items)
	e.metrics.BackoffFactor.WithLabelValues(table).Set(float64(t.backoffFactor))
	e.publish(events.EventTableThrottled, table+" throttled", map[string]string{
		"table":          table,
		"backoff_factor": strconv.Itoa(t.backoffFactor),
	})
}

// evictReadyForTable removes every item targeting table from ready,
// preserving the relative order of what remains, and returns the removed
// items in their original order.
func (e *engine) evictReadyForTable(table string, ready *[]preparedItem) []preparedItem {
	kept := (*ready)[:0]
	var evicted []preparedItem
	for _, it := range *ready {
		if it.table == table {
			evicted = append(evicted, it)
		} else {
			kept = append(kept, it)
		}
	}
	*ready = kept
	return evicted
}

// recoverTable decrements t's backoff factor on a successful response,
// updates the BackoffFactor gauge, and publishes table.recovered once the
// factor reaches zero.
func (e *engine) recoverTable(table string, t *tableState) {
	t.recover()
	e.metrics.BackoffFactor.WithLabelValues(table).Set(float64(t.backoffFactor))
	if t.backoffFactor == 0 {
		e.publish(events.EventTableRecovered, table+" recovered", map[string]string{"table": table})
	}
}

func echoNative(p preparedItem) (map[string]any, error) {
	if p.op == Delete {
		return marshal.UnmarshalItemToMap(p.schema, p.key)
	}
	return marshal.UnmarshalItemToMap(p.schema, p.full)
}
