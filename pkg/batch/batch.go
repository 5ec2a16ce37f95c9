package batch

import (
	"context"

	"github.com/cuemby/tablemapper/pkg/events"
	"github.com/cuemby/tablemapper/pkg/itemkey"
	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/cuemby/tablemapper/pkg/metrics"
	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/cuemby/tablemapper/pkg/store"
)

// Options carries the ambient telemetry handles threaded through a batch
// run. A zero Options is valid: Metrics defaults to metrics.Default() and
// a nil Events broker is simply never published to.
type Options struct {
	Metrics *metrics.Set
	Events  *events.Broker
}

func (o Options) metricsOrDefault() *metrics.Set {
	if o.Metrics != nil {
		return o.Metrics
	}
	return metrics.Default()
}

// MaxReadBatchSize and MaxWriteBatchSize are the store's hard per-RPC
// item limits (§4.F).
const (
	MaxReadBatchSize  = 100
	MaxWriteBatchSize = 25
)

// WriteOp distinguishes a batch write element's kind.
type WriteOp int

const (
	Put WriteOp = iota
	Delete
)

// ReadRequest is one element of a batch-get input stream: an item whose
// key will be extracted.
type ReadRequest struct {
	Table          string
	Schema         schema.Schema
	Source         marshal.ValueSource
	ConsistentRead bool
	Projection     []string // physical attribute names, or nil for none
}

// WriteRequest is one element of a batch-write input stream.
type WriteRequest struct {
	Table  string
	Schema schema.Schema
	Op     WriteOp
	Source marshal.ValueSource
}

// ReadResult is one successfully processed read, unmarshalled.
type ReadResult struct {
	Table string
	Item  map[string]any
}

// WriteResult is one successfully processed write, echoing what was
// originally submitted.
type WriteResult struct {
	Table string
	Op    WriteOp
	Item  map[string]any
}

// preparedItem is one table-scoped element after marshalling, queued on
// either the ready or unprocessed queue.
type preparedItem struct {
	table      string
	identifier string
	key        marshal.Item // key-only; used for reads and write-deletes
	full       marshal.Item // full item; used for write-puts
	schema     schema.Schema
	op         WriteOp
	projection []string
	consistent bool
}

func prepareRead(req ReadRequest) (preparedItem, error) {
	key, err := marshal.MarshalKey(req.Schema, req.Source, "")
	if err != nil {
		return preparedItem{}, err
	}
	id, err := itemkey.Identifier(key, schema.GetKeyProperties(req.Schema))
	if err != nil {
		return preparedItem{}, err
	}
	return preparedItem{
		table:      req.Table,
		identifier: id,
		key:        key,
		schema:     req.Schema,
		projection: req.Projection,
		consistent: req.ConsistentRead,
	}, nil
}

func prepareWrite(req WriteRequest) (preparedItem, error) {
	key, err := marshal.MarshalKey(req.Schema, req.Source, "")
	if err != nil {
		return preparedItem{}, err
	}
	id, err := itemkey.Identifier(key, schema.GetKeyProperties(req.Schema))
	if err != nil {
		return preparedItem{}, err
	}
	p := preparedItem{
		table:      req.Table,
		identifier: id,
		key:        key,
		schema:     req.Schema,
		op:         req.Op,
	}
	if req.Op == Put {
		full, err := marshal.MarshalItem(req.Schema, req.Source)
		if err != nil {
			return preparedItem{}, err
		}
		p.full = full
	}
	return p, nil
}

// RunReads drives a batch-get operation: consumes in, emits ReadResult on
// the returned channel, and reports a terminal transport error (if any) on
// the error channel, closing both when the input is exhausted and every
// table has drained its unprocessed queue.
func RunReads(ctx context.Context, client store.Client, in <-chan ReadRequest, opts Options) (<-chan ReadResult, <-chan error) {
	out := make(chan ReadResult)
	errc := make(chan error, 1)
	eng := newEngine(client, opts)
	go eng.runReads(ctx, in, out, errc)
	return out, errc
}

// RunWrites drives a batch-write operation analogously to RunReads.
func RunWrites(ctx context.Context, client store.Client, in <-chan WriteRequest, opts Options) (<-chan WriteResult, <-chan error) {
	out := make(chan WriteResult)
	errc := make(chan error, 1)
	eng := newEngine(client, opts)
	go eng.runWrites(ctx, in, out, errc)
	return out, errc
}
