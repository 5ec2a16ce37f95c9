package batch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/cuemby/tablemapper/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idSchema() schema.Schema {
	return schema.Schema{
		"ID": schema.SchemaType{Tag: schema.String, KeyType: schema.HashKey},
	}
}

// fakeClient is a minimal store.Client that only implements the two batch
// RPCs the engine calls; every other method panics if exercised.
type fakeClient struct {
	mu         sync.Mutex
	getCalls   int
	writeCalls int

	// onGet/onWrite let a test script per-call behavior (e.g. return some
	// keys as unprocessed on the first N calls).
	onGet   func(call int, in *store.BatchGetItemInput) *store.BatchGetItemOutput
	onWrite func(call int, in *store.BatchWriteItemInput) *store.BatchWriteItemOutput
}

func (f *fakeClient) BatchGetItem(ctx context.Context, in *store.BatchGetItemInput) (*store.BatchGetItemOutput, error) {
	f.mu.Lock()
	f.getCalls++
	call := f.getCalls
	f.mu.Unlock()
	return f.onGet(call, in), nil
}

func (f *fakeClient) BatchWriteItem(ctx context.Context, in *store.BatchWriteItemInput) (*store.BatchWriteItemOutput, error) {
	f.mu.Lock()
	f.writeCalls++
	call := f.writeCalls
	f.mu.Unlock()
	return f.onWrite(call, in), nil
}

func (f *fakeClient) GetItem(ctx context.Context, in *store.GetItemInput) (*store.GetItemOutput, error) {
	panic("not used")
}
func (f *fakeClient) PutItem(ctx context.Context, in *store.PutItemInput) (*store.PutItemOutput, error) {
	panic("not used")
}
func (f *fakeClient) DeleteItem(ctx context.Context, in *store.DeleteItemInput) (*store.DeleteItemOutput, error) {
	panic("not used")
}
func (f *fakeClient) UpdateItem(ctx context.Context, in *store.UpdateItemInput) (*store.UpdateItemOutput, error) {
	panic("not used")
}
func (f *fakeClient) Query(ctx context.Context, in *store.QueryInput) (*store.QueryOutput, error) {
	panic("not used")
}
func (f *fakeClient) Scan(ctx context.Context, in *store.ScanInput) (*store.ScanOutput, error) {
	panic("not used")
}
func (f *fakeClient) UserAgent() string      { return "test" }
func (f *fakeClient) AppendUserAgent(string) {}

// TestRunReads_PartitionsIntoMaxSizeBatches covers the documented scenario
// of 325 reads against one table resolving in four BatchGetItem calls
// (100/100/100/25), every item answered on its first round.
func TestRunReads_PartitionsIntoMaxSizeBatches(t *testing.T) {
	const total = 325
	client := &fakeClient{
		onGet: func(call int, in *store.BatchGetItemInput) *store.BatchGetItemOutput {
			entry := in.RequestItems["widgets"]
			items := make([]store.Item, len(entry.Keys))
			for i, k := range entry.Keys {
				items[i] = k
			}
			return &store.BatchGetItemOutput{Responses: map[string][]store.Item{"widgets": items}}
		},
	}

	in := make(chan ReadRequest, total)
	for i := 0; i < total; i++ {
		in <- ReadRequest{
			Table:  "widgets",
			Schema: idSchema(),
			Source: marshal.FromMap(map[string]any{"ID": fmt.Sprintf("item-%d", i)}),
		}
	}
	close(in)

	out, errc := RunReads(context.Background(), client, in, Options{})

	count := 0
	for range out {
		count++
	}
	require.NoError(t, <-errc)
	assert.Equal(t, total, count)
	assert.Equal(t, 4, client.getCalls)
}

// TestRunWrites_RetriesUnprocessedUntilDrained covers the documented
// scenario of 80 puts where keys 24, 42, and 60 (by insertion index) come
// back unprocessed the first time each is sent and succeed on retry.
func TestRunWrites_RetriesUnprocessedUntilDrained(t *testing.T) {
	const total = 80
	unprocessedIdx := map[string]bool{
		"item-24": true,
		"item-42": true,
		"item-60": true,
	}

	failed := make(map[string]bool)
	client := &fakeClient{
		onWrite: func(call int, in *store.BatchWriteItemInput) *store.BatchWriteItemOutput {
			reqs := in.RequestItems["widgets"]
			out := &store.BatchWriteItemOutput{UnprocessedItems: map[string][]store.WriteRequest{}}
			var unprocessed []store.WriteRequest
			for _, wr := range reqs {
				id, _ := avalue.Scalar(wr.PutItem["ID"])
				if unprocessedIdx[id] && !failed[id] {
					failed[id] = true
					unprocessed = append(unprocessed, wr)
				}
			}
			if len(unprocessed) > 0 {
				out.UnprocessedItems["widgets"] = unprocessed
			}
			return out
		},
	}

	in := make(chan WriteRequest, total)
	for i := 0; i < total; i++ {
		in <- WriteRequest{
			Table:  "widgets",
			Schema: idSchema(),
			Op:     Put,
			Source: marshal.FromMap(map[string]any{"ID": fmt.Sprintf("item-%d", i)}),
		}
	}
	close(in)

	out, errc := RunWrites(context.Background(), client, in, Options{})

	seen := make(map[string]bool)
	for r := range out {
		seen[r.Item["ID"].(string)] = true
	}
	require.NoError(t, <-errc)
	assert.Len(t, seen, total)
	assert.Len(t, failed, 3)
	assert.GreaterOrEqual(t, client.writeCalls, 2, "unprocessed items must force a retry round")
}

// TestRunReads_EmptyInputClosesImmediately exercises the empty-stream edge
// case: no batch is ever dispatched.
func TestRunReads_EmptyInputClosesImmediately(t *testing.T) {
	client := &fakeClient{
		onGet: func(call int, in *store.BatchGetItemInput) *store.BatchGetItemOutput {
			t.Fatal("BatchGetItem should not be called for an empty input stream")
			return nil
		},
	}
	in := make(chan ReadRequest)
	close(in)

	out, errc := RunReads(context.Background(), client, in, Options{})
	for range out {
		t.Fatal("expected no results")
	}
	require.NoError(t, <-errc)
	assert.Equal(t, 0, client.getCalls)
}

// TestThrottleTable_EvictsStillReadyItemsForThatTableOnly covers a
// multi-table scenario: widgets is newly throttled while gadgets items sit
// alongside it in both ready queues. The still-ready widgets items must
// move into widgets' unprocessed queue rather than remain eligible for the
// next dispatch; gadgets' ready items must be untouched.
func TestThrottleTable_EvictsStillReadyItemsForThatTableOnly(t *testing.T) {
	e := newEngine(&fakeClient{}, Options{})
	e.readyWrt = []preparedItem{
		{table: "widgets", identifier: "w1"},
		{table: "gadgets", identifier: "g1"},
		{table: "widgets", identifier: "w2"},
	}
	e.readyRead = []preparedItem{
		{table: "widgets", identifier: "w3"},
		{table: "gadgets", identifier: "g2"},
	}

	e.throttleTable("widgets", []preparedItem{{table: "widgets", identifier: "w0"}})

	assert.Equal(t, []preparedItem{{table: "gadgets", identifier: "g1"}}, e.readyWrt)
	assert.Equal(t, []preparedItem{{table: "gadgets", identifier: "g2"}}, e.readyRead)

	widgets, ok := e.tables["widgets"]
	require.True(t, ok)
	require.True(t, widgets.throttled)
	ids := make([]string, len(widgets.unprocessed))
	for i, it := range widgets.unprocessed {
		ids[i] = it.identifier
	}
	assert.ElementsMatch(t, []string{"w0", "w1", "w2", "w3"}, ids)
}

// TestRunReads_NotFoundIsNotARetry confirms an item absent from both
// Responses and UnprocessedKeys resolves as "no result", not a retry.
func TestRunReads_NotFoundIsNotARetry(t *testing.T) {
	client := &fakeClient{
		onGet: func(call int, in *store.BatchGetItemInput) *store.BatchGetItemOutput {
			return &store.BatchGetItemOutput{Responses: map[string][]store.Item{}}
		},
	}
	in := make(chan ReadRequest, 1)
	in <- ReadRequest{Table: "widgets", Schema: idSchema(), Source: marshal.FromMap(map[string]any{"ID": "missing"})}
	close(in)

	out, errc := RunReads(context.Background(), client, in, Options{})
	count := 0
	for range out {
		count++
	}
	require.NoError(t, <-errc)
	assert.Equal(t, 0, count)
	assert.Equal(t, 1, client.getCalls)
}
