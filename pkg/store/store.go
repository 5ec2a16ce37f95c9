/*
Package store declares the Client contract the mapper, batch engine, and
paginated iterators consume (§6): get/put/delete/update on single items,
query and scan, and batch get/write. Everything else — connection pooling,
authentication, retries below the unprocessed-items layer — is out of
scope; a Client implementation owns that.

internal/storebolt ships the one reference implementation, backed by
go.etcd.io/bbolt, used by the mapper's own tests and by cmd/tablemapper.
Production callers are expected to bring their own Client backed by
whatever wide-column store they operate.
*/
package store

import (
	"context"

	"github.com/cuemby/tablemapper/pkg/avalue"
)

// Item is an attribute-name to attribute-value mapping, the wire shape of
// one stored record.
type Item map[string]avalue.AttributeValue

// ConsumedCapacity is an opaque accounting figure a Client may report per
// request; nil means the client does not track capacity.
type ConsumedCapacity struct {
	TableName      string
	CapacityUnits  float64
}

// GetItemInput requests a single item by its primary key.
type GetItemInput struct {
	TableName      string
	Key            Item
	ConsistentRead bool
}

// GetItemOutput carries the found item, if any.
type GetItemOutput struct {
	Item             Item
	ConsumedCapacity *ConsumedCapacity
}

// PutItemInput writes a whole item, optionally conditioned.
type PutItemInput struct {
	TableName                string
	Item                     Item
	ConditionExpression      string
	ExpressionAttributeNames map[string]string
	ExpressionAttributeValues map[string]avalue.AttributeValue
}

// PutItemOutput is empty on success; a failed condition check surfaces as
// a ConditionalCheckFailedError from the Client method, not a field here.
type PutItemOutput struct {
	ConsumedCapacity *ConsumedCapacity
}

// DeleteItemInput deletes a single item by key, optionally conditioned.
type DeleteItemInput struct {
	TableName                 string
	Key                       Item
	ConditionExpression       string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]avalue.AttributeValue
	ReturnOldValues           bool
}

// DeleteItemOutput carries the deleted item's prior attributes when
// ReturnOldValues was requested and the item existed.
type DeleteItemOutput struct {
	Attributes       Item
	ConsumedCapacity *ConsumedCapacity
}

// UpdateItemInput applies an UpdateExpression to one item by key,
// optionally conditioned. Always requests ALL_NEW return values per §4.I.
type UpdateItemInput struct {
	TableName                 string
	Key                       Item
	UpdateExpression          string
	ConditionExpression       string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]avalue.AttributeValue
}

// UpdateItemOutput carries the post-update attributes (ALL_NEW).
type UpdateItemOutput struct {
	Attributes       Item
	ConsumedCapacity *ConsumedCapacity
}

// QueryInput is a paginated key-condition query, optionally against a
// named secondary index.
type QueryInput struct {
	TableName                 string
	IndexName                 string
	KeyConditionExpression    string
	FilterExpression          string
	ProjectionExpression      string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]avalue.AttributeValue
	ExclusiveStartKey         Item
	Limit                     int
	ConsistentRead            bool
	ScanIndexForward          bool
}

// ScanInput is a paginated, optionally segmented full-table scan.
type ScanInput struct {
	TableName                 string
	IndexName                 string
	FilterExpression          string
	ProjectionExpression      string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]avalue.AttributeValue
	ExclusiveStartKey         Item
	Limit                     int
	ConsistentRead            bool
	Segment                   int
	TotalSegments             int
}

// QueryOutput/ScanOutput share the same page shape.
type QueryOutput struct {
	Items             []Item
	LastEvaluatedKey  Item
	Count             int
	ScannedCount      int
	ConsumedCapacity  *ConsumedCapacity
}

type ScanOutput struct {
	Items             []Item
	LastEvaluatedKey  Item
	Count             int
	ScannedCount      int
	ConsumedCapacity  *ConsumedCapacity
}

// KeysAndAttributes is one table's entry within a BatchGetItem request.
type KeysAndAttributes struct {
	Keys                      []Item
	ConsistentRead            bool
	ProjectionExpression      string
	ExpressionAttributeNames  map[string]string
}

// BatchGetItemInput requests items from one or more tables by key.
type BatchGetItemInput struct {
	RequestItems map[string]KeysAndAttributes
}

// BatchGetItemOutput reports the items found per table and the keys the
// server declined to process in this call (throttling).
type BatchGetItemOutput struct {
	Responses        map[string][]Item
	UnprocessedKeys  map[string]KeysAndAttributes
}

// WriteRequest is one put-or-delete entry within a BatchWriteItem request;
// exactly one of PutItem/DeleteKey is set.
type WriteRequest struct {
	PutItem   Item
	DeleteKey Item
	IsDelete  bool
}

// BatchWriteItemInput writes puts and deletes across one or more tables.
type BatchWriteItemInput struct {
	RequestItems map[string][]WriteRequest
}

// BatchWriteItemOutput reports the write requests the server declined to
// process in this call (throttling).
type BatchWriteItemOutput struct {
	UnprocessedItems map[string][]WriteRequest
}

// Client is the store transport contract the mapper's core is built
// against. Implementations are assumed safe for concurrent use: the batch
// engine may have one RPC in flight while throttling waiters for other
// tables are pending.
type Client interface {
	GetItem(ctx context.Context, in *GetItemInput) (*GetItemOutput, error)
	PutItem(ctx context.Context, in *PutItemInput) (*PutItemOutput, error)
	DeleteItem(ctx context.Context, in *DeleteItemInput) (*DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *UpdateItemInput) (*UpdateItemOutput, error)
	Query(ctx context.Context, in *QueryInput) (*QueryOutput, error)
	Scan(ctx context.Context, in *ScanInput) (*ScanOutput, error)
	BatchGetItem(ctx context.Context, in *BatchGetItemInput) (*BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, in *BatchWriteItemInput) (*BatchWriteItemOutput, error)

	// UserAgent returns the client's user-agent string. AppendUserAgent
	// appends a component to it (the mapper calls this once at
	// construction per the "custom user-agent" contract in §6).
	UserAgent() string
	AppendUserAgent(component string)
}

// ConditionalCheckFailedError is returned by PutItem/DeleteItem/UpdateItem
// when ConditionExpression evaluates false against the current item.
type ConditionalCheckFailedError struct {
	TableName string
}

func (e *ConditionalCheckFailedError) Error() string {
	return "conditional check failed on table " + e.TableName
}
