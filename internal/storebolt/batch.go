package storebolt

import (
	"context"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/tablemapper/pkg/store"
)

// BatchGetItem implements store.Client. MAX_READ_BATCH_SIZE partitioning is
// the caller's (pkg/batch's) responsibility; this backend serves whatever
// RequestItems it is handed in one bbolt transaction.
func (s *Store) BatchGetItem(_ context.Context, in *store.BatchGetItemInput) (*store.BatchGetItemOutput, error) {
	out := &store.BatchGetItemOutput{
		Responses:       make(map[string][]store.Item),
		UnprocessedKeys: make(map[string]store.KeysAndAttributes),
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		for table, req := range in.RequestItems {
			if s.consumeFailure(table) {
				out.UnprocessedKeys[table] = req
				continue
			}
			b, err := s.bucket(tx, table, false)
			if err != nil {
				continue
			}
			for _, key := range req.Keys {
				data := b.Get(encodeKey(key))
				if data == nil {
					continue
				}
				item, err := decodeItem(data)
				if err != nil {
					return err
				}
				out.Responses[table] = append(out.Responses[table], applyProjection(item, req.ProjectionExpression, req.ExpressionAttributeNames))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BatchWriteItem implements store.Client.
func (s *Store) BatchWriteItem(_ context.Context, in *store.BatchWriteItemInput) (*store.BatchWriteItemOutput, error) {
	out := &store.BatchWriteItemOutput{
		UnprocessedItems: make(map[string][]store.WriteRequest),
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		for table, reqs := range in.RequestItems {
			if s.consumeFailure(table) {
				out.UnprocessedItems[table] = reqs
				continue
			}
			b, err := s.bucket(tx, table, true)
			if err != nil {
				return err
			}
			for _, req := range reqs {
				if req.IsDelete {
					if err := b.Delete(encodeKey(req.DeleteKey)); err != nil {
						return err
					}
					continue
				}
				key, err := s.keyOf(table, req.PutItem)
				if err != nil {
					return err
				}
				data, err := encodeItem(req.PutItem)
				if err != nil {
					return err
				}
				if err := b.Put(key, data); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
