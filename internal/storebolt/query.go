package storebolt

import (
	"bytes"
	"context"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/tablemapper/pkg/expr"
	"github.com/cuemby/tablemapper/pkg/store"
)

// Query implements store.Client. This reference backend has no real
// partition structure, so "query" is scan-with-a-mandatory-key-condition:
// every item in the bucket is examined in key order; ScannedCount counts
// items whose KeyConditionExpression matched (the partition's logical scan
// range), Count counts the subset that also passed FilterExpression.
func (s *Store) Query(_ context.Context, in *store.QueryInput) (*store.QueryOutput, error) {
	keyCond, err := ParseCondition(in.KeyConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	var filterCond *expr.Condition
	if in.FilterExpression != "" {
		c, err := ParseCondition(in.FilterExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
		if err != nil {
			return nil, err
		}
		filterCond = &c
	}

	out := &store.QueryOutput{}
	err = s.db.View(func(tx *bolt.Tx) error {
		b, err := s.bucket(tx, in.TableName, false)
		if err != nil {
			return nil
		}
		c := b.Cursor()
		var k, v []byte
		if len(in.ExclusiveStartKey) > 0 {
			startKey, err := s.keyOf(in.TableName, in.ExclusiveStartKey)
			if err != nil {
				return err
			}
			k, v = c.Seek(startKey)
			if k != nil && bytes.Equal(k, startKey) {
				k, v = c.Next()
			}
		} else {
			k, v = c.First()
		}

		var lastKey store.Item
		for ; k != nil; k, v = c.Next() {
			item, err := decodeItem(v)
			if err != nil {
				return err
			}
			if !EvaluateCondition(item, keyCond) {
				continue
			}
			out.ScannedCount++
			itemKey, err := s.keyItemOf(in.TableName, item)
			if err != nil {
				return err
			}
			if filterCond != nil && !EvaluateCondition(item, *filterCond) {
				lastKey = itemKey
				continue
			}
			out.Items = append(out.Items, applyProjection(item, in.ProjectionExpression, in.ExpressionAttributeNames))
			out.Count++
			lastKey = itemKey
			if in.Limit > 0 && out.Count >= in.Limit {
				if next, _ := c.Next(); next != nil {
					out.LastEvaluatedKey = lastKey
				}
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyProjection(item store.Item, projectionExpr string, names map[string]string) store.Item {
	if projectionExpr == "" {
		return item
	}
	paths := parseProjectionPaths(projectionExpr, names)
	out := store.Item{}
	for _, p := range paths {
		if v, ok := resolvePath(item, p); ok {
			setPath(out, p, v)
		}
	}
	return out
}
