package storebolt

import (
	"bytes"
	"context"
	"hash/fnv"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/tablemapper/pkg/expr"
	"github.com/cuemby/tablemapper/pkg/store"
)

// Scan implements store.Client. Segmentation assigns each stored item to
// exactly one of TotalSegments by hashing its encoded key, so a parallel
// scan's segments partition the table deterministically and exhaustively
// without requiring bbolt itself to understand segments.
func (s *Store) Scan(_ context.Context, in *store.ScanInput) (*store.ScanOutput, error) {
	var filterCond *expr.Condition
	if in.FilterExpression != "" {
		c, err := ParseCondition(in.FilterExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
		if err != nil {
			return nil, err
		}
		filterCond = &c
	}

	out := &store.ScanOutput{}
	err := s.db.View(func(tx *bolt.Tx) error {
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
			if in.TotalSegments > 1 && segmentOf(k, in.TotalSegments) != in.Segment {
				continue
			}
			item, err := decodeItem(v)
			if err != nil {
				return err
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
				if hasMoreInSegment(c, in.Segment, in.TotalSegments) {
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

func segmentOf(key []byte, totalSegments int) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32() % uint32(totalSegments))
}

func hasMoreInSegment(c *bolt.Cursor, segment, totalSegments int) bool {
	for k, _ := c.Next(); k != nil; k, _ = c.Next() {
		if totalSegments <= 1 || segmentOf(k, totalSegments) == segment {
			return true
		}
	}
	return false
}
