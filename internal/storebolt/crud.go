package storebolt

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/store"
)

func decodeItem(data []byte) (store.Item, error) {
	var item store.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("storebolt: decode item: %w", err)
	}
	return item, nil
}

func encodeItem(item store.Item) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("storebolt: encode item: %w", err)
	}
	return data, nil
}

// GetItem implements store.Client.
func (s *Store) GetItem(_ context.Context, in *store.GetItemInput) (*store.GetItemOutput, error) {
	var item store.Item
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := s.bucket(tx, in.TableName, false)
		if err != nil {
			return nil // unknown table reads back as "not found", not an error
		}
		data := b.Get(encodeKey(in.Key))
		if data == nil {
			return nil
		}
		item, err = decodeItem(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &store.GetItemOutput{Item: item}, nil
}

// PutItem implements store.Client.
func (s *Store) PutItem(_ context.Context, in *store.PutItemInput) (*store.PutItemOutput, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.bucket(tx, in.TableName, true)
		if err != nil {
			return err
		}
		key, err := s.keyOf(in.TableName, in.Item)
		if err != nil {
			return err
		}
		if in.ConditionExpression != "" {
			if err := checkCondition(b, key, in.TableName, in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues); err != nil {
				return err
			}
		}
		data, err := encodeItem(in.Item)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
	if err != nil {
		return nil, err
	}
	return &store.PutItemOutput{}, nil
}

// DeleteItem implements store.Client.
func (s *Store) DeleteItem(_ context.Context, in *store.DeleteItemInput) (*store.DeleteItemOutput, error) {
	out := &store.DeleteItemOutput{}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.bucket(tx, in.TableName, true)
		if err != nil {
			return err
		}
		key := encodeKey(in.Key)
		if in.ConditionExpression != "" {
			if err := checkCondition(b, key, in.TableName, in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues); err != nil {
				return err
			}
		}
		data := b.Get(key)
		if data != nil && in.ReturnOldValues {
			prior, err := decodeItem(data)
			if err != nil {
				return err
			}
			out.Attributes = prior
		}
		return b.Delete(key)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateItem implements store.Client.
func (s *Store) UpdateItem(_ context.Context, in *store.UpdateItemInput) (*store.UpdateItemOutput, error) {
	out := &store.UpdateItemOutput{}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.bucket(tx, in.TableName, true)
		if err != nil {
			return err
		}
		key := encodeKey(in.Key)
		if in.ConditionExpression != "" {
			if err := checkCondition(b, key, in.TableName, in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues); err != nil {
				return err
			}
		}

		item := store.Item{}
		if data := b.Get(key); data != nil {
			decoded, err := decodeItem(data)
			if err != nil {
				return err
			}
			item = decoded
		} else {
			for name, v := range in.Key {
				item[name] = v
			}
		}

		u, err := ParseUpdate(in.UpdateExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
		if err != nil {
			return err
		}
		ApplyUpdate(item, u)

		data, err := encodeItem(item)
		if err != nil {
			return err
		}
		if err := b.Put(key, data); err != nil {
			return err
		}
		out.Attributes = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkCondition evaluates a ConditionExpression against the item
// currently stored at key (absent items evaluate against an empty item,
// so attribute_not_exists(x) holds), returning
// store.ConditionalCheckFailedError on failure.
func checkCondition(b *bolt.Bucket, key []byte, table, conditionExpr string, names map[string]string, values map[string]avalue.AttributeValue) error {
	item := store.Item{}
	if data := b.Get(key); data != nil {
		decoded, err := decodeItem(data)
		if err != nil {
			return err
		}
		item = decoded
	}
	cond, err := ParseCondition(conditionExpr, names, values)
	if err != nil {
		return err
	}
	if !EvaluateCondition(item, cond) {
		return &store.ConditionalCheckFailedError{TableName: table}
	}
	return nil
}
