package mapper

import (
	"github.com/cuemby/tablemapper/pkg/mapererr"
	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/cuemby/tablemapper/pkg/schema"
)

// Described is the item metadata protocol (§6, §9): a type-erased handle
// every item type implements so the mapper can marshal/unmarshal
// heterogeneous tables without reflection. Schema and TableName are the
// item's two well-known metadata keys; Source reads the item's own
// property values.
type Described interface {
	Schema() schema.Schema
	TableName() string
	Source() marshal.ValueSource
}

// Populatable is an optional extension of Described. When an item passed
// to Get/Put/Update/Delete also implements it, the façade calls Populate
// with the unmarshalled response so the caller's own value is hydrated in
// place — the "returned value is an instance of the same type as the
// input" requirement realized without reflection.
type Populatable interface {
	Described
	Populate(native map[string]any) error
}

// MapItem is the common-case Described: a plain map[string]any paired
// with its Schema and table name, for callers (the CLI, manifest loader,
// tests) that don't define a dedicated Go type per table.
type MapItem struct {
	ItemSchema schema.Schema
	Table      string
	Data       map[string]any
}

func (m MapItem) Schema() schema.Schema      { return m.ItemSchema }
func (m MapItem) TableName() string          { return m.Table }
func (m MapItem) Source() marshal.ValueSource { return marshal.FromMap(m.Data) }

// Populate overwrites m.Data with native, so a *MapItem passed by pointer
// round-trips through Populatable like any other item type.
func (m *MapItem) Populate(native map[string]any) error {
	m.Data = native
	return nil
}

// getSchema recovers item's schema or fails with a ProtocolViolation
// (§6's getSchema(item) helper).
func getSchema(item Described) (schema.Schema, error) {
	s := item.Schema()
	if s == nil {
		return nil, mapererr.NewProtocolViolation("item exposes no schema")
	}
	return s, nil
}

// getTableName recovers item's table name, prefixed, or fails with a
// ProtocolViolation (§6's getTableName(item, prefix) helper).
func getTableName(item Described, prefix string) (string, error) {
	name := item.TableName()
	if name == "" {
		return "", mapererr.NewProtocolViolation("item exposes no table name")
	}
	return prefix + name, nil
}

func populate(item Described, native map[string]any) error {
	if p, ok := item.(Populatable); ok {
		return p.Populate(native)
	}
	return nil
}
