/*
Package manifest loads the YAML table/item manifest consumed by
cmd/tablemapper's batch-load subcommand, so a demo run can be seeded
without hand-writing Go structs. It is grounded on the teacher's
cmd/warren/apply.go WarrenResource shape (apiVersion/kind/metadata/spec,
parsed with gopkg.in/yaml.v3) collapsed to the one Kind this module cares
about: a table manifest.
*/
package manifest

import (
	"fmt"
	"os"

	"github.com/cuemby/tablemapper/pkg/mapererr"
	"github.com/cuemby/tablemapper/pkg/schema"
	"gopkg.in/yaml.v3"
)

// TableManifest is the YAML document batch-load (and put's single-item
// variant) reads: a table's schema plus the item(s) to write. Items holds
// a batch-load's inline list; Item holds put's single item. A manifest
// used only to describe a schema (get/delete/scan's --schema flag) sets
// neither.
type TableManifest struct {
	Name   string                  `yaml:"name"`
	Schema map[string]PropertyType `yaml:"schema"`
	Items  []map[string]any        `yaml:"items,omitempty"`
	Item   map[string]any          `yaml:"item,omitempty"`
}

// PropertyType is the YAML description of one schema.SchemaType. Only the
// scalar tags (String, Number, Boolean, Binary) are supported; Document,
// List, Set and friends need a Go value constructor and so have no
// sensible YAML spelling for this demo loader.
type PropertyType struct {
	Tag              string `yaml:"type"`
	Key              string `yaml:"key,omitempty"`
	VersionAttribute bool   `yaml:"versionAttribute,omitempty"`
	AttributeName    string `yaml:"attributeName,omitempty"`
}

var tagByName = map[string]schema.Tag{
	"string":  schema.String,
	"number":  schema.Number,
	"boolean": schema.Boolean,
	"binary":  schema.Binary,
}

func (p PropertyType) toSchemaType() (schema.SchemaType, error) {
	tag, ok := tagByName[p.Tag]
	if !ok {
		return schema.SchemaType{}, mapererr.NewInvalidSchema("manifest: unsupported property type %q", p.Tag)
	}
	t := schema.SchemaType{Tag: tag, AttributeName: p.AttributeName, VersionAttribute: p.VersionAttribute}
	switch p.Key {
	case "", "none":
	case "hash", "HASH":
		t.KeyType = schema.HashKey
	case "range", "RANGE":
		t.KeyType = schema.RangeKey
	default:
		return schema.SchemaType{}, mapererr.NewInvalidSchema("manifest: unsupported key role %q", p.Key)
	}
	return t, nil
}

// Schema converts m's YAML schema description to a schema.Schema.
func (m *TableManifest) Schema() (schema.Schema, error) {
	out := make(schema.Schema, len(m.Schema))
	for prop, pt := range m.Schema {
		st, err := pt.toSchemaType()
		if err != nil {
			return nil, err
		}
		out[prop] = st
	}
	return out, nil
}

// Load reads and parses the table manifest at path.
func Load(path string) (*TableManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var m TableManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	if m.Name == "" {
		return nil, mapererr.NewInvalidSchema("manifest: %s: missing name", path)
	}
	return &m, nil
}
