package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cuemby/tablemapper/internal/storebolt"
	"github.com/cuemby/tablemapper/pkg/manifest"
	"github.com/cuemby/tablemapper/pkg/mapper"
	"github.com/cuemby/tablemapper/pkg/schema"
)

// openStore creates dbDir if needed and opens the reference bbolt store.
func openStore(dbDir string) (*storebolt.Store, error) {
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory %s: %w", dbDir, err)
	}
	return storebolt.Open(dbDir)
}

// loadSchema reads schemaPath's manifest and declares table's key
// attributes against st, so PutItem can derive a stable bucket key.
func loadSchema(schemaPath, table string, st *storebolt.Store) (schema.Schema, error) {
	m, err := manifest.Load(schemaPath)
	if err != nil {
		return nil, err
	}
	s, err := m.Schema()
	if err != nil {
		return nil, err
	}
	st.DeclareTable(table, schema.GetKeyProperties(s))
	return s, nil
}

// newFacade wires a mapper.Mapper over client with its defaults.
func newFacade(client *storebolt.Store) *mapper.Mapper {
	return mapper.New(mapper.Config{Client: client})
}

// parseKey parses a comma-separated k=v,k2=v2 key-attribute list, as
// accepted by get/delete's --key flag.
func parseKey(raw string) (map[string]any, error) {
	out := make(map[string]any)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --key entry %q, expected k=v", pair)
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("--key must name at least one attribute")
	}
	return out, nil
}
