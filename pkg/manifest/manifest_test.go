package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: widgets
schema:
  key:
    type: string
    key: hash
  version:
    type: number
    versionAttribute: true
  label:
    type: string
items:
  - key: "w1"
    label: "first"
  - key: "w2"
    label: "second"
`

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_ParsesNameSchemaAndItems(t *testing.T) {
	path := writeManifest(t, sampleYAML)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "widgets", m.Name)
	require.Len(t, m.Items, 2)
	assert.Equal(t, "w1", m.Items[0]["key"])

	s, err := m.Schema()
	require.NoError(t, err)
	assert.Equal(t, schema.String, s["key"].Tag)
	assert.Equal(t, schema.HashKey, s["key"].KeyType)
	assert.True(t, s["version"].VersionAttribute)
}

func TestLoad_MissingNameFails(t *testing.T) {
	path := writeManifest(t, "schema:\n  key:\n    type: string\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSchema_UnsupportedTypeFails(t *testing.T) {
	m := &TableManifest{Name: "t", Schema: map[string]PropertyType{"x": {Tag: "document"}}}
	_, err := m.Schema()
	assert.Error(t, err)
}

func TestSchema_UnsupportedKeyRoleFails(t *testing.T) {
	m := &TableManifest{Name: "t", Schema: map[string]PropertyType{"x": {Tag: "string", Key: "bogus"}}}
	_, err := m.Schema()
	assert.Error(t, err)
}
