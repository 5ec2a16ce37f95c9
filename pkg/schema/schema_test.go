package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func widgetSchema() Schema {
	return Schema{
		"id":      {Tag: String, KeyType: HashKey},
		"version": {Tag: Number, KeyType: RangeKey, AttributeName: "v"},
		"label":   {Tag: String},
	}
}

func TestIsKey_TablePrimaryKey(t *testing.T) {
	s := widgetSchema()
	assert.True(t, IsKey(s["id"], ""))
	assert.True(t, IsKey(s["version"], ""))
	assert.False(t, IsKey(s["label"], ""))
}

func TestIsKey_SecondaryIndex(t *testing.T) {
	st := SchemaType{Tag: String, IndexKeyConfigurations: map[string]KeyRole{"by-label": HashKey}}
	assert.True(t, IsKey(st, "by-label"))
	assert.False(t, IsKey(st, "other-index"))
	assert.False(t, IsKey(st, ""))
}

func TestAttributeName_DefaultsToPropertyName(t *testing.T) {
	s := widgetSchema()
	assert.Equal(t, "id", AttributeName("id", s["id"]))
	assert.Equal(t, "v", AttributeName("version", s["version"]))
}

func TestGetKeyProperties_SortedPhysicalNames(t *testing.T) {
	s := widgetSchema()
	assert.Equal(t, []string{"id", "v"}, GetKeyProperties(s))
}

func TestGetKeyPropertyNames_SortedPropertyNames(t *testing.T) {
	s := widgetSchema()
	assert.Equal(t, []string{"id", "version"}, GetKeyPropertyNames(s))
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "String", String.String())
	assert.Equal(t, "Number", Number.String())
	assert.Equal(t, "Unknown", Tag(999).String())
}
