package marshal

import (
	"testing"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalItem_OnlySchemaPropertiesTransmitted(t *testing.T) {
	s := schema.Schema{
		"id":    {Tag: schema.String},
		"label": {Tag: schema.String},
	}
	item, err := MarshalItem(s, FromMap(map[string]any{
		"id":      "w1",
		"label":   "widget",
		"ignored": "not in schema",
	}))
	require.NoError(t, err)
	assert.Len(t, item, 2)
	assert.Equal(t, avalue.Str("w1"), item["id"])
	assert.Equal(t, avalue.Str("widget"), item["label"])
}

func TestMarshalItem_AbsentWithoutDefaultProviderIsOmitted(t *testing.T) {
	s := schema.Schema{"label": {Tag: schema.String}}
	item, err := MarshalItem(s, FromMap(map[string]any{}))
	require.NoError(t, err)
	assert.NotContains(t, item, "label")
}

func TestMarshalItem_AbsentWithDefaultProviderIsFilled(t *testing.T) {
	s := schema.Schema{
		"label": {Tag: schema.String, DefaultProvider: func() any { return "fallback" }},
	}
	item, err := MarshalItem(s, FromMap(map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, avalue.Str("fallback"), item["label"])
}

func TestMarshalItem_PhysicalAttributeNameOverride(t *testing.T) {
	s := schema.Schema{"version": {Tag: schema.Number, AttributeName: "v"}}
	item, err := MarshalItem(s, FromMap(map[string]any{"version": 1}))
	require.NoError(t, err)
	assert.Contains(t, item, "v")
	assert.NotContains(t, item, "version")
}

func TestMarshalKey_OnlyKeyPropertiesIncluded(t *testing.T) {
	s := schema.Schema{
		"id":    {Tag: schema.String, KeyType: schema.HashKey},
		"label": {Tag: schema.String},
	}
	key, err := MarshalKey(s, FromMap(map[string]any{"id": "w1", "label": "widget"}), "")
	require.NoError(t, err)
	assert.Len(t, key, 1)
	assert.Equal(t, avalue.Str("w1"), key["id"])
}

func TestMarshalValue_Number_CoercesNumericTypes(t *testing.T) {
	ty := schema.SchemaType{Tag: schema.Number}
	for _, native := range []any{42, int32(42), int64(42), uint64(42), float32(42), 42.0} {
		v, err := MarshalValue(ty, native)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, "42", *v.N, "native=%v (%T)", native, native)
	}
}

func TestMarshalValue_Number_RejectsNonDecimalString(t *testing.T) {
	_, err := MarshalValue(schema.SchemaType{Tag: schema.Number}, "not-a-number")
	assert.Error(t, err)
}

func TestMarshalValue_String_EmptyBecomesNull(t *testing.T) {
	v, err := MarshalValue(schema.SchemaType{Tag: schema.String}, "")
	require.NoError(t, err)
	assert.True(t, avalue.IsNull(*v))
}

func TestMarshalValue_Binary_EmptyBecomesNull(t *testing.T) {
	v, err := MarshalValue(schema.SchemaType{Tag: schema.Binary}, []byte{})
	require.NoError(t, err)
	assert.True(t, avalue.IsNull(*v))
}

func TestMarshalValue_Boolean_RejectsNonBool(t *testing.T) {
	_, err := MarshalValue(schema.SchemaType{Tag: schema.Boolean}, "true")
	assert.Error(t, err)
}

func TestMarshalValue_Document_NestedMembers(t *testing.T) {
	ty := schema.SchemaType{
		Tag: schema.Document,
		Members: schema.Schema{
			"zip": {Tag: schema.String},
		},
	}
	v, err := MarshalValue(ty, map[string]any{"zip": "90210"})
	require.NoError(t, err)
	require.NotNil(t, v.M)
	assert.Equal(t, avalue.Str("90210"), v.M["zip"])
}

func TestMarshalValue_List_DropsAbsentMembers(t *testing.T) {
	ty := schema.SchemaType{Tag: schema.List, MemberType: &schema.SchemaType{Tag: schema.String}}
	v, err := MarshalValue(ty, []any{"a", Absent, "b"})
	require.NoError(t, err)
	require.Len(t, v.L, 2)
}

func TestMarshalValue_Set_Deduplicates(t *testing.T) {
	ty := schema.SchemaType{Tag: schema.Set, MemberType: &schema.SchemaType{Tag: schema.String}}
	v, err := MarshalValue(ty, []any{"a", "b", "a"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, v.SS)
}

func TestMarshalValue_Set_EmptyBecomesNull(t *testing.T) {
	ty := schema.SchemaType{Tag: schema.Set, MemberType: &schema.SchemaType{Tag: schema.String}}
	v, err := MarshalValue(ty, []any{})
	require.NoError(t, err)
	assert.True(t, avalue.IsNull(*v))
}

func TestMarshalValue_Tuple_PadsMissingTrailingMembers(t *testing.T) {
	ty := schema.SchemaType{
		Tag: schema.Tuple,
		TupleMembers: []schema.SchemaType{
			{Tag: schema.String},
			{Tag: schema.String, DefaultProvider: func() any { return "filled" }},
		},
	}
	v, err := MarshalValue(ty, []any{"only-first"})
	require.NoError(t, err)
	require.Len(t, v.L, 2)
	assert.Equal(t, avalue.Str("only-first"), v.L[0])
	assert.Equal(t, avalue.Str("filled"), v.L[1])
}

func TestMarshalValue_Any_InfersTagFromNativeType(t *testing.T) {
	ty := schema.SchemaType{Tag: schema.Any}
	v, err := MarshalValue(ty, "hi")
	require.NoError(t, err)
	assert.Equal(t, avalue.Str("hi"), *v)
}

func TestMarshalValue_Custom_DelegatesToMarshalFunc(t *testing.T) {
	ty := schema.SchemaType{
		Tag: schema.Custom,
		Custom: schema.CustomMarshaller{
			Marshal: func(native any) (any, error) { return avalue.Str("custom"), nil },
		},
	}
	v, err := MarshalValue(ty, nil)
	require.NoError(t, err)
	assert.Equal(t, avalue.Str("custom"), *v)
}

func TestMarshalValue_UnrecognizedTagFails(t *testing.T) {
	_, err := MarshalValue(schema.SchemaType{Tag: schema.Tag(999)}, "x")
	assert.Error(t, err)
}
