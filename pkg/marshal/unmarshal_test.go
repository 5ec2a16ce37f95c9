package marshal

import (
	"testing"
	"time"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalItem_RoundTripsMarshalItem(t *testing.T) {
	s := schema.Schema{
		"id":    {Tag: schema.String},
		"count": {Tag: schema.Number, AttributeName: "c"},
	}
	item, err := MarshalItem(s, FromMap(map[string]any{"id": "w1", "count": 3}))
	require.NoError(t, err)

	out, err := UnmarshalItemToMap(s, item)
	require.NoError(t, err)
	assert.Equal(t, "w1", out["id"])
	assert.Equal(t, "3", out["count"])
}

func TestUnmarshalItem_MissingAttributeOmitted(t *testing.T) {
	s := schema.Schema{"label": {Tag: schema.String}}
	out, err := UnmarshalItemToMap(s, Item{})
	require.NoError(t, err)
	assert.NotContains(t, out, "label")
}

func TestUnmarshalValue_NullAlwaysDecodesToAbsent(t *testing.T) {
	v, err := UnmarshalValue(schema.SchemaType{Tag: schema.String}, avalue.Null())
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestUnmarshalValue_Boolean_WrongAttributeFails(t *testing.T) {
	_, err := UnmarshalValue(schema.SchemaType{Tag: schema.Boolean}, avalue.Str("x"))
	assert.Error(t, err)
}

func TestUnmarshalValue_Date_RoundTripsUnixSeconds(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	marshalled, err := marshalDate(now)
	require.NoError(t, err)

	v, err := UnmarshalValue(schema.SchemaType{Tag: schema.Date}, *marshalled)
	require.NoError(t, err)
	got, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, now.Unix(), got.Unix())
}

func TestUnmarshalValue_Document_UsesValueConstructor(t *testing.T) {
	called := false
	ty := schema.SchemaType{
		Tag: schema.Document,
		Members: schema.Schema{
			"zip": {Tag: schema.String},
		},
		ValueConstructor: func() any {
			called = true
			return make(map[string]any)
		},
	}
	v, err := UnmarshalValue(ty, avalue.Map(map[string]avalue.AttributeValue{"zip": avalue.Str("90210")}))
	require.NoError(t, err)
	assert.True(t, called)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "90210", m["zip"])
}

func TestUnmarshalValue_List_PreservesOrder(t *testing.T) {
	ty := schema.SchemaType{Tag: schema.List, MemberType: &schema.SchemaType{Tag: schema.String}}
	v, err := UnmarshalValue(ty, avalue.List([]avalue.AttributeValue{avalue.Str("a"), avalue.Str("b")}))
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)
}

func TestUnmarshalValue_Set_DecodesEachSetKind(t *testing.T) {
	ss, err := UnmarshalValue(schema.SchemaType{Tag: schema.Set}, avalue.StringSet([]string{"a", "b"}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"a", "b"}, ss)

	ns, err := UnmarshalValue(schema.SchemaType{Tag: schema.Set}, avalue.NumberSet([]string{"1", "2"}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"1", "2"}, ns)
}

func TestUnmarshalValue_Set_NoSetAttributeFails(t *testing.T) {
	_, err := UnmarshalValue(schema.SchemaType{Tag: schema.Set}, avalue.Str("not-a-set"))
	assert.Error(t, err)
}

func TestUnmarshalValue_Custom_DelegatesToUnmarshalFunc(t *testing.T) {
	ty := schema.SchemaType{
		Tag: schema.Custom,
		Custom: schema.CustomMarshaller{
			Unmarshal: func(attr any) (any, error) { return "decoded", nil },
		},
	}
	v, err := UnmarshalValue(ty, avalue.Str("x"))
	require.NoError(t, err)
	assert.Equal(t, "decoded", v)
}
