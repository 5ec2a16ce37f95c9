package expr

import (
	"testing"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func widgetSchema() schema.Schema {
	return schema.Schema{
		"snap": {Tag: schema.String, AttributeName: "s"},
		"pop":  {Tag: schema.Number, AttributeName: "p"},
	}
}

func TestNormalizeCondition_RewritesLeafPath(t *testing.T) {
	s := widgetSchema()
	out := NormalizeCondition(s, Compare(Equals, Prop("snap"), avalue.Str("crackle")))
	assert.Equal(t, Path{{Name: "s"}}, out.Path)
}

func TestNormalizeCondition_RecursesIntoNot(t *testing.T) {
	s := widgetSchema()
	out := NormalizeCondition(s, Negate(Exists(Prop("snap"))))
	assert.Equal(t, Path{{Name: "s"}}, out.Child.Path)
}

func TestNormalizeCondition_RecursesIntoAndChildren(t *testing.T) {
	s := widgetSchema()
	out := NormalizeCondition(s, AndOf(
		Compare(Equals, Prop("snap"), avalue.Str("crackle")),
		Compare(Equals, Prop("pop"), avalue.Num("10")),
	))
	assert.Equal(t, Path{{Name: "s"}}, out.Children[0].Path)
	assert.Equal(t, Path{{Name: "p"}}, out.Children[1].Path)
}

func TestNormalizeCondition_LeavesValuesUntouched(t *testing.T) {
	s := widgetSchema()
	out := NormalizeCondition(s, Compare(Equals, Prop("snap"), avalue.Str("crackle")))
	assert.Equal(t, avalue.Str("crackle"), out.Value)
}

func TestSerializeCondition_AfterNormalizeUsesPhysicalNames(t *testing.T) {
	s := widgetSchema()
	c := NormalizeCondition(s, AndOf(
		Compare(Equals, Prop("snap"), avalue.Str("crackle")),
		BetweenCond(Prop("pop"), avalue.Num("1"), avalue.Num("10")),
	))
	a := NewExpressionAttributes()
	got := SerializeCondition(a, c)
	assert.Equal(t, "(#attr0 = :val1) AND (#attr2 BETWEEN :val3 AND :val4)", got)
	assert.Equal(t, map[string]string{"#attr0": "s", "#attr2": "p"}, a.Names())
}
