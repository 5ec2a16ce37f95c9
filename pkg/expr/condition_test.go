package expr

import (
	"testing"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/stretchr/testify/assert"
)

func TestSerializeCondition_Comparison(t *testing.T) {
	a := NewExpressionAttributes()
	got := SerializeCondition(a, Compare(Equals, Prop("snap"), avalue.Str("crackle")))
	assert.Equal(t, "#attr0 = :val1", got)
}

func TestSerializeCondition_Between(t *testing.T) {
	a := NewExpressionAttributes()
	got := SerializeCondition(a, BetweenCond(Prop("pop"), avalue.Num("1"), avalue.Num("10")))
	assert.Equal(t, "#attr0 BETWEEN :val1 AND :val2", got)
}

func TestSerializeCondition_Membership(t *testing.T) {
	a := NewExpressionAttributes()
	got := SerializeCondition(a, In(Prop("pop"), avalue.Num("1"), avalue.Num("2")))
	assert.Equal(t, "#attr0 IN (:val1, :val2)", got)
}

func TestSerializeCondition_ExistsAndNotExists(t *testing.T) {
	a := NewExpressionAttributes()
	assert.Equal(t, "attribute_exists(#attr0)", SerializeCondition(a, Exists(Prop("snap"))))

	b := NewExpressionAttributes()
	assert.Equal(t, "attribute_not_exists(#attr0)", SerializeCondition(b, NotExists(Prop("snap"))))
}

func TestSerializeCondition_BeginsWithAndContains(t *testing.T) {
	a := NewExpressionAttributes()
	assert.Equal(t, "begins_with(#attr0, :val1)", SerializeCondition(a, BeginsWithCond(Prop("snap"), "cra")))

	b := NewExpressionAttributes()
	assert.Equal(t, "contains(#attr0, :val1)", SerializeCondition(b, ContainsCond(Prop("tags"), avalue.Str("x"))))
}

func TestSerializeCondition_TypeOf(t *testing.T) {
	a := NewExpressionAttributes()
	got := SerializeCondition(a, TypeOf(Prop("snap"), "S"))
	assert.Equal(t, "attribute_type(#attr0, :val1)", got)
}

func TestSerializeCondition_Not(t *testing.T) {
	a := NewExpressionAttributes()
	got := SerializeCondition(a, Negate(Exists(Prop("snap"))))
	assert.Equal(t, "NOT (attribute_exists(#attr0))", got)
}

func TestSerializeCondition_AndParenthesizesEachLeaf(t *testing.T) {
	a := NewExpressionAttributes()
	got := SerializeCondition(a, AndOf(
		Compare(Equals, Prop("snap"), avalue.Str("crackle")),
		BetweenCond(Prop("pop"), avalue.Num("1"), avalue.Num("10")),
	))
	assert.Equal(t, "(#attr0 = :val1) AND (#attr2 BETWEEN :val3 AND :val4)", got)
}

func TestSerializeCondition_OrParenthesizesEachLeaf(t *testing.T) {
	a := NewExpressionAttributes()
	got := SerializeCondition(a, OrOf(
		Exists(Prop("snap")),
		NotExists(Prop("pop")),
	))
	assert.Equal(t, "(attribute_exists(#attr0)) OR (attribute_not_exists(#attr1))", got)
}

func TestSerializeCondition_NestedCombinator(t *testing.T) {
	a := NewExpressionAttributes()
	got := SerializeCondition(a, AndOf(
		Exists(Prop("snap")),
		Negate(Exists(Prop("pop"))),
	))
	assert.Equal(t, "(attribute_exists(#attr0)) AND (NOT (attribute_exists(#attr1)))", got)
}
