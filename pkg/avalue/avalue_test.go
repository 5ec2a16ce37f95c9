package avalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNull_ZeroValueIsNull(t *testing.T) {
	assert.True(t, IsNull(AttributeValue{}))
	assert.True(t, IsNull(Null()))
}

func TestIsNull_ScalarsAreNotNull(t *testing.T) {
	assert.False(t, IsNull(Str("")))
	assert.False(t, IsNull(Num("0")))
	assert.False(t, IsNull(Bool(false)))
	assert.False(t, IsNull(Bin([]byte{})))
}

func TestScalar_Precedence(t *testing.T) {
	s, ok := Scalar(Str("hi"))
	assert.True(t, ok)
	assert.Equal(t, "hi", s)

	n, ok := Scalar(Num("42"))
	assert.True(t, ok)
	assert.Equal(t, "42", n)

	b, ok := Scalar(Bin([]byte("hi")))
	assert.True(t, ok)
	assert.Equal(t, "aGk=", b)
}

func TestScalar_CollectionHasNoScalarPayload(t *testing.T) {
	_, ok := Scalar(List([]AttributeValue{Str("x")}))
	assert.False(t, ok)
	_, ok = Scalar(Map(map[string]AttributeValue{"a": Str("x")}))
	assert.False(t, ok)
}

func TestEqual_ScalarComparison(t *testing.T) {
	assert.True(t, Equal(Str("a"), Str("a")))
	assert.False(t, Equal(Str("a"), Str("b")))
	assert.False(t, Equal(Str("a"), Num("1")))
}

func TestEqual_BooleanComparison(t *testing.T) {
	assert.True(t, Equal(Bool(true), Bool(true)))
	assert.False(t, Equal(Bool(true), Bool(false)))
}

func TestEqual_NullComparison(t *testing.T) {
	assert.True(t, Equal(Null(), Null()))
	assert.False(t, Equal(Null(), Str("a")))
}
