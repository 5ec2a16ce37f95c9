package expr

import (
	"testing"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/stretchr/testify/assert"
)

func TestWriteMath_PathPlusValue(t *testing.T) {
	a := NewExpressionAttributes()
	m := MathPath(Prop("count")).PlusValue(avalue.Num("1"))
	assert.Equal(t, "#attr0 + :val1", writeMath(a, m))
}

func TestWriteMath_PathMinusValue(t *testing.T) {
	a := NewExpressionAttributes()
	m := MathPath(Prop("count")).MinusValue(avalue.Num("1"))
	assert.Equal(t, "#attr0 - :val1", writeMath(a, m))
}

func TestWriteMath_PathPlusPath(t *testing.T) {
	a := NewExpressionAttributes()
	m := MathPath(Prop("count")).PlusPath(Prop("delta"))
	assert.Equal(t, "#attr0 + #attr1", writeMath(a, m))
}

func TestMathOp_Symbol(t *testing.T) {
	assert.Equal(t, "+", Add.symbol())
	assert.Equal(t, "-", Subtract.symbol())
}
