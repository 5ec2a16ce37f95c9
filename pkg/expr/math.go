package expr

import "github.com/cuemby/tablemapper/pkg/avalue"

// MathOp is the operator of a Math expression.
type MathOp int

const (
	Add MathOp = iota
	Subtract
)

func (op MathOp) symbol() string {
	if op == Subtract {
		return "-"
	}
	return "+"
}

// Math is a left-operator-right expression where each operand is either an
// attribute path or a constant value. It appears only as the operand of a
// Set update clause.
type Math struct {
	LeftIsPath  bool
	LeftPath    Path
	LeftValue   avalue.AttributeValue
	Op          MathOp
	RightIsPath bool
	RightPath   Path
	RightValue  avalue.AttributeValue
}

// MathPath builds a path operand.
func MathPath(p Path) Math {
	return Math{LeftIsPath: true, LeftPath: p}
}

// PlusPath sets the operator to "+" and the right operand to a path.
func (m Math) PlusPath(p Path) Math {
	m.Op = Add
	m.RightIsPath = true
	m.RightPath = p
	return m
}

// PlusValue sets the operator to "+" and the right operand to a constant.
func (m Math) PlusValue(v avalue.AttributeValue) Math {
	m.Op = Add
	m.RightValue = v
	return m
}

// MinusValue sets the operator to "-" and the right operand to a constant.
func (m Math) MinusValue(v avalue.AttributeValue) Math {
	m.Op = Subtract
	m.RightValue = v
	return m
}

func writeMath(attrs *ExpressionAttributes, m Math) string {
	left := mathOperand(attrs, m.LeftIsPath, m.LeftPath, m.LeftValue)
	right := mathOperand(attrs, m.RightIsPath, m.RightPath, m.RightValue)
	return left + " " + m.Op.symbol() + " " + right
}

func mathOperand(attrs *ExpressionAttributes, isPath bool, p Path, v avalue.AttributeValue) string {
	if isPath {
		return writePath(attrs, p)
	}
	return attrs.AddValue(v)
}
