package storebolt

import (
	"testing"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition_EmptyStringIsZeroCondition(t *testing.T) {
	c, err := ParseCondition("", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, expr.Condition{}, c)
}

func TestParseCondition_RoundTripsComparison(t *testing.T) {
	a := expr.NewExpressionAttributes()
	original := expr.Compare(expr.Equals, expr.Prop("snap"), avalue.Str("crackle"))
	text := expr.SerializeCondition(a, original)

	parsed, err := ParseCondition(text, a.Names(), a.Values())
	require.NoError(t, err)
	assert.Equal(t, original.Kind, parsed.Kind)
	assert.Equal(t, original.Path, parsed.Path)
	assert.Equal(t, original.Value, parsed.Value)
}

func TestParseCondition_RoundTripsBetween(t *testing.T) {
	a := expr.NewExpressionAttributes()
	original := expr.BetweenCond(expr.Prop("pop"), avalue.Num("1"), avalue.Num("10"))
	text := expr.SerializeCondition(a, original)

	parsed, err := ParseCondition(text, a.Names(), a.Values())
	require.NoError(t, err)
	assert.Equal(t, expr.Between, parsed.Kind)
	assert.Equal(t, avalue.Num("1"), parsed.Value)
	assert.Equal(t, avalue.Num("10"), parsed.High)
}

func TestParseCondition_RoundTripsMembership(t *testing.T) {
	a := expr.NewExpressionAttributes()
	original := expr.In(expr.Prop("pop"), avalue.Num("1"), avalue.Num("2"))
	text := expr.SerializeCondition(a, original)

	parsed, err := ParseCondition(text, a.Names(), a.Values())
	require.NoError(t, err)
	assert.Equal(t, expr.Membership, parsed.Kind)
	assert.Len(t, parsed.Values, 2)
}

func TestParseCondition_RoundTripsFunctions(t *testing.T) {
	for _, original := range []expr.Condition{
		expr.Exists(expr.Prop("snap")),
		expr.NotExists(expr.Prop("snap")),
		expr.BeginsWithCond(expr.Prop("snap"), "cra"),
		expr.ContainsCond(expr.Prop("tags"), avalue.Str("x")),
		expr.TypeOf(expr.Prop("snap"), "S"),
	} {
		a := expr.NewExpressionAttributes()
		text := expr.SerializeCondition(a, original)
		parsed, err := ParseCondition(text, a.Names(), a.Values())
		require.NoError(t, err, text)
		assert.Equal(t, original.Kind, parsed.Kind, text)
	}
}

func TestParseCondition_RoundTripsNotAndAndOr(t *testing.T) {
	a := expr.NewExpressionAttributes()
	original := expr.AndOf(
		expr.Compare(expr.Equals, expr.Prop("snap"), avalue.Str("crackle")),
		expr.Negate(expr.NotExists(expr.Prop("pop"))),
	)
	text := expr.SerializeCondition(a, original)

	parsed, err := ParseCondition(text, a.Names(), a.Values())
	require.NoError(t, err)
	assert.Equal(t, expr.And, parsed.Kind)
	require.Len(t, parsed.Children, 2)
	assert.Equal(t, expr.Not, parsed.Children[1].Kind)
}

func TestParseCondition_RoundTripsOr(t *testing.T) {
	a := expr.NewExpressionAttributes()
	original := expr.OrOf(
		expr.Exists(expr.Prop("snap")),
		expr.Exists(expr.Prop("pop")),
	)
	text := expr.SerializeCondition(a, original)

	parsed, err := ParseCondition(text, a.Names(), a.Values())
	require.NoError(t, err)
	assert.Equal(t, expr.Or, parsed.Kind)
	assert.Len(t, parsed.Children, 2)
}

func TestParseCondition_NestedPathRoundTrips(t *testing.T) {
	a := expr.NewExpressionAttributes()
	original := expr.Compare(expr.Equals, expr.Prop("address").Member("zip"), avalue.Str("90210"))
	text := expr.SerializeCondition(a, original)

	parsed, err := ParseCondition(text, a.Names(), a.Values())
	require.NoError(t, err)
	assert.Equal(t, original.Path, parsed.Path)
}

func TestParseCondition_ListIndexPathRoundTrips(t *testing.T) {
	a := expr.NewExpressionAttributes()
	original := expr.Exists(expr.Prop("tags").At(2))
	text := expr.SerializeCondition(a, original)

	parsed, err := ParseCondition(text, a.Names(), a.Values())
	require.NoError(t, err)
	assert.Equal(t, original.Path, parsed.Path)
}

func TestParseCondition_TrailingTokensFail(t *testing.T) {
	a := expr.NewExpressionAttributes()
	name := a.AddName("snap")
	_, err := ParseCondition(name+" garbage", a.Names(), a.Values())
	assert.Error(t, err)
}

func TestParseUpdate_RoundTripsSetRemoveAddDelete(t *testing.T) {
	a := expr.NewExpressionAttributes()
	original := expr.Update{
		Sets:    []expr.SetClause{{Path: expr.Prop("snap"), Value: avalue.Str("crackle")}},
		Removes: []expr.Path{expr.Prop("stale")},
		Adds:    []expr.AddClause{{Path: expr.Prop("count"), Value: avalue.Num("1")}},
		Deletes: []expr.DeleteClause{{Path: expr.Prop("tags"), Value: avalue.StringSet([]string{"x"})}},
	}
	text := expr.SerializeUpdate(a, original)

	parsed, err := ParseUpdate(text, a.Names(), a.Values())
	require.NoError(t, err)
	require.Len(t, parsed.Sets, 1)
	assert.Equal(t, original.Sets[0].Path, parsed.Sets[0].Path)
	assert.Equal(t, original.Sets[0].Value, parsed.Sets[0].Value)
	require.Len(t, parsed.Removes, 1)
	assert.Equal(t, original.Removes[0], parsed.Removes[0])
	require.Len(t, parsed.Adds, 1)
	assert.Equal(t, original.Adds[0].Path, parsed.Adds[0].Path)
	require.Len(t, parsed.Deletes, 1)
	assert.Equal(t, original.Deletes[0].Path, parsed.Deletes[0].Path)
}

func TestParseUpdate_RoundTripsSetMathOperand(t *testing.T) {
	a := expr.NewExpressionAttributes()
	m := expr.MathPath(expr.Prop("count")).PlusValue(avalue.Num("1"))
	original := expr.Update{Sets: []expr.SetClause{{Path: expr.Prop("count"), Math: &m}}}
	text := expr.SerializeUpdate(a, original)

	parsed, err := ParseUpdate(text, a.Names(), a.Values())
	require.NoError(t, err)
	require.NotNil(t, parsed.Sets[0].Math)
	assert.True(t, parsed.Sets[0].Math.LeftIsPath)
	assert.Equal(t, expr.Prop("count"), parsed.Sets[0].Math.LeftPath)
	assert.Equal(t, expr.Add, parsed.Sets[0].Math.Op)
	assert.Equal(t, avalue.Num("1"), parsed.Sets[0].Math.RightValue)
}

func TestSplitTopLevelCommas_IgnoresCommasInsideParens(t *testing.T) {
	got := splitTopLevelCommas("IN (:val0, :val1), #attr2")
	assert.Equal(t, []string{"IN (:val0, :val1)", "#attr2"}, got)
}

func TestIndexWord_MatchesWholeWordOnly(t *testing.T) {
	assert.Equal(t, -1, indexWord("ADDRESS", "ADD"))
	assert.True(t, indexWord("SET #attr0 = :val1 ADD #attr2 :val3", "ADD") > 0)
}

func TestParseProjectionPaths_ParsesCommaSeparatedPaths(t *testing.T) {
	a := expr.NewExpressionAttributes()
	text := expr.SerializeProjection(a, expr.Projection{expr.Prop("snap"), expr.Prop("pop")})
	paths := parseProjectionPaths(text, a.Names())
	require.Len(t, paths, 2)
	assert.Equal(t, expr.Prop("snap"), paths[0])
	assert.Equal(t, expr.Prop("pop"), paths[1])
}
