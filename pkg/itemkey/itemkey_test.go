package itemkey

import (
	"testing"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIdentifier_DistinctKeysProduceDistinctIdentifiers pins the
// documented-intent fix: two distinct keys in the same table must not
// collapse to the same (empty) identifier.
func TestIdentifier_DistinctKeysProduceDistinctIdentifiers(t *testing.T) {
	a, err := Identifier(marshal.Item{"id": avalue.Str("a")}, []string{"id"})
	require.NoError(t, err)
	b, err := Identifier(marshal.Item{"id": avalue.Str("b")}, []string{"id"})
	require.NoError(t, err)

	assert.NotEqual(t, "", a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "id=a", a)
}

func TestIdentifier_CompositeKeyJoinsWithColon(t *testing.T) {
	id, err := Identifier(marshal.Item{
		"snap": avalue.Str("crackle"),
		"pop":  avalue.Num("10"),
	}, []string{"snap", "pop"})
	require.NoError(t, err)
	assert.Equal(t, "snap=crackle:pop=10", id)
}

func TestIdentifier_MissingKeyAttributeFails(t *testing.T) {
	_, err := Identifier(marshal.Item{}, []string{"id"})
	assert.Error(t, err)
}

func TestIdentifier_NonScalarKeyAttributeFails(t *testing.T) {
	_, err := Identifier(marshal.Item{"id": avalue.List(nil)}, []string{"id"})
	assert.Error(t, err)
}

func TestRegistry_ObserveRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Observe("id=a"))
	assert.Error(t, r.Observe("id=a"))
}

func TestRegistry_ObserveAcceptsDistinctIDs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Observe("id=a"))
	assert.NoError(t, r.Observe("id=b"))
}
