package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTableState_ThrottleIncrementsBackoffAndMergesUnprocessed(t *testing.T) {
	ts := newTableState()
	ts.unprocessed = []preparedItem{{identifier: "old"}}

	ts.throttle([]preparedItem{{identifier: "new"}})

	assert.Equal(t, 1, ts.backoffFactor)
	assert.True(t, ts.throttled)
	assert.True(t, ts.deadline.After(time.Now().Add(-time.Second)))
	assert.Equal(t, []string{"new", "old"}, []string{ts.unprocessed[0].identifier, ts.unprocessed[1].identifier})
}

func TestTableState_RecoverFloorsAtZero(t *testing.T) {
	ts := newTableState()
	ts.recover()
	assert.Equal(t, 0, ts.backoffFactor)

	ts.throttle(nil)
	ts.throttle(nil)
	assert.Equal(t, 2, ts.backoffFactor)

	ts.recover()
	assert.Equal(t, 1, ts.backoffFactor)
	ts.recover()
	assert.Equal(t, 0, ts.backoffFactor)
	ts.recover()
	assert.Equal(t, 0, ts.backoffFactor)
}

func TestTableState_ReleaseDrainsAndClearsThrottled(t *testing.T) {
	ts := newTableState()
	ts.throttle([]preparedItem{{identifier: "a"}, {identifier: "b"}})

	drained := ts.release()

	assert.Len(t, drained, 2)
	assert.False(t, ts.throttled)
	assert.Empty(t, ts.unprocessed)
}
