package batch

import (
	"math/rand"
	"time"
)

// tableState is the per-table state-machine row described in §4.F: a
// table starts Absent, becomes Ready on first enqueue, and moves to
// Throttled whenever the store reports unprocessed items for it. Its
// waiter firing drains unprocessed back into the global ready queue and
// returns it to Ready.
type tableState struct {
	backoffFactor int
	throttled     bool
	deadline      time.Time
	unprocessed   []preparedItem

	// keyProperties is the physical key-attribute-name order used to
	// recompute an identifier from a bare response item; set from the
	// first preparedItem enqueued for this table.
	keyProperties []string
}

func newTableState() *tableState {
	return &tableState{}
}

// throttle installs a fresh waiter whose delay is floor(random() *
// 2^backoffFactor) milliseconds, merging newUnprocessed ahead of whatever
// was already queued (server-reported unprocessed takes priority over
// previously throttled items from earlier rounds).
func (t *tableState) throttle(newUnprocessed []preparedItem) {
	t.backoffFactor++
	t.throttled = true
	merged := make([]preparedItem, 0, len(newUnprocessed)+len(t.unprocessed))
	merged = append(merged, newUnprocessed...)
	merged = append(merged, t.unprocessed...)
	t.unprocessed = merged

	exponent := min(t.backoffFactor, 30)
	delayMS := int(rand.Float64() * float64(uint64(1)<<uint(exponent)))
	t.deadline = time.Now().Add(time.Duration(delayMS) * time.Millisecond)
}

// recover decrements backoffFactor (floored at zero) on a successful
// response for this table.
func (t *tableState) recover() {
	if t.backoffFactor > 0 {
		t.backoffFactor--
	}
}

// release drains the unprocessed queue back to the caller (to be merged
// into the global ready queue) and clears the throttled flag.
func (t *tableState) release() []preparedItem {
	drained := t.unprocessed
	t.unprocessed = nil
	t.throttled = false
	return drained
}
