/*
Package events provides an in-memory, non-blocking pub/sub broker used by
the batch engine and scan coordinator to announce internal state
transitions without callers reaching into unexported fields.

# Architecture

	┌──────────────── EVENT BROKER ────────────────┐
	│                                                 │
	│  Publisher → eventCh (buffer 100) → broadcast  │
	│  loop → subscriber channels (buffer 50 each)   │
	│                                                 │
	│  table.throttled / table.recovered             │
	│  batch.dispatched                              │
	│  segment.complete / scan.resumed               │
	└─────────────────────────────────────────────────┘

Publish never blocks the caller beyond a full main event channel racing
the broker's stop signal; broadcast never blocks on a slow subscriber —
a full subscriber buffer simply skips that event for that subscriber.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			switch event.Type {
			case events.EventTableThrottled:
				// ...
			case events.EventSegmentComplete:
				// ...
			}
		}
	}()

	broker.Publish(&events.Event{
		Type:    events.EventTableThrottled,
		Message: "orders throttled",
		Metadata: map[string]string{"table": "orders"},
	})

A nil *Broker is never passed to Publish by the batch engine or scan
coordinator directly — callers that construct one of those components
without an events.Broker simply omit it, and the no-op check happens at
the call site, not inside Broker itself.
*/
package events
