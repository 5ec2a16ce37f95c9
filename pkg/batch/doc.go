/*
Package batch implements the streaming batch engine (§4.F): given a stream
of read or write requests, it partitions them into store-sized batches per
table, dispatches BatchGetItem/BatchWriteItem calls, and retries whatever
the store reports as unprocessed — transparently to the caller, who only
ever sees a lazy stream of successfully processed results.

# Architecture

The engine is single-threaded cooperative, matching the documented
scheduling model: one goroutine runs engine.runReads or engine.runWrites,
awaiting at each step either the next input element, the earliest pending
per-table throttling timer, or the in-flight RPC's completion.

	┌──────────────── engine.runReads / runWrites ────────────────┐
	│                                                              │
	│   select {                                                  │
	│     case req := <-in:          enqueue (ready or throttled)  │
	│     case now := <-timer.C:     release due tables            │
	│     case r := <-rpcDone:       handle{Read,Write}Response     │
	│   }                                                          │
	│   if !inFlight && batch ready: dispatch one RPC               │
	│   if input exhausted && nothing ready/in-flight/throttled:    │
	│       return                                                  │
	└──────────────────────────────────────────────────────────────┘

Each table tracked by the engine carries its own tableState: a
backoffFactor, a throttled flag, a wake-up deadline, and an unprocessed
queue. A table that comes back throttled waits out
floor(random()*2^min(backoffFactor,30)) milliseconds before its queued
items rejoin the ready queue.

Telemetry is threaded, not global: RunReads/RunWrites accept an Options
carrying a *metrics.Set and a *events.Broker. A zero Options falls back to
metrics.Default() and publishes no events.

Callers drive the engine by ranging over the channel RunReads/RunWrites returns; stopping
early (breaking out of the range) is observed by the engine at its next
would-be send.
*/
package batch
