/*
Package scan implements the parallel segmented scan coordinator (§4.H): N
independent paginate.Iterators, one per store scan segment, fanned into a
single result stream.

Each segment keeps at most one Next call outstanding; as soon as it
resolves, Run forwards the item and immediately issues that segment's next
call. Faster segments naturally produce more results without waiting on
slower ones, and the Coordinator returned alongside the result channel
exports a per-segment SegmentState snapshot at any time — including after
a caller stops consuming early — so a scan can be resumed later from
exactly where each segment left off.
*/
package scan
