package scan

import (
	"context"
	"strconv"
	"sync"

	"github.com/cuemby/tablemapper/pkg/events"
	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/cuemby/tablemapper/pkg/metrics"
	"github.com/cuemby/tablemapper/pkg/paginate"
	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/cuemby/tablemapper/pkg/store"
)

// SegmentState is one segment's resumable cursor (§4.H). The zero value
// (Initialized=false) means the segment has not been started. Initialized
// with a nil LastEvaluatedKey means the segment ran to completion and must
// not issue further RPCs if resumed. Initialized with a key resumes a
// partially scanned segment from that key.
type SegmentState struct {
	Initialized      bool
	LastEvaluatedKey map[string]any
}

// Result is one item yielded by any segment, tagged with its origin.
// Results across segments interleave in store response-arrival order, not
// a deterministic global order.
type Result struct {
	Segment int
	Item    map[string]any
}

// Options carries the ambient telemetry handles, mirroring batch.Options.
type Options struct {
	Metrics *metrics.Set
	Events  *events.Broker
}

func (o Options) metricsOrDefault() *metrics.Set {
	if o.Metrics != nil {
		return o.Metrics
	}
	return metrics.Default()
}

// Coordinator exports the resumable per-segment state of a Run, readable
// at any time — including after a caller abandons iteration early.
type Coordinator struct {
	mu    sync.Mutex
	state []SegmentState
}

// State returns a snapshot of every segment's current resumable state.
func (c *Coordinator) State() []SegmentState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SegmentState, len(c.state))
	copy(out, c.state)
	return out
}

func (c *Coordinator) setState(i int, s SegmentState) {
	c.mu.Lock()
	c.state[i] = s
	c.mu.Unlock()
}

// Run launches segments independent segmented Scan iterators (§4.H) and
// fans their results into one channel. Each segment keeps at most one
// Next call pending at a time; as soon as one resolves, its result is
// forwarded and the next call for that same segment is issued — the
// documented "race all pending per-segment futures" behavior, expressed
// as one goroutine per segment rather than a manually managed future set,
// since a channel send already serializes arrival order the same way a
// select over a dynamic case set would.
//
// resume, when non-nil, must have exactly `segments` entries (as
// previously returned by Coordinator.State); a nil resume starts every
// segment fresh.
func Run(ctx context.Context, client store.Client, in store.ScanInput, s schema.Schema, segments int, resume []SegmentState, opts Options) (<-chan Result, <-chan error, *Coordinator) {
	out := make(chan Result)
	errc := make(chan error, 1)
	coord := &Coordinator{state: make([]SegmentState, segments)}
	metricsSet := opts.metricsOrDefault()

	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	var once sync.Once
	reportErr := func(err error) {
		once.Do(func() {
			errc <- err
			cancel()
		})
	}

	if resume != nil {
		publish(opts.Events, events.EventScanResumed, "scan resumed from captured state", nil)
	}

	for seg := 0; seg < segments; seg++ {
		var prior SegmentState
		if resume != nil && seg < len(resume) {
			prior = resume[seg]
		}
		if prior.Initialized && prior.LastEvaluatedKey == nil {
			coord.setState(seg, prior)
			continue
		}

		var startKey store.Item
		if prior.Initialized && prior.LastEvaluatedKey != nil {
			key, err := marshal.MarshalKey(s, marshal.FromMap(prior.LastEvaluatedKey), "")
			if err != nil {
				reportErr(err)
				continue
			}
			startKey = store.Item(key)
		}
		coord.setState(seg, SegmentState{Initialized: true, LastEvaluatedKey: prior.LastEvaluatedKey})
		metricsSet.ScanSegmentsActive.Inc()

		segIn := in
		segIn.Segment = seg
		segIn.TotalSegments = segments
		it := paginate.NewScanFrom(client, segIn, s, 0, startKey, paginate.Options{
			Metrics:   metricsSet,
			Table:     in.TableName,
			Operation: "scan",
		})

		wg.Add(1)
		go runSegment(ctx, &wg, seg, it, out, reportErr, coord, metricsSet, opts.Events)
	}

	go func() {
		wg.Wait()
		close(out)
		close(errc)
		cancel()
	}()

	return out, errc, coord
}

func runSegment(ctx context.Context, wg *sync.WaitGroup, segment int, it *paginate.Iterator, out chan<- Result, reportErr func(error), coord *Coordinator, metricsSet *metrics.Set, broker *events.Broker) {
	defer wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		item, ok, err := it.Next(ctx)
		if err != nil {
			reportErr(err)
			return
		}
		if !ok {
			key, _ := it.LastEvaluatedKey()
			coord.setState(segment, SegmentState{Initialized: true, LastEvaluatedKey: key})
			metricsSet.ScanSegmentsActive.Dec()
			publish(broker, events.EventSegmentComplete, "segment complete", map[string]string{
				"segment": strconv.Itoa(segment),
			})
			return
		}
		select {
		case out <- Result{Segment: segment, Item: item}:
		case <-ctx.Done():
			return
		}
		if key, err := it.LastEvaluatedKey(); err == nil {
			coord.setState(segment, SegmentState{Initialized: true, LastEvaluatedKey: key})
		}
	}
}

func publish(broker *events.Broker, typ events.EventType, message string, metadata map[string]string) {
	if broker == nil {
		return
	}
	broker.Publish(&events.Event{Type: typ, Message: message, Metadata: metadata})
}
