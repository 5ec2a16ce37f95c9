package metrics

import (
	"strconv"

	"github.com/cuemby/tablemapper/pkg/events"
)

// Collector keeps a Set's BackoffFactor and ScanSegmentsActive gauges in
// sync with the batch engine and scan coordinator's lifecycle events,
// rather than polling: it subscribes to a broker and updates gauges as
// table.throttled/table.recovered/segment.complete/scan.resumed events
// arrive.
type Collector struct {
	set    *Set
	broker *events.Broker
	sub    events.Subscriber
	stopCh chan struct{}
}

// NewCollector creates a metrics collector that reacts to events published
// on broker, updating set.
func NewCollector(set *Set, broker *events.Broker) *Collector {
	return &Collector{
		set:    set,
		broker: broker,
		stopCh: make(chan struct{}),
	}
}

// Start begins consuming events until Stop is called.
func (c *Collector) Start() {
	c.sub = c.broker.Subscribe()
	go c.run()
}

// Stop stops the collector and unsubscribes from the broker.
func (c *Collector) Stop() {
	close(c.stopCh)
	c.broker.Unsubscribe(c.sub)
}

func (c *Collector) run() {
	for {
		select {
		case event, ok := <-c.sub:
			if !ok {
				return
			}
			c.apply(event)
		case <-c.stopCh:
			return
		}
	}
}

func (c *Collector) apply(event *events.Event) {
	switch event.Type {
	case events.EventTableThrottled:
		table := event.Metadata["table"]
		if factor, err := strconv.Atoi(event.Metadata["backoff_factor"]); err == nil {
			c.set.BackoffFactor.WithLabelValues(table).Set(float64(factor))
		}
	case events.EventTableRecovered:
		table := event.Metadata["table"]
		c.set.BackoffFactor.WithLabelValues(table).Set(0)
	case events.EventSegmentComplete:
		c.set.ScanSegmentsActive.Dec()
	case events.EventScanResumed:
		c.set.ScanSegmentsActive.Inc()
	}
}
