package clocksync

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultInterval is how often the display is re-derived between snapshots.
const DefaultInterval = 200 * time.Millisecond

// Source returns the latest snapshot, or false when there is none.
type Source func() (Snapshot, bool)

// Sink receives derived values. ok=false means there is nothing to show.
type Sink func(d Display, ok bool)

// Poller re-evaluates the display on a fixed interval rather than on snapshot arrival.
type Poller struct {
	clock    clockwork.Clock
	interval time.Duration
	source   Source
	sink     Sink
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithClock swaps the wall clock, mostly for tests.
func WithClock(c clockwork.Clock) PollerOption {
	return func(p *Poller) { p.clock = c }
}

// WithInterval overrides DefaultInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// NewPoller builds a poller reading from source and writing to sink.
func NewPoller(source Source, sink Sink, opts ...PollerOption) *Poller {
	p := &Poller{
		clock:    clockwork.NewRealClock(),
		interval: DefaultInterval,
		source:   source,
		sink:     sink,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run emits once immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	if p.source == nil || p.sink == nil {
		return
	}
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.emit()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.emit()
		}
	}
}

func (p *Poller) emit() {
	snap, ok := p.source()
	if !ok {
		p.sink(Display{}, false)
		return
	}
	p.sink(Remaining(snap, p.clock.Now()), true)
}
