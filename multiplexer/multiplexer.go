// Package multiplexer fans in N concurrently-running Parsers, implementing
// readiness selection over all registered parsers as one goroutine per
// parser feeding a shared channel — the same fan-in shape process uses to
// drain two pipes and forkpool uses to run a worker pool, here applied a
// third time to a third concern.
//
// Letting Go's own channel select stand in for a platform poll/select
// generalises cleanly: "one reader thread per pipe feeding a bounded
// channel" becomes "one reader goroutine per parser feeding a shared
// channel".
package multiplexer

import "github.com/FollowTheProcess/tapharness/parser"

// Event is what Next yields: which parser produced it, the opaque stash
// that parser was registered with, and the Result (or a nil Result with Done
// true, meaning that parser has reached end and has been removed).
type Event struct {
	Parser *parser.Parser
	Stash  any
	Result parser.Result
	Done   bool // true once Parser has reached end; Result is the zero value
}

// Multiplexer owns a set of live parsers and fans their Results into one
// ordered-per-parser, interleaved-across-parsers stream.
type Multiplexer struct {
	events  chan Event
	pending map[*parser.Parser]chan struct{} // per-parser "advance" gate, for round-robin fairness
	count   int
}

// New returns an empty Multiplexer.
func New() *Multiplexer {
	return &Multiplexer{
		events:  make(chan Event),
		pending: make(map[*parser.Parser]chan struct{}),
	}
}

// Add registers p under stash and starts its feeder goroutine. p must not
// already be registered.
func (m *Multiplexer) Add(p *parser.Parser, stash any) {
	if _, exists := m.pending[p]; exists {
		panic("multiplexer: parser already registered")
	}
	gate := make(chan struct{}, 1)
	m.pending[p] = gate
	m.count++

	go m.feed(p, stash, gate)

	// Prime the gate so the feeder goroutine can make its first read
	// immediately; every subsequent read is gated by Next() being called
	// again, which is how round-robin fairness is enforced: a parser may
	// have at most one Result in flight ahead of consumption.
	gate <- struct{}{}
}

// Parsers reports the current number of registered (not-yet-removed)
// parsers.
func (m *Multiplexer) Parsers() int {
	return m.count
}

// feed is the per-parser goroutine: it blocks on its own gate before each
// read, so it can never race ahead of the other parsers' feeders and flood
// the shared channel.
func (m *Multiplexer) feed(p *parser.Parser, stash any, gate chan struct{}) {
	for range gate {
		result, ok := p.Next()
		if !ok {
			m.events <- Event{Parser: p, Stash: stash, Done: true}
			return
		}
		m.events <- Event{Parser: p, Stash: stash, Result: result}
	}
}

// Next returns the next ready Event from any registered parser, or
// (Event{}, false) once every parser has been removed. A Done event
// (parser reached end) is surfaced exactly once and that parser is then
// removed from the set.
func (m *Multiplexer) Next() (Event, bool) {
	if m.count == 0 {
		return Event{}, false
	}
	ev := <-m.events
	if ev.Done {
		delete(m.pending, ev.Parser)
		m.count--
		return ev, true
	}
	// Re-arm this parser's gate so its feeder can pull the next line; this
	// is the round-robin step — each parser gets to advance exactly once
	// per Next() call that reads one of its events.
	m.pending[ev.Parser] <- struct{}{}
	return ev, true
}
