package harness

import (
	"fmt"

	"github.com/FollowTheProcess/tapharness/aggregator"
	"github.com/FollowTheProcess/tapharness/parser"
)

// HarnessHandler is invoked for harness-level events. Its argument is
// whichever object applies to that event: the Aggregator for
// before_runtests/after_runtests, the just-built Parser for made_parser.
type HarnessHandler func(any)

// acceptedHarnessEvents is the fixed harness event set.
var acceptedHarnessEvents = map[string]bool{
	"before_runtests": true,
	"made_parser":     true,
	"after_runtests":  true,
}

// harnessCallbacks is the Harness's own event registry, built the same way
// parser.callbacks is: validated at registration time, one registry per
// instance, no package-level table.
type harnessCallbacks struct {
	handlers map[string]HarnessHandler
}

func newHarnessCallbacks() *harnessCallbacks {
	return &harnessCallbacks{handlers: make(map[string]HarnessHandler)}
}

// On registers fn for event. Registering an unrecognised event name is a
// registration-time error.
func (c *harnessCallbacks) On(event string, fn HarnessHandler) error {
	if !acceptedHarnessEvents[event] {
		return fmt.Errorf("unknown harness callback event %q", event)
	}
	c.handlers[event] = fn
	return nil
}

func (c *harnessCallbacks) fire(event string, arg any) {
	if h, ok := c.handlers[event]; ok {
		h(arg)
	}
}

func (c *harnessCallbacks) fireBeforeRuntests(agg *aggregator.Aggregator) {
	c.fire("before_runtests", agg)
}

func (c *harnessCallbacks) fireMadeParser(p *parser.Parser) {
	c.fire("made_parser", p)
}

func (c *harnessCallbacks) fireAfterRuntests(agg *aggregator.Aggregator) {
	c.fire("after_runtests", agg)
}
