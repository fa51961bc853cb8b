package parser

import "fmt"

// Handler is invoked for each Result a Parser produces, purely for its
// side effects; it returns nothing.
type Handler func(Result)

// acceptedEvents is the fixed set of Parser event names. Registering
// anything outside this set is a registration-time error, the same
// "fail fast on an unknown name" posture used elsewhere in this codebase
// for validating configuration against a fixed name set.
var acceptedEvents = map[string]bool{
	"version": true,
	"plan":    true,
	"test":    true,
	"comment": true,
	"bailout": true,
	"yaml":    true,
	"unknown": true,
	"ELSE":    true,
	"ALL":     true,
}

// callbacks is a per-Parser registry of named event handlers. Each Parser
// owns one; there is no global, package-level callback table.
type callbacks struct {
	handlers map[string]Handler
}

func newCallbacks() *callbacks {
	return &callbacks{handlers: make(map[string]Handler)}
}

// register validates name against acceptedEvents before storing fn.
func (c *callbacks) register(name string, fn Handler) error {
	if !acceptedEvents[name] {
		return fmt.Errorf("unknown callback event %q", name)
	}
	c.handlers[name] = fn
	return nil
}

// fire dispatches one Result by event precedence: the type-specific
// handler first, then ELSE if no type-specific handler was registered,
// then ALL unconditionally.
func (c *callbacks) fire(event string, r Result) {
	if h, ok := c.handlers[event]; ok {
		h(r)
	} else if h, ok := c.handlers["ELSE"]; ok {
		h(r)
	}
	if h, ok := c.handlers["ALL"]; ok {
		h(r)
	}
}
