package parser

import "fmt"

// parseError is the common shape behind every recoverable malformed-TAP
// condition: each variant knows its own fixed message text, following the
// same named-error-type pattern used throughout this codebase rather than
// one generic "parse error: %s".
//
// None of these abort the run: they accumulate in Parser.ParseErrors and
// are reported by the aggregator at the end.
type parseError struct {
	msg string
}

func (e parseError) Error() string { return e.msg }

func duplicatePlanError() error {
	return parseError{msg: "More than one plan found in TAP output"}
}

func outOfSequenceError(expected, got int) error {
	return parseError{msg: fmt.Sprintf("tests out of sequence: expected %d, got %d", expected, got)}
}

func noPlanError() error {
	return parseError{msg: "No plan found in TAP output"}
}

func planMismatchError(planned, ran int) error {
	return parseError{msg: fmt.Sprintf("bad plan: planned %d tests but %d ran", planned, ran)}
}

func planInMiddleError() error {
	return parseError{msg: "plan declaration found in the middle of the test output"}
}

func unexpectedYamlError() error {
	return parseError{msg: "Unexpected structured diagnostic"}
}
