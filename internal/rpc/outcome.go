package rpc

import "wallet-background/pkg/rpcerr"

// OutcomeKind discriminates the three ways a handler can answer.
type OutcomeKind int

const (
	// OutcomeImmediate closes the request synchronously with a result
	OutcomeImmediate OutcomeKind = iota
	// OutcomeError closes the request synchronously with an error
	OutcomeError
	// OutcomeDeferred leaves the request open until the referenced action
	// reaches a terminal status
	OutcomeDeferred
)

// Outcome is a handler's answer. The dispatcher switches on Kind; there is
// no sentinel result value anywhere in the pipeline.
type Outcome struct {
	Kind     OutcomeKind
	Result   interface{}
	Err      *rpcerr.Error
	ActionID string
}

// Immediate answers the request right away with result.
func Immediate(result interface{}) Outcome {
	return Outcome{Kind: OutcomeImmediate, Result: result}
}

// Errored answers the request right away with an RPC error.
func Errored(err *rpcerr.Error) Outcome {
	return Outcome{Kind: OutcomeError, Err: err}
}

// Deferred parks the request until the action settles.
func Deferred(actionID string) Outcome {
	return Outcome{Kind: OutcomeDeferred, ActionID: actionID}
}
