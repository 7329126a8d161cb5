package handler

import (
	"context"
	"encoding/json"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/pkg/rpcerr"
)

// Handler is the per-method policy object. A handler validates its own
// parameter shape and decides, given the lock state the dispatcher routed
// on, whether to answer immediately, error, or defer pending approval.
// Handlers never panic past their boundary on malformed input; they return
// an invalid-params outcome instead.
type Handler interface {
	// Methods lists the provider method names this handler services.
	// Must be non-empty; aliases are simply extra entries.
	Methods() []string
	// HandleUnauthenticated runs when the wallet is locked
	HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome
	// HandleAuthenticated runs when the wallet is unlocked
	HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome
}

// Approver is implemented by handlers that ever defer. OnApproved performs
// the approved operation and returns the final result for the page. The
// bridge guards every invocation with recover and maps the return into
// exactly one terminal store transition.
type Approver interface {
	OnApproved(ctx context.Context, act *action.Action) (interface{}, error)
}

// LocalApprover marks approvals with no asynchronous side effect; their
// actions may complete without passing through the submitting status.
type LocalApprover interface {
	ApprovesLocally() bool
}

// ApprovalOpener registers an action and opens its approval UI window.
// Implemented by the approval bridge.
type ApprovalOpener interface {
	OpenApproval(ctx context.Context, act *action.Action, uiRoute string) error
}

// deferToApproval builds the action for req, opens the approval window and
// returns the deferred outcome. Any failure on the way surfaces as an
// internal error so the page promise still resolves.
func deferToApproval(ctx context.Context, opener ApprovalOpener, req *rpc.Request, displayData interface{}, uiRoute string) rpc.Outcome {
	var display json.RawMessage
	if displayData != nil {
		raw, err := json.Marshal(displayData)
		if err != nil {
			return rpc.Errored(rpcerr.Internal.WithMessage(err.Error()))
		}
		display = raw
	}

	act := &action.Action{
		ID:          req.ID,
		Method:      req.Method,
		Params:      req.Params,
		Scope:       req.Scope,
		Site:        req.Site,
		TabID:       req.TabID,
		DisplayData: display,
	}
	if err := opener.OpenApproval(ctx, act, uiRoute); err != nil {
		return rpc.Errored(rpcerr.Internal.WithMessage(err.Error()))
	}
	return rpc.Deferred(act.ActionID)
}

// siteDomain extracts the untrusted caller domain, empty when unknown.
func siteDomain(req *rpc.Request) string {
	if req.Site == nil {
		return ""
	}
	return req.Site.Domain
}

// unauthorized is the shared locked-wallet answer for handlers with no
// meaningful unauthenticated behavior.
func unauthorized() rpc.Outcome {
	return rpc.Errored(rpcerr.Unauthorized)
}

// invalidSiteMetadata rejects requests whose transport attached no caller
// domain; permission decisions cannot be keyed without one.
var invalidSiteMetadata = rpcerr.InvalidParams.WithMessage("missing site metadata")
