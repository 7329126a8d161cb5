package registry

import (
	"context"

	"wallet-background/internal/rpc"
	"wallet-background/pkg/rpcerr"
)

// ApprovalDecideHandler services the approval UI's approval_decide
// operation on the internal channel. Rejection must work while locked;
// the wallet can be locked with popups still open.
type ApprovalDecideHandler struct {
	dispatcher *Dispatcher
}

func NewApprovalDecideHandler(d *Dispatcher) *ApprovalDecideHandler {
	return &ApprovalDecideHandler{dispatcher: d}
}

func (h *ApprovalDecideHandler) Methods() []string {
	return []string{"approval_decide"}
}

func (h *ApprovalDecideHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return h.decide(ctx, req)
}

func (h *ApprovalDecideHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return h.decide(ctx, req)
}

func (h *ApprovalDecideHandler) decide(ctx context.Context, req *rpc.Request) rpc.Outcome {
	var actionID string
	var approved bool
	if err := req.PositionalParams(&actionID, &approved); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}
	if actionID == "" {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("actionId is required"))
	}
	if err := h.dispatcher.ResolveApproval(ctx, actionID, approved); err != nil {
		return rpc.Errored(rpcerr.Internal.WithMessage(err.Error()))
	}
	return rpc.Immediate(true)
}
