package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wallet-background/internal/action"
	"wallet-background/internal/handler"
	"wallet-background/pkg/logger"
	"wallet-background/pkg/rpcerr"
)

// ResolveApproval executes the user's decision for a pending action. It is
// called from the internal channel when the approval UI reports approve or
// reject. Approval moves the action to submitting and runs the handler's
// OnApproved asynchronously; rejection settles it right away. Either way
// the original page promise resolves exactly once, through the store's
// terminal-transition event.
func (d *Dispatcher) ResolveApproval(ctx context.Context, actionID string, approved bool) error {
	act := d.store.Get(actionID)
	if act == nil {
		return action.ErrActionNotFound
	}

	if !approved {
		return d.store.UpdateStatus(ctx, actionID, action.StatusErrorUserCanceled, nil)
	}

	h := d.providers.Lookup(act.Method)
	if h == nil {
		h = d.internal.Lookup(act.Method)
	}
	approver, ok := h.(handler.Approver)
	if !ok {
		// a deferring handler without an approval callback is a wiring
		// bug; settle the action so the page is not left hanging
		logger.Error("no approver for deferred method", zap.String("method", act.Method))
		return d.settleError(ctx, actionID,
			fmt.Errorf("method %s cannot execute approvals", act.Method))
	}

	if local, isLocal := h.(handler.LocalApprover); isLocal && local.ApprovesLocally() {
		// purely-local approval, no external signing or submission:
		// complete synchronously without passing through submitting
		result, err := d.safeApprove(ctx, approver, act)
		if err != nil {
			return d.settleError(ctx, actionID, err)
		}
		return d.store.UpdateStatus(ctx, actionID, action.StatusCompleted, &action.Patch{Result: result})
	}

	if err := d.store.UpdateStatus(ctx, actionID, action.StatusSubmitting, nil); err != nil {
		return err
	}

	go d.executeApproval(approver, act)
	return nil
}

// executeApproval runs the approval callback off the caller's goroutine and
// maps its return into the single terminal transition.
func (d *Dispatcher) executeApproval(approver handler.Approver, act *action.Action) {
	ctx := context.Background()

	result, err := d.safeApprove(ctx, approver, act)
	if err != nil {
		logger.Error("approval execution failed",
			zap.String("actionId", act.ActionID),
			zap.String("method", act.Method),
			zap.Error(err))
		rerr := rpcerr.Decode(err)
		patch := &action.Patch{Error: rerr.Message, ErrorCode: rerr.Code}
		if uerr := d.store.UpdateStatus(ctx, act.ActionID, action.StatusError, patch); uerr != nil {
			logger.Error("failed to record approval error", zap.Error(uerr))
		}
		return
	}

	if uerr := d.store.UpdateStatus(ctx, act.ActionID, action.StatusCompleted, &action.Patch{Result: result}); uerr != nil {
		logger.Error("failed to record approval result", zap.Error(uerr))
	}
}

// safeApprove guards OnApproved so an uncaught panic becomes the error
// path instead of a missing resolution.
func (d *Dispatcher) safeApprove(ctx context.Context, approver handler.Approver, act *action.Action) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("approval handler panicked: %v", r)
		}
	}()
	return approver.OnApproved(ctx, act)
}

// settleError forces an action into the error terminal state from wherever
// it currently is.
func (d *Dispatcher) settleError(ctx context.Context, actionID string, cause error) error {
	rerr := rpcerr.Decode(cause)
	patch := &action.Patch{Error: rerr.Message, ErrorCode: rerr.Code}
	if err := d.store.UpdateStatus(ctx, actionID, action.StatusError, patch); err == nil {
		return nil
	}
	// pending actions may not jump straight to error; pass through
	// submitting first
	if err := d.store.UpdateStatus(ctx, actionID, action.StatusSubmitting, nil); err != nil {
		return err
	}
	return d.store.UpdateStatus(ctx, actionID, action.StatusError, patch)
}
