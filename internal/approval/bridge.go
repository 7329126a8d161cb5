package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wallet-background/internal/action"
	"wallet-background/pkg/logger"
	"wallet-background/pkg/monitor"
)

// WindowManager abstracts the UI windowing surface the approval popups live
// in. The extension runtime backs this with the browser windows API; tests
// and the standalone server use the in-memory implementation.
type WindowManager interface {
	// OpenWindow opens a popup for the given UI route and returns its
	// window id
	OpenWindow(ctx context.Context, uiRoute string) (int, error)
	// OpenWindowIDs lists the ids of all currently open popups
	OpenWindowIDs(ctx context.Context) ([]int, error)
}

// Bridge registers deferred actions and opens their approval windows. The
// user's eventual decision arrives on the internal channel and is executed
// by the dispatcher; the bridge's job ends once the window id is recorded
// on the action.
type Bridge struct {
	store     *action.Store
	windows   WindowManager
	baseRoute string
}

func NewBridge(store *action.Store, windows WindowManager, baseRoute string) *Bridge {
	return &Bridge{store: store, windows: windows, baseRoute: baseRoute}
}

// OpenApproval implements handler.ApprovalOpener. It assigns the action id,
// persists the pending action and opens the UI window. If the window cannot
// be opened the action is settled as user-canceled immediately so the page
// promise never hangs.
func (b *Bridge) OpenApproval(ctx context.Context, act *action.Action, uiRoute string) error {
	if act.ActionID == "" {
		act.ActionID = uuid.NewString()
	}
	if act.Time == 0 {
		act.Time = time.Now().UnixMilli()
	}
	act.Status = action.StatusPending

	if err := b.store.Create(ctx, act); err != nil {
		return err
	}

	route := fmt.Sprintf("%s/%s?actionId=%s", b.baseRoute, uiRoute, act.ActionID)
	windowID, err := b.windows.OpenWindow(ctx, route)
	if err != nil {
		logger.Error("failed to open approval window",
			zap.String("actionId", act.ActionID), zap.Error(err))
		if cancelErr := b.store.UpdateStatus(ctx, act.ActionID, action.StatusErrorUserCanceled, nil); cancelErr != nil {
			logger.Error("failed to settle unopened approval", zap.Error(cancelErr))
		}
		return err
	}

	if err := b.store.SetPopupWindowID(ctx, act.ActionID, windowID); err != nil {
		return err
	}

	if monitor.Business != nil {
		monitor.Business.ActionsCreatedTotal.WithLabelValues(act.Method).Inc()
	}
	logger.Info("approval window opened",
		zap.String("actionId", act.ActionID),
		zap.String("method", act.Method),
		zap.Int("windowId", windowID))
	return nil
}
