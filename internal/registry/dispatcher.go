package registry

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"wallet-background/internal/action"
	"wallet-background/internal/handler"
	"wallet-background/internal/rpc"
	"wallet-background/pkg/logger"
	"wallet-background/pkg/monitor"
	"wallet-background/pkg/rpcerr"
)

// LockGate is the read side of the lock service.
type LockGate interface {
	Locked() bool
}

// Dispatcher routes provider requests to handlers, gates them on lock
// state, and owns the pending-request table that maps deferred actions
// back to their blocked page calls. Every accepted request resolves exactly
// once with either a result or an error.
type Dispatcher struct {
	providers *Registry
	internal  *Registry
	lock      LockGate
	store     *action.Store

	mu sync.Mutex
	// waiters holds the channel a deferred dispatch blocks on
	waiters map[string]chan *rpc.Response
	// settled buffers resolutions that raced ahead of waiter registration
	settled map[string]settledResponse
}

// settledResponse parks a resolution for a waiter that has not registered
// yet. A waiter may also never arrive, when the page context was canceled
// or the approval window failed to open, so parked entries expire.
type settledResponse struct {
	resp *rpc.Response
	at   time.Time
}

const settledTTL = time.Minute

func NewDispatcher(providers, internal *Registry, lock LockGate, store *action.Store) *Dispatcher {
	d := &Dispatcher{
		providers: providers,
		internal:  internal,
		lock:      lock,
		store:     store,
		waiters:   make(map[string]chan *rpc.Response),
		settled:   make(map[string]settledResponse),
	}
	store.Subscribe(d.onActionEvent)
	return d
}

// Dispatch services a dApp provider request, blocking until it resolves.
// Deferred requests stay blocked until the action settles or ctx ends.
func (d *Dispatcher) Dispatch(ctx context.Context, req *rpc.Request) *rpc.Response {
	return d.dispatch(ctx, d.providers, req)
}

// DispatchInternal services the wallet-internal extension channel. Internal
// requests carry no site and never consult domain permissions, but still
// route through the same lock gating.
func (d *Dispatcher) DispatchInternal(ctx context.Context, req *rpc.Request) *rpc.Response {
	return d.dispatch(ctx, d.internal, req)
}

func (d *Dispatcher) dispatch(ctx context.Context, reg *Registry, req *rpc.Request) *rpc.Response {
	if monitor.Business != nil {
		monitor.Business.RequestsTotal.WithLabelValues(req.Method).Inc()
	}

	h := reg.Lookup(req.Method)
	if h == nil {
		return d.finish(req, req.Fail(rpcerr.MethodNotFound.WithMessage(
			fmt.Sprintf("the method %s does not exist", req.Method))))
	}

	outcome := d.safeHandle(ctx, h, req)

	switch outcome.Kind {
	case rpc.OutcomeImmediate:
		return d.finish(req, req.Respond(outcome.Result))
	case rpc.OutcomeError:
		return d.finish(req, req.Fail(outcome.Err))
	case rpc.OutcomeDeferred:
		return d.finish(req, d.await(ctx, req, outcome.ActionID))
	default:
		return d.finish(req, req.Fail(rpcerr.Internal))
	}
}

// safeHandle invokes the handler with lock gating and a catch-all, so one
// malformed page call can never take down the dispatch loop.
func (d *Dispatcher) safeHandle(ctx context.Context, h handler.Handler, req *rpc.Request) (outcome rpc.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked",
				zap.String("method", req.Method), zap.Any("panic", r))
			outcome = rpc.Errored(rpcerr.Internal)
		}
	}()

	if d.lock.Locked() {
		return h.HandleUnauthenticated(ctx, req)
	}
	return h.HandleAuthenticated(ctx, req)
}

// await blocks until the action referenced by actionID reaches a terminal
// status. If the resolution already arrived it is consumed immediately.
func (d *Dispatcher) await(ctx context.Context, req *rpc.Request, actionID string) *rpc.Response {
	d.mu.Lock()
	if parked, ok := d.settled[actionID]; ok {
		delete(d.settled, actionID)
		d.mu.Unlock()
		return parked.resp
	}
	ch := make(chan *rpc.Response, 1)
	d.waiters[actionID] = ch
	d.mu.Unlock()

	select {
	case resp := <-ch:
		return resp
	case <-ctx.Done():
		d.mu.Lock()
		delete(d.waiters, actionID)
		delete(d.settled, actionID)
		d.mu.Unlock()
		// the page connection is gone; the reaper settles the action
		return req.Fail(rpcerr.Internal.WithMessage("request canceled"))
	}
}

// onActionEvent translates terminal store transitions into resolutions of
// the original page-bound request.
func (d *Dispatcher) onActionEvent(ev action.Event) {
	if ev.Type != action.EventCompleted {
		return
	}
	act := ev.Action
	resp := responseFor(act)

	d.mu.Lock()
	if ch, ok := d.waiters[act.ActionID]; ok {
		delete(d.waiters, act.ActionID)
		ch <- resp
	} else {
		d.settled[act.ActionID] = settledResponse{resp: resp, at: time.Now()}
	}
	d.dropExpiredLocked(time.Now())
	d.mu.Unlock()

	if monitor.Business != nil {
		monitor.Business.ActionsCompletedTotal.WithLabelValues(act.Method, string(act.Status)).Inc()
		if act.Time > 0 {
			elapsed := time.Since(time.UnixMilli(act.Time)).Seconds()
			monitor.Business.ApprovalLatency.WithLabelValues(act.Method).Observe(elapsed)
		}
	}

	// the terminal status has been captured; drop the store entry
	if err := d.store.Remove(context.Background(), act.ActionID); err != nil {
		logger.Error("failed to remove settled action",
			zap.String("actionId", act.ActionID), zap.Error(err))
	}
}

// dropExpiredLocked evicts parked resolutions nobody claimed within
// settledTTL. Callers hold d.mu.
func (d *Dispatcher) dropExpiredLocked(now time.Time) {
	for id, parked := range d.settled {
		if now.Sub(parked.at) > settledTTL {
			delete(d.settled, id)
		}
	}
}

func responseFor(act *action.Action) *rpc.Response {
	req := act.Request()
	switch act.Status {
	case action.StatusCompleted:
		return req.Respond(act.Result)
	case action.StatusErrorUserCanceled:
		return req.Fail(rpcerr.UserRejected)
	default:
		msg := act.Error
		if msg == "" {
			msg = "approval failed"
		}
		if act.ErrorCode != 0 {
			return req.Fail(&rpcerr.Error{Code: act.ErrorCode, Message: msg})
		}
		return req.Fail(rpcerr.Internal.WithMessage(msg))
	}
}

func (d *Dispatcher) finish(req *rpc.Request, resp *rpc.Response) *rpc.Response {
	if resp.Error != nil && monitor.Business != nil {
		monitor.Business.RequestErrorsTotal.
			WithLabelValues(req.Method, strconv.Itoa(resp.Error.Code)).Inc()
	}
	return resp
}
