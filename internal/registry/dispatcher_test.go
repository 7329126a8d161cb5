package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-background/internal/action"
	"wallet-background/internal/handler"
	"wallet-background/internal/rpc"
	"wallet-background/pkg/rpcerr"
	"wallet-background/pkg/storage"
)

type fakeGate struct{ locked bool }

func (g *fakeGate) Locked() bool { return g.locked }

// immediateHandler answers a fixed result when unlocked and 4100 when
// locked.
type immediateHandler struct {
	method string
	result interface{}
}

func (h *immediateHandler) Methods() []string { return []string{h.method} }

func (h *immediateHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return rpc.Errored(rpcerr.Unauthorized)
}

func (h *immediateHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return rpc.Immediate(h.result)
}

// deferringHandler opens an action directly against the store and waits on
// approval. OnApproved returns the configured result or error.
type deferringHandler struct {
	method string
	store  *action.Store

	result    interface{}
	approveEr error
	panics    bool
	local     bool

	created chan string
}

func (h *deferringHandler) Methods() []string { return []string{h.method} }

func (h *deferringHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return rpc.Errored(rpcerr.Unauthorized)
}

func (h *deferringHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	act := &action.Action{
		ActionID: uuid.NewString(),
		ID:       req.ID,
		Method:   req.Method,
		Params:   req.Params,
		Status:   action.StatusPending,
		Time:     time.Now().UnixMilli(),
	}
	if err := h.store.Create(ctx, act); err != nil {
		return rpc.Errored(rpcerr.Internal.WithMessage(err.Error()))
	}
	h.created <- act.ActionID
	return rpc.Deferred(act.ActionID)
}

func (h *deferringHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	if h.panics {
		panic("approval bug")
	}
	return h.result, h.approveEr
}

func (h *deferringHandler) ApprovesLocally() bool { return h.local }

// panicHandler blows up on every call.
type panicHandler struct{}

func (panicHandler) Methods() []string { return []string{"explode"} }

func (panicHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	panic("boom")
}

func (panicHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	panic("boom")
}

func newTestDispatcher(t *testing.T, locked bool, handlers ...handler.Handler) (*Dispatcher, *action.Store) {
	t.Helper()
	store := action.NewStore(storage.NewMemoryStore())
	providers := New()
	for _, h := range handlers {
		if dh, ok := h.(*deferringHandler); ok {
			dh.store = store
			dh.created = make(chan string, 4)
		}
	}
	providers.MustRegister(handlers...)
	d := NewDispatcher(providers, New(), &fakeGate{locked: locked}, store)
	return d, store
}

// dispatchAsync runs Dispatch on its own goroutine and returns the channel
// its response lands on.
func dispatchAsync(d *Dispatcher, req *rpc.Request) <-chan *rpc.Response {
	out := make(chan *rpc.Response, 1)
	go func() { out <- d.Dispatch(context.Background(), req) }()
	return out
}

func waitForAction(t *testing.T, h *deferringHandler) string {
	t.Helper()
	select {
	case id := <-h.created:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("handler never deferred")
		return ""
	}
}

func TestDispatchUnknownMethod(t *testing.T) {
	d, _ := newTestDispatcher(t, false)

	resp := d.Dispatch(context.Background(), &rpc.Request{ID: "1", Method: "eth_mystery"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpcerr.MethodNotFound.Code, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "eth_mystery")
}

func TestDispatchLockedRoutesUnauthenticated(t *testing.T) {
	d, _ := newTestDispatcher(t, true, &immediateHandler{method: "eth_accounts", result: []string{"0xabc"}})

	resp := d.Dispatch(context.Background(), &rpc.Request{ID: "1", Method: "eth_accounts"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpcerr.Unauthorized.Code, resp.Error.Code)
}

func TestDispatchImmediate(t *testing.T) {
	d, _ := newTestDispatcher(t, false, &immediateHandler{method: "eth_accounts", result: []string{"0xabc"}})

	resp := d.Dispatch(context.Background(), &rpc.Request{ID: "1", Method: "eth_accounts"})
	require.Nil(t, resp.Error)
	assert.Equal(t, []string{"0xabc"}, resp.Result)
	assert.Equal(t, "1", resp.ID)
}

func TestDispatchHandlerPanicBecomesInternalError(t *testing.T) {
	d, _ := newTestDispatcher(t, false, panicHandler{})

	resp := d.Dispatch(context.Background(), &rpc.Request{ID: "1", Method: "explode"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpcerr.Internal.Code, resp.Error.Code)
}

func TestDeferredApprovalResolvesPage(t *testing.T) {
	h := &deferringHandler{method: "personal_sign", result: "0xsigned"}
	d, store := newTestDispatcher(t, false, h)

	respCh := dispatchAsync(d, &rpc.Request{ID: "1", Method: "personal_sign"})
	actionID := waitForAction(t, h)

	require.NoError(t, d.ResolveApproval(context.Background(), actionID, true))

	resp := <-respCh
	require.Nil(t, resp.Error)
	assert.Equal(t, "0xsigned", resp.Result)

	// settled actions leave the store
	assert.Nil(t, store.Get(actionID))
}

func TestDeferredRejectionResolvesWithUserRejected(t *testing.T) {
	h := &deferringHandler{method: "personal_sign"}
	d, _ := newTestDispatcher(t, false, h)

	respCh := dispatchAsync(d, &rpc.Request{ID: "1", Method: "personal_sign"})
	actionID := waitForAction(t, h)

	require.NoError(t, d.ResolveApproval(context.Background(), actionID, false))

	resp := <-respCh
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpcerr.UserRejected.Code, resp.Error.Code)
}

func TestApprovalFailureReachesPage(t *testing.T) {
	h := &deferringHandler{
		method:    "avalanche_sendTransaction",
		approveEr: errors.New("Signing error, missing signatures."),
	}
	d, _ := newTestDispatcher(t, false, h)

	respCh := dispatchAsync(d, &rpc.Request{ID: "1", Method: "avalanche_sendTransaction"})
	actionID := waitForAction(t, h)

	require.NoError(t, d.ResolveApproval(context.Background(), actionID, true))

	resp := <-respCh
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpcerr.Internal.Code, resp.Error.Code)
	assert.Equal(t, "Signing error, missing signatures.", resp.Error.Message)
}

func TestApprovalPanicResolvesWithError(t *testing.T) {
	h := &deferringHandler{method: "personal_sign", panics: true}
	d, _ := newTestDispatcher(t, false, h)

	respCh := dispatchAsync(d, &rpc.Request{ID: "1", Method: "personal_sign"})
	actionID := waitForAction(t, h)

	require.NoError(t, d.ResolveApproval(context.Background(), actionID, true))

	resp := <-respCh
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpcerr.Internal.Code, resp.Error.Code)
}

func TestLocalApprovalCompletesSynchronously(t *testing.T) {
	h := &deferringHandler{method: "wallet_addEthereumChain", result: nil, local: true}
	d, _ := newTestDispatcher(t, false, h)

	respCh := dispatchAsync(d, &rpc.Request{ID: "1", Method: "wallet_addEthereumChain"})
	actionID := waitForAction(t, h)

	require.NoError(t, d.ResolveApproval(context.Background(), actionID, true))

	resp := <-respCh
	assert.Nil(t, resp.Error)
}

func TestResolveApprovalUnknownAction(t *testing.T) {
	d, _ := newTestDispatcher(t, false)
	err := d.ResolveApproval(context.Background(), "no-such-action", true)
	assert.ErrorIs(t, err, action.ErrActionNotFound)
}

func TestConcurrentActionsResolveIndependently(t *testing.T) {
	signer := &deferringHandler{method: "personal_sign", result: "0xsigned"}
	sender := &deferringHandler{method: "eth_sendTransaction", result: "0xhash"}
	d, _ := newTestDispatcher(t, false, signer, sender)

	signCh := dispatchAsync(d, &rpc.Request{ID: "1", Method: "personal_sign"})
	signID := waitForAction(t, signer)
	sendCh := dispatchAsync(d, &rpc.Request{ID: "2", Method: "eth_sendTransaction"})
	sendID := waitForAction(t, sender)

	// resolve in the reverse order of arrival
	require.NoError(t, d.ResolveApproval(context.Background(), sendID, true))
	require.NoError(t, d.ResolveApproval(context.Background(), signID, false))

	sendResp := <-sendCh
	require.Nil(t, sendResp.Error)
	assert.Equal(t, "0xhash", sendResp.Result)
	assert.Equal(t, "2", sendResp.ID)

	signResp := <-signCh
	require.NotNil(t, signResp.Error)
	assert.Equal(t, rpcerr.UserRejected.Code, signResp.Error.Code)
	assert.Equal(t, "1", signResp.ID)
}

func TestDispatchContextCancellation(t *testing.T) {
	h := &deferringHandler{method: "personal_sign"}
	d, _ := newTestDispatcher(t, false, h)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan *rpc.Response, 1)
	go func() { out <- d.Dispatch(ctx, &rpc.Request{ID: "1", Method: "personal_sign"}) }()
	waitForAction(t, h)

	cancel()
	resp := <-out
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpcerr.Internal.Code, resp.Error.Code)
}

func TestApprovalErrorKeepsProviderCode(t *testing.T) {
	h := &deferringHandler{
		method: "wallet_switchEthereumChain",
		approveEr: rpcerr.UnrecognizedChain.WithMessage(
			"Unrecognized chain ID 0x539. Try adding the chain using wallet_addEthereumChain first."),
	}
	d, _ := newTestDispatcher(t, false, h)

	respCh := dispatchAsync(d, &rpc.Request{ID: "1", Method: "wallet_switchEthereumChain"})
	actionID := waitForAction(t, h)

	require.NoError(t, d.ResolveApproval(context.Background(), actionID, true))

	resp := <-respCh
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpcerr.UnrecognizedChain.Code, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "0x539")
}

func TestParkedResolutionsExpireWithoutConsumer(t *testing.T) {
	d, _ := newTestDispatcher(t, false)

	// a resolution whose waiter bailed out long ago
	abandoned := &rpc.Request{ID: "req-old", Method: "personal_sign"}
	d.mu.Lock()
	d.settled["old"] = settledResponse{
		resp: abandoned.Respond("0xstale"),
		at:   time.Now().Add(-2 * settledTTL),
	}
	d.mu.Unlock()

	fresh := &action.Action{
		ActionID: "fresh",
		ID:       "req-fresh",
		Method:   "eth_sendTransaction",
		Status:   action.StatusCompleted,
		Result:   "0xbeef",
	}
	d.onActionEvent(action.Event{Type: action.EventCompleted, Action: fresh})

	d.mu.Lock()
	defer d.mu.Unlock()
	_, oldKept := d.settled["old"]
	parked, freshKept := d.settled["fresh"]
	assert.False(t, oldKept)
	require.True(t, freshKept)
	assert.Equal(t, "0xbeef", parked.resp.Result)
}

func TestRegistryRejectsDuplicateMethodClaims(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&immediateHandler{method: "eth_accounts"}))
	assert.Error(t, r.Register(&immediateHandler{method: "eth_accounts"}))
}
