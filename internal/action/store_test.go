package action

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-background/pkg/storage"
)

func newTestAction(id string) *Action {
	return &Action{
		ActionID: id,
		ID:       "req-" + id,
		Method:   "eth_sendTransaction",
		Status:   StatusPending,
		Time:     1700000000000,
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newTestAction("a1")))
	assert.ErrorIs(t, s.Create(ctx, newTestAction("a1")), ErrActionExists)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []Status
		wantErr bool
	}{
		{"approve flow", []Status{StatusSubmitting, StatusCompleted}, false},
		{"approve then failure", []Status{StatusSubmitting, StatusError}, false},
		{"reject while pending", []Status{StatusErrorUserCanceled}, false},
		{"local completion", []Status{StatusCompleted}, false},
		{"cancel while submitting", []Status{StatusSubmitting, StatusErrorUserCanceled}, false},
		{"error straight from pending", []Status{StatusError}, true},
		{"reopen after completion", []Status{StatusSubmitting, StatusCompleted, StatusSubmitting}, true},
		{"flip terminal state", []Status{StatusErrorUserCanceled, StatusCompleted}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(storage.NewMemoryStore())
			ctx := context.Background()
			require.NoError(t, s.Create(ctx, newTestAction("a1")))

			var err error
			for _, next := range tt.path {
				if err = s.UpdateStatus(ctx, "a1", next, nil); err != nil {
					break
				}
			}
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTerminalRepeatIsNoOp(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newTestAction("a1")))
	require.NoError(t, s.UpdateStatus(ctx, "a1", StatusErrorUserCanceled, nil))

	var completions int
	s.Subscribe(func(ev Event) {
		if ev.Type == EventCompleted {
			completions++
		}
	})

	// repeating the terminal status must neither error nor notify
	require.NoError(t, s.UpdateStatus(ctx, "a1", StatusErrorUserCanceled, nil))
	assert.Zero(t, completions)
}

func TestCompletedEventFiresOncePerAction(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())
	ctx := context.Background()

	var completed []string
	s.Subscribe(func(ev Event) {
		if ev.Type == EventCompleted {
			completed = append(completed, ev.Action.ActionID)
		}
	})

	require.NoError(t, s.Create(ctx, newTestAction("a1")))
	require.NoError(t, s.UpdateStatus(ctx, "a1", StatusSubmitting, nil))
	require.NoError(t, s.UpdateStatus(ctx, "a1", StatusCompleted, &Patch{Result: "0xdead"}))

	require.Equal(t, []string{"a1"}, completed)

	got := s.Get("a1")
	require.NotNil(t, got)
	assert.Equal(t, "0xdead", got.Result)
}

func TestPatchAppliesResultAndError(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newTestAction("a1")))
	require.NoError(t, s.UpdateStatus(ctx, "a1", StatusSubmitting, nil))
	require.NoError(t, s.UpdateStatus(ctx, "a1", StatusError, &Patch{
		Error: "Signing error, missing signatures.",
	}))

	got := s.Get("a1")
	require.NotNil(t, got)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "Signing error, missing signatures.", got.Error)
}

func TestRemoveStalePopups(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())
	ctx := context.Background()

	a1 := newTestAction("a1")
	a2 := newTestAction("a2")
	require.NoError(t, s.Create(ctx, a1))
	require.NoError(t, s.Create(ctx, a2))
	require.NoError(t, s.SetPopupWindowID(ctx, "a1", 100))
	require.NoError(t, s.SetPopupWindowID(ctx, "a2", 200))

	var canceled []string
	s.Subscribe(func(ev Event) {
		if ev.Type == EventCompleted && ev.Action.Status == StatusErrorUserCanceled {
			canceled = append(canceled, ev.Action.ActionID)
		}
	})

	// window 200 is still open, window 100 is gone
	open := map[int]struct{}{200: {}}
	s.RemoveStalePopups(ctx, open)
	assert.Equal(t, []string{"a1"}, canceled)

	// a second sweep with the same window set must not cancel a1 again
	s.RemoveStalePopups(ctx, open)
	assert.Equal(t, []string{"a1"}, canceled)

	got := s.Get("a2")
	require.NotNil(t, got)
	assert.Equal(t, StatusPending, got.Status)
}

func TestRehydrateSettlesInFlightActions(t *testing.T) {
	backing := storage.NewMemoryStore()
	ctx := context.Background()

	first := NewStore(backing)
	require.NoError(t, first.Create(ctx, newTestAction("pending-1")))
	submitting := newTestAction("submitting-1")
	require.NoError(t, first.Create(ctx, submitting))
	require.NoError(t, first.UpdateStatus(ctx, "submitting-1", StatusSubmitting, nil))

	// simulated restart: a fresh store over the same backing storage
	second := NewStore(backing)
	require.NoError(t, second.Rehydrate(ctx))

	got := second.Get("submitting-1")
	require.NotNil(t, got)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "wallet restarted before the request settled", got.Error)

	got = second.Get("pending-1")
	require.NotNil(t, got)
	assert.Equal(t, StatusErrorUserCanceled, got.Status)
}

func TestRehydrateEmptyStorage(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())
	require.NoError(t, s.Rehydrate(context.Background()))
	assert.Empty(t, s.Pending())
}

func TestPanickingListenerIsIsolated(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())
	ctx := context.Background()

	var reached bool
	s.Subscribe(func(Event) { panic("listener bug") })
	s.Subscribe(func(Event) { reached = true })

	require.NoError(t, s.Create(ctx, newTestAction("a1")))
	assert.True(t, reached)
}
