package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"wallet-background/pkg/logger"
	"wallet-background/pkg/storage"
)

// StorageKey is where the full action map is persisted.
const StorageKey = "actions"

var (
	ErrActionExists   = errors.New("action id already exists")
	ErrActionNotFound = errors.New("action not found")
)

// Store is the single source of truth for pending-approval state. It is the
// only component allowed to mutate an action's status; everything else goes
// through the transition API. Every mutation is persisted before listeners
// are notified, so an evicted background process can rehydrate.
type Store struct {
	mu        sync.Mutex
	actions   map[string]*Action
	storage   storage.Store
	listeners []func(Event)
}

func NewStore(st storage.Store) *Store {
	return &Store{
		actions: make(map[string]*Action),
		storage: st,
	}
}

// Subscribe registers a listener for store events. Listeners are called
// synchronously in registration order; a panicking listener is isolated.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Create inserts the action under its actionId. At most one live entry may
// exist per id.
func (s *Store) Create(ctx context.Context, act *Action) error {
	s.mu.Lock()
	if _, ok := s.actions[act.ActionID]; ok {
		s.mu.Unlock()
		return ErrActionExists
	}
	if act.Status == "" {
		act.Status = StatusPending
	}
	s.actions[act.ActionID] = act
	err := s.persistLocked(ctx)
	snapshot := act.Clone()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify(Event{Type: EventUpdated, Action: snapshot})
	return nil
}

// Get returns a snapshot of the action, or nil if unknown.
func (s *Store) Get(actionID string) *Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	act, ok := s.actions[actionID]
	if !ok {
		return nil
	}
	return act.Clone()
}

// Pending returns snapshots of all non-terminal actions, for the approval UI.
func (s *Store) Pending() []*Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Action
	for _, act := range s.actions {
		if !act.Status.Terminal() {
			out = append(out, act.Clone())
		}
	}
	return out
}

// SetPopupWindowID records the approval window opened for the action.
func (s *Store) SetPopupWindowID(ctx context.Context, actionID string, windowID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	act, ok := s.actions[actionID]
	if !ok {
		return ErrActionNotFound
	}
	act.PopupWindowID = windowID
	return s.persistLocked(ctx)
}

// UpdateStatus applies a status transition plus an optional patch. A repeat
// of the current terminal status is an idempotent no-op and fires nothing.
// Transitions outside the state machine are rejected.
func (s *Store) UpdateStatus(ctx context.Context, actionID string, status Status, patch *Patch) error {
	s.mu.Lock()
	act, ok := s.actions[actionID]
	if !ok {
		s.mu.Unlock()
		return ErrActionNotFound
	}

	if act.Status == status && status.Terminal() {
		s.mu.Unlock()
		return nil
	}

	if !transitionAllowed(act.Status, status) {
		from := act.Status
		s.mu.Unlock()
		return fmt.Errorf("illegal action transition %s -> %s for %s", from, status, actionID)
	}

	act.Status = status
	if patch != nil {
		if patch.Result != nil {
			act.Result = patch.Result
		}
		if patch.Error != "" {
			act.Error = patch.Error
		}
		if patch.ErrorCode != 0 {
			act.ErrorCode = patch.ErrorCode
		}
		if patch.DisplayData != nil {
			act.DisplayData = patch.DisplayData
		}
		if patch.TabID != 0 {
			act.TabID = patch.TabID
		}
	}

	err := s.persistLocked(ctx)
	snapshot := act.Clone()
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.notify(Event{Type: EventUpdated, Action: snapshot})
	if status.Terminal() {
		s.notify(Event{Type: EventCompleted, Action: snapshot})
	}
	return nil
}

// Remove deletes the action once its terminal status has been consumed.
func (s *Store) Remove(ctx context.Context, actionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actions[actionID]; !ok {
		return nil
	}
	delete(s.actions, actionID)
	return s.persistLocked(ctx)
}

// RemoveStalePopups forces every still-pending action whose popup window is
// no longer open into the user-canceled terminal status. The page-side
// promise of such a request must never be left hanging.
func (s *Store) RemoveStalePopups(ctx context.Context, openWindowIDs map[int]struct{}) {
	s.mu.Lock()
	var stale []string
	for id, act := range s.actions {
		if act.Status != StatusPending {
			continue
		}
		if _, open := openWindowIDs[act.PopupWindowID]; !open {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		if err := s.UpdateStatus(ctx, id, StatusErrorUserCanceled, nil); err != nil {
			logger.Error("stale popup sweep failed", zap.String("actionId", id), zap.Error(err))
		} else {
			logger.Info("reaped stale approval popup", zap.String("actionId", id))
		}
	}
}

// Rehydrate loads the persisted action map after a process restart. The
// original page-side promises did not survive the restart, so in-flight
// entries are settled instead of resumed: submitting actions become errors
// (their side effects must not be re-run), pending ones are treated like a
// closed popup.
func (s *Store) Rehydrate(ctx context.Context) error {
	raw, err := s.storage.Load(ctx, StorageKey)
	if err == storage.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	var persisted map[string]*Action
	if err := json.Unmarshal(raw, &persisted); err != nil {
		return fmt.Errorf("corrupt action state: %w", err)
	}

	s.mu.Lock()
	s.actions = persisted
	if s.actions == nil {
		s.actions = make(map[string]*Action)
	}
	var submitting, pending []string
	for id, act := range s.actions {
		switch act.Status {
		case StatusSubmitting:
			submitting = append(submitting, id)
		case StatusPending:
			pending = append(pending, id)
		}
	}
	s.mu.Unlock()

	for _, id := range submitting {
		err := s.UpdateStatus(ctx, id, StatusError, &Patch{
			Error: "wallet restarted before the request settled",
		})
		if err != nil {
			logger.Error("rehydration settle failed", zap.String("actionId", id), zap.Error(err))
		}
	}
	for _, id := range pending {
		if err := s.UpdateStatus(ctx, id, StatusErrorUserCanceled, nil); err != nil {
			logger.Error("rehydration settle failed", zap.String("actionId", id), zap.Error(err))
		}
	}

	if len(submitting)+len(pending) > 0 {
		logger.Info("settled in-flight actions after restart",
			zap.Int("submitting", len(submitting)),
			zap.Int("pending", len(pending)))
	}
	return nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(s.actions)
	if err != nil {
		return err
	}
	return s.storage.Save(ctx, StorageKey, raw)
}

func (s *Store) notify(ev Event) {
	s.mu.Lock()
	listeners := make([]func(Event), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("action listener panicked", zap.Any("panic", r))
				}
			}()
			fn(ev)
		}()
	}
}
