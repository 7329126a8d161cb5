package approval

import (
	"context"
	"sync"
)

// MemoryWindowManager tracks popup windows in memory. The standalone server
// exposes open/close over the internal channel; the extension runtime
// replaces this with the browser windows API.
type MemoryWindowManager struct {
	mu     sync.Mutex
	nextID int
	open   map[int]string // windowID -> route
}

func NewMemoryWindowManager() *MemoryWindowManager {
	return &MemoryWindowManager{nextID: 1, open: make(map[int]string)}
}

func (m *MemoryWindowManager) OpenWindow(ctx context.Context, uiRoute string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.open[id] = uiRoute
	return id, nil
}

func (m *MemoryWindowManager) OpenWindowIDs(ctx context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.open))
	for id := range m.open {
		ids = append(ids, id)
	}
	return ids, nil
}

// CloseWindow marks a popup as closed. The reaper turns pending actions
// whose window disappeared into user cancellations.
func (m *MemoryWindowManager) CloseWindow(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, id)
}

// Route returns the UI route a window was opened with.
func (m *MemoryWindowManager) Route(id int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	route, ok := m.open[id]
	return route, ok
}
