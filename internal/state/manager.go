package state

import (
	"sync"
	"time"
)

// Position records the currently held quantity and entry price for one
// market. The system is long-only: at most one open position per market.
type Position struct {
	Market     string    `json:"market"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	OpenedAt   time.Time `json:"opened_at"`
}

// Manager keeps the in-memory position map. It is written by the order
// executor after confirmed placements and read by the dashboard, so all
// access goes through one mutex.
type Manager struct {
	mu        sync.RWMutex
	positions map[string]Position
}

func NewManager() *Manager {
	return &Manager{positions: make(map[string]Position)}
}

// Open records a position after a confirmed buy placement. Entry price is
// the submitted price: bookkeeping is optimistic, keyed on order
// submission rather than fill confirmation.
func (m *Manager) Open(market string, entryPrice, quantity float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[market] = Position{
		Market:     market,
		EntryPrice: entryPrice,
		Quantity:   quantity,
		OpenedAt:   time.Now(),
	}
}

// Close removes the position for a market, returning it if present.
func (m *Manager) Close(market string) (Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[market]
	if ok {
		delete(m.positions, market)
	}
	return p, ok
}

// Get returns the open position for a market, if any.
func (m *Manager) Get(market string) (Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[market]
	return p, ok
}

// All returns a snapshot of every open position.
func (m *Manager) All() []Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]Position, 0, len(m.positions))
	for _, p := range m.positions {
		res = append(res, p)
	}
	return res
}
