package monitor

import (
	"sync/atomic"
	"time"
)

// Metrics tracks loop activity counters surfaced on the dashboard.
type Metrics struct {
	cycles           uint64
	ticks            uint64
	signalsGenerated uint64
	ordersPlaced     uint64
	errorsCount      uint64

	startedAt time.Time
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Cycles        uint64  `json:"cycles"`
	Ticks         uint64  `json:"ticks"`
	Signals       uint64  `json:"signals"`
	OrdersPlaced  uint64  `json:"orders_placed"`
	Errors        uint64  `json:"errors"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func New() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

func (m *Metrics) IncCycles()  { atomic.AddUint64(&m.cycles, 1) }
func (m *Metrics) IncTicks()   { atomic.AddUint64(&m.ticks, 1) }
func (m *Metrics) IncSignals() { atomic.AddUint64(&m.signalsGenerated, 1) }
func (m *Metrics) IncOrders()  { atomic.AddUint64(&m.ordersPlaced, 1) }
func (m *Metrics) IncErrors()  { atomic.AddUint64(&m.errorsCount, 1) }

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Cycles:        atomic.LoadUint64(&m.cycles),
		Ticks:         atomic.LoadUint64(&m.ticks),
		Signals:       atomic.LoadUint64(&m.signalsGenerated),
		OrdersPlaced:  atomic.LoadUint64(&m.ordersPlaced),
		Errors:        atomic.LoadUint64(&m.errorsCount),
		UptimeSeconds: time.Since(m.startedAt).Seconds(),
	}
}
