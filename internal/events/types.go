package events

// Event enumerates the topics published by the trading engine.
type Event string

const (
	EventPriceTick      Event = "price_tick"
	EventStrategySignal Event = "strategy_signal"
	EventOrderPlaced    Event = "order_placed"
	EventOrderRejected  Event = "order_rejected"
	EventPositionOpened Event = "position_opened"
	EventPositionClosed Event = "position_closed"
	EventEngineStatus   Event = "engine_status"
)

// PriceTick is the payload for EventPriceTick.
type PriceTick struct {
	Market string  `json:"market"`
	Price  float64 `json:"price"`
}
