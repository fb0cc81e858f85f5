package upbit

import (
	"strings"
	"time"
)

// SplitMarket splits an Upbit market identifier ("KRW-BTC") into its quote
// and base currencies ("KRW", "BTC").
func SplitMarket(market string) (quote, base string) {
	parts := strings.SplitN(market, "-", 2)
	if len(parts) != 2 {
		return market, ""
	}
	return parts[0], parts[1]
}

// Candle is one OHLCV bucket for a market, ascending by Timestamp when
// returned from Client.Candles.
type Candle struct {
	Market    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Side is the order side in Upbit's wire vocabulary.
type Side string

const (
	SideBid Side = "bid" // buy
	SideAsk Side = "ask" // sell
)

// OrderType is the Upbit order type.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypePrice  OrderType = "price"  // market buy (spend amount)
	OrderTypeMarket OrderType = "market" // market sell (volume)
)

// OrderRequest describes an order to be placed.
type OrderRequest struct {
	Market string
	Side   Side
	Volume float64
	Price  float64
	Type   OrderType
}

// OrderConfirmation is the exchange acknowledgement of a placed order.
type OrderConfirmation struct {
	UUID      string    `json:"uuid"`
	Market    string    `json:"market"`
	Side      string    `json:"side"`
	OrdType   string    `json:"ord_type"`
	Price     string    `json:"price"`
	Volume    string    `json:"volume"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"-"`
}

// Account is a single currency balance row from /v1/accounts.
type Account struct {
	Currency            string `json:"currency"`
	Balance             string `json:"balance"`
	Locked              string `json:"locked"`
	AvgBuyPrice         string `json:"avg_buy_price"`
	AvgBuyPriceModified bool   `json:"avg_buy_price_modified"`
	UnitCurrency        string `json:"unit_currency"`
}

// candleRow mirrors Upbit's minute-candle JSON (newest first on the wire).
type candleRow struct {
	Market       string  `json:"market"`
	DateTimeUTC  string  `json:"candle_date_time_utc"`
	OpeningPrice float64 `json:"opening_price"`
	HighPrice    float64 `json:"high_price"`
	LowPrice     float64 `json:"low_price"`
	TradePrice   float64 `json:"trade_price"`
	AccVolume    float64 `json:"candle_acc_trade_volume"`
	TimestampMs  int64   `json:"timestamp"`
}

// tickerRow mirrors one element of the /v1/ticker response.
type tickerRow struct {
	Market     string  `json:"market"`
	TradePrice float64 `json:"trade_price"`
}
