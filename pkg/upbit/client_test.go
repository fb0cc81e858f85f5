package upbit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(ts *httptest.Server) *Client {
	c := NewClient("access", "secret")
	c.BaseURL = ts.URL
	c.HTTPClient = ts.Client()
	return c
}

func TestSplitMarket(t *testing.T) {
	tests := []struct {
		market string
		quote  string
		base   string
	}{
		{market: "KRW-BTC", quote: "KRW", base: "BTC"},
		{market: "BTC-ETH", quote: "BTC", base: "ETH"},
		{market: "KRW", quote: "KRW", base: ""},
	}
	for _, tt := range tests {
		quote, base := SplitMarket(tt.market)
		if quote != tt.quote || base != tt.base {
			t.Fatalf("SplitMarket(%q)=(%q,%q), expected (%q,%q)", tt.market, quote, base, tt.quote, tt.base)
		}
	}
}

func TestCandlesSortedAscending(t *testing.T) {
	// Upbit serves newest first; the client must reverse to ascending.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/candles/minutes/1") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("market") != "KRW-BTC" {
			t.Errorf("market=%q", r.URL.Query().Get("market"))
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"market": "KRW-BTC", "trade_price": 102.0, "timestamp": 3000},
			{"market": "KRW-BTC", "trade_price": 101.0, "timestamp": 2000},
			{"market": "KRW-BTC", "trade_price": 100.0, "timestamp": 1000},
		})
	}))
	defer ts.Close()

	candles, err := newTestClient(ts).Candles(context.Background(), "KRW-BTC", 3)
	if err != nil {
		t.Fatalf("Candles returned error: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("got %d candles, expected 3", len(candles))
	}
	for i, want := range []float64{100, 101, 102} {
		if candles[i].Close != want {
			t.Fatalf("candles[%d].Close=%v, expected %v", i, candles[i].Close, want)
		}
	}
}

func TestCandlesUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "maintenance", http.StatusServiceUnavailable)
			},
		},
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("[]"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			_, err := newTestClient(ts).Candles(context.Background(), "KRW-BTC", 20)
			if !errors.Is(err, ErrDataUnavailable) {
				t.Fatalf("err=%v, expected ErrDataUnavailable", err)
			}
		})
	}
}

func TestTicker(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"market": "KRW-BTC", "trade_price": 50000000.0},
		})
	}))
	defer ts.Close()

	price, err := newTestClient(ts).Ticker(context.Background(), "KRW-BTC")
	if err != nil {
		t.Fatalf("Ticker returned error: %v", err)
	}
	if price != 50000000 {
		t.Fatalf("price=%v, expected 50000000", price)
	}
}

func TestBalanceScansAccounts(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]map[string]any{
			{"currency": "KRW", "balance": "150000.5", "avg_buy_price": "0"},
			{"currency": "BTC", "balance": "0.002", "avg_buy_price": "49000000"},
		})
	}))
	defer ts.Close()

	client := newTestClient(ts)

	bal, err := client.Balance(context.Background(), "KRW")
	if err != nil {
		t.Fatalf("Balance returned error: %v", err)
	}
	if bal != 150000.5 {
		t.Fatalf("balance=%v, expected 150000.5", bal)
	}
	if !strings.HasPrefix(gotAuth, "Bearer ") {
		t.Fatalf("accounts request missing bearer token, got %q", gotAuth)
	}

	// Unknown currency is zero, not an error.
	bal, err = client.Balance(context.Background(), "ETH")
	if err != nil || bal != 0 {
		t.Fatalf("Balance(ETH)=(%v,%v), expected (0,nil)", bal, err)
	}

	avg, ok, err := client.AvgBuyPrice(context.Background(), "BTC")
	if err != nil || !ok || avg != 49000000 {
		t.Fatalf("AvgBuyPrice(BTC)=(%v,%t,%v), expected (49000000,true,nil)", avg, ok, err)
	}
	if _, ok, _ := client.AvgBuyPrice(context.Background(), "ETH"); ok {
		t.Fatalf("AvgBuyPrice(ETH) found a missing account")
	}
}

func TestBalanceRequiresCredentials(t *testing.T) {
	c := NewClient("", "")
	if _, err := c.Balance(context.Background(), "KRW"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err=%v, expected ErrMissingCredentials", err)
	}
}

func TestPlaceOrder(t *testing.T) {
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Bearer ") {
			t.Errorf("missing bearer token, got %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"uuid": "9ca023a5-851b-4fec-9f0a-48cd83c2eaae", "market": "KRW-BTC",
			"side": "bid", "ord_type": "limit", "state": "wait",
		})
	}))
	defer ts.Close()

	conf, err := newTestClient(ts).PlaceOrder(context.Background(), OrderRequest{
		Market: "KRW-BTC",
		Side:   SideBid,
		Volume: 0.001999,
		Price:  50000000,
		Type:   OrderTypeLimit,
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}
	if conf == nil || conf.UUID != "9ca023a5-851b-4fec-9f0a-48cd83c2eaae" {
		t.Fatalf("confirmation=%+v", conf)
	}

	if gotBody["market"] != "KRW-BTC" || gotBody["side"] != "bid" || gotBody["ord_type"] != "limit" {
		t.Fatalf("body=%v", gotBody)
	}
	// Decimals go on the wire in plain notation, no exponent.
	if gotBody["volume"] != "0.001999" || gotBody["price"] != "50000000" {
		t.Fatalf("volume=%q price=%q", gotBody["volume"], gotBody["price"])
	}
}

func TestPlaceOrderRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"name":"under_min_total_bid"}}`))
	}))
	defer ts.Close()

	conf, err := newTestClient(ts).PlaceOrder(context.Background(), OrderRequest{
		Market: "KRW-BTC", Side: SideBid, Volume: 0.0001, Price: 1000, Type: OrderTypeLimit,
	})
	if err != nil {
		t.Fatalf("4xx must not surface as error, got %v", err)
	}
	if conf != nil {
		t.Fatalf("4xx must yield nil confirmation, got %+v", conf)
	}
}

func TestPlaceOrderServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).PlaceOrder(context.Background(), OrderRequest{
		Market: "KRW-BTC", Side: SideBid, Volume: 0.001, Price: 1000, Type: OrderTypeLimit,
	})
	if err == nil {
		t.Fatalf("5xx must surface as a retryable error")
	}
}

func TestPlaceOrderRequiresCredentials(t *testing.T) {
	c := NewClient("", "secret")
	_, err := c.PlaceOrder(context.Background(), OrderRequest{Market: "KRW-BTC"})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err=%v, expected ErrMissingCredentials", err)
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0.001999, want: "0.001999"},
		{in: 50000000, want: "50000000"},
		{in: 0.00000001, want: "0.00000001"},
	}
	for _, tt := range tests {
		if got := formatDecimal(tt.in); got != tt.want {
			t.Fatalf("formatDecimal(%v)=%q, expected %q", tt.in, got, tt.want)
		}
	}
}
