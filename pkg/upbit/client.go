package upbit

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Client wraps REST access to the Upbit exchange.
type Client struct {
	AccessKey  string
	SecretKey  string
	BaseURL    string
	HTTPClient *http.Client

	limiter *rate.Limiter
}

// NewClient builds a REST client. Public endpoints work without keys;
// private endpoints (accounts, orders) require both.
func NewClient(accessKey, secretKey string) *Client {
	return &Client{
		AccessKey:  accessKey,
		SecretKey:  secretKey,
		BaseURL:    "https://api.upbit.com/v1",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		// Upbit allows 8 order requests and 10 quotation requests per
		// second; one shared limiter below both keeps us clear.
		limiter: rate.NewLimiter(rate.Limit(8), 8),
	}
}

// Candles fetches the most recent minute candles for a market, returned
// ascending by time (Upbit serves them newest first).
func (c *Client) Candles(ctx context.Context, market string, count int) ([]Candle, error) {
	params := url.Values{}
	params.Set("market", market)
	params.Set("count", strconv.Itoa(count))

	var rows []candleRow
	if err := c.get(ctx, "/candles/minutes/1", params, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, ErrDataUnavailable
	}

	candles := make([]Candle, 0, len(rows))
	for _, r := range rows {
		candles = append(candles, Candle{
			Market:    r.Market,
			Open:      r.OpeningPrice,
			High:      r.HighPrice,
			Low:       r.LowPrice,
			Close:     r.TradePrice,
			Volume:    r.AccVolume,
			Timestamp: time.UnixMilli(r.TimestampMs),
		})
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

// Ticker returns the current trade price for a market.
func (c *Client) Ticker(ctx context.Context, market string) (float64, error) {
	params := url.Values{}
	params.Set("markets", market)

	var rows []tickerRow
	if err := c.get(ctx, "/ticker", params, &rows); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if len(rows) == 0 || rows[0].TradePrice <= 0 {
		return 0, ErrDataUnavailable
	}
	return rows[0].TradePrice, nil
}

// Balance returns the available balance for a currency (0 when the account
// holds none).
func (c *Client) Balance(ctx context.Context, currency string) (float64, error) {
	acct, ok, err := c.account(ctx, currency)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	bal, err := strconv.ParseFloat(acct.Balance, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", acct.Balance, err)
	}
	return bal, nil
}

// AvgBuyPrice returns the average buy price recorded by the exchange for a
// currency. The second return is false when no such account exists.
func (c *Client) AvgBuyPrice(ctx context.Context, currency string) (float64, bool, error) {
	acct, ok, err := c.account(ctx, currency)
	if err != nil || !ok {
		return 0, false, err
	}
	avg, err := strconv.ParseFloat(acct.AvgBuyPrice, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse avg_buy_price %q: %w", acct.AvgBuyPrice, err)
	}
	return avg, true, nil
}

// PlaceOrder submits an order. A (nil, nil) return means the exchange
// rejected the order (below minimum, insufficient funds); only transport
// and server failures surface as errors.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderConfirmation, error) {
	if c.AccessKey == "" || c.SecretKey == "" {
		return nil, ErrMissingCredentials
	}

	params := url.Values{}
	params.Set("market", req.Market)
	params.Set("side", string(req.Side))
	params.Set("ord_type", string(req.Type))
	switch req.Type {
	case OrderTypeLimit:
		params.Set("volume", formatDecimal(req.Volume))
		params.Set("price", formatDecimal(req.Price))
	case OrderTypePrice:
		params.Set("price", formatDecimal(req.Price))
	case OrderTypeMarket:
		params.Set("volume", formatDecimal(req.Volume))
	}

	body := make(map[string]string, len(params))
	for k := range params {
		body[k] = params.Get(k)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	token, err := c.authToken(params)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 && res.StatusCode < 500 {
		// The exchange decided: treat as rejection, not failure.
		return nil, nil
	}
	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upbit order status %d", res.StatusCode)
	}

	var conf OrderConfirmation
	if err := json.NewDecoder(res.Body).Decode(&conf); err != nil {
		return nil, fmt.Errorf("decode order confirmation: %w", err)
	}
	return &conf, nil
}

func (c *Client) account(ctx context.Context, currency string) (Account, bool, error) {
	if c.AccessKey == "" || c.SecretKey == "" {
		return Account{}, false, ErrMissingCredentials
	}

	var accounts []Account
	if err := c.get(ctx, "/accounts", nil, &accounts); err != nil {
		return Account{}, false, err
	}
	for _, a := range accounts {
		if a.Currency == currency {
			return a, true, nil
		}
	}
	return Account{}, false, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	// Private endpoints need a JWT; public ones ignore it.
	if path == "/accounts" {
		token, err := c.authToken(params)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return fmt.Errorf("upbit %s status %d: %s", path, res.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// authToken builds the JWT Upbit requires on private endpoints: HS256 over
// {access_key, nonce, query_hash(SHA512 of the urlencoded params)}.
func (c *Client) authToken(params url.Values) (string, error) {
	claims := jwt.MapClaims{
		"access_key": c.AccessKey,
		"nonce":      uuid.NewString(),
	}
	if len(params) > 0 {
		sum := sha512.Sum512([]byte(params.Encode()))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.SecretKey))
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
