package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"autotrader-backend/internal/domain"
)

// TradingClient handles authenticated Binance spot requests. It embeds the
// public Client so it satisfies domain.ExchangeGateway on its own.
type TradingClient struct {
	*Client
	apiKey    string
	secretKey string
	filters   *FilterBook
}

// APIError captures structured error info returned by Binance.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"msg"`
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "binance API error"
	}
	if e.Code != 0 || e.Message != "" {
		return fmt.Sprintf("binance API error %d (code=%d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("binance API error %d: %s", e.StatusCode, e.Body)
}

func parseAPIError(statusCode int, body []byte) error {
	var parsed struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && (parsed.Code != 0 || parsed.Msg != "") {
		return &APIError{StatusCode: statusCode, Code: parsed.Code, Message: parsed.Msg, Body: string(body)}
	}
	return &APIError{StatusCode: statusCode, Body: string(body)}
}

// NewTradingClient creates a new authenticated client. Testnet mode points
// at the spot testnet so the bot can run against play money.
func NewTradingClient(apiKey, secretKey string, isTestnet bool) *TradingClient {
	baseURL := SpotBaseURL
	if isTestnet {
		baseURL = TestnetBaseURL
	}
	return &TradingClient{
		Client:    NewClient(baseURL),
		apiKey:    apiKey,
		secretKey: secretKey,
	}
}

// LoadInstrumentFilters loads exchange step sizes and retains them for
// quantizing subsequent orders.
func (c *TradingClient) LoadInstrumentFilters() (map[string]domain.InstrumentFilter, error) {
	filters, err := c.Client.LoadInstrumentFilters()
	if err != nil {
		return nil, err
	}
	c.filters = NewFilterBook(filters)
	return filters, nil
}

// GetBalances retrieves free amounts per asset, positive balances only.
func (c *TradingClient) GetBalances() (map[string]float64, error) {
	resp, err := c.signedRequest(http.MethodGet, "/api/v3/account", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var account struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, err
	}

	balances := make(map[string]float64)
	for _, b := range account.Balances {
		free, _ := strconv.ParseFloat(b.Free, 64)
		if free > 0 {
			balances[b.Asset] = free
		}
	}
	return balances, nil
}

// PlaceOrder submits an order. Quantity (and price for LIMIT) is rendered
// through the filter book so the string Binance sees is step-aligned and
// free of exponent notation.
func (c *TradingClient) PlaceOrder(req *domain.OrderRequest) (*domain.OrderResponse, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", req.Side)
	params.Set("type", req.OrderType)
	params.Set("quantity", c.filters.FormatQuantity(req.Symbol, req.Quantity))

	if req.OrderType == "LIMIT" && req.Price > 0 {
		params.Set("price", c.filters.FormatPrice(req.Symbol, req.Price))
		params.Set("timeInForce", "GTC")
	}

	resp, err := c.signedRequest(http.MethodPost, "/api/v3/order", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	// orderId is decoded as json.Number: Binance ids overflow float64, so
	// they must never pass through a float.
	var placed struct {
		OrderID     json.Number `json:"orderId"`
		Symbol      string      `json:"symbol"`
		Status      string      `json:"status"`
		ExecutedQty string      `json:"executedQty"`
	}
	if err := json.Unmarshal(body, &placed); err != nil {
		return nil, err
	}

	executedQty, _ := strconv.ParseFloat(placed.ExecutedQty, 64)
	return &domain.OrderResponse{
		OrderID:     placed.OrderID.String(),
		Symbol:      placed.Symbol,
		Status:      placed.Status,
		ExecutedQty: executedQty,
	}, nil
}

// GetOpenOrders retrieves resting orders for a symbol.
func (c *TradingClient) GetOpenOrders(symbol string) ([]domain.OpenOrder, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}

	resp, err := c.signedRequest(http.MethodGet, "/api/v3/openOrders", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var raw []struct {
		OrderID json.Number `json:"orderId"`
		Symbol  string      `json:"symbol"`
		Side    string      `json:"side"`
		Price   string      `json:"price"`
		OrigQty string      `json:"origQty"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	orders := make([]domain.OpenOrder, 0, len(raw))
	for _, o := range raw {
		price, _ := strconv.ParseFloat(o.Price, 64)
		qty, _ := strconv.ParseFloat(o.OrigQty, 64)
		orders = append(orders, domain.OpenOrder{
			OrderID: o.OrderID.String(),
			Symbol:  o.Symbol,
			Side:    o.Side,
			Price:   price,
			Qty:     qty,
		})
	}
	return orders, nil
}

// CancelOrder cancels a resting order by its opaque id.
func (c *TradingClient) CancelOrder(symbol, orderID string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)

	resp, err := c.signedRequest(http.MethodDelete, "/api/v3/order", params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return parseAPIError(resp.StatusCode, body)
	}
	return nil
}

// signedRequest makes a signed API request. The signature is HMAC-SHA256
// over the canonical query string; the millisecond timestamp is mandatory.
func (c *TradingClient) signedRequest(method, endpoint string, params url.Values) (*http.Response, error) {
	if params == nil {
		params = url.Values{}
	}

	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	queryString := params.Encode()
	signature := c.sign(queryString)

	fullURL := c.baseURL + endpoint + "?" + queryString + "&signature=" + signature

	req, err := http.NewRequest(method, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	return c.httpClient.Do(req)
}

// sign creates the HMAC SHA256 signature keyed by the account secret.
func (c *TradingClient) sign(message string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
