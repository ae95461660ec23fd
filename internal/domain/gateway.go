package domain

// InstrumentFilter holds the exchange step sizes for one symbol. The steps
// are kept as the exact decimal strings Binance reports; converting them to
// binary floats would defeat the quantizer.
type InstrumentFilter struct {
	QuantityStep string `json:"quantityStep"` // LOT_SIZE stepSize
	PriceStep    string `json:"priceStep"`    // PRICE_FILTER tickSize
}

// OrderRequest is a request to place a spot order.
type OrderRequest struct {
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`      // BUY or SELL
	OrderType string  `json:"orderType"` // MARKET or LIMIT
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price,omitempty"` // LIMIT only
}

// OrderResponse is what the exchange reports back after placing an order.
// OrderID stays an opaque string (see Trade.OrderID).
type OrderResponse struct {
	OrderID     string  `json:"orderId"`
	Symbol      string  `json:"symbol"`
	Status      string  `json:"status"`
	ExecutedQty float64 `json:"executedQty"`
}

// OpenOrder is a resting order that has not matched yet.
type OpenOrder struct {
	OrderID string  `json:"orderId"`
	Symbol  string  `json:"symbol"`
	Side    string  `json:"side"`
	Price   float64 `json:"price"`
	Qty     float64 `json:"origQty"`
}

// ExchangeGateway abstracts the signed Binance REST surface the bot needs.
type ExchangeGateway interface {
	// Ping reports whether the exchange API is reachable.
	Ping() bool
	// GetCandles returns up to limit bars for symbol/interval, oldest first.
	GetCandles(symbol, interval string, limit int) ([]Candle, error)
	// GetBalances returns free amounts per asset, positive balances only.
	GetBalances() (map[string]float64, error)
	// PlaceOrder submits an order with quantity (and price for LIMIT)
	// already quantized to the symbol's step sizes.
	PlaceOrder(req *OrderRequest) (*OrderResponse, error)
	GetOpenOrders(symbol string) ([]OpenOrder, error)
	CancelOrder(symbol, orderID string) error
	// LoadInstrumentFilters fetches step sizes for every symbol. It must be
	// called once before trading starts; trading must not begin if it fails.
	LoadInstrumentFilters() (map[string]InstrumentFilter, error)
}
