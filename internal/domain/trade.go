package domain

import "time"

// Trade side values as Binance expects them.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Trade status lifecycle. A SELL closes every OPEN lot for the symbol at
// once (group close); partial closes are not modeled.
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// Trade represents a single filled lot in the ledger.
//
// OrderID is the Binance order identifier kept as an opaque string: Binance
// ids can exceed what a float64/JS number holds, so it must never be parsed
// into a native numeric type.
type Trade struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	OrderID   string    `json:"orderId"`
	Side      string    `json:"side"`
	Price     float64   `json:"price"`
	Amount    float64   `json:"amount"`
	Strategy  string    `json:"strategy"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// TradeRepository defines the trade ledger contract.
// Implementations: in-memory (for dev) and Postgres (for production).
type TradeRepository interface {
	// CreateOpenTrade appends a new OPEN lot and assigns its ID.
	CreateOpenTrade(trade *Trade) error
	// GetOpenTrades returns all OPEN lots for a symbol, oldest first.
	GetOpenTrades(symbol string) ([]*Trade, error)
	// HasOpenTrades reports whether the symbol has any OPEN lot.
	HasOpenTrades(symbol string) (bool, error)
	// CloseOpenTrades marks every OPEN lot for the symbol CLOSED.
	CloseOpenTrades(symbol string) error
	// GetRecentTrades returns the most recent trades, newest first.
	GetRecentTrades(limit int) ([]*Trade, error)
}
