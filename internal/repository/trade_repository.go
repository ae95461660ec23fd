package repository

import (
	"sync"
	"time"

	"autotrader-backend/internal/domain"
)

// InMemoryTradeRepository keeps the trade ledger in memory. Used for dev
// runs without a DATABASE_URL; the Postgres implementation is the durable
// one.
type InMemoryTradeRepository struct {
	mu     sync.RWMutex
	nextID int64
	trades []*domain.Trade
}

func NewInMemoryTradeRepository() *InMemoryTradeRepository {
	return &InMemoryTradeRepository{}
}

func (r *InMemoryTradeRepository) CreateOpenTrade(trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	trade.ID = r.nextID
	trade.Status = domain.StatusOpen
	if trade.Timestamp.IsZero() {
		trade.Timestamp = time.Now()
	}

	stored := *trade
	r.trades = append(r.trades, &stored)
	return nil
}

func (r *InMemoryTradeRepository) GetOpenTrades(symbol string) ([]*domain.Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	open := make([]*domain.Trade, 0)
	for _, t := range r.trades {
		if t.Symbol == symbol && t.Status == domain.StatusOpen {
			cp := *t
			open = append(open, &cp)
		}
	}
	return open, nil
}

func (r *InMemoryTradeRepository) HasOpenTrades(symbol string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.trades {
		if t.Symbol == symbol && t.Status == domain.StatusOpen {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryTradeRepository) CloseOpenTrades(symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.trades {
		if t.Symbol == symbol && t.Status == domain.StatusOpen {
			t.Status = domain.StatusClosed
		}
	}
	return nil
}

func (r *InMemoryTradeRepository) GetRecentTrades(limit int) ([]*domain.Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recent := make([]*domain.Trade, 0, limit)
	for i := len(r.trades) - 1; i >= 0 && len(recent) < limit; i-- {
		cp := *r.trades[i]
		recent = append(recent, &cp)
	}
	return recent, nil
}
