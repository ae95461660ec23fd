package usecase

import (
	"fmt"
	"sync"
)

// Settings holds the runtime-tunable trading parameters shared between the
// dashboard command channel and the execution path.
type Settings struct {
	mu              sync.RWMutex
	tradeAmountUSDT float64
	minNotionalUSDT float64
}

func NewSettings(tradeAmountUSDT, minNotionalUSDT float64) *Settings {
	return &Settings{
		tradeAmountUSDT: tradeAmountUSDT,
		minNotionalUSDT: minNotionalUSDT,
	}
}

// TradeAmount returns the current per-entry notional in USDT.
func (s *Settings) TradeAmount() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tradeAmountUSDT
}

// MinNotional returns the exchange-wide minimum order value.
func (s *Settings) MinNotional() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minNotionalUSDT
}

// SetTradeAmount updates the per-entry notional. Values below the exchange
// minimum are rejected, since every entry they produce would be refused.
func (s *Settings) SetTradeAmount(amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount < s.minNotionalUSDT {
		return fmt.Errorf("trade amount %.2f USDT is below the %.0f USDT exchange minimum", amount, s.minNotionalUSDT)
	}
	s.tradeAmountUSDT = amount
	return nil
}
