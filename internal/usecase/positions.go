package usecase

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"autotrader-backend/internal/domain"
)

// TradeExecutor validates and submits trades. Implemented by
// ExecutionCoordinator; mocked in tests.
type TradeExecutor interface {
	// ExecuteTrade places a market order. closeAllAmount, when set on a
	// SELL, closes the full position instead of sizing from the fixed
	// per-entry notional.
	ExecuteTrade(symbol, side string, price float64, strategy string, closeAllAmount *float64) error
}

// PositionSnapshot is derived from the OPEN lots each cycle and never
// cached beyond it.
type PositionSnapshot struct {
	TotalAmount float64
	AvgPrice    float64
	ProfitPct   float64
}

// BuildPositionSnapshot computes total exposure and the weighted-average
// entry price of the OPEN lots. ok is false when the lots carry no amount.
func BuildPositionSnapshot(trades []*domain.Trade, currentPrice float64) (PositionSnapshot, bool) {
	var totalAmount, totalCost float64
	for _, t := range trades {
		totalAmount += t.Amount
		totalCost += t.Price * t.Amount
	}
	if totalAmount <= 0 {
		return PositionSnapshot{}, false
	}
	avg := totalCost / totalAmount
	return PositionSnapshot{
		TotalAmount: totalAmount,
		AvgPrice:    avg,
		ProfitPct:   (currentPrice - avg) / avg,
	}, true
}

// PositionManager applies the two money-management overlays to open
// positions: averaging down on drawdowns and a trailing take-profit on
// gains. Peak prices live only in process memory, owned by this manager;
// after a restart they reset to the average entry price, which can only
// delay a trailing trigger, never fire one early.
type PositionManager struct {
	trades   domain.TradeRepository
	executor TradeExecutor
	events   domain.EventPublisher
	logger   *zap.Logger

	dcaDropPct       float64
	ttpActivationPct float64
	ttpTrailPct      float64

	mu    sync.Mutex
	peaks map[string]float64
}

func NewPositionManager(
	trades domain.TradeRepository,
	executor TradeExecutor,
	events domain.EventPublisher,
	logger *zap.Logger,
	dcaDropPct, ttpActivationPct, ttpTrailPct float64,
) *PositionManager {
	return &PositionManager{
		trades:           trades,
		executor:         executor,
		events:           events,
		logger:           logger,
		dcaDropPct:       dcaDropPct,
		ttpActivationPct: ttpActivationPct,
		ttpTrailPct:      ttpTrailPct,
		peaks:            make(map[string]float64),
	}
}

// Manage evaluates one symbol against the current price and reports whether
// a management action fired. At most one action fires per call: an
// averaging-down BUY returns before the trailing stop is looked at, so the
// exit never runs on the stale average the same cycle. Callers skip fresh
// entries whenever acted is true.
func (m *PositionManager) Manage(symbol string, currentPrice float64) (acted bool, err error) {
	open, err := m.trades.GetOpenTrades(symbol)
	if err != nil {
		return false, fmt.Errorf("read open trades: %w", err)
	}
	if len(open) == 0 {
		m.clearPeak(symbol)
		return false, nil
	}

	snap, ok := BuildPositionSnapshot(open, currentPrice)
	if !ok {
		return false, nil
	}

	if snap.ProfitPct <= -m.dcaDropPct {
		m.events.Publish(domain.Event{
			Type: domain.EventInfo,
			Msg:  fmt.Sprintf("[%s] Price down %.2f%% from avg entry, averaging down", symbol, -snap.ProfitPct*100),
		})
		return true, m.executor.ExecuteTrade(symbol, domain.SideBuy, currentPrice, StrategyDCA, nil)
	}

	if snap.ProfitPct >= m.ttpActivationPct {
		peak, increased := m.bumpPeak(symbol, snap.AvgPrice, currentPrice)
		if increased {
			m.events.Publish(domain.Event{
				Type: domain.EventInfo,
				Msg:  fmt.Sprintf("[%s] New trailing peak: %g", symbol, peak),
			})
		}

		drawdown := (peak - currentPrice) / peak
		if drawdown >= m.ttpTrailPct {
			m.events.Publish(domain.Event{
				Type: domain.EventInfo,
				Msg:  fmt.Sprintf("[%s] Retraced %.2f%% from peak, trailing take-profit triggered, closing position", symbol, drawdown*100),
			})
			total := snap.TotalAmount
			return true, m.executor.ExecuteTrade(symbol, domain.SideSell, currentPrice, StrategyTTP, &total)
		}
	}

	return false, nil
}

// bumpPeak raises the stored peak to currentPrice if it exceeds the
// previous value (or the average entry price on first activation). The
// lock covers only the map access, never a network call.
func (m *PositionManager) bumpPeak(symbol string, avgPrice, currentPrice float64) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	peak, ok := m.peaks[symbol]
	if !ok {
		peak = avgPrice
	}
	increased := false
	if currentPrice > peak {
		peak = currentPrice
		increased = true
	}
	m.peaks[symbol] = peak
	return peak, increased
}

func (m *PositionManager) clearPeak(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.peaks, symbol)
}
