package usecase

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"autotrader-backend/internal/domain"
	"autotrader-backend/internal/infrastructure/indicators"
	"autotrader-backend/internal/metrics"
)

// ErrAlreadyRunning is returned by Start when the trading loop is active.
// Start must never spawn a second concurrent loop.
var ErrAlreadyRunning = errors.New("trading loop is already running")

const (
	stateStopped int32 = iota
	stateRunning
)

// BotEngine drives the trading cycle: per symbol, fetch candles, classify
// the regime, manage the open position, then evaluate a fresh entry. One
// background loop at most; symbols are processed sequentially so each
// symbol's read-decide-write sequence observes a consistent ledger.
type BotEngine struct {
	gateway   domain.ExchangeGateway
	trades    domain.TradeRepository
	executor  TradeExecutor
	positions *PositionManager
	events    domain.EventPublisher
	logger    *zap.Logger

	symbols    []string
	interval   string
	lookback   int
	cycleSleep time.Duration

	state atomic.Int32

	mu               sync.RWMutex
	stopCh           chan struct{}
	doneCh           chan struct{}
	activeStrategies map[string]string
}

func NewBotEngine(
	gateway domain.ExchangeGateway,
	trades domain.TradeRepository,
	executor TradeExecutor,
	positions *PositionManager,
	events domain.EventPublisher,
	logger *zap.Logger,
	symbols []string,
	interval string,
	lookback int,
	cycleSleep time.Duration,
) *BotEngine {
	return &BotEngine{
		gateway:          gateway,
		trades:           trades,
		executor:         executor,
		positions:        positions,
		events:           events,
		logger:           logger,
		symbols:          symbols,
		interval:         interval,
		lookback:         lookback,
		cycleSleep:       cycleSleep,
		activeStrategies: make(map[string]string),
	}
}

// Start launches the background loop. A compare-and-set on the state guards
// against duplicate starts: the second caller gets ErrAlreadyRunning. A
// restart blocks until the previous loop has fully drained, so two loops can
// never trade concurrently, not even across a quick Stop/Start.
func (b *BotEngine) Start() error {
	if !b.state.CompareAndSwap(stateStopped, stateRunning) {
		return ErrAlreadyRunning
	}

	// Register this loop's channels before waiting so a Stop racing the
	// restart always finds a channel to close.
	b.mu.Lock()
	prevDone := b.doneCh
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	b.stopCh, b.doneCh = stopCh, doneCh
	b.mu.Unlock()

	if prevDone != nil {
		<-prevDone
	}

	go b.run(stopCh, doneCh)
	return nil
}

// Stop requests a cooperative shutdown. The loop observes it at the next
// cycle boundary; in-flight per-symbol work still completes.
func (b *BotEngine) Stop() {
	if !b.state.CompareAndSwap(stateRunning, stateStopped) {
		return
	}
	b.mu.Lock()
	if b.stopCh != nil {
		close(b.stopCh)
		b.stopCh = nil
	}
	b.mu.Unlock()
}

// IsRunning reports the loop state.
func (b *BotEngine) IsRunning() bool {
	return b.state.Load() == stateRunning
}

func (b *BotEngine) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	b.logger.Info("bot engine started", zap.Strings("symbols", b.symbols))
	b.events.Publish(domain.Event{Type: domain.EventSuccess, Msg: "Bot engine started successfully."})

	// The loop exits on its own stopCh only: the shared state flag can flip
	// back to running before an old loop notices a Stop, which must not
	// revive it.
	for !stopRequested(stopCh) {
		for _, symbol := range b.symbols {
			if err := b.processSymbol(symbol); err != nil {
				// One symbol's failure never stops the others.
				b.logger.Error("symbol cycle failed", zap.String("symbol", symbol), zap.Error(err))
				b.events.Publish(domain.Event{
					Type: domain.EventError,
					Msg:  fmt.Sprintf("Error processing %s: %v", symbol, err),
				})
			}
		}
		metrics.Cycles.Inc()

		// Rate-limit safety margin between cycles, cut short by Stop.
		select {
		case <-time.After(b.cycleSleep):
		case <-stopCh:
		}
	}

	b.logger.Info("bot engine stopped")
	b.events.Publish(domain.Event{Type: domain.EventWarning, Msg: "Bot engine stopped."})
}

func stopRequested(stopCh chan struct{}) bool {
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}

func (b *BotEngine) processSymbol(symbol string) error {
	candles, err := b.gateway.GetCandles(symbol, b.interval, b.lookback)
	if err != nil {
		metrics.GatewayErrors.Inc()
		return fmt.Errorf("fetch candles: %w", err)
	}

	snap, err := indicators.Compute(candles)
	if err != nil {
		// Not enough usable history yet: hold, no new entry. An open
		// position still gets managed off the latest close.
		b.logger.Debug("indicators unavailable, holding", zap.String("symbol", symbol), zap.Error(err))
		if len(candles) == 0 {
			return nil
		}
		if _, merr := b.positions.Manage(symbol, candles[len(candles)-1].Close); merr != nil {
			return fmt.Errorf("manage position: %w", merr)
		}
		return nil
	}
	currentPrice := snap.Close

	regime, strategyName, strategy := SelectStrategy(snap)
	b.setActiveStrategy(symbol, strategyName)
	b.events.Publish(domain.Event{
		Type: domain.EventInfo,
		Msg:  fmt.Sprintf("[%s] Market Regime: %s | Selected Strategy: %s", symbol, regime, strategyName),
	})

	acted, err := b.positions.Manage(symbol, currentPrice)
	if err != nil {
		return fmt.Errorf("manage position: %w", err)
	}
	if acted {
		// A management trade already fired this cycle. In particular, a
		// trailing-stop close must not be chased by a fresh entry on the
		// same bar's averages.
		return nil
	}

	hasOpen, err := b.trades.HasOpenTrades(symbol)
	if err != nil {
		return fmt.Errorf("check open position: %w", err)
	}
	if hasOpen {
		return nil
	}

	if strategy(snap) == domain.SignalBuy {
		return b.executor.ExecuteTrade(symbol, domain.SideBuy, currentPrice, strategyName, nil)
	}
	return nil
}

func (b *BotEngine) setActiveStrategy(symbol, name string) {
	b.mu.Lock()
	b.activeStrategies[symbol] = name
	b.mu.Unlock()
}

// ActiveStrategies returns the strategy last selected per symbol.
func (b *BotEngine) ActiveStrategies() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]string, len(b.activeStrategies))
	for k, v := range b.activeStrategies {
		out[k] = v
	}
	return out
}

// BotStatus is the dashboard status snapshot.
type BotStatus struct {
	Status              string             `json:"status"`
	BinanceAPIConnected bool               `json:"binance_api_connected"`
	WalletBalances      map[string]float64 `json:"wallet_balances"`
	OpenOrdersCount     int                `json:"open_orders_count"`
	CurrentStrategies   map[string]string  `json:"current_strategies"`
}

// Status gathers running state, gateway connectivity, balances and the
// active strategy per symbol.
func (b *BotEngine) Status() *BotStatus {
	status := &BotStatus{
		Status:            "stopped",
		CurrentStrategies: b.ActiveStrategies(),
	}
	if b.IsRunning() {
		status.Status = "running"
	}

	status.BinanceAPIConnected = b.gateway.Ping()
	if !status.BinanceAPIConnected {
		return status
	}

	if balances, err := b.gateway.GetBalances(); err == nil {
		status.WalletBalances = balances
	} else {
		b.logger.Warn("balance fetch failed", zap.Error(err))
	}

	for _, symbol := range b.symbols {
		if orders, err := b.gateway.GetOpenOrders(symbol); err == nil {
			status.OpenOrdersCount += len(orders)
		}
	}
	return status
}
