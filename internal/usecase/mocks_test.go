package usecase

import (
	"errors"
	"sync"
	"time"

	"autotrader-backend/internal/domain"
)

// fakePublisher records published events for inspection.
type fakePublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *fakePublisher) Publish(event domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) byType(eventType string) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeTradeRepo is an in-memory ledger with error injection.
type fakeTradeRepo struct {
	mu        sync.Mutex
	nextID    int64
	trades    []*domain.Trade
	createErr error
	closeErr  error
	readErr   error
}

func (r *fakeTradeRepo) CreateOpenTrade(trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
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

func (r *fakeTradeRepo) GetOpenTrades(symbol string) ([]*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	var open []*domain.Trade
	for _, t := range r.trades {
		if t.Symbol == symbol && t.Status == domain.StatusOpen {
			cp := *t
			open = append(open, &cp)
		}
	}
	return open, nil
}

func (r *fakeTradeRepo) HasOpenTrades(symbol string) (bool, error) {
	open, err := r.GetOpenTrades(symbol)
	if err != nil {
		return false, err
	}
	return len(open) > 0, nil
}

func (r *fakeTradeRepo) CloseOpenTrades(symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr != nil {
		return r.closeErr
	}
	for _, t := range r.trades {
		if t.Symbol == symbol && t.Status == domain.StatusOpen {
			t.Status = domain.StatusClosed
		}
	}
	return nil
}

func (r *fakeTradeRepo) GetRecentTrades(limit int) ([]*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var recent []*domain.Trade
	for i := len(r.trades) - 1; i >= 0 && len(recent) < limit; i-- {
		cp := *r.trades[i]
		recent = append(recent, &cp)
	}
	return recent, nil
}

// seedOpen adds an OPEN lot directly.
func (r *fakeTradeRepo) seedOpen(symbol string, price, amount float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.trades = append(r.trades, &domain.Trade{
		ID:        r.nextID,
		Symbol:    symbol,
		OrderID:   "seed",
		Side:      domain.SideBuy,
		Price:     price,
		Amount:    amount,
		Strategy:  StrategyTrendReversal,
		Status:    domain.StatusOpen,
		Timestamp: time.Now(),
	})
}

// fakeGateway implements domain.ExchangeGateway.
type fakeGateway struct {
	mu           sync.Mutex
	candles      map[string][]domain.Candle
	candlesErr   map[string]error
	candleCalls  map[string]int
	placed       []*domain.OrderRequest
	placeResp    *domain.OrderResponse
	placeErr     error
	pingOK       bool
	balances     map[string]float64
	filters      map[string]domain.InstrumentFilter
	filtersErr   error
	openOrders   map[string][]domain.OpenOrder
	cancelCalled []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		candles:     make(map[string][]domain.Candle),
		candlesErr:  make(map[string]error),
		candleCalls: make(map[string]int),
		pingOK:      true,
		balances:    map[string]float64{"USDT": 1000},
		filters:     make(map[string]domain.InstrumentFilter),
		openOrders:  make(map[string][]domain.OpenOrder),
	}
}

func (g *fakeGateway) Ping() bool { return g.pingOK }

func (g *fakeGateway) GetCandles(symbol, interval string, limit int) ([]domain.Candle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.candleCalls[symbol]++
	if err := g.candlesErr[symbol]; err != nil {
		return nil, err
	}
	return g.candles[symbol], nil
}

func (g *fakeGateway) GetBalances() (map[string]float64, error) {
	return g.balances, nil
}

func (g *fakeGateway) PlaceOrder(req *domain.OrderRequest) (*domain.OrderResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.placeErr != nil {
		return nil, g.placeErr
	}
	cp := *req
	g.placed = append(g.placed, &cp)
	if g.placeResp != nil {
		return g.placeResp, nil
	}
	return &domain.OrderResponse{
		OrderID:     "1234567890123456789",
		Symbol:      req.Symbol,
		Status:      "FILLED",
		ExecutedQty: req.Quantity,
	}, nil
}

func (g *fakeGateway) GetOpenOrders(symbol string) ([]domain.OpenOrder, error) {
	return g.openOrders[symbol], nil
}

func (g *fakeGateway) CancelOrder(symbol, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelCalled = append(g.cancelCalled, orderID)
	return nil
}

func (g *fakeGateway) LoadInstrumentFilters() (map[string]domain.InstrumentFilter, error) {
	if g.filtersErr != nil {
		return nil, g.filtersErr
	}
	return g.filters, nil
}

func (g *fakeGateway) placedOrders() []*domain.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*domain.OrderRequest, len(g.placed))
	copy(out, g.placed)
	return out
}

func (g *fakeGateway) candleCallCount(symbol string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.candleCalls[symbol]
}

// fakeExecutor records ExecuteTrade calls.
type executedCall struct {
	Symbol   string
	Side     string
	Price    float64
	Strategy string
	CloseAll *float64
}

type fakeExecutor struct {
	mu     sync.Mutex
	calls  []executedCall
	err    error
	ledger *fakeTradeRepo // when set, trades are applied to it like the real coordinator
}

func (e *fakeExecutor) ExecuteTrade(symbol, side string, price float64, strategy string, closeAllAmount *float64) error {
	e.mu.Lock()
	if e.err != nil {
		e.mu.Unlock()
		return e.err
	}
	var cp *float64
	if closeAllAmount != nil {
		v := *closeAllAmount
		cp = &v
	}
	e.calls = append(e.calls, executedCall{
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Strategy: strategy,
		CloseAll: cp,
	})
	ledger := e.ledger
	e.mu.Unlock()

	if ledger != nil && side == domain.SideSell {
		return ledger.CloseOpenTrades(symbol)
	}
	return nil
}

func (e *fakeExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *fakeExecutor) lastCall() (executedCall, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return executedCall{}, false
	}
	return e.calls[len(e.calls)-1], true
}

var errGatewayDown = errors.New("connection refused")
