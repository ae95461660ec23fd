package usecase

import (
	"fmt"

	"go.uber.org/zap"

	"autotrader-backend/internal/domain"
	"autotrader-backend/internal/metrics"
)

// ExecutionCoordinator validates proposed trades, submits them to the
// exchange and persists the outcome. A gateway failure abandons the trade
// for this cycle and is reported, never propagated: the trading loop must
// survive it and retry naturally next cycle.
type ExecutionCoordinator struct {
	gateway  domain.ExchangeGateway
	trades   domain.TradeRepository
	events   domain.EventPublisher
	notifier *TradeNotifier
	settings *Settings
	logger   *zap.Logger
}

func NewExecutionCoordinator(
	gateway domain.ExchangeGateway,
	trades domain.TradeRepository,
	events domain.EventPublisher,
	notifier *TradeNotifier,
	settings *Settings,
	logger *zap.Logger,
) *ExecutionCoordinator {
	return &ExecutionCoordinator{
		gateway:  gateway,
		trades:   trades,
		events:   events,
		notifier: notifier,
		settings: settings,
		logger:   logger,
	}
}

// ExecuteTrade sizes, validates and places one market order.
//
// A BUY inserts a new OPEN lot; a SELL closes every OPEN lot for the symbol
// at once. Orders below the exchange minimum notional are rejected before
// any gateway call or ledger write.
func (c *ExecutionCoordinator) ExecuteTrade(symbol, side string, price float64, strategy string, closeAllAmount *float64) error {
	var qty float64
	if side == domain.SideSell && closeAllAmount != nil {
		qty = *closeAllAmount
	} else {
		qty = c.settings.TradeAmount() / price
	}

	notional := qty * price
	if minNotional := c.settings.MinNotional(); notional < minNotional {
		metrics.OrdersRejected.Inc()
		c.logger.Warn("order rejected below minimum notional",
			zap.String("symbol", symbol),
			zap.String("side", side),
			zap.Float64("notional", notional))
		c.events.Publish(domain.Event{
			Type: domain.EventWarning,
			Msg:  fmt.Sprintf("Rejected %s %s: value %.2f USDT is below the %.0f USDT exchange minimum", side, symbol, notional, minNotional),
		})
		return nil
	}

	resp, err := c.gateway.PlaceOrder(&domain.OrderRequest{
		Symbol:    symbol,
		Side:      side,
		OrderType: "MARKET",
		Quantity:  qty,
	})
	if err != nil {
		metrics.GatewayErrors.Inc()
		c.logger.Error("order placement failed",
			zap.String("symbol", symbol),
			zap.String("side", side),
			zap.Error(err))
		c.events.Publish(domain.Event{
			Type: domain.EventError,
			Msg:  fmt.Sprintf("Order failed for %s %s: %v", side, symbol, err),
		})
		return nil
	}

	executedQty := resp.ExecutedQty
	if executedQty <= 0 {
		// Some fills omit executedQty; fall back to what we requested.
		executedQty = qty
	}

	var ledgerErr error
	switch side {
	case domain.SideBuy:
		ledgerErr = c.trades.CreateOpenTrade(&domain.Trade{
			Symbol:   symbol,
			OrderID:  resp.OrderID,
			Side:     side,
			Price:    price,
			Amount:   executedQty,
			Strategy: strategy,
			Status:   domain.StatusOpen,
		})
	case domain.SideSell:
		ledgerErr = c.trades.CloseOpenTrades(symbol)
	}
	if ledgerErr != nil {
		// The exchange already filled the order, so the ledger now has a
		// reconciliation gap. Loudest possible report, but never a crash.
		c.logger.Error("CRITICAL: ledger write failed after exchange fill, manual reconciliation required",
			zap.String("symbol", symbol),
			zap.String("side", side),
			zap.String("orderId", resp.OrderID),
			zap.Float64("amount", executedQty),
			zap.Error(ledgerErr))
		c.events.Publish(domain.Event{
			Type: domain.EventError,
			Msg:  fmt.Sprintf("CRITICAL: %s %s filled on exchange but failed to persist (order %s)", side, symbol, resp.OrderID),
		})
		return nil
	}

	metrics.Orders.WithLabelValues(side, strategy).Inc()
	c.events.Publish(domain.Event{
		Type: domain.EventSuccess,
		Msg:  fmt.Sprintf("Executed %s %s [Strategy: %s, Price: %g, Qty: %g]", side, symbol, strategy, price, executedQty),
	})
	c.notifier.TradeExecuted(symbol, side, strategy, price, executedQty)
	return nil
}
