package usecase

import (
	"fmt"

	"go.uber.org/zap"

	"autotrader-backend/internal/infrastructure/fcm"
	"autotrader-backend/internal/repository"
)

// TradeNotifier pushes a mobile alert to every registered device when an
// order fills. Delivery is best-effort; failures are logged and dropped.
type TradeNotifier struct {
	fcmClient *fcm.Client
	tokenRepo *repository.TokenRepository
	logger    *zap.Logger
}

func NewTradeNotifier(fcmClient *fcm.Client, tokenRepo *repository.TokenRepository, logger *zap.Logger) *TradeNotifier {
	return &TradeNotifier{
		fcmClient: fcmClient,
		tokenRepo: tokenRepo,
		logger:    logger,
	}
}

// TradeExecuted sends a fill alert. Safe on a nil notifier so the executor
// can run without FCM configured.
func (n *TradeNotifier) TradeExecuted(symbol, side, strategy string, price, qty float64) {
	if n == nil || !n.fcmClient.IsEnabled() {
		return
	}

	tokens := n.tokenRepo.GetAllTokens()
	if len(tokens) == 0 {
		return
	}

	title := fmt.Sprintf("%s %s filled", symbol, side)
	body := fmt.Sprintf("Strategy: %s | Price: %g | Qty: %g", strategy, price, qty)
	data := map[string]string{
		"symbol":   symbol,
		"side":     side,
		"strategy": strategy,
		"price":    fmt.Sprintf("%g", price),
		"qty":      fmt.Sprintf("%g", qty),
	}

	if err := n.fcmClient.SendMulticast(tokens, title, body, data); err != nil {
		n.logger.Warn("trade alert push failed", zap.String("symbol", symbol), zap.Error(err))
	}
}
