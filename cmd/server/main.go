package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"autotrader-backend/internal/config"
	httpdelivery "autotrader-backend/internal/delivery/http"
	"autotrader-backend/internal/delivery/websocket"
	"autotrader-backend/internal/domain"
	"autotrader-backend/internal/infrastructure/binance"
	"autotrader-backend/internal/infrastructure/db"
	"autotrader-backend/internal/infrastructure/fcm"
	"autotrader-backend/internal/logger"
	"autotrader-backend/internal/repository"
	"autotrader-backend/internal/usecase"
)

func main() {
	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal("configuration error", zap.Error(err))
	}

	// 1. Trade ledger: Postgres when configured, in-memory for dev runs.
	var tradeRepo domain.TradeRepository
	if cfg.Database.URL != "" {
		pool, err := db.NewPool(context.Background(), cfg.Database.URL, db.DefaultPoolConfig())
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()

		if err := db.Migrate(context.Background(), pool); err != nil {
			log.Fatal("database migration failed", zap.Error(err))
		}
		tradeRepo = repository.NewPostgresTradeRepository(pool)
		log.Info("trade ledger: postgres")
	} else {
		tradeRepo = repository.NewInMemoryTradeRepository()
		log.Warn("DATABASE_URL not set, trade ledger is in-memory and will not survive restarts")
	}

	// 2. Exchange gateway. Instrument filters must load before any trading;
	// without them quantization would be guesswork.
	gateway := binance.NewTradingClient(cfg.Binance.APIKey, cfg.Binance.SecretKey, cfg.Binance.Testnet)
	filters, err := gateway.LoadInstrumentFilters()
	if err != nil {
		log.Fatal("failed to load instrument filters, refusing to trade", zap.Error(err))
	}
	log.Info("instrument filters loaded", zap.Int("symbols", len(filters)), zap.Bool("testnet", cfg.Binance.Testnet))

	// 3. Event hub + push notifications.
	hub := websocket.NewHub(log)
	tokenRepo := repository.NewTokenRepository()

	var notifier *usecase.TradeNotifier
	if fcmClient, err := fcm.NewClient(log); err != nil {
		log.Warn("FCM init failed, trade alert pushes disabled", zap.Error(err))
	} else {
		notifier = usecase.NewTradeNotifier(fcmClient, tokenRepo, log)
	}

	// 4. Trading core.
	settings := usecase.NewSettings(cfg.Trading.TradeAmountUSDT, cfg.Trading.MinNotionalUSDT)
	executor := usecase.NewExecutionCoordinator(gateway, tradeRepo, hub, notifier, settings, log)
	positions := usecase.NewPositionManager(tradeRepo, executor, hub, log,
		cfg.Trading.DCADropPct, cfg.Trading.TTPActivationPct, cfg.Trading.TTPTrailPct)
	bot := usecase.NewBotEngine(gateway, tradeRepo, executor, positions, hub, log,
		cfg.Trading.Symbols, cfg.Trading.Interval, cfg.Trading.Lookback, cfg.Trading.CycleSleep)

	if err := bot.Start(); err != nil {
		log.Fatal("failed to start trading loop", zap.Error(err))
	}

	// 5. Delivery.
	wsHandler := websocket.NewHandler(hub, bot, settings, log)
	statusHandler := httpdelivery.NewStatusHandler(bot)
	tradeHandler := httpdelivery.NewTradeHandler(tradeRepo)
	tokenHandler := httpdelivery.NewTokenHandler(tokenRepo)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/dashboard", wsHandler.Handle)
	mux.HandleFunc("/api/status", statusHandler.GetStatus)
	mux.HandleFunc("/api/trades", tradeHandler.GetHistory)
	mux.HandleFunc("/api/tokens/register", tokenHandler.HandleRegisterToken)
	mux.HandleFunc("/api/tokens/unregister", tokenHandler.HandleUnregisterToken)
	mux.Handle("/metrics", promhttp.Handler())

	log.Info("server listening", zap.String("addr", cfg.Server.Addr))
	if err := http.ListenAndServe(cfg.Server.Addr, mux); err != nil {
		log.Fatal("http server failed", zap.Error(err))
	}
}
