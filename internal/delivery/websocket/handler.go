package websocket

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"autotrader-backend/internal/domain"
	"autotrader-backend/internal/usecase"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Dashboard may be served from anywhere
	},
}

// BotController is the subset of the bot engine the dashboard drives.
type BotController interface {
	Start() error
	Stop()
	IsRunning() bool
}

// Handler serves the bidirectional dashboard channel: events out, commands
// (start, stop, update_trade_amount) in.
type Handler struct {
	hub      *Hub
	bot      BotController
	settings *usecase.Settings
	logger   *zap.Logger
}

func NewHandler(hub *Hub, bot BotController, settings *usecase.Settings, logger *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		bot:      bot,
		settings: settings,
		logger:   logger,
	}
}

type command struct {
	Command string  `json:"command"`
	Value   float64 `json:"value"`
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id, events := h.hub.Subscribe()
	defer h.hub.Unsubscribe(id)

	h.logger.Info("dashboard client connected", zap.String("subscriber", id))

	// Writer: pump hub events to this client until its queue closes or
	// the connection dies.
	go func() {
		for event := range events {
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}()

	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			h.logger.Info("dashboard client disconnected", zap.String("subscriber", id))
			return
		}
		h.dispatch(cmd)
	}
}

func (h *Handler) dispatch(cmd command) {
	switch cmd.Command {
	case "start":
		if err := h.bot.Start(); err != nil {
			if errors.Is(err, usecase.ErrAlreadyRunning) {
				h.hub.Publish(domain.Event{Type: domain.EventWarning, Msg: "Bot is already running."})
				return
			}
			h.hub.Publish(domain.Event{Type: domain.EventError, Msg: fmt.Sprintf("Failed to start bot: %v", err)})
			return
		}
		h.hub.Publish(domain.Event{Type: domain.EventSuccess, Msg: "Bot started by user."})

	case "stop":
		h.bot.Stop()
		h.hub.Publish(domain.Event{Type: domain.EventWarning, Msg: "Bot stopped by user."})

	case "update_trade_amount":
		if err := h.settings.SetTradeAmount(cmd.Value); err != nil {
			h.hub.Publish(domain.Event{Type: domain.EventError, Msg: fmt.Sprintf("Failed: %v", err)})
			return
		}
		h.hub.Publish(domain.Event{
			Type: domain.EventSuccess,
			Msg:  fmt.Sprintf("Trade amount updated to %.2f USDT.", cmd.Value),
		})

	default:
		h.hub.Publish(domain.Event{Type: domain.EventError, Msg: fmt.Sprintf("Unknown command: %q", cmd.Command)})
	}
}
