package http

import (
	"encoding/json"
	"net/http"

	"autotrader-backend/internal/usecase"
)

// StatusHandler exposes the bot status to the dashboard.
type StatusHandler struct {
	bot *usecase.BotEngine
}

func NewStatusHandler(bot *usecase.BotEngine) *StatusHandler {
	return &StatusHandler{bot: bot}
}

// GetStatus handles GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.bot.Status())
}
