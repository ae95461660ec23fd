package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"autotrader-backend/internal/domain"
)

const defaultHistoryLimit = 50

// TradeHandler exposes the trade history.
type TradeHandler struct {
	repo domain.TradeRepository
}

func NewTradeHandler(repo domain.TradeRepository) *TradeHandler {
	return &TradeHandler{repo: repo}
}

// GetHistory handles GET /api/trades?limit=N — most recent trades first.
func (h *TradeHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	trades, err := h.repo.GetRecentTrades(limit)
	if err != nil {
		http.Error(w, "Failed to load trade history", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = make([]*domain.Trade, 0)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}
