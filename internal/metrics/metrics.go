// Package metrics exposes the bot's Prometheus collectors:
//   - bot_cycles_total                 – completed trading cycles
//   - bot_orders_total{side,strategy}  – orders filled on the exchange
//   - bot_orders_rejected_total        – orders rejected below min notional
//   - bot_gateway_errors_total         – failed exchange calls
//
// All are registered via promauto and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Cycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_cycles_total",
		Help: "Completed trading cycles",
	})

	Orders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_orders_total",
		Help: "Orders filled on the exchange",
	}, []string{"side", "strategy"})

	OrdersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_orders_rejected_total",
		Help: "Orders rejected locally for violating the minimum notional",
	})

	GatewayErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_gateway_errors_total",
		Help: "Failed exchange gateway calls",
	})
)
