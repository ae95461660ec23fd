package usecase

import (
	"autotrader-backend/internal/domain"
	"autotrader-backend/internal/infrastructure/indicators"
)

// Strategy names recorded against executed trades.
const (
	StrategyTrendReversal = "trend_reversal"
	StrategyRSIScalping   = "rsi_scalping"
	StrategyMACDCross     = "macd_cross"
	StrategyDCA           = "DCA"
	StrategyTTP           = "TTP"
)

// StrategyFunc maps an indicator snapshot to a trading signal.
type StrategyFunc func(*indicators.Snapshot) domain.Signal

// TrendReversal buys oversold and sells overbought on RSI(14).
func TrendReversal(s *indicators.Snapshot) domain.Signal {
	if s.RSI14 < 30 {
		return domain.SignalBuy
	}
	if s.RSI14 > 70 {
		return domain.SignalSell
	}
	return domain.SignalHold
}

// RSIScalping plays short swings on the faster RSI(7).
func RSIScalping(s *indicators.Snapshot) domain.Signal {
	if s.RSI7 < 25 {
		return domain.SignalBuy
	}
	if s.RSI7 > 75 {
		return domain.SignalSell
	}
	return domain.SignalHold
}

// MACDCross buys when the MACD line crosses above its signal line between
// the previous and current bar. It never sells; exits belong to the
// trailing-stop overlay.
func MACDCross(s *indicators.Snapshot) domain.Signal {
	if s.PrevMACD <= s.PrevMACDSignal && s.MACD > s.MACDSignal {
		return domain.SignalBuy
	}
	return domain.SignalHold
}

// SelectStrategy classifies the market regime from trend strength (ADX 14)
// and moving-average position (EMA 50), and picks the one strategy whose
// output gates a new entry this cycle.
func SelectStrategy(s *indicators.Snapshot) (domain.Regime, string, StrategyFunc) {
	if s.ADX14 > 25 {
		if s.Close > s.EMA50 {
			return domain.RegimeBullish, StrategyMACDCross, MACDCross
		}
		return domain.RegimeBearish, StrategyTrendReversal, TrendReversal
	}
	return domain.RegimeSideways, StrategyRSIScalping, RSIScalping
}
