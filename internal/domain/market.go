package domain

// Candle is one OHLCV bar. Sequences are always ordered oldest first.
type Candle struct {
	OpenTime int64   `json:"time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// Signal is a strategy decision for the current bar.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Regime is the classified market trend state.
type Regime string

const (
	RegimeBullish  Regime = "BULLISH"
	RegimeBearish  Regime = "BEARISH"
	RegimeSideways Regime = "SIDEWAYS"
)
