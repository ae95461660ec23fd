// Package indicators computes the technical indicators the bot consumes.
// The numerical work is delegated to go-talib; this package only shapes a
// candle window into the per-bar values the strategy layer reads.
package indicators

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"

	"autotrader-backend/internal/domain"
)

// ErrInsufficientHistory is returned when the candle window is too short
// for the slowest indicator. Callers treat it as HOLD.
var ErrInsufficientHistory = errors.New("insufficient candle history for indicators")

// minBars covers the EMA(50) warmup plus the extra bar needed for the
// MACD cross comparison.
const minBars = 52

// Snapshot holds the latest indicator values for one symbol's window.
type Snapshot struct {
	Close float64

	RSI14 float64
	RSI7  float64

	MACD           float64
	MACDSignal     float64
	PrevMACD       float64
	PrevMACDSignal float64

	ADX14 float64
	EMA50 float64
}

// Compute evaluates all indicators over the window, oldest candle first.
// It is a pure function of its input.
func Compute(candles []domain.Candle) (*Snapshot, error) {
	if len(candles) < minBars {
		return nil, ErrInsufficientHistory
	}

	n := len(candles)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	rsi14 := talib.Rsi(closes, 14)
	rsi7 := talib.Rsi(closes, 7)
	macd, macdSignal, _ := talib.Macd(closes, 12, 26, 9)
	adx := talib.Adx(highs, lows, closes, 14)
	ema50 := talib.Ema(closes, 50)

	s := &Snapshot{
		Close:          closes[n-1],
		RSI14:          rsi14[n-1],
		RSI7:           rsi7[n-1],
		MACD:           macd[n-1],
		MACDSignal:     macdSignal[n-1],
		PrevMACD:       macd[n-2],
		PrevMACDSignal: macdSignal[n-2],
		ADX14:          adx[n-1],
		EMA50:          ema50[n-1],
	}

	if s.undefined() {
		return nil, ErrInsufficientHistory
	}
	return s, nil
}

func (s *Snapshot) undefined() bool {
	for _, v := range []float64{s.Close, s.RSI14, s.RSI7, s.MACD, s.MACDSignal, s.ADX14, s.EMA50} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return s.EMA50 == 0 || s.Close == 0
}
