package binance

import (
	"autotrader-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// FilterBook quantizes quantities and prices to the exchange step sizes.
// It is loaded once from exchangeInfo at startup and immutable afterwards.
//
// All arithmetic runs on exact decimals: floats like 0.0012345 must round
// DOWN to "0.001" and serialize without exponent notation, otherwise Binance
// rejects the order or, worse, we over-request and hit insufficient balance.
type FilterBook struct {
	filters map[string]domain.InstrumentFilter
}

func NewFilterBook(filters map[string]domain.InstrumentFilter) *FilterBook {
	return &FilterBook{filters: filters}
}

// Get returns the filter for a symbol, if known.
func (b *FilterBook) Get(symbol string) (domain.InstrumentFilter, bool) {
	if b == nil {
		return domain.InstrumentFilter{}, false
	}
	f, ok := b.filters[symbol]
	return f, ok
}

// FormatQuantity renders value rounded down to the symbol's LOT_SIZE step.
func (b *FilterBook) FormatQuantity(symbol string, value float64) string {
	f, _ := b.Get(symbol)
	return quantize(value, f.QuantityStep)
}

// FormatPrice renders value rounded down to the symbol's PRICE_FILTER tick.
func (b *FilterBook) FormatPrice(symbol string, value float64) string {
	f, _ := b.Get(symbol)
	return quantize(value, f.PriceStep)
}

// quantize floors value to a multiple of step. An unknown step degrades to
// the plain decimal representation of value, unrounded.
func quantize(value float64, step string) string {
	v := decimal.NewFromFloat(value)
	if step == "" {
		return v.String()
	}
	s, err := decimal.NewFromString(step)
	if err != nil || s.IsZero() {
		return v.String()
	}
	return v.Sub(v.Mod(s)).String()
}
