package binance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"autotrader-backend/internal/domain"
)

const (
	SpotBaseURL    = "https://api.binance.com"
	TestnetBaseURL = "https://testnet.binance.vision"
)

// Client handles unauthenticated Binance spot endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = SpotBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Ping reports whether the spot API answers.
func (c *Client) Ping() bool {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v3/ping")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// GetCandles returns candlestick data, oldest first.
// Binance returns: [ [open_time, open, high, low, close, volume, ...], ... ]
// where prices are strings representing numbers.
func (c *Client) GetCandles(symbol, interval string, limit int) ([]domain.Candle, error) {
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d", c.baseURL, symbol, interval, limit)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance API error: %d", resp.StatusCode)
	}

	var klines [][]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&klines); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(klines))
	for _, k := range klines {
		if len(k) < 6 {
			continue
		}
		openTime, _ := parseValue(k[0])
		open, _ := parseValue(k[1])
		high, _ := parseValue(k[2])
		low, _ := parseValue(k[3])
		cl, _ := parseValue(k[4])
		volume, _ := parseValue(k[5])
		candles = append(candles, domain.Candle{
			OpenTime: int64(openTime),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    cl,
			Volume:   volume,
		})
	}
	return candles, nil
}

// LoadInstrumentFilters fetches LOT_SIZE and PRICE_FILTER step sizes for
// every listed symbol. Steps stay as the raw decimal strings.
func (c *Client) LoadInstrumentFilters() (map[string]domain.InstrumentFilter, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v3/exchangeInfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance API error: %d", resp.StatusCode)
	}

	var info struct {
		Symbols []struct {
			Symbol  string `json:"symbol"`
			Filters []struct {
				FilterType string `json:"filterType"`
				StepSize   string `json:"stepSize"`
				TickSize   string `json:"tickSize"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}

	filters := make(map[string]domain.InstrumentFilter, len(info.Symbols))
	for _, s := range info.Symbols {
		var f domain.InstrumentFilter
		for _, raw := range s.Filters {
			switch raw.FilterType {
			case "LOT_SIZE":
				f.QuantityStep = raw.StepSize
			case "PRICE_FILTER":
				f.PriceStep = raw.TickSize
			}
		}
		filters[s.Symbol] = f
	}
	return filters, nil
}

func parseValue(v interface{}) (float64, error) {
	switch val := v.(type) {
	case string:
		return strconv.ParseFloat(val, 64)
	case float64:
		return val, nil
	}
	return 0, nil
}
