package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// BinanceConfig holds exchange credentials and endpoint selection.
type BinanceConfig struct {
	APIKey    string
	SecretKey string
	Testnet   bool
}

// TradingConfig holds the bot's trading parameters. Defaults mirror a
// conservative small-account spot setup.
type TradingConfig struct {
	Symbols          []string
	Interval         string
	Lookback         int
	TradeAmountUSDT  float64
	MinNotionalUSDT  float64
	DCADropPct       float64
	TTPActivationPct float64
	TTPTrailPct      float64
	CycleSleep       time.Duration
}

type ServerConfig struct {
	Addr string
}

type DatabaseConfig struct {
	URL string // empty means in-memory ledger
}

type Config struct {
	Binance  BinanceConfig
	Trading  TradingConfig
	Server   ServerConfig
	Database DatabaseConfig
}

// Load reads config.yaml from configPath (optional) and environment
// variables. Credentials are required: the bot must not start without them.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetDefault("trading.symbols", []string{"BTCUSDT", "ETHUSDT"})
	v.SetDefault("trading.interval", "15m")
	v.SetDefault("trading.lookback", 100)
	v.SetDefault("trading.tradeAmountUsdt", 15.0)
	v.SetDefault("trading.minNotionalUsdt", 10.0)
	v.SetDefault("trading.dcaDropPct", 0.05)
	v.SetDefault("trading.ttpActivationPct", 0.03)
	v.SetDefault("trading.ttpTrailPct", 0.01)
	v.SetDefault("trading.cycleSleep", "10s")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("binance.testnet", true)

	// Secrets come from the environment, never from the yaml file.
	v.BindEnv("binance.apiKey", "BINANCE_API_KEY")
	v.BindEnv("binance.secretKey", "BINANCE_API_SECRET")
	v.BindEnv("binance.testnet", "BINANCE_TESTNET")
	v.BindEnv("database.url", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults + env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		Binance: BinanceConfig{
			APIKey:    v.GetString("binance.apiKey"),
			SecretKey: v.GetString("binance.secretKey"),
			Testnet:   v.GetBool("binance.testnet"),
		},
		Trading: TradingConfig{
			Symbols:          v.GetStringSlice("trading.symbols"),
			Interval:         v.GetString("trading.interval"),
			Lookback:         v.GetInt("trading.lookback"),
			TradeAmountUSDT:  v.GetFloat64("trading.tradeAmountUsdt"),
			MinNotionalUSDT:  v.GetFloat64("trading.minNotionalUsdt"),
			DCADropPct:       v.GetFloat64("trading.dcaDropPct"),
			TTPActivationPct: v.GetFloat64("trading.ttpActivationPct"),
			TTPTrailPct:      v.GetFloat64("trading.ttpTrailPct"),
			CycleSleep:       v.GetDuration("trading.cycleSleep"),
		},
		Server:   ServerConfig{Addr: v.GetString("server.addr")},
		Database: DatabaseConfig{URL: v.GetString("database.url")},
	}

	if cfg.Binance.APIKey == "" || cfg.Binance.SecretKey == "" {
		return nil, errors.New("BINANCE_API_KEY and BINANCE_API_SECRET must be set")
	}

	return cfg, nil
}
