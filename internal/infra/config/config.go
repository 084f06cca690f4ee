package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the flat option set. Keys double as env names in upper case
// (min_market_cap -> MIN_MARKET_CAP).
type Config struct {
	TelegramToken string `mapstructure:"telegram_token"`
	ChatID        string `mapstructure:"chat_id"`

	MinMarketCap    float64 `mapstructure:"min_market_cap"`
	MaxMarketCap    float64 `mapstructure:"max_market_cap"`
	MinAgeSeconds   int64   `mapstructure:"min_age_seconds"`
	MaxAgeSeconds   int64   `mapstructure:"max_age_seconds"`
	MinLiquidity    float64 `mapstructure:"min_liquidity"`
	RequireTelegram bool    `mapstructure:"require_telegram"`

	ScanIntervalMinutes int     `mapstructure:"scan_interval_minutes"`
	MaxTokensPerScan    int     `mapstructure:"max_tokens_per_scan"`
	DuplicateCheckHours float64 `mapstructure:"duplicate_check_hours"`

	MaxRetries      int     `mapstructure:"max_retries"`
	RequestTimeout  int     `mapstructure:"request_timeout"`  // seconds
	RateLimitDelay  float64 `mapstructure:"rate_limit_delay"` // seconds between endpoints
	RetryDelay      float64 `mapstructure:"retry_delay"`      // seconds between attempts on one endpoint
	MessageDelay    float64 `mapstructure:"message_delay"`    // seconds between telegram messages
	MaxResponseSize int64   `mapstructure:"max_response_size"`

	// SolUSDPrice converts pump.fun virtual SOL reserves to a USD liquidity estimate.
	// It is a static approximation and goes stale as SOL moves.
	SolUSDPrice       float64 `mapstructure:"sol_usd_price"`
	MaxProfileLookups int     `mapstructure:"max_profile_lookups"`

	DexScreenerEndpoints []string `mapstructure:"dexscreener_endpoints"`
	DexScreenerTokensURL string   `mapstructure:"dexscreener_tokens_url"`
	PumpFunEndpoints     []string `mapstructure:"pumpfun_endpoints"`

	LogsDir     string `mapstructure:"logs_dir"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

var DefaultDexScreenerEndpoints = []string{
	"https://api.dexscreener.com/token-profiles/latest/v1",
	"https://api.dexscreener.com/token-boosts/latest/v1",
	"https://api.dexscreener.com/latest/dex/search?q=solana",
}

var DefaultPumpFunEndpoints = []string{
	"https://frontend-api.pump.fun/coins?offset=0&limit=100&sort=created_timestamp&order=DESC",
	"https://frontend-api.pump.fun/coins?offset=0&limit=100&sort=market_cap&order=DESC",
	"https://frontend-api.pump.fun/coins?offset=0&limit=100&sort=last_trade_timestamp&order=DESC",
	"https://frontend-api.pump.fun/coins/king-of-the-hill",
}

const DefaultDexScreenerTokensURL = "https://api.dexscreener.com/latest/dex/tokens/"

// LoadConfig merges, lowest to highest: defaults, config.yaml, .env, environment, changed flags.
// fs may be nil. A --config flag in fs points at an explicit yaml file.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	configFile := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config.yaml: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	setupEnvAliases(v)

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Env and flags deliver lists as one comma-separated string.
	cfg.DexScreenerEndpoints = stringSlice(v.Get("dexscreener_endpoints"))
	cfg.PumpFunEndpoints = stringSlice(v.Get("pumpfun_endpoints"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram_token", "")
	v.SetDefault("chat_id", "")

	v.SetDefault("min_market_cap", 10000)
	v.SetDefault("max_market_cap", 1000000)
	v.SetDefault("min_age_seconds", 5)
	v.SetDefault("max_age_seconds", 604800)
	v.SetDefault("min_liquidity", 500)
	v.SetDefault("require_telegram", true)

	v.SetDefault("scan_interval_minutes", 2)
	v.SetDefault("max_tokens_per_scan", 50)
	v.SetDefault("duplicate_check_hours", 6)

	v.SetDefault("max_retries", 3)
	v.SetDefault("request_timeout", 30)
	v.SetDefault("rate_limit_delay", 1.0)
	v.SetDefault("retry_delay", 5.0)
	v.SetDefault("message_delay", 2.0)
	v.SetDefault("max_response_size", 10*1024*1024) // 10MB

	v.SetDefault("sol_usd_price", 100.0)
	v.SetDefault("max_profile_lookups", 30)

	v.SetDefault("dexscreener_endpoints", DefaultDexScreenerEndpoints)
	v.SetDefault("dexscreener_tokens_url", DefaultDexScreenerTokensURL)
	v.SetDefault("pumpfun_endpoints", DefaultPumpFunEndpoints)

	v.SetDefault("logs_dir", "logs")
	v.SetDefault("metrics_addr", "")
}

func setupEnvAliases(v *viper.Viper) {
	_ = v.BindEnv("telegram_token", "TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("chat_id", "CHAT_ID", "TELEGRAM_CHAT_ID")
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"token":          "telegram_token",
	"chat-id":        "chat_id",
	"min-market-cap": "min_market_cap",
	"max-market-cap": "max_market_cap",
	"min-liquidity":  "min_liquidity",
	"interval":       "scan_interval_minutes",
	"max-tokens":     "max_tokens_per_scan",
	"logs-dir":       "logs_dir",
	"metrics-addr":   "metrics_addr",
}

// RegisterFlags adds the options exposed on the command line.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a yaml config file (default ./config.yaml)")
	fs.String("token", "", "Telegram bot token (env: TELEGRAM_TOKEN)")
	fs.String("chat-id", "", "Telegram chat id or @channel (env: CHAT_ID)")
	fs.Float64("min-market-cap", 10000, "Minimum market cap in USD (env: MIN_MARKET_CAP)")
	fs.Float64("max-market-cap", 1000000, "Maximum market cap in USD (env: MAX_MARKET_CAP)")
	fs.Float64("min-liquidity", 500, "Minimum liquidity in USD (env: MIN_LIQUIDITY)")
	fs.Int("interval", 2, "Scan interval in minutes (env: SCAN_INTERVAL_MINUTES)")
	fs.Int("max-tokens", 50, "Maximum alerts per scan (env: MAX_TOKENS_PER_SCAN)")
	fs.String("logs-dir", "logs", "Directory for app.log (env: LOGS_DIR)")
	fs.String("metrics-addr", "", "Listen address for /metrics, empty disables (env: METRICS_ADDR)")
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func stringSlice(raw interface{}) []string {
	var out []string
	switch val := raw.(type) {
	case string:
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	case []string:
		for _, item := range val {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	case []interface{}:
		for _, item := range val {
			if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
				out = append(out, strings.TrimSpace(str))
			}
		}
	}
	return out
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalMinutes) * time.Minute
}

func (c *Config) DuplicateWindow() time.Duration {
	return time.Duration(c.DuplicateCheckHours * float64(time.Hour))
}

func (c *Config) Timeout() time.Duration        { return time.Duration(c.RequestTimeout) * time.Second }
func (c *Config) EndpointDelay() time.Duration  { return seconds(c.RateLimitDelay) }
func (c *Config) AttemptDelay() time.Duration   { return seconds(c.RetryDelay) }
func (c *Config) MessageSpacing() time.Duration { return seconds(c.MessageDelay) }
