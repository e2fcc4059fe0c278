package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	LogMode  bool   `mapstructure:"log_mode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type QuotesConfig struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	CacheTTL string `mapstructure:"cache_ttl"`
}

type TradingConfig struct {
	StartingCash string `mapstructure:"starting_cash"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Quotes   QuotesConfig   `mapstructure:"quotes"`
	Trading  TradingConfig  `mapstructure:"trading"`
}

// Load reads configuration from the given file (defaults to config.yaml in
// the working directory) with environment overrides, e.g. SIM_JWT_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("SIM")
	v.AutomaticEnv()

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("quotes.base_url", "https://www.alphavantage.co")
	v.SetDefault("quotes.cache_ttl", "5m")
	v.SetDefault("trading.starting_cash", "10000.00")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// StartingCash parses the configured opening balance for new accounts.
func (c *Config) StartingCash() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Trading.StartingCash)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse starting_cash %q: %w", c.Trading.StartingCash, err)
	}
	return d, nil
}

// QuoteCacheTTL parses the quote cache expiration, falling back to 5 minutes.
func (c *Config) QuoteCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Quotes.CacheTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}
