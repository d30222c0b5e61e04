package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Model     ModelConfig     `yaml:"model" mapstructure:"model"`
	Market    MarketConfig    `yaml:"market" mapstructure:"market"`
	Rabbit    RabbitConfig    `yaml:"rabbit" mapstructure:"rabbit"`
	Recommend RecommendConfig `yaml:"recommend" mapstructure:"recommend"`
	Forecast  ForecastConfig  `yaml:"forecast" mapstructure:"forecast"`
}

type ServerConfig struct {
	Addr    string        `yaml:"addr" mapstructure:"addr"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

type CatalogConfig struct {
	SQLitePath    string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	File          string `yaml:"file" mapstructure:"file"`
	HistoryDir    string `yaml:"history_dir" mapstructure:"history_dir"`
	HistoryMonths int    `yaml:"history_months" mapstructure:"history_months"`
	HistorySeed   int64  `yaml:"history_seed" mapstructure:"history_seed"`
}

type ModelConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
	SQLite bool   `yaml:"sqlite" mapstructure:"sqlite"`
}

type MarketConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	APIKey          string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL         string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
	BenchmarkSymbol string        `yaml:"benchmark_symbol" mapstructure:"benchmark_symbol"`
}

type RabbitConfig struct {
	URL           string `yaml:"url" mapstructure:"url"`
	RequestQueue  string `yaml:"request_queue" mapstructure:"request_queue"`
	ResponseQueue string `yaml:"response_queue" mapstructure:"response_queue"`
}

type RecommendConfig struct {
	TopN     int    `yaml:"top_n" mapstructure:"top_n"`
	Currency string `yaml:"currency" mapstructure:"currency"`
}

type ForecastConfig struct {
	Periods int `yaml:"periods" mapstructure:"periods"`
}

const EnvPrefix = "FUNDREC"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.timeout", 60*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("catalog.sqlite_path", "")
	v.SetDefault("catalog.file", "")
	v.SetDefault("catalog.history_dir", "")
	v.SetDefault("catalog.history_months", 12)
	v.SetDefault("catalog.history_seed", 42)
	v.SetDefault("model.path", "models/risk_model.json")
	v.SetDefault("model.sqlite", false)
	v.SetDefault("market.enabled", false)
	v.SetDefault("market.api_key", "demo")
	v.SetDefault("market.base_url", "https://www.alphavantage.co/query")
	v.SetDefault("market.timeout", 10*time.Second)
	v.SetDefault("market.benchmark_symbol", "SPY")
	v.SetDefault("rabbit.url", "")
	v.SetDefault("rabbit.request_queue", "fund_recommendation_req")
	v.SetDefault("rabbit.response_queue", "fund_recommendation_resp")
	v.SetDefault("recommend.top_n", 3)
	v.SetDefault("recommend.currency", "KES")
	v.SetDefault("forecast.periods", 6)
}

// Load reads config from a YAML file, then applies environment variable
// overrides (FUNDREC_SERVER_ADDR and so on). An empty path looks for
// fundrec.yaml in the working directory and is fine to miss.
func Load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("fundrec")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("market.api_key", EnvPrefix+"_MARKET_API_KEY", "ALPHA_VANTAGE_API_KEY")
	_ = v.BindEnv("rabbit.url", EnvPrefix+"_RABBIT_URL", "RABBIT_URL")
	_ = v.BindEnv("catalog.sqlite_path", EnvPrefix+"_CATALOG_SQLITE_PATH", "SQLITE_PATH")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is empty")
	}
	if c.Server.Timeout <= 0 {
		problems = append(problems, "server.timeout must be positive")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level: %v", err))
	}
	if c.Catalog.HistoryMonths < 1 {
		problems = append(problems, "catalog.history_months must be at least 1")
	}
	if c.Market.Enabled {
		if c.Market.BaseURL == "" {
			problems = append(problems, "market.base_url is required when market.enabled")
		}
		if c.Market.Timeout <= 0 {
			problems = append(problems, "market.timeout must be positive")
		}
	}
	if c.Recommend.TopN < 1 {
		problems = append(problems, "recommend.top_n must be at least 1")
	}
	if c.Forecast.Periods < 1 {
		problems = append(problems, "forecast.periods must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// YAML renders the effective configuration with the API key masked.
func (c Config) YAML() (string, error) {
	if c.Market.APIKey != "" {
		c.Market.APIKey = "****"
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}
