// Package config loads process configuration from an optional yaml file
// and SIGNALLAB_-prefixed environment variables. A .env file in the
// working directory is honored before anything else reads the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	Binance    BinanceConfig    `mapstructure:"binance"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Report     ReportConfig     `mapstructure:"report"`
	Server     ServerConfig     `mapstructure:"server"`
	LogLevel   string           `mapstructure:"log_level"`
}

// StorageConfig selects and configures the persistence backends.
type StorageConfig struct {
	UseMemory     bool   `mapstructure:"use_memory"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickHouseDSN string `mapstructure:"clickhouse_dsn"`
}

// BinanceConfig configures the exchange klines client.
type BinanceConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// SimulationConfig configures the outcome simulation batch.
type SimulationConfig struct {
	LookaheadHours int `mapstructure:"lookahead_hours"`
	Workers        int `mapstructure:"workers"`
}

// ReportConfig configures report thresholds and the coverage gate.
type ReportConfig struct {
	MinSignals        int     `mapstructure:"min_signals"`
	GoodWinRatePct    float64 `mapstructure:"good_win_rate_pct"`
	PerfectMinSignals int     `mapstructure:"perfect_min_signals"`
	CoverageFloor     float64 `mapstructure:"coverage_floor"`
}

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load reads configuration. path selects an explicit config file; when
// empty, a config.yaml in the working directory is used if present and
// silently skipped otherwise. Environment variables always apply, e.g.
// SIGNALLAB_STORAGE_POSTGRES_DSN overrides storage.postgres_dsn.
func Load(path string) (*Config, error) {
	// .env first so AutomaticEnv sees its values too. A missing file is
	// the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SIGNALLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default so env-only values survive Unmarshal.
	v.SetDefault("storage.use_memory", false)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("binance.base_url", "https://api.binance.com")
	v.SetDefault("binance.max_retries", 3)
	v.SetDefault("simulation.lookahead_hours", 72)
	v.SetDefault("simulation.workers", 4)
	v.SetDefault("report.min_signals", 3)
	v.SetDefault("report.good_win_rate_pct", 60.0)
	v.SetDefault("report.perfect_min_signals", 3)
	v.SetDefault("report.coverage_floor", 0.0)
	v.SetDefault("server.listen_addr", ":9100")
	v.SetDefault("log_level", "info")
}
