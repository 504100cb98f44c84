// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Games    GamesConfig    `mapstructure:"games"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// EngineConfig holds betting engine configuration.
type EngineConfig struct {
	HistoryCap   int           `mapstructure:"history_cap"`
	LogCap       int           `mapstructure:"log_cap"`
	SendDelayMin time.Duration `mapstructure:"send_delay_min"`
	SendDelayMax time.Duration `mapstructure:"send_delay_max"`
}

// GamesConfig holds per-game constants.
type GamesConfig struct {
	Dice GameConfig `mapstructure:"dice"`
	Sum  GameConfig `mapstructure:"sum"`
}

// GameConfig holds one game's payout constants.
type GameConfig struct {
	Odds float64 `mapstructure:"odds"`
}

// Odds returns the fixed payout odds for a game type.
func (g *GamesConfig) Odds(game string) float64 {
	var o float64
	switch game {
	case "dice":
		o = g.Dice.Odds
	case "sum":
		o = g.Sum.Odds
	}
	if o <= 0 {
		o = 1.95
	}
	return o
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. DATABASE_HOST, ENGINE_LOG_CAP.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "betbot")
	v.SetDefault("database.name", "betbot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Engine defaults
	v.SetDefault("engine.history_cap", 200)
	v.SetDefault("engine.log_cap", 500)
	v.SetDefault("engine.send_delay_min", "500ms")
	v.SetDefault("engine.send_delay_max", "3s")

	// Game defaults
	v.SetDefault("games.dice.odds", 1.95)
	v.SetDefault("games.sum.odds", 1.95)
}
