// Package config loads application configuration from a YAML file with
// environment variable substitution via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joanvup/rifa-app/logging"
	"github.com/joanvup/rifa-app/raffle"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	Logging     logging.Config `mapstructure:"logging"`
	Raffle      RaffleConfig   `mapstructure:"raffle"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	EnableCORS     bool          `mapstructure:"enable_cors"`
}

// DatabaseConfig holds PostgreSQL connection configuration. An empty DSN
// selects the in-memory store.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis connection configuration. An empty Addr
// disables the settlement report cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	ReportTTL    time.Duration `mapstructure:"report_ttl"`
}

// KafkaConfig holds Kafka producer configuration. An empty broker list
// disables event publishing.
type KafkaConfig struct {
	Brokers   []string `mapstructure:"brokers"`
	WorkerNum int      `mapstructure:"worker_num"`
}

// RaffleConfig holds the defaults seeded into the settings store on
// first run. Values are strings so prices keep exact decimal form.
type RaffleConfig struct {
	TicketPrice   string `mapstructure:"ticket_price"`
	FirstPercent  string `mapstructure:"first_percent"`
	MiddlePercent string `mapstructure:"middle_percent"`
	LastPercent   string `mapstructure:"last_percent"`
}

// Load loads configuration from a YAML file using Viper.
func Load(filename string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(filename)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

// LoadByEnv loads config-<env>.yaml from configDir, where env comes from
// the ENV or APP_ENV variable and defaults to development.
func LoadByEnv(configDir string) (*Config, error) {
	v := viper.New()

	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	env := viper.GetString("ENV")
	if env == "" {
		env = viper.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	v.SetConfigName(fmt.Sprintf("config-%s", env))
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

// setDefaults sets default values for missing configuration.
func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 15 * time.Second
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 5
	}
	if c.Redis.ReportTTL == 0 {
		c.Redis.ReportTTL = 10 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Raffle.TicketPrice == "" {
		c.Raffle.TicketPrice = "100"
	}
	if c.Raffle.FirstPercent == "" {
		c.Raffle.FirstPercent = "25"
	}
	if c.Raffle.MiddlePercent == "" {
		c.Raffle.MiddlePercent = "10"
	}
	if c.Raffle.LastPercent == "" {
		c.Raffle.LastPercent = "40"
	}
}

// Settings converts the configured raffle defaults into settings the
// store seeds on first run.
func (c RaffleConfig) Settings() (raffle.Settings, error) {
	price, err := decimal.NewFromString(c.TicketPrice)
	if err != nil {
		return raffle.Settings{}, fmt.Errorf("invalid ticket_price %q: %w", c.TicketPrice, err)
	}
	first, err := decimal.NewFromString(c.FirstPercent)
	if err != nil {
		return raffle.Settings{}, fmt.Errorf("invalid first_percent %q: %w", c.FirstPercent, err)
	}
	middle, err := decimal.NewFromString(c.MiddlePercent)
	if err != nil {
		return raffle.Settings{}, fmt.Errorf("invalid middle_percent %q: %w", c.MiddlePercent, err)
	}
	last, err := decimal.NewFromString(c.LastPercent)
	if err != nil {
		return raffle.Settings{}, fmt.Errorf("invalid last_percent %q: %w", c.LastPercent, err)
	}
	return raffle.Settings{
		TicketPrice:   price,
		FirstPercent:  first,
		MiddlePercent: middle,
		LastPercent:   last,
	}, nil
}

// IsDevelopment returns true if environment is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
