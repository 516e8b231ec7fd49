package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/flexgym/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Engine     EngineConfig     `mapstructure:"engine" validate:"required"`
	Event      EventConfig      `mapstructure:"event"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"60"`
}

// CacheConfig controls the package catalogue cache
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" default:"5m"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" default:"1.0"`
}

// EngineConfig holds the defaults used by the membership lifecycle engine
type EngineConfig struct {
	DefaultProrationPolicy types.ProrationPolicy `mapstructure:"default_proration_policy" validate:"required"`
	DefaultCommissionType  types.CommissionType  `mapstructure:"default_commission_type" validate:"required"`
	// DefaultCommissionValue is a string so yaml and env values keep full precision
	DefaultCommissionValue string `mapstructure:"default_commission_value" validate:"required"`
	MaxFreezeDays          int    `mapstructure:"max_freeze_days" validate:"required,min=1,max=365"`
	ReassignConcurrency    int    `mapstructure:"reassign_concurrency" validate:"required,min=1"`
	CompensationRetries    uint64 `mapstructure:"compensation_retries"`
	ReceiptPrefix          string `mapstructure:"receipt_prefix" validate:"required,max=6"`
}

// EventConfig holds configuration for lifecycle event publishing
type EventConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Topic   string           `mapstructure:"topic" default:"membership_lifecycle"`
	PubSub  types.PubSubType `mapstructure:"pubsub" default:"memory"`
	// MaxRetries and InitialInterval drive redelivery for event handlers
	MaxRetries      int           `mapstructure:"max_retries" default:"3"`
	InitialInterval time.Duration `mapstructure:"initial_interval" default:"1s"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional, values already in the environment win
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	v := viper.New()

	// Modify config paths to ensure config.yaml is found
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/flexgym")

	// Set up environment variables support
	v.SetEnvPrefix("FLEXGYM")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 60)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("sentry.sample_rate", 1.0)
	v.SetDefault("engine.default_proration_policy", types.ProrationPolicyProportional)
	v.SetDefault("engine.default_commission_type", types.CommissionTypePercentage)
	v.SetDefault("engine.default_commission_value", "10")
	v.SetDefault("engine.max_freeze_days", 365)
	v.SetDefault("engine.reassign_concurrency", 4)
	v.SetDefault("engine.compensation_retries", 3)
	v.SetDefault("engine.receipt_prefix", types.SHORT_ID_PREFIX_RECEIPT)
	v.SetDefault("event.topic", "membership_lifecycle")
	v.SetDefault("event.pubsub", types.MemoryPubSub)
	v.SetDefault("event.max_retries", 3)
	v.SetDefault("event.initial_interval", time.Second)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := c.Engine.DefaultProrationPolicy.Validate(); err != nil {
		return err
	}
	if err := c.Engine.DefaultCommissionType.Validate(); err != nil {
		return err
	}
	if _, err := decimal.NewFromString(c.Engine.DefaultCommissionValue); err != nil {
		return fmt.Errorf("invalid engine.default_commission_value: %w", err)
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts, tests or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Cache:      CacheConfig{Enabled: true, TTL: 5 * time.Minute},
		Engine: EngineConfig{
			DefaultProrationPolicy: types.ProrationPolicyProportional,
			DefaultCommissionType:  types.CommissionTypePercentage,
			DefaultCommissionValue: "10",
			MaxFreezeDays:          365,
			ReassignConcurrency:    4,
			CompensationRetries:    3,
			ReceiptPrefix:          types.SHORT_ID_PREFIX_RECEIPT,
		},
		Event: EventConfig{
			Enabled: true,
			Topic:   "membership_lifecycle",
			PubSub:  types.MemoryPubSub,

			MaxRetries:      3,
			InitialInterval: time.Second,
		},
	}
}

// GetDefaultCommissionValue returns the configured default commission value.
// Validate guarantees it parses.
func (c EngineConfig) GetDefaultCommissionValue() decimal.Decimal {
	return decimal.RequireFromString(c.DefaultCommissionValue)
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

// GetMigrateURL returns the postgres:// URL golang-migrate expects
func (c PostgresConfig) GetMigrateURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
		c.SSLMode,
	)
}
