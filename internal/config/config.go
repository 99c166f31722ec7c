package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	Logging    LoggingConfig    `mapstructure:"logging" validate:"required"`
	Postgres   PostgresConfig   `mapstructure:"postgres" validate:"required"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Locker     LockerConfig     `mapstructure:"locker" validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Events     EventsConfig     `mapstructure:"events" validate:"required"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Billing    BillingConfig    `mapstructure:"billing" validate:"required"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type AuthConfig struct {
	Secret   string        `mapstructure:"secret" validate:"required"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LockerConfig selects and tunes the per-invoice lock
type LockerConfig struct {
	Driver     types.LockerDriver `mapstructure:"driver" validate:"required,oneof=memory redis"`
	TTL        time.Duration      `mapstructure:"ttl"`
	RetryEvery time.Duration      `mapstructure:"retry_every"`
	MaxWait    time.Duration      `mapstructure:"max_wait"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// BillingConfig holds the tunables of the billing engine
type BillingConfig struct {
	// DisplayTolerance is the largest accepted gap between a client-shown line amount and the computed one
	DisplayTolerance decimal.Decimal `mapstructure:"display_tolerance"`
	// ConflictRetries bounds the optimistic-concurrency retries of a single write
	ConflictRetries uint64 `mapstructure:"conflict_retries"`
	// AllowOverpayment accepts payments larger than the amount due and clamps the due at zero
	AllowOverpayment bool `mapstructure:"allow_overpayment"`
	// OverdueSweepConcurrency bounds parallel notification fan-out in the overdue sweep
	OverdueSweepConcurrency int `mapstructure:"overdue_sweep_concurrency"`
	// OverdueSweepRate caps invoices swept per second. Zero means no limit.
	OverdueSweepRate float64 `mapstructure:"overdue_sweep_rate" validate:"gte=0"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only fills variables that are not already set
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/rentdesk")

	v.SetEnvPrefix("RENTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config, viper.DecodeHook(decimalHook())); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("auth.issuer", "rentdesk")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "rentdesk")
	v.SetDefault("postgres.dbname", "rentdesk")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("locker.driver", types.LockerDriverMemory)
	v.SetDefault("locker.ttl", 30*time.Second)
	v.SetDefault("locker.retry_every", 100*time.Millisecond)
	v.SetDefault("locker.max_wait", 5*time.Second)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("events.pubsub", types.MemoryPubSub)
	v.SetDefault("events.topic", types.TopicDomainEvents)
	v.SetDefault("events.max_retries", 3)
	v.SetDefault("events.initial_interval", time.Second)
	v.SetDefault("events.max_interval", 10*time.Second)
	v.SetDefault("events.multiplier", 2.0)
	v.SetDefault("events.max_elapsed_time", time.Minute)
	v.SetDefault("kafka.consumer_group", "rentdesk-notifications")
	v.SetDefault("kafka.client_id", "rentdesk")
	v.SetDefault("billing.display_tolerance", "0.01")
	v.SetDefault("billing.conflict_retries", 3)
	v.SetDefault("billing.allow_overpayment", true)
	v.SetDefault("billing.overdue_sweep_concurrency", 8)
	v.SetDefault("billing.overdue_sweep_rate", 50)
	v.SetDefault("sentry.sample_rate", 1.0)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Events.PubSub == types.KafkaPubSub && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when events.pubsub is kafka")
	}
	if c.Locker.Driver == types.LockerDriverRedis && c.Redis.Address == "" {
		return fmt.Errorf("redis address is required when locker.driver is redis")
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// and tests. It is never validated against a real environment.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Auth:       AuthConfig{Secret: "local-development-secret", Issuer: "rentdesk", TokenTTL: 24 * time.Hour},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Locker: LockerConfig{
			Driver:     types.LockerDriverMemory,
			TTL:        30 * time.Second,
			RetryEvery: 10 * time.Millisecond,
			MaxWait:    5 * time.Second,
		},
		Cache: CacheConfig{Enabled: true, TTL: 5 * time.Minute},
		Events: EventsConfig{
			PubSub: types.MemoryPubSub,
			Topic:  types.TopicDomainEvents,
		},
		Billing: BillingConfig{
			DisplayTolerance:        decimal.NewFromFloat(0.01),
			ConflictRetries:         3,
			AllowOverpayment:        true,
			OverdueSweepConcurrency: 4,
		},
	}
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
