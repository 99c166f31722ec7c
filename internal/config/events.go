package config

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/types"
)

// EventsConfig controls how domain events travel from services to the notification consumer
type EventsConfig struct {
	PubSub          types.PubSubType `mapstructure:"pubsub" validate:"required,oneof=memory kafka"`
	Topic           string           `mapstructure:"topic" validate:"required"`
	MaxRetries      int              `mapstructure:"max_retries"`
	InitialInterval time.Duration    `mapstructure:"initial_interval"`
	MaxInterval     time.Duration    `mapstructure:"max_interval"`
	Multiplier      float64          `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration    `mapstructure:"max_elapsed_time"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	ClientID      string   `mapstructure:"client_id"`
	UseSASL       bool     `mapstructure:"use_sasl"`
	SASLUser      string   `mapstructure:"sasl_user"`
	SASLPassword  string   `mapstructure:"sasl_password"`
}
