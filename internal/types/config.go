package types

type RunMode string

const (
	// ModeLocal runs both the API server and the notification consumer
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server
	ModeAPI RunMode = "api"
	// ModeConsumer runs just the notification consumer
	ModeConsumer RunMode = "consumer"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LockerDriver selects the per-invoice lock implementation
type LockerDriver string

const (
	LockerDriverMemory LockerDriver = "memory"
	LockerDriverRedis  LockerDriver = "redis"
)
