package internal

import (
	"fmt"
	"time"
)

const (
	StoreBadger   = "badger"
	StorePostgres = "postgres"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,required=true"`
	HTTPPort int    `env:"HTTP_PORT,required=true"`
	LogLevel string `env:"LOG_LEVEL,required=true"`

	StoreDriver    string `env:"STORE_DRIVER,default=badger"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	PostgresDSN    string `env:"POSTGRES_DSN"`
	LimitMessages  *int   `env:"LIMIT_MESSAGES"`

	JWTSecret string `env:"JWT_SECRET,required=true"`
	JWTIssuer string `env:"JWT_ISSUER,default=outmentor"`

	ConnectionPolicy string `env:"CONNECTION_POLICY,default=approval"`
	SearchCap        int    `env:"SEARCH_CAP,default=50"`
	MaxMessageLength int    `env:"MAX_MESSAGE_LENGTH,default=2000"`

	QueueSize         int           `env:"QUEUE_SIZE,default=256"`
	MaxIdle           time.Duration `env:"MAX_IDLE,default=2m"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,default=10s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s"`

	SendRateLimit  int           `env:"SEND_RATE_LIMIT,default=60"`
	SendRateWindow time.Duration `env:"SEND_RATE_WINDOW,default=1m"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB,default=0"`

	MeetingBaseURL string `env:"MEETING_BASE_URL,default=https://meet.jit.si"`
	MeetingSecret  string `env:"MEETING_SECRET,required=true"`

	DebugPort int `env:"DEBUG_PORT,default=8081"`
}

// Validate checks what the tags cannot express.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreBadger:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required with STORE_DRIVER=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %s or %s, got %q", StoreBadger, StorePostgres, c.StoreDriver)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("QUEUE_SIZE must be positive, got %d", c.QueueSize)
	}
	if c.MaxIdle <= c.HeartbeatInterval {
		return fmt.Errorf("MAX_IDLE (%s) must exceed HEARTBEAT_INTERVAL (%s)", c.MaxIdle, c.HeartbeatInterval)
	}
	if c.LimitMessages != nil && *c.LimitMessages <= 0 {
		return fmt.Errorf("LIMIT_MESSAGES must be positive, got %d", *c.LimitMessages)
	}
	return nil
}
