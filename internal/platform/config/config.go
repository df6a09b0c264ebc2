// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Profile and agreement backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendKafka    = "kafka"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Log      Log
	Store    Store
	Redis    RedisConfig
	Kafka    Kafka
	Ledger   Ledger
	Rental   Rental
	Tracing  Tracing
	Metadata Metadata
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"BRIQ_ADDR" envDefault:":8080"`
	JWTSigningKey   string        `env:"BRIQ_JWT_SIGNING_KEY"`
	JWTIssuer       string        `env:"BRIQ_JWT_ISSUER" envDefault:"briq"`
	AdminToken      string        `env:"BRIQ_ADMIN_TOKEN"`
	ShutdownTimeout time.Duration `env:"BRIQ_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type Log struct {
	Level  string `env:"BRIQ_LOG_LEVEL" envDefault:"info"`
	Format string `env:"BRIQ_LOG_FORMAT" envDefault:"json"`
}

// Store selects where profiles and agreements live.
type Store struct {
	ProfileBackend   string `env:"BRIQ_PROFILE_BACKEND" envDefault:"memory"`
	AgreementBackend string `env:"BRIQ_AGREEMENT_BACKEND" envDefault:"memory"`
	SQLitePath       string `env:"BRIQ_SQLITE_PATH" envDefault:"briq.db"`
	DatabaseURL      string `env:"BRIQ_DATABASE_URL"`
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string        `env:"BRIQ_REDIS_URL"`
	PoolSize     int           `env:"BRIQ_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"BRIQ_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"BRIQ_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"BRIQ_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"BRIQ_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

type Kafka struct {
	Brokers []string `env:"BRIQ_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"BRIQ_KAFKA_TOPIC" envDefault:"briq.ledger-events"`
}

// Ledger configures the trust event recorder and its event sink.
type Ledger struct {
	OptimisticSave bool    `env:"BRIQ_OPTIMISTIC_SAVE" envDefault:"false"`
	SaveRetries    int     `env:"BRIQ_SAVE_RETRIES" envDefault:"3"`
	AutoCreate     bool    `env:"BRIQ_AUTO_CREATE" envDefault:"true"`
	EventSink      string  `env:"BRIQ_EVENT_SINK" envDefault:"memory"`
	OpsSampleRate  float64 `env:"BRIQ_OPS_SAMPLE_RATE" envDefault:"1"`
}

// Rental configures the agreement coordinator. MaxAttempts opts into
// cancelling stuck pending agreements; zero never cancels.
type Rental struct {
	CurrencyUnit  string `env:"BRIQ_CURRENCY_UNIT" envDefault:"wei"`
	ReconcileCron string `env:"BRIQ_RECONCILE_CRON" envDefault:"@every 1m"`
	MaxAttempts   int    `env:"BRIQ_RECONCILE_MAX_ATTEMPTS" envDefault:"0"`
}

type Tracing struct {
	// Endpoint is the OTLP/HTTP collector URL. Tracing is off when empty.
	Endpoint    string `env:"BRIQ_OTEL_ENDPOINT"`
	ServiceName string `env:"BRIQ_OTEL_SERVICE_NAME" envDefault:"briq"`
}

// Metadata configures the projection cache.
type Metadata struct {
	CacheTTL time.Duration `env:"BRIQ_METADATA_TTL" envDefault:"0s"`
}

// Load reads an optional .env file, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.ProfileBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("BRIQ_DATABASE_URL is required for the postgres profile backend")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("BRIQ_REDIS_URL is required for the redis profile backend")
		}
	default:
		return fmt.Errorf("unknown profile backend %q", c.Store.ProfileBackend)
	}
	switch c.Store.AgreementBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("BRIQ_DATABASE_URL is required for the postgres agreement backend")
		}
	default:
		return fmt.Errorf("unknown agreement backend %q", c.Store.AgreementBackend)
	}
	switch c.Ledger.EventSink {
	case BackendMemory:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("BRIQ_DATABASE_URL is required for the postgres event sink")
		}
	case BackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("BRIQ_KAFKA_BROKERS is required for the kafka event sink")
		}
	default:
		return fmt.Errorf("unknown event sink %q", c.Ledger.EventSink)
	}
	return nil
}
