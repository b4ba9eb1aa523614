// Package config loads process configuration from the environment. Defaults
// suit local development; deployments override via environment variables or
// a .env file loaded by main.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server struct {
		Addr          string `envconfig:"PAYGATE_ADDR" default:":8080"`
		JWTSigningKey string `envconfig:"JWT_SIGNING_KEY" default:"dev-secret-change-in-production"`
		Issuer        string `envconfig:"JWT_ISSUER" default:"paygate"`
	}

	// DatabaseURL selects the persistent store. Empty means the in-memory
	// store, which is fine for development and tests only.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	Redis struct {
		URL          string        `envconfig:"REDIS_URL"`
		PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
		MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
		DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
		ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
		WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
	}

	Kafka struct {
		Brokers    []string `envconfig:"KAFKA_BROKERS"`
		AuditTopic string   `envconfig:"KAFKA_AUDIT_TOPIC" default:"paygate.audit"`
	}

	Cutoff struct {
		// Hour of day (0-23, local time) after which new submissions are
		// flagged as having missed the request cutoff.
		Hour int `envconfig:"CUTOFF_HOUR" default:"14"`
	}

	Terminal struct {
		ServerURL    string        `envconfig:"PAYGATE_SERVER_URL" default:"http://localhost:8080"`
		SnapshotPath string        `envconfig:"PAYGATE_SNAPSHOT_PATH" default:".paygate/snapshot.json"`
		PollInterval time.Duration `envconfig:"PAYGATE_POLL_INTERVAL" default:"10s"`
		Username     string        `envconfig:"PAYGATE_USERNAME"`
		Password     string        `envconfig:"PAYGATE_PASSWORD"`
		MetricsAddr  string        `envconfig:"PAYGATE_METRICS_ADDR" default:":9091"`
	}

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process config: %w", err)
	}
	return &cfg, nil
}
