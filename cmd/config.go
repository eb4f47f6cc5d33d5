package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	RosterMemory = "memory"
	RosterRedis  = "redis"
)

// Config is read from environment variables, optionally preloaded from an
// env file by LoadConfig.
type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"flowershop"`
	DBSslMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	ShopAPIURL string `envconfig:"SHOP_API_URL" required:"true"`
	ShopAPIKey string `envconfig:"SHOP_API_KEY"`

	BotAPIURL      string `envconfig:"BOT_API_URL" default:"https://api.telegram.org"`
	BotToken       string `envconfig:"BOT_TOKEN"`
	ManagerChannel string `envconfig:"MANAGER_CHANNEL"`
	NotifyBuffer   int    `envconfig:"NOTIFY_BUFFER" default:"128"`

	// KafkaHost is a comma separated broker list. Empty disables event publishing.
	KafkaHost              string `envconfig:"KAFKA_HOST"`
	KafkaOrderChangedTopic string `envconfig:"KAFKA_ORDER_CHANGED_TOPIC" default:"flowershop.fulfillment"`

	// RosterBackend is "memory" for a single instance or "redis" for several.
	RosterBackend string `envconfig:"ROSTER_BACKEND" default:"memory"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"flowershop:roster"`

	// Schedules use the six-field cron syntax with seconds.
	DistributionSchedule string `envconfig:"DISTRIBUTION_SCHEDULE" default:"*/30 * * * * *"`
	EscalationSchedule   string `envconfig:"ESCALATION_SCHEDULE" default:"0 * * * * *"`

	OTLPEndpoint    string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoadConfig reads envFile when it exists, then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "load %s", envFile)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "read environment")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate checks values envconfig cannot express as tags.
func (c Config) validate() error {
	switch c.RosterBackend {
	case RosterMemory, RosterRedis:
	default:
		return errors.Errorf("ROSTER_BACKEND must be %q or %q, got %q", RosterMemory, RosterRedis, c.RosterBackend)
	}
	if c.NotifyBuffer <= 0 {
		return errors.Errorf("NOTIFY_BUFFER must be positive, got %d", c.NotifyBuffer)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// KafkaBrokers splits KafkaHost, dropping empty entries.
func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaHost, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// SlogLevel parses LogLevel and falls back to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
