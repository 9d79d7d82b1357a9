package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	HTTPAddr        string
	GRPCAddr        string
	LogLevel        string
	ShutdownTimeout time.Duration

	Storage string
	MySQL   MySQLConfig
	Redis   RedisConfig
	Kafka   KafkaConfig

	IdempotencyTTL    time.Duration
	OrderNumberPrefix string
	EventWorkers      int
	EventQueueSize    int
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool
}

type RedisConfig struct {
	Addr     string
	PoolSize int
}

// KafkaConfig is optional. With no brokers, events go to the log.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

var defaults = map[string]any{
	"http_addr":               ":8080",
	"grpc_addr":               ":50051",
	"log_level":               "info",
	"shutdown_timeout":        "5s",
	"storage_driver":          StorageMySQL,
	"mysql_dsn":               "root:root@tcp(localhost:3306)/petstore?parseTime=true&multiStatements=true",
	"mysql_max_open_conns":    50,
	"mysql_max_idle_conns":    25,
	"mysql_conn_max_lifetime": "5m",
	"run_migrations":          true,
	"redis_addr":              "localhost:6379",
	"redis_pool_size":         100,
	"kafka_brokers":           "",
	"kafka_topic":             "order-events",
	"idempotency_ttl":         "24h",
	"order_number_prefix":     "ORD",
	"event_workers":           4,
	"event_queue_size":        1024,
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		HTTPAddr:        v.GetString("http_addr"),
		GRPCAddr:        v.GetString("grpc_addr"),
		LogLevel:        v.GetString("log_level"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		Storage:         strings.ToLower(v.GetString("storage_driver")),
		MySQL: MySQLConfig{
			DSN:             v.GetString("mysql_dsn"),
			MaxOpenConns:    v.GetInt("mysql_max_open_conns"),
			MaxIdleConns:    v.GetInt("mysql_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("mysql_conn_max_lifetime"),
			RunMigrations:   v.GetBool("run_migrations"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			PoolSize: v.GetInt("redis_pool_size"),
		},
		Kafka: KafkaConfig{
			Brokers: splitCSV(v.GetString("kafka_brokers")),
			Topic:   v.GetString("kafka_topic"),
		},
		IdempotencyTTL:    v.GetDuration("idempotency_ttl"),
		OrderNumberPrefix: v.GetString("order_number_prefix"),
		EventWorkers:      v.GetInt("event_workers"),
		EventQueueSize:    v.GetInt("event_queue_size"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Storage {
	case StorageMySQL:
		if c.MySQL.DSN == "" {
			errs = append(errs, errors.New("MYSQL_DSN is required for the mysql storage driver"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required"))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	if c.EventWorkers <= 0 || c.EventQueueSize <= 0 {
		errs = append(errs, errors.New("EVENT_WORKERS and EVENT_QUEUE_SIZE must be positive"))
	}
	if c.OrderNumberPrefix == "" {
		errs = append(errs, errors.New("ORDER_NUMBER_PREFIX must not be empty"))
	}
	return errors.Join(errs...)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
