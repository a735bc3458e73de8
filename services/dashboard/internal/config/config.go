package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	WarehouseNone       = ""
	WarehouseClickHouse = "clickhouse"
	WarehouseSQLite     = "sqlite"
)

type Config struct {
	DatasetPath     string
	RefreshInterval time.Duration

	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration
	MaxPostingsLimit int
	ReloadInterval   time.Duration

	NATSURL         string
	NATSConnTimeout time.Duration

	OTELCollectorURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	WarehouseDriver string
	SQLitePath      string

	ClickHouseDSN          string
	ClickHouseMaxOpenConns int
	ClickHouseMaxIdleConns int
	ClickHouseConnMaxLife  time.Duration
	ClickHouseUsername     string
	ClickHousePassword     string
	ClickHouseDatabase     string
	ClickHouseAutoMigrate  bool
}

func LoadConfig() (*Config, error) {
	config := &Config{
		DatasetPath:     getEnvString("DATASET_PATH", "ai_job_dataset.csv"),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", time.Minute),

		HTTPAddr:         getEnvString("HTTP_ADDR", ":8080"),
		HTTPReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		HTTPWriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", time.Minute),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxPostingsLimit: getEnvInt("MAX_POSTINGS_LIMIT", 1000),
		ReloadInterval:   getEnvDuration("RELOAD_MIN_INTERVAL", 10*time.Second),

		NATSURL:         getEnvString("NATS_URL", ""),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),

		RedisAddr:     getEnvString("REDIS_ADDR", ""),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),

		WarehouseDriver: strings.ToLower(getEnvString("WAREHOUSE_DRIVER", WarehouseNone)),
		SQLitePath:      getEnvString("SQLITE_PATH", "data/aijobs.db"),

		ClickHouseDSN:          getEnvString("CLICKHOUSE_DSN", "localhost:9000"),
		ClickHouseMaxOpenConns: getEnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10),
		ClickHouseMaxIdleConns: getEnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5),
		ClickHouseConnMaxLife:  getEnvDuration("CLICKHOUSE_CONN_MAX_LIFE", time.Hour),
		ClickHouseUsername:     getEnvString("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword:     getEnvString("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDatabase:     getEnvString("CLICKHOUSE_DATABASE", "aijobs"),
		ClickHouseAutoMigrate:  getEnvBool("CLICKHOUSE_AUTO_MIGRATE", true),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.DatasetPath == "" {
		return fmt.Errorf("DATASET_PATH must be set")
	}
	switch c.WarehouseDriver {
	case WarehouseNone, WarehouseClickHouse, WarehouseSQLite:
	default:
		return fmt.Errorf("WAREHOUSE_DRIVER %q is not one of clickhouse, sqlite", c.WarehouseDriver)
	}
	if c.MaxPostingsLimit <= 0 {
		return fmt.Errorf("MAX_POSTINGS_LIMIT must be positive, got %d", c.MaxPostingsLimit)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
