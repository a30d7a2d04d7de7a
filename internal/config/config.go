package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Store    StoreConfig
	Ledger   LedgerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Host string
	Port int
	// AdminPassword unlocks the admin routes. Empty locks them.
	AdminPassword      string
	RateLimitPerMinute int
	IdempotencyTTL     time.Duration
}

type LogConfig struct {
	Level slog.Level
}

type StoreConfig struct {
	Driver     string
	Codec      string
	Timeout    time.Duration
	SQLitePath string
}

type LedgerConfig struct {
	CodePrefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// New reads configuration from the environment, after loading envFile
// when it exists. A missing .env file is not an error.
func New(envFile string) (*Config, error) {
	const op = "config.New"

	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateLimit, err := intEnv("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	idemTTL, err := durationEnv("IDEMPOTENCY_TTL", 2*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host:               stringEnv("SERVER_HOST", "localhost"),
		Port:               serverPort,
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		RateLimitPerMinute: rateLimit,
		IdempotencyTTL:     idemTTL,
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(stringEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("%s: invalid LOG_LEVEL: %w", op, err)
	}

	storeTimeout, err := durationEnv("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	storeCfg := StoreConfig{
		Driver:     strings.ToLower(stringEnv("STORE_DRIVER", DriverSQLite)),
		Codec:      strings.ToLower(stringEnv("SNAPSHOT_CODEC", "json")),
		Timeout:    storeTimeout,
		SQLitePath: stringEnv("SQLITE_PATH", "tixgate.db"),
	}

	switch storeCfg.Codec {
	case "json", "cbor":
	default:
		return nil, fmt.Errorf("%s: invalid SNAPSHOT_CODEC %q", op, storeCfg.Codec)
	}

	postgresPort, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresCfg := PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Name:     os.Getenv("POSTGRES_DB"),
		Host:     stringEnv("POSTGRES_HOST", "localhost"),
		Port:     postgresPort,
		SSLMode:  stringEnv("POSTGRES_SSLMODE", "disable"),
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	cfg := &Config{
		Server:   serverCfg,
		Log:      LogConfig{Level: level},
		Store:    storeCfg,
		Ledger:   LedgerConfig{CodePrefix: stringEnv("TICKET_CODE_PREFIX", "BUTTERFLY-")},
		Postgres: postgresCfg,
		Redis:    redisCfg,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cfg, nil
}

// Validate checks the settings that depend on each other. It runs again
// after command-line overrides.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Postgres.User == "" {
			return fmt.Errorf("missing POSTGRES_USER")
		}
		if c.Postgres.Password == "" {
			return fmt.Errorf("missing POSTGRES_PASSWORD")
		}
		if c.Postgres.Name == "" {
			return fmt.Errorf("missing POSTGRES_DB")
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("missing REDIS_ADDR for the redis store driver")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.Store.Driver)
	}

	return nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
