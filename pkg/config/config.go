package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderHTTP   = "http"
	ProviderStatic = "static"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"

	SourceEmbedded = "embedded"
	SourcePostgres = "postgres"
)

type Config struct {
	Port       string
	Log        LogConfig
	Rates      RatesConfig
	Redis      RedisConfig
	Currencies string
	DB         *DBConfig
}

type LogConfig struct {
	Dir   string
	Level string
}

type RatesConfig struct {
	Provider string
	URL      string
	APIKey   string
	Timeout  time.Duration
	Cache    string
	CacheTTL time.Duration

	// Artificial latency for load tests; zero disables it.
	LatencyMin      time.Duration
	LatencyMax      time.Duration
	LatencyCurrency string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DBConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	MaxOpenConns int
	MaxIdleConns int
}

// loadEnvFile reads config.env into the environment if it exists.
// Variables already set in the environment win.
func loadEnvFile() error {
	err := godotenv.Load(filepath.Join("config.env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load config.env: %w", err)
	}
	return nil
}

func LoadConfig() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	var err error
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Log: LogConfig{
			Dir:   os.Getenv("LOG_DIR"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Rates: RatesConfig{
			Provider:        getEnv("RATE_PROVIDER", ProviderStatic),
			URL:             getEnv("RATE_PROVIDER_URL", "https://api.exchangeratesapi.io"),
			APIKey:          os.Getenv("RATE_PROVIDER_API_KEY"),
			Cache:           getEnv("RATE_CACHE", CacheNone),
			LatencyCurrency: os.Getenv("ARTIFICIAL_LATENCY_CURRENCY"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Currencies: getEnv("CURRENCY_SOURCE", SourceEmbedded),
	}

	if cfg.Rates.Timeout, err = durationEnv("RATE_PROVIDER_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Rates.CacheTTL, err = durationEnv("RATE_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.Rates.LatencyMin, err = durationEnv("ARTIFICIAL_LATENCY_MIN", 0); err != nil {
		return nil, err
	}
	if cfg.Rates.LatencyMax, err = durationEnv("ARTIFICIAL_LATENCY_MAX", cfg.Rates.LatencyMin); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}

	switch cfg.Rates.Provider {
	case ProviderHTTP, ProviderStatic:
	default:
		return nil, fmt.Errorf("invalid RATE_PROVIDER: %q", cfg.Rates.Provider)
	}
	switch cfg.Rates.Cache {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return nil, fmt.Errorf("invalid RATE_CACHE: %q", cfg.Rates.Cache)
	}
	if cfg.Rates.Timeout <= 0 {
		return nil, fmt.Errorf("invalid RATE_PROVIDER_TIMEOUT: must be positive")
	}

	switch cfg.Currencies {
	case SourceEmbedded:
	case SourcePostgres:
		if cfg.DB, err = LoadConfigDB(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid CURRENCY_SOURCE: %q", cfg.Currencies)
	}

	return cfg, nil
}

func LoadConfigDB() (*DBConfig, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(os.Getenv("DB_PORT"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpen, err := intEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}

	maxIdle, err := intEnv("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}

	return &DBConfig{
		Host:         os.Getenv("DB_HOST"),
		Port:         port,
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		MaxOpenConns: maxOpen,
		MaxIdleConns: maxIdle,
	}, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
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
