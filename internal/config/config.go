package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/zhejian/shortcodes/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	App           AppConfig
	Cache         CacheConfig
	Events        EventsConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Store          string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConns       int32
	MinConns       int32
	AutoMigrate    bool
	MigrationsPath string
}

// Redis Caching Layer configuration. An empty Host disables the cache.
type CacheConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	TTL         time.Duration
	NegativeTTL time.Duration
}

// EventsConfig configures lifecycle notifications. An empty URL disables them.
type EventsConfig struct {
	URL      string
	Exchange string
}

type ObservabilityConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment       string
	BaseURL           string // Base URL for generating short links
	ShortCodeLen      int
	ShortCodeAttempts int
	MaxCustomCodeLen  int
	BcryptCost        int
	HashConcurrency   int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "3001"),
			ReadTimeout:     getEnvDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Store:          getEnv("STORE", StorePostgres),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "zhejian"),
			Password:       getEnv("DB_PASSWORD", "zhejian_secret"),
			DBName:         getEnv("DB_NAME", "shortcodes"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxConns:       int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns:       int32(getEnvInt("DB_MIN_CONNS", 2)),
			AutoMigrate:    getEnvBool("DB_AUTO_MIGRATE", false),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "migrations/schema"),
		},
		Cache: CacheConfig{
			Host:        getEnv("RDB_HOST", ""),
			Port:        getEnv("RDB_PORT", "6379"),
			User:        getEnv("RDB_USER", ""),
			Password:    getEnv("RDB_PASSWORD", ""),
			TTL:         getEnvDuration("CACHE_TTL", 10*time.Minute),
			NegativeTTL: getEnvDuration("CACHE_NEGATIVE_TTL", 30*time.Second),
		},
		Events: EventsConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "shortcodes"),
		},
		Observability: ObservabilityConfig{
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "shortcodes"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
		App: AppConfig{
			Environment:       getEnv("APP_ENV", "development"),
			BaseURL:           getEnv("BASE_URL", "http://localhost:3001"),
			ShortCodeLen:      getEnvInt("SHORT_CODE_LENGTH", 6),
			ShortCodeAttempts: getEnvInt("SHORT_CODE_MAX_ATTEMPTS", 20),
			MaxCustomCodeLen:  getEnvInt("MAX_CUSTOM_CODE_LENGTH", 255),
			BcryptCost:        getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
			HashConcurrency:   getEnvInt("HASH_CONCURRENCY", runtime.GOMAXPROCS(0)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.App.Environment {
	case "development", "staging", "production", "test":
	default:
		errs = append(errs, fmt.Errorf("APP_ENV: unknown environment %q", c.App.Environment))
	}

	switch c.Database.Store {
	case StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE: unknown backend %q", c.Database.Store))
	}

	if _, err := url.ParseRequestURI(c.App.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("BASE_URL: %w", err))
	}
	if c.App.ShortCodeLen < 1 {
		errs = append(errs, errors.New("SHORT_CODE_LENGTH must be positive"))
	}
	if c.App.ShortCodeAttempts < 1 {
		errs = append(errs, errors.New("SHORT_CODE_MAX_ATTEMPTS must be positive"))
	}
	if c.App.MaxCustomCodeLen < 1 || c.App.MaxCustomCodeLen > 255 {
		errs = append(errs, errors.New("MAX_CUSTOM_CODE_LENGTH must be between 1 and 255"))
	}
	if c.App.ShortCodeLen > c.App.MaxCustomCodeLen {
		errs = append(errs, errors.New("SHORT_CODE_LENGTH exceeds MAX_CUSTOM_CODE_LENGTH"))
	}
	if c.App.BcryptCost < bcrypt.MinCost || c.App.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.App.HashConcurrency < 1 {
		errs = append(errs, errors.New("HASH_CONCURRENCY must be positive"))
	}
	if c.Database.MaxConns < 1 || c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS/DB_MAX_CONNS are inconsistent"))
	}

	return errors.Join(errs...)
}

// ServiceOptions maps the application settings onto the link service policy.
func (c *Config) ServiceOptions() service.Options {
	return service.Options{
		BaseURL:             c.App.BaseURL,
		CodeLength:          c.App.ShortCodeLen,
		MaxAttempts:         c.App.ShortCodeAttempts,
		MaxCustomCodeLength: c.App.MaxCustomCodeLen,
		BcryptCost:          c.App.BcryptCost,
		HashConcurrency:     c.App.HashConcurrency,
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

func (c *CacheConfig) Enabled() bool {
	return c.Host != ""
}

func (c *CacheConfig) ConnectionString() string {
	u := url.URL{
		Scheme: "redis",
		Host:   c.Host + ":" + c.Port,
		Path:   "/0",
	}
	if c.User != "" || c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u.String()
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
