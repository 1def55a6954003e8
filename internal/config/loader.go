package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "rentalmanager.yaml"

// DefaultEnvFile is the optional dotenv file read before the environment.
const DefaultEnvFile = ".env"

// ErrMissingBackend is returned when the backend endpoint or public key is not configured.
var ErrMissingBackend = errors.New("configuration error: RENTAL_BACKEND_URL and RENTAL_BACKEND_KEY are required")

// Load returns a Config using the hierarchy: defaults < .env < YAML < ENV.
// Both files are optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile, DefaultEnvFile)
}

// LoadFrom returns a Config loaded from the given YAML and dotenv paths.
func LoadFrom(yamlPath, envPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadDotEnv(envPath); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv populates the process environment from path without
// overriding variables that are already set.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "RENTAL_PORT")
	setString(&cfg.Server.CORSOrigin, "RENTAL_CORS_ORIGIN")
	setString(&cfg.Server.AppName, "RENTAL_APP_NAME")

	setString(&cfg.Backend.URL, "RENTAL_BACKEND_URL")
	setString(&cfg.Backend.AnonKey, "RENTAL_BACKEND_KEY")

	setInt32(&cfg.Postgres.MaxConns, "RENTAL_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "RENTAL_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "RENTAL_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "RENTAL_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "RENTAL_PG_HEALTH_CHECK")

	setString(&cfg.Auth.JWTSecret, "RENTAL_JWT_SECRET")
	setDuration(&cfg.Auth.AccessTokenExpiry, "RENTAL_ACCESS_TOKEN_EXPIRY")
	setDuration(&cfg.Auth.RefreshTokenExpiry, "RENTAL_REFRESH_TOKEN_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "RENTAL_BCRYPT_COST")
	setDuration(&cfg.Auth.CleanupInterval, "RENTAL_TOKEN_CLEANUP_INTERVAL")

	setString(&cfg.Storage.Provider, "RENTAL_STORAGE_PROVIDER")
	setString(&cfg.Storage.Bucket, "RENTAL_STORAGE_BUCKET")
	setString(&cfg.Storage.LocalDir, "RENTAL_STORAGE_DIR")
	setString(&cfg.Storage.PublicBaseURL, "RENTAL_STORAGE_PUBLIC_URL")
	setString(&cfg.Storage.AzureConnStr, "RENTAL_AZURE_STORAGE_CONNECTION_STRING")
	setInt64(&cfg.Storage.MaxUploadMB, "RENTAL_MAX_UPLOAD_MB")
	setInt(&cfg.Storage.MaxConcurrentUploads, "RENTAL_MAX_CONCURRENT_UPLOADS")

	setString(&cfg.NATS.URL, "NATS_URL")

	setInt64(&cfg.Cache.L1MaxSizeMB, "RENTAL_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Backend, "RENTAL_CACHE_L2_BACKEND")
	setString(&cfg.Cache.L2Bucket, "RENTAL_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "RENTAL_CACHE_L2_TTL")
	setString(&cfg.Cache.RedisAddr, "REDIS_ADDR")
	setDuration(&cfg.Cache.ListTTL, "RENTAL_CACHE_LIST_TTL")
	setDuration(&cfg.Cache.ConfirmTTL, "RENTAL_CONFIRM_TTL")

	setString(&cfg.Logging.Level, "RENTAL_LOG_LEVEL")
	setString(&cfg.Logging.Service, "RENTAL_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "RENTAL_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "RENTAL_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "RENTAL_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "RENTAL_RATE_RPS")
	setInt(&cfg.Rate.Burst, "RENTAL_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "RENTAL_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "RENTAL_RATE_MAX_IDLE_TIME")

	setDuration(&cfg.Idempotency.TTL, "RENTAL_IDEMPOTENCY_TTL")

	setBool(&cfg.Otel.Enabled, "RENTAL_OTEL_ENABLED")
	setString(&cfg.Otel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Otel.Insecure, "RENTAL_OTEL_INSECURE")

	setBool(&cfg.MCP.Enabled, "RENTAL_MCP_ENABLED")
	setString(&cfg.MCP.APIKey, "RENTAL_MCP_API_KEY")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Backend.URL == "" || cfg.Backend.AnonKey == "" {
		return ErrMissingBackend
	}
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	switch cfg.Storage.Provider {
	case "local", "azure":
	default:
		return fmt.Errorf("storage.provider %q is not supported", cfg.Storage.Provider)
	}
	if cfg.Storage.Provider == "azure" && cfg.Storage.AzureConnStr == "" {
		return errors.New("storage.azure_connection_string is required for the azure provider")
	}
	switch cfg.Cache.L2Backend {
	case "", "nats", "redis":
	default:
		return fmt.Errorf("cache.l2_backend %q is not supported", cfg.Cache.L2Backend)
	}
	if cfg.Cache.L2Backend == "nats" && cfg.NATS.URL == "" {
		return errors.New("cache.l2_backend nats requires nats.url")
	}
	if cfg.Cache.L2Backend == "redis" && cfg.Cache.RedisAddr == "" {
		return errors.New("cache.l2_backend redis requires cache.redis_addr")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
