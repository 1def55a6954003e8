// Package config provides hierarchical configuration loading for Rental Manager.
// Precedence: defaults < .env file < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the Rental Manager service.
type Config struct {
	Server      Server      `yaml:"server"`
	Backend     Backend     `yaml:"backend"`
	Postgres    Postgres    `yaml:"postgres"`
	Auth        Auth        `yaml:"auth"`
	Storage     Storage     `yaml:"storage"`
	NATS        NATS        `yaml:"nats"`
	Cache       Cache       `yaml:"cache"`
	Logging     Logging     `yaml:"logging"`
	Breaker     Breaker     `yaml:"breaker"`
	Rate        Rate        `yaml:"rate"`
	Idempotency Idempotency `yaml:"idempotency"`
	Otel        Otel        `yaml:"otel"`
	MCP         MCP         `yaml:"mcp"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
	// AppName is sent back as X-Application-Name and tags every log record.
	AppName string `yaml:"app_name"`
}

// Backend holds the two values a client needs to reach the service:
// the endpoint (PostgreSQL DSN) and the public API key clients must present.
type Backend struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`
}

// Postgres holds PostgreSQL pool configuration. The DSN comes from Backend.URL.
type Postgres struct {
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// Auth holds session and token configuration.
type Auth struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	AccessTokenExpiry  time.Duration `yaml:"access_token_expiry"`
	RefreshTokenExpiry time.Duration `yaml:"refresh_token_expiry"`
	BcryptCost         int           `yaml:"bcrypt_cost"`
	CleanupInterval    time.Duration `yaml:"cleanup_interval"`
}

// Storage holds object storage configuration.
type Storage struct {
	Provider      string `yaml:"provider"` // "local" | "azure"
	Bucket        string `yaml:"bucket"`
	LocalDir      string `yaml:"local_dir"`
	PublicBaseURL string `yaml:"public_base_url"`
	AzureConnStr  string `yaml:"azure_connection_string"`
	MaxUploadMB   int64  `yaml:"max_upload_mb"`

	// MaxConcurrentUploads caps uploads in flight across all users.
	MaxConcurrentUploads int `yaml:"max_concurrent_uploads"`
}

// NATS holds NATS JetStream configuration. An empty URL disables events and the L2 cache.
type NATS struct {
	URL string `yaml:"url"`
}

// Cache holds list cache configuration.
type Cache struct {
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	L2Backend   string        `yaml:"l2_backend"` // "" | "nats" | "redis"
	L2Bucket    string        `yaml:"l2_bucket"`
	L2TTL       time.Duration `yaml:"l2_ttl"`
	RedisAddr   string        `yaml:"redis_addr"`
	ListTTL     time.Duration `yaml:"list_ttl"`
	ConfirmTTL  time.Duration `yaml:"confirm_ttl"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for object storage calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// Idempotency holds configuration for Idempotency-Key replay.
type Idempotency struct {
	TTL time.Duration `yaml:"ttl"`
}

// Otel holds OpenTelemetry exporter configuration.
type Otel struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// MCP holds the assistant tool endpoint configuration.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

// Defaults returns a Config with sensible default values for local development.
// Backend.URL and Backend.AnonKey have no default and must be supplied.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:5173",
			AppName:    "rental-manager",
		},
		Postgres: Postgres{
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		Auth: Auth{
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 30 * 24 * time.Hour,
			BcryptCost:         12,
			CleanupInterval:    time.Hour,
		},
		Storage: Storage{
			Provider:      "local",
			Bucket:        "documents",
			LocalDir:      "data/storage",
			PublicBaseURL: "http://localhost:8080/storage",
			MaxUploadMB:   25,

			MaxConcurrentUploads: 4,
		},
		Cache: Cache{
			L1MaxSizeMB: 32,
			L2Bucket:    "RENTAL_CACHE",
			L2TTL:       10 * time.Minute,
			ListTTL:     30 * time.Second,
			ConfirmTTL:  2 * time.Minute,
		},
		Logging: Logging{
			Level:   "info",
			Service: "rental-manager",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             50,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		Idempotency: Idempotency{
			TTL: 24 * time.Hour,
		},
		Otel: Otel{
			Endpoint: "localhost:4317",
			Insecure: true,
		},
	}
}
