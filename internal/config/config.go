// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendBadger = "badger"
	CacheBackendNone   = "none"
)

// AppConfig is the complete daemon configuration.
type AppConfig struct {
	// LogLevel: HDRKIT_LOG_LEVEL. Reloadable.
	LogLevel string `yaml:"logLevel"`
	// DataDir is the document root served under /files/. HDRKIT_DATA_DIR.
	DataDir string `yaml:"dataDir"`

	HTTP      HTTPConfig      `yaml:"http"`
	Raw       RawConfig       `yaml:"raw"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// HTTPConfig configures the chi-based API server.
type HTTPConfig struct {
	ListenAddr            string        `yaml:"listenAddr"`               // HDRKIT_LISTEN
	TrustedProxies        []string      `yaml:"trustedProxies,omitempty"` // HDRKIT_TRUSTED_PROXIES, comma separated
	HSTSMaxAge            uint64        `yaml:"hstsMaxAge"`               // HDRKIT_HSTS_MAX_AGE
	HSTSIncludeSubdomains bool          `yaml:"hstsIncludeSubdomains"`    // HDRKIT_HSTS_INCLUDE_SUBDOMAINS
	FilesCacheControl     string        `yaml:"filesCacheControl"`        // HDRKIT_FILES_CACHE_CONTROL
	DefaultCacheControl   string        `yaml:"defaultCacheControl"`      // HDRKIT_DEFAULT_CACHE_CONTROL
	RateLimitRequests     int           `yaml:"rateLimitRequests"`        // HDRKIT_RATE_LIMIT, 0 disables
	RateLimitWindow       time.Duration `yaml:"rateLimitWindow"`          // HDRKIT_RATE_LIMIT_WINDOW
	ShutdownTimeout       time.Duration `yaml:"shutdownTimeout"`          // HDRKIT_SHUTDOWN_TIMEOUT
}

// RawConfig configures the hand-rolled HTTP/1.x listener.
type RawConfig struct {
	Enabled        bool          `yaml:"enabled"`        // HDRKIT_RAW_ENABLED
	ListenAddr     string        `yaml:"listenAddr"`     // HDRKIT_RAW_LISTEN
	MaxHeaderBytes int           `yaml:"maxHeaderBytes"` // HDRKIT_RAW_MAX_HEADER_BYTES
	ReadTimeout    time.Duration `yaml:"readTimeout"`    // HDRKIT_RAW_READ_TIMEOUT
	WriteTimeout   time.Duration `yaml:"writeTimeout"`   // HDRKIT_RAW_WRITE_TIMEOUT
	IdleTimeout    time.Duration `yaml:"idleTimeout"`    // HDRKIT_RAW_IDLE_TIMEOUT
	AcceptRate     float64       `yaml:"acceptRate"`     // HDRKIT_RAW_ACCEPT_RATE, 0 disables
	AcceptBurst    int           `yaml:"acceptBurst"`    // HDRKIT_RAW_ACCEPT_BURST
}

// CacheConfig configures the caching upstream client.
type CacheConfig struct {
	Backend         string        `yaml:"backend"`         // HDRKIT_CACHE_BACKEND: memory|redis|badger|none
	UpstreamURL     string        `yaml:"upstreamURL"`     // HDRKIT_UPSTREAM_URL, empty disables /proxy/
	Shared          bool          `yaml:"shared"`          // HDRKIT_CACHE_SHARED
	StaleTTL        time.Duration `yaml:"staleTTL"`        // HDRKIT_CACHE_STALE_TTL
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`    // HDRKIT_CACHE_MAX_BODY_BYTES
	UpstreamTimeout time.Duration `yaml:"upstreamTimeout"` // HDRKIT_UPSTREAM_TIMEOUT
	CleanupInterval time.Duration `yaml:"cleanupInterval"` // HDRKIT_CACHE_CLEANUP_INTERVAL
	Redis           RedisConfig   `yaml:"redis"`
	// BadgerDir holds the persistent store when Backend is "badger".
	BadgerDir string `yaml:"badgerDir"` // HDRKIT_CACHE_BADGER_DIR

	// Consecutive upstream failures that open the circuit breaker; 0 disables it.
	BreakerThreshold int           `yaml:"breakerThreshold"` // HDRKIT_UPSTREAM_BREAKER_THRESHOLD
	BreakerReset     time.Duration `yaml:"breakerReset"`     // HDRKIT_UPSTREAM_BREAKER_RESET
}

// RedisConfig is used when Backend is "redis".
type RedisConfig struct {
	Addr      string `yaml:"addr"`      // HDRKIT_REDIS_ADDR
	Password  string `yaml:"password"`  // HDRKIT_REDIS_PASSWORD
	DB        int    `yaml:"db"`        // HDRKIT_REDIS_DB
	KeyPrefix string `yaml:"keyPrefix"` // HDRKIT_REDIS_KEY_PREFIX
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`      // HDRKIT_TELEMETRY_ENABLED
	ExporterType string  `yaml:"exporterType"` // HDRKIT_TELEMETRY_EXPORTER: grpc|http
	Endpoint     string  `yaml:"endpoint"`     // HDRKIT_TELEMETRY_ENDPOINT
	SamplingRate float64 `yaml:"samplingRate"` // HDRKIT_TELEMETRY_SAMPLING_RATE
	Environment  string  `yaml:"environment"`  // HDRKIT_ENV
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		LogLevel: "info",
		DataDir:  "./data",
		HTTP: HTTPConfig{
			ListenAddr:            ":8080",
			HSTSMaxAge:            15552000,
			HSTSIncludeSubdomains: true,
			FilesCacheControl:     "public, max-age=3600",
			DefaultCacheControl:   "no-store",
			RateLimitRequests:     600,
			RateLimitWindow:       time.Minute,
			ShutdownTimeout:       10 * time.Second,
		},
		Raw: RawConfig{
			Enabled:        true,
			ListenAddr:     ":8081",
			MaxHeaderBytes: 16 << 10,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			AcceptBurst:    1,
		},
		Cache: CacheConfig{
			Backend:          CacheBackendMemory,
			Shared:           true,
			StaleTTL:         time.Hour,
			MaxBodyBytes:     8 << 20,
			UpstreamTimeout:  10 * time.Second,
			CleanupInterval:  time.Minute,
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "hdrkit:cache:",
			},
			BadgerDir: "./cache",
		},
		Telemetry: TelemetryConfig{
			ExporterType: "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}
