// Package config loads and validates the hub's startup configuration,
// grounded on the teacher's constants.go banner-commented groups and
// main.go's godotenv + os.Getenv reads.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	DefaultLocalFilesDir       = "local"
	DefaultIngressPath         = "/ws"
	DefaultIngressPort         = "8080"
	DefaultLocale              = "en"
	DefaultMinProtocolVersion  = "2.0.0"
	DefaultCurrentProtoVersion = "2.0.0"
	DefaultMaxBinaryFrameBytes = 64 << 20 // 64 MiB
	DefaultSubscriberQueueDepth = 64
	DefaultCoalesceWindowMs     = 100
	DefaultProjectionCacheCap   = 20
)

// =============================================================================
// Config
// =============================================================================

// Config holds every startup-configurable value from spec.md §6.
type Config struct {
	LocalFilesDir       string
	IngressPath         string
	IngressPort         string
	DefaultLocale       string
	MinProtocolVersion  string
	CurrentProtoVersion string
	MaxBinaryFrameBytes int
	SubscriberQueueDepth int
	CoalesceWindow       time.Duration
	ProjectionCacheCap   int

	// EnableLegacyDatabaseFormat gates the legacy `database` frame
	// parser behind a feature switch, per SPEC_FULL.md §12.
	EnableLegacyDatabaseFormat bool
}

// Load reads .env (if present) then environment variables, applying
// defaults, and validates the result. A validation failure is fatal at
// startup (nonzero exit code per spec.md §6).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	cfg := &Config{
		LocalFilesDir:        getEnv("LOCAL_FILES_DIR", cwd+string(os.PathSeparator)+DefaultLocalFilesDir),
		IngressPath:          getEnv("INGRESS_PATH", DefaultIngressPath),
		IngressPort:          getEnv("INGRESS_PORT", DefaultIngressPort),
		DefaultLocale:        getEnv("DEFAULT_LOCALE", DefaultLocale),
		MinProtocolVersion:   getEnv("MIN_PROTOCOL_VERSION", DefaultMinProtocolVersion),
		CurrentProtoVersion:  getEnv("CURRENT_PROTOCOL_VERSION", DefaultCurrentProtoVersion),
		MaxBinaryFrameBytes:  getEnvInt("MAX_BINARY_FRAME_BYTES", DefaultMaxBinaryFrameBytes),
		SubscriberQueueDepth: getEnvInt("SUBSCRIBER_QUEUE_DEPTH", DefaultSubscriberQueueDepth),
		CoalesceWindow:       time.Duration(getEnvInt("COALESCE_WINDOW_MS", DefaultCoalesceWindowMs)) * time.Millisecond,
		ProjectionCacheCap:   getEnvInt("PROJECTION_CACHE_CAP", DefaultProjectionCacheCap),
		EnableLegacyDatabaseFormat: getEnvBool("ENABLE_LEGACY_DATABASE_FORMAT", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.LocalFilesDir == "" {
		return fmt.Errorf("config: LOCAL_FILES_DIR must not be empty")
	}
	if c.IngressPath == "" {
		return fmt.Errorf("config: INGRESS_PATH must not be empty")
	}
	if c.MaxBinaryFrameBytes <= 0 {
		return fmt.Errorf("config: MAX_BINARY_FRAME_BYTES must be positive, got %d", c.MaxBinaryFrameBytes)
	}
	if c.SubscriberQueueDepth <= 0 {
		return fmt.Errorf("config: SUBSCRIBER_QUEUE_DEPTH must be positive, got %d", c.SubscriberQueueDepth)
	}
	if c.ProjectionCacheCap <= 0 {
		return fmt.Errorf("config: PROJECTION_CACHE_CAP must be positive, got %d", c.ProjectionCacheCap)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
