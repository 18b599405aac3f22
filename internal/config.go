package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env         string
	LogLevel    string
	Port        uint16
	DatabaseUrl string // empty selects the in-memory store

	// SeedFile is a YAML address list applied at startup to whichever store is
	// open, memory or Postgres. Only missing CEPs are inserted.
	SeedFile string

	AddressCacheSize int
	AddressCacheTTL  time.Duration
	LookupTimeout    time.Duration
	SessionCapacity  int

	ViaCEP    ViaCEPConfig
	NATS      NATSConfig
	RateLimit RateLimitConfig
	Sentry    SentryConfig
}

// ViaCEPConfig configures the external address API client.
type ViaCEPConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	ProbeCEP      string
}

// NATSConfig enables publishing notifications to NATS when URL is set.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// RateLimitConfig throttles /api/cep requests per client IP.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

var validEnvs = map[string]bool{"dev": true, "prod": true}

// NewConfig loads .env (if any) and reads the configuration from the environment.
func NewConfig() (*Config, error) {
	LoadDotEnv()
	return Load(NewViper())
}

// LoadDotEnv loads .env from the current directory, walking up at most two
// parent directories. Variables already set in the environment win.
func LoadDotEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	dir, _ := os.Getwd()
	for i := 0; i < 2; i++ {
		dir = filepath.Join(dir, "..")
		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			return
		}
	}
	slog.Default().Warn(".env file not found, using environment variables and defaults")
}

// NewViper returns a viper instance with every key defaulted and bound to
// the environment variable of the same name in upper case.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 3000)
	v.SetDefault("database_url", "")
	v.SetDefault("store_seed_file", "")
	v.SetDefault("address_cache_size", 4096)
	v.SetDefault("address_cache_ttl", 5*time.Minute)
	v.SetDefault("lookup_timeout", 10*time.Second)
	v.SetDefault("session_capacity", 1024)

	v.SetDefault("viacep_base_url", "https://viacep.com.br/ws")
	v.SetDefault("viacep_timeout", 5*time.Second)
	v.SetDefault("viacep_rate_per_second", 3.0)
	v.SetDefault("viacep_burst", 3)
	v.SetDefault("viacep_probe_cep", "01001000")

	v.SetDefault("nats_url", "")
	v.SetDefault("nats_subject_prefix", "cepfinder.notifications")

	v.SetDefault("rate_limit_rps", 5.0)
	v.SetDefault("rate_limit_burst", 20)

	v.SetDefault("sentry_dsn", "")
	v.SetDefault("sentry_enabled", false)
	v.SetDefault("sentry_environment", "")
	v.SetDefault("sentry_release", "")
	v.SetDefault("sentry_sample_rate", 1.0)
	v.SetDefault("sentry_traces_sample_rate", 0.0)
	v.SetDefault("sentry_debug", false)

	v.AutomaticEnv()
	return v
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	env := strings.ToLower(strings.TrimSpace(v.GetString("env")))
	if !validEnvs[env] {
		slog.Default().Warn("Invalid ENV. Using default: dev", slog.String("value", env))
		env = "dev"
	}

	port := v.GetInt("port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		Env:              env,
		LogLevel:         v.GetString("log_level"),
		Port:             uint16(port),
		DatabaseUrl:      v.GetString("database_url"),
		SeedFile:         v.GetString("store_seed_file"),
		AddressCacheSize: v.GetInt("address_cache_size"),
		AddressCacheTTL:  v.GetDuration("address_cache_ttl"),
		LookupTimeout:    v.GetDuration("lookup_timeout"),
		SessionCapacity:  v.GetInt("session_capacity"),
		ViaCEP: ViaCEPConfig{
			BaseURL:       v.GetString("viacep_base_url"),
			Timeout:       v.GetDuration("viacep_timeout"),
			RatePerSecond: v.GetFloat64("viacep_rate_per_second"),
			Burst:         v.GetInt("viacep_burst"),
			ProbeCEP:      v.GetString("viacep_probe_cep"),
		},
		NATS: NATSConfig{
			URL:           v.GetString("nats_url"),
			SubjectPrefix: v.GetString("nats_subject_prefix"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("rate_limit_rps"),
			Burst:             v.GetInt("rate_limit_burst"),
		},
		Sentry: SentryConfig{
			DSN:              v.GetString("sentry_dsn"),
			Enabled:          v.GetBool("sentry_enabled"),
			Environment:      v.GetString("sentry_environment"),
			Release:          v.GetString("sentry_release"),
			SampleRate:       v.GetFloat64("sentry_sample_rate"),
			TracesSampleRate: v.GetFloat64("sentry_traces_sample_rate"),
			Debug:            v.GetBool("sentry_debug"),
		},
	}

	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = cfg.Env
	}

	if cfg.LookupTimeout < 0 {
		return nil, fmt.Errorf("LOOKUP_TIMEOUT must not be negative")
	}
	if cfg.ViaCEP.Timeout <= 0 {
		return nil, fmt.Errorf("VIACEP_TIMEOUT must be positive")
	}
	if cfg.AddressCacheSize < 0 {
		return nil, fmt.Errorf("ADDRESS_CACHE_SIZE must not be negative")
	}
	if cfg.AddressCacheTTL < 0 {
		return nil, fmt.Errorf("ADDRESS_CACHE_TTL must not be negative")
	}
	if cfg.SessionCapacity <= 0 {
		return nil, fmt.Errorf("SESSION_CAPACITY must be positive")
	}
	if cfg.Env == "prod" && cfg.Sentry.Enabled && cfg.Sentry.DSN == "" {
		return nil, fmt.Errorf("SENTRY_DSN must be set when SENTRY_ENABLED is true in production")
	}

	return cfg, nil
}
