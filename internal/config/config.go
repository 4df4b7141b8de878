// Package config lee la configuración del proceso desde variables de entorno.
// El .env (si existe) lo carga cmd/api antes de llamar a Load.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type OdinConfig struct {
	BaseURL string // ODIN_BASE_URL
	APIKey  string // ODIN_API_KEY
}

// Enabled: sin URL o sin key el server arranca en modo dev (headers X-Debug-*).
func (c OdinConfig) Enabled() bool {
	return strings.TrimSpace(c.BaseURL) != "" && strings.TrimSpace(c.APIKey) != ""
}

type PetfinderConfig struct {
	BaseURL      string        // PETFINDER_BASE_URL
	ClientID     string        // PETFINDER_CLIENT_ID
	ClientSecret string        // PETFINDER_CLIENT_SECRET
	CacheTTL     time.Duration // PETFINDER_CACHE_TTL
	RPS          float64       // PETFINDER_RPS
}

type NotifyConfig struct {
	Workers     int           // NOTIFY_WORKERS
	Retries     int           // NOTIFY_RETRIES
	Backoff     time.Duration // NOTIFY_BACKOFF
	DrainWindow time.Duration // NOTIFY_DRAIN_TIMEOUT
}

type Config struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string
	AppName   string

	SwaggerEnabled bool

	// DBDSN vacío => storage en memoria.
	DBDSN string

	RecommendationLimit int
	FeedLimitAdopter    int
	FeedLimitStaff      int

	Odin      OdinConfig
	Petfinder PetfinderConfig
	Notify    NotifyConfig
}

func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load() (Config, error) {
	cfg := Config{
		Port:            getenv("PORT", "8080"),
		ReadTimeout:     getdur("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getdur("WRITE_TIMEOUT", 0),
		ShutdownTimeout: getdur("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getenv("LOG_FORMAT", "text")),
		AppName:   getenv("APP_NAME", "pet-adoption-marketplace"),

		SwaggerEnabled: getbool("SWAGGER_ENABLED", true),

		DBDSN: strings.TrimSpace(getenv("DB_DSN", "")),

		RecommendationLimit: getint("RECOMMENDATION_LIMIT", 8),
		FeedLimitAdopter:    getint("FEED_LIMIT_ADOPTER", 50),
		FeedLimitStaff:      getint("FEED_LIMIT_STAFF", 25),

		Odin: OdinConfig{
			BaseURL: getenv("ODIN_BASE_URL", ""),
			APIKey:  getenv("ODIN_API_KEY", ""),
		},
		Petfinder: PetfinderConfig{
			BaseURL:      getenv("PETFINDER_BASE_URL", "https://api.petfinder.com/v2"),
			ClientID:     getenv("PETFINDER_CLIENT_ID", ""),
			ClientSecret: getenv("PETFINDER_CLIENT_SECRET", ""),
			CacheTTL:     getdur("PETFINDER_CACHE_TTL", 30*24*time.Hour),
			RPS:          getfloat("PETFINDER_RPS", 1),
		},
		Notify: NotifyConfig{
			Workers:     getint("NOTIFY_WORKERS", 2),
			Retries:     getint("NOTIFY_RETRIES", 3),
			Backoff:     getdur("NOTIFY_BACKOFF", 200*time.Millisecond),
			DrainWindow: getdur("NOTIFY_DRAIN_TIMEOUT", 5*time.Second),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return cfg, errors.New("LOG_FORMAT must be text or json")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	// WRITE_TIMEOUT 0 = sin límite (el stream SSE es de larga duración)
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout < 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.RecommendationLimit < 1 {
		return cfg, errors.New("RECOMMENDATION_LIMIT must be >= 1")
	}
	if cfg.FeedLimitAdopter < 1 || cfg.FeedLimitStaff < 1 {
		return cfg, errors.New("FEED_LIMIT_ADOPTER and FEED_LIMIT_STAFF must be >= 1")
	}
	if cfg.Petfinder.CacheTTL <= 0 {
		return cfg, errors.New("PETFINDER_CACHE_TTL must be > 0")
	}
	if cfg.Petfinder.RPS < 0 {
		return cfg, errors.New("PETFINDER_RPS must be >= 0")
	}
	if cfg.Notify.Workers < 1 || cfg.Notify.Retries < 1 {
		return cfg, errors.New("NOTIFY_WORKERS and NOTIFY_RETRIES must be >= 1")
	}
	if cfg.Notify.Backoff <= 0 || cfg.Notify.DrainWindow <= 0 {
		return cfg, errors.New("NOTIFY_BACKOFF and NOTIFY_DRAIN_TIMEOUT must be > 0")
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
