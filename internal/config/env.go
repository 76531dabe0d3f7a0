package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: VTENR_[SECTION]_[KEY] (e.g., VTENR_PROVIDER_BASE_URL).
func ApplyEnvOverrides(cfg *Config) {
	// Provider
	setEnvString(&cfg.Provider.Kind, "VTENR_PROVIDER_KIND")
	setEnvString(&cfg.Provider.BaseURL, "VTENR_PROVIDER_BASE_URL")
	setEnvString(&cfg.Provider.MirrorDir, "VTENR_PROVIDER_MIRROR_DIR")
	setEnvDuration(&cfg.Provider.Timeout, "VTENR_PROVIDER_TIMEOUT")
	setEnvFloat64(&cfg.Provider.RateLimit, "VTENR_PROVIDER_RATE_LIMIT")
	setEnvInt(&cfg.Provider.RateBurst, "VTENR_PROVIDER_RATE_BURST")

	// Cache
	setEnvBool(&cfg.Cache.Enabled, "VTENR_CACHE_ENABLED")
	setEnvString(&cfg.Cache.Path, "VTENR_CACHE_PATH")

	// Aggregate
	setEnvInt(&cfg.Aggregate.Workers, "VTENR_AGGREGATE_WORKERS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "VTENR_WATCH_DEBOUNCE")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "VTENR_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Addr, "VTENR_OBSERVABILITY_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "VTENR_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "VTENR_OBSERVABILITY_ENABLE_TRACING")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		log.Printf("Applying env override: %s=%s", key, val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = d
		}
	}
}
