// # internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Provider      Provider      `toml:"provider"`
	Cache         Cache         `toml:"cache"`
	Aggregate     Aggregate     `toml:"aggregate"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Provider struct {
	Kind      string        `toml:"kind"` // "http" or "file"
	BaseURL   string        `toml:"base_url"`
	MirrorDir string        `toml:"mirror_dir"`
	Timeout   time.Duration `toml:"timeout"`
	RateLimit float64       `toml:"rate_limit"` // requests per second, 0 disables
	RateBurst int           `toml:"rate_burst"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Aggregate struct {
	Workers int `toml:"workers"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Addr          string `toml:"addr"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
}

const (
	ProviderHTTP = "http"
	ProviderFile = "file"
)

func Default() *Config {
	return &Config{
		Provider: Provider{
			Kind:    ProviderHTTP,
			BaseURL: "https://education.vermont.gov/data/enrollment",
			Timeout: 30 * time.Second,
		},
		Cache: Cache{
			Path: "./vtenr-cache.db",
		},
		Aggregate: Aggregate{
			Workers: 1,
		},
		Watch: Watch{
			Debounce: 500 * time.Millisecond,
		},
		Observability: Observability{
			Addr: ":9464",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderHTTP:
		if c.Provider.BaseURL == "" {
			return fmt.Errorf("provider.base_url is required for the http provider")
		}
	case ProviderFile:
		if c.Provider.MirrorDir == "" {
			return fmt.Errorf("provider.mirror_dir is required for the file provider")
		}
	default:
		return fmt.Errorf("unknown provider.kind %q", c.Provider.Kind)
	}

	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required when the cache is enabled")
	}
	if c.Aggregate.Workers < 0 {
		return fmt.Errorf("aggregate.workers must not be negative")
	}
	return nil
}
