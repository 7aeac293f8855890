package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

type Server struct {
	Port              string `json:"port" yaml:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

type Finnhub struct {
	APIKey               string `json:"api_key" yaml:"api_key"`
	BaseURL              string `json:"base_url" yaml:"base_url"`
	TimeoutSec           int    `json:"timeout_sec" yaml:"timeout_sec"`
	MaxRequestsPerMin    int    `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	Burst                int    `json:"burst" yaml:"burst"`
	MinRequestIntervalMs int    `json:"min_request_interval_ms" yaml:"min_request_interval_ms"`
}

type Quotes struct {
	// Mode selects the upstream: "local" resolves in-process through
	// Finnhub, "remote" delegates to ServiceURL.
	Mode            string `json:"mode" yaml:"mode"`
	ServiceURL      string `json:"service_url" yaml:"service_url"`
	CacheTTLSeconds int    `json:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	Concurrency     int    `json:"concurrency" yaml:"concurrency"`
	MaxSymbols      int    `json:"max_symbols" yaml:"max_symbols"`
}

type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type Config struct {
	Server  Server  `json:"server" yaml:"server"`
	Finnhub Finnhub `json:"finnhub" yaml:"finnhub"`
	Quotes  Quotes  `json:"quotes" yaml:"quotes"`
	Log     Log     `json:"log" yaml:"log"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10, AllowedOrigins: []string{"*"}},
		Finnhub: Finnhub{
			BaseURL:    "https://finnhub.io",
			TimeoutSec: 8,
			Burst:      1,
		},
		Quotes: Quotes{
			Mode:            ModeLocal,
			ServiceURL:      "http://127.0.0.1:8000",
			CacheTTLSeconds: 30,
			Concurrency:     6,
			MaxSymbols:      50,
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// Load reads config from path (JSON, or YAML by extension). If path is empty
// it tries config.json then config.yaml; missing files mean defaults.
// A .env file in the working directory is loaded first, and environment
// variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		for _, p := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	cfg.clamp()
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if x, ok := envInt("REQUEST_TIMEOUT_SEC"); ok && x > 0 {
		cfg.Server.RequestTimeoutSec = x
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitCSV(v)
	}

	// FINNHUB_API_KEY wins over the legacy FINNHUB_TOKEN name
	if v := os.Getenv("FINNHUB_TOKEN"); v != "" {
		cfg.Finnhub.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Finnhub.APIKey = v
	}
	if v := os.Getenv("FINNHUB_BASE_URL"); v != "" {
		cfg.Finnhub.BaseURL = v
	}
	if x, ok := envInt("FINNHUB_TIMEOUT_SEC"); ok && x > 0 {
		cfg.Finnhub.TimeoutSec = x
	}
	if x, ok := envInt("FINNHUB_MAX_RPM"); ok && x >= 0 {
		cfg.Finnhub.MaxRequestsPerMin = x
	}
	if x, ok := envInt("FINNHUB_BURST"); ok && x > 0 {
		cfg.Finnhub.Burst = x
	}
	if x, ok := envInt("FINNHUB_MIN_INTERVAL_MS"); ok && x >= 0 {
		cfg.Finnhub.MinRequestIntervalMs = x
	}

	if v := os.Getenv("QUOTES_MODE"); v != "" {
		cfg.Quotes.Mode = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("QUOTE_SERVICE_URL"); v != "" {
		cfg.Quotes.ServiceURL = v
	}
	if x, ok := envInt("QUOTES_CACHE_TTL_SECONDS"); ok {
		cfg.Quotes.CacheTTLSeconds = x
	}
	if x, ok := envInt("QUOTES_CONCURRENCY"); ok {
		cfg.Quotes.Concurrency = x
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// clamp forces numeric settings into their supported ranges.
func (c *Config) clamp() {
	c.Quotes.CacheTTLSeconds = clampInt(c.Quotes.CacheTTLSeconds, 15, 60, 30)
	c.Quotes.Concurrency = clampInt(c.Quotes.Concurrency, 1, 8, 6)
	if c.Quotes.MaxSymbols <= 0 || c.Quotes.MaxSymbols > 50 {
		c.Quotes.MaxSymbols = 50
	}
	if c.Quotes.Mode != ModeRemote {
		c.Quotes.Mode = ModeLocal
	}
	c.Quotes.ServiceURL = strings.TrimRight(c.Quotes.ServiceURL, "/")
	c.Finnhub.BaseURL = strings.TrimRight(c.Finnhub.BaseURL, "/")
}

// clampInt treats zero as unset; anything else is bounded to [lo, hi].
func clampInt(v, lo, hi, def int) int {
	if v == 0 {
		return def
	}
	return min(max(v, lo), hi)
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Quotes.CacheTTLSeconds) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

func (c Config) FinnhubTimeout() time.Duration {
	return time.Duration(c.Finnhub.TimeoutSec) * time.Second
}

func (c Config) FinnhubMinInterval() time.Duration {
	return time.Duration(c.Finnhub.MinRequestIntervalMs) * time.Millisecond
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err != nil {
		return 0, false
	}
	return x, true
}

// splitCSV splits a comma-separated list, trimming and dropping empties.
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
