package config

import "time"

// Config holds runtime settings for the preview CLI.
//
// Fields:
//   - BackendURL: base URL of the descriptor backend HTTP API.
//   - HealthAddr: host:port of the backend gRPC health endpoint.
//   - EditorURL: base URL of the hosted editor service; empty disables the
//     external-editor strategy.
//   - OnlineCheckInterval: how often the client probes backend health.
//   - ReadinessTimeout, MinConfirmations: editor readiness heuristics.
//   - MaxDownloadBytes: cap on documents downloaded for conversion.
//   - CacheSize, CacheTTL: descriptor cache bounds.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	BackendURL          string
	HealthAddr          string
	EditorURL           string
	OnlineCheckInterval time.Duration
	ReadinessTimeout    time.Duration
	MinConfirmations    int
	MaxDownloadBytes    int64
	CacheSize           int
	CacheTTL            time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://127.0.0.1:8080"
	c.HealthAddr = "127.0.0.1:50051"
	c.EditorURL = ""
	c.OnlineCheckInterval = 3 * time.Second
	c.ReadinessTimeout = 10 * time.Second
	c.MinConfirmations = 3
	c.MaxDownloadBytes = 32 << 20
	c.CacheSize = 128
	c.CacheTTL = time.Minute
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
