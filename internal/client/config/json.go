package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophview/internal/flagx"
	"github.com/dmitrijs2005/gophview/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so they may be strings like "10s" or integer nanoseconds.
type JsonConfig struct {
	BackendURL          string         `json:"backend_url"`
	HealthAddr          string         `json:"health_addr"`
	EditorURL           string         `json:"editor_url"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	ReadinessTimeout    timex.Duration `json:"readiness_timeout"`
	MinConfirmations    int            `json:"min_confirmations"`
	MaxDownloadBytes    int64          `json:"max_download_bytes"`
	CacheSize           int            `json:"cache_size"`
	CacheTTL            timex.Duration `json:"cache_ttl"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays cfg with the JSON file named by -c or -config. Fields
// missing from the file keep their current values. Read or decode errors
// panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BackendURL != "" {
		cfg.BackendURL = jc.BackendURL
	}
	if jc.HealthAddr != "" {
		cfg.HealthAddr = jc.HealthAddr
	}
	if jc.EditorURL != "" {
		cfg.EditorURL = jc.EditorURL
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.ReadinessTimeout.Duration > 0 {
		cfg.ReadinessTimeout = jc.ReadinessTimeout.Duration
	}
	if jc.MinConfirmations > 0 {
		cfg.MinConfirmations = jc.MinConfirmations
	}
	if jc.MaxDownloadBytes > 0 {
		cfg.MaxDownloadBytes = jc.MaxDownloadBytes
	}
	if jc.CacheSize > 0 {
		cfg.CacheSize = jc.CacheSize
	}
	if jc.CacheTTL.Duration > 0 {
		cfg.CacheTTL = jc.CacheTTL.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
