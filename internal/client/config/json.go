package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/eternalvault/internal/timex"
)

// JsonConfig is a DTO used only for unmarshalling. Keys left out of the
// file keep their current values.
type JsonConfig struct {
	ServerURL           *string         `json:"server_url"`
	HealthAddr          *string         `json:"health_addr"`
	DataDir             *string         `json:"data_dir"`
	DownloadDir         *string         `json:"download_dir"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	LogLevel            *string         `json:"log_level"`
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// parseJSON overlays cfg with the file at path. An empty path loads nothing.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setStr(&cfg.ServerURL, jc.ServerURL)
	setStr(&cfg.HealthAddr, jc.HealthAddr)
	setStr(&cfg.DataDir, jc.DataDir)
	setStr(&cfg.DownloadDir, jc.DownloadDir)
	setStr(&cfg.LogLevel, jc.LogLevel)
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
