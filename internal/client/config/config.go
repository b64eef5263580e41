package config

import (
	"path/filepath"
	"time"
)

// Config holds runtime settings for the ev CLI.
type Config struct {
	ServerURL           string
	HealthAddr          string
	DataDir             string
	DownloadDir         string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	LogLevel            string
}

// LoadDefaults populates c with settings for a server on localhost.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.HealthAddr = "127.0.0.1:50051"
	c.DataDir = ".eternalvault"
	c.DownloadDir = "downloads"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 30 * time.Second
	c.LogLevel = "warn"
}

// DatabasePath is the sqlite file holding the local session.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "ev.db")
}

// LoadConfig applies defaults and then the JSON file at path, if any.
// Flags are applied separately once the command line has been parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
