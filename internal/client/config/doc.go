// Package config loads runtime configuration for the ev CLI.
//
// Sources and precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file named by --config.
//  3. Command-line flags bound with BindFlags, applied only when set.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "health_addr": "127.0.0.1:50051",
//	  "data_dir": ".eternalvault",
//	  "download_dir": "downloads",
//	  "online_check_interval": "3s",
//	  "request_timeout": "30s",
//	  "log_level": "warn"
//	}
package config
