package config

import "time"

// FlagSet is the part of a cobra/pflag flag set the CLI binds to.
type FlagSet interface {
	StringVarP(p *string, name, shorthand, value, usage string)
	DurationVarP(p *time.Duration, name, shorthand string, value time.Duration, usage string)
	Changed(name string) bool
}

// Flags holds flag values until the config file has been read, so that
// only flags given on the command line override it.
type Flags struct {
	fs FlagSet

	ConfigPath string
	values     Config
}

// BindFlags registers the client flags on fs:
//
//	-c, --config     path to JSON config file
//	-a, --server     server base URL
//	-g, --health     gRPC health address
//	-d, --data-dir   directory of the local session database
//	-o, --out        download directory
//	-i, --interval   online check interval
//	    --timeout    request timeout
//	    --log-level  log level
func BindFlags(fs FlagSet) *Flags {
	var d Config
	d.LoadDefaults()

	f := &Flags{fs: fs}
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "path to JSON config file")
	fs.StringVarP(&f.values.ServerURL, "server", "a", d.ServerURL, "server base URL")
	fs.StringVarP(&f.values.HealthAddr, "health", "g", d.HealthAddr, "gRPC health address")
	fs.StringVarP(&f.values.DataDir, "data-dir", "d", d.DataDir, "directory of the local session database")
	fs.StringVarP(&f.values.DownloadDir, "out", "o", d.DownloadDir, "download directory")
	fs.DurationVarP(&f.values.OnlineCheckInterval, "interval", "i", d.OnlineCheckInterval, "online check interval")
	fs.DurationVarP(&f.values.RequestTimeout, "timeout", "", d.RequestTimeout, "request timeout")
	fs.StringVarP(&f.values.LogLevel, "log-level", "", d.LogLevel, "log level")
	return f
}

// Load reads the config file named by --config and then applies every
// flag that was set explicitly.
func (f *Flags) Load() (*Config, error) {
	cfg, err := LoadConfig(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	return cfg, nil
}

// Apply copies explicitly set flags into cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.fs.Changed("server") {
		cfg.ServerURL = f.values.ServerURL
	}
	if f.fs.Changed("health") {
		cfg.HealthAddr = f.values.HealthAddr
	}
	if f.fs.Changed("data-dir") {
		cfg.DataDir = f.values.DataDir
	}
	if f.fs.Changed("out") {
		cfg.DownloadDir = f.values.DownloadDir
	}
	if f.fs.Changed("interval") {
		cfg.OnlineCheckInterval = f.values.OnlineCheckInterval
	}
	if f.fs.Changed("timeout") {
		cfg.RequestTimeout = f.values.RequestTimeout
	}
	if f.fs.Changed("log-level") {
		cfg.LogLevel = f.values.LogLevel
	}
}
