package model

import "time"

// Config carries all runtime settings. It is built once per command from
// flags, environment, and the config file, then passed explicitly to every
// constructor that needs it. There is no package-level config state.
type Config struct {
	// DataDir is the directory holding the database JSON files. It is
	// required: the tool never probes candidate paths.
	DataDir string `yaml:"data_dir"`

	Service     ServiceConfig     `yaml:"service"`
	Backup      BackupConfig      `yaml:"backup"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// ServiceConfig describes the local analyzer web service that is notified
// after a successful write.
type ServiceConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`

	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	ReloadTimeout  time.Duration `yaml:"reload_timeout"`
	AnalyzeTimeout time.Duration `yaml:"analyze_timeout"`
	ReportTimeout  time.Duration `yaml:"report_timeout"`
	SuggestTimeout time.Duration `yaml:"suggest_timeout"`

	// RepeatDelay is how long to wait before the second analyze request
	// that defeats client-side caching in the web UI.
	RepeatDelay time.Duration `yaml:"repeat_delay"`

	// RequestsPerSecond and Burst bound the request rate against the
	// service so a batch run cannot flood it.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// BackupConfig controls the pre-mutation backup copy.
type BackupConfig struct {
	Enabled bool `yaml:"enabled"`
}

// CacheConfig controls the parsed-document cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// ConcurrencyConfig controls batch processing.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// OutputConfig controls console output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Enabled:           true,
			BaseURL:           "http://127.0.0.1:5000",
			ProbeTimeout:      5 * time.Second,
			ReloadTimeout:     30 * time.Second,
			AnalyzeTimeout:    60 * time.Second,
			ReportTimeout:     60 * time.Second,
			SuggestTimeout:    10 * time.Second,
			RepeatDelay:       5 * time.Second,
			RequestsPerSecond: 4,
			Burst:             4,
		},
		Backup: BackupConfig{Enabled: true},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{Workers: 4},
		Output:      OutputConfig{Verbose: false},
	}
}
