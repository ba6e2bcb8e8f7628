package wetlib

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full wetmap configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Tiles   TilesConfig   `yaml:"tiles"`
	Cache   CacheConfig   `yaml:"cache"`
	Network NetworkConfig `yaml:"network"`
	Sync    SyncConfig    `yaml:"sync"`
	Proxy   string        `yaml:"proxy"`
	Verbose bool          `yaml:"verbose"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Tiles.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Network.Validate(); err != nil {
		return err
	}
	return c.Sync.Validate()
}

// APIConfig holds remote record API settings.
type APIConfig struct {
	BaseURL   string   `yaml:"base_url"`
	Timeout   Duration `yaml:"timeout"`
	TokenFile string   `yaml:"token_file"`
}

// Validate validates the API configuration.
func (c *APIConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
	)
	if err != nil {
		return &ValidationError{Subject: "api config", Err: err}
	}
	return nil
}

// TilesConfig holds tile source and download settings.
type TilesConfig struct {
	Mirrors   []string `yaml:"mirrors"`
	BatchSize int      `yaml:"batch_size"`
	UserAgent string   `yaml:"user_agent"`
	Timeout   Duration `yaml:"timeout"`
}

// Validate validates the tile configuration.
func (c *TilesConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Mirrors, validation.Required, validation.Length(1, 0),
			validation.Each(is.URL)),
		validation.Field(&c.BatchSize, validation.Min(1), validation.Max(64)),
	)
	if err != nil {
		return &ValidationError{Subject: "tiles config", Err: err}
	}
	return nil
}

// CacheConfig holds local storage paths.
type CacheConfig struct {
	// Dir is the data directory: tile cache plus the kv database.
	Dir string `yaml:"dir"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
	if err != nil {
		return &ValidationError{Subject: "cache config", Err: err}
	}
	return nil
}

// DBPath returns the kv database file inside the data directory.
func (c *CacheConfig) DBPath() string {
	return filepath.Join(c.Dir, "wetmap.db")
}

// NetworkConfig holds connectivity monitor settings.
type NetworkConfig struct {
	// ProbeURL is HEAD-ed to detect connectivity; empty means the API base.
	ProbeURL string   `yaml:"probe_url"`
	Interval Duration `yaml:"interval"`
	Debounce Duration `yaml:"debounce"`
}

// Validate validates the network configuration.
func (c *NetworkConfig) Validate() error {
	if c.ProbeURL != "" {
		if err := validation.Validate(c.ProbeURL, is.URL); err != nil {
			return &ValidationError{Subject: "network config", Err: err}
		}
	}
	return nil
}

// SyncConfig holds sync and maintenance settings.
type SyncConfig struct {
	// Interval triggers periodic drain passes in watch mode; 0 disables
	// them (reconnect transitions still trigger a pass).
	Interval Duration `yaml:"interval"`
	// RefreshCron re-downloads named areas on a cron schedule in watch
	// mode, e.g. "0 3 * * *" for nightly.
	RefreshCron  string   `yaml:"refresh_cron"`
	RefreshAreas []string `yaml:"refresh_areas"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	if c.RefreshCron != "" && len(c.RefreshAreas) == 0 {
		return &ValidationError{
			Subject: "sync config",
			Err:     fmt.Errorf("refresh_cron set but refresh_areas is empty"),
		}
	}
	return nil
}

// NewDefaultConfig returns a Config with the stock settings.
func NewDefaultConfig() *Config {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return &Config{
		API: APIConfig{
			BaseURL: "https://adaav-wetmap-api.glynet.com/api",
			Timeout: Duration(30 * time.Second),
		},
		Tiles: TilesConfig{
			Mirrors:   DefaultMirrors,
			BatchSize: DefaultBatchSize,
			UserAgent: "wetmap/1.0 (+https://github.com/adaav/wetmap)",
			Timeout:   Duration(20 * time.Second),
		},
		Cache: CacheConfig{
			Dir: filepath.Join(dir, "wetmap"),
		},
		Network: NetworkConfig{
			Interval: Duration(5 * time.Second),
			Debounce: Duration(time.Second),
		},
		Sync: SyncConfig{
			Interval: Duration(5 * time.Minute),
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults and validates
// the result. A missing file yields the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, storeErr("read config", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
