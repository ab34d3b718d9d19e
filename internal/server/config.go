package server

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config is the serve configuration. It is read from YAML by
// config.LoadOptional and may be overridden by command flags.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Topology TopologyConfig `yaml:"topology"`
	Cache    CacheConfig    `yaml:"cache"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Topology.Validate(); err != nil {
		return fmt.Errorf("topology: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// AppConfig holds process-level settings.
type AppConfig struct {
	LogLevel string     `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *AppConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds the listen address.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns the listen address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// TopologyConfig selects the diagram served.
//
// An empty Path serves the embedded reference topology. Watch reloads Path
// whenever it changes on disk. DeviceConfig seeds the divider selections from
// a device TOML. Width and Height size the first frame; zero means the
// topology canvas.
type TopologyConfig struct {
	Path         string  `yaml:"path"`
	Watch        bool    `yaml:"watch"`
	DeviceConfig string  `yaml:"device_config"`
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
}

// Validate validates the topology configuration.
func (c *TopologyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Watch, validation.When(c.Watch && c.Path == "", validation.Empty.Error("requires topology.path"))),
		validation.Field(&c.Width, validation.Min(0.0)),
		validation.Field(&c.Height, validation.Min(0.0)),
	)
}

// CacheConfig selects the artifact cache behind /diagram.* exports.
type CacheConfig struct {
	Backend  string `yaml:"backend"`
	Dir      string `yaml:"dir"`
	RedisURL string `yaml:"redis_url"`
	Prefix   string `yaml:"prefix"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(CacheNone, CacheFile, CacheRedis)),
		validation.Field(&c.Dir, validation.When(c.Backend == CacheFile, validation.Required)),
		validation.Field(&c.RedisURL, validation.When(c.Backend == CacheRedis, validation.Required)),
	)
}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel: "info",
			HTTP: HTTPConfig{
				Host: "127.0.0.1",
				Port: 8480,
			},
		},
		Cache: CacheConfig{
			Backend: CacheNone,
		},
	}
}
