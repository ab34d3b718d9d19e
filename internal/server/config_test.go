package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/clocktree/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.App.HTTP.Address(); got != "127.0.0.1:8480" {
		t.Errorf("address = %q", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"port zero", func(c *Config) { c.App.HTTP.Port = 0 }, false},
		{"port too large", func(c *Config) { c.App.HTTP.Port = 70000 }, false},
		{"bad log level", func(c *Config) { c.App.LogLevel = "loud" }, false},
		{"watch without path", func(c *Config) { c.Topology.Watch = true }, false},
		{"watch with path", func(c *Config) { c.Topology.Watch, c.Topology.Path = true, "tree.toml" }, true},
		{"negative width", func(c *Config) { c.Topology.Width = -1 }, false},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, false},
		{"file without dir", func(c *Config) { c.Cache.Backend = CacheFile }, false},
		{"file with dir", func(c *Config) { c.Cache.Backend, c.Cache.Dir = CacheFile, "/tmp/c" }, true},
		{"redis without url", func(c *Config) { c.Cache.Backend = CacheRedis }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("CLOCKTREE_REDIS", "redis://localhost:6379/2")
	path := filepath.Join(t.TempDir(), "serve.yaml")
	data := `
app:
  http:
    port: 9000
topology:
  width: 800
cache:
  backend: redis
  redis_url: ${CLOCKTREE_REDIS}
  prefix: "dev:"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := config.LoadOptional(path, cfg); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.App.HTTP.Port != 9000 || cfg.App.HTTP.Host != "127.0.0.1" {
		t.Errorf("http = %+v", cfg.App.HTTP)
	}
	if cfg.Cache.RedisURL != "redis://localhost:6379/2" || cfg.Cache.Prefix != "dev:" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Topology.Width != 800 || cfg.App.LogLevel != "info" {
		t.Errorf("topology = %+v, log level %q", cfg.Topology, cfg.App.LogLevel)
	}
}
