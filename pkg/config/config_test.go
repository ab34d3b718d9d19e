package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testConfig struct {
	Addr  string `yaml:"addr"`
	Width int    `yaml:"width"`
}

func (c *testConfig) Validate() error {
	if c.Width <= 0 {
		return errors.New("width must be positive")
	}
	return nil
}

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("CLOCKTREE_TEST_ADDR", ":9090")
	path := write(t, "addr: ${CLOCKTREE_TEST_ADDR}\n")

	cfg := testConfig{Addr: ":8080", Width: 1400}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want env-expanded :9090", cfg.Addr)
	}
	if cfg.Width != 1400 {
		t.Errorf("Width = %d, want default 1400 kept", cfg.Width)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing", filepath.Join(t.TempDir(), "nope.yaml"), "read config file"},
		{"bad yaml", write(t, "addr: [unterminated\n"), "parse config"},
		{"invalid", write(t, "width: -1\n"), "width must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig{Width: 1}
			err := Load(tt.path, &cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadOptional(t *testing.T) {
	cfg := testConfig{Width: 10}
	if err := LoadOptional("", &cfg); err != nil {
		t.Errorf("empty filename: %v", err)
	}
	if err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err != nil {
		t.Errorf("absent file: %v", err)
	}
	bad := testConfig{}
	if err := LoadOptional("", &bad); err == nil {
		t.Error("defaults should still be validated")
	}
	if err := LoadOptional(write(t, "width: 3\n"), &cfg); err != nil || cfg.Width != 3 {
		t.Errorf("present file: width %d, err %v", cfg.Width, err)
	}
}
