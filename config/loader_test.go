package config

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	RegistryAddr string `mapstructure:"registry_addr"`
	ServiceName  string `mapstructure:"service_name"`
	ServicePort  int    `mapstructure:"service_port"`
	Ephemeral    bool   `mapstructure:"ephemeral"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
registry_addr: "127.0.0.1:8848"
service_name: "billing"
service_port: 8080
ephemeral: true
`)

	var cfg testConfig
	if err := LoadConfig("billing", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.RegistryAddr != "127.0.0.1:8848" {
		t.Errorf("unexpected registry_addr: %q", cfg.RegistryAddr)
	}
	if cfg.ServiceName != "billing" {
		t.Errorf("unexpected service_name: %q", cfg.ServiceName)
	}
	if cfg.ServicePort != 8080 {
		t.Errorf("unexpected service_port: %d", cfg.ServicePort)
	}
	if !cfg.Ephemeral {
		t.Error("expected ephemeral true")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
registry_addr: "127.0.0.1:8848"
service_name: "billing"
`)

	t.Setenv("BILLING_SERVICE_NAME", "billing-v2")

	var cfg testConfig
	if err := LoadConfig("billing", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ServiceName != "billing-v2" {
		t.Errorf("expected env override billing-v2, got %q", cfg.ServiceName)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yml", `
registry_addr: "127.0.0.1:8848"
`)
	envPath := writeFile(t, dir, ".env", "BILLING_SERVICE_PORT=9090\n")
	t.Cleanup(func() { os.Unsetenv("BILLING_SERVICE_PORT") })

	var cfg testConfig
	err := LoadConfig("billing", &cfg, WithConfigFile(cfgPath), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ServicePort != 9090 {
		t.Errorf("expected port 9090 from .env, got %d", cfg.ServicePort)
	}
}

func TestLoadConfigBadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "::not yaml::")

	var cfg testConfig
	if err := LoadConfig("billing", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}
