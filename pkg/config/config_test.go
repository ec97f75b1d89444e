package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Store.Provider != "memory" {
		t.Errorf("default store provider %q", cfg.Store.Provider)
	}
	if cfg.Notify.PollIntervalSeconds != 3 {
		t.Errorf("default poll interval %d", cfg.Notify.PollIntervalSeconds)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway.Port != 18790 {
		t.Errorf("got port %d", cfg.Gateway.Port)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"gateway":{"host":"0.0.0.0","port":9999},"store":{"provider":"remote","base_url":"https://store.example.com"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway.Port != 9999 || cfg.Gateway.Host != "0.0.0.0" {
		t.Errorf("gateway %+v", cfg.Gateway)
	}
	if cfg.Store.Provider != "remote" || cfg.Store.BaseURL != "https://store.example.com" {
		t.Errorf("store %+v", cfg.Store)
	}
	// Untouched sections keep their defaults.
	if cfg.Transport.TimeoutSeconds != 5 {
		t.Errorf("transport %+v", cfg.Transport)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"gateway":{"host":"127.0.0.1","port":9999}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VECTOCART_GATEWAY_PORT", "7777")
	t.Setenv("VECTOCART_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway.Port != 7777 {
		t.Errorf("env override lost: port %d", cfg.Gateway.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("env override lost: level %q", cfg.Logging.Level)
	}
}

func TestValidate_RemoteRequiresBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Provider = "remote"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for remote store without base_url")
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Provider = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown provider")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Gateway.Port = 4242

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Gateway.Port != 4242 {
		t.Errorf("got port %d after round trip", loaded.Gateway.Port)
	}
}
