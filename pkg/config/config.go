package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Gateway   GatewayConfig   `json:"gateway"`
	Store     StoreConfig     `json:"store"`
	Session   SessionConfig   `json:"session,omitzero"`
	Notify    NotifyConfig    `json:"notify"`
	Transport TransportConfig `json:"transport"`
	Logging   LoggingConfig   `json:"logging"`
}

// GatewayConfig configures the coordinator's listener.
type GatewayConfig struct {
	Host string `env:"VECTOCART_GATEWAY_HOST" json:"host"`
	Port int    `env:"VECTOCART_GATEWAY_PORT" json:"port"`
}

// StoreConfig selects where room state lives. Provider "memory" keeps
// everything in-process; "remote" talks to a hosted store over REST.
type StoreConfig struct {
	Provider string `env:"VECTOCART_STORE_PROVIDER" json:"provider"`
	BaseURL  string `env:"VECTOCART_STORE_BASE_URL" json:"base_url,omitempty"`
	APIKey   string `env:"VECTOCART_STORE_API_KEY"  json:"api_key,omitempty"`
}

// SessionConfig configures session resolution. When UserinfoURL is set, the
// token-backed provider is used; otherwise StaticUserID pins the identity,
// and leaving both empty means every request is unauthenticated.
type SessionConfig struct {
	UserinfoURL  string `env:"VECTOCART_SESSION_USERINFO_URL"  json:"userinfo_url,omitempty"`
	StaticUserID string `env:"VECTOCART_SESSION_STATIC_USER_ID" json:"static_user_id,omitempty"`
}

type NotifyConfig struct {
	PollIntervalSeconds int `env:"VECTOCART_NOTIFY_POLL_INTERVAL_SECONDS" json:"poll_interval_seconds"`
}

type TransportConfig struct {
	TimeoutSeconds int `env:"VECTOCART_TRANSPORT_TIMEOUT_SECONDS" json:"timeout_seconds"`
}

type LoggingConfig struct {
	Level string `env:"VECTOCART_LOG_LEVEL" json:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host: "127.0.0.1",
			Port: 18790,
		},
		Store: StoreConfig{
			Provider: "memory",
		},
		Notify: NotifyConfig{
			PollIntervalSeconds: 3,
		},
		Transport: TransportConfig{
			TimeoutSeconds: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetConfigPath returns the config file location, honoring
// VECTOCART_CONFIG_PATH when set.
func GetConfigPath() string {
	if p := os.Getenv("VECTOCART_CONFIG_PATH"); p != "" {
		return expandHome(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "vectocart.json"
	}
	return filepath.Join(home, ".vectocart", "config.json")
}

// LoadConfig reads path, falling back to defaults when the file does not
// exist, then applies VECTOCART_* environment overrides on top.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, cfg.Validate()
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate rejects configurations that cannot start.
func (c *Config) Validate() error {
	switch c.Store.Provider {
	case "memory":
	case "remote":
		if c.Store.BaseURL == "" {
			return fmt.Errorf("store.base_url is required when store.provider is %q", c.Store.Provider)
		}
	default:
		return fmt.Errorf("unknown store provider %q", c.Store.Provider)
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port %d out of range", c.Gateway.Port)
	}
	if c.Notify.PollIntervalSeconds <= 0 {
		c.Notify.PollIntervalSeconds = 3
	}
	if c.Transport.TimeoutSeconds <= 0 {
		c.Transport.TimeoutSeconds = 5
	}
	return nil
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
