package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Store     StoreConfig
	Entity    EntityConfig
	Assistant AssistantConfig
	UI        UIConfig
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Mode    string // "sqlite" or "remote"
	Path    string // sqlite database path
	BaseURL string // remote API base URL
	APIKey  string // remote API bearer token
}

// EntityConfig scopes the client to one business entity.
type EntityConfig struct {
	ID       string
	TenantID string
}

// AssistantConfig holds category-suggestion provider settings.
type AssistantConfig struct {
	APIKeyEnv string
	APIKey    string
	Model     string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat         string
	CurrencySymbol     string
	Timezone           string
	ShowRunningBalance bool
}

// Load reads configuration from file and env. Env var overrides use prefix LEDGERVIEW_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("store.mode", "sqlite")
	v.SetDefault("store.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "ledgerview", "ledgerview.db"))
	v.SetDefault("store.base_url", "")
	v.SetDefault("store.api_key", "")
	v.SetDefault("entity.id", "default")
	v.SetDefault("entity.tenant_id", "default")
	v.SetDefault("assistant.api_key_env", "GEMINI_API_KEY")
	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.model", "gemini-3-flash-preview")
	v.SetDefault("ui.date_format", "2006-01-02")
	v.SetDefault("ui.currency_symbol", "$")
	v.SetDefault("ui.timezone", "UTC")
	v.SetDefault("ui.show_running_balance", true)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("LEDGERVIEW_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "ledgerview"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LEDGERVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory
// if needed. Used by the settings view for non-sensitive preferences; the
// assistant key is stored in plain text, so env vars are preferred.
func Save(cfg Config) error {
	path := os.Getenv("LEDGERVIEW_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "ledgerview", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("store.mode", cfg.Store.Mode)
	v.Set("store.path", cfg.Store.Path)
	v.Set("store.base_url", cfg.Store.BaseURL)
	v.Set("store.api_key", cfg.Store.APIKey)
	v.Set("entity.id", cfg.Entity.ID)
	v.Set("entity.tenant_id", cfg.Entity.TenantID)
	v.Set("assistant.api_key_env", cfg.Assistant.APIKeyEnv)
	v.Set("assistant.api_key", cfg.Assistant.APIKey)
	v.Set("assistant.model", cfg.Assistant.Model)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)
	v.Set("ui.timezone", cfg.UI.Timezone)
	v.Set("ui.show_running_balance", cfg.UI.ShowRunningBalance)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
