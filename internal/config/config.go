package config

import (
	"fmt"
	"net/url"

	"github.com/spf13/viper"
	"github.com/varoOP/kioskcache/internal/domain"
)

// SetDefaults registers the default values with Viper
func SetDefaults() {
	viper.SetDefault("generation", "je-kiosk-v1")
	viper.SetDefault("shell_files", domain.DefaultShellFiles)
	viper.SetDefault("content_hosts", domain.DefaultContentHosts)
	viper.SetDefault("listen_addr", "127.0.0.1:8080")
	viper.SetDefault("database_dir", ".")
	viper.SetDefault("fetch_timeout", 0)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "console")
}

// Load loads configuration from multiple sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (KIOSK_*)
func Load() (*domain.Config, error) {
	cfg := &domain.Config{}

	cfg.Generation = viper.GetString("generation")
	cfg.ShellFiles = viper.GetStringSlice("shell_files")
	cfg.Origin = viper.GetString("origin")
	cfg.ContentHosts = viper.GetStringSlice("content_hosts")
	cfg.ContentEndpoint = viper.GetString("content_endpoint")
	cfg.ListenAddr = viper.GetString("listen_addr")
	cfg.DatabaseDir = viper.GetString("database_dir")
	cfg.FetchTimeout = viper.GetDuration("fetch_timeout")
	cfg.ShellManifest = viper.GetString("shell_manifest")
	cfg.DiscordWebhookURL = viper.GetString("discord_webhook_url")
	cfg.LogLevel = viper.GetString("log_level")
	cfg.LogFormat = viper.GetString("log_format")

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the fields every command relies on
func Validate(cfg *domain.Config) error {
	if cfg.Origin == "" {
		return fmt.Errorf("origin is required (set via config.yaml or KIOSK_ORIGIN environment variable)")
	}
	u, err := url.Parse(cfg.Origin)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("origin must be an absolute URL, got %q", cfg.Origin)
	}

	// A manifest supplies generation and shell files itself
	if cfg.ShellManifest == "" {
		if cfg.Generation == "" {
			return fmt.Errorf("generation is required")
		}
		if len(cfg.ShellFiles) == 0 {
			return fmt.Errorf("shell_files must list at least one file")
		}
	}

	if cfg.ContentEndpoint != "" {
		u, err := url.Parse(cfg.ContentEndpoint)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("content_endpoint must be an absolute URL, got %q", cfg.ContentEndpoint)
		}
	}

	if cfg.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must not be negative")
	}

	return nil
}

// ApplyManifest overrides generation and shell files with the manifest's
func ApplyManifest(cfg *domain.Config, m *domain.Manifest) {
	cfg.Generation = m.Generation
	cfg.ShellFiles = append([]string(nil), m.ShellFiles...)
}
