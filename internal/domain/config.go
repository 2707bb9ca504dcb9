package domain

import "time"

// DefaultShellFiles is the asset set the kiosk page needs to boot offline
var DefaultShellFiles = []string{
	"./",
	"./index.html",
	"./styles.css",
	"./app.js",
	"./manifest.webmanifest",
	"./assets/hero.mp4",
	"./assets/icons/icon-192.png",
	"./assets/icons/icon-512.png",
	"./assets/icons/icon-512-maskable.png",
}

// DefaultContentHosts matches the Apps Script endpoint and its CDN.
// Entries starting with a dot match any subdomain.
var DefaultContentHosts = []string{
	"script.google.com",
	".googleusercontent.com",
}

type Config struct {
	Generation        string        `yaml:"generation" mapstructure:"generation"`
	ShellFiles        []string      `yaml:"shell_files" mapstructure:"shell_files"`
	Origin            string        `yaml:"origin" mapstructure:"origin"`
	ContentHosts      []string      `yaml:"content_hosts" mapstructure:"content_hosts"`
	ContentEndpoint   string        `yaml:"content_endpoint" mapstructure:"content_endpoint"`
	ListenAddr        string        `yaml:"listen_addr" mapstructure:"listen_addr"`
	DatabaseDir       string        `yaml:"database_dir" mapstructure:"database_dir"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	ShellManifest     string        `yaml:"shell_manifest" mapstructure:"shell_manifest"`
	DiscordWebhookURL string        `yaml:"discord_webhook_url" mapstructure:"discord_webhook_url"`
	LogLevel          string        `yaml:"log_level" mapstructure:"log_level"`
	LogFormat         string        `yaml:"log_format" mapstructure:"log_format"`
}

// ShellPartition returns the name of the shell partition for the generation
func (c *Config) ShellPartition() string {
	return ShellPartitionName(c.Generation)
}

// RuntimePartition returns the name of the runtime partition for the generation
func (c *Config) RuntimePartition() string {
	return RuntimePartitionName(c.Generation)
}

func ShellPartitionName(generation string) string {
	return generation + "-shell"
}

func RuntimePartitionName(generation string) string {
	return generation + "-runtime"
}
