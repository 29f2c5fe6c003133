// Package config loads sitebuilder configuration from YAML or TOML files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// Config is the complete build configuration.
type Config struct {
	Languages []string      `yaml:"languages" toml:"languages"`
	Site      SiteConfig    `yaml:"site" toml:"site"`
	Model     ModelConfig   `yaml:"model" toml:"model"`
	Cache     CacheConfig   `yaml:"cache" toml:"cache"`
	Output    OutputConfig  `yaml:"output" toml:"output"`
	Publish   PublishConfig `yaml:"publish" toml:"publish"`
	Sitemap   SitemapConfig `yaml:"sitemap" toml:"sitemap"`
	Content   ContentConfig `yaml:"content" toml:"content"`
	GitHub    GitHubConfig  `yaml:"github" toml:"github"`
	Retry     RetryConfig   `yaml:"retry" toml:"retry"`
	Metrics   MetricsConfig `yaml:"metrics" toml:"metrics"`
	Log       LogConfig     `yaml:"log" toml:"log"`
	History   HistoryConfig `yaml:"history" toml:"history"`
	Notify    NotifyConfig  `yaml:"notify" toml:"notify"`
	Watch     WatchConfig   `yaml:"watch" toml:"watch"`
}

// SiteConfig describes the published site.
type SiteConfig struct {
	Title   string `yaml:"title,omitempty" toml:"title,omitempty"`
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

// ModelConfig points at the authored page model.
type ModelConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// CacheConfig holds the cache directory. It replaces any process-wide default:
// every component that needs the cache receives this value explicitly.
type CacheConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// OutputConfig is where a build writes its artifacts.
type OutputConfig struct {
	Dir   string `yaml:"dir" toml:"dir"`
	Clean bool   `yaml:"clean" toml:"clean"`
}

// PublishConfig is the final destination of the output tree. Empty disables publishing.
type PublishConfig struct {
	Destination string `yaml:"destination,omitempty" toml:"destination,omitempty"`
}

// SitemapConfig controls sitemap.xml emission.
type SitemapConfig struct {
	Enabled    *bool      `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	ChangeFreq ChangeFreq `yaml:"change_freq,omitempty" toml:"change_freq,omitempty"`
	Priority   float64    `yaml:"priority,omitempty" toml:"priority,omitempty"`
}

// IsEnabled reports whether the sitemap should be written (default true).
func (s SitemapConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// ContentConfig controls content loading.
type ContentConfig struct {
	Concurrency int    `yaml:"concurrency,omitempty" toml:"concurrency,omitempty"`
	LocalRoot   string `yaml:"local_root,omitempty" toml:"local_root,omitempty"`
}

// GitHubConfig configures the GitHub content loader.
type GitHubConfig struct {
	Token   string `yaml:"token,omitempty" toml:"token,omitempty"`
	APIURL  string `yaml:"api_url,omitempty" toml:"api_url,omitempty"`
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// RetryConfig configures retries of transient content fetch failures.
type RetryConfig struct {
	Backoff      RetryBackoffMode `yaml:"backoff,omitempty" toml:"backoff,omitempty"`
	InitialDelay string           `yaml:"initial_delay,omitempty" toml:"initial_delay,omitempty"`
	MaxDelay     string           `yaml:"max_delay,omitempty" toml:"max_delay,omitempty"`
	MaxRetries   *int             `yaml:"max_retries,omitempty" toml:"max_retries,omitempty"`
}

// Retries returns the configured retry count, or DefaultRetryMaxRetries when unset.
func (r RetryConfig) Retries() int {
	if r.MaxRetries == nil {
		return DefaultRetryMaxRetries
	}
	return *r.MaxRetries
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" toml:"textfile,omitempty"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  LogLevel  `yaml:"level,omitempty" toml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty" toml:"format,omitempty"`
}

// HistoryConfig enables the SQLite build history. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`
}

// NotifyConfig publishes change notifications to NATS after each build that
// changed something. An empty URL disables it.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty" toml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty" toml:"subject,omitempty"`
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// Enabled reports whether a NATS URL is configured.
func (n NotifyConfig) Enabled() bool { return n.NATSURL != "" }

// WatchConfig tunes the watch command.
type WatchConfig struct {
	// Refresh schedules a rebuild at this interval in addition to file
	// events, so remote content changes are picked up. Empty disables it.
	Refresh string `yaml:"refresh,omitempty" toml:"refresh,omitempty"`
}

// Load reads the configuration at configPath. Relative paths inside the file
// are resolved against the directory of the file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	// #nosec G304 - config path is user provided on purpose
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithContext("path", configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().WithContext("path", configPath).Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))), formatFor(configPath))
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(configPath))

	res := Normalize(cfg)
	for _, w := range res.Warnings {
		slog.Warn("Config normalized", "detail", w)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format is a config file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes data and applies defaults. It does not validate.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config").
			Fatal().WithContext("format", string(format)).Build()
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func (c *Config) resolvePaths(base string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	resolve(&c.Model.Path)
	resolve(&c.Cache.Dir)
	resolve(&c.Output.Dir)
	resolve(&c.Publish.Destination)
	resolve(&c.Content.LocalRoot)
	resolve(&c.Metrics.Textfile)
	resolve(&c.History.Path)
}

// loadEnvFiles loads .env then .env.local from dir. Existing variables win.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", path)
	}
}

// Summary is a short description for logs.
func (c *Config) Summary() string {
	return fmt.Sprintf("languages=%v model=%s cache=%s output=%s", c.Languages, c.Model.Path, c.Cache.Dir, c.Output.Dir)
}
