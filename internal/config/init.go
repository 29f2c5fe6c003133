package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// Init writes an example configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	example := Config{
		Languages: []string{"en", "ru"},
		Site:      SiteConfig{Title: "My Site", BaseURL: "https://example.com"},
		Model:     ModelConfig{Path: "model.json"},
		Cache:     CacheConfig{Dir: ".sitebuilder-cache"},
		Output:    OutputConfig{Dir: "output", Clean: true},
		Publish:   PublishConfig{Destination: "public"},
		Content:   ContentConfig{Concurrency: DefaultContentConcurrency, LocalRoot: "content"},
		GitHub:    GitHubConfig{Token: "${GITHUB_TOKEN}"},
		Retry:     RetryConfig{Backoff: RetryBackoffExponential, InitialDelay: "1s", MaxDelay: "30s"},
		History:   HistoryConfig{Path: ".sitebuilder-cache/history.db"},
		Watch:     WatchConfig{Refresh: "1h"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create config directory").
			WithContext("path", configPath).Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
