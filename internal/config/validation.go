package config

import (
	"net/url"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// Validate checks a normalized configuration.
func Validate(c *Config) error {
	if len(c.Languages) == 0 {
		return errors.ConfigError("at least one language is required").WithContext("field", "languages").Build()
	}
	for _, lang := range c.Languages {
		if lang == "url" || lang == "view" || lang == "oldUrls" {
			return errors.ConfigError("language code collides with a page field").
				WithContext("field", "languages").WithContext("value", lang).Build()
		}
	}
	if c.Model.Path == "" {
		return errors.ConfigError("model path is required").WithContext("field", "model.path").Build()
	}
	if c.Cache.Dir == "" {
		return errors.ConfigError("cache directory is required").WithContext("field", "cache.dir").Build()
	}
	if c.Output.Dir == "" {
		return errors.ConfigError("output directory is required").WithContext("field", "output.dir").Build()
	}
	if c.Site.BaseURL != "" {
		u, err := url.Parse(c.Site.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.ConfigError("site base_url must be an absolute URL").
				WithContext("field", "site.base_url").WithContext("value", c.Site.BaseURL).Build()
		}
	}
	if c.Sitemap.Priority < 0 || c.Sitemap.Priority > 1 {
		return errors.ConfigError("sitemap priority must be within [0,1]").WithContext("field", "sitemap.priority").Build()
	}
	for field, raw := range map[string]string{
		"retry.initial_delay": c.Retry.InitialDelay,
		"retry.max_delay":     c.Retry.MaxDelay,
		"github.timeout":      c.GitHub.Timeout,
		"notify.timeout":      c.Notify.Timeout,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid duration").
				Fatal().WithContext("field", field).WithContext("value", raw).Build()
		}
	}
	if c.Watch.Refresh != "" {
		d, err := time.ParseDuration(c.Watch.Refresh)
		if err != nil || d <= 0 {
			return errors.ConfigError("watch refresh must be a positive duration").
				WithContext("field", "watch.refresh").WithContext("value", c.Watch.Refresh).Build()
		}
	}
	if c.Retry.Retries() < 0 {
		return errors.ConfigError("retry max_retries cannot be negative").WithContext("field", "retry.max_retries").Build()
	}
	return nil
}

// NotifyTimeout returns the parsed notify.timeout. Call after Validate.
func (c *Config) NotifyTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Notify.Timeout)
	return d
}

// RefreshInterval returns the parsed watch.refresh, zero when unset.
func (c *Config) RefreshInterval() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Refresh)
	return d
}

// Durations returns the parsed retry delays and GitHub timeout. Call after Validate.
func (c *Config) Durations() (initial, maxDelay, timeout time.Duration) {
	initial, _ = time.ParseDuration(c.Retry.InitialDelay)
	maxDelay, _ = time.ParseDuration(c.Retry.MaxDelay)
	timeout, _ = time.ParseDuration(c.GitHub.Timeout)
	return initial, maxDelay, timeout
}
