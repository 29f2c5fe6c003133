package config

// Default values applied when the configuration leaves a field empty.
const (
	DefaultModelPath          = "model.json"
	DefaultCacheDir           = ".sitebuilder-cache"
	DefaultOutputDir          = "output"
	DefaultContentConcurrency = 4
	DefaultGitHubAPIURL       = "https://api.github.com"
	DefaultGitHubTimeout      = "30s"
	DefaultRetryInitialDelay  = "1s"
	DefaultRetryMaxDelay      = "30s"
	DefaultRetryMaxRetries    = 2
	DefaultSitemapPriority    = 0.5
	DefaultNotifySubject      = "sitebuilder.changes"
	DefaultNotifyTimeout      = "5s"
)

// DefaultLanguages is used when no language is configured.
var DefaultLanguages = []string{"en"}

func applyDefaults(cfg *Config) {
	if len(cfg.Languages) == 0 {
		cfg.Languages = append([]string(nil), DefaultLanguages...)
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = DefaultModelPath
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = DefaultCacheDir
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = DefaultOutputDir
	}
	if cfg.Content.Concurrency == 0 {
		cfg.Content.Concurrency = DefaultContentConcurrency
	}
	if cfg.GitHub.APIURL == "" {
		cfg.GitHub.APIURL = DefaultGitHubAPIURL
	}
	if cfg.GitHub.Timeout == "" {
		cfg.GitHub.Timeout = DefaultGitHubTimeout
	}
	if cfg.Retry.Backoff == "" {
		cfg.Retry.Backoff = RetryBackoffLinear
	}
	if cfg.Retry.InitialDelay == "" {
		cfg.Retry.InitialDelay = DefaultRetryInitialDelay
	}
	if cfg.Retry.MaxDelay == "" {
		cfg.Retry.MaxDelay = DefaultRetryMaxDelay
	}
	if cfg.Sitemap.ChangeFreq == "" {
		cfg.Sitemap.ChangeFreq = ChangeFreqWeekly
	}
	if cfg.Sitemap.Priority == 0 {
		cfg.Sitemap.Priority = DefaultSitemapPriority
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	if cfg.Notify.Timeout == "" {
		cfg.Notify.Timeout = DefaultNotifyTimeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = LogLevelInfo
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = LogFormatText
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
