package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments made by Normalize.
type NormalizationResult struct{ Warnings []string }

// Normalize canonicalizes enumerated and bounded fields in place.
// Unknown enum values fall back to their default with a warning.
func Normalize(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	if c == nil {
		return res
	}

	c.Languages = normalizeLanguages(c.Languages, res)

	if rb := NormalizeRetryBackoff(string(c.Retry.Backoff)); rb != "" {
		c.Retry.Backoff = rb
	} else {
		res.Warnings = append(res.Warnings, warnUnknown("retry.backoff", string(c.Retry.Backoff), string(RetryBackoffLinear)))
		c.Retry.Backoff = RetryBackoffLinear
	}
	if lvl := NormalizeLogLevel(string(c.Log.Level)); lvl != "" {
		c.Log.Level = lvl
	} else {
		res.Warnings = append(res.Warnings, warnUnknown("log.level", string(c.Log.Level), string(LogLevelInfo)))
		c.Log.Level = LogLevelInfo
	}
	if f := NormalizeLogFormat(string(c.Log.Format)); f != "" {
		c.Log.Format = f
	} else {
		res.Warnings = append(res.Warnings, warnUnknown("log.format", string(c.Log.Format), string(LogFormatText)))
		c.Log.Format = LogFormatText
	}
	if cf := NormalizeChangeFreq(string(c.Sitemap.ChangeFreq)); cf != "" {
		c.Sitemap.ChangeFreq = cf
	} else {
		res.Warnings = append(res.Warnings, warnUnknown("sitemap.change_freq", string(c.Sitemap.ChangeFreq), string(ChangeFreqWeekly)))
		c.Sitemap.ChangeFreq = ChangeFreqWeekly
	}

	if c.Content.Concurrency < 1 {
		res.Warnings = append(res.Warnings, warnChanged("content.concurrency", c.Content.Concurrency, 1))
		c.Content.Concurrency = 1
	}
	c.Site.BaseURL = strings.TrimRight(strings.TrimSpace(c.Site.BaseURL), "/")
	return res
}

func normalizeLanguages(langs []string, res *NormalizationResult) []string {
	seen := make(map[string]bool, len(langs))
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		n := strings.ToLower(strings.TrimSpace(l))
		if n == "" || seen[n] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("dropped language entry '%s'", l))
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
