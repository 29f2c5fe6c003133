// Package logfields holds the canonical slog field names used across sitebuilder.
package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyURL        = "url"
	KeyLang       = "lang"
	KeyStage      = "stage"
	KeyChange     = "change"
	KeyCategory   = "category"
	KeyPath       = "path"
	KeyLoader     = "loader"
	KeyPages      = "pages"
	KeyDurationMS = "duration_ms"
	KeyBuildID    = "build_id"
	KeyError      = "error"
)

func URL(u string) slog.Attr       { return slog.String(KeyURL, u) }
func Lang(l string) slog.Attr      { return slog.String(KeyLang, l) }
func Stage(name string) slog.Attr  { return slog.String(KeyStage, name) }
func Change(kind string) slog.Attr { return slog.String(KeyChange, kind) }
func Category(c string) slog.Attr  { return slog.String(KeyCategory, c) }
func Path(p string) slog.Attr      { return slog.String(KeyPath, p) }
func Loader(name string) slog.Attr { return slog.String(KeyLoader, name) }
func Pages(n int) slog.Attr        { return slog.Int(KeyPages, n) }
func BuildID(id string) slog.Attr  { return slog.String(KeyBuildID, id) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
