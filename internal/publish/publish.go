// Package publish copies a build output tree to its destination.
package publish

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// Stats counts files handled by a copy.
type Stats struct {
	Copied    int
	Unchanged int
}

// Publish copies src into dst. It is a no-op when dst is empty or resolves to
// src. Files whose size and modification time already match are skipped.
func Publish(ctx context.Context, src, dst string) (Stats, error) {
	if dst == "" {
		return Stats{}, nil
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return Stats{}, errors.WrapError(err, errors.CategoryPublish, "failed to resolve source").WithContext("path", src).Build()
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return Stats{}, errors.WrapError(err, errors.CategoryPublish, "failed to resolve destination").WithContext("path", dst).Build()
	}
	if absSrc == absDst {
		return Stats{}, nil
	}
	var stats Stats
	if err := CopyDir(ctx, absSrc, absDst, &stats); err != nil {
		return stats, errors.WrapError(err, errors.CategoryPublish, "failed to publish output").
			WithContext("source", absSrc).WithContext("destination", absDst).Build()
	}
	return stats, nil
}

// CopyDir recursively copies a directory tree, preserving modes and
// modification times. stats may be nil.
func CopyDir(ctx context.Context, src, dst string, stats *Stats) error {
	if stats == nil {
		stats = &Stats{}
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := CopyDir(ctx, srcPath, dstPath, stats); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		copied, err := copyFile(srcPath, dstPath)
		if err != nil {
			return err
		}
		if copied {
			stats.Copied++
		} else {
			stats.Unchanged++
		}
	}
	return nil
}

// copyFile copies src to dst unless dst already has the same size and mtime.
func copyFile(src, dst string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if dstInfo, err := os.Stat(dst); err == nil &&
		dstInfo.Size() == srcInfo.Size() && dstInfo.ModTime().Equal(srcInfo.ModTime()) {
		return false, nil
	}

	// #nosec G304 - paths come from the walked output tree
	srcFile, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return false, err
	}
	if err := dstFile.Close(); err != nil {
		return false, err
	}
	if err := os.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return false, err
	}
	return true, os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}
