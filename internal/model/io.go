package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// Parse decodes a JSON array of page objects.
//
// Parse does not check urls; that is the merge engine's job.
func Parse(data []byte) ([]Page, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []Page{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapError(err, errors.CategoryModel, "model is not a JSON array").Fatal().Build()
	}

	pages := make([]Page, 0, len(raw))
	for i, item := range raw {
		var fields map[string]any
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			return nil, errors.ModelError("model entry is not an object").
				WithContext("index", i).
				WithCause(err).
				Build()
		}
		pages = append(pages, Page(fields))
	}
	return pages, nil
}

// Load reads and parses the model file at path.
func Load(path string) ([]Page, error) {
	// #nosec G304 - path comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryModel, "failed to read model").
			Fatal().
			WithContext("path", path).
			Build()
	}
	pages, err := Parse(data)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("path", path)
		}
		return nil, err
	}
	return pages, nil
}

// Marshal encodes pages as an indented JSON array. Object keys come out sorted.
func Marshal(pages []Page) ([]byte, error) {
	if pages == nil {
		pages = []Page{}
	}
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal model: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes pages to path atomically (temp file in the same directory, then rename).
func Save(path string, pages []Page) error {
	data, err := Marshal(pages)
	if err != nil {
		return errors.WrapError(err, errors.CategoryModel, "failed to encode model").Build()
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to path through a temporary sibling file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create directory").WithContext("path", dir).Build()
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create temp file").WithContext("path", path).Build()
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.WrapError(err, errors.CategoryFileSystem, "write temp file").WithContext("path", path).Build()
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.WrapError(err, errors.CategoryFileSystem, "close temp file").WithContext("path", path).Build()
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.WrapError(err, errors.CategoryFileSystem, "replace file").WithContext("path", path).Build()
	}
	return nil
}
