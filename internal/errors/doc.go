// Package errors provides the classified error type used across sitebuilder.
//
// Errors carry a category, a severity and a retry strategy so the CLI can pick
// an exit code and collaborators (content loaders) can decide whether to retry.
//
// Example usage:
//
//	err := errors.ValidationError("page is missing url").
//		WithContext("model", "new").
//		WithContext("index", 3).
//		Build()
package errors
