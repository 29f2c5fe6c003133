package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", stderrors.New("x"), 1},
		{"validation", ValidationError("x").Build(), 2},
		{"model", ModelError("x").Build(), 2},
		{"config", ConfigError("x").Build(), 7},
		{"network", NetworkError("x").Build(), 8},
		{"cache", CacheError("x").Build(), 11},
		{"publish", PublishError("x").Build(), 11},
		{"internal", InternalError("x").Build(), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := ValidationError("page is missing url").
		WithContext("model", "old").
		WithContext("index", 4).
		Build()

	quiet := NewCLIErrorAdapter(false, nil)
	assert.Equal(t, "Error: page is missing url model=old index=4", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Equal(t, err.Error(), verbose.FormatError(err))

	assert.Equal(t, "Error: boom", quiet.FormatError(stderrors.New("boom")))
}
