package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringWithoutBuildInfo(t *testing.T) {
	assert.Equal(t, Version, String())
}

func TestStringWithBuildInfo(t *testing.T) {
	oldVersion, oldCommit, oldTime := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldTime })

	Version, GitCommit, BuildTime = "v1.2.3", "abc123", "2026-01-02"
	assert.Equal(t, "v1.2.3 (commit abc123, built 2026-01-02)", String())
}
