package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.ObserveStageDuration("merge", time.Second)
		r.ObserveBuildDuration(time.Second)
		r.IncStageResult("merge", ResultFatal)
		r.IncBuildOutcome(BuildOutcomeCanceled)
		r.AddPageChanges("modified", 2)
		r.ObserveContentFetch("local", time.Millisecond, true)
		r.SetContentConcurrency(2)
	})
}

var _ Recorder = (*PrometheusRecorder)(nil)
