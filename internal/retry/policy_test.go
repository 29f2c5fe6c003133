package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, config.RetryBackoffLinear, p.Mode)
	assert.Equal(t, time.Second, p.Initial)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
}

// initial > max is clamped.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, config.RetryBackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)

	unknown := NewPolicy("bogus", 0, 0, -1)
	assert.Equal(t, DefaultPolicy(), unknown)
}

func TestFromConfig(t *testing.T) {
	n := 4
	p := FromConfig(config.RetryConfig{Backoff: config.RetryBackoffExponential, InitialDelay: "200ms", MaxDelay: "1s", MaxRetries: &n})
	assert.Equal(t, config.RetryBackoffExponential, p.Mode)
	assert.Equal(t, 200*time.Millisecond, p.Initial)
	assert.Equal(t, time.Second, p.Max)
	assert.Equal(t, 4, p.MaxRetries)
}

func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name   string
		policy Policy
		want   []time.Duration
	}{
		{"fixed", NewPolicy(config.RetryBackoffFixed, 100*ms, 500*ms, 3), []time.Duration{100 * ms, 100 * ms, 100 * ms}},
		{"linear", NewPolicy(config.RetryBackoffLinear, 100*ms, 250*ms, 5), []time.Duration{100 * ms, 200 * ms, 250 * ms, 250 * ms}},
		{"exponential", NewPolicy(config.RetryBackoffExponential, 50*ms, 160*ms, 5), []time.Duration{50 * ms, 100 * ms, 160 * ms, 160 * ms}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.want {
				assert.Equal(t, want, tt.policy.Delay(i+1), "retry %d", i+1)
			}
		})
	}

	p := NewPolicy(config.RetryBackoffExponential, 10*ms, 20*ms, 1)
	assert.Zero(t, p.Delay(0))
	assert.Zero(t, p.Delay(-1))
	assert.Equal(t, 20*ms, p.Delay(64))
}

func TestDelayNeverOverflows(t *testing.T) {
	for _, mode := range []config.RetryBackoffMode{config.RetryBackoffLinear, config.RetryBackoffExponential} {
		p := Policy{Mode: mode, Initial: 30 * time.Second, Max: time.Duration(1<<63 - 1), MaxRetries: 100}
		prev := time.Duration(0)
		for i := 1; i <= 100; i++ {
			d := p.Delay(i)
			require.Positive(t, d, "%s retry %d", mode, i)
			require.GreaterOrEqual(t, d, prev, "%s retry %d", mode, i)
			prev = d
		}
	}

	p := NewPolicy(config.RetryBackoffExponential, 30*time.Second, 24*time.Hour, 5)
	assert.Equal(t, 24*time.Hour, p.Delay(30))
	assert.Equal(t, 30*time.Second<<11, p.Delay(12))
	assert.Equal(t, 24*time.Hour, p.Delay(13))
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Mode: config.RetryBackoffLinear, Max: time.Second, MaxRetries: 1}.Validate())
	assert.Error(t, Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, MaxRetries: 1}.Validate())
	assert.Error(t, Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
	assert.NoError(t, DefaultPolicy().Validate())
}

func TestDoRetriesTransientErrors(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.NetworkError("temporary").Build()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.ContentError("not found").Build()
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsBudget(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.NetworkError("down").Build()
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoHonorsCancellation(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.NetworkError("down").Build()
	})
	assert.True(t, stderrors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}
