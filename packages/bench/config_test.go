package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{name: "valid", config: Config{Requests: 10, Concurrency: 2}},
		{name: "zero requests", config: Config{Requests: 0, Concurrency: 1}, wantErr: "request count"},
		{name: "negative rate", config: Config{Requests: 1, Rate: -1, Concurrency: 1}, wantErr: "rate"},
		{name: "zero concurrency", config: Config{Requests: 1}, wantErr: "concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseThresholds(t *testing.T) {
	th, err := ParseThresholds("p50<100ms, p90<=200ms,p99<1s,max<2s,errors<1.5%")
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, th.P50)
	assert.Equal(t, 200*time.Millisecond, th.P90)
	assert.Equal(t, time.Second, th.P99)
	assert.Equal(t, 2*time.Second, th.MaxLatency)
	assert.InDelta(t, 0.015, th.ErrorRate, 1e-9)
	assert.True(t, th.HasThresholds())
}

func TestParseThresholds_Empty(t *testing.T) {
	th, err := ParseThresholds("")
	require.NoError(t, err)
	assert.False(t, th.HasThresholds())
}

func TestParseThresholds_Invalid(t *testing.T) {
	for _, input := range []string{"p90", "p95<1s", "p50<soon", "errors<lots", "p50>1s"} {
		_, err := ParseThresholds(input)
		assert.Error(t, err, input)
	}
}

func TestThresholdsEvaluate(t *testing.T) {
	th := Thresholds{P90: 50 * time.Millisecond, ErrorRate: 0.1}
	results := th.Evaluate(&Summary{P90: 80 * time.Millisecond, ErrorRate: 0.05})

	require.Len(t, results, 2)
	assert.Equal(t, "p90", results[0].Name)
	assert.False(t, results[0].Passed)
	assert.Equal(t, "error rate", results[1].Name)
	assert.True(t, results[1].Passed)
}
