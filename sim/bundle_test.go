package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadStrategyBundle_ValidYAML(t *testing.T) {
	yaml := `
strategy: reorder-point
reorder:
  order_multiplier: 1.5
  respect_case_pack: false
agent:
  model: gpt-4o
  max_calls: 3
`
	bundle, err := LoadStrategyBundle(writeTempYAML(t, yaml))
	require.NoError(t, err)

	assert.Equal(t, "reorder-point", bundle.Strategy)
	require.NotNil(t, bundle.Reorder.OrderMultiplier)
	assert.Equal(t, 1.5, *bundle.Reorder.OrderMultiplier)
	require.NotNil(t, bundle.Reorder.RespectCasePack)
	assert.False(t, *bundle.Reorder.RespectCasePack)
	assert.Equal(t, "gpt-4o", bundle.Agent.Model)
	require.NotNil(t, bundle.Agent.MaxCalls)
	assert.Equal(t, 3, *bundle.Agent.MaxCalls)
	assert.NoError(t, bundle.Validate())
}

func TestLoadStrategyBundle_ZeroValueIsDistinctFromUnset(t *testing.T) {
	// GIVEN a bundle that sets max_calls to 0 and leaves the multiplier unset
	bundle, err := LoadStrategyBundle(writeTempYAML(t, "agent:\n  max_calls: 0\n"))
	require.NoError(t, err)

	// THEN zero is preserved and unset stays nil
	require.NotNil(t, bundle.Agent.MaxCalls)
	assert.Equal(t, 0, *bundle.Agent.MaxCalls)
	assert.Nil(t, bundle.Reorder.OrderMultiplier)
}

func TestLoadStrategyBundle_UnknownField_Rejected(t *testing.T) {
	_, err := LoadStrategyBundle(writeTempYAML(t, "reorder:\n  order_multiplyer: 2\n"))
	assert.Error(t, err)
}

func TestLoadStrategyBundle_MissingFile(t *testing.T) {
	_, err := LoadStrategyBundle(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestStrategyBundle_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bundle  StrategyBundle
		wantErr bool
	}{
		{name: "empty", bundle: StrategyBundle{}},
		{name: "noop", bundle: StrategyBundle{Strategy: "noop"}},
		{name: "unknown strategy", bundle: StrategyBundle{Strategy: "magic"}, wantErr: true},
		{name: "zero multiplier", bundle: StrategyBundle{Reorder: ReorderConfig{OrderMultiplier: float64Ptr(0)}}, wantErr: true},
		{name: "negative max calls", bundle: StrategyBundle{Agent: AgentConfig{MaxCalls: intPtr(-1)}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bundle.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
