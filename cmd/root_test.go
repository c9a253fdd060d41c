package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// stripWallTime drops the only nondeterministic line of a printed report.
func stripWallTime(s string) string {
	var keep []string
	for _, line := range strings.Split(s, "\n") {
		if !strings.HasPrefix(line, "Wall time") && !strings.HasPrefix(line, "=== Sweep") {
			keep = append(keep, line)
		}
	}
	return strings.Join(keep, "\n")
}

func TestExecuteRun_WritesArtifacts(t *testing.T) {
	// GIVEN a catalog, a sales file and an output directory
	dir, catalogPath, salesPath := inputFiles(t)
	outDir := filepath.Join(dir, "out")
	var o simOptions
	var so strategyOptions
	c := testCommand(t, &o, &so)
	setFlags(t, c, "catalog", catalogPath, "sales", salesPath,
		"start", "2024-05-01", "end", "2024-05-10", "output-dir", outDir, "trace-level", "decisions")

	// WHEN the run command executes
	var out bytes.Buffer
	require.NoError(t, executeRun(context.Background(), c, &o, &so, &out))

	// THEN the report is printed with every category
	assert.Contains(t, out.String(), "Supply Simulation Report: reorder-point")
	assert.Contains(t, out.String(), "[Financial]")
	assert.Contains(t, out.String(), "[Decisions]")

	// AND every artifact exists
	for _, name := range []string{reportFile, dailyFile, ordersFile, rejectedFile} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}

	// AND the daily CSV has a header plus one row per day
	daily, err := os.ReadFile(filepath.Join(outDir, dailyFile))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(daily)), "\n"), 11)

	// AND the report YAML is a flat mapping of numbers or "undefined"
	raw, err := os.ReadFile(filepath.Join(outDir, reportFile))
	require.NoError(t, err)
	var report struct {
		Strategy string         `yaml:"strategy"`
		Metrics  map[string]any `yaml:"metrics"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &report))
	assert.Equal(t, "reorder-point", report.Strategy)
	assert.Len(t, report.Metrics, 27)
	for name, v := range report.Metrics {
		switch v := v.(type) {
		case int, float64:
		case string:
			assert.Equal(t, "undefined", v, name)
		default:
			t.Errorf("%s: unexpected type %T", name, v)
		}
	}
}

func TestExecuteCompare_WritesComparison(t *testing.T) {
	// GIVEN noop as baseline and reorder-point as candidate
	dir, catalogPath, salesPath := inputFiles(t)
	outDir := filepath.Join(dir, "out")
	var o simOptions
	var baseline, candidate strategyOptions
	c := testCommand(t, &o, &baseline, &candidate)
	setFlags(t, c, "catalog", catalogPath, "sales", salesPath,
		"start", "2024-05-01", "end", "2024-05-10", "output-dir", outDir, "strategy", "noop")

	// WHEN compared
	var out bytes.Buffer
	require.NoError(t, executeCompare(context.Background(), c, &o, &baseline, &candidate, &out))

	// THEN the delta table names both sides
	assert.Contains(t, out.String(), "Comparison: noop (baseline) vs reorder-point (candidate)")

	// AND the comparison CSV has one row per KPI
	raw, err := os.ReadFile(filepath.Join(outDir, comparisonFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 28)
	assert.Equal(t, strings.Join(comparisonHeader, ","), lines[0])

	for _, sub := range []string{"baseline", "candidate"} {
		_, err := os.Stat(filepath.Join(outDir, sub, reportFile))
		assert.NoError(t, err, sub)
	}
}

func TestExecuteSweep_WritesSummary(t *testing.T) {
	dir, catalogPath, salesPath := inputFiles(t)
	outDir := filepath.Join(dir, "out")
	var o simOptions
	var so strategyOptions
	c := testCommand(t, &o, &so)
	setFlags(t, c, "catalog", catalogPath, "sales", salesPath,
		"start", "2024-05-01", "end", "2024-05-10", "output-dir", outDir)

	var out bytes.Buffer
	require.NoError(t, executeSweep(context.Background(), c, &o, &so, []int64{1, 2}, 2, &out))

	assert.Contains(t, out.String(), "over 2 seeds")
	for _, p := range []string{sweepFile, filepath.Join("seed-1", reportFile), filepath.Join("seed-2", reportFile)} {
		_, err := os.Stat(filepath.Join(outDir, p))
		assert.NoError(t, err, p)
	}
}

func TestStrategyFactory(t *testing.T) {
	dir := t.TempDir()
	bundle := writeFile(t, dir, "strategy.yaml", "strategy: noop\n")
	badBundle := writeFile(t, dir, "bad.yaml", "strategy: reorder-point\nreorder:\n  order_multiplier: 0\n")

	tests := []struct {
		name     string
		flags    []string
		wantName string
		wantErr  bool
	}{
		{name: "flag default", wantName: "reorder-point"},
		{name: "bundle names strategy", flags: []string{"strategy-config", bundle}, wantName: "noop"},
		{name: "explicit flag overrides bundle", flags: []string{"strategy-config", bundle, "strategy", "reorder-point"}, wantName: "reorder-point"},
		{name: "unknown name", flags: []string{"strategy", "magic"}, wantErr: true},
		{name: "invalid bundle", flags: []string{"strategy-config", badBundle}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o simOptions
			var so strategyOptions
			c := testCommand(t, &o, &so)
			setFlags(t, c, tt.flags...)

			factory, err := strategyFactory(c, &so)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, factory().Name())
		})
	}
}

func TestStrategyFactory_AgentNeedsAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	var o simOptions
	var so strategyOptions
	c := testCommand(t, &o, &so)
	setFlags(t, c, "strategy", "llm-agent")

	_, err := strategyFactory(c, &so)
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["compare"])
	assert.True(t, names["sweep"])
}
