package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunConfig is the optional YAML run file passed with --config.
// Pointer and empty-string fields mean "not set" and leave the flag value.
type RunConfig struct {
	Catalog                    string   `yaml:"catalog"`
	Sales                      string   `yaml:"sales"`
	Database                   *bool    `yaml:"database"`
	StartDate                  string   `yaml:"start_date"`
	EndDate                    string   `yaml:"end_date"`
	Seed                       *int64   `yaml:"seed"`
	InitialInventoryMultiplier *float64 `yaml:"initial_inventory_multiplier"`
	StockoutPenalty            *bool    `yaml:"stockout_penalty"`
	HoldingCost                *bool    `yaml:"holding_cost"`
	TraceLevel                 string   `yaml:"trace_level"`
	OutputDir                  string   `yaml:"output_dir"`
}

// loadRunConfig parses a run file with strict field checking: typos must
// cause errors.
func loadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config %s: %w", path, err)
	}
	var rc RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rc); err != nil {
		return nil, fmt.Errorf("failed to parse run config %s: %w", path, err)
	}
	return &rc, nil
}

// applyTo copies every value set in the file into o, except where the user
// passed the matching flag explicitly. Flags always win.
func (rc *RunConfig) applyTo(o *simOptions, changed func(name string) bool) {
	if rc.Catalog != "" && !changed("catalog") {
		o.catalogPath = rc.Catalog
	}
	if rc.Sales != "" && !changed("sales") {
		o.salesPath = rc.Sales
	}
	if rc.Database != nil && !changed("db") {
		o.fromDB = *rc.Database
	}
	if rc.StartDate != "" && !changed("start") {
		o.startDate = rc.StartDate
	}
	if rc.EndDate != "" && !changed("end") {
		o.endDate = rc.EndDate
	}
	if rc.Seed != nil && !changed("seed") {
		o.seed = *rc.Seed
	}
	if rc.InitialInventoryMultiplier != nil && !changed("initial-inventory-multiplier") {
		o.multiplier = *rc.InitialInventoryMultiplier
	}
	if rc.StockoutPenalty != nil && !changed("stockout-penalty") {
		o.stockoutPenalty = *rc.StockoutPenalty
	}
	if rc.HoldingCost != nil && !changed("holding-cost") {
		o.holdingCost = *rc.HoldingCost
	}
	if rc.TraceLevel != "" && !changed("trace-level") {
		o.traceLevel = rc.TraceLevel
	}
	if rc.OutputDir != "" && !changed("output-dir") {
		o.outputDir = rc.OutputDir
	}
}
