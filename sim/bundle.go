package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StrategyBundle holds strategy parameters, loadable from a YAML file.
// Nil pointer fields mean "not set in YAML" and leave the strategy default.
// String fields use empty string for "not set".
type StrategyBundle struct {
	Strategy string        `yaml:"strategy"`
	Reorder  ReorderConfig `yaml:"reorder"`
	Agent    AgentConfig   `yaml:"agent"`
}

// ReorderConfig tunes the reorder-point baseline.
type ReorderConfig struct {
	OrderMultiplier *float64 `yaml:"order_multiplier"` // order = demand × supply days × multiplier
	RespectCasePack *bool    `yaml:"respect_case_pack"`
}

// AgentConfig tunes the LLM agent strategy.
type AgentConfig struct {
	Model    string `yaml:"model"`
	MaxCalls *int   `yaml:"max_calls"`
}

// LoadStrategyBundle reads and strictly parses a YAML strategy configuration file.
func LoadStrategyBundle(path string) (*StrategyBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strategy config: %w", err)
	}
	var bundle StrategyBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing strategy config: %w", err)
	}
	return &bundle, nil
}

// ValidStrategies is the set of recognized strategy names.
// Shared by Validate() and strategy.NewStrategy() to avoid duplication.
var ValidStrategies = map[string]bool{"": true, "noop": true, "reorder-point": true, "llm-agent": true}

// Validate checks the strategy name and parameter ranges.
func (b *StrategyBundle) Validate() error {
	if !ValidStrategies[b.Strategy] {
		return fmt.Errorf("unknown strategy %q", b.Strategy)
	}
	if b.Reorder.OrderMultiplier != nil && *b.Reorder.OrderMultiplier <= 0 {
		return fmt.Errorf("order_multiplier must be positive, got %f", *b.Reorder.OrderMultiplier)
	}
	if b.Agent.MaxCalls != nil && *b.Agent.MaxCalls < 0 {
		return fmt.Errorf("max_calls must be non-negative, got %d", *b.Agent.MaxCalls)
	}
	return nil
}
