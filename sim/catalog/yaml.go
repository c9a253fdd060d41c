// Package catalog loads catalog tables and the historical sales stream from
// YAML, CSV or Postgres. Loaders only parse; every cross-reference check is
// done by sim.NewCatalog and sim.NewSimulator.
package catalog

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/supply-sim/sim"
)

// File is the on-disk layout of a YAML catalog.
type File struct {
	Products   []sim.Product   `yaml:"products"`
	Suppliers  []sim.Supplier  `yaml:"suppliers"`
	Warehouses []sim.Warehouse `yaml:"warehouses"`
}

// LoadYAML reads a catalog file strictly: unknown keys are errors, so a typo
// never silently becomes a zero value.
func LoadYAML(path string) (*sim.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML is LoadYAML over in-memory bytes.
func ParseYAML(data []byte) (*sim.Catalog, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return sim.NewCatalog(f.Products, f.Suppliers, f.Warehouses)
}
