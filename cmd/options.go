package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inference-sim/supply-sim/sim"
	"github.com/inference-sim/supply-sim/sim/trace"
)

// simOptions holds the flags shared by run, compare and sweep.
type simOptions struct {
	configPath      string  // YAML run file
	catalogPath     string  // catalog YAML
	salesPath       string  // sales CSV
	fromDB          bool    // load catalog and sales from DATABASE_URL
	startDate       string  // first day, YYYY-MM-DD
	endDate         string  // last day, inclusive
	seed            int64   // seed for lead-time sampling
	multiplier      float64 // initial inventory multiplier
	stockoutPenalty bool
	holdingCost     bool
	traceLevel      string
	outputDir       string // artifact directory; empty writes nothing
}

func (o *simOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "YAML run configuration; explicitly set flags override its values")
	f.StringVar(&o.catalogPath, "catalog", "", "Catalog YAML (products, suppliers, warehouses)")
	f.StringVar(&o.salesPath, "sales", "", "Sales CSV (date,product_id,warehouse_id,quantity,unit_price)")
	f.BoolVar(&o.fromDB, "db", false, "Load catalog and sales from the Postgres database in DATABASE_URL")
	f.StringVar(&o.startDate, "start", "", "First simulated day (YYYY-MM-DD)")
	f.StringVar(&o.endDate, "end", "", "Last simulated day, inclusive (YYYY-MM-DD)")
	f.Int64Var(&o.seed, "seed", 42, "Seed for lead-time and reliability sampling")
	f.Float64Var(&o.multiplier, "initial-inventory-multiplier", 1.0, "Scales each product's baseline starting stock")
	f.BoolVar(&o.stockoutPenalty, "stockout-penalty", true, "Record stockout incidents")
	f.BoolVar(&o.holdingCost, "holding-cost", true, "Accrue per-unit-per-day holding cost")
	f.StringVar(&o.traceLevel, "trace-level", string(trace.TraceLevelNone), "Decision trace verbosity (none, decisions)")
	f.StringVar(&o.outputDir, "output-dir", "", "Directory for report and CSV artifacts")
}

// settings is the resolved run configuration: flag defaults, then the YAML
// run file, then flags the user set explicitly.
type settings struct {
	CatalogPath string
	SalesPath   string
	FromDB      bool
	Config      sim.Config
	OutputDir   string
}

func (o *simOptions) resolve(cmd *cobra.Command) (settings, error) {
	if o.configPath != "" {
		rc, err := loadRunConfig(o.configPath)
		if err != nil {
			return settings{}, err
		}
		rc.applyTo(o, cmd.Flags().Changed)
	}

	if o.startDate == "" || o.endDate == "" {
		return settings{}, fmt.Errorf("--start and --end are required (flags or run config)")
	}
	start, err := sim.ParseDay(o.startDate)
	if err != nil {
		return settings{}, fmt.Errorf("invalid --start: %w", err)
	}
	end, err := sim.ParseDay(o.endDate)
	if err != nil {
		return settings{}, fmt.Errorf("invalid --end: %w", err)
	}

	cfg := sim.DefaultConfig(start, end)
	cfg.Seed = o.seed
	cfg.InitialInventoryMultiplier = o.multiplier
	cfg.EnableStockoutPenalty = o.stockoutPenalty
	cfg.EnableHoldingCost = o.holdingCost
	cfg.TraceLevel = trace.TraceLevel(o.traceLevel)
	if err := cfg.Validate(); err != nil {
		return settings{}, err
	}

	if !o.fromDB && o.catalogPath == "" {
		return settings{}, fmt.Errorf("--catalog is required unless --db is set")
	}
	return settings{
		CatalogPath: o.catalogPath,
		SalesPath:   o.salesPath,
		FromDB:      o.fromDB,
		Config:      cfg,
		OutputDir:   o.outputDir,
	}, nil
}

// strategyOptions selects one strategy and its optional YAML bundle.
type strategyOptions struct {
	flag       string // flag name carrying the strategy name
	name       string
	configPath string
}

func (s *strategyOptions) register(cmd *cobra.Command, flag, def, usage string) {
	s.flag = flag
	cmd.Flags().StringVar(&s.name, flag, def, usage+" (noop, reorder-point, llm-agent)")
	cmd.Flags().StringVar(&s.configPath, flag+"-config", "", "YAML parameters for --"+flag)
}
