package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/supply-sim/sim"
	"github.com/inference-sim/supply-sim/sim/catalog"
	"github.com/inference-sim/supply-sim/sim/strategy"
)

// loadInputs reads the catalog and the sales stream from files or Postgres.
func loadInputs(ctx context.Context, st settings) (*sim.Catalog, []sim.Sale, error) {
	if st.FromDB {
		pool, err := catalog.NewPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		defer pool.Close()

		loader := catalog.NewPostgresLoader(pool)
		cat, err := loader.LoadCatalog(ctx)
		if err != nil {
			return nil, nil, err
		}
		sales, err := loader.LoadSales(ctx, st.Config.StartDate, st.Config.EndDate)
		if err != nil {
			return nil, nil, err
		}
		logrus.Infof("Loaded %d products and %d sales from database", len(cat.Products()), len(sales))
		return cat, sales, nil
	}

	cat, err := catalog.LoadYAML(st.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	if st.SalesPath == "" {
		logrus.Warn("No --sales given; simulating with zero demand")
		return cat, nil, nil
	}
	sales, err := catalog.LoadSalesCSV(st.SalesPath)
	if err != nil {
		return nil, nil, err
	}
	logrus.Infof("Loaded %d products from %s and %d sales from %s",
		len(cat.Products()), st.CatalogPath, len(sales), st.SalesPath)
	return cat, sales, nil
}

// buildSimulator resolves the options, loads inputs and constructs the engine.
func buildSimulator(ctx context.Context, cmd *cobra.Command, o *simOptions) (*sim.Simulator, settings, error) {
	st, err := o.resolve(cmd)
	if err != nil {
		return nil, settings{}, err
	}
	cat, sales, err := loadInputs(ctx, st)
	if err != nil {
		return nil, settings{}, err
	}
	s, err := sim.NewSimulator(cat, sales, st.Config)
	if err != nil {
		return nil, settings{}, err
	}
	return s, st, nil
}

// strategyFactory resolves a strategy bundle once and returns a constructor
// for fresh instances. The name flag overrides the bundle's strategy only
// when set explicitly.
func strategyFactory(cmd *cobra.Command, so *strategyOptions) (func() sim.Strategy, error) {
	bundle := sim.StrategyBundle{Strategy: so.name}
	if so.configPath != "" {
		b, err := sim.LoadStrategyBundle(so.configPath)
		if err != nil {
			return nil, err
		}
		if cmd.Flags().Changed(so.flag) || b.Strategy == "" {
			b.Strategy = so.name
		}
		bundle = *b
	}
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("--%s: %w", so.flag, err)
	}

	var advisor strategy.Advisor
	if bundle.Strategy == "llm-agent" {
		a, err := strategy.NewOpenAIAdvisor(os.Getenv("OPENAI_API_KEY"), bundle.Agent.Model)
		if err != nil {
			return nil, err
		}
		advisor = a
	}
	return func() sim.Strategy { return strategy.NewStrategy(bundle, advisor) }, nil
}
