package catalog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inference-sim/supply-sim/sim"
)

// NewPool connects to the database named by DATABASE_URL.
func NewPool(ctx context.Context) (*pgxpool.Pool, error) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// Querier is the subset of *pgxpool.Pool the loader needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresLoader reads the catalog tables and sales stream from Postgres.
//
// Expected tables:
//
//	products(product_id, unit_cost, unit_price, case_pack, weight_kg,
//	         base_demand_daily, supply_days_target, reorder_point_units, supplier_id)
//	product_discount_tiers(product_id, min_quantity, discount)
//	suppliers(supplier_id, lead_time_days, lead_time_std_days, reliability,
//	          cost_multiplier, payment_terms_days, shipping_cost_per_kg)
//	warehouses(warehouse_id, capacity_units, holding_cost_per_unit_day)
//	warehouse_product_capacity(warehouse_id, product_id, capacity_units)
//	sales(sale_id, sale_date, product_id, warehouse_id, quantity, unit_price)
type PostgresLoader struct {
	db Querier
}

// NewPostgresLoader creates a loader over db.
func NewPostgresLoader(db Querier) *PostgresLoader {
	return &PostgresLoader{db: db}
}

// LoadCatalog reads every catalog table and validates the result.
func (l *PostgresLoader) LoadCatalog(ctx context.Context) (*sim.Catalog, error) {
	products, err := l.products(ctx)
	if err != nil {
		return nil, err
	}
	suppliers, err := l.suppliers(ctx)
	if err != nil {
		return nil, err
	}
	warehouses, err := l.warehouses(ctx)
	if err != nil {
		return nil, err
	}
	return sim.NewCatalog(products, suppliers, warehouses)
}

func (l *PostgresLoader) products(ctx context.Context) ([]sim.Product, error) {
	rows, err := l.db.Query(ctx, `
		SELECT product_id, unit_cost, unit_price, case_pack, weight_kg,
		       base_demand_daily, supply_days_target, reorder_point_units, supplier_id
		FROM products
		ORDER BY product_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []sim.Product
	idx := make(map[string]int)
	for rows.Next() {
		var p sim.Product
		var supplierID *string
		if err := rows.Scan(&p.ID, &p.UnitCost, &p.UnitPrice, &p.CasePack, &p.WeightKg,
			&p.BaseDemandDaily, &p.SupplyDaysTarget, &p.ReorderPoint, &supplierID); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if supplierID != nil {
			p.SupplierID = *supplierID
		}
		idx[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	tiers, err := l.db.Query(ctx, `
		SELECT product_id, min_quantity, discount
		FROM product_discount_tiers
		ORDER BY product_id, min_quantity
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query discount tiers: %w", err)
	}
	defer tiers.Close()
	for tiers.Next() {
		var productID string
		var tier sim.DiscountTier
		if err := tiers.Scan(&productID, &tier.MinQuantity, &tier.Fraction); err != nil {
			return nil, fmt.Errorf("failed to scan discount tier: %w", err)
		}
		i, ok := idx[productID]
		if !ok {
			return nil, fmt.Errorf("discount tier for unknown product %q: %w", productID, sim.ErrInvalidConfig)
		}
		products[i].DiscountTiers = append(products[i].DiscountTiers, tier)
	}
	if err := tiers.Err(); err != nil {
		return nil, fmt.Errorf("failed to read discount tiers: %w", err)
	}
	return products, nil
}

func (l *PostgresLoader) suppliers(ctx context.Context) ([]sim.Supplier, error) {
	rows, err := l.db.Query(ctx, `
		SELECT supplier_id, lead_time_days, lead_time_std_days, reliability,
		       cost_multiplier, payment_terms_days, shipping_cost_per_kg
		FROM suppliers
		ORDER BY supplier_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []sim.Supplier
	for rows.Next() {
		var s sim.Supplier
		if err := rows.Scan(&s.ID, &s.LeadTimeDays, &s.LeadTimeStdDev, &s.Reliability,
			&s.CostMultiplier, &s.PaymentTermsDays, &s.ShippingCostPerKg); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read suppliers: %w", err)
	}
	return suppliers, nil
}

func (l *PostgresLoader) warehouses(ctx context.Context) ([]sim.Warehouse, error) {
	rows, err := l.db.Query(ctx, `
		SELECT warehouse_id, capacity_units, holding_cost_per_unit_day
		FROM warehouses
		ORDER BY warehouse_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []sim.Warehouse
	idx := make(map[string]int)
	for rows.Next() {
		var w sim.Warehouse
		if err := rows.Scan(&w.ID, &w.Capacity, &w.HoldingCostPerUnitDay); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		idx[w.ID] = len(warehouses)
		warehouses = append(warehouses, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read warehouses: %w", err)
	}

	caps, err := l.db.Query(ctx, `
		SELECT warehouse_id, product_id, capacity_units
		FROM warehouse_product_capacity
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product capacities: %w", err)
	}
	defer caps.Close()
	for caps.Next() {
		var warehouseID, productID string
		var capacity int64
		if err := caps.Scan(&warehouseID, &productID, &capacity); err != nil {
			return nil, fmt.Errorf("failed to scan product capacity: %w", err)
		}
		i, ok := idx[warehouseID]
		if !ok {
			return nil, fmt.Errorf("product capacity for unknown warehouse %q: %w", warehouseID, sim.ErrInvalidConfig)
		}
		if warehouses[i].ProductCapacity == nil {
			warehouses[i].ProductCapacity = make(map[string]int64)
		}
		warehouses[i].ProductCapacity[productID] = capacity
	}
	if err := caps.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product capacities: %w", err)
	}
	return warehouses, nil
}

// LoadSales reads the sales between start and end inclusive, in date then
// sale_id order.
func (l *PostgresLoader) LoadSales(ctx context.Context, start, end time.Time) ([]sim.Sale, error) {
	rows, err := l.db.Query(ctx, `
		SELECT sale_date, product_id, warehouse_id, quantity, unit_price
		FROM sales
		WHERE sale_date BETWEEN $1 AND $2
		ORDER BY sale_date, sale_id
	`, sim.Day(start), sim.Day(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []sim.Sale
	for rows.Next() {
		var s sim.Sale
		if err := rows.Scan(&s.Date, &s.ProductID, &s.WarehouseID, &s.Quantity, &s.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		s.Date = sim.Day(s.Date)
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sales: %w", err)
	}
	return sales, nil
}
