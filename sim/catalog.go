package sim

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// catalogValidate checks struct tags on catalog entities. Decimal fields are
// checked by hand in the Validate methods below.
var catalogValidate = validator.New(validator.WithRequiredStructEnabled())

// DiscountTier is a volume-discount rule: orders of at least MinQuantity units
// pay (1 - Fraction) of the base unit cost.
type DiscountTier struct {
	MinQuantity int64           `yaml:"min_quantity" validate:"gte=0"`
	Fraction    decimal.Decimal `yaml:"discount"`
}

// Product is an immutable catalog row.
type Product struct {
	ID            string          `yaml:"id" validate:"required"`
	UnitCost      decimal.Decimal `yaml:"unit_cost"`
	UnitPrice     decimal.Decimal `yaml:"unit_price"`
	CasePack      int64           `yaml:"case_pack" validate:"gte=0"`
	DiscountTiers []DiscountTier  `yaml:"discount_tiers" validate:"dive"`
	WeightKg      decimal.Decimal `yaml:"weight_kg"`

	// Baseline stocking policy. Initial on-hand is
	// BaseDemandDaily * SupplyDaysTarget * InitialInventoryMultiplier.
	BaseDemandDaily  float64 `yaml:"base_demand_daily" validate:"gte=0"`
	SupplyDaysTarget int     `yaml:"supply_days_target" validate:"gte=0"`
	ReorderPoint     int64   `yaml:"reorder_point" validate:"gte=0"`
	SupplierID       string  `yaml:"supplier_id"` // preferred supplier, optional
}

// Validate checks field ranges and that discount tiers are strictly increasing.
func (p Product) Validate() error {
	if err := catalogValidate.Struct(p); err != nil {
		return fmt.Errorf("product %q: %w", p.ID, err)
	}
	if p.UnitCost.IsNegative() || p.UnitPrice.IsNegative() || p.WeightKg.IsNegative() {
		return fmt.Errorf("product %q: unit_cost, unit_price and weight_kg must be non-negative", p.ID)
	}
	for i, tier := range p.DiscountTiers {
		if tier.Fraction.IsNegative() || tier.Fraction.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("product %q: discount tier %d fraction %s outside [0,1)", p.ID, i, tier.Fraction)
		}
		if i > 0 && tier.MinQuantity <= p.DiscountTiers[i-1].MinQuantity {
			return fmt.Errorf("product %q: discount tier thresholds must be strictly increasing (%d after %d)",
				p.ID, tier.MinQuantity, p.DiscountTiers[i-1].MinQuantity)
		}
	}
	return nil
}

// InitialStock returns the starting on-hand units for one warehouse.
func (p Product) InitialStock(multiplier float64) int64 {
	return int64(p.BaseDemandDaily * float64(p.SupplyDaysTarget) * multiplier)
}

// Supplier is an immutable catalog row.
type Supplier struct {
	ID                string          `yaml:"id" validate:"required"`
	LeadTimeDays      int             `yaml:"lead_time_days" validate:"gte=1"`
	LeadTimeStdDev    float64         `yaml:"lead_time_std_dev" validate:"gte=0"`
	Reliability       float64         `yaml:"reliability" validate:"gte=0,lte=1"`
	CostMultiplier    decimal.Decimal `yaml:"cost_multiplier"`
	PaymentTermsDays  int             `yaml:"payment_terms_days" validate:"gte=0"`
	ShippingCostPerKg decimal.Decimal `yaml:"shipping_cost_per_kg"`
}

// Validate checks field ranges. A zero CostMultiplier must be defaulted by
// NewCatalog before this runs.
func (s Supplier) Validate() error {
	if err := catalogValidate.Struct(s); err != nil {
		return fmt.Errorf("supplier %q: %w", s.ID, err)
	}
	if !s.CostMultiplier.IsPositive() {
		return fmt.Errorf("supplier %q: cost_multiplier must be positive, got %s", s.ID, s.CostMultiplier)
	}
	if s.ShippingCostPerKg.IsNegative() {
		return fmt.Errorf("supplier %q: shipping_cost_per_kg must be non-negative", s.ID)
	}
	return nil
}

// Warehouse is an immutable catalog row. Capacity 0 means unlimited.
type Warehouse struct {
	ID                    string           `yaml:"id" validate:"required"`
	Capacity              int64            `yaml:"capacity" validate:"gte=0"`
	ProductCapacity       map[string]int64 `yaml:"product_capacity" validate:"dive,gte=0"`
	HoldingCostPerUnitDay decimal.Decimal  `yaml:"holding_cost_per_unit_day"`
}

// Validate checks field ranges.
func (w Warehouse) Validate() error {
	if err := catalogValidate.Struct(w); err != nil {
		return fmt.Errorf("warehouse %q: %w", w.ID, err)
	}
	if w.HoldingCostPerUnitDay.IsNegative() {
		return fmt.Errorf("warehouse %q: holding_cost_per_unit_day must be non-negative", w.ID)
	}
	return nil
}

// capacityFor returns the per-product cap, or 0 when none is set.
func (w Warehouse) capacityFor(productID string) int64 {
	return w.ProductCapacity[productID]
}

func (p Product) clone() Product {
	p.DiscountTiers = slices.Clone(p.DiscountTiers)
	return p
}

func (w Warehouse) clone() Warehouse {
	w.ProductCapacity = maps.Clone(w.ProductCapacity)
	return w
}

func cloneProducts(in []Product) []Product {
	if in == nil {
		return nil
	}
	out := make([]Product, len(in))
	for i, p := range in {
		out[i] = p.clone()
	}
	return out
}

func cloneWarehouses(in []Warehouse) []Warehouse {
	if in == nil {
		return nil
	}
	out := make([]Warehouse, len(in))
	for i, w := range in {
		out[i] = w.clone()
	}
	return out
}

// Sale is one historical demand transaction. A null UnitPrice means the
// product list price applies; a valid zero is a free sale.
type Sale struct {
	Date        time.Time
	ProductID   string
	WarehouseID string
	Quantity    int64
	UnitPrice   decimal.NullDecimal
}

// Catalog holds the reference tables for a run. It is never mutated after
// NewCatalog returns; accessors return copies.
type Catalog struct {
	products   []Product
	suppliers  []Supplier
	warehouses []Warehouse

	productIdx   map[string]int
	supplierIdx  map[string]int
	warehouseIdx map[string]int
}

// NewCatalog validates the tables and their cross-references.
// Errors wrap ErrInvalidConfig.
func NewCatalog(products []Product, suppliers []Supplier, warehouses []Warehouse) (*Catalog, error) {
	c := &Catalog{
		products:     cloneProducts(products),
		suppliers:    slices.Clone(suppliers),
		warehouses:   cloneWarehouses(warehouses),
		productIdx:   make(map[string]int, len(products)),
		supplierIdx:  make(map[string]int, len(suppliers)),
		warehouseIdx: make(map[string]int, len(warehouses)),
	}
	if len(c.products) == 0 || len(c.warehouses) == 0 {
		return nil, fmt.Errorf("catalog needs at least one product and one warehouse: %w", ErrInvalidConfig)
	}

	for i := range c.suppliers {
		if c.suppliers[i].CostMultiplier.IsZero() {
			c.suppliers[i].CostMultiplier = decimal.NewFromInt(1)
		}
		s := c.suppliers[i]
		if err := s.Validate(); err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		if _, dup := c.supplierIdx[s.ID]; dup {
			return nil, fmt.Errorf("duplicate supplier %q: %w", s.ID, ErrInvalidConfig)
		}
		c.supplierIdx[s.ID] = i
	}
	for i, w := range c.warehouses {
		if err := w.Validate(); err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		if _, dup := c.warehouseIdx[w.ID]; dup {
			return nil, fmt.Errorf("duplicate warehouse %q: %w", w.ID, ErrInvalidConfig)
		}
		c.warehouseIdx[w.ID] = i
	}
	for i, p := range c.products {
		if err := p.Validate(); err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		if _, dup := c.productIdx[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product %q: %w", p.ID, ErrInvalidConfig)
		}
		if p.SupplierID != "" {
			if _, ok := c.supplierIdx[p.SupplierID]; !ok {
				return nil, fmt.Errorf("product %q references unknown supplier %q: %w", p.ID, p.SupplierID, ErrInvalidConfig)
			}
		}
		c.productIdx[p.ID] = i
	}
	for _, w := range c.warehouses {
		for pid := range w.ProductCapacity {
			if _, ok := c.productIdx[pid]; !ok {
				return nil, fmt.Errorf("warehouse %q caps unknown product %q: %w", w.ID, pid, ErrInvalidConfig)
			}
		}
	}
	return c, nil
}

// Product looks up a product by ID.
func (c *Catalog) Product(id string) (Product, bool) {
	i, ok := c.productIdx[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i].clone(), true
}

// Supplier looks up a supplier by ID.
func (c *Catalog) Supplier(id string) (Supplier, bool) {
	i, ok := c.supplierIdx[id]
	if !ok {
		return Supplier{}, false
	}
	return c.suppliers[i], true
}

// Warehouse looks up a warehouse by ID.
func (c *Catalog) Warehouse(id string) (Warehouse, bool) {
	i, ok := c.warehouseIdx[id]
	if !ok {
		return Warehouse{}, false
	}
	return c.warehouses[i].clone(), true
}

// Products returns the products in catalog order.
func (c *Catalog) Products() []Product { return cloneProducts(c.products) }

// Suppliers returns the suppliers in catalog order.
func (c *Catalog) Suppliers() []Supplier { return slices.Clone(c.suppliers) }

// Warehouses returns the warehouses in catalog order.
func (c *Catalog) Warehouses() []Warehouse { return cloneWarehouses(c.warehouses) }

// Positions returns every (product, warehouse) key in a fixed order:
// products in catalog order, warehouses in catalog order within each product.
func (c *Catalog) Positions() []InventoryKey {
	keys := make([]InventoryKey, 0, len(c.products)*len(c.warehouses))
	for _, p := range c.products {
		for _, w := range c.warehouses {
			keys = append(keys, InventoryKey{ProductID: p.ID, WarehouseID: w.ID})
		}
	}
	return keys
}
