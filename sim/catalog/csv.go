package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/inference-sim/supply-sim/sim"
)

// salesHeader is the required header of a sales CSV. unit_price may be left
// empty to use the product's list price.
var salesHeader = []string{"date", "product_id", "warehouse_id", "quantity", "unit_price"}

// LoadSalesCSV loads sales transactions from a CSV file, keeping file order.
func LoadSalesCSV(filename string) ([]sim.Sale, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales file %s: %w", filename, err)
	}
	defer file.Close()
	return ReadSalesCSV(file)
}

// ReadSalesCSV parses sales transactions from r.
func ReadSalesCSV(r io.Reader) ([]sim.Sale, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(salesHeader)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read sales CSV header: %w", err)
	}
	if !validateHeader(header, salesHeader) {
		return nil, fmt.Errorf("sales CSV header mismatch. Expected: %v, Got: %v", salesHeader, header)
	}

	var sales []sim.Sale
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sales CSV row %d: %w", row, err)
		}
		sale, err := parseSale(record)
		if err != nil {
			return nil, fmt.Errorf("sales CSV row %d: %w", row, err)
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func parseSale(record []string) (sim.Sale, error) {
	date, err := sim.ParseDay(strings.TrimSpace(record[0]))
	if err != nil {
		return sim.Sale{}, fmt.Errorf("invalid date %q: %w", record[0], err)
	}
	qty, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
	if err != nil {
		return sim.Sale{}, fmt.Errorf("invalid quantity %q: %w", record[3], err)
	}
	sale := sim.Sale{
		Date:        date,
		ProductID:   strings.TrimSpace(record[1]),
		WarehouseID: strings.TrimSpace(record[2]),
		Quantity:    qty,
	}
	if price := strings.TrimSpace(record[4]); price != "" {
		d, err := decimal.NewFromString(price)
		if err != nil {
			return sim.Sale{}, fmt.Errorf("invalid unit_price %q: %w", price, err)
		}
		sale.UnitPrice = decimal.NewNullDecimal(d)
	}
	return sale, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(strings.TrimPrefix(actual[i], "\ufeff"))) != col {
			return false
		}
	}
	return true
}
