package stock_health

import (
	"context"
	"math"
)

// foldStock merges stock rows that share a product code, in first-seen order.
// Quantities are summed; the first row supplies name and brand, and the first
// labelled row supplies the department. Rows without a code or name are dropped.
func foldStock(stock []NormalizedRow) []NormalizedRow {
	pos := make(map[string]int, len(stock))
	out := make([]NormalizedRow, 0, len(stock))
	for _, row := range stock {
		if row.ProductCode == "" || row.ProductName == "" {
			continue
		}
		i, ok := pos[row.ProductCode]
		if !ok {
			pos[row.ProductCode] = len(out)
			out = append(out, row)
			continue
		}
		out[i].CurrentStock += row.CurrentStock
		if !hasDepartment(out[i].Department) && hasDepartment(row.Department) {
			out[i].Department = row.Department
		}
	}
	return out
}

// Classify produces one ClassifiedItem per product code in an outlet's stock.
// Repeated codes are folded into one item; rows without a code or a name are
// skipped. Departments missing from a row are inferred from the outlet's own
// labelled rows.
func Classify(outlet OutletID, stock, sales []NormalizedRow, s Settings) []ClassifiedItem {
	calc := NewInventoryCalculator(s)

	salesByCode := make(map[string]float64, len(sales))
	for _, row := range sales {
		if row.ProductCode == "" {
			continue
		}
		salesByCode[row.ProductCode] += row.SalesQuantity
	}

	var index *DepartmentIndex
	products := foldStock(stock)
	items := make([]ClassifiedItem, 0, len(products))
	for _, row := range products {
		item := ClassifiedItem{
			OutletID:    outlet,
			ProductCode: row.ProductCode,
			ProductName: row.ProductName,
			Department:  row.Department,
			Brand:       row.Brand,
		}
		if item.Brand == "" {
			item.Brand = NoBrand
		}
		if !hasDepartment(row.Department) {
			if index == nil {
				index = BuildDepartmentIndex(stock)
			}
			item.Department = index.Infer(row.ProductName)
			item.DepartmentInferred = true
		}

		currentStock := int(math.Ceil(row.CurrentStock))
		totalSales := int(math.Round(salesByCode[row.ProductCode]))
		item.InventoryMetrics = calc.Calculate(currentStock, totalSales)

		items = append(items, item)
	}

	return items
}

// ClassifyAll classifies every outlet with stock rows, in input order.
func ClassifyAll(ctx context.Context, outlets []OutletRows, s Settings) ([]ClassifiedItem, error) {
	var items []ClassifiedItem
	for _, o := range outlets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(o.Stock) == 0 {
			continue
		}
		items = append(items, Classify(o.Outlet, o.Stock, o.Sales, s)...)
	}
	return items, nil
}
