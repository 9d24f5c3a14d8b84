package stock_health

// orderedSet keeps unique values in first-seen order.
type orderedSet[T comparable] struct {
	items []T
	seen  map[T]struct{}
}

func (s *orderedSet[T]) add(v T) {
	if s.seen == nil {
		s.seen = make(map[T]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet[T]) values() []T {
	return append([]T(nil), s.items...)
}

type productAccumulator struct {
	code          string
	names         orderedSet[string]
	departments   orderedSet[string]
	brands        orderedSet[string]
	outlets       orderedSet[OutletID]
	stockByOutlet map[OutletID]int
	stock         int
	sales         int
}

// Consolidate merges per-outlet items by product code. Totals are summed and the
// tier, excess and suggestions are recomputed from the sums with s. Output keeps
// the order in which codes first appear.
func Consolidate(items []ClassifiedItem, s Settings) []ConsolidatedItem {
	calc := NewInventoryCalculator(s)

	byCode := make(map[string]*productAccumulator)
	var order []*productAccumulator
	for _, item := range items {
		acc, ok := byCode[item.ProductCode]
		if !ok {
			acc = &productAccumulator{
				code:          item.ProductCode,
				stockByOutlet: make(map[OutletID]int),
			}
			byCode[item.ProductCode] = acc
			order = append(order, acc)
		}
		acc.names.add(item.ProductName)
		acc.departments.add(item.Department)
		acc.brands.add(item.Brand)
		acc.outlets.add(item.OutletID)
		acc.stockByOutlet[item.OutletID] += item.CurrentStock
		acc.stock += item.CurrentStock
		acc.sales += item.TotalSales
	}

	out := make([]ConsolidatedItem, 0, len(order))
	for _, acc := range order {
		out = append(out, ConsolidatedItem{
			ProductCode:      acc.code,
			ProductNames:     acc.names.values(),
			Departments:      acc.departments.values(),
			Brands:           acc.brands.values(),
			Outlets:          acc.outlets.values(),
			StockByOutlet:    acc.stockByOutlet,
			InventoryMetrics: calc.Calculate(acc.stock, acc.sales),
		})
	}
	return out
}
