package stock_health

func centroRows() OutletRows {
	return OutletRows{
		Outlet: OutletCentro,
		Stock: []NormalizedRow{
			{ProductCode: "A1", ProductName: "Guante latex mediano", CurrentStock: 100, Department: "Quirurgico", Brand: "Acme"},
			{ProductCode: "B2", ProductName: "Venda elastica", CurrentStock: 500, Brand: NoBrand},
			{ProductCode: "C3", ProductName: "Guante nitrilo", CurrentStock: 10, Department: NoDepartment, Brand: NoBrand},
			{ProductCode: "E5", ProductName: "", CurrentStock: 3},
		},
		Sales: []NormalizedRow{
			{ProductCode: "A1", SalesQuantity: 60},
			{ProductCode: "A1", SalesQuantity: 60},
			{ProductCode: "B2", SalesQuantity: 60},
			{ProductCode: "Z9", SalesQuantity: 40},
		},
		HasSales: true,
	}
}

func norteRows() OutletRows {
	return OutletRows{
		Outlet: OutletNorte,
		Stock: []NormalizedRow{
			{ProductCode: "A1", ProductName: "GUANTE LATEX M", CurrentStock: 20, Department: "Quirurgico", Brand: "Acme"},
			{ProductCode: "D4", ProductName: "Jeringa 5ml", CurrentStock: 5, Department: "Inyectables", Brand: "Medix"},
		},
		Sales: []NormalizedRow{
			{ProductCode: "A1", SalesQuantity: 30},
		},
		HasSales: true,
	}
}

func allRows() []OutletRows {
	return []OutletRows{centroRows(), norteRows()}
}

func byCode[T any](items []T, code func(T) string) map[string]T {
	out := make(map[string]T, len(items))
	for _, item := range items {
		out[code(item)] = item
	}
	return out
}

func classifiedByCode(items []ClassifiedItem) map[string]ClassifiedItem {
	return byCode(items, func(i ClassifiedItem) string { return i.ProductCode })
}

func consolidatedByCode(items []ConsolidatedItem) map[string]ConsolidatedItem {
	return byCode(items, func(i ConsolidatedItem) string { return i.ProductCode })
}
