package stock_health

import "strings"

// ItemFilter narrows a consolidated view. Zero values match everything.
type ItemFilter struct {
	Classification Classification
	Query          string
}

// Matches reports whether item passes the filter. Query is compared against
// the product code and every product name, ignoring case and accents.
func (f ItemFilter) Matches(item ConsolidatedItem) bool {
	if f.Classification != "" && item.Classification != f.Classification {
		return false
	}
	q := strings.TrimSpace(foldText(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(foldText(item.ProductCode), q) {
		return true
	}
	for _, name := range item.ProductNames {
		if strings.Contains(foldText(name), q) {
			return true
		}
	}
	return false
}

// FilterItems returns the items that pass f, keeping their order.
func FilterItems(items []ConsolidatedItem, f ItemFilter) []ConsolidatedItem {
	out := make([]ConsolidatedItem, 0, len(items))
	for _, item := range items {
		if f.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}

// ConsolidatedMetrics extracts the metrics of a consolidated view.
func ConsolidatedMetrics(items []ConsolidatedItem) []InventoryMetrics {
	out := make([]InventoryMetrics, len(items))
	for i, item := range items {
		out[i] = item.InventoryMetrics
	}
	return out
}
