package stock_health

import "context"

// ProjectOutlet reshapes one outlet's items into consolidated form without
// reclassifying: the metrics are the ones computed for that outlet.
func ProjectOutlet(items []ClassifiedItem, outlet OutletID) []ConsolidatedItem {
	out := make([]ConsolidatedItem, 0)
	for _, item := range items {
		if item.OutletID != outlet {
			continue
		}
		metrics := item.InventoryMetrics
		metrics.SuggestedReorder = append([]Suggestion(nil), item.SuggestedReorder...)
		out = append(out, ConsolidatedItem{
			ProductCode:      item.ProductCode,
			ProductNames:     []string{item.ProductName},
			Departments:      []string{item.Department},
			Brands:           []string{item.Brand},
			Outlets:          []OutletID{item.OutletID},
			StockByOutlet:    map[OutletID]int{item.OutletID: item.CurrentStock},
			InventoryMetrics: metrics,
		})
	}
	return out
}

// Reconsolidate returns the consolidated view for the selected outlets.
//
// Selected IDs that have no rows are ignored, and the branch is chosen on the
// outlets that remain:
//
//   - no selection: precomputed is returned untouched;
//   - a selection where no outlet has rows: an empty view;
//   - one outlet: that outlet's items from the unrestricted run are projected
//     as-is (see ProjectOutlet);
//   - several outlets: rows are restricted to the selection and classified and
//     consolidated again, so aggregate tiers reflect only those outlets.
//
// The single-outlet path intentionally reuses the earlier per-outlet tiers.
func Reconsolidate(
	ctx context.Context,
	rows []OutletRows,
	classified []ClassifiedItem,
	selected []OutletID,
	precomputed []ConsolidatedItem,
	s Settings,
) ([]ConsolidatedItem, error) {
	if len(selected) == 0 {
		return precomputed, nil
	}

	known := make(map[OutletID]struct{}, len(rows))
	for _, o := range rows {
		known[o.Outlet] = struct{}{}
	}
	set := make(map[OutletID]struct{}, len(selected))
	var unique []OutletID
	for _, id := range selected {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := set[id]; dup {
			continue
		}
		set[id] = struct{}{}
		unique = append(unique, id)
	}

	switch len(unique) {
	case 0:
		return []ConsolidatedItem{}, nil
	case 1:
		return ProjectOutlet(classified, unique[0]), nil
	}

	restricted := make([]OutletRows, 0, len(unique))
	for _, o := range rows {
		if _, ok := set[o.Outlet]; ok {
			restricted = append(restricted, o)
		}
	}

	items, err := ClassifyAll(ctx, restricted, s)
	if err != nil {
		return nil, err
	}
	return Consolidate(items, s), nil
}
