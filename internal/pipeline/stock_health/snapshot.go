package stock_health

import (
	"context"
	"time"
)

// Snapshot is one complete, internally consistent classification pass: every
// item in it was computed from Rows with the same Settings.
type Snapshot struct {
	Rows         []OutletRows
	Items        []ClassifiedItem
	Consolidated []ConsolidatedItem
	Settings     Settings
	BuiltAt      time.Time
}

// BuildSnapshot classifies every outlet and consolidates the result.
func BuildSnapshot(ctx context.Context, rows []OutletRows, s Settings) (*Snapshot, error) {
	s = s.Clone()
	items, err := ClassifyAll(ctx, rows, s)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Rows:         rows,
		Items:        items,
		Consolidated: Consolidate(items, s),
		Settings:     s,
		BuiltAt:      time.Now(),
	}, nil
}

// WithSettings recomputes the whole snapshot from its rows under new settings.
func (sn *Snapshot) WithSettings(ctx context.Context, s Settings) (*Snapshot, error) {
	return BuildSnapshot(ctx, sn.Rows, s)
}

// View returns the consolidated items for the selected outlets.
func (sn *Snapshot) View(ctx context.Context, selected []OutletID) ([]ConsolidatedItem, error) {
	return Reconsolidate(ctx, sn.Rows, sn.Items, selected, sn.Consolidated, sn.Settings)
}

// Outlets lists the outlets that produced items, in pass order.
func (sn *Snapshot) Outlets() []OutletID {
	var set orderedSet[OutletID]
	for _, o := range sn.Rows {
		if len(o.Stock) > 0 {
			set.add(o.Outlet)
		}
	}
	return set.values()
}

// OutletItems returns the classified items of one outlet.
func (sn *Snapshot) OutletItems(outlet OutletID) []ClassifiedItem {
	out := make([]ClassifiedItem, 0)
	for _, item := range sn.Items {
		if item.OutletID == outlet {
			out = append(out, item)
		}
	}
	return out
}
