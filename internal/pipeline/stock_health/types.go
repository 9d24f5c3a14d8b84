package stock_health

import (
	"encoding/json"
	"math"
)

// SalesWindowDays is the look-back window covered by a sales extract.
const SalesWindowDays = 60

const (
	// NoDepartment is the label used when a row has no department and none can be inferred.
	NoDepartment = "Sin Depto."
	// NoBrand is the default brand for rows without one.
	NoBrand = "Sin Marca"
)

// RawRow is one decoded spreadsheet line, keyed by the column label as it appears in the file.
type RawRow map[string]interface{}

// NormalizedRow holds the canonical fields extracted from a RawRow.
type NormalizedRow struct {
	ProductCode   string
	ProductName   string
	CurrentStock  float64
	Department    string // may be empty or NoDepartment
	Brand         string // defaults to NoBrand
	SalesQuantity float64

	// Extra keeps unrecognized columns under their normalized header.
	Extra map[string]interface{}
}

// Classification is the inventory health tier of an item.
type Classification string

const (
	Shortage Classification = "shortage"
	Balanced Classification = "balanced"
	Excess   Classification = "excess"
	Unsold   Classification = "unsold"
)

// Classifications lists every tier in display order.
var Classifications = []Classification{Shortage, Balanced, Excess, Unsold}

// ParseClassification returns the tier matching s (case-sensitive lowercase form).
func ParseClassification(s string) (Classification, bool) {
	for _, c := range Classifications {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// DaysOfSupply is current stock divided by daily velocity; +Inf when nothing sells.
type DaysOfSupply float64

// IsInfinite reports whether the item has no sales velocity.
func (d DaysOfSupply) IsInfinite() bool {
	return math.IsInf(float64(d), 1)
}

// MarshalJSON encodes infinite supply as null.
func (d DaysOfSupply) MarshalJSON() ([]byte, error) {
	if d.IsInfinite() || math.IsNaN(float64(d)) {
		return []byte("null"), nil
	}
	return json.Marshal(roundFloat(float64(d), 2))
}

// UnmarshalJSON decodes null as infinite supply.
func (d *DaysOfSupply) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = DaysOfSupply(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*d = DaysOfSupply(f)
	return nil
}

// Suggestion is the reorder quantity proposed for one horizon.
type Suggestion struct {
	Horizon  int `json:"horizon"`
	Quantity int `json:"quantity"`
}

// InventoryMetrics is the output of the classification math for one stock/sales pair.
type InventoryMetrics struct {
	CurrentStock     int            `json:"current_stock"`
	TotalSales       int            `json:"total_sales"`
	DailyVelocity    float64        `json:"daily_velocity"`
	DaysOfSupply     DaysOfSupply   `json:"days_of_supply"`
	Classification   Classification `json:"classification"`
	ExcessUnits      int            `json:"excess_units"`
	SuggestedReorder []Suggestion   `json:"suggested_reorder"`
}

// SuggestionFor returns the suggestion for horizon h, or 0 when h is not configured.
func (m InventoryMetrics) SuggestionFor(h int) int {
	for _, s := range m.SuggestedReorder {
		if s.Horizon == h {
			return s.Quantity
		}
	}
	return 0
}

// ClassifiedItem is one product of one outlet after classification.
type ClassifiedItem struct {
	OutletID           OutletID `json:"outlet_id"`
	ProductCode        string   `json:"product_code"`
	ProductName        string   `json:"product_name"`
	Department         string   `json:"department"`
	DepartmentInferred bool     `json:"department_inferred"`
	Brand              string   `json:"brand"`
	InventoryMetrics
}

// ConsolidatedItem merges every outlet's record of one product code.
type ConsolidatedItem struct {
	ProductCode   string           `json:"product_code"`
	ProductNames  []string         `json:"product_names"`
	Departments   []string         `json:"departments"`
	Brands        []string         `json:"brands"`
	Outlets       []OutletID       `json:"outlets"`
	StockByOutlet map[OutletID]int `json:"stock_by_outlet"`
	InventoryMetrics
}

// OutletRows are the normalized stock and sales rows of one outlet.
type OutletRows struct {
	Outlet   OutletID
	Stock    []NormalizedRow
	Sales    []NormalizedRow
	HasSales bool
}
