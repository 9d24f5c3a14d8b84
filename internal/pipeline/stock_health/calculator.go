package stock_health

import (
	"math"

	"github.com/shopspring/decimal"
)

// InventoryCalculator classifies a stock/sales pair against one settings snapshot.
type InventoryCalculator struct {
	settings Settings
	window   decimal.Decimal
}

// NewInventoryCalculator creates a calculator bound to s.
func NewInventoryCalculator(s Settings) *InventoryCalculator {
	return &InventoryCalculator{
		settings: s,
		window:   decimal.NewFromInt(SalesWindowDays),
	}
}

// Calculate computes velocity, days of supply, tier, excess units and reorder
// suggestions. Quantities over the window are computed as sales×days/window so
// the ceilings below never pick up float drift.
func (ic *InventoryCalculator) Calculate(currentStock, totalSales int) InventoryMetrics {
	if totalSales < 0 {
		// Net returns over the window count as no sales.
		totalSales = 0
	}

	metrics := InventoryMetrics{
		CurrentStock:     currentStock,
		TotalSales:       totalSales,
		SuggestedReorder: make([]Suggestion, 0, len(ic.settings.Horizons)),
	}

	stock := decimal.NewFromInt(int64(currentStock))
	sales := decimal.NewFromInt(int64(totalSales))

	// 1. Daily velocity over the look-back window
	if totalSales > 0 {
		metrics.DailyVelocity = sales.Div(ic.window).InexactFloat64()
	}

	// 2. Days of supply, infinite without sales
	if totalSales > 0 {
		metrics.DaysOfSupply = DaysOfSupply(stock.Mul(ic.window).Div(sales).InexactFloat64())
	} else {
		metrics.DaysOfSupply = DaysOfSupply(math.Inf(1))
	}

	// 3. Tier
	switch {
	case totalSales == 0:
		if currentStock > 0 {
			metrics.Classification = Unsold
			metrics.ExcessUnits = currentStock
		} else {
			metrics.Classification = Balanced
		}
	case ic.supplyBelow(stock, sales, ic.settings.ShortageDays):
		metrics.Classification = Shortage
	case ic.supplyAbove(stock, sales, ic.settings.ExcessDays):
		metrics.Classification = Excess
		excess := stock.Sub(ic.demandOver(sales, ic.settings.ExcessDays)).Ceil()
		metrics.ExcessUnits = int(decimal.Max(excess, decimal.Zero).IntPart())
	default:
		metrics.Classification = Balanced
	}

	// 4. Reorder suggestion per horizon
	for _, h := range ic.settings.Horizons {
		raw := ic.demandOver(sales, h).Sub(stock)
		qty := 0
		switch metrics.Classification {
		case Shortage:
			qty = int(decimal.Max(raw.Ceil(), decimal.Zero).IntPart())
		case Balanced:
			if raw.IsPositive() {
				qty = int(raw.Ceil().IntPart())
			}
		}
		metrics.SuggestedReorder = append(metrics.SuggestedReorder, Suggestion{Horizon: h, Quantity: qty})
	}

	return metrics
}

// demandOver is the expected units sold in days at the current velocity.
func (ic *InventoryCalculator) demandOver(sales decimal.Decimal, days int) decimal.Decimal {
	return sales.Mul(decimal.NewFromInt(int64(days))).Div(ic.window)
}

// supplyBelow reports stock/velocity < days without dividing.
func (ic *InventoryCalculator) supplyBelow(stock, sales decimal.Decimal, days int) bool {
	return stock.Mul(ic.window).LessThan(sales.Mul(decimal.NewFromInt(int64(days))))
}

// supplyAbove reports stock/velocity > days without dividing.
func (ic *InventoryCalculator) supplyAbove(stock, sales decimal.Decimal, days int) bool {
	return stock.Mul(ic.window).GreaterThan(sales.Mul(decimal.NewFromInt(int64(days))))
}
