package models

// PricePoint is a single (date, price) observation.
type PricePoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Price float64 `json:"price"`
}

// PriceSeries is an ordered sequence of price points, ascending by date with
// no duplicate dates. It is produced by the price-history adapter and consumed
// read-only downstream.
type PriceSeries []PricePoint

// Indicators are the performance metrics derived from a PriceSeries.
// MaxDrawdownPct is reported as a non-negative percentage.
type Indicators struct {
	StartPrice     float64 `json:"start_price"`
	EndPrice       float64 `json:"end_price"`
	ReturnPct      float64 `json:"return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
}
