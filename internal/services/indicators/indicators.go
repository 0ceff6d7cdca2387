package indicators

import (
	"math"

	"AssetBrief/internal/domain/models"
)

// Compute derives summary indicators from an ascending daily close series.
// It needs at least two points; shorter series return InsufficientDataError.
func Compute(series models.PriceSeries) (models.Indicators, error) {
	if len(series) < 2 {
		return models.Indicators{}, &models.InsufficientDataError{Points: len(series)}
	}

	start := series[0].Price
	end := series[len(series)-1].Price

	var returnPct float64
	if start != 0 {
		returnPct = (end - start) / start * 100
	}

	return models.Indicators{
		StartPrice:     roundTo(start, 4),
		EndPrice:       roundTo(end, 4),
		ReturnPct:      roundTo(returnPct, 2),
		MaxDrawdownPct: roundTo(maxDrawdown(series), 2),
	}, nil
}

// maxDrawdown is the largest peak-to-trough decline as a non-negative
// percentage of the running peak. A monotonically rising series yields 0.
func maxDrawdown(series models.PriceSeries) float64 {
	peak := series[0].Price
	worst := 0.0
	for _, p := range series[1:] {
		if p.Price > peak {
			peak = p.Price
			continue
		}
		if peak > 0 {
			dd := (peak - p.Price) / peak * 100
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func roundTo(v float64, places int) float64 {
	f := math.Pow10(places)
	return math.Round(v*f) / f
}
