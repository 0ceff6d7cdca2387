package indicators

import (
	"errors"
	"testing"

	"AssetBrief/internal/domain/models"
)

func series(prices ...float64) models.PriceSeries {
	days := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}
	s := make(models.PriceSeries, 0, len(prices))
	for i, p := range prices {
		s = append(s, models.PricePoint{Date: days[i], Price: p})
	}
	return s
}

func TestComputeBasic(t *testing.T) {
	got, err := Compute(series(100, 120, 90, 110))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StartPrice != 100 || got.EndPrice != 110 {
		t.Fatalf("unexpected endpoints: %+v", got)
	}
	if got.ReturnPct != 10.0 {
		t.Errorf("expected return 10.0, got %v", got.ReturnPct)
	}
	// Peak 120 down to 90.
	if got.MaxDrawdownPct != 25.0 {
		t.Errorf("expected drawdown 25.0, got %v", got.MaxDrawdownPct)
	}
}

func TestComputeMonotonicRise(t *testing.T) {
	got, err := Compute(series(50, 60, 70))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MaxDrawdownPct != 0 {
		t.Errorf("expected drawdown 0, got %v", got.MaxDrawdownPct)
	}
	if got.ReturnPct != 40.0 {
		t.Errorf("expected return 40.0, got %v", got.ReturnPct)
	}
}

func TestComputeNegativeReturn(t *testing.T) {
	got, err := Compute(series(200, 150, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ReturnPct != -50.0 {
		t.Errorf("expected return -50.0, got %v", got.ReturnPct)
	}
	if got.MaxDrawdownPct != 50.0 {
		t.Errorf("expected drawdown 50.0, got %v", got.MaxDrawdownPct)
	}
}

func TestComputeRounding(t *testing.T) {
	got, err := Compute(series(3.14159265, 2.71828182))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StartPrice != 3.1416 {
		t.Errorf("expected start 3.1416, got %v", got.StartPrice)
	}
	if got.EndPrice != 2.7183 {
		t.Errorf("expected end 2.7183, got %v", got.EndPrice)
	}
	if got.ReturnPct != -13.47 {
		t.Errorf("expected return -13.47, got %v", got.ReturnPct)
	}
}

func TestComputeInsufficientData(t *testing.T) {
	for _, s := range []models.PriceSeries{nil, series(42)} {
		_, err := Compute(s)
		var ie *models.InsufficientDataError
		if !errors.As(err, &ie) {
			t.Fatalf("expected InsufficientDataError, got %v", err)
		}
		if ie.Points != len(s) {
			t.Errorf("expected %d points reported, got %d", len(s), ie.Points)
		}
	}
}
