package usecase

import (
	"testing"
	"time"

	"AssetBrief/internal/domain/models"
)

func fpRequest(symbol, question string) models.Request {
	return models.Request{
		Symbol:    symbol,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Type:      models.RequestTypeQA,
		Question:  question,
	}
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint(fpRequest("BTC", "why did it drop?"))
	b := Fingerprint(fpRequest("BTC", "why did it drop?"))
	if a != b {
		t.Fatal("identical requests must share a fingerprint")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %d chars", len(a))
	}
}

func TestFingerprintNormalizesQuestion(t *testing.T) {
	a := Fingerprint(fpRequest("BTC", "Why   did it DROP?"))
	b := Fingerprint(fpRequest("BTC", "why did it drop?"))
	if a != b {
		t.Fatal("case and whitespace must not change the fingerprint")
	}
}

func TestFingerprintDistinguishesFields(t *testing.T) {
	base := fpRequest("BTC", "why?")
	variants := []models.Request{
		fpRequest("ETH", "why?"),
		fpRequest("BTC", "how?"),
	}
	shifted := base
	shifted.EndDate = shifted.EndDate.AddDate(0, 0, 1)
	variants = append(variants, shifted)

	typed := base
	typed.Type = models.RequestTypeOverview
	variants = append(variants, typed)

	want := Fingerprint(base)
	for i, v := range variants {
		if Fingerprint(v) == want {
			t.Fatalf("variant %d must not collide", i)
		}
	}
}
