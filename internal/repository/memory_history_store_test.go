package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"AssetBrief/internal/domain/models"
)

func record(fingerprint, symbol string, createdAt time.Time) *models.HistoryRecord {
	return &models.HistoryRecord{
		Fingerprint: fingerprint,
		Symbol:      symbol,
		Type:        models.RequestTypeQA,
		StartDate:   "2024-01-01",
		EndDate:     "2024-01-31",
		Question:    "why?",
		Result:      json.RawMessage(`{"answer":"because"}`),
		CreatedAt:   createdAt,
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryHistoryStore()
	ctx := context.Background()
	rec := record("fp1", "BTC", time.Now().UTC())

	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "fp1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Symbol != "BTC" || string(got.Result) != `{"answer":"because"}` {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestMemoryStoreMiss(t *testing.T) {
	s := NewMemoryHistoryStore()
	_, err := s.Get(context.Background(), "absent")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreLastWriteWins(t *testing.T) {
	s := NewMemoryHistoryStore()
	ctx := context.Background()

	first := record("fp1", "BTC", time.Now().UTC())
	second := record("fp1", "BTC", time.Now().UTC().Add(time.Second))
	second.Result = json.RawMessage(`{"answer":"updated"}`)

	if err := s.Put(ctx, first); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, second); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "fp1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Result) != `{"answer":"updated"}` {
		t.Fatalf("expected last write kept, got %s", got.Result)
	}

	list, err := s.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one record per fingerprint, got %d", len(list))
	}
}

func TestMemoryStoreListFilterAndOrder(t *testing.T) {
	s := NewMemoryHistoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	_ = s.Put(ctx, record("fp1", "BTC", base))
	_ = s.Put(ctx, record("fp2", "ETH", base.Add(time.Second)))
	_ = s.Put(ctx, record("fp3", "BTC", base.Add(2*time.Second)))

	btc, err := s.List(ctx, "BTC", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(btc) != 2 {
		t.Fatalf("expected 2 BTC records, got %d", len(btc))
	}
	if btc[0].Fingerprint != "fp3" {
		t.Fatalf("expected newest first, got %s", btc[0].Fingerprint)
	}

	limited, err := s.List(ctx, "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit respected, got %d", len(limited))
	}
}
