package repository

import (
	"context"
	"time"

	"AssetBrief/internal/domain/models"
)

// PriceProvider fetches a daily close series for a symbol over an inclusive
// date range. An empty series is a valid result, not an error.
type PriceProvider interface {
	DailyPrices(ctx context.Context, symbol string, from, to time.Time) (models.PriceSeries, error)
}

// NewsProvider fetches recent headlines scoped to an asset and date range.
type NewsProvider interface {
	Headlines(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.NewsItem, error)
}

// KnowledgeProvider fetches background documents about an asset. It returns
// an error only when every upstream source failed.
type KnowledgeProvider interface {
	Background(ctx context.Context, symbol string, limit int) ([]models.KnowledgeSnippet, error)
}

// Completer is a single chat completion call against the language model.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// HistoryStore persists completed request results keyed by fingerprint.
type HistoryStore interface {
	Put(ctx context.Context, rec *models.HistoryRecord) error
	Get(ctx context.Context, fingerprint string) (*models.HistoryRecord, error)
	List(ctx context.Context, symbol string, limit int) ([]*models.HistoryRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher emits request-completion events for downstream consumers.
type EventPublisher interface {
	PublishCompletion(ctx context.Context, rec *models.HistoryRecord) error
	Close() error
}

// Metrics records pipeline instrumentation.
type Metrics interface {
	RecordStageDuration(stage string, seconds float64)
	RecordStageError(stage, code string)
	RecordProviderError(provider string)
	RecordLLMTokens(phase string, prompt, completion int)
	RecordCacheEvent(hit bool)
	RecordStagePush(stage string)
}
