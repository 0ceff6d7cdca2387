package usecase

import (
	"context"
	"errors"
	"time"

	"AssetBrief/internal/domain/models"
	"AssetBrief/internal/domain/repository"
	"AssetBrief/internal/services/assemble"
	"AssetBrief/pkg/cache"
	applogger "AssetBrief/pkg/logger"
)

// Config bounds the workflow pipeline.
type Config struct {
	NewsLimit      int
	KnowledgeLimit int
	CacheTTL       time.Duration
	StageTimeout   time.Duration
}

// DefaultConfig mirrors the production pipeline settings.
func DefaultConfig() Config {
	return Config{
		NewsLimit:      5,
		KnowledgeLimit: 3,
		CacheTTL:       15 * time.Minute,
		StageTimeout:   45 * time.Second,
	}
}

// Workflows orchestrates the asset query pipelines: fetch, compute, assemble,
// generate, persist. Completed results are cached by fingerprint and recorded
// in the history store.
type Workflows struct {
	prices    repository.PriceProvider
	news      repository.NewsProvider
	knowledge repository.KnowledgeProvider
	gen       *Generator
	asm       *assemble.Assembler
	store     repository.HistoryStore
	cache     cache.Service
	events    repository.EventPublisher
	metrics   repository.Metrics
	logger    *applogger.Logger
	cfg       Config
}

// NewWorkflows wires the workflow orchestrator. cache, store, and events may
// be nil; the matching behavior is skipped.
func NewWorkflows(
	prices repository.PriceProvider,
	news repository.NewsProvider,
	knowledge repository.KnowledgeProvider,
	gen *Generator,
	asm *assemble.Assembler,
	store repository.HistoryStore,
	resultCache cache.Service,
	events repository.EventPublisher,
	metrics repository.Metrics,
	logger *applogger.Logger,
	cfg Config,
) *Workflows {
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = DefaultConfig().NewsLimit
	}
	if cfg.KnowledgeLimit <= 0 {
		cfg.KnowledgeLimit = DefaultConfig().KnowledgeLimit
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	return &Workflows{
		prices:    prices,
		news:      news,
		knowledge: knowledge,
		gen:       gen,
		asm:       asm,
		store:     store,
		cache:     resultCache,
		events:    events,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// runStage wraps one pipeline stage with its timeout and instrumentation.
func (w *Workflows) runStage(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	if w.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.StageTimeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	if w.metrics != nil {
		w.metrics.RecordStageDuration(stage, time.Since(start).Seconds())
		if err != nil {
			w.metrics.RecordStageError(stage, models.ToStageError(err).Code)
			var pe *models.ProviderUnavailableError
			if errors.As(err, &pe) {
				w.metrics.RecordProviderError(pe.Provider)
			}
		}
	}
	return err
}

// cacheKey namespaces a fingerprint per operation so the staged endpoints and
// the combined ones never collide.
func cacheKey(fingerprint, op string) string {
	return "result:" + op + ":" + fingerprint
}

// loadCached fills dest from the result cache. A decode failure counts as a
// miss; stale payload shapes age out via TTL.
func (w *Workflows) loadCached(ctx context.Context, key string, dest interface{}) bool {
	if w.cache == nil {
		return false
	}
	err := w.cache.Get(ctx, key, dest)
	hit := err == nil
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		w.logger.Warn("result cache read failed", applogger.String("key", key), applogger.Error(err))
	}
	if w.metrics != nil {
		w.metrics.RecordCacheEvent(hit)
	}
	return hit
}

// storeCached writes a completed result to the cache, best effort.
func (w *Workflows) storeCached(ctx context.Context, key string, result interface{}) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Set(ctx, key, result, w.cfg.CacheTTL); err != nil {
		w.logger.Warn("result cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

// persist records a completed top-level request in the history store and
// publishes the completion event. Both are best effort: the result has
// already been computed and will be delivered regardless.
func (w *Workflows) persist(ctx context.Context, req models.Request, fingerprint string, result interface{}) {
	rec, err := models.NewHistoryRecord(fingerprint, req, result)
	if err != nil {
		w.logger.Error("history record marshal failed", applogger.Error(err))
		return
	}

	if w.store != nil {
		if err := w.store.Put(ctx, rec); err != nil {
			w.logger.Warn("history store write failed",
				applogger.String("fingerprint", fingerprint),
				applogger.Error(err),
			)
		}
	}
	if w.events != nil {
		if err := w.events.PublishCompletion(ctx, rec); err != nil {
			w.logger.Warn("completion event publish failed",
				applogger.String("fingerprint", fingerprint),
				applogger.Error(err),
			)
		}
	}
}

// Queries lists recent completed requests, optionally scoped to a symbol.
func (w *Workflows) Queries(ctx context.Context, symbol string, limit int) ([]*models.HistoryRecord, error) {
	if w.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return w.store.List(ctx, symbol, limit)
}

// Lookup returns a previously completed result by fingerprint.
func (w *Workflows) Lookup(ctx context.Context, fingerprint string) (*models.HistoryRecord, error) {
	if w.store == nil {
		return nil, models.ErrNotFound
	}
	return w.store.Get(ctx, fingerprint)
}
