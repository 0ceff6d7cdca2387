package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"AssetBrief/internal/domain/models"
	"AssetBrief/internal/services/assemble"
	"AssetBrief/pkg/cache"
	"AssetBrief/pkg/retry"
)

type fakePrices struct {
	series models.PriceSeries
	err    error
	calls  int
}

func (f *fakePrices) DailyPrices(_ context.Context, _ string, _, _ time.Time) (models.PriceSeries, error) {
	f.calls++
	return f.series, f.err
}

type fakeNews struct {
	items []models.NewsItem
	err   error
}

func (f *fakeNews) Headlines(_ context.Context, _ string, _, _ time.Time, _ int) ([]models.NewsItem, error) {
	return f.items, f.err
}

type fakeKnowledge struct {
	docs []models.KnowledgeSnippet
	err  error
}

func (f *fakeKnowledge) Background(_ context.Context, _ string, _ int) ([]models.KnowledgeSnippet, error) {
	return f.docs, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*models.HistoryRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*models.HistoryRecord)}
}

func (f *fakeStore) Put(_ context.Context, rec *models.HistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.Fingerprint] = rec
	return nil
}

func (f *fakeStore) Get(_ context.Context, fingerprint string) (*models.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[fingerprint]
	if !ok {
		return nil, models.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) List(_ context.Context, _ string, _ int) ([]*models.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.HistoryRecord, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

type deps struct {
	prices    *fakePrices
	news      *fakeNews
	knowledge *fakeKnowledge
	draft     *fakeCompleter
	verify    *fakeCompleter
	store     *fakeStore
	cache     *cache.MemoryCache
}

func defaultDeps() *deps {
	return &deps{
		prices: &fakePrices{series: models.PriceSeries{
			{Date: "2024-01-01", Price: 100},
			{Date: "2024-01-02", Price: 120},
			{Date: "2024-01-03", Price: 90},
			{Date: "2024-01-04", Price: 110},
		}},
		news: &fakeNews{items: []models.NewsItem{
			{Title: "big move", URL: "https://n.example/1", PublishedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		}},
		knowledge: &fakeKnowledge{docs: []models.KnowledgeSnippet{
			{Title: "Bitcoin", URL: "https://en.wikipedia.org/wiki/Bitcoin", Text: "about btc", Kind: models.KnowledgeKindEncyclopedia},
		}},
		draft:  &fakeCompleter{replies: []string{"drafted", "drafted", "drafted"}},
		verify: &fakeCompleter{replies: []string{"checked", "checked", "checked"}},
		store:  newFakeStore(),
	}
}

func newTestWorkflows(t *testing.T, d *deps) *Workflows {
	t.Helper()
	gen := NewGenerator(d.draft, d.verify, testLogger(t))
	gen.retries = retry.Config{MaxAttempts: 1}

	var resultCache cache.Service
	if d.cache != nil {
		resultCache = d.cache
		t.Cleanup(func() { _ = d.cache.Close() })
	}

	return NewWorkflows(
		d.prices, d.news, d.knowledge,
		gen, assemble.New(assemble.DefaultConfig()),
		d.store, resultCache, nil, nil,
		testLogger(t),
		Config{NewsLimit: 5, KnowledgeLimit: 3, CacheTTL: time.Minute},
	)
}

func request(typ models.RequestType) models.Request {
	return models.Request{
		Symbol:    "BTC",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		Type:      typ,
		Question:  "why the drop?",
	}
}

func TestMarketComputesIndicators(t *testing.T) {
	w := newTestWorkflows(t, defaultDeps())

	got, err := w.Market(context.Background(), request(models.RequestTypeOverview))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Indicators.ReturnPct != 10.0 || got.Indicators.MaxDrawdownPct != 25.0 {
		t.Fatalf("unexpected indicators: %+v", got.Indicators)
	}
	if len(got.Chart) != 4 {
		t.Fatalf("expected full chart, got %d points", len(got.Chart))
	}
}

func TestMarketInsufficientData(t *testing.T) {
	d := defaultDeps()
	d.prices.series = models.PriceSeries{{Date: "2024-01-01", Price: 100}}
	w := newTestWorkflows(t, d)

	_, err := w.Market(context.Background(), request(models.RequestTypeOverview))
	var ie *models.InsufficientDataError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestQAAllOrNothing(t *testing.T) {
	d := defaultDeps()
	d.news.err = &models.ProviderUnavailableError{Provider: "newsapi", Err: errors.New("down")}
	w := newTestWorkflows(t, d)

	_, err := w.QA(context.Background(), request(models.RequestTypeQA))
	var pe *models.ProviderUnavailableError
	if !errors.As(err, &pe) {
		t.Fatalf("expected provider failure to fail the question, got %v", err)
	}
	if len(d.store.records) != 0 {
		t.Fatal("failed requests must not be recorded")
	}
}

func TestQAHappyPath(t *testing.T) {
	d := defaultDeps()
	w := newTestWorkflows(t, d)

	got, err := w.QA(context.Background(), request(models.RequestTypeQA))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Answer != "checked" || got.Unverified {
		t.Fatalf("unexpected answer: %+v", got)
	}
	if len(got.Citations) != 1 || got.Citations[0].Ref != "https://n.example/1" {
		t.Fatalf("unexpected citations: %+v", got.Citations)
	}
	if len(d.store.records) != 1 {
		t.Fatal("completed question must be recorded")
	}
}

func TestQAEmptyNewsStillAnswers(t *testing.T) {
	d := defaultDeps()
	d.news.items = nil
	w := newTestWorkflows(t, d)

	got, err := w.QA(context.Background(), request(models.RequestTypeQA))
	if err != nil {
		t.Fatalf("empty headlines must not fail the question: %v", err)
	}
	if got.Answer != "checked" {
		t.Fatalf("expected answer grounded on indicators, got %+v", got)
	}
	if got.News == nil || len(got.News) != 0 {
		t.Fatalf("expected empty news list, got %+v", got.News)
	}
	if len(got.Citations) != 0 {
		t.Fatalf("expected no citations without sourced fragments, got %+v", got.Citations)
	}
}

func TestOverviewFallbackOnGenerationFailure(t *testing.T) {
	d := defaultDeps()
	boom := errors.New("llm down")
	d.draft = &fakeCompleter{errs: []error{boom, boom, boom}}
	w := newTestWorkflows(t, d)

	got, err := w.Overview(context.Background(), request(models.RequestTypeOverview))
	if err != nil {
		t.Fatalf("generation failure must not fail the overview: %v", err)
	}
	if got.SummaryError == nil || got.SummaryError.Code != "ERR_GENERATION_FAILED" {
		t.Fatalf("expected structured summary error, got %+v", got.SummaryError)
	}
	if got.Summary == "" {
		t.Fatal("expected deterministic fallback summary")
	}
	if len(got.Chart) != 4 {
		t.Fatal("chart must be unaffected by summary failure")
	}
}

func TestOverviewDegradedResultNotCached(t *testing.T) {
	d := defaultDeps()
	d.cache = cache.NewMemoryCache()
	boom := errors.New("llm down")
	d.draft = &fakeCompleter{errs: []error{boom, boom, boom}}
	w := newTestWorkflows(t, d)
	req := request(models.RequestTypeOverview)

	first, err := w.Overview(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.SummaryError == nil {
		t.Fatal("expected summary error while the model is down")
	}
	if len(d.store.records) != 0 {
		t.Fatal("degraded overview must not be recorded")
	}

	d.draft.calls, d.draft.errs = 0, nil
	d.draft.replies = []string{"drafted"}
	second, err := w.Overview(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.SummaryError != nil {
		t.Fatalf("expected fresh attempt after recovery, got %+v", second.SummaryError)
	}
	if second.Summary != "checked" {
		t.Fatalf("expected generated summary after recovery, got %q", second.Summary)
	}
}

func TestHistoryDegradedResultNotCached(t *testing.T) {
	d := defaultDeps()
	d.cache = cache.NewMemoryCache()
	d.knowledge.err = &models.ProviderUnavailableError{Provider: "knowledge", Err: errors.New("transient outage")}
	w := newTestWorkflows(t, d)
	req := request(models.RequestTypeHistory)

	first, err := w.History(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.NarrativeError == nil {
		t.Fatal("expected narrative error while the provider is down")
	}
	if len(d.store.records) != 0 {
		t.Fatal("partial brief must not be recorded")
	}

	d.knowledge.err = nil
	second, err := w.History(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.NarrativeError != nil {
		t.Fatalf("expected fresh attempt after recovery, got %+v", second.NarrativeError)
	}
	if second.Story == "" {
		t.Fatal("expected narrative story after recovery")
	}
}

func TestOverviewAbsorbsNewsFailure(t *testing.T) {
	d := defaultDeps()
	d.news.err = &models.ProviderUnavailableError{Provider: "newsapi", Err: errors.New("down")}
	w := newTestWorkflows(t, d)

	got, err := w.Overview(context.Background(), request(models.RequestTypeOverview))
	if err != nil {
		t.Fatalf("news failure must not fail the overview: %v", err)
	}
	if len(got.News) != 0 {
		t.Fatalf("expected empty news, got %d", len(got.News))
	}
	if got.Summary == "" {
		t.Fatal("summary must still be generated")
	}
}

func TestOverviewStreamOrder(t *testing.T) {
	d := defaultDeps()
	w := newTestWorkflows(t, d)

	var stages []models.StageKind
	err := w.OverviewStream(context.Background(), request(models.RequestTypeOverview), func(f models.StageFrame) error {
		stages = append(stages, f.Stage)
		if f.Err != nil {
			t.Errorf("unexpected stage error: %+v", f.Err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.StageKind{models.StageMarket, models.StageNews, models.StageSummary, models.StageDone}
	if len(stages) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(stages))
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("frame %d: expected %s, got %s", i, want[i], stages[i])
		}
	}
}

func TestOverviewStreamIsolatesStageFailure(t *testing.T) {
	d := defaultDeps()
	d.news.err = &models.ProviderUnavailableError{Provider: "newsapi", Err: errors.New("down")}
	w := newTestWorkflows(t, d)

	frames := make(map[models.StageKind]models.StageFrame)
	err := w.OverviewStream(context.Background(), request(models.RequestTypeOverview), func(f models.StageFrame) error {
		frames[f.Stage] = f
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frames[models.StageMarket].Err != nil {
		t.Fatal("market stage must succeed")
	}
	if frames[models.StageNews].Err == nil {
		t.Fatal("news stage must carry its error")
	}
	if frames[models.StageSummary].Err != nil {
		t.Fatal("summary must proceed without news")
	}
}

func TestOverviewStreamStopsOnEmitError(t *testing.T) {
	w := newTestWorkflows(t, defaultDeps())

	disconnect := errors.New("client gone")
	var count int
	err := w.OverviewStream(context.Background(), request(models.RequestTypeOverview), func(models.StageFrame) error {
		count++
		return disconnect
	})
	if !errors.Is(err, disconnect) {
		t.Fatalf("expected emit error returned, got %v", err)
	}
	if count != 1 {
		t.Fatalf("expected streaming to stop after first frame, got %d", count)
	}
}

func TestHistoryPartialChartOnly(t *testing.T) {
	d := defaultDeps()
	d.knowledge.err = &models.ProviderUnavailableError{Provider: "knowledge", Err: errors.New("down")}
	w := newTestWorkflows(t, d)

	got, err := w.History(context.Background(), request(models.RequestTypeHistory))
	if err != nil {
		t.Fatalf("narrative failure must not fail the brief: %v", err)
	}
	if len(got.Chart) != 4 {
		t.Fatal("chart section must survive")
	}
	if got.NarrativeError == nil {
		t.Fatal("narrative section must carry its error")
	}
	if got.ChartError != nil {
		t.Fatal("chart section must not carry an error")
	}
}

func TestHistoryBothSectionsFailed(t *testing.T) {
	d := defaultDeps()
	d.prices.err = &models.ProviderUnavailableError{Provider: "coingecko", Err: errors.New("down")}
	d.knowledge.err = &models.ProviderUnavailableError{Provider: "knowledge", Err: errors.New("down")}
	w := newTestWorkflows(t, d)

	_, err := w.History(context.Background(), request(models.RequestTypeHistory))
	if err == nil {
		t.Fatal("expected error when nothing succeeded")
	}
}

func TestHistoryHappyPath(t *testing.T) {
	d := defaultDeps()
	w := newTestWorkflows(t, d)

	got, err := w.History(context.Background(), request(models.RequestTypeHistory))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Story == "" {
		t.Fatal("expected narrative story")
	}
	if len(got.Sources) != 1 || got.Sources[0].Kind != models.KnowledgeKindEncyclopedia {
		t.Fatalf("unexpected sources: %+v", got.Sources)
	}
	if len(got.Citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(got.Citations))
	}
	// Single-pass generation: no verifier call.
	if d.verify.calls != 0 {
		t.Fatalf("background brief must skip the verify pass, got %d calls", d.verify.calls)
	}
}

func TestCacheFirstSkipsProviders(t *testing.T) {
	d := defaultDeps()
	d.cache = cache.NewMemoryCache()
	w := newTestWorkflows(t, d)
	req := request(models.RequestTypeOverview)

	first, err := w.Market(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := w.Market(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.prices.calls != 1 {
		t.Fatalf("expected one provider call, got %d", d.prices.calls)
	}
	if first.Indicators != second.Indicators {
		t.Fatal("cached result must match the computed one")
	}
}

func TestHistoryRecordIdempotent(t *testing.T) {
	d := defaultDeps()
	w := newTestWorkflows(t, d)
	req := request(models.RequestTypeQA)

	if _, err := w.QA(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d.draft.calls, d.verify.calls = 0, 0
	d.draft.replies = []string{"drafted"}
	d.verify.replies = []string{"checked"}
	if _, err := w.QA(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.store.records) != 1 {
		t.Fatalf("same fingerprint must keep one record, got %d", len(d.store.records))
	}
}
