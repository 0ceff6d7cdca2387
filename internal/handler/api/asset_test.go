package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"AssetBrief/internal/domain/models"
	"AssetBrief/internal/services/assemble"
	"AssetBrief/internal/usecase"
	"AssetBrief/pkg/config"
	applogger "AssetBrief/pkg/logger"

	"github.com/labstack/echo/v4"
)

type fakePrices struct {
	series models.PriceSeries
	err    error
}

func (f *fakePrices) DailyPrices(_ context.Context, _ string, _, _ time.Time) (models.PriceSeries, error) {
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

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(context.Context, string, string) (string, error) {
	return f.reply, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*models.HistoryRecord
	healthy bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*models.HistoryRecord), healthy: true}
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

func (f *fakeStore) Health(context.Context) error {
	if !f.healthy {
		return context.DeadlineExceeded
	}
	return nil
}

func (f *fakeStore) Close() error { return nil }

type testEnv struct {
	e      *echo.Echo
	prices *fakePrices
	news   *fakeNews
	store  *fakeStore
	cfg    *config.Config
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	l := testLogger(t)

	prices := &fakePrices{series: models.PriceSeries{
		{Date: "2024-01-01", Price: 100},
		{Date: "2024-01-02", Price: 120},
		{Date: "2024-01-03", Price: 90},
		{Date: "2024-01-04", Price: 110},
	}}
	news := &fakeNews{items: []models.NewsItem{
		{Title: "big move", URL: "https://n.example/1", PublishedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	}}
	knowledge := &fakeKnowledge{docs: []models.KnowledgeSnippet{
		{Title: "Bitcoin", URL: "https://en.wikipedia.org/wiki/Bitcoin", Text: "about btc", Kind: models.KnowledgeKindEncyclopedia},
	}}
	store := newFakeStore()

	gen := usecase.NewGenerator(&fakeCompleter{reply: "drafted"}, &fakeCompleter{reply: "checked"}, l)
	asm := assemble.New(assemble.DefaultConfig())
	wf := usecase.NewWorkflows(prices, news, knowledge, gen, asm, store, nil, nil, nil, l, usecase.DefaultConfig())

	cfg := &config.Config{Assets: map[string]config.Asset{
		"BTC": {CoinID: "bitcoin"},
		"ETH": {CoinID: "ethereum"},
	}}

	e := echo.New()
	NewAssetHandler(l, wf, cfg, store).RegisterRoutes(e)
	return &testEnv{e: e, prices: prices, news: news, store: store, cfg: cfg}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) envelope {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

const validRange = `{"start_date":"2024-01-01","end_date":"2024-01-04"}`

func TestMarketEndpoint(t *testing.T) {
	env := newTestEnv(t)
	res := doJSON(t, env.e, http.MethodPost, "/api/asset/btc/market", validRange)
	if res.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Status, res.Data)
	}

	var market models.MarketResult
	if err := json.Unmarshal(res.Data, &market); err != nil {
		t.Fatalf("decode market: %v", err)
	}
	if market.Indicators.ReturnPct != 10.0 {
		t.Fatalf("expected return 10.0, got %v", market.Indicators.ReturnPct)
	}
	if len(market.Chart) != 4 {
		t.Fatalf("expected 4 chart points, got %d", len(market.Chart))
	}
}

func TestUnsupportedSymbolRejected(t *testing.T) {
	env := newTestEnv(t)
	res := doJSON(t, env.e, http.MethodPost, "/api/asset/dogecoin/market", validRange)
	if res.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Status)
	}
	if !strings.Contains(string(res.Data), "unsupported asset symbol") {
		t.Fatalf("expected symbol error, got %s", res.Data)
	}
}

func TestDateOrderRejected(t *testing.T) {
	env := newTestEnv(t)
	body := `{"start_date":"2024-01-04","end_date":"2024-01-01"}`
	res := doJSON(t, env.e, http.MethodPost, "/api/asset/btc/market", body)
	if res.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Status)
	}
}

func TestFutureEndDateRejected(t *testing.T) {
	env := newTestEnv(t)
	future := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	body := `{"start_date":"2024-01-01","end_date":"` + future + `"}`
	res := doJSON(t, env.e, http.MethodPost, "/api/asset/btc/market", body)
	if res.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Status)
	}
}

func TestMalformedDateRejected(t *testing.T) {
	env := newTestEnv(t)
	body := `{"start_date":"01/01/2024","end_date":"2024-01-04"}`
	res := doJSON(t, env.e, http.MethodPost, "/api/asset/btc/market", body)
	if res.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Status)
	}
	if !strings.Contains(string(res.Data), "2006-01-02") {
		t.Fatalf("expected date format message, got %s", res.Data)
	}
}

func TestQARequiresQuestion(t *testing.T) {
	env := newTestEnv(t)
	res := doJSON(t, env.e, http.MethodPost, "/api/asset/btc/qa", validRange)
	if res.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Status)
	}
	if !strings.Contains(string(res.Data), "Question") {
		t.Fatalf("expected question validation error, got %s", res.Data)
	}
}

func TestQAEndpoint(t *testing.T) {
	env := newTestEnv(t)
	body := `{"start_date":"2024-01-01","end_date":"2024-01-04","question":"why did it move?"}`
	res := doJSON(t, env.e, http.MethodPost, "/api/asset/btc/qa", body)
	if res.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Status, res.Data)
	}

	var qa models.QAResult
	if err := json.Unmarshal(res.Data, &qa); err != nil {
		t.Fatalf("decode qa: %v", err)
	}
	if qa.Answer != "checked" {
		t.Fatalf("expected verified answer, got %q", qa.Answer)
	}
	if len(qa.Citations) != 1 {
		t.Fatalf("expected one citation, got %d", len(qa.Citations))
	}
}

func TestProviderOutageMapsToServiceUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.prices.err = &models.ProviderUnavailableError{Provider: "coingecko", Err: context.DeadlineExceeded}

	res := doJSON(t, env.e, http.MethodPost, "/api/asset/btc/market", validRange)
	if res.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Status)
	}
	if !strings.Contains(string(res.Data), "ERR_SERVICE_UNAVAILABLE") {
		t.Fatalf("expected service unavailable code, got %s", res.Data)
	}
}

func TestInsufficientDataMapsToUnprocessable(t *testing.T) {
	env := newTestEnv(t)
	env.prices.series = models.PriceSeries{{Date: "2024-01-01", Price: 100}}

	res := doJSON(t, env.e, http.MethodPost, "/api/asset/btc/market", validRange)
	if res.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.Status)
	}
}

func TestSummaryEndpointIncludesNewsAndSummary(t *testing.T) {
	env := newTestEnv(t)
	res := doJSON(t, env.e, http.MethodPost, "/api/asset/btc/summary", validRange)
	if res.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Status, res.Data)
	}

	var overview models.OverviewResult
	if err := json.Unmarshal(res.Data, &overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if overview.Summary != "checked" {
		t.Fatalf("expected generated summary, got %q", overview.Summary)
	}
	if len(overview.News) != 1 {
		t.Fatalf("expected one news item, got %d", len(overview.News))
	}
}

func TestQueriesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	body := `{"start_date":"2024-01-01","end_date":"2024-01-04","question":"why did it move?"}`
	if res := doJSON(t, env.e, http.MethodPost, "/api/asset/btc/qa", body); res.Status != http.StatusOK {
		t.Fatalf("seed qa failed: %d", res.Status)
	}

	res := doJSON(t, env.e, http.MethodGet, "/api/queries", "")
	if res.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Status)
	}

	var list struct {
		Rows  []*models.HistoryRecord `json:"rows"`
		Total int64                   `json:"total"`
	}
	if err := json.Unmarshal(res.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Rows) != 1 {
		t.Fatalf("expected one record, got total=%d rows=%d", list.Total, len(list.Rows))
	}
	if list.Rows[0].Symbol != "BTC" || list.Rows[0].Type != models.RequestTypeQA {
		t.Fatalf("unexpected record: %+v", list.Rows[0])
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	res := doJSON(t, env.e, http.MethodGet, "/health", "")
	if res.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Status)
	}

	res = doJSON(t, env.e, http.MethodGet, "/health/deps", "")
	var deps depsResponse
	if err := json.Unmarshal(res.Data, &deps); err != nil {
		t.Fatalf("decode deps: %v", err)
	}
	// No credentials configured in the test env.
	if deps.Status != "degraded" {
		t.Fatalf("expected degraded status, got %q", deps.Status)
	}
	if deps.Store != "ok" {
		t.Fatalf("expected store ok, got %q", deps.Store)
	}

	env.store.healthy = false
	res = doJSON(t, env.e, http.MethodGet, "/health/deps", "")
	if err := json.Unmarshal(res.Data, &deps); err != nil {
		t.Fatalf("decode deps: %v", err)
	}
	if deps.Store != "unavailable" {
		t.Fatalf("expected store unavailable, got %q", deps.Store)
	}
}

func TestGenerationEndpointsRateLimited(t *testing.T) {
	env := newTestEnv(t)
	body := `{"start_date":"2024-01-01","end_date":"2024-01-04","question":"why?"}`

	var limited bool
	for i := 0; i < 5; i++ {
		res := doJSON(t, env.e, http.MethodPost, "/api/asset/btc/qa", body)
		if res.Status == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected rate limit to trigger within burst")
	}
}
