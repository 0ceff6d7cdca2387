package assemble

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"AssetBrief/internal/domain/models"
)

func sampleSeries(n int) models.PriceSeries {
	s := make(models.PriceSeries, 0, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s = append(s, models.PricePoint{
			Date:  base.AddDate(0, 0, i).Format("2006-01-02"),
			Price: 100 + float64(i),
		})
	}
	return s
}

func sampleNews(n int) []models.NewsItem {
	items := make([]models.NewsItem, 0, n)
	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		items = append(items, models.NewsItem{
			Title:       "headline " + string(rune('a'+i)),
			Snippet:     strings.Repeat("x", 100),
			URL:         "https://news.example/" + string(rune('a'+i)),
			PublishedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return items
}

func TestBuildOrderAndPinning(t *testing.T) {
	a := New(DefaultConfig())
	ind := &models.Indicators{StartPrice: 100, EndPrice: 110, ReturnPct: 10, MaxDrawdownPct: 25}
	docs := []models.KnowledgeSnippet{
		{Title: "Bitcoin", URL: "https://en.wikipedia.org/wiki/Bitcoin", Text: "about", Kind: models.KnowledgeKindEncyclopedia},
	}

	frags := a.Build("BTC", sampleSeries(5), ind, sampleNews(2), docs)
	if len(frags) != 5 {
		t.Fatalf("expected 5 fragments, got %d", len(frags))
	}
	if frags[0].Kind != models.SourceIndicators || frags[1].Kind != models.SourcePrice {
		t.Fatalf("expected pinned fragments first, got %v %v", frags[0].Kind, frags[1].Kind)
	}
	if !frags[0].Pinned() || !frags[1].Pinned() {
		t.Fatal("computed fragments must be pinned")
	}
	// News ordered most recent first.
	if frags[2].Title != "headline b" || frags[3].Title != "headline a" {
		t.Fatalf("unexpected news order: %q %q", frags[2].Title, frags[3].Title)
	}
	if frags[4].Kind != models.SourceEncyclopedia {
		t.Fatalf("expected encyclopedia fragment last, got %v", frags[4].Kind)
	}
}

func TestBuildDeterministic(t *testing.T) {
	a := New(DefaultConfig())
	ind := &models.Indicators{StartPrice: 100, EndPrice: 104, ReturnPct: 4, MaxDrawdownPct: 0}
	news := sampleNews(3)

	first := a.Build("ETH", sampleSeries(5), ind, news, nil)
	second := a.Build("ETH", sampleSeries(5), ind, news, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs must produce identical fragments")
	}
}

func TestBudgetDropsKnowledgeBeforeNews(t *testing.T) {
	cfg := DefaultConfig()
	// Small budget: pinned fragments plus roughly one news item fit.
	cfg.TokenBudget = 120
	a := New(cfg)
	ind := &models.Indicators{StartPrice: 100, EndPrice: 104, ReturnPct: 4, MaxDrawdownPct: 0}
	docs := []models.KnowledgeSnippet{
		{Title: "doc1", URL: "https://k.example/1", Text: strings.Repeat("y", 400), Kind: models.KnowledgeKindWeb},
		{Title: "doc2", URL: "https://k.example/2", Text: strings.Repeat("y", 400), Kind: models.KnowledgeKindWeb},
	}

	frags := a.Build("BTC", sampleSeries(5), ind, sampleNews(3), docs)

	for _, f := range frags {
		if f.Kind == models.SourceWeb {
			t.Fatal("expected knowledge fragments dropped before news")
		}
	}
	if frags[0].Kind != models.SourceIndicators || frags[1].Kind != models.SourcePrice {
		t.Fatal("pinned fragments must survive budget pressure")
	}
}

func TestBudgetNeverDropsPinned(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenBudget = 1
	a := New(cfg)
	ind := &models.Indicators{StartPrice: 100, EndPrice: 104, ReturnPct: 4, MaxDrawdownPct: 0}

	frags := a.Build("BTC", sampleSeries(5), ind, sampleNews(3), nil)
	if len(frags) != 2 {
		t.Fatalf("expected only pinned fragments, got %d", len(frags))
	}
}

func TestItemCharCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxItemChars = 50
	a := New(cfg)

	frags := a.Build("BTC", nil, nil, sampleNews(1), nil)
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(frags))
	}
	if got := len([]rune(frags[0].Text)); got > 51 { // cap plus ellipsis
		t.Fatalf("fragment text too long: %d runes", got)
	}
}

func TestDownsampleKeepsEndpoints(t *testing.T) {
	s := sampleSeries(100)
	out := downsample(s, 20)
	if len(out) != 20 {
		t.Fatalf("expected 20 points, got %d", len(out))
	}
	if out[0] != s[0] || out[len(out)-1] != s[len(s)-1] {
		t.Fatal("downsample must keep first and last points")
	}
}

func TestRenderNumbersFragments(t *testing.T) {
	frags := []models.ContextFragment{
		{Text: "one", Kind: models.SourceNews, Ref: "r1"},
		{Text: "two", Kind: models.SourceWeb, Ref: "r2"},
	}
	got := Render(frags)
	if !strings.Contains(got, "[1] (news) one") || !strings.Contains(got, "[2] (web) two") {
		t.Fatalf("unexpected render output: %q", got)
	}
	if refs := Refs(frags); !reflect.DeepEqual(refs, []string{"r1", "r2"}) {
		t.Fatalf("unexpected refs: %v", refs)
	}
}
