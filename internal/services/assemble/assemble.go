package assemble

import (
	"fmt"
	"sort"
	"strings"

	"AssetBrief/internal/domain/models"
	"AssetBrief/pkg/util"
)

// Config bounds the assembled context.
type Config struct {
	// TokenBudget caps the estimated token count of all fragments combined.
	TokenBudget int
	// MaxItemChars caps each news/knowledge fragment's text length in runes.
	MaxItemChars int
	// ChartMaxPoints caps how many points the price narrative mentions.
	ChartMaxPoints int
}

// DefaultConfig mirrors the production pipeline settings.
func DefaultConfig() Config {
	return Config{
		TokenBudget:    3000,
		MaxItemChars:   500,
		ChartMaxPoints: 20,
	}
}

// Assembler turns provider outputs into an ordered, budget-bounded fragment
// list for prompting. Identical inputs always produce identical output.
type Assembler struct {
	cfg Config
}

func New(cfg Config) *Assembler {
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = DefaultConfig().TokenBudget
	}
	if cfg.MaxItemChars <= 0 {
		cfg.MaxItemChars = DefaultConfig().MaxItemChars
	}
	if cfg.ChartMaxPoints <= 0 {
		cfg.ChartMaxPoints = DefaultConfig().ChartMaxPoints
	}
	return &Assembler{cfg: cfg}
}

// Build assembles fragments in a fixed order: indicators, price trend, news
// (most recent first), then background documents. Indicator and price
// fragments are pinned; everything else is subject to the token budget, with
// background documents dropped from the end first, then the least recent news.
func (a *Assembler) Build(
	symbol string,
	series models.PriceSeries,
	ind *models.Indicators,
	news []models.NewsItem,
	docs []models.KnowledgeSnippet,
) []models.ContextFragment {
	frags := make([]models.ContextFragment, 0, 2+len(news)+len(docs))

	if ind != nil {
		frags = append(frags, models.ContextFragment{
			Text:  indicatorText(symbol, *ind),
			Kind:  models.SourceIndicators,
			Ref:   "computed:indicators",
			Title: "Computed indicators",
		})
	}
	if len(series) > 0 {
		frags = append(frags, models.ContextFragment{
			Text:  a.priceTrendText(symbol, series),
			Kind:  models.SourcePrice,
			Ref:   "computed:price_series",
			Title: "Price series",
		})
	}

	sorted := make([]models.NewsItem, len(news))
	copy(sorted, news)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})
	for _, item := range sorted {
		text := item.Title
		if item.Snippet != "" {
			text += ": " + item.Snippet
		}
		frags = append(frags, models.ContextFragment{
			Text:  util.TruncateChars(util.NormalizeSpace(text), a.cfg.MaxItemChars),
			Kind:  models.SourceNews,
			Ref:   item.URL,
			Title: item.Title,
		})
	}

	for _, doc := range docs {
		kind := models.SourceWeb
		if doc.Kind == models.KnowledgeKindEncyclopedia {
			kind = models.SourceEncyclopedia
		}
		frags = append(frags, models.ContextFragment{
			Text:  util.TruncateChars(util.NormalizeSpace(doc.Text), a.cfg.MaxItemChars),
			Kind:  kind,
			Ref:   doc.URL,
			Title: doc.Title,
		})
	}

	return a.enforceBudget(frags)
}

// enforceBudget drops unpinned fragments until the estimate fits: background
// documents from the end first, then news from the end (least recent, since
// news is ordered most recent first).
func (a *Assembler) enforceBudget(frags []models.ContextFragment) []models.ContextFragment {
	for totalTokens(frags) > a.cfg.TokenBudget {
		idx := -1
		for i := len(frags) - 1; i >= 0; i-- {
			k := frags[i].Kind
			if k == models.SourceWeb || k == models.SourceEncyclopedia {
				idx = i
				break
			}
		}
		if idx < 0 {
			for i := len(frags) - 1; i >= 0; i-- {
				if frags[i].Kind == models.SourceNews {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			// Only pinned fragments remain.
			break
		}
		frags = append(frags[:idx], frags[idx+1:]...)
	}
	return frags
}

// Render formats fragments into a numbered context block for prompting.
func Render(frags []models.ContextFragment) string {
	var b strings.Builder
	for i, f := range frags {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, f.Kind, f.Text)
	}
	return b.String()
}

// Refs returns each fragment's source ref in order.
func Refs(frags []models.ContextFragment) []string {
	refs := make([]string, len(frags))
	for i, f := range frags {
		refs[i] = f.Ref
	}
	return refs
}

// EstimateTokens approximates the token count of s as len/4.
func EstimateTokens(s string) int {
	return len(s) / 4
}

func totalTokens(frags []models.ContextFragment) int {
	total := 0
	for _, f := range frags {
		total += EstimateTokens(f.Text)
	}
	return total
}

func indicatorText(symbol string, ind models.Indicators) string {
	return fmt.Sprintf(
		"%s price indicators: start %.4f, end %.4f, return %.2f%%, max drawdown %.2f%%.",
		symbol, ind.StartPrice, ind.EndPrice, ind.ReturnPct, ind.MaxDrawdownPct,
	)
}

func (a *Assembler) priceTrendText(symbol string, series models.PriceSeries) string {
	points := downsample(series, a.cfg.ChartMaxPoints)
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%s: %.4f", p.Date, p.Price)
	}
	return fmt.Sprintf("%s daily close prices (%s to %s): %s.",
		symbol, series[0].Date, series[len(series)-1].Date, strings.Join(parts, ", "))
}

// downsample keeps at most max points, always including the first and last.
func downsample(series models.PriceSeries, max int) models.PriceSeries {
	if max <= 0 || len(series) <= max {
		return series
	}
	out := make(models.PriceSeries, 0, max)
	step := float64(len(series)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		out = append(out, series[int(float64(i)*step+0.5)])
	}
	out[max-1] = series[len(series)-1]
	return out
}
