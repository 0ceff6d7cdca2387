package knowledge

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"AssetBrief/internal/domain/models"
	xhttp "AssetBrief/pkg/http"
	applogger "AssetBrief/pkg/logger"
	"AssetBrief/pkg/retry"
)

const (
	defaultWikiBaseURL = "https://en.wikipedia.org"
	defaultSerpBaseURL = "https://serpapi.com"
)

// Service gathers background documents about an asset from Wikipedia and a
// web search engine. Wikipedia comes first in the result; its failure is
// absorbed as long as the search engine delivered something.
type Service struct {
	http     *xhttp.Client
	wikiBase string
	serpBase string
	serpKey  string
	names    map[string]string
	logger   *applogger.Logger
	retry    retry.Config
}

// Config holds knowledge provider settings.
type Config struct {
	WikipediaBaseURL string
	SerpBaseURL      string
	SerpAPIKey       string
	Timeout          time.Duration
	// Names maps upper-case symbols to a human-readable asset name used in
	// search queries. Symbols with no entry fall back to the symbol itself.
	Names map[string]string
}

// NewService creates a knowledge provider.
func NewService(cfg Config, l *applogger.Logger) *Service {
	wikiBase := cfg.WikipediaBaseURL
	if wikiBase == "" {
		wikiBase = defaultWikiBaseURL
	}
	serpBase := cfg.SerpBaseURL
	if serpBase == "" {
		serpBase = defaultSerpBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		wikiBase: wikiBase,
		serpBase: serpBase,
		serpKey:  cfg.SerpAPIKey,
		names:    cfg.Names,
		logger:   l,
		retry:    retry.DefaultConfig(),
	}
}

// Background returns up to limit documents: at most one Wikipedia summary
// followed by web search snippets. It fails only when every source failed
// and nothing was collected.
func (s *Service) Background(ctx context.Context, symbol string, limit int) ([]models.KnowledgeSnippet, error) {
	if limit <= 0 {
		limit = 3
	}
	name := s.names[symbol]
	if name == "" {
		name = symbol
	}

	docs := make([]models.KnowledgeSnippet, 0, limit)
	var firstErr error

	wiki, err := s.wikipediaSummary(ctx, name)
	switch {
	case err != nil:
		firstErr = err
		s.logger.Warn("wikipedia lookup failed", applogger.String("symbol", symbol), applogger.Error(err))
	case wiki != nil:
		docs = append(docs, *wiki)
	}

	if s.serpKey != "" && len(docs) < limit {
		results, err := s.webSearch(ctx, name, limit-len(docs))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			s.logger.Warn("web search failed", applogger.String("symbol", symbol), applogger.Error(err))
		} else {
			docs = append(docs, results...)
		}
	}

	if len(docs) == 0 && firstErr != nil {
		return nil, &models.ProviderUnavailableError{Provider: "knowledge", Err: firstErr}
	}
	return docs, nil
}

// retryPolicy returns the shared retry config with a per-source warning hook.
func (s *Service) retryPolicy(source string) retry.Config {
	cfg := s.retry
	cfg.OnRetry = func(attempt int, err error) {
		s.logger.Warn(source+" retry", applogger.Int("attempt", attempt), applogger.Error(err))
	}
	return cfg
}

type wikiSearchResponse struct {
	Pages []struct {
		Key   string `json:"key"`
		Title string `json:"title"`
	} `json:"pages"`
}

type wikiSummaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Content struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

func (s *Service) wikipediaSummary(ctx context.Context, name string) (*models.KnowledgeSnippet, error) {
	searchOpts := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.wikiBase + "/w/rest.php/v1/search/page",
		QueryParams: map[string][]string{
			"q":     {name},
			"limit": {"1"},
		},
	}
	var search wikiSearchResponse
	err := retry.Do(ctx, s.retryPolicy("wikipedia"), func(ctx context.Context) error {
		search = wikiSearchResponse{}
		return s.http.SendAndParse(ctx, searchOpts, &search)
	})
	if err != nil {
		return nil, fmt.Errorf("wikipedia search: %w", err)
	}
	if len(search.Pages) == 0 {
		return nil, nil
	}

	key := search.Pages[0].Key
	summaryOpts := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.wikiBase + "/api/rest_v1/page/summary/" + url.PathEscape(key),
	}
	var summary wikiSummaryResponse
	err = retry.Do(ctx, s.retryPolicy("wikipedia"), func(ctx context.Context) error {
		summary = wikiSummaryResponse{}
		return s.http.SendAndParse(ctx, summaryOpts, &summary)
	})
	if err != nil {
		return nil, fmt.Errorf("wikipedia summary: %w", err)
	}
	if summary.Extract == "" {
		return nil, nil
	}

	pageURL := summary.Content.Desktop.Page
	if pageURL == "" {
		pageURL = s.wikiBase + "/wiki/" + key
	}
	return &models.KnowledgeSnippet{
		Title: summary.Title,
		URL:   pageURL,
		Text:  summary.Extract,
		Kind:  models.KnowledgeKindEncyclopedia,
	}, nil
}

type serpResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

func (s *Service) webSearch(ctx context.Context, name string, limit int) ([]models.KnowledgeSnippet, error) {
	opts := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.serpBase + "/search",
		QueryParams: map[string][]string{
			"engine":  {"google"},
			"q":       {name + " cryptocurrency"},
			"api_key": {s.serpKey},
		},
	}

	var resp serpResponse
	err := retry.Do(ctx, s.retryPolicy("serpapi"), func(ctx context.Context) error {
		resp = serpResponse{}
		return s.http.SendAndParse(ctx, opts, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	docs := make([]models.KnowledgeSnippet, 0, limit)
	for _, r := range resp.OrganicResults {
		if r.Link == "" || r.Snippet == "" {
			continue
		}
		docs = append(docs, models.KnowledgeSnippet{
			Title: r.Title,
			URL:   r.Link,
			Text:  r.Snippet,
			Kind:  models.KnowledgeKindWeb,
		})
		if len(docs) == limit {
			break
		}
	}
	return docs, nil
}
