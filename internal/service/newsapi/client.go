package newsapi

import (
	"context"
	"strconv"
	"time"

	"AssetBrief/internal/domain/models"
	xhttp "AssetBrief/pkg/http"
	applogger "AssetBrief/pkg/logger"
	"AssetBrief/pkg/retry"
	"AssetBrief/pkg/util"
)

const defaultBaseURL = "https://newsapi.org/v2"

// Client fetches recent headlines from the NewsAPI everything endpoint.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
	queries map[string]string
	logger  *applogger.Logger
	retry   retry.Config
}

// Config holds NewsAPI client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Queries maps upper-case symbols to their search query. Symbols with no
	// entry fall back to the symbol itself.
	Queries map[string]string
}

// NewClient creates a NewsAPI headline provider.
func NewClient(cfg Config, l *applogger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		queries: cfg.Queries,
		logger:  l,
		retry:   retry.DefaultConfig(),
	}
}

type everythingResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// Headlines fetches up to limit articles for the symbol within [from, to],
// deduplicated by URL, relevancy-ordered as the API returns them.
func (c *Client) Headlines(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.NewsItem, error) {
	query, ok := c.queries[symbol]
	if !ok || query == "" {
		query = symbol
	}
	if limit <= 0 {
		limit = 5
	}

	opts := &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.baseURL + "/everything",
		Headers: map[string]string{"X-Api-Key": c.apiKey},
		QueryParams: map[string][]string{
			"q":        {query},
			"language": {"en"},
			"sortBy":   {"relevancy"},
			"from":     {util.FormatDate(from)},
			"to":       {util.FormatDate(to)},
			// Over-fetch to survive URL dedupe.
			"pageSize": {strconv.Itoa(limit * 2)},
		},
	}

	var resp everythingResponse
	cfg := c.retry
	cfg.OnRetry = func(attempt int, err error) {
		c.logger.Warn("newsapi retry",
			applogger.String("symbol", symbol),
			applogger.Int("attempt", attempt),
			applogger.Error(err),
		)
	}
	_, err := retry.DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		resp = everythingResponse{}
		return struct{}{}, c.http.SendAndParse(ctx, opts, &resp)
	})
	if err != nil {
		return nil, &models.ProviderUnavailableError{Provider: "newsapi", Err: err}
	}

	seen := make(map[string]bool, len(resp.Articles))
	items := make([]models.NewsItem, 0, limit)
	for _, a := range resp.Articles {
		if a.URL == "" || seen[a.URL] {
			continue
		}
		seen[a.URL] = true
		items = append(items, models.NewsItem{
			Title:       a.Title,
			Snippet:     a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}
