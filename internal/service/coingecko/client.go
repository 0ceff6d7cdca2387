package coingecko

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"AssetBrief/internal/domain/models"
	xhttp "AssetBrief/pkg/http"
	applogger "AssetBrief/pkg/logger"
	"AssetBrief/pkg/retry"
	"AssetBrief/pkg/util"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Client fetches daily close prices from the CoinGecko market chart API.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
	coinIDs map[string]string
	logger  *applogger.Logger
	retry   retry.Config
}

// Config holds CoinGecko client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// CoinIDs maps upper-case symbols to CoinGecko coin identifiers.
	CoinIDs map[string]string
}

// NewClient creates a CoinGecko price provider.
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
		coinIDs: cfg.CoinIDs,
		logger:  l,
		retry:   retry.DefaultConfig(),
	}
}

type marketChartResponse struct {
	Prices [][]float64 `json:"prices"`
}

// DailyPrices returns one close per calendar day over [from, to], ascending.
// When the API reports several points for a day, the last one wins.
func (c *Client) DailyPrices(ctx context.Context, symbol string, from, to time.Time) (models.PriceSeries, error) {
	coinID, ok := c.coinIDs[symbol]
	if !ok {
		return nil, models.NewValidationError("symbol", fmt.Sprintf("unsupported symbol %q", symbol))
	}

	// The range endpoint is exclusive of the last partial day, so extend
	// the upper bound to the end of the requested date.
	rangeEnd := to.Add(24*time.Hour - time.Second)

	opts := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/coins/%s/market_chart/range", c.baseURL, coinID),
		QueryParams: map[string][]string{
			"vs_currency": {"usd"},
			"from":        {strconv.FormatInt(from.Unix(), 10)},
			"to":          {strconv.FormatInt(rangeEnd.Unix(), 10)},
		},
	}
	if c.apiKey != "" {
		opts.Headers = map[string]string{"x-cg-demo-api-key": c.apiKey}
	}

	var resp marketChartResponse
	cfg := c.retry
	cfg.OnRetry = func(attempt int, err error) {
		c.logger.Warn("coingecko retry",
			applogger.String("symbol", symbol),
			applogger.Int("attempt", attempt),
			applogger.Error(err),
		)
	}
	_, err := retry.DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		resp = marketChartResponse{}
		return struct{}{}, c.http.SendAndParse(ctx, opts, &resp)
	})
	if err != nil {
		return nil, &models.ProviderUnavailableError{Provider: "coingecko", Err: err}
	}

	return collapseDaily(resp.Prices, from, to), nil
}

// collapseDaily reduces raw [epoch_ms, price] pairs to one point per day.
func collapseDaily(raw [][]float64, from, to time.Time) models.PriceSeries {
	fromDay := util.FormatDate(from)
	toDay := util.FormatDate(to)

	byDay := make(map[string]float64)
	for _, pair := range raw {
		if len(pair) != 2 {
			continue
		}
		day := util.DayFromUnixMilli(int64(pair[0]))
		if day < fromDay || day > toDay {
			continue
		}
		byDay[day] = pair[1]
	}

	series := make(models.PriceSeries, 0, len(byDay))
	for day, price := range byDay {
		series = append(series, models.PricePoint{Date: day, Price: price})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}
