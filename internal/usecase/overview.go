package usecase

import (
	"context"

	"AssetBrief/internal/domain/models"
	"AssetBrief/internal/services/indicators"
	applogger "AssetBrief/pkg/logger"
)

// Market returns the chart and computed indicators for the request window.
func (w *Workflows) Market(ctx context.Context, req models.Request) (*models.MarketResult, error) {
	fp := Fingerprint(req)
	key := cacheKey(fp, "market")

	var cached models.MarketResult
	if w.loadCached(ctx, key, &cached) {
		return &cached, nil
	}

	var result *models.MarketResult
	err := w.runStage(ctx, "market", func(ctx context.Context) error {
		series, err := w.prices.DailyPrices(ctx, req.Symbol, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		ind, err := indicators.Compute(series)
		if err != nil {
			return err
		}
		start, end := req.DateRange()
		result = &models.MarketResult{
			StartDate:  start,
			EndDate:    end,
			Chart:      series,
			Indicators: ind,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.storeCached(ctx, key, result)
	return result, nil
}

// News returns recent headlines for the request window.
func (w *Workflows) News(ctx context.Context, req models.Request) (*models.NewsResult, error) {
	fp := Fingerprint(req)
	key := cacheKey(fp, "news")

	var cached models.NewsResult
	if w.loadCached(ctx, key, &cached) {
		return &cached, nil
	}

	var result *models.NewsResult
	err := w.runStage(ctx, "news", func(ctx context.Context) error {
		items, err := w.news.Headlines(ctx, req.Symbol, req.StartDate, req.EndDate, w.cfg.NewsLimit)
		if err != nil {
			return err
		}
		if items == nil {
			items = []models.NewsItem{}
		}
		result = &models.NewsResult{News: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.storeCached(ctx, key, result)
	return result, nil
}

// SummaryText generates the narrative performance summary. Headline failures
// degrade to an indicators-only summary; price or generation failures fail
// the request.
func (w *Workflows) SummaryText(ctx context.Context, req models.Request) (*models.SummaryResult, error) {
	fp := Fingerprint(req)
	key := cacheKey(fp, "summary_text")

	var cached models.SummaryResult
	if w.loadCached(ctx, key, &cached) {
		return &cached, nil
	}

	market, err := w.Market(ctx, req)
	if err != nil {
		return nil, err
	}
	news := w.newsBestEffort(ctx, req)

	var result *models.SummaryResult
	err = w.runStage(ctx, "summary", func(ctx context.Context) error {
		answer, err := w.generateSummary(ctx, req, market, news)
		if err != nil {
			return err
		}
		result = &models.SummaryResult{Summary: answer.Text, Unverified: !answer.Verified}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.storeCached(ctx, key, result)
	return result, nil
}

// Overview is the combined single-call endpoint: chart, indicators, news, and
// summary in one response. A generation failure degrades to the deterministic
// numeric summary instead of failing the whole request.
func (w *Workflows) Overview(ctx context.Context, req models.Request) (*models.OverviewResult, error) {
	fp := Fingerprint(req)
	key := cacheKey(fp, "overview")

	var cached models.OverviewResult
	if w.loadCached(ctx, key, &cached) {
		return &cached, nil
	}

	market, err := w.Market(ctx, req)
	if err != nil {
		return nil, err
	}
	news := w.newsBestEffort(ctx, req)

	result := &models.OverviewResult{
		StartDate:  market.StartDate,
		EndDate:    market.EndDate,
		Chart:      market.Chart,
		Indicators: market.Indicators,
		News:       news,
	}

	err = w.runStage(ctx, "summary", func(ctx context.Context) error {
		answer, err := w.generateSummary(ctx, req, market, news)
		if err != nil {
			return err
		}
		result.Summary = answer.Text
		result.Unverified = !answer.Verified
		return nil
	})
	if err != nil {
		result.Summary = fallbackSummary(req.Symbol, market.StartDate, market.EndDate, market.Indicators)
		result.SummaryError = models.ToStageError(err)
		w.logger.Warn("summary generation failed, using numeric fallback",
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
	}

	// A degraded overview is served but never cached or recorded; the next
	// identical request retries the summary.
	if result.SummaryError == nil {
		w.storeCached(ctx, key, result)
		w.persist(ctx, req, fp, result)
	}
	return result, nil
}

// StageEmitter receives staged-delivery frames. A non-nil return aborts the
// stream; remaining work is discarded.
type StageEmitter func(frame models.StageFrame) error

// OverviewStream runs the overview pipeline and pushes each stage as soon as
// it completes: market, news, then summary. The summary frame goes out last
// because generation consumes the headline list. Stage failures are delivered
// as error frames without voiding earlier stages.
func (w *Workflows) OverviewStream(ctx context.Context, req models.Request, emit StageEmitter) error {
	push := func(frame models.StageFrame) error {
		if w.metrics != nil {
			w.metrics.RecordStagePush(string(frame.Stage))
		}
		return emit(frame)
	}

	market, marketErr := w.Market(ctx, req)
	frame := models.StageFrame{Stage: models.StageMarket}
	if marketErr != nil {
		frame.Err = models.ToStageError(marketErr)
	} else {
		frame.Data = market
	}
	if err := push(frame); err != nil {
		return err
	}

	newsResult, newsErr := w.News(ctx, req)
	frame = models.StageFrame{Stage: models.StageNews}
	var news []models.NewsItem
	if newsErr != nil {
		frame.Err = models.ToStageError(newsErr)
	} else {
		news = newsResult.News
		frame.Data = newsResult
	}
	if err := push(frame); err != nil {
		return err
	}

	frame = models.StageFrame{Stage: models.StageSummary}
	if marketErr != nil {
		frame.Err = models.ToStageError(marketErr)
	} else {
		err := w.runStage(ctx, "summary", func(ctx context.Context) error {
			answer, err := w.generateSummary(ctx, req, market, news)
			if err != nil {
				return err
			}
			frame.Data = &models.SummaryResult{Summary: answer.Text, Unverified: !answer.Verified}
			return nil
		})
		if err != nil {
			frame.Err = models.ToStageError(err)
		}
	}
	if err := push(frame); err != nil {
		return err
	}

	return push(models.StageFrame{Stage: models.StageDone})
}

// newsBestEffort fetches headlines and absorbs failures into an empty list.
func (w *Workflows) newsBestEffort(ctx context.Context, req models.Request) []models.NewsItem {
	result, err := w.News(ctx, req)
	if err != nil {
		w.logger.Warn("news fetch failed, continuing without headlines",
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
		return []models.NewsItem{}
	}
	return result.News
}

// generateSummary runs the draft/verify pipeline over indicators and news.
func (w *Workflows) generateSummary(ctx context.Context, req models.Request, market *models.MarketResult, news []models.NewsItem) (*models.VerifiedAnswer, error) {
	frags := w.asm.Build(req.Symbol, market.Chart, &market.Indicators, news, nil)
	return w.gen.Generate(ctx, summaryTask(req.Symbol, market.StartDate, market.EndDate), frags)
}
