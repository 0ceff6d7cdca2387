package usecase

import (
	"context"

	"AssetBrief/internal/domain/models"
	"AssetBrief/internal/services/indicators"

	"golang.org/x/sync/errgroup"
)

// QA answers a free-form question about the asset over the request window.
// Unlike the overview, the question pipeline is all-or-nothing: an answer
// grounded on partial context would be misleading, so any provider failure
// fails the request.
func (w *Workflows) QA(ctx context.Context, req models.Request) (*models.QAResult, error) {
	fp := Fingerprint(req)
	key := cacheKey(fp, "qa")

	var cached models.QAResult
	if w.loadCached(ctx, key, &cached) {
		return &cached, nil
	}

	var (
		series models.PriceSeries
		news   []models.NewsItem
	)
	err := w.runStage(ctx, "qa_fetch", func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			series, err = w.prices.DailyPrices(ctx, req.Symbol, req.StartDate, req.EndDate)
			return err
		})
		g.Go(func() error {
			var err error
			news, err = w.news.Headlines(ctx, req.Symbol, req.StartDate, req.EndDate, w.cfg.NewsLimit)
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	ind, err := indicators.Compute(series)
	if err != nil {
		return nil, err
	}
	if news == nil {
		news = []models.NewsItem{}
	}

	var result *models.QAResult
	err = w.runStage(ctx, "qa_generate", func(ctx context.Context) error {
		frags := w.asm.Build(req.Symbol, series, &ind, news, nil)
		start, end := req.DateRange()
		answer, err := w.gen.Generate(ctx, qaTask(req.Symbol, start, end, req.Question), frags)
		if err != nil {
			return err
		}
		result = &models.QAResult{
			Indicators: ind,
			News:       news,
			Answer:     answer.Text,
			Citations:  Citations(frags),
			Unverified: !answer.Verified,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.storeCached(ctx, key, result)
	w.persist(ctx, req, fp, result)
	return result, nil
}
