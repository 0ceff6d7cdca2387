package usecase

import (
	"context"

	"AssetBrief/internal/domain/models"

	"golang.org/x/sync/errgroup"
)

// History builds the background brief: a long-range chart and a narrative
// origin story. The two sections are fetched concurrently and fail
// independently; one failing never voids the other.
func (w *Workflows) History(ctx context.Context, req models.Request) (*models.HistoryResult, error) {
	fp := Fingerprint(req)
	key := cacheKey(fp, "history")

	var cached models.HistoryResult
	if w.loadCached(ctx, key, &cached) {
		return &cached, nil
	}

	var (
		series    models.PriceSeries
		seriesErr error
		docs      []models.KnowledgeSnippet
		docsErr   error
	)

	// errgroup for the join only; errors stay per-section.
	var g errgroup.Group
	g.Go(func() error {
		seriesErr = w.runStage(ctx, "history_chart", func(ctx context.Context) error {
			var err error
			series, err = w.prices.DailyPrices(ctx, req.Symbol, req.StartDate, req.EndDate)
			return err
		})
		return nil
	})
	g.Go(func() error {
		docsErr = w.runStage(ctx, "history_docs", func(ctx context.Context) error {
			var err error
			docs, err = w.knowledge.Background(ctx, req.Symbol, w.cfg.KnowledgeLimit)
			return err
		})
		return nil
	})
	_ = g.Wait()

	result := &models.HistoryResult{
		Sources:   []models.KnowledgeSnippet{},
		Citations: []models.Citation{},
	}

	if seriesErr != nil {
		result.ChartError = models.ToStageError(seriesErr)
	} else {
		result.Chart = series
	}

	switch {
	case docsErr != nil:
		result.NarrativeError = models.ToStageError(docsErr)
	case len(docs) == 0:
		result.NarrativeError = models.ToStageError(
			&models.ProviderUnavailableError{Provider: "knowledge", Err: errNoBackground},
		)
	default:
		err := w.runStage(ctx, "history_story", func(ctx context.Context) error {
			frags := w.asm.Build(req.Symbol, nil, nil, nil, docs)
			answer, err := w.gen.GenerateOnce(ctx, historyTask(req.Symbol), frags)
			if err != nil {
				return err
			}
			result.Story = answer.Text
			result.Sources = docs
			result.Citations = Citations(frags)
			return nil
		})
		if err != nil {
			result.NarrativeError = models.ToStageError(err)
		}
	}

	// Nothing succeeded: surface the chart failure instead of an empty shell.
	if result.ChartError != nil && result.NarrativeError != nil {
		return nil, seriesErr
	}

	// A partial brief is served but never cached or recorded; the next
	// identical request retries the failed section.
	if result.ChartError == nil && result.NarrativeError == nil {
		w.storeCached(ctx, key, result)
		w.persist(ctx, req, fp, result)
	}
	return result, nil
}

var errNoBackground = &noBackgroundError{}

type noBackgroundError struct{}

func (*noBackgroundError) Error() string { return "no background documents found" }
