package usecase

import (
	"context"
	"strings"

	"AssetBrief/internal/domain/models"
	"AssetBrief/internal/domain/repository"
	"AssetBrief/internal/services/assemble"
	applogger "AssetBrief/pkg/logger"
	"AssetBrief/pkg/retry"
)

// Generator runs the two-pass draft/verify text pipeline. The draft pass must
// succeed; a failed verify pass degrades to the unreviewed draft rather than
// failing the request.
type Generator struct {
	draft   repository.Completer
	verify  repository.Completer
	logger  *applogger.Logger
	retries retry.Config
}

// NewGenerator creates a generation driver. verify may equal draft when no
// separate verifier model is configured.
func NewGenerator(draft, verify repository.Completer, l *applogger.Logger) *Generator {
	return &Generator{
		draft:   draft,
		verify:  verify,
		logger:  l,
		retries: retry.DefaultConfig(),
	}
}

// Generate produces a verified answer grounded on the given fragments.
func (g *Generator) Generate(ctx context.Context, task string, frags []models.ContextFragment) (*models.VerifiedAnswer, error) {
	contextBlock := assemble.Render(frags)
	refs := assemble.Refs(frags)

	draft, err := retry.DoVal(ctx, g.retries, func(ctx context.Context) (string, error) {
		return g.draft.Complete(ctx, analystSystemPrompt, draftPrompt(task, contextBlock))
	})
	if err != nil {
		return nil, &models.GenerationFailedError{Phase: "draft", Err: err}
	}
	draft = strings.TrimSpace(draft)

	verified, err := retry.DoVal(ctx, g.retries, func(ctx context.Context) (string, error) {
		return g.verify.Complete(ctx, verifierSystemPrompt, verifyPrompt(contextBlock, draft))
	})
	if err != nil {
		g.logger.Warn("verify pass failed, returning draft", applogger.Error(err))
		return &models.VerifiedAnswer{Text: draft, UsedFragments: refs, Verified: false}, nil
	}
	verified = strings.TrimSpace(verified)
	if verified == "" {
		verified = draft
	}

	return &models.VerifiedAnswer{Text: verified, UsedFragments: refs, Verified: true}, nil
}

// GenerateOnce runs only the draft pass. Background briefs use it; their
// narrative sources are long-lived documents that gain little from a second
// model call.
func (g *Generator) GenerateOnce(ctx context.Context, task string, frags []models.ContextFragment) (*models.VerifiedAnswer, error) {
	contextBlock := assemble.Render(frags)

	draft, err := retry.DoVal(ctx, g.retries, func(ctx context.Context) (string, error) {
		return g.draft.Complete(ctx, analystSystemPrompt, draftPrompt(task, contextBlock))
	})
	if err != nil {
		return nil, &models.GenerationFailedError{Phase: "draft", Err: err}
	}

	return &models.VerifiedAnswer{
		Text:          strings.TrimSpace(draft),
		UsedFragments: assemble.Refs(frags),
		Verified:      false,
	}, nil
}

// Citations extracts the URL-backed sources of a fragment list, deduplicated
// in first-seen order. Computed fragments carry synthetic refs and are skipped.
func Citations(frags []models.ContextFragment) []models.Citation {
	seen := make(map[string]bool, len(frags))
	out := make([]models.Citation, 0, len(frags))
	for _, f := range frags {
		if f.Pinned() || f.Ref == "" || seen[f.Ref] {
			continue
		}
		seen[f.Ref] = true
		out = append(out, models.Citation{Ref: f.Ref, Title: f.Title})
	}
	return out
}
