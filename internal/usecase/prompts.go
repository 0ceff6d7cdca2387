package usecase

import (
	"fmt"

	"AssetBrief/internal/domain/models"
)

const (
	analystSystemPrompt = "You are a financial analyst. Answer using only the numbered context " +
		"provided. Be concise and factual. If the context does not cover the " +
		"question, say so instead of guessing. Never invent prices, dates, or events."

	verifierSystemPrompt = "You are a strict fact-checker. You receive a numbered context and a " +
		"draft answer. Remove or correct every claim in the draft that the context " +
		"does not support, keeping the rest as close to the original wording as " +
		"possible. Return only the corrected answer text."
)

func summaryTask(symbol, start, end string) string {
	return fmt.Sprintf(
		"Write a short summary (3-5 sentences) of how %s performed between %s and %s. "+
			"Cover the overall price move, the largest drawdown, and any notable news.",
		symbol, start, end,
	)
}

func qaTask(symbol, start, end, question string) string {
	return fmt.Sprintf(
		"Answer the following question about %s for the period %s to %s.\nQuestion: %s",
		symbol, start, end, question,
	)
}

func historyTask(symbol string) string {
	return fmt.Sprintf(
		"Write a brief background story of %s: what it is, where it came from, "+
			"and what it is known for. 4-6 sentences, neutral tone.",
		symbol,
	)
}

func draftPrompt(task, contextBlock string) string {
	return fmt.Sprintf("Context:\n%s\nTask: %s", contextBlock, task)
}

func verifyPrompt(contextBlock, draft string) string {
	return fmt.Sprintf("Context:\n%s\nDraft answer:\n%s", contextBlock, draft)
}

// fallbackSummary renders a deterministic numeric summary when generation is
// unavailable. Only the legacy combined overview uses it.
func fallbackSummary(symbol, start, end string, ind models.Indicators) string {
	direction := "rose"
	if ind.ReturnPct < 0 {
		direction = "fell"
	} else if ind.ReturnPct == 0 {
		direction = "was flat"
	}
	return fmt.Sprintf(
		"%s %s %.2f%% between %s and %s, moving from %.4f to %.4f with a maximum drawdown of %.2f%%.",
		symbol, direction, abs(ind.ReturnPct), start, end, ind.StartPrice, ind.EndPrice, ind.MaxDrawdownPct,
	)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
