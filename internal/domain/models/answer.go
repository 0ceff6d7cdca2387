package models

// DraftAnswer is the first-pass generation output together with the refs of
// the fragments it was grounded on.
type DraftAnswer struct {
	Text          string   `json:"text"`
	UsedFragments []string `json:"used_fragments"`
}

// VerifiedAnswer is the second-pass output. Verified is false when the verify
// call failed after retries and the draft was kept as-is.
type VerifiedAnswer struct {
	Text          string   `json:"text"`
	UsedFragments []string `json:"used_fragments"`
	Verified      bool     `json:"verified"`
}

// StageError is the structured per-stage failure carried inside partial
// responses, so already-delivered stages stay valid.
type StageError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// MarketResult is the chart + indicators stage payload.
type MarketResult struct {
	StartDate  string      `json:"start_date"`
	EndDate    string      `json:"end_date"`
	Chart      PriceSeries `json:"chart"`
	Indicators Indicators  `json:"indicators"`
}

// SummaryResult is the generated-summary stage payload.
type SummaryResult struct {
	Summary    string `json:"summary"`
	Unverified bool   `json:"unverified,omitempty"`
}

// NewsResult is the news stage payload.
type NewsResult struct {
	News []NewsItem `json:"news"`
}

// OverviewResult is the legacy combined overview payload: the staged calls
// merged into one response. SummaryError is set when the generation stage
// failed and Summary holds the deterministic numeric fallback.
type OverviewResult struct {
	StartDate    string      `json:"start_date"`
	EndDate      string      `json:"end_date"`
	Chart        PriceSeries `json:"chart"`
	Indicators   Indicators  `json:"indicators"`
	News         []NewsItem  `json:"news"`
	Summary      string      `json:"summary"`
	Unverified   bool        `json:"summary_unverified,omitempty"`
	SummaryError *StageError `json:"summary_error,omitempty"`
}

// QAResult is the Ask-AI response: answer plus its citation list.
type QAResult struct {
	Indicators Indicators `json:"indicators"`
	News       []NewsItem `json:"news"`
	Answer     string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	Unverified bool       `json:"unverified,omitempty"`
}

// HistoryResult is the background-brief response. Chart and narrative are
// fetched independently; each section carries its own error so one failing
// does not void the other.
type HistoryResult struct {
	Chart          PriceSeries        `json:"chart"`
	Story          string             `json:"history_story"`
	Sources        []KnowledgeSnippet `json:"sources"`
	Citations      []Citation         `json:"citations"`
	ChartError     *StageError        `json:"chart_error,omitempty"`
	NarrativeError *StageError        `json:"narrative_error,omitempty"`
}

// StageKind names a staged-delivery frame on the overview stream.
type StageKind string

const (
	StageMarket  StageKind = "market"
	StageSummary StageKind = "summary"
	StageNews    StageKind = "news"
	StageDone    StageKind = "done"
)

// StageFrame is one staged-delivery push: a stage tag plus either its payload
// or its error.
type StageFrame struct {
	Stage StageKind   `json:"stage"`
	Data  interface{} `json:"data,omitempty"`
	Err   *StageError `json:"error,omitempty"`
}
