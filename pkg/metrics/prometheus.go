package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stageDuration  *prometheus.HistogramVec
	stageErrors    *prometheus.CounterVec
	providerErrors *prometheus.CounterVec
	llmTokens      *prometheus.CounterVec
	cacheEvents    *prometheus.CounterVec
	stagePushes    *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assetbrief_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		stageErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetbrief_stage_errors_total",
				Help: "Total pipeline stage failures by error code",
			},
			[]string{"stage", "code"},
		),
		providerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetbrief_provider_errors_total",
				Help: "Total upstream provider failures",
			},
			[]string{"provider"},
		),
		llmTokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetbrief_llm_tokens_total",
				Help: "Estimated tokens exchanged with the language model",
			},
			[]string{"phase", "direction"},
		),
		cacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetbrief_result_cache_events_total",
				Help: "Result cache hits and misses",
			},
			[]string{"outcome"},
		),
		stagePushes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetbrief_stream_stage_pushes_total",
				Help: "Stage frames pushed over the overview stream",
			},
			[]string{"stage"},
		),
	}
}

// RecordStageDuration records the duration of a pipeline stage in seconds.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordStageError records a stage failure.
func (r *Recorder) RecordStageError(stage, code string) {
	r.stageErrors.WithLabelValues(stage, code).Inc()
}

// RecordProviderError records an upstream provider failure.
func (r *Recorder) RecordProviderError(provider string) {
	r.providerErrors.WithLabelValues(provider).Inc()
}

// RecordLLMTokens records estimated token usage for a generation phase.
func (r *Recorder) RecordLLMTokens(phase string, prompt, completion int) {
	r.llmTokens.WithLabelValues(phase, "prompt").Add(float64(prompt))
	r.llmTokens.WithLabelValues(phase, "completion").Add(float64(completion))
}

// RecordCacheEvent records a result cache hit or miss.
func (r *Recorder) RecordCacheEvent(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheEvents.WithLabelValues(outcome).Inc()
}

// RecordStagePush records a staged-delivery frame push.
func (r *Recorder) RecordStagePush(stage string) {
	r.stagePushes.WithLabelValues(stage).Inc()
}
