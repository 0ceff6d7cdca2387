package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AssetBrief/internal/domain/repository"
	applogger "AssetBrief/pkg/logger"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Service issues single chat completions against the OpenAI API. Retries are
// the caller's concern; the underlying client does none of its own.
type Service struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
	timeout     time.Duration
	phase       string
	logger      *applogger.Logger
	metrics     repository.Metrics
}

// Config holds completion settings for one generation phase.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// Phase labels token metrics, e.g. "draft" or "verify".
	Phase string
}

// NewService creates a completion service.
func NewService(cfg Config, l *applogger.Logger, m repository.Metrics) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	phase := cfg.Phase
	if phase == "" {
		phase = "draft"
	}
	return &Service{
		client:      openai.NewClient(option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxTokens),
		timeout:     timeout,
		phase:       phase,
		logger:      l,
		metrics:     m,
	}
}

// Complete sends a system+user prompt pair and returns the model's text.
func (s *Service) Complete(ctx context.Context, system, prompt string) (string, error) {
	if s.model == "" {
		return "", errors.New("openai: model not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(s.temperature),
	}
	if s.maxTokens > 0 {
		params.MaxTokens = openai.Int(s.maxTokens)
	}

	start := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty response")
	}

	if s.metrics != nil {
		s.metrics.RecordLLMTokens(s.phase, int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens))
	}
	s.logger.Debug("chat completion",
		applogger.String("model", s.model),
		applogger.String("phase", s.phase),
		applogger.Int64("prompt_tokens", resp.Usage.PromptTokens),
		applogger.Int64("completion_tokens", resp.Usage.CompletionTokens),
		applogger.Duration("latency_ms", time.Since(start)),
	)

	return resp.Choices[0].Message.Content, nil
}
