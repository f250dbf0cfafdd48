package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"outreach/internal/config"
	"outreach/internal/logging"
	"outreach/internal/metrics"
)

// ErrEmptyResponse is returned when the service answers without any choice.
var ErrEmptyResponse = errors.New("llm returned no choices")

// OpenAI calls an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	limiter     *rate.Limiter
}

// New builds the client configured by cfg. Provider "none" (or an empty key)
// yields a nil Client, meaning no generation service is available.
func New(cfg config.LLMConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, nil
	case "openai":
	default:
		return nil, errors.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("llm provider openai needs an api key (OPENAI_API_KEY)")
	}
	return NewOpenAI(cfg), nil
}

func NewOpenAI(cfg config.LLMConfig) *OpenAI {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &retryTransport{
			next:        http.DefaultTransport,
			maxAttempts: maxAttempts,
			baseBackoff: time.Duration(cfg.BaseBackoffMS) * time.Millisecond,
		},
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		// retries are owned by retryTransport
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		limiter:     newLimiter(cfg.RPS, cfg.Burst),
	}
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (c *OpenAI) Generate(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	start := time.Now()
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	metrics.ObserveLLMDuration(start)
	if err != nil {
		metrics.LLMCalls.WithLabelValues("error").Inc()
		logging.Warn("llm_call_failed", map[string]any{"model": c.model, "error": err.Error()})
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		metrics.LLMCalls.WithLabelValues("empty").Inc()
		return "", ErrEmptyResponse
	}
	metrics.LLMCalls.WithLabelValues("ok").Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
