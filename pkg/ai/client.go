package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gradewise",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of model generation requests",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"model"})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradewise",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of model generation requests that failed after retries",
	}, []string{"model"})

	generationRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradewise",
		Subsystem: "ai",
		Name:      "generation_retries_total",
		Help:      "Number of retried model generation attempts",
	}, []string{"model"})
)

// ClientConfig defines configuration for one model client. Clients are cheap
// to construct and are built per request when callers supply their own API
// key, never held as process-wide singletons.
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float32
	MaxTokens      int
	RequestTimeout time.Duration
	Retry          RetryPolicy
	Logger         zerolog.Logger
}

// Client implements ModelClient against any OpenAI-compatible chat
// completions endpoint.
type Client struct {
	api    *openai.Client
	cfg    ClientConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewClient builds a model client from the provided configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("model api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	// Generation over whole-exam prompts can take minutes.
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 3 * time.Minute
	}

	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultRetryPolicy()
	}
	cfg.Retry = cfg.Retry.normalized()

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	apiConfig.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}

	return &Client{
		api:    openai.NewClientWithConfig(apiConfig),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/gradewise/gradewise-api/pkg/ai/client"),
		logger: logger.With().Str("component", "model_client").Logger(),
	}, nil
}

// Generate sends a plain text prompt and returns the raw completion text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	message := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	}
	return c.complete(ctx, message)
}

// GenerateWithImages sends a prompt together with one or more images, for
// exams submitted as photographs. Image URLs may be https links or base64
// data URLs.
func (c *Client) GenerateWithImages(ctx context.Context, prompt string, imageURLs []string) (string, error) {
	if len(imageURLs) == 0 {
		return c.Generate(ctx, prompt)
	}

	parts := make([]openai.ChatMessagePart, 0, len(imageURLs)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt,
	})
	for _, url := range imageURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: url},
		})
	}

	message := openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	}
	return c.complete(ctx, message)
}

func (c *Client) complete(parent context.Context, message openai.ChatCompletionMessage) (string, error) {
	ctx, span := c.tracer.Start(parent, "ai.generate", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages:    []openai.ChatCompletionMessage{message},
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			generationRetries.WithLabelValues(c.cfg.Model).Inc()
			if err := waitFor(ctx, c.cfg.Retry.Delay(attempt)); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
			}
		}

		start := time.Now()
		resp, err := c.api.CreateChatCompletion(ctx, request)
		generationDuration.WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())
		if err != nil {
			lastErr = err
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("model generation attempt failed")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = ErrNoChoices
			continue
		}

		span.SetAttributes(attribute.Int("ai.attempts", attempt+1))
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}

	generationFailures.WithLabelValues(c.cfg.Model).Inc()
	err := fmt.Errorf("%w after %d attempts: %v", ErrGenerationFailed, c.cfg.Retry.MaxAttempts, lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return "", err
}

func waitFor(ctx context.Context, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
