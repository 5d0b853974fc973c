package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/praaatap/vibeedit-backend/internal/config"
	"github.com/praaatap/vibeedit-backend/internal/service"
	"google.golang.org/genai"
)

const providerName = "gemini"

// Defaults applied when the retry configuration is unusable.
const (
	defaultMaxRetries        = 3
	defaultRetryDelaySeconds = 2
)

// Analyzer implements the service.Analyzer interface on top of the Gemini
// API, requesting JSON output via the response MIME type so the model does
// not wrap its answer in prose.
type Analyzer struct {
	logger *slog.Logger
	client *genai.Client
	model  string

	maxOutputTokens int32
	maxRetries      int
	retryDelay      time.Duration
}

var _ service.Analyzer = (*Analyzer)(nil)

// NewAnalyzer creates a Gemini-backed Analyzer from the AI configuration.
// It validates the Gemini-specific settings and establishes the API client.
func NewAnalyzer(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", service.ErrInvalidProviderConfig)
	}
	if cfg.GeminiModel == "" {
		return nil, fmt.Errorf("%w: gemini model name cannot be empty", service.ErrInvalidProviderConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v",
			service.ErrInvalidProviderConfig, err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		logger.Warn("invalid max retries value, using default",
			"max_retries", cfg.MaxRetries, "default", defaultMaxRetries)
		maxRetries = defaultMaxRetries
	}
	retryDelaySeconds := cfg.RetryDelaySeconds
	if retryDelaySeconds < 1 {
		logger.Warn("invalid retry delay value, using default",
			"retry_delay_seconds", cfg.RetryDelaySeconds, "default", defaultRetryDelaySeconds)
		retryDelaySeconds = defaultRetryDelaySeconds
	}

	return &Analyzer{
		logger:          logger.With(slog.String("component", "gemini_analyzer")),
		client:          client,
		model:           cfg.GeminiModel,
		maxOutputTokens: int32(cfg.MaxOutputTokens),
		maxRetries:      maxRetries,
		retryDelay:      time.Duration(retryDelaySeconds) * time.Second,
	}, nil
}

// Name identifies this provider.
func (a *Analyzer) Name() string {
	return providerName
}

// AnalyzeTranscript suggests clips for the requested platform and tone.
func (a *Analyzer) AnalyzeTranscript(ctx context.Context, req service.AnalysisRequest) (*service.Analysis, error) {
	prompt, err := service.AnalysisPrompt(req)
	if err != nil {
		return nil, err
	}

	raw, err := a.generateWithRetry(ctx, service.SystemPrompt(req.CreatorSupportMode), prompt)
	if err != nil {
		return nil, err
	}
	return service.DecodeAnalysis(raw)
}

// DetectEmotions labels transcript segments with emotions.
func (a *Analyzer) DetectEmotions(ctx context.Context, transcript string, includeTimestamps bool) (*service.EmotionReport, error) {
	prompt, err := service.EmotionsPrompt(transcript, includeTimestamps)
	if err != nil {
		return nil, err
	}

	raw, err := a.generateWithRetry(ctx, service.SystemPrompt(false), prompt)
	if err != nil {
		return nil, err
	}
	return service.DecodeEmotionReport(raw)
}

// SuggestClips is AnalyzeTranscript steered by the creator's custom prompt.
func (a *Analyzer) SuggestClips(ctx context.Context, req service.AnalysisRequest) (*service.Analysis, error) {
	prompt, err := service.ClipsPrompt(req)
	if err != nil {
		return nil, err
	}

	raw, err := a.generateWithRetry(ctx, service.SystemPrompt(req.CreatorSupportMode), prompt)
	if err != nil {
		return nil, err
	}
	return service.DecodeAnalysis(raw)
}

// generateWithRetry calls the Gemini API with exponential backoff and jitter
// between attempts. Permanent failures (safety blocks, malformed responses)
// are returned immediately; everything else is treated as transient.
func (a *Analyzer) generateWithRetry(ctx context.Context, system, prompt string) (string, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	attempt := 0
	for attempt <= a.maxRetries {
		attemptNum := attempt + 1
		a.logger.InfoContext(ctx, "making gemini API call",
			"attempt", attemptNum,
			"max_attempts", a.maxRetries+1,
			"model", a.model)

		raw, err := a.generate(ctx, system, prompt)
		if err == nil {
			a.logger.InfoContext(ctx, "gemini API call succeeded",
				"attempt", attemptNum,
				"response_length", len(raw))
			return raw, nil
		}

		a.logger.ErrorContext(ctx, "gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		if errors.Is(err, service.ErrContentBlocked) || errors.Is(err, service.ErrInvalidResponse) {
			return "", err
		}
		if attempt >= a.maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				service.ErrTransientFailure, a.maxRetries)
		}

		// delay = base * 2^attempt * jitter, jitter in [0.5, 1.0)
		backoffSeconds := a.retryDelay.Seconds() * math.Pow(2, float64(attempt))
		jitter := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitter * float64(time.Second))

		a.logger.InfoContext(ctx, "retrying gemini API call after delay",
			"attempt", attemptNum,
			"delay_seconds", delay.Seconds())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", service.ErrTransientFailure, ctx.Err())
		}

		attempt++
	}

	return "", fmt.Errorf("%w: failed after %d attempts", service.ErrTransientFailure, attempt)
}

// generate performs a single GenerateContent call in JSON mode.
func (a *Analyzer) generate(ctx context.Context, system, prompt string) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		MaxOutputTokens:   a.maxOutputTokens,
		Temperature:       genai.Ptr(float32(0.7)),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini API call: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", service.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: generation stopped by safety filters", service.ErrContentBlocked)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty content in response", service.ErrInvalidResponse)
	}
	return text, nil
}
