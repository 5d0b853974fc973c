// Package openai implements the service.Analyzer and service.Transcriber
// interfaces using the OpenAI API: chat completions in JSON mode for
// transcript analysis and Whisper for speech-to-text.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openaigo "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/praaatap/vibeedit-backend/internal/config"
	"github.com/praaatap/vibeedit-backend/internal/service"
)

const providerName = "openai"

// finishReasonContentFilter is the finish_reason the API reports when the
// response was withheld by content moderation.
const finishReasonContentFilter = "content_filter"

// Analyzer implements service.Analyzer via chat completions. The SDK
// retries rate limits and connection errors internally, so there is no
// retry loop here.
type Analyzer struct {
	logger          *slog.Logger
	client          openaigo.Client
	model           string
	maxOutputTokens int64
}

var _ service.Analyzer = (*Analyzer)(nil)

// NewAnalyzer creates an OpenAI-backed Analyzer from the AI configuration.
func NewAnalyzer(cfg config.AIConfig, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", service.ErrInvalidProviderConfig)
	}
	if cfg.OpenAIModel == "" {
		return nil, fmt.Errorf("%w: openai model name cannot be empty", service.ErrInvalidProviderConfig)
	}

	return &Analyzer{
		logger:          logger.With(slog.String("component", "openai_analyzer")),
		client:          openaigo.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)),
		model:           cfg.OpenAIModel,
		maxOutputTokens: int64(cfg.MaxOutputTokens),
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

	raw, err := a.complete(ctx, service.SystemPrompt(req.CreatorSupportMode), prompt)
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

	raw, err := a.complete(ctx, service.SystemPrompt(false), prompt)
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

	raw, err := a.complete(ctx, service.SystemPrompt(req.CreatorSupportMode), prompt)
	if err != nil {
		return nil, err
	}
	return service.DecodeAnalysis(raw)
}

// complete performs a single chat completion in JSON mode and returns the
// raw message content.
func (a *Analyzer) complete(ctx context.Context, system, prompt string) (string, error) {
	a.logger.DebugContext(ctx, "making openai chat completion call",
		"model", a.model,
		"prompt_length", len(prompt))

	resp, err := a.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model: shared.ChatModel(a.model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(system),
			openaigo.UserMessage(prompt),
		},
		MaxTokens:   openaigo.Int(a.maxOutputTokens),
		Temperature: openaigo.Float(0.7),
		ResponseFormat: openaigo.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "openai chat completion failed", "error", err)
		return "", fmt.Errorf("%w: %v", service.ErrAnalysisFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", service.ErrInvalidResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == finishReasonContentFilter {
		return "", fmt.Errorf("%w: completion withheld by content filter", service.ErrContentBlocked)
	}
	if choice.Message.Content == "" {
		return "", fmt.Errorf("%w: empty message content", service.ErrInvalidResponse)
	}

	a.logger.DebugContext(ctx, "openai chat completion succeeded",
		"finish_reason", choice.FinishReason,
		"response_length", len(choice.Message.Content))

	return choice.Message.Content, nil
}
