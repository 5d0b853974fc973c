// Package anthropic implements the service.Analyzer interface using the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	anthropicgo "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/praaatap/vibeedit-backend/internal/config"
	"github.com/praaatap/vibeedit-backend/internal/service"
)

const providerName = "anthropic"

// Analyzer implements service.Analyzer via the Messages API. Rate limits
// and connection errors are retried inside the SDK.
type Analyzer struct {
	logger          *slog.Logger
	client          anthropicgo.Client
	model           string
	maxOutputTokens int64
}

var _ service.Analyzer = (*Analyzer)(nil)

// NewAnalyzer creates a Claude-backed Analyzer from the AI configuration.
func NewAnalyzer(cfg config.AIConfig, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key cannot be empty", service.ErrInvalidProviderConfig)
	}
	if cfg.AnthropicModel == "" {
		return nil, fmt.Errorf("%w: anthropic model name cannot be empty", service.ErrInvalidProviderConfig)
	}

	return &Analyzer{
		logger:          logger.With(slog.String("component", "anthropic_analyzer")),
		client:          anthropicgo.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:           cfg.AnthropicModel,
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

	raw, err := a.message(ctx, service.SystemPrompt(req.CreatorSupportMode), prompt)
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

	raw, err := a.message(ctx, service.SystemPrompt(false), prompt)
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

	raw, err := a.message(ctx, service.SystemPrompt(req.CreatorSupportMode), prompt)
	if err != nil {
		return nil, err
	}
	return service.DecodeAnalysis(raw)
}

// message performs a single Messages API call and concatenates the text
// blocks of the reply. Claude has no JSON output mode, so the JSON shape in
// the prompt plus the brace-extraction fallback in the decoders carry that
// weight.
func (a *Analyzer) message(ctx context.Context, system, prompt string) (string, error) {
	a.logger.DebugContext(ctx, "making anthropic messages call",
		"model", a.model,
		"prompt_length", len(prompt))

	resp, err := a.client.Messages.New(ctx, anthropicgo.MessageNewParams{
		Model:       anthropicgo.Model(a.model),
		MaxTokens:   a.maxOutputTokens,
		Temperature: anthropicgo.Float(0.7),
		System: []anthropicgo.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropicgo.MessageParam{
			anthropicgo.NewUserMessage(anthropicgo.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "anthropic messages call failed", "error", err)
		return "", fmt.Errorf("%w: %v", service.ErrAnalysisFailed, err)
	}
	if resp.StopReason == anthropicgo.StopReasonRefusal {
		return "", fmt.Errorf("%w: model refused to answer", service.ErrContentBlocked)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: no text content in response", service.ErrInvalidResponse)
	}

	a.logger.DebugContext(ctx, "anthropic messages call succeeded",
		"stop_reason", resp.StopReason,
		"response_length", sb.Len())

	return sb.String(), nil
}
