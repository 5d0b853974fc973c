package service

import (
	"context"
	"errors"
	"io"
)

// Emotion classifies the mood of a transcript segment or clip.
type Emotion string

// Emotion labels providers are instructed to choose from. Anything else a
// model emits is normalized to EmotionCalm during decoding.
const (
	EmotionEnergetic    Emotion = "energetic"
	EmotionEmotional    Emotion = "emotional"
	EmotionMotivational Emotion = "motivational"
	EmotionSerious      Emotion = "serious"
	EmotionFunny        Emotion = "funny"
	EmotionCalm         Emotion = "calm"
)

// IsValid reports whether e is one of the known emotion labels.
func (e Emotion) IsValid() bool {
	switch e {
	case EmotionEnergetic, EmotionEmotional, EmotionMotivational,
		EmotionSerious, EmotionFunny, EmotionCalm:
		return true
	}
	return false
}

// Common errors returned by analysis providers. Providers wrap these so
// callers can distinguish permanent failures (blocked content, unparseable
// output) from transient ones with errors.Is().
var (
	// ErrAnalysisFailed is returned when an analysis request fails for any general reason.
	ErrAnalysisFailed = errors.New("failed to analyze transcript")

	// ErrInvalidResponse is returned when the model response cannot be parsed or is malformed.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary provider errors that might resolve on retry.
	ErrTransientFailure = errors.New("transient error during analysis")

	// ErrInvalidProviderConfig is returned when an analysis provider's configuration is invalid.
	ErrInvalidProviderConfig = errors.New("invalid analysis provider configuration")

	// ErrNoProvider is returned when analysis is requested but no provider is configured.
	ErrNoProvider = errors.New("no analysis provider configured")

	// ErrEmptyTranscript is returned when an analysis request carries no transcript text.
	ErrEmptyTranscript = errors.New("transcript cannot be empty")
)

// AnalysisRequest carries the inputs for transcript analysis and clip
// suggestion. Platform, Tone and ClipCount default via Normalize; the zero
// value of the remaining fields is meaningful.
type AnalysisRequest struct {
	// Transcript is the spoken-word text to analyze.
	Transcript string

	// Platform is the short-form target the clips are cut for,
	// e.g. "instagram_reels" or "youtube_shorts".
	Platform string

	// Tone steers the suggested edit style, e.g. "viral" or "cinematic".
	Tone string

	// ClipCount is how many clip suggestions to request.
	ClipCount int

	// CustomPrompt is an optional free-form instruction from the creator,
	// honored only by SuggestClips.
	CustomPrompt string

	// CreatorSupportMode softens the feedback register: gentler edits,
	// authenticity over virality.
	CreatorSupportMode bool
}

// Defaults applied by Normalize.
const (
	DefaultPlatform  = "instagram_reels"
	DefaultTone      = "viral"
	DefaultClipCount = 3
)

// Normalize fills in defaults for unset optional fields and returns the
// request. It does not validate the transcript; providers do that.
func (r AnalysisRequest) Normalize() AnalysisRequest {
	if r.Platform == "" {
		r.Platform = DefaultPlatform
	}
	if r.Tone == "" {
		r.Tone = DefaultTone
	}
	if r.ClipCount <= 0 {
		r.ClipCount = DefaultClipCount
	}
	return r
}

// ClipSuggestion is one recommended cut from the source video.
type ClipSuggestion struct {
	// StartTimestamp and EndTimestamp are MM:SS offsets into the source.
	StartTimestamp string `json:"start_timestamp"`
	EndTimestamp   string `json:"end_timestamp"`

	// Caption is short display text for the clip.
	Caption string `json:"caption"`

	// Hook is the attention-grabbing opening line.
	Hook string `json:"hook"`

	// EngagementReason explains why the moment should retain viewers.
	EngagementReason string `json:"engagement_reason"`

	// Emotion is the detected mood of the moment.
	Emotion Emotion `json:"emotion"`

	// ConfidenceScore is the model's confidence in the suggestion, 0.0-1.0.
	ConfidenceScore float64 `json:"confidence_score"`
}

// Analysis is the full result of transcript analysis: clip suggestions plus
// summary-level feedback for the creator.
type Analysis struct {
	Clips           []ClipSuggestion `json:"clips"`
	OverallEmotion  Emotion          `json:"overall_emotion"`
	ContentSummary  string           `json:"content_summary"`
	CreatorFeedback string           `json:"creator_feedback"`
	Tips            []string         `json:"tips"`
}

// EmotionSegment is one emotionally coherent span of the transcript.
// StartTime and EndTime are present only when timestamps were requested.
type EmotionSegment struct {
	Text       string  `json:"text"`
	Emotion    Emotion `json:"emotion"`
	Confidence float64 `json:"confidence"`
	StartTime  string  `json:"start_time,omitempty"`
	EndTime    string  `json:"end_time,omitempty"`
}

// EmotionReport is the result of emotion detection across a transcript.
type EmotionReport struct {
	Segments        []EmotionSegment `json:"segments"`
	DominantEmotion Emotion          `json:"dominant_emotion"`
	EmotionSummary  string           `json:"emotion_summary"`
}

// Analyzer defines the interface for LLM-backed transcript analysis.
// It is the boundary between the application core and external AI providers;
// implementations live under internal/platform.
type Analyzer interface {
	// Name identifies the provider, e.g. "gemini", "openai", "anthropic".
	Name() string

	// AnalyzeTranscript suggests clips for the requested platform and tone,
	// with summary-level creator feedback.
	AnalyzeTranscript(ctx context.Context, req AnalysisRequest) (*Analysis, error)

	// DetectEmotions splits the transcript into segments and labels each
	// with an emotion. When includeTimestamps is set, the model is asked to
	// attach MM:SS bounds to each segment.
	DetectEmotions(ctx context.Context, transcript string, includeTimestamps bool) (*EmotionReport, error)

	// SuggestClips is AnalyzeTranscript steered by the creator's optional
	// CustomPrompt.
	SuggestClips(ctx context.Context, req AnalysisRequest) (*Analysis, error)
}

// Transcriber converts spoken audio into a text transcript. The filename's
// extension tells the backend which container the audio arrives in.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}
