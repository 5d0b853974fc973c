package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"

	openaigo "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/praaatap/vibeedit-backend/internal/config"
	"github.com/praaatap/vibeedit-backend/internal/service"
)

// Transcriber implements service.Transcriber using Whisper. The filename's
// extension tells Whisper which audio container it is decoding.
type Transcriber struct {
	logger *slog.Logger
	client openaigo.Client
}

var _ service.Transcriber = (*Transcriber)(nil)

// NewTranscriber creates a Whisper-backed Transcriber. Transcription always
// goes through OpenAI regardless of the configured analysis provider, so it
// only needs the OpenAI key.
func NewTranscriber(cfg config.AIConfig, logger *slog.Logger) (*Transcriber, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty for transcription",
			service.ErrInvalidProviderConfig)
	}

	return &Transcriber{
		logger: logger.With(slog.String("component", "whisper_transcriber")),
		client: openaigo.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)),
	}, nil
}

// Transcribe converts spoken audio into text.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if filename == "" {
		return "", errors.New("filename cannot be empty")
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	t.logger.DebugContext(ctx, "transcribing audio with whisper",
		"filename", filename,
		"content_type", contentType)

	resp, err := t.client.Audio.Transcriptions.New(ctx, openaigo.AudioTranscriptionNewParams{
		Model: openaigo.AudioModelWhisper1,
		File:  openaigo.File(audio, filename, contentType),
	})
	if err != nil {
		t.logger.ErrorContext(ctx, "whisper transcription failed",
			"filename", filename,
			"error", err)
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	if resp.Text == "" {
		return "", fmt.Errorf("%w: empty transcript", service.ErrInvalidResponse)
	}

	t.logger.InfoContext(ctx, "transcription complete",
		"filename", filename,
		"transcript_length", len(resp.Text))

	return resp.Text, nil
}
