package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/praaatap/vibeedit-backend/internal/config"
)

// stderrTailBytes caps how much ffmpeg stderr ends up in error messages.
const stderrTailBytes = 512

// ProbeInfo is the subset of ffprobe output the application cares about.
type ProbeInfo struct {
	DurationSeconds float64
	Width           int
	Height          int
	FormatName      string
	SizeBytes       int64
	VideoCodec      string
	AudioCodec      string
}

// Runner executes ffmpeg and ffprobe binaries.
type Runner struct {
	ffmpegPath  string
	ffprobePath string
	logger      *slog.Logger
}

// NewRunner creates a Runner using the binary paths from config.
// If logger is nil, a default logger will be used.
func NewRunner(cfg config.FFmpegConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		ffmpegPath:  cfg.BinaryPath,
		ffprobePath: cfg.ProbeBinaryPath,
		logger:      logger.With(slog.String("component", "ffmpeg")),
	}
}

// Run executes ffmpeg with the given arguments. On failure the error carries
// the tail of stderr, which is where ffmpeg reports what went wrong. A
// cancelled context surfaces as the context's error.
func (r *Runner) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Error("ffmpeg invocation failed",
			"error", err,
			"elapsed", elapsed.Round(time.Millisecond),
			"stderr_tail", stderrTail(stderr.Bytes()))
		return fmt.Errorf("ffmpeg failed: %w: %s", err, stderrTail(stderr.Bytes()))
	}

	r.logger.Debug("ffmpeg invocation completed",
		"elapsed", elapsed.Round(time.Millisecond))
	return nil
}

// Probe inspects a media file with ffprobe and returns its duration,
// dimensions, and codec information.
func (r *Runner) Probe(ctx context.Context, path string) (*ProbeInfo, error) {
	cmd := exec.CommandContext(ctx, r.ffprobePath, ProbeArgs(path)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe failed: %w: %s", err, stderrTail(stderr.Bytes()))
	}

	return parseProbeOutput(out)
}

// probePayload mirrors ffprobe's JSON output; numeric format fields arrive as
// strings.
type probePayload struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func parseProbeOutput(out []byte) (*ProbeInfo, error) {
	var payload probePayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &ProbeInfo{FormatName: payload.Format.FormatName}

	if payload.Format.Duration != "" {
		d, err := strconv.ParseFloat(payload.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse duration %q: %w", payload.Format.Duration, err)
		}
		info.DurationSeconds = d
	}

	if payload.Format.Size != "" {
		size, err := strconv.ParseInt(payload.Format.Size, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse size %q: %w", payload.Format.Size, err)
		}
		info.SizeBytes = size
	}

	for _, s := range payload.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = s.CodecName
				info.Width = s.Width
				info.Height = s.Height
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
			}
		}
	}

	return info, nil
}

// stderrTail returns the last chunk of stderr output, trimmed.
func stderrTail(b []byte) string {
	if len(b) > stderrTailBytes {
		b = b[len(b)-stderrTailBytes:]
	}
	return strings.TrimSpace(string(b))
}
