package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/praaatap/vibeedit-backend/internal/domain"
	"github.com/praaatap/vibeedit-backend/internal/platform/ffmpeg"
	"github.com/praaatap/vibeedit-backend/internal/task"
)

// Processing chain operation kinds.
const (
	OpTrim   = "trim"
	OpSpeed  = "speed"
	OpFilter = "filter"
	OpPreset = "preset"
	OpCrop   = "crop"
	OpRotate = "rotate"
	OpFlip   = "flip"
)

// ProcessOp is one step in a processing chain. Kind selects the operation;
// only the fields for that kind are read.
type ProcessOp struct {
	Kind string

	// trim
	Start float64
	End   float64

	// speed
	Speed float64

	// filter
	Filter *ffmpeg.FilterParams

	// preset
	Preset string

	// crop
	Width  int
	Height int
	X      int
	Y      int

	// rotate
	Degrees int

	// flip
	Horizontal bool
}

// buildArgs produces the ffmpeg invocation for this step. Parameter
// validation lives in the builders, so calling this with placeholder paths
// doubles as submission-time validation.
func (op ProcessOp) buildArgs(input, output string) ([]string, error) {
	switch op.Kind {
	case OpTrim:
		return ffmpeg.TrimArgs(input, output, op.Start, op.End)
	case OpSpeed:
		return ffmpeg.SpeedArgs(input, output, op.Speed)
	case OpFilter:
		params := ffmpeg.DefaultFilterParams()
		if op.Filter != nil {
			params = *op.Filter
		}
		return ffmpeg.FilterArgs(input, output, params), nil
	case OpPreset:
		return ffmpeg.PresetArgs(input, output, op.Preset)
	case OpCrop:
		return ffmpeg.CropArgs(input, output, op.Width, op.Height, op.X, op.Y)
	case OpRotate:
		return ffmpeg.RotateArgs(input, output, op.Degrees), nil
	case OpFlip:
		return ffmpeg.FlipArgs(input, output, op.Horizontal), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind)
	}
}

// TransformParams selects the geometric operations for SubmitTransform.
// Nil fields are skipped; present ones apply as crop, then rotate, then flip.
type TransformParams struct {
	Crop           *CropParams
	RotateDegrees  *int
	FlipHorizontal *bool
}

// CropParams is the crop window for a transform.
type CropParams struct {
	Width  int
	Height int
	X      int
	Y      int
}

// ExportParams selects the container, quality tier, and optional frame rate
// override for SubmitExport.
type ExportParams struct {
	Format  ffmpeg.Format
	Quality ffmpeg.Quality
	FPS     int
}

// ThumbnailParams selects the frame and output size for SubmitThumbnail.
// Zero width/height fall back to 1280x720.
type ThumbnailParams struct {
	Timestamp float64
	Width     int
	Height    int
}

// GIFParams controls SubmitGIF. Zero width and fps fall back to 480 and 15.
// StartTime/Duration, when set, trim the source before the GIF passes.
type GIFParams struct {
	Width     int
	FPS       int
	StartTime *float64
	Duration  *float64
}

// Defaults for thumbnail and GIF exports.
const (
	defaultThumbnailWidth  = 1280
	defaultThumbnailHeight = 720
	defaultGIFWidth        = 480
	defaultGIFFPS          = 15
)

// SubmitProcess implements VideoService.SubmitProcess.
func (s *videoServiceImpl) SubmitProcess(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	ops []ProcessOp,
) (uuid.UUID, error) {
	if len(ops) == 0 {
		return uuid.Nil, ErrNoOperations
	}

	kinds := make([]string, len(ops))
	for i, op := range ops {
		kinds[i] = op.Kind
	}

	return s.submitChain(ctx, ownerID, videoID, "video.process", ops,
		map[string]any{"operations": strings.Join(kinds, ",")})
}

// SubmitSpeed implements VideoService.SubmitSpeed.
func (s *videoServiceImpl) SubmitSpeed(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	speed float64,
) (uuid.UUID, error) {
	return s.submitChain(ctx, ownerID, videoID, "effects.speed",
		[]ProcessOp{{Kind: OpSpeed, Speed: speed}},
		map[string]any{"speed": speed})
}

// SubmitFilter implements VideoService.SubmitFilter.
func (s *videoServiceImpl) SubmitFilter(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	params ffmpeg.FilterParams,
) (uuid.UUID, error) {
	return s.submitChain(ctx, ownerID, videoID, "effects.filter",
		[]ProcessOp{{Kind: OpFilter, Filter: &params}}, nil)
}

// SubmitFilterPreset implements VideoService.SubmitFilterPreset.
func (s *videoServiceImpl) SubmitFilterPreset(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	preset string,
) (uuid.UUID, error) {
	return s.submitChain(ctx, ownerID, videoID, "effects.preset",
		[]ProcessOp{{Kind: OpPreset, Preset: preset}},
		map[string]any{"preset": preset})
}

// SubmitTransform implements VideoService.SubmitTransform.
func (s *videoServiceImpl) SubmitTransform(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	params TransformParams,
) (uuid.UUID, error) {
	var ops []ProcessOp
	if params.Crop != nil {
		ops = append(ops, ProcessOp{
			Kind:   OpCrop,
			Width:  params.Crop.Width,
			Height: params.Crop.Height,
			X:      params.Crop.X,
			Y:      params.Crop.Y,
		})
	}
	if params.RotateDegrees != nil {
		ops = append(ops, ProcessOp{Kind: OpRotate, Degrees: *params.RotateDegrees})
	}
	if params.FlipHorizontal != nil {
		ops = append(ops, ProcessOp{Kind: OpFlip, Horizontal: *params.FlipHorizontal})
	}
	if len(ops) == 0 {
		return uuid.Nil, ErrNoOperations
	}

	kinds := make([]string, len(ops))
	for i, op := range ops {
		kinds[i] = op.Kind
	}

	return s.submitChain(ctx, ownerID, videoID, "effects.transform", ops,
		map[string]any{"operations": strings.Join(kinds, ",")})
}

// submitChain validates every step, then schedules a task that runs them in
// sequence, staging intermediates in a scratch directory and writing only the
// final step into the output store.
func (s *videoServiceImpl) submitChain(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	name string,
	ops []ProcessOp,
	md map[string]any,
) (uuid.UUID, error) {
	video, err := s.readyVideo(ctx, ownerID, videoID)
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to resolve video", err)
	}

	for i, op := range ops {
		if _, err := op.buildArgs("in.mp4", "out.mp4"); err != nil {
			return uuid.Nil, NewVideoServiceError(name,
				fmt.Sprintf("invalid operation %d (%s)", i+1, op.Kind), err)
		}
	}

	if md == nil {
		md = map[string]any{}
	}
	md["video_id"] = videoID.String()

	id, err := s.scheduler.Submit(name, s.chainWork(video, ops),
		task.WithOwner(ownerID.String()),
		task.WithMetadata(md))
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to schedule task", err)
	}

	s.logger.Info("render task submitted",
		"task", name,
		"task_id", id,
		"video_id", videoID,
		"stages", len(ops))

	return id, nil
}

// chainWork builds the work unit for a validated chain. It closes over the
// video's storage path and the ops, never the request.
func (s *videoServiceImpl) chainWork(video *domain.Video, ops []ProcessOp) task.WorkFunc {
	storagePath := video.StoragePath

	return func(ctx context.Context, p *task.Progress) (any, error) {
		input, err := s.media.Abs(storagePath)
		if err != nil {
			return nil, err
		}

		scratch, err := os.MkdirTemp("", "render-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		defer func() { _ = os.RemoveAll(scratch) }()

		outRel := s.media.NewOutputPath("mp4")
		outAbs, err := s.media.Abs(outRel)
		if err != nil {
			return nil, err
		}

		current := input
		total := len(ops)
		for i, op := range ops {
			p.Update(i*100/total, map[string]any{
				"stage":       op.Kind,
				"stage_index": i + 1,
				"stage_count": total,
			})

			dst := outAbs
			if i < total-1 {
				dst = filepath.Join(scratch, fmt.Sprintf("stage-%d.mp4", i+1))
			}

			args, err := op.buildArgs(current, dst)
			if err != nil {
				return nil, err
			}
			if err := s.runner.Run(ctx, args); err != nil {
				return nil, fmt.Errorf("%s stage failed: %w", op.Kind, err)
			}

			current = dst
		}

		return map[string]any{
			"output_path": outRel,
			"stages":      total,
		}, nil
	}
}

// SubmitAudioExtract implements VideoService.SubmitAudioExtract.
func (s *videoServiceImpl) SubmitAudioExtract(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	format string,
) (uuid.UUID, error) {
	const name = "audio.extract"

	video, err := s.readyVideo(ctx, ownerID, videoID)
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to resolve video", err)
	}
	if _, err := ffmpeg.ExtractAudioArgs("in.mp4", "out."+format, format); err != nil {
		return uuid.Nil, NewVideoServiceError(name, "invalid audio format", err)
	}

	storagePath := video.StoragePath
	work := func(ctx context.Context, p *task.Progress) (any, error) {
		input, err := s.media.Abs(storagePath)
		if err != nil {
			return nil, err
		}

		outRel := s.media.NewOutputPath(format)
		outAbs, err := s.media.Abs(outRel)
		if err != nil {
			return nil, err
		}

		p.Update(10, map[string]any{"stage": "extract_audio", "format": format})
		args, err := ffmpeg.ExtractAudioArgs(input, outAbs, format)
		if err != nil {
			return nil, err
		}
		if err := s.runner.Run(ctx, args); err != nil {
			return nil, err
		}

		return map[string]any{"output_path": outRel, "format": format}, nil
	}

	return s.submitRender(name, video, work, map[string]any{"format": format})
}

// SubmitAudioVolume implements VideoService.SubmitAudioVolume.
func (s *videoServiceImpl) SubmitAudioVolume(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	volume float64,
) (uuid.UUID, error) {
	const name = "audio.volume"

	video, err := s.readyVideo(ctx, ownerID, videoID)
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to resolve video", err)
	}
	if _, err := ffmpeg.VolumeArgs("in.mp4", "out.mp4", volume); err != nil {
		return uuid.Nil, NewVideoServiceError(name, "invalid volume", err)
	}

	work := s.singleArgsWork(video, "adjust_volume", func(input, output string) ([]string, error) {
		return ffmpeg.VolumeArgs(input, output, volume)
	})

	return s.submitRender(name, video, work, map[string]any{"volume": volume})
}

// SubmitAudioFade implements VideoService.SubmitAudioFade.
func (s *videoServiceImpl) SubmitAudioFade(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	fadeIn, fadeOut float64,
) (uuid.UUID, error) {
	const name = "audio.fade"

	video, err := s.readyVideo(ctx, ownerID, videoID)
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to resolve video", err)
	}

	// The probe recorded the duration; the fade-out window is anchored to it.
	duration := video.DurationSeconds
	if _, err := ffmpeg.FadeArgs("in.mp4", "out.mp4", fadeIn, fadeOut, duration); err != nil {
		return uuid.Nil, NewVideoServiceError(name, "invalid fade durations", err)
	}

	work := s.singleArgsWork(video, "fade_audio", func(input, output string) ([]string, error) {
		return ffmpeg.FadeArgs(input, output, fadeIn, fadeOut, duration)
	})

	return s.submitRender(name, video, work, map[string]any{
		"fade_in":  fadeIn,
		"fade_out": fadeOut,
	})
}

// SubmitAudioRemove implements VideoService.SubmitAudioRemove.
func (s *videoServiceImpl) SubmitAudioRemove(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
) (uuid.UUID, error) {
	const name = "audio.remove"

	video, err := s.readyVideo(ctx, ownerID, videoID)
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to resolve video", err)
	}

	work := s.singleArgsWork(video, "remove_audio", func(input, output string) ([]string, error) {
		return ffmpeg.RemoveAudioArgs(input, output), nil
	})

	return s.submitRender(name, video, work, nil)
}

// singleArgsWork builds a one-stage work unit around an args builder. The
// output keeps the source container since these operations copy the video
// stream.
func (s *videoServiceImpl) singleArgsWork(
	video *domain.Video,
	stage string,
	build func(input, output string) ([]string, error),
) task.WorkFunc {
	storagePath := video.StoragePath
	ext := sourceExt(storagePath)

	return func(ctx context.Context, p *task.Progress) (any, error) {
		input, err := s.media.Abs(storagePath)
		if err != nil {
			return nil, err
		}

		outRel := s.media.NewOutputPath(ext)
		outAbs, err := s.media.Abs(outRel)
		if err != nil {
			return nil, err
		}

		p.Update(10, map[string]any{"stage": stage})
		args, err := build(input, outAbs)
		if err != nil {
			return nil, err
		}
		if err := s.runner.Run(ctx, args); err != nil {
			return nil, err
		}

		return map[string]any{"output_path": outRel}, nil
	}
}

// sourceExt returns the extension of a stored path without the dot,
// defaulting to mp4.
func sourceExt(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "mp4"
	}
	return ext
}

// SubmitExport implements VideoService.SubmitExport.
func (s *videoServiceImpl) SubmitExport(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	params ExportParams,
) (uuid.UUID, error) {
	const name = "export.video"

	video, err := s.readyVideo(ctx, ownerID, videoID)
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to resolve video", err)
	}

	if params.Format == ffmpeg.FormatGIF {
		// GIF rides the two-pass pipeline; the quality tier picks its width.
		spec, ok := ffmpeg.QualitySpecs[params.Quality]
		if !ok {
			return uuid.Nil, NewVideoServiceError(name, "invalid quality",
				fmt.Errorf("%w: %q", ffmpeg.ErrUnknownQuality, params.Quality))
		}
		fps := params.FPS
		if fps <= 0 {
			fps = defaultGIFFPS
		}
		return s.submitGIFWork(name, video, GIFParams{Width: spec.Width, FPS: fps},
			map[string]any{"format": "gif", "quality": string(params.Quality)})
	}

	if _, err := ffmpeg.ExportArgs("in.mp4", "out", params.Format, params.Quality, params.FPS); err != nil {
		return uuid.Nil, NewVideoServiceError(name, "invalid export parameters", err)
	}

	storagePath := video.StoragePath
	format := params.Format
	quality := params.Quality
	fps := params.FPS

	work := func(ctx context.Context, p *task.Progress) (any, error) {
		input, err := s.media.Abs(storagePath)
		if err != nil {
			return nil, err
		}

		outRel := s.media.NewOutputPath(string(format))
		outAbs, err := s.media.Abs(outRel)
		if err != nil {
			return nil, err
		}

		p.Update(10, map[string]any{
			"stage":   "export",
			"format":  string(format),
			"quality": string(quality),
		})
		args, err := ffmpeg.ExportArgs(input, outAbs, format, quality, fps)
		if err != nil {
			return nil, err
		}
		if err := s.runner.Run(ctx, args); err != nil {
			return nil, err
		}

		return map[string]any{
			"output_path": outRel,
			"format":      string(format),
			"quality":     string(quality),
		}, nil
	}

	return s.submitRender(name, video, work, map[string]any{
		"format":  string(format),
		"quality": string(quality),
	})
}

// SubmitPlatformExport implements VideoService.SubmitPlatformExport.
func (s *videoServiceImpl) SubmitPlatformExport(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	platform string,
) (uuid.UUID, error) {
	const name = "export.platform"

	video, err := s.readyVideo(ctx, ownerID, videoID)
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to resolve video", err)
	}
	if _, err := ffmpeg.PlatformArgs("in.mp4", "out.mp4", platform); err != nil {
		return uuid.Nil, NewVideoServiceError(name, "invalid platform", err)
	}

	storagePath := video.StoragePath
	work := func(ctx context.Context, p *task.Progress) (any, error) {
		input, err := s.media.Abs(storagePath)
		if err != nil {
			return nil, err
		}

		outRel := s.media.NewOutputPath("mp4")
		outAbs, err := s.media.Abs(outRel)
		if err != nil {
			return nil, err
		}

		p.Update(10, map[string]any{"stage": "export", "platform": platform})
		args, err := ffmpeg.PlatformArgs(input, outAbs, platform)
		if err != nil {
			return nil, err
		}
		if err := s.runner.Run(ctx, args); err != nil {
			return nil, err
		}

		return map[string]any{"output_path": outRel, "platform": platform}, nil
	}

	return s.submitRender(name, video, work, map[string]any{"platform": platform})
}

// SubmitBatchExport implements VideoService.SubmitBatchExport.
func (s *videoServiceImpl) SubmitBatchExport(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	platforms []string,
) (uuid.UUID, error) {
	const name = "export.batch"

	if len(platforms) == 0 {
		return uuid.Nil, ErrNoOperations
	}

	video, err := s.readyVideo(ctx, ownerID, videoID)
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to resolve video", err)
	}
	for _, platform := range platforms {
		if _, err := ffmpeg.PlatformArgs("in.mp4", "out.mp4", platform); err != nil {
			return uuid.Nil, NewVideoServiceError(name, "invalid platform", err)
		}
	}

	storagePath := video.StoragePath
	targets := append([]string(nil), platforms...)

	work := func(ctx context.Context, p *task.Progress) (any, error) {
		input, err := s.media.Abs(storagePath)
		if err != nil {
			return nil, err
		}

		outputs := make(map[string]string, len(targets))
		total := len(targets)
		for i, platform := range targets {
			p.Update(i*100/total, map[string]any{
				"stage":       "export",
				"platform":    platform,
				"stage_index": i + 1,
				"stage_count": total,
			})

			outRel := s.media.NewOutputPath("mp4")
			outAbs, err := s.media.Abs(outRel)
			if err != nil {
				return nil, err
			}

			args, err := ffmpeg.PlatformArgs(input, outAbs, platform)
			if err != nil {
				return nil, err
			}
			if err := s.runner.Run(ctx, args); err != nil {
				return nil, fmt.Errorf("%s export failed: %w", platform, err)
			}

			outputs[platform] = outRel
		}

		return map[string]any{"outputs": outputs, "platforms": total}, nil
	}

	return s.submitRender(name, video, work, map[string]any{
		"platforms": strings.Join(targets, ","),
	})
}

// SubmitThumbnail implements VideoService.SubmitThumbnail.
func (s *videoServiceImpl) SubmitThumbnail(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	params ThumbnailParams,
) (uuid.UUID, error) {
	const name = "export.thumbnail"

	video, err := s.readyVideo(ctx, ownerID, videoID)
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to resolve video", err)
	}

	width := params.Width
	height := params.Height
	if width <= 0 {
		width = defaultThumbnailWidth
	}
	if height <= 0 {
		height = defaultThumbnailHeight
	}
	timestamp := params.Timestamp

	if _, err := ffmpeg.ThumbnailArgs("in.mp4", "out.jpg", timestamp, width, height); err != nil {
		return uuid.Nil, NewVideoServiceError(name, "invalid thumbnail parameters", err)
	}

	storagePath := video.StoragePath
	work := func(ctx context.Context, p *task.Progress) (any, error) {
		input, err := s.media.Abs(storagePath)
		if err != nil {
			return nil, err
		}

		outRel := s.media.NewOutputPath("jpg")
		outAbs, err := s.media.Abs(outRel)
		if err != nil {
			return nil, err
		}

		p.Update(10, map[string]any{"stage": "thumbnail"})
		args, err := ffmpeg.ThumbnailArgs(input, outAbs, timestamp, width, height)
		if err != nil {
			return nil, err
		}
		if err := s.runner.Run(ctx, args); err != nil {
			return nil, err
		}

		return map[string]any{"output_path": outRel}, nil
	}

	return s.submitRender(name, video, work, map[string]any{
		"timestamp": timestamp,
	})
}

// SubmitGIF implements VideoService.SubmitGIF.
func (s *videoServiceImpl) SubmitGIF(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
	params GIFParams,
) (uuid.UUID, error) {
	const name = "export.gif"

	video, err := s.readyVideo(ctx, ownerID, videoID)
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to resolve video", err)
	}

	if params.Width <= 0 {
		params.Width = defaultGIFWidth
	}
	if params.FPS <= 0 {
		params.FPS = defaultGIFFPS
	}
	if _, err := ffmpeg.GifPaletteArgs("in.mp4", "palette.png", params.FPS, params.Width); err != nil {
		return uuid.Nil, NewVideoServiceError(name, "invalid gif parameters", err)
	}
	if params.StartTime != nil || params.Duration != nil {
		if _, _, err := gifTrimRange(params, video.DurationSeconds); err != nil {
			return uuid.Nil, NewVideoServiceError(name, "invalid gif time range", err)
		}
	}

	return s.submitGIFWork(name, video, params, nil)
}

// gifTrimRange resolves the optional start/duration window against the
// video's length.
func gifTrimRange(params GIFParams, videoDuration float64) (start, end float64, err error) {
	if params.StartTime != nil {
		start = *params.StartTime
	}
	if params.Duration != nil {
		end = start + *params.Duration
	} else {
		end = videoDuration
	}
	if start < 0 || end <= start {
		return 0, 0, fmt.Errorf("%w: start=%v end=%v", ffmpeg.ErrInvalidTimeRange, start, end)
	}
	return start, end, nil
}

// submitGIFWork schedules the palette+render pipeline, with an optional trim
// pass in front when a time window was requested.
func (s *videoServiceImpl) submitGIFWork(
	name string,
	video *domain.Video,
	params GIFParams,
	md map[string]any,
) (uuid.UUID, error) {
	storagePath := video.StoragePath
	videoDuration := video.DurationSeconds
	trim := params.StartTime != nil || params.Duration != nil

	work := func(ctx context.Context, p *task.Progress) (any, error) {
		input, err := s.media.Abs(storagePath)
		if err != nil {
			return nil, err
		}

		scratch, err := os.MkdirTemp("", "gif-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		defer func() { _ = os.RemoveAll(scratch) }()

		source := input
		if trim {
			start, end, err := gifTrimRange(params, videoDuration)
			if err != nil {
				return nil, err
			}

			p.Update(10, map[string]any{"stage": "trim"})
			trimmed := filepath.Join(scratch, "trimmed.mp4")
			args, err := ffmpeg.TrimArgs(input, trimmed, start, end)
			if err != nil {
				return nil, err
			}
			if err := s.runner.Run(ctx, args); err != nil {
				return nil, err
			}
			source = trimmed
		}

		p.Update(40, map[string]any{"stage": "palette"})
		palette := filepath.Join(scratch, "palette.png")
		args, err := ffmpeg.GifPaletteArgs(source, palette, params.FPS, params.Width)
		if err != nil {
			return nil, err
		}
		if err := s.runner.Run(ctx, args); err != nil {
			return nil, err
		}

		p.Update(70, map[string]any{"stage": "render"})
		outRel := s.media.NewOutputPath("gif")
		outAbs, err := s.media.Abs(outRel)
		if err != nil {
			return nil, err
		}
		args, err = ffmpeg.GifRenderArgs(source, palette, outAbs, params.FPS, params.Width)
		if err != nil {
			return nil, err
		}
		if err := s.runner.Run(ctx, args); err != nil {
			return nil, err
		}

		return map[string]any{"output_path": outRel}, nil
	}

	if md == nil {
		md = map[string]any{}
	}
	md["width"] = params.Width
	md["fps"] = params.FPS

	return s.submitRender(name, video, work, md)
}

// submitRender schedules a validated render work unit with the standard
// owner and metadata decoration.
func (s *videoServiceImpl) submitRender(
	name string,
	video *domain.Video,
	work task.WorkFunc,
	md map[string]any,
) (uuid.UUID, error) {
	if md == nil {
		md = map[string]any{}
	}
	md["video_id"] = video.ID.String()

	id, err := s.scheduler.Submit(name, work,
		task.WithOwner(video.OwnerID.String()),
		task.WithMetadata(md))
	if err != nil {
		return uuid.Nil, NewVideoServiceError(name, "failed to schedule task", err)
	}

	s.logger.Info("render task submitted",
		"task", name,
		"task_id", id,
		"video_id", video.ID)

	return id, nil
}
