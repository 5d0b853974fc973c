package service_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/praaatap/vibeedit-backend/internal/domain"
	"github.com/praaatap/vibeedit-backend/internal/platform/ffmpeg"
	"github.com/praaatap/vibeedit-backend/internal/platform/storage"
	"github.com/praaatap/vibeedit-backend/internal/service"
	"github.com/praaatap/vibeedit-backend/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outputPath extracts the relative output path from a completed render task.
func outputPath(t *testing.T, snap task.Snapshot) string {
	t.Helper()

	result, ok := snap.Result.(map[string]any)
	require.True(t, ok, "render results should be a map")
	rel, ok := result["output_path"].(string)
	require.True(t, ok, "render results should carry output_path")
	return rel
}

func TestVideoService_SubmitSpeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("renders through a single ffmpeg pass", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitSpeed(ctx, f.ownerID, video.ID, 2.0)
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status)

		assert.Equal(t, "effects.speed", snap.Name)
		assert.Equal(t, 100, snap.Progress)
		assert.Equal(t, video.ID.String(), snap.Metadata["video_id"])
		assert.Equal(t, 2.0, snap.Metadata["speed"])

		calls := f.runner.RunCalls()
		require.Len(t, calls, 1)
		assert.Contains(t, strings.Join(calls[0], " "), "setpts")

		rel := outputPath(t, snap)
		assert.Equal(t, storage.OutputsDir, filepath.Dir(rel))

		abs, err := f.media.Abs(rel)
		require.NoError(t, err)
		assert.FileExists(t, abs)
	})

	t.Run("rejects out-of-range speed", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitSpeed(ctx, f.ownerID, video.ID, 10.0)
		assert.ErrorIs(t, err, ffmpeg.ErrInvalidSpeed)
		assert.Empty(t, f.runner.RunCalls(), "invalid requests must not reach ffmpeg")
	})

	t.Run("rejects an unprobed video", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)
		video.Status = domain.VideoStatusUploaded
		f.videos.Put(video)

		_, err := f.svc.SubmitSpeed(ctx, f.ownerID, video.ID, 2.0)
		assert.ErrorIs(t, err, service.ErrVideoNotReady)
	})

	t.Run("rejects another user's video", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitSpeed(ctx, uuid.New(), video.ID, 2.0)
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})
}

func TestVideoService_SubmitProcess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("runs the chain in order through scratch stages", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		ops := []service.ProcessOp{
			{Kind: service.OpTrim, Start: 1, End: 5},
			{Kind: service.OpSpeed, Speed: 1.5},
		}

		taskID, err := f.svc.SubmitProcess(ctx, f.ownerID, video.ID, ops)
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status, "error: %s", snap.Error)

		assert.Equal(t, "video.process", snap.Name)
		assert.Equal(t, "trim,speed", snap.Metadata["operations"])

		calls := f.runner.RunCalls()
		require.Len(t, calls, 2)

		firstOut := calls[0][len(calls[0])-1]
		assert.Contains(t, firstOut, "stage-1.mp4", "intermediates stay in scratch")

		secondIn := calls[1]
		assert.Contains(t, secondIn, firstOut, "each stage consumes the previous output")

		result := snap.Result.(map[string]any)
		assert.Equal(t, 2, result["stages"])

		abs, err := f.media.Abs(outputPath(t, snap))
		require.NoError(t, err)
		assert.FileExists(t, abs)
	})

	t.Run("rejects an empty chain", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitProcess(ctx, f.ownerID, video.ID, nil)
		assert.ErrorIs(t, err, service.ErrNoOperations)
	})

	t.Run("rejects an unknown operation kind", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitProcess(ctx, f.ownerID, video.ID,
			[]service.ProcessOp{{Kind: "sharpen_more"}})
		assert.ErrorIs(t, err, service.ErrUnknownOperation)
	})

	t.Run("rejects an invalid step before scheduling", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		ops := []service.ProcessOp{
			{Kind: service.OpTrim, Start: 1, End: 5},
			{Kind: service.OpCrop, Width: -100, Height: 100},
		}

		_, err := f.svc.SubmitProcess(ctx, f.ownerID, video.ID, ops)
		assert.ErrorIs(t, err, ffmpeg.ErrInvalidDimensions)
		assert.Empty(t, f.runner.RunCalls())
	})
}

func TestVideoService_SubmitFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("custom parameters", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		params := ffmpeg.DefaultFilterParams()
		params.Brightness = 0.1
		params.Saturation = 1.4

		taskID, err := f.svc.SubmitFilter(ctx, f.ownerID, video.ID, params)
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		assert.Equal(t, task.StatusCompleted, snap.Status)
		assert.Equal(t, "effects.filter", snap.Name)

		calls := f.runner.RunCalls()
		require.Len(t, calls, 1)
		assert.Contains(t, strings.Join(calls[0], " "), "eq=")
	})

	t.Run("named preset", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitFilterPreset(ctx, f.ownerID, video.ID, "vibrant")
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		assert.Equal(t, task.StatusCompleted, snap.Status)
		assert.Equal(t, "vibrant", snap.Metadata["preset"])
	})

	t.Run("unknown preset", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitFilterPreset(ctx, f.ownerID, video.ID, "grunge")
		assert.ErrorIs(t, err, ffmpeg.ErrUnknownPreset)
	})
}

func TestVideoService_SubmitTransform(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("assembles crop, rotate, and flip in order", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		degrees := 90
		flip := true
		params := service.TransformParams{
			Crop:           &service.CropParams{Width: 640, Height: 480, X: 10, Y: 20},
			RotateDegrees:  &degrees,
			FlipHorizontal: &flip,
		}

		taskID, err := f.svc.SubmitTransform(ctx, f.ownerID, video.ID, params)
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status)
		assert.Equal(t, "crop,rotate,flip", snap.Metadata["operations"])
		assert.Len(t, f.runner.RunCalls(), 3)
	})

	t.Run("rotate only", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		degrees := 180
		taskID, err := f.svc.SubmitTransform(ctx, f.ownerID, video.ID,
			service.TransformParams{RotateDegrees: &degrees})
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		assert.Equal(t, task.StatusCompleted, snap.Status)
		assert.Len(t, f.runner.RunCalls(), 1)
	})

	t.Run("nothing requested", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitTransform(ctx, f.ownerID, video.ID, service.TransformParams{})
		assert.ErrorIs(t, err, service.ErrNoOperations)
	})
}

func TestVideoService_SubmitAudio(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("extract keeps the requested format", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitAudioExtract(ctx, f.ownerID, video.ID, "mp3")
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status)

		assert.Equal(t, "audio.extract", snap.Name)
		result := snap.Result.(map[string]any)
		assert.Equal(t, "mp3", result["format"])
		assert.True(t, strings.HasSuffix(result["output_path"].(string), ".mp3"))
	})

	t.Run("extract rejects unknown formats", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitAudioExtract(ctx, f.ownerID, video.ID, "ogg")
		assert.ErrorIs(t, err, ffmpeg.ErrUnknownAudioFormat)
	})

	t.Run("volume within range", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitAudioVolume(ctx, f.ownerID, video.ID, 1.5)
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		assert.Equal(t, task.StatusCompleted, snap.Status)
		assert.Equal(t, 1.5, snap.Metadata["volume"])
	})

	t.Run("volume out of range", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitAudioVolume(ctx, f.ownerID, video.ID, 5.0)
		assert.ErrorIs(t, err, ffmpeg.ErrInvalidVolume)
	})

	t.Run("fade anchors the fade-out to the probed duration", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitAudioFade(ctx, f.ownerID, video.ID, 1.0, 2.0)
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status)

		calls := f.runner.RunCalls()
		require.Len(t, calls, 1)
		joined := strings.Join(calls[0], " ")
		assert.Contains(t, joined, "afade=t=in")
		assert.Contains(t, joined, "st=8", "fade-out starts duration minus fade length")
	})

	t.Run("fade rejects negative durations", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitAudioFade(ctx, f.ownerID, video.ID, -1.0, 2.0)
		assert.ErrorIs(t, err, ffmpeg.ErrInvalidFade)
	})

	t.Run("remove strips the audio track", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitAudioRemove(ctx, f.ownerID, video.ID)
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status)

		calls := f.runner.RunCalls()
		require.Len(t, calls, 1)
		assert.Contains(t, calls[0], "-an")
	})
}

func TestVideoService_SubmitExport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("format and quality tier", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitExport(ctx, f.ownerID, video.ID, service.ExportParams{
			Format:  ffmpeg.FormatWebM,
			Quality: ffmpeg.QualityHigh,
		})
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status)

		result := snap.Result.(map[string]any)
		assert.Equal(t, "webm", result["format"])
		assert.Equal(t, "high", result["quality"])
		assert.True(t, strings.HasSuffix(result["output_path"].(string), ".webm"))
	})

	t.Run("unknown format", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitExport(ctx, f.ownerID, video.ID, service.ExportParams{
			Format:  ffmpeg.Format("avi"),
			Quality: ffmpeg.QualityHigh,
		})
		assert.ErrorIs(t, err, ffmpeg.ErrUnknownFormat)
	})

	t.Run("unknown quality", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitExport(ctx, f.ownerID, video.ID, service.ExportParams{
			Format:  ffmpeg.FormatMP4,
			Quality: ffmpeg.Quality("insane"),
		})
		assert.ErrorIs(t, err, ffmpeg.ErrUnknownQuality)
	})

	t.Run("gif format rides the palette pipeline", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitExport(ctx, f.ownerID, video.ID, service.ExportParams{
			Format:  ffmpeg.FormatGIF,
			Quality: ffmpeg.QualityLow,
		})
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status)

		assert.Equal(t, "gif", snap.Metadata["format"])
		assert.Len(t, f.runner.RunCalls(), 2, "palette pass then render pass")
		assert.True(t, strings.HasSuffix(outputPath(t, snap), ".gif"))
	})
}

func TestVideoService_SubmitPlatformExport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("known platform", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitPlatformExport(ctx, f.ownerID, video.ID, "tiktok")
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status)

		result := snap.Result.(map[string]any)
		assert.Equal(t, "tiktok", result["platform"])
	})

	t.Run("unknown platform", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitPlatformExport(ctx, f.ownerID, video.ID, "myspace")
		assert.ErrorIs(t, err, ffmpeg.ErrUnknownPlatform)
	})
}

func TestVideoService_SubmitBatchExport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("exports every platform in one task", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitBatchExport(ctx, f.ownerID, video.ID,
			[]string{"tiktok", "youtube"})
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status)

		assert.Equal(t, "tiktok,youtube", snap.Metadata["platforms"])
		assert.Len(t, f.runner.RunCalls(), 2)

		result := snap.Result.(map[string]any)
		outputs, ok := result["outputs"].(map[string]string)
		require.True(t, ok)
		assert.Len(t, outputs, 2)
		assert.NotEmpty(t, outputs["tiktok"])
		assert.NotEmpty(t, outputs["youtube"])
		assert.NotEqual(t, outputs["tiktok"], outputs["youtube"])
	})

	t.Run("no platforms", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitBatchExport(ctx, f.ownerID, video.ID, nil)
		assert.ErrorIs(t, err, service.ErrNoOperations)
	})

	t.Run("one bad platform rejects the whole batch", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitBatchExport(ctx, f.ownerID, video.ID,
			[]string{"tiktok", "myspace"})
		assert.ErrorIs(t, err, ffmpeg.ErrUnknownPlatform)
		assert.Empty(t, f.runner.RunCalls())
	})
}

func TestVideoService_SubmitThumbnail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("defaults to 1280x720", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitThumbnail(ctx, f.ownerID, video.ID,
			service.ThumbnailParams{Timestamp: 2.5})
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status)

		calls := f.runner.RunCalls()
		require.Len(t, calls, 1)
		assert.Contains(t, strings.Join(calls[0], " "), "1280:720")
		assert.True(t, strings.HasSuffix(outputPath(t, snap), ".jpg"))
	})

	t.Run("negative timestamp", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		_, err := f.svc.SubmitThumbnail(ctx, f.ownerID, video.ID,
			service.ThumbnailParams{Timestamp: -1})
		assert.ErrorIs(t, err, ffmpeg.ErrInvalidTimeRange)
	})
}

func TestVideoService_SubmitGIF(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("two passes without a time window", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		taskID, err := f.svc.SubmitGIF(ctx, f.ownerID, video.ID, service.GIFParams{})
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status)

		assert.Equal(t, 480, snap.Metadata["width"])
		assert.Equal(t, 15, snap.Metadata["fps"])
		assert.Len(t, f.runner.RunCalls(), 2)
		assert.True(t, strings.HasSuffix(outputPath(t, snap), ".gif"))
	})

	t.Run("three passes with a time window", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		start := 2.0
		duration := 3.0
		taskID, err := f.svc.SubmitGIF(ctx, f.ownerID, video.ID,
			service.GIFParams{StartTime: &start, Duration: &duration})
		require.NoError(t, err)

		snap := waitForTask(t, f.scheduler, taskID)
		require.Equal(t, task.StatusCompleted, snap.Status, "error: %s", snap.Error)

		calls := f.runner.RunCalls()
		require.Len(t, calls, 3, "trim, palette, render")
		assert.Contains(t, strings.Join(calls[0], " "), "-ss")
	})

	t.Run("rejects a negative start", func(t *testing.T) {
		f := newVideoFixture(t)
		video := f.seedReadyVideo(t)

		start := -2.0
		_, err := f.svc.SubmitGIF(ctx, f.ownerID, video.ID,
			service.GIFParams{StartTime: &start})
		assert.ErrorIs(t, err, ffmpeg.ErrInvalidTimeRange)
	})
}
