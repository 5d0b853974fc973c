package ffmpeg

import (
	"errors"
	"fmt"
	"strconv"
)

// Builder validation errors
var (
	ErrInvalidSpeed       = errors.New("speed must be between 0.25 and 4.0")
	ErrInvalidTimeRange   = errors.New("invalid time range")
	ErrInvalidVolume      = errors.New("volume must be between 0.0 and 3.0")
	ErrInvalidFade        = errors.New("fade durations cannot be negative")
	ErrInvalidDimensions  = errors.New("dimensions must be positive")
	ErrUnknownPreset      = errors.New("unknown filter preset")
	ErrUnknownFormat      = errors.New("unknown export format")
	ErrUnknownQuality     = errors.New("unknown export quality")
	ErrUnknownPlatform    = errors.New("unknown export platform")
	ErrUnknownAudioFormat = errors.New("unknown audio format")
)

// Format is a supported export container.
type Format string

// Supported export formats.
const (
	FormatMP4  Format = "mp4"
	FormatWebM Format = "webm"
	FormatMOV  Format = "mov"
	FormatGIF  Format = "gif"
)

// Quality selects an export resolution tier.
type Quality string

// Supported export quality tiers.
const (
	QualityLow    Quality = "low"    // 480p
	QualityMedium Quality = "medium" // 720p
	QualityHigh   Quality = "high"   // 1080p
	QualityUltra  Quality = "ultra"  // 2160p
)

// QualitySpec holds the target dimensions and bitrates for a quality tier.
type QualitySpec struct {
	Width        int
	Height       int
	Bitrate      string
	AudioBitrate string
}

// QualitySpecs maps each quality tier to its export parameters.
var QualitySpecs = map[Quality]QualitySpec{
	QualityLow:    {Width: 854, Height: 480, Bitrate: "1M", AudioBitrate: "128k"},
	QualityMedium: {Width: 1280, Height: 720, Bitrate: "3M", AudioBitrate: "192k"},
	QualityHigh:   {Width: 1920, Height: 1080, Bitrate: "8M", AudioBitrate: "256k"},
	QualityUltra:  {Width: 3840, Height: 2160, Bitrate: "20M", AudioBitrate: "320k"},
}

// PlatformSpec holds the target parameters for a social platform export.
// MaxDurationSeconds of zero means the platform imposes no limit.
type PlatformSpec struct {
	Width              int
	Height             int
	FPS                int
	MaxDurationSeconds int
	Bitrate            string
}

// PlatformSpecs maps each supported platform to its export parameters.
var PlatformSpecs = map[string]PlatformSpec{
	"instagram_reels": {Width: 1080, Height: 1920, FPS: 30, MaxDurationSeconds: 90, Bitrate: "6M"},
	"instagram_story": {Width: 1080, Height: 1920, FPS: 30, MaxDurationSeconds: 60, Bitrate: "5M"},
	"instagram_feed":  {Width: 1080, Height: 1080, FPS: 30, MaxDurationSeconds: 60, Bitrate: "5M"},
	"youtube_shorts":  {Width: 1080, Height: 1920, FPS: 60, MaxDurationSeconds: 60, Bitrate: "8M"},
	"youtube":         {Width: 1920, Height: 1080, FPS: 60, MaxDurationSeconds: 0, Bitrate: "12M"},
	"youtube_4k":      {Width: 3840, Height: 2160, FPS: 60, MaxDurationSeconds: 0, Bitrate: "35M"},
	"tiktok":          {Width: 1080, Height: 1920, FPS: 60, MaxDurationSeconds: 180, Bitrate: "6M"},
	"twitter":         {Width: 1280, Height: 720, FPS: 30, MaxDurationSeconds: 140, Bitrate: "5M"},
	"linkedin":        {Width: 1920, Height: 1080, FPS: 30, MaxDurationSeconds: 600, Bitrate: "8M"},
}

// FilterParams are the color and sharpness adjustments applied by FilterArgs.
// The zero value of each field is NOT neutral for every filter; use
// DefaultFilterParams as the base and override from there.
type FilterParams struct {
	Brightness float64 // -1.0 to 1.0, 0 = no change
	Contrast   float64 // 0.0 to 2.0, 1.0 = no change
	Saturation float64 // 0.0 to 3.0, 1.0 = no change
	Gamma      float64 // 0.1 to 10.0, 1.0 = no change
	Blur       float64 // 0 to 10, 0 = off
	Sharpen    float64 // 0 to 2, 0 = off
}

// DefaultFilterParams returns params that leave the video untouched.
func DefaultFilterParams() FilterParams {
	return FilterParams{Contrast: 1, Saturation: 1, Gamma: 1}
}

// FilterPresets maps preset names to their color grades.
var FilterPresets = map[string]FilterParams{
	"vibrant":  {Brightness: 0.05, Contrast: 1.1, Saturation: 1.3, Gamma: 1},
	"muted":    {Brightness: 0, Contrast: 0.9, Saturation: 0.7, Gamma: 1},
	"warm":     {Brightness: 0.02, Contrast: 1.0, Saturation: 1.1, Gamma: 1},
	"cool":     {Brightness: 0, Contrast: 1.05, Saturation: 0.9, Gamma: 1},
	"dramatic": {Brightness: -0.1, Contrast: 1.3, Saturation: 1.2, Gamma: 1},
	"soft":     {Brightness: 0.05, Contrast: 0.95, Saturation: 0.85, Gamma: 1},
}

// audioCodecs maps audio container formats to their encoders.
var audioCodecs = map[string]string{
	"mp3":  "libmp3lame",
	"aac":  "aac",
	"wav":  "pcm_s16le",
	"flac": "flac",
}

// videoCodecs maps export formats to their video and audio encoders.
var videoCodecs = map[Format][2]string{
	FormatMP4:  {"libx264", "aac"},
	FormatWebM: {"libvpx-vp9", "libopus"},
	FormatMOV:  {"libx264", "aac"},
}

// ff formats a float the way ffmpeg filter expressions expect, without a
// trailing exponent or unnecessary zeros.
func ff(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// TrimArgs cuts the input to [start, end) seconds, re-encoding with x264/aac.
func TrimArgs(input, output string, start, end float64) ([]string, error) {
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: start=%s end=%s", ErrInvalidTimeRange, ff(start), ff(end))
	}

	return []string{
		"-y",
		"-i", input,
		"-ss", ff(start),
		"-t", ff(end - start),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "fast",
		output,
	}, nil
}

// SpeedArgs changes playback speed. Video timing is scaled with setpts; audio
// keeps pitch via atempo, chained when the factor leaves atempo's 0.5-2.0
// range.
func SpeedArgs(input, output string, speed float64) ([]string, error) {
	if speed < 0.25 || speed > 4.0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidSpeed, ff(speed))
	}

	filter := fmt.Sprintf("[0:v]setpts=%s*PTS[v];[0:a]%s[a]", ff(1/speed), atempoChain(speed))

	return []string{
		"-y",
		"-i", input,
		"-filter_complex", filter,
		"-map", "[v]",
		"-map", "[a]",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "fast",
		output,
	}, nil
}

// atempoChain builds the audio tempo filter for a speed factor.
func atempoChain(speed float64) string {
	switch {
	case speed >= 0.5 && speed <= 2.0:
		return "atempo=" + ff(speed)
	case speed < 0.5:
		return "atempo=0.5,atempo=" + ff(speed/0.5)
	default:
		return "atempo=2,atempo=" + ff(speed/2)
	}
}

// FilterArgs applies color adjustments, blur, and sharpening. Neutral params
// produce a null filter so the invocation stays valid.
func FilterArgs(input, output string, p FilterParams) []string {
	var filters []string

	if p.Brightness != 0 || p.Contrast != 1.0 || p.Saturation != 1.0 || p.Gamma != 1.0 {
		filters = append(filters, fmt.Sprintf(
			"eq=brightness=%s:contrast=%s:saturation=%s:gamma=%s",
			ff(p.Brightness), ff(p.Contrast), ff(p.Saturation), ff(p.Gamma)))
	}

	if p.Blur > 0 {
		filters = append(filters, fmt.Sprintf("boxblur=%s:%s", ff(p.Blur), ff(p.Blur)))
	}

	if p.Sharpen > 0 {
		amount := p.Sharpen
		if amount > 2.0 {
			amount = 2.0
		}
		filters = append(filters, fmt.Sprintf("unsharp=5:5:%s:5:5:%s", ff(amount), ff(amount/2)))
	}

	if len(filters) == 0 {
		filters = append(filters, "null")
	}

	chain := filters[0]
	for _, f := range filters[1:] {
		chain += "," + f
	}

	return []string{
		"-y",
		"-i", input,
		"-vf", chain,
		"-c:v", "libx264",
		"-c:a", "copy",
		"-preset", "fast",
		output,
	}
}

// PresetArgs applies a named filter preset.
func PresetArgs(input, output, preset string) ([]string, error) {
	p, ok := FilterPresets[preset]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
	return FilterArgs(input, output, p), nil
}

// CropArgs crops the video to width x height starting at (x, y).
func CropArgs(input, output string, width, height, x, y int) ([]string, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	return []string{
		"-y",
		"-i", input,
		"-vf", fmt.Sprintf("crop=%d:%d:%d:%d", width, height, x, y),
		"-c:v", "libx264",
		"-c:a", "copy",
		"-preset", "fast",
		output,
	}, nil
}

// RotateArgs rotates the video. Right angles use lossless-friendly transpose;
// anything else goes through the rotate filter in radians.
func RotateArgs(input, output string, degrees int) []string {
	var filter string
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		filter = "transpose=1"
	case 180:
		filter = "transpose=1,transpose=1"
	case 270:
		filter = "transpose=2"
	case 0:
		filter = "null"
	default:
		radians := float64(degrees) * 3.14159 / 180
		filter = "rotate=" + ff(radians)
	}

	return []string{
		"-y",
		"-i", input,
		"-vf", filter,
		"-c:v", "libx264",
		"-c:a", "copy",
		"-preset", "fast",
		output,
	}
}

// FlipArgs mirrors the video horizontally or vertically.
func FlipArgs(input, output string, horizontal bool) []string {
	filter := "vflip"
	if horizontal {
		filter = "hflip"
	}

	return []string{
		"-y",
		"-i", input,
		"-vf", filter,
		"-c:v", "libx264",
		"-c:a", "copy",
		"-preset", "fast",
		output,
	}
}

// ExtractAudioArgs pulls the audio track into a standalone file. Supported
// formats: mp3, aac, wav, flac.
func ExtractAudioArgs(input, output, format string) ([]string, error) {
	codec, ok := audioCodecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAudioFormat, format)
	}

	return []string{
		"-y",
		"-i", input,
		"-vn",
		"-acodec", codec,
		"-ar", "44100",
		"-ac", "2",
		output,
	}, nil
}

// VolumeArgs scales the audio level. 1.0 leaves it unchanged.
func VolumeArgs(input, output string, volume float64) ([]string, error) {
	if volume < 0 || volume > 3.0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidVolume, ff(volume))
	}

	return []string{
		"-y",
		"-i", input,
		"-af", "volume=" + ff(volume),
		"-c:v", "copy",
		"-c:a", "aac",
		output,
	}, nil
}

// FadeArgs fades audio in at the start and out toward the end. The caller
// supplies the media duration so the fade-out start can be computed without
// probing here.
func FadeArgs(input, output string, fadeIn, fadeOut, duration float64) ([]string, error) {
	if fadeIn < 0 || fadeOut < 0 {
		return nil, ErrInvalidFade
	}

	var filters []string
	if fadeIn > 0 {
		filters = append(filters, "afade=t=in:st=0:d="+ff(fadeIn))
	}
	if fadeOut > 0 {
		start := duration - fadeOut
		if start < 0 {
			start = 0
		}
		filters = append(filters, fmt.Sprintf("afade=t=out:st=%s:d=%s", ff(start), ff(fadeOut)))
	}
	if len(filters) == 0 {
		filters = append(filters, "anull")
	}

	chain := filters[0]
	for _, f := range filters[1:] {
		chain += "," + f
	}

	return []string{
		"-y",
		"-i", input,
		"-af", chain,
		"-c:v", "copy",
		"-c:a", "aac",
		output,
	}, nil
}

// RemoveAudioArgs strips the audio track without re-encoding video.
func RemoveAudioArgs(input, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-an",
		"-c:v", "copy",
		output,
	}
}

// ExportArgs renders the input at a quality tier in the given container.
// Scaling preserves aspect ratio and pads to the exact target frame. A
// non-zero fps overrides the source frame rate. GIF output is a two-pass
// pipeline; use GifPaletteArgs and GifRenderArgs for it instead.
func ExportArgs(input, output string, format Format, quality Quality, fps int) ([]string, error) {
	if format == FormatGIF {
		return nil, fmt.Errorf("%w: gif export is a two-pass pipeline", ErrUnknownFormat)
	}

	codecs, ok := videoCodecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	spec, ok := QualitySpecs[quality]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuality, quality)
	}

	return scaleEncodeArgs(input, output, spec.Width, spec.Height, fps, codecs[0], codecs[1], spec.Bitrate, spec.AudioBitrate, padFit), nil
}

// PlatformArgs renders the input for a social platform target. The frame is
// filled by scaling up and center-cropping to the platform's aspect ratio,
// then encoded as mp4 at the platform's frame rate and bitrate.
func PlatformArgs(input, output, platform string) ([]string, error) {
	spec, ok := PlatformSpecs[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}

	codecs := videoCodecs[FormatMP4]
	return scaleEncodeArgs(input, output, spec.Width, spec.Height, spec.FPS, codecs[0], codecs[1], spec.Bitrate, "256k", cropFill), nil
}

// Frame-fitting strategies for scaleEncodeArgs.
const (
	padFit   = "pad"  // letterbox: scale down to fit, pad to exact size
	cropFill = "crop" // fill: scale up to cover, center-crop to exact size
)

func scaleEncodeArgs(input, output string, width, height, fps int, vcodec, acodec, bitrate, audioBitrate, fit string) []string {
	var filter string
	if fit == cropFill {
		filter = fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
			width, height, width, height)
	} else {
		filter = fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
			width, height, width, height)
	}
	if fps > 0 {
		filter += fmt.Sprintf(",fps=%d", fps)
	}

	return []string{
		"-y",
		"-i", input,
		"-vf", filter,
		"-c:v", vcodec,
		"-b:v", bitrate,
		"-c:a", acodec,
		"-b:a", audioBitrate,
		"-preset", "fast",
		"-movflags", "+faststart",
		output,
	}
}

// ThumbnailArgs grabs a single frame at the given timestamp, scaled to fit
// within width x height.
func ThumbnailArgs(input, output string, timestamp float64, width, height int) ([]string, error) {
	if timestamp < 0 {
		return nil, fmt.Errorf("%w: negative timestamp", ErrInvalidTimeRange)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	return []string{
		"-y",
		"-i", input,
		"-ss", ff(timestamp),
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", width, height),
		output,
	}, nil
}

// GifPaletteArgs is pass one of GIF export: generate an optimized palette.
func GifPaletteArgs(input, palette string, fps, width int) ([]string, error) {
	if fps <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: fps=%d width=%d", ErrInvalidDimensions, fps, width)
	}

	return []string{
		"-y",
		"-i", input,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:-1:flags=lanczos,palettegen=stats_mode=diff", fps, width),
		palette,
	}, nil
}

// GifRenderArgs is pass two of GIF export: render using the palette from pass one.
func GifRenderArgs(input, palette, output string, fps, width int) ([]string, error) {
	if fps <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: fps=%d width=%d", ErrInvalidDimensions, fps, width)
	}

	return []string{
		"-y",
		"-i", input,
		"-i", palette,
		"-lavfi", fmt.Sprintf("fps=%d,scale=%d:-1:flags=lanczos[x];[x][1:v]paletteuse=dither=bayer", fps, width),
		output,
	}, nil
}

// ProbeArgs builds the ffprobe invocation used by Runner.Probe.
func ProbeArgs(input string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		input,
	}
}
