package api

import (
	"github.com/google/uuid"

	"github.com/praaatap/vibeedit-backend/internal/domain"
	"github.com/praaatap/vibeedit-backend/internal/platform/ffmpeg"
	"github.com/praaatap/vibeedit-backend/internal/service"
	"github.com/praaatap/vibeedit-backend/internal/task"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// TaskSubmittedResponse acknowledges a request that was queued as a
// background task. Poll GET /tasks/{task_id} for progress and the result.
type TaskSubmittedResponse struct {
	TaskID uuid.UUID   `json:"task_id"`
	Status task.Status `json:"status"`
}

// UploadResponse is returned after a video upload. The probe task fills in
// duration and dimensions; the video stays in status "uploaded" until the
// probe finishes.
type UploadResponse struct {
	Video       *domain.Video `json:"video"`
	ProbeTaskID uuid.UUID     `json:"probe_task_id"`
}

// VideoListResponse wraps the caller's video library.
type VideoListResponse struct {
	Videos []*domain.Video `json:"videos"`
}

// TaskListResponse wraps a filtered task listing.
type TaskListResponse struct {
	Tasks []task.Snapshot `json:"tasks"`
}

// ProcessRequest is the payload for the multi-step editing pipeline endpoint.
type ProcessRequest struct {
	Operations []ProcessOpRequest `json:"operations"`
}

// ProcessOpRequest describes one step of an editing pipeline. Kind selects
// the operation; the other fields are read only where that operation uses
// them, mirroring service.ProcessOp.
type ProcessOpRequest struct {
	Kind string `json:"kind" validate:"required"`

	Start float64 `json:"start,omitempty"`
	End   float64 `json:"end,omitempty"`

	Speed float64 `json:"speed,omitempty"`

	Filter *FilterParamsRequest `json:"filter,omitempty"`

	Preset string `json:"preset,omitempty"`

	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
	X      int `json:"x,omitempty"`
	Y      int `json:"y,omitempty"`

	Degrees int `json:"degrees,omitempty"`

	Horizontal bool `json:"horizontal,omitempty"`
}

// op converts the request into the service's pipeline step.
func (r ProcessOpRequest) op() service.ProcessOp {
	op := service.ProcessOp{
		Kind:       r.Kind,
		Start:      r.Start,
		End:        r.End,
		Speed:      r.Speed,
		Preset:     r.Preset,
		Width:      r.Width,
		Height:     r.Height,
		X:          r.X,
		Y:          r.Y,
		Degrees:    r.Degrees,
		Horizontal: r.Horizontal,
	}
	if r.Filter != nil {
		params := r.Filter.params()
		op.Filter = &params
	}
	return op
}

// FilterParamsRequest carries color adjustments. Omitted fields keep their
// neutral defaults, which are not all zero (contrast, saturation, and gamma
// default to 1.0), hence the pointers.
type FilterParamsRequest struct {
	Brightness *float64 `json:"brightness,omitempty"`
	Contrast   *float64 `json:"contrast,omitempty"`
	Saturation *float64 `json:"saturation,omitempty"`
	Gamma      *float64 `json:"gamma,omitempty"`
	Blur       *float64 `json:"blur,omitempty"`
	Sharpen    *float64 `json:"sharpen,omitempty"`
}

// params resolves the request against the neutral defaults.
func (r FilterParamsRequest) params() ffmpeg.FilterParams {
	p := ffmpeg.DefaultFilterParams()
	if r.Brightness != nil {
		p.Brightness = *r.Brightness
	}
	if r.Contrast != nil {
		p.Contrast = *r.Contrast
	}
	if r.Saturation != nil {
		p.Saturation = *r.Saturation
	}
	if r.Gamma != nil {
		p.Gamma = *r.Gamma
	}
	if r.Blur != nil {
		p.Blur = *r.Blur
	}
	if r.Sharpen != nil {
		p.Sharpen = *r.Sharpen
	}
	return p
}

// SpeedRequest adjusts playback speed; 0.25 (4x slow motion) to 4.0 (4x fast).
type SpeedRequest struct {
	VideoID uuid.UUID `json:"video_id" validate:"required"`
	Speed   float64   `json:"speed"    validate:"required"`
}

// FilterRequest applies custom color adjustments to a video.
type FilterRequest struct {
	VideoID uuid.UUID `json:"video_id" validate:"required"`
	FilterParamsRequest
}

// FilterPresetRequest applies a named color grade.
type FilterPresetRequest struct {
	VideoID uuid.UUID `json:"video_id" validate:"required"`
	Preset  string    `json:"preset"   validate:"required"`
}

// TransformRequest applies geometric operations. At least one of the three
// must be present.
type TransformRequest struct {
	VideoID        uuid.UUID    `json:"video_id" validate:"required"`
	Crop           *CropRequest `json:"crop,omitempty"`
	RotateDegrees  *int         `json:"rotate_degrees,omitempty"`
	FlipHorizontal *bool        `json:"flip_horizontal,omitempty"`
}

// CropRequest is the crop window for a transform.
type CropRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// params converts the request into the service's transform parameters.
func (r TransformRequest) params() service.TransformParams {
	p := service.TransformParams{
		RotateDegrees:  r.RotateDegrees,
		FlipHorizontal: r.FlipHorizontal,
	}
	if r.Crop != nil {
		p.Crop = &service.CropParams{
			Width:  r.Crop.Width,
			Height: r.Crop.Height,
			X:      r.Crop.X,
			Y:      r.Crop.Y,
		}
	}
	return p
}

// AudioExtractRequest pulls the audio track out of a video.
// Format defaults to mp3; aac, wav, and flac are also supported.
type AudioExtractRequest struct {
	VideoID uuid.UUID `json:"video_id" validate:"required"`
	Format  string    `json:"format,omitempty"`
}

// AudioVolumeRequest scales the audio track; 0.0 (mute) to 3.0 (300%).
type AudioVolumeRequest struct {
	VideoID uuid.UUID `json:"video_id" validate:"required"`
	Volume  float64   `json:"volume"   validate:"required"`
}

// AudioFadeRequest adds fade-in/fade-out, in seconds.
type AudioFadeRequest struct {
	VideoID uuid.UUID `json:"video_id" validate:"required"`
	FadeIn  float64   `json:"fade_in"`
	FadeOut float64   `json:"fade_out"`
}

// AudioRemoveRequest strips the audio track entirely.
type AudioRemoveRequest struct {
	VideoID uuid.UUID `json:"video_id" validate:"required"`
}

// ExportRequest renders a video to a container format and quality tier.
// Format defaults to mp4 and quality to high.
type ExportRequest struct {
	VideoID uuid.UUID `json:"video_id" validate:"required"`
	Format  string    `json:"format,omitempty"`
	Quality string    `json:"quality,omitempty"`
	FPS     int       `json:"fps,omitempty"`
}

// PlatformExportRequest renders a video to a social platform's specs.
type PlatformExportRequest struct {
	VideoID  uuid.UUID `json:"video_id" validate:"required"`
	Platform string    `json:"platform" validate:"required"`
}

// BatchExportRequest renders one video for several platforms in one task.
type BatchExportRequest struct {
	VideoID   uuid.UUID `json:"video_id" validate:"required"`
	Platforms []string  `json:"platforms"`
}

// ThumbnailRequest extracts a single frame. Zero width/height default to
// 1280x720.
type ThumbnailRequest struct {
	VideoID   uuid.UUID `json:"video_id" validate:"required"`
	Timestamp float64   `json:"timestamp"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
}

// GIFRequest renders an animated GIF. Zero width and fps default to 480 and
// 15; start_time/duration trim the source first when present.
type GIFRequest struct {
	VideoID   uuid.UUID `json:"video_id" validate:"required"`
	Width     int       `json:"width,omitempty"`
	FPS       int       `json:"fps,omitempty"`
	StartTime *float64  `json:"start_time,omitempty"`
	Duration  *float64  `json:"duration,omitempty"`
}

// AnalyzeRequest asks the AI provider for clip suggestions over a transcript.
type AnalyzeRequest struct {
	Transcript         string `json:"transcript" validate:"required"`
	Platform           string `json:"platform,omitempty"`
	Tone               string `json:"tone,omitempty"`
	ClipCount          int    `json:"clip_count,omitempty"`
	CustomPrompt       string `json:"custom_prompt,omitempty"`
	CreatorSupportMode bool   `json:"creator_support_mode,omitempty"`
}

// analysisRequest converts the request into the service's analysis request.
func (r AnalyzeRequest) analysisRequest() service.AnalysisRequest {
	return service.AnalysisRequest{
		Transcript:         r.Transcript,
		Platform:           r.Platform,
		Tone:               r.Tone,
		ClipCount:          r.ClipCount,
		CustomPrompt:       r.CustomPrompt,
		CreatorSupportMode: r.CreatorSupportMode,
	}
}

// EmotionsRequest asks for per-segment emotion detection over a transcript.
type EmotionsRequest struct {
	Transcript        string `json:"transcript" validate:"required"`
	IncludeTimestamps bool   `json:"include_timestamps"`
}

// ClipsRequest asks for clip suggestions. Either a transcript or a video_id
// must be present; with only a video_id the audio is extracted and
// transcribed first.
type ClipsRequest struct {
	VideoID            *uuid.UUID `json:"video_id,omitempty"`
	Transcript         string     `json:"transcript,omitempty"`
	Platform           string     `json:"platform,omitempty"`
	Tone               string     `json:"tone,omitempty"`
	ClipCount          int        `json:"clip_count,omitempty"`
	CustomPrompt       string     `json:"custom_prompt,omitempty"`
	CreatorSupportMode bool       `json:"creator_support_mode,omitempty"`
}

// analysisRequest converts the request into the service's analysis request.
func (r ClipsRequest) analysisRequest() service.AnalysisRequest {
	return service.AnalysisRequest{
		Transcript:         r.Transcript,
		Platform:           r.Platform,
		Tone:               r.Tone,
		ClipCount:          r.ClipCount,
		CustomPrompt:       r.CustomPrompt,
		CreatorSupportMode: r.CreatorSupportMode,
	}
}

// ProviderResponse reports the configured AI backends.
type ProviderResponse struct {
	Provider      string `json:"provider"`
	Transcription bool   `json:"transcription"`
}

// PresetInfo describes one filter preset.
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PresetsResponse lists the available filter presets.
type PresetsResponse struct {
	Presets []PresetInfo `json:"presets"`
}

// FormatInfo describes one export container format.
type FormatInfo struct {
	Format      string `json:"format"`
	Description string `json:"description"`
	Codec       string `json:"codec"`
}

// FormatsResponse lists the available export formats.
type FormatsResponse struct {
	Formats []FormatInfo `json:"formats"`
}

// PlatformInfo describes one social platform's export specs.
// MaxDurationSeconds of zero means the platform imposes no limit.
type PlatformInfo struct {
	Platform           string `json:"platform"`
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	FPS                int    `json:"fps"`
	MaxDurationSeconds int    `json:"max_duration_seconds,omitempty"`
	Bitrate            string `json:"bitrate"`
}

// PlatformsResponse lists the platform export presets.
type PlatformsResponse struct {
	Platforms []PlatformInfo `json:"platforms"`
}
