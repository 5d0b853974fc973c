package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/praaatap/vibeedit-backend/internal/api/shared"
	"github.com/praaatap/vibeedit-backend/internal/domain"
	"github.com/praaatap/vibeedit-backend/internal/platform/ffmpeg"
	"github.com/praaatap/vibeedit-backend/internal/platform/storage"
	"github.com/praaatap/vibeedit-backend/internal/service"
	"github.com/praaatap/vibeedit-backend/internal/service/auth"
	"github.com/praaatap/vibeedit-backend/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrVideoNotFound),
		errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, storage.ErrFileNotFound),
		errors.Is(err, service.ErrNoArtifact):
		return http.StatusNotFound

	// Conflict errors: the resource exists but is in the wrong state
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrVideoNotReady),
		errors.Is(err, service.ErrTaskNotFinished),
		errors.Is(err, task.ErrTaskNotTerminal):
		return http.StatusConflict

	// Upload size cap
	case errors.Is(err, storage.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrUnsupportedContentType),
		errors.Is(err, domain.ErrInvalidVideoSize),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, service.ErrNoOperations),
		errors.Is(err, service.ErrUnknownOperation),
		errors.Is(err, service.ErrEmptyTranscript),
		errors.Is(err, ffmpeg.ErrInvalidSpeed),
		errors.Is(err, ffmpeg.ErrInvalidTimeRange),
		errors.Is(err, ffmpeg.ErrInvalidVolume),
		errors.Is(err, ffmpeg.ErrInvalidFade),
		errors.Is(err, ffmpeg.ErrInvalidDimensions),
		errors.Is(err, ffmpeg.ErrUnknownPreset),
		errors.Is(err, ffmpeg.ErrUnknownFormat),
		errors.Is(err, ffmpeg.ErrUnknownQuality),
		errors.Is(err, ffmpeg.ErrUnknownPlatform),
		errors.Is(err, ffmpeg.ErrUnknownAudioFormat):
		return http.StatusBadRequest

	// Dependencies that are not configured or are shutting down
	case errors.Is(err, service.ErrTranscriptionUnavailable),
		errors.Is(err, service.ErrNoProvider),
		errors.Is(err, task.ErrSchedulerStopped):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	// Handle nil error
	if err == nil {
		return "An unexpected error occurred"
	}

	// Field validation errors carry their own safe message.
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	// Map specific error types to user-friendly messages
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid email or password"

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this resource"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	// Not found errors
	case errors.Is(err, service.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, service.ErrVideoNotFound):
		return "Video not found"

	case errors.Is(err, task.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, storage.ErrFileNotFound):
		return "File not found"

	case errors.Is(err, service.ErrNoArtifact):
		return "Task produced no downloadable file"

	// Conflict errors
	case errors.Is(err, service.ErrEmailTaken):
		return "Email already exists"

	case errors.Is(err, service.ErrVideoNotReady):
		return "Video is still being processed"

	case errors.Is(err, service.ErrTaskNotFinished):
		return "Task has not finished yet"

	case errors.Is(err, task.ErrTaskNotTerminal):
		return "Task is still pending or running"

	// Upload errors
	case errors.Is(err, storage.ErrFileTooLarge):
		return "Uploaded file is too large"

	case errors.Is(err, domain.ErrUnsupportedContentType):
		return "Please upload a video file (MP4, MOV, AVI, or WebM)"

	// Unavailable dependencies
	case errors.Is(err, service.ErrTranscriptionUnavailable):
		return "Transcription is not available"

	case errors.Is(err, service.ErrNoProvider):
		return "No AI provider is configured"

	case errors.Is(err, task.ErrSchedulerStopped):
		return "Server is shutting down"
	}

	// Parameter errors carry a safe, self-describing message in the sentinel
	// itself; the wrapping may add file paths or other internals, so only the
	// sentinel text is exposed.
	for _, s := range selfDescribingErrors {
		if errors.Is(err, s) {
			return s.Error()
		}
	}

	return "An unexpected error occurred"
}

// selfDescribingErrors are sentinels whose own text is safe to show clients.
var selfDescribingErrors = []error{
	service.ErrNoOperations,
	service.ErrUnknownOperation,
	service.ErrEmptyTranscript,
	domain.ErrInvalidEmail,
	domain.ErrPasswordTooShort,
	domain.ErrPasswordTooLong,
	ffmpeg.ErrInvalidSpeed,
	ffmpeg.ErrInvalidTimeRange,
	ffmpeg.ErrInvalidVolume,
	ffmpeg.ErrInvalidFade,
	ffmpeg.ErrInvalidDimensions,
	ffmpeg.ErrUnknownPreset,
	ffmpeg.ErrUnknownFormat,
	ffmpeg.ErrUnknownQuality,
	ffmpeg.ErrUnknownPlatform,
	ffmpeg.ErrUnknownAudioFormat,
}

// HandleAPIError maps an error to its HTTP status and safe message and writes
// the response, logging the underlying error with the request's trace ID.
// defaultMessage replaces the generic message for unexpected errors; pass ""
// to keep the mapped message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if defaultMessage != "" && status == http.StatusInternalServerError {
		message = defaultMessage
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			// Further split to get just the field validation part
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				// Create a cleaner error message
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gt", "gte":
		return "too small"
	case "lt", "lte":
		return "too large"
	default:
		return "validation failed"
	}
}
