package service

import (
	"errors"
	"testing"

	"github.com/praaatap/vibeedit-backend/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	t.Run("ErrNotOwned", func(t *testing.T) {
		assert.Equal(t, "resource is owned by another user", ErrNotOwned.Error())
		assert.True(t, errors.Is(ErrNotOwned, ErrNotOwned))
	})

	t.Run("ErrUserNotFound", func(t *testing.T) {
		assert.Equal(t, "user not found", ErrUserNotFound.Error())
	})

	t.Run("ErrInvalidCredentials", func(t *testing.T) {
		assert.Equal(t, "invalid credentials", ErrInvalidCredentials.Error())
	})

	t.Run("ErrVideoNotFound", func(t *testing.T) {
		assert.Equal(t, "video not found", ErrVideoNotFound.Error())
	})

	t.Run("ErrVideoNotReady", func(t *testing.T) {
		assert.Equal(t, "video is not ready for processing", ErrVideoNotReady.Error())
	})

	t.Run("ErrTaskNotFinished", func(t *testing.T) {
		assert.Equal(t, "task has not completed", ErrTaskNotFinished.Error())
	})
}

func TestUserServiceError(t *testing.T) {
	t.Run("formats with wrapped error", func(t *testing.T) {
		inner := errors.New("connection reset")
		err := &UserServiceError{Operation: "register", Message: "failed to save user", Err: inner}

		assert.Equal(t, "user service register failed: failed to save user: connection reset", err.Error())
		assert.ErrorIs(t, err, inner)
	})

	t.Run("formats without wrapped error", func(t *testing.T) {
		err := &UserServiceError{Operation: "create_service", Message: "db cannot be nil"}

		assert.Equal(t, "user service create_service failed: db cannot be nil", err.Error())
		assert.Nil(t, err.Unwrap())
	})
}

func TestNewUserServiceError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, NewUserServiceError("register", "anything", nil))
	})

	t.Run("service sentinels pass through unwrapped", func(t *testing.T) {
		for _, sentinel := range []error{ErrUserNotFound, ErrEmailTaken, ErrInvalidCredentials} {
			err := NewUserServiceError("login", "lookup failed", sentinel)
			assert.Equal(t, sentinel, err)
		}
	})

	t.Run("store sentinels map to service sentinels", func(t *testing.T) {
		assert.ErrorIs(t, NewUserServiceError("get_user", "lookup failed", store.ErrUserNotFound), ErrUserNotFound)
		assert.ErrorIs(t, NewUserServiceError("register", "save failed", store.ErrEmailExists), ErrEmailTaken)
	})

	t.Run("other errors are wrapped with context", func(t *testing.T) {
		inner := errors.New("disk full")
		err := NewUserServiceError("register", "failed to save user", inner)

		var svcErr *UserServiceError
		assert.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "register", svcErr.Operation)
		assert.ErrorIs(t, err, inner)
	})
}

func TestNewVideoServiceError(t *testing.T) {
	t.Run("service sentinels pass through unwrapped", func(t *testing.T) {
		for _, sentinel := range []error{ErrVideoNotFound, ErrVideoNotReady, ErrNotOwned, ErrNoOperations} {
			err := NewVideoServiceError("submit", "resolve failed", sentinel)
			assert.Equal(t, sentinel, err)
		}
	})

	t.Run("store sentinel maps to service sentinel", func(t *testing.T) {
		assert.ErrorIs(t, NewVideoServiceError("get", "lookup failed", store.ErrVideoNotFound), ErrVideoNotFound)
	})

	t.Run("other errors are wrapped with context", func(t *testing.T) {
		inner := errors.New("ffmpeg not found")
		err := NewVideoServiceError("export.video", "failed to schedule task", inner)

		var svcErr *VideoServiceError
		assert.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "export.video", svcErr.Operation)
		assert.ErrorIs(t, err, inner)
	})
}

func TestNewAnalysisServiceError(t *testing.T) {
	t.Run("service sentinels pass through unwrapped", func(t *testing.T) {
		sentinels := []error{
			ErrEmptyTranscript,
			ErrTranscriptionUnavailable,
			ErrVideoNotFound,
			ErrVideoNotReady,
			ErrNotOwned,
		}
		for _, sentinel := range sentinels {
			err := NewAnalysisServiceError("ai.clips", "resolve failed", sentinel)
			assert.Equal(t, sentinel, err)
		}
	})

	t.Run("store sentinel maps to service sentinel", func(t *testing.T) {
		assert.ErrorIs(t, NewAnalysisServiceError("ai.clips", "lookup failed", store.ErrVideoNotFound), ErrVideoNotFound)
	})

	t.Run("other errors are wrapped with context", func(t *testing.T) {
		inner := errors.New("provider timeout")
		err := NewAnalysisServiceError("ai.analyze", "failed to schedule task", inner)

		var svcErr *AnalysisServiceError
		assert.ErrorAs(t, err, &svcErr)
		assert.ErrorIs(t, err, inner)
	})
}
