package shared

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Email string `json:"email" validate:"required,email"`
	Count int    `json:"count" validate:"min=1"`
}

// failingReader simulates a network error mid-body.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

var _ io.Reader = failingReader{}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(
			http.MethodPost,
			"/test",
			strings.NewReader(`{"email":"user@example.com","count":3}`),
		)

		var target decodeTarget
		require.NoError(t, DecodeJSON(req, &target))
		assert.Equal(t, "user@example.com", target.Email)
		assert.Equal(t, 3, target.Count)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"email":`))

		var target decodeTarget
		err := DecodeJSON(req, &target)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmptyRequestBody)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

		var target decodeTarget
		err := DecodeJSON(req, &target)
		assert.ErrorIs(t, err, ErrEmptyRequestBody)
	})

	t.Run("body read error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", failingReader{})

		var target decodeTarget
		err := DecodeJSON(req, &target)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmptyRequestBody)
	})
}

// selfValidating exercises the Validate() interface path of ValidateRequest.
type selfValidating struct {
	err error
}

func (s selfValidating) Validate() error { return s.err }

func TestValidateRequest(t *testing.T) {
	t.Run("struct tags pass", func(t *testing.T) {
		target := decodeTarget{Email: "user@example.com", Count: 1}
		assert.NoError(t, ValidateRequest(target))
	})

	t.Run("struct tags fail", func(t *testing.T) {
		target := decodeTarget{Email: "not-an-email", Count: 0}
		err := ValidateRequest(target)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Email")
	})

	t.Run("custom Validate method takes precedence", func(t *testing.T) {
		sentinel := errors.New("custom validation failed")
		assert.ErrorIs(t, ValidateRequest(selfValidating{err: sentinel}), sentinel)
		assert.NoError(t, ValidateRequest(selfValidating{}))
	})
}
